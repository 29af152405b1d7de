package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/gtm-cli/internal/db"
	"github.com/sells-group/gtm-cli/internal/model"
)

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects to url and returns a store that owns the pool.
func NewPostgres(ctx context.Context, url string, cfg db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.NewPool(ctx, url, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	domain             TEXT PRIMARY KEY,
	name               TEXT NOT NULL DEFAULT '',
	source             TEXT NOT NULL DEFAULT '',
	tam_tier           TEXT NOT NULL DEFAULT '',
	tier_averaged      TEXT NOT NULL DEFAULT '',
	psi_score          DOUBLE PRECISION NOT NULL DEFAULT 0,
	psi_averaged       DOUBLE PRECISION NOT NULL DEFAULT 0,
	primary_edp        TEXT NOT NULL DEFAULT '',
	qualified          BOOLEAN NOT NULL DEFAULT false,
	qualification_tier TEXT NOT NULL DEFAULT '',
	data               JSONB NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS campaigns (
	id             TEXT PRIMARY KEY,
	company_domain TEXT NOT NULL REFERENCES companies(domain),
	primary_edp    TEXT NOT NULL,
	seed           BIGINT NOT NULL DEFAULT 0,
	data           JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS outreach (
	id             TEXT PRIMARY KEY,
	campaign_id    TEXT NOT NULL REFERENCES campaigns(id),
	company_domain TEXT NOT NULL,
	step           INTEGER NOT NULL,
	day            INTEGER NOT NULL,
	channel        TEXT NOT NULL,
	recipient      TEXT NOT NULL DEFAULT '',
	subject        TEXT NOT NULL DEFAULT '',
	body           TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending',
	sent_to_clay   BOOLEAN NOT NULL DEFAULT false,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	sent_at        TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS trade_shows (
	name       TEXT PRIMARY KEY,
	url        TEXT NOT NULL DEFAULT '',
	starts_at  TIMESTAMPTZ,
	scraped_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS exhibitors (
	show_name   TEXT NOT NULL,
	name        TEXT NOT NULL,
	domain      TEXT NOT NULL DEFAULT '',
	booth       TEXT NOT NULL DEFAULT '',
	profile_url TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (show_name, name)
);

CREATE TABLE IF NOT EXISTS performance_metrics (
	id          TEXT PRIMARY KEY,
	campaign_id TEXT NOT NULL DEFAULT '',
	name        TEXT NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_companies_tam_tier ON companies(tam_tier);
CREATE INDEX IF NOT EXISTS idx_campaigns_domain_edp ON campaigns(company_domain, primary_edp);
CREATE INDEX IF NOT EXISTS idx_outreach_campaign ON outreach(campaign_id);
CREATE INDEX IF NOT EXISTS idx_metrics_name ON performance_metrics(name);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertCompany(ctx context.Context, c *model.Company) error {
	if err := validateCompany(c); err != nil {
		return err
	}
	prepareCompany(c, time.Now().UTC())

	data, err := json.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal company")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO companies (domain, name, source, tam_tier, tier_averaged, psi_score, psi_averaged,
			primary_edp, qualified, qualification_tier, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (domain) DO UPDATE SET
			name = EXCLUDED.name,
			source = CASE WHEN companies.source = '' THEN EXCLUDED.source ELSE companies.source END,
			tam_tier = EXCLUDED.tam_tier,
			tier_averaged = EXCLUDED.tier_averaged,
			psi_score = EXCLUDED.psi_score,
			psi_averaged = EXCLUDED.psi_averaged,
			primary_edp = EXCLUDED.primary_edp,
			qualified = EXCLUDED.qualified,
			qualification_tier = EXCLUDED.qualification_tier,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		c.Domain, c.Name, string(c.Source), c.TAMTier, c.TierAveraged, c.PSIScore, c.PSIAveraged,
		c.PrimaryEDP, c.Qualified, string(c.QualificationTier), data, c.CreatedAt, c.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert company %s", c.Domain)
}

func (s *PostgresStore) GetCompanyByDomain(ctx context.Context, domain string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT data, source, created_at, updated_at FROM companies WHERE domain = $1`,
		model.NormalizeDomain(domain),
	)
	c, err := scanCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, eris.Wrap(err, "postgres: get company")
}

func (s *PostgresStore) ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error) {
	query := `SELECT data, source, created_at, updated_at FROM companies WHERE true`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Tier != "" {
		query += ` AND tam_tier = ` + arg(filter.Tier)
	}
	if filter.QualificationTier != "" {
		query += ` AND qualification_tier = ` + arg(string(filter.QualificationTier))
	}
	if filter.QualifiedOnly {
		query += ` AND qualified`
	}
	if filter.MinPSI > 0 {
		query += ` AND psi_score >= ` + arg(filter.MinPSI)
	}
	if filter.Source != "" {
		query += ` AND source = ` + arg(string(filter.Source))
	}
	query += ` ORDER BY psi_score DESC, domain ASC LIMIT ` + arg(listLimit(filter.Limit))
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

func (s *PostgresStore) CampaignExists(ctx context.Context, domain, edp string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM campaigns WHERE company_domain = $1 AND primary_edp = $2)`,
		model.NormalizeDomain(domain), edp,
	).Scan(&exists)
	return exists, eris.Wrap(err, "postgres: campaign exists")
}

func (s *PostgresStore) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	prepareCampaign(c, time.Now().UTC())
	data, err := json.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal campaign")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO campaigns (id, company_domain, primary_edp, seed, data, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.CompanyDomain, c.PrimaryEDP, c.Seed, data, c.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert campaign for %s", c.CompanyDomain)
}

func (s *PostgresStore) CreateOutreach(ctx context.Context, rows []model.Outreach) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin outreach tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for i := range rows {
		prepareOutreach(&rows[i], now)
		o := rows[i]
		if _, err := tx.Exec(ctx, `
			INSERT INTO outreach (id, campaign_id, company_domain, step, day, channel, recipient,
				subject, body, status, sent_to_clay, created_at, sent_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			o.ID, o.CampaignID, o.CompanyDomain, o.Step, o.Day, string(o.Channel), o.Recipient,
			o.Subject, o.Body, string(o.Status), o.SentToClay, o.CreatedAt, o.SentAt,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert outreach step %d", o.Step)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit outreach")
}

func (s *PostgresStore) ListOutreach(ctx context.Context, campaignID string) ([]model.Outreach, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, campaign_id, company_domain, step, day, channel, recipient, subject, body,
			status, sent_to_clay, created_at, sent_at
		FROM outreach WHERE campaign_id = $1 ORDER BY step`,
		campaignID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list outreach")
	}
	defer rows.Close()

	var out []model.Outreach
	for rows.Next() {
		var o model.Outreach
		var channel, status string
		if err := rows.Scan(&o.ID, &o.CampaignID, &o.CompanyDomain, &o.Step, &o.Day, &channel,
			&o.Recipient, &o.Subject, &o.Body, &status, &o.SentToClay, &o.CreatedAt, &o.SentAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan outreach")
		}
		o.Channel = model.Channel(channel)
		o.Status = model.OutreachStatus(status)
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list outreach iterate")
}

func (s *PostgresStore) MarkOutreachSent(ctx context.Context, campaignID string, at time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE outreach SET status = $1, sent_to_clay = true, sent_at = $2 WHERE campaign_id = $3 AND status = $4`,
		string(model.OutreachSentToClay), at.UTC(), campaignID, string(model.OutreachPending),
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: mark outreach sent %s", campaignID)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) UpsertTradeShow(ctx context.Context, show model.TradeShow) error {
	if show.Name == "" {
		return eris.New("postgres: trade show name is required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trade_shows (name, url, starts_at, scraped_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			url = CASE WHEN EXCLUDED.url = '' THEN trade_shows.url ELSE EXCLUDED.url END,
			starts_at = COALESCE(EXCLUDED.starts_at, trade_shows.starts_at),
			scraped_at = COALESCE(EXCLUDED.scraped_at, trade_shows.scraped_at)`,
		show.Name, show.URL, show.StartsAt, show.ScrapedAt,
	)
	return eris.Wrapf(err, "postgres: upsert trade show %s", show.Name)
}

func (s *PostgresStore) ListTradeShows(ctx context.Context) ([]model.TradeShow, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, url, starts_at, scraped_at FROM trade_shows ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list trade shows")
	}
	defer rows.Close()

	var out []model.TradeShow
	for rows.Next() {
		var ts model.TradeShow
		if err := rows.Scan(&ts.Name, &ts.URL, &ts.StartsAt, &ts.ScrapedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan trade show")
		}
		out = append(out, ts)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list trade shows iterate")
}

var exhibitorUpsert = db.UpsertConfig{
	Table:        "exhibitors",
	Columns:      []string{"show_name", "name", "domain", "booth", "profile_url"},
	ConflictKeys: []string{"show_name", "name"},
}

func (s *PostgresStore) UpsertExhibitors(ctx context.Context, exhibitors []model.Exhibitor) (int64, error) {
	rows := make([][]any, len(exhibitors))
	for i, e := range exhibitors {
		rows[i] = []any{e.ShowName, e.Name, e.Domain, e.Booth, e.ProfileURL}
	}
	n, err := db.BulkUpsert(ctx, s.pool, exhibitorUpsert, rows)
	return n, eris.Wrap(err, "postgres: upsert exhibitors")
}

func (s *PostgresStore) ListExhibitors(ctx context.Context, showName string) ([]model.Exhibitor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT show_name, name, domain, booth, profile_url FROM exhibitors WHERE show_name = $1 ORDER BY name`,
		showName,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list exhibitors")
	}
	defer rows.Close()

	var out []model.Exhibitor
	for rows.Next() {
		var e model.Exhibitor
		if err := rows.Scan(&e.ShowName, &e.Name, &e.Domain, &e.Booth, &e.ProfileURL); err != nil {
			return nil, eris.Wrap(err, "postgres: scan exhibitor")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list exhibitors iterate")
}

var metricColumns = []string{"id", "campaign_id", "name", "value", "recorded_at"}

func (s *PostgresStore) RecordMetrics(ctx context.Context, metrics []model.PerformanceMetric) error {
	now := time.Now().UTC()
	rows := make([][]any, len(metrics))
	for i := range metrics {
		prepareMetric(&metrics[i], now)
		m := metrics[i]
		rows[i] = []any{m.ID, m.CampaignID, m.Name, m.Value, m.RecordedAt}
	}
	_, err := db.CopyFrom(ctx, s.pool, "performance_metrics", metricColumns, rows)
	return eris.Wrap(err, "postgres: record metrics")
}

func (s *PostgresStore) ListMetrics(ctx context.Context, name string) ([]model.PerformanceMetric, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, campaign_id, name, value, recorded_at FROM performance_metrics WHERE name = $1 ORDER BY recorded_at`,
		name,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list metrics")
	}
	defer rows.Close()

	var out []model.PerformanceMetric
	for rows.Next() {
		var m model.PerformanceMetric
		if err := rows.Scan(&m.ID, &m.CampaignID, &m.Name, &m.Value, &m.RecordedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan metric")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list metrics iterate")
}
