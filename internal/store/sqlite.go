package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/gtm-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	domain             TEXT PRIMARY KEY,
	name               TEXT NOT NULL DEFAULT '',
	source             TEXT NOT NULL DEFAULT '',
	tam_tier           TEXT NOT NULL DEFAULT '',
	tier_averaged      TEXT NOT NULL DEFAULT '',
	psi_score          REAL NOT NULL DEFAULT 0,
	psi_averaged       REAL NOT NULL DEFAULT 0,
	primary_edp        TEXT NOT NULL DEFAULT '',
	qualified          INTEGER NOT NULL DEFAULT 0,
	qualification_tier TEXT NOT NULL DEFAULT '',
	data               TEXT NOT NULL,
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS campaigns (
	id             TEXT PRIMARY KEY,
	company_domain TEXT NOT NULL REFERENCES companies(domain),
	primary_edp    TEXT NOT NULL,
	seed           INTEGER NOT NULL DEFAULT 0,
	data           TEXT NOT NULL,
	created_at     DATETIME NOT NULL
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
	sent_to_clay   INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL,
	sent_at        DATETIME
);

CREATE TABLE IF NOT EXISTS trade_shows (
	name       TEXT PRIMARY KEY,
	url        TEXT NOT NULL DEFAULT '',
	starts_at  DATETIME,
	scraped_at DATETIME
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
	value       REAL NOT NULL,
	recorded_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_companies_tam_tier ON companies(tam_tier);
CREATE INDEX IF NOT EXISTS idx_campaigns_domain_edp ON campaigns(company_domain, primary_edp);
CREATE INDEX IF NOT EXISTS idx_outreach_campaign ON outreach(campaign_id);
CREATE INDEX IF NOT EXISTS idx_metrics_name ON performance_metrics(name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCompany(ctx context.Context, c *model.Company) error {
	if err := validateCompany(c); err != nil {
		return err
	}
	prepareCompany(c, time.Now().UTC())

	data, err := json.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal company")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO companies (domain, name, source, tam_tier, tier_averaged, psi_score, psi_averaged,
			primary_edp, qualified, qualification_tier, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			name = excluded.name,
			source = CASE WHEN companies.source = '' THEN excluded.source ELSE companies.source END,
			tam_tier = excluded.tam_tier,
			tier_averaged = excluded.tier_averaged,
			psi_score = excluded.psi_score,
			psi_averaged = excluded.psi_averaged,
			primary_edp = excluded.primary_edp,
			qualified = excluded.qualified,
			qualification_tier = excluded.qualification_tier,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		c.Domain, c.Name, string(c.Source), c.TAMTier, c.TierAveraged, c.PSIScore, c.PSIAveraged,
		c.PrimaryEDP, c.Qualified, string(c.QualificationTier), string(data), c.CreatedAt, c.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert company %s", c.Domain)
}

func (s *SQLiteStore) GetCompanyByDomain(ctx context.Context, domain string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data, source, created_at, updated_at FROM companies WHERE domain = ?`,
		model.NormalizeDomain(domain),
	)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, eris.Wrap(err, "sqlite: get company")
}

func (s *SQLiteStore) ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error) {
	query := `SELECT data, source, created_at, updated_at FROM companies WHERE 1=1`
	var args []any

	if filter.Tier != "" {
		query += ` AND tam_tier = ?`
		args = append(args, filter.Tier)
	}
	if filter.QualificationTier != "" {
		query += ` AND qualification_tier = ?`
		args = append(args, string(filter.QualificationTier))
	}
	if filter.QualifiedOnly {
		query += ` AND qualified = 1`
	}
	if filter.MinPSI > 0 {
		query += ` AND psi_score >= ?`
		args = append(args, filter.MinPSI)
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, string(filter.Source))
	}
	query += ` ORDER BY psi_score DESC, domain ASC LIMIT ?`
	args = append(args, listLimit(filter.Limit))
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteStore) CampaignExists(ctx context.Context, domain, edp string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM campaigns WHERE company_domain = ? AND primary_edp = ?)`,
		model.NormalizeDomain(domain), edp,
	).Scan(&exists)
	return exists, eris.Wrap(err, "sqlite: campaign exists")
}

func (s *SQLiteStore) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	prepareCampaign(c, time.Now().UTC())
	data, err := json.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal campaign")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, company_domain, primary_edp, seed, data, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.CompanyDomain, c.PrimaryEDP, c.Seed, string(data), c.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert campaign for %s", c.CompanyDomain)
}

func (s *SQLiteStore) CreateOutreach(ctx context.Context, rows []model.Outreach) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin outreach tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range rows {
		prepareOutreach(&rows[i], now)
		o := rows[i]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO outreach (id, campaign_id, company_domain, step, day, channel, recipient,
				subject, body, status, sent_to_clay, created_at, sent_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.CampaignID, o.CompanyDomain, o.Step, o.Day, string(o.Channel), o.Recipient,
			o.Subject, o.Body, string(o.Status), o.SentToClay, o.CreatedAt, o.SentAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert outreach step %d", o.Step)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit outreach")
}

func (s *SQLiteStore) ListOutreach(ctx context.Context, campaignID string) ([]model.Outreach, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, campaign_id, company_domain, step, day, channel, recipient, subject, body,
			status, sent_to_clay, created_at, sent_at
		FROM outreach WHERE campaign_id = ? ORDER BY step`,
		campaignID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list outreach")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Outreach
	for rows.Next() {
		var o model.Outreach
		var sentAt sql.NullTime
		if err := rows.Scan(&o.ID, &o.CampaignID, &o.CompanyDomain, &o.Step, &o.Day, &o.Channel,
			&o.Recipient, &o.Subject, &o.Body, &o.Status, &o.SentToClay, &o.CreatedAt, &sentAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan outreach")
		}
		if sentAt.Valid {
			o.SentAt = &sentAt.Time
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list outreach iterate")
}

func (s *SQLiteStore) MarkOutreachSent(ctx context.Context, campaignID string, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE outreach SET status = ?, sent_to_clay = 1, sent_at = ? WHERE campaign_id = ? AND status = ?`,
		string(model.OutreachSentToClay), at.UTC(), campaignID, string(model.OutreachPending),
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: mark outreach sent %s", campaignID)
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) UpsertTradeShow(ctx context.Context, show model.TradeShow) error {
	if show.Name == "" {
		return eris.New("sqlite: trade show name is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trade_shows (name, url, starts_at, scraped_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			url = CASE WHEN excluded.url = '' THEN trade_shows.url ELSE excluded.url END,
			starts_at = COALESCE(excluded.starts_at, trade_shows.starts_at),
			scraped_at = COALESCE(excluded.scraped_at, trade_shows.scraped_at)`,
		show.Name, show.URL, show.StartsAt, show.ScrapedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert trade show %s", show.Name)
}

func (s *SQLiteStore) ListTradeShows(ctx context.Context) ([]model.TradeShow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, url, starts_at, scraped_at FROM trade_shows ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list trade shows")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.TradeShow
	for rows.Next() {
		var ts model.TradeShow
		var startsAt, scrapedAt sql.NullTime
		if err := rows.Scan(&ts.Name, &ts.URL, &startsAt, &scrapedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan trade show")
		}
		if startsAt.Valid {
			ts.StartsAt = &startsAt.Time
		}
		if scrapedAt.Valid {
			ts.ScrapedAt = &scrapedAt.Time
		}
		out = append(out, ts)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list trade shows iterate")
}

func (s *SQLiteStore) UpsertExhibitors(ctx context.Context, exhibitors []model.Exhibitor) (int64, error) {
	if len(exhibitors) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin exhibitors tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var n int64
	for _, e := range exhibitors {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO exhibitors (show_name, name, domain, booth, profile_url) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(show_name, name) DO UPDATE SET
				domain = excluded.domain, booth = excluded.booth, profile_url = excluded.profile_url`,
			e.ShowName, e.Name, e.Domain, e.Booth, e.ProfileURL,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert exhibitor %s", e.Name)
		}
		affected, _ := res.RowsAffected()
		n += affected
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit exhibitors")
	}
	return n, nil
}

func (s *SQLiteStore) ListExhibitors(ctx context.Context, showName string) ([]model.Exhibitor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT show_name, name, domain, booth, profile_url FROM exhibitors WHERE show_name = ? ORDER BY name`,
		showName,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list exhibitors")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Exhibitor
	for rows.Next() {
		var e model.Exhibitor
		if err := rows.Scan(&e.ShowName, &e.Name, &e.Domain, &e.Booth, &e.ProfileURL); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan exhibitor")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list exhibitors iterate")
}

func (s *SQLiteStore) RecordMetrics(ctx context.Context, metrics []model.PerformanceMetric) error {
	if len(metrics) == 0 {
		return nil
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin metrics tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range metrics {
		prepareMetric(&metrics[i], now)
		m := metrics[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO performance_metrics (id, campaign_id, name, value, recorded_at) VALUES (?, ?, ?, ?, ?)`,
			m.ID, m.CampaignID, m.Name, m.Value, m.RecordedAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert metric %s", m.Name)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit metrics")
}

func (s *SQLiteStore) ListMetrics(ctx context.Context, name string) ([]model.PerformanceMetric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, campaign_id, name, value, recorded_at FROM performance_metrics WHERE name = ? ORDER BY recorded_at`,
		name,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list metrics")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.PerformanceMetric
	for rows.Next() {
		var m model.PerformanceMetric
		if err := rows.Scan(&m.ID, &m.CampaignID, &m.Name, &m.Value, &m.RecordedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan metric")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list metrics iterate")
}

// helpers shared with the postgres store

type scannable interface {
	Scan(dest ...any) error
}

func scanCompany(row scannable) (*model.Company, error) {
	var data []byte
	var source string
	var created, updated time.Time
	if err := row.Scan(&data, &source, &created, &updated); err != nil {
		return nil, err
	}
	var c model.Company
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrap(err, "unmarshal company")
	}
	c.Source = model.Source(source)
	c.CreatedAt = created.UTC()
	c.UpdatedAt = updated.UTC()
	return &c, nil
}

func prepareCompany(c *model.Company, now time.Time) {
	c.Domain = model.NormalizeDomain(c.Domain)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}

func prepareCampaign(c *model.Campaign, now time.Time) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CompanyDomain = model.NormalizeDomain(c.CompanyDomain)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
}

func prepareOutreach(o *model.Outreach, now time.Time) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.Status == "" {
		o.Status = model.OutreachPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
}

func prepareMetric(m *model.PerformanceMetric, now time.Time) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.RecordedAt.IsZero() {
		m.RecordedAt = now
	}
}
