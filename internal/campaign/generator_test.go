package campaign

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/gtm-cli/internal/edp"
	"github.com/sells-group/gtm-cli/internal/model"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func testCompany() *model.Company {
	return &model.Company{
		Name:   "acme industrial",
		Domain: "acme.com",
		Contact: model.Contact{
			FirstName:   "dana",
			Email:       "dana@acme.com",
			LinkedInURL: "https://linkedin.com/in/dana",
		},
	}
}

func testScores(show string, days int) *model.PainScores {
	return &model.PainScores{
		PrimaryEDPWeighted: edp.SalesEnablement,
		TradeShow:          show,
		DaysUntilShow:      days,
	}
}

func testBundle() *model.EvidenceBundle {
	b := model.NewEvidenceBundle("acme.com")
	b.Findings[edp.SalesEnablement] = []string{"No product search functionality", "No online ordering"}
	return b
}

func newGen(opts ...Option) *Generator {
	return NewGenerator(nil, append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func TestDefaultCadence(t *testing.T) {
	t.Parallel()

	var days []int
	var channels []model.Channel
	for _, touch := range DefaultCadence() {
		days = append(days, touch.Day)
		channels = append(channels, touch.Channel)
	}
	assert.Equal(t, []int{0, 3, 7, 10, 14, 18, 21}, days)
	assert.Equal(t, []model.Channel{
		model.ChannelEmail, model.ChannelLinkedIn, model.ChannelEmail, model.ChannelLinkedIn,
		model.ChannelEmail, model.ChannelEmail, model.ChannelEmail,
	}, channels)
}

func TestGenerateShape(t *testing.T) {
	t.Parallel()

	c := newGen().Generate(context.Background(), testCompany(), testScores("", 0), testBundle())

	assert.Equal(t, "acme.com", c.CompanyDomain)
	assert.Equal(t, "Acme Industrial", c.CompanyName)
	assert.Equal(t, edp.SalesEnablement, c.PrimaryEDP)
	assert.Equal(t, int64(42), c.Seed)
	assert.Equal(t, fixedNow, c.CreatedAt)
	require.Len(t, c.EmailSequence, 5)
	require.Len(t, c.LinkedInSequence, 2)

	for _, m := range c.LinkedInSequence {
		assert.Empty(t, m.Subject)
	}
	for _, m := range c.Messages() {
		assert.NotContains(t, m.Body, "{{", "step %d", m.Step)
		assert.NotContains(t, m.Subject, "{{", "step %d", m.Step)
		assert.False(t, m.LLM)
	}

	intro := c.EmailSequence[0]
	assert.Equal(t, StageIntro, intro.Stage)
	assert.Contains(t, intro.Body, "Hi Dana")
	assert.Contains(t, intro.Body, "No product search functionality")
	assert.Contains(t, intro.Body, "The SuperCat Team")

	require.Len(t, c.AdSuggestions, 3)
	assert.Equal(t, "linkedin", c.AdSuggestions[0].Platform)
	assert.Equal(t, "google", c.AdSuggestions[1].Platform)
	assert.Equal(t, "meta", c.AdSuggestions[2].Platform)
}

func TestGenerateDeterministic(t *testing.T) {
	t.Parallel()

	a := newGen(WithSeed(7)).Generate(context.Background(), testCompany(), testScores("", 0), testBundle())
	b := newGen(WithSeed(7)).Generate(context.Background(), testCompany(), testScores("", 0), testBundle())
	assert.Equal(t, a, b)
}

func TestGenerateTradeShowUrgency(t *testing.T) {
	t.Parallel()

	c := newGen().Generate(context.Background(), testCompany(), testScores("ISC West", 20), testBundle())
	urgency := c.EmailSequence[3]
	require.Equal(t, StageUrgency, urgency.Stage)
	assert.Contains(t, urgency.Subject+urgency.Body, "ISC West")
	assert.Contains(t, urgency.Body, "20 days")

	none := newGen().Generate(context.Background(), testCompany(), testScores("", 0), testBundle())
	assert.Equal(t, "Timing for Acme Industrial", none.EmailSequence[3].Subject)
}

func TestGenerateFallbacks(t *testing.T) {
	t.Parallel()

	company := &model.Company{Domain: "blue-ridge-supply.com"}
	c := newGen().Generate(context.Background(), company, nil, nil)

	assert.Equal(t, edp.CatalogComplexity, c.PrimaryEDP, "first registry EDP without scores")
	assert.Equal(t, "Blue Ridge Supply", c.CompanyName)
	assert.Contains(t, c.EmailSequence[0].Body, "Hi there")
	assert.Contains(t, c.EmailSequence[0].Body, defaultFinding)
}

type fakeWriter struct {
	out   string
	err   error
	calls []RewriteRequest
}

func (f *fakeWriter) Rewrite(_ context.Context, req RewriteRequest) (string, error) {
	f.calls = append(f.calls, req)
	return f.out, f.err
}

func TestGenerateWithWriter(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{out: "Subject: leaked\nHi Dana, rewritten."}
	c := newGen(WithWriter(w)).Generate(context.Background(), testCompany(), testScores("", 0), testBundle())

	require.Len(t, w.calls, 7)
	assert.Equal(t, "Acme Industrial", w.calls[0].Company)
	assert.Equal(t, "Sales Enablement Collapse", w.calls[0].EDPName)
	assert.Equal(t, []string{"No product search functionality", "No online ordering"}, w.calls[0].Findings)
	assert.Contains(t, w.calls[0].Draft, "Hi Dana")

	for _, m := range c.Messages() {
		assert.Equal(t, "Hi Dana, rewritten.", m.Body)
		assert.True(t, m.LLM)
	}
	assert.NotEqual(t, "leaked", c.EmailSequence[0].Subject)
}

func TestGenerateWriterFailureKeepsTemplate(t *testing.T) {
	t.Parallel()

	plain := newGen().Generate(context.Background(), testCompany(), testScores("", 0), testBundle())
	failing := newGen(WithWriter(&fakeWriter{err: errors.New("rate limited")})).
		Generate(context.Background(), testCompany(), testScores("", 0), testBundle())
	assert.Equal(t, plain, failing)

	blank := newGen(WithWriter(&fakeWriter{out: "Subject: only a subject"})).
		Generate(context.Background(), testCompany(), testScores("", 0), testBundle())
	assert.Equal(t, plain, blank)
}

func TestStripSubjectLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"Subject: Hello\nBody", "Body"},
		{"**Subject:** Hello\n\nBody", "Body"},
		{"subj: x\nBody\nSubject : y\nEnd", "Body\nEnd"},
		{"Body mentions the subject: fine", "Body mentions the subject: fine"},
		{"  plain  ", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripSubjectLines(tt.in), tt.in)
	}
}

func TestOutreachRows(t *testing.T) {
	t.Parallel()

	company := testCompany()
	c := newGen().Generate(context.Background(), company, testScores("", 0), testBundle())
	rows := Outreach(c, company, fixedNow)

	require.Len(t, rows, 7)
	for i, r := range rows {
		assert.Equal(t, i+1, r.Step)
		assert.Equal(t, c.ID, r.CampaignID)
		assert.Equal(t, model.OutreachPending, r.Status)
		assert.False(t, r.SentToClay)
		if r.Channel == model.ChannelLinkedIn {
			assert.Equal(t, "https://linkedin.com/in/dana", r.Recipient)
		} else {
			assert.Equal(t, "dana@acme.com", r.Recipient)
		}
	}
	assert.NotEqual(t, rows[0].ID, rows[1].ID)
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ACME Corp", displayName(&model.Company{Name: "ACME Corp"}))
	assert.Equal(t, "Acme Tools", displayName(&model.Company{Domain: "acme-tools.com"}))
	assert.True(t, strings.HasPrefix(displayName(&model.Company{Name: "acme"}), "A"))
}
