package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"

	"github.com/sells-group/gtm-cli/internal/pipeline"
)

// File names written by WriteResults.
const (
	ResultsFile = "results.json"
	SummaryFile = "summary.md"
)

type section struct {
	title string
	table table.Writer
}

func tables(s Summary) []section {
	overview := table.NewWriter()
	overview.AppendHeader(table.Row{"Metric", "Value"})
	overview.AppendRows([]table.Row{
		{"Companies", s.Total},
		{"Scored", s.Scored},
		{"Failed", s.Failed},
		{"Qualified", s.Qualified},
		{"Mean PSI (weighted)", fmt.Sprintf("%.2f", s.MeanPSIWeighted)},
		{"Mean PSI (averaged)", fmt.Sprintf("%.2f", s.MeanPSIAveraged)},
		{"Campaigns created", s.CampaignsCreated},
		{"Webhooks sent", s.WebhooksSent},
		{"Webhook failures", s.WebhookFailures},
	})

	tiers := table.NewWriter()
	tiers.AppendHeader(table.Row{"Methodology", "Tier", "Companies"})
	for _, k := range sortedKeys(s.WeightedTiers) {
		tiers.AppendRow(table.Row{"weighted", k, s.WeightedTiers[k]})
	}
	for _, k := range sortedKeys(s.AveragedTiers) {
		tiers.AppendRow(table.Row{"averaged", k, s.AveragedTiers[k]})
	}

	edps := table.NewWriter()
	edps.AppendHeader(table.Row{"EDP", "Companies"})
	for _, k := range sortedKeys(s.PrimaryEDPs) {
		edps.AppendRow(table.Row{k, s.PrimaryEDPs[k]})
	}

	qual := table.NewWriter()
	qual.AppendHeader(table.Row{"Tier", "Companies"})
	for _, k := range sortedKeys(s.QualificationTiers) {
		qual.AppendRow(table.Row{k, s.QualificationTiers[k]})
	}

	out := []section{
		{"Run summary", overview},
		{"Tiers", tiers},
		{"Primary EDP", edps},
		{"Qualification", qual},
	}

	if len(s.Hot) > 0 {
		hot := table.NewWriter()
			hot.AppendHeader(table.Row{"#", "Company", "Domain", "Tier", "PSI", "Primary EDP"})
		for i, r := range s.Hot {
			hot.AppendRow(table.Row{i + 1, r.Name, r.Domain, r.Tier, fmt.Sprintf("%.2f", r.PSI), r.PrimaryEDP})
		}
		out = append(out, section{"Hot companies", hot})
	}
	return out
}

// RenderTable writes the summary as rounded terminal tables.
func RenderTable(w io.Writer, s Summary) {
	for _, sec := range tables(s) {
		sec.table.SetTitle(sec.title)
		sec.table.SetOutputMirror(w)
		sec.table.SetStyle(table.StyleRounded)
		sec.table.Render()
	}
}

// Markdown returns the summary as a markdown document.
func Markdown(s Summary) string {
	var b strings.Builder
	b.WriteString("# GTM pipeline report\n\n")
	fmt.Fprintf(&b, "Generated %s\n", s.GeneratedAt.Format("2006-01-02 15:04 MST"))
	for _, sec := range tables(s) {
		fmt.Fprintf(&b, "\n## %s\n\n", sec.title)
		b.WriteString(sec.table.RenderMarkdown())
		b.WriteString("\n")
	}
	return b.String()
}

// WriteResults writes results.json and summary.md into dir.
func WriteResults(dir string, results []*pipeline.Result, s Summary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "report: create %s", dir)
	}

	data, err := json.MarshalIndent(struct {
		Summary Summary            `json:"summary"`
		Results []*pipeline.Result `json:"results"`
	}{s, results}, "", "  ")
	if err != nil {
		return eris.Wrap(err, "report: marshal results")
	}
	if err := os.WriteFile(filepath.Join(dir, ResultsFile), data, 0o644); err != nil { //nolint:gosec // reports are not secret
		return eris.Wrap(err, "report: write results")
	}
	if err := os.WriteFile(filepath.Join(dir, SummaryFile), []byte(Markdown(s)), 0o644); err != nil { //nolint:gosec // reports are not secret
		return eris.Wrap(err, "report: write summary")
	}
	return nil
}

// LoadResults reads the results written by an earlier WriteResults into dir.
// A missing file yields no results and no error.
func LoadResults(dir string) ([]*pipeline.Result, error) {
	data, err := os.ReadFile(filepath.Join(dir, ResultsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "report: read results")
	}
	var doc struct {
		Results []*pipeline.Result `json:"results"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "report: decode results")
	}
	return doc.Results, nil
}

// MergeResults appends cur to prev. A company present in both keeps its
// position from prev and takes the row from cur.
func MergeResults(prev, cur []*pipeline.Result) []*pipeline.Result {
	out := make([]*pipeline.Result, 0, len(prev)+len(cur))
	index := make(map[string]int, len(prev)+len(cur))
	add := func(r *pipeline.Result) {
		if r == nil {
			return
		}
		key := resultKey(r)
		if i, ok := index[key]; ok && key != "" {
			out[i] = r
			return
		}
		if key != "" {
			index[key] = len(out)
		}
		out = append(out, r)
	}
	for _, r := range prev {
		add(r)
	}
	for _, r := range cur {
		add(r)
	}
	return out
}

func resultKey(r *pipeline.Result) string {
	if r.Company == nil {
		return ""
	}
	return r.Company.Domain
}
