// Package input loads prospect lists from CSV and XLSX files.
package input

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gtm-cli/internal/model"
)

// RequiredColumns must be present in every prospect file.
var RequiredColumns = []string{"company_name", "domain"}

const missingColumnsMsg = "input: missing required columns"

// ErrMissingColumns is matched by errors.Is for any MissingColumnsError.
var ErrMissingColumns = eris.New(missingColumnsMsg)

// MissingColumnsError lists the required columns a file lacks.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return missingColumnsMsg + ": " + strings.Join(e.Columns, ", ")
}

// Is reports whether target is ErrMissingColumns.
func (e *MissingColumnsError) Is(target error) bool { return target == ErrMissingColumns }

// LoadProspects reads a .csv or .xlsx file. The header is validated before
// any row is converted.
func LoadProspects(path string) ([]*model.Company, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSX(path, "")
	case ".csv", ".txt", "":
		var f *os.File
		f, err = os.Open(path) //nolint:gosec // operator-supplied path
		if err != nil {
			return nil, eris.Wrap(err, "input: open csv")
		}
		defer f.Close() //nolint:errcheck
		rows, err = readCSV(f)
	default:
		return nil, eris.Errorf("input: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return fromRows(rows)
}

// ParseCSV reads prospects from CSV text.
func ParseCSV(r io.Reader) ([]*model.Company, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) ([]*model.Company, error) {
	if len(rows) == 0 {
		return nil, &MissingColumnsError{Columns: RequiredColumns}
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		key := normalizeHeader(h)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	seen := make(map[string]bool, len(rows)-1)
	out := make([]*model.Company, 0, len(rows)-1)
	for n, row := range rows[1:] {
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		domain := model.NormalizeDomain(get("domain"))
		if domain == "" {
			zap.L().Warn("input: skipping row without domain", zap.Int("row", n+2), zap.String("company", get("company_name")))
			continue
		}
		if seen[domain] {
			zap.L().Warn("input: skipping duplicate domain", zap.Int("row", n+2), zap.String("domain", domain))
			continue
		}
		seen[domain] = true

		out = append(out, &model.Company{
			Name:             get("company_name"),
			Domain:           domain,
			Source:           model.SourceCSV,
			EmployeeCount:    parseInt(get("employee_count")),
			CatalogSKUCount:  parseInt(get("catalog_sku_count")),
			ChannelCount:     parseInt(get("channel_count")),
			BrandCount:       parseInt(get("brand_count")),
			RepCount:         parseInt(get("rep_count")),
			FieldSalesCount:  parseInt(get("field_sales_count")),
			CurrentERP:       get("current_erp"),
			Industry:         get("industry"),
			B2COnly:          parseBool(get("b2c_only")),
			HasDealerNetwork: parseBool(get("has_dealer_network")),
			LastTradeShowAt:  parseDate(get("last_trade_show_at")),
			TradeShows:       ParseTradeShows(get("trade_shows")),
			Contact: model.Contact{
				FirstName:   get("first_name"),
				LastName:    get("last_name"),
				Email:       get("email"),
				Title:       get("title"),
				LinkedInURL: get("linkedin_url"),
			},
		})
	}
	return out, nil
}

// ParseTradeShows splits "A@2026-03-10, B" into refs. Entries with an
// unparseable date keep the name and drop the date.
func ParseTradeShows(s string) []model.TradeShowRef {
	var out []model.TradeShowRef
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, date, hasDate := strings.Cut(part, "@")
		ref := model.TradeShowRef{Name: strings.TrimSpace(name)}
		if hasDate {
			ref.StartsAt = parseDate(date)
		}
		if ref.Name != "" {
			out = append(out, ref)
		}
	}
	return out
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), "_")
}

func parseInt(s string) *int {
	s = strings.TrimSpace(strings.NewReplacer(",", "", "+", "", "_", "").Replace(s))
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(f)
		return &n
	}
	return nil
}

func parseBool(s string) *bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "t":
		return model.BoolPtr(true)
	case "false", "no", "n", "0", "f":
		return model.BoolPtr(false)
	default:
		return nil
	}
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "01/02/2006", "1/2/2006", "2006/01/02"}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
