package input

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/gtm-cli/internal/model"
)

func createTestXLSX(t *testing.T, rows [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Prospects")
	require.NoError(t, err)
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}

	path := filepath.Join(t.TempDir(), "prospects.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestParseCSV(t *testing.T) {
	t.Parallel()

	data := "Company_Name, DOMAIN ,employee_count,catalog_sku_count,b2c_only,trade_shows,email\n" +
		"Acme Supply,https://www.acme.com/,\"1,200\",abc,yes,ISC West@2026-03-25;NRA Show,ann@acme.com\n" +
		"No Domain,,10,,,,\n" +
		"Acme Again,acme.com,5,,,,\n" +
		"Beta,beta.io,,2500.0,no,,\n"

	got, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, got, 2)

	acme := got[0]
	assert.Equal(t, "Acme Supply", acme.Name)
	assert.Equal(t, "acme.com", acme.Domain)
	assert.Equal(t, model.SourceCSV, acme.Source)
	require.NotNil(t, acme.EmployeeCount)
	assert.Equal(t, 1200, *acme.EmployeeCount)
	assert.Nil(t, acme.CatalogSKUCount, "unparseable numbers are unknown")
	require.NotNil(t, acme.B2COnly)
	assert.True(t, *acme.B2COnly)
	assert.Equal(t, "ann@acme.com", acme.Contact.Email)
	require.Len(t, acme.TradeShows, 2)
	assert.Equal(t, "ISC West", acme.TradeShows[0].Name)
	require.NotNil(t, acme.TradeShows[0].StartsAt)
	assert.Equal(t, time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC), *acme.TradeShows[0].StartsAt)
	assert.Equal(t, "NRA Show", acme.TradeShows[1].Name)
	assert.Nil(t, acme.TradeShows[1].StartsAt)

	beta := got[1]
	assert.Equal(t, "beta.io", beta.Domain)
	assert.Nil(t, beta.EmployeeCount)
	require.NotNil(t, beta.CatalogSKUCount)
	assert.Equal(t, 2500, *beta.CatalogSKUCount)
	require.NotNil(t, beta.B2COnly)
	assert.False(t, *beta.B2COnly)
	assert.Nil(t, beta.HasDealerNetwork)
}

func TestParseCSV_MissingColumns(t *testing.T) {
	t.Parallel()

	_, err := ParseCSV(strings.NewReader("name,website\nAcme,acme.com\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumns))

	var mc *MissingColumnsError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, []string{"company_name", "domain"}, mc.Columns)
	assert.Equal(t, "input: missing required columns: company_name, domain", err.Error())
	assert.ErrorIs(t, eris.Wrap(err, "load prospects"), ErrMissingColumns)

	_, err = ParseCSV(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrMissingColumns))
}

func TestParseCSV_ByteOrderMark(t *testing.T) {
	t.Parallel()

	got, err := ParseCSV(strings.NewReader("\ufeffCompany_Name,Domain\nAcme,acme.com\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0].Name)
	assert.Equal(t, "acme.com", got[0].Domain)
}

func TestLoadProspects_XLSX(t *testing.T) {
	t.Parallel()

	path := createTestXLSX(t, [][]string{
		{"company_name", "domain", "channel_count", "has_dealer_network", "last_trade_show_at"},
		{"Gamma Tools", "gamma.com", "3", "TRUE", "2025-09-14"},
		{"", "", "", "", ""},
	})

	got, err := LoadProspects(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "gamma.com", got[0].Domain)
	require.NotNil(t, got[0].ChannelCount)
	assert.Equal(t, 3, *got[0].ChannelCount)
	require.NotNil(t, got[0].HasDealerNetwork)
	assert.True(t, *got[0].HasDealerNetwork)
	require.NotNil(t, got[0].LastTradeShowAt)
	assert.Equal(t, 2025, got[0].LastTradeShowAt.Year())
}

func TestLoadProspects_CSVFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte("company_name,domain\nDelta,delta.com\n"), 0o600))

	got, err := LoadProspects(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Delta", got[0].Name)
}

func TestLoadProspects_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadProspects(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = LoadProspects("prospects.json")
	assert.ErrorContains(t, err, "unsupported file type")
}

func TestParseTradeShows(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ParseTradeShows(""))
	refs := ParseTradeShows(" A@not-a-date , ;B@2026-01-02")
	require.Len(t, refs, 2)
	assert.Equal(t, "A", refs[0].Name)
	assert.Nil(t, refs[0].StartsAt)
	assert.Equal(t, "B", refs[1].Name)
	require.NotNil(t, refs[1].StartsAt)
	assert.Equal(t, time.January, refs[1].StartsAt.Month())
}

func TestParseIntAndBool(t *testing.T) {
	t.Parallel()

	assert.Nil(t, parseInt(""))
	assert.Nil(t, parseInt("lots"))
	assert.Equal(t, 500, *parseInt("500+"))
	assert.Nil(t, parseBool("maybe"))
	assert.False(t, *parseBool("0"))
}
