package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/gtm-cli/internal/config"
	"github.com/sells-group/gtm-cli/internal/model"
)

const exhibitorPage = `<html><body>
<div class="ex"><h3 class="name">Acme Supply</h3><a href="https://www.acme.com/">Website</a></div>
<div class="ex"><h3 class="name">Bolt Works</h3><a href="https://bolt.io">Site</a></div>
<div class="ex"><h3 class="name">No Site Co</h3></div>
</body></html>`

func TestScrapeTradeShowPersists(t *testing.T) {
	c := withConfig(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, exhibitorPage)
	}))
	t.Cleanup(srv.Close)

	c.Batch.ChunkSize = 10
	c.TradeShows = []config.TradeShowConfig{{
		Name:         "FabTech",
		StartsAt:     "2026-11-12",
		URL:          srv.URL + "/exhibitors",
		ItemSelector: "div.ex",
		NameSelector: ".name",
	}}

	var out bytes.Buffer
	ctx := context.Background()
	res, err := scrapeTradeShow(ctx, &out, "fabtech")
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Exhibitors)
	assert.Equal(t, 2, res.CompaniesCreated)
	assert.Equal(t, 1, res.WithoutDomain)
	assert.Contains(t, out.String(), "FabTech: 3 exhibitors, 2 new companies, 0 updated, 1 without a website")

	st, err := initStore(ctx)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	acme, err := st.GetCompanyByDomain(ctx, "acme.com")
	require.NoError(t, err)
	assert.Equal(t, model.SourceTradeShow, acme.Source)
	require.Len(t, acme.TradeShows, 1)
	assert.Equal(t, "FabTech", acme.TradeShows[0].Name)
}

func TestScrapeTradeShowUnknownShow(t *testing.T) {
	c := withConfig(t)
	c.Batch.ChunkSize = 10

	_, err := scrapeTradeShow(context.Background(), &bytes.Buffer{}, "nope")
	assert.Error(t, err)
}
