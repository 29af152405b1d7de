package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/pain-signal-webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestReceiverAcceptsJSON(t *testing.T) {
	t.Parallel()

	rc := NewReceiver(10, nil)
	h := rc.Routes()

	rec := post(t, h, `{"company_name":"Acme","tam_tier":"TIER_A_IMMEDIATE","psi_score":81}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "received", resp["status"])
	assert.Equal(t, float64(1), resp["id"])

	rec = post(t, h, `[1,2,3]`)
	assert.Equal(t, http.StatusOK, rec.Code, "any JSON is accepted")

	total, stored := rc.Stats()
	assert.Equal(t, int64(2), total)
	assert.Equal(t, 2, stored)
}

func TestReceiverRejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	rc := NewReceiver(10, nil)
	rec := post(t, rc.Routes(), `{"company_name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid json")

	total, _ := rc.Stats()
	assert.Zero(t, total)
}

func TestReceiverRingKeepsNewest(t *testing.T) {
	t.Parallel()

	rc := NewReceiver(3, nil)
	h := rc.Routes()
	for i := 1; i <= 5; i++ {
		post(t, h, `{"n":`+string(rune('0'+i))+`}`)
	}

	entries := rc.Recent(0)
	require.Len(t, entries, 3)
	assert.Equal(t, []int64{5, 4, 3}, []int64{entries[0].ID, entries[1].ID, entries[2].ID})
	assert.JSONEq(t, `{"n":5}`, string(entries[0].Payload))

	total, stored := rc.Stats()
	assert.Equal(t, int64(5), total)
	assert.Equal(t, 3, stored)
}

func TestReceiverListAndHealth(t *testing.T) {
	t.Parallel()

	rc := NewReceiver(10, nil)
	h := rc.Routes()
	for i := 0; i < 4; i++ {
		post(t, h, `{"ok":true}`)
	}

	rec := get(t, h, "/webhooks?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count    int     `json:"count"`
		Webhooks []Entry `json:"webhooks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, int64(4), list.Webhooks[0].ID)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/webhooks?limit=abc").Code)

	rec = get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, float64(4), health["webhooks_received"])
}

func TestReceiverMetricsEndpoint(t *testing.T) {
	t.Parallel()

	rc := NewReceiver(10, nil)
	h := rc.Routes()
	post(t, h, `{}`)

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gtm_receiver_webhooks_total")
}

func TestReceiverCORS(t *testing.T) {
	t.Parallel()

	rc := NewReceiver(10, []string{"https://app.example.com"})
	req := httptest.NewRequest(http.MethodOptions, "/pain-signal-webhook", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	rc.Routes().ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestListenAndServeShutsDown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ListenAndServe(ctx, 0, NewReceiver(1, nil).Routes()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
