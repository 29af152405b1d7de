package salesforce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSFClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	sf, err := gosf.Init(gosf.Creds{AccessToken: "test-token", Domain: ts.URL},
		gosf.WithValidateAuthentication(false),
		gosf.WithRoundTripper(http.DefaultTransport),
	)
	require.NoError(t, err)
	return NewClient(sf, WithRateLimit(100))
}

func TestClientQueryAccounts(t *testing.T) {
	var soql string
	client := newTestSFClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		soql = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalSize": 1,
			"done":      true,
			"records": []map[string]any{{
				"attributes":      map[string]any{"type": "Account"},
				"Id":              "001xx",
				"Name":            "Acme Supply",
				"Website":         "https://acme.com",
				"PSI_Weighted__c": 61.5,
			}},
		})
	}))

	acct, err := FindAccountByWebsite(context.Background(), client, "acme.com")
	require.NoError(t, err)
	require.NotNil(t, acct)
	assert.Equal(t, "001xx", acct.ID)
	assert.Contains(t, soql, "Website LIKE '%acme.com%'")
	assert.Contains(t, soql, FieldTAMTier)
}

func TestClientQueryError(t *testing.T) {
	client := newTestSFClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode([]map[string]any{{"message": "invalid SOQL", "errorCode": "MALFORMED_QUERY"}})
	}))

	var accounts []Account
	err := client.Query(context.Background(), "SELECT", &accounts)
	assert.ErrorContains(t, err, "sf: query")
}

func TestClientUpdateOneCopiesFields(t *testing.T) {
	client := newTestSFClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	fields := map[string]any{FieldTAMTier: "TIER_A_IMMEDIATE"}
	require.NoError(t, UpdateAccount(context.Background(), client, "001xx", fields))
	assert.NotContains(t, fields, "Id", "caller map is not mutated")
}

func TestClientInsertAndUpdateCollection(t *testing.T) {
	client := newTestSFClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "001new", "success": true, "errors": []any{}})
		case http.MethodPatch:
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"id": "001xx", "success": true, "errors": []any{}},
				{"id": "002xx", "success": true, "errors": []any{}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	id, err := CreateAccount(context.Background(), client, map[string]any{"Name": "New Co"})
	require.NoError(t, err)
	assert.Equal(t, "001new", id)

	results, err := client.UpdateCollection(context.Background(), "Account", []CollectionRecord{
		{ID: "001xx", Fields: map[string]any{"Name": "A"}},
		{ID: "002xx", Fields: map[string]any{"Name": "B"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.Equal(t, "002xx", results[1].ID)
}

func TestValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Error(t, UpdateAccount(ctx, nil, "", map[string]any{"a": 1}))
	assert.Error(t, UpdateAccount(ctx, nil, "001", nil))
	_, err := CreateAccount(ctx, nil, map[string]any{})
	assert.Error(t, err)
	_, err = FindAccountByWebsite(ctx, nil, " ")
	assert.Error(t, err)
}

func TestEscapeSoql(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `o\'brien\_co\%`, escapeSoql(`o'brien_co%`))
}

func TestConnectRequiresClientID(t *testing.T) {
	t.Parallel()
	_, err := Connect(JWTCreds{})
	assert.ErrorContains(t, err, "client id")
}
