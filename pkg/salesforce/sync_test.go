package salesforce

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/gtm-cli/internal/model"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Query(ctx context.Context, soql string, out any) error {
	args := m.Called(ctx, soql, out)
	if fn, ok := args.Get(0).(func(out any)); ok {
		fn(out)
		return nil
	}
	return args.Error(0)
}

func (m *mockClient) InsertOne(ctx context.Context, sObjectName string, record map[string]any) (string, error) {
	args := m.Called(ctx, sObjectName, record)
	return args.String(0), args.Error(1)
}

func (m *mockClient) UpdateOne(ctx context.Context, sObjectName string, id string, fields map[string]any) error {
	return m.Called(ctx, sObjectName, id, fields).Error(0)
}

func (m *mockClient) UpdateCollection(ctx context.Context, sObjectName string, records []CollectionRecord) ([]CollectionResult, error) {
	args := m.Called(ctx, sObjectName, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CollectionResult), args.Error(1)
}

func accountsFound(ids ...string) func(out any) {
	return func(out any) {
		accts := out.(*[]Account)
		for _, id := range ids {
			*accts = append(*accts, Account{ID: id})
		}
	}
}

func soqlFor(domain string) any {
	return mock.MatchedBy(func(q string) bool { return strings.Contains(q, "'%"+domain+"%'") })
}

func scored(domain string) model.Company {
	return model.Company{Name: domain, Domain: domain, PSIScore: 72, PSIAveraged: 55, TAMTier: "TIER_A_IMMEDIATE", PrimaryEDP: "EDP7_Sales_Enablement"}
}

func TestSyncScores(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := &mockClient{}

	known := scored("known.com")
	known.SalesforceID = "001known"
	unscored := model.Company{Domain: "unscored.com"}

	m.On("Query", ctx, soqlFor("found.com"), mock.Anything).Return(accountsFound("001found"))
	m.On("Query", ctx, soqlFor("missing.com"), mock.Anything).Return(accountsFound())
	m.On("Query", ctx, soqlFor("broken.com"), mock.Anything).Return(errors.New("timeout"))
	m.On("UpdateCollection", ctx, "Account", mock.MatchedBy(func(recs []CollectionRecord) bool {
		return len(recs) == 2 && recs[0].ID == "001known" && recs[1].ID == "001found" &&
			recs[1].Fields[FieldPSIWeighted] == 72.0
	})).Return([]CollectionResult{{ID: "001known", Success: true}, {ID: "001found", Success: true}}, nil)

	res, err := SyncScores(ctx, m, []model.Company{known, scored("found.com"), scored("missing.com"), scored("broken.com"), unscored}, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Updated)
	assert.Equal(t, 1, res.NotFound)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, map[string]string{"known.com": "001known", "found.com": "001found"}, res.AccountIDs)
	m.AssertExpectations(t)
}

func TestSyncScoresCreatesMissing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := &mockClient{}
	m.On("Query", ctx, soqlFor("new.com"), mock.Anything).Return(accountsFound())
	m.On("InsertOne", ctx, "Account", mock.MatchedBy(func(rec map[string]any) bool {
		return rec["Name"] == "new.com" && rec["Website"] == "new.com" && rec[FieldTAMTier] == "TIER_A_IMMEDIATE"
	})).Return("001new", nil)

	res, err := SyncScores(ctx, m, []model.Company{scored("new.com")}, SyncOptions{CreateMissing: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, "001new", res.AccountIDs["new.com"])
	m.AssertNotCalled(t, "UpdateCollection", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncScoresBatchError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := &mockClient{}
	a := scored("a.com")
	a.SalesforceID = "001a"
	b := scored("b.com")
	b.SalesforceID = "001b"
	m.On("UpdateCollection", ctx, "Account", mock.Anything).Return(nil, errors.New("503"))

	_, err := SyncScores(ctx, m, []model.Company{a, b}, SyncOptions{})
	assert.ErrorContains(t, err, "sync scores")
}

func TestSyncScoresSingleAccountUsesUpdateAccount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := &mockClient{}
	c := scored("a.com")
	c.SalesforceID = "001a"
	m.On("UpdateOne", ctx, "Account", "001a", mock.MatchedBy(func(f map[string]any) bool {
		return f[FieldTAMTier] == "TIER_A_IMMEDIATE" && f[FieldPSIWeighted] == 72.0
	})).Return(nil).Once()

	res, err := SyncScores(ctx, m, []model.Company{c}, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, "001a", res.AccountIDs["a.com"])
	m.AssertNotCalled(t, "UpdateCollection", mock.Anything, mock.Anything, mock.Anything)
	m.AssertExpectations(t)
}

func TestBulkUpdateAccountsSingleError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := &mockClient{}
	m.On("UpdateOne", ctx, "Account", "001a", mock.Anything).Return(errors.New("503"))

	_, err := BulkUpdateAccounts(ctx, m, []AccountUpdate{{ID: "001a", Fields: map[string]any{"Name": "x"}}})
	assert.ErrorContains(t, err, "sf: update account 001a")

	_, err = BulkUpdateAccounts(ctx, m, []AccountUpdate{{ID: "", Fields: map[string]any{"Name": "x"}}})
	assert.ErrorContains(t, err, "account id is required")
}

func TestBulkUpdateAccountsBatches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := &mockClient{}
	updates := make([]AccountUpdate, maxBatchSize+5)
	for i := range updates {
		updates[i] = AccountUpdate{ID: "001", Fields: map[string]any{"Name": "x"}}
	}
	m.On("UpdateCollection", ctx, "Account", mock.MatchedBy(func(recs []CollectionRecord) bool {
		return len(recs) == maxBatchSize
	})).Return(make([]CollectionResult, maxBatchSize), nil).Once()
	m.On("UpdateCollection", ctx, "Account", mock.MatchedBy(func(recs []CollectionRecord) bool {
		return len(recs) == 5
	})).Return(make([]CollectionResult, 5), nil).Once()

	results, err := BulkUpdateAccounts(ctx, m, updates)
	require.NoError(t, err)
	assert.Len(t, results, maxBatchSize+5)
	m.AssertExpectations(t)
}

func TestScoreFields(t *testing.T) {
	t.Parallel()

	c := scored("acme.com")
	f := ScoreFields(&c)
	assert.Equal(t, 72.0, f[FieldPSIWeighted])
	assert.Equal(t, 55.0, f[FieldPSIAveraged])
	assert.Equal(t, "EDP7_Sales_Enablement", f[FieldPrimaryEDP])
}
