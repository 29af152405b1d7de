package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/gtm-cli/internal/model"
	"github.com/sells-group/gtm-cli/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

// flakyStore fails the first failures calls to UpsertCompany and
// GetCompanyByDomain with err.
type flakyStore struct {
	Store
	err      error
	failures int
	calls    int
}

func (f *flakyStore) UpsertCompany(ctx context.Context, c *model.Company) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return f.Store.UpsertCompany(ctx, c)
}

func (f *flakyStore) GetCompanyByDomain(ctx context.Context, domain string) (*model.Company, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return f.Store.GetCompanyByDomain(ctx, domain)
}

func TestRetryStore_RetriesBusy(t *testing.T) {
	inner := &flakyStore{Store: newTestSQLite(t), err: errors.New("database is locked (5) (SQLITE_BUSY)"), failures: 2}
	s := NewRetryStore(inner, fastRetry())

	require.NoError(t, s.UpsertCompany(context.Background(), &model.Company{Domain: "acme.com"}))
	assert.Equal(t, 3, inner.calls)
}

func TestRetryStore_GivesUp(t *testing.T) {
	inner := &flakyStore{Store: newTestSQLite(t), err: errors.New("database is locked"), failures: 10}
	s := NewRetryStore(inner, fastRetry())

	err := s.UpsertCompany(context.Background(), &model.Company{Domain: "acme.com"})
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryStore_NoRetryOnConstraint(t *testing.T) {
	inner := &flakyStore{Store: newTestSQLite(t), err: errors.New("UNIQUE constraint failed: companies.domain"), failures: 10}
	s := NewRetryStore(inner, fastRetry())

	err := s.UpsertCompany(context.Background(), &model.Company{Domain: "acme.com"})
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryStore_NotFoundNotRetried(t *testing.T) {
	inner := &flakyStore{Store: newTestSQLite(t)}
	s := NewRetryStore(inner, fastRetry())

	_, err := s.GetCompanyByDomain(context.Background(), "missing.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryStore_Unwrap(t *testing.T) {
	inner := newTestSQLite(t)
	assert.Same(t, inner, NewRetryStore(inner, fastRetry()).Unwrap())
}
