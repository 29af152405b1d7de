package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/gtm-cli/internal/model"
)

func TestSQLite_MigrateIdempotent(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))
}

func TestSQLite_CampaignRequiresCompany(t *testing.T) {
	s := newTestSQLite(t)

	err := s.CreateCampaign(context.Background(), &model.Campaign{
		CompanyDomain: "ghost.com",
		PrimaryEDP:    "EDP7_Sales_Enablement",
	})
	require.Error(t, err, "foreign keys are enforced")
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.UpsertCompany(ctx, &model.Company{Domain: "acme.com", Name: "Acme", PSIScore: 61}))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	got, err := s.GetCompanyByDomain(ctx, "acme.com")
	require.NoError(t, err)
	assert.Equal(t, 61.0, got.PSIScore)
}

func TestSQLite_OpenBadPath(t *testing.T) {
	_, err := NewSQLite(filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	assert.Error(t, err)
}
