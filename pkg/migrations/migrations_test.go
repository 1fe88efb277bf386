package migrations_test

import (
	"context"
	"testing"

	"github.com/lnrelease/lnc/pkg/migrations"
	"github.com/lnrelease/lnc/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBringUpToDate(t *testing.T) {
	ctx := context.Background()
	db := testutils.NewDB(t)

	group, err := migrations.BringUpToDate(ctx, db)
	require.NoError(t, err)
	assert.True(t, group.IsZero())

	ms, err := migrations.NewMigrator(db).MigrationsWithStatus(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, ms)
	assert.Empty(t, ms.Unapplied())

	for _, table := range []string{"publishers", "series", "volumes", "publications", "jobs"} {
		exists, err := db.NewSelect().
			TableExpr("sqlite_master").
			Where("type = 'table' AND name = ?", table).
			Exists(ctx)
		require.NoError(t, err)
		assert.True(t, exists, table)
	}
}
