package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "Add Payout Table")
	require.NoError(t, err)

	assert.FileExists(t, mf.UpPath)
	assert.FileExists(t, mf.DownPath)
	assert.Contains(t, mf.UpPath, "add_payout_table.up.sql")
	assert.Contains(t, mf.DownPath, "add_payout_table.down.sql")

	list, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListMigrations_MissingDir(t *testing.T) {
	list, err := ListMigrations("/nonexistent/migrations")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "add_invoices", sanitizeName("Add Invoices"))
	assert.Equal(t, "fix_overdue_sweep", sanitizeName("fix-overdue--sweep"))
	assert.Equal(t, "v2_schema", sanitizeName("V2 Schema!"))
}
