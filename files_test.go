package orgauth_test

import (
	"io/fs"
	"strings"
	"testing"

	orgauth "github.com/goliatone/go-orgauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMigrationsFS(t *testing.T) {
	sub, err := fs.Sub(orgauth.GetMigrationsFS(), "data/sql/migrations")
	require.NoError(t, err)

	entries, err := fs.ReadDir(sub, ".")
	require.NoError(t, err)

	tables := map[string]bool{}
	for _, entry := range entries {
		require.False(t, entry.IsDir())
		assert.True(t, strings.HasSuffix(entry.Name(), ".sql"))

		raw, err := fs.ReadFile(sub, entry.Name())
		require.NoError(t, err)
		assert.NotEmpty(t, raw)

		for _, table := range []string{"users", "sessions", "login_attempts"} {
			if strings.Contains(string(raw), "CREATE TABLE IF NOT EXISTS "+table) {
				tables[table] = true
			}
		}
	}

	assert.True(t, tables["users"])
	assert.True(t, tables["sessions"])
	assert.True(t, tables["login_attempts"])
}
