package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresFiles_Ordered(t *testing.T) {
	files, err := PostgresFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)

	assert.Equal(t, "001_rewards.sql", files[0])
	for i := 1; i < len(files); i++ {
		assert.Less(t, files[i-1], files[i])
	}
}

func TestPostgresFiles_Idempotent(t *testing.T) {
	files, err := PostgresFiles()
	require.NoError(t, err)

	for _, file := range files {
		data, err := fs.ReadFile(PostgresFS, "postgres/"+file)
		require.NoError(t, err)

		for _, line := range strings.Split(string(data), "\n") {
			upper := strings.ToUpper(strings.TrimSpace(line))
			if strings.HasPrefix(upper, "CREATE TABLE") || strings.HasPrefix(upper, "CREATE INDEX") {
				assert.Contains(t, upper, "IF NOT EXISTS", "%s: %s", file, line)
			}
		}
	}
}
