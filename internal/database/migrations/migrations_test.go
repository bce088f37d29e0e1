package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	files, err := fs.Glob(migrationFS, "sql/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	ups, downs := 0, 0
	for _, f := range files {
		switch {
		case strings.HasSuffix(f, ".up.sql"):
			ups++
		case strings.HasSuffix(f, ".down.sql"):
			downs++
		}
	}
	assert.Equal(t, ups, downs)
}

func TestEmbeddedSourceOpens(t *testing.T) {
	src, err := iofs.New(migrationFS, "sql")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)
}

func TestCardSchemaEnforcesOneCardPerProgram(t *testing.T) {
	data, err := fs.ReadFile(migrationFS, "sql/000001_create_fidelity_tables.up.sql")
	require.NoError(t, err)
	schema := strings.Join(strings.Fields(string(data)), " ")
	assert.Contains(t, schema, "UNIQUE (customer_id, loyalty_card_id)")
	assert.Contains(t, schema, "card_number BIGINT NOT NULL UNIQUE")
}
