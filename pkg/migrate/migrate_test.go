package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateEmbedded())

	files, err := fs.Glob(Migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)
}

func TestReturnMigrationGuardsRefunds(t *testing.T) {
	files, err := fs.Glob(Migrations, "migrations/*_create_returns_refunds.sql")
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := fs.ReadFile(Migrations, files[0])
	require.NoError(t, err)
	content := string(data)

	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS returns",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_returns_open_detail",
		"WHERE state <> 'REFUND_COMPLETE'",
		"CONSTRAINT ux_refunds_return_id UNIQUE (return_id)",
		"CHECK (percent BETWEEN 0 AND 100)",
		"DROP TABLE IF EXISTS refunds",
	} {
		require.True(t, strings.Contains(content, want), "missing %q", want)
	}
}

func TestMileageMigrationForbidsNegativeBalance(t *testing.T) {
	files, err := fs.Glob(Migrations, "migrations/*_create_mileage.sql")
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := fs.ReadFile(Migrations, files[0])
	require.NoError(t, err)
	require.Contains(t, string(data), "remain_mileage BIGINT NOT NULL CHECK (remain_mileage >= 0)")
}

func TestValidateRejectsBrokenFiles(t *testing.T) {
	ok := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose StatementEnd\n-- +goose Down\n"
	tests := []struct {
		name  string
		files fstest.MapFS
		err   string
	}{
		{
			name:  "bad filename",
			files: fstest.MapFS{"m/create.sql": {Data: []byte(ok)}},
			err:   "invalid migration filename",
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"m/20260101000000_a.sql": {Data: []byte(ok)},
				"m/20260101000000_b.sql": {Data: []byte(ok)},
			},
			err: "duplicate migration version",
		},
		{
			name:  "missing down",
			files: fstest.MapFS{"m/20260101000000_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;")}},
			err:   "missing \"-- +goose Down\"",
		},
		{
			name:  "unbalanced statement",
			files: fstest.MapFS{"m/20260101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose StatementBegin\n-- +goose Down\n")}},
			err:   "StatementBegin",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.files, "m")
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.err)
		})
	}

	require.NoError(t, Validate(fstest.MapFS{"m/20260101000000_a.sql": {Data: []byte(ok)}, "m/README.md": {}}, "m"))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "  Add Refund Index! ", now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "20260304050607_add_refund_index.sql"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, validateAnnotations(filepath.Base(path), string(data)))

	_, err = CreateSQLMigration(dir, "add refund index", now)
	require.ErrorContains(t, err, "already exists")

	_, err = CreateSQLMigration(dir, "!!!", now)
	require.Error(t, err)
}
