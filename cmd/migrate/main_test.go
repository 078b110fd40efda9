package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no command", args: nil, want: "usage: migrate"},
		{name: "unknown command", args: []string{"redo"}, want: `unknown command "redo"`},
		{name: "create without name", args: []string{"create"}, want: "-name is required"},
		{name: "to without version", args: []string{"to"}, want: "-version is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			require.Equal(t, exitUsage, run(tt.args, &stdout, &stderr))
			require.Contains(t, stderr.String(), tt.want)
		})
	}
}

func TestCreateThenValidate(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	require.Equal(t, exitOK, run([]string{"create", "-name", "add refund index", "-dir", dir}, &stdout, &stderr), stderr.String())
	require.True(t, strings.HasPrefix(stdout.String(), "created "))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, strings.HasSuffix(entries[0].Name(), "_add_refund_index.sql"))

	stdout.Reset()
	require.Equal(t, exitOK, run([]string{"validate", "-dir", dir}, &stdout, &stderr), stderr.String())
	require.Contains(t, stdout.String(), "migrations ok")
}

func TestValidateRejectsBrokenMigration(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260301090000_broken.sql"), []byte("CREATE TABLE x (id int);\n"), 0o644))

	var stdout, stderr bytes.Buffer
	require.Equal(t, exitFail, run([]string{"validate", "-dir", dir}, &stdout, &stderr))
	require.Contains(t, stderr.String(), "migrate validate")
}
