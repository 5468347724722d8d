package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvLine(t *testing.T) {
	cases := []struct {
		line string
		key  string
		val  string
		ok   bool
	}{
		{line: "PORT=9000", key: "PORT", val: "9000", ok: true},
		{line: "export JWT_SECRET = abc ", key: "JWT_SECRET", val: "abc", ok: true},
		{line: `DATABASE_URL="postgres://u:p@h/db?sslmode=disable"`, key: "DATABASE_URL", val: "postgres://u:p@h/db?sslmode=disable", ok: true},
		{line: "S3_PREFIX='docs/'", key: "S3_PREFIX", val: "docs/", ok: true},
		{line: "# comment"},
		{line: "   "},
		{line: "NO_EQUALS"},
		{line: "=value"},
	}
	for _, tc := range cases {
		key, val, ok := parseEnvLine(tc.line)
		assert.Equal(t, tc.ok, ok, tc.line)
		assert.Equal(t, tc.key, key, tc.line)
		assert.Equal(t, tc.val, val, tc.line)
	}
}

func TestLoadEnvFilesKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOCSORT_TEST_SET=from-file\nDOCSORT_TEST_NEW=from-file\n"), 0o600))

	t.Setenv("DOCSORT_TEST_SET", "from-env")
	t.Setenv("DOCSORT_TEST_NEW", "")
	require.NoError(t, os.Unsetenv("DOCSORT_TEST_NEW"))

	loadEnvFiles(filepath.Join(dir, "missing.env"), path)

	assert.Equal(t, "from-env", os.Getenv("DOCSORT_TEST_SET"))
	assert.Equal(t, "from-file", os.Getenv("DOCSORT_TEST_NEW"))
}
