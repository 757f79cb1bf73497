package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDotEnv(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected map[string]string
	}{
		{"simple", "API_KEY=secret123", map[string]string{"API_KEY": "secret123"}},
		{"multiple", "A=1\nB=2", map[string]string{"A": "1", "B": "2"}},
		{"double quoted", `K="with spaces # kept"`, map[string]string{"K": "with spaces # kept"}},
		{"single quoted", `K='single'`, map[string]string{"K": "single"}},
		{"export prefix", "export TOKEN=abc", map[string]string{"TOKEN": "abc"}},
		{"comments and blanks", "# c\n\nK=v\n", map[string]string{"K": "v"}},
		{"trailing comment", "K=v # note", map[string]string{"K": "v"}},
		{"equals in value", "DSN=postgres://u:p@h/db?ssl=true", map[string]string{"DSN": "postgres://u:p@h/db?ssl=true"}},
		{"no equals", "JUSTKEY", map[string]string{}},
		{"empty", "", map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadDotEnv(writeEnvFile(t, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLoadDotEnv_Missing(t *testing.T) {
	_, err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadEnvFiles(t *testing.T) {
	first := writeEnvFile(t, "A=1\nB=1")
	second := writeEnvFile(t, "B=2")

	got, err := LoadEnvFiles(first, "", second)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, got)
}

func TestSystemEnv(t *testing.T) {
	t.Setenv("YAPI_TEST_SYSTEM_ENV", "from-process")

	got := SystemEnv(map[string]string{
		"YAPI_TEST_SYSTEM_ENV": "from-file",
		"YAPI_TEST_ONLY_FILE":  "file",
	})
	assert.Equal(t, "from-process", got["YAPI_TEST_SYSTEM_ENV"])
	assert.Equal(t, "file", got["YAPI_TEST_ONLY_FILE"])
}
