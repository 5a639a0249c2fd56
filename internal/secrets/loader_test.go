package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("  from-file\n"), 0o600))
	t.Setenv("SCHEME_TEST_KEY", "from-env")

	got, err := Load(Source{Name: "api key", File: path, Value: "inline", Env: "SCHEME_TEST_KEY"})
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)
}

func TestLoadFallsBackToValueThenEnv(t *testing.T) {
	t.Setenv("SCHEME_TEST_KEY", " from-env ")

	got, err := Load(Source{Value: " inline ", Env: "SCHEME_TEST_KEY"})
	require.NoError(t, err)
	assert.Equal(t, "inline", got)

	got, err = Load(Source{Env: "SCHEME_TEST_KEY"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
}

func TestLoadErrors(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0o600))
	t.Setenv("SCHEME_TEST_UNSET", "")

	_, err := Load(Source{Name: "gemini api key", File: empty})
	assert.ErrorContains(t, err, "is empty")

	_, err = Load(Source{Name: "gemini api key", File: filepath.Join(t.TempDir(), "missing")})
	assert.ErrorContains(t, err, "reading gemini api key")

	_, err = Load(Source{Name: "openai api key", Env: "SCHEME_TEST_UNSET"})
	assert.ErrorContains(t, err, "set SCHEME_TEST_UNSET")

	_, err = Load(Source{})
	assert.EqualError(t, err, "secret is not configured")
}
