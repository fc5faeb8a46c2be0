package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.Equal(t, "Failed to fetch debug results.",
		c.T("console:develop.pages.idpTestResult.fetchError", "fallback"))
	assert.Equal(t, "General Info",
		c.T("console:develop.pages.idpTestResult.tabs.generalInfo", "fallback"))
	assert.Equal(t, "fallback", c.T("console:develop.pages.idpTest.unknown", "fallback"))
	assert.Contains(t, c.Keys(), "console:develop.pages.idpTest.backButton")
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "de.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
console:
  develop:
    pages:
      idpTestResult:
        retry: "Wiederholen"
        refresh: ""
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Wiederholen", c.T("console:develop.pages.idpTestResult.retry", "Retry"))
	assert.Equal(t, "Refresh", c.T("console:develop.pages.idpTestResult.refresh", "Refresh"),
		"empty translations fall back")
	assert.Equal(t, "Test Results", c.T("console:develop.pages.idpTestResult.title", ""),
		"keys missing from the overlay keep the built-in text")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("console:\n  list:\n    - a\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)

	c, err := Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Keys())
}

func TestNilAndEmptyCatalog(t *testing.T) {
	var c *Catalog
	assert.Equal(t, "x", c.T("any", "x"))
	assert.Equal(t, "x", New().T("any", "x"))
}

func TestNamespaces(t *testing.T) {
	c := New()
	require.NoError(t, c.Merge([]byte("common:\n  ok: \"OK\"\nconsole:\n  a:\n    b: \"B\"\n")))

	assert.Equal(t, "OK", c.T("common:ok", ""))
	assert.Equal(t, "B", c.T("console:a.b", ""))
}
