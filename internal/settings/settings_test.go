package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
logging:
  level: info
appSettings:
  apiUrl: http://localhost:8080/
  refreshTokenMinutes: "25"
  idleTimeout: 900
  showDebug: "True"
  caching: false
  title: To Do
  languages:
    - en
    - fr
  paging:
    pageSize: 10
`

func TestParseFlattensSection(t *testing.T) {
	s, err := Parse([]byte(sample), "1.2.3.4")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/", s["apiUrl"])
	assert.Equal(t, 25.0, s["refreshTokenMinutes"])
	assert.Equal(t, 900, s["idleTimeout"])
	assert.Equal(t, true, s["showDebug"])
	assert.Equal(t, false, s["caching"])
	assert.Equal(t, "To Do", s["title"])
	assert.Equal(t, "en", s["languages:0"])
	assert.Equal(t, "fr", s["languages:1"])
	assert.Equal(t, 10, s["paging:pageSize"])
	assert.Equal(t, "1.2.3.4", s[VersionKey])
	assert.NotContains(t, s, "logging:level")
	assert.NotContains(t, s, "level")
}

func TestParseKeepsNonFiniteNumbersAsText(t *testing.T) {
	doc := `
appSettings:
  threshold: "NaN"
  ceiling: "Infinity"
  floor: "-Inf"
  native: .nan
  limit: .inf
`
	s, err := Parse([]byte(doc), "1.0.0.0")
	require.NoError(t, err)

	assert.Equal(t, "NaN", s["threshold"])
	assert.Equal(t, "Infinity", s["ceiling"])
	assert.Equal(t, "-Inf", s["floor"])
	assert.Equal(t, "NaN", s["native"])
	assert.Equal(t, "+Inf", s["limit"])

	_, err = json.Marshal(s)
	assert.NoError(t, err)
}

func TestParseWithoutSection(t *testing.T) {
	s, err := Parse([]byte("other: 1\n"), "1.0.0.0")
	require.NoError(t, err)
	assert.Equal(t, Settings{VersionKey: "1.0.0.0"}, s)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("appSettings: [unclosed"), "1.0.0.0")
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	s, err := Load(filepath.Join(dir, "missing.yaml"), "9.9")
	require.NoError(t, err)
	assert.Equal(t, Settings{VersionKey: "9.9"}, s)

	path := filepath.Join(dir, "appsettings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	s, err = Load(path, "9.9")
	require.NoError(t, err)
	assert.Equal(t, "To Do", s["title"])
}
