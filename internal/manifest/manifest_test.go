package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFallsBackToDefault(t *testing.T) {
	m, err := Load([]string{t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "data", m.DataDir)
	assert.True(t, m.Enabled("hotpotato"))
	assert.Nil(t, m.GameSettings("hotpotato"))
}

func TestLoadReadsFirstManifestFound(t *testing.T) {
	empty := t.TempDir()
	dir := t.TempDir()
	body := `
operator_channel: ops
games: [hotpotato]
settings:
  hotpotato:
    fuse: 30m
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(body), 0o644))

	m, err := Load([]string{empty, dir})
	require.NoError(t, err)
	assert.Equal(t, "ops", m.OperatorChannel)
	// Fields the file omits keep their defaults.
	assert.Equal(t, "data", m.DataDir)
	assert.Equal(t, "30m", m.GameSettings("hotpotato")["fuse"])
	assert.False(t, m.Enabled("roulette"))
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte("games: ["), 0o644))

	_, err := Load([]string{dir})
	assert.Error(t, err)
}
