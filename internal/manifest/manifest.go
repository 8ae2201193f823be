package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest is the operator-editable bot configuration: which minigame
// modules run, where documents live, and where diagnostics go.
type Manifest struct {
	OperatorChannel string                    `yaml:"operator_channel"`
	DataDir         string                    `yaml:"data_dir"`
	Games           []string                  `yaml:"games"`
	Settings        map[string]map[string]any `yaml:"settings"`
}

// Default returns the configuration used when no manifest file exists.
func Default() *Manifest {
	return &Manifest{
		DataDir: "data",
		Games:   []string{"hotpotato"},
	}
}

// Load searches the given directories for manifest.yaml and decodes the
// first one found. No file at all yields the default manifest.
func Load(dirs []string) (*Manifest, error) {
	for _, dir := range dirs {
		path := filepath.Join(dir, "manifest.yaml")
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		defer f.Close()

		m := Default()
		if err := yaml.NewDecoder(f).Decode(m); err != nil {
			return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
		}
		return m, nil
	}
	return Default(), nil
}

// Enabled reports whether the named minigame module should run.
func (m *Manifest) Enabled(name string) bool {
	for _, g := range m.Games {
		if g == name {
			return true
		}
	}
	return false
}

// GameSettings returns the free-form settings block for one module.
func (m *Manifest) GameSettings(name string) map[string]any {
	return m.Settings[name]
}
