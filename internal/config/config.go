package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape. Nil fields are unset.
type FileConfig struct {
	Backend           *string  `yaml:"backend"`
	Model             *string  `yaml:"model"`
	Endpoint          *string  `yaml:"endpoint"`
	VisionModel       *string  `yaml:"vision_model"`
	EntityModel       *string  `yaml:"entity_model"`
	EntityEndpoint    *string  `yaml:"entity_endpoint"`
	Timeout           *string  `yaml:"timeout"`
	RequestsPerSecond *float64 `yaml:"requests_per_second"`
	MaxRetries        *int     `yaml:"max_retries"`
	Cache             *bool    `yaml:"cache"`
	Audit             *bool    `yaml:"audit"`
	Concurrency       *int     `yaml:"concurrency"`
	Include           *string  `yaml:"include"`
	Exclude           *string  `yaml:"exclude"`
	MaxBytes          *int64   `yaml:"max_bytes"`
	DefaultExcludes   *bool    `yaml:"default_excludes"`
	NoColor           *bool    `yaml:"no_color"`
	SentryDSN         *string  `yaml:"sentry_dsn"`

	// EntityTypes adds NAME: Label pairs to the entity registry.
	EntityTypes map[string]string `yaml:"entity_types,omitempty"`
}

// LocalNames are the repo-local config file names in search order.
var LocalNames = []string{".datafog.yml", ".datafog.yaml", "datafog.yml", "datafog.yaml"}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal loads the first of LocalNames present in root.
func LoadLocal(root string) (FileConfig, error) {
	for _, name := range LocalNames {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return FileConfig{}, ErrNoLocalConfig
}

// GlobalPath returns $XDG_CONFIG_HOME/datafog/config.yml, falling back to
// ~/.config. It is empty when neither base directory is known.
func GlobalPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		if home, _ := os.UserHomeDir(); home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return ""
	}
	return filepath.Join(base, "datafog", "config.yml")
}

// LoadGlobal loads the file at GlobalPath.
func LoadGlobal() (FileConfig, error) {
	p := GlobalPath()
	if p == "" {
		return FileConfig{}, ErrNoGlobalConfig
	}
	if _, err := os.Stat(p); err != nil {
		return FileConfig{}, ErrNoGlobalConfig
	}
	return LoadFile(p)
}

// Write saves cfg as YAML at path, creating parent directories.
func Write(path string, cfg FileConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
