// Package config handles configuration loading for the CLI and the server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
type Config struct {
	Listen    string    `yaml:"listen,omitempty"`
	ChunkSize int       `yaml:"chunk_size,omitempty"`
	Workers   int       `yaml:"workers,omitempty"`
	CacheSize int64     `yaml:"cache_size,omitempty"` // bytes, 0 for unlimited
	Validate  bool      `yaml:"validate,omitempty"`
	Datasets  []Dataset `yaml:"datasets"`
}

// Dataset names a file served or decoded by the tools.
type Dataset struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"-"`
}

// Load reads and parses the YAML configuration file from the specified path.
// Relative dataset paths are resolved against the directory of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i, ds := range cfg.Datasets {
		if ds.Path != "" && !filepath.IsAbs(ds.Path) && !isURL(ds.Path) {
			cfg.Datasets[i].Path = filepath.Join(base, ds.Path)
		}
	}
	return cfg, nil
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate checks that every dataset has a unique name and a path.
func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Datasets))
	for i, ds := range c.Datasets {
		if ds.Name == "" {
			return fmt.Errorf("dataset %d: missing name", i)
		}
		if ds.Path == "" {
			return fmt.Errorf("dataset %q: missing path", ds.Name)
		}
		if seen[ds.Name] {
			return fmt.Errorf("dataset %q: duplicate name", ds.Name)
		}
		seen[ds.Name] = true
	}
	if c.ChunkSize < 0 || c.Workers < 0 || c.CacheSize < 0 {
		return fmt.Errorf("chunk_size, workers and cache_size must not be negative")
	}
	return nil
}

// Dataset returns the dataset with the given name.
func (c *Config) Dataset(name string) (Dataset, bool) {
	for _, ds := range c.Datasets {
		if ds.Name == name {
			return ds, true
		}
	}
	return Dataset{}, false
}

// Paths returns the dataset paths in configuration order.
func (c *Config) Paths() []string {
	paths := make([]string, len(c.Datasets))
	for i, ds := range c.Datasets {
		paths[i] = ds.Path
	}
	return paths
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "zip://")
}
