package search

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gnolang/tgrep/internal/match"
	"github.com/gnolang/tgrep/internal/source"
)

// DefaultConfigPath is where init writes and search looks for the config.
const DefaultConfigPath = ".tgrep.yaml"

// Config holds the settings a search run starts from. Command-line flags
// override individual fields.
type Config struct {
	Name       string   `yaml:"name"`
	Query      string   `yaml:"query"`
	Context    int      `yaml:"context"`
	Extensions []string `yaml:"extensions"`
	Workers    int      `yaml:"workers"`
	Output     string   `yaml:"output"`
	CacheDir   string   `yaml:"cache_dir"`
}

func DefaultConfig() Config {
	return Config{
		Name:       "tgrep",
		Context:    match.DefaultContext,
		Extensions: append([]string(nil), source.Extensions...),
	}
}

// LoadConfig reads the YAML file at path on top of the defaults. A missing
// file yields the defaults; a malformed one is an error.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if config.Context < 0 {
		return config, fmt.Errorf("%s: context must not be negative", path)
	}
	return config, nil
}

// WriteConfig stores config as YAML at path, replacing any existing file.
func WriteConfig(path string, config Config) error {
	d, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0o644)
}
