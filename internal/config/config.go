package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultArxivMaxResults = 20
	defaultTopK            = 5
	defaultLocalDBPath     = "data/local_database"
	defaultSamplePDFsPath  = "data/sample_pdfs"
)

// Load reads the application config from path. A missing file is not an
// error: the documented fallback defaults are returned instead.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// Default returns the configuration used when no config.yaml is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Arxiv.MaxResults <= 0 {
		cfg.Arxiv.MaxResults = defaultArxivMaxResults
	}
	if cfg.Reranking.TopK <= 0 {
		cfg.Reranking.TopK = defaultTopK
	}
	if cfg.LocalDatabase.FolderPath == "" {
		cfg.LocalDatabase.FolderPath = defaultLocalDBPath
	}
	if cfg.Paths.SamplePDFs == "" {
		cfg.Paths.SamplePDFs = defaultSamplePDFsPath
	}
}
