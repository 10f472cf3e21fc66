package config

// Config is the root application configuration loaded from config.yaml.
type Config struct {
	Arxiv         ArxivConfig         `yaml:"arxiv"`
	Reranking     RerankingConfig     `yaml:"reranking"`
	LocalDatabase LocalDatabaseConfig `yaml:"local_database"`
	Paths         PathsConfig         `yaml:"paths"`
}

// ArxivConfig controls the arXiv API backend.
type ArxivConfig struct {
	MaxResults int `yaml:"max_results"`
}

// RerankingConfig controls the refinement stage of the pipeline.
type RerankingConfig struct {
	TopK int `yaml:"top_k"`
}

// LocalDatabaseConfig points at the offline paper corpus.
type LocalDatabaseConfig struct {
	FolderPath string `yaml:"folder_path"`
}

// PathsConfig holds auxiliary data directories.
type PathsConfig struct {
	SamplePDFs string `yaml:"sample_pdfs"`
}
