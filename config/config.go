// Package config holds the externally overridable configuration surface of
// the ChatCOTIN core. Every tunable the pipeline uses lives here and is
// passed into components at construction; there are no process-wide
// singletons.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	CacheSize   int    `yaml:"cache_size"`
}

// ChunkingConfig configures how documents are split into chunks.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	// Backend is "chroma" or "local".
	Backend string `yaml:"backend"`
	// ChromaURL is the Chroma server base URL for the chroma backend.
	ChromaURL string `yaml:"chroma_url"`
	// DataDir holds local collection snapshots and the current-collection
	// pointer file.
	DataDir string `yaml:"data_dir"`
	// CollectionPrefix names new collections; the full name embeds a
	// creation timestamp so stale and fresh collections can coexist.
	CollectionPrefix string `yaml:"collection_prefix"`
	// DropPrevious deletes the superseded collection after a successful
	// promotion.
	DropPrevious bool `yaml:"drop_previous"`
}

// RetrievalConfig tunes the relevance filter.
type RetrievalConfig struct {
	Threshold       float64  `yaml:"threshold"`
	TopN            int      `yaml:"top_n"`
	K               int      `yaml:"k"`
	CatalogK        int      `yaml:"catalog_k"`
	DomainKeywords  []string `yaml:"domain_keywords"`
	CatalogKeywords []string `yaml:"catalog_keywords"`
}

// GenerationConfig configures the generation invoker and its backend.
type GenerationConfig struct {
	// Backend is "ollama" or "gemini".
	Backend string `yaml:"backend"`

	OllamaBaseURL string `yaml:"ollama_base_url"`
	OllamaModel   string `yaml:"ollama_model"`
	GeminiModel   string `yaml:"gemini_model"`
	GeminiKeyEnv  string `yaml:"gemini_key_env"`

	TimeoutSecs  int `yaml:"timeout_secs"`
	MaxAttempts  int `yaml:"max_attempts"`
	BaseDelayMS  int `yaml:"base_delay_ms"`
	ContextChars int `yaml:"context_chars"`
	ShrunkChars  int `yaml:"shrunk_chars"`
	HistoryChars int `yaml:"history_chars"`

	Temperature float64 `yaml:"temperature"`
}

// Config is the root application configuration.
type Config struct {
	DocsPath   string           `yaml:"docs_path"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Index      IndexConfig      `yaml:"index"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Generation GenerationConfig `yaml:"generation"`
	History    struct {
		MaxTurns int `yaml:"max_turns"`
	} `yaml:"history"`
	HTTPAddr string `yaml:"http_addr"`
}

// Load reads a config file from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the built-in configuration, tuned for the COTIN corpus.
func Default() *Config {
	cfg := &Config{
		DocsPath: "Docs",
		Embedding: EmbeddingConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "nomic-embed-text:v1.5",
			TimeoutSecs: 30,
			CacheSize:   256,
		},
		Chunking: ChunkingConfig{Size: 800, Overlap: 200},
		Index: IndexConfig{
			Backend:          "local",
			ChromaURL:        "http://localhost:8000",
			DataDir:          "chroma_db",
			CollectionPrefix: "chatcotin_knowledge",
			DropPrevious:     true,
		},
		Retrieval: RetrievalConfig{
			Threshold: 0.3,
			TopN:      5,
			K:         10,
			CatalogK:  10,
		},
		Generation: GenerationConfig{
			Backend:       "ollama",
			OllamaBaseURL: "http://localhost:11434",
			OllamaModel:   "llama3.2:latest",
			GeminiModel:   "gemini-2.5-flash",
			GeminiKeyEnv:  "GEMINI_API_KEY",
			TimeoutSecs:   120,
			MaxAttempts:   3,
			BaseDelayMS:   2000,
			ContextChars:  12000,
			ShrunkChars:   6000,
			HistoryChars:  4000,
			Temperature:   0.1,
		},
		HTTPAddr: ":8080",
	}
	cfg.History.MaxTurns = 6
	return cfg
}

// applyDefaults fills zero values left by a partial YAML file.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.DocsPath == "" {
		cfg.DocsPath = def.DocsPath
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = def.Embedding.BaseURL
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = def.Embedding.Model
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = def.Embedding.TimeoutSecs
	}
	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = def.Chunking.Size
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = def.Chunking.Overlap
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = def.Index.Backend
	}
	if cfg.Index.ChromaURL == "" {
		cfg.Index.ChromaURL = def.Index.ChromaURL
	}
	if cfg.Index.DataDir == "" {
		cfg.Index.DataDir = def.Index.DataDir
	}
	if cfg.Index.CollectionPrefix == "" {
		cfg.Index.CollectionPrefix = def.Index.CollectionPrefix
	}
	if cfg.Retrieval.Threshold == 0 {
		cfg.Retrieval.Threshold = def.Retrieval.Threshold
	}
	if cfg.Retrieval.TopN == 0 {
		cfg.Retrieval.TopN = def.Retrieval.TopN
	}
	if cfg.Retrieval.K == 0 {
		cfg.Retrieval.K = def.Retrieval.K
	}
	if cfg.Retrieval.CatalogK == 0 {
		cfg.Retrieval.CatalogK = def.Retrieval.CatalogK
	}
	if cfg.Generation.Backend == "" {
		cfg.Generation.Backend = def.Generation.Backend
	}
	if cfg.Generation.OllamaBaseURL == "" {
		cfg.Generation.OllamaBaseURL = def.Generation.OllamaBaseURL
	}
	if cfg.Generation.OllamaModel == "" {
		cfg.Generation.OllamaModel = def.Generation.OllamaModel
	}
	if cfg.Generation.GeminiModel == "" {
		cfg.Generation.GeminiModel = def.Generation.GeminiModel
	}
	if cfg.Generation.GeminiKeyEnv == "" {
		cfg.Generation.GeminiKeyEnv = def.Generation.GeminiKeyEnv
	}
	if cfg.Generation.TimeoutSecs == 0 {
		cfg.Generation.TimeoutSecs = def.Generation.TimeoutSecs
	}
	if cfg.Generation.MaxAttempts == 0 {
		cfg.Generation.MaxAttempts = def.Generation.MaxAttempts
	}
	if cfg.Generation.BaseDelayMS == 0 {
		cfg.Generation.BaseDelayMS = def.Generation.BaseDelayMS
	}
	if cfg.Generation.ContextChars == 0 {
		cfg.Generation.ContextChars = def.Generation.ContextChars
	}
	if cfg.Generation.ShrunkChars == 0 {
		cfg.Generation.ShrunkChars = def.Generation.ShrunkChars
	}
	if cfg.Generation.HistoryChars == 0 {
		cfg.Generation.HistoryChars = def.Generation.HistoryChars
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = def.Generation.Temperature
	}
	if cfg.History.MaxTurns == 0 {
		cfg.History.MaxTurns = def.History.MaxTurns
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = def.HTTPAddr
	}
}

// applyEnvOverrides lets deployments retarget paths and endpoints without
// editing the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHATCOTIN_DOCS_PATH"); v != "" {
		cfg.DocsPath = v
	}
	if v := os.Getenv("CHROMA_PERSIST_DIR"); v != "" {
		cfg.Index.DataDir = v
	}
	if v := os.Getenv("CHROMA_URL"); v != "" {
		cfg.Index.ChromaURL = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
		cfg.Generation.OllamaBaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Generation.OllamaModel = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.Generation.Backend = v
	}
}
