package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort  string `yaml:"api_port"`
	LogLevel string `yaml:"log_level"`

	CorpusDBPath    string `yaml:"corpus_db_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
	SlotMapPath     string `yaml:"slot_map_path"`
	SourcesPath     string `yaml:"sources_path"`

	OllamaURL        string `yaml:"ollama_url"`
	OllamaEmbedModel string `yaml:"ollama_embed_model"`

	SearchDefaultK      int     `yaml:"search_default_k"`
	SearchAlpha         float64 `yaml:"search_alpha"`
	AnswerThreshold     float64 `yaml:"answer_threshold"`
	CandidateMultiplier int     `yaml:"candidate_multiplier"`
	StoreReadTimeoutMS  int     `yaml:"store_read_timeout_ms"`
	WorkerPoolSize      int     `yaml:"worker_pool_size"`

	RetryMaxAttempts int  `yaml:"retry_max_attempts"`
	BreakerEnabled   bool `yaml:"breaker_enabled"`

	FetcherRatePerSecond float64 `yaml:"fetcher_rate_per_second"`
	FetcherOutputDir     string  `yaml:"fetcher_output_dir"`
}

// Load builds the configuration: defaults, then the optional YAML file named
// by REGQA_CONFIG, then environment variables. Env wins over file.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("REGQA_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.APIPort = envStr("API_PORT", cfg.APIPort)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)

	cfg.CorpusDBPath = envStr("CORPUS_DB_PATH", cfg.CorpusDBPath)
	cfg.VectorIndexPath = envStr("VECTOR_INDEX_PATH", cfg.VectorIndexPath)
	cfg.SlotMapPath = envStr("SLOT_MAP_PATH", cfg.SlotMapPath)
	cfg.SourcesPath = envStr("SOURCES_PATH", cfg.SourcesPath)

	cfg.OllamaURL = envStr("OLLAMA_URL", cfg.OllamaURL)
	cfg.OllamaEmbedModel = envStr("OLLAMA_EMBED_MODEL", cfg.OllamaEmbedModel)

	cfg.SearchDefaultK = envInt("SEARCH_DEFAULT_K", cfg.SearchDefaultK)
	cfg.SearchAlpha = envFloat("SEARCH_ALPHA", cfg.SearchAlpha)
	cfg.AnswerThreshold = envFloat("ANSWER_THRESHOLD", cfg.AnswerThreshold)
	cfg.CandidateMultiplier = envInt("CANDIDATE_MULTIPLIER", cfg.CandidateMultiplier)
	cfg.StoreReadTimeoutMS = envInt("STORE_READ_TIMEOUT_MS", cfg.StoreReadTimeoutMS)
	cfg.WorkerPoolSize = envInt("WORKER_POOL_SIZE", cfg.WorkerPoolSize)

	cfg.RetryMaxAttempts = envInt("RETRY_MAX_ATTEMPTS", cfg.RetryMaxAttempts)
	cfg.BreakerEnabled = envBool("BREAKER_ENABLED", cfg.BreakerEnabled)

	cfg.FetcherRatePerSecond = envFloat("FETCHER_RATE_PER_SECOND", cfg.FetcherRatePerSecond)
	cfg.FetcherOutputDir = envStr("FETCHER_OUTPUT_DIR", cfg.FetcherOutputDir)

	return cfg, nil
}

func defaults() Config {
	return Config{
		APIPort:  "8000",
		LogLevel: "info",

		CorpusDBPath:    "./data/knowledge_base.db",
		VectorIndexPath: "./data/vector_index.bin",
		SlotMapPath:     "./data/slot_map.json",
		SourcesPath:     "./data/sources.json",

		OllamaURL:        "http://localhost:11434",
		OllamaEmbedModel: "all-minilm",

		SearchDefaultK:      3,
		SearchAlpha:         0.6,
		AnswerThreshold:     0.5,
		CandidateMultiplier: 6,
		StoreReadTimeoutMS:  5000,
		WorkerPoolSize:      0,

		RetryMaxAttempts: 3,
		BreakerEnabled:   true,

		FetcherRatePerSecond: 1,
		FetcherOutputDir:     "./data/pdfs",
	}
}

func (c Config) StoreReadTimeout() time.Duration {
	return time.Duration(c.StoreReadTimeoutMS) * time.Millisecond
}

func envStr(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
