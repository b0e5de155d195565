package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	RepoPath   string
	ArchiveDir string
	DBPath     string
	APIPort    string

	LogLevel  slog.Level
	LogFormat string

	EmbeddingBaseURL   string // empty disables semantic search
	EmbeddingModel     string
	EmbeddingAPIKey    string
	EmbeddingDimension int // 0 learns it from the first response
	EmbeddingCacheSize int

	SearchMinSimilarity float64

	CommitDebounce      time.Duration
	CommitFlushInterval time.Duration
	GitAuthorName       string
	GitAuthorEmail      string

	WatchCorpus bool
}

// EmbeddingsEnabled reports whether an embedding endpoint is configured.
func (c *Config) EmbeddingsEnabled() bool {
	return c.EmbeddingBaseURL != ""
}

// fileConfig is the optional YAML overlay named by BRAINDUMP_CONFIG.
// Keys mirror the environment variables in lower case.
type fileConfig struct {
	RepoPath              string  `yaml:"repo_path"`
	ArchiveDir            string  `yaml:"archive_dir"`
	DBPath                string  `yaml:"db_path"`
	APIPort               string  `yaml:"api_port"`
	LogLevel              string  `yaml:"log_level"`
	LogFormat             string  `yaml:"log_format"`
	EmbeddingBaseURL      string  `yaml:"embedding_base_url"`
	EmbeddingModel        string  `yaml:"embedding_model"`
	EmbeddingAPIKey       string  `yaml:"embedding_api_key"`
	EmbeddingDimension    int     `yaml:"embedding_dimension"`
	EmbeddingCacheSize    int     `yaml:"embedding_cache_size"`
	SearchMinSimilarity   float64 `yaml:"search_min_similarity"`
	CommitDebounceMinutes int     `yaml:"commit_debounce_minutes"`
	CommitFlushInterval   string  `yaml:"commit_flush_interval"`
	GitAuthorName         string  `yaml:"git_author_name"`
	GitAuthorEmail        string  `yaml:"git_author_email"`
	WatchCorpus           bool    `yaml:"watch_corpus"`
}

// values flattens the overlay into env-style keys. Zero values are left out
// so they fall through to the defaults.
func (f *fileConfig) values() map[string]string {
	out := map[string]string{}
	set := func(key, v string) {
		if v != "" {
			out[key] = v
		}
	}
	set("REPO_PATH", f.RepoPath)
	set("ARCHIVE_DIR", f.ArchiveDir)
	set("DB_PATH", f.DBPath)
	set("API_PORT", f.APIPort)
	set("LOG_LEVEL", f.LogLevel)
	set("LOG_FORMAT", f.LogFormat)
	set("EMBEDDING_BASE_URL", f.EmbeddingBaseURL)
	set("EMBEDDING_MODEL", f.EmbeddingModel)
	set("EMBEDDING_API_KEY", f.EmbeddingAPIKey)
	if f.EmbeddingDimension != 0 {
		out["EMBEDDING_DIMENSION"] = strconv.Itoa(f.EmbeddingDimension)
	}
	if f.EmbeddingCacheSize != 0 {
		out["EMBEDDING_CACHE_SIZE"] = strconv.Itoa(f.EmbeddingCacheSize)
	}
	if f.SearchMinSimilarity != 0 {
		out["SEARCH_MIN_SIMILARITY"] = strconv.FormatFloat(f.SearchMinSimilarity, 'f', -1, 64)
	}
	if f.CommitDebounceMinutes != 0 {
		out["COMMIT_DEBOUNCE_MINUTES"] = strconv.Itoa(f.CommitDebounceMinutes)
	}
	set("COMMIT_FLUSH_INTERVAL", f.CommitFlushInterval)
	set("GIT_AUTHOR_NAME", f.GitAuthorName)
	set("GIT_AUTHOR_EMAIL", f.GitAuthorEmail)
	if f.WatchCorpus {
		out["WATCH_CORPUS"] = "true"
	}
	return out
}

// Load reads configuration and returns a Config struct.
// Sources, lowest precedence first: defaults, the YAML file named by
// BRAINDUMP_CONFIG, a .env file in the current directory or up to five
// parents, and the process environment.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist).
	// godotenv never overrides variables that are already set.
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	file := map[string]string{}
	if path := os.Getenv("BRAINDUMP_CONFIG"); path != "" {
		fc, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		file = fc.values()
	}
	get := func(key, defaultValue string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		if v, ok := file[key]; ok {
			return v
		}
		return defaultValue
	}

	cfg := &Config{
		RepoPath:         get("REPO_PATH", ""),
		ArchiveDir:       get("ARCHIVE_DIR", "archive"),
		DBPath:           get("DB_PATH", "./data/braindump.db"),
		APIPort:          get("API_PORT", "3000"),
		LogFormat:        strings.ToLower(get("LOG_FORMAT", "text")),
		EmbeddingBaseURL: get("EMBEDDING_BASE_URL", ""),
		EmbeddingModel:   get("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingAPIKey:  get("EMBEDDING_API_KEY", ""),
		GitAuthorName:    get("GIT_AUTHOR_NAME", "Braindump"),
		GitAuthorEmail:   get("GIT_AUTHOR_EMAIL", "braindump@localhost"),
	}

	var errs []error
	if cfg.LogLevel, err = parseLevel(get("LOG_LEVEL", "info")); err != nil {
		errs = append(errs, err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat))
	}

	if cfg.EmbeddingDimension, err = parseInt("EMBEDDING_DIMENSION", get("EMBEDDING_DIMENSION", "0"), 0); err != nil {
		errs = append(errs, err)
	}
	if cfg.EmbeddingCacheSize, err = parseInt("EMBEDDING_CACHE_SIZE", get("EMBEDDING_CACHE_SIZE", "1000"), 1); err != nil {
		errs = append(errs, err)
	}

	minSim, err := strconv.ParseFloat(get("SEARCH_MIN_SIMILARITY", "0.25"), 64)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("SEARCH_MIN_SIMILARITY must be a number: %w", err))
	case minSim < -1 || minSim > 1:
		errs = append(errs, fmt.Errorf("SEARCH_MIN_SIMILARITY must be between -1 and 1, got %v", minSim))
	default:
		cfg.SearchMinSimilarity = minSim
	}

	minutes, err := parseInt("COMMIT_DEBOUNCE_MINUTES", get("COMMIT_DEBOUNCE_MINUTES", "5"), 0)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.CommitDebounce = time.Duration(minutes) * time.Minute

	interval, err := time.ParseDuration(get("COMMIT_FLUSH_INTERVAL", "30s"))
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("COMMIT_FLUSH_INTERVAL must be a duration: %w", err))
	case interval <= 0:
		errs = append(errs, fmt.Errorf("COMMIT_FLUSH_INTERVAL must be greater than 0"))
	default:
		cfg.CommitFlushInterval = interval
	}

	if cfg.WatchCorpus, err = strconv.ParseBool(get("WATCH_CORPUS", "false")); err != nil {
		errs = append(errs, fmt.Errorf("WATCH_CORPUS must be a boolean: %w", err))
	}

	// Validate required fields
	if cfg.RepoPath == "" {
		errs = append(errs, fmt.Errorf("REPO_PATH is required"))
	}
	if strings.ContainsAny(cfg.ArchiveDir, `/\`) || cfg.ArchiveDir == "." || cfg.ArchiveDir == ".." {
		errs = append(errs, fmt.Errorf("ARCHIVE_DIR must be a single directory name, got %q", cfg.ArchiveDir))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	// Create the data directory for the database file
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &fc, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error: %w", err)
	}
	return level, nil
}

func parseInt(key, s string, lowest int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n < lowest {
		return 0, fmt.Errorf("%s must be at least %d", key, lowest)
	}
	return n, nil
}
