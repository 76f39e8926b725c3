package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env      string // "development", "production", etc.
	LogLevel string // overrides the environment's default level

	// Server
	ServerAddr         string
	TLSCertFile        string
	TLSKeyFile         string
	UploadMaxBytes     int
	RateLimitPerMinute int    // 0 disables rate limiting
	CORSOrigins        string // comma-separated; empty disables CORS

	// Database. Empty DatabaseURL runs on the in-memory store.
	DatabaseURL string

	// Cache. Empty RedisURL disables the ranking cache.
	RedisURL string
	CacheTTL time.Duration

	// OIDC bearer-token verification for the reindex trigger
	OIDCIssuer   string
	OIDCClientID string

	// Extractor
	Extractor        string // "exiftool" or "imagemeta"
	ExifToolPath     string
	ExtractorProfile string // name of a flag profile, see YAMLConfig
	ExtractorTimeout time.Duration

	// Scoring
	ScoreThreshold   float64
	ScoreTopN        int
	ScoreTopFraction float64 // > 0 sizes the pool as a share of all tags
	ListLimit        int     // default pool size for ranking listings

	// Indexing
	RealCorpusDir   string
	AICorpusDir     string
	IndexMode       string        // "replace" or "merge"
	ReindexInterval time.Duration // 0 disables the periodic job
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", ""),
		ServerAddr:         getEnv("SERVER_ADDR", ":3000"),
		TLSCertFile:        getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:         getEnv("TLS_KEY_FILE", ""),
		UploadMaxBytes:     getEnvInt("UPLOAD_MAX_BYTES", 32<<20),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
		CORSOrigins:        getEnv("CORS_ORIGINS", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		CacheTTL:           getEnvDuration("CACHE_TTL", 5*time.Minute),
		OIDCIssuer:         getEnv("OIDC_ISSUER", ""),
		OIDCClientID:       getEnv("OIDC_CLIENT_ID", ""),
		Extractor:          getEnv("EXTRACTOR", "exiftool"),
		ExifToolPath:       getEnv("EXIFTOOL_PATH", "exiftool"),
		ExtractorProfile:   getEnv("EXTRACTOR_PROFILE", "json"),
		ExtractorTimeout:   getEnvDuration("EXTRACTOR_TIMEOUT", 30*time.Second),
		ScoreThreshold:     getEnvFloat("SCORE_THRESHOLD", 0.3),
		ScoreTopN:          getEnvInt("SCORE_TOP_N", 10),
		ScoreTopFraction:   getEnvFloat("SCORE_TOP_FRACTION", 0),
		ListLimit:          getEnvInt("LIST_LIMIT", 100),
		RealCorpusDir:      getEnv("REAL_CORPUS_DIR", "dataset/real"),
		AICorpusDir:        getEnv("AI_CORPUS_DIR", "dataset/ai"),
		IndexMode:          getEnv("INDEX_MODE", "replace"),
		ReindexInterval:    getEnvDuration("REINDEX_INTERVAL", 0),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// TLSEnabled returns true if both TLS certificate files are configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// UsesDatabase returns true if a Postgres store is configured.
func (c *Config) UsesDatabase() bool {
	return c.DatabaseURL != ""
}

// IsAuthEnabled returns true if reindex triggers require an OIDC bearer token.
func (c *Config) IsAuthEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != ""
}
