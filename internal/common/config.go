package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	Scoring  ScoringConfig
	Ingest   IngestConfig
	LogLevel string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // postgres | sqlite
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCAddr       string
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Provider        string // azure | tesseract
	AzureEndpoint   string
	AzureKey        string
	TesseractBin    string
	TessdataDir     string
	TesseractLang   string
	HeicConverter   string
	Enhance         bool
	DownloadTimeout time.Duration
}

// ScoringConfig holds background scoring configuration
type ScoringConfig struct {
	Mode          string // inline | asynq
	RedisURL      string
	Queue         string
	Workers       int
	QueueSize     int
	MaxAttempts   int
	TaskTimeout   time.Duration
	RemoteURL     string
	CacheTTL      time.Duration
	DefaultWindow int
}

// IngestConfig holds drop-folder ingestion configuration
type IngestConfig struct {
	WatchDirs      []string
	Debounce       time.Duration
	OrganizationID string
	DedupTTL       time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", "postgres"),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr:       getEnv("GRPC_ADDR", ":8081"),
			CORSOrigins:    getEnvAsList("CORS_ORIGINS", []string{"*"}),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 60*time.Second),
		},
		OCR: OCRConfig{
			Provider:        getEnv("OCR_PROVIDER", "azure"),
			AzureEndpoint:   getEnv("AZURE_VISION_ENDPOINT", ""),
			AzureKey:        getEnv("AZURE_VISION_KEY", ""),
			TesseractBin:    getEnv("TESSERACT_BIN", "tesseract"),
			TessdataDir:     getEnv("TESSDATA_PREFIX", ""),
			TesseractLang:   getEnv("TESSERACT_LANG", "eng"),
			HeicConverter:   getEnv("OCR_HEIC_CONVERTER", "heif-convert"),
			Enhance:         getEnvAsBool("OCR_ENHANCE", true),
			DownloadTimeout: getEnvAsDuration("OCR_DOWNLOAD_TIMEOUT", 20*time.Second),
		},
		Scoring: ScoringConfig{
			Mode:          getEnv("SCORING_MODE", "inline"),
			RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
			Queue:         getEnv("SCORING_QUEUE", "scoring"),
			Workers:       getEnvAsInt("SCORING_WORKERS", 2),
			QueueSize:     getEnvAsInt("SCORING_QUEUE_SIZE", 256),
			MaxAttempts:   getEnvAsInt("SCORING_MAX_ATTEMPTS", 3),
			TaskTimeout:   getEnvAsDuration("SCORING_TASK_TIMEOUT", 30*time.Second),
			RemoteURL:     getEnv("SCORING_URL", ""),
			CacheTTL:      getEnvAsDuration("BASELINE_CACHE_TTL", 10*time.Minute),
			DefaultWindow: getEnvAsInt("SCORING_WINDOW_DAYS", 90),
		},
		Ingest: IngestConfig{
			WatchDirs:      getEnvAsList("WATCH_DIRS", nil),
			Debounce:       getEnvAsDuration("WATCH_DEBOUNCE", 750*time.Millisecond),
			OrganizationID: getEnv("INGEST_ORGANIZATION_ID", ""),
			DedupTTL:       getEnvAsDuration("INGEST_DEDUP_TTL", 24*time.Hour),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError(CodeConfig, "DB_URL is required", ErrInvalidInput)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError(CodeConfig, "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	switch c.OCR.Provider {
	case "azure":
		if c.OCR.AzureEndpoint == "" || c.OCR.AzureKey == "" {
			return NewAppError(CodeConfig, "AZURE_VISION_ENDPOINT and AZURE_VISION_KEY are required", ErrInvalidInput)
		}
	case "tesseract":
	default:
		return NewAppError(CodeConfig, "OCR_PROVIDER must be azure or tesseract", ErrInvalidInput)
	}
	switch c.Scoring.Mode {
	case "inline":
	case "asynq":
		if c.Scoring.RedisURL == "" {
			return NewAppError(CodeConfig, "REDIS_URL is required for asynq scoring", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, "SCORING_MODE must be inline or asynq", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
