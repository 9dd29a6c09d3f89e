package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"

	HistoryFile = "file"
	HistoryS3   = "s3"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// AI Provider Configuration
	AIProvider       string // "gemini", "openai" or "mock"
	GeminiAPIKey     string
	GeminiTextModel  string
	GeminiImageModel string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	AIRequestTimeout time.Duration

	// Image acquisition
	ImageConcurrency  int  // 0 means every prompt in flight at once
	FetchRemoteImages bool // download remote figure images for PDF export

	// History Configuration
	HistoryBackend           string // "file" or "s3"
	HistoryPath              string
	HistoryS3Bucket          string
	HistoryS3Key             string
	HistoryS3Region          string
	HistoryS3Endpoint        string
	HistoryS3AccessKeyID     string
	HistoryS3SecretAccessKey string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AIProvider:       getEnv("AI_PROVIDER", ProviderGemini),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		GeminiTextModel:  getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		GeminiImageModel: getEnv("GEMINI_IMAGE_MODEL", "gemini-2.0-flash-preview-image-generation"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		AIRequestTimeout: getEnvDuration("AI_REQUEST_TIMEOUT", 2*time.Minute),

		ImageConcurrency:  getEnvInt("IMAGE_CONCURRENCY", 0),
		FetchRemoteImages: getEnvBool("FETCH_REMOTE_IMAGES", true),

		HistoryBackend:           getEnv("HISTORY_BACKEND", HistoryFile),
		HistoryPath:              getEnv("HISTORY_PATH", "./reportai-saved-reports.json"),
		HistoryS3Bucket:          getEnv("HISTORY_S3_BUCKET", ""),
		HistoryS3Key:             getEnv("HISTORY_S3_KEY", "reportai-saved-reports.json"),
		HistoryS3Region:          getEnv("HISTORY_S3_REGION", "us-east-1"),
		HistoryS3Endpoint:        getEnv("HISTORY_S3_ENDPOINT", ""),
		HistoryS3AccessKeyID:     getEnv("HISTORY_S3_ACCESS_KEY_ID", ""),
		HistoryS3SecretAccessKey: getEnv("HISTORY_S3_SECRET_ACCESS_KEY", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend and provider choices. A missing API key is not a
// configuration error; it surfaces when a generation is attempted.
func (c *Config) Validate() error {
	switch c.AIProvider {
	case ProviderGemini, ProviderOpenAI, ProviderMock:
	default:
		return fmt.Errorf("AI_PROVIDER must be one of 'gemini', 'openai' or 'mock', got: %s", c.AIProvider)
	}

	switch c.HistoryBackend {
	case HistoryFile:
		if c.HistoryPath == "" {
			return fmt.Errorf("HISTORY_PATH is required when HISTORY_BACKEND is 'file'")
		}
	case HistoryS3:
		if c.HistoryS3Bucket == "" {
			return fmt.Errorf("HISTORY_S3_BUCKET is required when HISTORY_BACKEND is 's3'")
		}
	default:
		return fmt.Errorf("HISTORY_BACKEND must be either 'file' or 's3', got: %s", c.HistoryBackend)
	}

	if c.ImageConcurrency < 0 {
		return fmt.Errorf("IMAGE_CONCURRENCY must not be negative, got: %d", c.ImageConcurrency)
	}
	if c.AIRequestTimeout <= 0 {
		return fmt.Errorf("AI_REQUEST_TIMEOUT must be positive, got: %s", c.AIRequestTimeout)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
