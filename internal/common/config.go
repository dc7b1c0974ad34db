package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Backend    BackendConfig
	Extract    ExtractConfig
	Prompt     PromptConfig
	Validation ValidateConfig
}

// BackendConfig holds inference-backend configuration
type BackendConfig struct {
	Provider    string // "ollama" | "openai"
	Host        string // ollama host, e.g. http://localhost:11434
	BaseURL     string // openai-compatible base URL
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
	RetryDelay  time.Duration
}

// ExtractConfig holds PDF extraction configuration
type ExtractConfig struct {
	MaxPages           int
	Password           string
	AllowEmptyDocument bool
}

// PromptConfig holds prompt truncation configuration
type PromptConfig struct {
	CharBudget int
	HeadChars  int
	TailChars  int
}

// ValidateConfig holds response validation configuration
type ValidateConfig struct {
	BestEffort bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	budget := getEnvAsInt("DOCINFER_CHAR_BUDGET", 8000)
	return &Config{
		Backend: BackendConfig{
			Provider:    getEnv("DOCINFER_BACKEND", "ollama"),
			Host:        getEnv("OLLAMA_HOST", "http://localhost:11434"),
			BaseURL:     getEnv("OPENAI_BASE_URL", "http://localhost:11434/v1"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("DOCINFER_MODEL", "gemma2"),
			Temperature: getEnvAsFloat32("DOCINFER_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("DOCINFER_TIMEOUT", 120*time.Second),
			RetryDelay:  getEnvAsDuration("DOCINFER_RETRY_DELAY", 500*time.Millisecond),
		},
		Extract: ExtractConfig{
			MaxPages:           getEnvAsInt("DOCINFER_MAX_PAGES", 10),
			Password:           getEnv("DOCINFER_PDF_PASSWORD", ""),
			AllowEmptyDocument: getEnvAsBool("DOCINFER_ALLOW_EMPTY", true),
		},
		Prompt: PromptConfig{
			CharBudget: budget,
			HeadChars:  getEnvAsInt("DOCINFER_HEAD_CHARS", budget*3/4),
			TailChars:  getEnvAsInt("DOCINFER_TAIL_CHARS", budget/4),
		},
		Validation: ValidateConfig{
			BestEffort: getEnvAsBool("DOCINFER_BEST_EFFORT", false),
		},
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Backend.Provider != "ollama" && c.Backend.Provider != "openai" {
		return NewStageError(StageInfer, KindBackendResponse, "unknown backend provider: "+c.Backend.Provider, nil)
	}
	if c.Backend.Model == "" {
		return NewStageError(StageInfer, KindBackendResponse, "model name is required", nil)
	}
	if strings.TrimSpace(c.Backend.Host) == "" && c.Backend.Provider == "ollama" {
		return NewStageError(StageInfer, KindBackendUnavailable, "OLLAMA_HOST is required", nil)
	}
	if c.Prompt.CharBudget <= 0 {
		return NewStageError(StagePrompt, KindValidation, "char budget must be positive", nil)
	}
	return nil
}
