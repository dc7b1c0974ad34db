package ollama

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// Config for the Ollama client.
type Config struct {
	Host        string        // default http://localhost:11434; falls back to env OLLAMA_HOST
	Model       string        // e.g. "gemma2"
	Temperature float32       // 0..2
	Timeout     time.Duration // per-request budget
	RetryDelay  time.Duration // delay before the single connection retry
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Host == "" {
		cfg.Host = os.Getenv("OLLAMA_HOST")
	}
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	if cfg.Model == "" {
		cfg.Model = "gemma2"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}
