package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledgermatch/ledgermatch/internal/model"
)

// Client defines the interface for classification oracle providers.
type Client interface {
	// Ping verifies the service is reachable and the configured model is
	// present in its registry. A failed Ping disables the escalation path
	// for the remainder of the run.
	Ping(ctx context.Context) error
	// Classify asks whether two sanitized transaction descriptions refer to
	// the same economic event. Returns a validated verdict or an error; no
	// unvalidated service output ever crosses this boundary.
	Classify(ctx context.Context, descriptionA, descriptionB string) (*model.OracleVerdict, error)
}

// Config holds configuration for the oracle client.
type Config struct {
	Provider      string
	BaseURL       string
	Model         string
	APIKey        string
	Timeout       time.Duration
	MaxInputChars int
	Seed          int
}

// Defaults matching the reference deployment: a local Ollama instance.
const (
	DefaultProvider = "ollama"
	DefaultTimeout  = 30 * time.Second
	DefaultSeed     = 123
)

// NewClient creates an oracle client for the configured provider.
func NewClient(cfg Config, logger *slog.Logger) (Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	if cfg.Seed == 0 {
		cfg.Seed = DefaultSeed
	}

	switch strings.ToLower(cfg.Provider) {
	case "", DefaultProvider:
		return newOllamaClient(cfg, logger)
	case "openai":
		return newOpenAIClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported oracle provider: %s", cfg.Provider)
	}
}

// buildPrompt embeds the two sanitized descriptions in the classification
// prompt. The answer contract mirrors what ParseVerdict validates.
func buildPrompt(descriptionA, descriptionB string) string {
	return fmt.Sprintf(`Analyze these two financial transaction descriptions and decide whether they refer to the same real-world movement of money.

Transaction A: %s
Transaction B: %s

Respond with ONLY a JSON object in exactly this shape:
{ "isMatch": boolean, "confidence": "high"|"medium"|"low", "rationale": "string" }`,
		descriptionA, descriptionB)
}
