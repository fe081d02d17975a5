package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ledgermatch/ledgermatch/internal/common"
	"github.com/ledgermatch/ledgermatch/internal/model"
)

// ollamaClient implements the Client interface for a local Ollama instance.
type ollamaClient struct {
	httpClient    *http.Client
	logger        *slog.Logger
	baseURL       string
	model         string
	maxInputChars int
	seed          int
}

// newOllamaClient creates a new Ollama API client.
func newOllamaClient(cfg Config, logger *slog.Logger) (Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	mdl := cfg.Model
	if mdl == "" {
		mdl = "llama3.2"
	}

	return &ollamaClient{
		baseURL:       baseURL,
		model:         mdl,
		maxInputChars: cfg.MaxInputChars,
		seed:          cfg.Seed,
		logger:        logger,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// ollamaTagsResponse is the model registry listing from /api/tags.
type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Ping verifies Ollama is reachable and the required model is installed.
func (c *ollamaClient) Ping(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrOracleUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: registry returned status %d", common.ErrOracleUnavailable, resp.StatusCode)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("%w: failed to parse registry: %v", common.ErrOracleUnavailable, err)
	}

	for _, m := range tags.Models {
		if strings.Contains(m.Name, c.model) {
			return nil
		}
	}
	return fmt.Errorf("%w: model %q not found in registry", common.ErrOracleUnavailable, c.model)
}

// ollamaGenerateResponse is the non-streaming /api/generate response.
type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Classify sends a classification request to Ollama.
func (c *ollamaClient) Classify(ctx context.Context, descriptionA, descriptionB string) (*model.OracleVerdict, error) {
	cleanA, err := Sanitize(descriptionA, c.maxInputChars, c.logger)
	if err != nil {
		return nil, err
	}
	cleanB, err := Sanitize(descriptionB, c.maxInputChars, c.logger)
	if err != nil {
		return nil, err
	}

	// Temperature zero and a fixed seed keep repeated runs over the same
	// inputs reproducible.
	requestBody := map[string]any{
		"model":  c.model,
		"prompt": buildPrompt(cleanA, cleanB),
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": 0.0,
			"seed":        c.seed,
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrOracleUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(body))
	}

	var generated ollamaGenerateResponse
	if err := json.Unmarshal(body, &generated); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return ParseVerdict(generated.Response, c.logger)
}
