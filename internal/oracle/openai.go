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

// openAIClient implements the Client interface for the OpenAI API.
type openAIClient struct {
	httpClient    *http.Client
	logger        *slog.Logger
	baseURL       string
	apiKey        string
	model         string
	maxInputChars int
	seed          int
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg Config, logger *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	mdl := cfg.Model
	if mdl == "" {
		mdl = "gpt-4o-mini"
	}

	return &openAIClient{
		baseURL:       baseURL,
		apiKey:        cfg.APIKey,
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

// Ping verifies the API is reachable and the configured model exists.
func (c *openAIClient) Ping(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/v1/models/"+c.model, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrOracleUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: model %q lookup returned status %d", common.ErrOracleUnavailable, c.model, resp.StatusCode)
	}
	return nil
}

// openAIResponse represents the chat completions response structure.
type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify sends a classification request to OpenAI.
func (c *openAIClient) Classify(ctx context.Context, descriptionA, descriptionB string) (*model.OracleVerdict, error) {
	cleanA, err := Sanitize(descriptionA, c.maxInputChars, c.logger)
	if err != nil {
		return nil, err
	}
	cleanB, err := Sanitize(descriptionB, c.maxInputChars, c.logger)
	if err != nil {
		return nil, err
	}

	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{
				"role":    "system",
				"content": "You are a financial reconciliation assistant. You MUST respond with ONLY a valid JSON object. Start your response directly with { and end with }.",
			},
			{
				"role":    "user",
				"content": buildPrompt(cleanA, cleanB),
			},
		},
		"temperature": 0.0,
		"seed":        c.seed,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

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
		return nil, fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned")
	}

	return ParseVerdict(response.Choices[0].Message.Content, c.logger)
}
