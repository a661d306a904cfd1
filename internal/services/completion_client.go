package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type httpCompletionClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPCompletionClient returns a TextCompletionClient that POSTs prompts
// to a completion endpoint. The endpoint contract is a JSON body
// {"prompt": "..."} answered with {"text": "..."}.
func NewHTTPCompletionClient(baseURL string, logger *slog.Logger) TextCompletionClient {
	return &httpCompletionClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type completionRequest struct {
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Text string `json:"text"`
}

func (c *httpCompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion endpoint returned status %d", resp.StatusCode)
	}

	var result completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}

	c.logger.Debug("Completion generated", "prompt_len", len(prompt), "response_len", len(result.Text))

	return result.Text, nil
}
