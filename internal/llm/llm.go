// Package llm is a thin client for the local model endpoint used to answer
// explain requests. Prompt assembly happens upstream; this package only
// ships a finished document and returns the completion.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	// DefaultModel is the default generation model.
	DefaultModel = "qwen2.5-coder"
	// DefaultOllamaURL is the default Ollama API endpoint.
	DefaultOllamaURL = "http://localhost:11434"
	// DefaultTimeout bounds one generation round trip.
	DefaultTimeout = 120 * time.Second
)

// Client answers a fully assembled prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelVersion identifies the model answers come from.
	ModelVersion() string
}

// OllamaClient implements Client against the Ollama generate API.
type OllamaClient struct {
	client  *http.Client
	baseURL string
	model   string
}

// ollamaGenerateRequest is the request body for the Ollama generate API.
type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// ollamaGenerateResponse is the non-streaming generate response.
type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// NewOllamaClient creates a client from the environment. OLLAMA_HOST and
// LENS_MODEL override the endpoint and model.
func NewOllamaClient() *OllamaClient {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	model := os.Getenv("LENS_MODEL")
	if model == "" {
		model = DefaultModel
	}
	return NewOllamaClientWithConfig(baseURL, model)
}

// NewOllamaClientWithConfig creates a client with explicit settings.
func NewOllamaClientWithConfig(baseURL, model string) *OllamaClient {
	return &OllamaClient{
		client:  &http.Client{Timeout: DefaultTimeout},
		baseURL: baseURL,
		model:   model,
	}
}

// Generate runs one non-streaming completion. No retries: the caller already
// sits on an interactive path and surfaces the error directly.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return result.Response, nil
}

// ModelVersion returns the model identifier.
func (c *OllamaClient) ModelVersion() string {
	return c.model
}
