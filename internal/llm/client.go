// Package llm adapts an OpenAI-compatible completion endpoint, such as Hugging
// Face text-generation-inference, to chat.Generator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/jmahrt/portfolio/internal/chat"
)

// DefaultModel is the instruction-tuned model the prompt format targets.
const DefaultModel = "mistralai/Mistral-7B-Instruct-v0.2"

const huggingFaceBaseURL = "https://api-inference.huggingface.co/models/"

// Options tunes generation.
type Options struct {
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	HTTPClient  *http.Client
}

// DefaultOptions returns the generation parameters used in production.
func DefaultOptions() Options {
	return Options{
		Model:       DefaultModel,
		MaxTokens:   500,
		Temperature: 0.7,
		TopP:        0.95,
	}
}

type completer interface {
	CreateCompletion(ctx context.Context, req openai.CompletionRequest) (openai.CompletionResponse, error)
}

// Client implements chat.Generator over the completions API.
type Client struct {
	api  completer
	opts Options
}

var _ chat.Generator = (*Client)(nil)

// NewClient creates a client authenticated with token. An empty BaseURL
// targets the hosted inference endpoint of opts.Model.
func NewClient(token string, opts Options) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("token is empty")
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	cfg := openai.DefaultConfig(token)
	cfg.BaseURL = opts.BaseURL
	if cfg.BaseURL == "" {
		cfg.BaseURL = huggingFaceBaseURL + opts.Model + "/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	return &Client{api: openai.NewClientWithConfig(cfg), opts: opts}, nil
}

// Generate requests a completion for prompt. Throttling responses wrap chat.ErrRateLimited.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       c.opts.Model,
		Prompt:      prompt,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
		TopP:        c.opts.TopP,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Text, nil
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", chat.ErrRateLimited, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", chat.ErrRateLimited, reqErr.Err)
	}
	return fmt.Errorf("create completion: %w", err)
}
