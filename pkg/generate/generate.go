// Package generate talks to an OpenAI-compatible chat completions endpoint
// serving the model under evaluation.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dtnitsch/litchar/models"
	"github.com/go-resty/resty/v2"
)

// APIKeyEnv names the environment variable holding the endpoint API key.
const APIKeyEnv = "LITCHAR_API_KEY"

const DefaultBaseURL = "http://localhost:8000/v1"

var (
	ErrEmptyResponse = errors.New("model returned no choices")
	ErrRequest       = errors.New("generation request failed")
)

// Generator produces a completion for a single user prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client calls POST {base_url}/chat/completions.
type Client struct {
	client *resty.Client
	model  string
	params models.GenerateParams
	logger *slog.Logger
}

// NewClient builds a client for model. An empty apiKey sends no
// Authorization header.
func NewClient(model, apiKey string, params models.GenerateParams, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(5 * time.Minute)
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	c.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug("start request", "method", req.Method, "url", req.URL)
		return nil
	})

	return &Client{client: c, model: model, params: params, logger: logger}
}

func (c *Client) request(prompt string) chatRequest {
	req := chatRequest{
		Model:     c.model,
		Messages:  []message{{Role: "user", Content: prompt}},
		MaxTokens: c.params.MaxNewTokens,
	}
	if c.params.DoSample {
		t := c.params.Temperature
		req.Temperature = &t
		req.TopP = c.params.TopP
	} else {
		// greedy decoding
		zero := 0.0
		req.Temperature = &zero
	}
	return req
}

// Generate sends prompt as a single user message and returns the reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var out chatResponse
	var apiErr apiError

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(c.request(prompt)).
		SetResult(&out).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequest, err)
	}
	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		return "", fmt.Errorf("%w: %d: %s", ErrRequest, resp.StatusCode(), msg)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(out.Choices[0].Message.Content)
	c.logger.Debug("Generated completion", "prompt_chars", len(prompt), "output_chars", len(text))
	return text, nil
}
