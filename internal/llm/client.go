package llm

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"docqa/internal/domain"
)

// Client runs completions against an OpenAI-compatible chat endpoint, which
// locally is a llama.cpp server or Ollama. The model binary, its weights and
// their loading all live behind that endpoint.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
	seed        int
}

// Config configures the completion client. A non-negative Seed is forwarded
// on every request so that repeated calls with the same prompt decode the
// same answer.
type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Temperature float32
	MaxTokens   int
	Seed        int
	Timeout     time.Duration
}

func NewClient(cfg Config) *Client {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		key = "unused"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	apiCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{
		api:         openai.NewClientWithConfig(apiCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		seed:        cfg.Seed,
	}
}

func (c *Client) request(prompt string, stream bool) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      stream,
	}
	if c.seed >= 0 {
		seed := c.seed
		req.Seed = &seed
	}
	return req
}

// Complete blocks until the model produced the full answer text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, c.request(prompt, false))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream starts a completion and returns a TokenStream over its deltas.
func (c *Client) Stream(ctx context.Context, prompt string) (domain.TokenStream, error) {
	s, err := c.api.CreateChatCompletionStream(ctx, c.request(prompt, true))
	if err != nil {
		return nil, err
	}
	return &tokenStream{s: s}, nil
}

type tokenStream struct {
	s *openai.ChatCompletionStream
}

// Recv returns the next non-empty content delta, io.EOF once the stream is
// exhausted.
func (t *tokenStream) Recv() (string, error) {
	for {
		resp, err := t.s.Recv()
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if tok := resp.Choices[0].Delta.Content; tok != "" {
			return tok, nil
		}
	}
}

func (t *tokenStream) Close() error { return t.s.Close() }
