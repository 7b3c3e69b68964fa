package embedding

import (
	"context"
	"errors"
	"math"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Client produces embeddings through any OpenAI-compatible endpoint
// (llama.cpp server, Ollama, or the hosted API).
type Client struct {
	api        *openai.Client
	model      string
	dimension  int
	maxRetries int
}

// Config configures the embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewClient creates an embeddings client. Local servers ignore the API key,
// so a missing key env is filled with a placeholder rather than rejected.
func NewClient(cfg Config) *Client {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		key = "unused"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	apiCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		model:      cfg.Model,
		maxRetries: 5,
	}
}

// Fingerprint identifies the embedding space this client produces. An index
// built with one fingerprint refuses to load under another.
func (c *Client) Fingerprint() string { return "openai/" + c.model }

// Dimension is discovered lazily from the first embedding returned.
func (c *Client) Dimension() int { return c.dimension }

// Embed returns an L2-normalized embedding vector for the given text,
// retrying transient failures with exponential backoff.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.New("cannot embed empty text")
	}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(c.model),
			Input: []string{text},
		})
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, err
			}
			if attempt < c.maxRetries {
				time.Sleep(retryDelay(attempt))
				continue
			}
			return nil, err
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			lastErr = errors.New("no embedding returned")
			if attempt < c.maxRetries {
				time.Sleep(retryDelay(attempt))
				continue
			}
			return nil, lastErr
		}
		v := resp.Data[0].Embedding
		if c.dimension == 0 {
			c.dimension = len(v)
		}
		l2normalize(v)
		return v, nil
	}
	return nil, lastErr
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

// l2normalize scales a vector to unit length so cosine similarity reduces to
// a dot product.
func l2normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
