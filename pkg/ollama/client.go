// Package ollama implements the client.Embedder interface against an
// Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// Client wraps the Ollama API client.
type Client struct {
	client *api.Client
}

// NewClient creates a new Ollama client for the given server URL.
func NewClient(serverURL string) (*Client, error) {
	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: scheme and host are required", serverURL)
	}

	// Keep only scheme and host; the API client appends its own paths.
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &Client{client: api.NewClient(baseURL, http.DefaultClient)}, nil
}

// Embed computes embedding vectors for the inputs with the named model.
func (c *Client) Embed(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	// Add a timeout if the context doesn't carry one (CPU-only servers
	// can be slow on first load).
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}

	resp, err := c.client.Embed(ctx, &api.EmbedRequest{
		Model: model,
		Input: inputs,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed error: %v", err)
	}
	if len(resp.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(resp.Embeddings), len(inputs))
	}
	return resp.Embeddings, nil
}
