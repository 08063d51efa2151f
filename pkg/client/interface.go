package client

import "context"

// Embedder is the inference-session boundary: it turns inputs into
// embedding vectors using a named model. Implementations own all
// transport and session details; the decoding pipeline only supplies a
// resolved model name.
type Embedder interface {
	Embed(ctx context.Context, model string, inputs []string) ([][]float32, error)
}
