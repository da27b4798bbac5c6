// Package embed defines the pluggable embedding capability the vector
// store, memory store, and hybrid query generator use to turn text into
// vectors. Like chat.Model, this is the external collaborator interface
// the spec calls out in §1 ("embedding generation as an embed
// capability"); no embeddings client exists anywhere in the retrieval
// pack, so the interface is new.
package embed

import "context"

// Model is the pluggable embedding capability.
type Model interface {
	// Embed returns one embedding vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension reports the embedding width this model produces, used to
	// size vector indexes at creation time.
	Dimension() int
}

// Func adapts a plain function to Model.
type Func struct {
	EmbedFn func(ctx context.Context, texts []string) ([][]float32, error)
	Dim     int
}

// Embed implements Model.
func (f Func) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return f.EmbedFn(ctx, texts)
}

// Dimension implements Model.
func (f Func) Dimension() int {
	return f.Dim
}
