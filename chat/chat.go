// Package chat defines the pluggable LLM chat capability every
// LLM-touching component (memory consolidation, extraction classify/
// extract, query generation, answer synthesis) calls through. The spec
// treats LLM calls as an external collaborator (§1 "Out of scope");
// Model is the narrow interface that collaborator must satisfy, new to
// this module since no chat-completion client appears in the retrieval
// pack.
package chat

import "context"

// Message is one turn in a chat exchange.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Request carries one chat completion call: a fixed list of messages plus
// sampling temperature and a reply token cap. It has no timeout of its own;
// the deadline comes from the ctx passed to Complete.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Response is the model's reply.
type Response struct {
	Content string
}

// Model is the pluggable chat capability. Every call that uses it
// (classification, extraction, query generation, consolidation, answer
// synthesis) must tolerate ctx cancellation per the concurrency model's
// suspension-point rule (§5): every LLM call is a suspension point.
type Model interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Func adapts a plain function to Model, the same single-method-interface
// adapter idiom as http.HandlerFunc, useful for tests and simple
// deployments that wrap one backend call directly.
type Func func(ctx context.Context, req Request) (Response, error)

// Complete implements Model.
func (f Func) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
