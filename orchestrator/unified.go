package orchestrator

import (
	"context"
	"strings"

	"purplefabric.ai/graphrag/chat"
)

const unifiedPlannerPrompt = `You are a routing planner. Given the question below, reply with exactly one word choosing the best retrieval strategy: "rag" for questions answerable from document text alone, "graph" for questions about relationships between specific known entities, "graphdb" for questions needing formal ontology traversal, or "hybrid" when both document content and entity relationships matter.

Question: `

// handleUnified is the agent-planner mode: it asks the chat model to pick
// the best underlying strategy for req.Question, then delegates to that
// mode's handler. It falls back to hybrid — the most complete strategy —
// whenever planning is unavailable or inconclusive.
func handleUnified(ctx context.Context, o *Orchestrator, req Request, slot *TokenSlot) (*Response, error) {
	mode := planMode(ctx, o.Chat, req.Question)

	delegate := req
	delegate.Mode = mode

	handler, ok := o.handlers[mode]
	if !ok {
		handler = handleHybrid
	}

	resp, err := handler(ctx, o, delegate, slot)
	if err != nil {
		return nil, err
	}
	resp.Mode = ModeUnified
	resp.Warnings = append(resp.Warnings, "unified mode routed to "+string(mode))
	return resp, nil
}

func planMode(ctx context.Context, model chat.Model, question string) Mode {
	if model == nil {
		return ModeHybrid
	}

	resp, err := model.Complete(ctx, chat.Request{
		Messages:    []chat.Message{{Role: "user", Content: unifiedPlannerPrompt + question}},
		Temperature: 0,
		MaxTokens:   16,
	})
	if err != nil {
		return ModeHybrid
	}

	switch strings.ToLower(strings.TrimSpace(resp.Content)) {
	case "rag":
		return ModeRAG
	case "graph":
		return ModeGraph
	case "graphdb":
		return ModeGraphDB
	case "hybrid":
		return ModeHybrid
	default:
		return ModeHybrid
	}
}
