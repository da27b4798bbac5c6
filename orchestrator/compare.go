package orchestrator

import (
	"context"
	"fmt"
)

// compareRAGHandler and compareGraphDBHandler are the constituent
// handlers handleCompare calls through; indirected as package vars
// (rather than calling handleRAG/handleGraphDB directly) so tests can
// substitute fakes without exercising live store adapters.
var compareRAGHandler modeHandler = handleRAG
var compareGraphDBHandler modeHandler = handleGraphDB

// handleCompare runs the rag and graphdb modes sequentially — not in
// parallel, to avoid two concurrent calls contending for the same chat
// model rate limit, per §4.7 "compare | runs rag + graphdb sequentially" —
// and reports both, tolerating either one failing independently.
func handleCompare(ctx context.Context, o *Orchestrator, req Request, slot *TokenSlot) (*Response, error) {
	answers := make(map[Mode]*Response, 2)
	var warnings []string

	ragReq := req
	ragReq.Mode = ModeRAG
	if resp, err := compareRAGHandler(ctx, o, ragReq, slot); err != nil {
		warnings = append(warnings, fmt.Sprintf("rag mode failed: %v", err))
	} else {
		answers[ModeRAG] = resp
	}

	graphReq := req
	graphReq.Mode = ModeGraphDB
	if resp, err := compareGraphDBHandler(ctx, o, graphReq, slot); err != nil {
		warnings = append(warnings, fmt.Sprintf("graphdb mode failed: %v", err))
	} else {
		answers[ModeGraphDB] = resp
	}

	if len(answers) == 0 {
		return nil, fmt.Errorf("orchestrator: compare mode: both constituent modes failed: %v", warnings)
	}

	primary := answers[ModeRAG]
	if primary == nil {
		primary = answers[ModeGraphDB]
	}

	return &Response{
		Mode:           ModeCompare,
		Answer:         primary.Answer,
		SourceChunks:   primary.SourceChunks,
		CompareAnswers: answers,
		Warnings:       warnings,
	}, nil
}
