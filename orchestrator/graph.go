package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"purplefabric.ai/graphrag/chat"
	"purplefabric.ai/graphrag/graphragerr"
	"purplefabric.ai/graphrag/querygen"
	"purplefabric.ai/graphrag/store/lpg"
)

const graphAnswerPromptPreamble = `Answer the question using only the graph query results below. If they do not contain the answer, say so plainly.

`

// handleGraph answers by synthesizing and executing a Cypher query
// against the LPG store, per §4.7 "graph | LPG via synthesized Cypher".
// ModeNeo4j is dispatched here too and is answered exactly like ModeGraph:
// the same prompts are used and the Response's Mode is ModeGraph.
func handleGraph(ctx context.Context, o *Orchestrator, req Request, slot *TokenSlot) (*Response, error) {
	if o.Stores.LPG == nil || o.QueryGen == nil {
		return nil, graphragerr.New(graphragerr.KindConfigurationError, "orchestrator: LPG store or query generator not configured")
	}

	schema, err := o.Stores.LPG.GetSchema(ctx)
	if err != nil {
		return nil, graphragerr.Wrap(graphragerr.KindBackendUnavailable, err, "orchestrator: fetching LPG schema")
	}

	query, err := o.QueryGen.GenerateCypher(ctx, *schema, req.WorkspaceID, req.FolderIDs, req.Question)
	if err != nil {
		return nil, graphragerr.Wrap(graphragerr.KindQueryGenerationFailed, err, "orchestrator: generating cypher")
	}

	execute := func(ctx context.Context, q string) (interface{}, error) {
		return o.Stores.LPG.RunCypher(ctx, q, nil, false)
	}

	result, executed, err := o.QueryGen.ExecuteCypherWithRepair(ctx, *schema, req.WorkspaceID, req.FolderIDs, req.Question, query, execute)
	if err != nil {
		var failed *querygen.FailedQueryResult
		if errors.As(err, &failed) {
			return nil, graphragerr.Wrap(graphragerr.KindQueryExecutionFailed, err, "orchestrator: cypher execution failed after repair")
		}
		return nil, err
	}

	rows, _ := result.([]lpg.Row)
	chunks := rowsToChunks(rows)

	answer, err := answerFromGraphRows(ctx, o.Chat, req.Question, rows, slot)
	if err != nil {
		return nil, err
	}

	return &Response{Mode: ModeGraph, Answer: answer, SourceChunks: chunks, Warnings: graphWarnings(executed, query)}, nil
}

func rowsToChunks(rows []lpg.Row) []ScoredChunk {
	chunks := make([]ScoredChunk, 0, len(rows))
	for i, row := range rows {
		chunks = append(chunks, ScoredChunk{
			ChunkID: fmt.Sprintf("graph-row-%d", i),
			Text:    formatRow(row),
			Score:   0.6,
			Source:  "graph",
		})
	}
	return chunks
}

func formatRow(row lpg.Row) string {
	parts := make([]string, 0, len(row))
	for k, v := range row {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ", ")
}

func answerFromGraphRows(ctx context.Context, model chat.Model, question string, rows []lpg.Row, slot *TokenSlot) (string, error) {
	if model == nil {
		return "", graphragerr.New(graphragerr.KindConfigurationError, "orchestrator: chat model not configured")
	}

	prompt := graphAnswerPromptPreamble
	for _, row := range rows {
		prompt += fmt.Sprintf("- %s\n", formatRow(row))
	}
	prompt += fmt.Sprintf("\nQuestion: %s\n", question)

	if slot != nil {
		slot.Consume(estimateTokens(prompt))
	}

	resp, err := model.Complete(ctx, chat.Request{
		Messages:    []chat.Message{{Role: "user", Content: prompt}},
		Temperature: 0.2,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", graphragerr.Wrap(graphragerr.KindBackendUnavailable, err, "orchestrator: generating answer")
	}
	return resp.Content, nil
}

func graphWarnings(executedQuery, originalQuery string) []string {
	if executedQuery != originalQuery {
		return []string{"query required one repair attempt before executing"}
	}
	return nil
}
