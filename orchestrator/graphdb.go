package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"purplefabric.ai/graphrag/chat"
	"purplefabric.ai/graphrag/graphragerr"
	"purplefabric.ai/graphrag/querygen"
	"purplefabric.ai/graphrag/store/triplestore"
)

const sparqlAnswerPromptPreamble = `Answer the question using only the SPARQL result bindings below. If they do not contain the answer, say so plainly.

`

// handleGraphDB answers by synthesizing and executing a SPARQL query
// against the triplestore, per §4.7 "graphdb | triplestore via
// synthesized SPARQL".
func handleGraphDB(ctx context.Context, o *Orchestrator, req Request, slot *TokenSlot) (*Response, error) {
	if o.Stores.Triplestore == nil || o.QueryGen == nil {
		return nil, graphragerr.New(graphragerr.KindConfigurationError, "orchestrator: triplestore or query generator not configured")
	}

	schema, err := buildSPARQLSchema(ctx, o, req)
	if err != nil {
		return nil, graphragerr.Wrap(graphragerr.KindBackendUnavailable, err, "orchestrator: introspecting SPARQL schema")
	}

	query, err := o.QueryGen.GenerateSPARQL(ctx, schema, req.Question)
	if err != nil {
		return nil, graphragerr.Wrap(graphragerr.KindQueryGenerationFailed, err, "orchestrator: generating sparql")
	}

	execute := func(ctx context.Context, q string) (interface{}, error) {
		return o.Stores.Triplestore.ExecuteSPARQL(ctx, req.TenantID, req.WorkspaceID, q, triplestoreOptions(req))
	}

	result, executed, err := o.QueryGen.ExecuteSPARQLWithRepair(ctx, schema, req.Question, query, execute)
	if err != nil {
		var failed *querygen.FailedQueryResult
		if errors.As(err, &failed) {
			return nil, graphragerr.Wrap(graphragerr.KindQueryExecutionFailed, err, "orchestrator: sparql execution failed after repair")
		}
		return nil, err
	}

	bindings, _ := result.([]triplestore.Binding)
	chunks := bindingsToChunks(bindings)

	answer, err := answerFromBindings(ctx, o.Chat, req.Question, bindings, slot)
	if err != nil {
		return nil, err
	}

	return &Response{Mode: ModeGraphDB, Answer: answer, SourceChunks: chunks, Warnings: graphWarnings(executed, query)}, nil
}

func bindingsToChunks(bindings []triplestore.Binding) []ScoredChunk {
	chunks := make([]ScoredChunk, 0, len(bindings))
	for i, row := range bindings {
		chunks = append(chunks, ScoredChunk{
			ChunkID: fmt.Sprintf("sparql-row-%d", i),
			Text:    formatBinding(row),
			Score:   0.6,
			Source:  "graph",
		})
	}
	return chunks
}

func formatBinding(row triplestore.Binding) string {
	parts := make([]string, 0, len(row))
	for k, v := range row {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v.Value))
	}
	return strings.Join(parts, ", ")
}

func answerFromBindings(ctx context.Context, model chat.Model, question string, bindings []triplestore.Binding, slot *TokenSlot) (string, error) {
	if model == nil {
		return "", graphragerr.New(graphragerr.KindConfigurationError, "orchestrator: chat model not configured")
	}

	prompt := sparqlAnswerPromptPreamble
	for _, row := range bindings {
		prompt += fmt.Sprintf("- %s\n", formatBinding(row))
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
