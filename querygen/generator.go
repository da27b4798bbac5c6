package querygen

import (
	"context"

	"purplefabric.ai/graphrag/chat"
)

// Generator is the Query Generator (§4.6): it synthesizes SPARQL and
// Cypher queries through a shared LLM model and template cache, and runs
// the one-retry repair loop on execution failure.
type Generator struct {
	Chat      chat.Model
	templates *templateCache
}

// New creates a Generator backed by model.
func New(model chat.Model) *Generator {
	return &Generator{Chat: model, templates: newTemplateCache()}
}

// ExecuteFunc runs a generated query against its backing store and returns
// an opaque result.
type ExecuteFunc func(ctx context.Context, query string) (interface{}, error)

// FailedQueryResult is returned when a query fails both its original
// attempt and its one repair attempt, per §4.6 "returns a structured
// 'query failed' response containing the attempted query text".
type FailedQueryResult struct {
	AttemptedQuery string
	OriginalError  error
	RepairError    error
}

func (r *FailedQueryResult) Error() string {
	if r.RepairError != nil {
		return "querygen: query failed after repair attempt: " + r.RepairError.Error()
	}
	return "querygen: query failed: " + r.OriginalError.Error()
}

// ExecuteSPARQLWithRepair runs query via execute; on failure it resubmits
// the error, original query, and schema for one corrected attempt and
// executes the repaired query once. It returns the surviving query text
// alongside the result, or a *FailedQueryResult if both attempts failed.
func (g *Generator) ExecuteSPARQLWithRepair(ctx context.Context, schema SPARQLSchema, question, query string, execute ExecuteFunc) (interface{}, string, error) {
	result, err := execute(ctx, query)
	if err == nil {
		return result, query, nil
	}

	repaired, repairErr := g.repairSPARQLWithModel(ctx, schema, question, query, err)
	if repairErr != nil {
		return nil, query, &FailedQueryResult{AttemptedQuery: query, OriginalError: err, RepairError: repairErr}
	}

	result2, err2 := execute(ctx, repaired)
	if err2 != nil {
		return nil, repaired, &FailedQueryResult{AttemptedQuery: repaired, OriginalError: err, RepairError: err2}
	}
	return result2, repaired, nil
}

// ExecuteCypherWithRepair is ExecuteSPARQLWithRepair's Cypher counterpart.
func (g *Generator) ExecuteCypherWithRepair(ctx context.Context, schema CypherSchema, workspaceID string, folderIDs []string, question, query string, execute ExecuteFunc) (interface{}, string, error) {
	result, err := execute(ctx, query)
	if err == nil {
		return result, query, nil
	}

	repaired, repairErr := g.repairCypherWithModel(ctx, schema, workspaceID, folderIDs, question, query, err)
	if repairErr != nil {
		return nil, query, &FailedQueryResult{AttemptedQuery: query, OriginalError: err, RepairError: repairErr}
	}

	result2, err2 := execute(ctx, repaired)
	if err2 != nil {
		return nil, repaired, &FailedQueryResult{AttemptedQuery: repaired, OriginalError: err, RepairError: err2}
	}
	return result2, repaired, nil
}
