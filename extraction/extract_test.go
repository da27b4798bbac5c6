package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purplefabric.ai/graphrag/chat"
	"purplefabric.ai/graphrag/events"
)

func TestBuildExtractionPrompt_ListsClassesAndRelationships(t *testing.T) {
	slice := testSlice()
	prompt := buildExtractionPrompt(slice)
	assert.Contains(t, prompt, "Person (identity keys: name)")
	assert.Contains(t, prompt, "WORKS_FOR: Person -> Company")
}

func TestQuoteHash_IsStableAndDeterministic(t *testing.T) {
	assert.Equal(t, quoteHash("hello"), quoteHash("hello"))
	assert.NotEqual(t, quoteHash("hello"), quoteHash("world"))
}

func TestExtractChunk_AppendsNodesEdgesAssertionsAndEvidence(t *testing.T) {
	resp := `{"entities":[{"class":"Person","name":"Alice","identity_attrs":{"name":"Alice"},"confidence":0.9,"quote":"Alice works for Acme","span_start":0,"span_end":20},{"class":"Company","name":"Acme","identity_attrs":{"name":"Acme"},"confidence":0.9,"quote":"Acme","span_start":10,"span_end":14}],"relationships":[{"type":"WORKS_FOR","predicate":"works_for","from":"Alice","from_class":"Person","to":"Acme","to_class":"Company","confidence":0.85,"quote":"Alice works for Acme","span_start":0,"span_end":20}],"candidate_concepts":[]}`
	model := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		return chat.Response{Content: resp}, nil
	})

	batch := events.NewGraphEventBatch("run-1")
	env := events.Envelope{TenantID: "t", WorkspaceID: "w"}
	chunk := Chunk{ID: "doc1_chunk_0", DocumentID: "doc1", Text: "Alice works for Acme"}

	err := ExtractChunk(context.Background(), model, testSlice(), chunk, env, batch)
	require.NoError(t, err)

	assert.Len(t, batch.Nodes, 2)
	assert.Len(t, batch.Edges, 1)
	assert.Len(t, batch.Assertions, 1)
	assert.Len(t, batch.EvidenceLinks, 3) // 2 node evidence + 1 assertion evidence
}

func TestExtractChunk_DropsRelationshipReferencingUnknownEntity(t *testing.T) {
	resp := `{"entities":[{"class":"Person","name":"Alice","identity_attrs":{"name":"Alice"},"confidence":0.9}],"relationships":[{"type":"WORKS_FOR","predicate":"works_for","from":"Alice","from_class":"Person","to":"Ghost","to_class":"Company","confidence":0.85}],"candidate_concepts":[]}`
	model := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		return chat.Response{Content: resp}, nil
	})

	batch := events.NewGraphEventBatch("run-1")
	env := events.Envelope{TenantID: "t", WorkspaceID: "w"}
	chunk := Chunk{ID: "doc1_chunk_0", DocumentID: "doc1", Text: "Alice works for a ghost"}

	err := ExtractChunk(context.Background(), model, testSlice(), chunk, env, batch)
	require.NoError(t, err)

	assert.Len(t, batch.Nodes, 1)
	assert.Empty(t, batch.Edges)
	assert.Empty(t, batch.Assertions)
}
