package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testEnvelope() Envelope {
	return newEnvelope("tenant-1", "workspace-1", "v1", "run-1", "document", "doc-1")
}

func TestNewUpsertNode(t *testing.T) {
	n := NewUpsertNode(testEnvelope(), "Person", "person_abcd1234abcd1234", "Ada Lovelace",
		map[string]string{"email": "ada@example.com"}, map[string]interface{}{"title": "Mathematician"},
		0.9, ClaimStatusFact, "active", []string{"doc-1"})

	assert.Equal(t, "Person", n.Class)
	assert.Equal(t, ClaimStatusFact, n.ClaimStatus)
	assert.NotEmpty(t, n.EventID)
	assert.Equal(t, "tenant-1", n.TenantID)
}

func TestGraphEventBatch_StatsAccumulate(t *testing.T) {
	batch := NewGraphEventBatch("run-1")
	env := testEnvelope()

	batch.AddNode(NewUpsertNode(env, "Person", "person_x", "X", nil, nil, 0.9, ClaimStatusFact, "active", nil))
	batch.AddEdge(NewUpsertEdge(env, "worksAt", "person_x", "org_y", "Person", "Organization", 0.9, ClaimStatusFact, nil))
	batch.AddAssertion(NewUpsertAssertion(env, "assertion_1", "person_x", "worksAt", "org_y", "chunk-1", Span{Start: 0, End: 10}, "quote", 0.9, ClaimStatusFact, "llm"))
	batch.AddQuarantine(NewQuarantineRecord(env, nil, "unknown class", []string{"class not in ontology"}, false, "", 0.4))

	assert.Equal(t, 1, batch.Stats.Nodes)
	assert.Equal(t, 1, batch.Stats.Edges)
	assert.Equal(t, 1, batch.Stats.Assertions)
	assert.Equal(t, 1, batch.Stats.Quarantined)
	assert.Equal(t, 4, batch.Total())
}

func TestNewGraphEventBatch_BatchIDUnique(t *testing.T) {
	b1 := NewGraphEventBatch("run-1")
	b2 := NewGraphEventBatch("run-1")
	assert.NotEqual(t, b1.BatchID, b2.BatchID)
}
