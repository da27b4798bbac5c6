package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purplefabric.ai/graphrag/events"
)

func testSlice() OntologySlice {
	return OntologySlice{
		Version: "v1",
		Classes: map[string]ClassDef{
			"Person": {
				Name:         "Person",
				IdentityKeys: []string{"name"},
				Properties: []PropertyDef{
					{Name: "born", Range: "date"},
					{Name: "age", Range: "integer"},
				},
			},
			"Company": {
				Name:         "Company",
				IdentityKeys: []string{"name"},
			},
		},
		Relationships: map[string]RelationshipDef{
			"WORKS_FOR": {Type: "WORKS_FOR", Domain: "Person", Range: "Company"},
		},
	}
}

func TestValidateAttributeValue_Integer(t *testing.T) {
	assert.True(t, validateAttributeValue("integer", 42))
	assert.True(t, validateAttributeValue("integer", "42"))
	assert.False(t, validateAttributeValue("integer", "not-a-number"))
}

func TestValidateAttributeValue_Date(t *testing.T) {
	assert.True(t, validateAttributeValue("date", "2024-01-15"))
	assert.False(t, validateAttributeValue("date", "01/15/2024"))
}

func TestValidateAttributeValue_Boolean(t *testing.T) {
	assert.True(t, validateAttributeValue("boolean", true))
	assert.True(t, validateAttributeValue("boolean", "true"))
	assert.False(t, validateAttributeValue("boolean", "yes"))
}

func TestValidateAttributeValue_AnyURI(t *testing.T) {
	assert.True(t, validateAttributeValue("anyURI", "https://example.com/x"))
	assert.False(t, validateAttributeValue("anyURI", "not a uri"))
}

func TestValidateAttributeValue_UnknownRangeIsPermissive(t *testing.T) {
	assert.True(t, validateAttributeValue("string", 123))
}

func TestValidateBatch_QuarantinesUnknownClass(t *testing.T) {
	slice := testSlice()
	batch := events.NewGraphEventBatch("run-1")
	env := events.Envelope{TenantID: "t", WorkspaceID: "w"}
	batch.AddNode(events.NewUpsertNode(env, "Animal", "c1", "Rex", map[string]string{"name": "Rex"}, nil, 0.9, events.ClaimStatusClaim, "active", nil))

	ValidateBatch(slice, batch)

	assert.Empty(t, batch.Nodes)
	require.Len(t, batch.Quarantine, 1)
	assert.Equal(t, "unknown_class", batch.Quarantine[0].FailureReason)
	assert.Equal(t, 0, batch.Stats.Nodes)
}

func TestValidateBatch_QuarantinesMissingIdentityKeys(t *testing.T) {
	slice := testSlice()
	batch := events.NewGraphEventBatch("run-1")
	env := events.Envelope{TenantID: "t", WorkspaceID: "w"}
	batch.AddNode(events.NewUpsertNode(env, "Person", "c1", "Alice", nil, nil, 0.9, events.ClaimStatusClaim, "active", nil))

	ValidateBatch(slice, batch)

	assert.Empty(t, batch.Nodes)
	require.Len(t, batch.Quarantine, 1)
	assert.Equal(t, "missing identity keys", batch.Quarantine[0].FailureReason)
}

func TestValidateBatch_DowngradesOnAttributeMismatch(t *testing.T) {
	slice := testSlice()
	batch := events.NewGraphEventBatch("run-1")
	env := events.Envelope{TenantID: "t", WorkspaceID: "w"}
	attrs := map[string]interface{}{"born": "not-a-date"}
	batch.AddNode(events.NewUpsertNode(env, "Person", "c1", "Alice", map[string]string{"name": "Alice"}, attrs, 0.95, events.ClaimStatusFact, "active", nil))

	ValidateBatch(slice, batch)

	require.Len(t, batch.Nodes, 1)
	assert.Equal(t, events.ClaimStatusClaim, batch.Nodes[0].ClaimStatus)
	assert.LessOrEqual(t, batch.Nodes[0].Confidence, 0.5)
	assert.Empty(t, batch.Quarantine)
}

func TestValidateBatch_QuarantinesEdgeOnDomainRangeMismatch(t *testing.T) {
	slice := testSlice()
	batch := events.NewGraphEventBatch("run-1")
	env := events.Envelope{TenantID: "t", WorkspaceID: "w"}
	batch.AddEdge(events.NewUpsertEdge(env, "WORKS_FOR", "c1", "c2", "Company", "Company", 0.9, events.ClaimStatusClaim, nil))

	ValidateBatch(slice, batch)

	assert.Empty(t, batch.Edges)
	require.Len(t, batch.Quarantine, 1)
}

func TestValidateBatch_KeepsValidEdge(t *testing.T) {
	slice := testSlice()
	batch := events.NewGraphEventBatch("run-1")
	env := events.Envelope{TenantID: "t", WorkspaceID: "w"}
	batch.AddEdge(events.NewUpsertEdge(env, "WORKS_FOR", "c1", "c2", "Person", "Company", 0.9, events.ClaimStatusClaim, nil))

	ValidateBatch(slice, batch)

	assert.Len(t, batch.Edges, 1)
	assert.Empty(t, batch.Quarantine)
}
