package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeID_Deterministic(t *testing.T) {
	id1 := NodeID("Person", "Ada Lovelace", map[string]string{"email": "ada@example.com"})
	id2 := NodeID("Person", "Ada Lovelace", map[string]string{"email": "ada@example.com"})
	assert.Equal(t, id1, id2)
	assert.True(t, len(id1) > len("person_"))
}

func TestNodeID_OrderIndependent(t *testing.T) {
	attrsA := map[string]string{"email": "ada@example.com", "org": "analytical-engine"}
	attrsB := map[string]string{"org": "analytical-engine", "email": "ada@example.com"}

	idA := NodeID("Person", "Ada Lovelace", attrsA)
	idB := NodeID("Person", "Ada Lovelace", attrsB)
	assert.Equal(t, idA, idB, "canonical_id must be order-independent over identity_attrs")
}

func TestNodeID_ClassPrefixLowercased(t *testing.T) {
	id := NodeID("Organization", "Acme", nil)
	assert.Regexp(t, `^organization_[0-9a-f]{16}$`, id)
}

func TestNodeID_DifferentAttrsDifferentID(t *testing.T) {
	id1 := NodeID("Person", "Ada Lovelace", map[string]string{"email": "ada@example.com"})
	id2 := NodeID("Person", "Ada Lovelace", map[string]string{"email": "other@example.com"})
	assert.NotEqual(t, id1, id2)
}

func TestAssertionID_Deterministic(t *testing.T) {
	id1 := AssertionID("person_abc", "worksAt", "org_def", "chunk-1", 10, 20)
	id2 := AssertionID("person_abc", "worksAt", "org_def", "chunk-1", 10, 20)
	assert.Equal(t, id1, id2)
	assert.Regexp(t, `^assertion_[0-9a-f]{20}$`, id1)
}

func TestAssertionID_SpanMatters(t *testing.T) {
	id1 := AssertionID("person_abc", "worksAt", "org_def", "chunk-1", 10, 20)
	id2 := AssertionID("person_abc", "worksAt", "org_def", "chunk-1", 10, 21)
	assert.NotEqual(t, id1, id2)
}
