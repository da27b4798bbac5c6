package lpg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_RejectsBadURI(t *testing.T) {
	_, err := New("not-a-valid-scheme", "user", "pass")
	assert.Error(t, err)
}

func TestUpsertNodeQuery_UsesClassAsLabel(t *testing.T) {
	query := upsertNodeQuery("Person")
	assert.Contains(t, query, "MERGE (n:Person {canonical_id: $canonicalId})")
	assert.Contains(t, query, "n.confidence = CASE WHEN n.confidence IS NULL OR $confidence > n.confidence")
}

func TestRelPattern_SamplePatternIsCopyable(t *testing.T) {
	rel := RelPattern{Type: "WORKS_FOR", FromLabel: "Person", ToLabel: "Company"}
	rel.SamplePattern = "(:Person)-[:WORKS_FOR]->(:Company)"
	assert.Equal(t, "(:Person)-[:WORKS_FOR]->(:Company)", rel.SamplePattern)
}
