package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignEventURI_UsesAuditGraphPrefix(t *testing.T) {
	event := ChangeEvent{Entity: "http://x/e1"}
	stamped := AssignEventURI(event, "http://purplefabric.ai/graphs/tenant/t/workspace/w/audit")

	assert.True(t, strings.HasPrefix(stamped.EventURI, "http://purplefabric.ai/graphs/tenant/t/workspace/w/audit/event/"))
}

func TestSerialize_InsertOmitsPreviousValue(t *testing.T) {
	event := ChangeEvent{
		EventURI: "http://x/audit/event/1", Entity: "http://x/e1", Property: "pf:name",
		ChangeType: ChangeInsert, NewValue: "Alice", SourceDocument: "doc1",
	}

	triples := Serialize(event, time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC))

	var hasPrevious, hasNew bool
	for _, tr := range triples {
		if tr.Predicate == "pf:previousValue" {
			hasPrevious = true
		}
		if tr.Predicate == "pf:newValue" {
			hasNew = true
			assert.Equal(t, "Alice", tr.Object)
		}
	}
	assert.False(t, hasPrevious)
	assert.True(t, hasNew)
}

func TestSerialize_DeleteOmitsNewValue(t *testing.T) {
	event := ChangeEvent{
		EventURI: "http://x/audit/event/1", Entity: "http://x/e1", Property: "pf:name",
		ChangeType: ChangeDelete, PreviousValue: "Alice", SourceDocument: "doc1",
	}

	triples := Serialize(event, time.Now())

	var hasPrevious, hasNew bool
	for _, tr := range triples {
		if tr.Predicate == "pf:previousValue" {
			hasPrevious = true
		}
		if tr.Predicate == "pf:newValue" {
			hasNew = true
		}
	}
	assert.True(t, hasPrevious)
	assert.False(t, hasNew)
}

func TestSerialize_UpdateHasBothValues(t *testing.T) {
	event := ChangeEvent{
		EventURI: "http://x/audit/event/1", Entity: "http://x/e1", Property: "pf:name",
		ChangeType: ChangeUpdate, PreviousValue: "Alice", NewValue: "Alicia", SourceDocument: "doc1",
	}

	triples := Serialize(event, time.Now())

	predicates := make(map[string]bool)
	for _, tr := range triples {
		predicates[tr.Predicate] = true
	}
	assert.True(t, predicates["pf:previousValue"])
	assert.True(t, predicates["pf:newValue"])
	assert.True(t, predicates["rdf:type"])
	assert.True(t, predicates["pf:entity"])
	assert.True(t, predicates["pf:property"])
	assert.True(t, predicates["pf:changeType"])
	assert.True(t, predicates["pf:changedAt"])
	assert.True(t, predicates["pf:sourceDocument"])
}

func TestSerialize_ChangedAtIsRFC3339(t *testing.T) {
	event := ChangeEvent{EventURI: "http://x/audit/event/1", ChangeType: ChangeInsert}
	changedAt := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	triples := Serialize(event, changedAt)

	for _, tr := range triples {
		if tr.Predicate == "pf:changedAt" {
			parsed, err := time.Parse(time.RFC3339, tr.Object)
			require.NoError(t, err)
			assert.Equal(t, changedAt, parsed.UTC())
		}
	}
}

func TestToTurtle_QuotesLiteralsBracketsIRIsAndKeepsPrefixedNamesBare(t *testing.T) {
	triples := []SerializedTriple{
		{Subject: "http://x/audit/event/1", Predicate: "rdf:type", Object: "pf:ChangeEvent"},
		{Subject: "http://x/audit/event/1", Predicate: "pf:entity", Object: "http://x/e1"},
		{Subject: "http://x/audit/event/1", Predicate: "pf:property", Object: "pf:name", ObjectIsLiteral: true},
	}

	out := ToTurtle(triples)

	assert.Contains(t, out, "<http://x/audit/event/1> rdf:type pf:ChangeEvent .")
	assert.Contains(t, out, "<http://x/audit/event/1> pf:entity <http://x/e1> .")
	assert.Contains(t, out, `<http://x/audit/event/1> pf:property "pf:name" .`)
}
