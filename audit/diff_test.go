package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffSnapshot_DetectsInsert(t *testing.T) {
	old := map[string][]Triple{}
	new_ := map[string][]Triple{
		"http://x/e1": {{Predicate: "pf:name", Object: "Alice"}},
	}

	events := DiffSnapshot(old, new_, "doc1")

	assert.Len(t, events, 1)
	assert.Equal(t, ChangeInsert, events[0].ChangeType)
	assert.Equal(t, "Alice", events[0].NewValue)
	assert.Empty(t, events[0].PreviousValue)
}

func TestDiffSnapshot_DetectsDelete(t *testing.T) {
	old := map[string][]Triple{
		"http://x/e1": {{Predicate: "pf:name", Object: "Alice"}},
	}
	new_ := map[string][]Triple{}

	events := DiffSnapshot(old, new_, "doc1")

	assert.Len(t, events, 1)
	assert.Equal(t, ChangeDelete, events[0].ChangeType)
	assert.Equal(t, "Alice", events[0].PreviousValue)
	assert.Empty(t, events[0].NewValue)
}

func TestDiffSnapshot_DetectsUpdateOnDifferentObject(t *testing.T) {
	old := map[string][]Triple{
		"http://x/e1": {{Predicate: "pf:name", Object: "Alice"}},
	}
	new_ := map[string][]Triple{
		"http://x/e1": {{Predicate: "pf:name", Object: "Alicia"}},
	}

	events := DiffSnapshot(old, new_, "doc1")

	assert.Len(t, events, 1)
	assert.Equal(t, ChangeUpdate, events[0].ChangeType)
	assert.Equal(t, "Alice", events[0].PreviousValue)
	assert.Equal(t, "Alicia", events[0].NewValue)
}

func TestDiffSnapshot_NoEventWhenUnchanged(t *testing.T) {
	old := map[string][]Triple{
		"http://x/e1": {{Predicate: "pf:name", Object: "Alice"}},
	}
	new_ := map[string][]Triple{
		"http://x/e1": {{Predicate: "pf:name", Object: "Alice"}},
	}

	events := DiffSnapshot(old, new_, "doc1")

	assert.Empty(t, events)
}

func TestDiffSnapshot_HandlesMultiplePredicatesIndependently(t *testing.T) {
	old := map[string][]Triple{
		"http://x/e1": {
			{Predicate: "pf:name", Object: "Alice"},
			{Predicate: "pf:age", Object: "30"},
		},
	}
	new_ := map[string][]Triple{
		"http://x/e1": {
			{Predicate: "pf:name", Object: "Alice"},
			{Predicate: "pf:age", Object: "31"},
			{Predicate: "pf:title", Object: "Engineer"},
		},
	}

	events := DiffSnapshot(old, new_, "doc1")

	byProperty := make(map[string]ChangeEvent)
	for _, e := range events {
		byProperty[e.Property] = e
	}

	assert.Len(t, events, 2)
	assert.Equal(t, ChangeUpdate, byProperty["pf:age"].ChangeType)
	assert.Equal(t, ChangeInsert, byProperty["pf:title"].ChangeType)
	assert.NotContains(t, byProperty, "pf:name")
}
