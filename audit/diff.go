// Package audit implements the Audit/Diff Engine (§4.8): a snapshot diff
// of entity triples into typed ChangeEvents, their serialization to
// reified triples sharing one event URI, and batched writes to the audit
// named graph tracked through a bounded operational ledger. The diff
// algorithm follows spec.md §4.8 literally; the batch ledger generalizes
// statemanager/manager.go's bounded-eviction map, the same pattern
// extraction.RunManager already applies to extraction runs.
package audit

// ChangeType classifies one detected difference between an entity's old
// and new triple sets.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Triple is one (predicate, object) pair recorded against an entity in
// either the old or the new snapshot.
type Triple struct {
	Predicate  string
	Object     string
	ObjectType string
}

// ChangeEvent is one detected INSERT/UPDATE/DELETE, carrying the full
// provenance §4.8 requires.
type ChangeEvent struct {
	EventURI       string
	Entity         string
	Property       string
	ChangeType     ChangeType
	PreviousValue  string
	NewValue       string
	SourceDocument string
}

// DiffSnapshot compares oldTriples against newTriples, both keyed by
// entity URI, and returns one ChangeEvent per (entity, predicate) pair
// whose object differs, per §4.8's literal rule:
//
//   - present only in new => INSERT(previousValue="", newValue=...)
//   - present only in old => DELETE(previousValue=..., newValue="")
//   - present in both with different object strings => UPDATE
//   - otherwise => no event
//
// EventURI is left empty; callers assign one (via NewEventURI) once they
// know which batch the event will be serialized into.
func DiffSnapshot(oldTriples, newTriples map[string][]Triple, sourceDocument string) []ChangeEvent {
	entities := make(map[string]struct{})
	for entity := range oldTriples {
		entities[entity] = struct{}{}
	}
	for entity := range newTriples {
		entities[entity] = struct{}{}
	}

	var events []ChangeEvent
	for entity := range entities {
		oldByPredicate := indexByPredicate(oldTriples[entity])
		newByPredicate := indexByPredicate(newTriples[entity])

		predicates := make(map[string]struct{})
		for p := range oldByPredicate {
			predicates[p] = struct{}{}
		}
		for p := range newByPredicate {
			predicates[p] = struct{}{}
		}

		for predicate := range predicates {
			oldTriple, hasOld := oldByPredicate[predicate]
			newTriple, hasNew := newByPredicate[predicate]

			switch {
			case hasNew && !hasOld:
				events = append(events, ChangeEvent{
					Entity: entity, Property: predicate, ChangeType: ChangeInsert,
					NewValue: newTriple.Object, SourceDocument: sourceDocument,
				})
			case hasOld && !hasNew:
				events = append(events, ChangeEvent{
					Entity: entity, Property: predicate, ChangeType: ChangeDelete,
					PreviousValue: oldTriple.Object, SourceDocument: sourceDocument,
				})
			case hasOld && hasNew && oldTriple.Object != newTriple.Object:
				events = append(events, ChangeEvent{
					Entity: entity, Property: predicate, ChangeType: ChangeUpdate,
					PreviousValue: oldTriple.Object, NewValue: newTriple.Object, SourceDocument: sourceDocument,
				})
			}
		}
	}
	return events
}

// indexByPredicate keeps the last triple seen for each predicate, mirroring
// a map's "one object per (entity, predicate)" comparison key.
func indexByPredicate(triples []Triple) map[string]Triple {
	index := make(map[string]Triple, len(triples))
	for _, t := range triples {
		index[t.Predicate] = t
	}
	return index
}
