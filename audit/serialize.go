package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AssignEventURI stamps event with a fresh event URI under auditGraphIRI,
// per §4.8 "{auditGraphIRI}/event/{uuid}".
func AssignEventURI(event ChangeEvent, auditGraphIRI string) ChangeEvent {
	event.EventURI = fmt.Sprintf("%s/event/%s", auditGraphIRI, uuid.NewString())
	return event
}

// SerializedTriple is one RDF statement ready for Turtle rendering.
type SerializedTriple struct {
	Subject   string
	Predicate string
	Object    string
	// ObjectIsLiteral distinguishes a plain-literal object (changeType,
	// changedAt, property, previousValue, newValue, sourceDocument) from
	// an IRI object (rdf:type, entity).
	ObjectIsLiteral bool
}

// Serialize renders event as the fixed predicate set §4.8 requires on
// every ChangeEvent, all sharing event.EventURI as the subject.
// pf:previousValue is emitted only for UPDATE/DELETE; pf:newValue only for
// INSERT/UPDATE, matching the spec literally.
func Serialize(event ChangeEvent, changedAt time.Time) []SerializedTriple {
	triples := []SerializedTriple{
		{Subject: event.EventURI, Predicate: "rdf:type", Object: "pf:ChangeEvent"},
		{Subject: event.EventURI, Predicate: "pf:entity", Object: event.Entity},
		{Subject: event.EventURI, Predicate: "pf:property", Object: event.Property, ObjectIsLiteral: true},
		{Subject: event.EventURI, Predicate: "pf:changeType", Object: string(event.ChangeType), ObjectIsLiteral: true},
		{Subject: event.EventURI, Predicate: "pf:changedAt", Object: changedAt.UTC().Format(time.RFC3339), ObjectIsLiteral: true},
		{Subject: event.EventURI, Predicate: "pf:sourceDocument", Object: event.SourceDocument, ObjectIsLiteral: true},
	}

	if event.ChangeType == ChangeUpdate || event.ChangeType == ChangeDelete {
		triples = append(triples, SerializedTriple{
			Subject: event.EventURI, Predicate: "pf:previousValue", Object: event.PreviousValue, ObjectIsLiteral: true,
		})
	}
	if event.ChangeType == ChangeInsert || event.ChangeType == ChangeUpdate {
		triples = append(triples, SerializedTriple{
			Subject: event.EventURI, Predicate: "pf:newValue", Object: event.NewValue, ObjectIsLiteral: true,
		})
	}

	return triples
}

// ToTurtle renders triples as Turtle statements. Literal objects are
// quoted and escaped; IRI objects are wrapped in angle brackets, except
// for the already-prefixed rdf:type/pf:ChangeEvent pair.
func ToTurtle(triples []SerializedTriple) string {
	var out string
	for _, t := range triples {
		out += fmt.Sprintf("<%s> %s %s .\n", t.Subject, turtlePredicate(t.Predicate), turtleObject(t))
	}
	return out
}

// turtlePredicate passes prefixed names (rdf:, pf:) through unchanged and
// wraps anything else (a bare IRI) in angle brackets.
func turtlePredicate(predicate string) string {
	if strings.HasPrefix(predicate, "rdf:") || strings.HasPrefix(predicate, "pf:") {
		return predicate
	}
	return fmt.Sprintf("<%s>", predicate)
}

func turtleObject(t SerializedTriple) string {
	if t.Predicate == "rdf:type" {
		return t.Object
	}
	if t.ObjectIsLiteral {
		return fmt.Sprintf("%q", t.Object)
	}
	return fmt.Sprintf("<%s>", t.Object)
}
