package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"purplefabric.ai/graphrag/events"
)

var (
	dateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}`)
)

// validateAttributeValue checks one attribute value against its property's
// xsd-flavored range, per §4.4's type mapping table.
func validateAttributeValue(rng string, value interface{}) bool {
	switch rng {
	case "integer":
		switch v := value.(type) {
		case int, int64:
			return true
		case float64:
			return v == float64(int64(v))
		case string:
			_, err := strconv.ParseInt(v, 10, 64)
			return err == nil
		}
		return false
	case "decimal", "float":
		switch v := value.(type) {
		case int, int64, float64:
			return true
		case string:
			_, err := strconv.ParseFloat(v, 64)
			return err == nil
		}
		return false
	case "date":
		s, ok := value.(string)
		return ok && dateRe.MatchString(s)
	case "dateTime":
		s, ok := value.(string)
		return ok && dateTimeRe.MatchString(s)
	case "boolean":
		switch v := value.(type) {
		case bool:
			return true
		case string:
			return v == "true" || v == "false"
		}
		return false
	case "anyURI":
		s, ok := value.(string)
		return ok && (strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://"))
	default:
		return true
	}
}

// validateAttributes returns one message per attribute whose type fails to
// match the class's declared property range; properties the class does not
// declare are not checked (permissive superset, per the spec's silence on
// unknown-but-harmless attributes).
func validateAttributes(slice OntologySlice, class ClassDef, attrs map[string]interface{}) []string {
	var mismatches []string
	for name, value := range attrs {
		prop, ok := slice.propertyDef(class, name)
		if !ok {
			continue
		}
		if !validateAttributeValue(prop.Range, value) {
			mismatches = append(mismatches, fmt.Sprintf("attribute %q does not match declared range %q", name, prop.Range))
		}
	}
	return mismatches
}

// ValidateBatch applies §4.4 Validate in place: unknown classes and edges
// with a domain/range mismatch (or unknown relationship type) are moved to
// Quarantine as unrecoverable; missing identity keys are quarantined the
// same way; attribute type mismatches downgrade claim_status to CLAIM and
// clamp confidence to at most 0.5, but the event is kept.
func ValidateBatch(slice OntologySlice, batch *events.GraphEventBatch) {
	validNodes := make([]events.UpsertNode, 0, len(batch.Nodes))
	for _, n := range batch.Nodes {
		class, ok := slice.classDef(n.Class)
		if !ok {
			quarantineEvent(batch, &batch.Stats.Nodes, n, "unknown_class",
				[]string{fmt.Sprintf("class %q is not defined in ontology version %s", n.Class, slice.Version)}, false, n.Confidence)
			continue
		}
		if len(n.IdentityKeys) == 0 {
			quarantineEvent(batch, &batch.Stats.Nodes, n, "missing identity keys",
				[]string{"node carries no identity_attrs"}, false, n.Confidence)
			continue
		}

		if mismatches := validateAttributes(slice, class, n.Attributes); len(mismatches) > 0 {
			n.ClaimStatus = events.ClaimStatusClaim
			if n.Confidence > 0.5 {
				n.Confidence = 0.5
			}
		}
		validNodes = append(validNodes, n)
	}
	batch.Nodes = validNodes

	validEdges := make([]events.UpsertEdge, 0, len(batch.Edges))
	for _, e := range batch.Edges {
		if _, ok := slice.relationshipDef(e.RelationshipType, e.FromClass, e.ToClass); !ok {
			quarantineEvent(batch, &batch.Stats.Edges, e, "unknown relationship or domain/range mismatch",
				[]string{fmt.Sprintf("%s -[%s]-> %s is not permitted by ontology version %s", e.FromClass, e.RelationshipType, e.ToClass, slice.Version)}, false, e.Confidence)
			continue
		}
		validEdges = append(validEdges, e)
	}
	batch.Edges = validEdges
}

// quarantineEvent records a QuarantineRecord for originalEvent, decrements
// the counter the event was originally tallied under (it is no longer part
// of the serving set), and leaves Stats.Quarantined incremented via
// AddQuarantine.
func quarantineEvent(batch *events.GraphEventBatch, counter *int, originalEvent interface{}, reason string, validationErrors []string, recoverable bool, confidence float64) {
	*counter--
	env := envelopeOf(originalEvent)
	batch.AddQuarantine(events.NewQuarantineRecord(env, originalEvent, reason, validationErrors, recoverable, "", confidence))
}

// envelopeOf extracts the shared Envelope from any extraction event type,
// so quarantine bookkeeping does not need a type switch at every call site.
func envelopeOf(event interface{}) events.Envelope {
	switch e := event.(type) {
	case events.UpsertNode:
		return e.Envelope
	case events.UpsertEdge:
		return e.Envelope
	case events.UpsertAssertion:
		return e.Envelope
	default:
		return events.Envelope{}
	}
}
