package extraction

import "purplefabric.ai/graphrag/events"

const (
	factThreshold  = 0.85
	claimThreshold = 0.65
)

// GateBatch applies §4.4 Gate independently to nodes, edges, and
// assertions: confidence ≥ 0.85 promotes to FACT; 0.65 ≤ confidence < 0.85
// keeps CLAIM and still writes the event; confidence < 0.65 replaces the
// event with a QuarantineRecord and drops it from the serving set.
func GateBatch(batch *events.GraphEventBatch) {
	gatedNodes := make([]events.UpsertNode, 0, len(batch.Nodes))
	for _, n := range batch.Nodes {
		switch {
		case n.Confidence >= factThreshold:
			n.ClaimStatus = events.ClaimStatusFact
			gatedNodes = append(gatedNodes, n)
		case n.Confidence >= claimThreshold:
			n.ClaimStatus = events.ClaimStatusClaim
			gatedNodes = append(gatedNodes, n)
		default:
			quarantineEvent(batch, &batch.Stats.Nodes, n, "confidence below quarantine threshold",
				[]string{"confidence < 0.65"}, true, n.Confidence)
		}
	}
	batch.Nodes = gatedNodes

	gatedEdges := make([]events.UpsertEdge, 0, len(batch.Edges))
	for _, e := range batch.Edges {
		switch {
		case e.Confidence >= factThreshold:
			e.ClaimStatus = events.ClaimStatusFact
			gatedEdges = append(gatedEdges, e)
		case e.Confidence >= claimThreshold:
			e.ClaimStatus = events.ClaimStatusClaim
			gatedEdges = append(gatedEdges, e)
		default:
			quarantineEvent(batch, &batch.Stats.Edges, e, "confidence below quarantine threshold",
				[]string{"confidence < 0.65"}, true, e.Confidence)
		}
	}
	batch.Edges = gatedEdges

	gatedAssertions := make([]events.UpsertAssertion, 0, len(batch.Assertions))
	for _, a := range batch.Assertions {
		switch {
		case a.Confidence >= factThreshold:
			a.ClaimStatus = events.ClaimStatusFact
			gatedAssertions = append(gatedAssertions, a)
		case a.Confidence >= claimThreshold:
			a.ClaimStatus = events.ClaimStatusClaim
			gatedAssertions = append(gatedAssertions, a)
		default:
			quarantineEvent(batch, &batch.Stats.Assertions, a, "confidence below quarantine threshold",
				[]string{"confidence < 0.65"}, true, a.Confidence)
		}
	}
	batch.Assertions = gatedAssertions
}
