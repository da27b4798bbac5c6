package extraction

import (
	"context"
	"fmt"
	"time"

	"purplefabric.ai/graphrag/events"
	"purplefabric.ai/graphrag/store/kv"
	"purplefabric.ai/graphrag/store/lpg"
)

const auditEventRetention = 30 * 24 * time.Hour

// WriteBatch applies §4.4 Write: idempotent MERGE-on-canonical-id upserts
// for every surviving node and edge, deterministic-id upserts for every
// assertion, and an EVIDENCED_BY link per evidence item. Every event is
// also persisted to the KV adapter for a 30-day audit window, independent
// of whether the LPG write for that event succeeded — per §7 "every event
// written independently; no batch-wide transaction". The first error
// encountered is returned after every event in the batch has been
// attempted, so one bad event never blocks the rest of the batch.
func WriteBatch(ctx context.Context, lpgAdapter *lpg.Adapter, kvAdapter *kv.Adapter, batch *events.GraphEventBatch) error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, n := range batch.Nodes {
		record(lpgAdapter.UpsertNode(ctx, n.Class, n.CanonicalID, n.DisplayName, n.TenantID, n.WorkspaceID, n.Confidence, string(n.ClaimStatus), n.Status, n.SourceDocIDs, n.Attributes))
		record(persistAuditEvent(ctx, kvAdapter, n.EventID, n))
	}

	for _, e := range batch.Edges {
		record(lpgAdapter.UpsertEdge(ctx, e.RelationshipType, e.FromCanonicalID, e.ToCanonicalID, e.Confidence, string(e.ClaimStatus), e.Attributes))
		record(persistAuditEvent(ctx, kvAdapter, e.EventID, e))
	}

	for _, a := range batch.Assertions {
		record(lpgAdapter.UpsertAssertion(ctx, a.AssertionID, a.SubjectCanonicalID, a.Predicate, a.ObjectCanonicalID, a.Confidence, string(a.ClaimStatus), a.Method))
		record(persistAuditEvent(ctx, kvAdapter, a.EventID, a))
	}

	for _, ev := range batch.EvidenceLinks {
		targetIsAssertion := ev.TargetType == events.EvidenceTargetAssertion
		targetID := ev.TargetCanonicalID
		if targetIsAssertion {
			targetID = ev.AssertionID
		}
		record(lpgAdapter.UpsertEvidenceChunk(ctx, targetIsAssertion, targetID, ev.ChunkID, ev.TextHash, ev.Page, ev.SectionPath, ev.Quote, ev.Confidence))
		record(persistAuditEvent(ctx, kvAdapter, ev.EventID, ev))
	}

	for _, c := range batch.CandidateConcepts {
		record(persistAuditEvent(ctx, kvAdapter, c.EventID, c))
	}

	return firstErr
}

func persistAuditEvent(ctx context.Context, kvAdapter *kv.Adapter, eventID string, event interface{}) error {
	if kvAdapter == nil {
		return nil
	}
	key := fmt.Sprintf("audit:event:%s", eventID)
	if err := kvAdapter.SetJSON(ctx, key, event, auditEventRetention); err != nil {
		return fmt.Errorf("extraction: persistAuditEvent %s: %w", eventID, err)
	}
	return nil
}
