package extraction

import (
	"context"

	"purplefabric.ai/graphrag/events"
	"purplefabric.ai/graphrag/obslog"
	"purplefabric.ai/graphrag/store/lpg"
)

// ResolveBatch applies §4.4 Resolve: first merges in-batch duplicates
// sharing a canonical_id (keeping the higher confidence, unioning
// source_doc_ids), then for each surviving node looks up an existing LPG
// node with the same display_name/tenant/workspace/class but a different
// canonical_id, rewriting the batch's canonical_id to the existing one
// throughout (nodes, edges, assertions, evidence links) when found, and
// re-deduplicates afterward. Cross-document resolution is best-effort: a
// lookup or rewrite failure is logged and skipped, never fails the run.
func ResolveBatch(ctx context.Context, lpgAdapter *lpg.Adapter, tenantID, workspaceID string, batch *events.GraphEventBatch, logger *obslog.ContextLogger) {
	dedupeNodes(batch)

	rewrites := make(map[string]string)
	for _, n := range batch.Nodes {
		existingID, found, err := lpgAdapter.FindByDisplayName(ctx, n.Class, n.DisplayName, tenantID, workspaceID, n.CanonicalID)
		if err != nil {
			if logger != nil {
				logger.WithError(err).Warn("extraction: resolve lookup failed, continuing best-effort")
			}
			continue
		}
		if !found {
			continue
		}
		if err := lpgAdapter.RewriteCanonicalID(ctx, n.CanonicalID, existingID); err != nil {
			if logger != nil {
				logger.WithError(err).Warn("extraction: resolve rewrite failed, continuing best-effort")
			}
			continue
		}
		rewrites[n.CanonicalID] = existingID
	}

	applyRewrites(batch, rewrites)
	dedupeNodes(batch)
}

// dedupeNodes merges batch.Nodes sharing a canonical_id, keeping the
// higher confidence and unioning source_doc_ids, adjusting Stats.Nodes to
// match the surviving count.
func dedupeNodes(batch *events.GraphEventBatch) {
	byID := make(map[string]*events.UpsertNode, len(batch.Nodes))
	order := make([]string, 0, len(batch.Nodes))

	for _, n := range batch.Nodes {
		existing, ok := byID[n.CanonicalID]
		if !ok {
			node := n
			byID[n.CanonicalID] = &node
			order = append(order, n.CanonicalID)
			continue
		}
		if n.Confidence > existing.Confidence {
			existing.Confidence = n.Confidence
			existing.ClaimStatus = n.ClaimStatus
		}
		existing.SourceDocIDs = unionStrings(existing.SourceDocIDs, n.SourceDocIDs)
	}

	merged := make([]events.UpsertNode, 0, len(order))
	for _, id := range order {
		merged = append(merged, *byID[id])
	}
	batch.Stats.Nodes = len(merged)
	batch.Nodes = merged
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// applyRewrites replaces every reference to an old canonical_id with its
// resolved replacement across nodes, edges, assertions, and evidence links.
func applyRewrites(batch *events.GraphEventBatch, rewrites map[string]string) {
	if len(rewrites) == 0 {
		return
	}

	rewrite := func(id string) string {
		if newID, ok := rewrites[id]; ok {
			return newID
		}
		return id
	}

	for i := range batch.Nodes {
		batch.Nodes[i].CanonicalID = rewrite(batch.Nodes[i].CanonicalID)
	}
	for i := range batch.Edges {
		batch.Edges[i].FromCanonicalID = rewrite(batch.Edges[i].FromCanonicalID)
		batch.Edges[i].ToCanonicalID = rewrite(batch.Edges[i].ToCanonicalID)
	}
	for i := range batch.Assertions {
		batch.Assertions[i].SubjectCanonicalID = rewrite(batch.Assertions[i].SubjectCanonicalID)
		batch.Assertions[i].ObjectCanonicalID = rewrite(batch.Assertions[i].ObjectCanonicalID)
	}
	for i := range batch.EvidenceLinks {
		if batch.EvidenceLinks[i].TargetType == events.EvidenceTargetNode {
			batch.EvidenceLinks[i].TargetCanonicalID = rewrite(batch.EvidenceLinks[i].TargetCanonicalID)
		}
	}
}
