// Package lpg implements the labeled-property-graph store adapter over
// Neo4j. It generalizes the teacher's Neo4jRepository
// (db/repository/neo4j.go): session-per-call with guaranteed Close,
// ExecuteWrite/ExecuteRead transaction functions, and MERGE-based
// idempotent upserts, from the teacher's fixed Action/Workflow dependency
// graph to the spec's arbitrary Cypher surface plus the specific
// node/edge/assertion/evidence upserts the extraction writer needs.
package lpg

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Row is one ordered row of primitive-typed values returned by RunCypher,
// keyed by the return alias the query used.
type Row map[string]interface{}

// RelPattern describes one relationship type the schema introspection
// found, including a sample traversal pattern an LLM prompt can copy
// verbatim.
type RelPattern struct {
	Type           string
	FromLabel      string
	ToLabel        string
	SamplePattern  string
	SamplePropVals map[string]interface{}
}

// Schema is what GetSchema returns: every node label, every relationship
// pattern, and a handful of sampled property values per label, the same
// shape the Cypher generator primes its prompt with.
type Schema struct {
	NodeLabels    []string
	Relationships []RelPattern
	SampleValues  map[string][]interface{} // label -> sampled property values
}

// Adapter is the LPG store adapter.
type Adapter struct {
	driver neo4j.DriverWithContext
	ctx    context.Context
}

// New creates an LPG adapter, verifying connectivity the same way
// NewNeo4jRepository does.
func New(uri, username, password string) (*Adapter, error) {
	ctx := context.Background()

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("lpg: failed to create Neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("lpg: failed to connect to Neo4j: %w", err)
	}

	return &Adapter{driver: driver, ctx: ctx}, nil
}

// Close closes the Neo4j driver.
func (a *Adapter) Close() error {
	return a.driver.Close(a.ctx)
}

// Session is a scoped handle over one Neo4j session, guaranteed to close
// on every exit path via GetSession's caller-supplied callback.
type Session struct {
	inner neo4j.SessionWithContext
}

// GetSession opens a session in accessMode, runs fn with it, and closes
// the session on every return path (success, error, or panic) before
// propagating.
func (a *Adapter) GetSession(ctx context.Context, write bool, fn func(ctx context.Context, s *Session) (interface{}, error)) (interface{}, error) {
	mode := neo4j.AccessModeRead
	if write {
		mode = neo4j.AccessModeWrite
	}
	session := a.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode})
	defer session.Close(ctx)

	return fn(ctx, &Session{inner: session})
}

// RunCypher executes cypher against a fresh session in the requested
// access mode and returns ordered rows of primitive-typed values.
func (a *Adapter) RunCypher(ctx context.Context, cypher string, params map[string]interface{}, write bool) ([]Row, error) {
	result, err := a.GetSession(ctx, write, func(ctx context.Context, s *Session) (interface{}, error) {
		runner := func(tx neo4j.ManagedTransaction) (interface{}, error) {
			res, err := tx.Run(ctx, cypher, params)
			if err != nil {
				return nil, err
			}

			var rows []Row
			for res.Next(ctx) {
				record := res.Record()
				row := make(Row, len(record.Keys))
				for _, key := range record.Keys {
					if v, ok := record.Get(key); ok {
						row[key] = v
					}
				}
				rows = append(rows, row)
			}
			return rows, res.Err()
		}
		if write {
			return s.inner.ExecuteWrite(ctx, runner)
		}
		return s.inner.ExecuteRead(ctx, runner)
	})
	if err != nil {
		return nil, fmt.Errorf("lpg: RunCypher: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	return result.([]Row), nil
}

// GetSchema introspects node labels, relationship types with direction,
// and a handful of sampled property values per label — the priming
// material the Cypher generator needs (§4.6).
func (a *Adapter) GetSchema(ctx context.Context) (*Schema, error) {
	labelRows, err := a.RunCypher(ctx, "CALL db.labels() YIELD label RETURN label", nil, false)
	if err != nil {
		return nil, fmt.Errorf("lpg: GetSchema labels: %w", err)
	}
	var labels []string
	for _, r := range labelRows {
		if l, ok := r["label"].(string); ok {
			labels = append(labels, l)
		}
	}

	relRows, err := a.RunCypher(ctx, `
		MATCH (a)-[r]->(b)
		RETURN DISTINCT type(r) AS relType, head(labels(a)) AS fromLabel, head(labels(b)) AS toLabel
		LIMIT 100
	`, nil, false)
	if err != nil {
		return nil, fmt.Errorf("lpg: GetSchema relationships: %w", err)
	}
	var rels []RelPattern
	for _, r := range relRows {
		relType, _ := r["relType"].(string)
		from, _ := r["fromLabel"].(string)
		to, _ := r["toLabel"].(string)
		rels = append(rels, RelPattern{
			Type:          relType,
			FromLabel:     from,
			ToLabel:       to,
			SamplePattern: fmt.Sprintf("(:%s)-[:%s]->(:%s)", from, relType, to),
		})
	}

	samples := make(map[string][]interface{}, len(labels))
	for _, label := range labels {
		query := fmt.Sprintf("MATCH (n:%s) RETURN n LIMIT 3", label)
		rows, err := a.RunCypher(ctx, query, nil, false)
		if err != nil {
			continue
		}
		for _, r := range rows {
			samples[label] = append(samples[label], r["n"])
		}
	}

	return &Schema{NodeLabels: labels, Relationships: rels, SampleValues: samples}, nil
}

// upsertNodeQuery builds the MERGE-on-canonical_id Cypher for UpsertNode,
// factored out so the query text is unit-testable without a live driver.
func upsertNodeQuery(class string) string {
	return fmt.Sprintf(`
		MERGE (n:%s {canonical_id: $canonicalId})
		ON CREATE SET n.created_at = datetime()
		SET n.display_name = $displayName,
		    n.tenant_id = $tenantId,
		    n.workspace_id = $workspaceId,
		    n.class = $class,
		    n.claim_status = $claimStatus,
		    n.status = $status,
		    n.updated_at = datetime(),
		    n.confidence = CASE WHEN n.confidence IS NULL OR $confidence > n.confidence THEN $confidence ELSE n.confidence END,
		    n.source_doc_ids = CASE WHEN n.source_doc_ids IS NULL THEN $sourceDocIds ELSE apoc.coll.toSet(n.source_doc_ids + $sourceDocIds) END
		SET n += $attributes
	`, class)
}

// UpsertNode merges a node by canonical_id, setting class-specific
// attributes and monotonically improving confidence/timestamps. Class is
// used as the node label.
func (a *Adapter) UpsertNode(ctx context.Context, class, canonicalID, displayName, tenantID, workspaceID string, confidence float64, claimStatus, status string, sourceDocIDs []string, attributes map[string]interface{}) error {
	query := upsertNodeQuery(class)

	params := map[string]interface{}{
		"canonicalId":  canonicalID,
		"displayName":  displayName,
		"tenantId":     tenantID,
		"workspaceId":  workspaceID,
		"class":        class,
		"confidence":   confidence,
		"claimStatus":  claimStatus,
		"status":       status,
		"sourceDocIds": sourceDocIDs,
		"attributes":   attributes,
	}
	_, err := a.RunCypher(ctx, query, params, true)
	return err
}

// UpsertEdge merges a relationship between two canonical_id-identified
// nodes, idempotent on (fromCanonicalID, relationshipType, toCanonicalID).
func (a *Adapter) UpsertEdge(ctx context.Context, relationshipType, fromCanonicalID, toCanonicalID string, confidence float64, claimStatus string, attributes map[string]interface{}) error {
	query := fmt.Sprintf(`
		MATCH (from {canonical_id: $fromId})
		MATCH (to {canonical_id: $toId})
		MERGE (from)-[r:%s]->(to)
		ON CREATE SET r.extracted_at = datetime()
		SET r.claim_status = $claimStatus,
		    r.confidence = CASE WHEN r.confidence IS NULL OR $confidence > r.confidence THEN $confidence ELSE r.confidence END
		SET r += $attributes
	`, relationshipType)

	params := map[string]interface{}{
		"fromId":      fromCanonicalID,
		"toId":        toCanonicalID,
		"confidence":  confidence,
		"claimStatus": claimStatus,
		"attributes":  attributes,
	}
	_, err := a.RunCypher(ctx, query, params, true)
	return err
}

// UpsertAssertion reifies a (subject, predicate, object) statement as an
// Assertion node with ASSERTS/TARGET edges, idempotent on assertion_id.
func (a *Adapter) UpsertAssertion(ctx context.Context, assertionID, subjectCanonicalID, predicate, objectCanonicalID string, confidence float64, claimStatus, method string) error {
	query := `
		MATCH (subject {canonical_id: $subjectId})
		MATCH (object {canonical_id: $objectId})
		MERGE (a:Assertion {assertion_id: $assertionId})
		SET a.predicate = $predicate,
		    a.method = $method,
		    a.claim_status = $claimStatus,
		    a.confidence = CASE WHEN a.confidence IS NULL OR $confidence > a.confidence THEN $confidence ELSE a.confidence END
		MERGE (subject)-[:ASSERTS]->(a)
		MERGE (a)-[:TARGET]->(object)
	`
	params := map[string]interface{}{
		"assertionId": assertionID,
		"subjectId":   subjectCanonicalID,
		"objectId":    objectCanonicalID,
		"predicate":   predicate,
		"confidence":  confidence,
		"claimStatus": claimStatus,
		"method":      method,
	}
	_, err := a.RunCypher(ctx, query, params, true)
	return err
}

// UpsertEvidenceChunk merges an EvidenceChunk node keyed by (chunk_id,
// text_hash) — per the spec's Open Question, nodes for the same chunk
// with different text hashes are tolerated to coexist — and links it to
// the assertion or node it backs via EVIDENCED_BY.
func (a *Adapter) UpsertEvidenceChunk(ctx context.Context, targetIsAssertion bool, targetID, chunkID, textHash string, page int, sectionPath, quote string, confidence float64) error {
	matchTarget := "MATCH (target {canonical_id: $targetId})"
	if targetIsAssertion {
		matchTarget = "MATCH (target:Assertion {assertion_id: $targetId})"
	}
	query := fmt.Sprintf(`
		%s
		MERGE (e:EvidenceChunk {chunk_id: $chunkId, text_hash: $textHash})
		SET e.page = $page, e.section_path = $sectionPath, e.quote = $quote
		MERGE (target)-[r:EVIDENCED_BY]->(e)
		SET r.confidence = $confidence
	`, matchTarget)
	params := map[string]interface{}{
		"targetId":    targetID,
		"chunkId":     chunkID,
		"textHash":    textHash,
		"page":        page,
		"sectionPath": sectionPath,
		"quote":       quote,
		"confidence":  confidence,
	}
	_, err := a.RunCypher(ctx, query, params, true)
	return err
}

// RewriteCanonicalID rewrites every node, edge, and assertion reference
// from oldID to newID, used by the Resolve stage when a batch node is
// merged into a pre-existing LPG entity found by display_name match.
func (a *Adapter) RewriteCanonicalID(ctx context.Context, oldID, newID string) error {
	query := `
		MATCH (old {canonical_id: $oldId})
		OPTIONAL MATCH (new {canonical_id: $newId})
		WITH old, new WHERE new IS NOT NULL
		SET new.source_doc_ids = apoc.coll.toSet(coalesce(new.source_doc_ids, []) + coalesce(old.source_doc_ids, []))
		WITH old, new
		CALL apoc.refactor.mergeNodes([new, old], {properties: "discard", mergeRels: true}) YIELD node
		RETURN node
	`
	_, err := a.RunCypher(ctx, query, map[string]interface{}{"oldId": oldID, "newId": newID}, true)
	return err
}

// FindByDisplayName looks up an existing node with the same display_name,
// tenant_id, workspace_id, and class label but a different canonical_id —
// the cross-document resolution lookup in §4.4 Resolve.
func (a *Adapter) FindByDisplayName(ctx context.Context, class, displayName, tenantID, workspaceID, excludeCanonicalID string) (string, bool, error) {
	query := fmt.Sprintf(`
		MATCH (n:%s {display_name: $displayName, tenant_id: $tenantId, workspace_id: $workspaceId})
		WHERE n.canonical_id <> $excludeId
		RETURN n.canonical_id AS canonicalId
		LIMIT 1
	`, class)
	params := map[string]interface{}{
		"displayName": displayName,
		"tenantId":    tenantID,
		"workspaceId": workspaceID,
		"excludeId":   excludeCanonicalID,
	}
	rows, err := a.RunCypher(ctx, query, params, false)
	if err != nil {
		return "", false, fmt.Errorf("lpg: FindByDisplayName: %w", err)
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	id, _ := rows[0]["canonicalId"].(string)
	return id, id != "", nil
}
