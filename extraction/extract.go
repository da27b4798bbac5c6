package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"purplefabric.ai/graphrag/canonical"
	"purplefabric.ai/graphrag/chat"
	"purplefabric.ai/graphrag/events"
)

type rawEntity struct {
	Class         string                 `json:"class"`
	Name          string                 `json:"name"`
	IdentityAttrs map[string]string      `json:"identity_attrs"`
	Attributes    map[string]interface{} `json:"attributes"`
	Confidence    float64                `json:"confidence"`
	Quote         string                 `json:"quote"`
	SpanStart     int                    `json:"span_start"`
	SpanEnd       int                    `json:"span_end"`
}

type rawRelationship struct {
	Type       string  `json:"type"`
	Predicate  string  `json:"predicate"`
	From       string  `json:"from"`
	FromClass  string  `json:"from_class"`
	To         string  `json:"to"`
	ToClass    string  `json:"to_class"`
	Confidence float64 `json:"confidence"`
	Quote      string  `json:"quote"`
	SpanStart  int     `json:"span_start"`
	SpanEnd    int     `json:"span_end"`
}

type rawCandidateConcept struct {
	Term                string `json:"term"`
	SuggestedClass      string `json:"suggested_class"`
	SuggestedDefinition string `json:"suggested_definition"`
	Frequency           int    `json:"frequency"`
}

type extractResult struct {
	Entities          []rawEntity           `json:"entities"`
	Relationships     []rawRelationship     `json:"relationships"`
	CandidateConcepts []rawCandidateConcept `json:"candidate_concepts"`
}

// buildExtractionPrompt assembles the priming text §4.4 Extract specifies:
// allowed classes with their data-property names and typed ranges, allowed
// relationships with domain→range, and data-property cardinalities.
func buildExtractionPrompt(slice OntologySlice) string {
	var sb strings.Builder
	sb.WriteString("You extract entities and relationships from a document chunk against a fixed ontology.\n\n")
	sb.WriteString("Allowed classes:\n")
	for _, class := range slice.Classes {
		sb.WriteString(fmt.Sprintf("- %s (identity keys: %s)\n", class.Name, strings.Join(class.IdentityKeys, ", ")))
		for _, prop := range class.Properties {
			cardinality := slice.Cardinalities[class.Name+"."+prop.Name]
			if cardinality > 0 {
				sb.WriteString(fmt.Sprintf("    %s: %s (max %d)\n", prop.Name, prop.Range, cardinality))
			} else {
				sb.WriteString(fmt.Sprintf("    %s: %s (unbounded)\n", prop.Name, prop.Range))
			}
		}
	}
	sb.WriteString("\nAllowed relationships:\n")
	for _, rel := range slice.Relationships {
		sb.WriteString(fmt.Sprintf("- %s: %s -> %s\n", rel.Type, rel.Domain, rel.Range))
	}
	sb.WriteString(`
Respond with JSON only: {"entities":[{"class":"...","name":"...","identity_attrs":{},"attributes":{},"confidence":0.0,"quote":"...","span_start":0,"span_end":0}],"relationships":[{"type":"...","predicate":"...","from":"entity name","from_class":"...","to":"entity name","to_class":"...","confidence":0.0,"quote":"...","span_start":0,"span_end":0}],"candidate_concepts":[{"term":"...","suggested_class":"...","suggested_definition":"...","frequency":1}]}
"from"/"to" must reference an entity's "name" field from this same response.`)
	return sb.String()
}

// ExtractChunk issues the single LLM call §4.4 Extract specifies for one
// chunk and appends the resulting UpsertNode/UpsertEdge/UpsertAssertion/
// EvidenceLink/CandidateConcept events to batch. Relationships referencing
// an entity name not present in this chunk's own entity list are dropped;
// cross-chunk relationship extraction is out of scope for a single call.
func ExtractChunk(ctx context.Context, model chat.Model, slice OntologySlice, chunk Chunk, env events.Envelope, batch *events.GraphEventBatch) error {
	resp, err := model.Complete(ctx, chat.Request{
		Messages: []chat.Message{
			{Role: "system", Content: buildExtractionPrompt(slice)},
			{Role: "user", Content: chunk.Text},
		},
		Temperature: 0,
		MaxTokens:   2048,
	})
	if err != nil {
		return fmt.Errorf("extraction: ExtractChunk chat call for %s: %w", chunk.ID, err)
	}

	var result extractResult
	if err := json.Unmarshal([]byte(stripJSONFence(resp.Content)), &result); err != nil {
		return fmt.Errorf("extraction: ExtractChunk parse for %s: %w", chunk.ID, err)
	}

	canonicalByName := make(map[string]string, len(result.Entities))

	for _, e := range result.Entities {
		canonicalID := canonical.NodeID(e.Class, e.Name, e.IdentityAttrs)
		canonicalByName[e.Name] = canonicalID

		batch.AddNode(events.NewUpsertNode(env, e.Class, canonicalID, e.Name, e.IdentityAttrs, e.Attributes, e.Confidence, events.ClaimStatusClaim, "active", []string{chunk.DocumentID}))

		batch.AddEvidenceLink(events.NewEvidenceLink(env, events.EvidenceTargetNode, canonicalID, "", chunk.ID, chunk.DocumentID,
			events.Span{Start: e.SpanStart, End: e.SpanEnd}, chunk.PageStart, chunk.HeadingPath, e.Quote, quoteHash(e.Quote), e.Confidence, "llm-extraction"))
	}

	for _, r := range result.Relationships {
		fromID, ok := canonicalByName[r.From]
		if !ok {
			continue
		}
		toID, ok := canonicalByName[r.To]
		if !ok {
			continue
		}

		batch.AddEdge(events.NewUpsertEdge(env, r.Type, fromID, toID, r.FromClass, r.ToClass, r.Confidence, events.ClaimStatusClaim, nil))

		assertionID := canonical.AssertionID(fromID, r.Predicate, toID, chunk.ID, r.SpanStart, r.SpanEnd)
		batch.AddAssertion(events.NewUpsertAssertion(env, assertionID, fromID, r.Predicate, toID, chunk.ID,
			events.Span{Start: r.SpanStart, End: r.SpanEnd}, r.Quote, r.Confidence, events.ClaimStatusClaim, "llm-extraction"))

		batch.AddEvidenceLink(events.NewEvidenceLink(env, events.EvidenceTargetAssertion, "", assertionID, chunk.ID, chunk.DocumentID,
			events.Span{Start: r.SpanStart, End: r.SpanEnd}, chunk.PageStart, chunk.HeadingPath, r.Quote, quoteHash(r.Quote), r.Confidence, "llm-extraction"))
	}

	for _, c := range result.CandidateConcepts {
		batch.AddCandidateConcept(events.NewCandidateConcept(env, c.Term, c.SuggestedClass, c.SuggestedDefinition, []string{chunk.ID}, c.Frequency))
	}

	return nil
}

func quoteHash(quote string) string {
	sum := sha256.Sum256([]byte(quote))
	return hex.EncodeToString(sum[:])
}
