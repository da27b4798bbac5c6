package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"purplefabric.ai/graphrag/chat"
	"purplefabric.ai/graphrag/graphragerr"
)

const overlapBonus = 0.15
const graphOnlyScore = 0.6
const maxKeyRelationships = 15
const maxRelationsPerConcept = 3

const hybridGroundingSystemPrompt = `You are answering strictly from the supplied context. Do not use outside knowledge. If the context does not answer the question, say so.`

// graphConcept is one entity-relationship row pulled from the LPG store
// during hybrid retrieval's per-term concept lookup.
type graphConcept struct {
	Class     string
	Entity    string
	Predicate string
	Object    string
}

// handleHybrid implements §4.7's hybrid algorithm: extract key terms,
// search vector and graph independently, merge and score the results,
// build a structured context string, then answer from it.
func handleHybrid(ctx context.Context, o *Orchestrator, req Request, slot *TokenSlot) (*Response, error) {
	terms := ExtractKeyTerms(ctx, o.Chat, req.Question)

	vectorChunks, err := searchVector(ctx, o, req)
	if err != nil {
		return nil, err
	}

	concepts, err := searchGraphConcepts(ctx, o, req, terms)
	if err != nil {
		// Graph lookup is a best-effort enrichment; a vector-only answer
		// still serves the question.
		concepts = nil
	}

	merged := mergeHybridChunks(vectorChunks, concepts)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if max := req.maxContextChunks(); len(merged) > max {
		merged = merged[:max]
	}

	contextStr := buildHybridContext(merged, concepts)

	answer, err := answerFromHybridContext(ctx, o.Chat, req.Question, contextStr, slot)
	if err != nil {
		return nil, err
	}

	return &Response{Mode: ModeHybrid, Answer: answer, SourceChunks: merged}, nil
}

func searchGraphConcepts(ctx context.Context, o *Orchestrator, req Request, terms []string) ([]graphConcept, error) {
	if o.Stores.LPG == nil || len(terms) == 0 {
		return nil, nil
	}

	var all []graphConcept
	for _, term := range terms {
		query := fmt.Sprintf(`MATCH (n)-[r*1..%d]-(m) WHERE n.workspace_id = $workspaceId AND toLower(n.display_name) CONTAINS toLower($term) RETURN n.class AS class, n.display_name AS entity, type(last(r)) AS predicate, m.display_name AS object LIMIT 20`, req.graphTraversalDepth())
		rows, err := o.Stores.LPG.RunCypher(ctx, query, map[string]interface{}{
			"workspaceId": req.WorkspaceID,
			"term":        term,
		}, false)
		if err != nil {
			return all, graphragerr.Wrap(graphragerr.KindBackendUnavailable, err, "orchestrator: hybrid concept lookup for term %q", term)
		}
		for _, row := range rows {
			all = append(all, graphConcept{
				Class:     fmt.Sprint(row["class"]),
				Entity:    fmt.Sprint(row["entity"]),
				Predicate: fmt.Sprint(row["predicate"]),
				Object:    fmt.Sprint(row["object"]),
			})
		}
	}
	return all, nil
}

// mergeHybridChunks implements §4.7's scoring formula: vector.similarity
// for vector-only chunks, 0.6 for graph-only concepts, and a +0.15 overlap
// bonus (capped at 1.0, source promoted to "both") when a vector chunk's
// text mentions a concept surfaced by the graph lookup — the two sources
// don't share a native join key, so textual mention is the overlap
// signal.
func mergeHybridChunks(vectorChunks []ScoredChunk, concepts []graphConcept) []ScoredChunk {
	merged := make([]ScoredChunk, len(vectorChunks))
	copy(merged, vectorChunks)

	for i := range merged {
		lower := strings.ToLower(merged[i].Text)
		for _, c := range concepts {
			if c.Entity != "" && strings.Contains(lower, strings.ToLower(c.Entity)) {
				merged[i].Score = capScore(merged[i].Score + overlapBonus)
				merged[i].Source = "both"
				break
			}
		}
	}

	seenEntities := make(map[string]struct{})
	for _, c := range concepts {
		key := strings.ToLower(c.Entity)
		if key == "" {
			continue
		}
		if _, ok := seenEntities[key]; ok {
			continue
		}
		seenEntities[key] = struct{}{}
		merged = append(merged, ScoredChunk{
			ChunkID: fmt.Sprintf("graph-concept-%s", key),
			Text:    fmt.Sprintf("%s (%s) --[%s]--> %s", c.Entity, c.Class, c.Predicate, c.Object),
			Score:   graphOnlyScore,
			Source:  "graph",
		})
	}

	return merged
}

func capScore(s float64) float64 {
	if s > 1.0 {
		return 1.0
	}
	return s
}

// buildHybridContext assembles the three named sections §4.7 specifies:
// relevant document excerpts, knowledge graph context grouped by class,
// and a deduplicated key-relationships list.
func buildHybridContext(chunks []ScoredChunk, concepts []graphConcept) string {
	var b strings.Builder

	b.WriteString("RELEVANT DOCUMENT EXCERPTS\n")
	for _, c := range chunks {
		if c.Source == "graph" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", c.Text)
	}

	b.WriteString("\nKNOWLEDGE GRAPH CONTEXT\n")
	byClass := make(map[string][]graphConcept)
	var classOrder []string
	for _, c := range concepts {
		if _, ok := byClass[c.Class]; !ok {
			classOrder = append(classOrder, c.Class)
		}
		byClass[c.Class] = append(byClass[c.Class], c)
	}
	for _, class := range classOrder {
		fmt.Fprintf(&b, "%s:\n", class)
		rels := byClass[class]
		if len(rels) > maxRelationsPerConcept {
			rels = rels[:maxRelationsPerConcept]
		}
		for _, c := range rels {
			fmt.Fprintf(&b, "  - %s --[%s]--> %s\n", c.Entity, c.Predicate, c.Object)
		}
	}

	b.WriteString("\nKEY RELATIONSHIPS\n")
	seen := make(map[string]struct{})
	count := 0
	for _, c := range concepts {
		if count >= maxKeyRelationships {
			break
		}
		key := fmt.Sprintf("%s--[%s]-->%s", c.Entity, c.Predicate, c.Object)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		fmt.Fprintf(&b, "- %s\n", key)
		count++
	}

	return b.String()
}

func answerFromHybridContext(ctx context.Context, model chat.Model, question, contextStr string, slot *TokenSlot) (string, error) {
	if model == nil {
		return "", graphragerr.New(graphragerr.KindConfigurationError, "orchestrator: chat model not configured")
	}

	prompt := fmt.Sprintf("%s\n\nQuestion: %s\n", contextStr, question)
	if slot != nil {
		slot.Consume(estimateTokens(prompt))
	}

	resp, err := model.Complete(ctx, chat.Request{
		Messages: []chat.Message{
			{Role: "system", Content: hybridGroundingSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", graphragerr.Wrap(graphragerr.KindBackendUnavailable, err, "orchestrator: generating hybrid answer")
	}
	return resp.Content, nil
}
