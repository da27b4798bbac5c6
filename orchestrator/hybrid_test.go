package orchestrator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeHybridChunks_GraphOnlyGetsBaseScore(t *testing.T) {
	concepts := []graphConcept{{Class: "Person", Entity: "Alice", Predicate: "WORKS_FOR", Object: "Acme"}}

	merged := mergeHybridChunks(nil, concepts)

	assert.Len(t, merged, 1)
	assert.Equal(t, "graph", merged[0].Source)
	assert.Equal(t, graphOnlyScore, merged[0].Score)
}

func TestMergeHybridChunks_OverlapPromotesSourceAndBoostsScore(t *testing.T) {
	vectorChunks := []ScoredChunk{{ChunkID: "c1", Text: "Alice works at Acme as an engineer.", Score: 0.5, Source: "vector"}}
	concepts := []graphConcept{{Class: "Person", Entity: "Alice", Predicate: "WORKS_FOR", Object: "Acme"}}

	merged := mergeHybridChunks(vectorChunks, concepts)

	var vectorResult ScoredChunk
	for _, c := range merged {
		if c.ChunkID == "c1" {
			vectorResult = c
		}
	}
	assert.Equal(t, "both", vectorResult.Source)
	assert.InDelta(t, 0.65, vectorResult.Score, 1e-9)
}

func TestMergeHybridChunks_OverlapBonusCapsAtOne(t *testing.T) {
	vectorChunks := []ScoredChunk{{ChunkID: "c1", Text: "Alice is mentioned here.", Score: 0.95, Source: "vector"}}
	concepts := []graphConcept{{Class: "Person", Entity: "Alice", Predicate: "KNOWS", Object: "Bob"}}

	merged := mergeHybridChunks(vectorChunks, concepts)

	assert.LessOrEqual(t, merged[0].Score, 1.0)
}

func TestMergeHybridChunks_DeduplicatesRepeatedEntities(t *testing.T) {
	concepts := []graphConcept{
		{Class: "Person", Entity: "Alice", Predicate: "WORKS_FOR", Object: "Acme"},
		{Class: "Person", Entity: "Alice", Predicate: "KNOWS", Object: "Bob"},
	}

	merged := mergeHybridChunks(nil, concepts)

	assert.Len(t, merged, 1)
}

func TestBuildHybridContext_IncludesAllThreeSections(t *testing.T) {
	chunks := []ScoredChunk{{Text: "Acme reported record revenue.", Source: "vector"}}
	concepts := []graphConcept{{Class: "Person", Entity: "Alice", Predicate: "WORKS_FOR", Object: "Acme"}}

	ctxStr := buildHybridContext(chunks, concepts)

	assert.True(t, strings.Contains(ctxStr, "RELEVANT DOCUMENT EXCERPTS"))
	assert.True(t, strings.Contains(ctxStr, "KNOWLEDGE GRAPH CONTEXT"))
	assert.True(t, strings.Contains(ctxStr, "KEY RELATIONSHIPS"))
	assert.True(t, strings.Contains(ctxStr, "Acme reported record revenue."))
	assert.True(t, strings.Contains(ctxStr, "Alice --[WORKS_FOR]--> Acme"))
}

func TestBuildHybridContext_CapsRelationsPerConceptAndKeyRelationships(t *testing.T) {
	var concepts []graphConcept
	for i := 0; i < 20; i++ {
		concepts = append(concepts, graphConcept{Class: "Person", Entity: "Alice", Predicate: "KNOWS", Object: itoaSuffix(i)})
	}

	ctxStr := buildHybridContext(nil, concepts)

	assert.LessOrEqual(t, strings.Count(ctxStr, "KNOWS"), maxRelationsPerConcept+maxKeyRelationships)
}

func itoaSuffix(i int) string {
	return string(rune('A' + i%26))
}

func TestCapScore_CapsAtOne(t *testing.T) {
	assert.Equal(t, 1.0, capScore(1.5))
	assert.Equal(t, 0.5, capScore(0.5))
}
