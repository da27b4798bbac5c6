package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichContextGraph_AttachesGraphForGraphSourcedChunks(t *testing.T) {
	o := &Orchestrator{}
	resp := &Response{
		Mode: ModeGraph,
		SourceChunks: []ScoredChunk{
			{ChunkID: "g1", Source: "graph"},
			{ChunkID: "g2", Source: "both"},
			{ChunkID: "v1", Source: "vector"},
		},
	}

	o.enrichContextGraph(context.Background(), Request{Mode: ModeGraph}, resp)

	require.NotNil(t, resp.ContextGraph)
	assert.Equal(t, 2, resp.ContextGraph.Statistics.NodeCount)
	assert.Equal(t, ModeGraph, resp.ContextGraph.Provenance.QueryMode)
}

func TestEnrichContextGraph_LeavesNilForPureVectorResponse(t *testing.T) {
	o := &Orchestrator{}
	resp := &Response{
		Mode:         ModeRAG,
		SourceChunks: []ScoredChunk{{ChunkID: "v1", Source: "vector"}},
	}

	o.enrichContextGraph(context.Background(), Request{Mode: ModeRAG}, resp)

	assert.Nil(t, resp.ContextGraph)
}

func TestEnrichContextGraph_NeverPanicsOnNilResponse(t *testing.T) {
	o := &Orchestrator{}
	assert.NotPanics(t, func() {
		o.enrichContextGraph(context.Background(), Request{}, nil)
	})
}
