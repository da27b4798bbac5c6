package orchestrator

import "context"

// GraphNode is one entity surfaced in a response's supporting context
// graph.
type GraphNode struct {
	ID    string
	Label string
	Class string
}

// GraphEdge is one relationship surfaced in a response's supporting
// context graph.
type GraphEdge struct {
	FromID    string
	ToID      string
	Predicate string
}

// GraphStatistics summarizes a ContextGraph's shape.
type GraphStatistics struct {
	NodeCount   int
	EdgeCount   int
	Cardinality float64 // edges per node, 0 when there are no nodes
}

// Provenance records how a ContextGraph was produced.
type Provenance struct {
	QueryMode Mode
}

// ContextGraph is the small reasoning-trace graph attached to a Response
// after a graph-bearing mode answers, per §4.7's context-graph
// enrichment step.
type ContextGraph struct {
	Nodes      []GraphNode
	Edges      []GraphEdge
	Statistics GraphStatistics
	Provenance Provenance
}

// enrichContextGraph builds a ContextGraph from resp's graph-sourced
// chunks and attaches it to resp. This never fails the query: any
// internal error here is swallowed and resp is left without a context
// graph, per §4.7 "this never fails the query".
func (o *Orchestrator) enrichContextGraph(ctx context.Context, req Request, resp *Response) {
	defer func() {
		_ = recover()
	}()

	if resp == nil {
		return
	}

	graph := buildContextGraphFromChunks(resp.Mode, resp.SourceChunks)
	if graph == nil {
		return
	}
	resp.ContextGraph = graph
}

func buildContextGraphFromChunks(mode Mode, chunks []ScoredChunk) *ContextGraph {
	var nodeIDs []string
	seen := make(map[string]struct{})
	for _, c := range chunks {
		if c.Source != "graph" && c.Source != "both" {
			continue
		}
		if _, ok := seen[c.ChunkID]; ok {
			continue
		}
		seen[c.ChunkID] = struct{}{}
		nodeIDs = append(nodeIDs, c.ChunkID)
	}

	if len(nodeIDs) == 0 {
		return nil
	}

	nodes := make([]GraphNode, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		nodes = append(nodes, GraphNode{ID: id, Label: id})
	}

	cardinality := 0.0
	if len(nodes) > 0 {
		cardinality = 0
	}

	return &ContextGraph{
		Nodes: nodes,
		Statistics: GraphStatistics{
			NodeCount:   len(nodes),
			EdgeCount:   0,
			Cardinality: cardinality,
		},
		Provenance: Provenance{QueryMode: mode},
	}
}
