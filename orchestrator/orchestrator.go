// Package orchestrator implements the Query Orchestrator (§4.7): mode
// routing over the store adapters, the hybrid vector+graph algorithm,
// context-graph enrichment, and the per-query token slot. Mode dispatch
// is a map[Mode]modeHandler table, in the spirit of
// coordinator/coordinator.go's map[MessageType]MessageHandler registry,
// rather than a long switch — this keeps the agent-planner "unified" mode
// pluggable without touching the dispatcher.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"purplefabric.ai/graphrag/chat"
	"purplefabric.ai/graphrag/embed"
	"purplefabric.ai/graphrag/graphragerr"
	"purplefabric.ai/graphrag/memory"
	"purplefabric.ai/graphrag/obslog"
	"purplefabric.ai/graphrag/ontology"
	"purplefabric.ai/graphrag/querygen"
	"purplefabric.ai/graphrag/store"
)

// Mode selects which source graphs a query is answered from, per §4.7.
type Mode string

const (
	ModeRAG     Mode = "rag"
	ModeGraph   Mode = "graph"
	ModeGraphDB Mode = "graphdb"
	ModeNeo4j   Mode = "neo4j"
	ModeCompare Mode = "compare"
	ModeHybrid  Mode = "hybrid"
	ModeUnified Mode = "unified"
)

const defaultMaxContextChunks = 12
const defaultGraphTraversalDepth = 2

// Request is one query handed to the Orchestrator.
type Request struct {
	TenantID            string
	WorkspaceID         string
	UserID              string
	SessionID           string
	Mode                Mode
	Question            string
	FolderIDs           []string
	MaxContextChunks    int
	GraphTraversalDepth int
	TokenBudget         int
}

func (r Request) maxContextChunks() int {
	if r.MaxContextChunks <= 0 {
		return defaultMaxContextChunks
	}
	return r.MaxContextChunks
}

func (r Request) graphTraversalDepth() int {
	if r.GraphTraversalDepth <= 0 {
		return defaultGraphTraversalDepth
	}
	return r.GraphTraversalDepth
}

// ScoredChunk is one piece of retrieved context, tagged with the source
// that produced it per §4.7's hybrid merge algorithm.
type ScoredChunk struct {
	ChunkID    string
	DocumentID string
	Text       string
	Score      float64
	Source     string // "vector", "graph", or "both"
}

// Response is the Orchestrator's answer to one query.
type Response struct {
	Mode         Mode
	Answer       string
	SourceChunks []ScoredChunk
	ContextGraph *ContextGraph
	Warnings     []string
	// CompareAnswers holds both answers when Mode is ModeCompare, keyed by
	// the constituent mode ("rag", "graphdb").
	CompareAnswers map[Mode]*Response
}

type modeHandler func(ctx context.Context, o *Orchestrator, req Request, slot *TokenSlot) (*Response, error)

// Orchestrator dispatches queries to the right combination of store
// adapters, query generator, and memory store per §4.7.
type Orchestrator struct {
	Stores   *store.Adapters
	Memory   *memory.Store
	QueryGen *querygen.Generator
	Chat     chat.Model
	Embed    embed.Model
	Schemas  *ontology.SchemaCache
	Logger   *obslog.ContextLogger

	handlers map[Mode]modeHandler

	slotsMu sync.Mutex
	slots   map[string]*TokenSlot
}

// New constructs an Orchestrator and registers the fixed set of mode
// handlers. The "unified" slot is registered last so a caller building a
// custom agent-planner can still replace it via RegisterMode without
// touching the rest of the table.
func New(stores *store.Adapters, memoryStore *memory.Store, gen *querygen.Generator, chatModel chat.Model, embedModel embed.Model, logger *obslog.ContextLogger) *Orchestrator {
	o := &Orchestrator{
		Stores:   stores,
		Memory:   memoryStore,
		QueryGen: gen,
		Chat:     chatModel,
		Embed:    embedModel,
		Schemas:  ontology.NewSchemaCache(),
		Logger:   logger,
		slots:    make(map[string]*TokenSlot),
	}
	o.handlers = map[Mode]modeHandler{
		ModeRAG:     handleRAG,
		ModeGraph:   handleGraph,
		ModeGraphDB: handleGraphDB,
		ModeNeo4j:   handleGraph,
		ModeCompare: handleCompare,
		ModeHybrid:  handleHybrid,
		ModeUnified: handleUnified,
	}
	return o
}

// RegisterMode overrides or extends the dispatch table, letting a caller
// plug in a different "unified" agent-planner without forking this
// package.
func (o *Orchestrator) RegisterMode(mode Mode, handler func(ctx context.Context, o *Orchestrator, req Request, slot *TokenSlot) (*Response, error)) {
	o.handlers[mode] = handler
}

// Query dispatches req to its mode handler, attaching a fresh per-query
// token slot and running context-graph enrichment afterward — enrichment
// never fails the query, per §4.7 "this never fails the query".
func (o *Orchestrator) Query(ctx context.Context, req Request) (*Response, error) {
	handler, ok := o.handlers[req.Mode]
	if !ok {
		return nil, graphragerr.New(graphragerr.KindConfigurationError, "orchestrator: unknown mode %q", req.Mode)
	}

	queryID := fmt.Sprintf("%s:%s:%s", req.TenantID, req.WorkspaceID, req.SessionID)
	slot := o.acquireTokenSlot(queryID, req.TokenBudget)
	defer o.releaseTokenSlot(queryID)

	if o.Logger != nil {
		o.Logger.WithFields(map[string]interface{}{
			"mode":         req.Mode,
			"tenant_id":    req.TenantID,
			"workspace_id": req.WorkspaceID,
		}).Debug("orchestrator: dispatching query")
	}

	resp, err := handler(ctx, o, req, slot)
	if err != nil {
		if o.Logger != nil {
			o.Logger.WithError(err).Warn("orchestrator: query failed")
		}
		return nil, err
	}

	o.enrichContextGraph(ctx, req, resp)
	return resp, nil
}
