package extraction

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"purplefabric.ai/graphrag/chat"
	"purplefabric.ai/graphrag/concurrency"
	"purplefabric.ai/graphrag/events"
	"purplefabric.ai/graphrag/obslog"
	"purplefabric.ai/graphrag/store/kv"
	"purplefabric.ai/graphrag/store/lpg"
)

const defaultChunkConcurrency = 5

// Request is one document handed to the pipeline for extraction.
type Request struct {
	RunID       string
	DocumentID  string
	TenantID    string
	WorkspaceID string
	Text        string
	Ontology    OntologySlice
	ChunkSize   int
}

// Pipeline drives one extraction run through the linear PENDING→…→
// COMPLETED|FAILED state machine, grounded on coordinator/phases.go's
// PhaseManager generalized to this spec's strictly linear transitions, and
// on worker/pool.go's bounded-concurrency job-processing shape for the
// per-chunk Extract fan-out.
type Pipeline struct {
	LPG         *lpg.Adapter
	KV          *kv.Adapter
	Chat        chat.Model
	Runs        *RunManager
	Logger      *obslog.ContextLogger
	Concurrency int
}

func (p *Pipeline) chunkConcurrency() int {
	if p.Concurrency <= 0 {
		return defaultChunkConcurrency
	}
	return p.Concurrency
}

// Run executes the full pipeline for one document, returning the final
// batch (valid, quarantined, and all) whether or not the run completed.
func (p *Pipeline) Run(ctx context.Context, req Request) (*events.GraphEventBatch, error) {
	run := p.Runs.Start(req.RunID, req.DocumentID, req.TenantID, req.WorkspaceID)
	batch := events.NewGraphEventBatch(run.RunID)

	fail := func(stage string, err error) (*events.GraphEventBatch, error) {
		_ = p.Runs.Fail(run.RunID, fmt.Sprintf("%s: %v", stage, err))
		return batch, fmt.Errorf("extraction: %s: %w", stage, err)
	}

	if err := p.Runs.TransitionTo(run.RunID, StateChunking); err != nil {
		return fail("chunking", err)
	}
	chunks := ChunkDocument(req.DocumentID, req.Text, req.ChunkSize)

	if err := p.Runs.TransitionTo(run.RunID, StateClassifying); err != nil {
		return fail("classifying", err)
	}
	if _, err := Classify(ctx, p.Chat, req.Text); err != nil {
		return fail("classifying", err)
	}

	if err := p.Runs.TransitionTo(run.RunID, StateExtracting); err != nil {
		return fail("extracting", err)
	}
	if err := p.extractChunks(ctx, req, run.RunID, chunks, batch); err != nil {
		return fail("extracting", err)
	}

	if err := p.Runs.TransitionTo(run.RunID, StateValidating); err != nil {
		return fail("validating", err)
	}
	ValidateBatch(req.Ontology, batch)

	if err := p.Runs.TransitionTo(run.RunID, StateResolving); err != nil {
		return fail("resolving", err)
	}
	ResolveBatch(ctx, p.LPG, req.TenantID, req.WorkspaceID, batch, p.Logger)
	GateBatch(batch)

	if err := p.Runs.TransitionTo(run.RunID, StateWriting); err != nil {
		return fail("writing", err)
	}
	if err := WriteBatch(ctx, p.LPG, p.KV, batch); err != nil {
		return fail("writing", err)
	}

	if err := p.Runs.TransitionTo(run.RunID, StateCompleted); err != nil {
		return fail("completed", err)
	}
	p.Runs.SetStat(run.RunID, "nodes_written", len(batch.Nodes))
	p.Runs.SetStat(run.RunID, "edges_written", len(batch.Edges))
	p.Runs.SetStat(run.RunID, "quarantined", batch.Stats.Quarantined)

	return batch, nil
}

// extractChunks runs ExtractChunk concurrently, bounded by chunkConcurrency,
// each call writing into its own chunk-local batch so no shared state is
// mutated across goroutines; results are merged back sequentially once
// every chunk has finished.
func (p *Pipeline) extractChunks(ctx context.Context, req Request, runID string, chunks []Chunk, batch *events.GraphEventBatch) error {
	sem := concurrency.NewSemaphore(p.chunkConcurrency())
	chunkBatches := make([]*events.GraphEventBatch, len(chunks))

	group, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		group.Go(func() error {
			return sem.Do(gctx, func(ctx context.Context) error {
				local := events.NewGraphEventBatch(runID)
				env := events.Envelope{
					TenantID:        req.TenantID,
					WorkspaceID:     req.WorkspaceID,
					OntologyVersion: req.Ontology.Version,
					ExtractionRun:   runID,
					SourceType:      "document",
					SourceID:        req.DocumentID,
					CreatedAt:       time.Now(),
				}
				if err := ExtractChunk(ctx, p.Chat, req.Ontology, chunk, env, local); err != nil {
					return err
				}
				chunkBatches[i] = local
				return nil
			})
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for _, cb := range chunkBatches {
		mergeBatch(batch, cb)
	}
	return nil
}

// mergeBatch appends every event from src into dst, preserving src's
// already-assigned ids and recomputing dst's running stats.
func mergeBatch(dst, src *events.GraphEventBatch) {
	dst.Nodes = append(dst.Nodes, src.Nodes...)
	dst.Edges = append(dst.Edges, src.Edges...)
	dst.Assertions = append(dst.Assertions, src.Assertions...)
	dst.EvidenceLinks = append(dst.EvidenceLinks, src.EvidenceLinks...)
	dst.CandidateConcepts = append(dst.CandidateConcepts, src.CandidateConcepts...)
	dst.Quarantine = append(dst.Quarantine, src.Quarantine...)

	dst.Stats.Nodes += src.Stats.Nodes
	dst.Stats.Edges += src.Stats.Edges
	dst.Stats.Assertions += src.Stats.Assertions
	dst.Stats.EvidenceLinks += src.Stats.EvidenceLinks
	dst.Stats.CandidateConcepts += src.Stats.CandidateConcepts
	dst.Stats.Quarantined += src.Stats.Quarantined
}
