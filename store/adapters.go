// Package store aggregates the five store adapters (vector, LPG,
// triplestore, SQL federator, KV) into a single constructed dependency
// passed into the Orchestrator and Extraction Pipeline, replacing the
// teacher's composite.go "wire all repositories together" role
// (db/repository/composite.go, dropped — see DESIGN.md) with one literal
// aggregate struct rather than a generic repository-of-repositories
// interface.
package store

import (
	"context"
	"fmt"

	"purplefabric.ai/graphrag/config"
	"purplefabric.ai/graphrag/store/kv"
	"purplefabric.ai/graphrag/store/lpg"
	"purplefabric.ai/graphrag/store/sqlfed"
	"purplefabric.ai/graphrag/store/triplestore"
	"purplefabric.ai/graphrag/store/vector"
)

// Adapters bundles every external store handle the Query Orchestrator and
// Extraction Pipeline are constructed with. Each field is a concrete
// adapter type, not an interface, matching §9's "global adapter
// singletons become constructed dependencies" design note: this struct is
// built once at startup and never mutated afterward.
type Adapters struct {
	Vector      *vector.Adapter
	LPG         *lpg.Adapter
	Triplestore *triplestore.Adapter
	SQL         *sqlfed.Adapter
	KV          *kv.Adapter
}

// New constructs every adapter from cfg, following the teacher's
// repository-constructor idiom: each call either returns a connected
// adapter or an error, so a bad URL fails fast at startup rather than on
// the first query. Any adapter constructed before the failing one is
// closed before the error is returned, matching the teacher's
// composite-construction cleanup in db/repository/composite.go.
func New(ctx context.Context, cfg config.GraphRAGConfig) (*Adapters, error) {
	a := &Adapters{}

	vectorAdapter, err := vector.New(cfg.Vector.RedisURL, cfg.Vector.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("store: vector adapter: %w", err)
	}
	a.Vector = vectorAdapter

	lpgAdapter, err := lpg.New(cfg.LPG.URI, cfg.LPG.Username, cfg.LPG.Password)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("store: lpg adapter: %w", err)
	}
	a.LPG = lpgAdapter

	a.Triplestore = triplestore.New(
		cfg.Triplestore.BaseURL,
		cfg.Triplestore.Repository,
		cfg.Triplestore.Username,
		cfg.Triplestore.Password,
		cfg.Triplestore.Concurrency,
		cfg.Triplestore.Timeout,
	)

	sqlAdapter, err := sqlfed.New(ctx, cfg.SQL.DSN)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("store: sql federator adapter: %w", err)
	}
	a.SQL = sqlAdapter

	kvAdapter, err := kv.New(cfg.KV.RedisURL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("store: kv adapter: %w", err)
	}
	a.KV = kvAdapter

	return a, nil
}

// Close releases every adapter's underlying connection, ignoring
// individual close errors except the last one encountered (mirroring the
// teacher's best-effort multi-resource Close idiom).
func (a *Adapters) Close() error {
	var lastErr error
	if a.Vector != nil {
		if err := a.Vector.Close(); err != nil {
			lastErr = err
		}
	}
	if a.LPG != nil {
		if err := a.LPG.Close(); err != nil {
			lastErr = err
		}
	}
	if a.SQL != nil {
		a.SQL.Close()
	}
	if a.KV != nil {
		if err := a.KV.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
