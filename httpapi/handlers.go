package httpapi

import (
	"purplefabric.ai/graphrag/extraction"
	"purplefabric.ai/graphrag/memory"
	"purplefabric.ai/graphrag/obslog"
	"purplefabric.ai/graphrag/orchestrator"
	"purplefabric.ai/graphrag/store"
)

// Handlers bundles the collaborators every route dispatches straight
// through to. It carries no state of its own beyond these references,
// mirroring the teacher's api.Handlers{RabbitMQ, CouchDB, JWT} struct in
// cli/root.go.
type Handlers struct {
	Orchestrator *orchestrator.Orchestrator
	Extraction   *extraction.Pipeline
	Memory       *memory.Store
	Stores       *store.Adapters
	Logger       *obslog.ContextLogger
}
