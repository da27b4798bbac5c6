package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"purplefabric.ai/graphrag/graphragerr"
	"purplefabric.ai/graphrag/ontology"
	"purplefabric.ai/graphrag/store/triplestore"
)

// MaxBatchTriples is the audit write batch size cap from §4.8.
const MaxBatchTriples = 10000

// Writer serializes ChangeEvents into the tenant/workspace audit named
// graph, splitting at MaxBatchTriples triples per write and tracking each
// write through a BatchLedger for operational visibility.
type Writer struct {
	Triplestore *triplestore.Adapter
	Ledger      *BatchLedger
}

// NewWriter constructs a Writer with a fresh BatchLedger.
func NewWriter(ts *triplestore.Adapter) *Writer {
	return &Writer{Triplestore: ts, Ledger: NewBatchLedger(0)}
}

// WriteEvents assigns each event a fresh event URI under the tenant's
// audit graph, serializes it to triples, and writes in batches capped at
// MaxBatchTriples triples, per §4.8. Each batch is an independent write —
// a later batch's failure does not roll back an earlier one, matching
// §7's "every event written independently; no batch-wide transaction".
func (w *Writer) WriteEvents(ctx context.Context, tenant, workspace string, events []ChangeEvent, changedAt time.Time) error {
	graphIRI, err := ontology.GraphIRI(ontology.GraphKindAudit, tenant, workspace)
	if err != nil {
		return graphragerr.Wrap(graphragerr.KindConfigurationError, err, "audit: resolving audit graph IRI")
	}

	var pending []SerializedTriple
	var lastErr error

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		batchID := fmt.Sprintf("audit_batch_%s", uuid.NewString())
		w.Ledger.Start(batchID, len(pending))

		turtle := ToTurtle(pending)
		if err := w.Triplestore.ImportTurtle(ctx, graphIRI, []byte(turtle)); err != nil {
			w.Ledger.Fail(batchID, err)
			pending = nil
			return graphragerr.Wrap(graphragerr.KindBackendUnavailable, err, "audit: writing batch %s", batchID)
		}
		w.Ledger.Complete(batchID)
		pending = nil
		return nil
	}

	for _, event := range events {
		event = AssignEventURI(event, graphIRI)
		triples := Serialize(event, changedAt)

		if len(pending)+len(triples) > MaxBatchTriples {
			if err := flush(); err != nil {
				lastErr = err
			}
		}
		pending = append(pending, triples...)
	}
	if err := flush(); err != nil {
		lastErr = err
	}

	return lastErr
}
