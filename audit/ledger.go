package audit

import (
	"sync"
	"time"
)

const defaultMaxBatches = 1000

// BatchStatus is where one audit batch stands in its write lifecycle.
type BatchStatus string

const (
	BatchStarted   BatchStatus = "STARTED"
	BatchCompleted BatchStatus = "COMPLETED"
	BatchFailed    BatchStatus = "FAILED"
)

// BatchRecord is the operational record of one audit write batch —
// visibility only, never consulted for correctness, per §4.8.a "never for
// correctness: every event written independently; no batch-wide
// transaction".
type BatchRecord struct {
	BatchID     string
	TripleCount int
	Status      BatchStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// BatchLedger tracks in-flight and completed audit batches, evicting the
// oldest entry once maxBatches is exceeded — the same bounded-eviction map
// shape as extraction.RunManager, both grounded on statemanager/manager.go.
type BatchLedger struct {
	mu      sync.RWMutex
	batches map[string]*BatchRecord
	order   []string
	maxSize int
}

// NewBatchLedger creates a BatchLedger capped at maxBatches entries (0
// selects the default of 1000).
func NewBatchLedger(maxBatches int) *BatchLedger {
	if maxBatches <= 0 {
		maxBatches = defaultMaxBatches
	}
	return &BatchLedger{batches: make(map[string]*BatchRecord), maxSize: maxBatches}
}

// Start registers a new batch in STARTED status.
func (l *BatchLedger) Start(batchID string, tripleCount int) *BatchRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.batches) >= l.maxSize {
		l.evictOldest()
	}

	record := &BatchRecord{
		BatchID:     batchID,
		TripleCount: tripleCount,
		Status:      BatchStarted,
		StartedAt:   time.Now(),
	}
	l.batches[batchID] = record
	l.order = append(l.order, batchID)
	return record
}

// Complete marks batchID COMPLETED.
func (l *BatchLedger) Complete(batchID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.batches[batchID]
	if !ok {
		return
	}
	record.Status = BatchCompleted
	now := time.Now()
	record.CompletedAt = &now
}

// Fail marks batchID FAILED, recording the cause.
func (l *BatchLedger) Fail(batchID string, cause error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.batches[batchID]
	if !ok {
		return
	}
	record.Status = BatchFailed
	if cause != nil {
		record.Error = cause.Error()
	}
	now := time.Now()
	record.CompletedAt = &now
}

// Get returns the record for batchID, if tracked.
func (l *BatchLedger) Get(batchID string) (BatchRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	record, ok := l.batches[batchID]
	if !ok {
		return BatchRecord{}, false
	}
	return *record, true
}

func (l *BatchLedger) evictOldest() {
	if len(l.order) == 0 {
		return
	}
	oldest := l.order[0]
	l.order = l.order[1:]
	delete(l.batches, oldest)
}
