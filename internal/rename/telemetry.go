package rename

import (
	"time"

	"github.com/google/uuid"

	"humanify/internal/logging"
)

// telemetry collects per-run counters. Counters are only touched from the
// orchestrator goroutine; visitor goroutines report through their results.
type telemetry struct {
	runID         string
	started       time.Time
	batches       int
	visitorCalls  int
	visitorErrors int
	renamed       int
	skipped       int
	noops         int
	checkpoints   int
}

func newTelemetry() *telemetry {
	return &telemetry{runID: uuid.NewString(), started: time.Now()}
}

// report logs the run summary through the engine category.
func (t *telemetry) report(total int) {
	logging.Get(logging.CategoryEngine).Info(
		"run %s: %d bindings, %d batches, %d visitor calls (%d failed), %d renamed, %d skipped, %d left alone, %d checkpoints, took %v",
		t.runID, total, t.batches, t.visitorCalls, t.visitorErrors,
		t.renamed, t.skipped, t.noops, t.checkpoints, time.Since(t.started),
	)
}
