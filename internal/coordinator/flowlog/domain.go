// Package flowlog defines the audit trail of checkout flows.
//
// Every transition of a flow (start, each step, the end) appends one Entry.
// Entries carry the trace and span ids of the active span so a row can be
// correlated with the distributed trace of the same request.
package flowlog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type Status string

const (
	StatusStarted     Status = "STARTED"
	StatusStepDone    Status = "STEP_DONE"
	StatusStepSkipped Status = "STEP_SKIPPED"
	StatusCompleted   Status = "COMPLETED"
	StatusAborted     Status = "ABORTED"
)

type Entry struct {
	// FlowID is the payment session id.
	FlowID string

	// OrderID is empty until the board assigned one.
	OrderID string

	Status Status

	// Step is the step that just ran, empty for STARTED and COMPLETED.
	Step string

	Errors []string

	TraceID string
	SpanID  string

	UpdatedAt time.Time
}

// Repository persists entries. Save appends; it never updates.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
	List(ctx context.Context, flowID string) ([]Entry, error)
}

// NewEntry builds an entry stamped with the span found in ctx, if any.
func NewEntry(ctx context.Context, flowID, orderID string, status Status, step string, errs ...string) *Entry {
	entry := &Entry{
		FlowID:    flowID,
		OrderID:   orderID,
		Status:    status,
		Step:      step,
		Errors:    errs,
		UpdatedAt: time.Now().UTC(),
	}

	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		entry.TraceID = sc.TraceID().String()
		entry.SpanID = sc.SpanID().String()
	}
	return entry
}
