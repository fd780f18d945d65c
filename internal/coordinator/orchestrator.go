// Package coordinator runs the ordered backend calls of a checkout flow.
//
// A flow is a list of steps. Required steps are hard gates: the first one
// that fails aborts the flow. Best-effort steps may fail without stopping
// it; their failures are reported and written to the flow log.
package coordinator

import (
	"context"
	"log/slog"
	"time"

	"github.com/jcmexdev/comanda/internal/coordinator/flowlog"
)

// Step is a single backend call of a flow.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Required() bool
}

// orderCarrier is implemented by steps that learn the order id.
type orderCarrier interface {
	OrderID() string
}

type StepFailure struct {
	Step string
	Err  error
}

// Report lists what happened to every step that ran.
type Report struct {
	OrderID   string
	Completed []string
	Skipped   []StepFailure
}

type Orchestrator struct {
	flowID      string
	steps       []Step
	log         flowlog.Repository
	stepTimeout time.Duration
	logger      *slog.Logger
}

type Option func(*Orchestrator)

// WithFlowLog records every transition in repo. A nil repo disables it.
func WithFlowLog(repo flowlog.Repository) Option {
	return func(o *Orchestrator) { o.log = repo }
}

// WithStepTimeout bounds each step individually.
func WithStepTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.stepTimeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func NewOrchestrator(flowID string, steps []Step, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		flowID: flowID,
		steps:  steps,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start runs the steps in order. The returned error is the failure of a
// required step; the Report is filled either way.
func (o *Orchestrator) Start(ctx context.Context) (Report, error) {
	var report Report
	o.record(ctx, &report, flowlog.StatusStarted, "")

	for _, step := range o.steps {
		o.logger.DebugContext(ctx, "executing step", "flow_id", o.flowID, "step", step.Name())

		err := o.execute(ctx, step)
		if oc, ok := step.(orderCarrier); ok && oc.OrderID() != "" {
			report.OrderID = oc.OrderID()
		}

		switch {
		case err == nil:
			report.Completed = append(report.Completed, step.Name())
			o.record(ctx, &report, flowlog.StatusStepDone, step.Name())
		case step.Required():
			o.logger.WarnContext(ctx, "required step failed, aborting flow",
				"flow_id", o.flowID,
				"step", step.Name(),
				"error", err,
			)
			o.record(ctx, &report, flowlog.StatusAborted, step.Name(), err.Error())
			return report, err
		default:
			o.logger.WarnContext(ctx, "best-effort step failed, continuing",
				"flow_id", o.flowID,
				"step", step.Name(),
				"error", err,
			)
			report.Skipped = append(report.Skipped, StepFailure{Step: step.Name(), Err: err})
			o.record(ctx, &report, flowlog.StatusStepSkipped, step.Name(), err.Error())
		}
	}

	o.logger.InfoContext(ctx, "flow completed",
		"flow_id", o.flowID,
		"order_id", report.OrderID,
		"skipped", len(report.Skipped),
	)
	o.record(ctx, &report, flowlog.StatusCompleted, "")
	return report, nil
}

func (o *Orchestrator) execute(ctx context.Context, step Step) error {
	if o.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.stepTimeout)
		defer cancel()
	}
	return step.Execute(ctx)
}

// record never fails the flow; the log is an audit aid only.
func (o *Orchestrator) record(ctx context.Context, report *Report, status flowlog.Status, step string, errs ...string) {
	if o.log == nil {
		return
	}
	entry := flowlog.NewEntry(ctx, o.flowID, report.OrderID, status, step, errs...)
	if err := o.log.Save(context.WithoutCancel(ctx), entry); err != nil {
		o.logger.ErrorContext(ctx, "failed to write flow log",
			"flow_id", o.flowID,
			"status", status,
			"error", err,
		)
	}
}
