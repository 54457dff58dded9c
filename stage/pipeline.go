package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/invoiceflow"
	"github.com/xraph/invoiceflow/backoff"
	"github.com/xraph/invoiceflow/collab"
	"github.com/xraph/invoiceflow/invoice"
	"github.com/xraph/invoiceflow/middleware"
	"github.com/xraph/invoiceflow/tool"
)

// Func executes one stage against a record. A non-nil decision is only
// ever passed to the decision stage, on resume.
type Func func(ctx context.Context, rec *invoice.Record, dec *invoice.Decision) error

// Pipeline executes stages and routes between them. It is stateless
// across calls: all run state lives on the record, so a single Pipeline
// serves any number of concurrent runs.
type Pipeline struct {
	cfg    invoiceflow.Config
	tools  *tool.Selector
	collab collab.Set
	retry  backoff.Strategy
	logger *slog.Logger
	chain  middleware.Middleware
	stages map[Name]Func
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used by the pipeline and its default
// middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithToolSelector replaces the default tool selection strategy table.
func WithToolSelector(s *tool.Selector) Option {
	return func(p *Pipeline) { p.tools = s }
}

// WithRetry sets the backoff strategy for collaborator call retries.
func WithRetry(s backoff.Strategy) Option {
	return func(p *Pipeline) { p.retry = s }
}

// WithMiddleware replaces the default middleware chain. Pass nothing
// to run stages bare.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(p *Pipeline) { p.chain = middleware.Chain(mws...) }
}

// New creates a Pipeline over the given collaborators. The default
// middleware chain is Recover → Tracing → Metrics → Logging → Timeout.
func New(cfg invoiceflow.Config, set collab.Set, opts ...Option) (*Pipeline, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:    cfg,
		tools:  tool.NewSelector(),
		collab: set,
		retry:  backoff.DefaultStrategy(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chain == nil {
		p.chain = middleware.Chain(
			middleware.Recover(p.logger),
			middleware.Tracing(),
			middleware.Metrics(),
			middleware.Logging(p.logger),
			middleware.Timeout(p.logger),
		)
	}

	p.stages = map[Name]Func{
		Intake:     p.intake,
		Understand: p.understand,
		Prepare:    p.prepare,
		Retrieve:   p.retrieve,
		Match:      p.match,
		Checkpoint: p.checkpoint,
		Decide:     p.decide,
		Reconcile:  p.reconcile,
		Approve:    p.approve,
		Post:       p.post,
		Notify:     p.notify,
		Complete:   p.complete,
	}

	return p, nil
}

// Execute runs one named stage against the record through the
// middleware chain. It returns ErrAwaitingDecision when the decision
// stage needs a human verdict; middleware observes suspension as a
// successful execution, not a failure.
func (p *Pipeline) Execute(ctx context.Context, name Name, rec *invoice.Record, dec *invoice.Decision) error {
	fn, ok := p.stages[name]
	if !ok {
		return fmt.Errorf("stage: unknown stage %q", name)
	}

	step := &middleware.Step{
		Stage:   string(name),
		RunID:   rec.RunID,
		Record:  rec,
		Timeout: p.cfg.StageTimeout,
		Resumed: dec != nil,
	}

	var suspended bool
	err := p.chain(ctx, step, func(ctx context.Context) error {
		err := fn(ctx, rec, dec)
		if errors.Is(err, ErrAwaitingDecision) {
			suspended = true
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if suspended {
		return ErrAwaitingDecision
	}

	return nil
}

// Next returns the stage that follows current for this record, or
// false when current is terminal. Routing after MATCH and DECIDE
// depends on record state; everything else is a fixed edge.
func (p *Pipeline) Next(current Name, rec *invoice.Record) (Name, bool) {
	switch current {
	case Intake:
		return Understand, true
	case Understand:
		return Prepare, true
	case Prepare:
		return Retrieve, true
	case Retrieve:
		return Match, true
	case Match:
		if rec.MatchScore >= p.cfg.AutoApproveThreshold {
			return Reconcile, true
		}
		return Checkpoint, true
	case Checkpoint:
		return Decide, true
	case Decide:
		if rec.Status == invoice.StatusRejected {
			return Complete, true
		}
		return Reconcile, true
	case Reconcile:
		return Approve, true
	case Approve:
		return Post, true
	case Post:
		return Notify, true
	case Notify:
		return Complete, true
	default:
		return "", false
	}
}

// call runs one collaborator invocation with per-attempt timeout and
// retry. Exhausted retries come back as a *collab.Error attributed to
// name, which stages treat as a degradation signal.
func (p *Pipeline) call(ctx context.Context, name string, fn func(context.Context) error) error {
	err := backoff.Retry(ctx, p.cfg.CollaboratorAttempts, p.retry, func(ctx context.Context) error {
		if p.cfg.CollaboratorTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.cfg.CollaboratorTimeout)
			defer cancel()
		}
		return fn(ctx)
	})
	if err != nil {
		return collab.NewError(name, err)
	}

	return nil
}
