package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"balag/internal/infrastructure"
)

// TracerName names the spans emitted by the runner
const TracerName = "balag.operation"

// Runner executes registered steps in registration order
type Runner struct {
	steps   []Step
	ids     map[string]struct{}
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
	retry   RetryConfig
}

// NewRunner creates a runner. A nil tracer uses the global tracer provider and
// nil metrics record nothing.
func NewRunner(logger *slog.Logger, tracer trace.Tracer, metrics *infrastructure.PipelineMetrics) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &Runner{
		ids:     make(map[string]struct{}),
		logger:  logger,
		tracer:  tracer,
		metrics: metrics,
		retry:   NewRetryConfig(),
	}
}

// WithRetry replaces the retry configuration
func (r *Runner) WithRetry(cfg RetryConfig) *Runner {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	r.retry = cfg
	return r
}

// Add registers steps after the ones already registered
func (r *Runner) Add(steps ...Step) error {
	for _, step := range steps {
		if step == nil {
			return fmt.Errorf("cannot register nil step")
		}
		id := step.ID()
		if id == "" {
			return fmt.Errorf("step ID cannot be empty")
		}
		if _, exists := r.ids[id]; exists {
			return fmt.Errorf("step with ID %s already registered", id)
		}
		r.ids[id] = struct{}{}
		r.steps = append(r.steps, step)
	}
	return nil
}

// StepIDs returns the registered step IDs in execution order
func (r *Runner) StepIDs() []string {
	ids := make([]string, len(r.steps))
	for i, step := range r.steps {
		ids[i] = step.ID()
	}
	return ids
}

// Run executes every step against state. The first failing step stops the
// run and the remaining steps are marked skipped.
func (r *Runner) Run(ctx context.Context, state *OperationState) error {
	if len(r.steps) == 0 {
		return NewFatalError("no step registered", nil)
	}

	ctx, span := r.tracer.Start(ctx, "operation.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", state.ID),
			attribute.Int("operation.steps", len(r.steps)),
		),
	)
	defer span.End()

	for _, step := range r.steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	state.Start()
	r.logger.InfoContext(ctx, "operation_start",
		slog.String("operation_id", state.ID),
		slog.Any("steps", r.StepIDs()))

	for i, step := range r.steps {
		err := ctx.Err()
		if err != nil {
			err = NewCancellationError(step.ID(), err)
		} else {
			r.logger.InfoContext(ctx, "executing_step",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.Int("step_number", i+1),
				slog.Int("total_steps", len(r.steps)))
			err = r.runStep(ctx, state, step)
		}
		if err == nil {
			continue
		}

		r.skipFrom(state, i+1, fmt.Sprintf("step %s did not complete", step.ID()))
		if GetErrorType(err) == ErrorTypeCancellation {
			if s := state.GetStep(step.ID()); s.GetStatus() == StepStatusPending {
				s.Skip("operation cancelled")
			}
			state.Cancel()
		} else {
			state.Fail(err)
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.ErrorContext(ctx, "operation_error",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.String("error", err.Error()))
		return err
	}

	state.Complete()
	span.SetStatus(codes.Ok, "")
	r.logger.InfoContext(ctx, "operation_complete",
		slog.String("operation_id", state.ID),
		slog.Duration("duration", state.Duration()),
		slog.Int("outputs", len(state.Outputs)))
	return nil
}

// runStep validates and executes one step, retrying retryable failures
func (r *Runner) runStep(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStep(step.ID())

	if err := step.Validate(state); err != nil {
		stepState.Skip(fmt.Sprintf("validation failed: %v", err))
		return NewValidationError(step.ID(), err)
	}

	ctx, span := r.tracer.Start(ctx, "operation.step."+step.ID(),
		trace.WithAttributes(
			attribute.String("operation.id", state.ID),
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
		),
	)
	defer span.End()

	for attempt := 1; ; attempt++ {
		stepState.Start()
		start := time.Now()
		err := step.Execute(ctx, state)
		duration := time.Since(start)
		r.metrics.StepDuration(ctx, step.ID(), duration, err == nil)

		if err == nil {
			stepState.Complete()
			span.SetAttributes(attribute.Int("step.attempts", attempt))
			r.logger.InfoContext(ctx, "step_complete",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.Duration("duration", duration))
			return nil
		}

		stepState.Fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if ctxErr := ctx.Err(); ctxErr != nil {
			return NewCancellationError(step.ID(), ctxErr)
		}

		opErr := NewExecutionError(step.ID(), err)
		if !IsRetryable(opErr) || attempt >= r.retry.MaxAttempts {
			return opErr
		}

		delay := r.retry.delay(attempt)
		r.logger.WarnContext(ctx, "step_retry",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", r.retry.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return NewCancellationError(step.ID(), ctx.Err())
		}
	}
}

// skipFrom marks the pending steps from index i on as skipped
func (r *Runner) skipFrom(state *OperationState, i int, reason string) {
	for _, step := range r.steps[i:] {
		if s := state.GetStep(step.ID()); s != nil && s.GetStatus() == StepStatusPending {
			s.Skip(reason)
		}
	}
}
