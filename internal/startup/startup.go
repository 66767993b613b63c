// Package startup runs the best-effort initialisation steps that precede the listener bind.
package startup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/paygate/internal/metrics"
)

// DefaultStepTimeout bounds a step when the sequence has no timeout configured.
const DefaultStepTimeout = 10 * time.Second

// Step is a named unit of startup work.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Outcome records how a step finished. Err is nil on success.
type Outcome struct {
	Step     string
	Err      error
	Duration time.Duration
}

// Sequence runs its steps one after the other. A failing step is logged and the
// sequence continues with the next one.
type Sequence struct {
	Steps       []Step
	StepTimeout time.Duration
	Logger      *slog.Logger
}

// Run executes every step and returns one outcome per step, in order.
func (s *Sequence) Run(ctx context.Context) []Outcome {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	timeout := s.StepTimeout
	if timeout <= 0 {
		timeout = DefaultStepTimeout
	}

	outcomes := make([]Outcome, 0, len(s.Steps))
	for _, step := range s.Steps {
		start := time.Now()
		err := runStep(ctx, step, timeout)
		outcome := Outcome{Step: step.Name, Err: err, Duration: time.Since(start)}
		outcomes = append(outcomes, outcome)

		if err != nil {
			metrics.StartupSteps.WithLabelValues(step.Name, "failed").Inc()
			log.Warn("startup step failed",
				slog.String("step", step.Name),
				slog.String("error", err.Error()),
				slog.Duration("duration", outcome.Duration),
			)
			continue
		}
		metrics.StartupSteps.WithLabelValues(step.Name, "succeeded").Inc()
		log.Info("startup step completed",
			slog.String("step", step.Name),
			slog.Duration("duration", outcome.Duration),
		)
	}
	return outcomes
}

// runStep runs a single step under its own deadline. A step that ignores its
// context is abandoned when the deadline passes.
func runStep(ctx context.Context, step Step, timeout time.Duration) (err error) {
	if step.Run == nil {
		return fmt.Errorf("step %s has no run function", step.Name)
	}

	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("step %s panicked: %v", step.Name, rec)
			}
		}()
		done <- step.Run(stepCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-stepCtx.Done():
		if errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("step %s timed out after %s: %w", step.Name, timeout, stepCtx.Err())
		}
		return stepCtx.Err()
	}
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
