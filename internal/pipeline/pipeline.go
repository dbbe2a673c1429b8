// Package pipeline runs a linear chain of named stages over a run state.
//
// Each stage receives the state produced by the previous stage and returns the
// state for the next one. The first failing stage halts the run; the driver
// never retries and never undoes anything, so whatever earlier stages left on
// disk stays there for inspection.
//
// Optional pre/post hooks (Observer) report pipeline and stage start/end with
// durations. Pass RunOptions{Observer: obs} to Run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage is a single named step. Timeout, when positive, bounds the stage's
// context.
type Stage[S any] struct {
	Name    string
	Timeout time.Duration
	Run     func(ctx context.Context, state S) (S, error)
}

// Pipeline runs Stages in order.
type Pipeline[S any] struct {
	Name   string
	Stages []Stage[S]
}

// Observer provides pre/post hooks for pipeline and stage execution.
// Hook errors are reported but never mask a stage error.
type Observer interface {
	BeforePipeline(ctx context.Context, runID, name string) error
	AfterPipeline(ctx context.Context, runID, name string, err error, duration time.Duration) error
	BeforeStage(ctx context.Context, runID string, stageIndex int, stage string) error
	AfterStage(ctx context.Context, runID string, stageIndex int, stage string, stageErr error, duration time.Duration) error
}

// RunOptions attaches an Observer and optional RunID.
// If Observer is set and RunID is empty, a new UUID is generated for the run.
type RunOptions struct {
	Observer Observer
	RunID    string
}

// StageError reports which stage failed. It unwraps to the stage's error so
// errors.Is/As see the original failure kind.
type StageError struct {
	Index int
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s): %v", e.Index, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Run executes the stages starting from initial. It returns the last stage's
// state, or the state reached before the failing stage together with the error.
func (p *Pipeline[S]) Run(ctx context.Context, initial S, opts *RunOptions) (S, error) {
	if opts == nil || opts.Observer == nil {
		return p.runStages(ctx, initial, nil, "")
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	if err := opts.Observer.BeforePipeline(ctx, runID, p.Name); err != nil {
		return initial, fmt.Errorf("before pipeline: %w", err)
	}
	start := time.Now()
	state, err := p.runStages(ctx, initial, opts.Observer, runID)
	if postErr := opts.Observer.AfterPipeline(ctx, runID, p.Name, err, time.Since(start)); postErr != nil {
		// Don't mask pipeline error
		if err == nil {
			err = fmt.Errorf("after pipeline: %w", postErr)
		}
	}
	return state, err
}

func (p *Pipeline[S]) runStages(ctx context.Context, initial S, obs Observer, runID string) (S, error) {
	state := initial
	for i, stage := range p.Stages {
		if err := ctx.Err(); err != nil {
			return state, &StageError{Index: i, Stage: stage.Name, Err: context.Cause(ctx)}
		}
		if obs != nil {
			if err := obs.BeforeStage(ctx, runID, i, stage.Name); err != nil {
				return state, fmt.Errorf("before stage %d: %w", i, err)
			}
		}

		start := time.Now()
		next, stageErr := runStage(ctx, stage, state)
		duration := time.Since(start)

		if obs != nil {
			if postErr := obs.AfterStage(ctx, runID, i, stage.Name, stageErr, duration); postErr != nil {
				if stageErr == nil {
					stageErr = fmt.Errorf("after stage: %w", postErr)
				}
			}
		}
		if stageErr != nil {
			return state, &StageError{Index: i, Stage: stage.Name, Err: stageErr}
		}
		state = next
	}
	return state, nil
}

func runStage[S any](ctx context.Context, stage Stage[S], state S) (S, error) {
	if stage.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, stage.Timeout)
		defer cancel()
	}
	return stage.Run(ctx, state)
}
