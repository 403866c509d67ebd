// Package executor orchestrates one command invocation end to end:
// validation, confirmation, parameter interpolation, dispatch and
// post-processing.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gyaneshwarpardhi/gridcmd/internal/command"
	"github.com/gyaneshwarpardhi/gridcmd/internal/dispatch"
	"github.com/gyaneshwarpardhi/gridcmd/internal/interpolate"
	"github.com/gyaneshwarpardhi/gridcmd/internal/metrics"
	"github.com/gyaneshwarpardhi/gridcmd/internal/resolver"
)

// ConfirmFunc asks for explicit user confirmation. Returning false cancels
// the invocation without error.
type ConfirmFunc func(ctx context.Context, message string) (bool, error)

// Result reports the outcome of a completed (or canceled) invocation.
type Result struct {
	Key        string `json:"key"`
	Canceled   bool   `json:"canceled,omitempty"`
	Message    string `json:"message,omitempty"`
	Refreshed  bool   `json:"refreshed,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Executor runs resolved commands. It keeps a per-key in-flight guard: a
// second Execute for the same key while one is pending fails immediately
// with a BusyError rather than queueing. Distinct keys run concurrently.
type Executor struct {
	dispatcher *dispatch.Dispatcher
	confirm    ConfirmFunc // nil = auto-confirm

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New creates an Executor. confirm may be nil, in which case commands with
// a confirmation message run without asking.
func New(d *dispatch.Dispatcher, confirm ConfirmFunc) *Executor {
	return &Executor{
		dispatcher: d,
		confirm:    confirm,
		inflight:   make(map[string]struct{}),
	}
}

// Execute runs one invocation. Validation failures return a
// *command.ValidationError; backend failures propagate unmodified from the
// dispatcher; a declined confirmation returns a Result with Canceled set
// and a nil error.
func (e *Executor) Execute(ctx context.Context, cmd *resolver.Command, ec *command.ExecutionContext) (*Result, error) {
	if err := e.acquire(cmd.Key); err != nil {
		return nil, err
	}
	defer e.release(cmd.Key)

	if err := Validate(cmd, ec); err != nil {
		metrics.Executions.WithLabelValues(cmd.Key, "blocked").Inc()
		return nil, err
	}

	if cmd.ConfirmationMessage != "" && e.confirm != nil {
		msg := interpolate.Expand(cmd.ConfirmationMessage, ec)
		ok, err := e.confirm(ctx, msg)
		if err != nil {
			return nil, fmt.Errorf("confirmation: %w", err)
		}
		if !ok {
			return &Result{Key: cmd.Key, Canceled: true}, nil
		}
	}

	start := time.Now()
	var err error
	if cmd.Run != nil {
		err = cmd.Run(ctx, ec)
	} else {
		params := interpolate.Params(cmd.Descriptor.Parameters, ec)
		err = e.dispatcher.Dispatch(ctx, cmd.Descriptor, params, ec)
	}
	elapsed := time.Since(start)
	metrics.ExecutionDuration.Observe(float64(elapsed.Milliseconds()))

	if err != nil {
		metrics.Executions.WithLabelValues(cmd.Key, "error").Inc()
		return nil, err
	}
	metrics.Executions.WithLabelValues(cmd.Key, "success").Inc()

	res := &Result{Key: cmd.Key, DurationMs: elapsed.Milliseconds()}
	if cmd.RefreshAfter && ec.Refresh != nil {
		ec.Refresh()
		res.Refreshed = true
	}
	if cmd.SuccessMessage != "" {
		res.Message = interpolate.Expand(cmd.SuccessMessage, ec)
	}
	return res, nil
}

func (e *Executor) acquire(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[key]; busy {
		return &command.BusyError{Command: key}
	}
	e.inflight[key] = struct{}{}
	return nil
}

func (e *Executor) release(key string) {
	e.mu.Lock()
	delete(e.inflight, key)
	e.mu.Unlock()
}

// Validate checks selection arity against the command's constraints without
// executing anything. Execute runs the same checks; hosts can call it ahead
// of a confirmation prompt. Min/max bounds apply only to commands that
// require a selection.
func Validate(cmd *resolver.Command, ec *command.ExecutionContext) error {
	n := len(ec.SelectedRecords)
	if cmd.RequiresSelection && n == 0 {
		return &command.ValidationError{Command: cmd.Key, Reason: "requires at least one selected record"}
	}
	if !cmd.MultiSelect && n > 1 {
		return &command.ValidationError{Command: cmd.Key, Reason: "supports only a single selected record"}
	}
	if cmd.RequiresSelection {
		if cmd.MinSelection > 0 && n < cmd.MinSelection {
			return &command.ValidationError{
				Command: cmd.Key,
				Reason:  fmt.Sprintf("requires at least %d selected records, got %d", cmd.MinSelection, n),
			}
		}
		if cmd.MaxSelection > 0 && n > cmd.MaxSelection {
			return &command.ValidationError{
				Command: cmd.Key,
				Reason:  fmt.Sprintf("accepts at most %d selected records, got %d", cmd.MaxSelection, n),
			}
		}
	}
	return nil
}
