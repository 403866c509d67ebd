// Package dispatch maps an action descriptor to one of four backend
// invocation shapes and performs the call.
package dispatch

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/gyaneshwarpardhi/gridcmd/internal/command"
	"github.com/gyaneshwarpardhi/gridcmd/internal/metrics"
)

// Backend is the adapter surface the host must implement. Each method is
// one of the four call shapes; the dispatcher makes exactly one attempt per
// call and never retries.
type Backend interface {
	// CallProcedure invokes a named remote procedure, unbound to any record.
	CallProcedure(ctx context.Context, target string, params map[string]any) error
	// ExecuteBound invokes an operation bound to one record.
	ExecuteBound(ctx context.Context, operation string, record command.RecordRef, params map[string]any) error
	// RunQuery issues a read with a fully built query expression.
	RunQuery(ctx context.Context, query string) error
	// TriggerWorkflow starts a workflow run with the given inputs.
	TriggerWorkflow(ctx context.Context, workflowID string, params map[string]any) error
}

// Error attributes a backend failure to the call that produced it.
type Error struct {
	ActionType command.ActionType
	Target     string
	Record     *command.RecordRef // set for per-record shapes
	Err        error
}

func (e *Error) Error() string {
	if e.Record != nil {
		return fmt.Sprintf("dispatch %s %q: record %s: %v", e.ActionType, e.Target, e.Record.ID, e.Err)
	}
	return fmt.Sprintf("dispatch %s %q: %v", e.ActionType, e.Target, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Dispatcher performs descriptor-driven backend calls.
type Dispatcher struct {
	backend Backend
}

// New creates a Dispatcher over the given backend adapter.
func New(be Backend) *Dispatcher {
	return &Dispatcher{backend: be}
}

// Dispatch performs the call(s) a descriptor demands. Per-record shapes
// iterate the selection sequentially in selection order and stop at the
// first failure; the failing call's error is returned and no further calls
// are attempted.
func (d *Dispatcher) Dispatch(ctx context.Context, desc *command.Descriptor, params map[string]any, ec *command.ExecutionContext) error {
	var err error
	switch desc.ActionType {
	case command.ActionRemoteProcedure:
		err = d.callOnce(ctx, desc, params)
	case command.ActionBoundOperation:
		err = d.perRecord(ctx, desc, ec, func(rec command.RecordRef) error {
			return d.backend.ExecuteBound(ctx, desc.Target, rec, params)
		})
	case command.ActionQuery:
		err = d.query(ctx, desc, params)
	case command.ActionWorkflowTrigger:
		err = d.perRecord(ctx, desc, ec, func(rec command.RecordRef) error {
			merged := make(map[string]any, len(params)+1)
			for k, v := range params {
				merged[k] = v
			}
			merged["targetRecordId"] = rec.ID
			return d.backend.TriggerWorkflow(ctx, desc.Target, merged)
		})
	default:
		err = fmt.Errorf("dispatch: unknown action type %q", desc.ActionType)
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DispatchCalls.WithLabelValues(string(desc.ActionType), status).Inc()
	return err
}

func (d *Dispatcher) callOnce(ctx context.Context, desc *command.Descriptor, params map[string]any) error {
	if err := d.backend.CallProcedure(ctx, desc.Target, params); err != nil {
		return &Error{ActionType: desc.ActionType, Target: desc.Target, Err: err}
	}
	return nil
}

func (d *Dispatcher) query(ctx context.Context, desc *command.Descriptor, params map[string]any) error {
	if err := d.backend.RunQuery(ctx, BuildQuery(desc.Target, params)); err != nil {
		return &Error{ActionType: desc.ActionType, Target: desc.Target, Err: err}
	}
	return nil
}

// perRecord runs fn once per selected record, in selection order. An empty
// selection dispatches zero times and succeeds.
func (d *Dispatcher) perRecord(ctx context.Context, desc *command.Descriptor, ec *command.ExecutionContext, fn func(command.RecordRef) error) error {
	for _, rec := range ec.SelectedRecords {
		if err := fn(rec); err != nil {
			r := rec
			return &Error{ActionType: desc.ActionType, Target: desc.Target, Record: &r, Err: err}
		}
	}
	return nil
}

// BuildQuery appends params to target as a URL-style filter expression with
// deterministic (sorted) key order.
func BuildQuery(target string, params map[string]any) string {
	if len(params) == 0 {
		return target
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vals := url.Values{}
	for _, k := range keys {
		vals.Set(k, fmt.Sprintf("%v", params[k]))
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + vals.Encode()
}
