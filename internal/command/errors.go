package command

import "fmt"

// ValidationError rejects an invocation before any dispatch happens:
// selection cardinality or multi-select constraints were not met.
type ValidationError struct {
	Command string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("command %q: %s", e.Command, e.Reason)
}

// BusyError rejects a re-invocation of a command key that is still in flight.
type BusyError struct {
	Command string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("command %q is already running", e.Command)
}
