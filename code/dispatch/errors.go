package dispatch

import "fmt"

// DispatchError is returned by DynamicDispatch when no candidate consumer's
// identifier matches the event's target. It carries exactly the one field
// the design calls for: the unmatched target.
type DispatchError struct {
	Target uint64
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("eventbus: no consumer with id %d for dynamic dispatch", e.Target)
}

// UsageError reports a resolver precondition violated at call time: no
// handler-capable consumer for StaticDispatch, or an event without a
// Target for DynamicDispatch. In the source design these are caught at
// build time; Go's structural typing defers the same check to the call,
// so this package returns an error instead of failing to compile.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return "eventbus: " + e.Reason
}
