package eval

import "github.com/flomesh-io/pjs/value"

// Fiber is the external, host-owned execution-context token spec.md §3
// describes: the core never constructs or destructs one, it only
// dereferences Data(moduleID) to find the backing slots for that module's
// "$"-prefixed fiber variables.
type Fiber interface {
	// Data returns the live slot slice backing moduleID's fiber variables.
	// The returned slice must be stable for the lifetime of one Execute
	// call and at least as long as the module declares fiber variables.
	Data(moduleID string) []value.Value
}
