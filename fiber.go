package pjs

import "github.com/flomesh-io/pjs/value"

// fiberStore is the Runtime's default eval.Fiber (spec.md §3: "External
// host-owned token ... backs module-scoped variables whose names begin
// with $"). One slot slice per module id, sized from that module's own
// declared fiber-variable count (module.Module.FiberCount) before the
// module first runs, so a fiber-variable assignment never silently drops
// (ast.Identifier's fiberIdent Assign path no-ops past the end of the
// slice it's handed).
type fiberStore struct {
	data map[string][]value.Value
}

func newFiberStore() *fiberStore {
	return &fiberStore{data: make(map[string][]value.Value, 4)}
}

// ensure grows moduleID's slot slice to at least n entries, preserving any
// values already stored there.
func (f *fiberStore) ensure(moduleID string, n int) {
	if len(f.data[moduleID]) >= n {
		return
	}
	slots := make([]value.Value, n)
	copy(slots, f.data[moduleID])
	f.data[moduleID] = slots
}

// Data implements eval.Fiber.
func (f *fiberStore) Data(moduleID string) []value.Value {
	return f.data[moduleID]
}

// set writes v into moduleID's fiber slot index, after ensure has sized
// the slice; a call with an out-of-range index is a caller bug, not a
// runtime condition, so it panics like a normal slice index would.
func (f *fiberStore) set(moduleID string, index int, v value.Value) {
	f.data[moduleID][index] = v
}
