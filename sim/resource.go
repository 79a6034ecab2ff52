package sim

import "fmt"

// NumResources is the size of the fixed resource pool. Resources are
// addressed 0..NumResources-1.
const NumResources = 16

// MaxPriority is the system priority ceiling used by the ceiling protocol.
const MaxPriority = 64

// Resource is an exclusive resource with at most one owner and a queue of
// processes blocked on it.
type Resource struct {
	ID      int
	Owner   *Process // nil when the resource is free
	Waiters *ProcessQueue
}

// Free reports whether no process owns the resource.
func (r *Resource) Free() bool {
	return r.Owner == nil
}

// ResourceTable is the fixed pool of resources of a simulation.
type ResourceTable [NumResources]*Resource

func newResourceTable() ResourceTable {
	var t ResourceTable
	for i := range t {
		t[i] = &Resource{ID: i, Waiters: NewProcessQueue(fmt.Sprintf("resource %d", i))}
	}
	return t
}

// IsValidResource reports whether id addresses a resource of the pool.
func IsValidResource(id int) bool {
	return id >= 0 && id < NumResources
}
