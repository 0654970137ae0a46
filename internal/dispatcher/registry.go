package dispatcher

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks the live processor of each instance on this node. At most
// one processor holds an instance's slot at a time; a processor that
// finishes draining releases its own slot on the way out.
type Registry struct {
	slots sync.Map
}

// Ensure returns the instance's live processor, storing a freshly spawned
// one when the slot is empty. The boolean reports whether the returned
// processor is new and must be started by the caller; a false return means
// another processor already holds the slot.
func (r *Registry) Ensure(instanceID uuid.UUID, spawn func() *Processor) (*Processor, bool) {
	if live, found := r.slots.Load(instanceID); found {
		return live.(*Processor), false
	}

	processor := spawn()

	if live, loaded := r.slots.LoadOrStore(instanceID, processor); loaded {
		return live.(*Processor), false
	}

	return processor, true
}

// release frees the instance's slot if the given processor still holds it.
// A processor replaced after its own release cannot evict its successor.
func (r *Registry) release(instanceID uuid.UUID, processor *Processor) bool {
	return r.slots.CompareAndDelete(instanceID, processor)
}
