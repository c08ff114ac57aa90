package scheduler

import (
	"sync"

	"github.com/haesookim/incubator-nemo/internal/executor"
)

// containerTypeEntry is the per-container-type registry row: the
// round-robin candidate list, the probe cursor, and the condition
// variable signalled on every event that may free a slot of this type.
type containerTypeEntry struct {
	executors []executor.Id

	nextIndex int

	cond *sync.Cond
}

func newContainerTypeEntry(l sync.Locker) *containerTypeEntry {
	return &containerTypeEntry{cond: sync.NewCond(l)}
}

func indexOfExecutor(ids []executor.Id, id executor.Id) int {
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	return -1
}
