package scheduler

import (
	"log"
	"sync"
	"time"

	"github.com/haesookim/incubator-nemo/internal/containertype"
	"github.com/haesookim/incubator-nemo/internal/executor"
	"github.com/haesookim/incubator-nemo/internal/taskgroup"
)

// RoundRobin is a Round-Robin implementation used by BatchScheduler.
//
// It keeps a list of available ExecutorRepresenters for each container
// type and, for each scheduling attempt, tries the candidates of the
// requested type in rotation, starting just past the previous
// successful placement.
type RoundRobin struct {
	Name string

	containerManager ContainerManager

	scheduleTimeout time.Duration

	// mu guards everything below, including the creation of entries
	// and the condition variables they carry.
	mu sync.Mutex

	entries map[containertype.ContainerType]*containerTypeEntry

	// typeOrder records container types (other than Any) in the order
	// their registry entry was first created. containertype.Any's
	// candidate list is the concatenation of entries over typeOrder,
	// so this order must be stable across calls for RR fairness to
	// hold for Any requests.
	typeOrder []containertype.ContainerType

	// executorMap is a cached copy of containerManager's
	// representer map, refreshed on executor add/remove.
	executorMap map[executor.Id]executor.Representer
}

// NewRoundRobin constructs a policy bound to cm, waiting up to
// scheduleTimeout per AttemptSchedule call before giving up.
func NewRoundRobin(cm ContainerManager, scheduleTimeout time.Duration) *RoundRobin {
	r := &RoundRobin{
		Name:             "roundrobin",
		containerManager: cm,
		scheduleTimeout:  scheduleTimeout,
		entries:          make(map[containertype.ContainerType]*containerTypeEntry),
		executorMap:      make(map[executor.Id]executor.Representer),
	}

	r.mu.Lock()
	r.initEntryLocked(containertype.Any)
	r.mu.Unlock()

	return r
}

// AttemptSchedule is the sole blocking operation: RR-select once, and
// if that misses, wait for a free-slot signal (or timeout) and
// RR-select exactly once more.
func (r *RoundRobin) AttemptSchedule(stg taskgroup.ScheduledTaskGroup) (executor.Id, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := stg.TaskGroup.RequiredContainerType
	entry := r.initEntryLocked(t)

	if id, ok, err := r.selectByRRLocked(t, entry); ok || err != nil {
		return id, ok, err
	}

	if r.waitForFreeSlotLocked(entry) {
		return r.selectByRRLocked(t, entry)
	}

	return "", false, nil
}

// waitForFreeSlotLocked blocks on entry.cond for up to
// r.scheduleTimeout, releasing r.mu for the duration, and reports
// whether it woke because of a signal (true) rather than a timeout
// (false). Must be called with r.mu held; returns with r.mu held.
func (r *RoundRobin) waitForFreeSlotLocked(entry *containerTypeEntry) bool {
	if r.scheduleTimeout <= 0 {
		return false
	}

	timedOut := false
	timer := time.AfterFunc(r.scheduleTimeout, func() {
		r.mu.Lock()
		timedOut = true
		entry.cond.Broadcast()
		r.mu.Unlock()
	})
	defer timer.Stop()

	entry.cond.Wait()

	return !timedOut
}

// selectByRRLocked is the round-robin probe of §4.1.1. On a hit it sets
// entry.nextIndex to the position just past the selected candidate
// (mod len(candidates)), which is one step forward when the first probe
// hits; on a miss it leaves it untouched.
func (r *RoundRobin) selectByRRLocked(
	t containertype.ContainerType, entry *containerTypeEntry,
) (executor.Id, bool, error) {
	candidates := r.candidatesLocked(t)

	n := len(candidates)
	if n == 0 {
		return "", false, nil
	}

	start := entry.nextIndex
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		id := candidates[idx]

		rep, ok := r.executorMap[id]
		if !ok {
			return "", false, newSchedulingError("executor %s is registered but has no cached representer", id)
		}

		if len(rep.RunningTaskGroups()) < rep.Capacity() {
			entry.nextIndex = (idx + 1) % n
			return id, true, nil
		}
	}

	return "", false, nil
}

// candidatesLocked returns the candidate executor ids for t, in
// registry-iteration order: t's own list, or for Any, the
// concatenation of every real type's list in typeOrder.
func (r *RoundRobin) candidatesLocked(t containertype.ContainerType) []executor.Id {
	if t != containertype.Any {
		entry := r.entries[t]
		out := make([]executor.Id, len(entry.executors))
		copy(out, entry.executors)
		return out
	}

	var out []executor.Id
	for _, ct := range r.typeOrder {
		out = append(out, r.entries[ct].executors...)
	}
	return out
}

// OnExecutorAdded refreshes the cache, then inserts executorId into its
// type's candidate list at the current RR cursor position so it is
// tried next, ahead of whatever the cursor already pointed at.
func (r *RoundRobin) OnExecutorAdded(id executor.Id) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refreshExecutorMapLocked()

	rep, ok := r.executorMap[id]
	if !ok {
		panic("OnExecutorAdded: executor " + string(id) + " is not known to the container manager")
	}

	t := rep.ContainerType()
	entry := r.initEntryLocked(t)

	insertAt := entry.nextIndex
	if insertAt > len(entry.executors) {
		insertAt = len(entry.executors)
	}
	entry.executors = append(entry.executors, "")
	copy(entry.executors[insertAt+1:], entry.executors[insertAt:])
	entry.executors[insertAt] = id

	log.Printf("[scheduler] executor %s (%s) added at position %d", id, t, insertAt)

	r.signalLocked(t)
}

// OnExecutorRemoved removes executorId from its type's candidate list,
// repairs the RR cursor so rotation fairness survives the removal, and
// returns the task groups that were running on it for rescheduling.
// It signals nothing: removal never creates a free slot.
func (r *RoundRobin) OnExecutorRemoved(id executor.Id) map[taskgroup.Id]struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep, ok := r.executorMap[id]
	if !ok {
		panic("OnExecutorRemoved: executor " + string(id) + " is not known to the container manager")
	}

	t := rep.ContainerType()
	entry := r.entries[t]

	pos := indexOfExecutor(entry.executors, id)
	if pos >= 0 {
		switch {
		case pos < entry.nextIndex:
			entry.nextIndex--
		case pos == entry.nextIndex:
			entry.nextIndex = 0
		}
		entry.executors = append(entry.executors[:pos], entry.executors[pos+1:]...)
	}

	r.refreshExecutorMapLocked()

	log.Printf("[scheduler] executor %s (%s) removed", id, t)

	return rep.RunningTaskGroups()
}

func (r *RoundRobin) OnTaskGroupScheduled(id executor.Id, stg taskgroup.ScheduledTaskGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep, ok := r.executorMap[id]
	if !ok {
		panic("OnTaskGroupScheduled: executor " + string(id) + " is not known to the container manager")
	}

	rep.OnTaskGroupScheduled(stg)
}

func (r *RoundRobin) OnTaskGroupExecutionComplete(id executor.Id, taskGroupId taskgroup.Id) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep, ok := r.executorMap[id]
	if !ok {
		panic("OnTaskGroupExecutionComplete: executor " + string(id) + " is not known to the container manager")
	}

	rep.OnTaskGroupExecutionComplete(taskGroupId)
	log.Printf("[scheduler] task group %s completed on %s", taskGroupId, id)

	r.signalLocked(rep.ContainerType())
}

func (r *RoundRobin) OnTaskGroupExecutionFailed(id executor.Id, taskGroupId taskgroup.Id) taskgroup.Id {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep, ok := r.executorMap[id]
	if !ok {
		panic("OnTaskGroupExecutionFailed: executor " + string(id) + " is not known to the container manager")
	}

	rep.OnTaskGroupExecutionFailed(taskGroupId)
	log.Printf("[scheduler] task group %s failed on %s, slot freed", taskGroupId, id)

	r.signalLocked(rep.ContainerType())

	return taskGroupId
}

// signalLocked wakes at most one waiter on t's condition and one on
// Any's, so an Any-waiter is never starved by type-specific events.
func (r *RoundRobin) signalLocked(t containertype.ContainerType) {
	if entry, ok := r.entries[t]; ok {
		entry.cond.Signal()
	}
	if t != containertype.Any {
		if anyEntry, ok := r.entries[containertype.Any]; ok {
			anyEntry.cond.Signal()
		}
	}
}

// initEntryLocked lazily creates the registry row for t, recording real
// (non-Any) types in typeOrder so Any's candidate list has a stable
// iteration order across calls.
func (r *RoundRobin) initEntryLocked(t containertype.ContainerType) *containerTypeEntry {
	entry, ok := r.entries[t]
	if ok {
		return entry
	}

	entry = newContainerTypeEntry(&r.mu)
	r.entries[t] = entry
	if t != containertype.Any {
		r.typeOrder = append(r.typeOrder, t)
	}

	return entry
}

func (r *RoundRobin) refreshExecutorMapLocked() {
	r.executorMap = r.containerManager.GetExecutorRepresenterMap()
}
