// Package scheduler implements the scheduling policy core: a
// thread-safe, blocking, per-container-type round-robin dispatcher.
package scheduler

import (
	"github.com/haesookim/incubator-nemo/internal/executor"
	"github.com/haesookim/incubator-nemo/internal/taskgroup"
)

// ContainerManager is the outbound dependency the policy reads from on
// executor lifecycle events. containermgr.Manager implements this.
type ContainerManager interface {
	GetExecutorRepresenterMap() map[executor.Id]executor.Representer
}

// Policy is the interface BatchScheduler drives. Only RoundRobin is
// specified, but the policy is deliberately kept swappable.
type Policy interface {
	// AttemptSchedule returns the executor chosen for stg, or ok=false
	// if no executor had a free slot within the configured timeout.
	AttemptSchedule(stg taskgroup.ScheduledTaskGroup) (id executor.Id, ok bool, err error)

	OnExecutorAdded(id executor.Id)

	OnExecutorRemoved(id executor.Id) map[taskgroup.Id]struct{}

	OnTaskGroupScheduled(id executor.Id, stg taskgroup.ScheduledTaskGroup)

	OnTaskGroupExecutionComplete(id executor.Id, taskGroupId taskgroup.Id)

	// OnTaskGroupExecutionFailed frees the slot and returns the
	// task-group id so the caller can decide whether to reschedule it.
	OnTaskGroupExecutionFailed(id executor.Id, taskGroupId taskgroup.Id) taskgroup.Id
}
