// Package executor models a worker process the scheduling policy places
// task groups on: the ExecutorRepresenter capability set plus a concrete
// implementation backed by a Docker container.
package executor

import (
	"fmt"

	"github.com/haesookim/incubator-nemo/internal/containertype"
	"github.com/haesookim/incubator-nemo/internal/taskgroup"
)

// Id opaquely identifies an executor.
type Id string

// Representer is the capability set the scheduling policy needs from an
// executor. It is modelled as an interface so tests can substitute a
// deterministic fake instead of a Docker-backed Executor.
type Representer interface {
	ExecutorId() Id

	ContainerType() containertype.ContainerType

	Capacity() int

	RunningTaskGroups() map[taskgroup.Id]struct{}

	OnTaskGroupScheduled(stg taskgroup.ScheduledTaskGroup)

	OnTaskGroupExecutionComplete(taskGroupId taskgroup.Id)

	OnTaskGroupExecutionFailed(taskGroupId taskgroup.Id)
}

// Executor is the concrete ExecutorRepresenter. Its running-task-group
// set is mutated only by the scheduling policy, always under the
// policy's single global lock (see scheduler.RoundRobin), so it carries
// no lock of its own.
type Executor struct {
	Id Id

	containerType containertype.ContainerType

	capacity int

	runningTaskGroups map[taskgroup.Id]struct{}

	// ContainerID is the Docker container backing this executor,
	// populated by containermgr once the container is running.
	ContainerID string

	// Address is the executor's RPC endpoint, derived from the
	// container's published port.
	Address string

	// Stats is the most recently reported resource snapshot from the
	// executor's own heartbeat. It is informational only: round-robin
	// selection never reads it.
	Stats *Stats
}

// NewExecutor builds an Executor of the given container type and
// capacity, with an empty running set.
func NewExecutor(id Id, t containertype.ContainerType, capacity int) *Executor {
	if t == containertype.Any {
		panic("executor container type must not be Any")
	}
	if capacity <= 0 {
		panic(fmt.Sprintf("executor %s: capacity must be positive, got %d", id, capacity))
	}

	return &Executor{
		Id:                id,
		containerType:     t,
		capacity:          capacity,
		runningTaskGroups: make(map[taskgroup.Id]struct{}),
	}
}

func (e *Executor) ExecutorId() Id { return e.Id }

func (e *Executor) ContainerType() containertype.ContainerType { return e.containerType }

func (e *Executor) Capacity() int { return e.capacity }

// RunningTaskGroups returns a snapshot copy; callers (the policy) hold
// the global lock while reading it, but a copy keeps the representer
// free of its own synchronization primitive.
func (e *Executor) RunningTaskGroups() map[taskgroup.Id]struct{} {
	snapshot := make(map[taskgroup.Id]struct{}, len(e.runningTaskGroups))
	for id := range e.runningTaskGroups {
		snapshot[id] = struct{}{}
	}
	return snapshot
}

func (e *Executor) OnTaskGroupScheduled(stg taskgroup.ScheduledTaskGroup) {
	e.runningTaskGroups[stg.TaskGroup.TaskGroupId] = struct{}{}
}

func (e *Executor) OnTaskGroupExecutionComplete(taskGroupId taskgroup.Id) {
	delete(e.runningTaskGroups, taskGroupId)
}

func (e *Executor) OnTaskGroupExecutionFailed(taskGroupId taskgroup.Id) {
	delete(e.runningTaskGroups, taskGroupId)
}
