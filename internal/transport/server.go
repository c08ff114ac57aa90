package transport

import (
	"log"
	"sync"
	"time"

	"github.com/haesookim/incubator-nemo/internal/taskgroup"
)

// Agent is the executor-local runtime: it accepts dispatched task
// groups, "runs" them (a deterministic sleep stands in for the real
// per-task-group compute this repo doesn't implement — the DAG/IR
// front-end that would produce real work is out of scope), and reports
// their state on request.
type Agent struct {
	mu sync.Mutex

	taskGroups map[taskgroup.Id]*trackedTaskGroup

	// RunDuration is how long a dispatched task group "runs" before
	// transitioning to Completed. Tests set this low.
	RunDuration time.Duration
}

type trackedTaskGroup struct {
	stg   taskgroup.ScheduledTaskGroup
	state taskgroup.State
}

func NewAgent(runDuration time.Duration) *Agent {
	return &Agent{
		taskGroups:  make(map[taskgroup.Id]*trackedTaskGroup),
		RunDuration: runDuration,
	}
}

// AddTaskGroup registers stg as Scheduled and starts simulating its
// run in the background.
func (a *Agent) AddTaskGroup(stg taskgroup.ScheduledTaskGroup) {
	id := stg.TaskGroup.TaskGroupId

	a.mu.Lock()
	a.taskGroups[id] = &trackedTaskGroup{stg: stg, state: taskgroup.Scheduled}
	a.mu.Unlock()

	go a.run(id)
}

func (a *Agent) run(id taskgroup.Id) {
	a.setState(id, taskgroup.Running)

	time.Sleep(a.RunDuration)

	a.mu.Lock()
	tracked, ok := a.taskGroups[id]
	running := ok && tracked.state == taskgroup.Running
	a.mu.Unlock()

	if running {
		a.setState(id, taskgroup.Completed)
		log.Printf("[executoragent] task group %s completed", id)
	}
}

// setState applies a state transition, gated on taskgroup.ValidStateTransition
// the way the teacher's Worker.runTask gates its own dispatch switch. An
// invalid transition is logged and dropped rather than applied.
func (a *Agent) setState(id taskgroup.Id, s taskgroup.State) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	tracked, ok := a.taskGroups[id]
	if !ok {
		return false
	}

	if !taskgroup.ValidStateTransition(tracked.state, s) {
		log.Printf("[executoragent] invalid transition from %v to %v for task group %s", tracked.state, s, id)
		return false
	}

	tracked.state = s
	return true
}

// StopTaskGroup marks a Running task group Completed immediately, as if
// it had been asked to wind down early. The change goes through setState,
// so a task group that is not Running (still Scheduled, or already
// finished) keeps its state. Reports whether it was known.
func (a *Agent) StopTaskGroup(id taskgroup.Id) bool {
	a.mu.Lock()
	_, ok := a.taskGroups[id]
	a.mu.Unlock()
	if !ok {
		return false
	}

	a.setState(id, taskgroup.Completed)
	return true
}

// ListStatuses returns every task group the agent knows about.
func (a *Agent) ListStatuses() []taskgroup.Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	statuses := make([]taskgroup.Status, 0, len(a.taskGroups))
	for id, tracked := range a.taskGroups {
		statuses = append(statuses, taskgroup.Status{TaskGroupId: id, State: tracked.state})
	}
	return statuses
}
