package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haesookim/incubator-nemo/internal/containertype"
	"github.com/haesookim/incubator-nemo/internal/taskgroup"
)

func TestAgent_AddTaskGroupRunsToCompletion(t *testing.T) {
	agent := NewAgent(10 * time.Millisecond)

	stg := taskgroup.ScheduledTaskGroup{TaskGroup: taskgroup.TaskGroup{
		TaskGroupId:           "tg1",
		RequiredContainerType: containertype.Compute,
	}}
	agent.AddTaskGroup(stg)

	require.Eventually(t, func() bool {
		statuses := agent.ListStatuses()
		return len(statuses) == 1 && statuses[0].State == taskgroup.Completed
	}, time.Second, 5*time.Millisecond)
}

func TestAgent_StopTaskGroup(t *testing.T) {
	agent := NewAgent(time.Hour)

	stg := taskgroup.ScheduledTaskGroup{TaskGroup: taskgroup.TaskGroup{TaskGroupId: "tg1"}}
	agent.AddTaskGroup(stg)
	time.Sleep(5 * time.Millisecond) // let the background run() set Running before we stop it

	ok := agent.StopTaskGroup("tg1")
	assert.True(t, ok)

	statuses := agent.ListStatuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, taskgroup.Completed, statuses[0].State)
}

func TestAgent_StopUnknownTaskGroup(t *testing.T) {
	agent := NewAgent(time.Hour)

	ok := agent.StopTaskGroup("ghost")
	assert.False(t, ok)
}

func TestAgent_SetStateRejectsInvalidTransition(t *testing.T) {
	agent := NewAgent(time.Hour)

	stg := taskgroup.ScheduledTaskGroup{TaskGroup: taskgroup.TaskGroup{TaskGroupId: "tg1"}}
	agent.AddTaskGroup(stg)
	time.Sleep(5 * time.Millisecond) // let the background run() set Running

	// Completed -> Running is not in the transition table; setState must
	// refuse it rather than clobbering the recorded state.
	applied := agent.setState("tg1", taskgroup.Completed)
	assert.True(t, applied)

	applied = agent.setState("tg1", taskgroup.Running)
	assert.False(t, applied)

	statuses := agent.ListStatuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, taskgroup.Completed, statuses[0].State)
}
