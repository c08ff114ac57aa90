package containermgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haesookim/incubator-nemo/internal/containertype"
	"github.com/haesookim/incubator-nemo/internal/executor"
	"github.com/haesookim/incubator-nemo/internal/taskgroup"
)

type fakeListener struct {
	added   []executor.Id
	removed []executor.Id

	removeReturns map[taskgroup.Id]struct{}
}

func (f *fakeListener) OnExecutorAdded(id executor.Id) {
	f.added = append(f.added, id)
}

func (f *fakeListener) OnExecutorRemoved(id executor.Id) map[taskgroup.Id]struct{} {
	f.removed = append(f.removed, id)
	return f.removeReturns
}

func TestRegisterExisting_NotifiesListener(t *testing.T) {
	mgr := NewManager(nil, nil)
	listener := &fakeListener{}
	mgr.SetListener(listener)

	exec := executor.NewExecutor("A", containertype.Compute, 2)
	mgr.RegisterExisting(exec)

	assert.Equal(t, []executor.Id{"A"}, listener.added)

	snapshot := mgr.GetExecutorRepresenterMap()
	require.Contains(t, snapshot, executor.Id("A"))
	assert.Same(t, exec, snapshot["A"])
}

func TestStopExecutor_DeregistersAndNotifies(t *testing.T) {
	mgr := NewManager(nil, nil)
	orphanId := taskgroup.NewId()
	listener := &fakeListener{removeReturns: map[taskgroup.Id]struct{}{orphanId: {}}}
	mgr.SetListener(listener)

	exec := executor.NewExecutor("A", containertype.Compute, 2)
	mgr.RegisterExisting(exec)

	orphans, err := mgr.StopExecutor(nil, "A")
	require.NoError(t, err)
	assert.Equal(t, []executor.Id{"A"}, listener.removed)
	assert.Contains(t, orphans, orphanId)

	_, stillThere := mgr.GetExecutorRepresenterMap()["A"]
	assert.False(t, stillThere)
}

func TestStopExecutor_UnknownIdIsAnError(t *testing.T) {
	mgr := NewManager(nil, nil)

	_, err := mgr.StopExecutor(nil, "ghost")
	assert.Error(t, err)
}

func TestProvisionExecutor_NoImageConfiguredIsAnError(t *testing.T) {
	mgr := NewManager(nil, map[containertype.ContainerType]string{
		containertype.Compute: "nemo/executor-compute:latest",
	})

	_, err := mgr.ProvisionExecutor(nil, containertype.Storage, 1)
	assert.Error(t, err)
}

func TestReportStats_AttachesToRegisteredExecutor(t *testing.T) {
	mgr := NewManager(nil, nil)
	exec := executor.NewExecutor("A", containertype.Compute, 1)
	mgr.RegisterExisting(exec)

	stats := &executor.Stats{TaskCount: 3}
	mgr.ReportStats("A", stats)

	assert.Same(t, stats, exec.Stats)
}
