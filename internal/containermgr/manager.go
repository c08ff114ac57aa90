// Package containermgr is the ContainerManager collaborator: the
// authoritative registry of live executors, and the component
// responsible for provisioning new ones as Docker containers.
package containermgr

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/haesookim/incubator-nemo/internal/containertype"
	"github.com/haesookim/incubator-nemo/internal/executor"
	"github.com/haesookim/incubator-nemo/internal/taskgroup"
)

// Listener receives executor lifecycle notifications. scheduler.RoundRobin
// satisfies this interface; Manager depends only on this narrow shape so
// it never imports the scheduler package.
type Listener interface {
	OnExecutorAdded(id executor.Id)
	OnExecutorRemoved(id executor.Id) map[taskgroup.Id]struct{}
}

// Manager is the ContainerManager: it owns the executor registry and
// the Docker containers backing each executor.
type Manager struct {
	mu sync.Mutex

	executors map[executor.Id]executor.Representer

	docker *DockerClient

	// imageByType maps a container type to the image run for its
	// executors.
	imageByType map[containertype.ContainerType]string

	listener Listener
}

// NewManager builds a Manager. docker may be nil in tests that never
// provision a real container (e.g. RegisterExisting is used instead).
func NewManager(docker *DockerClient, imageByType map[containertype.ContainerType]string) *Manager {
	return &Manager{
		executors:   make(map[executor.Id]executor.Representer),
		docker:      docker,
		imageByType: imageByType,
	}
}

// SetListener wires the scheduling policy so Manager can announce
// executor arrival/removal. Must be called before Provision/Stop.
func (m *Manager) SetListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listener = l
}

// GetExecutorRepresenterMap returns a snapshot of the live executor
// registry; this is the method the scheduling policy calls to refresh
// its cache.
func (m *Manager) GetExecutorRepresenterMap() map[executor.Id]executor.Representer {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[executor.Id]executor.Representer, len(m.executors))
	for id, rep := range m.executors {
		snapshot[id] = rep
	}
	return snapshot
}

// ProvisionExecutor launches a new Docker container of the image
// registered for t, registers the resulting executor, and notifies the
// listener. capacity is the executor's max concurrent task groups.
func (m *Manager) ProvisionExecutor(
	ctx context.Context, t containertype.ContainerType, capacity int,
) (*executor.Executor, error) {
	image, ok := m.imageByType[t]
	if !ok {
		return nil, fmt.Errorf("no executor image configured for container type %s", t)
	}

	id := executor.Id(fmt.Sprintf("%s-%s", t, randomSuffix()))
	exec := executor.NewExecutor(id, t, capacity)

	if m.docker != nil {
		containerID, address, err := m.docker.RunExecutor(ctx, string(id), image)
		if err != nil {
			return nil, fmt.Errorf("provisioning executor %s: %w", id, err)
		}
		exec.ContainerID = containerID
		exec.Address = address
	}

	m.RegisterExisting(exec)

	return exec, nil
}

// RegisterExisting adds an already-running executor to the registry and
// notifies the listener. Tests that don't want a real Docker daemon
// build an *executor.Executor directly and register it this way.
func (m *Manager) RegisterExisting(exec *executor.Executor) {
	m.mu.Lock()
	m.executors[exec.Id] = exec
	m.mu.Unlock()

	log.Printf("[containermgr] executor %s registered (%s, capacity %d)", exec.Id, exec.ContainerType(), exec.Capacity())

	if m.listener != nil {
		m.listener.OnExecutorAdded(exec.Id)
	}
}

// StopExecutor stops the backing Docker container (if any), deregisters
// the executor, and notifies the listener. It returns the task groups
// that were running on the executor so the caller can reschedule them.
//
// The executor is removed from this registry before the listener is
// told, so that by the time the policy refreshes its cache the removed
// executor is already gone.
func (m *Manager) StopExecutor(ctx context.Context, id executor.Id) (map[taskgroup.Id]struct{}, error) {
	m.mu.Lock()
	rep, ok := m.executors[id]
	if ok {
		delete(m.executors, id)
	}
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("executor %s is not registered", id)
	}

	if m.docker != nil {
		if exec, ok := rep.(*executor.Executor); ok && exec.ContainerID != "" {
			if err := m.docker.StopExecutor(ctx, exec.ContainerID); err != nil {
				log.Printf("[containermgr] error stopping container for executor %s: %v", id, err)
			}
		}
	}

	log.Printf("[containermgr] executor %s deregistered", id)

	if m.listener != nil {
		return m.listener.OnExecutorRemoved(id), nil
	}
	return nil, nil
}

// ReportStats records the latest resource snapshot an executor sent on
// heartbeat. It never affects scheduling: the round-robin policy only
// ever reads capacity and running-task-group counts.
func (m *Manager) ReportStats(id executor.Id, stats *executor.Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rep, ok := m.executors[id]; ok {
		if exec, ok := rep.(*executor.Executor); ok {
			exec.Stats = stats
		}
	}
}
