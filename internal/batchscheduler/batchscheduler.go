// Package batchscheduler is the BatchScheduler collaborator: it drives
// the scheduling policy, owns the pending task-group queue, dispatches
// placed task groups over the transport, and reconciles completion and
// failure by polling each executor.
package batchscheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/golang-collections/collections/queue"
	"github.com/google/uuid"

	"github.com/haesookim/incubator-nemo/internal/audit"
	"github.com/haesookim/incubator-nemo/internal/executor"
	"github.com/haesookim/incubator-nemo/internal/scheduler"
	"github.com/haesookim/incubator-nemo/internal/taskgroup"
	"github.com/haesookim/incubator-nemo/internal/transport"
)

// ExecutorLocator resolves an executor id to its representer, so the
// scheduler can find the address to dispatch to. containermgr.Manager
// satisfies this via its representer map.
type ExecutorLocator interface {
	GetExecutorRepresenterMap() map[executor.Id]executor.Representer
}

// BatchScheduler drives a scheduler.Policy: it repeatedly calls
// AttemptSchedule for whatever is pending, dispatches a hit over the
// transport, and re-enqueues a miss.
type BatchScheduler struct {
	Policy    scheduler.Policy
	Locator   ExecutorLocator
	Transport transport.Client
	Audit     audit.Store

	pending *queue.Queue

	mu         sync.Mutex
	dispatched map[taskgroup.Id]dispatchedEntry
}

type dispatchedEntry struct {
	stg        taskgroup.ScheduledTaskGroup
	executorId executor.Id
}

// New builds a BatchScheduler around an already-constructed policy.
func New(policy scheduler.Policy, locator ExecutorLocator, transportClient transport.Client, auditStore audit.Store) *BatchScheduler {
	return &BatchScheduler{
		Policy:     policy,
		Locator:    locator,
		Transport:  transportClient,
		Audit:      auditStore,
		pending:    queue.New(),
		dispatched: make(map[taskgroup.Id]dispatchedEntry),
	}
}

// Submit enqueues a brand-new task group for scheduling.
func (b *BatchScheduler) Submit(tg taskgroup.TaskGroup) {
	b.enqueue(taskgroup.ScheduledTaskGroup{
		TaskGroup: tg,
		Attempt:   taskgroup.DispatchAttempt{AttemptNumber: 1, EnqueuedAt: time.Now()},
	})

	log.Printf("[batchscheduler] submitted task group %s (%s)", tg.TaskGroupId, tg.RequiredContainerType)
}

func (b *BatchScheduler) enqueue(stg taskgroup.ScheduledTaskGroup) {
	b.pending.Enqueue(stg)
}

// Run processes the pending queue until ctx is cancelled, sleeping
// backoff between an empty queue check or a scheduling miss.
func (b *BatchScheduler) Run(ctx context.Context, backoff time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if b.pending.Len() == 0 {
			sleep(ctx, backoff)
			continue
		}

		stg := b.pending.Dequeue().(taskgroup.ScheduledTaskGroup)

		if !b.attemptDispatch(stg) {
			stg.Attempt.AttemptNumber++
			b.enqueue(stg)
			sleep(ctx, backoff)
		}
	}
}

// attemptDispatch tries to place and dispatch stg, returning whether it
// succeeded.
func (b *BatchScheduler) attemptDispatch(stg taskgroup.ScheduledTaskGroup) bool {
	id, ok, err := b.Policy.AttemptSchedule(stg)
	if err != nil {
		log.Printf("[batchscheduler] error scheduling task group %s: %v", stg.TaskGroup.TaskGroupId, err)
		b.record(stg, "", audit.OutcomeFailed)
		return false
	}
	if !ok {
		b.record(stg, "", audit.OutcomeTimedOut)
		return false
	}

	address, ok := b.addressOf(id)
	if !ok {
		log.Printf("[batchscheduler] executor %s has no known address, skipping dispatch", id)
		return false
	}

	if err := b.Transport.Dispatch(address, stg); err != nil {
		log.Printf("[batchscheduler] error dispatching task group %s to %s: %v", stg.TaskGroup.TaskGroupId, id, err)
		return false
	}

	b.Policy.OnTaskGroupScheduled(id, stg)
	b.trackDispatched(stg, id)
	b.record(stg, id, audit.OutcomeDispatched)

	log.Printf("[batchscheduler] dispatched task group %s to executor %s", stg.TaskGroup.TaskGroupId, id)

	return true
}

func (b *BatchScheduler) trackDispatched(stg taskgroup.ScheduledTaskGroup, id executor.Id) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dispatched[stg.TaskGroup.TaskGroupId] = dispatchedEntry{stg: stg, executorId: id}
}

func (b *BatchScheduler) forgetDispatched(id taskgroup.Id) (dispatchedEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.dispatched[id]
	if ok {
		delete(b.dispatched, id)
	}
	return entry, ok
}

func (b *BatchScheduler) addressOf(id executor.Id) (string, bool) {
	rep, ok := b.Locator.GetExecutorRepresenterMap()[id]
	if !ok {
		return "", false
	}
	exec, ok := rep.(*executor.Executor)
	if !ok || exec.Address == "" {
		return "", false
	}
	return exec.Address, true
}

func (b *BatchScheduler) record(stg taskgroup.ScheduledTaskGroup, execId executor.Id, outcome audit.Outcome) {
	if b.Audit == nil {
		return
	}

	record := &audit.Record{
		Id:            audit.Id(uuid.New().String()),
		TaskGroupId:   stg.TaskGroup.TaskGroupId,
		ExecutorId:    execId,
		AttemptNumber: stg.Attempt.AttemptNumber,
		Outcome:       outcome,
		Timestamp:     time.Now(),
	}

	if err := b.Audit.Put(record); err != nil {
		log.Printf("[batchscheduler] error recording audit entry for %s: %v", stg.TaskGroup.TaskGroupId, err)
	}
}

// Reconcile polls address for task-group status changes and reports
// completions/failures to the policy, requeuing failed task groups with
// their original TaskGroup (container type, job id) restored from the
// dispatched-tracking map.
func (b *BatchScheduler) Reconcile(id executor.Id, address string) {
	statuses, err := b.Transport.ListStatuses(address)
	if err != nil {
		log.Printf("[batchscheduler] error polling executor %s: %v", id, err)
		return
	}

	for _, status := range statuses {
		switch status.State {
		case taskgroup.Completed:
			if _, ok := b.forgetDispatched(status.TaskGroupId); ok {
				b.Policy.OnTaskGroupExecutionComplete(id, status.TaskGroupId)
			}
		case taskgroup.Failed:
			entry, ok := b.forgetDispatched(status.TaskGroupId)
			if !ok {
				continue
			}
			b.Policy.OnTaskGroupExecutionFailed(id, status.TaskGroupId)
			log.Printf("[batchscheduler] task group %s failed on %s, requeuing", status.TaskGroupId, id)
			b.requeue(entry.stg)
		}
	}
}

// RescheduleOrphans re-enqueues task groups that were running on a
// removed executor, as returned by scheduler.Policy.OnExecutorRemoved.
func (b *BatchScheduler) RescheduleOrphans(orphans map[taskgroup.Id]struct{}) {
	for id := range orphans {
		entry, ok := b.forgetDispatched(id)
		if !ok {
			log.Printf("[batchscheduler] orphaned task group %s has no known original request, dropping", id)
			continue
		}
		log.Printf("[batchscheduler] rescheduling orphaned task group %s", id)
		b.requeue(entry.stg)
	}
}

func (b *BatchScheduler) requeue(stg taskgroup.ScheduledTaskGroup) {
	stg.Attempt.AttemptNumber++
	stg.Attempt.EnqueuedAt = time.Now()
	b.enqueue(stg)
}

// PendingCount reports the number of task groups waiting to be
// scheduled; used by the debug HTTP surface.
func (b *BatchScheduler) PendingCount() int {
	return b.pending.Len()
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
