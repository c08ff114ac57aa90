// Package taskgroup holds the data types the scheduling policy dispatches:
// TaskGroup and the dispatch-metadata wrapper ScheduledTaskGroup.
package taskgroup

import (
	"time"

	"github.com/google/uuid"

	"github.com/haesookim/incubator-nemo/internal/containertype"
)

// Id uniquely identifies a task group.
type Id string

// NewId mints a fresh, random task group id.
func NewId() Id {
	return Id(uuid.New().String())
}

// TaskGroup is the smallest unit of scheduling: a bundle of tasks
// dispatched together to one executor.
type TaskGroup struct {
	TaskGroupId Id

	// RequiredContainerType may be containertype.Any, meaning the
	// scheduling policy may place this task group on any executor.
	RequiredContainerType containertype.ContainerType

	JobId string
}

// DispatchAttempt is metadata the scheduling policy never inspects; it
// exists purely for BatchScheduler bookkeeping (retries, audit trail).
type DispatchAttempt struct {
	AttemptNumber int
	EnqueuedAt    time.Time
}

// ScheduledTaskGroup pairs a TaskGroup with its dispatch metadata. The
// scheduling policy only ever reads TaskGroup; Attempt is opaque to it.
type ScheduledTaskGroup struct {
	TaskGroup TaskGroup
	Attempt   DispatchAttempt
}
