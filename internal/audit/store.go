// Package audit records a trail of scheduling decisions for operators.
// This is explicitly not scheduler state: SchedulingPolicy never reads
// from or writes to an audit Store, and nothing here is replayed back
// into the policy's in-memory registry on restart.
package audit

import (
	"time"

	"github.com/haesookim/incubator-nemo/internal/executor"
	"github.com/haesookim/incubator-nemo/internal/taskgroup"
)

// Outcome is what happened to one AttemptSchedule call.
type Outcome string

const (
	OutcomeDispatched Outcome = "dispatched"
	OutcomeTimedOut   Outcome = "timed_out"
	OutcomeFailed     Outcome = "failed"
)

// Record is one audited scheduling decision.
type Record struct {
	Id Id

	TaskGroupId   taskgroup.Id
	ExecutorId    executor.Id
	AttemptNumber int
	Outcome       Outcome
	Timestamp     time.Time
}

// Id uniquely identifies a Record.
type Id string

// Store persists dispatch Records. BoltStore backs production use,
// MemoryStore backs tests.
type Store interface {
	Put(record *Record) error
	Get(id Id) (*Record, error)
	List() ([]*Record, error)
}
