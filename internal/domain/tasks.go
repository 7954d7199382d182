package domain

import "time"

// TaskKind identifies one of the four outbound sync task types
type TaskKind string

const (
	TaskOrderCreate   TaskKind = "order_create"
	TaskOrderStatus   TaskKind = "order_status"
	TaskPaymentSync   TaskKind = "payment_sync"
	TaskInventorySync TaskKind = "inventory_sync"
)

// Lane is a worker-pool priority lane
type Lane string

const (
	LaneHigh    Lane = "high"
	LaneDefault Lane = "default"
	LaneLow     Lane = "low"
)

// TaskPolicy fixes the retry behavior of a task kind: an explicit
// per-attempt delay table rather than a computed exponential curve.
type TaskPolicy struct {
	Kind           TaskKind
	MaxAttempts    int
	Backoff        []time.Duration
	AttemptTimeout time.Duration
	Lane           Lane
}

// Delay returns the wait before the given attempt (1-based; attempt 1 runs
// immediately, attempt 2 waits Backoff[0], and so on). Attempts beyond the
// table reuse the last entry.
func (p TaskPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 || len(p.Backoff) == 0 {
		return 0
	}
	idx := attempt - 2
	if idx >= len(p.Backoff) {
		idx = len(p.Backoff) - 1
	}
	return p.Backoff[idx]
}

var orderBackoff = []time.Duration{
	60 * time.Second,
	180 * time.Second,
	300 * time.Second,
	600 * time.Second,
	1200 * time.Second,
}

var inventoryBackoff = []time.Duration{
	300 * time.Second,
	900 * time.Second,
	1800 * time.Second,
}

// TaskPolicies holds the fixed schedule for every task kind
var TaskPolicies = map[TaskKind]TaskPolicy{
	TaskOrderCreate: {
		Kind:           TaskOrderCreate,
		MaxAttempts:    5,
		Backoff:        orderBackoff,
		AttemptTimeout: 120 * time.Second,
		Lane:           LaneHigh,
	},
	TaskOrderStatus: {
		Kind:           TaskOrderStatus,
		MaxAttempts:    5,
		Backoff:        orderBackoff,
		AttemptTimeout: 120 * time.Second,
		Lane:           LaneDefault,
	},
	TaskPaymentSync: {
		Kind:           TaskPaymentSync,
		MaxAttempts:    5,
		Backoff:        orderBackoff,
		AttemptTimeout: 120 * time.Second,
		Lane:           LaneHigh,
	},
	TaskInventorySync: {
		Kind:           TaskInventorySync,
		MaxAttempts:    3,
		Backoff:        inventoryBackoff,
		AttemptTimeout: 120 * time.Second,
		Lane:           LaneLow,
	},
}

// PolicyFor returns the policy for a task kind
func PolicyFor(kind TaskKind) TaskPolicy {
	return TaskPolicies[kind]
}
