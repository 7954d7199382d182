package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskPolicyDelay(t *testing.T) {
	policy := PolicyFor(TaskOrderCreate)

	// Attempt 1 runs immediately; later attempts walk the backoff table
	assert.Equal(t, time.Duration(0), policy.Delay(1))
	assert.Equal(t, 60*time.Second, policy.Delay(2))
	assert.Equal(t, 180*time.Second, policy.Delay(3))
	assert.Equal(t, 300*time.Second, policy.Delay(4))
	assert.Equal(t, 600*time.Second, policy.Delay(5))

	// Beyond the table, the last entry repeats
	assert.Equal(t, 1200*time.Second, policy.Delay(6))
	assert.Equal(t, 1200*time.Second, policy.Delay(20))

	// Degenerate inputs never wait
	assert.Equal(t, time.Duration(0), policy.Delay(0))
	assert.Equal(t, time.Duration(0), policy.Delay(-1))
}

func TestTaskPolicyDelayEmptyBackoff(t *testing.T) {
	policy := TaskPolicy{Kind: "adhoc", MaxAttempts: 2}
	assert.Equal(t, time.Duration(0), policy.Delay(2))
}

func TestPolicyForCoversAllKinds(t *testing.T) {
	for _, kind := range []TaskKind{TaskOrderCreate, TaskOrderStatus, TaskPaymentSync, TaskInventorySync} {
		policy := PolicyFor(kind)
		assert.Equal(t, kind, policy.Kind)
		assert.Greater(t, policy.MaxAttempts, 0)
		assert.NotEmpty(t, policy.Backoff)
		assert.NotEmpty(t, string(policy.Lane))
	}
}

func TestPolicyLanesAndBudgets(t *testing.T) {
	assert.Equal(t, LaneHigh, PolicyFor(TaskOrderCreate).Lane)
	assert.Equal(t, LaneDefault, PolicyFor(TaskOrderStatus).Lane)
	assert.Equal(t, LaneHigh, PolicyFor(TaskPaymentSync).Lane)
	assert.Equal(t, LaneLow, PolicyFor(TaskInventorySync).Lane)

	assert.Equal(t, 5, PolicyFor(TaskOrderCreate).MaxAttempts)
	assert.Equal(t, 3, PolicyFor(TaskInventorySync).MaxAttempts)
}
