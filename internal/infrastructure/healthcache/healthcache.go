package healthcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/cache"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/logging"
)

// Health policy constants. TTLs and cooldowns are deliberately named
// configuration, not inline literals.
const (
	OrderCooldown          = 5 * time.Minute
	OrderEscalatedCooldown = 30 * time.Minute
	OrderRecordTTL         = 30 * time.Minute

	GenericCooldown  = 5 * time.Minute
	GenericRecordTTL = 1 * time.Hour

	// Failures at or above this count use the escalated cooldown
	EscalationThreshold = 3
)

// Policy fixes the cooldown and record TTL for one task kind
type Policy struct {
	Cooldown          time.Duration
	EscalatedCooldown time.Duration
	RecordTTL         time.Duration
}

// PolicyFor returns the health policy for a task kind
func PolicyFor(kind domain.TaskKind) Policy {
	switch kind {
	case domain.TaskOrderCreate, domain.TaskOrderStatus:
		return Policy{
			Cooldown:          OrderCooldown,
			EscalatedCooldown: OrderEscalatedCooldown,
			RecordTTL:         OrderRecordTTL,
		}
	default:
		return Policy{
			Cooldown:          GenericCooldown,
			EscalatedCooldown: GenericCooldown,
			RecordTTL:         GenericRecordTTL,
		}
	}
}

type healthRecord struct {
	Status       string    `json:"status"`
	FailedAt     time.Time `json:"failed_at"`
	LastError    string    `json:"last_error,omitempty"`
	FailureCount int       `json:"failure_count"`
}

// ConnectionHealth is the circuit-breaker signal consulted before every
// outbound gateway attempt. The cache entry is its only state; absence of
// a record, or any store error, reads as healthy (fail-open).
type ConnectionHealth struct {
	store  cache.Store
	logger *logging.Logger
	now    func() time.Time
}

// New creates a ConnectionHealth over the given store
func New(store cache.Store, logger *logging.Logger) *ConnectionHealth {
	return &ConnectionHealth{
		store:  store,
		logger: logger.WithComponent("healthcache"),
		now:    time.Now,
	}
}

// NewWithClock creates a ConnectionHealth with an injectable clock
func NewWithClock(store cache.Store, logger *logging.Logger, now func() time.Time) *ConnectionHealth {
	ch := New(store, logger)
	ch.now = now
	return ch
}

func healthKey(posType domain.POSType, restaurantID string) string {
	return fmt.Sprintf("pos:health:%s:%s", posType, restaurantID)
}

// IsHealthy reports whether the gateway should be attempted. False only
// when a failure record exists and its timestamp is within the policy's
// cooldown window.
func (c *ConnectionHealth) IsHealthy(ctx context.Context, posType domain.POSType, restaurantID string, policy Policy) bool {
	raw, err := c.store.Get(ctx, healthKey(posType, restaurantID))
	if err != nil {
		if err != cache.ErrNotFound {
			c.logger.WithError(err).Warn("Health cache read failed, treating as healthy",
				"posType", posType, "restaurantId", restaurantID)
		}
		return true
	}

	var record healthRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		c.logger.WithError(err).Warn("Corrupt health record, treating as healthy",
			"posType", posType, "restaurantId", restaurantID)
		return true
	}

	if record.Status != "failed" {
		return true
	}

	cooldown := policy.Cooldown
	if record.FailureCount >= EscalationThreshold {
		cooldown = policy.EscalatedCooldown
	}

	return c.now().Sub(record.FailedAt) >= cooldown
}

// RecordFailure writes a failure record with the policy's TTL. The failure
// count carries over from the previous record so repeated failures escalate.
func (c *ConnectionHealth) RecordFailure(ctx context.Context, posType domain.POSType, restaurantID string, cause error, policy Policy) {
	key := healthKey(posType, restaurantID)

	count := 1
	if raw, err := c.store.Get(ctx, key); err == nil {
		var prev healthRecord
		if json.Unmarshal([]byte(raw), &prev) == nil {
			count = prev.FailureCount + 1
		}
	}

	record := healthRecord{
		Status:       "failed",
		FailedAt:     c.now(),
		FailureCount: count,
	}
	if cause != nil {
		record.LastError = cause.Error()
	}

	raw, err := json.Marshal(record)
	if err != nil {
		c.logger.WithError(err).Error("Failed to marshal health record")
		return
	}

	if err := c.store.Set(ctx, key, string(raw), policy.RecordTTL); err != nil {
		c.logger.WithError(err).Warn("Health cache write failed",
			"posType", posType, "restaurantId", restaurantID)
	}
}

// RecordSuccess deletes the failure record so the next attempt is allowed
// immediately (clear-on-success policy).
func (c *ConnectionHealth) RecordSuccess(ctx context.Context, posType domain.POSType, restaurantID string) {
	if err := c.store.Delete(ctx, healthKey(posType, restaurantID)); err != nil {
		c.logger.WithError(err).Warn("Health cache delete failed",
			"posType", posType, "restaurantId", restaurantID)
	}
}
