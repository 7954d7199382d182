package healthcache

import (
	"context"
	"fmt"
	"time"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/cache"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/logging"
)

// Sync-state flag TTLs. Success entries suppress duplicate immediate
// re-dispatch; failure entries feed the restaurant-facing "disconnected"
// status.
const (
	SyncSucceededTTL       = 45 * time.Minute
	SyncFailedTTL          = 90 * time.Minute
	SyncTerminalFailureTTL = 2 * time.Hour
)

// SyncState records short-lived per-(task, order/entity, gateway) outcome
// flags in the TTL store.
type SyncState struct {
	store  cache.Store
	logger *logging.Logger
}

// NewSyncState creates a SyncState over the given store
func NewSyncState(store cache.Store, logger *logging.Logger) *SyncState {
	return &SyncState{
		store:  store,
		logger: logger.WithComponent("syncstate"),
	}
}

func syncStateKey(kind domain.TaskKind, posType domain.POSType, entityID string) string {
	return fmt.Sprintf("pos:sync:%s:%s:%s", kind, posType, entityID)
}

// MarkSucceeded writes a sync-succeeded flag
func (s *SyncState) MarkSucceeded(ctx context.Context, kind domain.TaskKind, posType domain.POSType, entityID string) {
	s.write(ctx, syncStateKey(kind, posType, entityID), "succeeded", SyncSucceededTTL)
}

// MarkFailed writes a sync-failed flag
func (s *SyncState) MarkFailed(ctx context.Context, kind domain.TaskKind, posType domain.POSType, entityID string) {
	s.write(ctx, syncStateKey(kind, posType, entityID), "failed", SyncFailedTTL)
}

// MarkTerminalFailure writes a sync-failed flag with the long TTL, used
// after the attempt budget is exhausted
func (s *SyncState) MarkTerminalFailure(ctx context.Context, kind domain.TaskKind, posType domain.POSType, entityID string) {
	s.write(ctx, syncStateKey(kind, posType, entityID), "failed_terminal", SyncTerminalFailureTTL)
}

// RecentlySucceeded reports whether a success flag is still live
func (s *SyncState) RecentlySucceeded(ctx context.Context, kind domain.TaskKind, posType domain.POSType, entityID string) bool {
	val, err := s.store.Get(ctx, syncStateKey(kind, posType, entityID))
	return err == nil && val == "succeeded"
}

func (s *SyncState) write(ctx context.Context, key, value string, ttl time.Duration) {
	if err := s.store.Set(ctx, key, value, ttl); err != nil {
		s.logger.WithError(err).Warn("Sync state write failed", "key", key)
	}
}
