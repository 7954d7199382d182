package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
)

// Task is one unit of outbound sync work. EntityID is the order id for
// order tasks and the integration id for inventory tasks.
type Task struct {
	ID           string          `json:"id"`
	Kind         domain.TaskKind `json:"kind"`
	POSType      domain.POSType  `json:"posType"`
	RestaurantID string          `json:"restaurantId"`
	EntityID     string          `json:"entityId"`
	Attempt      int             `json:"attempt"`
	EnqueuedAt   time.Time       `json:"enqueuedAt"`

	// Status-update tasks carry the gateway's order id and raw status
	POSOrderID    string `json:"posOrderId,omitempty"`
	GatewayStatus string `json:"gatewayStatus,omitempty"`
}

// lockKey serializes tasks touching the same entity on the same gateway
func (t *Task) lockKey() string {
	return fmt.Sprintf("%s:%s", t.EntityID, t.POSType)
}

// Handler executes one attempt of a task kind
type Handler func(ctx context.Context, task *Task) error
