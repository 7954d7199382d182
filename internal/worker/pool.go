package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/internal/infrastructure/healthcache"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/errors"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/logging"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/metrics"
)

// Config holds worker pool configuration
type Config struct {
	// Workers per priority lane
	HighWorkers    int
	DefaultWorkers int
	LowWorkers     int

	// QueueSize is the per-lane channel buffer
	QueueSize int
}

// DefaultConfig returns the default pool sizing
func DefaultConfig() Config {
	return Config{
		HighWorkers:    4,
		DefaultWorkers: 4,
		LowWorkers:     2,
		QueueSize:      256,
	}
}

// Pool runs sync tasks on three priority lanes. Each lane has dedicated
// workers, so a backlog of inventory syncs never delays order pushes.
// Retries happen in-place on the worker that owns the task: the fixed
// delay table is short enough that parking the goroutine is simpler and
// safer than re-enqueueing.
type Pool struct {
	config    Config
	handlers  map[domain.TaskKind]Handler
	lanes     map[domain.Lane]chan *Task
	keys      *keyedMutex
	health    *healthcache.ConnectionHealth
	syncState *healthcache.SyncState
	notifier  domain.NotificationSender
	audit     domain.AuditLogger
	logger    *logging.Logger
	metrics   *metrics.Metrics

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// sleep waits for a retry delay; returns false when the pool is
	// shutting down. Replaced with a no-op in tests.
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewPool creates a worker pool; handlers are registered before Start
func NewPool(
	config Config,
	health *healthcache.ConnectionHealth,
	syncState *healthcache.SyncState,
	notifier domain.NotificationSender,
	audit domain.AuditLogger,
	logger *logging.Logger,
	m *metrics.Metrics,
) *Pool {
	p := &Pool{
		config:   config,
		handlers: make(map[domain.TaskKind]Handler),
		lanes: map[domain.Lane]chan *Task{
			domain.LaneHigh:    make(chan *Task, config.QueueSize),
			domain.LaneDefault: make(chan *Task, config.QueueSize),
			domain.LaneLow:     make(chan *Task, config.QueueSize),
		},
		keys:      newKeyedMutex(),
		health:    health,
		syncState: syncState,
		notifier:  notifier,
		audit:     audit,
		logger:    logger.WithComponent("worker-pool"),
		metrics:   m,
		stopCh:    make(chan struct{}),
	}
	p.sleep = p.waitFor
	return p
}

// Register binds a handler to a task kind
func (p *Pool) Register(kind domain.TaskKind, handler Handler) {
	p.handlers[kind] = handler
}

// Start launches the lane workers
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("worker pool is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})

	laneWorkers := map[domain.Lane]int{
		domain.LaneHigh:    p.config.HighWorkers,
		domain.LaneDefault: p.config.DefaultWorkers,
		domain.LaneLow:     p.config.LowWorkers,
	}

	for lane, count := range laneWorkers {
		for i := 0; i < count; i++ {
			p.wg.Add(1)
			go p.worker(ctx, lane, p.stopCh)
		}
	}

	p.logger.Info("Worker pool started",
		"highWorkers", p.config.HighWorkers,
		"defaultWorkers", p.config.DefaultWorkers,
		"lowWorkers", p.config.LowWorkers,
	)
	return nil
}

// Stop drains the pool: in-flight attempts finish, pending retries abort
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

// IsRunning reports whether the pool is accepting tasks
func (p *Pool) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Enqueue routes a task to its policy lane. A task whose entity carries a
// live sync-succeeded flag is acknowledged without dispatching: the work
// already happened and an immediate replay would be a pure duplicate.
func (p *Pool) Enqueue(ctx context.Context, task *Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Attempt == 0 {
		task.Attempt = 1
	}
	task.EnqueuedAt = time.Now()

	if _, ok := p.handlers[task.Kind]; !ok {
		return fmt.Errorf("no handler registered for task kind %s", task.Kind)
	}

	if suppressWhenRecentlySynced(task.Kind) &&
		p.syncState.RecentlySucceeded(ctx, task.Kind, task.POSType, task.EntityID) {
		p.logger.Debug("Suppressed duplicate dispatch; entity recently synced",
			"taskKind", task.Kind, "posType", task.POSType, "entityId", task.EntityID)
		return nil
	}

	policy := domain.PolicyFor(task.Kind)
	lane := p.lanes[policy.Lane]

	p.mu.Lock()
	stopCh := p.stopCh
	p.mu.Unlock()

	select {
	case lane <- task:
		p.metrics.SetSyncQueueDepth(string(policy.Lane), len(lane))
		return nil
	case <-stopCh:
		return fmt.Errorf("worker pool is shutting down")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// suppressWhenRecentlySynced reports whether a live success flag makes a
// re-dispatch redundant. Order and payment pushes replay the same state,
// so they are suppressed; status updates carry new information and
// inventory syncs are manual triggers, so they always run.
func suppressWhenRecentlySynced(kind domain.TaskKind) bool {
	return kind == domain.TaskOrderCreate || kind == domain.TaskPaymentSync
}

func (p *Pool) worker(ctx context.Context, lane domain.Lane, stopCh <-chan struct{}) {
	defer p.wg.Done()

	queue := p.lanes[lane]
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case task := <-queue:
			p.metrics.SetSyncQueueDepth(string(lane), len(queue))
			p.runTask(ctx, task)
		}
	}
}

// runTask drives a task through its retry schedule. Tasks touching the
// same entity on the same gateway are serialized.
func (p *Pool) runTask(ctx context.Context, task *Task) {
	unlock := p.keys.Lock(task.lockKey())
	defer unlock()

	policy := domain.PolicyFor(task.Kind)
	healthPolicy := healthcache.PolicyFor(task.Kind)
	handler := p.handlers[task.Kind]

	for attempt := task.Attempt; ; attempt++ {
		if delay := policy.Delay(attempt); delay > 0 {
			if !p.sleep(ctx, delay) {
				return
			}
		}

		err := p.attempt(ctx, task, handler, policy, healthPolicy, attempt)
		if err == nil {
			p.syncState.MarkSucceeded(ctx, task.Kind, task.POSType, task.EntityID)
			return
		}

		if !errors.IsRetryable(err) {
			p.handlePermanentFailure(ctx, task, attempt, err)
			return
		}

		if attempt >= policy.MaxAttempts {
			p.exhaust(ctx, task, attempt, err)
			return
		}

		p.syncState.MarkFailed(ctx, task.Kind, task.POSType, task.EntityID)
	}
}

func (p *Pool) attempt(ctx context.Context, task *Task, handler Handler, policy domain.TaskPolicy, healthPolicy healthcache.Policy, attempt int) error {
	if !p.health.IsHealthy(ctx, task.POSType, task.RestaurantID, healthPolicy) {
		// Gateway is cooling down; skipping still consumes an attempt so
		// a dead gateway cannot hold tasks forever.
		p.metrics.RecordSyncTaskAttempt(string(task.Kind), string(task.POSType), false, 0)
		p.logger.SyncTask(ctx, string(task.Kind), string(task.POSType), attempt, false, 0)
		return errors.ErrServiceUnavailable(fmt.Sprintf("gateway %s", task.POSType))
	}

	attemptCtx, cancel := context.WithTimeout(ctx, policy.AttemptTimeout)
	defer cancel()

	start := time.Now()
	err := handler(attemptCtx, task)
	duration := time.Since(start)

	p.metrics.RecordSyncTaskAttempt(string(task.Kind), string(task.POSType), err == nil, duration)
	p.logger.SyncTask(ctx, string(task.Kind), string(task.POSType), attempt, err == nil, duration)

	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded {
			err = errors.ErrTimeout(string(task.Kind)).Wrap(err)
		}
		p.health.RecordFailure(ctx, task.POSType, task.RestaurantID, err, healthPolicy)
		return err
	}

	p.health.RecordSuccess(ctx, task.POSType, task.RestaurantID)
	return nil
}

// handlePermanentFailure deals with non-retryable errors. A missing entity
// means the task outlived its subject; it is discarded quietly. Everything
// else is terminal and alerts like an exhausted budget.
func (p *Pool) handlePermanentFailure(ctx context.Context, task *Task, attempt int, err error) {
	if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.CodeNotFound {
		p.logger.Debug("Discarding task for missing entity",
			"taskId", task.ID, "taskKind", task.Kind, "entityId", task.EntityID)
		return
	}

	p.exhaust(ctx, task, attempt, err)
}

// exhaust records a terminal failure: the entity is flagged for the
// restaurant-facing status, the audit trail gets a critical entry and
// on-call gets an alert.
func (p *Pool) exhaust(ctx context.Context, task *Task, attempt int, err error) {
	p.syncState.MarkTerminalFailure(ctx, task.Kind, task.POSType, task.EntityID)
	p.metrics.RecordSyncTaskExhausted(string(task.Kind), string(task.POSType))

	details := map[string]any{
		"taskKind":     string(task.Kind),
		"posType":      string(task.POSType),
		"restaurantId": task.RestaurantID,
		"entityId":     task.EntityID,
		"attempts":     attempt,
		"error":        err.Error(),
	}

	p.audit.Critical(ctx, "sync.task.exhausted", "task", task.ID, details)

	if alertErr := p.notifier.SendSyncAlert(ctx, "sync task exhausted retry budget", details); alertErr != nil {
		p.logger.WithError(alertErr).Warn("Failed to send exhaustion alert", "taskId", task.ID)
	}

	p.logger.Error("Sync task failed permanently",
		"taskId", task.ID,
		"taskKind", task.Kind,
		"posType", task.POSType,
		"entityId", task.EntityID,
		"attempts", attempt,
		"error", err.Error(),
	)
}

// waitFor blocks for d or until shutdown; false means abort
func (p *Pool) waitFor(ctx context.Context, d time.Duration) bool {
	p.mu.Lock()
	stopCh := p.stopCh
	p.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}
