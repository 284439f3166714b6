package sync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fbetancur/CrediSync360/events"
	"github.com/fbetancur/CrediSync360/models"
	"github.com/fbetancur/CrediSync360/service"
	log "github.com/sirupsen/logrus"
)

// ProcessorConfig carries the retry and batching knobs for the outbound queue
type ProcessorConfig struct {
	BatchSize      int
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Processor drains the outbound sync queue against the remote store.
// Items are tried in FIFO order; a failed item waits out an exponential
// backoff before its next attempt and moves to FAILED once retries are
// exhausted. Only one drain runs at a time.
type Processor struct {
	queue        service.SyncQueueRepository
	remote       service.RemoteStore
	connectivity service.ConnectivityChecker
	bus          *events.Bus
	cfg          ProcessorConfig

	draining atomic.Bool
	now      func() time.Time
}

// NewProcessor creates a new sync queue processor
func NewProcessor(
	queue service.SyncQueueRepository,
	remote service.RemoteStore,
	connectivity service.ConnectivityChecker,
	bus *events.Bus,
	cfg ProcessorConfig,
) *Processor {
	return &Processor{
		queue:        queue,
		remote:       remote,
		connectivity: connectivity,
		bus:          bus,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue appends an operation to the outbound queue. The write is local
// and durable; nothing touches the network here.
func (p *Processor) Enqueue(ctx context.Context, payload models.SyncPayload) (*models.SyncQueueItem, error) {
	item := &models.SyncQueueItem{
		Operation:  payload.Operation(),
		Payload:    payload,
		EnqueuedAt: p.now(),
		Status:     models.SyncStatusPending,
	}
	if err := p.queue.Append(ctx, item); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"queueId":   item.ID,
		"operation": item.Operation,
	}).Debug("Operation enqueued for sync")
	return item, nil
}

// Drain uploads pending items whose backoff has elapsed. Returns how many
// items were synced and how many moved to FAILED in this pass.
func (p *Processor) Drain(ctx context.Context) (synced, failed int, err error) {
	return p.drain(ctx, false)
}

// ForceSync uploads all pending items regardless of backoff state
func (p *Processor) ForceSync(ctx context.Context) (synced, failed int, err error) {
	return p.drain(ctx, true)
}

func (p *Processor) drain(ctx context.Context, ignoreBackoff bool) (int, int, error) {
	// Single-flight: a drain already in progress makes this call a no-op
	if !p.draining.CompareAndSwap(false, true) {
		return 0, 0, nil
	}
	defer p.draining.Store(false)

	if !p.connectivity.Online() {
		return 0, 0, nil
	}

	pending, err := p.queue.ListPending(ctx)
	if err != nil {
		return 0, 0, err
	}

	now := p.now()
	var eligible []*models.SyncQueueItem
	for _, item := range pending {
		if ignoreBackoff || p.backoffElapsed(item, now) {
			eligible = append(eligible, item)
		}
	}
	if len(eligible) == 0 {
		return 0, 0, nil
	}

	var (
		mu             sync.Mutex
		synced, failed int
	)
	for start := 0; start < len(eligible); start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > len(eligible) {
			end = len(eligible)
		}

		var wg sync.WaitGroup
		for _, item := range eligible[start:end] {
			wg.Add(1)
			go func(item *models.SyncQueueItem) {
				defer wg.Done()
				outcome := p.attempt(ctx, item)
				mu.Lock()
				switch outcome {
				case outcomeSynced:
					synced++
				case outcomeFailed:
					failed++
				}
				mu.Unlock()
			}(item)
		}
		wg.Wait()
	}

	if synced > 0 || failed > 0 {
		log.WithFields(log.Fields{
			"synced": synced,
			"failed": failed,
		}).Info("Sync drain pass completed")
		p.bus.Emit(ctx, events.SyncQueueChangedEvent{Synced: synced, Failed: failed})
	}
	return synced, failed, nil
}

// backoffElapsed reports whether an item's retry wait has passed. Delay
// doubles per attempt from the initial backoff up to the cap.
func (p *Processor) backoffElapsed(item *models.SyncQueueItem, now time.Time) bool {
	if item.RetryCount == 0 || item.LastAttemptAt == nil {
		return true
	}
	return now.Sub(*item.LastAttemptAt) >= p.backoffFor(item.RetryCount)
}

func (p *Processor) backoffFor(retryCount int) time.Duration {
	delay := p.cfg.InitialBackoff
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= p.cfg.MaxBackoff {
			return p.cfg.MaxBackoff
		}
	}
	return delay
}

type attemptOutcome int

const (
	outcomeSynced attemptOutcome = iota
	outcomeRetrying
	outcomeFailed
)

func (p *Processor) attempt(ctx context.Context, item *models.SyncQueueItem) attemptOutcome {
	err := p.dispatch(ctx, item.Payload)
	now := p.now()

	if err == nil {
		if markErr := p.queue.MarkSynced(ctx, item.ID, now); markErr != nil {
			log.WithError(markErr).WithField("queueId", item.ID).Error("Failed to mark queue item synced")
		}
		return outcomeSynced
	}

	retryCount := item.RetryCount + 1
	if retryCount >= p.cfg.MaxRetries {
		if markErr := p.queue.MarkFailed(ctx, item.ID, retryCount, err.Error(), now); markErr != nil {
			log.WithError(markErr).WithField("queueId", item.ID).Error("Failed to mark queue item failed")
		}
		log.WithFields(log.Fields{
			"queueId":   item.ID,
			"operation": item.Operation,
			"retries":   retryCount,
		}).WithError(err).Error("Queue item exhausted retries")
		return outcomeFailed
	}

	if markErr := p.queue.MarkRetry(ctx, item.ID, retryCount, err.Error(), now); markErr != nil {
		log.WithError(markErr).WithField("queueId", item.ID).Error("Failed to record queue item retry")
	}
	log.WithFields(log.Fields{
		"queueId":   item.ID,
		"operation": item.Operation,
		"retry":     retryCount,
	}).WithError(err).Warn("Queue item attempt failed, will retry")
	return outcomeRetrying
}

// dispatch maps a payload onto remote store calls. The credit payload is
// compound: the credit plus each installment as separate calls, with no
// atomicity across them.
func (p *Processor) dispatch(ctx context.Context, payload models.SyncPayload) error {
	switch pl := payload.(type) {
	case models.CreateRoutePayload:
		return p.remote.CreateRoute(ctx, &pl.Route)
	case models.CreateClientPayload:
		return p.remote.CreateClient(ctx, &pl.Client)
	case models.CreateCreditPayload:
		if err := p.remote.CreateCredit(ctx, &pl.Credit); err != nil {
			return err
		}
		for i := range pl.Installments {
			if err := p.remote.CreateInstallment(ctx, &pl.Installments[i]); err != nil {
				return fmt.Errorf("credit %s uploaded but installment %d failed: %w",
					pl.Credit.ID, pl.Installments[i].Number, err)
			}
		}
		return nil
	case models.CreatePaymentPayload:
		return p.remote.CreatePayment(ctx, &pl.Payment)
	case models.CreateClosingPayload:
		return p.remote.CreateCashClosing(ctx, &pl.Closing)
	case models.CreateMovementPayload:
		return p.remote.CreateCashMovement(ctx, &pl.Movement)
	default:
		return fmt.Errorf("no dispatcher for payload %T", payload)
	}
}

// Stats returns queue item counts per status
func (p *Processor) Stats(ctx context.Context) (map[models.SyncStatus]int, error) {
	return p.queue.CountByStatus(ctx)
}

// FailedItems returns items that exhausted their retries
func (p *Processor) FailedItems(ctx context.Context) ([]*models.SyncQueueItem, error) {
	return p.queue.ListFailed(ctx)
}

// RetryFailed puts FAILED items back in the queue with fresh retry budgets
func (p *Processor) RetryFailed(ctx context.Context) (int, error) {
	n, err := p.queue.ResetFailed(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.WithField("count", n).Info("Failed queue items reset to pending")
	}
	return n, nil
}

// CleanupSynced deletes synced items older than the retention window
func (p *Processor) CleanupSynced(ctx context.Context, retention time.Duration) (int, error) {
	return p.queue.DeleteSyncedBefore(ctx, p.now().Add(-retention))
}
