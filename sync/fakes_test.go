package sync

import (
	"context"
	"sync"
	"time"

	"github.com/fbetancur/CrediSync360/models"
	"github.com/fbetancur/CrediSync360/service"
)

// memQueue is an in-memory SyncQueueRepository for processor tests
type memQueue struct {
	mu     sync.Mutex
	items  []*models.SyncQueueItem
	nextID int64
}

func newMemQueue() *memQueue {
	return &memQueue{nextID: 1}
}

func (q *memQueue) Append(ctx context.Context, item *models.SyncQueueItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	item.ID = q.nextID
	q.nextID++
	stored := *item
	q.items = append(q.items, &stored)
	return nil
}

func (q *memQueue) Get(ctx context.Context, id int64) (*models.SyncQueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, item := range q.items {
		if item.ID == id {
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

func (q *memQueue) ListPending(ctx context.Context) ([]*models.SyncQueueItem, error) {
	return q.listByStatus(models.SyncStatusPending), nil
}

func (q *memQueue) ListFailed(ctx context.Context) ([]*models.SyncQueueItem, error) {
	return q.listByStatus(models.SyncStatusFailed), nil
}

func (q *memQueue) listByStatus(status models.SyncStatus) []*models.SyncQueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*models.SyncQueueItem
	for _, item := range q.items {
		if item.Status == status {
			copied := *item
			out = append(out, &copied)
		}
	}
	return out
}

func (q *memQueue) MarkSynced(ctx context.Context, id int64, at time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, item := range q.items {
		if item.ID == id {
			item.Status = models.SyncStatusSynced
			item.SyncedAt = &at
			item.LastAttemptAt = &at
			item.LastError = ""
		}
	}
	return nil
}

func (q *memQueue) MarkRetry(ctx context.Context, id int64, retryCount int, lastError string, at time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, item := range q.items {
		if item.ID == id {
			item.RetryCount = retryCount
			item.LastError = lastError
			item.LastAttemptAt = &at
		}
	}
	return nil
}

func (q *memQueue) MarkFailed(ctx context.Context, id int64, retryCount int, lastError string, at time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, item := range q.items {
		if item.ID == id {
			item.Status = models.SyncStatusFailed
			item.RetryCount = retryCount
			item.LastError = lastError
			item.LastAttemptAt = &at
		}
	}
	return nil
}

func (q *memQueue) CountByStatus(ctx context.Context) (map[models.SyncStatus]int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	counts := make(map[models.SyncStatus]int)
	for _, item := range q.items {
		counts[item.Status]++
	}
	return counts, nil
}

func (q *memQueue) ResetFailed(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, item := range q.items {
		if item.Status == models.SyncStatusFailed {
			item.Status = models.SyncStatusPending
			item.RetryCount = 0
			item.LastError = ""
			item.LastAttemptAt = nil
			n++
		}
	}
	return n, nil
}

func (q *memQueue) DeleteSyncedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var kept []*models.SyncQueueItem
	removed := 0
	for _, item := range q.items {
		if item.Status == models.SyncStatusSynced && item.SyncedAt != nil && item.SyncedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	q.items = kept
	return removed, nil
}

// fakeRemote records every create call in order and can be told to fail
// per entity kind
type fakeRemote struct {
	mu    sync.Mutex
	calls []string
	errs  map[string]error

	routes       []*models.Route
	products     []*models.CreditProduct
	clients      []*models.Client
	credits      []*models.Credit
	installments []*models.Installment
	payments     []*models.Payment
	listErrs     map[string]error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		errs:     make(map[string]error),
		listErrs: make(map[string]error),
	}
}

func (f *fakeRemote) create(kind, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[kind]; err != nil {
		return err
	}
	f.calls = append(f.calls, kind+":"+id)
	return nil
}

func (f *fakeRemote) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeRemote) CreateRoute(ctx context.Context, r *models.Route) error {
	return f.create("route", r.ID)
}

func (f *fakeRemote) CreateClient(ctx context.Context, c *models.Client) error {
	return f.create("client", c.ID)
}

func (f *fakeRemote) CreateCredit(ctx context.Context, c *models.Credit) error {
	return f.create("credit", c.ID)
}

func (f *fakeRemote) CreateInstallment(ctx context.Context, i *models.Installment) error {
	return f.create("installment", i.ID)
}

func (f *fakeRemote) CreatePayment(ctx context.Context, p *models.Payment) error {
	return f.create("payment", p.ID)
}

func (f *fakeRemote) CreateCashClosing(ctx context.Context, c *models.CashClosing) error {
	return f.create("closing", c.ID)
}

func (f *fakeRemote) CreateCashMovement(ctx context.Context, m *models.CashMovement) error {
	return f.create("movement", m.ID)
}

func (f *fakeRemote) ListRoutes(ctx context.Context, filter service.RemoteFilter) ([]*models.Route, error) {
	return f.routes, f.listErrs["route"]
}

func (f *fakeRemote) ListProducts(ctx context.Context, filter service.RemoteFilter) ([]*models.CreditProduct, error) {
	return f.products, f.listErrs["product"]
}

func (f *fakeRemote) ListClients(ctx context.Context, filter service.RemoteFilter) ([]*models.Client, error) {
	return f.clients, f.listErrs["client"]
}

func (f *fakeRemote) ListCredits(ctx context.Context, filter service.RemoteFilter) ([]*models.Credit, error) {
	return f.credits, f.listErrs["credit"]
}

func (f *fakeRemote) ListInstallments(ctx context.Context, filter service.RemoteFilter) ([]*models.Installment, error) {
	return f.installments, f.listErrs["installment"]
}

func (f *fakeRemote) ListPayments(ctx context.Context, filter service.RemoteFilter) ([]*models.Payment, error) {
	return f.payments, f.listErrs["payment"]
}

type fakeConnectivity struct {
	online bool
}

func (f *fakeConnectivity) Online() bool { return f.online }
