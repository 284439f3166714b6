package service

import (
	"context"
	"time"

	"github.com/fbetancur/CrediSync360/models"
	"github.com/shopspring/decimal"
)

// ClientRepository defines the interface for client data access
type ClientRepository interface {
	// Get retrieves a client by id, returning (nil, nil) when absent
	Get(ctx context.Context, id string) (*models.Client, error)

	// Create stores a new client
	Create(ctx context.Context, client *models.Client) error

	// Upsert inserts or overwrites a client by primary key
	Upsert(ctx context.Context, client *models.Client) error

	// UpdateDerived persists recomputed cached fields
	UpdateDerived(ctx context.Context, id string, derived models.DerivedClient, at time.Time) error

	// ListByTenant returns all clients for a tenant; empty tenantID returns everything
	ListByTenant(ctx context.Context, tenantID string) ([]*models.Client, error)
}

// CreditRepository defines the interface for credit data access
type CreditRepository interface {
	Get(ctx context.Context, id string) (*models.Credit, error)
	Create(ctx context.Context, credit *models.Credit) error
	Upsert(ctx context.Context, credit *models.Credit) error
	UpdateDerived(ctx context.Context, id string, derived models.DerivedCredit, at time.Time) error
	ListByClient(ctx context.Context, clientID string) ([]*models.Credit, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*models.Credit, error)

	// ListDisbursedOn returns credits a collector disbursed on a given day
	ListDisbursedOn(ctx context.Context, tenantID, collectorID string, date time.Time) ([]*models.Credit, error)
}

// InstallmentRepository defines the interface for installment data access
type InstallmentRepository interface {
	Get(ctx context.Context, id string) (*models.Installment, error)
	BulkCreate(ctx context.Context, installments []*models.Installment) error
	Upsert(ctx context.Context, installment *models.Installment) error
	UpdateDerived(ctx context.Context, id string, derived models.DerivedInstallment, at time.Time) error
	ListByCredit(ctx context.Context, creditID string) ([]*models.Installment, error)
	ListByClient(ctx context.Context, clientID string) ([]*models.Installment, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*models.Installment, error)

	// ListDueOnOrBefore returns installments scheduled on or before date
	ListDueOnOrBefore(ctx context.Context, tenantID string, date time.Time) ([]*models.Installment, error)

	// ListScheduledOn returns installments scheduled exactly on date
	ListScheduledOn(ctx context.Context, tenantID string, date time.Time) ([]*models.Installment, error)
}

// PaymentRepository defines the interface for the immutable payment ledger.
// Payments are never updated or deleted; Upsert exists only for inbound
// reconciliation where the remote copy wins by primary key.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	Upsert(ctx context.Context, payment *models.Payment) error
	ListByInstallment(ctx context.Context, installmentID string) ([]*models.Payment, error)
	ListByCredit(ctx context.Context, creditID string) ([]*models.Payment, error)
	ListByClient(ctx context.Context, clientID string) ([]*models.Payment, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*models.Payment, error)

	// ListByCollectorOn returns a collector's payments dated on a given day
	ListByCollectorOn(ctx context.Context, tenantID, collectorID string, date time.Time) ([]*models.Payment, error)
}

// CreditProductRepository defines the interface for credit product templates
type CreditProductRepository interface {
	Get(ctx context.Context, id string) (*models.CreditProduct, error)
	Upsert(ctx context.Context, product *models.CreditProduct) error
	ListActive(ctx context.Context, tenantID string) ([]*models.CreditProduct, error)
}

// RouteRepository defines the interface for collection routes
type RouteRepository interface {
	Upsert(ctx context.Context, route *models.Route) error
	ListByTenant(ctx context.Context, tenantID string) ([]*models.Route, error)
}

// CashClosingRepository defines the interface for daily cash closings
type CashClosingRepository interface {
	// GetByDay returns the closing for (tenant, collector, date), or (nil, nil)
	GetByDay(ctx context.Context, tenantID, collectorID string, date time.Time) (*models.CashClosing, error)
	Create(ctx context.Context, closing *models.CashClosing) error
	Delete(ctx context.Context, id string) error
}

// CashMovementRepository defines the interface for manual cash entries
type CashMovementRepository interface {
	Get(ctx context.Context, id string) (*models.CashMovement, error)
	Create(ctx context.Context, movement *models.CashMovement) error
	Delete(ctx context.Context, id string) error
	ListByDay(ctx context.Context, tenantID, collectorID string, date time.Time) ([]*models.CashMovement, error)
}

// SyncQueueRepository defines the interface for the outbound sync queue
type SyncQueueRepository interface {
	// Append stores a new queue item and sets its auto-increment ID
	Append(ctx context.Context, item *models.SyncQueueItem) error

	Get(ctx context.Context, id int64) (*models.SyncQueueItem, error)

	// ListPending returns PENDING items ordered by enqueuedAt ascending
	ListPending(ctx context.Context) ([]*models.SyncQueueItem, error)

	// MarkSynced transitions an item to SYNCED and stamps syncedAt
	MarkSynced(ctx context.Context, id int64, at time.Time) error

	// MarkRetry records a failed attempt that stays PENDING
	MarkRetry(ctx context.Context, id int64, retryCount int, lastError string, at time.Time) error

	// MarkFailed transitions an item to FAILED after exhausting retries
	MarkFailed(ctx context.Context, id int64, retryCount int, lastError string, at time.Time) error

	CountByStatus(ctx context.Context) (map[models.SyncStatus]int, error)
	ListFailed(ctx context.Context) ([]*models.SyncQueueItem, error)

	// ResetFailed returns FAILED items to PENDING with retryCount zeroed
	ResetFailed(ctx context.Context) (int, error)

	// DeleteSyncedBefore removes SYNCED items older than cutoff
	DeleteSyncedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// RemoteFilter scopes remote list calls to a tenant and optional route
type RemoteFilter struct {
	TenantID string
	RouteID  string
}

// RemoteStore defines the remote API surface used by sync. Creates are
// single-record; no transactional or partial-batch create exists.
type RemoteStore interface {
	CreateRoute(ctx context.Context, route *models.Route) error
	CreateClient(ctx context.Context, client *models.Client) error
	CreateCredit(ctx context.Context, credit *models.Credit) error
	CreateInstallment(ctx context.Context, installment *models.Installment) error
	CreatePayment(ctx context.Context, payment *models.Payment) error
	CreateCashClosing(ctx context.Context, closing *models.CashClosing) error
	CreateCashMovement(ctx context.Context, movement *models.CashMovement) error

	ListRoutes(ctx context.Context, filter RemoteFilter) ([]*models.Route, error)
	ListProducts(ctx context.Context, filter RemoteFilter) ([]*models.CreditProduct, error)
	ListClients(ctx context.Context, filter RemoteFilter) ([]*models.Client, error)
	ListCredits(ctx context.Context, filter RemoteFilter) ([]*models.Credit, error)
	ListInstallments(ctx context.Context, filter RemoteFilter) ([]*models.Installment, error)
	ListPayments(ctx context.Context, filter RemoteFilter) ([]*models.Payment, error)
}

// ConnectivityChecker reports whether the remote store is reachable
type ConnectivityChecker interface {
	Online() bool
}

// SyncEnqueuer appends operations to the outbound sync queue
type SyncEnqueuer interface {
	Enqueue(ctx context.Context, payload models.SyncPayload) (*models.SyncQueueItem, error)
}

// RecalcService recomputes cached aggregates from the payment ledger
type RecalcService interface {
	// RecalcInstallment recomputes one installment's cached fields
	RecalcInstallment(ctx context.Context, installmentID string) error

	// RecalcCredit recomputes one credit's cached fields from its installments
	RecalcCredit(ctx context.Context, creditID string) error

	// RecalcClient recomputes one client's cached fields from their credits
	RecalcClient(ctx context.Context, clientID string) error

	// RecalcAfterPayment runs the cascade bottom-up for one payment's scope
	RecalcAfterPayment(ctx context.Context, installmentID, creditID, clientID string) error

	// RecalcAll recomputes every cached field, optionally scoped to a tenant
	// (empty tenantID recomputes everything)
	RecalcAll(ctx context.Context, tenantID string) error

	// CheckIntegrity recomputes every cached value and reports divergent
	// entity ids without correcting anything
	CheckIntegrity(ctx context.Context, tenantID string) (*IntegrityReport, error)
}

// IntegrityReport lists entities whose stored cache diverges from the ledger
type IntegrityReport struct {
	DivergentInstallments []string
	DivergentCredits      []string
	DivergentClients      []string
}

// Clean reports whether no divergence was found
func (r *IntegrityReport) Clean() bool {
	return len(r.DivergentInstallments) == 0 &&
		len(r.DivergentCredits) == 0 &&
		len(r.DivergentClients) == 0
}

// RegisterPaymentInput carries a new payment before id/timestamps are assigned
type RegisterPaymentInput struct {
	TenantID      string
	RouteID       string
	CreditID      string
	InstallmentID string
	ClientID      string
	CollectorID   string
	Amount        decimal.Decimal
	Date          time.Time
	Latitude      *float64
	Longitude     *float64
	Notes         string
}

// PaymentService records payments against the immutable ledger
type PaymentService interface {
	// RegisterPayment stores one payment against one installment, enqueues
	// it for upload and runs the recalculation cascade
	RegisterPayment(ctx context.Context, input RegisterPaymentInput) (*models.Payment, error)

	// RegisterDistributed splits an amount across a credit's open
	// installments oldest-first and records one payment per allocation
	RegisterDistributed(ctx context.Context, input RegisterPaymentInput) ([]*models.Payment, error)
}

// OriginateCreditInput carries the parameters of a new credit
type OriginateCreditInput struct {
	TenantID             string
	RouteID              string
	ClientID             string
	ProductID            string
	CollectorID          string
	Principal            decimal.Decimal
	DisbursementDate     time.Time
	FirstInstallmentDate time.Time
}

// CreditService originates credits from product templates
type CreditService interface {
	OriginateCredit(ctx context.Context, input OriginateCreditInput) (*models.Credit, error)
}

// RegisterClientInput carries a new client's identity fields
type RegisterClientInput struct {
	TenantID     string
	RouteID      string
	Name         string
	Document     string
	Phone        string
	Address      string
	Neighborhood string
	Reference    string
	Latitude     *float64
	Longitude    *float64
	CollectorID  string
}

// ClientService manages the client roster
type ClientService interface {
	RegisterClient(ctx context.Context, input RegisterClientInput) (*models.Client, error)
	ListClients(ctx context.Context, tenantID string) ([]*models.Client, error)
}

// ClientBasket groups one client's collectible installments for the daily route
type ClientBasket struct {
	Client           *models.Client
	Credit           *models.Credit
	Installments     []*models.Installment
	TotalOutstanding decimal.Decimal
	MaxOverdueDays   int
}

// RouteStats summarizes a collector's day from cached installment state
type RouteStats struct {
	CollectedToday      decimal.Decimal
	InstallmentsSettled int
	InstallmentsPending int
}

// RouteService builds the operator-facing daily collection view
type RouteService interface {
	// DailyRoute groups collectible installments by client. A non-empty
	// manualOrder (client ids) overrides the default ordering entirely;
	// ids missing from it sort last.
	DailyRoute(ctx context.Context, tenantID string, today time.Time, manualOrder []string) ([]*ClientBasket, error)

	DailyStats(ctx context.Context, tenantID, collectorID string, today time.Time) (*RouteStats, error)
}

// DayState is the computed cash position of one collector's day
type DayState struct {
	Date           time.Time
	Open           bool
	BaseAmount     decimal.Decimal
	CollectedTotal decimal.Decimal
	DisbursedTotal decimal.Decimal
	CashInTotal    decimal.Decimal
	CashOutTotal   decimal.Decimal
	Total          decimal.Decimal
}

// CashService maintains the daily cash ledger for one collector
type CashService interface {
	DayState(ctx context.Context, date time.Time) (*DayState, error)
	CloseDay(ctx context.Context, date time.Time, notes string) (*models.CashClosing, error)

	// ReopenDay deletes the closing record. Nothing records who reopened
	// or when.
	ReopenDay(ctx context.Context, date time.Time) error

	AddMovement(ctx context.Context, date time.Time, kind models.MovementType, description string, amount decimal.Decimal) (*models.CashMovement, error)
	RemoveMovement(ctx context.Context, movementID string) error
}
