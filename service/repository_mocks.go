package service

import (
	"context"
	"time"

	"github.com/fbetancur/CrediSync360/models"
	"github.com/stretchr/testify/mock"
)

// MockClientRepository is a mock implementation of ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Get(ctx context.Context, id string) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientRepository) Create(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) Upsert(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) UpdateDerived(ctx context.Context, id string, derived models.DerivedClient, at time.Time) error {
	args := m.Called(ctx, id, derived, at)
	return args.Error(0)
}

func (m *MockClientRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.Client, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Client), args.Error(1)
}

// MockCreditRepository is a mock implementation of CreditRepository
type MockCreditRepository struct {
	mock.Mock
}

func (m *MockCreditRepository) Get(ctx context.Context, id string) (*models.Credit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Credit), args.Error(1)
}

func (m *MockCreditRepository) Create(ctx context.Context, credit *models.Credit) error {
	args := m.Called(ctx, credit)
	return args.Error(0)
}

func (m *MockCreditRepository) Upsert(ctx context.Context, credit *models.Credit) error {
	args := m.Called(ctx, credit)
	return args.Error(0)
}

func (m *MockCreditRepository) UpdateDerived(ctx context.Context, id string, derived models.DerivedCredit, at time.Time) error {
	args := m.Called(ctx, id, derived, at)
	return args.Error(0)
}

func (m *MockCreditRepository) ListByClient(ctx context.Context, clientID string) ([]*models.Credit, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Credit), args.Error(1)
}

func (m *MockCreditRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.Credit, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Credit), args.Error(1)
}

func (m *MockCreditRepository) ListDisbursedOn(ctx context.Context, tenantID, collectorID string, date time.Time) ([]*models.Credit, error) {
	args := m.Called(ctx, tenantID, collectorID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Credit), args.Error(1)
}

// MockInstallmentRepository is a mock implementation of InstallmentRepository
type MockInstallmentRepository struct {
	mock.Mock
}

func (m *MockInstallmentRepository) Get(ctx context.Context, id string) (*models.Installment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) BulkCreate(ctx context.Context, installments []*models.Installment) error {
	args := m.Called(ctx, installments)
	return args.Error(0)
}

func (m *MockInstallmentRepository) Upsert(ctx context.Context, installment *models.Installment) error {
	args := m.Called(ctx, installment)
	return args.Error(0)
}

func (m *MockInstallmentRepository) UpdateDerived(ctx context.Context, id string, derived models.DerivedInstallment, at time.Time) error {
	args := m.Called(ctx, id, derived, at)
	return args.Error(0)
}

func (m *MockInstallmentRepository) ListByCredit(ctx context.Context, creditID string) ([]*models.Installment, error) {
	args := m.Called(ctx, creditID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) ListByClient(ctx context.Context, clientID string) ([]*models.Installment, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.Installment, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) ListDueOnOrBefore(ctx context.Context, tenantID string, date time.Time) ([]*models.Installment, error) {
	args := m.Called(ctx, tenantID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) ListScheduledOn(ctx context.Context, tenantID string, date time.Time) ([]*models.Installment, error) {
	args := m.Called(ctx, tenantID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Installment), args.Error(1)
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) Upsert(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListByInstallment(ctx context.Context, installmentID string) ([]*models.Payment, error) {
	args := m.Called(ctx, installmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByCredit(ctx context.Context, creditID string) ([]*models.Payment, error) {
	args := m.Called(ctx, creditID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByClient(ctx context.Context, clientID string) ([]*models.Payment, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.Payment, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByCollectorOn(ctx context.Context, tenantID, collectorID string, date time.Time) ([]*models.Payment, error) {
	args := m.Called(ctx, tenantID, collectorID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

// MockCreditProductRepository is a mock implementation of CreditProductRepository
type MockCreditProductRepository struct {
	mock.Mock
}

func (m *MockCreditProductRepository) Get(ctx context.Context, id string) (*models.CreditProduct, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreditProduct), args.Error(1)
}

func (m *MockCreditProductRepository) Upsert(ctx context.Context, product *models.CreditProduct) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockCreditProductRepository) ListActive(ctx context.Context, tenantID string) ([]*models.CreditProduct, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CreditProduct), args.Error(1)
}

// MockCashClosingRepository is a mock implementation of CashClosingRepository
type MockCashClosingRepository struct {
	mock.Mock
}

func (m *MockCashClosingRepository) GetByDay(ctx context.Context, tenantID, collectorID string, date time.Time) (*models.CashClosing, error) {
	args := m.Called(ctx, tenantID, collectorID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CashClosing), args.Error(1)
}

func (m *MockCashClosingRepository) Create(ctx context.Context, closing *models.CashClosing) error {
	args := m.Called(ctx, closing)
	return args.Error(0)
}

func (m *MockCashClosingRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCashMovementRepository is a mock implementation of CashMovementRepository
type MockCashMovementRepository struct {
	mock.Mock
}

func (m *MockCashMovementRepository) Get(ctx context.Context, id string) (*models.CashMovement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CashMovement), args.Error(1)
}

func (m *MockCashMovementRepository) Create(ctx context.Context, movement *models.CashMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockCashMovementRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCashMovementRepository) ListByDay(ctx context.Context, tenantID, collectorID string, date time.Time) ([]*models.CashMovement, error) {
	args := m.Called(ctx, tenantID, collectorID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CashMovement), args.Error(1)
}

// MockSyncEnqueuer is a mock implementation of SyncEnqueuer
type MockSyncEnqueuer struct {
	mock.Mock
}

func (m *MockSyncEnqueuer) Enqueue(ctx context.Context, payload models.SyncPayload) (*models.SyncQueueItem, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncQueueItem), args.Error(1)
}

// MockRecalcService is a mock implementation of RecalcService
type MockRecalcService struct {
	mock.Mock
}

func (m *MockRecalcService) RecalcInstallment(ctx context.Context, installmentID string) error {
	args := m.Called(ctx, installmentID)
	return args.Error(0)
}

func (m *MockRecalcService) RecalcCredit(ctx context.Context, creditID string) error {
	args := m.Called(ctx, creditID)
	return args.Error(0)
}

func (m *MockRecalcService) RecalcClient(ctx context.Context, clientID string) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
}

func (m *MockRecalcService) RecalcAfterPayment(ctx context.Context, installmentID, creditID, clientID string) error {
	args := m.Called(ctx, installmentID, creditID, clientID)
	return args.Error(0)
}

func (m *MockRecalcService) RecalcAll(ctx context.Context, tenantID string) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockRecalcService) CheckIntegrity(ctx context.Context, tenantID string) (*IntegrityReport, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*IntegrityReport), args.Error(1)
}
