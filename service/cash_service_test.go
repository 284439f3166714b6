package service

import (
	"context"
	"testing"
	"time"

	"github.com/fbetancur/CrediSync360/events"
	"github.com/fbetancur/CrediSync360/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type cashFixture struct {
	closings     *MockCashClosingRepository
	movements    *MockCashMovementRepository
	payments     *MockPaymentRepository
	credits      *MockCreditRepository
	installments *MockInstallmentRepository
	enqueuer     *MockSyncEnqueuer
	svc          CashService
}

func newCashFixture() *cashFixture {
	f := &cashFixture{
		closings:     new(MockCashClosingRepository),
		movements:    new(MockCashMovementRepository),
		payments:     new(MockPaymentRepository),
		credits:      new(MockCreditRepository),
		installments: new(MockInstallmentRepository),
		enqueuer:     new(MockSyncEnqueuer),
	}
	f.svc = NewCashService("t1", "collector-1",
		f.closings, f.movements, f.payments, f.credits, f.installments,
		f.enqueuer, events.NewBus())
	return f
}

func (f *cashFixture) expectOpenDay(ctx context.Context, date time.Time) {
	f.closings.On("GetByDay", ctx, "t1", "collector-1", date).Return(nil, nil)
}

func TestDayState(t *testing.T) {
	ctx := context.Background()
	today := day("2025-03-10")
	yesterday := day("2025-03-09")

	t.Run("open day computes the ledger formula", func(t *testing.T) {
		f := newCashFixture()
		f.expectOpenDay(ctx, today)
		f.closings.On("GetByDay", ctx, "t1", "collector-1", yesterday).
			Return(&models.CashClosing{ClosingTotal: d(100000)}, nil)
		f.payments.On("ListByCollectorOn", ctx, "t1", "collector-1", today).
			Return([]*models.Payment{
				{ID: "p1", Amount: d(90000)},
				{ID: "p2", Amount: d(60000)},
			}, nil)
		f.credits.On("ListDisbursedOn", ctx, "t1", "collector-1", today).
			Return([]*models.Credit{{ID: "cr1", Principal: d(50000)}}, nil)
		f.movements.On("ListByDay", ctx, "t1", "collector-1", today).
			Return([]*models.CashMovement{
				{ID: "m1", Type: models.MovementTypeCashIn, Amount: d(50000)},
				{ID: "m2", Type: models.MovementTypeCashOut, Amount: d(20000)},
			}, nil)

		state, err := f.svc.DayState(ctx, today)
		require.NoError(t, err)

		assert.True(t, state.Open)
		assert.True(t, state.BaseAmount.Equal(d(100000)))
		assert.True(t, state.CollectedTotal.Equal(d(150000)))
		assert.True(t, state.DisbursedTotal.Equal(d(50000)))
		assert.True(t, state.CashInTotal.Equal(d(50000)))
		assert.True(t, state.CashOutTotal.Equal(d(20000)))
		assert.True(t, state.Total.Equal(d(230000)), "total was %s", state.Total)
	})

	t.Run("closed day returns the stored snapshot", func(t *testing.T) {
		f := newCashFixture()
		f.closings.On("GetByDay", ctx, "t1", "collector-1", today).
			Return(&models.CashClosing{
				Date:         today,
				ClosingTotal: d(42),
				BaseAmount:   d(10),
			}, nil)

		state, err := f.svc.DayState(ctx, today)
		require.NoError(t, err)

		assert.False(t, state.Open)
		assert.True(t, state.Total.Equal(d(42)))
		f.payments.AssertNotCalled(t, "ListByCollectorOn", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("day with no prior closing starts from zero base", func(t *testing.T) {
		f := newCashFixture()
		f.expectOpenDay(ctx, today)
		f.closings.On("GetByDay", ctx, "t1", "collector-1", yesterday).Return(nil, nil)
		f.payments.On("ListByCollectorOn", ctx, "t1", "collector-1", today).Return([]*models.Payment{}, nil)
		f.credits.On("ListDisbursedOn", ctx, "t1", "collector-1", today).Return([]*models.Credit{}, nil)
		f.movements.On("ListByDay", ctx, "t1", "collector-1", today).Return([]*models.CashMovement{}, nil)

		state, err := f.svc.DayState(ctx, today)
		require.NoError(t, err)
		assert.True(t, state.BaseAmount.IsZero())
		assert.True(t, state.Total.IsZero())
	})
}

func TestCloseDay(t *testing.T) {
	ctx := context.Background()
	today := day("2025-03-10")
	yesterday := day("2025-03-09")

	t.Run("rejects closing an already closed day", func(t *testing.T) {
		f := newCashFixture()
		f.closings.On("GetByDay", ctx, "t1", "collector-1", today).
			Return(&models.CashClosing{ID: "existing"}, nil)

		_, err := f.svc.CloseDay(ctx, today, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already closed")
		f.closings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("snapshots totals and counters then enqueues", func(t *testing.T) {
		f := newCashFixture()
		f.expectOpenDay(ctx, today)
		f.closings.On("GetByDay", ctx, "t1", "collector-1", yesterday).Return(nil, nil)

		settledInstallment := makeInstallment("c1", 1, today, 100)
		settledInstallment.State = models.InstallmentStatePaid
		partialInstallment := makeInstallment("c2", 2, today, 100)
		partialInstallment.State = models.InstallmentStatePartial

		f.payments.On("ListByCollectorOn", ctx, "t1", "collector-1", today).
			Return([]*models.Payment{
				{ID: "p1", InstallmentID: "c1", ClientID: "client-1", Amount: d(100)},
				{ID: "p2", InstallmentID: "c2", ClientID: "client-2", Amount: d(40)},
			}, nil)
		f.credits.On("ListDisbursedOn", ctx, "t1", "collector-1", today).Return([]*models.Credit{}, nil)
		f.movements.On("ListByDay", ctx, "t1", "collector-1", today).Return([]*models.CashMovement{}, nil)
		f.installments.On("Get", ctx, "c1").Return(settledInstallment, nil)
		f.installments.On("Get", ctx, "c2").Return(partialInstallment, nil)
		f.installments.On("ListScheduledOn", ctx, "t1", today).
			Return([]*models.Installment{settledInstallment, partialInstallment}, nil)

		f.closings.On("Create", ctx, mock.AnythingOfType("*models.CashClosing")).Return(nil)
		f.enqueuer.On("Enqueue", ctx, mock.MatchedBy(func(p models.SyncPayload) bool {
			_, ok := p.(models.CreateClosingPayload)
			return ok
		})).Return(&models.SyncQueueItem{}, nil)

		closing, err := f.svc.CloseDay(ctx, today, "fin de jornada")
		require.NoError(t, err)

		assert.True(t, closing.CollectedTotal.Equal(d(140)))
		assert.Equal(t, 1, closing.InstallmentsSettled)
		assert.Equal(t, 2, closing.InstallmentsDue)
		assert.Equal(t, 2, closing.ClientsVisited)
		assert.Equal(t, "fin de jornada", closing.Notes)
		f.closings.AssertExpectations(t)
		f.enqueuer.AssertExpectations(t)
	})
}

func TestReopenDay(t *testing.T) {
	ctx := context.Background()
	today := day("2025-03-10")

	t.Run("deletes the closing record", func(t *testing.T) {
		f := newCashFixture()
		f.closings.On("GetByDay", ctx, "t1", "collector-1", today).
			Return(&models.CashClosing{ID: "closing-1"}, nil)
		f.closings.On("Delete", ctx, "closing-1").Return(nil)

		require.NoError(t, f.svc.ReopenDay(ctx, today))
		f.closings.AssertExpectations(t)
	})

	t.Run("errors when the day is not closed", func(t *testing.T) {
		f := newCashFixture()
		f.expectOpenDay(ctx, today)

		err := f.svc.ReopenDay(ctx, today)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not closed")
	})
}

func TestMovements(t *testing.T) {
	ctx := context.Background()
	today := day("2025-03-10")

	t.Run("adds a movement on an open day", func(t *testing.T) {
		f := newCashFixture()
		f.expectOpenDay(ctx, today)
		f.movements.On("Create", ctx, mock.AnythingOfType("*models.CashMovement")).Return(nil)
		f.enqueuer.On("Enqueue", ctx, mock.Anything).Return(&models.SyncQueueItem{}, nil)

		movement, err := f.svc.AddMovement(ctx, today, models.MovementTypeCashIn, "base adicional", d(30000))
		require.NoError(t, err)
		assert.Equal(t, models.MovementTypeCashIn, movement.Type)
		assert.True(t, movement.Amount.Equal(d(30000)))
	})

	t.Run("rejects movements on a closed day", func(t *testing.T) {
		f := newCashFixture()
		f.closings.On("GetByDay", ctx, "t1", "collector-1", today).
			Return(&models.CashClosing{ID: "closing-1"}, nil)

		_, err := f.svc.AddMovement(ctx, today, models.MovementTypeCashOut, "", d(1000))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "closed")
		f.movements.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		f := newCashFixture()
		_, err := f.svc.AddMovement(ctx, today, models.MovementTypeCashIn, "", d(0))
		require.Error(t, err)
	})

	t.Run("removes a movement while its day is open", func(t *testing.T) {
		f := newCashFixture()
		f.movements.On("Get", ctx, "m1").
			Return(&models.CashMovement{ID: "m1", Date: today}, nil)
		f.expectOpenDay(ctx, today)
		f.movements.On("Delete", ctx, "m1").Return(nil)

		require.NoError(t, f.svc.RemoveMovement(ctx, "m1"))
		f.movements.AssertExpectations(t)
	})
}
