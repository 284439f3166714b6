package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fbetancur/CrediSync360/events"
	"github.com/fbetancur/CrediSync360/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/shopspring/decimal"
)

type cashService struct {
	tenantID    string
	collectorID string

	closings     CashClosingRepository
	movements    CashMovementRepository
	payments     PaymentRepository
	credits      CreditRepository
	installments InstallmentRepository
	enqueuer     SyncEnqueuer
	bus          *events.Bus
}

// NewCashService creates the cash ledger for one collector's device
func NewCashService(
	tenantID, collectorID string,
	closings CashClosingRepository,
	movements CashMovementRepository,
	payments PaymentRepository,
	credits CreditRepository,
	installments InstallmentRepository,
	enqueuer SyncEnqueuer,
	bus *events.Bus,
) CashService {
	return &cashService{
		tenantID:     tenantID,
		collectorID:  collectorID,
		closings:     closings,
		movements:    movements,
		payments:     payments,
		credits:      credits,
		installments: installments,
		enqueuer:     enqueuer,
		bus:          bus,
	}
}

// DayState computes the cash position for one day. A day is open exactly
// when no closing record exists for it; closed days return the snapshot
// that was taken at closing time.
func (s *cashService) DayState(ctx context.Context, date time.Time) (*DayState, error) {
	closing, err := s.closings.GetByDay(ctx, s.tenantID, s.collectorID, date)
	if err != nil {
		return nil, err
	}
	if closing != nil {
		return &DayState{
			Date:           DateOnly(date),
			Open:           false,
			BaseAmount:     closing.BaseAmount,
			CollectedTotal: closing.CollectedTotal,
			DisbursedTotal: closing.DisbursedTotal,
			CashInTotal:    closing.CashInTotal,
			CashOutTotal:   closing.CashOutTotal,
			Total:          closing.ClosingTotal,
		}, nil
	}
	return s.computeDayState(ctx, date)
}

func (s *cashService) computeDayState(ctx context.Context, date time.Time) (*DayState, error) {
	base, err := s.baseAmount(ctx, date)
	if err != nil {
		return nil, err
	}

	payments, err := s.payments.ListByCollectorOn(ctx, s.tenantID, s.collectorID, date)
	if err != nil {
		return nil, err
	}
	collected := decimal.Zero
	for _, payment := range payments {
		collected = collected.Add(payment.Amount)
	}

	credits, err := s.credits.ListDisbursedOn(ctx, s.tenantID, s.collectorID, date)
	if err != nil {
		return nil, err
	}
	disbursed := decimal.Zero
	for _, credit := range credits {
		disbursed = disbursed.Add(credit.Principal)
	}

	movements, err := s.movements.ListByDay(ctx, s.tenantID, s.collectorID, date)
	if err != nil {
		return nil, err
	}
	cashIn, cashOut := decimal.Zero, decimal.Zero
	for _, movement := range movements {
		switch movement.Type {
		case models.MovementTypeCashIn:
			cashIn = cashIn.Add(movement.Amount)
		case models.MovementTypeCashOut:
			cashOut = cashOut.Add(movement.Amount)
		}
	}

	total := base.Add(collected).Sub(disbursed).Add(cashIn).Sub(cashOut)
	return &DayState{
		Date:           DateOnly(date),
		Open:           true,
		BaseAmount:     base,
		CollectedTotal: collected,
		DisbursedTotal: disbursed,
		CashInTotal:    cashIn,
		CashOutTotal:   cashOut,
		Total:          total,
	}, nil
}

// baseAmount carries over the previous day's closing total; a day with
// no prior closing starts from zero
func (s *cashService) baseAmount(ctx context.Context, date time.Time) (decimal.Decimal, error) {
	previous, err := s.closings.GetByDay(ctx, s.tenantID, s.collectorID, DateOnly(date).AddDate(0, 0, -1))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if previous == nil {
		return decimal.Zero, nil
	}
	return previous.ClosingTotal, nil
}

// CloseDay snapshots the day's totals into a closing record and enqueues
// it for upload. Closing an already-closed day is an error.
func (s *cashService) CloseDay(ctx context.Context, date time.Time, notes string) (*models.CashClosing, error) {
	existing, err := s.closings.GetByDay(ctx, s.tenantID, s.collectorID, date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("cash day %s is already closed", fmtLogDate(date))
	}

	state, err := s.computeDayState(ctx, date)
	if err != nil {
		return nil, err
	}

	settled, visited, err := s.dayCounters(ctx, date)
	if err != nil {
		return nil, err
	}
	dueToday, err := s.installments.ListScheduledOn(ctx, s.tenantID, date)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	closing := &models.CashClosing{
		ID:          uuid.New().String(),
		TenantID:    s.tenantID,
		CollectorID: s.collectorID,
		Date:        DateOnly(date),

		BaseAmount:     state.BaseAmount,
		CollectedTotal: state.CollectedTotal,
		DisbursedTotal: state.DisbursedTotal,
		CashInTotal:    state.CashInTotal,
		CashOutTotal:   state.CashOutTotal,
		ClosingTotal:   state.Total,

		InstallmentsSettled: settled,
		InstallmentsDue:     len(dueToday),
		ClientsVisited:      visited,
		Notes:               notes,

		CreatedAt: now,
		CreatedBy: s.collectorID,
	}

	if err := s.closings.Create(ctx, closing); err != nil {
		return nil, err
	}
	if _, err := s.enqueuer.Enqueue(ctx, models.CreateClosingPayload{Closing: *closing}); err != nil {
		return nil, fmt.Errorf("closing %s stored but not enqueued for sync: %w", closing.ID, err)
	}

	log.WithFields(log.Fields{
		"closingId": closing.ID,
		"date":      fmtLogDate(closing.Date),
		"total":     closing.ClosingTotal.String(),
	}).Info("Cash day closed")

	s.bus.Emit(ctx, events.CashDayClosedEvent{
		ClosingID:   closing.ID,
		CollectorID: s.collectorID,
	})
	return closing, nil
}

// dayCounters counts installments fully settled by today's payments and
// the distinct clients visited
func (s *cashService) dayCounters(ctx context.Context, date time.Time) (settled, visited int, err error) {
	payments, err := s.payments.ListByCollectorOn(ctx, s.tenantID, s.collectorID, date)
	if err != nil {
		return 0, 0, err
	}

	touchedInstallments := make(map[string]bool)
	clients := make(map[string]bool)
	for _, payment := range payments {
		touchedInstallments[payment.InstallmentID] = true
		clients[payment.ClientID] = true
	}

	for installmentID := range touchedInstallments {
		installment, err := s.installments.Get(ctx, installmentID)
		if err != nil {
			return 0, 0, err
		}
		if installment != nil && installment.State == models.InstallmentStatePaid {
			settled++
		}
	}
	return settled, len(clients), nil
}

// ReopenDay deletes the closing record, making the day writable again.
// Nothing records who reopened or when.
func (s *cashService) ReopenDay(ctx context.Context, date time.Time) error {
	closing, err := s.closings.GetByDay(ctx, s.tenantID, s.collectorID, date)
	if err != nil {
		return err
	}
	if closing == nil {
		return fmt.Errorf("cash day %s is not closed", fmtLogDate(date))
	}

	if err := s.closings.Delete(ctx, closing.ID); err != nil {
		return err
	}

	log.WithField("date", fmtLogDate(date)).Warn("Cash day reopened")
	s.bus.Emit(ctx, events.CashDayReopenedEvent{CollectorID: s.collectorID})
	return nil
}

// AddMovement records a manual cash entry against an open day
func (s *cashService) AddMovement(ctx context.Context, date time.Time, kind models.MovementType, description string, amount decimal.Decimal) (*models.CashMovement, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("movement amount must be positive, got %s", amount)
	}
	if err := s.requireOpenDay(ctx, date); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	movement := &models.CashMovement{
		ID:          uuid.New().String(),
		TenantID:    s.tenantID,
		CollectorID: s.collectorID,
		Date:        DateOnly(date),
		Type:        kind,
		Description: description,
		Amount:      amount,
		CreatedAt:   now,
		CreatedBy:   s.collectorID,
	}

	if err := s.movements.Create(ctx, movement); err != nil {
		return nil, err
	}
	if _, err := s.enqueuer.Enqueue(ctx, models.CreateMovementPayload{Movement: *movement}); err != nil {
		return nil, fmt.Errorf("movement %s stored but not enqueued for sync: %w", movement.ID, err)
	}

	s.bus.Emit(ctx, events.CashMovementAddedEvent{
		MovementID: movement.ID,
		Kind:       kind,
	})
	return movement, nil
}

// RemoveMovement deletes a manual cash entry while its day is still open
func (s *cashService) RemoveMovement(ctx context.Context, movementID string) error {
	movement, err := s.movements.Get(ctx, movementID)
	if err != nil {
		return err
	}
	if movement == nil {
		return fmt.Errorf("cash movement %s not found", movementID)
	}
	if err := s.requireOpenDay(ctx, movement.Date); err != nil {
		return err
	}
	return s.movements.Delete(ctx, movementID)
}

func (s *cashService) requireOpenDay(ctx context.Context, date time.Time) error {
	closing, err := s.closings.GetByDay(ctx, s.tenantID, s.collectorID, date)
	if err != nil {
		return err
	}
	if closing != nil {
		return fmt.Errorf("cash day %s is closed", fmtLogDate(date))
	}
	return nil
}

func fmtLogDate(t time.Time) string {
	return t.Format("2006-01-02")
}
