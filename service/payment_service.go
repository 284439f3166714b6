package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fbetancur/CrediSync360/events"
	"github.com/fbetancur/CrediSync360/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type paymentService struct {
	payments     PaymentRepository
	installments InstallmentRepository
	recalc       RecalcService
	enqueuer     SyncEnqueuer
	bus          *events.Bus
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	payments PaymentRepository,
	installments InstallmentRepository,
	recalc RecalcService,
	enqueuer SyncEnqueuer,
	bus *events.Bus,
) PaymentService {
	return &paymentService{
		payments:     payments,
		installments: installments,
		recalc:       recalc,
		enqueuer:     enqueuer,
		bus:          bus,
	}
}

// RegisterPayment stores one payment against one installment, enqueues
// it for upload and runs the recalculation cascade. The local write is
// durable before any network activity is attempted.
func (s *paymentService) RegisterPayment(ctx context.Context, input RegisterPaymentInput) (*models.Payment, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("payment amount must be positive, got %s", input.Amount)
	}

	installment, err := s.installments.Get(ctx, input.InstallmentID)
	if err != nil {
		return nil, err
	}
	if installment == nil {
		return nil, fmt.Errorf("installment %s not found", input.InstallmentID)
	}

	now := time.Now().UTC()
	payment := &models.Payment{
		ID:            uuid.New().String(),
		TenantID:      input.TenantID,
		RouteID:       input.RouteID,
		CreditID:      input.CreditID,
		InstallmentID: input.InstallmentID,
		ClientID:      input.ClientID,
		CollectorID:   input.CollectorID,
		Amount:        input.Amount,
		Date:          DateOnly(input.Date),
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		Notes:         input.Notes,
		CreatedAt:     now,
		CreatedBy:     input.CollectorID,
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	// The queue snapshot is taken now; later edits to local state never
	// change what gets uploaded.
	if _, err := s.enqueuer.Enqueue(ctx, models.CreatePaymentPayload{Payment: *payment}); err != nil {
		return nil, fmt.Errorf("payment %s stored but not enqueued for sync: %w", payment.ID, err)
	}

	if err := s.recalc.RecalcAfterPayment(ctx, payment.InstallmentID, payment.CreditID, payment.ClientID); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"paymentId":     payment.ID,
		"installmentId": payment.InstallmentID,
		"amount":        payment.Amount.String(),
	}).Info("Payment registered")

	s.bus.Emit(ctx, events.PaymentRecordedEvent{
		PaymentID:     payment.ID,
		InstallmentID: payment.InstallmentID,
		CreditID:      payment.CreditID,
		ClientID:      payment.ClientID,
	})
	return payment, nil
}

// RegisterDistributed splits an amount across a credit's open
// installments oldest-first and records one payment per allocation.
// Amount beyond the credit's total outstanding is discarded.
func (s *paymentService) RegisterDistributed(ctx context.Context, input RegisterPaymentInput) ([]*models.Payment, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("payment amount must be positive, got %s", input.Amount)
	}
	if input.CreditID == "" {
		return nil, fmt.Errorf("distributed payment requires a credit id")
	}

	installments, err := s.installments.ListByCredit(ctx, input.CreditID)
	if err != nil {
		return nil, err
	}
	if len(installments) == 0 {
		return nil, fmt.Errorf("credit %s has no installments", input.CreditID)
	}

	payments, err := s.payments.ListByCredit(ctx, input.CreditID)
	if err != nil {
		return nil, err
	}

	allocations := DistributePayment(input.Amount, installments, payments)
	if len(allocations) == 0 {
		return nil, fmt.Errorf("credit %s has no outstanding balance to apply %s against", input.CreditID, input.Amount)
	}

	var recorded []*models.Payment
	for _, allocation := range allocations {
		single := input
		single.InstallmentID = allocation.InstallmentID
		single.Amount = allocation.Amount

		payment, err := s.RegisterPayment(ctx, single)
		if err != nil {
			// Earlier slices are already durable; report how far we got.
			return recorded, fmt.Errorf("distributed payment stopped after %d of %d allocations: %w",
				len(recorded), len(allocations), err)
		}
		recorded = append(recorded, payment)
	}
	return recorded, nil
}
