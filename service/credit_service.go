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

type creditService struct {
	credits      CreditRepository
	installments InstallmentRepository
	products     CreditProductRepository
	recalc       RecalcService
	enqueuer     SyncEnqueuer
	bus          *events.Bus
}

// NewCreditService creates a new credit service
func NewCreditService(
	credits CreditRepository,
	installments InstallmentRepository,
	products CreditProductRepository,
	recalc RecalcService,
	enqueuer SyncEnqueuer,
	bus *events.Bus,
) CreditService {
	return &creditService{
		credits:      credits,
		installments: installments,
		products:     products,
		recalc:       recalc,
		enqueuer:     enqueuer,
		bus:          bus,
	}
}

// OriginateCredit creates a credit from a product template along with its
// full installment schedule, then enqueues both for upload as a single
// compound operation.
func (s *creditService) OriginateCredit(ctx context.Context, input OriginateCreditInput) (*models.Credit, error) {
	product, err := s.products.Get(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("credit product %s not found", input.ProductID)
	}
	if !product.Active {
		return nil, fmt.Errorf("credit product %s is inactive", input.ProductID)
	}
	if !input.Principal.IsPositive() {
		return nil, fmt.Errorf("principal must be positive, got %s", input.Principal)
	}
	if product.MinAmount != nil && input.Principal.LessThan(*product.MinAmount) {
		return nil, fmt.Errorf("principal %s below product minimum %s", input.Principal, product.MinAmount)
	}
	if product.MaxAmount != nil && input.Principal.GreaterThan(*product.MaxAmount) {
		return nil, fmt.Errorf("principal %s above product maximum %s", input.Principal, product.MaxAmount)
	}

	total, perInstallment := CreditTotals(input.Principal, product.InterestRate, product.InstallmentCount)
	dates := ScheduleDates(input.FirstInstallmentDate, product.InstallmentCount, product.Frequency, product.SkipSundays)

	now := time.Now().UTC()
	credit := &models.Credit{
		ID:          uuid.New().String(),
		TenantID:    input.TenantID,
		RouteID:     input.RouteID,
		ClientID:    input.ClientID,
		ProductID:   product.ID,
		CollectorID: input.CollectorID,

		Principal:         input.Principal,
		InterestRate:      product.InterestRate,
		TotalToRepay:      total,
		InstallmentCount:  product.InstallmentCount,
		InstallmentAmount: perInstallment,
		Frequency:         product.Frequency,

		DisbursementDate:     DateOnly(input.DisbursementDate),
		FirstInstallmentDate: dates[0],
		LastInstallmentDate:  dates[len(dates)-1],

		Status: models.CreditStatusActive,

		OutstandingBalance: total,
		InstallmentsPaid:   0,
		OverdueDays:        0,
		LastRecalculated:   now,

		CreatedAt: now,
		CreatedBy: input.CollectorID,
	}

	installments := make([]*models.Installment, 0, len(dates))
	for i, date := range dates {
		installments = append(installments, &models.Installment{
			ID:          uuid.New().String(),
			TenantID:    input.TenantID,
			RouteID:     input.RouteID,
			CreditID:    credit.ID,
			ClientID:    input.ClientID,
			CollectorID: input.CollectorID,

			Number:          i + 1,
			ScheduledDate:   date,
			ScheduledAmount: perInstallment,

			AmountPaid:         decimal.Zero,
			OutstandingBalance: perInstallment,
			State:              models.InstallmentStatePending,
			OverdueDays:        0,
			LastRecalculated:   now,

			CreatedAt: now,
			CreatedBy: input.CollectorID,
		})
	}

	if err := s.credits.Create(ctx, credit); err != nil {
		return nil, err
	}
	if err := s.installments.BulkCreate(ctx, installments); err != nil {
		return nil, err
	}

	payload := models.CreateCreditPayload{Credit: *credit}
	for _, installment := range installments {
		payload.Installments = append(payload.Installments, *installment)
	}
	if _, err := s.enqueuer.Enqueue(ctx, payload); err != nil {
		return nil, fmt.Errorf("credit %s stored but not enqueued for sync: %w", credit.ID, err)
	}

	// A fresh credit changes only the client-level aggregates; the new
	// installments were written with their derived fields already current.
	if err := s.recalc.RecalcClient(ctx, input.ClientID); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"creditId":     credit.ID,
		"clientId":     credit.ClientID,
		"principal":    credit.Principal.String(),
		"installments": len(installments),
	}).Info("Credit originated")

	s.bus.Emit(ctx, events.CreditOriginatedEvent{
		CreditID:         credit.ID,
		ClientID:         credit.ClientID,
		InstallmentCount: len(installments),
	})
	return credit, nil
}
