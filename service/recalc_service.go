package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fbetancur/CrediSync360/events"
	"github.com/fbetancur/CrediSync360/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Stored monetary caches drift from recomputed values by at most this
// amount before being reported as divergent. Counts and enums must match
// exactly.
var integrityTolerance = decimal.NewFromFloat(0.01)

type recalcService struct {
	clients      ClientRepository
	credits      CreditRepository
	installments InstallmentRepository
	payments     PaymentRepository
	bus          *events.Bus
}

// NewRecalcService creates the recalculation cascade over the given repositories
func NewRecalcService(
	clients ClientRepository,
	credits CreditRepository,
	installments InstallmentRepository,
	payments PaymentRepository,
	bus *events.Bus,
) RecalcService {
	return &recalcService{
		clients:      clients,
		credits:      credits,
		installments: installments,
		payments:     payments,
		bus:          bus,
	}
}

// RecalcInstallment recomputes one installment's cached fields
func (s *recalcService) RecalcInstallment(ctx context.Context, installmentID string) error {
	installment, err := s.installments.Get(ctx, installmentID)
	if err != nil {
		return err
	}
	if installment == nil {
		return fmt.Errorf("installment %s not found", installmentID)
	}

	payments, err := s.payments.ListByInstallment(ctx, installmentID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	derived := DeriveInstallment(installment, payments, now)
	if err := s.installments.UpdateDerived(ctx, installmentID, derived, now); err != nil {
		return err
	}

	s.bus.Emit(ctx, events.InstallmentRecalculatedEvent{
		InstallmentID: installmentID,
		State:         derived.State,
	})
	return nil
}

// RecalcCredit recomputes one credit's cached fields from its installments
func (s *recalcService) RecalcCredit(ctx context.Context, creditID string) error {
	credit, err := s.credits.Get(ctx, creditID)
	if err != nil {
		return err
	}
	if credit == nil {
		return fmt.Errorf("credit %s not found", creditID)
	}

	installments, err := s.installments.ListByCredit(ctx, creditID)
	if err != nil {
		return err
	}
	payments, err := s.payments.ListByCredit(ctx, creditID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	derived := DeriveCredit(credit, installments, payments, now)
	if err := s.credits.UpdateDerived(ctx, creditID, derived, now); err != nil {
		return err
	}

	s.bus.Emit(ctx, events.CreditRecalculatedEvent{CreditID: creditID})
	return nil
}

// RecalcClient recomputes one client's cached fields from their credits
func (s *recalcService) RecalcClient(ctx context.Context, clientID string) error {
	client, err := s.clients.Get(ctx, clientID)
	if err != nil {
		return err
	}
	if client == nil {
		return fmt.Errorf("client %s not found", clientID)
	}

	credits, err := s.credits.ListByClient(ctx, clientID)
	if err != nil {
		return err
	}
	installments, err := s.installments.ListByClient(ctx, clientID)
	if err != nil {
		return err
	}
	payments, err := s.payments.ListByClient(ctx, clientID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	derived := DeriveClient(credits, installments, payments, now)
	if err := s.clients.UpdateDerived(ctx, clientID, derived, now); err != nil {
		return err
	}

	s.bus.Emit(ctx, events.ClientRecalculatedEvent{
		ClientID: clientID,
		Status:   derived.Status,
	})
	return nil
}

// RecalcAfterPayment runs the cascade bottom-up for one payment's scope.
// Order matters: each level reads the ledger directly, but the cascade
// stops at the first failure so callers see a consistent cut.
func (s *recalcService) RecalcAfterPayment(ctx context.Context, installmentID, creditID, clientID string) error {
	if err := s.RecalcInstallment(ctx, installmentID); err != nil {
		return fmt.Errorf("recalc cascade stopped at installment %s: %w", installmentID, err)
	}
	if err := s.RecalcCredit(ctx, creditID); err != nil {
		return fmt.Errorf("recalc cascade stopped at credit %s: %w", creditID, err)
	}
	if err := s.RecalcClient(ctx, clientID); err != nil {
		return fmt.Errorf("recalc cascade stopped at client %s: %w", clientID, err)
	}
	return nil
}

// RecalcAll recomputes every cached field, optionally scoped to a tenant.
// Used after inbound reconciliation and as the recovery path when caches
// are suspect.
func (s *recalcService) RecalcAll(ctx context.Context, tenantID string) error {
	clients, err := s.clients.ListByTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, client := range clients {
		credits, err := s.credits.ListByClient(ctx, client.ID)
		if err != nil {
			return err
		}
		installments, err := s.installments.ListByClient(ctx, client.ID)
		if err != nil {
			return err
		}
		payments, err := s.payments.ListByClient(ctx, client.ID)
		if err != nil {
			return err
		}

		for _, installment := range installments {
			derived := DeriveInstallment(installment, payments, now)
			if err := s.installments.UpdateDerived(ctx, installment.ID, derived, now); err != nil {
				return err
			}
		}
		for _, credit := range credits {
			derived := DeriveCredit(credit, installmentsFor(credit.ID, installments), payments, now)
			if err := s.credits.UpdateDerived(ctx, credit.ID, derived, now); err != nil {
				return err
			}
		}
		derived := DeriveClient(credits, installments, payments, now)
		if err := s.clients.UpdateDerived(ctx, client.ID, derived, now); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"tenantId": tenantID,
		"clients":  len(clients),
	}).Info("Full recalculation completed")
	return nil
}

// CheckIntegrity recomputes every cached value and reports divergent
// entity ids. Nothing is corrected; callers decide whether to run
// RecalcAll afterwards.
func (s *recalcService) CheckIntegrity(ctx context.Context, tenantID string) (*IntegrityReport, error) {
	clients, err := s.clients.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	report := &IntegrityReport{}
	now := time.Now().UTC()

	for _, client := range clients {
		credits, err := s.credits.ListByClient(ctx, client.ID)
		if err != nil {
			return nil, err
		}
		installments, err := s.installments.ListByClient(ctx, client.ID)
		if err != nil {
			return nil, err
		}
		payments, err := s.payments.ListByClient(ctx, client.ID)
		if err != nil {
			return nil, err
		}

		for _, installment := range installments {
			derived := DeriveInstallment(installment, payments, now)
			if installmentDiverges(installment, derived) {
				report.DivergentInstallments = append(report.DivergentInstallments, installment.ID)
			}
		}
		for _, credit := range credits {
			derived := DeriveCredit(credit, installmentsFor(credit.ID, installments), payments, now)
			if creditDiverges(credit, derived) {
				report.DivergentCredits = append(report.DivergentCredits, credit.ID)
			}
		}
		derived := DeriveClient(credits, installments, payments, now)
		if clientDiverges(client, derived) {
			report.DivergentClients = append(report.DivergentClients, client.ID)
		}
	}

	if !report.Clean() {
		log.WithFields(log.Fields{
			"tenantId":     tenantID,
			"installments": len(report.DivergentInstallments),
			"credits":      len(report.DivergentCredits),
			"clients":      len(report.DivergentClients),
		}).Warn("Integrity check found divergent cached state")
	}
	return report, nil
}

func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(integrityTolerance)
}

func installmentDiverges(stored *models.Installment, derived models.DerivedInstallment) bool {
	return !withinTolerance(stored.AmountPaid, derived.AmountPaid) ||
		!withinTolerance(stored.OutstandingBalance, derived.OutstandingBalance) ||
		stored.State != derived.State ||
		stored.OverdueDays != derived.OverdueDays
}

func creditDiverges(stored *models.Credit, derived models.DerivedCredit) bool {
	return !withinTolerance(stored.OutstandingBalance, derived.OutstandingBalance) ||
		stored.InstallmentsPaid != derived.InstallmentsPaid ||
		stored.OverdueDays != derived.OverdueDays
}

func clientDiverges(stored *models.Client, derived models.DerivedClient) bool {
	return stored.ActiveCredits != derived.ActiveCredits ||
		!withinTolerance(stored.TotalBalance, derived.TotalBalance) ||
		stored.MaxOverdueDays != derived.MaxOverdueDays ||
		stored.Status != derived.Status ||
		stored.RiskScore != derived.RiskScore
}
