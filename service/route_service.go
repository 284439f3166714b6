package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fbetancur/CrediSync360/models"
	"github.com/shopspring/decimal"
)

type routeService struct {
	clients      ClientRepository
	credits      CreditRepository
	installments InstallmentRepository
	payments     PaymentRepository
}

// NewRouteService creates a new route service
func NewRouteService(
	clients ClientRepository,
	credits CreditRepository,
	installments InstallmentRepository,
	payments PaymentRepository,
) RouteService {
	return &routeService{
		clients:      clients,
		credits:      credits,
		installments: installments,
		payments:     payments,
	}
}

// DailyRoute groups collectible installments by client. Collectible means
// scheduled on or before today and not fully paid. The default order puts
// overdue clients first (most overdue at the top), then sorts by name; a
// non-empty manualOrder overrides that entirely, with unknown ids last.
func (s *routeService) DailyRoute(ctx context.Context, tenantID string, today time.Time, manualOrder []string) ([]*ClientBasket, error) {
	due, err := s.installments.ListDueOnOrBefore(ctx, tenantID, today)
	if err != nil {
		return nil, err
	}

	byClient := make(map[string][]*models.Installment)
	var clientOrder []string
	for _, installment := range due {
		if installment.State == models.InstallmentStatePaid {
			continue
		}
		if _, seen := byClient[installment.ClientID]; !seen {
			clientOrder = append(clientOrder, installment.ClientID)
		}
		byClient[installment.ClientID] = append(byClient[installment.ClientID], installment)
	}

	baskets := make([]*ClientBasket, 0, len(byClient))
	for _, clientID := range clientOrder {
		installments := byClient[clientID]

		client, err := s.clients.Get(ctx, clientID)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, fmt.Errorf("client %s referenced by due installments not found", clientID)
		}

		// The basket shows the credit of the oldest due installment; a
		// client rarely carries more than one active credit.
		credit, err := s.credits.Get(ctx, installments[0].CreditID)
		if err != nil {
			return nil, err
		}

		total := decimal.Zero
		maxOverdue := 0
		for _, installment := range installments {
			total = total.Add(installment.OutstandingBalance)
			if installment.OverdueDays > maxOverdue {
				maxOverdue = installment.OverdueDays
			}
		}

		baskets = append(baskets, &ClientBasket{
			Client:           client,
			Credit:           credit,
			Installments:     installments,
			TotalOutstanding: total,
			MaxOverdueDays:   maxOverdue,
		})
	}

	if len(manualOrder) > 0 {
		sortBasketsManually(baskets, manualOrder)
		return baskets, nil
	}

	sort.SliceStable(baskets, func(i, j int) bool {
		if baskets[i].MaxOverdueDays != baskets[j].MaxOverdueDays {
			return baskets[i].MaxOverdueDays > baskets[j].MaxOverdueDays
		}
		return baskets[i].Client.Name < baskets[j].Client.Name
	})
	return baskets, nil
}

func sortBasketsManually(baskets []*ClientBasket, manualOrder []string) {
	position := make(map[string]int, len(manualOrder))
	for i, id := range manualOrder {
		position[id] = i
	}
	rank := func(b *ClientBasket) int {
		if p, ok := position[b.Client.ID]; ok {
			return p
		}
		return len(manualOrder)
	}
	sort.SliceStable(baskets, func(i, j int) bool {
		return rank(baskets[i]) < rank(baskets[j])
	})
}

// DailyStats summarizes a collector's day. Collected is summed from the
// ledger; settled/pending counts read the cached installment state, which
// the cascade keeps current after every payment.
func (s *routeService) DailyStats(ctx context.Context, tenantID, collectorID string, today time.Time) (*RouteStats, error) {
	payments, err := s.payments.ListByCollectorOn(ctx, tenantID, collectorID, today)
	if err != nil {
		return nil, err
	}

	collected := decimal.Zero
	touched := make(map[string]bool)
	for _, payment := range payments {
		collected = collected.Add(payment.Amount)
		touched[payment.InstallmentID] = true
	}

	settled := 0
	for installmentID := range touched {
		installment, err := s.installments.Get(ctx, installmentID)
		if err != nil {
			return nil, err
		}
		if installment != nil && installment.State == models.InstallmentStatePaid {
			settled++
		}
	}

	due, err := s.installments.ListDueOnOrBefore(ctx, tenantID, today)
	if err != nil {
		return nil, err
	}
	pending := 0
	for _, installment := range due {
		if installment.State != models.InstallmentStatePaid {
			pending++
		}
	}

	return &RouteStats{
		CollectedToday:      collected,
		InstallmentsSettled: settled,
		InstallmentsPending: pending,
	}, nil
}
