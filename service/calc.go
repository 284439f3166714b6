package service

import (
	"sort"
	"time"

	"github.com/fbetancur/CrediSync360/models"
	"github.com/shopspring/decimal"
)

// Pure derivation functions. Nothing here touches storage; every value is
// computed from the installment schedule and the immutable payment ledger
// so it can be recomputed at any time.

// PaymentAllocation is one slice of a distributed payment
type PaymentAllocation struct {
	InstallmentID string
	Amount        decimal.Decimal
}

// DateOnly truncates a timestamp to its calendar day in UTC
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns whole days from one calendar day to another
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}

// paymentsFor filters the ledger down to one installment
func paymentsFor(installmentID string, payments []*models.Payment) []*models.Payment {
	var out []*models.Payment
	for _, p := range payments {
		if p.InstallmentID == installmentID {
			out = append(out, p)
		}
	}
	return out
}

// DeriveInstallment recomputes an installment's cached fields from its payments
func DeriveInstallment(installment *models.Installment, payments []*models.Payment, today time.Time) models.DerivedInstallment {
	amountPaid := decimal.Zero
	for _, p := range paymentsFor(installment.ID, payments) {
		amountPaid = amountPaid.Add(p.Amount)
	}

	outstanding := installment.ScheduledAmount.Sub(amountPaid)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}

	state := models.InstallmentStatePending
	switch {
	case amountPaid.IsZero():
		state = models.InstallmentStatePending
	case amountPaid.LessThan(installment.ScheduledAmount):
		state = models.InstallmentStatePartial
	default:
		state = models.InstallmentStatePaid
	}

	overdueDays := 0
	if state != models.InstallmentStatePaid && DateOnly(today).After(DateOnly(installment.ScheduledDate)) {
		overdueDays = DaysBetween(installment.ScheduledDate, today)
	}

	return models.DerivedInstallment{
		AmountPaid:         amountPaid,
		OutstandingBalance: outstanding,
		State:              state,
		OverdueDays:        overdueDays,
	}
}

// CalcBalance returns the outstanding balance implied by a schedule and
// its payments. Never negative, even when payments exceed the total due.
func CalcBalance(installments []*models.Installment, payments []*models.Payment) decimal.Decimal {
	scheduled := decimal.Zero
	for _, i := range installments {
		scheduled = scheduled.Add(i.ScheduledAmount)
	}
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	balance := scheduled.Sub(paid)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// DeriveCredit recomputes a credit's cached fields from its installments
// and payments. The returned Status is the ledger-implied status; the
// authoritative Credit.Status is never changed by derivation.
func DeriveCredit(credit *models.Credit, installments []*models.Installment, payments []*models.Payment, today time.Time) models.DerivedCredit {
	outstanding := decimal.Zero
	paid := 0
	maxOverdue := 0

	for _, installment := range installments {
		derived := DeriveInstallment(installment, payments, today)
		outstanding = outstanding.Add(derived.OutstandingBalance)
		if derived.State == models.InstallmentStatePaid {
			paid++
		}
		if derived.OverdueDays > maxOverdue {
			maxOverdue = derived.OverdueDays
		}
	}

	status := models.DerivedCreditCurrent
	switch {
	case outstanding.IsZero():
		status = models.DerivedCreditCancelled
	case maxOverdue > 0:
		status = models.DerivedCreditOverdue
	}

	return models.DerivedCredit{
		OutstandingBalance:  outstanding,
		InstallmentsPaid:    paid,
		InstallmentsPending: credit.InstallmentCount - paid,
		OverdueDays:         maxOverdue,
		Status:              status,
	}
}

// DeriveClient recomputes a client's cached fields across their credits.
// Aggregates are restricted to ACTIVE credits; the risk score looks at
// the completed (CANCELLED) ones.
func DeriveClient(credits []*models.Credit, installments []*models.Installment, payments []*models.Payment, today time.Time) models.DerivedClient {
	score := ComputeRiskScore(credits, installments, payments)

	var active []*models.Credit
	for _, c := range credits {
		if c.Status == models.CreditStatusActive {
			active = append(active, c)
		}
	}

	if len(active) == 0 {
		return models.DerivedClient{
			ActiveCredits:  0,
			TotalBalance:   decimal.Zero,
			MaxOverdueDays: 0,
			Status:         models.ClientStatusNoCredits,
			RiskScore:      score,
		}
	}

	total := decimal.Zero
	maxOverdue := 0
	for _, credit := range active {
		derived := DeriveCredit(credit, installmentsFor(credit.ID, installments), paymentsForCredit(credit.ID, payments), today)
		total = total.Add(derived.OutstandingBalance)
		if derived.OverdueDays > maxOverdue {
			maxOverdue = derived.OverdueDays
		}
	}

	status := models.ClientStatusCurrent
	if maxOverdue > 0 {
		status = models.ClientStatusOverdue
	}

	return models.DerivedClient{
		ActiveCredits:  len(active),
		TotalBalance:   total,
		MaxOverdueDays: maxOverdue,
		Status:         status,
		RiskScore:      score,
	}
}

func installmentsFor(creditID string, installments []*models.Installment) []*models.Installment {
	var out []*models.Installment
	for _, i := range installments {
		if i.CreditID == creditID {
			out = append(out, i)
		}
	}
	return out
}

func paymentsForCredit(creditID string, payments []*models.Payment) []*models.Payment {
	var out []*models.Payment
	for _, p := range payments {
		if p.CreditID == creditID {
			out = append(out, p)
		}
	}
	return out
}

// ComputeRiskScore classifies a client by their completed credits:
// TRUSTED after at least three clean completions and none late, RISKY
// when late completions outnumber clean ones, REGULAR otherwise. A
// completion counts as late when any installment was settled after its
// scheduled date, or never fully settled at all.
func ComputeRiskScore(credits []*models.Credit, installments []*models.Installment, payments []*models.Payment) models.RiskScore {
	clean := 0
	late := 0

	for _, credit := range credits {
		if credit.Status != models.CreditStatusCancelled {
			continue
		}
		if creditSettledLate(installmentsFor(credit.ID, installments), paymentsForCredit(credit.ID, payments)) {
			late++
		} else {
			clean++
		}
	}

	switch {
	case clean >= 3 && late == 0:
		return models.RiskScoreTrusted
	case late > clean:
		return models.RiskScoreRisky
	default:
		return models.RiskScoreRegular
	}
}

// creditSettledLate reports whether any installment of a completed credit
// was covered by payments dated after its scheduled date
func creditSettledLate(installments []*models.Installment, payments []*models.Payment) bool {
	for _, installment := range installments {
		settled, settledOn := settlementDate(installment, payments)
		if !settled {
			return true
		}
		if DateOnly(settledOn).After(DateOnly(installment.ScheduledDate)) {
			return true
		}
	}
	return false
}

// settlementDate finds the date of the payment that brought an
// installment's cumulative paid amount up to its scheduled amount
func settlementDate(installment *models.Installment, payments []*models.Payment) (bool, time.Time) {
	applicable := paymentsFor(installment.ID, payments)
	sort.Slice(applicable, func(i, j int) bool {
		return applicable[i].Date.Before(applicable[j].Date)
	})

	cumulative := decimal.Zero
	for _, p := range applicable {
		cumulative = cumulative.Add(p.Amount)
		if cumulative.GreaterThanOrEqual(installment.ScheduledAmount) {
			return true, p.Date
		}
	}
	return false, time.Time{}
}

// DistributePayment splits an amount across a credit's installments in
// chronological order (ascending installment number). Each installment
// absorbs up to its outstanding balance; fully paid installments are
// skipped without consuming anything. Any amount beyond the total
// outstanding is silently discarded — it is neither rejected nor banked
// as credit, matching long-standing collection behavior.
func DistributePayment(amount decimal.Decimal, installments []*models.Installment, payments []*models.Payment) []PaymentAllocation {
	var allocations []PaymentAllocation
	remaining := amount

	ordered := make([]*models.Installment, len(installments))
	copy(ordered, installments)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Number < ordered[j].Number
	})

	for _, installment := range ordered {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}

		derived := DeriveInstallment(installment, payments, installment.ScheduledDate)
		outstanding := derived.OutstandingBalance
		if outstanding.LessThanOrEqual(decimal.Zero) {
			continue
		}

		if remaining.GreaterThanOrEqual(outstanding) {
			allocations = append(allocations, PaymentAllocation{
				InstallmentID: installment.ID,
				Amount:        outstanding,
			})
			remaining = remaining.Sub(outstanding)
		} else {
			allocations = append(allocations, PaymentAllocation{
				InstallmentID: installment.ID,
				Amount:        remaining,
			})
			remaining = decimal.Zero
		}
	}

	return allocations
}

// CreditTotals computes the repayment total and per-installment amount
// for a principal at a flat interest rate, rounded to whole units
func CreditTotals(principal, interestRate decimal.Decimal, installmentCount int) (total, perInstallment decimal.Decimal) {
	factor := decimal.NewFromInt(1).Add(interestRate.Div(decimal.NewFromInt(100)))
	total = principal.Mul(factor).Round(0)
	perInstallment = total.Div(decimal.NewFromInt(int64(installmentCount))).Round(0)
	return total, perInstallment
}

// ScheduleDates generates the due dates for a repayment schedule. Daily
// schedules optionally skip Sundays, pushing the due date to Monday;
// Sunday itself is never emitted.
func ScheduleDates(first time.Time, count int, frequency models.Frequency, skipSundays bool) []time.Time {
	dates := make([]time.Time, 0, count)
	current := DateOnly(first)

	for i := 0; i < count; i++ {
		dates = append(dates, current)

		if i == count-1 {
			break
		}
		switch frequency {
		case models.FrequencyDaily:
			current = current.AddDate(0, 0, 1)
			if skipSundays {
				for current.Weekday() == time.Sunday {
					current = current.AddDate(0, 0, 1)
				}
			}
		case models.FrequencyWeekly:
			current = current.AddDate(0, 0, 7)
		case models.FrequencyBiweekly:
			current = current.AddDate(0, 0, 15)
		case models.FrequencyMonthly:
			current = current.AddDate(0, 0, 30)
		}
	}

	return dates
}
