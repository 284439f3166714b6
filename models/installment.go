package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentState is the cached payment state of a single installment
type InstallmentState string

const (
	InstallmentStatePending InstallmentState = "PENDING"
	InstallmentStatePartial InstallmentState = "PARTIAL"
	InstallmentStatePaid    InstallmentState = "PAID"
)

// Installment is one scheduled due amount within a credit's repayment
// schedule. ScheduledAmount and ScheduledDate are fixed at origination;
// the remaining fields below them are a cache over the payment ledger.
type Installment struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenantId"`
	RouteID     string `json:"routeId"`
	CreditID    string `json:"creditId"`
	ClientID    string `json:"clientId"`
	CollectorID string `json:"collectorId"`

	Number          int             `json:"number"`
	ScheduledDate   time.Time       `json:"scheduledDate"`
	ScheduledAmount decimal.Decimal `json:"scheduledAmount"`

	// Cached aggregates, updated by the recalculation cascade only
	AmountPaid         decimal.Decimal  `json:"amountPaid"`
	OutstandingBalance decimal.Decimal  `json:"outstandingBalance"`
	State              InstallmentState `json:"state"`
	OverdueDays        int              `json:"overdueDays"`
	LastRecalculated   time.Time        `json:"lastRecalculated"`

	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}
