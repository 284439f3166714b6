package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the repayment cadence of a credit
type Frequency string

const (
	FrequencyDaily    Frequency = "DAILY"
	FrequencyWeekly   Frequency = "WEEKLY"
	FrequencyBiweekly Frequency = "BIWEEKLY"
	FrequencyMonthly  Frequency = "MONTHLY"
)

// CreditStatus is the authoritative lifecycle status of a credit,
// set at creation or cancellation. It is never touched by the
// recalculation cascade.
type CreditStatus string

const (
	CreditStatusActive     CreditStatus = "ACTIVE"
	CreditStatusCancelled  CreditStatus = "CANCELLED"
	CreditStatusWrittenOff CreditStatus = "WRITTEN_OFF"
)

// Credit represents an originated loan with a fixed repayment schedule
type Credit struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenantId"`
	RouteID     string `json:"routeId"`
	ClientID    string `json:"clientId"`
	ProductID   string `json:"productId"`
	CollectorID string `json:"collectorId"`

	Principal         decimal.Decimal `json:"principal"`
	InterestRate      decimal.Decimal `json:"interestRate"` // percentage, e.g. 20 = 20%
	TotalToRepay      decimal.Decimal `json:"totalToRepay"`
	InstallmentCount  int             `json:"installmentCount"`
	InstallmentAmount decimal.Decimal `json:"installmentAmount"`
	Frequency         Frequency       `json:"frequency"`

	DisbursementDate     time.Time `json:"disbursementDate"`
	FirstInstallmentDate time.Time `json:"firstInstallmentDate"`
	LastInstallmentDate  time.Time `json:"lastInstallmentDate"`

	Status CreditStatus `json:"status"`

	// Cached aggregates, updated by the recalculation cascade only
	OutstandingBalance decimal.Decimal `json:"outstandingBalance"`
	InstallmentsPaid   int             `json:"installmentsPaid"`
	OverdueDays        int             `json:"overdueDays"`
	LastRecalculated   time.Time       `json:"lastRecalculated"`

	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}
