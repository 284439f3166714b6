package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType distinguishes manual cash entries from withdrawals
type MovementType string

const (
	MovementTypeCashIn  MovementType = "CASH_IN"
	MovementTypeCashOut MovementType = "CASH_OUT"
)

// CashClosing is a snapshot of one collector's cash day. The presence of
// a closing record for (tenant, collector, date) marks that day closed;
// deleting the record reopens the day.
type CashClosing struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenantId"`
	CollectorID string    `json:"collectorId"`
	Date        time.Time `json:"date"`

	BaseAmount     decimal.Decimal `json:"baseAmount"`
	CollectedTotal decimal.Decimal `json:"collectedTotal"`
	DisbursedTotal decimal.Decimal `json:"disbursedTotal"`
	CashInTotal    decimal.Decimal `json:"cashInTotal"`
	CashOutTotal   decimal.Decimal `json:"cashOutTotal"`
	ClosingTotal   decimal.Decimal `json:"closingTotal"`

	InstallmentsSettled int    `json:"installmentsSettled"`
	InstallmentsDue     int    `json:"installmentsDue"`
	ClientsVisited      int    `json:"clientsVisited"`
	Notes               string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

// CashMovement is a manual cash-in or cash-out entry for an open day
type CashMovement struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenantId"`
	CollectorID string    `json:"collectorId"`
	Date        time.Time `json:"date"`

	Type        MovementType    `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`

	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}
