package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is an immutable ledger entry. Once created it is never updated
// or deleted; every cached aggregate in the system derives from the set
// of payments plus the installment schedule.
type Payment struct {
	ID            string `json:"id"`
	TenantID      string `json:"tenantId"`
	RouteID       string `json:"routeId"`
	CreditID      string `json:"creditId"`
	InstallmentID string `json:"installmentId"`
	ClientID      string `json:"clientId"`
	CollectorID   string `json:"collectorId"`

	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Notes     string   `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}
