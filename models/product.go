package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditProduct is a lending template: interest, schedule shape and
// amount limits for credits originated from it.
type CreditProduct struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Name     string `json:"name"`

	InterestRate     decimal.Decimal `json:"interestRate"` // percentage
	InstallmentCount int             `json:"installmentCount"`
	Frequency        Frequency       `json:"frequency"`
	SkipSundays      bool            `json:"skipSundays"`

	MinAmount *decimal.Decimal `json:"minAmount,omitempty"`
	MaxAmount *decimal.Decimal `json:"maxAmount,omitempty"`
	Active    bool             `json:"active"`

	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

// Route is a named subset of clients assigned to one field collector
type Route struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenantId"`
	Name         string    `json:"name"`
	SupervisorID string    `json:"supervisorId"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	CreatedBy    string    `json:"createdBy"`
}
