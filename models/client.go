package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClientStatus represents the payment standing of a client
type ClientStatus string

const (
	ClientStatusNoCredits ClientStatus = "NO_CREDITS"
	ClientStatusCurrent   ClientStatus = "CURRENT"
	ClientStatusOverdue   ClientStatus = "OVERDUE"
)

// RiskScore classifies a client by their completed-credit history
type RiskScore string

const (
	RiskScoreTrusted RiskScore = "TRUSTED"
	RiskScoreRegular RiskScore = "REGULAR"
	RiskScoreRisky   RiskScore = "RISKY"
)

// Client represents a borrower on a collector's route.
// The aggregate fields (ActiveCredits through LastRecalculated) are a cache
// owned by the recalculation cascade; they are always re-derivable from the
// installment/payment ledger.
type Client struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenantId"`
	RouteID      string `json:"routeId"`
	Name         string `json:"name"`
	Document     string `json:"document"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Neighborhood string `json:"neighborhood"`
	Reference    string `json:"reference"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// Cached aggregates, updated by the recalculation cascade only
	ActiveCredits    int             `json:"activeCredits"`
	TotalBalance     decimal.Decimal `json:"totalBalance"`
	MaxOverdueDays   int             `json:"maxOverdueDays"`
	Status           ClientStatus    `json:"status"`
	RiskScore        RiskScore       `json:"riskScore"`
	LastRecalculated time.Time       `json:"lastRecalculated"`

	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}
