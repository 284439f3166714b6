package models

import "github.com/shopspring/decimal"

// DerivedCreditStatus is the status a credit's ledger implies, as opposed
// to the authoritative Credit.Status. It is computed on demand and never
// persisted.
type DerivedCreditStatus string

const (
	DerivedCreditCurrent   DerivedCreditStatus = "CURRENT"
	DerivedCreditOverdue   DerivedCreditStatus = "OVERDUE"
	DerivedCreditCancelled DerivedCreditStatus = "CANCELLED"
)

// DerivedInstallment holds the recomputed cached fields of an installment
type DerivedInstallment struct {
	AmountPaid         decimal.Decimal
	OutstandingBalance decimal.Decimal
	State              InstallmentState
	OverdueDays        int
}

// DerivedCredit holds the recomputed cached fields of a credit
type DerivedCredit struct {
	OutstandingBalance  decimal.Decimal
	InstallmentsPaid    int
	InstallmentsPending int
	OverdueDays         int
	Status              DerivedCreditStatus
}

// DerivedClient holds the recomputed cached fields of a client
type DerivedClient struct {
	ActiveCredits  int
	TotalBalance   decimal.Decimal
	MaxOverdueDays int
	Status         ClientStatus
	RiskScore      RiskScore
}
