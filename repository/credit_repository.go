package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fbetancur/CrediSync360/database"
	"github.com/fbetancur/CrediSync360/models"
)

// CreditRepository implements the service.CreditRepository interface
type CreditRepository struct {
	q Queryable
}

// NewCreditRepository creates a new credit repository
func NewCreditRepository(db *database.DB) *CreditRepository {
	return &CreditRepository{q: db.DB}
}

const creditColumns = `
	id, tenant_id, route_id, client_id, product_id, collector_id,
	principal, interest_rate, total_to_repay, installment_count, installment_amount, frequency,
	disbursement_date, first_installment_date, last_installment_date, status,
	outstanding_balance, installments_paid, overdue_days, last_recalculated,
	created_at, created_by`

func scanCredit(s scanner) (*models.Credit, error) {
	var (
		credit                                              models.Credit
		principal, rate, total, perInstallment, outstanding string
		disbursed, first, last                              string
		recalcAt                                            sql.NullTime
	)
	err := s.Scan(
		&credit.ID, &credit.TenantID, &credit.RouteID, &credit.ClientID,
		&credit.ProductID, &credit.CollectorID,
		&principal, &rate, &total, &credit.InstallmentCount, &perInstallment, &credit.Frequency,
		&disbursed, &first, &last, &credit.Status,
		&outstanding, &credit.InstallmentsPaid, &credit.OverdueDays, &recalcAt,
		&credit.CreatedAt, &credit.CreatedBy,
	)
	if err != nil {
		return nil, err
	}

	if credit.Principal, err = parseDecimal(principal); err != nil {
		return nil, err
	}
	if credit.InterestRate, err = parseDecimal(rate); err != nil {
		return nil, err
	}
	if credit.TotalToRepay, err = parseDecimal(total); err != nil {
		return nil, err
	}
	if credit.InstallmentAmount, err = parseDecimal(perInstallment); err != nil {
		return nil, err
	}
	if credit.OutstandingBalance, err = parseDecimal(outstanding); err != nil {
		return nil, err
	}
	if credit.DisbursementDate, err = parseDate(disbursed); err != nil {
		return nil, err
	}
	if credit.FirstInstallmentDate, err = parseDate(first); err != nil {
		return nil, err
	}
	if credit.LastInstallmentDate, err = parseDate(last); err != nil {
		return nil, err
	}
	if recalcAt.Valid {
		credit.LastRecalculated = recalcAt.Time
	}
	return &credit, nil
}

func creditArgs(credit *models.Credit) []any {
	return []any{
		credit.ID, credit.TenantID, credit.RouteID, credit.ClientID,
		credit.ProductID, credit.CollectorID,
		credit.Principal.String(), credit.InterestRate.String(), credit.TotalToRepay.String(),
		credit.InstallmentCount, credit.InstallmentAmount.String(), string(credit.Frequency),
		fmtDate(credit.DisbursementDate), fmtDate(credit.FirstInstallmentDate),
		fmtDate(credit.LastInstallmentDate), string(credit.Status),
		credit.OutstandingBalance.String(), credit.InstallmentsPaid, credit.OverdueDays,
		credit.LastRecalculated,
		credit.CreatedAt, credit.CreatedBy,
	}
}

// Get retrieves a credit by id, returning (nil, nil) when absent
func (r *CreditRepository) Get(ctx context.Context, id string) (*models.Credit, error) {
	query := `SELECT ` + creditColumns + ` FROM credits WHERE id = ?`

	credit, err := scanCredit(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credit %s: %w", id, err)
	}
	return credit, nil
}

// Create stores a new credit
func (r *CreditRepository) Create(ctx context.Context, credit *models.Credit) error {
	query := `
		INSERT INTO credits (` + creditColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.q.ExecContext(ctx, query, creditArgs(credit)...)
	if err != nil {
		return fmt.Errorf("failed to create credit %s: %w", credit.ID, err)
	}
	return nil
}

// Upsert inserts or overwrites a credit by primary key
func (r *CreditRepository) Upsert(ctx context.Context, credit *models.Credit) error {
	query := `
		INSERT INTO credits (` + creditColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			route_id = excluded.route_id,
			client_id = excluded.client_id,
			product_id = excluded.product_id,
			collector_id = excluded.collector_id,
			principal = excluded.principal,
			interest_rate = excluded.interest_rate,
			total_to_repay = excluded.total_to_repay,
			installment_count = excluded.installment_count,
			installment_amount = excluded.installment_amount,
			frequency = excluded.frequency,
			disbursement_date = excluded.disbursement_date,
			first_installment_date = excluded.first_installment_date,
			last_installment_date = excluded.last_installment_date,
			status = excluded.status,
			outstanding_balance = excluded.outstanding_balance,
			installments_paid = excluded.installments_paid,
			overdue_days = excluded.overdue_days,
			last_recalculated = excluded.last_recalculated,
			created_at = excluded.created_at,
			created_by = excluded.created_by`

	_, err := r.q.ExecContext(ctx, query, creditArgs(credit)...)
	if err != nil {
		return fmt.Errorf("failed to upsert credit %s: %w", credit.ID, err)
	}
	return nil
}

// UpdateDerived persists recomputed cached fields. The authoritative
// status column is deliberately not touched here.
func (r *CreditRepository) UpdateDerived(ctx context.Context, id string, derived models.DerivedCredit, at time.Time) error {
	query := `
		UPDATE credits SET
			outstanding_balance = ?,
			installments_paid = ?,
			overdue_days = ?,
			last_recalculated = ?
		WHERE id = ?`

	result, err := r.q.ExecContext(ctx, query,
		derived.OutstandingBalance.String(), derived.InstallmentsPaid, derived.OverdueDays, at, id)
	if err != nil {
		return fmt.Errorf("failed to update derived fields for credit %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("credit %s not found", id)
	}
	return nil
}

// ListByClient returns all credits belonging to one client
func (r *CreditRepository) ListByClient(ctx context.Context, clientID string) ([]*models.Credit, error) {
	query := `SELECT ` + creditColumns + ` FROM credits WHERE client_id = ? ORDER BY disbursement_date, id`
	return r.list(ctx, query, clientID)
}

// ListByTenant returns all credits for a tenant; empty tenantID returns everything
func (r *CreditRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.Credit, error) {
	query := `SELECT ` + creditColumns + ` FROM credits WHERE (? = '' OR tenant_id = ?) ORDER BY disbursement_date, id`
	return r.list(ctx, query, tenantID, tenantID)
}

// ListDisbursedOn returns credits a collector disbursed on a given day
func (r *CreditRepository) ListDisbursedOn(ctx context.Context, tenantID, collectorID string, date time.Time) ([]*models.Credit, error) {
	query := `
		SELECT ` + creditColumns + `
		FROM credits
		WHERE tenant_id = ? AND collector_id = ? AND disbursement_date = ?
		ORDER BY id`
	return r.list(ctx, query, tenantID, collectorID, fmtDate(date))
}

func (r *CreditRepository) list(ctx context.Context, query string, args ...any) ([]*models.Credit, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list credits: %w", err)
	}
	defer rows.Close()

	var credits []*models.Credit
	for rows.Next() {
		credit, err := scanCredit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit: %w", err)
		}
		credits = append(credits, credit)
	}
	return credits, rows.Err()
}
