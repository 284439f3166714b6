package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fbetancur/CrediSync360/database"
	"github.com/fbetancur/CrediSync360/models"
)

// InstallmentRepository implements the service.InstallmentRepository interface
type InstallmentRepository struct {
	q Queryable
}

// NewInstallmentRepository creates a new installment repository
func NewInstallmentRepository(db *database.DB) *InstallmentRepository {
	return &InstallmentRepository{q: db.DB}
}

const installmentColumns = `
	id, tenant_id, route_id, credit_id, client_id, collector_id,
	number, scheduled_date, scheduled_amount,
	amount_paid, outstanding_balance, state, overdue_days, last_recalculated,
	created_at, created_by`

func scanInstallment(s scanner) (*models.Installment, error) {
	var (
		installment                       models.Installment
		scheduledDate                     string
		scheduledAmount, paid, outstanding string
		recalcAt                          sql.NullTime
	)
	err := s.Scan(
		&installment.ID, &installment.TenantID, &installment.RouteID,
		&installment.CreditID, &installment.ClientID, &installment.CollectorID,
		&installment.Number, &scheduledDate, &scheduledAmount,
		&paid, &outstanding, &installment.State, &installment.OverdueDays, &recalcAt,
		&installment.CreatedAt, &installment.CreatedBy,
	)
	if err != nil {
		return nil, err
	}

	if installment.ScheduledDate, err = parseDate(scheduledDate); err != nil {
		return nil, err
	}
	if installment.ScheduledAmount, err = parseDecimal(scheduledAmount); err != nil {
		return nil, err
	}
	if installment.AmountPaid, err = parseDecimal(paid); err != nil {
		return nil, err
	}
	if installment.OutstandingBalance, err = parseDecimal(outstanding); err != nil {
		return nil, err
	}
	if recalcAt.Valid {
		installment.LastRecalculated = recalcAt.Time
	}
	return &installment, nil
}

func installmentArgs(installment *models.Installment) []any {
	return []any{
		installment.ID, installment.TenantID, installment.RouteID,
		installment.CreditID, installment.ClientID, installment.CollectorID,
		installment.Number, fmtDate(installment.ScheduledDate), installment.ScheduledAmount.String(),
		installment.AmountPaid.String(), installment.OutstandingBalance.String(),
		string(installment.State), installment.OverdueDays, installment.LastRecalculated,
		installment.CreatedAt, installment.CreatedBy,
	}
}

// Get retrieves an installment by id, returning (nil, nil) when absent
func (r *InstallmentRepository) Get(ctx context.Context, id string) (*models.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE id = ?`

	installment, err := scanInstallment(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get installment %s: %w", id, err)
	}
	return installment, nil
}

// BulkCreate stores a credit's full schedule in one pass
func (r *InstallmentRepository) BulkCreate(ctx context.Context, installments []*models.Installment) error {
	query := `
		INSERT INTO installments (` + installmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, installment := range installments {
		if _, err := r.q.ExecContext(ctx, query, installmentArgs(installment)...); err != nil {
			return fmt.Errorf("failed to create installment %s: %w", installment.ID, err)
		}
	}
	return nil
}

// Upsert inserts or overwrites an installment by primary key
func (r *InstallmentRepository) Upsert(ctx context.Context, installment *models.Installment) error {
	query := `
		INSERT INTO installments (` + installmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			route_id = excluded.route_id,
			credit_id = excluded.credit_id,
			client_id = excluded.client_id,
			collector_id = excluded.collector_id,
			number = excluded.number,
			scheduled_date = excluded.scheduled_date,
			scheduled_amount = excluded.scheduled_amount,
			amount_paid = excluded.amount_paid,
			outstanding_balance = excluded.outstanding_balance,
			state = excluded.state,
			overdue_days = excluded.overdue_days,
			last_recalculated = excluded.last_recalculated,
			created_at = excluded.created_at,
			created_by = excluded.created_by`

	_, err := r.q.ExecContext(ctx, query, installmentArgs(installment)...)
	if err != nil {
		return fmt.Errorf("failed to upsert installment %s: %w", installment.ID, err)
	}
	return nil
}

// UpdateDerived persists recomputed cached fields
func (r *InstallmentRepository) UpdateDerived(ctx context.Context, id string, derived models.DerivedInstallment, at time.Time) error {
	query := `
		UPDATE installments SET
			amount_paid = ?,
			outstanding_balance = ?,
			state = ?,
			overdue_days = ?,
			last_recalculated = ?
		WHERE id = ?`

	result, err := r.q.ExecContext(ctx, query,
		derived.AmountPaid.String(), derived.OutstandingBalance.String(),
		string(derived.State), derived.OverdueDays, at, id)
	if err != nil {
		return fmt.Errorf("failed to update derived fields for installment %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("installment %s not found", id)
	}
	return nil
}

// ListByCredit returns a credit's schedule ordered by installment number
func (r *InstallmentRepository) ListByCredit(ctx context.Context, creditID string) ([]*models.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE credit_id = ? ORDER BY number`
	return r.list(ctx, query, creditID)
}

// ListByClient returns all installments across a client's credits
func (r *InstallmentRepository) ListByClient(ctx context.Context, clientID string) ([]*models.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE client_id = ? ORDER BY credit_id, number`
	return r.list(ctx, query, clientID)
}

// ListByTenant returns all installments for a tenant; empty tenantID returns everything
func (r *InstallmentRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE (? = '' OR tenant_id = ?) ORDER BY credit_id, number`
	return r.list(ctx, query, tenantID, tenantID)
}

// ListDueOnOrBefore returns installments scheduled on or before date
func (r *InstallmentRepository) ListDueOnOrBefore(ctx context.Context, tenantID string, date time.Time) ([]*models.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE tenant_id = ? AND scheduled_date <= ?
		ORDER BY scheduled_date, number`
	return r.list(ctx, query, tenantID, fmtDate(date))
}

// ListScheduledOn returns installments scheduled exactly on date
func (r *InstallmentRepository) ListScheduledOn(ctx context.Context, tenantID string, date time.Time) ([]*models.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE tenant_id = ? AND scheduled_date = ?
		ORDER BY number`
	return r.list(ctx, query, tenantID, fmtDate(date))
}

func (r *InstallmentRepository) list(ctx context.Context, query string, args ...any) ([]*models.Installment, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	defer rows.Close()

	var installments []*models.Installment
	for rows.Next() {
		installment, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		installments = append(installments, installment)
	}
	return installments, rows.Err()
}
