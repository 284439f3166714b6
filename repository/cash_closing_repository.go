package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fbetancur/CrediSync360/database"
	"github.com/fbetancur/CrediSync360/models"
)

// CashClosingRepository implements the service.CashClosingRepository
// interface. The UNIQUE(tenant_id, collector_id, date) constraint makes
// a closing row the single marker of a closed day.
type CashClosingRepository struct {
	q Queryable
}

// NewCashClosingRepository creates a new cash closing repository
func NewCashClosingRepository(db *database.DB) *CashClosingRepository {
	return &CashClosingRepository{q: db.DB}
}

const closingColumns = `
	id, tenant_id, collector_id, date,
	base_amount, collected_total, disbursed_total, cash_in_total, cash_out_total, closing_total,
	installments_settled, installments_due, clients_visited, notes,
	created_at, created_by`

func scanClosing(s scanner) (*models.CashClosing, error) {
	var (
		closing                                      models.CashClosing
		date                                         string
		base, collected, disbursed, in, out, total string
	)
	err := s.Scan(
		&closing.ID, &closing.TenantID, &closing.CollectorID, &date,
		&base, &collected, &disbursed, &in, &out, &total,
		&closing.InstallmentsSettled, &closing.InstallmentsDue, &closing.ClientsVisited,
		&closing.Notes, &closing.CreatedAt, &closing.CreatedBy,
	)
	if err != nil {
		return nil, err
	}

	if closing.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	if closing.BaseAmount, err = parseDecimal(base); err != nil {
		return nil, err
	}
	if closing.CollectedTotal, err = parseDecimal(collected); err != nil {
		return nil, err
	}
	if closing.DisbursedTotal, err = parseDecimal(disbursed); err != nil {
		return nil, err
	}
	if closing.CashInTotal, err = parseDecimal(in); err != nil {
		return nil, err
	}
	if closing.CashOutTotal, err = parseDecimal(out); err != nil {
		return nil, err
	}
	if closing.ClosingTotal, err = parseDecimal(total); err != nil {
		return nil, err
	}
	return &closing, nil
}

// GetByDay returns the closing for (tenant, collector, date), or (nil, nil)
func (r *CashClosingRepository) GetByDay(ctx context.Context, tenantID, collectorID string, date time.Time) (*models.CashClosing, error) {
	query := `
		SELECT ` + closingColumns + `
		FROM cash_closings
		WHERE tenant_id = ? AND collector_id = ? AND date = ?`

	closing, err := scanClosing(r.q.QueryRowContext(ctx, query, tenantID, collectorID, fmtDate(date)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cash closing for %s on %s: %w", collectorID, fmtDate(date), err)
	}
	return closing, nil
}

// Create stores a closing record, marking the day closed
func (r *CashClosingRepository) Create(ctx context.Context, closing *models.CashClosing) error {
	query := `
		INSERT INTO cash_closings (` + closingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.q.ExecContext(ctx, query,
		closing.ID, closing.TenantID, closing.CollectorID, fmtDate(closing.Date),
		closing.BaseAmount.String(), closing.CollectedTotal.String(), closing.DisbursedTotal.String(),
		closing.CashInTotal.String(), closing.CashOutTotal.String(), closing.ClosingTotal.String(),
		closing.InstallmentsSettled, closing.InstallmentsDue, closing.ClientsVisited,
		closing.Notes, closing.CreatedAt, closing.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to create cash closing %s: %w", closing.ID, err)
	}
	return nil
}

// Delete removes a closing record, reopening the day
func (r *CashClosingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM cash_closings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cash closing %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("cash closing %s not found", id)
	}
	return nil
}
