package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fbetancur/CrediSync360/database"
	"github.com/fbetancur/CrediSync360/models"
)

// CashMovementRepository implements the service.CashMovementRepository interface
type CashMovementRepository struct {
	q Queryable
}

// NewCashMovementRepository creates a new cash movement repository
func NewCashMovementRepository(db *database.DB) *CashMovementRepository {
	return &CashMovementRepository{q: db.DB}
}

const movementColumns = `
	id, tenant_id, collector_id, date, type, description, amount, created_at, created_by`

func scanMovement(s scanner) (*models.CashMovement, error) {
	var (
		movement models.CashMovement
		date     string
		amount   string
	)
	err := s.Scan(
		&movement.ID, &movement.TenantID, &movement.CollectorID, &date,
		&movement.Type, &movement.Description, &amount,
		&movement.CreatedAt, &movement.CreatedBy,
	)
	if err != nil {
		return nil, err
	}

	if movement.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	if movement.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	return &movement, nil
}

// Get retrieves a movement by id, returning (nil, nil) when absent
func (r *CashMovementRepository) Get(ctx context.Context, id string) (*models.CashMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM cash_movements WHERE id = ?`

	movement, err := scanMovement(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cash movement %s: %w", id, err)
	}
	return movement, nil
}

// Create stores a manual cash entry
func (r *CashMovementRepository) Create(ctx context.Context, movement *models.CashMovement) error {
	query := `
		INSERT INTO cash_movements (` + movementColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.q.ExecContext(ctx, query,
		movement.ID, movement.TenantID, movement.CollectorID, fmtDate(movement.Date),
		string(movement.Type), movement.Description, movement.Amount.String(),
		movement.CreatedAt, movement.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to create cash movement %s: %w", movement.ID, err)
	}
	return nil
}

// Delete removes a manual cash entry
func (r *CashMovementRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM cash_movements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cash movement %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("cash movement %s not found", id)
	}
	return nil
}

// ListByDay returns a collector's movements for one day
func (r *CashMovementRepository) ListByDay(ctx context.Context, tenantID, collectorID string, date time.Time) ([]*models.CashMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM cash_movements
		WHERE tenant_id = ? AND collector_id = ? AND date = ?
		ORDER BY created_at`

	rows, err := r.q.QueryContext(ctx, query, tenantID, collectorID, fmtDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list cash movements for %s on %s: %w", collectorID, fmtDate(date), err)
	}
	defer rows.Close()

	var movements []*models.CashMovement
	for rows.Next() {
		movement, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cash movement: %w", err)
		}
		movements = append(movements, movement)
	}
	return movements, rows.Err()
}
