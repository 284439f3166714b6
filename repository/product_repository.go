package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fbetancur/CrediSync360/database"
	"github.com/fbetancur/CrediSync360/models"
)

// CreditProductRepository implements the service.CreditProductRepository interface
type CreditProductRepository struct {
	q Queryable
}

// NewCreditProductRepository creates a new credit product repository
func NewCreditProductRepository(db *database.DB) *CreditProductRepository {
	return &CreditProductRepository{q: db.DB}
}

const productColumns = `
	id, tenant_id, name, interest_rate, installment_count, frequency, skip_sundays,
	min_amount, max_amount, active, created_at, created_by`

func scanProduct(s scanner) (*models.CreditProduct, error) {
	var (
		product  models.CreditProduct
		rate     string
		min, max sql.NullString
	)
	err := s.Scan(
		&product.ID, &product.TenantID, &product.Name,
		&rate, &product.InstallmentCount, &product.Frequency, &product.SkipSundays,
		&min, &max, &product.Active, &product.CreatedAt, &product.CreatedBy,
	)
	if err != nil {
		return nil, err
	}

	if product.InterestRate, err = parseDecimal(rate); err != nil {
		return nil, err
	}
	if product.MinAmount, err = nullableDecimal(min); err != nil {
		return nil, err
	}
	if product.MaxAmount, err = nullableDecimal(max); err != nil {
		return nil, err
	}
	return &product, nil
}

// Get retrieves a product by id, returning (nil, nil) when absent
func (r *CreditProductRepository) Get(ctx context.Context, id string) (*models.CreditProduct, error) {
	query := `SELECT ` + productColumns + ` FROM credit_products WHERE id = ?`

	product, err := scanProduct(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credit product %s: %w", id, err)
	}
	return product, nil
}

// Upsert inserts or overwrites a product by primary key. Products are
// authored remotely; locally they only arrive through reconciliation.
func (r *CreditProductRepository) Upsert(ctx context.Context, product *models.CreditProduct) error {
	query := `
		INSERT INTO credit_products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			name = excluded.name,
			interest_rate = excluded.interest_rate,
			installment_count = excluded.installment_count,
			frequency = excluded.frequency,
			skip_sundays = excluded.skip_sundays,
			min_amount = excluded.min_amount,
			max_amount = excluded.max_amount,
			active = excluded.active,
			created_at = excluded.created_at,
			created_by = excluded.created_by`

	_, err := r.q.ExecContext(ctx, query,
		product.ID, product.TenantID, product.Name,
		product.InterestRate.String(), product.InstallmentCount, string(product.Frequency),
		product.SkipSundays,
		nullableDecimalArg(product.MinAmount), nullableDecimalArg(product.MaxAmount),
		product.Active, product.CreatedAt, product.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to upsert credit product %s: %w", product.ID, err)
	}
	return nil
}

// ListActive returns a tenant's active lending products
func (r *CreditProductRepository) ListActive(ctx context.Context, tenantID string) ([]*models.CreditProduct, error) {
	query := `
		SELECT ` + productColumns + `
		FROM credit_products
		WHERE tenant_id = ? AND active = 1
		ORDER BY name`

	rows, err := r.q.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit products for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	var products []*models.CreditProduct
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit product: %w", err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}
