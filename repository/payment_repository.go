package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fbetancur/CrediSync360/database"
	"github.com/fbetancur/CrediSync360/models"
)

// PaymentRepository implements the service.PaymentRepository interface.
// The payments table is an append-only ledger; there is no update or
// delete path besides reconciliation upserts.
type PaymentRepository struct {
	q Queryable
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{q: db.DB}
}

const paymentColumns = `
	id, tenant_id, route_id, credit_id, installment_id, client_id, collector_id,
	amount, date, latitude, longitude, notes,
	created_at, created_by`

func scanPayment(s scanner) (*models.Payment, error) {
	var (
		payment  models.Payment
		amount   string
		date     string
		lat, lng sql.NullFloat64
	)
	err := s.Scan(
		&payment.ID, &payment.TenantID, &payment.RouteID, &payment.CreditID,
		&payment.InstallmentID, &payment.ClientID, &payment.CollectorID,
		&amount, &date, &lat, &lng, &payment.Notes,
		&payment.CreatedAt, &payment.CreatedBy,
	)
	if err != nil {
		return nil, err
	}

	if payment.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	if payment.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	payment.Latitude = nullableFloat(lat)
	payment.Longitude = nullableFloat(lng)
	return &payment, nil
}

func paymentArgs(payment *models.Payment) []any {
	return []any{
		payment.ID, payment.TenantID, payment.RouteID, payment.CreditID,
		payment.InstallmentID, payment.ClientID, payment.CollectorID,
		payment.Amount.String(), fmtDate(payment.Date),
		nullableFloatArg(payment.Latitude), nullableFloatArg(payment.Longitude), payment.Notes,
		payment.CreatedAt, payment.CreatedBy,
	}
}

// Create appends a payment to the ledger
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.q.ExecContext(ctx, query, paymentArgs(payment)...)
	if err != nil {
		return fmt.Errorf("failed to create payment %s: %w", payment.ID, err)
	}
	return nil
}

// Upsert inserts or overwrites a payment by primary key. Only inbound
// reconciliation uses this; local writes always go through Create.
func (r *PaymentRepository) Upsert(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			route_id = excluded.route_id,
			credit_id = excluded.credit_id,
			installment_id = excluded.installment_id,
			client_id = excluded.client_id,
			collector_id = excluded.collector_id,
			amount = excluded.amount,
			date = excluded.date,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			notes = excluded.notes,
			created_at = excluded.created_at,
			created_by = excluded.created_by`

	_, err := r.q.ExecContext(ctx, query, paymentArgs(payment)...)
	if err != nil {
		return fmt.Errorf("failed to upsert payment %s: %w", payment.ID, err)
	}
	return nil
}

// ListByInstallment returns the payments applied to one installment
func (r *PaymentRepository) ListByInstallment(ctx context.Context, installmentID string) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE installment_id = ? ORDER BY date, created_at`
	return r.list(ctx, query, installmentID)
}

// ListByCredit returns the payments applied to one credit
func (r *PaymentRepository) ListByCredit(ctx context.Context, creditID string) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE credit_id = ? ORDER BY date, created_at`
	return r.list(ctx, query, creditID)
}

// ListByClient returns all payments across a client's credits
func (r *PaymentRepository) ListByClient(ctx context.Context, clientID string) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE client_id = ? ORDER BY date, created_at`
	return r.list(ctx, query, clientID)
}

// ListByTenant returns all payments for a tenant; empty tenantID returns everything
func (r *PaymentRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE (? = '' OR tenant_id = ?) ORDER BY date, created_at`
	return r.list(ctx, query, tenantID, tenantID)
}

// ListByCollectorOn returns a collector's payments dated on a given day
func (r *PaymentRepository) ListByCollectorOn(ctx context.Context, tenantID, collectorID string, date time.Time) ([]*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE tenant_id = ? AND collector_id = ? AND date = ?
		ORDER BY created_at`
	return r.list(ctx, query, tenantID, collectorID, fmtDate(date))
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]*models.Payment, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}
