package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fbetancur/CrediSync360/database"
	"github.com/fbetancur/CrediSync360/models"
)

// ClientRepository implements the service.ClientRepository interface
type ClientRepository struct {
	q Queryable
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *database.DB) *ClientRepository {
	return &ClientRepository{q: db.DB}
}

const clientColumns = `
	id, tenant_id, route_id, name, document, phone, address, neighborhood, reference,
	latitude, longitude,
	active_credits, total_balance, max_overdue_days, status, risk_score, last_recalculated,
	created_at, created_by`

func scanClient(s scanner) (*models.Client, error) {
	var (
		client       models.Client
		lat, lng     sql.NullFloat64
		totalBalance string
		recalcAt     sql.NullTime
	)
	err := s.Scan(
		&client.ID, &client.TenantID, &client.RouteID, &client.Name, &client.Document,
		&client.Phone, &client.Address, &client.Neighborhood, &client.Reference,
		&lat, &lng,
		&client.ActiveCredits, &totalBalance, &client.MaxOverdueDays,
		&client.Status, &client.RiskScore, &recalcAt,
		&client.CreatedAt, &client.CreatedBy,
	)
	if err != nil {
		return nil, err
	}

	client.Latitude = nullableFloat(lat)
	client.Longitude = nullableFloat(lng)
	if client.TotalBalance, err = parseDecimal(totalBalance); err != nil {
		return nil, err
	}
	if recalcAt.Valid {
		client.LastRecalculated = recalcAt.Time
	}
	return &client, nil
}

// Get retrieves a client by id, returning (nil, nil) when absent
func (r *ClientRepository) Get(ctx context.Context, id string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = ?`

	client, err := scanClient(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client %s: %w", id, err)
	}
	return client, nil
}

// Create stores a new client
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.q.ExecContext(ctx, query, clientArgs(client)...)
	if err != nil {
		return fmt.Errorf("failed to create client %s: %w", client.ID, err)
	}
	return nil
}

// Upsert inserts or overwrites a client by primary key. Used by inbound
// reconciliation where the remote copy wins.
func (r *ClientRepository) Upsert(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			route_id = excluded.route_id,
			name = excluded.name,
			document = excluded.document,
			phone = excluded.phone,
			address = excluded.address,
			neighborhood = excluded.neighborhood,
			reference = excluded.reference,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			active_credits = excluded.active_credits,
			total_balance = excluded.total_balance,
			max_overdue_days = excluded.max_overdue_days,
			status = excluded.status,
			risk_score = excluded.risk_score,
			last_recalculated = excluded.last_recalculated,
			created_at = excluded.created_at,
			created_by = excluded.created_by`

	_, err := r.q.ExecContext(ctx, query, clientArgs(client)...)
	if err != nil {
		return fmt.Errorf("failed to upsert client %s: %w", client.ID, err)
	}
	return nil
}

func clientArgs(client *models.Client) []any {
	return []any{
		client.ID, client.TenantID, client.RouteID, client.Name, client.Document,
		client.Phone, client.Address, client.Neighborhood, client.Reference,
		nullableFloatArg(client.Latitude), nullableFloatArg(client.Longitude),
		client.ActiveCredits, client.TotalBalance.String(), client.MaxOverdueDays,
		string(client.Status), string(client.RiskScore), client.LastRecalculated,
		client.CreatedAt, client.CreatedBy,
	}
}

// UpdateDerived persists recomputed cached fields
func (r *ClientRepository) UpdateDerived(ctx context.Context, id string, derived models.DerivedClient, at time.Time) error {
	query := `
		UPDATE clients SET
			active_credits = ?,
			total_balance = ?,
			max_overdue_days = ?,
			status = ?,
			risk_score = ?,
			last_recalculated = ?
		WHERE id = ?`

	result, err := r.q.ExecContext(ctx, query,
		derived.ActiveCredits, derived.TotalBalance.String(), derived.MaxOverdueDays,
		string(derived.Status), string(derived.RiskScore), at, id)
	if err != nil {
		return fmt.Errorf("failed to update derived fields for client %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("client %s not found", id)
	}
	return nil
}

// ListByTenant returns all clients for a tenant; empty tenantID returns everything
func (r *ClientRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE (? = '' OR tenant_id = ?)
		ORDER BY name`

	rows, err := r.q.QueryContext(ctx, query, tenantID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}
