package repository

import (
	"context"
	"fmt"

	"github.com/fbetancur/CrediSync360/database"
	"github.com/fbetancur/CrediSync360/models"
)

// RouteRepository implements the service.RouteRepository interface
type RouteRepository struct {
	q Queryable
}

// NewRouteRepository creates a new route repository
func NewRouteRepository(db *database.DB) *RouteRepository {
	return &RouteRepository{q: db.DB}
}

const routeColumns = `id, tenant_id, name, supervisor_id, active, created_at, created_by`

// Upsert inserts or overwrites a route by primary key
func (r *RouteRepository) Upsert(ctx context.Context, route *models.Route) error {
	query := `
		INSERT INTO routes (` + routeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			name = excluded.name,
			supervisor_id = excluded.supervisor_id,
			active = excluded.active,
			created_at = excluded.created_at,
			created_by = excluded.created_by`

	_, err := r.q.ExecContext(ctx, query,
		route.ID, route.TenantID, route.Name, route.SupervisorID,
		route.Active, route.CreatedAt, route.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to upsert route %s: %w", route.ID, err)
	}
	return nil
}

// ListByTenant returns a tenant's routes
func (r *RouteRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE tenant_id = ? ORDER BY name`

	rows, err := r.q.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	var routes []*models.Route
	for rows.Next() {
		var route models.Route
		if err := rows.Scan(&route.ID, &route.TenantID, &route.Name, &route.SupervisorID,
			&route.Active, &route.CreatedAt, &route.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		routes = append(routes, &route)
	}
	return routes, rows.Err()
}
