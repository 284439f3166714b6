package database

import (
	"context"
	"fmt"
)

// PurgeTenant removes all of a tenant's records from the local store.
// Used on logout/tenant switch. The sync queue is left untouched so
// pending uploads survive the wipe.
func (db *DB) PurgeTenant(ctx context.Context, tenantID string) error {
	tables := []string{
		"payments",
		"installments",
		"credits",
		"clients",
		"credit_products",
		"routes",
		"cash_movements",
		"cash_closings",
	}

	for _, table := range tables {
		query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ?", table)
		if _, err := db.ExecContext(ctx, query, tenantID); err != nil {
			return fmt.Errorf("failed to purge %s for tenant %s: %w", table, tenantID, err)
		}
	}

	return nil
}
