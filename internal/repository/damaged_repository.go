package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/univalle-lab/labstock-api/internal/models"
)

// DamagedRepository provides persistence for damaged item records.
type DamagedRepository struct {
	db *sqlx.DB
}

// NewDamagedRepository constructs the repository.
func NewDamagedRepository(db *sqlx.DB) *DamagedRepository {
	return &DamagedRepository{db: db}
}

// InsertTx registers a damaged item inside the caller's transaction.
func (r *DamagedRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, input models.RegisterDamagedInput) (*models.DamagedItem, error) {
	now := time.Now().UTC()
	item := models.DamagedItem{
		ID:           uuid.NewString(),
		RequestID:    input.RequestID,
		SupplyID:     input.SupplyID,
		Quantity:     input.Quantity,
		State:        input.State,
		Notes:        input.Notes,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	const query = `INSERT INTO damaged_items (id, request_id, supply_id, quantity, state, notes, registered_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := tx.ExecContext(ctx, query, item.ID, item.RequestID, item.SupplyID, item.Quantity, item.State, item.Notes, item.RegisteredAt, item.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert damaged item: %w", err)
	}
	return &item, nil
}

// GetForUpdateTx locks a damaged item record inside the caller's
// transaction. Returns nil when it does not exist.
func (r *DamagedRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.DamagedItem, error) {
	var item models.DamagedItem
	const query = `SELECT d.*, s.name AS supply_name
FROM damaged_items d
JOIN supplies s ON s.id = d.supply_id
WHERE d.id = $1
FOR UPDATE OF d`
	if err := tx.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("lock damaged item: %w", err)
	}
	return &item, nil
}

// UpdateStateTx moves a damaged item to a new state inside the caller's
// transaction.
func (r *DamagedRepository) UpdateStateTx(ctx context.Context, tx *sqlx.Tx, id string, state models.DamageState, notes string) error {
	const query = `UPDATE damaged_items SET state = $1, notes = $2, updated_at = $3 WHERE id = $4`
	if _, err := tx.ExecContext(ctx, query, state, notes, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update damaged item: %w", err)
	}
	return nil
}

// Get fetches a damaged item. Returns nil when it does not exist.
func (r *DamagedRepository) Get(ctx context.Context, id string) (*models.DamagedItem, error) {
	var item models.DamagedItem
	const query = `SELECT d.*, s.name AS supply_name
FROM damaged_items d
JOIN supplies s ON s.id = d.supply_id
WHERE d.id = $1`
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get damaged item: %w", err)
	}
	return &item, nil
}

// List returns damaged items matching the filter plus the unpaged total.
func (r *DamagedRepository) List(ctx context.Context, filter models.DamagedFilter) ([]models.DamagedItem, int, error) {
	where := strings.Builder{}
	where.WriteString(" WHERE 1=1")
	args := []interface{}{}
	if filter.SupplyID != "" {
		args = append(args, filter.SupplyID)
		fmt.Fprintf(&where, " AND d.supply_id = $%d", len(args))
	}
	if filter.State != "" {
		args = append(args, filter.State)
		fmt.Fprintf(&where, " AND d.state = $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM damaged_items d"+where.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("count damaged items: %w", err)
	}

	query := `SELECT d.*, s.name AS supply_name
FROM damaged_items d
JOIN supplies s ON s.id = d.supply_id` + where.String() + " ORDER BY d.registered_at DESC"
	if filter.PageSize > 0 {
		args = append(args, filter.PageSize)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, (filter.Page-1)*filter.PageSize)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var items []models.DamagedItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list damaged items: %w", err)
	}
	return items, total, nil
}
