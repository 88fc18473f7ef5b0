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

// MaintenanceRepository provides persistence for maintenance records.
type MaintenanceRepository struct {
	db *sqlx.DB
}

// NewMaintenanceRepository constructs the repository.
func NewMaintenanceRepository(db *sqlx.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// InsertTx opens a maintenance record inside the caller's transaction.
func (r *MaintenanceRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, supplyID string, quantity int, notes string) (*models.MaintenanceRecord, error) {
	record := models.MaintenanceRecord{
		ID:        uuid.NewString(),
		SupplyID:  supplyID,
		Quantity:  quantity,
		Notes:     notes,
		State:     models.MaintenanceInProgress,
		StartedAt: time.Now().UTC(),
	}
	const query = `INSERT INTO maintenance_records (id, supply_id, quantity, returned_quantity, notes, state, started_at)
VALUES ($1, $2, $3, 0, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, query, record.ID, record.SupplyID, record.Quantity, record.Notes, record.State, record.StartedAt); err != nil {
		return nil, fmt.Errorf("insert maintenance record: %w", err)
	}
	return &record, nil
}

// GetForUpdateTx locks a maintenance record inside the caller's
// transaction. Returns nil when it does not exist.
func (r *MaintenanceRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.MaintenanceRecord, error) {
	var record models.MaintenanceRecord
	const query = `SELECT m.*, s.name AS supply_name
FROM maintenance_records m
JOIN supplies s ON s.id = m.supply_id
WHERE m.id = $1
FOR UPDATE OF m`
	if err := tx.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("lock maintenance record: %w", err)
	}
	return &record, nil
}

// FinishTx closes a maintenance record inside the caller's transaction.
func (r *MaintenanceRepository) FinishTx(ctx context.Context, tx *sqlx.Tx, id string, returnedQuantity int, notes string) error {
	const query = `UPDATE maintenance_records
SET state = $1, returned_quantity = $2, notes = $3, finished_at = $4
WHERE id = $5`
	if _, err := tx.ExecContext(ctx, query, models.MaintenanceFinished, returnedQuantity, notes, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("finish maintenance record: %w", err)
	}
	return nil
}

// Get fetches a maintenance record. Returns nil when it does not exist.
func (r *MaintenanceRepository) Get(ctx context.Context, id string) (*models.MaintenanceRecord, error) {
	var record models.MaintenanceRecord
	const query = `SELECT m.*, s.name AS supply_name
FROM maintenance_records m
JOIN supplies s ON s.id = m.supply_id
WHERE m.id = $1`
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get maintenance record: %w", err)
	}
	return &record, nil
}

// List returns maintenance records matching the filter plus the unpaged
// total.
func (r *MaintenanceRepository) List(ctx context.Context, filter models.MaintenanceFilter) ([]models.MaintenanceRecord, int, error) {
	where := strings.Builder{}
	where.WriteString(" WHERE 1=1")
	args := []interface{}{}
	if filter.SupplyID != "" {
		args = append(args, filter.SupplyID)
		fmt.Fprintf(&where, " AND m.supply_id = $%d", len(args))
	}
	if filter.State != "" {
		args = append(args, filter.State)
		fmt.Fprintf(&where, " AND m.state = $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM maintenance_records m"+where.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("count maintenance records: %w", err)
	}

	query := `SELECT m.*, s.name AS supply_name
FROM maintenance_records m
JOIN supplies s ON s.id = m.supply_id` + where.String() + " ORDER BY m.started_at DESC"
	if filter.PageSize > 0 {
		args = append(args, filter.PageSize)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, (filter.Page-1)*filter.PageSize)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var records []models.MaintenanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list maintenance records: %w", err)
	}
	return records, total, nil
}
