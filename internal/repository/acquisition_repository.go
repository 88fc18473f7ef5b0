package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/univalle-lab/labstock-api/internal/models"
)

// AcquisitionRepository provides persistence for acquisitions.
type AcquisitionRepository struct {
	db *sqlx.DB
}

// NewAcquisitionRepository constructs the repository.
func NewAcquisitionRepository(db *sqlx.DB) *AcquisitionRepository {
	return &AcquisitionRepository{db: db}
}

// Create inserts an acquisition together with its items.
func (r *AcquisitionRepository) Create(ctx context.Context, acq *models.Acquisition) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin acquisition create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO acquisitions (id, manager_id, requesting_unit, cost_center, investment_code, responsible, justification, observations, status, total_amount, amount_words, issued_at, created_at)
VALUES (:id, :manager_id, :requesting_unit, :cost_center, :investment_code, :responsible, :justification, :observations, :status, :total_amount, :amount_words, :issued_at, :created_at)`
	if _, err = tx.NamedExecContext(ctx, query, acq); err != nil {
		return fmt.Errorf("insert acquisition: %w", err)
	}
	const itemQuery = `INSERT INTO acquisition_items (id, acquisition_id, supply_id, description, unit, quantity, unit_price, total)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, item := range acq.Items {
		if _, err = tx.ExecContext(ctx, itemQuery, item.ID, item.AcquisitionID, item.SupplyID, item.Description, item.Unit, item.Quantity, item.UnitPrice, item.Total); err != nil {
			return fmt.Errorf("insert acquisition item: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit acquisition create: %w", err)
	}
	return nil
}

// Get fetches an acquisition with its items. Returns nil when it does not
// exist.
func (r *AcquisitionRepository) Get(ctx context.Context, id string) (*models.Acquisition, error) {
	var acq models.Acquisition
	if err := r.db.GetContext(ctx, &acq, `SELECT * FROM acquisitions WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get acquisition: %w", err)
	}
	const itemsQuery = `SELECT * FROM acquisition_items WHERE acquisition_id = $1 ORDER BY description ASC`
	if err := r.db.SelectContext(ctx, &acq.Items, itemsQuery, id); err != nil {
		return nil, fmt.Errorf("list acquisition items: %w", err)
	}
	return &acq, nil
}

// Update rewrites the mutable header columns and, when replaceItems is
// set, swaps the full item list.
func (r *AcquisitionRepository) Update(ctx context.Context, acq *models.Acquisition, replaceItems bool) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin acquisition update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE acquisitions SET status = :status, observations = :observations, total_amount = :total_amount, amount_words = :amount_words WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, query, acq); err != nil {
		return fmt.Errorf("update acquisition: %w", err)
	}

	if replaceItems {
		if _, err = tx.ExecContext(ctx, `DELETE FROM acquisition_items WHERE acquisition_id = $1`, acq.ID); err != nil {
			return fmt.Errorf("clear acquisition items: %w", err)
		}
		const itemQuery = `INSERT INTO acquisition_items (id, acquisition_id, supply_id, description, unit, quantity, unit_price, total)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		for _, item := range acq.Items {
			if _, err = tx.ExecContext(ctx, itemQuery, item.ID, item.AcquisitionID, item.SupplyID, item.Description, item.Unit, item.Quantity, item.UnitPrice, item.Total); err != nil {
				return fmt.Errorf("insert acquisition item: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit acquisition update: %w", err)
	}
	return nil
}

// List returns acquisitions newest first plus the unpaged total. Items
// are not loaded.
func (r *AcquisitionRepository) List(ctx context.Context, page, pageSize int) ([]models.Acquisition, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM acquisitions`); err != nil {
		return nil, 0, fmt.Errorf("count acquisitions: %w", err)
	}

	query := `SELECT * FROM acquisitions ORDER BY issued_at DESC`
	args := []interface{}{}
	if pageSize > 0 {
		args = append(args, pageSize, (page-1)*pageSize)
		query += " LIMIT $1 OFFSET $2"
	}

	var acquisitions []models.Acquisition
	if err := r.db.SelectContext(ctx, &acquisitions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list acquisitions: %w", err)
	}
	return acquisitions, total, nil
}

// Delete removes an acquisition and its items. Returns false when no row
// matched.
func (r *AcquisitionRepository) Delete(ctx context.Context, id string) (deleted bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin acquisition delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM acquisition_items WHERE acquisition_id = $1`, id); err != nil {
		return false, fmt.Errorf("delete acquisition items: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM acquisitions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete acquisition: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete acquisition rows: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit acquisition delete: %w", err)
	}
	return rows > 0, nil
}
