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

// SupplyRepository provides persistence for supplies and their stock ledger.
type SupplyRepository struct {
	db *sqlx.DB
}

// NewSupplyRepository constructs the repository.
func NewSupplyRepository(db *sqlx.DB) *SupplyRepository {
	return &SupplyRepository{db: db}
}

// Create inserts a new supply and returns it.
func (r *SupplyRepository) Create(ctx context.Context, input models.CreateSupplyInput) (*models.Supply, error) {
	now := time.Now().UTC()
	supply := models.Supply{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Location:    input.Location,
		Unit:        input.Unit,
		StockOnHand: input.StockOnHand,
		StockMin:    input.StockMin,
		StockMax:    input.StockMax,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	const query = `INSERT INTO supplies (id, name, description, category, location, unit, stock_on_hand, stock_min, stock_max, created_at, updated_at)
VALUES (:id, :name, :description, :category, :location, :unit, :stock_on_hand, :stock_min, :stock_max, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, supply); err != nil {
		return nil, fmt.Errorf("insert supply: %w", err)
	}
	return &supply, nil
}

// Get fetches a supply by id. Returns nil when it does not exist.
func (r *SupplyRepository) Get(ctx context.Context, id string) (*models.Supply, error) {
	var supply models.Supply
	const query = `SELECT * FROM supplies WHERE id = $1`
	if err := r.db.GetContext(ctx, &supply, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get supply: %w", err)
	}
	return &supply, nil
}

// List returns supplies matching the filter plus the unpaged total.
func (r *SupplyRepository) List(ctx context.Context, filter models.SupplyFilter) ([]models.Supply, int, error) {
	where := strings.Builder{}
	where.WriteString(" WHERE 1=1")
	args := []interface{}{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		fmt.Fprintf(&where, " AND (name ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		fmt.Fprintf(&where, " AND category = $%d", len(args))
	}
	if filter.Location != "" {
		args = append(args, filter.Location)
		fmt.Fprintf(&where, " AND location = $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM supplies"+where.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("count supplies: %w", err)
	}

	query := "SELECT * FROM supplies" + where.String() + " ORDER BY name ASC"
	if filter.PageSize > 0 {
		args = append(args, filter.PageSize)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, (filter.Page-1)*filter.PageSize)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var supplies []models.Supply
	if err := r.db.SelectContext(ctx, &supplies, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list supplies: %w", err)
	}
	return supplies, total, nil
}

// Update applies a partial update and returns the fresh row. Returns nil
// when the supply does not exist.
func (r *SupplyRepository) Update(ctx context.Context, id string, update models.SupplyUpdate) (*models.Supply, error) {
	sets := []string{"updated_at = $1"}
	args := []interface{}{time.Now().UTC()}
	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Name != nil {
		appendSet("name", *update.Name)
	}
	if update.Description != nil {
		appendSet("description", *update.Description)
	}
	if update.Category != nil {
		appendSet("category", *update.Category)
	}
	if update.Location != nil {
		appendSet("location", *update.Location)
	}
	if update.Unit != nil {
		appendSet("unit", *update.Unit)
	}
	if update.StockOnHand != nil {
		appendSet("stock_on_hand", *update.StockOnHand)
	}
	if update.StockMin != nil {
		appendSet("stock_min", *update.StockMin)
	}
	if update.StockMax != nil {
		appendSet("stock_max", *update.StockMax)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE supplies SET %s WHERE id = $%d RETURNING *", strings.Join(sets, ", "), len(args))

	var supply models.Supply
	if err := r.db.GetContext(ctx, &supply, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("update supply: %w", err)
	}
	return &supply, nil
}

// Delete removes a supply together with its alerts. Returns false when no
// supply row matched.
func (r *SupplyRepository) Delete(ctx context.Context, id string) (deleted bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin supply delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM alerts WHERE supply_id = $1`, id); err != nil {
		return false, fmt.Errorf("delete supply alerts: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM supplies WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete supply: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete supply rows: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit supply delete: %w", err)
	}
	return rows > 0, nil
}

// GetForUpdateTx locks a supply row inside the caller's transaction.
// Returns nil when the supply does not exist.
func (r *SupplyRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Supply, error) {
	var supply models.Supply
	const query = `SELECT * FROM supplies WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &supply, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("lock supply: %w", err)
	}
	return &supply, nil
}

// AdjustStockTx applies a signed delta to a supply's free stock inside the
// caller's transaction. The statement refuses to drive stock negative;
// sql.ErrNoRows signals either a missing supply or insufficient stock, so
// callers lock and validate the row first.
func (r *SupplyRepository) AdjustStockTx(ctx context.Context, tx *sqlx.Tx, id string, delta int) (*models.Supply, error) {
	const query = `UPDATE supplies
SET stock_on_hand = stock_on_hand + $1, updated_at = $2
WHERE id = $3 AND stock_on_hand + $1 >= 0
RETURNING *`
	var supply models.Supply
	if err := tx.GetContext(ctx, &supply, query, delta, time.Now().UTC(), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("adjust stock: %w", err)
	}
	return &supply, nil
}
