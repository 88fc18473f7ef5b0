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

// MovementRepository provides persistence for the append-only stock
// movement log.
type MovementRepository struct {
	db *sqlx.DB
}

// NewMovementRepository constructs the repository.
func NewMovementRepository(db *sqlx.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

// MovementParams holds values required to append a movement entry.
type MovementParams struct {
	SupplyID         string
	Kind             models.MovementKind
	Quantity         int
	Responsible      string
	RequestID        *string
	StudentRequestID *string
	ReturnedAt       *time.Time
}

// InsertTx appends a movement entry inside the caller's transaction.
func (r *MovementRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, params MovementParams) (*models.Movement, error) {
	movement := models.Movement{
		ID:               uuid.NewString(),
		SupplyID:         params.SupplyID,
		Kind:             params.Kind,
		Quantity:         params.Quantity,
		Responsible:      params.Responsible,
		RequestID:        params.RequestID,
		StudentRequestID: params.StudentRequestID,
		DeliveredAt:      time.Now().UTC(),
		ReturnedAt:       params.ReturnedAt,
	}
	const query = `INSERT INTO movements (id, supply_id, kind, quantity, responsible, request_id, student_request_id, delivered_at, returned_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.ExecContext(ctx, query,
		movement.ID, movement.SupplyID, movement.Kind, movement.Quantity, movement.Responsible,
		movement.RequestID, movement.StudentRequestID, movement.DeliveredAt, movement.ReturnedAt); err != nil {
		return nil, fmt.Errorf("insert movement: %w", err)
	}
	return &movement, nil
}

// Get fetches a movement entry. Returns nil when it does not exist.
func (r *MovementRepository) Get(ctx context.Context, id string) (*models.Movement, error) {
	const query = `SELECT m.*, s.name AS supply_name FROM movements m JOIN supplies s ON s.id = m.supply_id WHERE m.id = $1`
	var movement models.Movement
	if err := r.db.GetContext(ctx, &movement, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return &movement, nil
}

// List returns movements matching the filter plus the unpaged total. Rows
// carry the supply name for display.
func (r *MovementRepository) List(ctx context.Context, filter models.MovementFilter) ([]models.Movement, int, error) {
	where := strings.Builder{}
	where.WriteString(" WHERE 1=1")
	args := []interface{}{}
	if filter.SupplyID != "" {
		args = append(args, filter.SupplyID)
		fmt.Fprintf(&where, " AND m.supply_id = $%d", len(args))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		fmt.Fprintf(&where, " AND m.kind = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		fmt.Fprintf(&where, " AND m.delivered_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		fmt.Fprintf(&where, " AND m.delivered_at <= $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM movements m"+where.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	query := `SELECT m.*, s.name AS supply_name
FROM movements m
JOIN supplies s ON s.id = m.supply_id` + where.String() + " ORDER BY m.delivered_at DESC"
	if filter.PageSize > 0 {
		args = append(args, filter.PageSize)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, (filter.Page-1)*filter.PageSize)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var movements []models.Movement
	if err := r.db.SelectContext(ctx, &movements, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	return movements, total, nil
}

// PurgeBefore deletes movement entries older than the cutoff and reports
// how many were removed.
func (r *MovementRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movements WHERE delivered_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge movements: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge movements rows: %w", err)
	}
	return rows, nil
}
