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

// AlertRepository provides persistence for stock alerts. Reconciliation
// helpers run inside the caller's transaction so alert state always moves
// together with the stock change that caused it.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository constructs the repository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// List returns alerts matching the filter plus the unpaged total.
func (r *AlertRepository) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error) {
	where := strings.Builder{}
	where.WriteString(" WHERE 1=1")
	args := []interface{}{}
	if filter.SupplyID != "" {
		args = append(args, filter.SupplyID)
		fmt.Fprintf(&where, " AND supply_id = $%d", len(args))
	}
	if filter.State != "" {
		args = append(args, filter.State)
		fmt.Fprintf(&where, " AND state = $%d", len(args))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		fmt.Fprintf(&where, " AND kind = $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM alerts"+where.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("count alerts: %w", err)
	}

	query := "SELECT * FROM alerts" + where.String() + " ORDER BY created_at DESC"
	if filter.PageSize > 0 {
		args = append(args, filter.PageSize)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, (filter.Page-1)*filter.PageSize)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var alerts []models.Alert
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, total, nil
}

// Get fetches an alert. Returns nil when it does not exist.
func (r *AlertRepository) Get(ctx context.Context, id string) (*models.Alert, error) {
	var alert models.Alert
	if err := r.db.GetContext(ctx, &alert, `SELECT * FROM alerts WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return &alert, nil
}

// FindActiveTx returns the active alerts for a supply inside the caller's
// transaction.
func (r *AlertRepository) FindActiveTx(ctx context.Context, tx *sqlx.Tx, supplyID string) ([]models.Alert, error) {
	const query = `SELECT * FROM alerts WHERE supply_id = $1 AND state = 'ACTIVE' ORDER BY created_at ASC`
	var alerts []models.Alert
	if err := tx.SelectContext(ctx, &alerts, query, supplyID); err != nil {
		return nil, fmt.Errorf("find active alerts: %w", err)
	}
	return alerts, nil
}

// InsertTx creates an active alert inside the caller's transaction.
func (r *AlertRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, supplyID string, kind models.AlertKind, message string) (*models.Alert, error) {
	alert := models.Alert{
		ID:        uuid.NewString(),
		SupplyID:  supplyID,
		Kind:      kind,
		State:     models.AlertActive,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	const query = `INSERT INTO alerts (id, supply_id, kind, state, message, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, query, alert.ID, alert.SupplyID, alert.Kind, alert.State, alert.Message, alert.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}
	return &alert, nil
}

// ResolveTx marks an alert resolved inside the caller's transaction.
func (r *AlertRepository) ResolveTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	const query = `UPDATE alerts SET state = 'RESOLVED', resolved_at = $1 WHERE id = $2`
	if _, err := tx.ExecContext(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("resolve alert: %w", err)
	}
	return nil
}
