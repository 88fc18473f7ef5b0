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

// UsageRequestRepository provides persistence for staff usage requests and
// their supply lines. State-changing writes run inside the caller's
// transaction so stock, movements and alerts move atomically with the
// request.
type UsageRequestRepository struct {
	db *sqlx.DB
}

// NewUsageRequestRepository constructs the repository.
func NewUsageRequestRepository(db *sqlx.DB) *UsageRequestRepository {
	return &UsageRequestRepository{db: db}
}

// Create inserts a request together with its lines.
func (r *UsageRequestRepository) Create(ctx context.Context, req *models.UsageRequest) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin request create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO usage_requests (id, teacher_id, lab_id, practice_id, subject_id, starts_at, ends_at, student_count, group_size, num_groups, observations, state, created_at, updated_at)
VALUES (:id, :teacher_id, :lab_id, :practice_id, :subject_id, :starts_at, :ends_at, :student_count, :group_size, :num_groups, :observations, :state, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	for i := range req.Lines {
		if err = r.insertLine(ctx, tx, &req.Lines[i]); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit request create: %w", err)
	}
	return nil
}

func (r *UsageRequestRepository) insertLine(ctx context.Context, tx *sqlx.Tx, line *models.UsageRequestLine) error {
	const query = `INSERT INTO usage_request_lines (id, request_id, supply_id, per_group, total)
VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, query, line.ID, line.RequestID, line.SupplyID, line.PerGroup, line.Total); err != nil {
		return fmt.Errorf("insert request line: %w", err)
	}
	return nil
}

// Get fetches a request with its lines. Returns nil when it does not exist.
func (r *UsageRequestRepository) Get(ctx context.Context, id string) (*models.UsageRequest, error) {
	var req models.UsageRequest
	if err := r.db.GetContext(ctx, &req, `SELECT * FROM usage_requests WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	lines, err := r.lines(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Lines = lines
	return &req, nil
}

func (r *UsageRequestRepository) lines(ctx context.Context, requestID string) ([]models.UsageRequestLine, error) {
	const query = `SELECT l.*, s.name AS supply_name
FROM usage_request_lines l
JOIN supplies s ON s.id = l.supply_id
WHERE l.request_id = $1
ORDER BY s.name ASC`
	var lines []models.UsageRequestLine
	if err := r.db.SelectContext(ctx, &lines, query, requestID); err != nil {
		return nil, fmt.Errorf("list request lines: %w", err)
	}
	return lines, nil
}

// List returns requests matching the filter plus the unpaged total. Lines
// are not loaded.
func (r *UsageRequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.UsageRequest, int, error) {
	where := strings.Builder{}
	where.WriteString(" WHERE 1=1")
	args := []interface{}{}
	if filter.State != "" {
		args = append(args, filter.State)
		fmt.Fprintf(&where, " AND state = $%d", len(args))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		fmt.Fprintf(&where, " AND teacher_id = $%d", len(args))
	}
	if filter.LabID != "" {
		args = append(args, filter.LabID)
		fmt.Fprintf(&where, " AND lab_id = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		fmt.Fprintf(&where, " AND starts_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		fmt.Fprintf(&where, " AND starts_at <= $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM usage_requests"+where.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	query := "SELECT * FROM usage_requests" + where.String() + " ORDER BY created_at DESC"
	if filter.PageSize > 0 {
		args = append(args, filter.PageSize)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, (filter.Page-1)*filter.PageSize)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var requests []models.UsageRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}
	return requests, total, nil
}

// InUseByManager lists supplies tied up by approved requests in labs run
// by the given manager.
func (r *UsageRequestRepository) InUseByManager(ctx context.Context, managerID string) ([]models.InUseSupply, error) {
	const query = `SELECT l.supply_id, s.name AS supply_name, l.total AS quantity, r.lab_id, lb.name AS lab_name, r.id AS request_id
FROM usage_requests r
JOIN usage_request_lines l ON l.request_id = r.id
JOIN supplies s ON s.id = l.supply_id
JOIN labs lb ON lb.id = r.lab_id
WHERE r.state = 'APPROVED' AND lb.manager_id = $1
ORDER BY s.name ASC`
	var supplies []models.InUseSupply
	if err := r.db.SelectContext(ctx, &supplies, query, managerID); err != nil {
		return nil, fmt.Errorf("list in-use supplies: %w", err)
	}
	return supplies, nil
}

// GetForUpdateTx locks a request row inside the caller's transaction and
// loads its lines. Returns nil when the request does not exist.
func (r *UsageRequestRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.UsageRequest, error) {
	var req models.UsageRequest
	if err := tx.GetContext(ctx, &req, `SELECT * FROM usage_requests WHERE id = $1 FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("lock request: %w", err)
	}
	const linesQuery = `SELECT l.*, s.name AS supply_name
FROM usage_request_lines l
JOIN supplies s ON s.id = l.supply_id
WHERE l.request_id = $1
ORDER BY s.name ASC`
	if err := tx.SelectContext(ctx, &req.Lines, linesQuery, id); err != nil {
		return nil, fmt.Errorf("list request lines: %w", err)
	}
	return &req, nil
}

// UpdateStateTx moves a request to a new state inside the caller's
// transaction.
func (r *UsageRequestRepository) UpdateStateTx(ctx context.Context, tx *sqlx.Tx, id string, state models.RequestState) error {
	const query = `UPDATE usage_requests SET state = $1, updated_at = $2 WHERE id = $3`
	if _, err := tx.ExecContext(ctx, query, state, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update request state: %w", err)
	}
	return nil
}

// SetNotReturnedTx stores the loss snapshot inside the caller's transaction.
func (r *UsageRequestRepository) SetNotReturnedTx(ctx context.Context, tx *sqlx.Tx, id string, losses models.NotReturnedList) error {
	const query = `UPDATE usage_requests SET not_returned = $1, updated_at = $2 WHERE id = $3`
	if _, err := tx.ExecContext(ctx, query, losses, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("set request losses: %w", err)
	}
	return nil
}

// GetLine fetches a single line together with its parent's state and group
// count. Returns nil when the line does not exist.
func (r *UsageRequestRepository) GetLine(ctx context.Context, lineID string) (*models.UsageRequestLine, *models.UsageRequest, error) {
	var line models.UsageRequestLine
	const lineQuery = `SELECT l.*, s.name AS supply_name
FROM usage_request_lines l
JOIN supplies s ON s.id = l.supply_id
WHERE l.id = $1`
	if err := r.db.GetContext(ctx, &line, lineQuery, lineID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("get request line: %w", err)
	}
	var req models.UsageRequest
	if err := r.db.GetContext(ctx, &req, `SELECT * FROM usage_requests WHERE id = $1`, line.RequestID); err != nil {
		return nil, nil, fmt.Errorf("get line parent: %w", err)
	}
	return &line, &req, nil
}

// InsertLineTx adds a line to a request inside the caller's transaction.
func (r *UsageRequestRepository) InsertLineTx(ctx context.Context, tx *sqlx.Tx, line *models.UsageRequestLine) error {
	if line.ID == "" {
		line.ID = uuid.NewString()
	}
	return r.insertLine(ctx, tx, line)
}

// UpdateLineTx rewrites a line's quantities inside the caller's transaction.
func (r *UsageRequestRepository) UpdateLineTx(ctx context.Context, tx *sqlx.Tx, lineID string, perGroup, total int) error {
	const query = `UPDATE usage_request_lines SET per_group = $1, total = $2 WHERE id = $3`
	if _, err := tx.ExecContext(ctx, query, perGroup, total, lineID); err != nil {
		return fmt.Errorf("update request line: %w", err)
	}
	return nil
}

// DeleteLineTx removes a line inside the caller's transaction.
func (r *UsageRequestRepository) DeleteLineTx(ctx context.Context, tx *sqlx.Tx, lineID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM usage_request_lines WHERE id = $1`, lineID); err != nil {
		return fmt.Errorf("delete request line: %w", err)
	}
	return nil
}

// DeleteTx removes a request and its lines inside the caller's transaction.
func (r *UsageRequestRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM usage_request_lines WHERE request_id = $1`, id); err != nil {
		return fmt.Errorf("delete request lines: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM usage_requests WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return nil
}
