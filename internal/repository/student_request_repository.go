package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/univalle-lab/labstock-api/internal/models"
)

// StudentRequestRepository provides persistence for student usage requests.
type StudentRequestRepository struct {
	db *sqlx.DB
}

// NewStudentRequestRepository constructs the repository.
func NewStudentRequestRepository(db *sqlx.DB) *StudentRequestRepository {
	return &StudentRequestRepository{db: db}
}

// Create inserts a request together with its lines.
func (r *StudentRequestRepository) Create(ctx context.Context, req *models.StudentRequest) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student request create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO student_requests (id, student_id, lab_id, subject_id, starts_at, ends_at, observations, state, created_at, updated_at)
VALUES (:id, :student_id, :lab_id, :subject_id, :starts_at, :ends_at, :observations, :state, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("insert student request: %w", err)
	}
	const lineQuery = `INSERT INTO student_request_lines (id, request_id, supply_id, quantity)
VALUES ($1, $2, $3, $4)`
	for _, line := range req.Lines {
		if _, err = tx.ExecContext(ctx, lineQuery, line.ID, line.RequestID, line.SupplyID, line.Quantity); err != nil {
			return fmt.Errorf("insert student request line: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit student request create: %w", err)
	}
	return nil
}

// Get fetches a request with its lines. Returns nil when it does not exist.
func (r *StudentRequestRepository) Get(ctx context.Context, id string) (*models.StudentRequest, error) {
	var req models.StudentRequest
	if err := r.db.GetContext(ctx, &req, `SELECT * FROM student_requests WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get student request: %w", err)
	}
	const linesQuery = `SELECT l.*, s.name AS supply_name
FROM student_request_lines l
JOIN supplies s ON s.id = l.supply_id
WHERE l.request_id = $1
ORDER BY s.name ASC`
	if err := r.db.SelectContext(ctx, &req.Lines, linesQuery, id); err != nil {
		return nil, fmt.Errorf("list student request lines: %w", err)
	}
	return &req, nil
}

// List returns requests matching the filter plus the unpaged total.
func (r *StudentRequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.StudentRequest, int, error) {
	where := strings.Builder{}
	where.WriteString(" WHERE 1=1")
	args := []interface{}{}
	if filter.State != "" {
		args = append(args, filter.State)
		fmt.Fprintf(&where, " AND state = $%d", len(args))
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
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM student_requests"+where.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("count student requests: %w", err)
	}

	query := "SELECT * FROM student_requests" + where.String() + " ORDER BY created_at DESC"
	if filter.PageSize > 0 {
		args = append(args, filter.PageSize)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, (filter.Page-1)*filter.PageSize)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var requests []models.StudentRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list student requests: %w", err)
	}
	return requests, total, nil
}

// ListByStudent returns all requests placed by one student, newest first.
func (r *StudentRequestRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudentRequest, error) {
	var requests []models.StudentRequest
	const query = `SELECT * FROM student_requests WHERE student_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &requests, query, studentID); err != nil {
		return nil, fmt.Errorf("list student requests by student: %w", err)
	}
	return requests, nil
}

// LoanedSupplies returns the supplies currently on loan to a student,
// derived from the lines of their approved requests.
func (r *StudentRequestRepository) LoanedSupplies(ctx context.Context, studentID string) ([]models.LoanedSupply, error) {
	const query = `SELECT l.request_id, l.supply_id, s.name AS supply_name, l.quantity, sr.starts_at
FROM student_request_lines l
JOIN student_requests sr ON sr.id = l.request_id
JOIN supplies s ON s.id = l.supply_id
WHERE sr.student_id = $1 AND sr.state = 'APPROVED'
ORDER BY sr.starts_at DESC, s.name ASC`
	var loans []models.LoanedSupply
	if err := r.db.SelectContext(ctx, &loans, query, studentID); err != nil {
		return nil, fmt.Errorf("list loaned supplies: %w", err)
	}
	return loans, nil
}

// GetForUpdateTx locks a request row inside the caller's transaction and
// loads its lines. Returns nil when the request does not exist.
func (r *StudentRequestRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.StudentRequest, error) {
	var req models.StudentRequest
	if err := tx.GetContext(ctx, &req, `SELECT * FROM student_requests WHERE id = $1 FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("lock student request: %w", err)
	}
	const linesQuery = `SELECT l.*, s.name AS supply_name
FROM student_request_lines l
JOIN supplies s ON s.id = l.supply_id
WHERE l.request_id = $1
ORDER BY s.name ASC`
	if err := tx.SelectContext(ctx, &req.Lines, linesQuery, id); err != nil {
		return nil, fmt.Errorf("list student request lines: %w", err)
	}
	return &req, nil
}

// UpdateStateTx moves a request to a new state inside the caller's
// transaction.
func (r *StudentRequestRepository) UpdateStateTx(ctx context.Context, tx *sqlx.Tx, id string, state models.RequestState) error {
	const query = `UPDATE student_requests SET state = $1, updated_at = $2 WHERE id = $3`
	if _, err := tx.ExecContext(ctx, query, state, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update student request state: %w", err)
	}
	return nil
}

// SetNotReturnedTx stores the loss snapshot inside the caller's transaction.
func (r *StudentRequestRepository) SetNotReturnedTx(ctx context.Context, tx *sqlx.Tx, id string, losses models.NotReturnedList) error {
	const query = `UPDATE student_requests SET not_returned = $1, updated_at = $2 WHERE id = $3`
	if _, err := tx.ExecContext(ctx, query, losses, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("set student request losses: %w", err)
	}
	return nil
}

// InsertLineTx adds a line to a request inside the caller's transaction.
func (r *StudentRequestRepository) InsertLineTx(ctx context.Context, tx *sqlx.Tx, line *models.StudentRequestLine) error {
	const query = `INSERT INTO student_request_lines (id, request_id, supply_id, quantity)
VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, query, line.ID, line.RequestID, line.SupplyID, line.Quantity); err != nil {
		return fmt.Errorf("insert student request line: %w", err)
	}
	return nil
}

// DeleteTx removes a request and its lines inside the caller's transaction.
func (r *StudentRequestRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM student_request_lines WHERE request_id = $1`, id); err != nil {
		return fmt.Errorf("delete student request lines: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM student_requests WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete student request: %w", err)
	}
	return nil
}
