package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/univalle-lab/labstock-api/internal/models"
)

// PracticeRepository provides persistence for practice templates.
type PracticeRepository struct {
	db *sqlx.DB
}

// NewPracticeRepository constructs the repository.
func NewPracticeRepository(db *sqlx.DB) *PracticeRepository {
	return &PracticeRepository{db: db}
}

// Create inserts a practice together with its template supplies.
func (r *PracticeRepository) Create(ctx context.Context, input models.CreatePracticeInput) (practice *models.Practice, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin practice create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	practice = &models.Practice{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		SubjectID:   input.SubjectID,
		CreatedAt:   time.Now().UTC(),
	}
	const query = `INSERT INTO practices (id, title, description, subject_id, created_at)
VALUES ($1, $2, $3, $4, $5)`
	if _, err = tx.ExecContext(ctx, query, practice.ID, practice.Title, practice.Description, practice.SubjectID, practice.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert practice: %w", err)
	}

	const supplyQuery = `INSERT INTO practice_supplies (id, practice_id, supply_id, per_group)
VALUES ($1, $2, $3, $4)`
	for _, s := range input.Supplies {
		line := models.PracticeSupply{
			ID:         uuid.NewString(),
			PracticeID: practice.ID,
			SupplyID:   s.SupplyID,
			PerGroup:   s.PerGroup,
		}
		if _, err = tx.ExecContext(ctx, supplyQuery, line.ID, line.PracticeID, line.SupplyID, line.PerGroup); err != nil {
			return nil, fmt.Errorf("insert practice supply: %w", err)
		}
		practice.Supplies = append(practice.Supplies, line)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit practice create: %w", err)
	}
	return practice, nil
}

// Get fetches a practice with its template supplies. Returns nil when it
// does not exist.
func (r *PracticeRepository) Get(ctx context.Context, id string) (*models.Practice, error) {
	var practice models.Practice
	if err := r.db.GetContext(ctx, &practice, `SELECT * FROM practices WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get practice: %w", err)
	}
	supplies, err := r.supplies(ctx, id)
	if err != nil {
		return nil, err
	}
	practice.Supplies = supplies
	return &practice, nil
}

func (r *PracticeRepository) supplies(ctx context.Context, practiceID string) ([]models.PracticeSupply, error) {
	const query = `SELECT p.*, s.name AS supply_name
FROM practice_supplies p
JOIN supplies s ON s.id = p.supply_id
WHERE p.practice_id = $1
ORDER BY s.name ASC`
	var supplies []models.PracticeSupply
	if err := r.db.SelectContext(ctx, &supplies, query, practiceID); err != nil {
		return nil, fmt.Errorf("list practice supplies: %w", err)
	}
	return supplies, nil
}

// List returns all practices ordered by title. Template supplies are not
// loaded.
func (r *PracticeRepository) List(ctx context.Context) ([]models.Practice, error) {
	var practices []models.Practice
	if err := r.db.SelectContext(ctx, &practices, `SELECT * FROM practices ORDER BY title ASC`); err != nil {
		return nil, fmt.Errorf("list practices: %w", err)
	}
	return practices, nil
}

// Delete removes a practice and its template supplies. Returns false when
// no practice row matched.
func (r *PracticeRepository) Delete(ctx context.Context, id string) (deleted bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin practice delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM practice_supplies WHERE practice_id = $1`, id); err != nil {
		return false, fmt.Errorf("delete practice supplies: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM practices WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete practice: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete practice rows: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit practice delete: %w", err)
	}
	return rows > 0, nil
}
