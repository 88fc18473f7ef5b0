package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/univalle-lab/labstock-api/internal/models"
)

// LabRepository provides persistence for laboratories, their managers and
// teaching staff.
type LabRepository struct {
	db *sqlx.DB
}

// NewLabRepository constructs the repository.
func NewLabRepository(db *sqlx.DB) *LabRepository {
	return &LabRepository{db: db}
}

// CreateLab inserts a lab.
func (r *LabRepository) CreateLab(ctx context.Context, name, location string, managerID *string) (*models.Lab, error) {
	lab := models.Lab{ID: uuid.NewString(), Name: name, Location: location, ManagerID: managerID}
	const query = `INSERT INTO labs (id, name, location, manager_id) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, lab.ID, lab.Name, lab.Location, lab.ManagerID); err != nil {
		return nil, fmt.Errorf("insert lab: %w", err)
	}
	return &lab, nil
}

// GetLab fetches a lab. Returns nil when it does not exist.
func (r *LabRepository) GetLab(ctx context.Context, id string) (*models.Lab, error) {
	var lab models.Lab
	if err := r.db.GetContext(ctx, &lab, `SELECT * FROM labs WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get lab: %w", err)
	}
	return &lab, nil
}

// ListLabs returns all labs ordered by name.
func (r *LabRepository) ListLabs(ctx context.Context) ([]models.Lab, error) {
	var labs []models.Lab
	if err := r.db.SelectContext(ctx, &labs, `SELECT * FROM labs ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list labs: %w", err)
	}
	return labs, nil
}

// AssignManager points a lab at a manager. Returns false when no lab row
// matched.
func (r *LabRepository) AssignManager(ctx context.Context, labID, managerID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE labs SET manager_id = $1 WHERE id = $2`, managerID, labID)
	if err != nil {
		return false, fmt.Errorf("assign lab manager: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assign lab manager rows: %w", err)
	}
	return rows > 0, nil
}

// DeleteLab removes a lab. Returns false when no row matched.
func (r *LabRepository) DeleteLab(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM labs WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete lab: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete lab rows: %w", err)
	}
	return rows > 0, nil
}

// CreateManager inserts a lab manager.
func (r *LabRepository) CreateManager(ctx context.Context, manager *models.LabManager) error {
	manager.ID = uuid.NewString()
	const query = `INSERT INTO lab_managers (id, first_name, last_name, email, requesting_unit)
VALUES (:id, :first_name, :last_name, :email, :requesting_unit)`
	if _, err := r.db.NamedExecContext(ctx, query, manager); err != nil {
		return fmt.Errorf("insert lab manager: %w", err)
	}
	return nil
}

// GetManager fetches a lab manager. Returns nil when it does not exist.
func (r *LabRepository) GetManager(ctx context.Context, id string) (*models.LabManager, error) {
	var manager models.LabManager
	if err := r.db.GetContext(ctx, &manager, `SELECT * FROM lab_managers WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get lab manager: %w", err)
	}
	return &manager, nil
}

// ListManagers returns all lab managers ordered by last name.
func (r *LabRepository) ListManagers(ctx context.Context) ([]models.LabManager, error) {
	var managers []models.LabManager
	if err := r.db.SelectContext(ctx, &managers, `SELECT * FROM lab_managers ORDER BY last_name ASC`); err != nil {
		return nil, fmt.Errorf("list lab managers: %w", err)
	}
	return managers, nil
}

// CreateTeacher inserts a teacher.
func (r *LabRepository) CreateTeacher(ctx context.Context, teacher *models.Teacher) error {
	teacher.ID = uuid.NewString()
	const query = `INSERT INTO teachers (id, first_name, last_name, email)
VALUES (:id, :first_name, :last_name, :email)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("insert teacher: %w", err)
	}
	return nil
}

// GetTeacher fetches a teacher. Returns nil when it does not exist.
func (r *LabRepository) GetTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, `SELECT * FROM teachers WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	return &teacher, nil
}

// ListTeachers returns all teachers ordered by last name.
func (r *LabRepository) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, `SELECT * FROM teachers ORDER BY last_name ASC`); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}
