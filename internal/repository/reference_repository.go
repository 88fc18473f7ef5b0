package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/univalle-lab/labstock-api/internal/models"
)

// ReferenceRepository provides persistence for the academic reference
// catalog: careers, semesters and subjects.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs the repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// CreateCareer inserts a career.
func (r *ReferenceRepository) CreateCareer(ctx context.Context, name, faculty string) (*models.Career, error) {
	career := models.Career{ID: uuid.NewString(), Name: name, Faculty: faculty}
	const query = `INSERT INTO careers (id, name, faculty) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, career.ID, career.Name, career.Faculty); err != nil {
		return nil, fmt.Errorf("insert career: %w", err)
	}
	return &career, nil
}

// ListCareers returns all careers ordered by name.
func (r *ReferenceRepository) ListCareers(ctx context.Context) ([]models.Career, error) {
	var careers []models.Career
	if err := r.db.SelectContext(ctx, &careers, `SELECT * FROM careers ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list careers: %w", err)
	}
	return careers, nil
}

// DeleteCareer removes a career. Returns false when no row matched.
func (r *ReferenceRepository) DeleteCareer(ctx context.Context, id string) (bool, error) {
	return r.deleteByID(ctx, "careers", id)
}

// CreateSemester inserts a semester.
func (r *ReferenceRepository) CreateSemester(ctx context.Context, name string) (*models.Semester, error) {
	semester := models.Semester{ID: uuid.NewString(), Name: name}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO semesters (id, name) VALUES ($1, $2)`, semester.ID, semester.Name); err != nil {
		return nil, fmt.Errorf("insert semester: %w", err)
	}
	return &semester, nil
}

// ListSemesters returns all semesters ordered by name.
func (r *ReferenceRepository) ListSemesters(ctx context.Context) ([]models.Semester, error) {
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, `SELECT * FROM semesters ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	return semesters, nil
}

// DeleteSemester removes a semester. Returns false when no row matched.
func (r *ReferenceRepository) DeleteSemester(ctx context.Context, id string) (bool, error) {
	return r.deleteByID(ctx, "semesters", id)
}

// CreateSubject inserts a subject.
func (r *ReferenceRepository) CreateSubject(ctx context.Context, name string, careerID, semesterID *string) (*models.Subject, error) {
	subject := models.Subject{ID: uuid.NewString(), Name: name, CareerID: careerID, SemesterID: semesterID}
	const query = `INSERT INTO subjects (id, name, career_id, semester_id) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, subject.ID, subject.Name, subject.CareerID, subject.SemesterID); err != nil {
		return nil, fmt.Errorf("insert subject: %w", err)
	}
	return &subject, nil
}

// GetSubject fetches a subject. Returns nil when it does not exist.
func (r *ReferenceRepository) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, `SELECT * FROM subjects WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get subject: %w", err)
	}
	return &subject, nil
}

// ListSubjects returns subjects, optionally restricted to one career.
func (r *ReferenceRepository) ListSubjects(ctx context.Context, careerID string) ([]models.Subject, error) {
	query := `SELECT * FROM subjects`
	args := []interface{}{}
	if careerID != "" {
		query += ` WHERE career_id = $1`
		args = append(args, careerID)
	}
	query += ` ORDER BY name ASC`

	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// DeleteSubject removes a subject. Returns false when no row matched.
func (r *ReferenceRepository) DeleteSubject(ctx context.Context, id string) (bool, error) {
	return r.deleteByID(ctx, "subjects", id)
}

func (r *ReferenceRepository) deleteByID(ctx context.Context, table, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete from %s rows: %w", table, err)
	}
	return rows > 0, nil
}
