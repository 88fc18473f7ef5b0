package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/pkg/database"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

type studentRepo interface {
	Create(ctx context.Context, student *models.Student) error
	Get(ctx context.Context, id string) (*models.Student, error)
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	List(ctx context.Context) ([]models.Student, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// StudentService manages student accounts.
type StudentService struct {
	students studentRepo
	logger   *zap.Logger
}

// NewStudentService constructs the service.
func NewStudentService(students studentRepo, logger *zap.Logger) *StudentService {
	return &StudentService{students: students, logger: logger}
}

// Create registers a student with a bcrypt-hashed password.
func (s *StudentService) Create(ctx context.Context, student *models.Student, password string) (*models.Student, error) {
	if student.FirstName == "" || student.LastName == "" || student.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student name and email are required")
	}
	if len(password) < 8 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	student.PasswordHash = string(hash)

	if err := s.students.Create(ctx, student); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("student with email %q already exists", student.Email))
		}
		return nil, err
	}
	s.logger.Info("student created", zap.String("studentId", student.ID))
	return student, nil
}

// Get fetches a student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", id))
	}
	return student, nil
}

// List returns all students.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	return s.students.List(ctx)
}

// Delete removes a student.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	deleted, err := s.students.Delete(ctx, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "student has requests on record")
		}
		return err
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", id))
	}
	return nil
}
