package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/pkg/database"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

type referenceRepo interface {
	CreateCareer(ctx context.Context, name, faculty string) (*models.Career, error)
	ListCareers(ctx context.Context) ([]models.Career, error)
	DeleteCareer(ctx context.Context, id string) (bool, error)
	CreateSemester(ctx context.Context, name string) (*models.Semester, error)
	ListSemesters(ctx context.Context) ([]models.Semester, error)
	DeleteSemester(ctx context.Context, id string) (bool, error)
	CreateSubject(ctx context.Context, name string, careerID, semesterID *string) (*models.Subject, error)
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	ListSubjects(ctx context.Context, careerID string) ([]models.Subject, error)
	DeleteSubject(ctx context.Context, id string) (bool, error)
}

// ReferenceService manages the academic reference catalog.
type ReferenceService struct {
	refs   referenceRepo
	logger *zap.Logger
}

// NewReferenceService constructs the service.
func NewReferenceService(refs referenceRepo, logger *zap.Logger) *ReferenceService {
	return &ReferenceService{refs: refs, logger: logger}
}

// CreateCareer registers a career.
func (s *ReferenceService) CreateCareer(ctx context.Context, name, faculty string) (*models.Career, error) {
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "career name is required")
	}
	career, err := s.refs.CreateCareer(ctx, name, faculty)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("career %q already exists", name))
		}
		return nil, err
	}
	return career, nil
}

// ListCareers returns all careers.
func (s *ReferenceService) ListCareers(ctx context.Context) ([]models.Career, error) {
	return s.refs.ListCareers(ctx)
}

// DeleteCareer removes a career.
func (s *ReferenceService) DeleteCareer(ctx context.Context, id string) error {
	return s.deleteRef(ctx, "career", id, s.refs.DeleteCareer)
}

// CreateSemester registers a semester.
func (s *ReferenceService) CreateSemester(ctx context.Context, name string) (*models.Semester, error) {
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester name is required")
	}
	semester, err := s.refs.CreateSemester(ctx, name)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("semester %q already exists", name))
		}
		return nil, err
	}
	return semester, nil
}

// ListSemesters returns all semesters.
func (s *ReferenceService) ListSemesters(ctx context.Context) ([]models.Semester, error) {
	return s.refs.ListSemesters(ctx)
}

// DeleteSemester removes a semester.
func (s *ReferenceService) DeleteSemester(ctx context.Context, id string) error {
	return s.deleteRef(ctx, "semester", id, s.refs.DeleteSemester)
}

// CreateSubject registers a subject.
func (s *ReferenceService) CreateSubject(ctx context.Context, name string, careerID, semesterID *string) (*models.Subject, error) {
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject name is required")
	}
	subject, err := s.refs.CreateSubject(ctx, name, careerID, semesterID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "career or semester does not exist")
		}
		return nil, err
	}
	return subject, nil
}

// ListSubjects returns subjects, optionally restricted to one career.
func (s *ReferenceService) ListSubjects(ctx context.Context, careerID string) ([]models.Subject, error) {
	return s.refs.ListSubjects(ctx, careerID)
}

// DeleteSubject removes a subject.
func (s *ReferenceService) DeleteSubject(ctx context.Context, id string) error {
	return s.deleteRef(ctx, "subject", id, s.refs.DeleteSubject)
}

func (s *ReferenceService) deleteRef(ctx context.Context, kind, id string, del func(context.Context, string) (bool, error)) error {
	deleted, err := del(ctx, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s is still referenced", kind))
		}
		return err
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %s not found", kind, id))
	}
	return nil
}
