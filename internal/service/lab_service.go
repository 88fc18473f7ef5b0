package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/pkg/database"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

type labRepo interface {
	CreateLab(ctx context.Context, name, location string, managerID *string) (*models.Lab, error)
	GetLab(ctx context.Context, id string) (*models.Lab, error)
	ListLabs(ctx context.Context) ([]models.Lab, error)
	AssignManager(ctx context.Context, labID, managerID string) (bool, error)
	DeleteLab(ctx context.Context, id string) (bool, error)
	CreateManager(ctx context.Context, manager *models.LabManager) error
	GetManager(ctx context.Context, id string) (*models.LabManager, error)
	ListManagers(ctx context.Context) ([]models.LabManager, error)
	CreateTeacher(ctx context.Context, teacher *models.Teacher) error
	GetTeacher(ctx context.Context, id string) (*models.Teacher, error)
	ListTeachers(ctx context.Context) ([]models.Teacher, error)
}

// LabService manages laboratories, lab managers and teachers.
type LabService struct {
	labs      labRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLabService constructs the service.
func NewLabService(labs labRepo, validate *validator.Validate, logger *zap.Logger) *LabService {
	return &LabService{labs: labs, validator: validate, logger: logger}
}

// CreateLab registers a laboratory.
func (s *LabService) CreateLab(ctx context.Context, name, location string, managerID *string) (*models.Lab, error) {
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lab name is required")
	}
	if managerID != nil {
		manager, err := s.labs.GetManager(ctx, *managerID)
		if err != nil {
			return nil, err
		}
		if manager == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lab manager %s not found", *managerID))
		}
	}
	lab, err := s.labs.CreateLab(ctx, name, location, managerID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("lab %q already exists", name))
		}
		return nil, err
	}
	return lab, nil
}

// GetLab fetches a laboratory.
func (s *LabService) GetLab(ctx context.Context, id string) (*models.Lab, error) {
	lab, err := s.labs.GetLab(ctx, id)
	if err != nil {
		return nil, err
	}
	if lab == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lab %s not found", id))
	}
	return lab, nil
}

// ListLabs returns all laboratories.
func (s *LabService) ListLabs(ctx context.Context) ([]models.Lab, error) {
	return s.labs.ListLabs(ctx)
}

// AssignManager points a lab at a manager.
func (s *LabService) AssignManager(ctx context.Context, labID, managerID string) error {
	manager, err := s.labs.GetManager(ctx, managerID)
	if err != nil {
		return err
	}
	if manager == nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lab manager %s not found", managerID))
	}
	assigned, err := s.labs.AssignManager(ctx, labID, managerID)
	if err != nil {
		return err
	}
	if !assigned {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lab %s not found", labID))
	}
	return nil
}

// DeleteLab removes a laboratory.
func (s *LabService) DeleteLab(ctx context.Context, id string) error {
	deleted, err := s.labs.DeleteLab(ctx, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "lab is referenced by requests")
		}
		return err
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lab %s not found", id))
	}
	return nil
}

// CreateManager registers a lab manager.
func (s *LabService) CreateManager(ctx context.Context, manager *models.LabManager) (*models.LabManager, error) {
	if manager.FirstName == "" || manager.LastName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "manager first and last name are required")
	}
	if err := s.labs.CreateManager(ctx, manager); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("manager with email %q already exists", manager.Email))
		}
		return nil, err
	}
	return manager, nil
}

// ListManagers returns all lab managers.
func (s *LabService) ListManagers(ctx context.Context) ([]models.LabManager, error) {
	return s.labs.ListManagers(ctx)
}

// CreateTeacher registers a teacher.
func (s *LabService) CreateTeacher(ctx context.Context, teacher *models.Teacher) (*models.Teacher, error) {
	if teacher.FirstName == "" || teacher.LastName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher first and last name are required")
	}
	if err := s.labs.CreateTeacher(ctx, teacher); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("teacher with email %q already exists", teacher.Email))
		}
		return nil, err
	}
	return teacher, nil
}

// GetTeacher fetches a teacher.
func (s *LabService) GetTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.labs.GetTeacher(ctx, id)
	if err != nil {
		return nil, err
	}
	if teacher == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("teacher %s not found", id))
	}
	return teacher, nil
}

// ListTeachers returns all teachers.
func (s *LabService) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	return s.labs.ListTeachers(ctx)
}
