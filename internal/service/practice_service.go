package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

type practiceRepo interface {
	Create(ctx context.Context, input models.CreatePracticeInput) (*models.Practice, error)
	Get(ctx context.Context, id string) (*models.Practice, error)
	List(ctx context.Context) ([]models.Practice, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// PracticeService manages practice templates.
type PracticeService struct {
	practices practiceRepo
	supplies  supplyReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPracticeService constructs the service.
func NewPracticeService(practices practiceRepo, supplies supplyReader, validate *validator.Validate, logger *zap.Logger) *PracticeService {
	return &PracticeService{practices: practices, supplies: supplies, validator: validate, logger: logger}
}

// Create registers a practice template after checking every referenced
// supply exists.
func (s *PracticeService) Create(ctx context.Context, input models.CreatePracticeInput) (*models.Practice, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid practice payload")
	}

	seen := make(map[string]bool, len(input.Supplies))
	for _, line := range input.Supplies {
		if seen[line.SupplyID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate template supply %s", line.SupplyID))
		}
		seen[line.SupplyID] = true
		supply, err := s.supplies.Get(ctx, line.SupplyID)
		if err != nil {
			return nil, err
		}
		if supply == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("supply %s not found", line.SupplyID))
		}
	}

	practice, err := s.practices.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("practice created", zap.String("practiceId", practice.ID))
	return practice, nil
}

// Get fetches a practice with its template supplies.
func (s *PracticeService) Get(ctx context.Context, id string) (*models.Practice, error) {
	practice, err := s.practices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if practice == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("practice %s not found", id))
	}
	return practice, nil
}

// List returns all practices.
func (s *PracticeService) List(ctx context.Context) ([]models.Practice, error) {
	return s.practices.List(ctx)
}

// Delete removes a practice template.
func (s *PracticeService) Delete(ctx context.Context, id string) error {
	deleted, err := s.practices.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("practice %s not found", id))
	}
	return nil
}
