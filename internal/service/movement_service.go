package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

type movementRepo interface {
	Get(ctx context.Context, id string) (*models.Movement, error)
	List(ctx context.Context, filter models.MovementFilter) ([]models.Movement, int, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// MovementService exposes the stock movement log.
type MovementService struct {
	movements movementRepo
	logger    *zap.Logger
}

// NewMovementService constructs the service.
func NewMovementService(movements movementRepo, logger *zap.Logger) *MovementService {
	return &MovementService{movements: movements, logger: logger}
}

// Get fetches a single movement entry.
func (s *MovementService) Get(ctx context.Context, id string) (*models.Movement, error) {
	movement, err := s.movements.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if movement == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "movement "+id+" not found")
	}
	return movement, nil
}

// List returns movements matching the filter.
func (s *MovementService) List(ctx context.Context, filter models.MovementFilter) ([]models.Movement, int, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "date range end precedes its start")
	}
	return s.movements.List(ctx, filter)
}

// Purge removes movement entries older than the cutoff.
func (s *MovementService) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	removed, err := s.movements.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.logger.Info("movement log purged",
		zap.Time("cutoff", cutoff),
		zap.Int64("removed", removed))
	return removed, nil
}
