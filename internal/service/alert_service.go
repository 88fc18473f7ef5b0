package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

type alertRepo interface {
	List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error)
	Get(ctx context.Context, id string) (*models.Alert, error)
	ResolveTx(ctx context.Context, tx *sqlx.Tx, id string) error
}

// AlertService exposes stock alerts. Alerts are raised by the ledger as a
// side effect of stock changes; the API can list them and acknowledge one
// by resolving it, but the ledger re-raises while the stock stays out of
// band.
type AlertService struct {
	alerts alertRepo
	tx     txProvider
	logger *zap.Logger
}

// NewAlertService constructs the service.
func NewAlertService(alerts alertRepo, tx txProvider, logger *zap.Logger) *AlertService {
	return &AlertService{alerts: alerts, tx: tx, logger: logger}
}

// List returns alerts matching the filter.
func (s *AlertService) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error) {
	if filter.State != "" && filter.State != models.AlertActive && filter.State != models.AlertResolved {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown alert state %s", filter.State))
	}
	return s.alerts.List(ctx, filter)
}

// Resolve acknowledges an active alert.
func (s *AlertService) Resolve(ctx context.Context, id string) (alert *models.Alert, err error) {
	alert, err = s.alerts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("alert %s not found", id))
	}
	if alert.State != models.AlertActive {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("alert %s is already resolved", id))
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "begin alert resolve")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.alerts.ResolveTx(ctx, tx, id); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "commit alert resolve")
	}

	alert.State = models.AlertResolved
	s.logger.Info("alert resolved",
		zap.String("alertId", id),
		zap.String("supplyId", alert.SupplyID))
	return alert, nil
}
