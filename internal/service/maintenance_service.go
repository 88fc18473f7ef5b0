package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

type maintenanceRepo interface {
	InsertTx(ctx context.Context, tx *sqlx.Tx, supplyID string, quantity int, notes string) (*models.MaintenanceRecord, error)
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.MaintenanceRecord, error)
	FinishTx(ctx context.Context, tx *sqlx.Tx, id string, returnedQuantity int, notes string) error
	Get(ctx context.Context, id string) (*models.MaintenanceRecord, error)
	List(ctx context.Context, filter models.MaintenanceFilter) ([]models.MaintenanceRecord, int, error)
}

// MaintenanceService moves supply units in and out of maintenance. Units
// under maintenance are removed from free stock; finishing a record puts
// the surviving units back and writes off the rest.
type MaintenanceService struct {
	records   maintenanceRepo
	ledger    *StockLedger
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaintenanceService constructs the service.
func NewMaintenanceService(records maintenanceRepo, ledger *StockLedger, tx txProvider, validate *validator.Validate, logger *zap.Logger) *MaintenanceService {
	return &MaintenanceService{records: records, ledger: ledger, tx: tx, validator: validate, logger: logger}
}

// Start opens a maintenance record and removes the quantity from free
// stock.
func (s *MaintenanceService) Start(ctx context.Context, input models.StartMaintenanceInput) (record *models.MaintenanceRecord, err error) {
	if err = s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid maintenance payload")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin maintenance start")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	supply, err := s.ledger.Lock(ctx, tx, input.SupplyID)
	if err != nil {
		return nil, err
	}
	if _, err = s.ledger.Apply(ctx, tx, supply, -input.Quantity); err != nil {
		return nil, err
	}

	record, err = s.records.InsertTx(ctx, tx, input.SupplyID, input.Quantity, input.Notes)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit maintenance start")
	}

	record.SupplyName = supply.Name
	s.logger.Info("maintenance started",
		zap.String("recordId", record.ID),
		zap.String("supplyId", input.SupplyID),
		zap.Int("quantity", input.Quantity))
	return record, nil
}

// Finish closes a maintenance record. An omitted returned quantity means
// everything came back; anything short of the original is written off, and
// returning more than went out is rejected.
func (s *MaintenanceService) Finish(ctx context.Context, id string, input models.FinishMaintenanceInput) (record *models.MaintenanceRecord, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin maintenance finish")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	record, err = s.records.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("maintenance record %s not found", id))
	}
	if record.State != models.MaintenanceInProgress {
		return nil, appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("maintenance record %s is already %s", id, record.State))
	}

	returned := record.Quantity
	if input.ReturnedQuantity != nil {
		returned = *input.ReturnedQuantity
	}
	if returned > record.Quantity {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("cannot return %d units, only %d went out for maintenance", returned, record.Quantity))
	}
	if returned > 0 {
		supply, lockErr := s.ledger.Lock(ctx, tx, record.SupplyID)
		if lockErr != nil {
			err = lockErr
			return nil, err
		}
		if _, err = s.ledger.Apply(ctx, tx, supply, returned); err != nil {
			return nil, err
		}
	}

	notes := record.Notes
	if input.Notes != "" {
		notes = input.Notes
	}
	if err = s.records.FinishTx(ctx, tx, id, returned, notes); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit maintenance finish")
	}

	record.State = models.MaintenanceFinished
	record.ReturnedQuantity = returned
	record.Notes = notes
	s.logger.Info("maintenance finished",
		zap.String("recordId", id),
		zap.Int("returned", returned),
		zap.Int("writtenOff", record.Quantity-returned))
	return record, nil
}

// Get fetches a maintenance record.
func (s *MaintenanceService) Get(ctx context.Context, id string) (*models.MaintenanceRecord, error) {
	record, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("maintenance record %s not found", id))
	}
	return record, nil
}

// List returns maintenance records matching the filter.
func (s *MaintenanceService) List(ctx context.Context, filter models.MaintenanceFilter) ([]models.MaintenanceRecord, int, error) {
	return s.records.List(ctx, filter)
}
