package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/pkg/amountwords"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

type acquisitionRepo interface {
	Create(ctx context.Context, acq *models.Acquisition) error
	Get(ctx context.Context, id string) (*models.Acquisition, error)
	List(ctx context.Context, page, pageSize int) ([]models.Acquisition, int, error)
	Update(ctx context.Context, acq *models.Acquisition, replaceItems bool) error
	Delete(ctx context.Context, id string) (bool, error)
}

type managerReader interface {
	GetManager(ctx context.Context, id string) (*models.LabManager, error)
}

// AcquisitionService manages purchase orders. Line totals and the grand
// total are computed with exact decimal arithmetic and the total is
// spelled out in words for the printed form.
type AcquisitionService struct {
	acquisitions acquisitionRepo
	managers     managerReader
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAcquisitionService constructs the service.
func NewAcquisitionService(acquisitions acquisitionRepo, managers managerReader, validate *validator.Validate, logger *zap.Logger) *AcquisitionService {
	return &AcquisitionService{acquisitions: acquisitions, managers: managers, validator: validate, logger: logger}
}

// Create registers an acquisition with its items.
func (s *AcquisitionService) Create(ctx context.Context, input models.CreateAcquisitionInput) (*models.Acquisition, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid acquisition payload")
	}

	manager, err := s.managers.GetManager(ctx, input.ManagerID)
	if err != nil {
		return nil, err
	}
	if manager == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lab manager %s not found", input.ManagerID))
	}

	requestingUnit := input.RequestingUnit
	if requestingUnit == "" {
		requestingUnit = manager.RequestingUnit
	}
	issuedAt := input.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	acq := &models.Acquisition{
		ID:             uuid.NewString(),
		ManagerID:      input.ManagerID,
		RequestingUnit: requestingUnit,
		CostCenter:     input.CostCenter,
		InvestmentCode: input.InvestmentCode,
		Responsible:    input.Responsible,
		Justification:  input.Justification,
		Observations:   input.Observations,
		Status:         models.AcquisitionPending,
		IssuedAt:       issuedAt,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.applyItems(acq, input.Items); err != nil {
		return nil, err
	}

	if err := s.acquisitions.Create(ctx, acq); err != nil {
		return nil, err
	}
	s.logger.Info("acquisition created",
		zap.String("acquisitionId", acq.ID),
		zap.String("total", acq.TotalAmount.StringFixed(2)))
	return acq, nil
}

// applyItems rebuilds the item list from the inputs and recomputes the
// total and its spelled-out form.
func (s *AcquisitionService) applyItems(acq *models.Acquisition, items []models.AcquisitionItemInput) error {
	acq.Items = acq.Items[:0]
	total := decimal.Zero
	for _, item := range items {
		unitPrice, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid unit price %q", item.UnitPrice))
		}
		if unitPrice.IsNegative() {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("negative unit price for %q", item.Description))
		}
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		acq.Items = append(acq.Items, models.AcquisitionItem{
			ID:            uuid.NewString(),
			AcquisitionID: acq.ID,
			SupplyID:      item.SupplyID,
			Description:   item.Description,
			Unit:          item.Unit,
			Quantity:      item.Quantity,
			UnitPrice:     unitPrice,
			Total:         lineTotal,
		})
		total = total.Add(lineTotal)
	}
	acq.TotalAmount = total
	acq.AmountWords = amountwords.Bolivianos(total.InexactFloat64())
	return nil
}

// Update applies a partial edit: review status, observations, or a full
// item replacement that recomputes the totals.
func (s *AcquisitionService) Update(ctx context.Context, id string, input models.UpdateAcquisitionInput) (*models.Acquisition, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid acquisition update")
	}

	acq, err := s.acquisitions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if acq == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("acquisition %s not found", id))
	}

	if input.Status != nil {
		acq.Status = *input.Status
	}
	if input.Observations != nil {
		acq.Observations = *input.Observations
	}
	replaceItems := len(input.Items) > 0
	if replaceItems {
		if err := s.applyItems(acq, input.Items); err != nil {
			return nil, err
		}
	}

	if err := s.acquisitions.Update(ctx, acq, replaceItems); err != nil {
		return nil, err
	}
	s.logger.Info("acquisition updated",
		zap.String("acquisitionId", acq.ID),
		zap.String("status", string(acq.Status)),
		zap.Bool("itemsReplaced", replaceItems))
	return acq, nil
}

// Get fetches an acquisition with its items.
func (s *AcquisitionService) Get(ctx context.Context, id string) (*models.Acquisition, error) {
	acq, err := s.acquisitions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if acq == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("acquisition %s not found", id))
	}
	return acq, nil
}

// List returns acquisitions newest first.
func (s *AcquisitionService) List(ctx context.Context, page, pageSize int) ([]models.Acquisition, int, error) {
	return s.acquisitions.List(ctx, page, pageSize)
}

// Delete removes an acquisition.
func (s *AcquisitionService) Delete(ctx context.Context, id string) error {
	deleted, err := s.acquisitions.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("acquisition %s not found", id))
	}
	return nil
}
