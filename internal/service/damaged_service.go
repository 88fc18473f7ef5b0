package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/internal/repository"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

type damagedRepo interface {
	InsertTx(ctx context.Context, tx *sqlx.Tx, input models.RegisterDamagedInput) (*models.DamagedItem, error)
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.DamagedItem, error)
	UpdateStateTx(ctx context.Context, tx *sqlx.Tx, id string, state models.DamageState, notes string) error
	Get(ctx context.Context, id string) (*models.DamagedItem, error)
	List(ctx context.Context, filter models.DamagedFilter) ([]models.DamagedItem, int, error)
}

var validDamageStates = map[models.DamageState]bool{
	models.DamageNoRepair: true,
	models.DamageInRepair: true,
	models.DamageRepaired: true,
}

// DamagedService tracks damaged supply units. Units sitting in the
// REPAIRED state count as free stock: entering it credits the supply and
// leaving it debits the supply again, both with REPAIR movements.
type DamagedService struct {
	items     damagedRepo
	ledger    *StockLedger
	movements movementAppender
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDamagedService constructs the service.
func NewDamagedService(items damagedRepo, ledger *StockLedger, movements movementAppender, tx txProvider, validate *validator.Validate, logger *zap.Logger) *DamagedService {
	return &DamagedService{items: items, ledger: ledger, movements: movements, tx: tx, validator: validate, logger: logger}
}

// Register records damaged units. Registering them directly as REPAIRED
// credits the supply's stock.
func (s *DamagedService) Register(ctx context.Context, input models.RegisterDamagedInput) (item *models.DamagedItem, err error) {
	if err = s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid damaged item payload")
	}
	if !validDamageStates[input.State] {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown damage state %s", input.State))
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin damage register")
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

	item, err = s.items.InsertTx(ctx, tx, input)
	if err != nil {
		return nil, err
	}
	item.SupplyName = supply.Name

	if input.State == models.DamageRepaired {
		if err = s.creditRepaired(ctx, tx, supply, item); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit damage register")
	}
	s.logger.Info("damaged item registered",
		zap.String("itemId", item.ID),
		zap.String("supplyId", item.SupplyID),
		zap.String("state", string(item.State)))
	return item, nil
}

// UpdateState moves a damaged item between states. Any of the three
// states may follow any other; only crossing the REPAIRED boundary
// touches stock. Leaving REPAIRED fails when the repaired units are no
// longer on hand.
func (s *DamagedService) UpdateState(ctx context.Context, id string, state models.DamageState, notes string) (item *models.DamagedItem, err error) {
	if !validDamageStates[state] {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown damage state %s", state))
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin damage update")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	item, err = s.items.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("damaged item %s not found", id))
	}

	if state != item.State {
		entering := state == models.DamageRepaired
		leaving := item.State == models.DamageRepaired
		if entering || leaving {
			supply, lockErr := s.ledger.Lock(ctx, tx, item.SupplyID)
			if lockErr != nil {
				err = lockErr
				return nil, err
			}
			if entering {
				if err = s.creditRepaired(ctx, tx, supply, item); err != nil {
					return nil, err
				}
			} else {
				if _, err = s.ledger.Apply(ctx, tx, supply, -item.Quantity); err != nil {
					return nil, err
				}
				if _, err = s.movements.InsertTx(ctx, tx, repository.MovementParams{
					SupplyID:    item.SupplyID,
					Kind:        models.MovementRepair,
					Quantity:    item.Quantity,
					Responsible: "damage-tracking",
					RequestID:   item.RequestID,
				}); err != nil {
					return nil, err
				}
			}
		}
	}

	if notes == "" {
		notes = item.Notes
	}
	if err = s.items.UpdateStateTx(ctx, tx, id, state, notes); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit damage update")
	}

	item.State = state
	item.Notes = notes
	return item, nil
}

func (s *DamagedService) creditRepaired(ctx context.Context, tx *sqlx.Tx, supply *models.Supply, item *models.DamagedItem) error {
	if _, err := s.ledger.Apply(ctx, tx, supply, item.Quantity); err != nil {
		return err
	}
	_, err := s.movements.InsertTx(ctx, tx, repository.MovementParams{
		SupplyID:    item.SupplyID,
		Kind:        models.MovementRepair,
		Quantity:    item.Quantity,
		Responsible: "damage-tracking",
		RequestID:   item.RequestID,
	})
	return err
}

// Get fetches a damaged item.
func (s *DamagedService) Get(ctx context.Context, id string) (*models.DamagedItem, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("damaged item %s not found", id))
	}
	return item, nil
}

// List returns damaged items matching the filter.
func (s *DamagedService) List(ctx context.Context, filter models.DamagedFilter) ([]models.DamagedItem, int, error) {
	return s.items.List(ctx, filter)
}
