package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/internal/repository"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

type supplyLedgerRepo interface {
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Supply, error)
	AdjustStockTx(ctx context.Context, tx *sqlx.Tx, id string, delta int) (*models.Supply, error)
}

type alertLedgerRepo interface {
	FindActiveTx(ctx context.Context, tx *sqlx.Tx, supplyID string) ([]models.Alert, error)
	InsertTx(ctx context.Context, tx *sqlx.Tx, supplyID string, kind models.AlertKind, message string) (*models.Alert, error)
	ResolveTx(ctx context.Context, tx *sqlx.Tx, id string) error
}

type movementAppender interface {
	InsertTx(ctx context.Context, tx *sqlx.Tx, params repository.MovementParams) (*models.Movement, error)
}

// StockLedger applies stock deltas and keeps threshold alerts consistent
// with the stock they describe. Every method runs inside the caller's
// transaction: a stock change and its alert reconciliation either both
// land or neither does.
type StockLedger struct {
	supplies supplyLedgerRepo
	alerts   alertLedgerRepo
	logger   *zap.Logger
}

// NewStockLedger constructs the ledger.
func NewStockLedger(supplies supplyLedgerRepo, alerts alertLedgerRepo, logger *zap.Logger) *StockLedger {
	return &StockLedger{supplies: supplies, alerts: alerts, logger: logger}
}

// Apply adjusts a supply's free stock by delta and reconciles its alerts.
// The supply row must already be locked by the caller via Lock.
func (l *StockLedger) Apply(ctx context.Context, tx *sqlx.Tx, supply *models.Supply, delta int) (*models.Supply, error) {
	if delta < 0 && supply.StockOnHand+delta < 0 {
		return nil, appErrors.Clone(appErrors.ErrInsufficientStock,
			fmt.Sprintf("insufficient stock for %s: %d on hand, %d needed", supply.Name, supply.StockOnHand, -delta))
	}

	updated, err := l.supplies.AdjustStockTx(ctx, tx, supply.ID, delta)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// The guarded UPDATE matched no row even though the locked read
		// succeeded; treat it the same as a plain shortage.
		return nil, appErrors.Clone(appErrors.ErrInsufficientStock,
			fmt.Sprintf("insufficient stock for %s", supply.Name))
	}

	if err := l.Reconcile(ctx, tx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Lock fetches a supply row under FOR UPDATE inside the caller's
// transaction, mapping a missing row to a not-found error.
func (l *StockLedger) Lock(ctx context.Context, tx *sqlx.Tx, supplyID string) (*models.Supply, error) {
	supply, err := l.supplies.GetForUpdateTx(ctx, tx, supplyID)
	if err != nil {
		return nil, err
	}
	if supply == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("supply %s not found", supplyID))
	}
	return supply, nil
}

// Reconcile moves a supply's alerts to match its current stock: below the
// minimum raises a single LOW_STOCK alert, above the maximum a single
// EXCESS_STOCK alert, and inside the band resolves whatever is active.
// Raising is idempotent; an identical active alert is left alone.
func (l *StockLedger) Reconcile(ctx context.Context, tx *sqlx.Tx, supply *models.Supply) error {
	var kind models.AlertKind
	var message string
	switch {
	case supply.StockOnHand < supply.StockMin:
		kind = models.AlertLowStock
		message = fmt.Sprintf("Low stock for %s: %d on hand (minimum %d)", supply.Name, supply.StockOnHand, supply.StockMin)
	case supply.StockMax > 0 && supply.StockOnHand > supply.StockMax:
		kind = models.AlertExcessStock
		message = fmt.Sprintf("Excess stock for %s: %d on hand (maximum %d)", supply.Name, supply.StockOnHand, supply.StockMax)
	}

	active, err := l.alerts.FindActiveTx(ctx, tx, supply.ID)
	if err != nil {
		return err
	}

	keep := false
	for _, alert := range active {
		if kind != "" && alert.Kind == kind && alert.Message == message {
			keep = true
			continue
		}
		if err := l.alerts.ResolveTx(ctx, tx, alert.ID); err != nil {
			return err
		}
	}

	if kind != "" && !keep {
		if _, err := l.alerts.InsertTx(ctx, tx, supply.ID, kind, message); err != nil {
			return err
		}
		l.logger.Info("stock alert raised",
			zap.String("supplyId", supply.ID),
			zap.String("kind", string(kind)),
			zap.Int("stockOnHand", supply.StockOnHand))
	}
	return nil
}
