package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univalle-lab/labstock-api/internal/models"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

func TestStockLedgerApplyRaisesLowStockAlert(t *testing.T) {
	supplies := newSupplyStoreMock(testSupply("supply-1", "Beaker 250ml", 10, 5, 40))
	alerts := &alertStoreMock{}
	ledger := newTestLedger(supplies, alerts)
	txp, mock := newTxProviderMock(t)
	expectTx(mock)

	tx, err := txp.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	supply, err := ledger.Lock(context.Background(), tx, "supply-1")
	require.NoError(t, err)
	updated, err := ledger.Apply(context.Background(), tx, supply, -7)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, 3, updated.StockOnHand)
	active := alerts.active("supply-1")
	require.Len(t, active, 1)
	assert.Equal(t, models.AlertLowStock, active[0].Kind)
}

func TestStockLedgerApplyIsIdempotentForSameAlert(t *testing.T) {
	supplies := newSupplyStoreMock(testSupply("supply-1", "Beaker 250ml", 4, 5, 40))
	alerts := &alertStoreMock{}
	ledger := newTestLedger(supplies, alerts)
	txp, mock := newTxProviderMock(t)
	expectTx(mock)

	tx, err := txp.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	supply, err := ledger.Lock(context.Background(), tx, "supply-1")
	require.NoError(t, err)
	// No stock change: reconcile twice with the same reading.
	require.NoError(t, ledger.Reconcile(context.Background(), tx, supply))
	require.NoError(t, ledger.Reconcile(context.Background(), tx, supply))
	require.NoError(t, tx.Commit())

	assert.Len(t, alerts.active("supply-1"), 1)
}

func TestStockLedgerApplyResolvesAlertsBackInBand(t *testing.T) {
	supplies := newSupplyStoreMock(testSupply("supply-1", "Beaker 250ml", 3, 5, 40))
	alerts := &alertStoreMock{}
	ledger := newTestLedger(supplies, alerts)
	txp, mock := newTxProviderMock(t)
	expectTx(mock)

	tx, err := txp.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	supply, err := ledger.Lock(context.Background(), tx, "supply-1")
	require.NoError(t, err)
	require.NoError(t, ledger.Reconcile(context.Background(), tx, supply))
	require.Len(t, alerts.active("supply-1"), 1)

	updated, err := ledger.Apply(context.Background(), tx, supply, 10)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, 13, updated.StockOnHand)
	assert.Empty(t, alerts.active("supply-1"))
}

func TestStockLedgerApplySwitchesAlertKind(t *testing.T) {
	supplies := newSupplyStoreMock(testSupply("supply-1", "Beaker 250ml", 3, 5, 10))
	alerts := &alertStoreMock{}
	ledger := newTestLedger(supplies, alerts)
	txp, mock := newTxProviderMock(t)
	expectTx(mock)

	tx, err := txp.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	supply, err := ledger.Lock(context.Background(), tx, "supply-1")
	require.NoError(t, err)
	require.NoError(t, ledger.Reconcile(context.Background(), tx, supply))

	updated, err := ledger.Apply(context.Background(), tx, supply, 20)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, 23, updated.StockOnHand)
	active := alerts.active("supply-1")
	require.Len(t, active, 1)
	assert.Equal(t, models.AlertExcessStock, active[0].Kind)
}

func TestStockLedgerApplyRejectsOverdraw(t *testing.T) {
	supplies := newSupplyStoreMock(testSupply("supply-1", "Beaker 250ml", 5, 0, 0))
	alerts := &alertStoreMock{}
	ledger := newTestLedger(supplies, alerts)
	txp, mock := newTxProviderMock(t)
	expectRolledBackTx(mock)

	tx, err := txp.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	supply, err := ledger.Lock(context.Background(), tx, "supply-1")
	require.NoError(t, err)
	_, err = ledger.Apply(context.Background(), tx, supply, -6)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInsufficientStock.Code, appErrors.FromError(err).Code)
	require.NoError(t, tx.Rollback())

	assert.Equal(t, 5, supplies.stock("supply-1"))
}

func TestStockLedgerLockMissingSupply(t *testing.T) {
	supplies := newSupplyStoreMock()
	ledger := newTestLedger(supplies, &alertStoreMock{})
	txp, mock := newTxProviderMock(t)
	expectRolledBackTx(mock)

	tx, err := txp.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	_, err = ledger.Lock(context.Background(), tx, "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	require.NoError(t, tx.Rollback())
}
