package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/internal/repository"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (*txProviderMock, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

// expectTx queues one Begin/Commit pair on the mock.
func expectTx(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func expectRolledBackTx(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

// supplyStoreMock keeps supplies in memory and honors the non-negative
// stock guard the real repository enforces.
type supplyStoreMock struct {
	supplies map[string]*models.Supply
}

func newSupplyStoreMock(supplies ...*models.Supply) *supplyStoreMock {
	store := &supplyStoreMock{supplies: map[string]*models.Supply{}}
	for _, s := range supplies {
		store.supplies[s.ID] = s
	}
	return store
}

func (m *supplyStoreMock) Get(ctx context.Context, id string) (*models.Supply, error) {
	s, ok := m.supplies[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *supplyStoreMock) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Supply, error) {
	return m.Get(ctx, id)
}

func (m *supplyStoreMock) AdjustStockTx(ctx context.Context, tx *sqlx.Tx, id string, delta int) (*models.Supply, error) {
	s, ok := m.supplies[id]
	if !ok || s.StockOnHand+delta < 0 {
		return nil, nil
	}
	s.StockOnHand += delta
	cp := *s
	return &cp, nil
}

func (m *supplyStoreMock) stock(id string) int {
	return m.supplies[id].StockOnHand
}

// alertStoreMock keeps alerts in memory.
type alertStoreMock struct {
	alerts []*models.Alert
	nextID int
}

func (m *alertStoreMock) FindActiveTx(ctx context.Context, tx *sqlx.Tx, supplyID string) ([]models.Alert, error) {
	var out []models.Alert
	for _, a := range m.alerts {
		if a.SupplyID == supplyID && a.State == models.AlertActive {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *alertStoreMock) InsertTx(ctx context.Context, tx *sqlx.Tx, supplyID string, kind models.AlertKind, message string) (*models.Alert, error) {
	m.nextID++
	alert := &models.Alert{
		ID:        fmt.Sprintf("alert-%d", m.nextID),
		SupplyID:  supplyID,
		Kind:      kind,
		State:     models.AlertActive,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	m.alerts = append(m.alerts, alert)
	cp := *alert
	return &cp, nil
}

func (m *alertStoreMock) ResolveTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	for _, a := range m.alerts {
		if a.ID == id {
			now := time.Now().UTC()
			a.State = models.AlertResolved
			a.ResolvedAt = &now
			return nil
		}
	}
	return fmt.Errorf("alert %s not found", id)
}

func (m *alertStoreMock) active(supplyID string) []*models.Alert {
	var out []*models.Alert
	for _, a := range m.alerts {
		if a.SupplyID == supplyID && a.State == models.AlertActive {
			out = append(out, a)
		}
	}
	return out
}

// movementLogMock records appended movements.
type movementLogMock struct {
	entries []repository.MovementParams
	nextID  int
}

func (m *movementLogMock) InsertTx(ctx context.Context, tx *sqlx.Tx, params repository.MovementParams) (*models.Movement, error) {
	m.entries = append(m.entries, params)
	m.nextID++
	return &models.Movement{
		ID:          fmt.Sprintf("mov-%d", m.nextID),
		SupplyID:    params.SupplyID,
		Kind:        params.Kind,
		Quantity:    params.Quantity,
		Responsible: params.Responsible,
		DeliveredAt: time.Now().UTC(),
	}, nil
}

func (m *movementLogMock) byKind(kind models.MovementKind) []repository.MovementParams {
	var out []repository.MovementParams
	for _, e := range m.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func newTestLedger(supplies *supplyStoreMock, alerts *alertStoreMock) *StockLedger {
	return NewStockLedger(supplies, alerts, zap.NewNop())
}

func testValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

func testSupply(id, name string, stock, min, max int) *models.Supply {
	return &models.Supply{
		ID:          id,
		Name:        name,
		Unit:        "unit",
		StockOnHand: stock,
		StockMin:    min,
		StockMax:    max,
	}
}
