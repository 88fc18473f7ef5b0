package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univalle-lab/labstock-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func supplyColumns() []string {
	return []string{"id", "name", "description", "category", "location", "unit", "stock_on_hand", "stock_min", "stock_max", "created_at", "updated_at"}
}

func supplyRow(id string, stock int) []driverValue {
	now := time.Now().UTC()
	return []driverValue{id, "Beaker 250ml", "", "glassware", "shelf A", "unit", stock, 5, 40, now, now}
}

type driverValue = driver.Value

func TestSupplyRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSupplyRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO supplies")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	supply, err := repo.Create(context.Background(), models.CreateSupplyInput{
		Name:        "Beaker 250ml",
		Unit:        "unit",
		StockOnHand: 20,
		StockMin:    5,
		StockMax:    40,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, supply.ID)
	assert.Equal(t, 20, supply.StockOnHand)
}

func TestSupplyRepositoryGetNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSupplyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM supplies WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	supply, err := repo.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, supply)
}

func TestSupplyRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSupplyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM supplies")).
		WithArgs("glassware").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM supplies")).
		WithArgs("glassware", 10, 0).
		WillReturnRows(sqlmock.NewRows(supplyColumns()).AddRow(supplyRow("supply-1", 20)...))

	supplies, total, err := repo.List(context.Background(), models.SupplyFilter{
		Category: "glassware",
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, supplies, 1)
	assert.Equal(t, "supply-1", supplies[0].ID)
}

func TestSupplyRepositoryDeleteCascadesAlerts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSupplyRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM alerts WHERE supply_id = $1")).
		WithArgs("supply-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM supplies WHERE id = $1")).
		WithArgs("supply-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := repo.Delete(context.Background(), "supply-1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupplyRepositoryAdjustStockTxRefusesNegative(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSupplyRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE supplies")).
		WithArgs(-30, sqlmock.AnyArg(), "supply-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	supply, err := repo.AdjustStockTx(context.Background(), tx, "supply-1", -30)
	require.NoError(t, err)
	assert.Nil(t, supply)
	require.NoError(t, tx.Rollback())
}

func TestSupplyRepositoryAdjustStockTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSupplyRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE supplies")).
		WithArgs(-5, sqlmock.AnyArg(), "supply-1").
		WillReturnRows(sqlmock.NewRows(supplyColumns()).AddRow(supplyRow("supply-1", 15)...))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	supply, err := repo.AdjustStockTx(context.Background(), tx, "supply-1", -5)
	require.NoError(t, err)
	require.NotNil(t, supply)
	assert.Equal(t, 15, supply.StockOnHand)
	require.NoError(t, tx.Commit())
}
