package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univalle-lab/labstock-api/internal/models"
)

func TestMovementRepositoryInsertTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMovementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO movements")).
		WithArgs(sqlmock.AnyArg(), "supply-1", "LOAN", 10, "teacher-1", "req-1", nil, sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	requestID := "req-1"
	movement, err := repo.InsertTx(context.Background(), tx, MovementParams{
		SupplyID:    "supply-1",
		Kind:        models.MovementLoan,
		Quantity:    10,
		Responsible: "teacher-1",
		RequestID:   &requestID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MovementLoan, movement.Kind)
	require.NoError(t, tx.Commit())
}

func TestMovementRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMovementRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM movements m")).
		WithArgs("LOAN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("JOIN supplies s ON s.id = m.supply_id")).
		WithArgs("LOAN", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "supply_id", "kind", "quantity", "responsible", "request_id", "student_request_id", "delivered_at", "returned_at", "supply_name"}).
			AddRow("mov-1", "supply-1", "LOAN", 10, "teacher-1", "req-1", nil, now, nil, "Beaker 250ml"))

	movements, total, err := repo.List(context.Background(), models.MovementFilter{
		Kind:     models.MovementLoan,
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, movements, 1)
	assert.Equal(t, "Beaker 250ml", movements[0].SupplyName)
}

func TestMovementRepositoryPurgeBefore(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMovementRepository(db)

	cutoff := time.Now().UTC().AddDate(-1, 0, 0)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM movements WHERE delivered_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 42))

	removed, err := repo.PurgeBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(42), removed)
}
