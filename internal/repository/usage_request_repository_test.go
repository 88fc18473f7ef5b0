package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univalle-lab/labstock-api/internal/models"
)

func requestColumns() []string {
	return []string{"id", "teacher_id", "lab_id", "practice_id", "subject_id", "starts_at", "ends_at", "student_count", "group_size", "num_groups", "observations", "state", "not_returned", "created_at", "updated_at"}
}

func requestRow(id string, state models.RequestState) []driverValue {
	now := time.Now().UTC()
	return []driverValue{id, "teacher-1", "lab-1", nil, nil, now, now.Add(2 * time.Hour), 20, 4, 5, "", string(state), nil, now, now}
}

func TestUsageRequestRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUsageRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO usage_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO usage_request_lines")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	now := time.Now().UTC()
	req := &models.UsageRequest{
		ID:           uuid.NewString(),
		TeacherID:    "teacher-1",
		LabID:        "lab-1",
		StartsAt:     now,
		EndsAt:       now.Add(2 * time.Hour),
		StudentCount: 20,
		GroupSize:    4,
		NumGroups:    5,
		State:        models.RequestPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	req.Lines = []models.UsageRequestLine{{
		ID:        uuid.NewString(),
		RequestID: req.ID,
		SupplyID:  "supply-1",
		PerGroup:  2,
		Total:     10,
	}}

	require.NoError(t, repo.Create(context.Background(), req))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRequestRepositoryGetForUpdateTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUsageRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM usage_requests WHERE id = $1 FOR UPDATE")).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows(requestColumns()).AddRow(requestRow("req-1", models.RequestPending)...))
	mock.ExpectQuery(regexp.QuoteMeta("FROM usage_request_lines l")).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "request_id", "supply_id", "per_group", "total", "supply_name"}).
			AddRow("line-1", "req-1", "supply-1", 2, 10, "Beaker 250ml"))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	req, err := repo.GetForUpdateTx(context.Background(), tx, "req-1")
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, models.RequestPending, req.State)
	require.Len(t, req.Lines, 1)
	assert.Equal(t, 10, req.Lines[0].Total)
	require.NoError(t, tx.Commit())
}

func TestUsageRequestRepositoryUpdateStateTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUsageRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE usage_requests SET state = $1")).
		WithArgs(string(models.RequestApproved), sqlmock.AnyArg(), "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStateTx(context.Background(), tx, "req-1", models.RequestApproved))
	require.NoError(t, tx.Commit())
}

func TestUsageRequestRepositoryDeleteTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUsageRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM usage_request_lines WHERE request_id = $1")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM usage_requests WHERE id = $1")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteTx(context.Background(), tx, "req-1"))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
