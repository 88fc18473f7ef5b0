package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

type studentRequestStoreMock struct {
	requests map[string]*models.StudentRequest
}

func newStudentRequestStoreMock() *studentRequestStoreMock {
	return &studentRequestStoreMock{requests: map[string]*models.StudentRequest{}}
}

func (m *studentRequestStoreMock) Create(ctx context.Context, req *models.StudentRequest) error {
	cp := *req
	cp.Lines = append([]models.StudentRequestLine(nil), req.Lines...)
	m.requests[req.ID] = &cp
	return nil
}

func (m *studentRequestStoreMock) Get(ctx context.Context, id string) (*models.StudentRequest, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	cp.Lines = append([]models.StudentRequestLine(nil), req.Lines...)
	return &cp, nil
}

func (m *studentRequestStoreMock) List(ctx context.Context, filter models.RequestFilter) ([]models.StudentRequest, int, error) {
	var out []models.StudentRequest
	for _, req := range m.requests {
		if filter.State != "" && req.State != filter.State {
			continue
		}
		out = append(out, *req)
	}
	return out, len(out), nil
}

func (m *studentRequestStoreMock) ListByStudent(ctx context.Context, studentID string) ([]models.StudentRequest, error) {
	var out []models.StudentRequest
	for _, req := range m.requests {
		if req.StudentID == studentID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (m *studentRequestStoreMock) LoanedSupplies(ctx context.Context, studentID string) ([]models.LoanedSupply, error) {
	var out []models.LoanedSupply
	for _, req := range m.requests {
		if req.StudentID != studentID || req.State != models.RequestApproved {
			continue
		}
		for _, line := range req.Lines {
			out = append(out, models.LoanedSupply{
				SupplyID:  line.SupplyID,
				Quantity:  line.Quantity,
				RequestID: req.ID,
			})
		}
	}
	return out, nil
}

func (m *studentRequestStoreMock) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.StudentRequest, error) {
	return m.Get(ctx, id)
}

func (m *studentRequestStoreMock) UpdateStateTx(ctx context.Context, tx *sqlx.Tx, id string, state models.RequestState) error {
	req, ok := m.requests[id]
	if !ok {
		return fmt.Errorf("student request %s not found", id)
	}
	req.State = state
	return nil
}

func (m *studentRequestStoreMock) SetNotReturnedTx(ctx context.Context, tx *sqlx.Tx, id string, losses models.NotReturnedList) error {
	req, ok := m.requests[id]
	if !ok {
		return fmt.Errorf("student request %s not found", id)
	}
	req.NotReturned = losses
	return nil
}

func (m *studentRequestStoreMock) InsertLineTx(ctx context.Context, tx *sqlx.Tx, line *models.StudentRequestLine) error {
	req, ok := m.requests[line.RequestID]
	if !ok {
		return fmt.Errorf("student request %s not found", line.RequestID)
	}
	req.Lines = append(req.Lines, *line)
	return nil
}

func (m *studentRequestStoreMock) DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	delete(m.requests, id)
	return nil
}

type studentStoreMock struct {
	students map[string]*models.Student
}

func (m *studentStoreMock) Get(ctx context.Context, id string) (*models.Student, error) {
	if m == nil || m.students == nil {
		return nil, nil
	}
	return m.students[id], nil
}

func knownStudents(ids ...string) *studentStoreMock {
	store := &studentStoreMock{students: map[string]*models.Student{}}
	for _, id := range ids {
		store.students[id] = &models.Student{ID: id, FirstName: "Test", LastName: "Student"}
	}
	return store
}

type studentFixture struct {
	service   *StudentRequestService
	requests  *studentRequestStoreMock
	supplies  *supplyStoreMock
	movements *movementLogMock
	mock      sqlmock.Sqlmock
}

func newStudentFixture(t *testing.T, supplies ...*models.Supply) *studentFixture {
	t.Helper()
	store := newSupplyStoreMock(supplies...)
	movements := &movementLogMock{}
	requests := newStudentRequestStoreMock()
	txp, mock := newTxProviderMock(t)
	service := NewStudentRequestService(
		requests, knownStudents("student-1"), store,
		newTestLedger(store, &alertStoreMock{}), movements,
		txp, testValidator(), zap.NewNop())
	return &studentFixture{
		service:   service,
		requests:  requests,
		supplies:  store,
		movements: movements,
		mock:      mock,
	}
}

func studentInput(lines ...models.StudentLineInput) models.CreateStudentRequestInput {
	now := time.Now().UTC()
	return models.CreateStudentRequestInput{
		StudentID: "student-1",
		LabID:     "lab-1",
		StartsAt:  now,
		EndsAt:    now.Add(3 * time.Hour),
		Lines:     lines,
	}
}

func TestStudentRequestCreate(t *testing.T) {
	f := newStudentFixture(t, testSupply("supply-1", "Multimeter", 10, 0, 0))

	req, err := f.service.Create(context.Background(),
		studentInput(models.StudentLineInput{SupplyID: "supply-1", Quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.State)
	require.Len(t, req.Lines, 1)
	assert.Equal(t, 2, req.Lines[0].Quantity)
	// Stock moves on approval, not creation.
	assert.Equal(t, 10, f.supplies.stock("supply-1"))
}

func TestStudentRequestCreateUnknownStudent(t *testing.T) {
	f := newStudentFixture(t, testSupply("supply-1", "Multimeter", 10, 0, 0))

	input := studentInput(models.StudentLineInput{SupplyID: "supply-1", Quantity: 2})
	input.StudentID = "student-404"
	_, err := f.service.Create(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentRequestApproveUsesStudentMovementKinds(t *testing.T) {
	f := newStudentFixture(t, testSupply("supply-1", "Multimeter", 10, 0, 0))
	req, err := f.service.Create(context.Background(),
		studentInput(models.StudentLineInput{SupplyID: "supply-1", Quantity: 4}))
	require.NoError(t, err)

	expectTx(f.mock)
	approved, err := f.service.Approve(context.Background(), req.ID, "manager-1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, approved.State)
	assert.Equal(t, 6, f.supplies.stock("supply-1"))
	loans := f.movements.byKind(models.MovementLoanStudent)
	require.Len(t, loans, 1)
	assert.Equal(t, 4, loans[0].Quantity)
	require.NotNil(t, loans[0].StudentRequestID)
	assert.Equal(t, req.ID, *loans[0].StudentRequestID)
}

func TestStudentRequestApproveShortageIsAtomic(t *testing.T) {
	f := newStudentFixture(t,
		testSupply("supply-1", "Multimeter", 10, 0, 0),
		testSupply("supply-2", "Oscilloscope", 1, 0, 0))
	req, err := f.service.Create(context.Background(), studentInput(
		models.StudentLineInput{SupplyID: "supply-1", Quantity: 4},
		models.StudentLineInput{SupplyID: "supply-2", Quantity: 2}))
	require.NoError(t, err)

	expectRolledBackTx(f.mock)
	_, err = f.service.Approve(context.Background(), req.ID, "manager-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInsufficientStock.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 10, f.supplies.stock("supply-1"))
	assert.Equal(t, 1, f.supplies.stock("supply-2"))
	assert.Empty(t, f.movements.entries)
}

func TestStudentRequestCompleteWithLosses(t *testing.T) {
	f := newStudentFixture(t, testSupply("supply-1", "Multimeter", 10, 0, 0))
	req, err := f.service.Create(context.Background(),
		studentInput(models.StudentLineInput{SupplyID: "supply-1", Quantity: 4}))
	require.NoError(t, err)

	expectTx(f.mock)
	_, err = f.service.Approve(context.Background(), req.ID, "manager-1")
	require.NoError(t, err)
	require.Equal(t, 6, f.supplies.stock("supply-1"))

	expectTx(f.mock)
	completed, err := f.service.Complete(context.Background(), req.ID, models.ReturnInput{
		Responsible: "manager-1",
		Losses:      []models.LossInput{{SupplyID: "supply-1", NotReturned: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.RequestCompleted, completed.State)
	assert.Equal(t, 9, f.supplies.stock("supply-1"))
	require.Len(t, completed.NotReturned, 1)
	assert.Equal(t, 1, completed.NotReturned[0].Quantity)
	require.Len(t, f.movements.byKind(models.MovementReturnStudent), 1)
	assert.Equal(t, 3, f.movements.byKind(models.MovementReturnStudent)[0].Quantity)
	require.Len(t, f.movements.byKind(models.MovementNotReturnedStudent), 1)
}

func TestStudentRequestLoanedSuppliesReflectApprovedLines(t *testing.T) {
	f := newStudentFixture(t,
		testSupply("supply-1", "Multimeter", 10, 0, 0),
		testSupply("supply-2", "Oscilloscope", 5, 0, 0))

	first, err := f.service.Create(context.Background(),
		studentInput(models.StudentLineInput{SupplyID: "supply-1", Quantity: 2}))
	require.NoError(t, err)
	_, err = f.service.Create(context.Background(),
		studentInput(models.StudentLineInput{SupplyID: "supply-2", Quantity: 1}))
	require.NoError(t, err)

	expectTx(f.mock)
	_, err = f.service.Approve(context.Background(), first.ID, "manager-1")
	require.NoError(t, err)

	// Only the approved request's lines count as loaned.
	loaned, err := f.service.LoanedSupplies(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, loaned, 1)
	assert.Equal(t, "supply-1", loaned[0].SupplyID)
	assert.Equal(t, 2, loaned[0].Quantity)
}

func TestStudentRequestDeleteApprovedRestoresStock(t *testing.T) {
	f := newStudentFixture(t, testSupply("supply-1", "Multimeter", 10, 0, 0))
	req, err := f.service.Create(context.Background(),
		studentInput(models.StudentLineInput{SupplyID: "supply-1", Quantity: 4}))
	require.NoError(t, err)

	expectTx(f.mock)
	_, err = f.service.Approve(context.Background(), req.ID, "manager-1")
	require.NoError(t, err)

	expectTx(f.mock)
	require.NoError(t, f.service.Delete(context.Background(), req.ID))
	assert.Equal(t, 10, f.supplies.stock("supply-1"))
	require.Len(t, f.movements.byKind(models.MovementReturnStudent), 1)
}

func TestStudentRequestAddLinesWhilePending(t *testing.T) {
	f := newStudentFixture(t,
		testSupply("supply-1", "Multimeter", 10, 0, 0),
		testSupply("supply-2", "Oscilloscope", 5, 0, 0))
	req, err := f.service.Create(context.Background(),
		studentInput(models.StudentLineInput{SupplyID: "supply-1", Quantity: 4}))
	require.NoError(t, err)

	expectTx(f.mock)
	updated, err := f.service.AddLines(context.Background(), req.ID, models.AddStudentLinesInput{
		Lines: []models.StudentLineInput{{SupplyID: "supply-2", Quantity: 2}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 2)
	// Pending lines reserve nothing until approval.
	assert.Equal(t, 5, f.supplies.stock("supply-2"))
	assert.Empty(t, f.movements.entries)
}

func TestStudentRequestAddLinesWhileApprovedLoansImmediately(t *testing.T) {
	f := newStudentFixture(t,
		testSupply("supply-1", "Multimeter", 10, 0, 0),
		testSupply("supply-2", "Oscilloscope", 5, 0, 0))
	req, err := f.service.Create(context.Background(),
		studentInput(models.StudentLineInput{SupplyID: "supply-1", Quantity: 4}))
	require.NoError(t, err)

	expectTx(f.mock)
	_, err = f.service.Approve(context.Background(), req.ID, "manager-1")
	require.NoError(t, err)

	expectTx(f.mock)
	updated, err := f.service.AddLines(context.Background(), req.ID, models.AddStudentLinesInput{
		Lines: []models.StudentLineInput{{SupplyID: "supply-2", Quantity: 2}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 2)
	assert.Equal(t, 3, f.supplies.stock("supply-2"))
	loans := f.movements.byKind(models.MovementLoanStudent)
	require.Len(t, loans, 2)
	assert.Equal(t, 2, loans[1].Quantity)
	require.NotNil(t, loans[1].StudentRequestID)
	assert.Equal(t, req.ID, *loans[1].StudentRequestID)
}

func TestStudentRequestAddLinesRejectsDuplicateAndTerminal(t *testing.T) {
	f := newStudentFixture(t, testSupply("supply-1", "Multimeter", 10, 0, 0))
	req, err := f.service.Create(context.Background(),
		studentInput(models.StudentLineInput{SupplyID: "supply-1", Quantity: 4}))
	require.NoError(t, err)

	expectRolledBackTx(f.mock)
	_, err = f.service.AddLines(context.Background(), req.ID, models.AddStudentLinesInput{
		Lines: []models.StudentLineInput{{SupplyID: "supply-1", Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	expectTx(f.mock)
	_, err = f.service.Reject(context.Background(), req.ID, "manager-1")
	require.NoError(t, err)

	expectRolledBackTx(f.mock)
	_, err = f.service.AddLines(context.Background(), req.ID, models.AddStudentLinesInput{
		Lines: []models.StudentLineInput{{SupplyID: "supply-1", Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}
