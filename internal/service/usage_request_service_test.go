package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

type usageRequestStoreMock struct {
	requests map[string]*models.UsageRequest
}

func newUsageRequestStoreMock() *usageRequestStoreMock {
	return &usageRequestStoreMock{requests: map[string]*models.UsageRequest{}}
}

func (m *usageRequestStoreMock) Create(ctx context.Context, req *models.UsageRequest) error {
	cp := *req
	cp.Lines = append([]models.UsageRequestLine(nil), req.Lines...)
	m.requests[req.ID] = &cp
	return nil
}

func (m *usageRequestStoreMock) Get(ctx context.Context, id string) (*models.UsageRequest, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	cp.Lines = append([]models.UsageRequestLine(nil), req.Lines...)
	return &cp, nil
}

func (m *usageRequestStoreMock) List(ctx context.Context, filter models.RequestFilter) ([]models.UsageRequest, int, error) {
	var out []models.UsageRequest
	for _, req := range m.requests {
		if filter.State != "" && req.State != filter.State {
			continue
		}
		out = append(out, *req)
	}
	return out, len(out), nil
}

func (m *usageRequestStoreMock) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.UsageRequest, error) {
	return m.Get(ctx, id)
}

func (m *usageRequestStoreMock) InUseByManager(ctx context.Context, managerID string) ([]models.InUseSupply, error) {
	var out []models.InUseSupply
	for _, req := range m.requests {
		if req.State != models.RequestApproved {
			continue
		}
		for _, line := range req.Lines {
			out = append(out, models.InUseSupply{
				SupplyID:  line.SupplyID,
				Quantity:  line.Total,
				LabID:     req.LabID,
				RequestID: req.ID,
			})
		}
	}
	return out, nil
}

func (m *usageRequestStoreMock) UpdateStateTx(ctx context.Context, tx *sqlx.Tx, id string, state models.RequestState) error {
	req, ok := m.requests[id]
	if !ok {
		return fmt.Errorf("request %s not found", id)
	}
	req.State = state
	return nil
}

func (m *usageRequestStoreMock) SetNotReturnedTx(ctx context.Context, tx *sqlx.Tx, id string, losses models.NotReturnedList) error {
	req, ok := m.requests[id]
	if !ok {
		return fmt.Errorf("request %s not found", id)
	}
	req.NotReturned = losses
	return nil
}

func (m *usageRequestStoreMock) GetLine(ctx context.Context, lineID string) (*models.UsageRequestLine, *models.UsageRequest, error) {
	for _, req := range m.requests {
		for _, line := range req.Lines {
			if line.ID == lineID {
				lineCp := line
				reqCp := *req
				return &lineCp, &reqCp, nil
			}
		}
	}
	return nil, nil, nil
}

func (m *usageRequestStoreMock) InsertLineTx(ctx context.Context, tx *sqlx.Tx, line *models.UsageRequestLine) error {
	req, ok := m.requests[line.RequestID]
	if !ok {
		return fmt.Errorf("request %s not found", line.RequestID)
	}
	req.Lines = append(req.Lines, *line)
	return nil
}

func (m *usageRequestStoreMock) UpdateLineTx(ctx context.Context, tx *sqlx.Tx, lineID string, perGroup, total int) error {
	for _, req := range m.requests {
		for i := range req.Lines {
			if req.Lines[i].ID == lineID {
				req.Lines[i].PerGroup = perGroup
				req.Lines[i].Total = total
				return nil
			}
		}
	}
	return fmt.Errorf("line %s not found", lineID)
}

func (m *usageRequestStoreMock) DeleteLineTx(ctx context.Context, tx *sqlx.Tx, lineID string) error {
	for _, req := range m.requests {
		for i := range req.Lines {
			if req.Lines[i].ID == lineID {
				req.Lines = append(req.Lines[:i], req.Lines[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("line %s not found", lineID)
}

func (m *usageRequestStoreMock) DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	delete(m.requests, id)
	return nil
}

type practiceStoreMock struct {
	practices map[string]*models.Practice
}

func (m *practiceStoreMock) Get(ctx context.Context, id string) (*models.Practice, error) {
	if m == nil || m.practices == nil {
		return nil, nil
	}
	return m.practices[id], nil
}

type teacherStoreMock struct {
	teachers map[string]*models.Teacher
}

func (m *teacherStoreMock) GetTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	if m == nil || m.teachers == nil {
		return nil, nil
	}
	return m.teachers[id], nil
}

func knownTeachers(ids ...string) *teacherStoreMock {
	store := &teacherStoreMock{teachers: map[string]*models.Teacher{}}
	for _, id := range ids {
		store.teachers[id] = &models.Teacher{ID: id, FirstName: "Test", LastName: "Teacher"}
	}
	return store
}

func newUsageService(t *testing.T, practices *practiceStoreMock, supplies ...*models.Supply) *UsageRequestService {
	t.Helper()
	store := newSupplyStoreMock(supplies...)
	txp, _ := newTxProviderMock(t)
	return NewUsageRequestService(
		newUsageRequestStoreMock(), store, practices, knownTeachers("teacher-1"),
		newTestLedger(store, &alertStoreMock{}), &movementLogMock{},
		txp, testValidator(), zap.NewNop(), UsageRequestConfig{})
}

func createInput(students, groupSize int, lines ...models.RequestLineInput) models.CreateUsageRequestInput {
	now := time.Now().UTC()
	return models.CreateUsageRequestInput{
		TeacherID:    "teacher-1",
		LabID:        "lab-1",
		StartsAt:     now,
		EndsAt:       now.Add(2 * time.Hour),
		StudentCount: students,
		GroupSize:    groupSize,
		Lines:        lines,
	}
}

func TestUsageRequestCreateGroupArithmetic(t *testing.T) {
	cases := []struct {
		name      string
		students  int
		groupSize int
		wantSize  int
		wantNum   int
	}{
		{"exact division", 20, 4, 4, 5},
		{"rounds up", 101, 3, 3, 34},
		{"large groups", 150, 50, 50, 3},
		{"default group size", 10, 0, 3, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := newUsageService(t, nil, testSupply("supply-1", "Beaker 250ml", 500, 0, 0))
			req, err := service.Create(context.Background(),
				createInput(tc.students, tc.groupSize, models.RequestLineInput{SupplyID: "supply-1", PerGroup: 2}))
			require.NoError(t, err)
			assert.Equal(t, tc.wantSize, req.GroupSize)
			assert.Equal(t, tc.wantNum, req.NumGroups)
			require.Len(t, req.Lines, 1)
			assert.Equal(t, 2*tc.wantNum, req.Lines[0].Total)
			assert.Equal(t, models.RequestPending, req.State)
		})
	}
}

func TestUsageRequestCreateUnknownTeacher(t *testing.T) {
	service := newUsageService(t, nil, testSupply("supply-1", "Beaker 250ml", 500, 0, 0))

	input := createInput(20, 4, models.RequestLineInput{SupplyID: "supply-1", PerGroup: 2})
	input.TeacherID = "teacher-404"
	_, err := service.Create(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUsageRequestCreateRejectsTooManyGroups(t *testing.T) {
	service := newUsageService(t, nil, testSupply("supply-1", "Beaker 250ml", 500, 0, 0))

	_, err := service.Create(context.Background(),
		createInput(2600, 1, models.RequestLineInput{SupplyID: "supply-1", PerGroup: 1}))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUsageRequestCreatePracticeTemplateOverridesManualLines(t *testing.T) {
	practices := &practiceStoreMock{practices: map[string]*models.Practice{
		"practice-1": {
			ID:    "practice-1",
			Title: "Titration",
			Supplies: []models.PracticeSupply{
				{SupplyID: "supply-2", PerGroup: 3},
			},
		},
	}}
	service := newUsageService(t, practices,
		testSupply("supply-1", "Beaker 250ml", 500, 0, 0),
		testSupply("supply-2", "Burette", 500, 0, 0))

	practiceID := "practice-1"
	input := createInput(20, 4, models.RequestLineInput{SupplyID: "supply-1", PerGroup: 2})
	input.PracticeID = &practiceID

	req, err := service.Create(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, req.Lines, 1)
	assert.Equal(t, "supply-2", req.Lines[0].SupplyID)
	assert.Equal(t, 15, req.Lines[0].Total)
}

func TestUsageRequestApprove(t *testing.T) {
	store := newSupplyStoreMock(testSupply("supply-1", "Beaker 250ml", 20, 0, 0))
	alerts := &alertStoreMock{}
	movements := &movementLogMock{}
	requests := newUsageRequestStoreMock()
	txp, mock := newTxProviderMock(t)
	service := NewUsageRequestService(requests, store, nil, knownTeachers("teacher-1"),
		newTestLedger(store, alerts), movements,
		txp, testValidator(), zap.NewNop(), UsageRequestConfig{})

	req, err := service.Create(context.Background(),
		createInput(20, 4, models.RequestLineInput{SupplyID: "supply-1", PerGroup: 2}))
	require.NoError(t, err)

	expectTx(mock)
	approved, err := service.Approve(context.Background(), req.ID, "manager-1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, approved.State)
	assert.Equal(t, 10, store.stock("supply-1"))
	loans := movements.byKind(models.MovementLoan)
	require.Len(t, loans, 1)
	assert.Equal(t, 10, loans[0].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRequestInUseByManager(t *testing.T) {
	store := newSupplyStoreMock(testSupply("supply-1", "Beaker 250ml", 20, 0, 0))
	alerts := &alertStoreMock{}
	movements := &movementLogMock{}
	requests := newUsageRequestStoreMock()
	txp, mock := newTxProviderMock(t)
	service := NewUsageRequestService(requests, store, nil, knownTeachers("teacher-1"),
		newTestLedger(store, alerts), movements,
		txp, testValidator(), zap.NewNop(), UsageRequestConfig{})

	_, err := service.InUseByManager(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req, err := service.Create(context.Background(),
		createInput(20, 4, models.RequestLineInput{SupplyID: "supply-1", PerGroup: 2}))
	require.NoError(t, err)

	inUse, err := service.InUseByManager(context.Background(), "manager-1")
	require.NoError(t, err)
	assert.Empty(t, inUse, "pending requests hold no stock")

	expectTx(mock)
	_, err = service.Approve(context.Background(), req.ID, "manager-1")
	require.NoError(t, err)

	inUse, err = service.InUseByManager(context.Background(), "manager-1")
	require.NoError(t, err)
	require.Len(t, inUse, 1)
	assert.Equal(t, "supply-1", inUse[0].SupplyID)
	assert.Equal(t, 10, inUse[0].Quantity)
}

func TestUsageRequestApproveShortageLeavesStockUntouched(t *testing.T) {
	store := newSupplyStoreMock(
		testSupply("supply-1", "Beaker 250ml", 100, 0, 0),
		testSupply("supply-2", "Burette", 3, 0, 0))
	alerts := &alertStoreMock{}
	movements := &movementLogMock{}
	requests := newUsageRequestStoreMock()
	txp, mock := newTxProviderMock(t)
	service := NewUsageRequestService(requests, store, nil, knownTeachers("teacher-1"),
		newTestLedger(store, alerts), movements,
		txp, testValidator(), zap.NewNop(), UsageRequestConfig{})

	req, err := service.Create(context.Background(), createInput(20, 4,
		models.RequestLineInput{SupplyID: "supply-1", PerGroup: 2},
		models.RequestLineInput{SupplyID: "supply-2", PerGroup: 1}))
	require.NoError(t, err)

	expectRolledBackTx(mock)
	_, err = service.Approve(context.Background(), req.ID, "manager-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInsufficientStock.Code, appErrors.FromError(err).Code)

	// Neither line moved, including the one that would have fit.
	assert.Equal(t, 100, store.stock("supply-1"))
	assert.Equal(t, 3, store.stock("supply-2"))
	assert.Empty(t, movements.entries)
	stored, _ := requests.Get(context.Background(), req.ID)
	assert.Equal(t, models.RequestPending, stored.State)
}

func TestUsageRequestApproveInvalidTransition(t *testing.T) {
	store := newSupplyStoreMock(testSupply("supply-1", "Beaker 250ml", 20, 0, 0))
	requests := newUsageRequestStoreMock()
	txp, mock := newTxProviderMock(t)
	service := NewUsageRequestService(requests, store, nil, knownTeachers("teacher-1"),
		newTestLedger(store, &alertStoreMock{}), &movementLogMock{},
		txp, testValidator(), zap.NewNop(), UsageRequestConfig{})

	req, err := service.Create(context.Background(),
		createInput(20, 4, models.RequestLineInput{SupplyID: "supply-1", PerGroup: 2}))
	require.NoError(t, err)
	requests.requests[req.ID].State = models.RequestCompleted

	expectRolledBackTx(mock)
	_, err = service.Approve(context.Background(), req.ID, "manager-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestUsageRequestCompleteFullReturnRoundTrip(t *testing.T) {
	store := newSupplyStoreMock(testSupply("supply-1", "Beaker 250ml", 20, 0, 0))
	movements := &movementLogMock{}
	requests := newUsageRequestStoreMock()
	txp, mock := newTxProviderMock(t)
	service := NewUsageRequestService(requests, store, nil, knownTeachers("teacher-1"),
		newTestLedger(store, &alertStoreMock{}), movements,
		txp, testValidator(), zap.NewNop(), UsageRequestConfig{})

	req, err := service.Create(context.Background(),
		createInput(20, 4, models.RequestLineInput{SupplyID: "supply-1", PerGroup: 2}))
	require.NoError(t, err)

	expectTx(mock)
	_, err = service.Approve(context.Background(), req.ID, "manager-1")
	require.NoError(t, err)
	require.Equal(t, 10, store.stock("supply-1"))

	expectTx(mock)
	completed, err := service.Complete(context.Background(), req.ID, models.ReturnInput{Responsible: "manager-1"})
	require.NoError(t, err)

	assert.Equal(t, models.RequestCompleted, completed.State)
	assert.Equal(t, 20, store.stock("supply-1"))
	assert.Empty(t, completed.NotReturned)
	returns := movements.byKind(models.MovementReturn)
	require.Len(t, returns, 1)
	assert.Equal(t, 10, returns[0].Quantity)
}

func TestUsageRequestCompleteWithLosses(t *testing.T) {
	store := newSupplyStoreMock(testSupply("supply-1", "Beaker 250ml", 20, 0, 0))
	movements := &movementLogMock{}
	requests := newUsageRequestStoreMock()
	txp, mock := newTxProviderMock(t)
	service := NewUsageRequestService(requests, store, nil, knownTeachers("teacher-1"),
		newTestLedger(store, &alertStoreMock{}), movements,
		txp, testValidator(), zap.NewNop(), UsageRequestConfig{})

	req, err := service.Create(context.Background(),
		createInput(20, 4, models.RequestLineInput{SupplyID: "supply-1", PerGroup: 2}))
	require.NoError(t, err)

	expectTx(mock)
	_, err = service.Approve(context.Background(), req.ID, "manager-1")
	require.NoError(t, err)

	expectTx(mock)
	completed, err := service.Complete(context.Background(), req.ID, models.ReturnInput{
		Responsible: "manager-1",
		Losses:      []models.LossInput{{SupplyID: "supply-1", NotReturned: 3}},
	})
	require.NoError(t, err)

	// 10 loaned, 3 lost: only 7 come back.
	assert.Equal(t, 17, store.stock("supply-1"))
	require.Len(t, completed.NotReturned, 1)
	assert.Equal(t, 3, completed.NotReturned[0].Quantity)
	require.Len(t, movements.byKind(models.MovementReturn), 1)
	assert.Equal(t, 7, movements.byKind(models.MovementReturn)[0].Quantity)
	require.Len(t, movements.byKind(models.MovementNotReturned), 1)
	assert.Equal(t, 3, movements.byKind(models.MovementNotReturned)[0].Quantity)
}

func TestUsageRequestCompleteRejectsOutOfRangeLosses(t *testing.T) {
	store := newSupplyStoreMock(testSupply("supply-1", "Beaker 250ml", 20, 0, 0))
	requests := newUsageRequestStoreMock()
	txp, mock := newTxProviderMock(t)
	service := NewUsageRequestService(requests, store, nil, knownTeachers("teacher-1"),
		newTestLedger(store, &alertStoreMock{}), &movementLogMock{},
		txp, testValidator(), zap.NewNop(), UsageRequestConfig{})

	req, err := service.Create(context.Background(),
		createInput(20, 4, models.RequestLineInput{SupplyID: "supply-1", PerGroup: 2}))
	require.NoError(t, err)

	expectTx(mock)
	_, err = service.Approve(context.Background(), req.ID, "manager-1")
	require.NoError(t, err)

	expectRolledBackTx(mock)
	_, err = service.Complete(context.Background(), req.ID, models.ReturnInput{
		Losses: []models.LossInput{{SupplyID: "supply-1", NotReturned: 11}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 10, store.stock("supply-1"))
}

func TestUsageRequestRejectFromApprovedRestoresStock(t *testing.T) {
	store := newSupplyStoreMock(testSupply("supply-1", "Beaker 250ml", 20, 0, 0))
	movements := &movementLogMock{}
	requests := newUsageRequestStoreMock()
	txp, mock := newTxProviderMock(t)
	service := NewUsageRequestService(requests, store, nil, knownTeachers("teacher-1"),
		newTestLedger(store, &alertStoreMock{}), movements,
		txp, testValidator(), zap.NewNop(), UsageRequestConfig{})

	req, err := service.Create(context.Background(),
		createInput(20, 4, models.RequestLineInput{SupplyID: "supply-1", PerGroup: 2}))
	require.NoError(t, err)

	expectTx(mock)
	_, err = service.Approve(context.Background(), req.ID, "manager-1")
	require.NoError(t, err)
	require.Equal(t, 10, store.stock("supply-1"))

	expectTx(mock)
	rejected, err := service.Reject(context.Background(), req.ID, "manager-1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, rejected.State)
	assert.Equal(t, 20, store.stock("supply-1"))
	require.Len(t, movements.byKind(models.MovementReturn), 1)
}

func TestUsageRequestLineEditsOnApprovedRequestReDeltaStock(t *testing.T) {
	store := newSupplyStoreMock(testSupply("supply-1", "Beaker 250ml", 50, 0, 0))
	movements := &movementLogMock{}
	requests := newUsageRequestStoreMock()
	txp, mock := newTxProviderMock(t)
	service := NewUsageRequestService(requests, store, nil, knownTeachers("teacher-1"),
		newTestLedger(store, &alertStoreMock{}), movements,
		txp, testValidator(), zap.NewNop(), UsageRequestConfig{})

	req, err := service.Create(context.Background(),
		createInput(20, 4, models.RequestLineInput{SupplyID: "supply-1", PerGroup: 2}))
	require.NoError(t, err)
	lineID := requests.requests[req.ID].Lines[0].ID

	expectTx(mock)
	_, err = service.Approve(context.Background(), req.ID, "manager-1")
	require.NoError(t, err)
	require.Equal(t, 40, store.stock("supply-1"))

	// 2 per group -> 3 per group on 5 groups: 5 more units leave stock.
	expectTx(mock)
	line, err := service.UpdateLine(context.Background(), lineID, 3)
	require.NoError(t, err)
	assert.Equal(t, 15, line.Total)
	assert.Equal(t, 35, store.stock("supply-1"))

	expectTx(mock)
	require.NoError(t, service.DeleteLine(context.Background(), lineID))
	assert.Equal(t, 50, store.stock("supply-1"))
}

func TestUsageRequestLineEditRejectedOnTerminalState(t *testing.T) {
	store := newSupplyStoreMock(testSupply("supply-1", "Beaker 250ml", 50, 0, 0))
	requests := newUsageRequestStoreMock()
	txp, mock := newTxProviderMock(t)
	service := NewUsageRequestService(requests, store, nil, knownTeachers("teacher-1"),
		newTestLedger(store, &alertStoreMock{}), &movementLogMock{},
		txp, testValidator(), zap.NewNop(), UsageRequestConfig{})

	req, err := service.Create(context.Background(),
		createInput(20, 4, models.RequestLineInput{SupplyID: "supply-1", PerGroup: 2}))
	require.NoError(t, err)
	requests.requests[req.ID].State = models.RequestRejected
	lineID := requests.requests[req.ID].Lines[0].ID

	expectRolledBackTx(mock)
	_, err = service.UpdateLine(context.Background(), lineID, 3)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestUsageRequestDeleteApprovedRestoresStock(t *testing.T) {
	store := newSupplyStoreMock(testSupply("supply-1", "Beaker 250ml", 20, 0, 0))
	requests := newUsageRequestStoreMock()
	txp, mock := newTxProviderMock(t)
	service := NewUsageRequestService(requests, store, nil, knownTeachers("teacher-1"),
		newTestLedger(store, &alertStoreMock{}), &movementLogMock{},
		txp, testValidator(), zap.NewNop(), UsageRequestConfig{})

	req, err := service.Create(context.Background(),
		createInput(20, 4, models.RequestLineInput{SupplyID: "supply-1", PerGroup: 2}))
	require.NoError(t, err)

	expectTx(mock)
	_, err = service.Approve(context.Background(), req.ID, "manager-1")
	require.NoError(t, err)

	expectTx(mock)
	require.NoError(t, service.Delete(context.Background(), req.ID))
	assert.Equal(t, 20, store.stock("supply-1"))
	stored, _ := requests.Get(context.Background(), req.ID)
	assert.Nil(t, stored)
}
