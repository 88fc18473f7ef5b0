package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/internal/repository"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

type studentRequestRepo interface {
	Create(ctx context.Context, req *models.StudentRequest) error
	Get(ctx context.Context, id string) (*models.StudentRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.StudentRequest, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentRequest, error)
	LoanedSupplies(ctx context.Context, studentID string) ([]models.LoanedSupply, error)
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.StudentRequest, error)
	UpdateStateTx(ctx context.Context, tx *sqlx.Tx, id string, state models.RequestState) error
	SetNotReturnedTx(ctx context.Context, tx *sqlx.Tx, id string, losses models.NotReturnedList) error
	InsertLineTx(ctx context.Context, tx *sqlx.Tx, line *models.StudentRequestLine) error
	DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error
}

type studentReader interface {
	Get(ctx context.Context, id string) (*models.Student, error)
}

// StudentRequestService drives the lifecycle of student usage requests.
// Lines carry flat quantities and movements use the student kinds, but
// the state machine matches the staff flow.
type StudentRequestService struct {
	requests  studentRequestRepo
	students  studentReader
	supplies  supplyReader
	ledger    *StockLedger
	movements movementAppender
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentRequestService constructs the service.
func NewStudentRequestService(
	requests studentRequestRepo,
	students studentReader,
	supplies supplyReader,
	ledger *StockLedger,
	movements movementAppender,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
) *StudentRequestService {
	return &StudentRequestService{
		requests:  requests,
		students:  students,
		supplies:  supplies,
		ledger:    ledger,
		movements: movements,
		tx:        tx,
		validator: validate,
		logger:    logger,
	}
}

// Create registers a pending student request.
func (s *StudentRequestService) Create(ctx context.Context, input models.CreateStudentRequestInput) (*models.StudentRequest, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student request payload")
	}
	if !input.EndsAt.After(input.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ends_at must be after starts_at")
	}

	student, err := s.students.Get(ctx, input.StudentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", input.StudentID))
	}

	seen := make(map[string]bool, len(input.Lines))
	for _, line := range input.Lines {
		if seen[line.SupplyID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate supply line %s", line.SupplyID))
		}
		seen[line.SupplyID] = true
		supply, err := s.supplies.Get(ctx, line.SupplyID)
		if err != nil {
			return nil, err
		}
		if supply == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("supply %s not found", line.SupplyID))
		}
	}

	now := time.Now().UTC()
	req := &models.StudentRequest{
		ID:           uuid.NewString(),
		StudentID:    input.StudentID,
		LabID:        input.LabID,
		SubjectID:    input.SubjectID,
		StartsAt:     input.StartsAt,
		EndsAt:       input.EndsAt,
		Observations: input.Observations,
		State:        models.RequestPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, line := range input.Lines {
		req.Lines = append(req.Lines, models.StudentRequestLine{
			ID:        uuid.NewString(),
			RequestID: req.ID,
			SupplyID:  line.SupplyID,
			Quantity:  line.Quantity,
		})
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	s.logger.Info("student request created",
		zap.String("requestId", req.ID),
		zap.String("studentId", req.StudentID))
	return req, nil
}

// Get fetches a request with its lines.
func (s *StudentRequestService) Get(ctx context.Context, id string) (*models.StudentRequest, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student request %s not found", id))
	}
	return req, nil
}

// List returns requests matching the filter.
func (s *StudentRequestService) List(ctx context.Context, filter models.RequestFilter) ([]models.StudentRequest, int, error) {
	return s.requests.List(ctx, filter)
}

// ListByStudent returns all requests placed by one student.
func (s *StudentRequestService) ListByStudent(ctx context.Context, studentID string) ([]models.StudentRequest, error) {
	return s.requests.ListByStudent(ctx, studentID)
}

// LoanedSupplies returns the supplies a student currently holds on loan.
func (s *StudentRequestService) LoanedSupplies(ctx context.Context, studentID string) ([]models.LoanedSupply, error) {
	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", studentID))
	}
	return s.requests.LoanedSupplies(ctx, studentID)
}

// Approve validates stock for every line and, only if all lines fit,
// decrements stock with LOAN_STUDENT movements.
func (s *StudentRequestService) Approve(ctx context.Context, id, responsible string) (req *models.StudentRequest, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin approval")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	req, err = s.lockRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !req.State.CanTransition(models.RequestApproved) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot approve student request in state %s", req.State))
	}

	locked := make([]*models.Supply, len(req.Lines))
	var shortages []string
	for i, line := range req.Lines {
		supply, lockErr := s.ledger.Lock(ctx, tx, line.SupplyID)
		if lockErr != nil {
			err = lockErr
			return nil, err
		}
		locked[i] = supply
		if supply.StockOnHand < line.Quantity {
			shortages = append(shortages, fmt.Sprintf("%s: %d on hand, %d needed", supply.Name, supply.StockOnHand, line.Quantity))
		}
	}
	if len(shortages) > 0 {
		err = appErrors.Clone(appErrors.ErrInsufficientStock, strings.Join(shortages, "; "))
		return nil, err
	}

	for i, line := range req.Lines {
		if _, err = s.ledger.Apply(ctx, tx, locked[i], -line.Quantity); err != nil {
			return nil, err
		}
		if _, err = s.movements.InsertTx(ctx, tx, repository.MovementParams{
			SupplyID:         line.SupplyID,
			Kind:             models.MovementLoanStudent,
			Quantity:         line.Quantity,
			Responsible:      responsible,
			StudentRequestID: &req.ID,
		}); err != nil {
			return nil, err
		}
	}

	if err = s.requests.UpdateStateTx(ctx, tx, req.ID, models.RequestApproved); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit approval")
	}

	req.State = models.RequestApproved
	s.logger.Info("student request approved", zap.String("requestId", req.ID))
	return req, nil
}

// Reject closes a request, restoring stock when it was already approved.
func (s *StudentRequestService) Reject(ctx context.Context, id, responsible string) (req *models.StudentRequest, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin rejection")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	req, err = s.lockRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !req.State.CanTransition(models.RequestRejected) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot reject student request in state %s", req.State))
	}

	if req.State == models.RequestApproved {
		now := time.Now().UTC()
		for _, line := range req.Lines {
			supply, lockErr := s.ledger.Lock(ctx, tx, line.SupplyID)
			if lockErr != nil {
				err = lockErr
				return nil, err
			}
			if _, err = s.ledger.Apply(ctx, tx, supply, line.Quantity); err != nil {
				return nil, err
			}
			if _, err = s.movements.InsertTx(ctx, tx, repository.MovementParams{
				SupplyID:         line.SupplyID,
				Kind:             models.MovementReturnStudent,
				Quantity:         line.Quantity,
				Responsible:      responsible,
				StudentRequestID: &req.ID,
				ReturnedAt:       &now,
			}); err != nil {
				return nil, err
			}
		}
	}

	if err = s.requests.UpdateStateTx(ctx, tx, req.ID, models.RequestRejected); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit rejection")
	}

	req.State = models.RequestRejected
	return req, nil
}

// Complete closes an approved request with optional per-line losses.
func (s *StudentRequestService) Complete(ctx context.Context, id string, input models.ReturnInput) (req *models.StudentRequest, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin completion")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	req, err = s.lockRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !req.State.CanTransition(models.RequestCompleted) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot complete student request in state %s", req.State))
	}

	lineTotals := make(map[string]int, len(req.Lines))
	for _, line := range req.Lines {
		lineTotals[line.SupplyID] = line.Quantity
	}
	losses := make(map[string]int, len(input.Losses))
	var problems []string
	for _, loss := range input.Losses {
		total, ok := lineTotals[loss.SupplyID]
		if !ok {
			problems = append(problems, fmt.Sprintf("supply %s is not part of the request", loss.SupplyID))
			continue
		}
		if loss.NotReturned < 0 || loss.NotReturned > total {
			problems = append(problems, fmt.Sprintf("supply %s: not_returned %d out of range 0..%d", loss.SupplyID, loss.NotReturned, total))
			continue
		}
		losses[loss.SupplyID] = loss.NotReturned
	}
	if len(problems) > 0 {
		err = appErrors.Clone(appErrors.ErrValidation, strings.Join(problems, "; "))
		return nil, err
	}

	now := time.Now().UTC()
	var snapshot models.NotReturnedList
	for _, line := range req.Lines {
		lost := losses[line.SupplyID]
		returned := line.Quantity - lost
		if returned > 0 {
			supply, lockErr := s.ledger.Lock(ctx, tx, line.SupplyID)
			if lockErr != nil {
				err = lockErr
				return nil, err
			}
			if _, err = s.ledger.Apply(ctx, tx, supply, returned); err != nil {
				return nil, err
			}
			if _, err = s.movements.InsertTx(ctx, tx, repository.MovementParams{
				SupplyID:         line.SupplyID,
				Kind:             models.MovementReturnStudent,
				Quantity:         returned,
				Responsible:      input.Responsible,
				StudentRequestID: &req.ID,
				ReturnedAt:       &now,
			}); err != nil {
				return nil, err
			}
		}
		if lost > 0 {
			snapshot = append(snapshot, models.NotReturnedItem{SupplyID: line.SupplyID, Quantity: lost})
			if _, err = s.movements.InsertTx(ctx, tx, repository.MovementParams{
				SupplyID:         line.SupplyID,
				Kind:             models.MovementNotReturnedStudent,
				Quantity:         lost,
				Responsible:      input.Responsible,
				StudentRequestID: &req.ID,
				ReturnedAt:       &now,
			}); err != nil {
				return nil, err
			}
		}
	}

	if len(snapshot) > 0 {
		if err = s.requests.SetNotReturnedTx(ctx, tx, req.ID, snapshot); err != nil {
			return nil, err
		}
	}
	if err = s.requests.UpdateStateTx(ctx, tx, req.ID, models.RequestCompleted); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit completion")
	}

	req.State = models.RequestCompleted
	req.NotReturned = snapshot
	return req, nil
}

// AddLines appends supply lines to an open request. On an approved request
// each new line's quantity is loaned out immediately.
func (s *StudentRequestService) AddLines(ctx context.Context, requestID string, input models.AddStudentLinesInput) (req *models.StudentRequest, err error) {
	if err = s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lines payload")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin line add")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	req, err = s.lockRequest(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if req.State.IsTerminal() {
		err = appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("cannot edit lines of a student request in state %s", req.State))
		return nil, err
	}

	seen := make(map[string]bool, len(req.Lines)+len(input.Lines))
	for _, existing := range req.Lines {
		seen[existing.SupplyID] = true
	}
	for _, in := range input.Lines {
		if seen[in.SupplyID] {
			err = appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate supply line %s", in.SupplyID))
			return nil, err
		}
		seen[in.SupplyID] = true
	}

	for _, in := range input.Lines {
		line := models.StudentRequestLine{
			ID:        uuid.NewString(),
			RequestID: req.ID,
			SupplyID:  in.SupplyID,
			Quantity:  in.Quantity,
		}

		if req.State == models.RequestApproved {
			supply, lockErr := s.ledger.Lock(ctx, tx, line.SupplyID)
			if lockErr != nil {
				err = lockErr
				return nil, err
			}
			if _, err = s.ledger.Apply(ctx, tx, supply, -line.Quantity); err != nil {
				return nil, err
			}
			if _, err = s.movements.InsertTx(ctx, tx, repository.MovementParams{
				SupplyID:         line.SupplyID,
				Kind:             models.MovementLoanStudent,
				Quantity:         line.Quantity,
				Responsible:      req.StudentID,
				StudentRequestID: &req.ID,
			}); err != nil {
				return nil, err
			}
		} else {
			supply, getErr := s.supplies.Get(ctx, line.SupplyID)
			if getErr != nil {
				err = getErr
				return nil, err
			}
			if supply == nil {
				err = appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("supply %s not found", line.SupplyID))
				return nil, err
			}
		}

		if err = s.requests.InsertLineTx(ctx, tx, &line); err != nil {
			return nil, err
		}
		req.Lines = append(req.Lines, line)
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit line add")
	}
	s.logger.Info("student request lines added",
		zap.String("requestId", req.ID),
		zap.Int("lines", len(input.Lines)))
	return req, nil
}

// Delete removes a request, restoring stock when it was approved.
func (s *StudentRequestService) Delete(ctx context.Context, id string) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin delete")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	req, err := s.lockRequest(ctx, tx, id)
	if err != nil {
		return err
	}
	if req.State == models.RequestApproved {
		now := time.Now().UTC()
		for _, line := range req.Lines {
			supply, lockErr := s.ledger.Lock(ctx, tx, line.SupplyID)
			if lockErr != nil {
				err = lockErr
				return err
			}
			if _, err = s.ledger.Apply(ctx, tx, supply, line.Quantity); err != nil {
				return err
			}
			if _, err = s.movements.InsertTx(ctx, tx, repository.MovementParams{
				SupplyID:         line.SupplyID,
				Kind:             models.MovementReturnStudent,
				Quantity:         line.Quantity,
				Responsible:      req.StudentID,
				StudentRequestID: &req.ID,
				ReturnedAt:       &now,
			}); err != nil {
				return err
			}
		}
	}

	if err = s.requests.DeleteTx(ctx, tx, id); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit delete")
	}
	return nil
}

func (s *StudentRequestService) lockRequest(ctx context.Context, tx *sqlx.Tx, id string) (*models.StudentRequest, error) {
	req, err := s.requests.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student request %s not found", id))
	}
	return req, nil
}
