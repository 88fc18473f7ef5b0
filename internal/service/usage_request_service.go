package service

import (
	"context"
	"database/sql"
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

type usageRequestRepo interface {
	Create(ctx context.Context, req *models.UsageRequest) error
	Get(ctx context.Context, id string) (*models.UsageRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.UsageRequest, int, error)
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.UsageRequest, error)
	UpdateStateTx(ctx context.Context, tx *sqlx.Tx, id string, state models.RequestState) error
	SetNotReturnedTx(ctx context.Context, tx *sqlx.Tx, id string, losses models.NotReturnedList) error
	GetLine(ctx context.Context, lineID string) (*models.UsageRequestLine, *models.UsageRequest, error)
	InsertLineTx(ctx context.Context, tx *sqlx.Tx, line *models.UsageRequestLine) error
	UpdateLineTx(ctx context.Context, tx *sqlx.Tx, lineID string, perGroup, total int) error
	DeleteLineTx(ctx context.Context, tx *sqlx.Tx, lineID string) error
	DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error
	InUseByManager(ctx context.Context, managerID string) ([]models.InUseSupply, error)
}

type supplyReader interface {
	Get(ctx context.Context, id string) (*models.Supply, error)
}

type practiceReader interface {
	Get(ctx context.Context, id string) (*models.Practice, error)
}

type teacherReader interface {
	GetTeacher(ctx context.Context, id string) (*models.Teacher, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// UsageRequestConfig bounds group arithmetic on staff requests.
type UsageRequestConfig struct {
	MaxGroups        int
	DefaultGroupSize int
}

// UsageRequestService drives the lifecycle of staff usage requests:
// creation with group arithmetic, approval against stock, returns with
// losses and line edits while the request is open.
type UsageRequestService struct {
	requests  usageRequestRepo
	supplies  supplyReader
	practices practiceReader
	teachers  teacherReader
	ledger    *StockLedger
	movements movementAppender
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	cfg       UsageRequestConfig
}

// NewUsageRequestService constructs the service.
func NewUsageRequestService(
	requests usageRequestRepo,
	supplies supplyReader,
	practices practiceReader,
	teachers teacherReader,
	ledger *StockLedger,
	movements movementAppender,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg UsageRequestConfig,
) *UsageRequestService {
	if cfg.MaxGroups <= 0 {
		cfg.MaxGroups = 50
	}
	if cfg.DefaultGroupSize <= 0 {
		cfg.DefaultGroupSize = 3
	}
	return &UsageRequestService{
		requests:  requests,
		supplies:  supplies,
		practices: practices,
		teachers:  teachers,
		ledger:    ledger,
		movements: movements,
		tx:        tx,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Create registers a pending request. Group count is derived from the
// student count; when the request references a practice, the practice's
// template supplies replace any manual lines.
func (s *UsageRequestService) Create(ctx context.Context, input models.CreateUsageRequestInput) (*models.UsageRequest, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}
	if !input.EndsAt.After(input.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ends_at must be after starts_at")
	}

	teacher, err := s.teachers.GetTeacher(ctx, input.TeacherID)
	if err != nil {
		return nil, err
	}
	if teacher == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("teacher %s not found", input.TeacherID))
	}

	groupSize := input.GroupSize
	if groupSize <= 0 {
		groupSize = s.cfg.DefaultGroupSize
	}
	numGroups := (input.StudentCount + groupSize - 1) / groupSize
	if numGroups > s.cfg.MaxGroups {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("%d groups of %d exceed the maximum of %d", numGroups, groupSize, s.cfg.MaxGroups))
	}

	lines := make([]models.RequestLineInput, len(input.Lines))
	copy(lines, input.Lines)
	if input.PracticeID != nil {
		practice, err := s.practices.Get(ctx, *input.PracticeID)
		if err != nil {
			return nil, err
		}
		if practice == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("practice %s not found", *input.PracticeID))
		}
		if len(practice.Supplies) > 0 {
			if len(lines) > 0 {
				s.logger.Warn("manual lines discarded in favor of practice template",
					zap.String("practiceId", practice.ID),
					zap.Int("manualLines", len(lines)))
			}
			lines = lines[:0]
			for _, ps := range practice.Supplies {
				lines = append(lines, models.RequestLineInput{SupplyID: ps.SupplyID, PerGroup: ps.PerGroup})
			}
		}
	}
	if len(lines) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "request needs at least one supply line")
	}

	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
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
	req := &models.UsageRequest{
		ID:           uuid.NewString(),
		TeacherID:    input.TeacherID,
		LabID:        input.LabID,
		PracticeID:   input.PracticeID,
		SubjectID:    input.SubjectID,
		StartsAt:     input.StartsAt,
		EndsAt:       input.EndsAt,
		StudentCount: input.StudentCount,
		GroupSize:    groupSize,
		NumGroups:    numGroups,
		Observations: input.Observations,
		State:        models.RequestPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, line := range lines {
		req.Lines = append(req.Lines, models.UsageRequestLine{
			ID:        uuid.NewString(),
			RequestID: req.ID,
			SupplyID:  line.SupplyID,
			PerGroup:  line.PerGroup,
			Total:     line.PerGroup * numGroups,
		})
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	s.logger.Info("usage request created",
		zap.String("requestId", req.ID),
		zap.Int("numGroups", numGroups),
		zap.Int("lines", len(req.Lines)))
	return req, nil
}

// Get fetches a request with its lines.
func (s *UsageRequestService) Get(ctx context.Context, id string) (*models.UsageRequest, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("request %s not found", id))
	}
	return req, nil
}

// List returns requests matching the filter.
func (s *UsageRequestService) List(ctx context.Context, filter models.RequestFilter) ([]models.UsageRequest, int, error) {
	return s.requests.List(ctx, filter)
}

// InUseByManager lists supplies currently out on approved requests in
// labs run by the given manager.
func (s *UsageRequestService) InUseByManager(ctx context.Context, managerID string) ([]models.InUseSupply, error) {
	if managerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "manager_id is required")
	}
	return s.requests.InUseByManager(ctx, managerID)
}

// Approve validates stock for every line and, only if all lines fit,
// decrements stock and writes one LOAN movement per line. A single short
// line leaves all stock untouched.
func (s *UsageRequestService) Approve(ctx context.Context, id, responsible string) (req *models.UsageRequest, err error) {
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
			fmt.Sprintf("cannot approve request in state %s", req.State))
	}

	// Lock every supply first and collect all shortages so the caller
	// sees the full picture in one round trip.
	locked := make([]*models.Supply, len(req.Lines))
	var shortages []string
	for i, line := range req.Lines {
		supply, lockErr := s.ledger.Lock(ctx, tx, line.SupplyID)
		if lockErr != nil {
			err = lockErr
			return nil, err
		}
		locked[i] = supply
		if supply.StockOnHand < line.Total {
			shortages = append(shortages, fmt.Sprintf("%s: %d on hand, %d needed", supply.Name, supply.StockOnHand, line.Total))
		}
	}
	if len(shortages) > 0 {
		err = appErrors.Clone(appErrors.ErrInsufficientStock, strings.Join(shortages, "; "))
		return nil, err
	}

	for i, line := range req.Lines {
		if _, err = s.ledger.Apply(ctx, tx, locked[i], -line.Total); err != nil {
			return nil, err
		}
		if _, err = s.movements.InsertTx(ctx, tx, repository.MovementParams{
			SupplyID:    line.SupplyID,
			Kind:        models.MovementLoan,
			Quantity:    line.Total,
			Responsible: responsible,
			RequestID:   &req.ID,
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
	s.logger.Info("usage request approved", zap.String("requestId", req.ID))
	return req, nil
}

// Reject closes a request. Rejecting an already approved request puts its
// loaned stock back with RETURN movements.
func (s *UsageRequestService) Reject(ctx context.Context, id, responsible string) (req *models.UsageRequest, err error) {
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
			fmt.Sprintf("cannot reject request in state %s", req.State))
	}

	if req.State == models.RequestApproved {
		if err = s.restoreLines(ctx, tx, req, responsible); err != nil {
			return nil, err
		}
	}

	if err = s.requests.UpdateStateTx(ctx, tx, req.ID, models.RequestRejected); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit rejection")
	}

	req.State = models.RequestRejected
	s.logger.Info("usage request rejected", zap.String("requestId", req.ID))
	return req, nil
}

// Complete closes an approved request. The returned portion of every line
// goes back to stock with a RETURN movement; declared losses produce
// NOT_RETURNED movements and are snapshotted on the request.
func (s *UsageRequestService) Complete(ctx context.Context, id string, input models.ReturnInput) (req *models.UsageRequest, err error) {
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
			fmt.Sprintf("cannot complete request in state %s", req.State))
	}

	lineTotals := make(map[string]int, len(req.Lines))
	for _, line := range req.Lines {
		lineTotals[line.SupplyID] = line.Total
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
		returned := line.Total - lost
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
				SupplyID:    line.SupplyID,
				Kind:        models.MovementReturn,
				Quantity:    returned,
				Responsible: input.Responsible,
				RequestID:   &req.ID,
				ReturnedAt:  &now,
			}); err != nil {
				return nil, err
			}
		}
		if lost > 0 {
			snapshot = append(snapshot, models.NotReturnedItem{SupplyID: line.SupplyID, Quantity: lost})
			if _, err = s.movements.InsertTx(ctx, tx, repository.MovementParams{
				SupplyID:    line.SupplyID,
				Kind:        models.MovementNotReturned,
				Quantity:    lost,
				Responsible: input.Responsible,
				RequestID:   &req.ID,
				ReturnedAt:  &now,
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
	s.logger.Info("usage request completed",
		zap.String("requestId", req.ID),
		zap.Int("lossLines", len(snapshot)))
	return req, nil
}

// AddLine appends a supply line to an open request. On an approved request
// the new line's total is loaned out immediately.
func (s *UsageRequestService) AddLine(ctx context.Context, requestID string, input models.RequestLineInput) (line *models.UsageRequestLine, err error) {
	if err = s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid line payload")
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

	req, err := s.lockRequest(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if req.State.IsTerminal() {
		err = appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("cannot edit lines of a request in state %s", req.State))
		return nil, err
	}
	for _, existing := range req.Lines {
		if existing.SupplyID == input.SupplyID {
			err = appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate supply line %s", input.SupplyID))
			return nil, err
		}
	}

	line = &models.UsageRequestLine{
		ID:        uuid.NewString(),
		RequestID: req.ID,
		SupplyID:  input.SupplyID,
		PerGroup:  input.PerGroup,
		Total:     input.PerGroup * req.NumGroups,
	}

	if req.State == models.RequestApproved {
		supply, lockErr := s.ledger.Lock(ctx, tx, line.SupplyID)
		if lockErr != nil {
			err = lockErr
			return nil, err
		}
		if _, err = s.ledger.Apply(ctx, tx, supply, -line.Total); err != nil {
			return nil, err
		}
		if _, err = s.movements.InsertTx(ctx, tx, repository.MovementParams{
			SupplyID:    line.SupplyID,
			Kind:        models.MovementLoan,
			Quantity:    line.Total,
			Responsible: req.TeacherID,
			RequestID:   &req.ID,
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

	if err = s.requests.InsertLineTx(ctx, tx, line); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit line add")
	}
	return line, nil
}

// UpdateLine rewrites a line's per-group quantity. On an approved request
// the stock difference is loaned or returned to match the new total.
func (s *UsageRequestService) UpdateLine(ctx context.Context, lineID string, perGroup int) (line *models.UsageRequestLine, err error) {
	if perGroup <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "per_group must be positive")
	}

	current, parent, err := s.requests.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("request line %s not found", lineID))
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin line update")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	req, err := s.lockRequest(ctx, tx, parent.ID)
	if err != nil {
		return nil, err
	}
	if req.State.IsTerminal() {
		err = appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("cannot edit lines of a request in state %s", req.State))
		return nil, err
	}

	var fresh *models.UsageRequestLine
	for i := range req.Lines {
		if req.Lines[i].ID == lineID {
			fresh = &req.Lines[i]
			break
		}
	}
	if fresh == nil {
		err = appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("request line %s not found", lineID))
		return nil, err
	}

	newTotal := perGroup * req.NumGroups
	if req.State == models.RequestApproved && newTotal != fresh.Total {
		delta := fresh.Total - newTotal
		supply, lockErr := s.ledger.Lock(ctx, tx, fresh.SupplyID)
		if lockErr != nil {
			err = lockErr
			return nil, err
		}
		if _, err = s.ledger.Apply(ctx, tx, supply, delta); err != nil {
			return nil, err
		}
		kind := models.MovementReturn
		quantity := delta
		if delta < 0 {
			kind = models.MovementLoan
			quantity = -delta
		}
		if _, err = s.movements.InsertTx(ctx, tx, repository.MovementParams{
			SupplyID:    fresh.SupplyID,
			Kind:        kind,
			Quantity:    quantity,
			Responsible: req.TeacherID,
			RequestID:   &req.ID,
		}); err != nil {
			return nil, err
		}
	}

	if err = s.requests.UpdateLineTx(ctx, tx, lineID, perGroup, newTotal); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit line update")
	}

	fresh.PerGroup = perGroup
	fresh.Total = newTotal
	return fresh, nil
}

// DeleteLine removes a line from an open request. On an approved request
// its loaned total goes back to stock.
func (s *UsageRequestService) DeleteLine(ctx context.Context, lineID string) (err error) {
	current, parent, err := s.requests.GetLine(ctx, lineID)
	if err != nil {
		return err
	}
	if current == nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("request line %s not found", lineID))
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin line delete")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	req, err := s.lockRequest(ctx, tx, parent.ID)
	if err != nil {
		return err
	}
	if req.State.IsTerminal() {
		err = appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("cannot edit lines of a request in state %s", req.State))
		return err
	}

	if req.State == models.RequestApproved {
		supply, lockErr := s.ledger.Lock(ctx, tx, current.SupplyID)
		if lockErr != nil {
			err = lockErr
			return err
		}
		if _, err = s.ledger.Apply(ctx, tx, supply, current.Total); err != nil {
			return err
		}
		if _, err = s.movements.InsertTx(ctx, tx, repository.MovementParams{
			SupplyID:    current.SupplyID,
			Kind:        models.MovementReturn,
			Quantity:    current.Total,
			Responsible: req.TeacherID,
			RequestID:   &req.ID,
		}); err != nil {
			return err
		}
	}

	if err = s.requests.DeleteLineTx(ctx, tx, lineID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit line delete")
	}
	return nil
}

// Delete removes a request. Deleting an approved request puts its loaned
// stock back first.
func (s *UsageRequestService) Delete(ctx context.Context, id string) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin request delete")
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
		if err = s.restoreLines(ctx, tx, req, req.TeacherID); err != nil {
			return err
		}
	}

	if err = s.requests.DeleteTx(ctx, tx, id); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit request delete")
	}
	s.logger.Info("usage request deleted", zap.String("requestId", id))
	return nil
}

func (s *UsageRequestService) lockRequest(ctx context.Context, tx *sqlx.Tx, id string) (*models.UsageRequest, error) {
	req, err := s.requests.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("request %s not found", id))
	}
	return req, nil
}

func (s *UsageRequestService) restoreLines(ctx context.Context, tx *sqlx.Tx, req *models.UsageRequest, responsible string) error {
	now := time.Now().UTC()
	for _, line := range req.Lines {
		supply, err := s.ledger.Lock(ctx, tx, line.SupplyID)
		if err != nil {
			return err
		}
		if _, err := s.ledger.Apply(ctx, tx, supply, line.Total); err != nil {
			return err
		}
		if _, err := s.movements.InsertTx(ctx, tx, repository.MovementParams{
			SupplyID:    line.SupplyID,
			Kind:        models.MovementReturn,
			Quantity:    line.Total,
			Responsible: responsible,
			RequestID:   &req.ID,
			ReturnedAt:  &now,
		}); err != nil {
			return err
		}
	}
	return nil
}
