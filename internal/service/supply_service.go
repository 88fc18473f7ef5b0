package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/pkg/database"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

type supplyRepo interface {
	Create(ctx context.Context, input models.CreateSupplyInput) (*models.Supply, error)
	Get(ctx context.Context, id string) (*models.Supply, error)
	List(ctx context.Context, filter models.SupplyFilter) ([]models.Supply, int, error)
	Update(ctx context.Context, id string, update models.SupplyUpdate) (*models.Supply, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type supplyListPayload struct {
	Supplies []models.Supply `json:"supplies"`
	Total    int             `json:"total"`
}

// SupplyService manages the supply catalog. Listings are cached in Redis;
// every mutation invalidates the cached pages and re-reconciles the
// supply's alerts against its thresholds.
type SupplyService struct {
	supplies  supplyRepo
	ledger    *StockLedger
	cache     cacheStore
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewSupplyService constructs the service.
func NewSupplyService(supplies supplyRepo, ledger *StockLedger, cache cacheStore, tx txProvider, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *SupplyService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &SupplyService{
		supplies:  supplies,
		ledger:    ledger,
		cache:     cache,
		tx:        tx,
		validator: validate,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// Create registers a supply and raises an alert right away when its
// initial stock already sits outside the configured band.
func (s *SupplyService) Create(ctx context.Context, input models.CreateSupplyInput) (*models.Supply, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid supply payload")
	}
	if input.StockMax > 0 && input.StockMin > input.StockMax {
		return nil, appErrors.Clone(appErrors.ErrValidation, "stock_min cannot exceed stock_max")
	}

	supply, err := s.supplies.Create(ctx, input)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("supply %q already exists", input.Name))
		}
		return nil, err
	}

	if err := s.reconcile(ctx, supply.ID); err != nil {
		return nil, err
	}
	s.invalidateListings(ctx)
	return supply, nil
}

// Get fetches a supply.
func (s *SupplyService) Get(ctx context.Context, id string) (*models.Supply, error) {
	supply, err := s.supplies.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if supply == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("supply %s not found", id))
	}
	return supply, nil
}

// List returns supplies matching the filter, serving repeated pages from
// the cache.
func (s *SupplyService) List(ctx context.Context, filter models.SupplyFilter) ([]models.Supply, int, error) {
	key := fmt.Sprintf("supplies:list:%s:%s:%s:%d:%d", filter.Search, filter.Category, filter.Location, filter.Page, filter.PageSize)

	var cached supplyListPayload
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached.Supplies, cached.Total, nil
	} else if err != appErrors.ErrCacheMiss {
		s.logger.Warn("supply list cache read failed", zap.Error(err))
	}

	supplies, total, err := s.supplies.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if err := s.cache.Set(ctx, key, supplyListPayload{Supplies: supplies, Total: total}, s.cacheTTL); err != nil {
		s.logger.Warn("supply list cache write failed", zap.Error(err))
	}
	return supplies, total, nil
}

// Update applies a partial update, then re-reconciles alerts since the
// stock level or the thresholds may have moved.
func (s *SupplyService) Update(ctx context.Context, id string, update models.SupplyUpdate) (*models.Supply, error) {
	if update.StockOnHand != nil && *update.StockOnHand < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "stock_on_hand cannot be negative")
	}
	if update.StockMin != nil && *update.StockMin < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "stock_min cannot be negative")
	}

	supply, err := s.supplies.Update(ctx, id, update)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "supply name already in use")
		}
		return nil, err
	}
	if supply == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("supply %s not found", id))
	}

	if err := s.reconcile(ctx, id); err != nil {
		return nil, err
	}
	s.invalidateListings(ctx)
	return supply, nil
}

// Delete removes a supply; its alerts cascade away with it.
func (s *SupplyService) Delete(ctx context.Context, id string) error {
	deleted, err := s.supplies.Delete(ctx, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "supply is referenced by requests or movements")
		}
		return err
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("supply %s not found", id))
	}
	s.invalidateListings(ctx)
	return nil
}

func (s *SupplyService) reconcile(ctx context.Context, id string) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin alert reconcile")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	supply, err := s.ledger.Lock(ctx, tx, id)
	if err != nil {
		return err
	}
	if err = s.ledger.Reconcile(ctx, tx, supply); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit alert reconcile")
	}
	return nil
}

func (s *SupplyService) invalidateListings(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, "supplies:list:*"); err != nil {
		s.logger.Warn("supply list cache invalidation failed", zap.Error(err))
	}
}
