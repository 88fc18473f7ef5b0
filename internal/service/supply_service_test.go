package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

// supplyCatalogMock implements the catalog side on top of the shared
// in-memory supply store.
type supplyCatalogMock struct {
	*supplyStoreMock
	nextID    int
	listCalls int
	createErr error
	deleteErr error
}

func newSupplyCatalogMock(supplies ...*models.Supply) *supplyCatalogMock {
	return &supplyCatalogMock{supplyStoreMock: newSupplyStoreMock(supplies...)}
}

func (m *supplyCatalogMock) Create(ctx context.Context, input models.CreateSupplyInput) (*models.Supply, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	now := time.Now().UTC()
	supply := &models.Supply{
		ID:          fmt.Sprintf("supply-%d", m.nextID),
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Location:    input.Location,
		Unit:        input.Unit,
		StockOnHand: input.StockOnHand,
		StockMin:    input.StockMin,
		StockMax:    input.StockMax,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.supplies[supply.ID] = supply
	cp := *supply
	return &cp, nil
}

func (m *supplyCatalogMock) List(ctx context.Context, filter models.SupplyFilter) ([]models.Supply, int, error) {
	m.listCalls++
	var out []models.Supply
	for _, s := range m.supplies {
		if filter.Search != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *supplyCatalogMock) Update(ctx context.Context, id string, update models.SupplyUpdate) (*models.Supply, error) {
	s, ok := m.supplies[id]
	if !ok {
		return nil, nil
	}
	if update.Name != nil {
		s.Name = *update.Name
	}
	if update.StockOnHand != nil {
		s.StockOnHand = *update.StockOnHand
	}
	if update.StockMin != nil {
		s.StockMin = *update.StockMin
	}
	if update.StockMax != nil {
		s.StockMax = *update.StockMax
	}
	cp := *s
	return &cp, nil
}

func (m *supplyCatalogMock) Delete(ctx context.Context, id string) (bool, error) {
	if m.deleteErr != nil {
		return false, m.deleteErr
	}
	if _, ok := m.supplies[id]; !ok {
		return false, nil
	}
	delete(m.supplies, id)
	return true, nil
}

// cacheMock stores marshaled values like the Redis-backed store does.
type cacheMock struct {
	values  map[string][]byte
	hits    int
	deletes int
}

func newCacheMock() *cacheMock {
	return &cacheMock{values: map[string][]byte{}}
}

func (m *cacheMock) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	m.hits++
	return json.Unmarshal(raw, dest)
}

func (m *cacheMock) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *cacheMock) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deletes++
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			delete(m.values, key)
		}
	}
	return nil
}

func newSupplyFixture(t *testing.T, supplies ...*models.Supply) (*SupplyService, *supplyCatalogMock, *alertStoreMock, *cacheMock, sqlmock.Sqlmock) {
	t.Helper()
	catalog := newSupplyCatalogMock(supplies...)
	alerts := &alertStoreMock{}
	cache := newCacheMock()
	txp, mock := newTxProviderMock(t)
	service := NewSupplyService(catalog, newTestLedger(catalog.supplyStoreMock, alerts), cache, txp, testValidator(), zap.NewNop(), time.Minute)
	return service, catalog, alerts, cache, mock
}

func TestSupplyCreateRaisesAlertWhenBelowMin(t *testing.T) {
	service, _, alerts, _, mock := newSupplyFixture(t)

	expectTx(mock)
	supply, err := service.Create(context.Background(), models.CreateSupplyInput{
		Name:        "Nitrile gloves",
		Unit:        "box",
		StockOnHand: 2,
		StockMin:    5,
	})
	require.NoError(t, err)
	active := alerts.active(supply.ID)
	require.Len(t, active, 1)
	assert.Equal(t, models.AlertLowStock, active[0].Kind)
}

func TestSupplyCreateRejectsMinAboveMax(t *testing.T) {
	service, _, _, _, _ := newSupplyFixture(t)

	_, err := service.Create(context.Background(), models.CreateSupplyInput{
		Name:        "Nitrile gloves",
		Unit:        "box",
		StockOnHand: 10,
		StockMin:    20,
		StockMax:    15,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSupplyCreateMapsUniqueViolationToConflict(t *testing.T) {
	service, catalog, _, _, _ := newSupplyFixture(t)
	catalog.createErr = &pq.Error{Code: "23505"}

	_, err := service.Create(context.Background(), models.CreateSupplyInput{Name: "Nitrile gloves", Unit: "box"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSupplyListServesRepeatedPagesFromCache(t *testing.T) {
	service, catalog, _, cache, _ := newSupplyFixture(t,
		testSupply("supply-1", "Nitrile gloves", 10, 0, 0))

	filter := models.SupplyFilter{Page: 1, PageSize: 20}
	first, total, err := service.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, first, 1)
	assert.Equal(t, 1, catalog.listCalls)

	second, _, err := service.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, catalog.listCalls)
	assert.Equal(t, 1, cache.hits)
}

func TestSupplyUpdateInvalidatesCachedListings(t *testing.T) {
	service, catalog, _, cache, mock := newSupplyFixture(t,
		testSupply("supply-1", "Nitrile gloves", 10, 0, 0))

	filter := models.SupplyFilter{Page: 1, PageSize: 20}
	_, _, err := service.List(context.Background(), filter)
	require.NoError(t, err)
	require.Equal(t, 1, catalog.listCalls)

	expectTx(mock)
	name := "Latex gloves"
	_, err = service.Update(context.Background(), "supply-1", models.SupplyUpdate{Name: &name})
	require.NoError(t, err)
	require.Equal(t, 1, cache.deletes)

	_, _, err = service.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.listCalls)
}

func TestSupplyUpdateReconcilesAlerts(t *testing.T) {
	service, _, alerts, _, mock := newSupplyFixture(t,
		testSupply("supply-1", "Nitrile gloves", 10, 5, 0))

	expectTx(mock)
	newMin := 20
	_, err := service.Update(context.Background(), "supply-1", models.SupplyUpdate{StockMin: &newMin})
	require.NoError(t, err)
	active := alerts.active("supply-1")
	require.Len(t, active, 1)
	assert.Equal(t, models.AlertLowStock, active[0].Kind)
}

func TestSupplyUpdateNotFound(t *testing.T) {
	service, _, _, _, _ := newSupplyFixture(t)

	name := "Anything"
	_, err := service.Update(context.Background(), "supply-404", models.SupplyUpdate{Name: &name})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSupplyDeleteMapsForeignKeyToConflict(t *testing.T) {
	service, catalog, _, _, _ := newSupplyFixture(t,
		testSupply("supply-1", "Nitrile gloves", 10, 0, 0))
	catalog.deleteErr = &pq.Error{Code: "23503"}

	err := service.Delete(context.Background(), "supply-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
