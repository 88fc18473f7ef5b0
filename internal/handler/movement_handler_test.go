package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/internal/service"
)

type movementRepoMock struct {
	entries    []models.Movement
	lastFilter models.MovementFilter
	purged     *time.Time
}

func (m *movementRepoMock) Get(_ context.Context, id string) (*models.Movement, error) {
	for _, e := range m.entries {
		if e.ID == id {
			entry := e
			return &entry, nil
		}
	}
	return nil, nil
}

func (m *movementRepoMock) List(_ context.Context, filter models.MovementFilter) ([]models.Movement, int, error) {
	m.lastFilter = filter
	return m.entries, len(m.entries), nil
}

func (m *movementRepoMock) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.purged = &cutoff
	removed := int64(0)
	for _, e := range m.entries {
		if e.DeliveredAt.Before(cutoff) {
			removed++
		}
	}
	return removed, nil
}

func newMovementHandler(entries ...models.Movement) (*MovementHandler, *movementRepoMock) {
	repo := &movementRepoMock{entries: entries}
	return NewMovementHandler(service.NewMovementService(repo, zap.NewNop())), repo
}

func TestMovementHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, repo := newMovementHandler(models.Movement{
		ID:       "mov-1",
		SupplyID: "supply-1",
		Kind:     models.MovementLoan,
		Quantity: 4,
	})

	c, w := newGinContext(http.MethodGet,
		"/movements?supply_id=supply-1&kind=LOAN&from=2026-01-01T00:00:00Z&page=2&limit=10", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "supply-1", repo.lastFilter.SupplyID)
	require.Equal(t, models.MovementLoan, repo.lastFilter.Kind)
	require.NotNil(t, repo.lastFilter.From)
	require.Equal(t, 2, repo.lastFilter.Page)
	require.Equal(t, 10, repo.lastFilter.PageSize)

	var envelope struct {
		Data       []models.Movement  `json:"data"`
		Pagination *models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	require.NotNil(t, envelope.Pagination)
	require.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestMovementHandlerListRejectsInvertedRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newMovementHandler()

	c, w := newGinContext(http.MethodGet,
		"/movements?from=2026-02-01T00:00:00Z&to=2026-01-01T00:00:00Z", nil)
	h.List(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMovementHandlerPurge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	old := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	h, repo := newMovementHandler(
		models.Movement{ID: "mov-1", DeliveredAt: old},
		models.Movement{ID: "mov-2", DeliveredAt: recent},
	)

	c, w := newGinContext(http.MethodDelete, "/movements?before=2026-01-01T00:00:00Z", nil)
	h.Purge(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, repo.purged)
	require.Contains(t, w.Body.String(), `"removed":1`)
}

func TestMovementHandlerPurgeRequiresCutoff(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, repo := newMovementHandler()

	c, w := newGinContext(http.MethodDelete, "/movements?before=yesterday", nil)
	h.Purge(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Nil(t, repo.purged)
}
