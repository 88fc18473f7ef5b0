package service

import (
	"context"
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

type alertRepoMock struct {
	alerts map[string]*models.Alert
}

func (m *alertRepoMock) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, int, error) {
	var out []models.Alert
	for _, alert := range m.alerts {
		if filter.State != "" && alert.State != filter.State {
			continue
		}
		out = append(out, *alert)
	}
	return out, len(out), nil
}

func (m *alertRepoMock) Get(ctx context.Context, id string) (*models.Alert, error) {
	alert, ok := m.alerts[id]
	if !ok {
		return nil, nil
	}
	cp := *alert
	return &cp, nil
}

func (m *alertRepoMock) ResolveTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	if alert, ok := m.alerts[id]; ok {
		alert.State = models.AlertResolved
	}
	return nil
}

func newAlertServiceTest(t *testing.T, alerts ...*models.Alert) (*AlertService, *alertRepoMock, sqlmock.Sqlmock) {
	t.Helper()
	repo := &alertRepoMock{alerts: map[string]*models.Alert{}}
	for _, alert := range alerts {
		repo.alerts[alert.ID] = alert
	}
	tx, mock := newTxProviderMock(t)
	return NewAlertService(repo, tx, zap.NewNop()), repo, mock
}

func TestAlertListRejectsUnknownState(t *testing.T) {
	service, _, _ := newAlertServiceTest(t)

	_, _, err := service.List(context.Background(), models.AlertFilter{State: "SNOOZED"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAlertResolveAcknowledges(t *testing.T) {
	service, repo, mock := newAlertServiceTest(t, &models.Alert{
		ID:        "alert-1",
		SupplyID:  "supply-1",
		Kind:      models.AlertLowStock,
		State:     models.AlertActive,
		CreatedAt: time.Now().UTC(),
	})
	expectTx(mock)

	alert, err := service.Resolve(context.Background(), "alert-1")
	require.NoError(t, err)
	assert.Equal(t, models.AlertResolved, alert.State)
	assert.Equal(t, models.AlertResolved, repo.alerts["alert-1"].State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertResolveTwiceFails(t *testing.T) {
	service, _, _ := newAlertServiceTest(t, &models.Alert{
		ID:    "alert-1",
		State: models.AlertResolved,
	})

	_, err := service.Resolve(context.Background(), "alert-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestAlertResolveNotFound(t *testing.T) {
	service, _, _ := newAlertServiceTest(t)

	_, err := service.Resolve(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
