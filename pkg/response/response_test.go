package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
)

func recordError(t *testing.T, err error) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Error(c, err)
	var envelope Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w, envelope
}

func TestErrorMapsDeadlockToRetryableFailure(t *testing.T) {
	cause := &pq.Error{Code: "40P01", Message: "deadlock detected"}
	wrapped := appErrors.Wrap(cause, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit approval")

	w, envelope := recordError(t, wrapped)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrTransient.Code, envelope.Error.Code)
}

func TestErrorMapsLockTimeoutToRetryableFailure(t *testing.T) {
	w, envelope := recordError(t, &pq.Error{Code: "55P03", Message: "lock not available"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrTransient.Code, envelope.Error.Code)
}

func TestErrorKeepsPlainInternalFailures(t *testing.T) {
	w, envelope := recordError(t, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrInternal.Code, envelope.Error.Code)
}

func TestErrorKeepsDomainStatus(t *testing.T) {
	w, envelope := recordError(t, appErrors.Clone(appErrors.ErrNotFound, "supply supply-404 not found"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrNotFound.Code, envelope.Error.Code)
}
