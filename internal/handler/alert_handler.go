package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/internal/service"
	"github.com/univalle-lab/labstock-api/pkg/response"
)

// AlertHandler exposes the stock alert log. Alerts are raised by stock
// changes; the API can list them and acknowledge one by resolving it.
type AlertHandler struct {
	service *service.AlertService
}

// NewAlertHandler constructs an alert handler.
func NewAlertHandler(svc *service.AlertService) *AlertHandler {
	return &AlertHandler{service: svc}
}

// List godoc
// @Summary List stock alerts
// @Tags Alerts
// @Produce json
// @Param supply_id query string false "Filter by supply"
// @Param state query string false "ACTIVE or RESOLVED"
// @Param kind query string false "LOW_STOCK or EXCESS_STOCK"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /alerts [get]
func (h *AlertHandler) List(c *gin.Context) {
	var filter models.AlertFilter
	filter.SupplyID = c.Query("supply_id")
	filter.State = models.AlertState(c.Query("state"))
	filter.Kind = models.AlertKind(c.Query("kind"))
	filter.Page, filter.PageSize = pageParams(c)

	alerts, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alerts, paginationFor(filter.Page, filter.PageSize, total))
}

// Resolve godoc
// @Summary Resolve an active alert
// @Tags Alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c *gin.Context) {
	alert, err := h.service.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert, nil)
}
