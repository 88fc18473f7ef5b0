package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/internal/service"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
	"github.com/univalle-lab/labstock-api/pkg/response"
)

// MovementHandler exposes the stock movement log.
type MovementHandler struct {
	service *service.MovementService
}

// NewMovementHandler constructs a movement handler.
func NewMovementHandler(svc *service.MovementService) *MovementHandler {
	return &MovementHandler{service: svc}
}

func movementFilterFrom(c *gin.Context) models.MovementFilter {
	var filter models.MovementFilter
	filter.SupplyID = c.Query("supply_id")
	filter.Kind = models.MovementKind(c.Query("kind"))
	if raw := c.Query("from"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = &ts
		}
	}
	if raw := c.Query("to"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = &ts
		}
	}
	filter.Page, filter.PageSize = pageParams(c)
	return filter
}

// List godoc
// @Summary List stock movements
// @Tags Movements
// @Produce json
// @Param supply_id query string false "Filter by supply"
// @Param kind query string false "Filter by movement kind"
// @Param from query string false "RFC3339 range start"
// @Param to query string false "RFC3339 range end"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /movements [get]
func (h *MovementHandler) List(c *gin.Context) {
	filter := movementFilterFrom(c)
	movements, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, movements, paginationFor(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Fetch a movement entry
// @Tags Movements
// @Produce json
// @Param id path string true "Movement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /movements/{id} [get]
func (h *MovementHandler) Get(c *gin.Context) {
	movement, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, movement, nil)
}

// Purge godoc
// @Summary Purge movement entries older than a cutoff
// @Tags Movements
// @Produce json
// @Param before query string true "RFC3339 cutoff"
// @Success 200 {object} response.Envelope
// @Router /movements [delete]
func (h *MovementHandler) Purge(c *gin.Context) {
	raw := c.Query("before")
	cutoff, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "before must be an RFC3339 timestamp"))
		return
	}
	removed, err := h.service.Purge(c.Request.Context(), cutoff)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"removed": removed}, nil)
}
