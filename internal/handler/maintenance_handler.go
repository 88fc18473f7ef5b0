package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/internal/service"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
	"github.com/univalle-lab/labstock-api/pkg/response"
)

// MaintenanceHandler handles maintenance record endpoints.
type MaintenanceHandler struct {
	service *service.MaintenanceService
}

// NewMaintenanceHandler constructs a maintenance handler.
func NewMaintenanceHandler(svc *service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{service: svc}
}

// Start godoc
// @Summary Send supply units to maintenance
// @Tags Maintenance
// @Accept json
// @Produce json
// @Param payload body models.StartMaintenanceInput true "Maintenance payload"
// @Success 201 {object} response.Envelope
// @Router /maintenance [post]
func (h *MaintenanceHandler) Start(c *gin.Context) {
	var input models.StartMaintenanceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.Start(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Finish godoc
// @Summary Close a maintenance record
// @Tags Maintenance
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body models.FinishMaintenanceInput true "Finish payload"
// @Success 200 {object} response.Envelope
// @Router /maintenance/{id}/finish [post]
func (h *MaintenanceHandler) Finish(c *gin.Context) {
	var input models.FinishMaintenanceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.Finish(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Get godoc
// @Summary Get maintenance record by id
// @Tags Maintenance
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /maintenance/{id} [get]
func (h *MaintenanceHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// List godoc
// @Summary List maintenance records
// @Tags Maintenance
// @Produce json
// @Param supply_id query string false "Filter by supply"
// @Param state query string false "Filter by state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /maintenance [get]
func (h *MaintenanceHandler) List(c *gin.Context) {
	var filter models.MaintenanceFilter
	filter.SupplyID = c.Query("supply_id")
	filter.State = models.MaintenanceState(c.Query("state"))
	filter.Page, filter.PageSize = pageParams(c)

	records, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, paginationFor(filter.Page, filter.PageSize, total))
}
