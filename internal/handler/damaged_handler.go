package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/internal/service"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
	"github.com/univalle-lab/labstock-api/pkg/response"
)

// DamagedHandler handles damaged item endpoints.
type DamagedHandler struct {
	service *service.DamagedService
}

// NewDamagedHandler constructs a damaged item handler.
func NewDamagedHandler(svc *service.DamagedService) *DamagedHandler {
	return &DamagedHandler{service: svc}
}

// Register godoc
// @Summary Register damaged supply units
// @Tags Damaged
// @Accept json
// @Produce json
// @Param payload body models.RegisterDamagedInput true "Damaged item payload"
// @Success 201 {object} response.Envelope
// @Router /damaged-items [post]
func (h *DamagedHandler) Register(c *gin.Context) {
	var input models.RegisterDamagedInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.service.Register(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

type updateDamagedPayload struct {
	State models.DamageState `json:"state" binding:"required"`
	Notes string             `json:"notes"`
}

// UpdateState godoc
// @Summary Move a damaged item to another state
// @Tags Damaged
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param payload body updateDamagedPayload true "State payload"
// @Success 200 {object} response.Envelope
// @Router /damaged-items/{id} [patch]
func (h *DamagedHandler) UpdateState(c *gin.Context) {
	var payload updateDamagedPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.service.UpdateState(c.Request.Context(), c.Param("id"), payload.State, payload.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Get godoc
// @Summary Get damaged item by id
// @Tags Damaged
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /damaged-items/{id} [get]
func (h *DamagedHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// List godoc
// @Summary List damaged items
// @Tags Damaged
// @Produce json
// @Param supply_id query string false "Filter by supply"
// @Param state query string false "Filter by state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /damaged-items [get]
func (h *DamagedHandler) List(c *gin.Context) {
	var filter models.DamagedFilter
	filter.SupplyID = c.Query("supply_id")
	filter.State = models.DamageState(c.Query("state"))
	filter.Page, filter.PageSize = pageParams(c)

	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, paginationFor(filter.Page, filter.PageSize, total))
}
