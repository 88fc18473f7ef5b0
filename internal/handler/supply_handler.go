package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/internal/service"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
	"github.com/univalle-lab/labstock-api/pkg/response"
)

// SupplyHandler handles supply catalog endpoints.
type SupplyHandler struct {
	service *service.SupplyService
}

// NewSupplyHandler constructs a supply handler.
func NewSupplyHandler(svc *service.SupplyService) *SupplyHandler {
	return &SupplyHandler{service: svc}
}

// List godoc
// @Summary List supplies
// @Tags Supplies
// @Produce json
// @Param search query string false "Search keyword"
// @Param category query string false "Filter by category"
// @Param location query string false "Filter by location"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /supplies [get]
func (h *SupplyHandler) List(c *gin.Context) {
	var filter models.SupplyFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Category = c.Query("category")
	filter.Location = c.Query("location")
	filter.Page, filter.PageSize = pageParams(c)

	supplies, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supplies, paginationFor(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get supply by id
// @Tags Supplies
// @Produce json
// @Param id path string true "Supply ID"
// @Success 200 {object} response.Envelope
// @Router /supplies/{id} [get]
func (h *SupplyHandler) Get(c *gin.Context) {
	supply, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supply, nil)
}

// Create godoc
// @Summary Create supply
// @Tags Supplies
// @Accept json
// @Produce json
// @Param payload body models.CreateSupplyInput true "Supply payload"
// @Success 201 {object} response.Envelope
// @Router /supplies [post]
func (h *SupplyHandler) Create(c *gin.Context) {
	var input models.CreateSupplyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	supply, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, supply)
}

// Update godoc
// @Summary Update supply
// @Tags Supplies
// @Accept json
// @Produce json
// @Param id path string true "Supply ID"
// @Param payload body models.SupplyUpdate true "Partial update"
// @Success 200 {object} response.Envelope
// @Router /supplies/{id} [patch]
func (h *SupplyHandler) Update(c *gin.Context) {
	var update models.SupplyUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	supply, err := h.service.Update(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supply, nil)
}

// Delete godoc
// @Summary Delete supply
// @Tags Supplies
// @Param id path string true "Supply ID"
// @Success 204
// @Router /supplies/{id} [delete]
func (h *SupplyHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
