package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/internal/service"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
	"github.com/univalle-lab/labstock-api/pkg/response"
)

// AcquisitionHandler handles purchase order endpoints.
type AcquisitionHandler struct {
	service *service.AcquisitionService
}

// NewAcquisitionHandler constructs an acquisition handler.
func NewAcquisitionHandler(svc *service.AcquisitionService) *AcquisitionHandler {
	return &AcquisitionHandler{service: svc}
}

// Create godoc
// @Summary Create acquisition
// @Tags Acquisitions
// @Accept json
// @Produce json
// @Param payload body models.CreateAcquisitionInput true "Acquisition payload"
// @Success 201 {object} response.Envelope
// @Router /acquisitions [post]
func (h *AcquisitionHandler) Create(c *gin.Context) {
	var input models.CreateAcquisitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	acq, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, acq)
}

// Update godoc
// @Summary Update acquisition
// @Description Partial update: review status, observations, or a full item replacement that recomputes totals
// @Tags Acquisitions
// @Accept json
// @Produce json
// @Param id path string true "Acquisition ID"
// @Param payload body models.UpdateAcquisitionInput true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /acquisitions/{id} [patch]
func (h *AcquisitionHandler) Update(c *gin.Context) {
	var input models.UpdateAcquisitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	acq, err := h.service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, acq, nil)
}

// Get godoc
// @Summary Get acquisition by id
// @Tags Acquisitions
// @Produce json
// @Param id path string true "Acquisition ID"
// @Success 200 {object} response.Envelope
// @Router /acquisitions/{id} [get]
func (h *AcquisitionHandler) Get(c *gin.Context) {
	acq, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, acq, nil)
}

// List godoc
// @Summary List acquisitions
// @Tags Acquisitions
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /acquisitions [get]
func (h *AcquisitionHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	acquisitions, total, err := h.service.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, acquisitions, paginationFor(page, pageSize, total))
}

// Delete godoc
// @Summary Delete acquisition
// @Tags Acquisitions
// @Param id path string true "Acquisition ID"
// @Success 204
// @Router /acquisitions/{id} [delete]
func (h *AcquisitionHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
