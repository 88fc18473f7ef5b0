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

// UsageRequestHandler handles staff usage request endpoints.
type UsageRequestHandler struct {
	service *service.UsageRequestService
}

// NewUsageRequestHandler constructs a usage request handler.
func NewUsageRequestHandler(svc *service.UsageRequestService) *UsageRequestHandler {
	return &UsageRequestHandler{service: svc}
}

func requestFilterFrom(c *gin.Context) models.RequestFilter {
	var filter models.RequestFilter
	filter.State = models.RequestState(c.Query("state"))
	filter.TeacherID = c.Query("teacher_id")
	filter.LabID = c.Query("lab_id")
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
// @Summary List usage requests
// @Tags Requests
// @Produce json
// @Param state query string false "Filter by state"
// @Param teacher_id query string false "Filter by teacher"
// @Param lab_id query string false "Filter by lab"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *UsageRequestHandler) List(c *gin.Context) {
	filter := requestFilterFrom(c)
	requests, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, paginationFor(filter.Page, filter.PageSize, total))
}

// InUseSupplies godoc
// @Summary List supplies out on approved requests for a manager's labs
// @Tags Supplies
// @Produce json
// @Param manager_id query string true "Lab manager ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /supplies/in-use [get]
func (h *UsageRequestHandler) InUseSupplies(c *gin.Context) {
	supplies, err := h.service.InUseByManager(c.Request.Context(), c.Query("manager_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supplies, nil)
}

// Get godoc
// @Summary Get usage request by id
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *UsageRequestHandler) Get(c *gin.Context) {
	req, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Create godoc
// @Summary Create usage request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body models.CreateUsageRequestInput true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /requests [post]
func (h *UsageRequestHandler) Create(c *gin.Context) {
	var input models.CreateUsageRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, req)
}

// Approve godoc
// @Summary Approve usage request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/approve [post]
func (h *UsageRequestHandler) Approve(c *gin.Context) {
	req, err := h.service.Approve(c.Request.Context(), c.Param("id"), responsibleFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Reject godoc
// @Summary Reject usage request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/reject [post]
func (h *UsageRequestHandler) Reject(c *gin.Context) {
	req, err := h.service.Reject(c.Request.Context(), c.Param("id"), responsibleFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Complete godoc
// @Summary Complete usage request with optional losses
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body models.ReturnInput false "Return payload"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/complete [post]
func (h *UsageRequestHandler) Complete(c *gin.Context) {
	var input models.ReturnInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	if input.Responsible == "" {
		input.Responsible = responsibleFrom(c)
	}
	req, err := h.service.Complete(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Delete godoc
// @Summary Delete usage request
// @Tags Requests
// @Param id path string true "Request ID"
// @Success 204
// @Router /requests/{id} [delete]
func (h *UsageRequestHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddLine godoc
// @Summary Add a supply line to a request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body models.RequestLineInput true "Line payload"
// @Success 201 {object} response.Envelope
// @Router /requests/{id}/lines [post]
func (h *UsageRequestHandler) AddLine(c *gin.Context) {
	var input models.RequestLineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	line, err := h.service.AddLine(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, line)
}

type updateLinePayload struct {
	PerGroup int `json:"per_group" binding:"required,gt=0"`
}

// UpdateLine godoc
// @Summary Update a request line's per-group quantity
// @Tags Requests
// @Accept json
// @Produce json
// @Param lineId path string true "Line ID"
// @Param payload body updateLinePayload true "Line payload"
// @Success 200 {object} response.Envelope
// @Router /requests/lines/{lineId} [patch]
func (h *UsageRequestHandler) UpdateLine(c *gin.Context) {
	var payload updateLinePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	line, err := h.service.UpdateLine(c.Request.Context(), c.Param("lineId"), payload.PerGroup)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, line, nil)
}

// DeleteLine godoc
// @Summary Delete a request line
// @Tags Requests
// @Param lineId path string true "Line ID"
// @Success 204
// @Router /requests/lines/{lineId} [delete]
func (h *UsageRequestHandler) DeleteLine(c *gin.Context) {
	if err := h.service.DeleteLine(c.Request.Context(), c.Param("lineId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
