package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/internal/service"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
	"github.com/univalle-lab/labstock-api/pkg/response"
)

// StudentRequestHandler handles student usage request endpoints.
type StudentRequestHandler struct {
	service *service.StudentRequestService
}

// NewStudentRequestHandler constructs a student request handler.
func NewStudentRequestHandler(svc *service.StudentRequestService) *StudentRequestHandler {
	return &StudentRequestHandler{service: svc}
}

// List godoc
// @Summary List student requests
// @Tags StudentRequests
// @Produce json
// @Param state query string false "Filter by state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /student-requests [get]
func (h *StudentRequestHandler) List(c *gin.Context) {
	filter := requestFilterFrom(c)
	requests, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, paginationFor(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get student request by id
// @Tags StudentRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /student-requests/{id} [get]
func (h *StudentRequestHandler) Get(c *gin.Context) {
	req, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Create godoc
// @Summary Create student request
// @Tags StudentRequests
// @Accept json
// @Produce json
// @Param payload body models.CreateStudentRequestInput true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /student-requests [post]
func (h *StudentRequestHandler) Create(c *gin.Context) {
	var input models.CreateStudentRequestInput
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
// @Summary Approve student request
// @Tags StudentRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /student-requests/{id}/approve [post]
func (h *StudentRequestHandler) Approve(c *gin.Context) {
	req, err := h.service.Approve(c.Request.Context(), c.Param("id"), responsibleFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Reject godoc
// @Summary Reject student request
// @Tags StudentRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /student-requests/{id}/reject [post]
func (h *StudentRequestHandler) Reject(c *gin.Context) {
	req, err := h.service.Reject(c.Request.Context(), c.Param("id"), responsibleFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// AddLines godoc
// @Summary Add supply lines to a student request
// @Tags StudentRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body models.AddStudentLinesInput true "Lines payload"
// @Success 200 {object} response.Envelope
// @Router /student-requests/{id}/lines [post]
func (h *StudentRequestHandler) AddLines(c *gin.Context) {
	var input models.AddStudentLinesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req, err := h.service.AddLines(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Complete godoc
// @Summary Complete student request with optional losses
// @Tags StudentRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body models.ReturnInput false "Return payload"
// @Success 200 {object} response.Envelope
// @Router /student-requests/{id}/complete [post]
func (h *StudentRequestHandler) Complete(c *gin.Context) {
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
// @Summary Delete student request
// @Tags StudentRequests
// @Param id path string true "Request ID"
// @Success 204
// @Router /student-requests/{id} [delete]
func (h *StudentRequestHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListByStudent godoc
// @Summary List a student's requests
// @Tags StudentRequests
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/requests [get]
func (h *StudentRequestHandler) ListByStudent(c *gin.Context) {
	requests, err := h.service.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// LoanedSupplies godoc
// @Summary List the supplies a student holds on loan
// @Tags StudentRequests
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/loaned-supplies [get]
func (h *StudentRequestHandler) LoanedSupplies(c *gin.Context) {
	loaned, err := h.service.LoanedSupplies(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loaned, nil)
}
