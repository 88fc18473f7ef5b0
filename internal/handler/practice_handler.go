package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/internal/service"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
	"github.com/univalle-lab/labstock-api/pkg/response"
)

// PracticeHandler handles practice template endpoints.
type PracticeHandler struct {
	service *service.PracticeService
}

// NewPracticeHandler constructs a practice handler.
func NewPracticeHandler(svc *service.PracticeService) *PracticeHandler {
	return &PracticeHandler{service: svc}
}

// Create godoc
// @Summary Create practice template
// @Tags Practices
// @Accept json
// @Produce json
// @Param payload body models.CreatePracticeInput true "Practice payload"
// @Success 201 {object} response.Envelope
// @Router /practices [post]
func (h *PracticeHandler) Create(c *gin.Context) {
	var input models.CreatePracticeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	practice, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, practice)
}

// Get godoc
// @Summary Get practice by id
// @Tags Practices
// @Produce json
// @Param id path string true "Practice ID"
// @Success 200 {object} response.Envelope
// @Router /practices/{id} [get]
func (h *PracticeHandler) Get(c *gin.Context) {
	practice, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, practice, nil)
}

// List godoc
// @Summary List practices
// @Tags Practices
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /practices [get]
func (h *PracticeHandler) List(c *gin.Context) {
	practices, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, practices, nil)
}

// Delete godoc
// @Summary Delete practice
// @Tags Practices
// @Param id path string true "Practice ID"
// @Success 204
// @Router /practices/{id} [delete]
func (h *PracticeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
