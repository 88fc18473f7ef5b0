package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/internal/service"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
	"github.com/univalle-lab/labstock-api/pkg/response"
)

// LabHandler handles lab, lab manager and teacher endpoints.
type LabHandler struct {
	service *service.LabService
}

// NewLabHandler constructs a lab handler.
func NewLabHandler(svc *service.LabService) *LabHandler {
	return &LabHandler{service: svc}
}

type createLabPayload struct {
	Name      string  `json:"name" binding:"required"`
	Location  string  `json:"location"`
	ManagerID *string `json:"manager_id"`
}

// CreateLab godoc
// @Summary Create lab
// @Tags Labs
// @Accept json
// @Produce json
// @Param payload body createLabPayload true "Lab payload"
// @Success 201 {object} response.Envelope
// @Router /labs [post]
func (h *LabHandler) CreateLab(c *gin.Context) {
	var payload createLabPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lab, err := h.service.CreateLab(c.Request.Context(), payload.Name, payload.Location, payload.ManagerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lab)
}

// GetLab godoc
// @Summary Get lab by id
// @Tags Labs
// @Produce json
// @Param id path string true "Lab ID"
// @Success 200 {object} response.Envelope
// @Router /labs/{id} [get]
func (h *LabHandler) GetLab(c *gin.Context) {
	lab, err := h.service.GetLab(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lab, nil)
}

// ListLabs godoc
// @Summary List labs
// @Tags Labs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /labs [get]
func (h *LabHandler) ListLabs(c *gin.Context) {
	labs, err := h.service.ListLabs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, labs, nil)
}

type assignManagerPayload struct {
	ManagerID string `json:"manager_id" binding:"required"`
}

// AssignManager godoc
// @Summary Assign a manager to a lab
// @Tags Labs
// @Accept json
// @Param id path string true "Lab ID"
// @Param payload body assignManagerPayload true "Manager payload"
// @Success 204
// @Router /labs/{id}/manager [put]
func (h *LabHandler) AssignManager(c *gin.Context) {
	var payload assignManagerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.AssignManager(c.Request.Context(), c.Param("id"), payload.ManagerID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteLab godoc
// @Summary Delete lab
// @Tags Labs
// @Param id path string true "Lab ID"
// @Success 204
// @Router /labs/{id} [delete]
func (h *LabHandler) DeleteLab(c *gin.Context) {
	if err := h.service.DeleteLab(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateManager godoc
// @Summary Create lab manager
// @Tags Labs
// @Accept json
// @Produce json
// @Param payload body models.LabManager true "Manager payload"
// @Success 201 {object} response.Envelope
// @Router /lab-managers [post]
func (h *LabHandler) CreateManager(c *gin.Context) {
	var manager models.LabManager
	if err := c.ShouldBindJSON(&manager); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	created, err := h.service.CreateManager(c.Request.Context(), &manager)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// ListManagers godoc
// @Summary List lab managers
// @Tags Labs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lab-managers [get]
func (h *LabHandler) ListManagers(c *gin.Context) {
	managers, err := h.service.ListManagers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, managers, nil)
}

// CreateTeacher godoc
// @Summary Create teacher
// @Tags Labs
// @Accept json
// @Produce json
// @Param payload body models.Teacher true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *LabHandler) CreateTeacher(c *gin.Context) {
	var teacher models.Teacher
	if err := c.ShouldBindJSON(&teacher); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	created, err := h.service.CreateTeacher(c.Request.Context(), &teacher)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// GetTeacher godoc
// @Summary Get teacher by id
// @Tags Labs
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *LabHandler) GetTeacher(c *gin.Context) {
	teacher, err := h.service.GetTeacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// ListTeachers godoc
// @Summary List teachers
// @Tags Labs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *LabHandler) ListTeachers(c *gin.Context) {
	teachers, err := h.service.ListTeachers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}
