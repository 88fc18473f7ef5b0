package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univalle-lab/labstock-api/internal/service"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
	"github.com/univalle-lab/labstock-api/pkg/response"
)

// ReferenceHandler handles the academic reference catalog: careers,
// semesters and subjects.
type ReferenceHandler struct {
	service *service.ReferenceService
}

// NewReferenceHandler constructs a reference catalog handler.
func NewReferenceHandler(svc *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: svc}
}

type createCareerPayload struct {
	Name    string `json:"name" binding:"required"`
	Faculty string `json:"faculty"`
}

// CreateCareer godoc
// @Summary Create career
// @Tags Reference
// @Accept json
// @Produce json
// @Param payload body createCareerPayload true "Career payload"
// @Success 201 {object} response.Envelope
// @Router /careers [post]
func (h *ReferenceHandler) CreateCareer(c *gin.Context) {
	var payload createCareerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	career, err := h.service.CreateCareer(c.Request.Context(), payload.Name, payload.Faculty)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, career)
}

// ListCareers godoc
// @Summary List careers
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /careers [get]
func (h *ReferenceHandler) ListCareers(c *gin.Context) {
	careers, err := h.service.ListCareers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, careers, nil)
}

// DeleteCareer godoc
// @Summary Delete career
// @Tags Reference
// @Param id path string true "Career ID"
// @Success 204
// @Router /careers/{id} [delete]
func (h *ReferenceHandler) DeleteCareer(c *gin.Context) {
	if err := h.service.DeleteCareer(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type createSemesterPayload struct {
	Name string `json:"name" binding:"required"`
}

// CreateSemester godoc
// @Summary Create semester
// @Tags Reference
// @Accept json
// @Produce json
// @Param payload body createSemesterPayload true "Semester payload"
// @Success 201 {object} response.Envelope
// @Router /semesters [post]
func (h *ReferenceHandler) CreateSemester(c *gin.Context) {
	var payload createSemesterPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	semester, err := h.service.CreateSemester(c.Request.Context(), payload.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// ListSemesters godoc
// @Summary List semesters
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /semesters [get]
func (h *ReferenceHandler) ListSemesters(c *gin.Context) {
	semesters, err := h.service.ListSemesters(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters, nil)
}

// DeleteSemester godoc
// @Summary Delete semester
// @Tags Reference
// @Param id path string true "Semester ID"
// @Success 204
// @Router /semesters/{id} [delete]
func (h *ReferenceHandler) DeleteSemester(c *gin.Context) {
	if err := h.service.DeleteSemester(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type createSubjectPayload struct {
	Name       string  `json:"name" binding:"required"`
	CareerID   *string `json:"career_id"`
	SemesterID *string `json:"semester_id"`
}

// CreateSubject godoc
// @Summary Create subject
// @Tags Reference
// @Accept json
// @Produce json
// @Param payload body createSubjectPayload true "Subject payload"
// @Success 201 {object} response.Envelope
// @Router /subjects [post]
func (h *ReferenceHandler) CreateSubject(c *gin.Context) {
	var payload createSubjectPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.service.CreateSubject(c.Request.Context(), payload.Name, payload.CareerID, payload.SemesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Reference
// @Produce json
// @Param career_id query string false "Filter by career"
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *ReferenceHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.service.ListSubjects(c.Request.Context(), c.Query("career_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// DeleteSubject godoc
// @Summary Delete subject
// @Tags Reference
// @Param id path string true "Subject ID"
// @Success 204
// @Router /subjects/{id} [delete]
func (h *ReferenceHandler) DeleteSubject(c *gin.Context) {
	if err := h.service.DeleteSubject(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
