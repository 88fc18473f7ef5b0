package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/univalle-lab/labstock-api/internal/service"
	"github.com/univalle-lab/labstock-api/pkg/response"
)

// ReportHandler exposes inventory and movement reports. CSV renders
// synchronously; PDF generation is queued and picked up from storage.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler constructs a report handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

func sendCSV(c *gin.Context, data []byte, fileName string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// InventoryCSV godoc
// @Summary Download the inventory report as CSV
// @Tags Reports
// @Produce text/csv
// @Success 200 {string} string "CSV document"
// @Router /reports/inventory.csv [get]
func (h *ReportHandler) InventoryCSV(c *gin.Context) {
	data, fileName, err := h.service.InventoryCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	sendCSV(c, data, fileName)
}

// MovementsCSV godoc
// @Summary Download the movement log as CSV
// @Tags Reports
// @Produce text/csv
// @Param supply_id query string false "Filter by supply"
// @Param kind query string false "Filter by movement kind"
// @Param from query string false "RFC3339 range start"
// @Param to query string false "RFC3339 range end"
// @Success 200 {string} string "CSV document"
// @Router /reports/movements.csv [get]
func (h *ReportHandler) MovementsCSV(c *gin.Context) {
	data, fileName, err := h.service.MovementsCSV(c.Request.Context(), movementFilterFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendCSV(c, data, fileName)
}

// RequestsCSV godoc
// @Summary Download the usage request report as CSV
// @Tags Reports
// @Produce text/csv
// @Param state query string false "Filter by state"
// @Param teacher_id query string false "Filter by teacher"
// @Param lab_id query string false "Filter by lab"
// @Success 200 {string} string "CSV document"
// @Router /reports/requests.csv [get]
func (h *ReportHandler) RequestsCSV(c *gin.Context) {
	data, fileName, err := h.service.RequestsCSV(c.Request.Context(), requestFilterFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendCSV(c, data, fileName)
}

// StudentRequestsCSV godoc
// @Summary Download the student request report as CSV
// @Tags Reports
// @Produce text/csv
// @Param state query string false "Filter by state"
// @Param lab_id query string false "Filter by lab"
// @Success 200 {string} string "CSV document"
// @Router /reports/student-requests.csv [get]
func (h *ReportHandler) StudentRequestsCSV(c *gin.Context) {
	data, fileName, err := h.service.StudentRequestsCSV(c.Request.Context(), requestFilterFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendCSV(c, data, fileName)
}

// AcquisitionsCSV godoc
// @Summary Download the acquisition report as CSV
// @Tags Reports
// @Produce text/csv
// @Success 200 {string} string "CSV document"
// @Router /reports/acquisitions.csv [get]
func (h *ReportHandler) AcquisitionsCSV(c *gin.Context) {
	data, fileName, err := h.service.AcquisitionsCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	sendCSV(c, data, fileName)
}

// InventoryPDF godoc
// @Summary Queue inventory PDF generation
// @Tags Reports
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /reports/inventory.pdf [post]
func (h *ReportHandler) InventoryPDF(c *gin.Context) {
	fileName, err := h.service.EnqueueInventoryPDF(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"file": fileName}, nil)
}

// MovementsPDF godoc
// @Summary Queue movement log PDF generation
// @Tags Reports
// @Produce json
// @Param supply_id query string false "Filter by supply"
// @Param kind query string false "Filter by movement kind"
// @Success 202 {object} response.Envelope
// @Router /reports/movements.pdf [post]
func (h *ReportHandler) MovementsPDF(c *gin.Context) {
	fileName, err := h.service.EnqueueMovementsPDF(c.Request.Context(), movementFilterFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"file": fileName}, nil)
}

// RequestsPDF godoc
// @Summary Queue usage request report PDF generation
// @Tags Reports
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /reports/requests.pdf [post]
func (h *ReportHandler) RequestsPDF(c *gin.Context) {
	fileName, err := h.service.EnqueueRequestsPDF(c.Request.Context(), requestFilterFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"file": fileName}, nil)
}

// StudentRequestsPDF godoc
// @Summary Queue student request report PDF generation
// @Tags Reports
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /reports/student-requests.pdf [post]
func (h *ReportHandler) StudentRequestsPDF(c *gin.Context) {
	fileName, err := h.service.EnqueueStudentRequestsPDF(c.Request.Context(), requestFilterFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"file": fileName}, nil)
}

// AcquisitionsPDF godoc
// @Summary Queue acquisition report PDF generation
// @Tags Reports
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /reports/acquisitions.pdf [post]
func (h *ReportHandler) AcquisitionsPDF(c *gin.Context) {
	fileName, err := h.service.EnqueueAcquisitionsPDF(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"file": fileName}, nil)
}
