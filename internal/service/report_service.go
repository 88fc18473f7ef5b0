package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/models"
	appErrors "github.com/univalle-lab/labstock-api/pkg/errors"
	"github.com/univalle-lab/labstock-api/pkg/export"
	"github.com/univalle-lab/labstock-api/pkg/jobs"
)

type reportSupplyLister interface {
	List(ctx context.Context, filter models.SupplyFilter) ([]models.Supply, int, error)
}

type reportMovementLister interface {
	List(ctx context.Context, filter models.MovementFilter) ([]models.Movement, int, error)
}

type reportRequestLister interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.UsageRequest, int, error)
}

type reportStudentRequestLister interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.StudentRequest, int, error)
}

type reportAcquisitionLister interface {
	List(ctx context.Context, page, pageSize int) ([]models.Acquisition, int, error)
}

// ReportConfig configures report rendering.
type ReportConfig struct {
	StorageDir        string
	WorkerConcurrency int
	WorkerRetries     int
}

type pdfJobPayload struct {
	kind          string
	filter        models.MovementFilter
	requestFilter models.RequestFilter
	fileName      string
}

// ReportService renders inventory and movement reports. CSV downloads are
// rendered inline; PDF rendering goes through the background queue and
// the file lands in the storage directory.
type ReportService struct {
	supplies        reportSupplyLister
	movements       reportMovementLister
	requests        reportRequestLister
	studentRequests reportStudentRequestLister
	acquisitions    reportAcquisitionLister
	csv             *export.CSVExporter
	pdf             *export.PDFExporter
	queue           *jobs.Queue
	logger          *zap.Logger
	cfg             ReportConfig
}

// NewReportService constructs the service and its rendering queue. Call
// Start before enqueueing PDF reports and Stop on shutdown.
func NewReportService(
	supplies reportSupplyLister,
	movements reportMovementLister,
	requests reportRequestLister,
	studentRequests reportStudentRequestLister,
	acquisitions reportAcquisitionLister,
	logger *zap.Logger,
	cfg ReportConfig,
) *ReportService {
	if cfg.StorageDir == "" {
		cfg.StorageDir = os.TempDir()
	}
	s := &ReportService{
		supplies:        supplies,
		movements:       movements,
		requests:        requests,
		studentRequests: studentRequests,
		acquisitions:    acquisitions,
		csv:             export.NewCSVExporter(),
		pdf:             export.NewPDFExporter(),
		logger:          logger,
		cfg:             cfg,
	}
	s.queue = jobs.NewQueue("report-pdf", s.handlePDFJob, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the PDF rendering workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the rendering workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// InventoryCSV renders the full inventory as CSV.
func (s *ReportService) InventoryCSV(ctx context.Context) ([]byte, string, error) {
	dataset, _, err := s.inventoryDataset(ctx)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render inventory csv")
	}
	return payload, s.fileName("inventory", "csv"), nil
}

// MovementsCSV renders the movement log as CSV.
func (s *ReportService) MovementsCSV(ctx context.Context, filter models.MovementFilter) ([]byte, string, error) {
	dataset, err := s.movementsDataset(ctx, filter)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render movements csv")
	}
	return payload, s.fileName("movements", "csv"), nil
}

// RequestsCSV renders the staff usage request log as CSV.
func (s *ReportService) RequestsCSV(ctx context.Context, filter models.RequestFilter) ([]byte, string, error) {
	dataset, err := s.requestsDataset(ctx, filter)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render requests csv")
	}
	return payload, s.fileName("requests", "csv"), nil
}

// StudentRequestsCSV renders the student request log as CSV.
func (s *ReportService) StudentRequestsCSV(ctx context.Context, filter models.RequestFilter) ([]byte, string, error) {
	dataset, err := s.studentRequestsDataset(ctx, filter)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render student requests csv")
	}
	return payload, s.fileName("student-requests", "csv"), nil
}

// AcquisitionsCSV renders the purchase order log as CSV.
func (s *ReportService) AcquisitionsCSV(ctx context.Context) ([]byte, string, error) {
	dataset, err := s.acquisitionsDataset(ctx)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render acquisitions csv")
	}
	return payload, s.fileName("acquisitions", "csv"), nil
}

// EnqueueInventoryPDF queues an inventory PDF for rendering and returns
// the name the finished file will carry in the storage directory.
func (s *ReportService) EnqueueInventoryPDF(ctx context.Context) (string, error) {
	fileName := s.fileName("inventory", "pdf")
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Kind:    "inventory",
		Payload: pdfJobPayload{kind: "inventory", fileName: fileName},
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enqueue inventory pdf")
	}
	return fileName, nil
}

// EnqueueMovementsPDF queues a movement log PDF for rendering.
func (s *ReportService) EnqueueMovementsPDF(ctx context.Context, filter models.MovementFilter) (string, error) {
	fileName := s.fileName("movements", "pdf")
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Kind:    "movements",
		Payload: pdfJobPayload{kind: "movements", filter: filter, fileName: fileName},
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enqueue movements pdf")
	}
	return fileName, nil
}

// EnqueueRequestsPDF queues a usage request log PDF.
func (s *ReportService) EnqueueRequestsPDF(ctx context.Context, filter models.RequestFilter) (string, error) {
	fileName := s.fileName("requests", "pdf")
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Kind:    "requests",
		Payload: pdfJobPayload{kind: "requests", requestFilter: filter, fileName: fileName},
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enqueue requests pdf")
	}
	return fileName, nil
}

// EnqueueStudentRequestsPDF queues a student request log PDF.
func (s *ReportService) EnqueueStudentRequestsPDF(ctx context.Context, filter models.RequestFilter) (string, error) {
	fileName := s.fileName("student-requests", "pdf")
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Kind:    "student-requests",
		Payload: pdfJobPayload{kind: "student-requests", requestFilter: filter, fileName: fileName},
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enqueue student requests pdf")
	}
	return fileName, nil
}

// EnqueueAcquisitionsPDF queues a purchase order log PDF.
func (s *ReportService) EnqueueAcquisitionsPDF(ctx context.Context) (string, error) {
	fileName := s.fileName("acquisitions", "pdf")
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Kind:    "acquisitions",
		Payload: pdfJobPayload{kind: "acquisitions", fileName: fileName},
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enqueue acquisitions pdf")
	}
	return fileName, nil
}

func (s *ReportService) handlePDFJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(pdfJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	var (
		dataset export.Dataset
		summary []string
		title   string
		err     error
	)
	switch payload.kind {
	case "inventory":
		title = "Inventory report"
		dataset, summary, err = s.inventoryDataset(ctx)
	case "movements":
		title = "Stock movement report"
		dataset, err = s.movementsDataset(ctx, payload.filter)
	case "requests":
		title = "Usage request report"
		dataset, err = s.requestsDataset(ctx, payload.requestFilter)
	case "student-requests":
		title = "Student request report"
		dataset, err = s.studentRequestsDataset(ctx, payload.requestFilter)
	case "acquisitions":
		title = "Acquisition report"
		dataset, err = s.acquisitionsDataset(ctx)
	default:
		return fmt.Errorf("unknown report kind %q", payload.kind)
	}
	if err != nil {
		return err
	}

	content, err := s.pdf.Render(dataset, title, summary...)
	if err != nil {
		return fmt.Errorf("render %s pdf: %w", payload.kind, err)
	}

	if err := os.MkdirAll(s.cfg.StorageDir, 0o755); err != nil {
		return fmt.Errorf("ensure report storage dir: %w", err)
	}
	path := filepath.Join(s.cfg.StorageDir, payload.fileName)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}

	s.logger.Info("report rendered",
		zap.String("kind", payload.kind),
		zap.String("file", path),
		zap.Int("rows", len(dataset.Rows)))
	return nil
}

func (s *ReportService) inventoryDataset(ctx context.Context) (export.Dataset, []string, error) {
	supplies, total, err := s.supplies.List(ctx, models.SupplyFilter{})
	if err != nil {
		return export.Dataset{}, nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Name", "Category", "Location", "Unit", "Stock", "Min", "Max"},
	}
	belowMin := 0
	for _, supply := range supplies {
		if supply.StockOnHand < supply.StockMin {
			belowMin++
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Name":     supply.Name,
			"Category": supply.Category,
			"Location": supply.Location,
			"Unit":     supply.Unit,
			"Stock":    strconv.Itoa(supply.StockOnHand),
			"Min":      strconv.Itoa(supply.StockMin),
			"Max":      strconv.Itoa(supply.StockMax),
		})
	}
	summary := []string{
		fmt.Sprintf("Supplies: %d", total),
		fmt.Sprintf("Below minimum: %d", belowMin),
		fmt.Sprintf("Generated: %s", time.Now().UTC().Format("2006-01-02 15:04")),
	}
	return dataset, summary, nil
}

func (s *ReportService) movementsDataset(ctx context.Context, filter models.MovementFilter) (export.Dataset, error) {
	movements, _, err := s.movements.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, err
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Supply", "Kind", "Quantity", "Responsible"},
	}
	for _, movement := range movements {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":        movement.DeliveredAt.Format("2006-01-02 15:04"),
			"Supply":      movement.SupplyName,
			"Kind":        string(movement.Kind),
			"Quantity":    strconv.Itoa(movement.Quantity),
			"Responsible": movement.Responsible,
		})
	}
	return dataset, nil
}

func (s *ReportService) requestsDataset(ctx context.Context, filter models.RequestFilter) (export.Dataset, error) {
	filter.Page, filter.PageSize = 0, 0
	requests, _, err := s.requests.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, err
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Request", "Teacher", "Lab", "State", "Students", "Groups"},
	}
	for _, req := range requests {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":     req.StartsAt.Format("2006-01-02 15:04"),
			"Request":  req.ID,
			"Teacher":  req.TeacherID,
			"Lab":      req.LabID,
			"State":    string(req.State),
			"Students": strconv.Itoa(req.StudentCount),
			"Groups":   strconv.Itoa(req.NumGroups),
		})
	}
	return dataset, nil
}

func (s *ReportService) studentRequestsDataset(ctx context.Context, filter models.RequestFilter) (export.Dataset, error) {
	filter.Page, filter.PageSize = 0, 0
	requests, _, err := s.studentRequests.List(ctx, filter)
	if err != nil {
		return export.Dataset{}, err
	}

	dataset := export.Dataset{
		Headers: []string{"Date", "Request", "Student", "Lab", "State"},
	}
	for _, req := range requests {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":    req.StartsAt.Format("2006-01-02 15:04"),
			"Request": req.ID,
			"Student": req.StudentID,
			"Lab":     req.LabID,
			"State":   string(req.State),
		})
	}
	return dataset, nil
}

func (s *ReportService) acquisitionsDataset(ctx context.Context) (export.Dataset, error) {
	acquisitions, _, err := s.acquisitions.List(ctx, 0, 0)
	if err != nil {
		return export.Dataset{}, err
	}

	dataset := export.Dataset{
		Headers: []string{"Issued", "Order", "Requesting unit", "Responsible", "Status", "Total"},
	}
	for _, acq := range acquisitions {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Issued":          acq.IssuedAt.Format("2006-01-02"),
			"Order":           acq.ID,
			"Requesting unit": acq.RequestingUnit,
			"Responsible":     acq.Responsible,
			"Status":          string(acq.Status),
			"Total":           acq.TotalAmount.StringFixed(2),
		})
	}
	return dataset, nil
}

func (s *ReportService) fileName(kind, ext string) string {
	return fmt.Sprintf("%s-%s.%s", kind, time.Now().UTC().Format("20060102-150405"), ext)
}
