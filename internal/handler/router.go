package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/univalle-lab/labstock-api/internal/middleware"
	"github.com/univalle-lab/labstock-api/internal/models"
	"github.com/univalle-lab/labstock-api/internal/service"
	"github.com/univalle-lab/labstock-api/pkg/config"
	"github.com/univalle-lab/labstock-api/pkg/logger"
	corsmiddleware "github.com/univalle-lab/labstock-api/pkg/middleware/cors"
	reqidmiddleware "github.com/univalle-lab/labstock-api/pkg/middleware/requestid"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth            *AuthHandler
	Supplies        *SupplyHandler
	Requests        *UsageRequestHandler
	StudentRequests *StudentRequestHandler
	Maintenance     *MaintenanceHandler
	Damaged         *DamagedHandler
	Alerts          *AlertHandler
	Movements       *MovementHandler
	Acquisitions    *AcquisitionHandler
	Practices       *PracticeHandler
	Reference       *ReferenceHandler
	Labs            *LabHandler
	Students        *StudentHandler
	Reports         *ReportHandler
	Metrics         *MetricsHandler
}

// NewRouter assembles the gin engine: ambient middleware, public
// endpoints and the authenticated API group.
func NewRouter(cfg *config.Config, logr *zap.Logger, auth *service.AuthService, metrics *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.POST("/auth/login", h.Auth.Login)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleLabManager)
	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleLabManager, models.RoleTeacher, models.RoleStudent)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(auth))
	{
		api.GET("/auth/me", h.Auth.Me)
		api.POST("/auth/register", middleware.RequireRoles(models.RoleAdmin), h.Auth.Register)

		api.GET("/supplies", anyRole, h.Supplies.List)
		api.GET("/supplies/in-use", staff, h.Requests.InUseSupplies)
		api.GET("/supplies/:id", anyRole, h.Supplies.Get)
		api.POST("/supplies", staff, h.Supplies.Create)
		api.PATCH("/supplies/:id", staff, h.Supplies.Update)
		api.DELETE("/supplies/:id", staff, h.Supplies.Delete)

		api.GET("/requests", staff, h.Requests.List)
		api.GET("/requests/:id", anyRole, h.Requests.Get)
		api.POST("/requests", middleware.RequireRoles(models.RoleAdmin, models.RoleLabManager, models.RoleTeacher), h.Requests.Create)
		api.POST("/requests/:id/approve", staff, h.Requests.Approve)
		api.POST("/requests/:id/reject", staff, h.Requests.Reject)
		api.POST("/requests/:id/complete", staff, h.Requests.Complete)
		api.DELETE("/requests/:id", staff, h.Requests.Delete)
		api.POST("/requests/:id/lines", staff, h.Requests.AddLine)
		api.PATCH("/requests/lines/:lineId", staff, h.Requests.UpdateLine)
		api.DELETE("/requests/lines/:lineId", staff, h.Requests.DeleteLine)

		api.GET("/student-requests", staff, h.StudentRequests.List)
		api.GET("/student-requests/:id", anyRole, h.StudentRequests.Get)
		api.POST("/student-requests", anyRole, h.StudentRequests.Create)
		api.POST("/student-requests/:id/approve", staff, h.StudentRequests.Approve)
		api.POST("/student-requests/:id/reject", staff, h.StudentRequests.Reject)
		api.POST("/student-requests/:id/complete", staff, h.StudentRequests.Complete)
		api.POST("/student-requests/:id/lines", staff, h.StudentRequests.AddLines)
		api.DELETE("/student-requests/:id", staff, h.StudentRequests.Delete)

		api.GET("/maintenance", staff, h.Maintenance.List)
		api.GET("/maintenance/:id", staff, h.Maintenance.Get)
		api.POST("/maintenance", staff, h.Maintenance.Start)
		api.POST("/maintenance/:id/finish", staff, h.Maintenance.Finish)

		api.GET("/damaged-items", staff, h.Damaged.List)
		api.GET("/damaged-items/:id", staff, h.Damaged.Get)
		api.POST("/damaged-items", staff, h.Damaged.Register)
		api.PATCH("/damaged-items/:id", staff, h.Damaged.UpdateState)

		api.GET("/alerts", staff, h.Alerts.List)
		api.POST("/alerts/:id/resolve", staff, h.Alerts.Resolve)

		api.GET("/movements", staff, h.Movements.List)
		api.GET("/movements/:id", staff, h.Movements.Get)
		api.DELETE("/movements", middleware.RequireRoles(models.RoleAdmin), h.Movements.Purge)

		api.GET("/acquisitions", staff, h.Acquisitions.List)
		api.GET("/acquisitions/:id", staff, h.Acquisitions.Get)
		api.POST("/acquisitions", staff, h.Acquisitions.Create)
		api.PATCH("/acquisitions/:id", staff, h.Acquisitions.Update)
		api.DELETE("/acquisitions/:id", staff, h.Acquisitions.Delete)

		api.GET("/practices", anyRole, h.Practices.List)
		api.GET("/practices/:id", anyRole, h.Practices.Get)
		api.POST("/practices", staff, h.Practices.Create)
		api.DELETE("/practices/:id", staff, h.Practices.Delete)

		api.GET("/careers", anyRole, h.Reference.ListCareers)
		api.POST("/careers", staff, h.Reference.CreateCareer)
		api.DELETE("/careers/:id", staff, h.Reference.DeleteCareer)
		api.GET("/semesters", anyRole, h.Reference.ListSemesters)
		api.POST("/semesters", staff, h.Reference.CreateSemester)
		api.DELETE("/semesters/:id", staff, h.Reference.DeleteSemester)
		api.GET("/subjects", anyRole, h.Reference.ListSubjects)
		api.POST("/subjects", staff, h.Reference.CreateSubject)
		api.DELETE("/subjects/:id", staff, h.Reference.DeleteSubject)

		api.GET("/labs", anyRole, h.Labs.ListLabs)
		api.GET("/labs/:id", anyRole, h.Labs.GetLab)
		api.POST("/labs", staff, h.Labs.CreateLab)
		api.PUT("/labs/:id/manager", staff, h.Labs.AssignManager)
		api.DELETE("/labs/:id", staff, h.Labs.DeleteLab)
		api.GET("/lab-managers", staff, h.Labs.ListManagers)
		api.POST("/lab-managers", staff, h.Labs.CreateManager)
		api.GET("/teachers", staff, h.Labs.ListTeachers)
		api.GET("/teachers/:id", staff, h.Labs.GetTeacher)
		api.POST("/teachers", staff, h.Labs.CreateTeacher)

		api.GET("/students", staff, h.Students.List)
		api.GET("/students/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleLabManager), "SELF"), h.Students.Get)
		api.POST("/students", staff, h.Students.Create)
		api.DELETE("/students/:id", staff, h.Students.Delete)
		api.GET("/students/:id/requests", middleware.RBAC(string(models.RoleAdmin), string(models.RoleLabManager), "SELF"), h.StudentRequests.ListByStudent)
		api.GET("/students/:id/loaned-supplies", middleware.RBAC(string(models.RoleAdmin), string(models.RoleLabManager), "SELF"), h.StudentRequests.LoanedSupplies)

		api.GET("/reports/inventory.csv", staff, h.Reports.InventoryCSV)
		api.GET("/reports/movements.csv", staff, h.Reports.MovementsCSV)
		api.GET("/reports/requests.csv", staff, h.Reports.RequestsCSV)
		api.GET("/reports/student-requests.csv", staff, h.Reports.StudentRequestsCSV)
		api.GET("/reports/acquisitions.csv", staff, h.Reports.AcquisitionsCSV)
		api.POST("/reports/inventory.pdf", staff, h.Reports.InventoryPDF)
		api.POST("/reports/movements.pdf", staff, h.Reports.MovementsPDF)
		api.POST("/reports/requests.pdf", staff, h.Reports.RequestsPDF)
		api.POST("/reports/student-requests.pdf", staff, h.Reports.StudentRequestsPDF)
		api.POST("/reports/acquisitions.pdf", staff, h.Reports.AcquisitionsPDF)
	}

	return r
}
