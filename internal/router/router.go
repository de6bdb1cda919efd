package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"dsas/internal/audit"
	"dsas/internal/auth"
	"dsas/internal/cache"
	"dsas/internal/config"
	"dsas/internal/handler"
	"dsas/internal/middleware"
	"dsas/internal/model"
)

// Deps bundles what the routes need.
type Deps struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Cache      *cache.Client
	Security   *audit.Security
	JWTService *auth.JWTService
	TokenStore auth.TokenStoreInterface

	Auth    *handler.AuthHandler
	Admin   *handler.AdminHandler
	Patient *handler.PatientHandler
	Doctor  *handler.DoctorHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, d Deps) {
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(d.Logger))
	e.Use(middleware.Recovery(d.Logger))
	e.Use(echomw.BodyLimit("10M"))

	e.Validator = &CustomValidator{validator: validator.New()}
	e.JSONSerializer = handler.JSONSerializer{}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	loginLimit := middleware.RateLimiter(middleware.RateLimitConfig{
		Limit:  d.Config.LoginRateLimit,
		Window: d.Config.LoginRateWindow,
	}, d.Cache, d.Security, d.Logger)
	api.POST("/auth/register", d.Auth.Register, loginLimit)
	api.POST("/auth/login", d.Auth.Login, loginLimit)
	api.POST("/auth/refresh", d.Auth.Refresh)

	// Secured routes (require JWT authentication)
	secured := api.Group("", middleware.JWT(d.JWTService, d.TokenStore))
	secured.POST("/auth/logout", d.Auth.Logout)
	secured.GET("/auth/verify", d.Auth.Verify)

	admin := secured.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.PUT("/users/:userId/verify", d.Admin.SetApproval)
	admin.GET("/pending-users", d.Admin.PendingUsers)
	admin.GET("/users/:role", d.Admin.UsersByRole)
	admin.POST("/assign-doctor", d.Admin.AssignDoctor)
	admin.POST("/unassign-doctor", d.Admin.UnassignDoctor)
	admin.GET("/assignment-data", d.Admin.AssignmentData)
	admin.GET("/all-records", d.Admin.AllRecords)
	admin.GET("/access-logs", d.Admin.AccessLogs)

	patient := secured.Group("/patient", middleware.RequireRole(model.RolePatient))
	patient.POST("/upload", d.Patient.Upload)
	patient.GET("/records", d.Patient.Records)
	patient.GET("/records/:recordId", d.Patient.Record)
	patient.GET("/my-doctor", d.Patient.MyDoctor)

	doctor := secured.Group("/doctor", middleware.RequireRole(model.RoleDoctor))
	doctor.GET("/assigned-patients", d.Doctor.AssignedPatients)
	doctor.GET("/search-patients", d.Doctor.SearchPatients)
	doctor.GET("/patients/:patientId/records", d.Doctor.PatientRecords)
	doctor.GET("/record/:recordId", d.Doctor.Record)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
