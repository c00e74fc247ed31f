package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/vietanh2810/attendance-api/docs"
	v1 "github.com/vietanh2810/attendance-api/internal/api/handler/v1"
	"github.com/vietanh2810/attendance-api/internal/api/middleware"
	"github.com/vietanh2810/attendance-api/internal/config"
	"github.com/vietanh2810/attendance-api/internal/pkg/clock"
	"github.com/vietanh2810/attendance-api/internal/repository"
	"github.com/vietanh2810/attendance-api/internal/repository/dao"
	"github.com/vietanh2810/attendance-api/internal/service"
)

type Server struct {
	Config  *config.AppConfig
	Router  *gin.Engine
	Sweeper *service.Sweeper
}

type handlers struct {
	event      *v1.EventHandler
	attendance *v1.AttendanceHandler
	user       *v1.UserHandler
	admin      *v1.AdminHandler
}

func NewServer(conf *config.AppConfig, db *gorm.DB, notifier service.Notifier) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()
	s.MountHandlers(s.initHandlers(db, notifier))

	return s
}

func (s *Server) initHandlers(db *gorm.DB, notifier service.Notifier) handlers {
	clk := clock.Real{}

	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	ledgerRepo := repository.NewLedgerRepository(dao.NewLedgerDAO(db), dao.NewUserDAO(db))

	lifecycle := service.NewLifecycleService(eventRepo, clk, service.RandomCodes{}, notifier, service.LifecycleConfig{
		CodeAttempts: s.Config.Lifecycle.CodeAttempts,
		CleanupAfter: s.Config.Lifecycle.CleanupAfter,
	})
	attendance := service.NewAttendanceService(eventRepo, ledgerRepo, clk, notifier)
	points := service.NewPointsService(ledgerRepo, clk)
	s.Sweeper = service.NewSweeper(lifecycle, clk)

	return handlers{
		event:      v1.NewEventHandler(lifecycle),
		attendance: v1.NewAttendanceHandler(attendance),
		user:       v1.NewUserHandler(points),
		admin:      v1.NewAdminHandler(s.Sweeper),
	}
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(h handlers) {
	const basePath = "/api/v1"

	authenticated := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		authenticated.GET("/events", h.event.HandleListEvents)
		authenticated.GET("/events/:eventID", h.event.HandleGetEvent)
		authenticated.POST("/attendance", h.attendance.HandleSubmitAttendance)

		authenticated.GET("/users/me", h.user.HandleGetMe)
		authenticated.POST("/users/me", h.user.HandleEnsureMe)
		authenticated.GET("/users/:userID", h.user.HandleGetUser)
		authenticated.GET("/users/:userID/ledger", h.user.HandleGetLedger)
	}

	organizers := authenticated.Group("", middleware.RequireOrganizer())
	{
		organizers.POST("/events", h.event.HandleCreateEvent)
		organizers.PATCH("/events/:eventID", h.event.HandleUpdateEvent)
		organizers.POST("/events/:eventID/code", h.event.HandleGenerateCode)
		organizers.PUT("/events/:eventID/code", h.event.HandleToggleCode)
		organizers.POST("/events/:eventID/end", h.event.HandleEndEvent)
		organizers.POST("/events/:eventID/cancel", h.event.HandleCancelEvent)
		organizers.GET("/events/:eventID/attendees", h.attendance.HandleListAttendees)
	}

	admins := authenticated.Group("", middleware.RequireAdmin())
	{
		admins.DELETE("/events/:eventID", h.event.HandleDeleteEvent)
		admins.POST("/events/:eventID/attendees", h.attendance.HandleAddAttendee)
		admins.POST("/users/:userID/points", h.user.HandleAddPoints)
		admins.POST("/admin/sweep", h.admin.HandleSweep)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Attendance API"
	docs.SwaggerInfo.Description = "Event lifecycle, attendance codes and the points ledger."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
