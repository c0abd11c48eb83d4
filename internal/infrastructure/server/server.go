package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpHandlers "github.com/teamflow/core/internal/adapters/http"
	"github.com/teamflow/core/internal/adapters/repository"
	"github.com/teamflow/core/internal/application/services"
	"github.com/teamflow/core/internal/infrastructure/config"
	"github.com/teamflow/core/internal/infrastructure/database"
	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/infrastructure/realtime"
)

// Server represents the HTTP server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
	db     *database.DB
	feed   *realtime.Feed
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, db *database.DB, feed *realtime.Feed, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	orgRepo := repository.NewOrganizationRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	timeLogRepo := repository.NewTimeLogRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)
	fieldRepo := repository.NewCustomFieldRepository(db.DB)
	activityRepo := repository.NewActivityRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)
	authRepo := repository.NewAuthRepository(db.DB)

	// Initialize services
	authService := services.NewAuthService(userRepo, authRepo, cfg.JWT, appLogger)
	orgService := services.NewOrganizationService(orgRepo, userRepo, activityRepo, appLogger)
	projectService := services.NewProjectService(projectRepo, orgRepo, activityRepo, appLogger)
	taskService := services.NewTaskService(taskRepo, projectRepo, orgRepo, fieldRepo, activityRepo, appLogger)
	timeLogService := services.NewTimeLogService(timeLogRepo, taskRepo, orgRepo, activityRepo, appLogger)
	commentService := services.NewCommentService(commentRepo, taskRepo, orgRepo, notificationRepo, activityRepo, appLogger)
	feedService := services.NewFeedService(activityRepo, notificationRepo, orgRepo, appLogger)

	// Initialize handlers
	authHandler := httpHandlers.NewAuthHandler(authService, appLogger)
	orgHandler := httpHandlers.NewOrganizationHandler(orgService, appLogger)
	projectHandler := httpHandlers.NewProjectHandler(projectService, appLogger)
	taskHandler := httpHandlers.NewTaskHandler(taskService, commentService, appLogger)
	timeLogHandler := httpHandlers.NewTimeLogHandler(timeLogService, appLogger)
	feedHandler := httpHandlers.NewFeedHandler(feedService, appLogger)
	streamHandler := httpHandlers.NewStreamHandler(feed, appLogger)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
		db:     db,
		feed:   feed,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes(authHandler, orgHandler, projectHandler, taskHandler, timeLogHandler, feedHandler, streamHandler, authService)

	// Setup metrics
	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	// Rate limiting middleware
	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(s.config.Security.RateLimitRequests), Burst: s.config.Security.RateLimitRequests, ExpiresIn: s.config.Security.RateLimitWindow},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			id := ctx.RealIP()
			return id, nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
		},
	}))

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Timeout middleware. The stream endpoint is long-lived and exempt.
	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Path(), "/stream")
		},
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(authHandler *httpHandlers.AuthHandler, orgHandler *httpHandlers.OrganizationHandler, projectHandler *httpHandlers.ProjectHandler, taskHandler *httpHandlers.TaskHandler, timeLogHandler *httpHandlers.TimeLogHandler, feedHandler *httpHandlers.FeedHandler, streamHandler *httpHandlers.StreamHandler, authService *services.AuthService) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Auth routes (public)
	authGroup := v1.Group("/auth")
	authGroup.POST("/signup", authHandler.SignUp)
	authGroup.POST("/signin", authHandler.SignIn)
	authGroup.POST("/refresh", authHandler.RefreshToken)
	authGroup.POST("/signout", authHandler.SignOut, s.authMiddleware(authService))

	// Organization routes (authenticated)
	orgGroup := v1.Group("/organizations", s.authMiddleware(authService))
	orgGroup.GET("", orgHandler.ListOrganizations)
	orgGroup.POST("", orgHandler.CreateOrganization)
	orgGroup.GET("/:id", orgHandler.GetOrganization)
	orgGroup.PUT("/:id", orgHandler.UpdateOrganization)
	orgGroup.DELETE("/:id", orgHandler.DeleteOrganization)
	orgGroup.GET("/:id/members", orgHandler.ListMembers)
	orgGroup.POST("/:id/members", orgHandler.AddMember)
	orgGroup.PUT("/:id/members/:userId", orgHandler.ChangeMemberRole)
	orgGroup.DELETE("/:id/members/:userId", orgHandler.RemoveMember)

	// Organization-scoped listings
	orgGroup.GET("/:id/projects", projectHandler.ListProjects)
	orgGroup.GET("/:id/projects/progress", projectHandler.ListProjectsWithProgress)
	orgGroup.GET("/:id/tasks", taskHandler.ListTasks)
	orgGroup.GET("/:id/fields", taskHandler.ListFields)
	orgGroup.POST("/:id/fields", taskHandler.CreateField)
	orgGroup.GET("/:id/activity", feedHandler.ListActivity)

	// Project routes (authenticated)
	projectGroup := v1.Group("/projects", s.authMiddleware(authService))
	projectGroup.POST("", projectHandler.CreateProject)
	projectGroup.GET("/:id", projectHandler.GetProject)
	projectGroup.PUT("/:id", projectHandler.UpdateProject)
	projectGroup.DELETE("/:id", projectHandler.DeleteProject)
	projectGroup.GET("/:id/tasks", taskHandler.ListProjectTasks)
	projectGroup.GET("/:id/sections", projectHandler.ListSections)
	projectGroup.POST("/:id/sections", projectHandler.CreateSection)
	projectGroup.DELETE("/sections/:sectionId", projectHandler.DeleteSection)

	// Task routes (authenticated)
	taskGroup := v1.Group("/tasks", s.authMiddleware(authService))
	taskGroup.POST("", taskHandler.CreateTask)
	taskGroup.POST("/move", taskHandler.MoveTask)
	taskGroup.POST("/fields", taskHandler.SetFieldValue)
	taskGroup.GET("/:id", taskHandler.GetTask)
	taskGroup.PATCH("/:id", taskHandler.UpdateTask)
	taskGroup.PUT("/:id/status", taskHandler.UpdateTaskStatus)
	taskGroup.DELETE("/:id", taskHandler.DeleteTask)
	taskGroup.GET("/:id/comments", taskHandler.ListTaskComments)
	taskGroup.GET("/:id/time", timeLogHandler.ListTaskTimeLogs)

	// Comment routes (authenticated)
	commentGroup := v1.Group("/comments", s.authMiddleware(authService))
	commentGroup.POST("", taskHandler.CreateComment)
	commentGroup.PUT("/:commentId", taskHandler.UpdateComment)
	commentGroup.DELETE("/:commentId", taskHandler.DeleteComment)

	// Time tracking routes (authenticated)
	timeGroup := v1.Group("/time", s.authMiddleware(authService))
	timeGroup.POST("", timeLogHandler.CreateTimeLog)
	timeGroup.PUT("/:id", timeLogHandler.UpdateTimeLog)
	timeGroup.DELETE("/:id", timeLogHandler.DeleteTimeLog)
	timeGroup.POST("/stop", timeLogHandler.StopOpenTimeLog)

	// Notification routes (authenticated)
	notificationGroup := v1.Group("/notifications", s.authMiddleware(authService))
	notificationGroup.GET("", feedHandler.ListNotifications)
	notificationGroup.PUT("/:id/read", feedHandler.MarkNotificationRead)
	notificationGroup.PUT("/read-all", feedHandler.MarkAllNotificationsRead)

	// Change feed (authenticated)
	v1.GET("/stream", streamHandler.Stream, s.authMiddleware(authService))
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	// Custom metrics middleware
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	// Metrics endpoint
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	// Database health check
	if err := s.db.HealthCheck(); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"stats":  s.db.GetConnectionInfo(),
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  "1.21",
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.db.Ping(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Info("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			msg = he.Message
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else if e, ok := err.(validator.ValidationErrors); ok {
			code = http.StatusBadRequest
			msg = map[string]string{"message": "validation failed", "details": e.Error()}
		} else {
			msg = map[string]string{"message": http.StatusText(code)}
		}

		if code == http.StatusInternalServerError {
			logger.Error("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Error("Error sending response", "error", err)
			}
		}
	}
}
