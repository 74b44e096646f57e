package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/taskmaster/kanban/docs"
	"github.com/taskmaster/kanban/internal/adapters/audit"
	"github.com/taskmaster/kanban/internal/adapters/feed"
	httpHandlers "github.com/taskmaster/kanban/internal/adapters/http"
	"github.com/taskmaster/kanban/internal/adapters/repository"
	"github.com/taskmaster/kanban/internal/application/services"
	"github.com/taskmaster/kanban/internal/infrastructure/cache"
	"github.com/taskmaster/kanban/internal/infrastructure/config"
	"github.com/taskmaster/kanban/internal/infrastructure/database"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

const tokenCleanupInterval = time.Hour

// Server represents the HTTP server
type Server struct {
	echo     *echo.Echo
	config   *config.Config
	logger   *logger.Logger
	db       *database.DB
	redis    *redis.Client
	feed     *feed.RedisFeed
	audit    ports.AuditPublisher
	authRepo ports.AuthRepository
	sessions *services.SessionBroker
	stop     context.CancelFunc
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
func New(cfg *config.Config, db *database.DB, rc *redis.Client, appLogger *logger.Logger) (*Server, error) {
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
	taskRepo := repository.NewTaskRepository(db)
	authRepo := repository.NewAuthRepository(db.DB)

	// Live feed and audit trail
	taskFeed := feed.NewRedisFeed(rc, taskRepo, cfg.Feed.ChannelPrefix, cfg.Feed.ReconnectDelay, appLogger)

	var auditPublisher ports.AuditPublisher = audit.Nop{}
	if cfg.Audit.Enabled {
		rabbit, err := audit.NewRabbitPublisher(cfg.Audit.URL, cfg.Audit.Queue, appLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect audit publisher: %w", err)
		}
		auditPublisher = rabbit
	}

	// Initialize services
	sessions := services.NewSessionBroker()
	authService := services.NewAuthService(userRepo, authRepo, sessions, cfg.JWT, appLogger)
	taskService := services.NewTaskService(taskRepo, taskFeed, auditPublisher, appLogger)

	// Initialize handlers
	authHandler := httpHandlers.NewAuthHandler(authService, appLogger)
	taskHandler := httpHandlers.NewTaskHandler(taskService, appLogger)
	streamHandler := httpHandlers.NewStreamHandler(taskFeed, taskService, sessions, cfg.Feed.KeepAlive, appLogger)

	server := &Server{
		echo:     e,
		config:   cfg,
		logger:   appLogger,
		db:       db,
		redis:    rc,
		feed:     taskFeed,
		audit:    auditPublisher,
		authRepo: authRepo,
		sessions: sessions,
	}

	// Setup metrics first so every route is measured
	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes(authHandler, taskHandler, streamHandler, authService)

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
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
				"request_id", values.RequestID,
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
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))

	// Rate limiting middleware
	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(float64(s.config.Security.RateLimitRequests) / s.config.Security.RateLimitWindow.Seconds()),
				Burst:     s.config.Security.RateLimitRequests,
				ExpiresIn: s.config.Security.RateLimitWindow,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(http.StatusForbidden, ports.ErrorResponse{Message: "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(http.StatusTooManyRequests, ports.ErrorResponse{Message: "rate limit exceeded"})
		},
	}))

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Timeout middleware; the live stream is exempt
	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Path(), "/stream")
		},
		Timeout: s.config.Server.RequestTimeout,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(authHandler *httpHandlers.AuthHandler, taskHandler *httpHandlers.TaskHandler, streamHandler *httpHandlers.StreamHandler, authService ports.AuthService) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Auth routes (public)
	authGroup := v1.Group("/auth")
	authGroup.POST("/signup", authHandler.SignUp)
	authGroup.POST("/signin", authHandler.SignIn)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/signout", authHandler.SignOut, s.authMiddleware(authService))

	// Task routes (authenticated)
	taskGroup := v1.Group("/tasks")
	taskGroup.GET("/stream", streamHandler.Stream, queryToken, s.authMiddleware(authService))

	taskGroup.Use(s.authMiddleware(authService))
	taskGroup.GET("", taskHandler.ListTasks)
	taskGroup.POST("", taskHandler.CreateTask)
	taskGroup.GET("/stats", taskHandler.GetStatistics)
	taskGroup.POST("/bulk-delete", taskHandler.BulkDelete)
	taskGroup.POST("/move", taskHandler.MoveTask)
	taskGroup.PATCH("/:id", taskHandler.UpdateTask)
	taskGroup.PUT("/:id/status", taskHandler.SetStatus)
	taskGroup.DELETE("/:id", taskHandler.DeleteTask)
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

	liveSubscriptions := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "kanban_feed_active_subscriptions",
			Help: "Number of open live feed subscriptions",
		},
		func() float64 { return float64(s.feed.ActiveSubscriptions()) },
	)

	snapshotPushes := prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "kanban_feed_snapshots_pushed_total",
			Help: "Total number of snapshots delivered by the live feed",
		},
		func() float64 { return float64(s.feed.Pushes()) },
	)

	sessionEvents := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kanban_session_events_total",
			Help: "Sign ins and sign outs",
		},
		[]string{"event"},
	)

	registry.MustRegister(requestsTotal, requestDuration, liveSubscriptions, snapshotPushes, sessionEvents)

	s.sessions.OnChange(func(ev services.SessionEvent) {
		if ev.Active {
			sessionEvents.WithLabelValues("signin").Inc()
		} else {
			sessionEvents.WithLabelValues("signout").Inc()
		}
	})

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

// queryToken lets EventSource clients, which cannot set headers, pass the
// access token as ?token=.
func queryToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		if req.Header.Get(echo.HeaderAuthorization) == "" {
			if token := c.QueryParam("token"); token != "" {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
			}
		}
		return next(c)
	}
}

// authMiddleware validates JWT tokens
func (s *Server) authMiddleware(authService ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				s.logger.LogSecurityEvent("invalid_token", "", c.RealIP(), map[string]interface{}{
					"error": err.Error(),
				})
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			// Set user claims in context
			c.Set("user", claims.UserID)
			c.Set("user_email", claims.Email)

			return next(c)
		}
	}
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	status := "ok"
	checks := make(map[string]interface{})

	// Database health check
	if err := s.db.HealthCheck(ctx); err != nil {
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

	// Redis carries the live feed
	if err := cache.Ping(ctx, s.redis); err != nil {
		status = "error"
		checks["redis"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["redis"] = map[string]interface{}{
			"status":               "ok",
			"active_subscriptions": s.feed.ActiveSubscriptions(),
		}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  runtime.Version(),
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	ctx := c.Request().Context()
	if err := s.db.HealthCheck(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}
	if err := cache.Ping(ctx, s.redis); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "redis_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server and the refresh token janitor. It blocks
// until the server stops.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	go s.cleanupTokens(ctx)

	srv := &http.Server{
		Addr:        s.config.Server.GetAddr(),
		ReadTimeout: s.config.Server.ReadTimeout,
		IdleTimeout: s.config.Server.IdleTimeout,
		// No WriteTimeout: live streams stay open. Other routes are bounded
		// by the timeout middleware.
	}

	s.logger.Infow("Starting server", "address", srv.Addr)
	if err := s.echo.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	if s.stop != nil {
		s.stop()
	}
	err := s.echo.Shutdown(ctx)
	if cerr := s.audit.Close(); cerr != nil {
		s.logger.Warnw("Failed to close audit publisher", "error", cerr)
	}
	return err
}

func (s *Server) cleanupTokens(ctx context.Context) {
	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.authRepo.CleanupExpiredTokens(ctx)
			if err != nil {
				s.logger.Warnw("Refresh token cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Infow("Removed expired refresh tokens", "count", n)
			}
		}
	}
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		var he *echo.HTTPError
		var ve validator.ValidationErrors
		switch {
		case errors.As(err, &he):
			code = he.Code
			msg = ports.ErrorResponse{Message: fmt.Sprint(he.Message)}
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		case errors.As(err, &ve):
			code = http.StatusBadRequest
			msg = ports.ErrorResponse{Message: "validation failed", Details: map[string]interface{}{"errors": ve.Error()}}
		default:
			msg = ports.ErrorResponse{Message: http.StatusText(code)}
		}

		if code >= http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
