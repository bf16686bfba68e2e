package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/OldStager01/dpf-rul/api/handlers"
	"github.com/OldStager01/dpf-rul/api/middleware"
	"github.com/OldStager01/dpf-rul/api/websocket"
	_ "github.com/OldStager01/dpf-rul/docs"
	"github.com/OldStager01/dpf-rul/internal/auth"
	"github.com/OldStager01/dpf-rul/internal/metrics"
	"github.com/OldStager01/dpf-rul/pkg/config"
	"github.com/OldStager01/dpf-rul/pkg/database"
	"github.com/OldStager01/dpf-rul/pkg/database/queries"
)

const maxRequestBody = 1 << 20

// Options carries the collaborators of the server. DB, Cache and Metrics are
// optional.
type Options struct {
	DB         *database.DB
	Runs       handlers.RunManager
	Cache      handlers.RiskCache
	Metrics    *metrics.Metrics
	WebSocket  config.WebSocketConfig
	Prometheus config.PrometheusConfig
	Checks     map[string]handlers.HealthChecker
}

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      config.APIConfig
	opts        Options
	authService *auth.Service
	wsHub       *websocket.Hub
	wsBridge    *websocket.EventBridge
}

func NewServer(cfg config.APIConfig, opts Options) *Server {
	if cfg.JWTSecret == "" || cfg.JWTSecret == "change-me-in-production" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if opts.Metrics == nil {
		opts.Metrics = metrics.Get()
	}
	if opts.Checks == nil {
		opts.Checks = make(map[string]handlers.HealthChecker)
	}
	if opts.DB != nil {
		opts.Checks["database"] = opts.DB
	}

	if cfg.CookieName == "" {
		cfg.CookieName = "auth_token"
	}

	duration := cfg.JWTDuration
	if duration <= 0 {
		duration = 24 * time.Hour
	}
	authService := auth.NewService(cfg.JWTSecret, duration)
	if cfg.JWTIssuer != "" {
		authService = authService.WithIssuer(cfg.JWTIssuer)
	}

	wsHub := websocket.NewHub(&opts.WebSocket)
	wsHub.OnCountChange = opts.Metrics.SetWebSocketConnections

	s := &Server{
		router:      gin.New(),
		config:      cfg,
		opts:        opts,
		authService: authService,
		wsHub:       wsHub,
	}

	s.setupMiddleware()
	s.setupRoutes()

	go wsHub.Run()

	if opts.Runs != nil {
		s.wsBridge = websocket.NewEventBridge(wsHub, opts.Runs.SubscribeAllEvents())
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORS(middleware.CORSFromConfig(s.config.CORS)))
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RequestLogger(s.opts.Metrics, "/health", "/health/live", "/health/ready", s.metricsPath()))
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.RequestSizeLimit(maxRequestBody))

	rateLimiter := middleware.NewRateLimiter(s.config.RateLimit, time.Minute)
	s.router.Use(middleware.RateLimit(rateLimiter))
}

func (s *Server) metricsPath() string {
	if s.opts.Prometheus.Path == "" {
		return "/metrics"
	}
	return s.opts.Prometheus.Path
}

func (s *Server) setupRoutes() {
	var (
		users   handlers.UserStore
		runs    handlers.RunStore
		results handlers.ResultStore
	)
	if s.opts.DB != nil {
		users = queries.NewUserRepository(s.opts.DB.DB)
		runs = queries.NewRunRepository(s.opts.DB.DB)
		results = queries.NewResultRepository(s.opts.DB.DB)
	}

	healthHandler := handlers.NewHealthHandler(s.opts.Checks)
	runHandler := handlers.NewRunHandler(s.opts.Runs, runs, results, s.config)
	vehicleHandler := handlers.NewVehicleHandler(s.opts.Cache, results, s.opts.Runs)

	// Public routes
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if s.opts.Prometheus.Enabled {
		s.router.GET(s.metricsPath(), gin.WrapH(s.opts.Metrics.Handler()))
	}

	// Login needs the analyst table
	if users != nil {
		authHandler := handlers.NewAuthHandler(users, s.authService, s.config)
		s.router.POST("/auth/login", middleware.AuthRateLimiter(), authHandler.Login)
	}

	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	triggerLimiter := middleware.NewEndpointRateLimiter()
	triggerLimiter.AddEndpoint(http.MethodPost, "/runs", 10, time.Minute)

	// Protected routes
	protected := s.router.Group("/")
	protected.Use(middleware.JWTAuth(s.authService, s.config.CookieName))
	{
		protected.POST("/runs", triggerLimiter.Middleware(), runHandler.Trigger)
		protected.GET("/runs", runHandler.List)
		protected.GET("/runs/:id", runHandler.Get)
		protected.GET("/runs/:id/labels", runHandler.Labels)
		protected.GET("/runs/:id/features", runHandler.Features)
		protected.GET("/runs/:id/coefficients", runHandler.Coefficients)
		protected.GET("/runs/:id/risks", runHandler.Risks)

		protected.GET("/vehicles/:vin/risk", vehicleHandler.Risk)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	idle := s.config.IdleTimeout
	if idle <= 0 {
		idle = 60 * time.Second
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  idle,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}
	s.wsHub.Stop()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}

func (s *Server) AuthService() *auth.Service {
	return s.authService
}
