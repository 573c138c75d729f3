package router

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtroode/otptasks-server/internal/api/http/handler"
	"github.com/dtroode/otptasks-server/internal/api/http/middleware"
	"github.com/dtroode/otptasks-server/internal/logger"
	"github.com/dtroode/otptasks-server/internal/metrics"
	"github.com/dtroode/otptasks-server/internal/model"
	"github.com/dtroode/otptasks-server/internal/service"
)

// Options controls the public surface of the router.
type Options struct {
	BasePath       string
	AllowedOrigins []string
	EchoOTP        bool
}

// Router wires handlers and middleware into a gin engine.
type Router struct {
	authService    *service.Auth
	taskService    *service.Task
	transactor     model.Transactor
	contextManager model.ContextManager
	db             handler.Pinger
	metrics        *metrics.Metrics
	gatherer       prometheus.Gatherer
	opts           Options
	logger         *logger.Logger
}

// New creates new HTTP Router instance.
func New(
	authService *service.Auth,
	taskService *service.Task,
	transactor model.Transactor,
	contextManager model.ContextManager,
	db handler.Pinger,
	metrics *metrics.Metrics,
	gatherer prometheus.Gatherer,
	opts Options,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		taskService:    taskService,
		transactor:     transactor,
		contextManager: contextManager,
		db:             db,
		metrics:        metrics,
		gatherer:       gatherer,
		opts:           opts,
		logger:         logger,
	}
}

// Register builds the engine with every route and middleware.
func (r *Router) Register() *gin.Engine {
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.NewLogging(r.logger).Handle,
		r.metrics.Middleware(),
		cors.New(corsConfig(r.opts.AllowedOrigins)),
	)
	engine.NoRoute(func(c *gin.Context) {
		handler.AbortWithDetail(c, http.StatusNotFound, "Not Found")
	})

	health := handler.NewHealth(r.db, r.logger)
	engine.GET("/healthz", health.Check)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	api := engine.Group(r.opts.BasePath)
	authenticate := middleware.NewAuthenticate(r.authService, r.transactor, r.contextManager, r.logger)

	r.registerAuthRoutes(api, authenticate)
	r.registerTaskRoutes(api, authenticate)

	return engine
}

func (r *Router) registerAuthRoutes(api *gin.RouterGroup, authenticate *middleware.Authenticate) {
	authHandler := handler.NewAuth(r.authService, r.transactor, r.contextManager, r.metrics, r.opts.EchoOTP, r.logger)

	auth := api.Group("/auth")
	auth.POST("/request-otp", authHandler.RequestOTP)
	auth.POST("/login-otp", authHandler.LoginOTP)
	auth.GET("/me", authenticate.Handle, authHandler.Me)
}

func (r *Router) registerTaskRoutes(api *gin.RouterGroup, authenticate *middleware.Authenticate) {
	taskHandler := handler.NewTask(r.taskService, r.transactor, r.contextManager, r.metrics, r.logger)

	tasks := api.Group("/tasks", authenticate.Handle)
	tasks.GET("/", taskHandler.List)
	tasks.GET("/:id", taskHandler.Get)
	tasks.POST("/", taskHandler.Create)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	// Browsers reject credentialed responses for a wildcard origin.
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
