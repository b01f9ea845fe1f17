package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/WattMatt/greencalc-sa-sub011/internal/analysis"
	"github.com/WattMatt/greencalc-sa-sub011/internal/api/middleware"
	"github.com/WattMatt/greencalc-sa-sub011/internal/observability/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Options configures the HTTP adapter.
type Options struct {
	// Defaults fills electrical settings a request leaves at zero.
	Defaults    analysis.Config
	Validator   analysis.Validator
	CORSOrigins []string
	Logger      *slog.Logger
}

type server struct {
	defaults  analysis.Config
	validator analysis.Validator
	log       *slog.Logger
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(opts Options) *gin.Engine {
	metrics.Init()
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &server{defaults: opts.Defaults, validator: opts.Validator, log: log}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/detect", s.detect)
		v1.POST("/profile", s.profile)
		v1.POST("/validate", s.validate)
		v1.POST("/deltas", s.deltas)
	}

	router.NoRoute(func(c *gin.Context) {
		abort(c, http.StatusNotFound, "NOT_FOUND", "Not found")
	})
	return router
}

// Handler wraps the router with CORS for the browser-based mapping UI.
func Handler(opts Options) http.Handler {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         int((10 * time.Minute).Seconds()),
	})
	return c.Handler(NewRouter(opts))
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: msg}})
}
