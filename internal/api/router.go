package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"structural-credit/internal/api/handlers"
	"structural-credit/internal/api/middleware"
	"structural-credit/internal/config"
	"structural-credit/internal/data"
	"structural-credit/internal/metrics"
)

// Deps is everything the HTTP surface needs. Registry receives both the calibration
// and the HTTP metrics and is served on /metrics.
type Deps struct {
	Config         *config.Config
	Logger         zerolog.Logger
	Registry       *prometheus.Registry
	Runs           *data.RunCache[*handlers.Run]
	AllowedOrigins []string
}

// NewRouter wires routes and middleware on a fresh gin engine.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.ErrorHandler(d.Logger))
	router.Use(middleware.Logger(d.Logger))
	router.Use(middleware.Metrics(d.Registry))

	calibrationHandler := handlers.NewCalibrationHandler(d.Config, d.Runs, metrics.New(d.Registry), d.Logger)
	variantHandler := handlers.NewVariantHandler()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	{
		api.GET("/variants", variantHandler.ListVariants)
		api.POST("/calibrate", calibrationHandler.Calibrate)
		api.GET("/runs/:id/records", calibrationHandler.GetRecords)
		api.GET("/runs/:id/stability", calibrationHandler.GetStability)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}

// NewHandler is NewRouter behind CORS. An empty origin list allows any origin.
func NewHandler(d Deps) http.Handler {
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	})
	return c.Handler(NewRouter(d))
}
