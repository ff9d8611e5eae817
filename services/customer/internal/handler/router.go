package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"example.com/food-ordering/pkg/metrics"
)

// ReadinessChecker — функция проверки готовности сервиса.
type ReadinessChecker func(ctx context.Context) error

// Router — конфигурация HTTP роутера Customer Service.
type Router struct {
	engine          *gin.Engine
	customerHandler *CustomerHandler
	readinessCheck  ReadinessChecker
}

// RouterConfig — параметры для создания роутера.
type RouterConfig struct {
	CustomerHandler *CustomerHandler
	ReadinessCheck  ReadinessChecker // опциональная проверка готовности для /readyz
	Debug           bool             // Режим отладки Gin
}

// NewRouter создаёт и настраивает HTTP роутер.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	// OpenTelemetry tracing — создаёт spans для Jaeger
	engine.Use(otelgin.Middleware("customer-service"))

	// Prometheus метрики — requests_total, request_duration_seconds
	engine.Use(metrics.GinMetricsMiddleware("customer-service"))

	r := &Router{
		engine:          engine,
		customerHandler: cfg.CustomerHandler,
		readinessCheck:  cfg.ReadinessCheck,
	}

	r.setupRoutes()
	return r
}

// setupRoutes настраивает маршруты API.
func (r *Router) setupRoutes() {
	// Health endpoints для k3s probes
	r.engine.GET("/health", r.livenessCheck)
	r.engine.GET("/healthz", r.livenessCheck)
	r.engine.GET("/readyz", r.readinessCheckHandler)

	v1 := r.engine.Group("/api/v1")
	{
		v1.POST("/customers", r.customerHandler.CreateCustomer)
		v1.GET("/customers/:customerId", r.customerHandler.GetCustomer)
	}
}

// livenessCheck — liveness probe: процесс жив и отвечает.
func (r *Router) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// readinessCheckHandler — readiness probe: зависимости доступны.
func (r *Router) readinessCheckHandler(c *gin.Context) {
	if r.readinessCheck == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := r.readinessCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Engine возвращает gin.Engine для запуска HTTP сервера.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
