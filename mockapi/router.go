package mockapi

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"ai-character-chat/widget/pkg/config"
	"ai-character-chat/widget/pkg/errors"
	"ai-character-chat/widget/pkg/logger"
	"ai-character-chat/widget/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

var startTime = time.Now()

// Router is the mock backend's HTTP surface.
type Router struct {
	Engine *gin.Engine
	Logger *logger.Logger
	Store  *Store
}

// NewRouter wires the gin engine with the ambient middleware stack and all
// routes.
func NewRouter(store *Store, log *logger.Logger, cfg *config.Config) *Router {
	engine := gin.New()
	engine.Use(logger.Middleware(log))
	engine.Use(errors.RecoveryWithLogger(log))
	engine.Use(errors.ErrorHandler(log))
	engine.Use(middleware.RequestID())

	rateLimiter := middleware.NewRateLimiter(log, middleware.RateLimiterOptions{
		Limit:          rate.Limit(cfg.Mock.RateLimit),
		Burst:          cfg.Mock.RateLimitBurst,
		ExpiryDuration: time.Hour,
		KeyFunc:        func(c *gin.Context) string { return c.ClientIP() },
	})
	engine.Use(rateLimiter.Middleware())

	r := &Router{Engine: engine, Logger: log, Store: store}
	r.setupRoutes(NewHandler(store, log, cfg.Mock.StreamDelay))
	return r
}

func (r *Router) setupRoutes(h *Handler) {
	api := r.Engine.Group("/api")
	{
		api.POST("/createAnonymousUser", h.CreateAnonymousUser)
		api.POST("/onboardUser", h.OnboardUser)
		api.POST("/getUserChats", h.GetUserChats)
		api.POST("/listCharacters", h.ListCharacters)
		api.POST("/newChat", h.NewChat)
		api.POST("/getChatHistory", h.GetChatHistory)
		api.POST("/chat/stream", h.StreamChat)
	}

	r.Engine.GET("/healthz", r.healthHandler)
	r.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (r *Router) healthHandler(c *gin.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   os.Getenv("APP_VERSION"),
		"uptime_s":  int(time.Since(startTime).Seconds()),
		"timestamp": time.Now().Format(time.RFC3339),
		"memory": gin.H{
			"alloc_mb":  memStats.Alloc / 1024 / 1024,
			"gc_cycles": memStats.NumGC,
		},
	})
}
