package handler

import (
	"net/http"

	"github.com/GoPolymarket/auctionbot/internal/config"
	"github.com/GoPolymarket/auctionbot/internal/middleware"
	"github.com/GoPolymarket/auctionbot/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Venues   *VenueHandler
	Index    *IndexHandler
	Activity *ActivityHandler
	Bot      *BotHandler
}

// NewRouter wires middleware and routes. Reads are open, writes need the admin key.
func NewRouter(cfg *config.Config, h Handlers, journal service.ActivitySink) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AuditMiddleware(journal))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "auctionbot"})
	})
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/v1")
	{
		v1.GET("/venues", h.Venues.List)
		v1.GET("/venues/:venue", h.Venues.Get)
		v1.GET("/index", h.Index.Sizes)
		v1.GET("/activity", h.Activity.List)
		v1.GET("/activity/daily", h.Activity.Daily)
		v1.GET("/activity/stream", h.Activity.Stream)
		v1.GET("/bot", h.Bot.Status)
	}

	admin := r.Group("/v1")
	admin.Use(middleware.AdminMiddleware(cfg))
	admin.Use(middleware.RateLimitMiddleware(middleware.NewClientLimiter(cfg.Auth.AdminRatePerSec, cfg.Auth.AdminBurst)))
	admin.Use(middleware.ReadOnlyMiddleware(cfg.Auth.ReadOnly))
	admin.Use(middleware.IdempotencyMiddleware(middleware.NewInMemIdempotencyStore()))
	{
		admin.POST("/venues/:venue/commands", h.Venues.Command)
		admin.PUT("/venues/:venue/min-items", h.Venues.SetMinItems)
		admin.PUT("/venues/:venue/max-items", h.Venues.SetMaxItems)
		admin.PUT("/venues/:venue/percentages", h.Venues.SetPercentages)
		admin.POST("/tick", h.Bot.Tick)
		admin.DELETE("/bot", h.Bot.Disable)
	}
	return r
}
