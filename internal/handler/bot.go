package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/pkg/apperrors"
	"github.com/GoPolymarket/auctionbot/internal/service"
	"github.com/gin-gonic/gin"
)

type BotHandler struct {
	bot       *service.BotContext
	scheduler *service.Scheduler
	pump      *service.QueryPump
}

func NewBotHandler(bot *service.BotContext, scheduler *service.Scheduler, pump *service.QueryPump) *BotHandler {
	return &BotHandler{bot: bot, scheduler: scheduler, pump: pump}
}

func (h *BotHandler) Status(c *gin.Context) {
	id := h.bot.Identity()
	c.JSON(http.StatusOK, gin.H{
		"enabled":         h.bot.Enabled(),
		"account":         id.Account,
		"character":       id.Character,
		"active_venues":   venueNames(h.bot),
		"pending_queries": h.pump.Pending(),
	})
}

// Tick runs one scheduler step now, outside the runner's cadence.
func (h *BotHandler) Tick(c *gin.Context) {
	if !h.bot.Enabled() {
		c.Error(apperrors.New(apperrors.ErrBotDisabled, "simulation is disabled", nil))
		return
	}
	// bid callbacks dispatched here are drained on later ticks, after the request is gone
	report := h.scheduler.Tick(context.WithoutCancel(c.Request.Context()), h.bot, time.Now())
	c.JSON(http.StatusOK, report)
}

// Disable stops the simulation until restart; the API keeps serving.
func (h *BotHandler) Disable(c *gin.Context) {
	h.bot.Disable("disabled via operator api")
	c.JSON(http.StatusOK, gin.H{"enabled": false})
}

func venueNames(bot *service.BotContext) []string {
	venues := bot.ActiveVenues()
	out := make([]string, len(venues))
	for i, v := range venues {
		out[i] = v.String()
	}
	return out
}
