package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/market"
	"github.com/GoPolymarket/auctionbot/internal/middleware"
	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/pkg/apperrors"
	"github.com/GoPolymarket/auctionbot/internal/service"
	"github.com/gin-gonic/gin"
)

type VenueHandler struct {
	bot      *service.BotContext
	market   *market.Marketplace
	commands *service.CommandService
}

func NewVenueHandler(bot *service.BotContext, m *market.Marketplace, commands *service.CommandService) *VenueHandler {
	return &VenueHandler{bot: bot, market: m, commands: commands}
}

type BucketStatus struct {
	Bucket   string `json:"bucket"`
	Percent  uint32 `json:"percent"`
	Quota    uint32 `json:"quota"`
	Observed uint32 `json:"observed"`
}

type VenueStatus struct {
	Venue    string              `json:"venue"`
	House    model.HouseID       `json:"house"`
	Listings int                 `json:"listings"`
	MinItems uint32              `json:"min_items"`
	MaxItems uint32              `json:"max_items"`
	LastBid  *time.Time          `json:"last_bid,omitempty"`
	Buckets  []BucketStatus      `json:"buckets"`
	Settings model.VenueSettings `json:"settings"`
}

// CommandRequest is the numeric admin protocol; command may also be a name.
type CommandRequest struct {
	Command json.RawMessage `json:"command" binding:"required"`
	Quality uint8           `json:"quality"`
	Args    []string        `json:"args"`
}

type ValueRequest struct {
	Value *uint32 `json:"value" binding:"required"`
}

type PercentagesRequest struct {
	Percentages []uint32 `json:"percentages" binding:"required"`
}

func (h *VenueHandler) List(c *gin.Context) {
	out := make([]VenueStatus, 0, model.VenueCount)
	for _, v := range model.AllVenues() {
		out = append(out, h.status(v))
	}
	c.JSON(http.StatusOK, out)
}

func (h *VenueHandler) Get(c *gin.Context) {
	venue, ok := h.venue(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.status(venue))
}

func (h *VenueHandler) Command(c *gin.Context) {
	venue, ok := h.venue(c)
	if !ok {
		return
	}
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	cmd, err := service.ParseCommand(strings.Trim(string(req.Command), `"`))
	if err != nil {
		c.Error(err)
		return
	}
	middleware.AddAuditContext(c, "command", cmd.String())
	h.execute(c, venue, cmd, model.Quality(req.Quality), req.Args)
}

func (h *VenueHandler) SetMinItems(c *gin.Context) {
	h.setValue(c, service.CmdMinItems)
}

func (h *VenueHandler) SetMaxItems(c *gin.Context) {
	h.setValue(c, service.CmdMaxItems)
}

func (h *VenueHandler) SetPercentages(c *gin.Context) {
	venue, ok := h.venue(c)
	if !ok {
		return
	}
	var req PercentagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	if len(req.Percentages) != model.BucketCount {
		c.Error(apperrors.NewInvalidRequest("percentages needs 14 values"))
		return
	}
	args := make([]string, len(req.Percentages))
	for i, p := range req.Percentages {
		args[i] = strconv.FormatUint(uint64(p), 10)
	}
	h.execute(c, venue, service.CmdPercentages, 0, args)
}

func (h *VenueHandler) setValue(c *gin.Context, cmd service.Command) {
	venue, ok := h.venue(c)
	if !ok {
		return
	}
	var req ValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	h.execute(c, venue, cmd, 0, []string{strconv.FormatUint(uint64(*req.Value), 10)})
}

func (h *VenueHandler) execute(c *gin.Context, venue model.VenueID, cmd service.Command, q model.Quality, args []string) {
	if err := h.commands.Execute(c.Request.Context(), venue, cmd, q, args); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, h.status(venue))
}

func (h *VenueHandler) venue(c *gin.Context) (model.VenueID, bool) {
	venue, err := model.ParseVenue(c.Param("venue"))
	if err != nil {
		c.Error(apperrors.New(apperrors.ErrNotFound, err.Error(), err))
		return 0, false
	}
	return venue, true
}

func (h *VenueHandler) status(v model.VenueID) VenueStatus {
	cfg := h.bot.Config(v)
	st := VenueStatus{
		Venue:    v.String(),
		House:    v.House(),
		Listings: h.market.House(v).Count(),
		MinItems: cfg.GetMinItems(),
		MaxItems: cfg.GetMaxItems(),
		Settings: cfg.Settings(),
		Buckets:  make([]BucketStatus, 0, model.BucketCount),
	}
	if last := h.bot.LastBid(v); !last.IsZero() {
		st.LastBid = &last
	}
	for _, k := range model.AllBuckets() {
		st.Buckets = append(st.Buckets, BucketStatus{
			Bucket:   k.String(),
			Percent:  cfg.GetPercentages(k),
			Quota:    cfg.GetQuota(k),
			Observed: cfg.ItemCount(k),
		})
	}
	return st
}
