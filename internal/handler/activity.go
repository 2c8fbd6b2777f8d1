package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/pkg/apperrors"
	"github.com/GoPolymarket/auctionbot/internal/pkg/logger"
	"github.com/GoPolymarket/auctionbot/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPingPeriod = 30 * time.Second
)

type ActivityHandler struct {
	svc      *service.ActivityService
	upgrader websocket.Upgrader
}

func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 只读数据流, 不限制来源
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *ActivityHandler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	records, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.Error(apperrors.New(apperrors.ErrInternal, err.Error(), err))
		return
	}
	c.JSON(http.StatusOK, records)
}

// Daily returns today's totals for one venue and kind.
func (h *ActivityHandler) Daily(c *gin.Context) {
	venue := c.Query("venue")
	kind := model.ActivityKind(c.Query("kind"))
	if venue == "" || kind == "" {
		c.Error(apperrors.NewInvalidRequest("venue and kind are required"))
		return
	}
	count, amount, err := h.svc.Daily(c.Request.Context(), venue, kind)
	if err != nil {
		c.Error(apperrors.New(apperrors.ErrStorage, "failed to read daily counters", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"venue": venue, "kind": kind, "count": count, "amount": amount})
}

// Stream pushes new activity entries over a websocket until the client goes away.
func (h *ActivityHandler) Stream(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写了响应
		logger.Warn("activity stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	entries, cancel := h.svc.Subscribe(128)
	defer cancel()

	// 读循环只用来发现断开
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case entry, ok := <-entries:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(streamWriteWait))
				return
			}
			if !filter.Match(entry) {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(entry); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

func parseFilter(c *gin.Context) (service.ActivityFilter, error) {
	filter := service.ActivityFilter{
		Venue: c.Query("venue"),
		Kind:  model.ActivityKind(c.Query("kind")),
		Limit: 100,
	}
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			filter.Limit = parsed
		}
	}
	if raw := c.Query("from"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return filter, apperrors.NewInvalidRequest(err.Error())
		}
		filter.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			return filter, apperrors.NewInvalidRequest(err.Error())
		}
		filter.To = &t
	}
	return filter, nil
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid time format")
}
