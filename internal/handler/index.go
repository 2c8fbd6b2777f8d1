package handler

import (
	"net/http"

	"github.com/GoPolymarket/auctionbot/internal/service"
	"github.com/gin-gonic/gin"
)

type IndexHandler struct {
	index *service.ItemIndex
}

func NewIndexHandler(index *service.ItemIndex) *IndexHandler {
	return &IndexHandler{index: index}
}

func (h *IndexHandler) Sizes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"total":   h.index.Total(),
		"buckets": h.index.Sizes(),
	})
}
