package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain"
	"invoicer/pkg/numerator"
)

// NumberPeeker reads the next number of a kind without consuming it.
type NumberPeeker interface {
	Peek(ctx context.Context, ownerID id.ID, kind numerator.Kind) (numerator.Number, error)
}

// NextNumberResponse is the number the next document of a kind will receive.
type NextNumberResponse struct {
	Kind    string `json:"kind"`
	Seq     int64  `json:"seq"`
	Display string `json:"display"`
}

// CounterHandler exposes the document counters.
type CounterHandler struct {
	*BaseHandler
	numbers NumberPeeker
}

// NewCounterHandler creates a new counter handler.
func NewCounterHandler(base *BaseHandler, numbers NumberPeeker) *CounterHandler {
	return &CounterHandler{
		BaseHandler: base,
		numbers:     numbers,
	}
}

// Next handles GET /counters/:kind/next
func (h *CounterHandler) Next(c *gin.Context) {
	ctx := c.Request.Context()

	kind := numerator.Kind(c.Param("kind"))
	if !kind.Valid() {
		h.Error(c, apperror.NewValidation("unknown document kind").WithDetail("kind", string(kind)))
		return
	}
	ownerID, err := domain.RequireOwner(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	n, err := h.numbers.Peek(ctx, ownerID, kind)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, NextNumberResponse{Kind: string(kind), Seq: n.Seq, Display: n.Display})
}

// RegisterRoutes registers counter routes.
func (h *CounterHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:kind/next", h.Next)
}
