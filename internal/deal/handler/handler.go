package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/trustbit/mandi-service/internal/deal"
	"github.com/trustbit/mandi-service/internal/deal/dto"
	"github.com/trustbit/mandi-service/internal/model"
	"go.uber.org/zap"
)

type DealHandler struct {
	uc     deal.UseCase
	logger *zap.Logger
}

func NewDealHandler(uc deal.UseCase, logger *zap.Logger) *DealHandler {
	return &DealHandler{uc: uc, logger: logger}
}

func (h *DealHandler) Create(c *gin.Context) {
	var input dto.CreateDealInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.uc.Create(c.Request.Context(), &input)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, deal.ErrNoItems),
			errors.Is(err, deal.ErrInvalidQty),
			errors.Is(err, deal.ErrDeliveredExceedsQty),
			errors.Is(err, deal.ErrUnknownPackSize),
			errors.Is(err, deal.ErrMissingRate):
			status = http.StatusUnprocessableEntity
		default:
			h.logger.Error("failed to create deal", zap.Error(err))
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, d)
}

func (h *DealHandler) Get(c *gin.Context) {
	d, err := h.uc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, deal.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to fetch deal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch deal"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DealHandler) List(c *gin.Context) {
	filters := &dto.DealFilters{
		Customer: c.Query("customer"),
		Status:   c.Query("status"),
		Item:     c.Query("item"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}

	deals, total, err := h.uc.List(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list deals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list deals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": deals, "total": total})
}

func (h *DealHandler) Confirm(c *gin.Context) {
	h.transition(c, "confirm", h.uc.Confirm)
}

func (h *DealHandler) Cancel(c *gin.Context) {
	h.transition(c, "cancel", h.uc.Cancel)
}

func (h *DealHandler) Recalculate(c *gin.Context) {
	d, err := h.uc.RecalculateDeliveryStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, deal.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to recalculate deal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to recalculate deal"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DealHandler) transition(c *gin.Context, action string, fn func(ctx context.Context, id string) (*model.Deal, error)) {
	d, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, deal.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, deal.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("deal transition failed",
				zap.String("action", action), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + action + " deal"})
		}
		return
	}
	c.JSON(http.StatusOK, d)
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
