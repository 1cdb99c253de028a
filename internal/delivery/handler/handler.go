package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/trustbit/mandi-service/internal/delivery"
	"github.com/trustbit/mandi-service/internal/delivery/dto"
	"github.com/trustbit/mandi-service/internal/model"
	"go.uber.org/zap"
)

type DeliveryHandler struct {
	uc     delivery.UseCase
	logger *zap.Logger
}

func NewDeliveryHandler(uc delivery.UseCase, logger *zap.Logger) *DeliveryHandler {
	return &DeliveryHandler{uc: uc, logger: logger}
}

func (h *DeliveryHandler) PendingDealItems(c *gin.Context) {
	var filters dto.PendingFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.uc.GetPendingDealItems(c.Request.Context(), &filters)
	if err != nil {
		h.logger.Error("failed to fetch pending deal items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch pending deal items"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *DeliveryHandler) Allocate(c *gin.Context) {
	var input dto.AllocateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.uc.AllocateFIFO(c.Request.Context(), &input)
	if err != nil {
		h.logger.Error("allocation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "allocation failed"})
		return
	}

	resp := gin.H{
		"allocations": result.Allocations,
		"requested":   result.Requested,
		"allocated":   result.Allocated,
		"unallocated": result.Unallocated,
	}
	if result.Unallocated > 0 {
		resp["message"] = "only " + strconv.FormatFloat(result.Allocated, 'f', -1, 64) +
			" of " + strconv.FormatFloat(result.Requested, 'f', -1, 64) + " packs could be allocated"
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DeliveryHandler) SaveDraft(c *gin.Context) {
	var input dto.SaveDeliveryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.uc.SaveDraft(c.Request.Context(), &input)
	if err != nil {
		h.respondError(c, "save", err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DeliveryHandler) Update(c *gin.Context) {
	var input dto.SaveDeliveryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.uc.Update(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		h.respondError(c, "update", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DeliveryHandler) Submit(c *gin.Context) {
	h.transition(c, "submit", h.uc.Submit)
}

func (h *DeliveryHandler) Cancel(c *gin.Context) {
	h.transition(c, "cancel", h.uc.Cancel)
}

func (h *DeliveryHandler) Get(c *gin.Context) {
	d, err := h.uc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, delivery.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to fetch delivery", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch delivery"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DeliveryHandler) List(c *gin.Context) {
	filters := &dto.DeliveryFilters{
		Customer: c.Query("customer"),
		Status:   c.Query("status"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}

	deliveries, total, err := h.uc.List(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list deliveries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list deliveries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": deliveries, "total": total})
}

func (h *DeliveryHandler) transition(c *gin.Context, action string, fn func(ctx context.Context, id string) (*model.Delivery, error)) {
	d, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, action, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DeliveryHandler) respondError(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, delivery.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, delivery.ErrInvalidTransition),
		errors.Is(err, delivery.ErrCustomerLocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, delivery.ErrNoItems),
		errors.Is(err, delivery.ErrInvalidQty),
		errors.Is(err, delivery.ErrMissingItemOrPack),
		errors.Is(err, delivery.ErrDealNotFound),
		errors.Is(err, delivery.ErrDealCancelled),
		errors.Is(err, delivery.ErrExceedsPending):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error("delivery operation failed",
			zap.String("action", action), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + action + " delivery"})
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
