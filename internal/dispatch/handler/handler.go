package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/trustbit/mandi-service/internal/dispatch"
	"github.com/trustbit/mandi-service/internal/dispatch/dto"
	"github.com/trustbit/mandi-service/internal/model"
	"go.uber.org/zap"
)

type DispatchHandler struct {
	uc     dispatch.UseCase
	logger *zap.Logger
}

func NewDispatchHandler(uc dispatch.UseCase, logger *zap.Logger) *DispatchHandler {
	return &DispatchHandler{uc: uc, logger: logger}
}

func (h *DispatchHandler) Undispatched(c *gin.Context) {
	deliveries, err := h.uc.ListUndispatched(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list undispatched deliveries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list undispatched deliveries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": deliveries})
}

func (h *DispatchHandler) Create(c *gin.Context) {
	var input dto.CreateDispatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.uc.Create(c.Request.Context(), &input)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrAlreadyDispatched):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, dispatch.ErrNoDeliveries),
			errors.Is(err, dispatch.ErrDuplicateDelivery),
			errors.Is(err, dispatch.ErrDeliveryNotFound),
			errors.Is(err, dispatch.ErrNotSubmitted):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			h.logger.Error("failed to create dispatch", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create dispatch"})
		}
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DispatchHandler) Get(c *gin.Context) {
	d, err := h.uc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, dispatch.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to fetch dispatch", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch dispatch"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DispatchHandler) List(c *gin.Context) {
	filters := &dto.DispatchFilters{
		Vehicle:  c.Query("vehicle"),
		Status:   c.Query("status"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}

	dispatches, total, err := h.uc.List(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list dispatches", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list dispatches"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": dispatches, "total": total})
}

func (h *DispatchHandler) Submit(c *gin.Context) {
	h.transition(c, "submit", h.uc.Submit)
}

func (h *DispatchHandler) Cancel(c *gin.Context) {
	h.transition(c, "cancel", h.uc.Cancel)
}

func (h *DispatchHandler) transition(c *gin.Context, action string, fn func(ctx context.Context, id string) (*model.Dispatch, error)) {
	d, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, dispatch.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("dispatch transition failed",
				zap.String("action", action), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + action + " dispatch"})
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
