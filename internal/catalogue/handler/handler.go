package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trustbit/mandi-service/internal/catalogue"
	"go.uber.org/zap"
)

type CatalogueHandler struct {
	uc     catalogue.UseCase
	logger *zap.Logger
}

func NewCatalogueHandler(uc catalogue.UseCase, logger *zap.Logger) *CatalogueHandler {
	return &CatalogueHandler{uc: uc, logger: logger}
}

func (h *CatalogueHandler) PackSizes(c *gin.Context) {
	packs, err := h.uc.ListPackSizes(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list pack sizes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list pack sizes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": packs})
}

func (h *CatalogueHandler) BagCosts(c *gin.Context) {
	costs, err := h.uc.BagCostMap(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load bag costs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load bag costs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bag_costs": costs})
}

// Rate resolves the per-pack rate for area+item+pack size, optionally at
// a historic date (as_of, RFC 3339 or YYYY-MM-DD).
func (h *CatalogueHandler) Rate(c *gin.Context) {
	area := c.Query("area")
	item := c.Query("item")
	packSize := c.Query("pack_size")
	if area == "" || item == "" || packSize == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "area, item and pack_size are required"})
		return
	}

	asOf := time.Now()
	if v := c.Query("as_of"); v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of date"})
			return
		}
		asOf = parsed
	}

	rate, err := h.uc.RateForPackSize(c.Request.Context(), area, item, packSize, asOf)
	if err != nil {
		h.logger.Error("failed to resolve rate", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve rate"})
		return
	}
	if rate == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no price for area, item and pack size"})
		return
	}
	c.JSON(http.StatusOK, rate)
}

func (h *CatalogueHandler) Prices(c *gin.Context) {
	area := c.Query("area")
	if area == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "area is required"})
		return
	}

	prices, err := h.uc.PricesForArea(c.Request.Context(), area)
	if err != nil {
		h.logger.Error("failed to list prices", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list prices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": prices})
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
