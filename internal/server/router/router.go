package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	cataloguehandler "github.com/trustbit/mandi-service/internal/catalogue/handler"
	dealhandler "github.com/trustbit/mandi-service/internal/deal/handler"
	deliveryhandler "github.com/trustbit/mandi-service/internal/delivery/handler"
	dispatchhandler "github.com/trustbit/mandi-service/internal/dispatch/handler"
)

type Handlers struct {
	Deal      *dealhandler.DealHandler
	Delivery  *deliveryhandler.DeliveryHandler
	Catalogue *cataloguehandler.CatalogueHandler
	Dispatch  *dispatchhandler.DispatchHandler
}

// New wires the Gin engine with the API routes and middlewares.
func New(h Handlers, logger *zap.Logger, appEnv string) *gin.Engine {
	if appEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		deals := v1.Group("/deals")
		{
			deals.POST("", h.Deal.Create)
			deals.GET("", h.Deal.List)
			deals.GET("/:id", h.Deal.Get)
			deals.POST("/:id/confirm", h.Deal.Confirm)
			deals.POST("/:id/cancel", h.Deal.Cancel)
			deals.POST("/:id/recalculate", h.Deal.Recalculate)
		}

		deliveries := v1.Group("/deliveries")
		{
			deliveries.GET("/pending-deal-items", h.Delivery.PendingDealItems)
			deliveries.POST("/allocate", h.Delivery.Allocate)
			deliveries.POST("", h.Delivery.SaveDraft)
			deliveries.GET("", h.Delivery.List)
			deliveries.GET("/:id", h.Delivery.Get)
			deliveries.PUT("/:id", h.Delivery.Update)
			deliveries.POST("/:id/submit", h.Delivery.Submit)
			deliveries.POST("/:id/cancel", h.Delivery.Cancel)
		}

		catalogue := v1.Group("/catalogue")
		{
			catalogue.GET("/pack-sizes", h.Catalogue.PackSizes)
			catalogue.GET("/bag-costs", h.Catalogue.BagCosts)
			catalogue.GET("/rate", h.Catalogue.Rate)
			catalogue.GET("/prices", h.Catalogue.Prices)
		}

		dispatches := v1.Group("/dispatches")
		{
			dispatches.GET("/undispatched", h.Dispatch.Undispatched)
			dispatches.POST("", h.Dispatch.Create)
			dispatches.GET("", h.Dispatch.List)
			dispatches.GET("/:id", h.Dispatch.Get)
			dispatches.POST("/:id/submit", h.Dispatch.Submit)
			dispatches.POST("/:id/cancel", h.Dispatch.Cancel)
		}
	}

	logger.Info("router initialized")
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
