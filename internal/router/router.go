package router

import (
	"github.com/gin-gonic/gin"

	"receiptdesk/internal/handler"
	"receiptdesk/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	receiptH *handler.ReceiptHandler,
	triggerH *handler.TriggerHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.UserIdentity())

	receipts := v1.Group("/receipts")
	receipts.POST("/upload", receiptH.Upload)
	receipts.GET("", receiptH.List)
	receipts.GET("/export", receiptH.Export)
	receipts.GET("/:id", receiptH.GetByID)
	receipts.PATCH("/:id/review", receiptH.SubmitReview)

	// Invoked by the storage layer when an object lands in quarantine.
	internal := r.Group("/internal/v1")
	internal.POST("/storage-events", triggerH.StorageEvent)

	return r
}
