package router

import (
	"github.com/gin-gonic/gin"

	"taxline/internal/handler"
	"taxline/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	returnH *handler.ReturnHandler,
	docH *handler.DocumentHandler,
	healthH *handler.HealthHandler,
	allowedOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Tax return routes
	returns := v1.Group("/returns")
	returns.POST("", returnH.Create)
	returns.GET("", returnH.List)
	returns.GET("/:returnID", returnH.Get)
	returns.PATCH("/:returnID/filing-status", returnH.UpdateFilingStatus)
	returns.GET("/:returnID/totals", returnH.Totals)
	returns.POST("/:returnID/recompute", returnH.Recompute)
	returns.DELETE("/:returnID", returnH.Delete)

	// Document routes (nested under a return)
	docs := returns.Group("/:returnID/documents")
	docs.POST("", docH.Submit)
	docs.GET("", docH.List)
	docs.GET("/export", docH.Export)
	docs.GET("/:documentID", docH.Get)
	docs.POST("/:documentID/reprocess", docH.Reprocess)
	docs.PUT("/:documentID/fields", docH.EditFields)
	docs.PUT("/:documentID/review", docH.UpdateReview)
	docs.DELETE("/:documentID", docH.Delete)

	return r
}
