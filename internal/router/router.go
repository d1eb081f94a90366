package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finsight/internal/handler"
	"finsight/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	extractionH *handler.ExtractionHandler,
	statementH *handler.StatementHandler,
	lineItemH *handler.LineItemHandler,
	investmentH *handler.InvestmentHandler,
	healthH *handler.HealthHandler,
	metricsH http.Handler,
	allowedOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks and metrics
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	r.GET("/metrics", gin.WrapH(metricsH))

	v1 := r.Group("/api/v1")

	// Document-scoped extraction and statement routes
	documents := v1.Group("/documents")
	documents.POST("/:id/extraction", extractionH.Trigger)
	documents.GET("/:id/extraction", extractionH.Status)
	documents.GET("/:id/statements", statementH.ListByDocument)

	// Statement routes
	statements := v1.Group("/statements")
	statements.GET("/:id", statementH.GetByID)
	statements.GET("/:id/export", statementH.Export)
	statements.POST("/:id/review", statementH.Review)
	statements.POST("/:id/lock", statementH.Lock)
	statements.GET("/:id/suggest-mapping", statementH.SuggestMapping)
	statements.POST("/:id/map", statementH.Map)
	statements.DELETE("/:id/map", statementH.Unmap)

	// Line item routes
	lineItems := v1.Group("/line-items")
	lineItems.PATCH("/:id", lineItemH.Edit)
	lineItems.POST("/:id/canonical", lineItemH.OverrideCanonical)
	lineItems.GET("/:id/history", lineItemH.History)

	// Investment routes
	investments := v1.Group("/investments")
	investments.GET("/:id/statements", investmentH.Statements)
	investments.POST("/:id/normalize", investmentH.Normalize)
	investments.GET("/:id/trends", investmentH.Trends)
	investments.GET("/:id/trends/export", investmentH.TrendsExport)
	investments.GET("/:id/export/comparison", investmentH.ComparisonExport)

	return r
}
