package router

import (
	"github.com/gin-gonic/gin"

	"medibill/internal/handler"
	"medibill/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(extractH *handler.ExtractHandler, healthH *handler.HealthHandler) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	// Health check
	r.GET("/healthz", healthH.Liveness)

	// Extraction
	r.POST("/extract-bill-data", extractH.Extract)

	return r
}
