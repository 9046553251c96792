package http

import (
	"github.com/gin-gonic/gin"

	"go.ngs.io/tides-api/internal/engine"
	"go.ngs.io/tides-api/internal/usecase"
)

// SetupRouter creates and configures the Gin router. eng may be nil, in
// which case /v1/engine/core responds 503 rather than being omitted: the
// route always exists so operators can tell "not configured" apart from
// "not found".
func SetupRouter(predictionUC *usecase.PredictionUseCase, eng *engine.Handle) *gin.Engine {
	// Set Gin to release mode for production
	// gin.SetMode(gin.ReleaseMode)

	router := gin.Default()

	// Create handler
	handler := NewHandler(predictionUC).WithEngine(eng)

	// API v1 routes
	v1 := router.Group("/v1")
	{
		// Tide predictions
		tides := v1.Group("/tides")
		{
			tides.GET("/predictions", handler.GetPredictions)
		}

		// Constituents
		v1.GET("/constituents", handler.GetConstituentsList)

		// Direct engine.Handle pass-through (requires ENGINE_CONFIG_PATH).
		v1.GET("/engine/core", handler.GetEngineCore)
	}

	// Health check
	router.GET("/healthz", handler.HealthCheck)

	return router
}
