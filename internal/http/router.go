package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/copyforge/copyforge-backend/internal/http/handlers"
	httpMW "github.com/copyforge/copyforge-backend/internal/http/middleware"
	"github.com/copyforge/copyforge-backend/internal/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	GenerationHandler *httpH.GenerationHandler
	ScenarioHandler   *httpH.ScenarioHandler
	FeedbackHandler   *httpH.FeedbackHandler
	DocumentHandler   *httpH.DocumentHandler
	GeneratorsHandler *httpH.GeneratorsHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("copyforge"))
	r.Use(httpMW.AttachRequestID())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Generation
		if cfg.GenerationHandler != nil {
			api.POST("/generation/copy", cfg.GenerationHandler.GenerateCopy)
			api.POST("/generation/scenario", cfg.GenerationHandler.GenerateWithScenario)
		}

		// Scenarios
		if cfg.ScenarioHandler != nil {
			api.GET("/scenarios", cfg.ScenarioHandler.ListScenarios)
			api.GET("/scenarios/:id", cfg.ScenarioHandler.GetScenario)
			api.POST("/scenarios", cfg.ScenarioHandler.CreateScenario)
			api.PATCH("/scenarios/:id", cfg.ScenarioHandler.UpdateScenario)
			api.DELETE("/scenarios/:id", cfg.ScenarioHandler.DeactivateScenario)
		}

		// Feedback
		if cfg.FeedbackHandler != nil {
			api.POST("/feedback", cfg.FeedbackHandler.SubmitFeedback)
			api.GET("/feedback/:gen_id", cfg.FeedbackHandler.FeedbackHistory)
		}

		// Source documents
		if cfg.DocumentHandler != nil {
			api.POST("/documents", cfg.DocumentHandler.CreateDocument)
			api.GET("/documents", cfg.DocumentHandler.ListDocuments)
			api.GET("/documents/:id", cfg.DocumentHandler.GetDocument)
			api.POST("/documents/:id/elements", cfg.DocumentHandler.AddElements)
			api.GET("/documents/:id/elements", cfg.DocumentHandler.ListElements)
			api.DELETE("/documents/:id", cfg.DocumentHandler.RetireDocument)
		}

		// Auxiliary generators
		if cfg.GeneratorsHandler != nil {
			api.POST("/generators/names", cfg.GeneratorsHandler.GenerateNames)
			api.POST("/generators/reviews", cfg.GeneratorsHandler.GenerateReviews)
			api.GET("/generators/personas", cfg.GeneratorsHandler.ListPersonas)
			api.GET("/generators/geos", cfg.GeneratorsHandler.ListGeos)
		}
	}

	return r
}
