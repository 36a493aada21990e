package routes

import (
	"valuegrade/internal/analyzer"
	"valuegrade/internal/controllers"
	"valuegrade/internal/db"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires the form UI and the JSON API. store and queue may be nil,
// in which case the history and async endpoints answer 503.
func SetupRouter(a *analyzer.Analyzer, store *db.Store, queue controllers.Enqueuer) *gin.Engine {
	webController := controllers.WebController{Analyzer: a}
	companyController := controllers.CompanyController{Directory: a.Directory()}
	analysisController := controllers.AnalysisController{Analyzer: a, Store: store, Queue: queue}

	// Set up Gin router
	router := gin.Default()
	router.SetHTMLTemplate(controllers.Templates())

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP", "companies": a.Directory().Len()})
	})

	router.GET("/", webController.Index)
	router.POST("/analyze", webController.Analyze)

	// Group API routes under /api/v1
	api := router.Group("/api/v1")
	{
		// GET /api/v1/companies?search=삼성
		api.GET("/companies", companyController.GetCompanies)

		analyses := api.Group("/analyses")
		{
			analyses.POST("", analysisController.CreateAnalysis)
			analyses.POST("/async", analysisController.EnqueueAnalysis)
			analyses.GET("/request/:request_id", analysisController.GetAnalysisByRequestID)
			analyses.GET("/:corp_code", analysisController.GetAnalyses)
		}
	}

	return router
}
