package controllers

import (
	"errors"
	"log"
	"net/http"

	"valuegrade/internal/analyzer"
	"valuegrade/internal/db"
	"valuegrade/internal/models"
	"valuegrade/internal/tasks"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type AnalysisController struct {
	Analyzer *analyzer.Analyzer
	Store    *db.Store // nil without DATABASE_URL
	Queue    Enqueuer  // nil without REDIS_URL
}

type AnalysisRequest struct {
	Company   string `json:"company" binding:"required"`
	BsnsYear  string `json:"bsns_year"`
	ReprtCode string `json:"reprt_code"`
}

func (r AnalysisRequest) toRequest() analyzer.Request {
	return analyzer.Request{Company: r.Company, BsnsYear: r.BsnsYear, ReprtCode: r.ReprtCode}
}

// CreateAnalysis runs the pipeline synchronously.
func (ac *AnalysisController) CreateAnalysis(c *gin.Context) {
	var body AnalysisRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company is required"})
		return
	}

	result, err := ac.Analyzer.Analyze(c.Request.Context(), body.toRequest())
	if err != nil {
		log.Printf("analysis failed for %q: %v", body.Company, err)
		c.JSON(errorStatus(err), errorBody(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// EnqueueAnalysis hands the request to the worker and returns its id.
func (ac *AnalysisController) EnqueueAnalysis(c *gin.Context) {
	if ac.Queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Async analysis is not available"})
		return
	}

	var body AnalysisRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company is required"})
		return
	}

	req := body.toRequest()
	if err := req.Normalize(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requestID := uuid.New()

	if ac.Store != nil {
		pending := &models.Analysis{
			RequestID: requestID,
			Status:    models.AnalysisPending,
			Query:     req.Company,
			BsnsYear:  req.BsnsYear,
			ReprtCode: req.ReprtCode,
		}
		if err := ac.Store.SaveAnalysis(c.Request.Context(), pending); err != nil {
			log.Printf("failed to create pending analysis: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			return
		}
	}

	task, err := tasks.NewAnalyzeCompanyTask(tasks.AnalyzeCompanyPayload{
		RequestID: requestID,
		Company:   req.Company,
		BsnsYear:  req.BsnsYear,
		ReprtCode: req.ReprtCode,
	})
	if err != nil {
		log.Printf("failed to create analyze task: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	info, err := ac.Queue.Enqueue(task)
	if err != nil {
		log.Printf("failed to enqueue analyze task: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Async analysis is not available"})
		return
	}
	log.Printf("enqueued %s (%s) for %q", info.ID, requestID, req.Company)

	c.JSON(http.StatusAccepted, gin.H{
		"request_id": requestID,
		"status":     models.AnalysisPending,
	})
}

// GetAnalyses returns the stored history for a company name or corp code.
func (ac *AnalysisController) GetAnalyses(c *gin.Context) {
	if ac.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Analysis history is not available"})
		return
	}

	corpCode, err := ac.Analyzer.Directory().Resolve(c.Param("corp_code"))
	if err != nil {
		c.JSON(errorStatus(err), errorBody(err))
		return
	}

	limit := getLimitWithDefault(c, 10)

	analyses, err := ac.Store.AnalysesByCorpCode(c.Request.Context(), corpCode, limit)
	if err != nil {
		log.Printf("failed to get analyses: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"corp_code": corpCode,
		"analyses":  analyses,
	})
}

// GetAnalysisByRequestID returns a single analysis, pending ones included.
func (ac *AnalysisController) GetAnalysisByRequestID(c *gin.Context) {
	if ac.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Analysis history is not available"})
		return
	}

	requestID, err := uuid.Parse(c.Param("request_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return
	}

	analysis, err := ac.Store.AnalysisByRequestID(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
			return
		}

		log.Printf("failed to get analysis: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}
