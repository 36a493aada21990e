package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"valuegrade/internal/analyzer"
	"valuegrade/internal/config"
	"valuegrade/internal/db"
	"valuegrade/internal/models"
	"valuegrade/internal/pkg/corp"
	"valuegrade/internal/pkg/dart"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// TaskProcessor holds dependencies for our task handlers
type TaskProcessor struct {
	DB         *gorm.DB
	config     *config.Config
	store      *db.Store
	dartClient *dart.DartClient
	analyzer   *analyzer.Analyzer

	lastAttempt func(ctx context.Context) bool
}

// NewTaskProcessor creates a new TaskProcessor. Results of analyze tasks are
// always persisted, so the analyzer is attached to the processor's store.
func NewTaskProcessor(dbConn *gorm.DB, config *config.Config, a *analyzer.Analyzer) *TaskProcessor {
	store := db.NewStore(dbConn)
	a.UseStore(store)

	return &TaskProcessor{
		DB:         dbConn,
		config:     config,
		store:      store,
		dartClient: dart.New(config.DartAPIKey),
		analyzer:   a,

		lastAttempt: retriesExhausted,
	}
}

// retriesExhausted reports whether asynq archives the task when the current
// attempt fails.
func retriesExhausted(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return false
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	return ok && retried >= maxRetry
}

// HandleFetchCompaniesTask upserts the corpCode.xml list into the companies
// table and refreshes the analyzer's directory.
func (p *TaskProcessor) HandleFetchCompaniesTask(ctx context.Context, t *asynq.Task) error {
	log.Println("Fetching companies")

	list, err := p.dartClient.GetCompanies()
	if err != nil {
		log.Printf("failed to fetch companies: %v", err)
		return err
	}

	companies := toModels(list)
	if err := p.store.UpsertCompanies(ctx, companies); err != nil {
		return fmt.Errorf("failed to store companies: %w", err)
	}

	p.analyzer.UseDirectory(corp.NewDirectory(list))

	log.Printf("Companies fetched successfully: %d", len(companies))
	return nil
}

// toModels keeps the last entry per corp code, since a single upsert
// statement cannot touch the same row twice.
func toModels(list []dart.Company) []models.Company {
	index := make(map[string]int, len(list))
	out := make([]models.Company, 0, len(list))

	for _, c := range list {
		if c.CorpCode == "" {
			continue
		}

		m := models.Company{
			CorpCode:    c.CorpCode,
			CorpName:    c.CorpName,
			CorpEngName: c.CorpEngName,
			StockCode:   c.StockCode,
		}

		modified, err := time.Parse("20060102", c.ModifyDate)
		if err != nil {
			log.Printf("invalid modify_date %q for %s", c.ModifyDate, c.CorpCode)
		} else {
			m.LastModifiedDate = modified
		}

		if i, ok := index[c.CorpCode]; ok {
			out[i] = m
			continue
		}
		index[c.CorpCode] = len(out)
		out = append(out, m)
	}

	return out
}

// HandleAnalyzeCompanyTask runs one queued analysis. Input errors fail the
// request permanently; DART and OpenAI errors are retried by asynq and
// marked failed once the last retry fails.
func (p *TaskProcessor) HandleAnalyzeCompanyTask(ctx context.Context, t *asynq.Task) error {
	var payload AnalyzeCompanyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	if payload.RequestID == uuid.Nil {
		return fmt.Errorf("missing request_id: %w", asynq.SkipRetry)
	}

	log.Printf("Analyzing %+v", payload)

	result, err := p.analyzer.Analyze(ctx, analyzer.Request{
		RequestID: payload.RequestID,
		Company:   payload.Company,
		BsnsYear:  payload.BsnsYear,
		ReprtCode: payload.ReprtCode,
	})
	if err != nil {
		if !analyzer.Permanent(err) {
			if !p.lastAttempt(ctx) {
				log.Printf("analysis %s failed, will retry: %v", payload.RequestID, err)
				return err
			}

			log.Printf("analysis %s failed on its last attempt: %v", payload.RequestID, err)
			p.markFailed(ctx, payload, err)
			return err
		}

		p.markFailed(ctx, payload, err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	log.Printf("Analysis %s stored: %s %s", payload.RequestID, result.CorpName, result.Assessment.Grade)
	return nil
}

// markFailed replaces the pending row so the request stops reporting pending.
func (p *TaskProcessor) markFailed(ctx context.Context, payload AnalyzeCompanyPayload, cause error) {
	failed := &models.Analysis{
		RequestID: payload.RequestID,
		Status:    models.AnalysisFailed,
		Query:     payload.Company,
		BsnsYear:  payload.BsnsYear,
		ReprtCode: payload.ReprtCode,
		Error:     cause.Error(),
	}
	if err := p.store.SaveAnalysis(ctx, failed); err != nil {
		log.Printf("failed to mark analysis %s as failed: %v", payload.RequestID, err)
	}
}

func (p *TaskProcessor) GetDartClient() *dart.DartClient {
	return p.dartClient
}
