package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"valuegrade/internal/models"
	"valuegrade/internal/pkg/corp"
	"valuegrade/internal/pkg/dart"
	"valuegrade/internal/pkg/financials"
	"valuegrade/internal/pkg/openai"
	"valuegrade/internal/pkg/rubric"

	"github.com/google/uuid"
)

var (
	ErrNoFinancialData = errors.New("재무 데이터가 없습니다")
	ErrInvalidYear     = errors.New("사업연도는 4자리 숫자여야 합니다")
	ErrInvalidReport   = errors.New("보고서 코드는 11011, 11012, 11013, 11014 중 하나여야 합니다")
)

// StatementSource fetches fnlttSinglAcnt.json bodies.
type StatementSource interface {
	GetSingleAccountsRaw(corpCode, bsnsYear string, reportCode dart.ReportType) ([]byte, error)
}

type Grader interface {
	Grade(ctx context.Context, systemPrompt, prompt string) (*openai.Grading, error)
}

type MarketData interface {
	GetMarketCap(stockCode, name string) (float64, error)
}

// Store caches DART responses and keeps finished analyses.
type Store interface {
	FindRawReport(ctx context.Context, corpCode, bsnsYear, reprtCode string) (*models.RawReport, error)
	SaveRawReport(ctx context.Context, r *models.RawReport) error
	SaveAnalysis(ctx context.Context, a *models.Analysis) error
}

type Request struct {
	RequestID uuid.UUID `json:"request_id"`
	Company   string    `json:"company"`
	BsnsYear  string    `json:"bsns_year"`
	ReprtCode string    `json:"reprt_code"`
}

type Result struct {
	RequestID  uuid.UUID           `json:"request_id"`
	CorpCode   string              `json:"corp_code"`
	CorpName   string              `json:"corp_name"`
	BsnsYear   string              `json:"bsns_year"`
	ReprtCode  string              `json:"reprt_code"`
	Metrics    *financials.Metrics `json:"metrics"`
	Rubric     rubric.Result       `json:"rubric"`
	Assessment openai.Assessment   `json:"assessment"`
	Model      string              `json:"model"`
	UsedTokens int64               `json:"used_tokens"`

	rawReportID *uint
}

// GradeMismatch reports whether the model disagreed with the local rubric.
func (r *Result) GradeMismatch() bool {
	return r.Assessment.Grade != r.Rubric.Grade
}

type Analyzer struct {
	mu        sync.RWMutex
	directory *corp.Directory
	dart      StatementSource
	grader    Grader
	prices    MarketData
	store     Store
}

func New(directory *corp.Directory, dartClient StatementSource, grader Grader) *Analyzer {
	return &Analyzer{
		directory: directory,
		dart:      dartClient,
		grader:    grader,
	}
}

// UseMarketData enables PER/PBR derivation from market capitalization.
func (a *Analyzer) UseMarketData(m MarketData) {
	a.prices = m
}

// UseStore enables response caching and result persistence.
func (a *Analyzer) UseStore(s Store) {
	a.store = s
}

func (a *Analyzer) Directory() *corp.Directory {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.directory
}

// UseDirectory swaps in a refreshed company directory.
func (a *Analyzer) UseDirectory(d *corp.Directory) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.directory = d
}

// Normalize fills in the default year and report and validates both.
func (r *Request) Normalize() error {
	if r.BsnsYear == "" {
		r.BsnsYear = dart.DefaultBusinessYear
	}
	if r.ReprtCode == "" {
		r.ReprtCode = string(dart.BUSINESS_REPORT)
	}

	if len(r.BsnsYear) != 4 {
		return ErrInvalidYear
	}
	for _, ch := range r.BsnsYear {
		if ch < '0' || ch > '9' {
			return ErrInvalidYear
		}
	}

	if !dart.ReportType(r.ReprtCode).Valid() {
		return ErrInvalidReport
	}
	return nil
}

// Analyze resolves the company, fetches its key accounts, extracts the
// metrics and asks the grader for a grade.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	directory := a.Directory()

	corpCode, err := directory.Resolve(req.Company)
	if err != nil {
		return nil, err
	}

	company, known := directory.Company(corpCode)
	corpName := company.CorpName
	if !known {
		corpName = req.Company
	}

	log.Printf("analyzing %s(%s) %s/%s", corpName, corpCode, req.BsnsYear, req.ReprtCode)

	rows, rawReportID, err := a.fetch(ctx, corpCode, req.BsnsYear, dart.ReportType(req.ReprtCode))
	if err != nil {
		return nil, err
	}

	opts := financials.Options{ReportCode: dart.ReportType(req.ReprtCode)}
	if a.prices != nil && known && company.StockCode != "" {
		marketCap, err := a.prices.GetMarketCap(company.StockCode, corpName)
		if err != nil {
			log.Printf("market cap lookup failed for %s: %v", corpName, err)
		} else {
			opts.MarketCap = &marketCap
		}
	}

	metrics := financials.Extract(rows, opts)
	local := rubric.Score(metrics)

	prompt, err := rubric.Prompt(metrics)
	if err != nil {
		return nil, err
	}

	grading, err := a.grader.Grade(ctx, rubric.SystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RequestID:   req.RequestID,
		CorpCode:    corpCode,
		CorpName:    corpName,
		BsnsYear:    req.BsnsYear,
		ReprtCode:   req.ReprtCode,
		Metrics:     metrics,
		Rubric:      local,
		Assessment:  grading.Assessment,
		Model:       grading.Model,
		UsedTokens:  grading.UsedTokens,
		rawReportID: rawReportID,
	}

	if result.GradeMismatch() {
		log.Printf("warning: model grade %s (%d) differs from rubric grade %s (%d) for %s",
			grading.Assessment.Grade, grading.Assessment.FinalScore, local.Grade, local.Score, corpName)
	}

	if a.store != nil {
		record, err := result.Record(req.Company)
		if err == nil {
			err = a.store.SaveAnalysis(ctx, record)
		}
		if err != nil {
			// a queued request is only done once its row is stored
			if req.RequestID != uuid.Nil {
				return nil, fmt.Errorf("store analysis %s: %w", req.RequestID, err)
			}
			log.Printf("failed to store analysis for %s: %v", corpCode, err)
		} else {
			result.RequestID = record.RequestID
		}
	}

	return result, nil
}

func (a *Analyzer) fetch(ctx context.Context, corpCode, bsnsYear string, reportCode dart.ReportType) ([]dart.SingleAccount, *uint, error) {
	if a.store != nil {
		cached, err := a.store.FindRawReport(ctx, corpCode, bsnsYear, string(reportCode))
		if err != nil {
			log.Printf("failed to read cached report: %v", err)
		} else if cached != nil {
			rows, err := dart.DecodeSingleAccounts(cached.BlobData)
			if err == nil && len(rows) > 0 {
				return rows, &cached.ID, nil
			}
		}
	}

	raw, err := a.dart.GetSingleAccountsRaw(corpCode, bsnsYear, reportCode)
	if err != nil {
		return nil, nil, err
	}

	rows, err := dart.DecodeSingleAccounts(raw)
	if errors.Is(err, dart.ErrNoData) {
		return nil, nil, fmt.Errorf("%w: %v", ErrNoFinancialData, err)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, ErrNoFinancialData
	}

	if a.store == nil {
		return rows, nil, nil
	}

	report := &models.RawReport{
		CorpCode:  corpCode,
		BsnsYear:  bsnsYear,
		ReprtCode: string(reportCode),
		BlobData:  raw,
	}
	if err := a.store.SaveRawReport(ctx, report); err != nil {
		log.Printf("failed to cache report for %s: %v", corpCode, err)
		return rows, nil, nil
	}

	return rows, &report.ID, nil
}

// Record converts the result into a completed analysis row.
func (r *Result) Record(query string) (*models.Analysis, error) {
	metrics, err := json.Marshal(r.Metrics)
	if err != nil {
		return nil, err
	}
	adjustments, err := json.Marshal(r.Rubric.Adjustments)
	if err != nil {
		return nil, err
	}

	return &models.Analysis{
		RequestID:   r.RequestID,
		Status:      models.AnalysisCompleted,
		Query:       query,
		CorpCode:    r.CorpCode,
		CorpName:    r.CorpName,
		BsnsYear:    r.BsnsYear,
		ReprtCode:   r.ReprtCode,
		RawReportID: r.rawReportID,
		Metrics:     metrics,
		Adjustments: adjustments,
		FinalScore:  r.Assessment.FinalScore,
		Grade:       r.Assessment.Grade,
		RubricScore: r.Rubric.Score,
		RubricGrade: r.Rubric.Grade,
		Explanation: r.Assessment.Explanation,
		Model:       r.Model,
		UsedTokens:  r.UsedTokens,
	}, nil
}

// Permanent reports whether retrying the same request cannot succeed.
func Permanent(err error) bool {
	var ambiguous *corp.AmbiguousError
	return errors.Is(err, corp.ErrEmptyQuery) ||
		errors.Is(err, corp.ErrCompanyNotFound) ||
		errors.As(err, &ambiguous) ||
		errors.Is(err, ErrNoFinancialData) ||
		errors.Is(err, ErrInvalidYear) ||
		errors.Is(err, ErrInvalidReport)
}
