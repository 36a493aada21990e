package db

import (
	"context"
	"errors"

	"valuegrade/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const companyBatchSize = 1000

// Store wraps the queries the analyzer, controllers and tasks share.
type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// FindRawReport returns nil without an error when nothing is cached.
func (s *Store) FindRawReport(ctx context.Context, corpCode, bsnsYear, reprtCode string) (*models.RawReport, error) {
	r, err := gorm.G[models.RawReport](s.DB).
		Where("corp_code = ? AND bsns_year = ? AND reprt_code = ?", corpCode, bsnsYear, reprtCode).
		First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) SaveRawReport(ctx context.Context, r *models.RawReport) error {
	r.BlobSize = len(r.BlobData)
	return gorm.G[models.RawReport](s.DB, clause.OnConflict{
		Columns:   []clause.Column{{Name: "corp_code"}, {Name: "bsns_year"}, {Name: "reprt_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"blob_data", "blob_size", "updated_at"}),
	}).Create(ctx, r)
}

// SaveAnalysis inserts or replaces the row with the same request id.
func (s *Store) SaveAnalysis(ctx context.Context, a *models.Analysis) error {
	if a.RequestID == uuid.Nil {
		a.RequestID = uuid.New()
	}
	return gorm.G[models.Analysis](s.DB, clause.OnConflict{
		Columns: []clause.Column{{Name: "request_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "query", "corp_code", "corp_name", "bsns_year", "reprt_code", "raw_report_id",
			"metrics", "adjustments", "final_score", "grade", "rubric_score", "rubric_grade",
			"explanation", "model", "used_tokens", "error", "updated_at",
		}),
	}).Create(ctx, a)
}

func (s *Store) AnalysisByRequestID(ctx context.Context, requestID uuid.UUID) (*models.Analysis, error) {
	a, err := gorm.G[models.Analysis](s.DB).Where("request_id = ?", requestID).First(ctx)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AnalysesByCorpCode lists completed analyses, newest first.
func (s *Store) AnalysesByCorpCode(ctx context.Context, corpCode string, limit int) ([]models.Analysis, error) {
	return gorm.G[models.Analysis](s.DB).
		Where("corp_code = ? AND status = ?", corpCode, models.AnalysisCompleted).
		Order("created_at DESC").
		Limit(limit).
		Find(ctx)
}

// UpsertCompanies inserts new companies and refreshes the names of known ones.
func (s *Store) UpsertCompanies(ctx context.Context, companies []models.Company) error {
	if len(companies) == 0 {
		return nil
	}
	return gorm.G[models.Company](s.DB, clause.OnConflict{
		Columns:   []clause.Column{{Name: "corp_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"corp_name", "corp_eng_name", "stock_code", "last_modified_date", "updated_at"}),
	}).CreateInBatches(ctx, &companies, companyBatchSize)
}

func (s *Store) Companies(ctx context.Context) ([]models.Company, error) {
	return gorm.G[models.Company](s.DB).Order("corp_code").Find(ctx)
}

func (s *Store) CompanyCount(ctx context.Context) (int64, error) {
	return gorm.G[models.Company](s.DB).Count(ctx, "id")
}
