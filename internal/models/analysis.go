package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisFailed    AnalysisStatus = "failed"
)

type Analysis struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	RequestID   uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"request_id"`
	Status      AnalysisStatus `gorm:"size:16;default:pending" json:"status"`
	Query       string         `json:"query"`
	CorpCode    string         `gorm:"index;size:8" json:"corp_code"`
	CorpName    string         `json:"corp_name"`
	BsnsYear    string         `gorm:"size:4" json:"bsns_year"`
	ReprtCode   string         `gorm:"size:5" json:"reprt_code"`
	RawReportID *uint          `json:"raw_report_id,omitempty"`

	Metrics     json.RawMessage `gorm:"type:jsonb" json:"metrics,omitempty"`
	Adjustments json.RawMessage `gorm:"type:jsonb" json:"adjustments,omitempty"`
	FinalScore  int             `json:"final_score"`
	Grade       string          `gorm:"size:3" json:"grade"`
	RubricScore int             `json:"rubric_score"`
	RubricGrade string          `gorm:"size:3" json:"rubric_grade"`
	Explanation string          `gorm:"type:text" json:"explanation"`
	Model       string          `json:"model"`
	UsedTokens  int64           `json:"used_tokens"`
	Error       string          `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
