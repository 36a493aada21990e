package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// This file defines the "types" and "payloads" for our async tasks.

// Task type names
const (
	TypeTaskFetchCompanies = "task:fetch_companies"
	TypeTaskAnalyzeCompany = "task:analyze_company"
)

// --- FetchCompanies Task ---

// NewFetchCompaniesTask refreshes the companies table from corpCode.xml.
func NewFetchCompaniesTask() *asynq.Task {
	return asynq.NewTask(TypeTaskFetchCompanies, []byte("{}"))
}

// --- AnalyzeCompany Task ---

// AnalyzeCompanyPayload is the data an analysis job needs to run
type AnalyzeCompanyPayload struct {
	RequestID uuid.UUID `json:"request_id"`
	Company   string    `json:"company"`
	BsnsYear  string    `json:"bsns_year"`
	ReprtCode string    `json:"reprt_code"`
}

// NewAnalyzeCompanyTask creates a new task for asynq
func NewAnalyzeCompanyTask(payload AnalyzeCompanyPayload) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TypeTaskAnalyzeCompany, payloadBytes, asynq.MaxRetry(3)), nil
}
