package models

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

type CreateBatchRequest struct {
	Name string `json:"name" validate:"required"`
}

type CreateBatchResponse struct {
	BatchID string `json:"batchId"`
}

type BatchDetailResponse struct {
	Batch      *Batch      `json:"batch"`
	Candidates []Candidate `json:"candidates"`
}

// FileFailure names a résumé that could not be analyzed and why.
type FileFailure struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

type ProcessResponse struct {
	Batch      *Batch        `json:"batch"`
	Candidates []Candidate   `json:"candidates"`
	Failures   []FileFailure `json:"failures"`
}

type ScheduleInterviewRequest struct {
	InterviewID string `json:"interview_id" validate:"required"`
}

type SearchRequest struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=50"`
}

type SearchMatch struct {
	Candidate  Candidate `json:"candidate"`
	Similarity float32   `json:"similarity"`
}
