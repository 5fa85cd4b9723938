package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type BatchStatus string

const (
	StatusPending    BatchStatus = "pending"
	StatusProcessing BatchStatus = "processing"
	StatusCompleted  BatchStatus = "completed"
	StatusFailed     BatchStatus = "failed"
)

// CanTransitionTo reports whether the forward transition from s to next is allowed.
// Completed and failed are terminal; only deleting the whole batch gets out of them.
func (s BatchStatus) CanTransitionTo(next BatchStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// BatchSummary holds the aggregate attached to a batch when it completes.
type BatchSummary struct {
	TotalProcessed         int `json:"total_processed"`
	AverageScore           int `json:"average_score"`
	HighlyRecommendedCount int `json:"highly_recommended_count"`
	FailedCount            int `json:"failed_count"`
}

func (s BatchSummary) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *BatchSummary) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported type for batch summary: %T", value)
	}
}

type Batch struct {
	ID             uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name           string        `gorm:"type:text;not null" json:"name"`
	OwnerID        string        `gorm:"type:text;not null;index" json:"owner_id"`
	Status         BatchStatus   `gorm:"not null;default:'pending'" json:"status"`
	CVCount        int           `gorm:"not null;default:0" json:"cv_count"`
	CandidateCount int           `gorm:"not null;default:0" json:"candidate_count"`
	Summary        *BatchSummary `gorm:"type:jsonb" json:"summary,omitempty"`
	CreatedAt      time.Time     `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (Batch) TableName() string {
	return "batches"
}
