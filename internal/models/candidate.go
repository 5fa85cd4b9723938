package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PersonalInfo carries the contact fields extracted from a résumé.
// A nil field means extraction did not find it, as opposed to an empty value.
type PersonalInfo struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
}

func (p PersonalInfo) Value() (driver.Value, error) { return json.Marshal(p) }

func (p *PersonalInfo) Scan(value interface{}) error { return scanJSON(value, p) }

// SkillSet groups the extracted skills with their match status against the
// job-description requirements.
type SkillSet struct {
	All     []string `json:"all"`
	Matched []string `json:"matched"`
	Missing []string `json:"missing"`
}

func (s SkillSet) Value() (driver.Value, error) { return json.Marshal(s) }

func (s *SkillSet) Scan(value interface{}) error { return scanJSON(value, s) }

type ExperienceItem struct {
	Role         string   `json:"role"`
	Company      string   `json:"company"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	Achievements []string `json:"achievements"`
}

type ExperienceList []ExperienceItem

func (e ExperienceList) Value() (driver.Value, error) { return json.Marshal(e) }

func (e *ExperienceList) Scan(value interface{}) error { return scanJSON(value, e) }

type EducationItem struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Year        string `json:"year"`
}

type EducationList []EducationItem

func (e EducationList) Value() (driver.Value, error) { return json.Marshal(e) }

func (e *EducationList) Scan(value interface{}) error { return scanJSON(value, e) }

// Candidate is the stored analysis result for one résumé within a batch.
// Rows are immutable after creation except for the scheduled interview
// reference set by the external scheduling collaborator.
type Candidate struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BatchID              uuid.UUID      `gorm:"type:uuid;not null;index" json:"batch_id"`
	Filename             string         `gorm:"type:text;not null" json:"filename"`
	Personal             PersonalInfo   `gorm:"type:jsonb" json:"personal"`
	Skills               SkillSet       `gorm:"type:jsonb" json:"skills"`
	Experience           ExperienceList `gorm:"type:jsonb" json:"experience"`
	Education            EducationList  `gorm:"type:jsonb" json:"education"`
	Score                int            `gorm:"not null" json:"score"`
	Rank                 int            `gorm:"not null" json:"rank"`
	Recommendation       string         `gorm:"type:text;not null" json:"recommendation"`
	Summary              string         `gorm:"type:text" json:"summary,omitempty"`
	ScheduledInterviewID *string        `gorm:"type:text" json:"scheduled_interview_id,omitempty"`
	CreatedAt            time.Time      `gorm:"type:timestamp;default:now()" json:"created_at"`
}

func (Candidate) TableName() string {
	return "candidates"
}

func scanJSON(value interface{}, target interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, target)
	case string:
		return json.Unmarshal([]byte(v), target)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported jsonb source type: %T", value)
	}
}
