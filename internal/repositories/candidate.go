package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cv-intelligence/internal/models"
)

type CandidateRepository interface {
	CreateAll(candidates []models.Candidate) error
	ListByBatch(batchID uuid.UUID) ([]models.Candidate, error)
	FindByID(id uuid.UUID, batchID uuid.UUID) (*models.Candidate, error)
	SetScheduledInterview(id uuid.UUID, batchID uuid.UUID, interviewID string) error
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

// CreateAll implements CandidateRepository.
func (r *candidateRepository) CreateAll(candidates []models.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}
	if err := r.db.Create(&candidates).Error; err != nil {
		return fmt.Errorf("failed to create candidates: %w", err)
	}
	return nil
}

// ListByBatch implements CandidateRepository, ordered by rank.
func (r *candidateRepository) ListByBatch(batchID uuid.UUID) ([]models.Candidate, error) {
	var candidates []models.Candidate
	err := r.db.
		Where("batch_id = ?", batchID).
		Order("rank ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return candidates, nil
}

// FindByID implements CandidateRepository. Scoped to the batch so a candidate
// id cannot be addressed through a batch it does not belong to.
func (r *candidateRepository) FindByID(id uuid.UUID, batchID uuid.UUID) (*models.Candidate, error) {
	var candidate models.Candidate
	err := r.db.Where("id = ? AND batch_id = ?", id, batchID).First(&candidate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find candidate: %w", err)
	}
	return &candidate, nil
}

// SetScheduledInterview is the single mutation allowed on a stored candidate.
func (r *candidateRepository) SetScheduledInterview(id uuid.UUID, batchID uuid.UUID, interviewID string) error {
	result := r.db.Model(&models.Candidate{}).
		Where("id = ? AND batch_id = ?", id, batchID).
		Update("scheduled_interview_id", interviewID)

	if result.Error != nil {
		return fmt.Errorf("failed to set scheduled interview: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
