package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cv-intelligence/internal/models"
)

// ErrNotFound is returned for a missing batch and, deliberately, for a batch
// owned by somebody else. Callers must not be able to tell the two apart.
var ErrNotFound = errors.New("batch not found")

// ErrStatusConflict means a guarded status update lost: the batch was not in
// the expected prior status when the update ran.
var ErrStatusConflict = errors.New("batch status conflict")

type BatchRepository interface {
	Create(batch *models.Batch) error
	FindByID(id uuid.UUID, ownerID string) (*models.Batch, error)
	ListByOwner(ownerID string) ([]models.Batch, error)
	MarkProcessing(id uuid.UUID, cvCount int) error
	Complete(id uuid.UUID, candidateCount int, summary *models.BatchSummary) error
	Fail(id uuid.UUID) error
	Delete(id uuid.UUID, ownerID string) error
}

type batchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

// Create implements BatchRepository.
func (r *batchRepository) Create(batch *models.Batch) error {
	if err := r.db.Create(batch).Error; err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}
	return nil
}

// FindByID implements BatchRepository. The owner filter is part of the query,
// so a foreign batch id yields the same ErrNotFound as a nonexistent one.
func (r *batchRepository) FindByID(id uuid.UUID, ownerID string) (*models.Batch, error) {
	var batch models.Batch
	err := r.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find batch: %w", err)
	}
	return &batch, nil
}

// ListByOwner implements BatchRepository, newest first.
func (r *batchRepository) ListByOwner(ownerID string) ([]models.Batch, error) {
	var batches []models.Batch
	err := r.db.
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&batches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}

// MarkProcessing flips pending → processing and records the accepted file
// count. The expected-status guard makes this the lock acquisition point:
// of two concurrent submissions exactly one sees RowsAffected == 1.
func (r *batchRepository) MarkProcessing(id uuid.UUID, cvCount int) error {
	result := r.db.Model(&models.Batch{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"cv_count":   cvCount,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark batch processing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// Complete flips processing → completed, writing the summary and candidate
// count in the same guarded update so the summary is set exactly once.
func (r *batchRepository) Complete(id uuid.UUID, candidateCount int, summary *models.BatchSummary) error {
	result := r.db.Model(&models.Batch{}).
		Where("id = ? AND status = ?", id, models.StatusProcessing).
		Updates(map[string]interface{}{
			"status":          models.StatusCompleted,
			"candidate_count": candidateCount,
			"summary":         summary,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to complete batch: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// Fail flips processing → failed. Failed batches carry no summary.
func (r *batchRepository) Fail(id uuid.UUID) error {
	result := r.db.Model(&models.Batch{}).
		Where("id = ? AND status = ?", id, models.StatusProcessing).
		Updates(map[string]interface{}{
			"status":     models.StatusFailed,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark batch failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// Delete implements BatchRepository. Candidates go in the same transaction.
func (r *batchRepository) Delete(id uuid.UUID, ownerID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Batch{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete batch: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Where("batch_id = ?", id).Delete(&models.Candidate{}).Error; err != nil {
			return fmt.Errorf("failed to delete batch candidates: %w", err)
		}
		return nil
	})
}
