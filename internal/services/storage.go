package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StorageService persists uploaded files under per-batch directories with
// opaque names. It stands in for the external blob-storage collaborator;
// processing itself reads file bytes from the request, so storage is audit
// material and its failures are non-fatal to the batch.
type StorageService interface {
	SaveUpload(batchID uuid.UUID, file *multipart.FileHeader, kind string) (string, error)
	DeleteBatchFiles(batchID uuid.UUID) error
	EnsureUploadDir() error
}

type storageService struct {
	uploadPath string
}

func NewStorageService(uploadPath string) StorageService {
	return &storageService{
		uploadPath: uploadPath,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

// SaveUpload stores the file under the batch directory and returns the
// opaque key it was stored as.
func (s *storageService) SaveUpload(batchID uuid.UUID, file *multipart.FileHeader, kind string) (string, error) {
	batchDir := filepath.Join(s.uploadPath, batchID.String())
	if err := os.MkdirAll(batchDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create batch directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	key := fmt.Sprintf("%s_%s%s", kind, uuid.New().String(), ext)
	filePath := filepath.Join(batchDir, key)

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return key, nil
}

// DeleteBatchFiles removes everything stored for the batch.
func (s *storageService) DeleteBatchFiles(batchID uuid.UUID) error {
	batchDir := filepath.Join(s.uploadPath, batchID.String())
	if err := os.RemoveAll(batchDir); err != nil {
		return fmt.Errorf("failed to delete batch files: %w", err)
	}
	return nil
}
