package services

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// IngestionValidator checks uploaded files before a batch is accepted for
// processing. Validation is pure: it reads metadata only and collects every
// violation instead of stopping at the first.
type IngestionValidator interface {
	Validate(jdFile *multipart.FileHeader, resumeFiles []*multipart.FileHeader) []string
}

type ingestionValidator struct {
	maxFileSize    int64
	maxResumeFiles int
}

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".doc":  true,
	".docx": true,
}

func NewIngestionValidator(maxFileSize int64, maxResumeFiles int) IngestionValidator {
	return &ingestionValidator{
		maxFileSize:    maxFileSize,
		maxResumeFiles: maxResumeFiles,
	}
}

// Validate implements IngestionValidator. An empty slice means the upload is
// acceptable.
func (v *ingestionValidator) Validate(jdFile *multipart.FileHeader, resumeFiles []*multipart.FileHeader) []string {
	var errs []string

	if jdFile == nil {
		errs = append(errs, "Job description file is required")
	} else {
		errs = append(errs, v.checkFile(jdFile, "Job description")...)
	}

	if len(resumeFiles) == 0 {
		errs = append(errs, "At least 1 CV file is required")
	}
	if len(resumeFiles) > v.maxResumeFiles {
		errs = append(errs, fmt.Sprintf("Maximum %d CV files allowed", v.maxResumeFiles))
	}

	for _, file := range resumeFiles {
		errs = append(errs, v.checkFile(file, "CV")...)
	}

	return errs
}

func (v *ingestionValidator) checkFile(file *multipart.FileHeader, label string) []string {
	var errs []string

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		errs = append(errs, fmt.Sprintf("%s file %q has unsupported type %q (allowed: PDF, TXT, DOC, DOCX)", label, file.Filename, ext))
	}
	if file.Size > v.maxFileSize {
		errs = append(errs, fmt.Sprintf("%s file %q exceeds the maximum size of %d bytes", label, file.Filename, v.maxFileSize))
	}

	return errs
}
