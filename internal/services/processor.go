package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cv-intelligence/internal/apperrors"
	"cv-intelligence/internal/models"
	"cv-intelligence/internal/repositories"
)

// BatchProcessor orchestrates the batch lifecycle: create → accept files →
// analyze → rank → persist, plus the query and delete operations. Every
// operation is scoped to the calling owner.
type BatchProcessor interface {
	CreateBatch(ownerID, name string) (*models.Batch, error)
	ListBatches(ownerID string) ([]models.Batch, error)
	GetBatch(id uuid.UUID, ownerID string) (*models.BatchDetailResponse, error)
	DeleteBatch(ctx context.Context, id uuid.UUID, ownerID string) error
	ProcessBatch(ctx context.Context, id uuid.UUID, ownerID string, jdFile *multipart.FileHeader, resumeFiles []*multipart.FileHeader) (*models.ProcessResponse, error)
	ScheduleInterview(id, candidateID uuid.UUID, ownerID, interviewID string) error
	SearchCandidates(ctx context.Context, id uuid.UUID, ownerID, query string, limit int) ([]models.SearchMatch, error)
}

type batchProcessor struct {
	batchRepo     repositories.BatchRepository
	candidateRepo repositories.CandidateRepository
	validator     IngestionValidator
	analyzer      AnalysisEngine
	aggregator    ResultAggregator
	scorer        Scorer
	extractor     TextExtractor
	prompts       *PromptBuilder
	storage       StorageService
	search        CandidateSearchService
	concurrency   int
	fileTimeout   time.Duration
}

// NewBatchProcessor wires the lifecycle controller. search may be nil when
// the semantic-search stack is not configured.
func NewBatchProcessor(
	batchRepo repositories.BatchRepository,
	candidateRepo repositories.CandidateRepository,
	validator IngestionValidator,
	analyzer AnalysisEngine,
	aggregator ResultAggregator,
	scorer Scorer,
	storage StorageService,
	search CandidateSearchService,
	concurrency int,
	fileTimeout time.Duration,
) BatchProcessor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &batchProcessor{
		batchRepo:     batchRepo,
		candidateRepo: candidateRepo,
		validator:     validator,
		analyzer:      analyzer,
		aggregator:    aggregator,
		scorer:        scorer,
		extractor:     NewTextExtractor(),
		prompts:       NewPromptBuilder(),
		storage:       storage,
		search:        search,
		concurrency:   concurrency,
		fileTimeout:   fileTimeout,
	}
}

// CreateBatch implements BatchProcessor.
func (p *batchProcessor) CreateBatch(ownerID, name string) (*models.Batch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewInvalidInput("Batch name is required")
	}

	batch := &models.Batch{
		ID:        uuid.New(),
		Name:      name,
		OwnerID:   ownerID,
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := p.batchRepo.Create(batch); err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}
	return batch, nil
}

// ListBatches implements BatchProcessor.
func (p *batchProcessor) ListBatches(ownerID string) ([]models.Batch, error) {
	return p.batchRepo.ListByOwner(ownerID)
}

// GetBatch implements BatchProcessor. Reads are side-effect-free so clients
// can poll freely.
func (p *batchProcessor) GetBatch(id uuid.UUID, ownerID string) (*models.BatchDetailResponse, error) {
	batch, err := p.batchRepo.FindByID(id, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NewNotFound("Batch not found")
		}
		return nil, err
	}

	candidates, err := p.candidateRepo.ListByBatch(id)
	if err != nil {
		return nil, err
	}
	if candidates == nil {
		candidates = []models.Candidate{}
	}

	return &models.BatchDetailResponse{Batch: batch, Candidates: candidates}, nil
}

// DeleteBatch implements BatchProcessor. Candidates go with the batch; stored
// files and search vectors are cleaned up best effort.
func (p *batchProcessor) DeleteBatch(ctx context.Context, id uuid.UUID, ownerID string) error {
	if err := p.batchRepo.Delete(id, ownerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewNotFound("Batch not found")
		}
		return err
	}

	if err := p.storage.DeleteBatchFiles(id); err != nil {
		log.Printf("⚠️  Failed to delete stored files for batch %s: %v\n", id, err)
	}
	if p.search != nil {
		if err := p.search.DeleteBatch(ctx, id); err != nil {
			log.Printf("⚠️  Failed to delete search vectors for batch %s: %v\n", id, err)
		}
	}
	return nil
}

type fileAnalysis struct {
	candidate *models.Candidate
	failure   *models.FileFailure
}

// ProcessBatch implements BatchProcessor. The pending → processing flip is
// the mutual-exclusion point: a concurrent submission on the same batch loses
// the guarded update and gets AlreadyProcessing.
func (p *batchProcessor) ProcessBatch(ctx context.Context, id uuid.UUID, ownerID string, jdFile *multipart.FileHeader, resumeFiles []*multipart.FileHeader) (*models.ProcessResponse, error) {
	batch, err := p.batchRepo.FindByID(id, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NewNotFound("Batch not found")
		}
		return nil, err
	}

	if !batch.Status.CanTransitionTo(models.StatusProcessing) {
		if batch.Status == models.StatusProcessing {
			return nil, apperrors.NewAlreadyProcessing("Batch is already being processed")
		}
		return nil, apperrors.NewInvalidInput("Batch has already been processed")
	}

	// Validation happens before any state change; an invalid upload leaves
	// the batch pending and resubmittable.
	if violations := p.validator.Validate(jdFile, resumeFiles); len(violations) > 0 {
		return nil, apperrors.NewValidationFailed(violations)
	}

	jdData, err := readUpload(jdFile)
	if err != nil {
		return nil, apperrors.NewInvalidInput(fmt.Sprintf("Could not read job description file: %v", err))
	}
	jdText, err := p.extractor.Extract(jdFile.Filename, jdData)
	if err != nil {
		return nil, apperrors.NewInvalidInput(fmt.Sprintf("Could not extract job description text: %v", err))
	}
	requirements := p.scorer.ParseJobRequirements(jdText)

	inputs := make([]analysisInput, len(resumeFiles))
	for i, file := range resumeFiles {
		data, err := readUpload(file)
		inputs[i] = analysisInput{filename: file.Filename, data: data, readErr: err}
	}

	// Lock acquisition. Exactly one concurrent caller gets past this.
	if err := p.batchRepo.MarkProcessing(id, len(resumeFiles)); err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return nil, apperrors.NewAlreadyProcessing("Batch is already being processed")
		}
		return nil, err
	}

	log.Printf("🔄 Processing batch %s (%d files)\n", id, len(resumeFiles))
	p.storeUploads(id, jdFile, resumeFiles)

	results := p.analyzeAll(ctx, inputs, requirements)

	var candidates []models.Candidate
	failures := []models.FileFailure{}
	for _, r := range results {
		if r.failure != nil {
			failures = append(failures, *r.failure)
			continue
		}
		candidate := *r.candidate
		candidate.ID = uuid.New()
		candidate.BatchID = id
		candidate.CreatedAt = time.Now()
		candidates = append(candidates, candidate)
	}

	ranked, err := p.aggregator.Rank(candidates, len(failures))
	if err != nil {
		if failErr := p.batchRepo.Fail(id); failErr != nil {
			log.Printf("❌ Failed to mark batch %s failed: %v\n", id, failErr)
		}
		var reasons []string
		for _, f := range failures {
			reasons = append(reasons, fmt.Sprintf("%s: %s", f.Filename, f.Reason))
		}
		return nil, apperrors.NewEmptyBatch("All CV files failed extraction", reasons...)
	}

	if err := p.candidateRepo.CreateAll(ranked.Candidates); err != nil {
		if failErr := p.batchRepo.Fail(id); failErr != nil {
			log.Printf("❌ Failed to mark batch %s failed: %v\n", id, failErr)
		}
		return nil, fmt.Errorf("failed to persist candidates: %w", err)
	}

	if err := p.batchRepo.Complete(id, len(ranked.Candidates), &ranked.Summary); err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return nil, apperrors.NewInvalidTransition("Batch left processing state mid-flight")
		}
		return nil, err
	}

	p.indexForSearch(ctx, id, ownerID, ranked.Candidates)

	final, err := p.batchRepo.FindByID(id, ownerID)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Batch %s completed: %d candidates, %d failures\n", id, len(ranked.Candidates), len(failures))
	return &models.ProcessResponse{
		Batch:      final,
		Candidates: ranked.Candidates,
		Failures:   failures,
	}, nil
}

type analysisInput struct {
	filename string
	data     []byte
	readErr  error
}

// analyzeAll fans out over the résumés with bounded concurrency. Results are
// collected by input index so submission order survives the scheduling, which
// the stable tie-break in ranking depends on.
func (p *batchProcessor) analyzeAll(ctx context.Context, inputs []analysisInput, requirements JobRequirements) []fileAnalysis {
	results := make([]fileAnalysis, len(inputs))
	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input analysisInput) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if input.readErr != nil {
				results[i] = fileAnalysis{failure: &models.FileFailure{
					Filename: input.filename,
					Reason:   fmt.Sprintf("could not read upload: %v", input.readErr),
				}}
				return
			}

			candidate, err := p.analyzeWithTimeout(ctx, input.filename, input.data, requirements)
			if err != nil {
				var extErr *ExtractionError
				reason := err.Error()
				if errors.As(err, &extErr) {
					reason = extErr.Reason
				}
				results[i] = fileAnalysis{failure: &models.FileFailure{
					Filename: input.filename,
					Reason:   reason,
				}}
				return
			}
			results[i] = fileAnalysis{candidate: candidate}
		}(i, input)
	}

	wg.Wait()
	return results
}

// analyzeWithTimeout bounds one file's analysis. A timeout counts as an
// extraction failure so the batch can still complete with partial results.
func (p *batchProcessor) analyzeWithTimeout(ctx context.Context, filename string, data []byte, requirements JobRequirements) (*models.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, p.fileTimeout)
	defer cancel()

	type outcome struct {
		candidate *models.Candidate
		err       error
	}
	done := make(chan outcome, 1)

	go func() {
		candidate, err := p.analyzer.Analyze(ctx, filename, data, requirements)
		done <- outcome{candidate: candidate, err: err}
	}()

	select {
	case o := <-done:
		return o.candidate, o.err
	case <-ctx.Done():
		return nil, &ExtractionError{Filename: filename, Reason: "analysis timed out"}
	}
}

func (p *batchProcessor) storeUploads(id uuid.UUID, jdFile *multipart.FileHeader, resumeFiles []*multipart.FileHeader) {
	if _, err := p.storage.SaveUpload(id, jdFile, "jd"); err != nil {
		log.Printf("⚠️  Failed to store job description for batch %s: %v\n", id, err)
	}
	for _, file := range resumeFiles {
		if _, err := p.storage.SaveUpload(id, file, "cv"); err != nil {
			log.Printf("⚠️  Failed to store %s for batch %s: %v\n", file.Filename, id, err)
		}
	}
}

// indexForSearch embeds the structured profile of each candidate rather than
// the raw résumé text, so the vectors carry only the extracted fields.
func (p *batchProcessor) indexForSearch(ctx context.Context, id uuid.UUID, ownerID string, candidates []models.Candidate) {
	if p.search == nil {
		return
	}

	indexed := make([]IndexedCandidate, 0, len(candidates))
	for _, c := range candidates {
		indexed = append(indexed, IndexedCandidate{Candidate: c, ProfileText: p.prompts.BuildProfileText(c)})
	}
	if err := p.search.IndexBatch(ctx, id, ownerID, indexed); err != nil {
		log.Printf("⚠️  Failed to index batch %s for search: %v\n", id, err)
	}
}

// ScheduleInterview implements BatchProcessor: the one permitted mutation on
// a stored candidate, on behalf of the external scheduling collaborator.
func (p *batchProcessor) ScheduleInterview(id, candidateID uuid.UUID, ownerID, interviewID string) error {
	if _, err := p.batchRepo.FindByID(id, ownerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewNotFound("Batch not found")
		}
		return err
	}

	if err := p.candidateRepo.SetScheduledInterview(candidateID, id, interviewID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewNotFound("Candidate not found")
		}
		return err
	}
	return nil
}

// SearchCandidates implements BatchProcessor.
func (p *batchProcessor) SearchCandidates(ctx context.Context, id uuid.UUID, ownerID, query string, limit int) ([]models.SearchMatch, error) {
	if p.search == nil {
		return nil, apperrors.NewUnavailable("Search is not enabled")
	}

	if _, err := p.batchRepo.FindByID(id, ownerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NewNotFound("Batch not found")
		}
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}

	hits, err := p.search.Search(ctx, id, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	candidates, err := p.candidateRepo.ListByBatch(id)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	matches := []models.SearchMatch{}
	for _, hit := range hits {
		if c, ok := byID[hit.CandidateID]; ok {
			matches = append(matches, models.SearchMatch{Candidate: c, Similarity: hit.Similarity})
		}
	}
	return matches, nil
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}
