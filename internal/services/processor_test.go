package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"cv-intelligence/internal/apperrors"
	"cv-intelligence/internal/models"
	"cv-intelligence/internal/repositories"
)

const weakResume = `John Smith
john@example.com

Skills
Excel

Experience
Clerk at Corner Shop 2020 - 2021
`

// memBatchRepo is an in-memory BatchRepository with the same guarded-update
// semantics as the SQL implementation.
type memBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*models.Batch
}

func newMemBatchRepo() *memBatchRepo {
	return &memBatchRepo{batches: make(map[uuid.UUID]*models.Batch)}
}

func (r *memBatchRepo) Create(batch *models.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *batch
	r.batches[batch.ID] = &copied
	return nil
}

func (r *memBatchRepo) FindByID(id uuid.UUID, ownerID string) (*models.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok || batch.OwnerID != ownerID {
		return nil, repositories.ErrNotFound
	}
	copied := *batch
	return &copied, nil
}

func (r *memBatchRepo) ListByOwner(ownerID string) ([]models.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var batches []models.Batch
	for _, b := range r.batches {
		if b.OwnerID == ownerID {
			batches = append(batches, *b)
		}
	}
	sort.Slice(batches, func(i, j int) bool {
		return batches[i].CreatedAt.After(batches[j].CreatedAt)
	})
	return batches, nil
}

func (r *memBatchRepo) MarkProcessing(id uuid.UUID, cvCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok || batch.Status != models.StatusPending {
		return repositories.ErrStatusConflict
	}
	batch.Status = models.StatusProcessing
	batch.CVCount = cvCount
	batch.UpdatedAt = time.Now()
	return nil
}

func (r *memBatchRepo) Complete(id uuid.UUID, candidateCount int, summary *models.BatchSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok || batch.Status != models.StatusProcessing {
		return repositories.ErrStatusConflict
	}
	batch.Status = models.StatusCompleted
	batch.CandidateCount = candidateCount
	batch.Summary = summary
	batch.UpdatedAt = time.Now()
	return nil
}

func (r *memBatchRepo) Fail(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok || batch.Status != models.StatusProcessing {
		return repositories.ErrStatusConflict
	}
	batch.Status = models.StatusFailed
	batch.UpdatedAt = time.Now()
	return nil
}

func (r *memBatchRepo) Delete(id uuid.UUID, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok || batch.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	delete(r.batches, id)
	return nil
}

type memCandidateRepo struct {
	mu         sync.Mutex
	candidates map[uuid.UUID][]models.Candidate
}

func newMemCandidateRepo() *memCandidateRepo {
	return &memCandidateRepo{candidates: make(map[uuid.UUID][]models.Candidate)}
}

func (r *memCandidateRepo) CreateAll(candidates []models.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range candidates {
		r.candidates[c.BatchID] = append(r.candidates[c.BatchID], c)
	}
	return nil
}

func (r *memCandidateRepo) ListByBatch(batchID uuid.UUID) ([]models.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	listed := append([]models.Candidate(nil), r.candidates[batchID]...)
	sort.Slice(listed, func(i, j int) bool { return listed[i].Rank < listed[j].Rank })
	return listed, nil
}

func (r *memCandidateRepo) FindByID(id uuid.UUID, batchID uuid.UUID) (*models.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.candidates[batchID] {
		if c.ID == id {
			copied := c
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *memCandidateRepo) SetScheduledInterview(id uuid.UUID, batchID uuid.UUID, interviewID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.candidates[batchID]
	for i := range list {
		if list[i].ID == id {
			list[i].ScheduledInterviewID = &interviewID
			return nil
		}
	}
	return repositories.ErrNotFound
}

type noopStorage struct{}

func (noopStorage) SaveUpload(uuid.UUID, *multipart.FileHeader, string) (string, error) {
	return "", nil
}
func (noopStorage) DeleteBatchFiles(uuid.UUID) error { return nil }
func (noopStorage) EnsureUploadDir() error           { return nil }

// slowEngine hangs until the per-file deadline fires.
type slowEngine struct{}

func (slowEngine) Analyze(ctx context.Context, filename string, data []byte, req JobRequirements) (*models.Candidate, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		return nil, nil
	}
}

// captureSearch records what the processor hands to the search subsystem.
type captureSearch struct {
	mu      sync.Mutex
	indexed []IndexedCandidate
	deleted []uuid.UUID
}

func (s *captureSearch) InitCollection() error { return nil }

func (s *captureSearch) IndexBatch(_ context.Context, _ uuid.UUID, _ string, candidates []IndexedCandidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexed = append(s.indexed, candidates...)
	return nil
}

func (s *captureSearch) Search(context.Context, uuid.UUID, string, int) ([]CandidateHit, error) {
	return nil, nil
}

func (s *captureSearch) DeleteBatch(_ context.Context, batchID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, batchID)
	return nil
}

type testEnv struct {
	processor  BatchProcessor
	batchRepo  *memBatchRepo
	candidates *memCandidateRepo
}

func newTestEnv(t *testing.T, analyzer AnalysisEngine, fileTimeout time.Duration) *testEnv {
	return newTestEnvWithSearch(t, analyzer, fileTimeout, nil)
}

func newTestEnvWithSearch(t *testing.T, analyzer AnalysisEngine, fileTimeout time.Duration, search CandidateSearchService) *testEnv {
	t.Helper()
	batchRepo := newMemBatchRepo()
	candidateRepo := newMemCandidateRepo()
	scorer := NewScorer()
	if analyzer == nil {
		analyzer = NewAnalysisEngine(NewTextExtractor(), NewResumeParser(), scorer, nil)
	}
	if fileTimeout == 0 {
		fileTimeout = 5 * time.Second
	}
	processor := NewBatchProcessor(
		batchRepo,
		candidateRepo,
		NewIngestionValidator(10485760, 10),
		analyzer,
		NewResultAggregator(),
		scorer,
		noopStorage{},
		search,
		4,
		fileTimeout,
	)
	return &testEnv{processor: processor, batchRepo: batchRepo, candidates: candidateRepo}
}

// makeForm runs file contents through real multipart encoding so the headers
// behave like genuine uploads.
func makeForm(t *testing.T, jd [2]string, cvs [][2]string) (*multipart.FileHeader, []*multipart.FileHeader) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("jdFile", jd[0])
	if err != nil {
		t.Fatalf("create jd part: %v", err)
	}
	if _, err := fw.Write([]byte(jd[1])); err != nil {
		t.Fatalf("write jd part: %v", err)
	}
	for _, cv := range cvs {
		fw, err := w.CreateFormFile("cvFiles", cv[0])
		if err != nil {
			t.Fatalf("create cv part: %v", err)
		}
		if _, err := fw.Write([]byte(cv[1])); err != nil {
			t.Fatalf("write cv part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}

	var jdFH *multipart.FileHeader
	if files := form.File["jdFile"]; len(files) > 0 {
		jdFH = files[0]
	}
	return jdFH, form.File["cvFiles"]
}

func mustCreateBatch(t *testing.T, env *testEnv, owner, name string) *models.Batch {
	t.Helper()
	batch, err := env.processor.CreateBatch(owner, name)
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	return batch
}

func TestCreateBatch(t *testing.T) {
	env := newTestEnv(t, nil, 0)

	batch := mustCreateBatch(t, env, "user-1", "  Backend Hiring  ")
	if batch.Name != "Backend Hiring" {
		t.Errorf("name = %q, want trimmed", batch.Name)
	}
	if batch.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", batch.Status)
	}

	if _, err := env.processor.CreateBatch("user-1", "   "); err == nil {
		t.Error("expected error for blank name")
	}
}

func TestProcessBatch(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	batch := mustCreateBatch(t, env, "user-1", "Backend Hiring")

	jdFH, cvFHs := makeForm(t, [2]string{"jd.txt", sampleJD}, [][2]string{
		{"john.txt", weakResume},
		{"jane.txt", sampleResume},
	})

	result, err := env.processor.ProcessBatch(context.Background(), batch.ID, "user-1", jdFH, cvFHs)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	if result.Batch.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", result.Batch.Status)
	}
	if result.Batch.CVCount != 2 {
		t.Errorf("cv count = %d, want 2", result.Batch.CVCount)
	}
	if result.Batch.CandidateCount != 2 {
		t.Errorf("candidate count = %d, want 2", result.Batch.CandidateCount)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(result.Candidates))
	}
	if result.Candidates[0].Filename != "jane.txt" {
		t.Errorf("rank 1 = %s, want jane.txt", result.Candidates[0].Filename)
	}
	if result.Candidates[0].Rank != 1 || result.Candidates[1].Rank != 2 {
		t.Errorf("ranks = %d, %d, want 1, 2", result.Candidates[0].Rank, result.Candidates[1].Rank)
	}
	if result.Candidates[0].Score <= result.Candidates[1].Score {
		t.Errorf("scores not descending: %d then %d", result.Candidates[0].Score, result.Candidates[1].Score)
	}
	if len(result.Failures) != 0 {
		t.Errorf("failures = %v, want none", result.Failures)
	}

	summary := result.Batch.Summary
	if summary == nil {
		t.Fatal("summary missing")
	}
	if summary.TotalProcessed != 2 || summary.FailedCount != 0 {
		t.Errorf("summary = %+v, want 2 processed, 0 failed", summary)
	}
}

func TestProcessBatchPartialFailure(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	batch := mustCreateBatch(t, env, "user-1", "Backend Hiring")

	jdFH, cvFHs := makeForm(t, [2]string{"jd.txt", sampleJD}, [][2]string{
		{"jane.txt", sampleResume},
		{"broken.pdf", "this is not a pdf"},
	})

	result, err := env.processor.ProcessBatch(context.Background(), batch.ID, "user-1", jdFH, cvFHs)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	if result.Batch.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed despite one failure", result.Batch.Status)
	}
	if len(result.Candidates) != 1 {
		t.Errorf("got %d candidates, want 1", len(result.Candidates))
	}
	if result.Batch.CandidateCount != 1 {
		t.Errorf("candidate count = %d, want 1", result.Batch.CandidateCount)
	}
	if result.Batch.CandidateCount > result.Batch.CVCount {
		t.Errorf("candidate count %d exceeds cv count %d", result.Batch.CandidateCount, result.Batch.CVCount)
	}
	if len(result.Failures) != 1 || result.Failures[0].Filename != "broken.pdf" {
		t.Errorf("failures = %v, want broken.pdf", result.Failures)
	}
	if result.Batch.Summary == nil || result.Batch.Summary.FailedCount != 1 {
		t.Errorf("summary = %+v, want failed count 1", result.Batch.Summary)
	}
}

func TestProcessBatchAllFilesFail(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	batch := mustCreateBatch(t, env, "user-1", "Backend Hiring")

	jdFH, cvFHs := makeForm(t, [2]string{"jd.txt", sampleJD}, [][2]string{
		{"broken.pdf", "junk"},
		{"empty.txt", "   "},
	})

	_, err := env.processor.ProcessBatch(context.Background(), batch.ID, "user-1", jdFH, cvFHs)
	appErr := apperrors.From(err)
	if appErr == nil || appErr.Code != apperrors.CodeEmptyBatch {
		t.Fatalf("error = %v, want EMPTY_BATCH", err)
	}
	if len(appErr.Details) != 2 {
		t.Errorf("details = %v, want per-file reasons", appErr.Details)
	}

	stored, err := env.batchRepo.FindByID(batch.ID, "user-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.Status != models.StatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
	if stored.Summary != nil {
		t.Errorf("failed batch carries summary %+v", stored.Summary)
	}
}

func TestProcessBatchValidationLeavesPending(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	batch := mustCreateBatch(t, env, "user-1", "Backend Hiring")

	jdFH, _ := makeForm(t, [2]string{"jd.txt", sampleJD}, nil)

	_, err := env.processor.ProcessBatch(context.Background(), batch.ID, "user-1", jdFH, nil)
	appErr := apperrors.From(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidationFailed {
		t.Fatalf("error = %v, want VALIDATION_FAILED", err)
	}

	stored, _ := env.batchRepo.FindByID(batch.ID, "user-1")
	if stored.Status != models.StatusPending {
		t.Fatalf("status = %s, want pending after rejected upload", stored.Status)
	}

	// A corrected resubmission on the same batch succeeds.
	jdFH, cvFHs := makeForm(t, [2]string{"jd.txt", sampleJD}, [][2]string{{"jane.txt", sampleResume}})
	if _, err := env.processor.ProcessBatch(context.Background(), batch.ID, "user-1", jdFH, cvFHs); err != nil {
		t.Fatalf("resubmission failed: %v", err)
	}
}

func TestProcessBatchCrossTenant(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	batch := mustCreateBatch(t, env, "user-1", "Backend Hiring")

	jdFH, cvFHs := makeForm(t, [2]string{"jd.txt", sampleJD}, [][2]string{{"jane.txt", sampleResume}})

	_, err := env.processor.ProcessBatch(context.Background(), batch.ID, "user-2", jdFH, cvFHs)
	appErr := apperrors.From(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("error = %v, want NOT_FOUND for foreign owner", err)
	}
}

func TestProcessBatchAlreadyCompleted(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	batch := mustCreateBatch(t, env, "user-1", "Backend Hiring")

	jdFH, cvFHs := makeForm(t, [2]string{"jd.txt", sampleJD}, [][2]string{{"jane.txt", sampleResume}})
	if _, err := env.processor.ProcessBatch(context.Background(), batch.ID, "user-1", jdFH, cvFHs); err != nil {
		t.Fatalf("first ProcessBatch: %v", err)
	}

	jdFH, cvFHs = makeForm(t, [2]string{"jd.txt", sampleJD}, [][2]string{{"jane.txt", sampleResume}})
	_, err := env.processor.ProcessBatch(context.Background(), batch.ID, "user-1", jdFH, cvFHs)
	appErr := apperrors.From(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidInput {
		t.Fatalf("error = %v, want INVALID_INPUT for consumed batch", err)
	}
}

func TestProcessBatchConcurrentSubmissions(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	batch := mustCreateBatch(t, env, "user-1", "Backend Hiring")

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		jdFH, cvFHs := makeForm(t, [2]string{"jd.txt", sampleJD}, [][2]string{{"jane.txt", sampleResume}})
		wg.Add(1)
		go func(i int, jdFH *multipart.FileHeader, cvFHs []*multipart.FileHeader) {
			defer wg.Done()
			_, errs[i] = env.processor.ProcessBatch(context.Background(), batch.ID, "user-1", jdFH, cvFHs)
		}(i, jdFH, cvFHs)
	}
	wg.Wait()

	succeeded := 0
	conflicts := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			appErr := apperrors.From(err)
			if appErr == nil {
				t.Fatalf("unexpected error kind: %v", err)
			}
			// Losers that arrive after completion see a consumed batch
			// instead of an in-flight one.
			if appErr.Code == apperrors.CodeAlreadyProcessing || appErr.Code == apperrors.CodeInvalidInput {
				conflicts++
			} else {
				t.Fatalf("unexpected error: %v", err)
			}
		}
	}

	if succeeded != 1 {
		t.Errorf("%d submissions succeeded, want exactly 1", succeeded)
	}
	if conflicts != attempts-1 {
		t.Errorf("%d submissions rejected, want %d", conflicts, attempts-1)
	}

	candidates, _ := env.candidates.ListByBatch(batch.ID)
	if len(candidates) != 1 {
		t.Errorf("stored %d candidates, want 1 (no double processing)", len(candidates))
	}
}

func TestProcessBatchFileTimeout(t *testing.T) {
	env := newTestEnv(t, slowEngine{}, 20*time.Millisecond)
	batch := mustCreateBatch(t, env, "user-1", "Backend Hiring")

	jdFH, cvFHs := makeForm(t, [2]string{"jd.txt", sampleJD}, [][2]string{{"jane.txt", sampleResume}})

	_, err := env.processor.ProcessBatch(context.Background(), batch.ID, "user-1", jdFH, cvFHs)
	appErr := apperrors.From(err)
	if appErr == nil || appErr.Code != apperrors.CodeEmptyBatch {
		t.Fatalf("error = %v, want EMPTY_BATCH after timeout", err)
	}

	stored, _ := env.batchRepo.FindByID(batch.ID, "user-1")
	if stored.Status != models.StatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
}

func TestGetBatch(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	batch := mustCreateBatch(t, env, "user-1", "Backend Hiring")

	detail, err := env.processor.GetBatch(batch.ID, "user-1")
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if detail.Batch.ID != batch.ID {
		t.Errorf("batch id = %s, want %s", detail.Batch.ID, batch.ID)
	}
	if detail.Candidates == nil || len(detail.Candidates) != 0 {
		t.Errorf("candidates = %v, want empty slice", detail.Candidates)
	}

	if _, err := env.processor.GetBatch(batch.ID, "user-2"); apperrors.From(err) == nil {
		t.Error("expected NOT_FOUND for foreign owner")
	}
	if _, err := env.processor.GetBatch(uuid.New(), "user-1"); apperrors.From(err) == nil {
		t.Error("expected NOT_FOUND for unknown id")
	}
}

func TestGetBatchIsIdempotent(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	batch := mustCreateBatch(t, env, "user-1", "Backend Hiring")

	jdFH, cvFHs := makeForm(t, [2]string{"jd.txt", sampleJD}, [][2]string{
		{"john.txt", weakResume},
		{"jane.txt", sampleResume},
	})
	if _, err := env.processor.ProcessBatch(context.Background(), batch.ID, "user-1", jdFH, cvFHs); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	first, err := env.processor.GetBatch(batch.ID, "user-1")
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	second, err := env.processor.GetBatch(batch.ID, "user-1")
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated reads differ:\n%+v\nvs\n%+v", first, second)
	}
}

func TestProcessBatchIndexesStructuredProfiles(t *testing.T) {
	search := &captureSearch{}
	env := newTestEnvWithSearch(t, nil, 0, search)
	batch := mustCreateBatch(t, env, "user-1", "Backend Hiring")

	jdFH, cvFHs := makeForm(t, [2]string{"jd.txt", sampleJD}, [][2]string{{"jane.txt", sampleResume}})
	result, err := env.processor.ProcessBatch(context.Background(), batch.ID, "user-1", jdFH, cvFHs)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}

	if len(search.indexed) != 1 {
		t.Fatalf("indexed %d candidates, want 1", len(search.indexed))
	}
	want := NewPromptBuilder().BuildProfileText(result.Candidates[0])
	if search.indexed[0].ProfileText != want {
		t.Errorf("indexed profile text = %q, want the structured profile %q", search.indexed[0].ProfileText, want)
	}

	if err := env.processor.DeleteBatch(context.Background(), batch.ID, "user-1"); err != nil {
		t.Fatalf("DeleteBatch: %v", err)
	}
	if len(search.deleted) != 1 || search.deleted[0] != batch.ID {
		t.Errorf("deleted batches = %v, want [%s]", search.deleted, batch.ID)
	}
}

func TestDeleteBatch(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	batch := mustCreateBatch(t, env, "user-1", "Backend Hiring")

	err := env.processor.DeleteBatch(context.Background(), batch.ID, "user-2")
	if appErr := apperrors.From(err); appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("error = %v, want NOT_FOUND for foreign owner", err)
	}

	if err := env.processor.DeleteBatch(context.Background(), batch.ID, "user-1"); err != nil {
		t.Fatalf("DeleteBatch: %v", err)
	}
	if _, err := env.processor.GetBatch(batch.ID, "user-1"); apperrors.From(err) == nil {
		t.Error("expected NOT_FOUND after delete")
	}
}

func TestScheduleInterview(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	batch := mustCreateBatch(t, env, "user-1", "Backend Hiring")

	jdFH, cvFHs := makeForm(t, [2]string{"jd.txt", sampleJD}, [][2]string{{"jane.txt", sampleResume}})
	result, err := env.processor.ProcessBatch(context.Background(), batch.ID, "user-1", jdFH, cvFHs)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	candidateID := result.Candidates[0].ID

	if err := env.processor.ScheduleInterview(batch.ID, candidateID, "user-1", "ivw-42"); err != nil {
		t.Fatalf("ScheduleInterview: %v", err)
	}

	stored, err := env.candidates.FindByID(candidateID, batch.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.ScheduledInterviewID == nil || *stored.ScheduledInterviewID != "ivw-42" {
		t.Errorf("scheduled interview = %v, want ivw-42", stored.ScheduledInterviewID)
	}

	err = env.processor.ScheduleInterview(batch.ID, uuid.New(), "user-1", "ivw-43")
	if appErr := apperrors.From(err); appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Errorf("error = %v, want NOT_FOUND for unknown candidate", err)
	}

	err = env.processor.ScheduleInterview(batch.ID, candidateID, "user-2", "ivw-44")
	if appErr := apperrors.From(err); appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Errorf("error = %v, want NOT_FOUND for foreign owner", err)
	}
}

func TestSearchCandidatesUnavailable(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	batch := mustCreateBatch(t, env, "user-1", "Backend Hiring")

	_, err := env.processor.SearchCandidates(context.Background(), batch.ID, "user-1", "go engineer", 5)
	appErr := apperrors.From(err)
	if appErr == nil || appErr.Code != apperrors.CodeUnavailable {
		t.Fatalf("error = %v, want UNAVAILABLE when search is not configured", err)
	}
}
