package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"cv-intelligence/internal/models"
)

// ExtractionError marks a single résumé that could not be analyzed. It is
// non-fatal: the batch proceeds with the remaining files and the failure is
// surfaced in the summary.
type ExtractionError struct {
	Filename string
	Reason   string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %s", e.Filename, e.Reason)
}

// AnalysisEngine runs the per-résumé pipeline: extract text, parse structured
// fields, score against the job requirements. An optional LLM backend adds a
// narrative summary; the numeric score never depends on it, so analysis stays
// deterministic whether or not the backend is configured.
type AnalysisEngine interface {
	Analyze(ctx context.Context, filename string, data []byte, req JobRequirements) (*models.Candidate, error)
}

type analysisEngine struct {
	extractor TextExtractor
	parser    ResumeParser
	scorer    Scorer
	gemini    GeminiService
	prompts   *PromptBuilder
}

// NewAnalysisEngine wires the pipeline. gemini may be nil to run without
// LLM enrichment.
func NewAnalysisEngine(
	extractor TextExtractor,
	parser ResumeParser,
	scorer Scorer,
	gemini GeminiService,
) AnalysisEngine {
	return &analysisEngine{
		extractor: extractor,
		parser:    parser,
		scorer:    scorer,
		gemini:    gemini,
		prompts:   NewPromptBuilder(),
	}
}

// Analyze implements AnalysisEngine.
func (e *analysisEngine) Analyze(ctx context.Context, filename string, data []byte, req JobRequirements) (*models.Candidate, error) {
	text, err := e.extractor.Extract(filename, data)
	if err != nil {
		return nil, &ExtractionError{Filename: filename, Reason: err.Error()}
	}

	parsed := e.parser.Parse(text)
	breakdown := e.scorer.Score(parsed, req)

	candidate := models.Candidate{
		Filename: filename,
		Personal: models.PersonalInfo{
			Name:     parsed.Name,
			Email:    parsed.Email,
			Phone:    parsed.Phone,
			Location: parsed.Location,
		},
		Skills: models.SkillSet{
			All:     parsed.Skills,
			Matched: breakdown.Matched,
			Missing: breakdown.Missing,
		},
		Experience:     parsed.Experience,
		Education:      parsed.Education,
		Score:          breakdown.Total,
		Recommendation: breakdown.Recommendation,
	}

	// Enrich with an LLM summary when the backend is available. Failures
	// degrade to the deterministic result instead of failing the file.
	if e.gemini != nil {
		prompt := e.prompts.BuildCandidateSummaryPrompt(candidate, breakdown)
		summary, err := e.gemini.GenerateTextWithRetry(ctx, prompt, 0.3, 2)
		if err != nil {
			log.Printf("⚠️  Summary generation failed for %s: %v\n", filename, err)
		} else {
			candidate.Summary = strings.TrimSpace(summary)
		}
	}

	return &candidate, nil
}
