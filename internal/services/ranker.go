package services

import (
	"math"
	"sort"

	"cv-intelligence/internal/apperrors"
	"cv-intelligence/internal/models"
)

// RankedResult is the ordered candidate set plus its batch summary.
type RankedResult struct {
	Candidates []models.Candidate
	Summary    models.BatchSummary
}

// ResultAggregator orders analyzed candidates and computes the batch summary.
type ResultAggregator interface {
	Rank(candidates []models.Candidate, failedCount int) (*RankedResult, error)
}

type resultAggregator struct{}

func NewResultAggregator() ResultAggregator {
	return &resultAggregator{}
}

// Rank implements ResultAggregator. Candidates are sorted by score descending
// with a stable sort, so equal scores keep their submission order, and rank is
// the 1-based position in the sorted sequence.
func (a *resultAggregator) Rank(candidates []models.Candidate, failedCount int) (*RankedResult, error) {
	if len(candidates) == 0 {
		return nil, apperrors.NewEmptyBatch("no candidate could be analyzed")
	}

	ranked := make([]models.Candidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	scoreSum := 0
	highlyRecommended := 0
	for i := range ranked {
		ranked[i].Rank = i + 1
		scoreSum += ranked[i].Score
		if ranked[i].Recommendation == RecommendationHighly {
			highlyRecommended++
		}
	}

	summary := models.BatchSummary{
		TotalProcessed:         len(ranked),
		AverageScore:           int(math.Round(float64(scoreSum) / float64(len(ranked)))),
		HighlyRecommendedCount: highlyRecommended,
		FailedCount:            failedCount,
	}

	return &RankedResult{Candidates: ranked, Summary: summary}, nil
}
