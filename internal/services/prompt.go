package services

import (
	"fmt"
	"strings"

	"cv-intelligence/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildCandidateSummaryPrompt asks for a short recruiter-facing narrative on
// top of the already-computed deterministic analysis.
func (pb *PromptBuilder) BuildCandidateSummaryPrompt(candidate models.Candidate, breakdown ScoreBreakdown) string {
	name := "The candidate"
	if candidate.Personal.Name != nil {
		name = *candidate.Personal.Name
	}

	return fmt.Sprintf(`You are an expert HR recruiter writing a brief note about a candidate.

CANDIDATE: %s
MATCH SCORE: %d/100 (%s)
MATCHED SKILLS: %s
MISSING SKILLS: %s
EXPERIENCE ENTRIES: %d
EDUCATION ENTRIES: %d

Write a 2-3 sentence summary of this candidate's fit for the role. Mention
the strongest matched skills and the most important gap. Return ONLY the
summary text, no headings and no JSON.`,
		name,
		candidate.Score,
		candidate.Recommendation,
		joinOrNone(breakdown.Matched),
		joinOrNone(breakdown.Missing),
		len(candidate.Experience),
		len(candidate.Education),
	)
}

// BuildProfileText flattens a candidate into the text that gets chunked and
// embedded for semantic search.
func (pb *PromptBuilder) BuildProfileText(candidate models.Candidate) string {
	var b strings.Builder

	if candidate.Personal.Name != nil {
		b.WriteString(*candidate.Personal.Name)
		b.WriteString("\n")
	}
	if len(candidate.Skills.All) > 0 {
		b.WriteString("Skills: ")
		b.WriteString(strings.Join(candidate.Skills.All, ", "))
		b.WriteString("\n")
	}
	for _, item := range candidate.Experience {
		b.WriteString(fmt.Sprintf("%s at %s (%s - %s)\n", item.Role, item.Company, item.StartDate, item.EndDate))
		for _, a := range item.Achievements {
			b.WriteString(a)
			b.WriteString("\n")
		}
	}
	for _, item := range candidate.Education {
		b.WriteString(fmt.Sprintf("%s %s %s %s\n", item.Degree, item.Field, item.Institution, item.Year))
	}

	return b.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
