package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"cv-intelligence/internal/models"
)

// Score weights and recommendation thresholds. These are policy constants:
// tests pin them, and changing them changes every score going forward.
const (
	weightSkills     = 0.50
	weightExperience = 0.30
	weightEducation  = 0.20

	thresholdHighlyRecommended = 85
	thresholdRecommended       = 70
	thresholdConsider          = 50

	// Assumed when the job description states no experience requirement.
	defaultRequiredYears = 3
)

const (
	RecommendationHighly      = "Highly Recommended"
	RecommendationRecommended = "Recommended"
	RecommendationConsider    = "Consider"
	RecommendationNot         = "Not Recommended"
)

var (
	reRequiredYears = regexp.MustCompile(`(?i)(\d{1,2})\s*\+?\s*years?`)
	reJDStopword    = map[string]bool{
		"the": true, "and": true, "for": true, "with": true, "our": true,
		"you": true, "are": true, "will": true, "senior": true, "junior": true,
		"lead": true, "mid": true, "level": true,
	}
)

// JobRequirements is the parsed, ephemeral form of a job description. It is
// built once per submission and never persisted.
type JobRequirements struct {
	Skills         []string
	RequiredYears  int
	TitleTokens    []string
	NormalizedText string
}

// ScoreBreakdown is the scored match of one candidate against the
// requirements. Component scores are 0-100; Total is their weighted sum.
type ScoreBreakdown struct {
	Matched         []string
	Missing         []string
	SkillScore      int
	ExperienceScore int
	EducationScore  int
	Total           int
	Recommendation  string
}

// Scorer turns a parsed résumé and job requirements into a match score.
// Scoring is pure arithmetic over extracted fields, so identical inputs
// always produce identical scores.
type Scorer interface {
	ParseJobRequirements(text string) JobRequirements
	Score(parsed *ParsedResume, req JobRequirements) ScoreBreakdown
}

type scorer struct{}

func NewScorer() Scorer {
	return &scorer{}
}

// ParseJobRequirements implements Scorer.
func (s *scorer) ParseJobRequirements(text string) JobRequirements {
	normalized := normalizeText(text)

	req := JobRequirements{
		NormalizedText: normalized,
		RequiredYears:  defaultRequiredYears,
	}

	if m := reRequiredYears.FindStringSubmatch(text); m != nil {
		if years, err := strconv.Atoi(m[1]); err == nil && years > 0 {
			req.RequiredYears = years
		}
	}

	seen := make(map[string]bool)
	for _, skill := range skillVocabulary {
		canon := canonicalSkill(skill)
		if seen[canon] {
			continue
		}
		if containsPhrase(normalized, normalizeText(skill)) {
			seen[canon] = true
			req.Skills = append(req.Skills, skill)
		}
	}

	req.TitleTokens = titleTokens(text)
	return req
}

// titleTokens pulls distinguishing words from the job title, assumed to be
// the first non-empty line of the description.
func titleTokens(text string) []string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var tokens []string
		for _, tok := range strings.Fields(normalizeText(line)) {
			if len(tok) > 2 && !reJDStopword[tok] {
				tokens = append(tokens, tok)
			}
			if len(tokens) == 6 {
				break
			}
		}
		return tokens
	}
	return nil
}

// Score implements Scorer.
func (s *scorer) Score(parsed *ParsedResume, req JobRequirements) ScoreBreakdown {
	matched, missing := matchSkills(parsed.Skills, req.Skills)

	breakdown := ScoreBreakdown{
		Matched:         matched,
		Missing:         missing,
		SkillScore:      skillScore(len(matched), len(req.Skills)),
		ExperienceScore: experienceScore(parsed.Experience, req),
		EducationScore:  educationScore(parsed.Education, req),
	}

	total := weightSkills*float64(breakdown.SkillScore) +
		weightExperience*float64(breakdown.ExperienceScore) +
		weightEducation*float64(breakdown.EducationScore)

	breakdown.Total = clampScore(int(math.Round(total)))
	breakdown.Recommendation = RecommendationFor(breakdown.Total)
	return breakdown
}

// RecommendationFor maps a 0-100 score onto its recommendation band.
func RecommendationFor(score int) string {
	switch {
	case score >= thresholdHighlyRecommended:
		return RecommendationHighly
	case score >= thresholdRecommended:
		return RecommendationRecommended
	case score >= thresholdConsider:
		return RecommendationConsider
	default:
		return RecommendationNot
	}
}

// matchSkills intersects candidate and required skills on canonical form,
// case-insensitive. Output order follows the required-skill order.
func matchSkills(candidateSkills, requiredSkills []string) (matched, missing []string) {
	have := make(map[string]bool, len(candidateSkills))
	for _, skill := range candidateSkills {
		have[canonicalSkill(skill)] = true
	}

	for _, skill := range requiredSkills {
		if have[canonicalSkill(skill)] {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}
	return matched, missing
}

func skillScore(matched, required int) int {
	if required == 0 {
		// Nothing concrete to match against; stay neutral.
		return 50
	}
	return clampScore(int(math.Round(100 * float64(matched) / float64(required))))
}

// experienceScore blends years of experience against the requirement (70%)
// with role-title relevance (30%). "Present" end dates resolve against the
// latest year mentioned in the entries, keeping the result deterministic.
func experienceScore(experience []models.ExperienceItem, req JobRequirements) int {
	if len(experience) == 0 {
		// Unparsed or genuinely absent history; a floor instead of zero so
		// skill evidence can still carry a readable résumé.
		return 20
	}

	years := totalYears(experience)
	required := req.RequiredYears
	if required <= 0 {
		required = defaultRequiredYears
	}
	ratio := float64(years) / float64(required)
	if ratio > 1 {
		ratio = 1
	}
	base := 70 * ratio

	bonus := 15.0
	if len(req.TitleTokens) > 0 {
		hits := 0
		for _, tok := range req.TitleTokens {
			for _, item := range experience {
				if containsPhrase(normalizeText(item.Role), tok) {
					hits++
					break
				}
			}
		}
		bonus = 30 * float64(hits) / float64(len(req.TitleTokens))
	}

	return clampScore(int(math.Round(base + bonus)))
}

func totalYears(experience []models.ExperienceItem) int {
	maxKnown := 0
	for _, item := range experience {
		for _, y := range []string{item.StartDate, item.EndDate} {
			if m := reYear.FindString(y); m != "" {
				if v, _ := strconv.Atoi(m); v > maxKnown {
					maxKnown = v
				}
			}
		}
	}

	years := 0
	for _, item := range experience {
		start := yearOf(item.StartDate, 0)
		end := yearOf(item.EndDate, 0)
		if strings.Contains(strings.ToLower(item.EndDate), "present") {
			end = maxKnown
		}
		if start == 0 {
			continue
		}
		span := end - start
		if span < 1 {
			span = 1
		}
		years += span
	}

	if years > 30 {
		years = 30
	}
	return years
}

func yearOf(s string, fallback int) int {
	if m := reYear.FindString(s); m != "" {
		v, _ := strconv.Atoi(m)
		return v
	}
	return fallback
}

var degreeScores = map[string]int{
	"PhD":       100,
	"Master":    90,
	"Bachelor":  75,
	"Associate": 60,
	"Diploma":   60,
}

// educationScore takes the highest recognized degree plus a small bonus when
// the field of study appears in the job description.
func educationScore(education []models.EducationItem, req JobRequirements) int {
	if len(education) == 0 {
		return 30
	}

	best := 50
	fieldBonus := 0
	for _, item := range education {
		if score, ok := degreeScores[item.Degree]; ok && score > best {
			best = score
		}
		if fieldBonus == 0 && item.Field != "" {
			for _, tok := range strings.Fields(normalizeText(item.Field)) {
				if len(tok) > 2 && containsPhrase(req.NormalizedText, tok) {
					fieldBonus = 10
					break
				}
			}
		}
	}

	return clampScore(best + fieldBonus)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
