package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cv-intelligence/internal/models"
)

// ParsedResume is the structured output of résumé parsing. Nil contact fields
// mean "not extracted"; downstream code never guesses at missing values.
type ParsedResume struct {
	Name       *string
	Email      *string
	Phone      *string
	Location   *string
	Skills     []string
	Experience models.ExperienceList
	Education  models.EducationList
}

// ResumeParser extracts structured candidate fields from raw résumé text.
// The implementation is pattern-based and fully deterministic: the same text
// always yields the same profile.
type ResumeParser interface {
	Parse(text string) *ParsedResume
}

type resumeParser struct{}

func NewResumeParser() ResumeParser {
	return &resumeParser{}
}

var (
	reEmail     = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	rePhone     = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
	reYearRange = regexp.MustCompile(`(?i)((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+)?(\d{4})\s*(?:[-–—]+|to)\s*((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+)?(\d{4}|present|current|now)`)
	reYear      = regexp.MustCompile(`(19|20)\d{2}`)
	reNonWord   = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	reSpaces    = regexp.MustCompile(`\s+`)
)

// skillVocabulary seeds deterministic skill extraction. Matching is done on
// normalized whole phrases, so "Node.js" in the text matches "node js" here.
var skillVocabulary = []string{
	"Go", "Golang", "Python", "Java", "JavaScript", "TypeScript", "C++", "C#",
	"Ruby", "PHP", "Rust", "Kotlin", "Swift", "Scala", "SQL",
	"React", "Vue", "Angular", "Next.js", "Node.js", "Express", "Django",
	"Flask", "Spring", "Rails", ".NET", "GraphQL", "REST", "gRPC",
	"PostgreSQL", "MySQL", "MongoDB", "Redis", "Elasticsearch", "Kafka",
	"RabbitMQ", "SQLite", "Oracle", "Cassandra", "DynamoDB",
	"Docker", "Kubernetes", "Terraform", "Ansible", "Jenkins", "Git",
	"CI/CD", "AWS", "Azure", "GCP", "Linux", "Nginx",
	"Machine Learning", "Deep Learning", "NLP", "Data Science", "Pandas",
	"TensorFlow", "PyTorch", "Microservices", "DevOps", "Agile", "Scrum",
	"HTML", "CSS", "Sass", "Tailwind", "Figma",
	"Excel", "Tableau", "Power BI", "Salesforce", "SAP",
	"Project Management", "Leadership", "Communication",
}

var skillAliases = map[string]string{
	"golang": "go",
	"k8s":    "kubernetes",
	"js":     "javascript",
	"ts":     "typescript",
	"postgres": "postgresql",
}

var experienceHeaders = map[string]bool{
	"experience":              true,
	"work experience":         true,
	"professional experience": true,
	"employment":              true,
	"employment history":      true,
	"work history":            true,
}

var educationHeaders = map[string]bool{
	"education":          true,
	"academic background": true,
	"qualifications":     true,
}

var skillsHeaders = map[string]bool{
	"skills":           true,
	"technical skills": true,
	"core skills":      true,
	"key skills":       true,
	"technologies":     true,
}

var otherHeaders = map[string]bool{
	"summary":        true,
	"profile":        true,
	"projects":       true,
	"certifications": true,
	"languages":      true,
	"interests":      true,
	"references":     true,
}

// Parse implements ResumeParser.
func (p *resumeParser) Parse(text string) *ParsedResume {
	lines := strings.Split(text, "\n")
	sections := splitSections(lines)

	parsed := &ParsedResume{
		Email:    findEmail(text),
		Phone:    findPhone(text),
		Name:     findName(lines),
		Location: findLocation(lines),
	}

	parsed.Skills = extractSkills(text, sections["skills"])
	parsed.Experience = parseExperience(sections["experience"])
	parsed.Education = parseEducation(sections["education"])

	return parsed
}

// normalizeText lowercases and strips everything that is not a letter or
// digit, collapsing the result to single spaces.
func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = reNonWord.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// containsPhrase checks for the normalized phrase as whole words.
func containsPhrase(normalizedText, normalizedPhrase string) bool {
	if normalizedPhrase == "" {
		return false
	}
	hay := " " + normalizedText + " "
	needle := " " + normalizedPhrase + " "
	return strings.Contains(hay, needle)
}

func canonicalSkill(s string) string {
	n := normalizeText(s)
	if alias, ok := skillAliases[n]; ok {
		return alias
	}
	return n
}

func findEmail(text string) *string {
	if m := reEmail.FindString(text); m != "" {
		return &m
	}
	return nil
}

func findPhone(text string) *string {
	for _, m := range rePhone.FindAllString(text, -1) {
		digits := 0
		for _, r := range m {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		// Year ranges and zip codes also look phone-ish; require a
		// realistic digit count.
		if digits >= 9 && digits <= 15 {
			trimmed := strings.TrimSpace(m)
			return &trimmed
		}
	}
	return nil
}

// findName takes the first line that looks like a person's name: two to four
// capitalized words, no digits, no contact markers.
func findName(lines []string) *string {
	limit := 5
	if len(lines) < limit {
		limit = len(lines)
	}
	for _, line := range lines[:limit] {
		line = strings.TrimSpace(line)
		if line == "" || strings.ContainsAny(line, "@0123456789") {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		ok := true
		for _, w := range words {
			r := []rune(w)
			if r[0] < 'A' || r[0] > 'Z' {
				ok = false
				break
			}
		}
		if ok && !isSectionHeader(line) {
			return &line
		}
	}
	return nil
}

func findLocation(lines []string) *string {
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, label := range []string{"location:", "address:", "based in:"} {
			if strings.HasPrefix(lower, label) {
				loc := strings.TrimSpace(line[len(label):])
				if loc != "" {
					return &loc
				}
			}
		}
	}
	return nil
}

func isSectionHeader(line string) bool {
	key := normalizeText(strings.TrimSuffix(strings.TrimSpace(line), ":"))
	return experienceHeaders[key] || educationHeaders[key] || skillsHeaders[key] || otherHeaders[key]
}

// splitSections buckets lines under the section header preceding them.
func splitSections(lines []string) map[string][]string {
	sections := make(map[string][]string)
	current := ""

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		key := normalizeText(strings.TrimSuffix(trimmed, ":"))
		switch {
		case experienceHeaders[key]:
			current = "experience"
			continue
		case educationHeaders[key]:
			current = "education"
			continue
		case skillsHeaders[key]:
			current = "skills"
			continue
		case otherHeaders[key]:
			current = ""
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], trimmed)
		}
	}

	return sections
}

// extractSkills merges vocabulary hits over the whole text with the items
// listed in the skills section, deduplicated on canonical form. Vocabulary
// order comes first so output order is stable across runs.
func extractSkills(text string, skillsSection []string) []string {
	normalized := normalizeText(text)
	seen := make(map[string]bool)
	var skills []string

	for _, skill := range skillVocabulary {
		canon := canonicalSkill(skill)
		if seen[canon] {
			continue
		}
		if containsPhrase(normalized, normalizeText(skill)) {
			seen[canon] = true
			skills = append(skills, skill)
		}
	}

	for _, line := range skillsSection {
		for _, item := range splitListItems(line) {
			canon := canonicalSkill(item)
			if canon == "" || seen[canon] {
				continue
			}
			seen[canon] = true
			skills = append(skills, item)
		}
	}

	return skills
}

func splitListItems(line string) []string {
	line = strings.TrimLeft(line, "-•*· \t")
	parts := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ';' || r == '|' || r == '•'
	})
	var items []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" && len(p) <= 40 {
			items = append(items, p)
		}
	}
	return items
}

// parseExperience builds entries from lines carrying a year range. The line
// text around the range is split into role and company; bullet lines that
// follow become achievements. Entries come out most-recent first.
func parseExperience(lines []string) models.ExperienceList {
	var entries models.ExperienceList
	var current *models.ExperienceItem

	for _, line := range lines {
		if m := reYearRange.FindStringSubmatch(line); m != nil {
			if current != nil {
				entries = append(entries, *current)
			}
			start := strings.TrimSpace(strings.TrimSpace(m[1]) + " " + m[2])
			end := strings.TrimSpace(strings.TrimSpace(m[3]) + " " + normalizeEnd(m[4]))
			role, company := splitRoleCompany(strings.TrimSpace(reYearRange.ReplaceAllString(line, "")))
			current = &models.ExperienceItem{
				Role:      role,
				Company:   company,
				StartDate: start,
				EndDate:   end,
			}
			continue
		}

		if current != nil && isBullet(line) {
			current.Achievements = append(current.Achievements, strings.TrimLeft(line, "-•*· \t"))
			continue
		}

		// A bare line right after a dated line often carries the company.
		if current != nil && current.Company == "" && !isBullet(line) {
			current.Company = strings.TrimSpace(line)
		}
	}
	if current != nil {
		entries = append(entries, *current)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return endYear(entries[i]) > endYear(entries[j])
	})

	return entries
}

func normalizeEnd(s string) string {
	switch strings.ToLower(s) {
	case "current", "now":
		return "present"
	default:
		return strings.ToLower(s)
	}
}

func endYear(e models.ExperienceItem) int {
	if strings.Contains(strings.ToLower(e.EndDate), "present") {
		return 10000
	}
	if m := reYear.FindString(e.EndDate); m != "" {
		y, _ := strconv.Atoi(m)
		return y
	}
	return 0
}

func splitRoleCompany(s string) (string, string) {
	s = strings.Trim(s, " \t,|()–—-")
	for _, sep := range []string{" at ", " @ ", " - ", " – ", " — ", " | ", ", "} {
		if idx := strings.Index(s, sep); idx > 0 {
			return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+len(sep):])
		}
	}
	return s, ""
}

func isBullet(line string) bool {
	return strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") ||
		strings.HasPrefix(line, "*") || strings.HasPrefix(line, "·")
}

var degreeKeywords = []struct {
	keyword string
	degree  string
}{
	{"phd", "PhD"},
	{"ph d", "PhD"},
	{"doctorate", "PhD"},
	{"master", "Master"},
	{"msc", "Master"},
	{"m sc", "Master"},
	{"mba", "Master"},
	{"bachelor", "Bachelor"},
	{"bsc", "Bachelor"},
	{"b sc", "Bachelor"},
	{"b tech", "Bachelor"},
	{"beng", "Bachelor"},
	{"associate", "Associate"},
	{"diploma", "Diploma"},
}

// parseEducation builds one entry per line mentioning a degree keyword or an
// institution marker.
func parseEducation(lines []string) models.EducationList {
	var entries models.EducationList

	for _, line := range lines {
		norm := normalizeText(line)
		degree := ""
		for _, dk := range degreeKeywords {
			if containsPhrase(norm, dk.keyword) {
				degree = dk.degree
				break
			}
		}

		institution := findInstitution(line)
		if degree == "" && institution == "" {
			continue
		}

		entry := models.EducationItem{
			Institution: institution,
			Degree:      degree,
			Field:       findField(line),
			Year:        reYear.FindString(line),
		}
		entries = append(entries, entry)
	}

	return entries
}

func findInstitution(line string) string {
	for _, marker := range []string{"University", "College", "Institute", "School", "Academy"} {
		if idx := strings.Index(line, marker); idx >= 0 {
			// Walk back to the start of the institution name segment.
			segStart := 0
			for _, sep := range []string{",", "|", " - ", "–"} {
				if i := strings.LastIndex(line[:idx], sep); i >= 0 && i+len(sep) > segStart {
					segStart = i + len(sep)
				}
			}
			segEnd := len(line)
			for _, sep := range []string{",", "|", " - ", "–"} {
				if i := strings.Index(line[idx:], sep); i >= 0 && idx+i < segEnd {
					segEnd = idx + i
				}
			}
			return strings.TrimSpace(line[segStart:segEnd])
		}
	}
	return ""
}

func findField(line string) string {
	lower := strings.ToLower(line)
	for _, marker := range []string{" in ", " of "} {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		rest := line[idx+len(marker):]
		end := len(rest)
		for _, sep := range []string{",", "|", "(", " - ", "–"} {
			if i := strings.Index(rest, sep); i >= 0 && i < end {
				end = i
			}
		}
		field := strings.TrimSpace(reYear.ReplaceAllString(rest[:end], ""))
		field = strings.Trim(field, " ,-–")
		if field != "" {
			return field
		}
	}
	return ""
}
