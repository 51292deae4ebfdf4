package agent

import (
	"regexp"
	"strconv"
	"strings"
)

// Heuristic term lists for the keyword pass over a job description.
var (
	mustHaveTerms   = []string{"python", "fastapi", "sql", "postgres", "machine learning", "ml", "data"}
	niceToHaveTerms = []string{"aws", "gcp", "azure", "docker", "kubernetes", "llm", "langchain", "vector"}
)

var yearsPattern = regexp.MustCompile(`(\d+)\+?\s*years`)

// AnalyzeJob runs the keyword heuristics over a job description and guesses
// seniority from the largest "N years" mention: 8+ is senior, 2 or fewer is
// junior, anything else is mid.
func AnalyzeJob(jobDescription string) *JobAnalysis {
	jd := strings.ToLower(jobDescription)

	analysis := &JobAnalysis{
		MustHaveSkills:   []string{},
		NiceToHaveSkills: []string{},
		Keywords:         []string{},
		SeniorityGuess:   "mid",
	}
	for _, term := range mustHaveTerms {
		if strings.Contains(jd, term) {
			analysis.MustHaveSkills = append(analysis.MustHaveSkills, term)
		}
	}
	for _, term := range niceToHaveTerms {
		if strings.Contains(jd, term) {
			analysis.NiceToHaveSkills = append(analysis.NiceToHaveSkills, term)
		}
	}

	seen := make(map[string]bool)
	for _, term := range append(append([]string{}, analysis.MustHaveSkills...), analysis.NiceToHaveSkills...) {
		if !seen[term] {
			seen[term] = true
			analysis.Keywords = append(analysis.Keywords, term)
		}
	}

	maxYears := -1
	for _, m := range yearsPattern.FindAllStringSubmatch(jd, -1) {
		if y, err := strconv.Atoi(m[1]); err == nil && y > maxYears {
			maxYears = y
		}
	}
	switch {
	case maxYears < 0:
		// no mention, keep mid
	case maxYears >= 8:
		analysis.SeniorityGuess = "senior"
	case maxYears <= 2:
		analysis.SeniorityGuess = "junior"
	}

	return analysis
}

// ScoreFit computes the [0,1] overlap between profile skills and the job's
// requirement lists. Must-have overlap is weighted double; totals floor at
// one so an empty requirement list cannot divide by zero.
func ScoreFit(profileSkills []string, analysis *JobAnalysis) (float64, FitReasons) {
	skills := make(map[string]bool, len(profileSkills))
	for _, s := range profileSkills {
		skills[strings.ToLower(s)] = true
	}

	mustHits := 0
	for _, s := range analysis.MustHaveSkills {
		if skills[strings.ToLower(s)] {
			mustHits++
		}
	}
	niceHits := 0
	for _, s := range analysis.NiceToHaveSkills {
		if skills[strings.ToLower(s)] {
			niceHits++
		}
	}

	mustTotal := len(analysis.MustHaveSkills)
	if mustTotal < 1 {
		mustTotal = 1
	}
	niceTotal := len(analysis.NiceToHaveSkills)
	if niceTotal < 1 {
		niceTotal = 1
	}

	score := (2*(float64(mustHits)/float64(mustTotal)) + float64(niceHits)/float64(niceTotal)) / 3
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return score, FitReasons{
		MustHaveHit:   mustHits,
		MustHaveTotal: len(analysis.MustHaveSkills),
		NiceHaveHit:   niceHits,
		NiceHaveTotal: len(analysis.NiceToHaveSkills),
	}
}
