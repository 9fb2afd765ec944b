// Package scoring implements the pure alignment-score calculations of
// spec.md §4.1. Every exported function is deterministic and side-effect
// free so it can be called directly or wrapped as a tool in
// internal/services/mcp.
package scoring

import (
	"fmt"
	"strings"

	"github.com/smaltravel/findajob/internal/models"
)

// clampPercent rounds a ratio in [0,1] to an integer percentage in [0,100].
func clampPercent(ratio float64) int {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return int(ratio*100 + 0.5)
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	return set
}

// SkillsScore returns the fraction of jobSkills present (case-insensitive)
// in candidateSkills, as a percentage. An empty jobSkills is a vacuous
// match: 100.
func SkillsScore(candidateSkills, jobSkills []string) int {
	if len(jobSkills) == 0 {
		return 100
	}
	have := lowerSet(candidateSkills)
	matched := 0
	for _, want := range jobSkills {
		if _, ok := have[strings.ToLower(strings.TrimSpace(want))]; ok {
			matched++
		}
	}
	return clampPercent(float64(matched) / float64(len(jobSkills)))
}

// IndustriesScore is SkillsScore applied to industries (spec.md §4.1).
func IndustriesScore(candidateIndustries, jobIndustries []string) int {
	return SkillsScore(candidateIndustries, jobIndustries)
}

// ExperienceScore compares total months of experience against the job's
// requirement. A job requiring zero months is a vacuous match: 100.
func ExperienceScore(candidateMonths, jobMonths uint32) int {
	if jobMonths == 0 {
		return 100
	}
	return clampPercent(float64(candidateMonths) / float64(jobMonths))
}

// LanguagesScore compares proficiency weights for every language the job
// requires. For each language present in both maps, the per-language score
// is 100 minus the absolute weight gap; the mean is taken over the job's
// key set (not the intersection), so a required language the candidate
// lacks contributes 0 via the mean denominator (spec.md §4.1). An empty
// jobLangs is a vacuous match: 100.
func LanguagesScore(candidateLangs, jobLangs map[string]models.ProficiencyLevel) int {
	if len(jobLangs) == 0 {
		return 100
	}
	total := 0
	for lang, jobLevel := range jobLangs {
		jobWeight := jobLevel.Weight()
		if jobWeight < 0 {
			continue
		}
		candLevel, ok := candidateLangs[lang]
		if !ok {
			continue // contributes 0 to the sum, still counted in len(jobLangs)
		}
		candWeight := candLevel.Weight()
		if candWeight < 0 {
			continue
		}
		gap := candWeight - jobWeight
		if gap < 0 {
			gap = -gap
		}
		score := 100 - gap
		if score < 0 {
			score = 0
		}
		total += score
	}
	return total / len(jobLangs)
}

// Weights are the fixed contributions of each component to the overall
// alignment score (spec.md §4.1).
const (
	WeightSkills     = 0.3
	WeightEducation  = 0.1
	WeightExperience = 0.3
	WeightLocation   = 0.05
	WeightIndustries = 0.05
	WeightLanguages  = 0.2
)

// Components bundles the six partial scores fed into OverallScore.
type Components struct {
	Skills     int
	Education  int
	Experience int
	Location   int
	Industries int
	Languages  int
}

// OverallScore computes the fixed-weight sum of the six component scores,
// rounded to the nearest integer (spec.md §4.1).
func OverallScore(c Components) (int, error) {
	for name, v := range map[string]int{
		"skills": c.Skills, "education": c.Education, "experience": c.Experience,
		"location": c.Location, "industries": c.Industries, "languages": c.Languages,
	} {
		if v < 0 || v > 100 {
			return 0, fmt.Errorf("scoring: component %q out of range [0,100]: %d", name, v)
		}
	}
	weighted := float64(c.Skills)*WeightSkills +
		float64(c.Education)*WeightEducation +
		float64(c.Experience)*WeightExperience +
		float64(c.Location)*WeightLocation +
		float64(c.Industries)*WeightIndustries +
		float64(c.Languages)*WeightLanguages
	return int(weighted + 0.5), nil
}
