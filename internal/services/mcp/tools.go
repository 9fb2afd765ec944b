package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/smaltravel/findajob/internal/models"
	"github.com/smaltravel/findajob/internal/scoring"
)

// calculateMonthBetween implements spec.md §4.2 tool 1: returns
// (end.year-start.year)*12 + (end.month-start.month); fails on malformed
// YYYY-MM inputs.
func calculateMonthBetween(_ context.Context, args map[string]interface{}) (interface{}, error) {
	start, ok := args["start_date"].(string)
	if !ok {
		return nil, fmt.Errorf("start_date must be a string")
	}
	end, ok := args["end_date"].(string)
	if !ok {
		return nil, fmt.Errorf("end_date must be a string")
	}

	startT, err := time.Parse("2006-01", start)
	if err != nil {
		return nil, fmt.Errorf("malformed start_date %q, expected YYYY-MM: %w", start, err)
	}
	endT, err := time.Parse("2006-01", end)
	if err != nil {
		return nil, fmt.Errorf("malformed end_date %q, expected YYYY-MM: %w", end, err)
	}

	months := (endT.Year()-startT.Year())*12 + int(endT.Month()-startT.Month())
	return months, nil
}

// toolFromStringSlices adapts a scoring.SkillsScore-shaped function into a
// ToolFunc, reused for calculate_skills_score and calculate_industries_score.
func toolFromStringSlices(fn func(a, b []string) int, candKey, jobKey string) ToolFunc {
	return func(_ context.Context, args map[string]interface{}) (interface{}, error) {
		candidate, err := stringSliceArg(args, candKey)
		if err != nil {
			return nil, err
		}
		job, err := stringSliceArg(args, jobKey)
		if err != nil {
			return nil, err
		}
		return fn(candidate, job), nil
	}
}

func calculateExperienceScore(_ context.Context, args map[string]interface{}) (interface{}, error) {
	candidate, err := uintArg(args, "candidate_months")
	if err != nil {
		return nil, err
	}
	job, err := uintArg(args, "job_months")
	if err != nil {
		return nil, err
	}
	return scoring.ExperienceScore(candidate, job), nil
}

func calculateLanguagesScore(_ context.Context, args map[string]interface{}) (interface{}, error) {
	candidate, err := languageMapArg(args, "candidate_languages")
	if err != nil {
		return nil, err
	}
	job, err := languageMapArg(args, "job_languages")
	if err != nil {
		return nil, err
	}
	return scoring.LanguagesScore(candidate, job), nil
}

func calculateOverallScore(_ context.Context, args map[string]interface{}) (interface{}, error) {
	raw, ok := args["scores"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("scores must be an object")
	}
	components := scoring.Components{}
	fields := map[string]*int{
		"skills": &components.Skills, "education": &components.Education,
		"experience": &components.Experience, "location": &components.Location,
		"industries": &components.Industries, "languages": &components.Languages,
	}
	for name, dst := range fields {
		v, err := numberField(raw, name)
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	return scoring.OverallScore(components)
}

func stringSliceArg(args map[string]interface{}, key string) ([]string, error) {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an array of strings", key)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s must contain only strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}

func uintArg(args map[string]interface{}, key string) (uint32, error) {
	f, ok := args[key].(float64)
	if !ok || f < 0 {
		return 0, fmt.Errorf("%s must be a non-negative number", key)
	}
	return uint32(f), nil
}

func numberField(m map[string]interface{}, key string) (int, error) {
	f, ok := m[key].(float64)
	if !ok {
		return 0, fmt.Errorf("scores.%s must be a number", key)
	}
	return int(f), nil
}

func languageMapArg(args map[string]interface{}, key string) (map[string]models.ProficiencyLevel, error) {
	raw, ok := args[key].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an object mapping language to proficiency", key)
	}
	out := make(map[string]models.ProficiencyLevel, len(raw))
	for lang, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s.%s must be a proficiency string", key, lang)
		}
		out[lang] = models.ProficiencyLevel(s)
	}
	return out, nil
}

// wrapResult serializes a tool's return value as {"result": value}, the
// shape the LLM client appends to conversation history as a tool-response
// turn (spec.md §4.2).
func wrapResult(result interface{}) string {
	body, err := json.Marshal(map[string]interface{}{"result": result})
	if err != nil {
		return fmt.Sprintf(`{"result":null,"marshal_error":%q}`, err.Error())
	}
	return string(body)
}
