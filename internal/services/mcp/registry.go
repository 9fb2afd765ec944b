package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/smaltravel/findajob/internal/scoring"
)

// ToolFunc is a bound, callable tool implementation. It receives validated
// arguments and returns a JSON-serializable result or an error.
type ToolFunc func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Registry declares the six tools of spec.md §4.2 and dispatches calls
// from the LLM client after validating arguments against the declared
// schema, per spec.md §4.2: "validate every tool-call request from the
// model against the declared schema before dispatch".
type Registry struct {
	tools   []Tool
	callers map[string]ToolFunc
	logger  arbor.ILogger
}

// NewRegistry builds the fixed tool set bound to the Scoring Kernel (C1)
// plus the calculate_month_between date helper.
func NewRegistry(logger arbor.ILogger) *Registry {
	r := &Registry{
		callers: make(map[string]ToolFunc),
		logger:  logger,
	}

	r.register(Tool{
		Name:        "calculate_month_between",
		Description: "Computes the number of whole months between two YYYY-MM dates.",
		InputSchema: objectSchema(map[string]string{
			"start_date": "string", "end_date": "string",
		}, "start_date", "end_date"),
	}, calculateMonthBetween)

	r.register(Tool{
		Name:        "calculate_skills_score",
		Description: "Scores the fraction of job skills present in the candidate's skills, 0-100.",
		InputSchema: objectSchema(map[string]string{
			"candidate_skills": "array", "job_skills": "array",
		}, "candidate_skills", "job_skills"),
	}, toolFromStringSlices(scoring.SkillsScore, "candidate_skills", "job_skills"))

	r.register(Tool{
		Name:        "calculate_experience_score",
		Description: "Scores candidate months of experience against the job's requirement, 0-100.",
		InputSchema: objectSchema(map[string]string{
			"candidate_months": "integer", "job_months": "integer",
		}, "candidate_months", "job_months"),
	}, calculateExperienceScore)

	r.register(Tool{
		Name:        "calculate_industries_score",
		Description: "Scores the fraction of job industries present in the candidate's industries, 0-100.",
		InputSchema: objectSchema(map[string]string{
			"candidate_industries": "array", "job_industries": "array",
		}, "candidate_industries", "job_industries"),
	}, toolFromStringSlices(scoring.IndustriesScore, "candidate_industries", "job_industries"))

	r.register(Tool{
		Name:        "calculate_languages_score",
		Description: "Scores candidate language proficiency against the job's required languages, 0-100.",
		InputSchema: objectSchema(map[string]string{
			"candidate_languages": "object", "job_languages": "object",
		}, "candidate_languages", "job_languages"),
	}, calculateLanguagesScore)

	r.register(Tool{
		Name:        "calculate_overall_score",
		Description: "Computes the fixed-weight overall alignment score from the six component scores.",
		InputSchema: objectSchema(map[string]string{
			"scores": "object",
		}, "scores"),
	}, calculateOverallScore)

	return r
}

func (r *Registry) register(t Tool, fn ToolFunc) {
	r.tools = append(r.tools, t)
	r.callers[t.Name] = fn
}

// List returns the tool manifest to send with every agent() call.
func (r *Registry) List() ToolList {
	return ToolList{Tools: r.tools}
}

// Dispatch validates a tool call's arguments against its declared schema
// and invokes the bound function, per spec.md §4.2 and §7 (tool-call
// error: unknown tool or argument-shape violation, returned to the model
// as a structured tool error rather than propagated).
func (r *Registry) Dispatch(ctx context.Context, use ToolUse) ToolResponse {
	start := time.Now()

	tool, caller, ok := r.lookup(use.Name)
	if !ok {
		r.logger.Warn().Str("tool", use.Name).Msg("unknown tool requested by model")
		return errorResponse(use.ID, fmt.Sprintf("unknown tool: %s", use.Name))
	}

	if err := validateArgs(tool.InputSchema, use.Arguments); err != nil {
		r.logger.Warn().Err(err).Str("tool", use.Name).Msg("tool argument validation failed")
		return errorResponse(use.ID, err.Error())
	}

	result, err := caller(ctx, use.Arguments)
	duration := time.Since(start)
	if err != nil {
		r.logger.Warn().Err(err).Str("tool", use.Name).Dur("duration", duration).Msg("tool execution failed")
		return errorResponse(use.ID, err.Error())
	}

	r.logger.Debug().Str("tool", use.Name).Dur("duration", duration).Msg("tool executed")
	return ToolResponse{ToolUseID: use.ID, Content: wrapResult(result)}
}

func (r *Registry) lookup(name string) (Tool, ToolFunc, bool) {
	fn, ok := r.callers[name]
	if !ok {
		return Tool{}, nil, false
	}
	for _, t := range r.tools {
		if t.Name == name {
			return t, fn, true
		}
	}
	return Tool{}, nil, false
}

func errorResponse(toolUseID, detail string) ToolResponse {
	return ToolResponse{ToolUseID: toolUseID, Content: detail, IsError: true}
}
