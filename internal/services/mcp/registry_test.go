package mcp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/smaltravel/findajob/internal/services/mcp"
)

func newTestRegistry(t *testing.T) *mcp.Registry {
	t.Helper()
	return mcp.NewRegistry(arbor.NewLogger())
}

func TestRegistryListReturnsSixTools(t *testing.T) {
	r := newTestRegistry(t)
	list := r.List()
	assert.Len(t, list.Tools, 6)
}

func TestDispatchCalculateMonthBetween(t *testing.T) {
	r := newTestRegistry(t)
	resp := r.Dispatch(context.Background(), mcp.ToolUse{
		ID:   "call-1",
		Name: "calculate_month_between",
		Arguments: map[string]interface{}{
			"start_date": "2022-01",
			"end_date":   "2023-07",
		},
	})
	require.False(t, resp.IsError)
	assert.JSONEq(t, `{"result":18}`, resp.Content)
}

func TestDispatchMalformedDateIsToolError(t *testing.T) {
	r := newTestRegistry(t)
	resp := r.Dispatch(context.Background(), mcp.ToolUse{
		ID:   "call-2",
		Name: "calculate_month_between",
		Arguments: map[string]interface{}{
			"start_date": "not-a-date",
			"end_date":   "2023-07",
		},
	})
	assert.True(t, resp.IsError)
	assert.NotEmpty(t, resp.Content)
}

func TestDispatchUnknownToolIsToolError(t *testing.T) {
	r := newTestRegistry(t)
	resp := r.Dispatch(context.Background(), mcp.ToolUse{ID: "call-3", Name: "does_not_exist"})
	assert.True(t, resp.IsError)
}

func TestDispatchMissingRequiredArgumentIsToolError(t *testing.T) {
	r := newTestRegistry(t)
	resp := r.Dispatch(context.Background(), mcp.ToolUse{
		ID:        "call-4",
		Name:      "calculate_skills_score",
		Arguments: map[string]interface{}{"candidate_skills": []interface{}{"go"}},
	})
	assert.True(t, resp.IsError)
}

func TestDispatchCalculateSkillsScore(t *testing.T) {
	r := newTestRegistry(t)
	resp := r.Dispatch(context.Background(), mcp.ToolUse{
		ID:   "call-5",
		Name: "calculate_skills_score",
		Arguments: map[string]interface{}{
			"candidate_skills": []interface{}{"Go", "Python"},
			"job_skills":       []interface{}{"go", "python", "kubernetes"},
		},
	})
	require.False(t, resp.IsError)
	assert.JSONEq(t, `{"result":67}`, resp.Content)
}

func TestDispatchCalculateOverallScoreOutOfRangeIsRejected(t *testing.T) {
	r := newTestRegistry(t)
	resp := r.Dispatch(context.Background(), mcp.ToolUse{
		ID:   "call-6",
		Name: "calculate_overall_score",
		Arguments: map[string]interface{}{
			"scores": map[string]interface{}{
				"skills": float64(150), "education": float64(0), "experience": float64(0),
				"location": float64(0), "industries": float64(0), "languages": float64(0),
			},
		},
	})
	assert.True(t, resp.IsError)
}

func TestDispatchCalculateOverallScore(t *testing.T) {
	r := newTestRegistry(t)
	resp := r.Dispatch(context.Background(), mcp.ToolUse{
		ID:   "call-7",
		Name: "calculate_overall_score",
		Arguments: map[string]interface{}{
			"scores": map[string]interface{}{
				"skills": float64(100), "education": float64(100), "experience": float64(100),
				"location": float64(100), "industries": float64(100), "languages": float64(100),
			},
		},
	})
	require.False(t, resp.IsError)
	assert.JSONEq(t, `{"result":100}`, resp.Content)
}
