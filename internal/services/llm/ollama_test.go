package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smaltravel/findajob/internal/services/mcp"
)

func TestParseToolCallEnvelopeRecognizesToolCall(t *testing.T) {
	calls, ok := parseToolCallEnvelope(`{"tool_call": {"name": "calculate_month_between", "arguments": {"start_date": "2022-01"}}}`)
	require.True(t, ok)
	require.Len(t, calls, 1)
	assert.Equal(t, "calculate_month_between", calls[0].Name)
}

func TestParseToolCallEnvelopeRejectsPlainText(t *testing.T) {
	_, ok := parseToolCallEnvelope(`{"summary": "no tool call here"}`)
	assert.False(t, ok)
}

func TestToolManifestPromptListsToolNames(t *testing.T) {
	tools := mcp.ToolList{Tools: []mcp.Tool{
		{Name: "calculate_skills_score", Description: "scores skills", InputSchema: map[string]interface{}{"type": "object"}},
	}}
	prompt := toolManifestPrompt(tools)
	assert.Contains(t, prompt, "calculate_skills_score")
	assert.Contains(t, prompt, "tool_call")
}

func TestRenderTranscriptIncludesHistoryAndPrompt(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi there"},
	}
	transcript := renderTranscript(history, "what now?")
	assert.Contains(t, transcript, "hello")
	assert.Contains(t, transcript, "hi there")
	assert.Contains(t, transcript, "what now?")
}
