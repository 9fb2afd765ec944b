package llm_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/smaltravel/findajob/internal/services/llm"
	"github.com/smaltravel/findajob/internal/services/mcp"
)

type structuredDoc struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"gte=0"`
}

// scriptedProvider replays a fixed sequence of responses, one per call,
// so the Client's tool loop and schema-retry logic can be exercised
// without a network-backed provider.
type scriptedProvider struct {
	responses []llm.ContentResponse
	requests  []*llm.ContentRequest
	calls     int
}

func (p *scriptedProvider) GenerateContent(_ context.Context, req *llm.ContentRequest) (*llm.ContentResponse, error) {
	if p.calls >= len(p.responses) {
		panic("scriptedProvider: ran out of scripted responses")
	}
	p.requests = append(p.requests, req)
	resp := p.responses[p.calls]
	p.calls++
	return &resp, nil
}

func (p *scriptedProvider) SupportsNativeToolCalling() bool { return true }
func (p *scriptedProvider) Type() llm.ProviderType          { return llm.ProviderGoogle }

func marshalDoc(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestGenerateReturnsDecodedDocumentOnValidSchema(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.ContentResponse{
		{Text: marshalDoc(t, structuredDoc{Name: "alice", Count: 3}), Provider: llm.ProviderGoogle},
	}}
	client := llm.NewClient(provider, mcp.NewRegistry(arbor.NewLogger()), "system", arbor.NewLogger())

	doc, err := llm.Generate[structuredDoc](context.Background(), client, "describe alice")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "alice", doc.Name)
	assert.Equal(t, 3, doc.Count)
}

func TestGenerateReturnsNilOnSchemaViolation(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.ContentResponse{
		{Text: `{"count": -1}`, Provider: llm.ProviderGoogle}, // missing required name, negative count
	}}
	client := llm.NewClient(provider, mcp.NewRegistry(arbor.NewLogger()), "system", arbor.NewLogger())

	doc, err := llm.Generate[structuredDoc](context.Background(), client, "describe nobody")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestAgentDispatchesToolCallsBeforeFinalAnswer(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.ContentResponse{
		{
			ToolCalls: []mcp.ToolUse{{
				ID:   "call-1",
				Name: "calculate_month_between",
				Arguments: map[string]interface{}{
					"start_date": "2022-01", "end_date": "2023-01",
				},
			}},
			Provider: llm.ProviderGoogle,
		},
		{Text: marshalDoc(t, structuredDoc{Name: "bob", Count: 12}), Provider: llm.ProviderGoogle},
	}}
	client := llm.NewClient(provider, mcp.NewRegistry(arbor.NewLogger()), "system", arbor.NewLogger())

	doc, err := llm.Agent[structuredDoc](context.Background(), client, "summarize bob")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "bob", doc.Name)
	assert.Equal(t, 2, provider.calls)
}

func TestAgentRegeneratesOnceOnSchemaFailure(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.ContentResponse{
		{Text: `not json at all`, Provider: llm.ProviderGoogle},
		{Text: marshalDoc(t, structuredDoc{Name: "carol", Count: 1}), Provider: llm.ProviderGoogle},
	}}
	client := llm.NewClient(provider, mcp.NewRegistry(arbor.NewLogger()), "system", arbor.NewLogger())

	doc, err := llm.Agent[structuredDoc](context.Background(), client, "summarize carol")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "carol", doc.Name)
}

func TestAgentReturnsNilAfterFailedRegeneration(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.ContentResponse{
		{Text: `not json at all`, Provider: llm.ProviderGoogle},
		{Text: `still not json`, Provider: llm.ProviderGoogle},
	}}
	client := llm.NewClient(provider, mcp.NewRegistry(arbor.NewLogger()), "system", arbor.NewLogger())

	doc, err := llm.Agent[structuredDoc](context.Background(), client, "summarize dave")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestClearHistoryResetsConversation(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.ContentResponse{
		{Text: marshalDoc(t, structuredDoc{Name: "erin", Count: 0}), Provider: llm.ProviderGoogle},
		{Text: marshalDoc(t, structuredDoc{Name: "frank", Count: 0}), Provider: llm.ProviderGoogle},
	}}
	client := llm.NewClient(provider, mcp.NewRegistry(arbor.NewLogger()), "system", arbor.NewLogger())

	_, err := llm.Generate[structuredDoc](context.Background(), client, "describe erin")
	require.NoError(t, err)

	client.ClearHistory()
	client.SetSystemPrompt("fresh system prompt")

	_, err = llm.Generate[structuredDoc](context.Background(), client, "describe frank")
	require.NoError(t, err)
	assert.Empty(t, provider.requests[1].History, "history should be empty for the first call after ClearHistory")
}
