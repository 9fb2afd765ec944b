package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/smaltravel/findajob/internal/services/mcp"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaProvider implements Provider against a local Ollama daemon. Ollama
// has no native multi-turn tool-calling (confirmed against
// original_source/tools/providers/ollama.py), so the agent loop is
// emulated: the tool manifest is embedded in the system prompt and a
// `tool_call` JSON envelope is parsed out of the single-shot response
// (spec.md §4.3, §9 Open Questions).
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
	logger  arbor.ILogger
}

// NewOllamaProvider constructs the ollama provider and performs a
// best-effort pre-flight check against /api/tags; an unreachable daemon
// or absent model only logs a warning; there is no spec requirement that
// construction fail (unlike google's missing-api-key case), since the
// model may be pulled on first use.
func NewOllamaProvider(ctx context.Context, baseURL, model string, logger arbor.ILogger) *OllamaProvider {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	p := &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 2 * time.Minute},
		logger:  logger,
	}
	p.preflight(ctx)
	return p
}

func (p *OllamaProvider) preflight(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		p.logger.Warn().Err(err).Msg("ollama preflight request construction failed")
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn().Err(err).Str("base_url", p.baseURL).Msg("ollama daemon unreachable at startup")
		return
	}
	defer resp.Body.Close()

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		p.logger.Warn().Err(err).Msg("failed to decode ollama tags response")
		return
	}
	for _, m := range tags.Models {
		if m.Name == p.model {
			return
		}
	}
	p.logger.Warn().Str("model", p.model).Msg("model not present in ollama tags, will rely on on-demand pull")
}

func (p *OllamaProvider) Type() ProviderType { return ProviderOllama }

func (p *OllamaProvider) SupportsNativeToolCalling() bool { return false }

type ollamaGenerateRequest struct {
	Model  string      `json:"model"`
	Prompt string      `json:"prompt"`
	System string      `json:"system,omitempty"`
	Format interface{} `json:"format,omitempty"`
	Stream bool        `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// toolCallEnvelope is the JSON shape the emulated agent loop instructs the
// model to emit instead of free text when it wants to invoke a tool.
type toolCallEnvelope struct {
	ToolCall *struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	} `json:"tool_call"`
}

func (p *OllamaProvider) GenerateContent(ctx context.Context, req *ContentRequest) (*ContentResponse, error) {
	prompt := renderTranscript(req.History, req.Prompt)
	system := req.SystemInstruction
	if len(req.Tools.Tools) > 0 {
		system = system + "\n\n" + toolManifestPrompt(req.Tools)
	}

	body := ollamaGenerateRequest{
		Model:  p.model,
		Prompt: prompt,
		System: system,
		Stream: false,
	}
	if req.OutputSchema != nil && len(req.Tools.Tools) == 0 {
		body.Format = req.OutputSchema
	} else if len(req.Tools.Tools) > 0 {
		body.Format = "json"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, newTransportError(ProviderOllama, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, newTransportError(ProviderOllama, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, newTransportError(ProviderOllama, fmt.Errorf("ollama connection failed (is ollama running?): %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newTransportError(ProviderOllama, fmt.Errorf("ollama returned status %d", resp.StatusCode))
	}

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, newTransportError(ProviderOllama, fmt.Errorf("failed to decode ollama response: %w", err))
	}

	if len(req.Tools.Tools) > 0 {
		if envelope, ok := parseToolCallEnvelope(out.Response); ok {
			return &ContentResponse{
				ToolCalls: envelope,
				Provider:  ProviderOllama,
				Model:     p.model,
			}, nil
		}
	}

	return &ContentResponse{
		Text:     out.Response,
		Provider: ProviderOllama,
		Model:    p.model,
	}, nil
}

func parseToolCallEnvelope(raw string) ([]mcp.ToolUse, bool) {
	var envelope toolCallEnvelope
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &envelope); err != nil || envelope.ToolCall == nil {
		return nil, false
	}
	return []mcp.ToolUse{{
		ID:        "call-0",
		Name:      envelope.ToolCall.Name,
		Arguments: envelope.ToolCall.Arguments,
	}}, true
}

// toolManifestPrompt renders the tool registry as text instructions for
// models without native function-calling, per spec.md §4.3's documented
// ollama emulation choice.
func toolManifestPrompt(tools mcp.ToolList) string {
	var b strings.Builder
	b.WriteString("You have access to the following tools. To call one, respond with ONLY a JSON object of the form ")
	b.WriteString(`{"tool_call": {"name": "<tool_name>", "arguments": {...}}}`)
	b.WriteString(" and nothing else. When you are done calling tools and ready to answer, respond with the final JSON document instead.\n\nTools:\n")
	for _, t := range tools.Tools {
		schema, _ := json.Marshal(t.InputSchema)
		fmt.Fprintf(&b, "- %s: %s\n  arguments schema: %s\n", t.Name, t.Description, schema)
	}
	return b.String()
}

// renderTranscript flattens history plus the new prompt into a single text
// block, since ollama's /api/generate endpoint has no multi-turn message
// array (unlike google's Content list).
func renderTranscript(history []Message, prompt string) string {
	var b strings.Builder
	for _, msg := range history {
		switch msg.Role {
		case RoleUser:
			b.WriteString("User: ")
		case RoleAssistant:
			b.WriteString("Assistant: ")
		case RoleTool:
			b.WriteString("Tool result: ")
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	b.WriteString("User: ")
	b.WriteString(prompt)
	return b.String()
}
