package llm

import (
	"context"

	"github.com/smaltravel/findajob/internal/services/mcp"
)

// ProviderType is the variant over providers of spec.md §4.3: {google, ollama}.
type ProviderType string

const (
	ProviderGoogle ProviderType = "google"
	ProviderOllama ProviderType = "ollama"
)

// ContentRequest is a provider-agnostic single-turn generation request. The
// client resends SystemInstruction and Tools unmodified on every call; they
// are never folded into History (spec.md §4.3 "NOT part of history").
type ContentRequest struct {
	History           []Message
	Prompt            string
	SystemInstruction string
	Tools             mcp.ToolList
	OutputSchema      map[string]interface{}
	Temperature       float32
}

// ContentResponse is a provider-agnostic generation result. Exactly one of
// Text or ToolCalls is meaningful per turn: a non-empty ToolCalls means the
// provider wants tool dispatch before continuing (spec.md §4.3 step 2).
type ContentResponse struct {
	Text      string
	ToolCalls []mcp.ToolUse
	Provider  ProviderType
	Model     string
}

// Provider is the transport boundary a concrete provider (google, ollama)
// implements. Schema-constrained decoding and the agent tool loop live in
// Client, one layer up, so both providers share that logic.
type Provider interface {
	GenerateContent(ctx context.Context, req *ContentRequest) (*ContentResponse, error)
	SupportsNativeToolCalling() bool
	Type() ProviderType
}
