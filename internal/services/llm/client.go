package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/smaltravel/findajob/internal/services/mcp"
)

// MaxToolRoundsDefault bounds the agent loop, grounded on
// original_source/tools/providers/google.py's max_tool_calls guard
// (spec.md §9 Open Questions).
const MaxToolRoundsDefault = 8

// Client is the provider-polymorphic LLM client of spec.md §4.3: one
// client instance per run during enrichment, its history cleared before
// each job, with a bound Tool Registry for the agent loop.
type Client struct {
	provider      Provider
	registry      *mcp.Registry
	logger        arbor.ILogger
	systemPrompt  string
	history       []Message
	MaxToolRounds int
}

// NewClient builds a Client bound to a concrete Provider and Tool Registry.
// systemPrompt is resent, unmodified, on every call (spec.md §4.3).
func NewClient(provider Provider, registry *mcp.Registry, systemPrompt string, logger arbor.ILogger) *Client {
	return &Client{
		provider:      provider,
		registry:      registry,
		logger:        logger,
		systemPrompt:  systemPrompt,
		MaxToolRounds: MaxToolRoundsDefault,
	}
}

// SetSystemPrompt replaces the system prompt, used by the Enrichment Stage
// to embed the normalized candidate profile before each job (spec.md §4.5
// step 2).
func (c *Client) SetSystemPrompt(prompt string) { c.systemPrompt = prompt }

// ClearHistory empties the conversation history (spec.md §4.3), called
// once per job before enrichment so per-job prompts do not leak context.
func (c *Client) ClearHistory() { c.history = nil }

// Generate performs a one-shot, schema-constrained completion (spec.md
// §4.3). It appends (user, prompt) and (assistant, reply) to history
// regardless of outcome, and returns (nil, nil) iff the reply does not
// validate against T's schema.
func Generate[T any](ctx context.Context, c *Client, prompt string) (*T, error) {
	resp, err := c.provider.GenerateContent(ctx, &ContentRequest{
		History:           c.history,
		Prompt:            prompt,
		SystemInstruction: c.systemPrompt,
		OutputSchema:      BuildSchema[T](),
	})
	if err != nil {
		return nil, err
	}

	c.history = append(c.history,
		Message{Role: RoleUser, Content: prompt},
		Message{Role: RoleAssistant, Content: resp.Text},
	)

	decoded, ok := decodeAndValidate[T](resp.Text)
	if !ok {
		return nil, nil
	}
	return decoded, nil
}

// Agent performs the multi-turn, tool-calling loop of spec.md §4.3.
func Agent[T any](ctx context.Context, c *Client, prompt string) (*T, error) {
	toolManifest := c.registry.List()
	history := append([]Message(nil), c.history...)
	history = append(history, Message{Role: RoleUser, Content: prompt})

	for round := 0; round < c.MaxToolRounds; round++ {
		resp, err := c.provider.GenerateContent(ctx, &ContentRequest{
			History:           history,
			SystemInstruction: c.systemPrompt,
			Tools:             toolManifest,
		})
		if err != nil {
			return nil, err
		}

		if len(resp.ToolCalls) > 0 {
			history = append(history, Message{Role: RoleAssistant, Content: resp.Text, ToolCalls: resp.ToolCalls})

			var combined string
			for _, call := range resp.ToolCalls {
				toolResp := c.registry.Dispatch(ctx, call)
				combined += fmt.Sprintf("[%s] %s\n", call.Name, toolResp.Content)
				if toolResp.IsError {
					c.logger.Warn().Str("tool", call.Name).Str("detail", toolResp.Content).Msg("agent tool call failed")
				}
			}
			history = append(history, Message{Role: RoleTool, Content: combined})
			continue
		}

		c.history = history
		decoded, ok := decodeAndValidate[T](resp.Text)
		if ok {
			c.history = append(c.history, Message{Role: RoleAssistant, Content: resp.Text})
			return decoded, nil
		}

		c.logger.Warn().Msg("agent response failed schema validation, retrying once with generate")
		regenPrompt := regenerationPrompt(resp.Text)
		return Generate[T](ctx, c, regenPrompt)
	}

	return nil, newTransportError(c.provider.Type(), fmt.Errorf("exceeded max tool rounds (%d)", c.MaxToolRounds))
}

func regenerationPrompt(previous string) string {
	return fmt.Sprintf(
		"Your previous response did not strictly match the required JSON schema:\n\n%s\n\n"+
			"Respond again with ONLY a JSON document that strictly follows the schema, no markdown fencing, no extra text.",
		previous,
	)
}
