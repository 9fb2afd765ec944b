package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/smaltravel/findajob/internal/services/mcp"
)

// GoogleProvider implements Provider against the Gemini API via
// google.golang.org/genai, using server-side function-calling for the
// agent loop and a JSON-schema-constrained response format for generate
// (spec.md §4.3 "Provider contract differences").
type GoogleProvider struct {
	client *genai.Client
	model  string
	logger arbor.ILogger
}

// NewGoogleProvider constructs the google provider. An empty apiKey is a
// fatal construction error per spec.md §4.3's configuration contract.
func NewGoogleProvider(ctx context.Context, apiKey, model string, logger arbor.ILogger) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: google provider requires an api_key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create google client: %w", err)
	}
	return &GoogleProvider{client: client, model: model, logger: logger}, nil
}

func (p *GoogleProvider) Type() ProviderType { return ProviderGoogle }

func (p *GoogleProvider) SupportsNativeToolCalling() bool { return true }

func (p *GoogleProvider) GenerateContent(ctx context.Context, req *ContentRequest) (*ContentResponse, error) {
	contents, err := convertMessagesToGoogle(req.History, req.Prompt)
	if err != nil {
		return nil, newTransportError(ProviderGoogle, err)
	}

	temp := req.Temperature
	if temp <= 0 {
		temp = 0.4
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temp),
	}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	if len(req.Tools.Tools) > 0 {
		config.Tools = []*genai.Tool{toolListToGenai(req.Tools)}
	} else if req.OutputSchema != nil {
		genaiSchema, err := convertToGenaiSchema(req.OutputSchema)
		if err != nil {
			p.logger.Warn().Err(err).Msg("failed to convert output schema, continuing unconstrained")
		} else if genaiSchema != nil {
			config.ResponseMIMEType = "application/json"
			config.ResponseSchema = genaiSchema
		}
	}

	resp, err := p.callWithRetry(ctx, contents, config)
	if err != nil {
		return nil, newTransportError(ProviderGoogle, err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, newTransportError(ProviderGoogle, fmt.Errorf("empty response from google"))
	}

	var toolCalls []mcp.ToolUse
	var text strings.Builder
	for i, part := range resp.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			toolCalls = append(toolCalls, mcp.ToolUse{
				ID:        fmt.Sprintf("call-%d", i),
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			})
			continue
		}
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	return &ContentResponse{
		Text:      text.String(),
		ToolCalls: toolCalls,
		Provider:  ProviderGoogle,
		Model:     p.model,
	}, nil
}

func (p *GoogleProvider) callWithRetry(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	retry := newDefaultRetryConfig()

	var resp *genai.GenerateContentResponse
	var apiErr error
	for attempt := 0; attempt <= retry.MaxRetries; attempt++ {
		resp, apiErr = p.client.Models.GenerateContent(ctx, p.model, contents, config)
		if apiErr == nil {
			return resp, nil
		}
		if attempt == retry.MaxRetries {
			break
		}

		var backoff time.Duration
		if isRateLimitError(apiErr) {
			backoff = retry.calculateBackoff(attempt, extractRetryDelay(apiErr))
		} else {
			backoff = time.Duration(attempt+1) * 2 * time.Second
		}

		p.logger.Warn().Int("attempt", attempt+1).Dur("backoff", backoff).Err(apiErr).Msg("retrying google API call")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("google API call failed after %d retries: %w", retry.MaxRetries, apiErr)
}

func convertMessagesToGoogle(history []Message, prompt string) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, msg := range history {
		switch msg.Role {
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		case RoleTool:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if prompt != "" {
		contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}
	return contents, nil
}

func toolListToGenai(tools mcp.ToolList) *genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools.Tools))
	for _, t := range tools.Tools {
		schema, err := convertToGenaiSchema(t.InputSchema)
		if err != nil {
			continue
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schema,
		})
	}
	return &genai.Tool{FunctionDeclarations: decls}
}

// convertToGenaiSchema converts a map[string]interface{} JSON Schema
// representation (as produced by internal/services/llm.BuildSchema and
// internal/services/mcp's tool declarations) into a genai.Schema.
func convertToGenaiSchema(schemaMap map[string]interface{}) (*genai.Schema, error) {
	if len(schemaMap) == 0 {
		return nil, nil
	}

	schema := &genai.Schema{}

	if typeStr, ok := schemaMap["type"].(string); ok {
		switch strings.ToLower(typeStr) {
		case "object":
			schema.Type = genai.TypeObject
		case "array":
			schema.Type = genai.TypeArray
		case "string":
			schema.Type = genai.TypeString
		case "number":
			schema.Type = genai.TypeNumber
		case "integer":
			schema.Type = genai.TypeInteger
		case "boolean":
			schema.Type = genai.TypeBoolean
		}
	}

	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}

	switch req := schemaMap["required"].(type) {
	case []string:
		schema.Required = req
	case []interface{}:
		for _, v := range req {
			if s, ok := v.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	if itemsMap, ok := schemaMap["items"].(map[string]interface{}); ok {
		itemSchema, err := convertToGenaiSchema(itemsMap)
		if err != nil {
			return nil, fmt.Errorf("failed to convert items schema: %w", err)
		}
		schema.Items = itemSchema
	}

	if propsMap, ok := schemaMap["properties"].(map[string]interface{}); ok {
		schema.Properties = make(map[string]*genai.Schema, len(propsMap))
		for name, propVal := range propsMap {
			propMap, ok := propVal.(map[string]interface{})
			if !ok {
				continue
			}
			propSchema, err := convertToGenaiSchema(propMap)
			if err != nil {
				return nil, fmt.Errorf("failed to convert property %q: %w", name, err)
			}
			schema.Properties[name] = propSchema
		}
	}

	return schema, nil
}
