package llm

import "github.com/smaltravel/findajob/internal/services/mcp"

// Role identifies the sender of a history turn. google sends user and
// tool turns as user-role text and assistant turns as model-role text;
// ollama maps every turn onto its own single-shot transcript text.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one provider-agnostic turn of conversation history.
type Message struct {
	Role      Role
	Content   string
	ToolCalls []mcp.ToolUse // set when Role is RoleAssistant and the turn was a tool request
}
