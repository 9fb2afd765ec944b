package llm

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
)

var schemaValidator = validator.New()

// decodeAndValidate unmarshals raw provider text into T and runs struct
// validation against it. A (nil, false) result means "does not validate
// against schema" per spec.md §4.3 ("returns None iff the reply does not
// validate against schema"), not a hard failure.
func decodeAndValidate[T any](raw string) (*T, bool) {
	raw = stripMarkdownFence(raw)

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false
	}
	if err := schemaValidator.Struct(v); err != nil {
		return nil, false
	}
	return &v, true
}

// stripMarkdownFence removes a ```json ... ``` wrapper some models add
// despite an instruction to emit raw JSON.
func stripMarkdownFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}
