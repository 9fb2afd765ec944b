package mcp

import "fmt"

// objectSchema builds a minimal JSON-Schema object description for a Tool's
// InputSchema: a flat map of property name to JSON Schema primitive type,
// plus the list of required properties.
func objectSchema(properties map[string]string, required ...string) map[string]interface{} {
	props := make(map[string]interface{}, len(properties))
	for name, kind := range properties {
		props[name] = map[string]interface{}{"type": kind}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// validateArgs checks that every property the schema marks required is
// present in args and shaped like the declared JSON Schema primitive type,
// per spec.md §4.2 ("validate every tool-call request from the model
// against the declared schema before dispatch"). Values of the right type
// are not checked further: a malformed date string or an out-of-range
// score is rejected by the bound tool function instead.
func validateArgs(schema map[string]interface{}, args map[string]interface{}) error {
	required, _ := schema["required"].([]string)
	for _, name := range required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}

	props, _ := schema["properties"].(map[string]interface{})
	for name, value := range args {
		propSchema, ok := props[name].(map[string]interface{})
		if !ok {
			continue
		}
		kind, _ := propSchema["type"].(string)
		if !typeMatches(kind, value) {
			return fmt.Errorf("argument %q does not match declared type %q", name, kind)
		}
	}
	return nil
}

func typeMatches(kind string, value interface{}) bool {
	switch kind {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer", "number":
		_, ok := value.(float64)
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	default:
		return true
	}
}
