package llm

import (
	"reflect"
	"strings"
)

// BuildSchema reflects a zero value of T into a JSON Schema document
// suitable for ContentRequest.OutputSchema: google consumes it directly as
// a structured-output schema; ollama embeds it in the `format` field of its
// generate call. Required-ness is read from the `validate:"required"` /
// `validate:"required,..."` struct tag already carried by internal/models.
func BuildSchema[T any]() map[string]interface{} {
	var zero T
	return structSchema(reflect.TypeOf(zero))
}

func structSchema(t reflect.Type) map[string]interface{} {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fieldSchema(t)
	}

	props := make(map[string]interface{})
	var required []string

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			embedded := structSchema(f.Type)
			if embeddedProps, ok := embedded["properties"].(map[string]interface{}); ok {
				for k, v := range embeddedProps {
					props[k] = v
				}
			}
			if embeddedReq, ok := embedded["required"].([]string); ok {
				required = append(required, embeddedReq...)
			}
			continue
		}

		name := jsonFieldName(f)
		if name == "-" || name == "" {
			continue
		}
		props[name] = fieldSchema(f.Type)

		if isRequired(f) {
			required = append(required, name)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func fieldSchema(t reflect.Type) map[string]interface{} {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return map[string]interface{}{"type": "string"}
	case reflect.Bool:
		return map[string]interface{}{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]interface{}{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]interface{}{"type": "number"}
	case reflect.Slice, reflect.Array:
		return map[string]interface{}{
			"type":  "array",
			"items": fieldSchema(t.Elem()),
		}
	case reflect.Map:
		return map[string]interface{}{"type": "object"}
	case reflect.Struct:
		return structSchema(t)
	default:
		return map[string]interface{}{"type": "string"}
	}
}

func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name
	}
	name := strings.Split(tag, ",")[0]
	if name == "" {
		return f.Name
	}
	return name
}

func isRequired(f reflect.StructField) bool {
	tag := f.Tag.Get("validate")
	if tag == "" {
		return false
	}
	for _, rule := range strings.Split(tag, ",") {
		if rule == "required" {
			return true
		}
	}
	return false
}
