package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestConvertToGenaiSchemaHandlesNestedObject(t *testing.T) {
	input := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"skills": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
		"required": []string{"skills"},
	}

	schema, err := convertToGenaiSchema(input)
	require.NoError(t, err)
	require.NotNil(t, schema)
	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, []string{"skills"}, schema.Required)
	require.Contains(t, schema.Properties, "skills")
	assert.Equal(t, genai.TypeArray, schema.Properties["skills"].Type)
	assert.Equal(t, genai.TypeString, schema.Properties["skills"].Items.Type)
}

func TestConvertToGenaiSchemaNilOnEmptyMap(t *testing.T) {
	schema, err := convertToGenaiSchema(nil)
	require.NoError(t, err)
	assert.Nil(t, schema)
}
