package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaJSONSchema(t *testing.T) {
	s := Object(map[string]*Schema{
		"drills": ArrayOf(Object(map[string]*Schema{
			"name":  String("drill name"),
			"level": {Type: TypeString, Enum: []string{"easy", "hard"}},
		}, "name")).Exactly(3),
	}, "drills")

	doc := s.JSONSchema()
	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, false, doc["additionalProperties"])
	assert.Equal(t, []string{"drills"}, doc["required"])

	drills := doc["properties"].(map[string]any)["drills"].(map[string]any)
	assert.Equal(t, "array", drills["type"])
	assert.Equal(t, int64(3), drills["minItems"])
	assert.Equal(t, int64(3), drills["maxItems"])

	item := drills["items"].(map[string]any)
	level := item["properties"].(map[string]any)["level"].(map[string]any)
	assert.Equal(t, []string{"easy", "hard"}, level["enum"])
}

func TestSchemaToGenai(t *testing.T) {
	s := ArrayOf(Number("amount")).Exactly(2)
	g := s.toGenai()
	require.NotNil(t, g)
	assert.Equal(t, "ARRAY", string(g.Type))
	assert.Equal(t, "NUMBER", string(g.Items.Type))
	require.NotNil(t, g.MinItems)
	assert.Equal(t, int64(2), *g.MinItems)

	var nilSchema *Schema
	assert.Nil(t, nilSchema.toGenai())
	assert.Nil(t, nilSchema.JSONSchema())
}

func TestSchemaInstruction(t *testing.T) {
	got := schemaInstruction(Object(map[string]*Schema{"x": Integer("")}, "x"))
	assert.Contains(t, got, `"required":["x"]`)
}
