package fnguard

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ProfileSchema returns the JSON Schema document describing the Profile wire shape
// (field names, numeric bounds, enumerations), e.g. for publishing to API clients.
// Cross-field and cross-entity rules are not expressible there; ValidateProfile is
// authoritative.
func ProfileSchema() (map[string]any, error) {
	return reflectSchema(&Profile{})
}

// ToolSchema returns the JSON Schema document describing the Tool wire shape.
func ToolSchema() (map[string]any, error) {
	return reflectSchema(&Tool{})
}

// ChatRequestSchema returns the JSON Schema document describing the ChatRequest wire shape.
func ChatRequestSchema() (map[string]any, error) {
	return reflectSchema(&ChatRequest{})
}

func reflectSchema(v any) (map[string]any, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := r.Reflect(v)
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(data, &schemaMap); err != nil {
		return nil, err
	}
	stripSchemaIDs(schemaMap)
	return schemaMap, nil
}

// JSONSchema describes Model as a closed string enumeration.
func (Model) JSONSchema() *jsonschema.Schema {
	models := Models()
	enum := make([]any, len(models))
	for i, m := range models {
		enum[i] = string(m)
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}

// JSONSchema describes ResponseFormat as a closed string enumeration.
func (ResponseFormat) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: []any{string(ResponseFormatText), string(ResponseFormatJSONObject)},
	}
}

// JSONSchema describes PropertyType as a closed string enumeration.
func (PropertyType) JSONSchema() *jsonschema.Schema {
	types := PropertyTypes()
	enum := make([]any, len(types))
	for i, t := range types {
		enum[i] = string(t)
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}

// JSONSchema describes ParameterSchema; Properties is an ordered map the reflector
// cannot see through, so the shape is spelled out here.
func (ParameterSchema) JSONSchema() *jsonschema.Schema {
	stringList := &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}}

	prop := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
		Required:   []string{"type"},
	}
	prop.Properties.Set("type", PropertyType("").JSONSchema())
	prop.Properties.Set("description", &jsonschema.Schema{Type: "string"})
	prop.Properties.Set("enum", stringList)

	props := jsonschema.NewProperties()
	props.Set("type", &jsonschema.Schema{Type: "string"})
	props.Set("required", stringList)
	props.Set("properties", &jsonschema.Schema{Type: "object", AdditionalProperties: prop})
	return &jsonschema.Schema{Type: "object", Properties: props}
}

// walkSchema recursively visits every map node in the schema tree (including $defs and definitions).
func walkSchema(schemaMap map[string]any, visit func(map[string]any)) {
	if schemaMap == nil {
		return
	}
	visit(schemaMap)
	for _, val := range schemaMap {
		switch v := val.(type) {
		case map[string]any:
			walkSchema(v, visit)
		case []any:
			for _, item := range v {
				if m2, ok := item.(map[string]any); ok {
					walkSchema(m2, visit)
				}
			}
		}
	}
}

// stripSchemaIDs removes id and $id from schema so resolution does not depend on them.
func stripSchemaIDs(schemaMap map[string]any) {
	walkSchema(schemaMap, func(n map[string]any) {
		delete(n, "id")
		delete(n, "$id")
	})
}
