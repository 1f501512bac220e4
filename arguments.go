package fnguard

import (
	"bytes"
	"encoding/json"
	"maps"
	"reflect"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// argumentsResource is the in-memory location the compiled argument schema is registered
// under. It is absolute so the compiler never resolves it against the working directory;
// it appears in validation messages sent back to the model.
const argumentsResource = "mem:///arguments.json"

// ArgumentSchema checks the JSON arguments of a model-produced call against a tool's
// declared parameters. Build one with CompileArguments; it is immutable and safe for
// concurrent use.
type ArgumentSchema struct {
	tool      string
	schemaMap map[string]any
	compiled  *jsonschema.Schema
}

// CompileArguments validates t and translates its parameter schema into a compiled
// JSON Schema. A tool that fails ValidateTool is returned as that *ValidationError.
func CompileArguments(t *Tool) (*ArgumentSchema, error) {
	if err := ValidateTool(t); err != nil {
		return nil, err
	}
	schemaMap := argumentSchemaMap(t.Function.Parameters)
	compiled, err := compileRawSchema(schemaMap)
	if err != nil {
		return nil, &SystemError{Err: err}
	}
	return &ArgumentSchema{
		tool:      t.Function.Name,
		schemaMap: schemaMap,
		compiled:  compiled,
	}, nil
}

// Tool returns the name of the tool the schema was compiled from.
func (a *ArgumentSchema) Tool() string { return a.tool }

// Schema returns a shallow copy of the JSON Schema (top-level keys only).
// Nested maps are shared; callers must not mutate them.
func (a *ArgumentSchema) Schema() map[string]any { return maps.Clone(a.schemaMap) }

// Validate parses argsJSON and checks it against the schema. Parse and schema
// failures are returned as *ClientError so the message can go back to the model.
func (a *ArgumentSchema) Validate(argsJSON []byte) error {
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(argsJSON))
	if err != nil {
		return wrapJSONParseError(err)
	}
	if err := a.compiled.Validate(v); err != nil {
		return &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return nil
}

// ValidateCall checks call.Args; the call must target the tool the schema was compiled from.
func (a *ArgumentSchema) ValidateCall(call ToolCall) error {
	if call.ToolName != a.tool {
		return &ClientError{Reason: "call targets tool '" + call.ToolName + "', schema is for '" + a.tool + "'"}
	}
	return a.Validate(call.Args)
}

// Validatable is implemented by argument types with checks the schema cannot express.
// DecodeArguments calls Validate after the schema check passes.
type Validatable interface {
	Validate() error
}

// DecodeArguments checks argsJSON against a, decodes it into T and then runs T's own
// Validate when T (or *T) implements Validatable. Every failure is a *ClientError.
func DecodeArguments[T any](a *ArgumentSchema, argsJSON []byte) (T, error) {
	var zero T
	if err := a.Validate(argsJSON); err != nil {
		return zero, err
	}
	var args T
	if err := json.Unmarshal(argsJSON, &args); err != nil {
		return zero, wrapJSONParseError(err)
	}
	if err := validateDecoded(&args); err != nil {
		if IsClientError(err) {
			return zero, err
		}
		return zero, &ClientError{Reason: err.Error(), Err: ErrValidation}
	}
	return args, nil
}

// validateDecoded calls Validate on *args, or on args itself for a value receiver.
// A nil pointer T is left alone.
func validateDecoded[T any](args *T) error {
	if v, ok := any(args).(Validatable); ok {
		return v.Validate()
	}
	v, ok := any(*args).(Validatable)
	if !ok {
		return nil
	}
	if rv := reflect.ValueOf(*args); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}
	return v.Validate()
}

// argumentSchemaMap translates a validated ParameterSchema into JSON Schema.
func argumentSchemaMap(params ParameterSchema) map[string]any {
	props := make(map[string]any, propertyCount(params.Properties))
	if params.Properties != nil {
		for pair := params.Properties.Oldest(); pair != nil; pair = pair.Next() {
			props[pair.Key] = propertyArgumentSchema(pair.Value)
		}
	}
	schemaMap := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(params.Required) > 0 {
		required := make([]any, len(params.Required))
		for i, name := range params.Required {
			required[i] = name
		}
		schemaMap["required"] = required
	}
	return schemaMap
}

func propertyArgumentSchema(prop PropertySchema) map[string]any {
	var s map[string]any
	switch prop.Type {
	case PropertyChar:
		s = map[string]any{"type": "string", "minLength": 1, "maxLength": 1}
	case PropertyString:
		s = map[string]any{"type": "string"}
	case PropertyBool:
		s = map[string]any{"type": "boolean"}
	case PropertyInt:
		s = map[string]any{"type": "integer"}
	case PropertyDouble, PropertyFloat:
		s = map[string]any{"type": "number"}
	case PropertyDate:
		s = map[string]any{"type": "string", "format": "date"}
	case PropertyEnum:
		s = map[string]any{"type": "string"}
		if len(prop.Enum) > 0 {
			enum := make([]any, len(prop.Enum))
			for i, v := range prop.Enum {
				enum[i] = v
			}
			s["enum"] = enum
		}
	default:
		s = map[string]any{}
	}
	if prop.Description != "" {
		s["description"] = prop.Description
	}
	return s
}

// compileRawSchema compiles a raw JSON Schema map into a validator. The map is not mutated.
func compileRawSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(argumentsResource, doc); err != nil {
		return nil, err
	}
	return c.Compile(argumentsResource)
}
