package fnguard

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ChatRequest is the inbound chat call. Modifiers, when set, is an inline profile
// override and must satisfy every Profile rule on its own.
type ChatRequest struct {
	ProfileName string    `json:"profileName,omitempty" yaml:"profileName,omitempty"`
	Messages    []Message `json:"messages,omitempty" yaml:"messages,omitempty"`
	Modifiers   *Profile  `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
}

// Message is a single conversation turn carried by a ChatRequest.
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Profile is a named bundle of generation parameters plus optional tools.
// Pointer fields are optional: nil means absent and is never coerced to zero.
type Profile struct {
	Name             string          `json:"name" yaml:"name"`
	Model            *Model          `json:"model,omitempty" yaml:"model,omitempty"`
	FrequencyPenalty *float64        `json:"frequencyPenalty,omitempty" yaml:"frequencyPenalty,omitempty" jsonschema:"minimum=-2,maximum=2"`
	PresencePenalty  *float64        `json:"presencePenalty,omitempty" yaml:"presencePenalty,omitempty" jsonschema:"minimum=-2,maximum=2"`
	Temperature      *float64        `json:"temperature,omitempty" yaml:"temperature,omitempty" jsonschema:"minimum=0,maximum=2"`
	TopP             *float64        `json:"topP,omitempty" yaml:"topP,omitempty" jsonschema:"minimum=0,maximum=1"`
	MaxTokens        *int            `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty" jsonschema:"minimum=1,maximum=1000000"`
	N                *int            `json:"n,omitempty" yaml:"n,omitempty" jsonschema:"minimum=0,maximum=100"`
	TopLogprobs      *int            `json:"topLogprobs,omitempty" yaml:"topLogprobs,omitempty" jsonschema:"minimum=0,maximum=5"`
	ResponseFormat   *ResponseFormat `json:"responseFormat,omitempty" yaml:"responseFormat,omitempty"`
	Tools            []Tool          `json:"tools,omitempty" yaml:"tools,omitempty"`

	// Passed through to the backend untouched.
	SystemMessage     string   `json:"systemMessage,omitempty" yaml:"systemMessage,omitempty"`
	ReferenceProfiles []string `json:"referenceProfiles,omitempty" yaml:"referenceProfiles,omitempty"`
	Seed              *int     `json:"seed,omitempty" yaml:"seed,omitempty"`
	Stop              []string `json:"stop,omitempty" yaml:"stop,omitempty"`
	User              string   `json:"user,omitempty" yaml:"user,omitempty"`
}

// Tool is a callable function definition attached to a profile.
type Tool struct {
	Type     string   `json:"type,omitempty" yaml:"type,omitempty"`
	Function Function `json:"function" yaml:"function"`
}

// Function describes the callable: its name and the parameters it accepts.
type Function struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters  ParameterSchema `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Properties maps property names to their schema in insertion order.
type Properties = orderedmap.OrderedMap[string, PropertySchema]

// NewProperties returns an empty, ready to use Properties map.
func NewProperties() *Properties {
	return orderedmap.New[string, PropertySchema]()
}

// ParameterSchema is the set of named properties a tool accepts and which of them are mandatory.
type ParameterSchema struct {
	Type       string      `json:"type,omitempty"`
	Required   []string    `json:"required,omitempty"`
	Properties *Properties `json:"properties,omitempty"`
}

// PropertySchema is a single parameter's declared primitive type.
type PropertySchema struct {
	Type        PropertyType `json:"type,omitempty" yaml:"type,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	// Enum lists the accepted values when Type is PropertyEnum.
	Enum []string `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// ToolCall is a single invocation produced by the model: a tool name plus JSON arguments.
type ToolCall struct {
	ID       string
	ToolName string
	Args     json.RawMessage
}

// propertyCount reports the number of entries in props; nil counts as empty.
func propertyCount(props *Properties) int {
	if props == nil {
		return 0
	}
	return props.Len()
}

// hasProperty reports whether props contains key; nil contains nothing.
func hasProperty(props *Properties, key string) bool {
	if props == nil {
		return false
	}
	_, ok := props.Get(key)
	return ok
}
