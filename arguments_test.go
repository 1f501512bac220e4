package fnguard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookingTool() Tool {
	p := NewProperties()
	p.Set("guest", PropertySchema{Type: PropertyString, Description: "Guest name"})
	p.Set("nights", PropertySchema{Type: PropertyInt})
	p.Set("initial", PropertySchema{Type: PropertyChar})
	p.Set("arrival", PropertySchema{Type: PropertyDate})
	p.Set("room", PropertySchema{Type: PropertyEnum, Enum: []string{"single", "double"}})
	p.Set("rate", PropertySchema{Type: PropertyDouble})
	p.Set("discount", PropertySchema{Type: PropertyFloat})
	p.Set("breakfast", PropertySchema{Type: PropertyBool})
	return Tool{
		Type: "function",
		Function: Function{
			Name:       "book_room",
			Parameters: ParameterSchema{Type: "object", Required: []string{"guest", "nights"}, Properties: p},
		},
	}
}

func TestCompileArguments_Validate(t *testing.T) {
	tool := bookingTool()
	args, err := CompileArguments(&tool)
	require.NoError(t, err)
	assert.Equal(t, "book_room", args.Tool())

	tests := []struct {
		name  string
		args  string
		valid bool
	}{
		{"all fields", `{"guest":"Ann","nights":2,"initial":"A","arrival":"2024-01-31","room":"double",` +
			`"rate":99.5,"discount":0.1,"breakfast":true}`, true},
		{"required only", `{"guest":"Ann","nights":1}`, true},
		{"missing required", `{"guest":"Ann"}`, false},
		{"int gets fraction", `{"guest":"Ann","nights":1.5}`, false},
		{"char too long", `{"guest":"Ann","nights":1,"initial":"AB"}`, false},
		{"bad date", `{"guest":"Ann","nights":1,"arrival":"tomorrow"}`, false},
		{"enum outside values", `{"guest":"Ann","nights":1,"room":"suite"}`, false},
		{"bool as string", `{"guest":"Ann","nights":1,"breakfast":"yes"}`, false},
		{"not an object", `[1,2]`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := args.Validate([]byte(tt.args))
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsClientError(err))
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestArgumentSchema_ParseError(t *testing.T) {
	tool := bookingTool()
	args, err := CompileArguments(&tool)
	require.NoError(t, err)
	err = args.Validate([]byte(`{"guest":`))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "json parse error")
}

func TestArgumentSchema_MessageHasNoServerPath(t *testing.T) {
	tool := bookingTool()
	args, err := CompileArguments(&tool)
	require.NoError(t, err)
	err = args.Validate([]byte(`{"guest":"Ada","nights":"two"}`))
	require.ErrorIs(t, err, ErrValidation)
	assert.NotContains(t, err.Error(), "file://")
	assert.Contains(t, err.Error(), argumentsResource)
}

func TestArgumentSchema_ValidateCall(t *testing.T) {
	tool := bookingTool()
	args, err := CompileArguments(&tool)
	require.NoError(t, err)
	assert.NoError(t, args.ValidateCall(ToolCall{ID: "1", ToolName: "book_room", Args: []byte(`{"guest":"A","nights":1}`)}))
	err = args.ValidateCall(ToolCall{ID: "2", ToolName: "other", Args: []byte(`{}`)})
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.Contains(t, err.Error(), "'other'")
}

func TestCompileArguments_InvalidTool(t *testing.T) {
	tool := lookupTool([]string{"x"}, nil)
	args, err := CompileArguments(&tool)
	assert.Nil(t, args)
	requireViolation(t, err, KindDanglingReference,
		"required property 'x' does not exist in tool 'lookup's properties list")
}

func TestCompileArguments_NoParameters(t *testing.T) {
	tool := Tool{Function: Function{Name: "ping"}}
	args, err := CompileArguments(&tool)
	require.NoError(t, err)
	assert.NoError(t, args.Validate([]byte(`{}`)))
	assert.NoError(t, args.Validate([]byte(`{"anything":1}`)))
}

func TestArgumentSchema_Schema(t *testing.T) {
	tool := bookingTool()
	args, err := CompileArguments(&tool)
	require.NoError(t, err)
	s := args.Schema()
	assert.Equal(t, "object", s["type"])
	assert.Equal(t, []any{"guest", "nights"}, s["required"])
	props := s["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "string", "description": "Guest name"}, props["guest"])
	assert.Equal(t, map[string]any{"type": "string", "format": "date"}, props["arrival"])
	assert.Equal(t, map[string]any{"type": "string", "enum": []any{"single", "double"}}, props["room"])

	s["type"] = "mutated"
	assert.Equal(t, "object", args.Schema()["type"], "Schema returns a copy")
}

type booking struct {
	Guest  string `json:"guest"`
	Nights int    `json:"nights"`
}

func (b booking) Validate() error {
	if b.Nights > 30 {
		return errors.New("stays longer than 30 nights need approval")
	}
	return nil
}

type plainBooking struct {
	Guest string `json:"guest"`
}

func TestDecodeArguments(t *testing.T) {
	tool := bookingTool()
	args, err := CompileArguments(&tool)
	require.NoError(t, err)

	got, err := DecodeArguments[booking](args, []byte(`{"guest":"Ada","nights":2}`))
	require.NoError(t, err)
	assert.Equal(t, booking{Guest: "Ada", Nights: 2}, got)

	_, err = DecodeArguments[booking](args, []byte(`{"guest":"Ada","nights":45}`))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "need approval")

	_, err = DecodeArguments[booking](args, []byte(`{"guest":"Ada"}`))
	require.ErrorIs(t, err, ErrValidation, "schema check runs first")

	ptr, err := DecodeArguments[*booking](args, []byte(`{"guest":"Ada","nights":1}`))
	require.NoError(t, err)
	assert.Equal(t, 1, ptr.Nights)

	plain, err := DecodeArguments[plainBooking](args, []byte(`{"guest":"Ada","nights":1}`))
	require.NoError(t, err)
	assert.Equal(t, "Ada", plain.Guest)
}
