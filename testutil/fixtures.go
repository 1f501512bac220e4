// Package testutil provides fixture builders for fnguard and catalog tests.
package testutil

import (
	"context"

	"github.com/skosovsky/fnguard"
	"github.com/skosovsky/fnguard/catalog"
)

// Float returns a pointer to v, for optional numeric profile fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// ModelPtr returns a pointer to m.
func ModelPtr(m fnguard.Model) *fnguard.Model { return &m }

// FormatPtr returns a pointer to f.
func FormatPtr(f fnguard.ResponseFormat) *fnguard.ResponseFormat { return &f }

// Props builds ordered properties from key/type pairs. It panics on an odd
// number of arguments.
func Props(kv ...string) *fnguard.Properties {
	if len(kv)%2 != 0 {
		panic("testutil.Props: odd number of arguments")
	}
	props := fnguard.NewProperties()
	for i := 0; i < len(kv); i += 2 {
		props.Set(kv[i], fnguard.PropertySchema{Type: fnguard.PropertyType(kv[i+1])})
	}
	return props
}

// NewTool returns a function tool with the given required list and properties.
func NewTool(name string, required []string, props *fnguard.Properties) fnguard.Tool {
	return fnguard.Tool{
		Type: "function",
		Function: fnguard.Function{
			Name: name,
			Parameters: fnguard.ParameterSchema{
				Type:       "object",
				Required:   required,
				Properties: props,
			},
		},
	}
}

// ValidProfile returns a profile that passes every rule, with the given tools attached.
func ValidProfile(name string, tools ...fnguard.Tool) *fnguard.Profile {
	return &fnguard.Profile{
		Name:        name,
		Model:       ModelPtr(fnguard.ModelGPT4),
		Temperature: Float(0.7),
		TopP:        Float(1),
		MaxTokens:   Int(256),
		Tools:       tools,
	}
}

// NewTestCatalog returns a Catalog over a fresh MemoryStore, preloaded with tools.
// It panics if the tools do not validate.
func NewTestCatalog(tools ...fnguard.Tool) *catalog.Catalog {
	c, err := catalog.New(catalog.NewMemoryStore())
	if err != nil {
		panic(err)
	}
	if len(tools) > 0 {
		if err := c.UpsertTools(context.Background(), tools); err != nil {
			panic(err)
		}
	}
	return c
}
