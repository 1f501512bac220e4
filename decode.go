package fnguard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the serialization of a profile, tool list or chat request document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decode unmarshals data into v. Decoding only shapes the object graph; it does not
// validate it. Property order is preserved in both formats.
func Decode(data []byte, f Format, v any) error {
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
	}
	return nil
}

// UnmarshalYAML decodes a parameter schema keeping the order of its properties mapping.
func (s *ParameterSchema) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Type       string    `yaml:"type"`
		Required   []string  `yaml:"required"`
		Properties yaml.Node `yaml:"properties"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	s.Type = raw.Type
	s.Required = raw.Required
	s.Properties = nil

	node := raw.Properties
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping", node.Line)
	}
	props := NewProperties()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var prop PropertySchema
		if err := val.Decode(&prop); err != nil {
			return err
		}
		if _, dup := props.Set(key.Value, prop); dup {
			return fmt.Errorf("line %d: duplicate property %q", key.Line, key.Value)
		}
	}
	s.Properties = props
	return nil
}

// UnmarshalJSON decodes a parameter schema keeping the order of its properties object
// and rejecting duplicate property names, as UnmarshalYAML does.
func (s *ParameterSchema) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw struct {
		Type       string          `json:"type"`
		Required   []string        `json:"required"`
		Properties json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Type = raw.Type
	s.Required = raw.Required
	s.Properties = nil

	body := bytes.TrimSpace(raw.Properties)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("properties must be an object")
	}
	props := NewProperties()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var prop PropertySchema
		if err := dec.Decode(&prop); err != nil {
			return fmt.Errorf("property %q: %w", key, err)
		}
		if _, dup := props.Set(key, prop); dup {
			return fmt.Errorf("duplicate property %q", key)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	s.Properties = props
	return nil
}
