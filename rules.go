package fnguard

import (
	"fmt"
	"strconv"
	"strings"
)

// reservedProfileName collides with the list-all route of the profile API.
const reservedProfileName = "all"

// profileRule checks one scalar aspect of a profile and returns nil when it holds.
type profileRule func(p *Profile) *ValidationError

// profileRules run in this order; the first failure decides the short-circuit result.
var profileRules = []profileRule{
	checkName,
	checkReservedName,
	checkModel,
	floatRange("frequencyPenalty", -2, 2, func(p *Profile) *float64 { return p.FrequencyPenalty }),
	floatRange("presencePenalty", -2, 2, func(p *Profile) *float64 { return p.PresencePenalty }),
	floatRange("temperature", 0, 2, func(p *Profile) *float64 { return p.Temperature }),
	floatRange("topP", 0, 1, func(p *Profile) *float64 { return p.TopP }),
	intRange("maxTokens", 1, 1_000_000, func(p *Profile) *int { return p.MaxTokens }),
	intRange("n", 0, 100, func(p *Profile) *int { return p.N }),
	intRange("topLogprobs", 0, 5, func(p *Profile) *int { return p.TopLogprobs }),
	checkLogprobsModel,
	checkResponseFormat,
}

func checkName(p *Profile) *ValidationError {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Kind: KindMissingField, Field: "name", Reason: "name is required"}
	}
	return nil
}

func checkReservedName(p *Profile) *ValidationError {
	if strings.EqualFold(p.Name, reservedProfileName) {
		return &ValidationError{
			Kind:   KindReservedName,
			Field:  "name",
			Reason: "name 'all' conflicts with the list-all route",
		}
	}
	return nil
}

func checkModel(p *Profile) *ValidationError {
	if p.Model != nil && !p.Model.Valid() {
		return &ValidationError{
			Kind:   KindUnknownEnumValue,
			Field:  "model",
			Reason: "model must match an existing AI model",
		}
	}
	return nil
}

func checkLogprobsModel(p *Profile) *ValidationError {
	if p.TopLogprobs != nil && p.Model != nil && *p.Model == ModelGPT4VisionPreview {
		return &ValidationError{
			Kind:   KindIncompatibleCombination,
			Field:  "topLogprobs",
			Reason: "topLogprobs cannot be used with " + string(ModelGPT4VisionPreview),
		}
	}
	return nil
}

func checkResponseFormat(p *Profile) *ValidationError {
	if p.ResponseFormat != nil && !p.ResponseFormat.Valid() {
		return &ValidationError{
			Kind:   KindUnknownEnumValue,
			Field:  "responseFormat",
			Reason: "responseFormat must be 'text' or 'json_object'",
		}
	}
	return nil
}

// floatRange builds a closed-interval rule for an optional float field. Absent passes.
func floatRange(field string, lo, hi float64, get func(*Profile) *float64) profileRule {
	return func(p *Profile) *ValidationError {
		v := get(p)
		if v == nil || (*v >= lo && *v <= hi) {
			return nil
		}
		return outOfRange(field, lo, hi)
	}
}

// intRange builds a closed-interval rule for an optional integer field. Absent passes.
func intRange(field string, lo, hi int, get func(*Profile) *int) profileRule {
	return func(p *Profile) *ValidationError {
		v := get(p)
		if v == nil || (*v >= lo && *v <= hi) {
			return nil
		}
		return outOfRange(field, float64(lo), float64(hi))
	}
}

func outOfRange(field string, lo, hi float64) *ValidationError {
	return &ValidationError{
		Kind:   KindOutOfRange,
		Field:  field,
		Reason: fmt.Sprintf("%s must be a value between %s and %s", field, formatBound(lo), formatBound(hi)),
	}
}

// formatBound prints a bound in plain decimal: -2, 0.5, 1000000.
func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// checkToolInto appends the violations of t to c.
func checkToolInto(c *collector, t *Tool) {
	name := ""
	if t != nil {
		name = t.Function.Name
	}
	if strings.TrimSpace(name) == "" {
		if c.add(&ValidationError{
			Kind:   KindMissingField,
			Field:  "function.name",
			Reason: "a function name is required for all tools",
		}) {
			return
		}
	}
	if t == nil {
		return
	}
	params := t.Function.Parameters
	for _, req := range params.Required {
		if hasProperty(params.Properties, req) {
			continue
		}
		if c.add(&ValidationError{
			Kind:   KindDanglingReference,
			Field:  "function.parameters.required",
			Reason: fmt.Sprintf("required property '%s' does not exist in tool '%s's properties list", req, name),
		}) {
			return
		}
	}
	if propertyCount(params.Properties) == 0 {
		return
	}
	sub := c.child()
	checkPropertiesInto(sub, params.Properties)
	c.merge(sub, "function.parameters.properties")
}

// checkPropertiesInto appends the violations of props to c, in insertion order.
func checkPropertiesInto(c *collector, props *Properties) {
	if props == nil {
		return
	}
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		if c.add(checkProperty(pair.Key, pair.Value)) {
			return
		}
	}
}

func checkProperty(key string, prop PropertySchema) *ValidationError {
	if prop.Type == "" {
		return &ValidationError{
			Kind:   KindMissingField,
			Field:  key + ".type",
			Reason: fmt.Sprintf("type is required for property '%s'", key),
		}
	}
	if !prop.Type.Valid() {
		return &ValidationError{
			Kind:  KindUnknownEnumValue,
			Field: key + ".type",
			Reason: fmt.Sprintf("type '%s' for property '%s' is invalid; expected one of: %s",
				prop.Type, key, propertyTypeList),
		}
	}
	return nil
}

// checkProfileInto appends the violations of p, then of each attached tool, to c.
func checkProfileInto(c *collector, p *Profile) {
	if p == nil {
		c.add(checkName(&Profile{}))
		return
	}
	for _, rule := range profileRules {
		if c.add(rule(p)) {
			return
		}
	}
	for i := range p.Tools {
		sub := c.child()
		checkToolInto(sub, &p.Tools[i])
		if c.merge(sub, fmt.Sprintf("tools[%d]", i)) {
			return
		}
	}
}

func checkChatRequestInto(c *collector, req *ChatRequest) {
	if req == nil {
		c.add(&ValidationError{
			Kind:   KindMissingRequest,
			Reason: "the chat request object must be provided",
		})
		return
	}
	if req.Modifiers == nil {
		return
	}
	sub := c.child()
	checkProfileInto(sub, req.Modifiers)
	c.merge(sub, "modifiers")
}

// collector gathers violations. In short-circuit mode it stops at the first one.
type collector struct {
	all bool
	out Violations
}

// add records e (nil is ignored) and reports whether evaluation must stop.
func (c *collector) add(e *ValidationError) bool {
	if e == nil {
		return false
	}
	c.out = append(c.out, e)
	return !c.all
}

func (c *collector) child() *collector {
	return &collector{all: c.all}
}

// merge copies sub's violations under prefix and reports whether evaluation must stop.
func (c *collector) merge(sub *collector, prefix string) bool {
	for _, e := range sub.out {
		if c.add(e.at(prefix)) {
			return true
		}
	}
	return false
}
