package fnguard

import (
	"context"
	"fmt"
	"log/slog"
)

// Validator runs the profile rule set. It holds no state between calls and is safe
// for concurrent use. The zero value is not usable; call NewValidator.
type Validator struct {
	opts validatorOptions
}

// NewValidator creates a Validator with the given options. Without options it is
// silent and short-circuits on the first violation.
func NewValidator(opts ...Option) *Validator {
	var o validatorOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Validator{opts: o}
}

// CollectsAll reports whether v returns every violation instead of the first one.
func (v *Validator) CollectsAll() bool { return v.opts.collectAll }

// ValidateChatRequest validates req and, when present, its profile override.
func (v *Validator) ValidateChatRequest(req *ChatRequest) error {
	c := v.collector()
	checkChatRequestInto(c, req)
	return v.finish("chat request", c)
}

// ValidateProfile validates p and every attached tool, in order.
func (v *Validator) ValidateProfile(p *Profile) error {
	c := v.collector()
	checkProfileInto(c, p)
	return v.finish("profile", c)
}

// ValidateTool validates a single tool definition and its property schemas.
func (v *Validator) ValidateTool(t *Tool) error {
	c := v.collector()
	checkToolInto(c, t)
	return v.finish("tool", c)
}

// ValidateTools validates tools in order; violations carry a "tools[i]" field prefix.
func (v *Validator) ValidateTools(tools []Tool) error {
	c := v.collector()
	for i := range tools {
		sub := c.child()
		checkToolInto(sub, &tools[i])
		if c.merge(sub, fmt.Sprintf("tools[%d]", i)) {
			break
		}
	}
	return v.finish("tools", c)
}

// ValidateProperties validates property schemas in insertion order.
func (v *Validator) ValidateProperties(props *Properties) error {
	c := v.collector()
	checkPropertiesInto(c, props)
	return v.finish("properties", c)
}

func (v *Validator) collector() *collector {
	return &collector{all: v.opts.collectAll}
}

// finish turns collected violations into the returned error, logging and
// calling the reject hook when there is one.
func (v *Validator) finish(subject string, c *collector) error {
	if len(c.out) == 0 {
		return nil
	}
	var err error = c.out[0]
	if v.opts.collectAll {
		err = c.out
	}
	if v.opts.logger != nil {
		first := c.out[0]
		v.opts.logger.LogAttrs(context.Background(), slog.LevelInfo, "validation rejected",
			slog.String("subject", subject),
			slog.String("kind", first.Kind.String()),
			slog.String("field", first.Field),
			slog.String("reason", first.Reason),
			slog.Int("violations", len(c.out)),
		)
	}
	if v.opts.onReject != nil {
		v.opts.onReject(subject, err)
	}
	return err
}

var defaultValidator = NewValidator()

// ValidateChatRequest validates req with the default short-circuit Validator.
// It returns nil or the first *ValidationError found.
func ValidateChatRequest(req *ChatRequest) error { return defaultValidator.ValidateChatRequest(req) }

// ValidateProfile validates p with the default short-circuit Validator.
func ValidateProfile(p *Profile) error { return defaultValidator.ValidateProfile(p) }

// ValidateTool validates t with the default short-circuit Validator.
func ValidateTool(t *Tool) error { return defaultValidator.ValidateTool(t) }

// ValidateTools validates each of tools in order with the default short-circuit Validator.
func ValidateTools(tools []Tool) error { return defaultValidator.ValidateTools(tools) }

// ValidateProperties validates props with the default short-circuit Validator.
func ValidateProperties(props *Properties) error { return defaultValidator.ValidateProperties(props) }

// CollectChatRequest returns every violation in req, in rule order.
func CollectChatRequest(req *ChatRequest) Violations {
	c := &collector{all: true}
	checkChatRequestInto(c, req)
	return c.out
}

// CollectProfile returns every violation in p, in rule order.
func CollectProfile(p *Profile) Violations {
	c := &collector{all: true}
	checkProfileInto(c, p)
	return c.out
}

// CollectTool returns every violation in t, in rule order.
func CollectTool(t *Tool) Violations {
	c := &collector{all: true}
	checkToolInto(c, t)
	return c.out
}
