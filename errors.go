package fnguard

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a validation failure.
type Kind int

const (
	// KindMissingRequest: the top-level request itself is absent.
	KindMissingRequest Kind = iota + 1
	// KindMissingField: a required scalar (name, function name, property type) is blank.
	KindMissingField
	// KindOutOfRange: a numeric field lies outside its closed interval.
	KindOutOfRange
	// KindUnknownEnumValue: a model, response format or property type outside its fixed set.
	KindUnknownEnumValue
	// KindReservedName: the profile name collides with a reserved route token.
	KindReservedName
	// KindIncompatibleCombination: two fields conflict.
	KindIncompatibleCombination
	// KindDanglingReference: a required property name has no schema entry.
	KindDanglingReference
)

// Sentinel errors for fnguard. Use errors.Is to check.
var (
	ErrValidation              = errors.New("validation failed")
	ErrMissingRequest          = errors.New("missing request")
	ErrMissingField            = errors.New("missing field")
	ErrOutOfRange              = errors.New("value out of range")
	ErrUnknownEnumValue        = errors.New("unknown enum value")
	ErrReservedName            = errors.New("reserved name")
	ErrIncompatibleCombination = errors.New("incompatible combination")
	ErrDanglingReference       = errors.New("dangling reference")
)

func (k Kind) String() string {
	switch k {
	case KindMissingRequest:
		return "MissingRequest"
	case KindMissingField:
		return "MissingField"
	case KindOutOfRange:
		return "OutOfRange"
	case KindUnknownEnumValue:
		return "UnknownEnumValue"
	case KindReservedName:
		return "ReservedName"
	case KindIncompatibleCombination:
		return "IncompatibleCombination"
	case KindDanglingReference:
		return "DanglingReference"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) sentinel() error {
	switch k {
	case KindMissingRequest:
		return ErrMissingRequest
	case KindMissingField:
		return ErrMissingField
	case KindOutOfRange:
		return ErrOutOfRange
	case KindUnknownEnumValue:
		return ErrUnknownEnumValue
	case KindReservedName:
		return ErrReservedName
	case KindIncompatibleCombination:
		return ErrIncompatibleCombination
	case KindDanglingReference:
		return ErrDanglingReference
	}
	return nil
}

// ValidationError is a single rule violation. Error returns Reason verbatim so a
// transport can hand it to the client unchanged. Field is the dotted path of the
// offending value (e.g. "tools[1].function.parameters.properties.q.type").
type ValidationError struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Unwrap exposes the kind sentinel and ErrValidation to errors.Is.
func (e *ValidationError) Unwrap() []error {
	if s := e.Kind.sentinel(); s != nil {
		return []error{s, ErrValidation}
	}
	return []error{ErrValidation}
}

// at returns a copy of e with prefix prepended to Field.
func (e *ValidationError) at(prefix string) *ValidationError {
	out := *e
	if out.Field == "" {
		out.Field = prefix
	} else {
		out.Field = prefix + "." + out.Field
	}
	return &out
}

// Violations is the result of an all-errors evaluation, in rule order.
type Violations []*ValidationError

func (v Violations) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Reason
	}
	return strings.Join(msgs, "; ")
}

// Unwrap supports errors.Is/errors.As against any contained violation.
func (v Violations) Unwrap() []error {
	out := make([]error, len(v))
	for i, e := range v {
		out[i] = e
	}
	return out
}

// First returns the violation a short-circuit evaluation would have reported, or nil.
func (v Violations) First() *ValidationError {
	if len(v) == 0 {
		return nil
	}
	return v[0]
}

// Fields returns the Field of every violation, in order.
func (v Violations) Fields() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.Field
	}
	return out
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// KindOf returns the Kind of the first ValidationError in err's chain.
func KindOf(err error) (Kind, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return 0, false
}

// ClientError is an error about a model-produced tool call that should go back to the
// model for self-correction (invalid JSON, arguments not matching the tool schema).
// Err optionally wraps a sentinel (e.g. ErrValidation) for errors.Is/errors.As.
type ClientError struct {
	Reason string
	Err    error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

// Unwrap supports errors.Is/errors.As on wrapped chains (e.g. errors.Is(err, ErrValidation)).
func (e *ClientError) Unwrap() error { return e.Err }

// SystemError represents an internal failure (store down, schema compile failure).
// Clients should not see the underlying error message.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error"
}

func (e *SystemError) Unwrap() error { return e.Err }

// IsClientError returns true if err is or wraps a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsSystemError returns true if err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// wrapJSONParseError returns a ClientError for JSON unmarshal failures.
func wrapJSONParseError(err error) error {
	return &ClientError{Reason: "json parse error: " + err.Error()}
}
