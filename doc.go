// Package fnguard validates the configuration objects of a function-calling API
// before anything is persisted or sent to a model backend.
//
// # Overview
//
// Three nested shapes are checked: a ChatRequest (whose optional Modifiers is an
// inline profile override), a Profile (generation parameters plus attached tools),
// and Tool definitions (a function name and a parameter schema of typed properties).
//
// Control flow is depth-first and short-circuiting: Request → Profile → Tool →
// Property. The first violation is returned as a *ValidationError whose Error() is
// the single-line message to hand back to the client verbatim.
//
// # Key concepts
//
//   - Fixed rule order: when several fields are invalid, the rule order decides which
//     message is reported (name, reserved name, model, numeric ranges, model/logprobs
//     conflict, response format, tools).
//   - Explicit optionals: numeric fields are pointers; nil is absent and always passes.
//   - Tagged results: every violation carries a Kind and a Field path. Use errors.Is
//     with ErrValidation or a kind sentinel (ErrOutOfRange, ...), or KindOf.
//   - All-errors mode: CollectProfile and NewValidator(WithCollectAll()) return every
//     violation as Violations, in the same order.
//   - Argument checks: CompileArguments turns a valid Tool into a JSON Schema that
//     checks model-produced call arguments (ClientError on mismatch); DecodeArguments
//     also decodes them into a Go type.
//
// Validation does no I/O apart from the optional WithLogger output and keeps no shared
// mutable state. All functions are safe for concurrent use. Package catalog stores
// validated profiles and tools; cmd/fnguard is the command-line front end.
//
// # Example
//
//	temp := 3.0
//	err := fnguard.ValidateProfile(&fnguard.Profile{Name: "demo", Temperature: &temp})
//	// err.Error() == "temperature must be a value between 0 and 2"
//	// errors.Is(err, fnguard.ErrOutOfRange) == true
package fnguard
