package fnguard

import "log/slog"

// validatorOptions hold optional Validator settings.
type validatorOptions struct {
	logger     *slog.Logger
	collectAll bool
	onReject   func(subject string, err error)
}

// Option configures a Validator (e.g. WithLogger, WithCollectAll).
type Option func(*validatorOptions)

// WithLogger logs every rejected object at Info level with kind, field and reason.
// A nil logger means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *validatorOptions) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// WithCollectAll makes the Validator evaluate every rule and return all violations
// as Violations instead of stopping at the first one.
func WithCollectAll() Option {
	return func(o *validatorOptions) {
		o.collectAll = true
	}
}

// WithOnReject sets a hook called after a rejected validation. subject is one of
// "chat request", "profile", "tool", "tools" or "properties".
func WithOnReject(fn func(subject string, err error)) Option {
	return func(o *validatorOptions) {
		o.onReject = fn
	}
}
