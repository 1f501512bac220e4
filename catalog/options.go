package catalog

import (
	"log/slog"

	"github.com/skosovsky/fnguard"
)

// Option configures a Catalog.
type Option func(*options)

type options struct {
	validator *fnguard.Validator
	logger    *slog.Logger
}

// WithValidator sets the Validator used before every write. Defaults to
// fnguard.NewValidator() (short-circuit, silent).
func WithValidator(v *fnguard.Validator) Option {
	return func(o *options) {
		o.validator = v
	}
}

// WithLogger logs writes and rejected inputs. A nil logger means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}
