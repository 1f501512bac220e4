package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/skosovsky/fnguard"
	"github.com/skosovsky/fnguard/internal/config"
)

// errRejected is returned after the violations have already been printed.
var errRejected = errors.New("validation failed")

// app carries what PersistentPreRunE resolved for the subcommands.
type app struct {
	envFiles []string
	cfg      *config.Config
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "fnguard",
		Short:         "fnguard - validate chat profiles, tools and chat requests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.envFiles...)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cfg.Logger(cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "env files to load (default .env)")
	root.AddCommand(newValidateCmd(a), newSchemaCmd(), newCatalogCmd(a))
	return root
}

// validator builds the Validator for a command; --all or FNGUARD_COLLECT_ALL switch
// it to reporting every violation.
func (a *app) validator(all bool) *fnguard.Validator {
	opts := []fnguard.Option{fnguard.WithLogger(a.logger)}
	if all || a.cfg.CollectAll {
		opts = append(opts, fnguard.WithCollectAll())
	}
	return fnguard.NewValidator(opts...)
}

// decodeFile reads path and decodes it as JSON or YAML by extension.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := fnguard.Decode(data, fnguard.FormatFromPath(path), v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// report prints err's violations one per line and returns errRejected, or passes
// err through when it is not a validation failure.
func report(cmd *cobra.Command, err error) error {
	var violations fnguard.Violations
	var single *fnguard.ValidationError
	switch {
	case errors.As(err, &violations):
	case errors.As(err, &single):
		violations = fnguard.Violations{single}
	default:
		return err
	}
	out := cmd.OutOrStdout()
	for _, v := range violations {
		fmt.Fprintf(out, "%s [%s] %s\n", v.Field, v.Kind, v.Reason)
	}
	return errRejected
}
