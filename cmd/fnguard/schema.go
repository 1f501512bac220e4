package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/skosovsky/fnguard"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "schema {profile|tool|chat}",
		Short:     "Print the JSON Schema of a document kind",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"profile", "tool", "chat"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				schema map[string]any
				err    error
			)
			switch args[0] {
			case "profile":
				schema, err = fnguard.ProfileSchema()
			case "tool":
				schema, err = fnguard.ToolSchema()
			default:
				schema, err = fnguard.ChatRequestSchema()
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(schema)
		},
	}
	return cmd
}
