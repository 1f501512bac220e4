package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skosovsky/fnguard"
)

func newValidateCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a profile, tool list or chat request file",
	}
	cmd.PersistentFlags().BoolVar(&all, "all", false, "report every violation instead of the first")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "profile FILE",
			Short: "Validate a profile document",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var p fnguard.Profile
				if err := decodeFile(args[0], &p); err != nil {
					return err
				}
				return finishValidate(cmd, a.validator(all).ValidateProfile(&p))
			},
		},
		&cobra.Command{
			Use:   "tools FILE",
			Short: "Validate a list of tools",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var tools []fnguard.Tool
				if err := decodeFile(args[0], &tools); err != nil {
					return err
				}
				return finishValidate(cmd, a.validator(all).ValidateTools(tools))
			},
		},
		&cobra.Command{
			Use:   "chat FILE",
			Short: "Validate a chat request",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var req fnguard.ChatRequest
				if err := decodeFile(args[0], &req); err != nil {
					return err
				}
				return finishValidate(cmd, a.validator(all).ValidateChatRequest(&req))
			},
		},
	)
	return cmd
}

func finishValidate(cmd *cobra.Command, err error) error {
	if err != nil {
		return report(cmd, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}
