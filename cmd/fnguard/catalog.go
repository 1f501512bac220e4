package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skosovsky/fnguard"
	"github.com/skosovsky/fnguard/catalog"
	"github.com/skosovsky/fnguard/catalog/sqlitestore"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the profile and tool catalog (FNGUARD_DB_PATH)",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "put-profile FILE",
			Short: "Validate and store a profile with its tools",
			Args:  cobra.ExactArgs(1),
			RunE: a.withCatalog(func(cmd *cobra.Command, c *catalog.Catalog, args []string) error {
				var p fnguard.Profile
				if err := decodeFile(args[0], &p); err != nil {
					return err
				}
				if err := c.UpsertProfile(cmd.Context(), &p); err != nil {
					return report(cmd, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored profile %s\n", p.Name)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "put-tools FILE",
			Short: "Validate and store a list of tools",
			Args:  cobra.ExactArgs(1),
			RunE: a.withCatalog(func(cmd *cobra.Command, c *catalog.Catalog, args []string) error {
				var tools []fnguard.Tool
				if err := decodeFile(args[0], &tools); err != nil {
					return err
				}
				if err := c.UpsertTools(cmd.Context(), tools); err != nil {
					return report(cmd, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored %d tools\n", len(tools))
				return nil
			}),
		},
		&cobra.Command{
			Use:       "list {profiles|tools}",
			Short:     "List stored profile or tool names",
			Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
			ValidArgs: []string{"profiles", "tools"},
			RunE: a.withCatalog(func(cmd *cobra.Command, c *catalog.Catalog, args []string) error {
				var names []string
				if args[0] == "profiles" {
					profiles, err := c.Profiles(cmd.Context())
					if err != nil {
						return err
					}
					for _, p := range profiles {
						names = append(names, p.Name)
					}
				} else {
					tools, err := c.Tools(cmd.Context())
					if err != nil {
						return err
					}
					for _, t := range tools {
						names = append(names, t.Function.Name)
					}
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:       "get {profile|tool} NAME",
			Short:     "Print a stored profile (with its tools) or tool as JSON",
			Args:      cobra.ExactArgs(2),
			ValidArgs: []string{"profile", "tool"},
			RunE: a.withCatalog(func(cmd *cobra.Command, c *catalog.Catalog, args []string) error {
				var (
					v   any
					err error
				)
				switch args[0] {
				case "profile":
					v, err = c.Profile(cmd.Context(), args[1])
				case "tool":
					v, err = c.Tool(cmd.Context(), args[1])
				default:
					return fmt.Errorf("unknown kind %q, want profile or tool", args[0])
				}
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			}),
		},
		&cobra.Command{
			Use:   "delete {profile|tool} NAME",
			Short: "Delete a stored profile or tool and its associations",
			Args:  cobra.ExactArgs(2),
			RunE: a.withCatalog(func(cmd *cobra.Command, c *catalog.Catalog, args []string) error {
				switch args[0] {
				case "profile":
					return c.DeleteProfile(cmd.Context(), args[1])
				case "tool":
					return c.DeleteTool(cmd.Context(), args[1])
				}
				return fmt.Errorf("unknown kind %q, want profile or tool", args[0])
			}),
		},
		&cobra.Command{
			Use:   "associate TOOL PROFILE...",
			Short: "Attach a tool to profiles",
			Args:  cobra.MinimumNArgs(2),
			RunE: a.withCatalog(func(cmd *cobra.Command, c *catalog.Catalog, args []string) error {
				return c.Associate(cmd.Context(), args[0], args[1:])
			}),
		},
		&cobra.Command{
			Use:   "dissociate TOOL PROFILE...",
			Short: "Detach a tool from profiles",
			Args:  cobra.MinimumNArgs(2),
			RunE: a.withCatalog(func(cmd *cobra.Command, c *catalog.Catalog, args []string) error {
				return c.Dissociate(cmd.Context(), args[0], args[1:])
			}),
		},
		&cobra.Command{
			Use:   "tool-profiles TOOL",
			Short: "List the profiles a tool is attached to",
			Args:  cobra.ExactArgs(1),
			RunE: a.withCatalog(func(cmd *cobra.Command, c *catalog.Catalog, args []string) error {
				profiles, err := c.ToolProfiles(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				for _, p := range profiles {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "check-call TOOL ARGS_JSON",
			Short: "Check model-produced call arguments against a stored tool",
			Args:  cobra.ExactArgs(2),
			RunE: a.withCatalog(func(cmd *cobra.Command, c *catalog.Catalog, args []string) error {
				call := fnguard.ToolCall{ID: "cli", ToolName: args[0], Args: json.RawMessage(args[1])}
				if err := c.CheckCall(cmd.Context(), call); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			}),
		},
	)
	return cmd
}

type catalogRunE func(cmd *cobra.Command, c *catalog.Catalog, args []string) error

// withCatalog opens the SQLite catalog for the duration of one command.
func (a *app) withCatalog(run catalogRunE) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		store, err := sqlitestore.Open(a.cfg.DBPath)
		if err != nil {
			return err
		}
		c, err := catalog.New(store,
			catalog.WithLogger(a.logger),
			catalog.WithValidator(a.validator(false)),
		)
		if err != nil {
			_ = store.Close()
			return err
		}
		defer func() {
			if cerr := c.Shutdown(context.WithoutCancel(cmd.Context())); err == nil {
				err = cerr
			}
		}()
		return run(cmd, c, args)
	}
}
