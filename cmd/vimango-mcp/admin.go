package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vimango/vimango-mcp/internal/config"
	"github.com/vimango/vimango-mcp/internal/setup"
	"github.com/vimango/vimango-mcp/internal/store"
)

func initCmd(a *app) *cobra.Command {
	var (
		addressing string
		contexts   []string
		folders    []string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty vimango database pair",
		Long: `Create an empty primary store and FTS index at the configured paths,
seeded with the reserved "none" context and folder.

This is for trying the bridge without a vimango install. Existing files
are never touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := store.ParseAddressing(addressing)
			if err != nil {
				return fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
			}

			cfg := a.cfg.StoreConfig()
			if err := store.Bootstrap(cfg, store.BootstrapOptions{
				Addressing: mode,
				Contexts:   contexts,
				Folders:    folders,
			}); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s created %s (%s addressing)\n", okColor.Sprint("✓"), cfg.MainDB, mode)
			fmt.Fprintf(out, "%s created %s\n", okColor.Sprint("✓"), cfg.IndexDB)
			return nil
		},
	}

	cmd.Flags().StringVar(&addressing, "addressing", "uuid", "container keys to use: tid, uuid or dual")
	cmd.Flags().StringSliceVar(&contexts, "context", nil, "extra contexts to create")
	cmd.Flags().StringSliceVar(&folders, "folder", nil, "extra folders to create")
	return cmd
}

func setupCmd(a *app) *cobra.Command {
	var tools string

	cmd := &cobra.Command{
		Use:   "setup [agent]",
		Short: "Register the MCP server with an AI agent",
		Long: `Register vimango-mcp as an MCP server with an AI coding agent.
Without an agent, lists the supported ones.

The agent is told to run this binary with the current --config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, "Supported agents:")
				for _, agent := range setup.SupportedAgents() {
					fmt.Fprintf(out, "  %-12s %s\n", agent.Name, dimColor.Sprint(agent.Description))
				}
				return nil
			}

			opts := a.setupOptions(tools)
			result, err := setup.Install(args[0], opts)
			if err != nil {
				return err
			}

			bin, cmdArgs := opts.Command()
			fmt.Fprintf(out, "%s registered with %s\n", okColor.Sprint("✓"), result.Agent)
			fmt.Fprintf(out, "  location: %s\n", result.Destination)
			fmt.Fprintf(out, "  command:  %s %s\n", bin, strings.Join(cmdArgs, " "))
			fmt.Fprintf(out, "\nRestart %s to pick it up.\n", result.Agent)
			return nil
		},
	}

	cmd.Flags().StringVar(&tools, "tools", "", "restrict the registered server to these tool profiles")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var force bool
	initConfigCmd := &cobra.Command{
		Use:         "init [path]",
		Short:       "Write a default config file",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.UserConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteDefault(path, config.Default(), force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\nSet vimango.main_db and vimango.fts_db before starting the server.\n",
				okColor.Sprint("✓"), path)
			return nil
		},
	}
	initConfigCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	cmd.AddCommand(initConfigCmd)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vimango-mcp %s\n", version)
		},
	}
}
