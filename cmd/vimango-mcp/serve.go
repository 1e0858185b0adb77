package main

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/vimango/vimango-mcp/internal/mcp"
	"github.com/vimango/vimango-mcp/internal/server"
	"github.com/vimango/vimango-mcp/internal/tui"
)

func mcpCmd(a *app) *cobra.Command {
	var tools string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Long: `Start the MCP server on stdio.

--tools limits what gets registered. It takes profile names and/or tool
names, comma separated:

  read   list_contexts, list_folders, search_notes, get_note
  write  create_note, update_note
  all    everything (default)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			allowlist := mcp.ResolveTools(tools)
			slog.Info("mcp server starting", "addressing", s.Addressing().String(), "index", s.HasIndex(), "tools", tools)

			srv := mcp.NewServerWithTools(s, version, allowlist)
			return mcpserver.ServeStdio(srv,
				mcpserver.WithErrorLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError)),
			)
		},
	}

	cmd.Flags().StringVar(&tools, "tools", "", "tool profiles or names to register (read, write, all)")
	return cmd
}

func serveCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local HTTP API on 127.0.0.1",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == 0 {
				port = a.cfg.Server.Port
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			return server.New(s, port).Start()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default server.port)")
	return cmd
}

func tuiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse notes in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			model := tui.New(s, version, a.setupOptions(""))
			_, err = tea.NewProgram(model).Run()
			return err
		},
	}
}
