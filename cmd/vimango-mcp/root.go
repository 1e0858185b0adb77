package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vimango/vimango-mcp/internal/config"
	"github.com/vimango/vimango-mcp/internal/setup"
	"github.com/vimango/vimango-mcp/internal/store"
)

// skipConfig marks commands that run without a loaded config.
const skipConfig = "skip-config"

// app holds what the persistent flags and the config file produced.
type app struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "vimango-mcp",
		Short: "MCP bridge to vimango notes",
		Long: `vimango-mcp exposes the notes of a vimango database to AI agents as
Model Context Protocol tools, and ships a CLI, a local HTTP API and a
terminal browser over the same data.

The primary store is opened read-write; the FTS index is only ever read.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if cmd.Annotations[skipConfig] == "" {
				cfg, err := config.Load(a.configPath)
				if err != nil {
					return err
				}
				a.cfg = cfg
				if level, err = config.ParseLevel(cfg.Log.Level); err != nil {
					return err
				}
			}
			if a.verbose {
				level = slog.LevelDebug
			}

			// stdout carries the MCP stream, so logs go to stderr.
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
			if a.cfg != nil {
				slog.Debug("config loaded", "path", a.cfg.Path, "main_db", a.cfg.Vimango.MainDB, "fts_db", a.cfg.Vimango.FTSDB)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ./config.json or ~/.config/vimango-mcp/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		mcpCmd(a),
		serveCmd(a),
		tuiCmd(a),
		searchCmd(a),
		getCmd(a),
		containersCmd(a, store.KindContext),
		containersCmd(a, store.KindFolder),
		createCmd(a),
		updateCmd(a),
		statsCmd(a),
		initCmd(a),
		setupCmd(a),
		configCmd(),
		versionCmd(),
	)

	return rootCmd
}

func (a *app) openStore() (*store.Store, error) {
	return store.New(a.cfg.StoreConfig())
}

// setupOptions is the launch command agents are told to run: this very
// binary, pointed at the config file in use.
func (a *app) setupOptions(tools string) setup.Options {
	opts := setup.Options{Tools: tools}
	if exe, err := os.Executable(); err == nil {
		opts.Binary = exe
	}
	if a.cfg != nil && a.cfg.Path != "" {
		if abs, err := filepath.Abs(a.cfg.Path); err == nil {
			opts.ConfigPath = abs
		} else {
			opts.ConfigPath = a.cfg.Path
		}
	}
	return opts
}
