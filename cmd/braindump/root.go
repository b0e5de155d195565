package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"braindump/internal/config"
)

// cli carries the configuration loaded before any subcommand runs.
type cli struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:   "braindump",
		Short: "Index, search and version a directory of markdown notes",
		Long: `Braindump keeps a SQLite index of the markdown documents under REPO_PATH:
titles, TODO items, open questions and optional embeddings for semantic search.
Edits are committed to a git repository in the same directory.

Run without a subcommand to start the API server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			setupLogging(cfg, cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runServe(cmd.Context())
		},
	}

	cmd.AddCommand(c.newServeCmd())
	cmd.AddCommand(c.newRebuildCmd())
	cmd.AddCommand(c.newSearchCmd())
	cmd.AddCommand(c.newStatsCmd())
	cmd.AddCommand(c.newTodosCmd())
	cmd.AddCommand(c.newQuestionsCmd())
	cmd.AddCommand(c.newFlushCmd())

	return cmd
}

// setupLogging installs the default slog handler. Logs go to w so command
// output on stdout stays machine readable.
func setupLogging(cfg *config.Config, w io.Writer) {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)
}
