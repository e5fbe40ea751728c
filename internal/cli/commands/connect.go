package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metasync-tools/metasync/internal/cli/config"
	"github.com/metasync-tools/metasync/internal/cli/ui"
	"github.com/metasync-tools/metasync/internal/metabase"
)

// connect loads the instance settings, builds a client, and opens a
// session. Every subcommand starts here.
func connect(ctx context.Context, cmd *cobra.Command) (*metabase.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		ui.WriteError(cmd.ErrOrStderr(), ui.ErrorOptions{
			Context: "configuration error",
			Problem: err.Error(),
			Suggestions: []string{
				`export METABASE_URL="http://localhost:3000"`,
				`export METABASE_USER="admin@example.com"`,
				`export METABASE_PASS="..."`,
				"or put the three settings in a .env file next to the binary",
			},
		})
		return nil, err
	}

	client := metabase.NewClient(metabase.Config{
		URL:      cfg.URL,
		Username: cfg.Username,
		Password: cfg.Password,
	}, newLogger())

	ui.Info(cmd.OutOrStdout(), "Logging in to Metabase (%s)...", cfg.Username)
	if err := client.Login(ctx); err != nil {
		ui.WriteError(cmd.ErrOrStderr(), ui.ErrorOptions{
			Context: "connection failed",
			Problem: fmt.Sprintf("could not open a session on %s", cfg.URL),
			Suggestions: []string{
				"Metabase can take 2-3 minutes to initialize after a fresh start",
				"Check the URL and credentials in your environment or .env file",
			},
		})
		return nil, err
	}
	return client, nil
}

func newLogger() *zap.Logger {
	if !verboseFlag {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
