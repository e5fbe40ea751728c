package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/metasync-tools/metasync/internal/archive"
	"github.com/metasync-tools/metasync/internal/cli/ui"
	"github.com/metasync-tools/metasync/internal/content"
)

var backupFileFlag string

// NewBackupCommand creates the backup command
func NewBackupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot all cards and dashboards into a portable archive",
		Long: `Fetch every card and dashboard from the instance and write them to a
zip archive that can be restored onto another instance.

References between cards (a question built on another saved question) and
from dashboards to cards are captured so they can be rebuilt on a target
whose numeric ids differ.`,
		Example: `  # Backup to a timestamped file
  metasync backup

  # Backup to a specific file
  metasync backup -f nightly.zip`,
		RunE: runBackup,
	}

	cmd.Flags().StringVarP(&backupFileFlag, "file", "f", "", "Archive file to write (default metabase_backup_<timestamp>.zip)")

	return cmd
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	client, err := connect(ctx, cmd)
	if err != nil {
		return err
	}

	path := backupFileFlag
	if path == "" {
		path = fmt.Sprintf("metabase_backup_%s.zip", time.Now().Format("20060102_150405"))
	}

	var cards []content.Card
	var dashboards []content.Dashboard
	var version string
	err = ui.WithSpinner(out, "Fetching cards and dashboards", func() error {
		var err error
		if version, err = client.Version(ctx); err != nil {
			return err
		}
		if cards, err = client.ListCards(ctx); err != nil {
			return err
		}
		summaries, err := client.ListDashboards(ctx)
		if err != nil {
			return err
		}
		for _, s := range summaries {
			d, err := client.GetDashboard(ctx, s.ID)
			if err != nil {
				return err
			}
			dashboards = append(dashboards, d)
		}
		return nil
	})
	if err != nil {
		return err
	}

	a := archive.New(cards, dashboards, version)
	if err := a.Validate(); err != nil {
		ui.Fail(cmd.ErrOrStderr(), "instance content is inconsistent: %v", err)
		return err
	}
	if err := archive.Write(path, a); err != nil {
		return err
	}

	ui.Success(out, "Saved %d cards and %d dashboards to %s", len(cards), len(dashboards), path)
	return nil
}
