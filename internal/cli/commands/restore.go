package commands

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/metasync-tools/metasync/internal/archive"
	"github.com/metasync-tools/metasync/internal/cli/ui"
	"github.com/metasync-tools/metasync/internal/metabase"
	"github.com/metasync-tools/metasync/internal/restore"
)

var (
	restoreFileFlag string
	restoreDBFlag   int64
)

// NewRestoreCommand creates the restore command
func NewRestoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore an archive onto the instance",
		Long: `Restore the cards and dashboards in an archive onto the instance.

Cards are restored in dependency order and matched against existing content
by name: an existing card or dashboard with the same name is updated, never
duplicated, so running the same restore twice converges instead of piling
up copies. Every restored card is pointed at the target database chosen
with --db (or interactively when the instance has several).`,
		Example: `  # Restore into database 2
  metasync restore -f nightly.zip --db 2

  # Pick the target database interactively
  metasync restore -f nightly.zip`,
		RunE: runRestore,
	}

	cmd.Flags().StringVarP(&restoreFileFlag, "file", "f", "", "Archive file to restore (required)")
	cmd.Flags().Int64Var(&restoreDBFlag, "db", 0, "Target database id for restored cards")
	cmd.MarkFlagRequired("file")

	return cmd
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := archive.Read(restoreFileFlag)
	if err != nil {
		ui.WriteError(cmd.ErrOrStderr(), ui.ErrorOptions{
			Context: "invalid archive",
			Problem: err.Error(),
			Suggestions: []string{
				"Check that the file was produced by metasync backup",
			},
		})
		return err
	}
	ui.Info(out, "Archive %s: %d cards, %d dashboards (taken %s)",
		restoreFileFlag, len(a.Cards), len(a.Dashboards), a.Manifest.CreatedAt.Format("2006-01-02 15:04"))

	client, err := connect(ctx, cmd)
	if err != nil {
		return err
	}

	dbID, err := pickDatabase(ctx, cmd, client)
	if err != nil {
		return err
	}

	orch := restore.NewOrchestrator(client, restore.Options{
		DatabaseID: dbID,
		Logger:     newLogger(),
		Progress: func(kind restore.Kind, name string, action restore.Action) {
			ui.Info(out, "%s %s %q", action, kind, name)
		},
	})
	report, err := orch.Run(ctx, a)
	if err != nil {
		ui.Fail(cmd.ErrOrStderr(), "restore aborted: %v", err)
		return err
	}

	for _, amb := range report.Ambiguous {
		ui.Warn(out, "several existing %ss named %q; updated id %d", amb.Kind, amb.Name, amb.TargetID)
	}
	for _, failure := range report.DashboardFailures {
		ui.Fail(cmd.ErrOrStderr(), "dashboard %q (id %d): %v", failure.Name, failure.ID, failure.Err)
	}
	if report.PlacementsSkipped > 0 {
		ui.Warn(out, "%d dashboard placements skipped (card not in archive)", report.PlacementsSkipped)
	}

	if report.Failed() {
		ui.Warn(out, "Restore finished with failures: %s", report.Summary())
		return fmt.Errorf("%d dashboards failed to restore", len(report.DashboardFailures))
	}
	ui.Success(out, "Restore complete: %s", report.Summary())
	return nil
}

// pickDatabase resolves the target database: the --db flag wins, a single
// configured database is used as-is, and several prompt for a choice.
func pickDatabase(ctx context.Context, cmd *cobra.Command, client *metabase.Client) (int64, error) {
	if restoreDBFlag != 0 {
		return restoreDBFlag, nil
	}

	dbs, err := client.ListDatabases(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list databases: %w", err)
	}
	switch len(dbs) {
	case 0:
		return 0, fmt.Errorf("the instance has no databases to restore into (configure one or pass --db)")
	case 1:
		ui.Info(cmd.OutOrStdout(), "Using database %q (id %d)", dbs[0].Name, dbs[0].ID)
		return dbs[0].ID, nil
	}

	options := make([]string, len(dbs))
	for i, db := range dbs {
		options[i] = fmt.Sprintf("%s (id %d)", db.Name, db.ID)
	}
	var selected int
	prompt := &survey.Select{
		Message: "Select the target database for restored cards:",
		Options: options,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return 0, err
	}
	return dbs[selected].ID, nil
}
