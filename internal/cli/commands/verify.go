package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metasync-tools/metasync/internal/cli/ui"
)

// NewVerifyCommand creates the verify command
func NewVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every dashboard's cards exist on the instance",
		Long: `Walk every dashboard and confirm each placement references a card that
exists on the instance. Empty dashboards and broken linkages are reported,
and the command exits non-zero when anything is wrong. Useful after a
restore or as a health check.`,
		RunE: runVerify,
	}
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	client, err := connect(ctx, cmd)
	if err != nil {
		return err
	}

	ui.Info(out, "Verifying Metabase integrity...")

	cards, err := client.ListCards(ctx)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		ui.Fail(cmd.ErrOrStderr(), "No cards found on the instance.")
		return fmt.Errorf("no cards found")
	}

	dashboards, err := client.ListDashboards(ctx)
	if err != nil {
		return err
	}
	if len(dashboards) == 0 {
		ui.Fail(cmd.ErrOrStderr(), "No dashboards found on the instance.")
		return fmt.Errorf("no dashboards found")
	}
	ui.Info(out, "Found %d cards and %d dashboards.", len(cards), len(dashboards))

	validCards := make(map[int64]bool, len(cards))
	for _, c := range cards {
		validCards[c.ID] = true
	}

	ok := true
	for _, d := range dashboards {
		detailed, err := client.GetDashboard(ctx, d.ID)
		if err != nil {
			ui.Warn(out, "Could not get details for dashboard %q: %v", d.Name, err)
			ok = false
			continue
		}
		if len(detailed.Dashcards) == 0 {
			ui.Warn(out, "Dashboard %q is empty (no cards).", d.Name)
			ok = false
			continue
		}

		var missing []int64
		for _, id := range detailed.CardIDs() {
			if !validCards[id] {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			ui.Fail(cmd.ErrOrStderr(), "Dashboard %q: %d missing cards (ids: %v)", d.Name, len(missing), missing)
			ok = false
		} else {
			ui.Success(out, "Dashboard %q: %d cards OK", d.Name, len(detailed.Dashcards))
		}
	}

	if !ok {
		ui.Fail(cmd.ErrOrStderr(), "Verification failed: integrity issues found.")
		return fmt.Errorf("integrity issues found")
	}
	ui.Success(out, "Verification complete: all checks passed.")
	return nil
}
