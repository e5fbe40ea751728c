package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/metasync-tools/metasync/internal/cli/ui"
)

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show an overview of the instance",
		Long: `Print the instance version, content counts, and a tree of dashboards
(with card counts), databases, and users.`,
		RunE: runInspect,
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	client, err := connect(ctx, cmd)
	if err != nil {
		return err
	}

	stats, err := client.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	kv := ui.NewKeyValue(out)
	kv.AddRow("Version", stats.Version)
	kv.AddRow("Cards", strconv.Itoa(stats.Cards))
	kv.AddRow("Dashboards", strconv.Itoa(stats.Dashboards))
	kv.AddRow("Databases", strconv.Itoa(stats.Databases))
	kv.Render()
	fmt.Fprintln(out)

	dashboards, err := client.ListDashboards(ctx)
	if err != nil {
		return err
	}
	var dashLines []string
	for _, d := range dashboards {
		detailed, err := client.GetDashboard(ctx, d.ID)
		if err != nil {
			return err
		}
		dashLines = append(dashLines, fmt.Sprintf("%s (%d cards)", d.Name, len(detailed.Dashcards)))
	}
	ui.Tree(out, "Dashboards", dashLines)

	databases, err := client.ListDatabases(ctx)
	if err != nil {
		return err
	}
	var dbLines []string
	for _, db := range databases {
		dbLines = append(dbLines, db.Name)
	}
	ui.Tree(out, "Databases", dbLines)

	users, err := client.ListUsers(ctx)
	if err != nil {
		return err
	}
	var userLines []string
	for _, u := range users {
		name := u.CommonName
		if name == "" {
			name = u.Email
		}
		userLines = append(userLines, fmt.Sprintf("%s (%s)", name, u.Email))
	}
	ui.Tree(out, "Users", userLines)

	return nil
}
