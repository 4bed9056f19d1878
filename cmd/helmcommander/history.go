package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helm-commander/helmcommander/pkg/di"
	"github.com/helm-commander/helmcommander/pkg/release"
	"github.com/helm-commander/helmcommander/pkg/store"
)

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history <release>",
		Short: "Show every stored revision of a release, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			return newRuntime(flags).Invoke(func(injector di.Injector) error {
				client, err := di.ResolveClient(injector)
				if err != nil {
					return err
				}

				revisions, err := store.New(client).History(flags.Ctx(), name, flags.Namespace)
				if err != nil {
					return fmt.Errorf("get history for release %q: %w", name, err)
				}

				return renderHistory(cmd, flags.Output, revisions)
			})
		},
	}
}

func renderHistory(cmd *cobra.Command, output string, revisions []release.HelmRelease) error {
	w := cmd.OutOrStdout()

	if output != "table" {
		return renderStructured(w, output, revisions)
	}

	table := newTable()
	table.AddRow("REVISION", "STATUS", "CHART", "APP VERSION", "UPDATED", "DESCRIPTION")

	for _, r := range revisions {
		table.AddRow(r.Revision, string(r.Status), r.ChartName+"-"+r.ChartVersion, r.AppVersion, r.UpdatedAt, r.Description)
	}

	_, err := fmt.Fprintln(w, table)

	return err
}
