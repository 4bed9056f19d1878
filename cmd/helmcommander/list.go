package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helm-commander/helmcommander/pkg/di"
	"github.com/helm-commander/helmcommander/pkg/release"
	"github.com/helm-commander/helmcommander/pkg/store"
)

func newListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the latest revision of every release in scope",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return newRuntime(flags).Invoke(func(injector di.Injector) error {
				client, err := di.ResolveClient(injector)
				if err != nil {
					return err
				}

				releases, err := store.New(client).List(flags.Ctx(), flags.Namespace, store.Filters{
					Regex: flags.Filter,
					Only:  flags.Only,
				})
				if err != nil {
					return fmt.Errorf("list releases: %w", err)
				}

				return renderReleaseList(cmd, flags.Output, releases)
			})
		},
	}
}

func renderReleaseList(cmd *cobra.Command, output string, releases []release.HelmRelease) error {
	w := cmd.OutOrStdout()

	if output != "table" {
		return renderStructured(w, output, releases)
	}

	table := newTable()
	table.AddRow("NAMESPACE", "NAME", "REVISION", "STATUS", "CHART", "APP VERSION")

	for _, r := range releases {
		table.AddRow(r.Namespace, r.Name, r.Revision, string(r.Status), r.ChartName+"-"+r.ChartVersion, r.AppVersion)
	}

	_, err := fmt.Fprintln(w, table)

	return err
}
