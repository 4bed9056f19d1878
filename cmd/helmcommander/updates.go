package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helm-commander/helmcommander/pkg/di"
	"github.com/helm-commander/helmcommander/pkg/repoindex"
	"github.com/helm-commander/helmcommander/pkg/store"
)

func newUpdatesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "updates",
		Short: "Check every release in scope against the cached repo indexes for a newer chart version",
		Args:  cobra.NoArgs,
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

				cfg, err := di.ResolveRepoCacheConfig(injector)
				if err != nil {
					return err
				}

				resolver := repoindex.New(repoindex.Config{CacheDir: cfg.CacheDir, ConfigDir: cfg.ConfigDir})

				updates := make([]repoindex.Update, 0, len(releases))

				for _, rel := range releases {
					update, checkErr := resolver.CheckUpdate(rel)
					if checkErr != nil {
						return fmt.Errorf("check update for release %q: %w", rel.Name, checkErr)
					}

					updates = append(updates, update)
				}

				return renderUpdates(cmd, flags.Output, updates)
			})
		},
	}
}

func renderUpdates(cmd *cobra.Command, output string, updates []repoindex.Update) error {
	w := cmd.OutOrStdout()

	if output != "table" {
		return renderStructured(w, output, updates)
	}

	table := newTable()
	table.AddRow("CHART", "CURRENT", "LATEST", "TYPE", "UPGRADE AVAILABLE", "REPO")

	for _, u := range updates {
		table.AddRow(u.ChartName, u.CurrentVersion, u.LatestVersion, u.UpdateType, u.IsUpgradeAvailable, u.Repo)
	}

	_, err := fmt.Fprintln(w, table)

	return err
}
