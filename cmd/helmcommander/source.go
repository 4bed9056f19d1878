package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helm-commander/helmcommander/pkg/di"
	"github.com/helm-commander/helmcommander/pkg/repoindex"
	"github.com/helm-commander/helmcommander/pkg/store"
)

func newSourceCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "source <release>",
		Short: "Find which cached repo entry a release's chart was installed from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			return newRuntime(flags).Invoke(func(injector di.Injector) error {
				client, err := di.ResolveClient(injector)
				if err != nil {
					return err
				}

				rel, err := store.New(client).Get(flags.Ctx(), name, flags.Namespace)
				if err != nil {
					return fmt.Errorf("get release %q: %w", name, err)
				}

				cfg, err := di.ResolveRepoCacheConfig(injector)
				if err != nil {
					return err
				}

				resolver := repoindex.New(repoindex.Config{CacheDir: cfg.CacheDir, ConfigDir: cfg.ConfigDir})

				matches, err := resolver.Resolve(repoindex.ChartRef{
					Name:       rel.ChartName,
					Version:    rel.ChartVersion,
					AppVersion: rel.AppVersion,
				})
				if err != nil {
					return fmt.Errorf("resolve source for release %q: %w", name, err)
				}

				return renderSource(cmd, flags.Output, matches)
			})
		},
	}
}

func renderSource(cmd *cobra.Command, output string, matches []repoindex.Match) error {
	w := cmd.OutOrStdout()

	if output != "table" {
		return renderStructured(w, output, matches)
	}

	table := newTable()
	table.AddRow("REPO", "URL", "VERSION", "APP VERSION")

	for _, m := range matches {
		table.AddRow(m.RepoName, m.RepoURL, m.Version, m.AppVersion)
	}

	_, err := fmt.Fprintln(w, table)

	return err
}
