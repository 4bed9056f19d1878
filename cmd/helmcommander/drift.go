package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helm-commander/helmcommander/pkg/di"
	"github.com/helm-commander/helmcommander/pkg/drift"
	"github.com/helm-commander/helmcommander/pkg/store"
)

func newDriftCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "drift <release>",
		Short: "Compare a release's stored manifest against the live cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			return newRuntime(flags).Invoke(func(injector di.Injector) error {
				client, err := di.ResolveClient(injector)
				if err != nil {
					return err
				}

				ctx := flags.Ctx()

				rel, err := store.New(client).Get(ctx, name, flags.Namespace)
				if err != nil {
					return fmt.Errorf("get release %q: %w", name, err)
				}

				entries, err := drift.Diff(ctx, client, rel)
				if err != nil {
					return fmt.Errorf("diff release %q: %w", name, err)
				}

				if renderErr := renderDrift(cmd, flags.Output, entries); renderErr != nil {
					return renderErr
				}

				if hasModifications(entries) {
					return errPartialResults
				}

				return nil
			})
		},
	}
}

func hasModifications(entries []drift.Entry) bool {
	for _, e := range entries {
		if e.Verdict != drift.VerdictUnchanged {
			return true
		}
	}

	return false
}

func renderDrift(cmd *cobra.Command, output string, entries []drift.Entry) error {
	w := cmd.OutOrStdout()

	if output != "table" {
		return renderStructured(w, output, entries)
	}

	table := newTable()
	table.AddRow("NAMESPACE", "KIND", "NAME", "VERDICT", "CHANGES", "NOTE")

	for _, e := range entries {
		table.AddRow(e.Namespace, e.Kind, e.Name, string(e.Verdict), len(e.Changes), e.Note)
	}

	_, err := fmt.Fprintln(w, table)

	return err
}
