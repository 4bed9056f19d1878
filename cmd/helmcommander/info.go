package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helm-commander/helmcommander/pkg/di"
	"github.com/helm-commander/helmcommander/pkg/owner"
	"github.com/helm-commander/helmcommander/pkg/release"
	"github.com/helm-commander/helmcommander/pkg/store"
)

// infoResult is info's json/yaml shape: the release's latest revision plus
// the Owner Detector's verdict for it.
type infoResult struct {
	Release release.HelmRelease
	Owner   owner.Verdict
}

func newInfoCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info <release>",
		Short: "Show the latest revision of a release plus who owns it",
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

				verdict := owner.Detect(flags.Ctx(), client, rel)

				return renderInfo(cmd, flags.Output, infoResult{Release: rel, Owner: verdict})
			})
		},
	}
}

func renderInfo(cmd *cobra.Command, output string, result infoResult) error {
	w := cmd.OutOrStdout()

	if output != "table" {
		return renderStructured(w, output, result)
	}

	table := newTable()
	table.AddRow("NAME", result.Release.Name)
	table.AddRow("NAMESPACE", result.Release.Namespace)
	table.AddRow("REVISION", result.Release.Revision)
	table.AddRow("STATUS", string(result.Release.Status))
	table.AddRow("CHART", result.Release.ChartName+"-"+result.Release.ChartVersion)
	table.AddRow("APP VERSION", result.Release.AppVersion)
	table.AddRow("UPDATED", result.Release.UpdatedAt)
	table.AddRow("STORAGE", string(result.Release.StorageKind))
	table.AddRow("DESCRIPTION", result.Release.Description)
	table.AddRow("OWNER", string(result.Owner.Controller))
	table.AddRow("OWNER CONFIDENCE", string(result.Owner.Confidence))
	table.AddRow("OWNER DETAIL", result.Owner.Detail)

	_, err := fmt.Fprintln(w, table)

	return err
}
