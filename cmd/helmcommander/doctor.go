package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helm-commander/helmcommander/pkg/di"
	"github.com/helm-commander/helmcommander/pkg/doctor"
	"github.com/helm-commander/helmcommander/pkg/store"
)

func newDoctorCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run the fixed set of diagnostic checks over every release in scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return newRuntime(flags).Invoke(func(injector di.Injector) error {
				client, err := di.ResolveClient(injector)
				if err != nil {
					return err
				}

				thresholds, err := di.ResolveDoctorThresholds(injector)
				if err != nil {
					return err
				}

				findings, err := doctor.Run(flags.Ctx(), client, store.New(client), flags.Namespace, thresholds)
				if err != nil {
					return fmt.Errorf("run doctor: %w", err)
				}

				if renderErr := renderDoctor(cmd, flags.Output, findings); renderErr != nil {
					return renderErr
				}

				if len(findings) > 0 {
					return errPartialResults
				}

				return nil
			})
		},
	}
}

func renderDoctor(cmd *cobra.Command, output string, findings []doctor.Finding) error {
	w := cmd.OutOrStdout()

	if output != "table" {
		return renderStructured(w, output, findings)
	}

	table := newTable()
	table.AddRow("SEVERITY", "CATEGORY", "NAMESPACE", "SUBJECT", "MESSAGE")

	for _, f := range findings {
		table.AddRow(string(f.Severity), string(f.Category), f.Namespace, f.Subject, f.Message)
	}

	_, err := fmt.Fprintln(w, table)

	return err
}
