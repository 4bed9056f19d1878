package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helm-commander/helmcommander/pkg/di"
)

// NewRootCmd builds the helmcommander root command and every subcommand,
// each wired to a fresh per-invocation DI runtime built from the resolved
// shared flags.
func NewRootCmd(version, commit, date string) *cobra.Command {
	flags := &rootFlags{}
	v := newConfigViper()

	root := &cobra.Command{
		Use:   "helmcommander",
		Short: "Read-only diagnostics for Helm releases on a Kubernetes cluster",
		Long: "Helm Commander inspects Helm v3 releases directly from the cluster's\n" +
			"object store (Secrets and ConfigMaps). It never shells out to helm and\n" +
			"never mutates cluster state.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			resolveRootFlags(v, flags)

			if err := validateOutputFormat(flags.Output); err != nil {
				return err
			}

			flags.arm()

			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			flags.disarm()

			return nil
		},
	}

	root.Version = fmt.Sprintf("%s (built on %s from %s)", version, date, commit)

	bindRootFlags(root, v, flags)

	root.AddCommand(
		newListCmd(flags),
		newInfoCmd(flags),
		newHistoryCmd(flags),
		newDriftCmd(flags),
		newSourceCmd(flags),
		newUpdatesCmd(flags),
		newDoctorCmd(flags),
	)

	return root
}

func validateOutputFormat(output string) error {
	switch output {
	case "table", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid --output %q: must be one of table, json, yaml", output)
	}
}

// newRuntime builds a fresh per-invocation DI runtime from the resolved
// shared flags; every subcommand calls this exactly once in its RunE.
func newRuntime(flags *rootFlags) *di.Runtime {
	return di.NewRuntime(di.Options{Context: flags.Context})
}
