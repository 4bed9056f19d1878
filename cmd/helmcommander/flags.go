package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// defaultInvocationTimeout is the global deadline applied to the whole
// invocation when --timeout is not given.
const defaultInvocationTimeout = 60 * time.Second

// rootFlags carries the shared flags every subcommand reads, resolved once
// per invocation by the root command's PersistentPreRunE. deadline/cancel
// hold the invocation-wide context derived from Timeout; every subcommand
// reads through Ctx() rather than calling context.Background() directly, so
// the deadline applies to every API call it makes.
type rootFlags struct {
	Namespace string
	Context   string
	Output    string
	Filter    string
	Only      string
	Timeout   time.Duration

	deadline context.Context
	cancel   context.CancelFunc
}

const (
	flagNamespace = "namespace"
	flagContext   = "context"
	flagOutput    = "output"
	flagFilter    = "filter"
	flagOnly      = "only"
	flagTimeout   = "timeout"
)

// Ctx returns the invocation-wide deadline context. Falls back to
// context.Background() if the root command's PersistentPreRunE never ran
// (e.g. a subcommand constructed directly in a test).
func (f *rootFlags) Ctx() context.Context {
	if f.deadline != nil {
		return f.deadline
	}

	return context.Background()
}

// arm starts the invocation-wide deadline. Must be paired with disarm.
func (f *rootFlags) arm() {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = defaultInvocationTimeout
	}

	f.deadline, f.cancel = context.WithTimeout(context.Background(), timeout)
}

// disarm releases the deadline context's resources once the invocation is
// done with it.
func (f *rootFlags) disarm() {
	if f.cancel != nil {
		f.cancel()
	}
}

// newConfigViper builds the viper instance backing the shared flags'
// flag > env var > default precedence, grounded on the same layered
// resolution ksail's registryresolver package uses for --registry.
// Environment variables use an HELMCOMMANDER_ prefix, e.g.
// HELMCOMMANDER_NAMESPACE.
func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("HELMCOMMANDER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

func bindRootFlags(cmd *cobra.Command, v *viper.Viper, flags *rootFlags) {
	cmd.PersistentFlags().
		StringVarP(&flags.Namespace, flagNamespace, "n", "", "namespace to scope to (empty scans cluster-wide)")
	cmd.PersistentFlags().StringVar(&flags.Context, flagContext, "", "kubeconfig context to use")
	cmd.PersistentFlags().
		StringVarP(&flags.Output, flagOutput, "o", "table", "output format: table, json, or yaml")
	cmd.PersistentFlags().
		StringVar(&flags.Filter, flagFilter, "", "regex filter matched against release name or chart name")
	cmd.PersistentFlags().StringVar(&flags.Only, flagOnly, "", "restrict results to a status bucket (problematic)")
	cmd.PersistentFlags().
		DurationVar(&flags.Timeout, flagTimeout, defaultInvocationTimeout, "deadline for the whole invocation")

	for _, name := range []string{flagNamespace, flagContext, flagOutput, flagFilter, flagOnly, flagTimeout} {
		_ = v.BindPFlag(name, cmd.PersistentFlags().Lookup(name))
	}
}

// resolveRootFlags overwrites flags with viper's resolved values: an
// explicitly passed flag always wins, otherwise the bound environment
// variable, otherwise the flag's own default.
func resolveRootFlags(v *viper.Viper, flags *rootFlags) {
	flags.Namespace = v.GetString(flagNamespace)
	flags.Context = v.GetString(flagContext)
	flags.Output = v.GetString(flagOutput)
	flags.Filter = v.GetString(flagFilter)
	flags.Only = v.GetString(flagOnly)
	flags.Timeout = v.GetDuration(flagTimeout)
}
