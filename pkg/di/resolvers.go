package di

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/helm-commander/helmcommander/pkg/k8s"
)

// Dependency resolvers.

// ResolveClient retrieves the cluster client dependency from the injector
// with consistent error handling.
func ResolveClient(injector Injector) (*k8s.Client, error) {
	client, err := do.Invoke[*k8s.Client](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve cluster client dependency: %w", err)
	}

	return client, nil
}

// ResolveDoctorThresholds retrieves the Doctor Engine's configured
// thresholds from the injector with consistent error handling.
func ResolveDoctorThresholds(injector Injector) (DoctorThresholds, error) {
	thresholds, err := do.Invoke[DoctorThresholds](injector)
	if err != nil {
		return DoctorThresholds{}, fmt.Errorf("resolve doctor thresholds dependency: %w", err)
	}

	return thresholds, nil
}

// ResolveRepoCacheConfig retrieves the Repo Resolver's cache directory
// configuration from the injector with consistent error handling.
func ResolveRepoCacheConfig(injector Injector) (RepoCacheConfig, error) {
	cfg, err := do.Invoke[RepoCacheConfig](injector)
	if err != nil {
		return RepoCacheConfig{}, fmt.Errorf("resolve repo cache config dependency: %w", err)
	}

	return cfg, nil
}

// Handler decorators.

// WithClient decorates a handler to automatically resolve the cluster
// client dependency. This higher-order function simplifies command
// handlers that need cluster access.
func WithClient(
	handler func(cmd *cobra.Command, injector Injector, client *k8s.Client) error,
) func(cmd *cobra.Command, injector Injector) error {
	return func(cmd *cobra.Command, injector Injector) error {
		client, err := ResolveClient(injector)
		if err != nil {
			return err
		}

		return handler(cmd, injector, client)
	}
}
