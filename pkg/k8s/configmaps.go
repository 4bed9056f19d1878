package k8s

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/helm-commander/helmcommander/pkg/herrors"
)

// HelmConfigMapLabelSelector selects the ConfigMaps Helm v3's legacy
// storage backend uses to persist release data. Clusters that predate the
// Secret backend, or that were explicitly configured to keep using
// ConfigMaps, still carry release history here.
const HelmConfigMapLabelSelector = "owner=helm"

// ListConfigMaps returns every ConfigMap matching labelSelector in
// namespace. An empty namespace lists across all namespaces the caller's
// credentials can see. The call is bounded by c.Timeout.
func (c *Client) ListConfigMaps(ctx context.Context, namespace, labelSelector string) ([]corev1.ConfigMap, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	list, err := c.Typed.CoreV1().ConfigMaps(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
	if err != nil {
		return nil, herrors.Wrap(Classify(err), "configmaps:"+namespace, fmt.Errorf("list configmaps: %w", err))
	}

	return list.Items, nil
}
