package k8s

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/helm-commander/helmcommander/pkg/herrors"
)

// HelmSecretLabelSelector selects the Secrets Helm v3's default storage
// backend uses to persist release data.
const HelmSecretLabelSelector = "owner=helm"

// ListSecrets returns every Secret matching labelSelector in namespace. An
// empty namespace lists across all namespaces the caller's credentials can
// see. The call is bounded by c.Timeout.
func (c *Client) ListSecrets(ctx context.Context, namespace, labelSelector string) ([]corev1.Secret, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	list, err := c.Typed.CoreV1().Secrets(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
	if err != nil {
		return nil, herrors.Wrap(Classify(err), "secrets:"+namespace, fmt.Errorf("list secrets: %w", err))
	}

	return list.Items, nil
}

// ListNamespaces returns the names of every namespace visible to the
// caller's credentials.
func (c *Client) ListNamespaces(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	list, err := c.Typed.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, herrors.Wrap(Classify(err), "namespaces", fmt.Errorf("list namespaces: %w", err))
	}

	names := make([]string, 0, len(list.Items))
	for _, ns := range list.Items {
		names = append(names, ns.Name)
	}

	return names, nil
}
