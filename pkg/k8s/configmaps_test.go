package k8s_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/helm-commander/helmcommander/pkg/k8s"
)

func TestListConfigMaps_FiltersByLabelSelector(t *testing.T) {
	t.Parallel()

	helmConfigMap := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "sh.helm.release.v1.legacyapp.v3",
			Namespace: "default",
			Labels:    map[string]string{"owner": "helm", "name": "legacyapp"},
		},
	}
	unrelated := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "app-config", Namespace: "default"},
	}

	clientset := fake.NewClientset(helmConfigMap, unrelated)

	client := &k8s.Client{Typed: clientset, Timeout: 5 * time.Second}

	configMaps, err := client.ListConfigMaps(context.Background(), "default", k8s.HelmConfigMapLabelSelector)
	require.NoError(t, err)
	require.Len(t, configMaps, 1)
	require.Equal(t, "sh.helm.release.v1.legacyapp.v3", configMaps[0].Name)
}

func TestListConfigMaps_NoMatches(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset()

	client := &k8s.Client{Typed: clientset, Timeout: 5 * time.Second}

	configMaps, err := client.ListConfigMaps(context.Background(), "default", k8s.HelmConfigMapLabelSelector)
	require.NoError(t, err)
	require.Empty(t, configMaps)
}
