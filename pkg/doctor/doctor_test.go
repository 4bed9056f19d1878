package doctor_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/helm-commander/helmcommander/pkg/di"
	"github.com/helm-commander/helmcommander/pkg/doctor"
	"github.com/helm-commander/helmcommander/pkg/k8s"
	"github.com/helm-commander/helmcommander/pkg/release"
	"github.com/helm-commander/helmcommander/pkg/store"
)

func encodePayload(t *testing.T, name, namespace, chartName string, version int, status string, updatedAt time.Time) []byte {
	t.Helper()

	payload := map[string]interface{}{
		"name":      name,
		"namespace": namespace,
		"version":   version,
		"info": map[string]interface{}{
			"status":        status,
			"last_deployed": updatedAt.Format(time.RFC3339),
		},
		"chart": map[string]interface{}{
			"metadata": map[string]interface{}{
				"name":    chartName,
				"version": "1.0.0",
			},
		},
		"manifest": "",
	}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	_, err = writer.Write(raw)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return []byte(base64.StdEncoding.EncodeToString(buf.Bytes()))
}

func helmSecret(t *testing.T, objectName, namespace, releaseName, chartName string, version int, status string, createdAt time.Time) *corev1.Secret {
	t.Helper()

	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:              objectName,
			Namespace:         namespace,
			CreationTimestamp: metav1.NewTime(createdAt),
			Labels: map[string]string{
				"owner":   "helm",
				"name":    releaseName,
				"status":  status,
				"version": strconv.Itoa(version),
			},
		},
		Type: release.HelmSecretType,
		Data: map[string][]byte{"release": encodePayload(t, releaseName, namespace, chartName, version, status, createdAt)},
	}
}

func helmConfigMap(t *testing.T, objectName, namespace, releaseName, chartName string, version int, status string, createdAt time.Time) *corev1.ConfigMap {
	t.Helper()

	inner := encodePayload(t, releaseName, namespace, chartName, version, status, createdAt)

	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:              objectName,
			Namespace:         namespace,
			CreationTimestamp: metav1.NewTime(createdAt),
			Labels: map[string]string{
				"owner":   "helm",
				"name":    releaseName,
				"status":  status,
				"version": strconv.Itoa(version),
			},
		},
		Data: map[string]string{"release": base64.StdEncoding.EncodeToString(inner)},
	}
}

func newTestSetup(objects ...interface{}) (*k8s.Client, *store.Store) {
	clientset := fake.NewClientset()

	for _, obj := range objects {
		switch o := obj.(type) {
		case *corev1.Secret:
			_, _ = clientset.CoreV1().Secrets(o.Namespace).Create(context.Background(), o, metav1.CreateOptions{})
		case *corev1.ConfigMap:
			_, _ = clientset.CoreV1().ConfigMaps(o.Namespace).Create(context.Background(), o, metav1.CreateOptions{})
		}
	}

	client := &k8s.Client{Typed: clientset, Timeout: 5 * time.Second}

	return client, store.New(client)
}

func defaultThresholds() di.DoctorThresholds {
	return di.DoctorThresholds{Stuck: 15 * time.Minute, RevisionBloat: 10, OrphanRetention: 24 * time.Hour}
}

func TestRun_FlagsFailedRelease(t *testing.T) {
	t.Parallel()

	base := time.Now().Add(-time.Hour)

	client, s := newTestSetup(helmSecret(t, "broken.v1", "apps", "broken", "nginx", 1, "failed", base))

	findings, err := doctor.Run(context.Background(), client, s, "apps", defaultThresholds())
	require.NoError(t, err)

	require.True(t, hasFinding(findings, doctor.CategoryFailed, "broken"))
}

func TestRun_FlagsPendingStuckPastThreshold(t *testing.T) {
	t.Parallel()

	stuckSince := time.Now().Add(-time.Hour)

	client, s := newTestSetup(helmSecret(t, "stuck.v1", "apps", "stuck", "nginx", 1, "pending-upgrade", stuckSince))

	findings, err := doctor.Run(context.Background(), client, s, "apps", defaultThresholds())
	require.NoError(t, err)

	require.True(t, hasFinding(findings, doctor.CategoryPendingStuck, "stuck"))
}

func TestRun_DoesNotFlagRecentPending(t *testing.T) {
	t.Parallel()

	client, s := newTestSetup(helmSecret(t, "fresh.v1", "apps", "fresh", "nginx", 1, "pending-install", time.Now()))

	findings, err := doctor.Run(context.Background(), client, s, "apps", defaultThresholds())
	require.NoError(t, err)

	require.False(t, hasFinding(findings, doctor.CategoryPendingStuck, "fresh"))
}

func TestRun_FlagsNoDeployedRevision(t *testing.T) {
	t.Parallel()

	base := time.Now().Add(-time.Hour)

	client, s := newTestSetup(
		helmSecret(t, "orphan.v1", "apps", "orphan", "nginx", 1, "superseded", base),
	)

	findings, err := doctor.Run(context.Background(), client, s, "apps", defaultThresholds())
	require.NoError(t, err)

	require.True(t, hasFinding(findings, doctor.CategoryNoDeployedRevision, "orphan"))
}

func TestRun_FlagsDuplicateChart(t *testing.T) {
	t.Parallel()

	base := time.Now().Add(-time.Hour)

	client, s := newTestSetup(
		helmSecret(t, "a.v1", "apps", "a", "nginx", 1, "deployed", base),
		helmSecret(t, "b.v1", "apps", "b", "nginx", 1, "deployed", base),
	)

	findings, err := doctor.Run(context.Background(), client, s, "apps", defaultThresholds())
	require.NoError(t, err)

	require.True(t, hasCategory(findings, doctor.CategoryDuplicateChart))
}

func TestRun_FlagsOrphanedSecretPastRetention(t *testing.T) {
	t.Parallel()

	stale := time.Now().Add(-48 * time.Hour)

	client, s := newTestSetup(helmSecret(t, "gone.v1", "apps", "gone", "nginx", 1, "uninstalled", stale))

	findings, err := doctor.Run(context.Background(), client, s, "apps", defaultThresholds())
	require.NoError(t, err)

	require.True(t, hasFinding(findings, doctor.CategoryOrphanedSecret, "gone"))
}

func TestRun_DoesNotFlagRecentlyUninstalled(t *testing.T) {
	t.Parallel()

	client, s := newTestSetup(helmSecret(t, "gone.v1", "apps", "gone", "nginx", 1, "uninstalled", time.Now()))

	findings, err := doctor.Run(context.Background(), client, s, "apps", defaultThresholds())
	require.NoError(t, err)

	require.False(t, hasFinding(findings, doctor.CategoryOrphanedSecret, "gone"))
}

func TestRun_FlagsRevisionBloat(t *testing.T) {
	t.Parallel()

	base := time.Now().Add(-24 * time.Hour)

	var objects []interface{}

	for i := 1; i <= 12; i++ {
		status := "superseded"
		if i == 12 {
			status = "deployed"
		}

		objects = append(objects, helmSecret(t, "bloated.v"+strconv.Itoa(i), "apps", "bloated", "nginx", i, status, base.Add(time.Duration(i)*time.Minute)))
	}

	client, s := newTestSetup(objects...)

	findings, err := doctor.Run(context.Background(), client, s, "apps", defaultThresholds())
	require.NoError(t, err)

	require.True(t, hasFinding(findings, doctor.CategoryRevisionBloat, "bloated"))
}

func TestRun_FlagsMixedStorageDrivers(t *testing.T) {
	t.Parallel()

	base := time.Now().Add(-time.Hour)

	client, s := newTestSetup(
		helmSecret(t, "secret-backed.v1", "apps", "secret-backed", "nginx", 1, "deployed", base),
		helmConfigMap(t, "cm-backed.v1", "apps", "cm-backed", "redis", 1, "deployed", base),
	)

	findings, err := doctor.Run(context.Background(), client, s, "apps", defaultThresholds())
	require.NoError(t, err)

	require.True(t, hasCategory(findings, doctor.CategoryStorageMixed))
}

func TestRun_NoFindingsForHealthyReleases(t *testing.T) {
	t.Parallel()

	base := time.Now().Add(-time.Hour)

	client, s := newTestSetup(helmSecret(t, "healthy.v1", "apps", "healthy", "nginx", 1, "deployed", base))

	findings, err := doctor.Run(context.Background(), client, s, "apps", defaultThresholds())
	require.NoError(t, err)
	require.Empty(t, findings)
}

func hasFinding(findings []doctor.Finding, category doctor.Category, subject string) bool {
	for _, f := range findings {
		if f.Category == category && f.Subject == subject {
			return true
		}
	}

	return false
}

func hasCategory(findings []doctor.Finding, category doctor.Category) bool {
	for _, f := range findings {
		if f.Category == category {
			return true
		}
	}

	return false
}
