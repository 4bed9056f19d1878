package release_test

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/helm-commander/helmcommander/pkg/herrors"
	"github.com/helm-commander/helmcommander/pkg/release"
)

func gzipBase64(t *testing.T, payload map[string]interface{}) []byte {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	_, err = writer.Write(raw)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())

	return []byte(encoded)
}

func samplePayload() map[string]interface{} {
	return map[string]interface{}{
		"name":      "nginx",
		"namespace": "web",
		"version":   3,
		"info": map[string]interface{}{
			"status":        "deployed",
			"last_deployed": "2024-01-01T00:00:00Z",
		},
		"chart": map[string]interface{}{
			"metadata": map[string]interface{}{
				"name":       "nginx",
				"version":    "13.2.0",
				"appVersion": "1.25.0",
			},
			"values": map[string]interface{}{
				"replicaCount": float64(1),
				"service":      map[string]interface{}{"type": "ClusterIP"},
			},
		},
		"config": map[string]interface{}{
			"replicaCount": float64(3),
		},
		"manifest": "---\nkind: Service\napiVersion: v1\nmetadata:\n  name: nginx\n",
	}
}

func TestDecodeSecret_ScenarioFromSpec(t *testing.T) {
	t.Parallel()

	encoded := gzipBase64(t, samplePayload())

	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "sh.helm.release.v1.nginx.v3",
			Namespace: "web",
			Labels:    map[string]string{"owner": "helm", "name": "nginx", "version": "3", "status": "deployed"},
		},
		Type: release.HelmSecretType,
		Data: map[string][]byte{"release": encoded},
	}

	rel, err := release.DecodeSecret(secret)
	require.NoError(t, err)
	require.Equal(t, "nginx", rel.Name)
	require.Equal(t, "web", rel.Namespace)
	require.Equal(t, 3, rel.Revision)
	require.Equal(t, release.StatusDeployed, rel.Status)
	require.Equal(t, "13.2.0", rel.ChartVersion)
	require.Equal(t, release.StorageSecret, rel.StorageKind)
	require.InEpsilon(t, float64(3), rel.ValuesComputed["replicaCount"], 0)
	require.Equal(t, float64(3), rel.ValuesUser["replicaCount"])
	serviceValues, ok := rel.ValuesComputed["service"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "ClusterIP", serviceValues["type"])
}

func TestDecodeSecret_DoubleBase64Layer(t *testing.T) {
	t.Parallel()

	singleEncoded := gzipBase64(t, samplePayload())
	doubleEncoded := []byte(base64.StdEncoding.EncodeToString(singleEncoded))

	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:   "sh.helm.release.v1.nginx.v3",
			Labels: map[string]string{"owner": "helm"},
		},
		Type: release.HelmSecretType,
		Data: map[string][]byte{"release": doubleEncoded},
	}

	rel, err := release.DecodeSecret(secret)
	require.NoError(t, err)
	require.Equal(t, "nginx", rel.Name)
}

func TestDecodeSecret_UnknownStorage(t *testing.T) {
	t.Parallel()

	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "some-tls-secret"},
	}

	_, err := release.DecodeSecret(secret)
	require.True(t, herrors.Is(err, herrors.UnknownStorage))
}

func TestDecodeSecret_CorruptPayload(t *testing.T) {
	t.Parallel()

	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:   "broken",
			Labels: map[string]string{"owner": "helm"},
		},
		Type: release.HelmSecretType,
		Data: map[string][]byte{"release": []byte("not-valid-base64!!!")},
	}

	_, err := release.DecodeSecret(secret)
	require.True(t, herrors.Is(err, herrors.CorruptPayload))
}

func TestDecodeConfigMap_Pipeline(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(samplePayload())
	require.NoError(t, err)

	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	_, err = writer.Write(raw)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	innerBase64 := base64.StdEncoding.EncodeToString(buf.Bytes())
	outerBase64 := base64.StdEncoding.EncodeToString([]byte(innerBase64))

	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:   "sh.helm.release.v1.nginx.v3",
			Labels: map[string]string{"owner": "helm"},
		},
		Data: map[string]string{"release": outerBase64},
	}

	rel, err := release.DecodeConfigMap(cm)
	require.NoError(t, err)
	require.Equal(t, "nginx", rel.Name)
	require.Equal(t, release.StorageConfigMap, rel.StorageKind)
}

func TestQuickMetadata(t *testing.T) {
	t.Parallel()

	labels := map[string]string{"name": "nginx", "status": "Deployed", "version": "5"}

	meta := release.QuickMetadata(labels, "web")
	require.Equal(t, "nginx", meta.Name)
	require.Equal(t, "web", meta.Namespace)
	require.Equal(t, release.StatusDeployed, meta.Status)
	require.Equal(t, 5, meta.Revision)
}
