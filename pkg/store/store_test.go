package store_test

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

	"github.com/helm-commander/helmcommander/pkg/k8s"
	"github.com/helm-commander/helmcommander/pkg/release"
	"github.com/helm-commander/helmcommander/pkg/store"
)

func encodePayload(t *testing.T, name, namespace string, version int, status string) []byte {
	t.Helper()

	payload := map[string]interface{}{
		"name":      name,
		"namespace": namespace,
		"version":   version,
		"info": map[string]interface{}{
			"status":        status,
			"last_deployed": "2024-01-01T00:00:00Z",
		},
		"chart": map[string]interface{}{
			"metadata": map[string]interface{}{
				"name":    "nginx",
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

func helmSecret(t *testing.T, name, namespace, releaseName string, version int, status string, createdAt time.Time) *corev1.Secret {
	t.Helper()

	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:              name,
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
		Data: map[string][]byte{"release": encodePayload(t, releaseName, namespace, version, status)},
	}
}

func TestList_SelectsLatestRevision(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	clientset := fake.NewClientset(
		helmSecret(t, "foo.v1", "default", "foo", 1, "superseded", base),
		helmSecret(t, "foo.v2", "default", "foo", 2, "superseded", base.Add(time.Hour)),
		helmSecret(t, "foo.v3", "default", "foo", 3, "deployed", base.Add(2*time.Hour)),
	)

	client := &k8s.Client{Typed: clientset, Timeout: 5 * time.Second}
	s := store.New(client)

	releases, err := s.List(context.Background(), "default", store.Filters{})
	require.NoError(t, err)
	require.Len(t, releases, 1)
	require.Equal(t, 3, releases[0].Revision)
}

func TestHistory_ReturnsDescendingRevisions(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	clientset := fake.NewClientset(
		helmSecret(t, "foo.v1", "default", "foo", 1, "superseded", base),
		helmSecret(t, "foo.v2", "default", "foo", 2, "superseded", base.Add(time.Hour)),
		helmSecret(t, "foo.v3", "default", "foo", 3, "deployed", base.Add(2*time.Hour)),
	)

	client := &k8s.Client{Typed: clientset, Timeout: 5 * time.Second}
	s := store.New(client)

	revisions, err := s.History(context.Background(), "foo", "default")
	require.NoError(t, err)
	require.Len(t, revisions, 3)
	require.Equal(t, []int{3, 2, 1}, []int{revisions[0].Revision, revisions[1].Revision, revisions[2].Revision})
}

func TestList_FilterByRegexMatchesNameOrChart(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	clientset := fake.NewClientset(
		helmSecret(t, "foo.v1", "default", "foo", 1, "deployed", base),
		helmSecret(t, "bar.v1", "default", "bar", 1, "deployed", base),
	)

	client := &k8s.Client{Typed: clientset, Timeout: 5 * time.Second}
	s := store.New(client)

	releases, err := s.List(context.Background(), "default", store.Filters{Regex: "^foo$"})
	require.NoError(t, err)
	require.Len(t, releases, 1)
	require.Equal(t, "foo", releases[0].Name)
}

func TestList_OnlyProblematicIncludesSupersededWithoutDeployed(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	clientset := fake.NewClientset(
		helmSecret(t, "foo.v1", "default", "foo", 1, "superseded", base),
		helmSecret(t, "foo.v2", "default", "foo", 2, "superseded", base.Add(time.Hour)),
		helmSecret(t, "bar.v1", "default", "bar", 1, "deployed", base),
	)

	client := &k8s.Client{Typed: clientset, Timeout: 5 * time.Second}
	s := store.New(client)

	releases, err := s.List(context.Background(), "default", store.Filters{Only: "problematic"})
	require.NoError(t, err)
	require.Len(t, releases, 1)
	require.Equal(t, "foo", releases[0].Name)
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset()

	client := &k8s.Client{Typed: clientset, Timeout: 5 * time.Second}
	s := store.New(client)

	_, err := s.Get(context.Background(), "missing", "default")
	require.Error(t, err)
}

func TestList_CorruptPayloadDegradesToUnknownWithNote(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	corrupt := helmSecret(t, "broken.v1", "default", "broken", 1, "deployed", base)
	corrupt.Data["release"] = []byte("not base64 gzip json")

	clientset := fake.NewClientset(corrupt)

	client := &k8s.Client{Typed: clientset, Timeout: 5 * time.Second}
	s := store.New(client)

	releases, err := s.List(context.Background(), "default", store.Filters{})
	require.NoError(t, err)
	require.Len(t, releases, 1)
	require.Equal(t, release.StatusUnknown, releases[0].Status)
	require.NotEmpty(t, releases[0].Description)
}

func helmConfigMap(t *testing.T, name, namespace, releaseName string, version int, status string, createdAt time.Time) *corev1.ConfigMap {
	t.Helper()

	innerBase64 := encodePayload(t, releaseName, namespace, version, status)
	outerBase64 := base64.StdEncoding.EncodeToString(innerBase64)

	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:              name,
			Namespace:         namespace,
			CreationTimestamp: metav1.NewTime(createdAt),
			Labels: map[string]string{
				"owner":   "helm",
				"name":    releaseName,
				"status":  status,
				"version": strconv.Itoa(version),
			},
		},
		Data: map[string]string{"release": outerBase64},
	}
}

func TestList_MergesSecretsAndConfigMapsForSameRelease(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	clientset := fake.NewClientset(
		helmSecret(t, "foo.v1", "default", "foo", 1, "superseded", base),
		helmConfigMap(t, "foo.v2", "default", "foo", 2, "deployed", base.Add(time.Hour)),
	)

	client := &k8s.Client{Typed: clientset, Timeout: 5 * time.Second}
	s := store.New(client)

	releases, err := s.List(context.Background(), "default", store.Filters{})
	require.NoError(t, err)
	require.Len(t, releases, 1)
	require.Equal(t, 2, releases[0].Revision)
	require.Equal(t, release.StorageConfigMap, releases[0].StorageKind)

	history, err := s.History(context.Background(), "foo", "default")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, []int{2, 1}, []int{history[0].Revision, history[1].Revision})
}
