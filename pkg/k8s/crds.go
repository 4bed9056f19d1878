package k8s

import (
	"context"
	"fmt"
	"sync"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/helm-commander/helmcommander/pkg/herrors"
)

// crdCache memoizes CustomResourceDefinition existence checks for the
// lifetime of a Client, since the Owner Detector probes the same handful of
// GitOps CRDs (Flux's HelmRelease, k3s's HelmChart) once per release
// rather than once per invocation.
type crdCache struct {
	mu    sync.Mutex
	known map[string]bool
}

// CRDExists reports whether a CustomResourceDefinition named crdName is
// registered in the cluster. The Established condition is not checked: a
// CRD that exists but isn't yet fully established still indicates the
// controller that owns it is installed, which is all ownership detection
// needs to know.
func (c *Client) CRDExists(ctx context.Context, crdName string) (bool, error) {
	c.crdCacheOnce.Do(func() {
		c.crdCacheVal = &crdCache{known: make(map[string]bool)}
	})

	cache := c.crdCacheVal

	cache.mu.Lock()
	exists, cached := cache.known[crdName]
	cache.mu.Unlock()

	if cached {
		return exists, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	_, err := c.APIExtensions.ApiextensionsV1().CustomResourceDefinitions().Get(ctx, crdName, metav1.GetOptions{})

	switch {
	case err == nil:
		exists = true
	case Classify(err) == herrors.NotFound:
		exists = false
	default:
		return false, herrors.Wrap(Classify(err), crdName, fmt.Errorf("get customresourcedefinition: %w", err))
	}

	cache.mu.Lock()
	cache.known[crdName] = exists
	cache.mu.Unlock()

	return exists, nil
}

// ListCRDs returns every CustomResourceDefinition registered in the
// cluster.
func (c *Client) ListCRDs(ctx context.Context) ([]apiextensionsv1.CustomResourceDefinition, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	list, err := c.APIExtensions.ApiextensionsV1().CustomResourceDefinitions().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, herrors.Wrap(Classify(err), "customresourcedefinitions", fmt.Errorf("list customresourcedefinitions: %w", err))
	}

	return list.Items, nil
}
