package k8s

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/helm-commander/helmcommander/pkg/herrors"
)

// GetResource fetches a single resource identified by apiVersion, kind,
// namespace and name, returning it as a decoded map tree. namespace is
// ignored for cluster-scoped kinds. The apiVersion/kind pair is resolved to
// a REST mapping via the client's RESTMapper, so callers never need to know
// a resource's plural form up front.
func (c *Client) GetResource(ctx context.Context, apiVersion, kind, namespace, name string) (map[string]interface{}, error) {
	gvk, err := parseGroupVersionKind(apiVersion, kind)
	if err != nil {
		return nil, herrors.Wrap(herrors.InvariantViolation, name, err)
	}

	mapping, err := c.RESTMapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return nil, herrors.Wrap(herrors.NotFound, apiVersion+"/"+kind, fmt.Errorf("resolve resource mapping: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	var resourceInterface = c.Dynamic.Resource(mapping.Resource)

	var obj *unstructured.Unstructured
	if mapping.Scope.Name() == "namespace" {
		obj, err = resourceInterface.Namespace(namespace).Get(ctx, name, metav1.GetOptions{})
	} else {
		obj, err = resourceInterface.Get(ctx, name, metav1.GetOptions{})
	}

	if err != nil {
		return nil, herrors.Wrap(Classify(err), namespace+"/"+name, fmt.Errorf("get resource: %w", err))
	}

	return obj.Object, nil
}

// ResourceExists reports whether the named resource exists, treating
// NOT_FOUND as a plain false rather than an error. Any other failure
// (access denied, unreachable cluster) is still returned as an error since
// it does not tell the caller anything about existence.
func (c *Client) ResourceExists(ctx context.Context, apiVersion, kind, namespace, name string) (bool, error) {
	_, err := c.GetResource(ctx, apiVersion, kind, namespace, name)
	if err == nil {
		return true, nil
	}

	if herrors.Is(err, herrors.NotFound) {
		return false, nil
	}

	return false, err
}

// ListResources lists every resource of the given apiVersion/kind in
// namespace (ignored for cluster-scoped kinds) matching labelSelector,
// returning each as a decoded map tree. Used by the Drift Engine's
// best-effort extra-live detection, which needs every resource a release
// should own rather than one looked up by name.
func (c *Client) ListResources(ctx context.Context, apiVersion, kind, namespace, labelSelector string) ([]map[string]interface{}, error) {
	gvk, err := parseGroupVersionKind(apiVersion, kind)
	if err != nil {
		return nil, herrors.Wrap(herrors.InvariantViolation, kind, err)
	}

	mapping, err := c.RESTMapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return nil, herrors.Wrap(herrors.NotFound, apiVersion+"/"+kind, fmt.Errorf("resolve resource mapping: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	var resourceInterface = c.Dynamic.Resource(mapping.Resource)

	opts := metav1.ListOptions{LabelSelector: labelSelector}

	var list *unstructured.UnstructuredList
	if mapping.Scope.Name() == "namespace" {
		list, err = resourceInterface.Namespace(namespace).List(ctx, opts)
	} else {
		list, err = resourceInterface.List(ctx, opts)
	}

	if err != nil {
		return nil, herrors.Wrap(Classify(err), namespace, fmt.Errorf("list resources: %w", err))
	}

	objects := make([]map[string]interface{}, 0, len(list.Items))

	for i := range list.Items {
		objects = append(objects, list.Items[i].Object)
	}

	return objects, nil
}

func parseGroupVersionKind(apiVersion, kind string) (schema.GroupVersionKind, error) {
	if kind == "" {
		return schema.GroupVersionKind{}, fmt.Errorf("kind must not be empty")
	}

	gv, err := schema.ParseGroupVersion(apiVersion)
	if err != nil {
		return schema.GroupVersionKind{}, fmt.Errorf("parse apiVersion %q: %w", apiVersion, err)
	}

	return gv.WithKind(kind), nil
}
