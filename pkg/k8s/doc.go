// Package k8s provides the read-only Kubernetes access layer used by every
// other package in this module. It builds clients from a kubeconfig context,
// lists Secrets and ConfigMaps by label selector, fetches arbitrary typed
// resources by (apiVersion, kind, namespace, name), and enumerates CRDs and
// custom resources.
//
// Every operation here is read-only: this package never creates, updates, or
// deletes cluster objects. Results are materialized into plain values
// (structs or map[string]any trees) rather than live client-go watches, and
// every call is bounded by a per-call timeout so a single unreachable
// endpoint cannot hang an entire invocation.
package k8s
