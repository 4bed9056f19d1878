package k8s

import (
	"fmt"
	"time"

	"sync"

	apiextensionsclientset "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
)

// DefaultTimeout is the per-call timeout a Client uses when it is built with
// a zero or negative timeout. Every API call made through a Client is
// bounded by the Client's Timeout, in addition to any deadline the caller's
// context already carries.
const DefaultTimeout = 15 * time.Second

// Client bundles the typed, dynamic, and apiextensions clientsets needed to
// inspect a cluster's Helm state, plus a RESTMapper for resolving arbitrary
// (apiVersion, kind) pairs to REST resources. A Client is built once per
// invocation from a single kubeconfig context and is safe for concurrent use
// by multiple goroutines: the only shared state its methods write, the CRD
// existence cache, is guarded by a mutex.
type Client struct {
	Typed          kubernetes.Interface
	Dynamic        dynamic.Interface
	APIExtensions  apiextensionsclientset.Interface
	RESTMapper     meta.RESTMapper
	Timeout        time.Duration
	kubeconfigPath string
	context        string

	crdCacheOnce sync.Once
	crdCacheVal  *crdCache
}

// NewClient builds a Client from a kubeconfig path and context. An empty
// kubeconfig triggers standard discovery (see [BuildRESTConfig]). A zero
// timeout falls back to [DefaultTimeout].
func NewClient(kubeconfig, context string, timeout time.Duration) (*Client, error) {
	restConfig, err := BuildRESTConfig(kubeconfig, context)
	if err != nil {
		return nil, fmt.Errorf("failed to build rest config: %w", err)
	}

	return newClientFromConfig(restConfig, kubeconfig, context, timeout)
}

func newClientFromConfig(restConfig *rest.Config, kubeconfig, context string, timeout time.Duration) (*Client, error) {
	typedClient, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create typed client: %w", err)
	}

	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	apiExtClient, err := apiextensionsclientset.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create apiextensions client: %w", err)
	}

	discoveryClient, err := discovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery client: %w", err)
	}

	cachedDiscovery := memory.NewMemCacheClient(discoveryClient)
	restMapper := restmapper.NewDeferredDiscoveryRESTMapper(cachedDiscovery)

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		Typed:          typedClient,
		Dynamic:        dynamicClient,
		APIExtensions:  apiExtClient,
		RESTMapper:     restMapper,
		Timeout:        timeout,
		kubeconfigPath: kubeconfig,
		context:        context,
	}, nil
}
