package k8s

import (
	"fmt"

	apiextensionsclientset "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// Clients bundles the Kubernetes clients rollctl talks to a cluster with.
type Clients struct {
	// Config is the REST config the clients were built from. It is nil for fake clients.
	Config     *rest.Config
	Kube       kubernetes.Interface
	Dynamic    dynamic.Interface
	Extensions apiextensionsclientset.Interface
}

// NewClients builds every client from a single REST config.
func NewClients(restConfig *rest.Config) (*Clients, error) {
	kube, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	dyn, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	ext, err := apiextensionsclientset.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create apiextensions client: %w", err)
	}

	return &Clients{
		Config:     restConfig,
		Kube:       kube,
		Dynamic:    dyn,
		Extensions: ext,
	}, nil
}

// NewClientsFromKubeconfig combines BuildRESTConfig and NewClients.
func NewClientsFromKubeconfig(kubeconfig, context string) (*Clients, error) {
	restConfig, err := BuildRESTConfig(kubeconfig, context)
	if err != nil {
		return nil, fmt.Errorf("failed to build rest config: %w", err)
	}

	return NewClients(restConfig)
}

// ClientsFactory builds Clients for a kubeconfig path and context.
type ClientsFactory func(kubeconfig, context string) (*Clients, error)
