package manifest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	"github.com/devantler-tech/rollctl/pkg/svc/revision"
	"github.com/devantler-tech/rollctl/pkg/svc/store"
	"github.com/devantler-tech/rollctl/pkg/svc/traffic"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/kubernetes"
)

// decoderBufferSize is the look-ahead used to detect JSON versus YAML.
const decoderBufferSize = 4096

// Errors returned while loading manifests.
var (
	// ErrUnsupportedKind is returned for documents that are neither Rollouts nor Services.
	ErrUnsupportedKind = errors.New("unsupported kind")
	// ErrNoDocuments is returned when the input holds no documents.
	ErrNoDocuments = errors.New("no documents found")
)

//nolint:gochecknoglobals // static set of manifest extensions
var manifestExtensions = []string{".yaml", ".yml", ".json"}

//nolint:gochecknoglobals // immutable group version kind
var serviceGVK = corev1.SchemeGroupVersion.WithKind("Service")

// Set is the content of one or more manifest files.
type Set struct {
	Rollouts []*v1alpha1.Rollout
	Services []*corev1.Service
}

// Len returns the number of objects in the set.
func (s *Set) Len() int {
	return len(s.Rollouts) + len(s.Services)
}

// Load reads every path. Directories contribute their .yaml, .yml and .json
// files, without recursing. The path "-" reads stdin.
func Load(stdin io.Reader, paths ...string) (*Set, error) {
	set := &Set{}

	for _, path := range paths {
		files, err := expand(path)
		if err != nil {
			return nil, err
		}

		for _, file := range files {
			err = loadFile(set, stdin, file)
			if err != nil {
				return nil, err
			}
		}
	}

	if set.Len() == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, strings.Join(paths, ", "))
	}

	return set, nil
}

// Parse decodes a multi-document YAML or JSON stream.
func Parse(reader io.Reader) (*Set, error) {
	set := &Set{}

	err := parseInto(set, reader, "input")
	if err != nil {
		return nil, err
	}

	return set, nil
}

// ApplyResult lists what Apply changed, as namespace/name.
type ApplyResult struct {
	Created []string
	Updated []string
}

// Apply writes Services first, then Rollouts, so controllers find the Services
// a rollout references. Objects without a namespace land in namespace.
// Rollouts are defaulted and validated before anything is written.
func Apply(
	ctx context.Context,
	clientset kubernetes.Interface,
	rollouts *store.Store,
	set *Set,
	namespace string,
) (ApplyResult, error) {
	var result ApplyResult

	for _, rollout := range set.Rollouts {
		if rollout.Namespace == "" {
			rollout.Namespace = namespace
		}

		candidate := rollout.DeepCopy()
		v1alpha1.SetDefaults(candidate)

		err := v1alpha1.Validate(candidate)
		if err != nil {
			return result, fmt.Errorf("rollout %s/%s: %w", rollout.Namespace, rollout.Name, err)
		}
	}

	for _, service := range set.Services {
		if service.Namespace == "" {
			service.Namespace = namespace
		}

		created, err := applyService(ctx, clientset, service)
		if err != nil {
			return result, err
		}

		result.record("service/"+service.Namespace+"/"+service.Name, created)
	}

	for _, rollout := range set.Rollouts {
		_, created, err := rollouts.Apply(ctx, rollout)
		if err != nil {
			return result, fmt.Errorf("apply rollout: %w", err)
		}

		result.record("rollout/"+rollout.Namespace+"/"+rollout.Name, created)
	}

	return result, nil
}

// --- internals ---

func (r *ApplyResult) record(name string, created bool) {
	if created {
		r.Created = append(r.Created, name)

		return
	}

	r.Updated = append(r.Updated, name)
}

func expand(path string) ([]string, error) {
	if path == "-" {
		return []string{path}, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", path, err)
	}

	var files []string

	for _, entry := range entries {
		if entry.IsDir() || !slices.Contains(manifestExtensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}

		files = append(files, filepath.Join(path, entry.Name()))
	}

	return files, nil
}

func loadFile(set *Set, stdin io.Reader, path string) error {
	if path == "-" {
		return parseInto(set, stdin, "stdin")
	}

	file, err := os.Open(path) //nolint:gosec // user supplied manifest path
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	defer func() { _ = file.Close() }()

	return parseInto(set, file, path)
}

func parseInto(set *Set, reader io.Reader, source string) error {
	decoder := utilyaml.NewYAMLOrJSONDecoder(bufio.NewReader(reader), decoderBufferSize)

	for index := 0; ; index++ {
		var content map[string]any

		err := decoder.Decode(&content)
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("%s: document %d: %w", source, index, err)
		}

		if len(content) == 0 {
			continue
		}

		err = addObject(set, &unstructured.Unstructured{Object: content})
		if err != nil {
			return fmt.Errorf("%s: document %d: %w", source, index, err)
		}
	}
}

func addObject(set *Set, obj *unstructured.Unstructured) error {
	gvk := obj.GroupVersionKind()

	switch gvk {
	case v1alpha1.GroupVersionKind:
		rollout, err := decodeRollout(obj)
		if err != nil {
			return err
		}

		set.Rollouts = append(set.Rollouts, rollout)
	case serviceGVK:
		var service corev1.Service

		err := runtime.DefaultUnstructuredConverter.FromUnstructuredWithValidation(
			obj.UnstructuredContent(), &service, true,
		)
		if err != nil {
			return fmt.Errorf("decode service %s: %w", obj.GetName(), err)
		}

		set.Services = append(set.Services, &service)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, describe(gvk))
	}

	return nil
}

// decodeRollout rejects unknown fields so typos in a spec surface on apply.
func decodeRollout(obj *unstructured.Unstructured) (*v1alpha1.Rollout, error) {
	data, err := obj.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode rollout %s: %w", obj.GetName(), err)
	}

	rollout, err := v1alpha1.UnmarshalRollout(bytes.TrimSpace(data))
	if err != nil {
		return nil, fmt.Errorf("rollout %s: %w", obj.GetName(), err)
	}

	return rollout, nil
}

func describe(gvk schema.GroupVersionKind) string {
	if gvk.Kind == "" {
		return "document without kind"
	}

	return gvk.GroupVersion().String() + ", Kind=" + gvk.Kind
}

func applyService(ctx context.Context, clientset kubernetes.Interface, service *corev1.Service) (bool, error) {
	services := clientset.CoreV1().Services(service.Namespace)

	existing, err := services.Get(ctx, service.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		_, err = services.Create(ctx, service, metav1.CreateOptions{})
		if err != nil {
			return false, fmt.Errorf("create service %s/%s: %w", service.Namespace, service.Name, err)
		}

		return true, nil
	}

	if err != nil {
		return false, fmt.Errorf("get service %s/%s: %w", service.Namespace, service.Name, err)
	}

	updated := existing.DeepCopy()
	updated.Labels = service.Labels
	updated.Annotations = service.Annotations
	updated.Spec.Selector = service.Spec.Selector
	updated.Spec.Ports = service.Spec.Ports

	// Keep the revision a controller routed this Service to.
	if owner, ok := existing.Spec.Selector[revision.LabelRollout]; ok {
		updated.Spec.Selector = traffic.Selector(
			service.Spec.Selector, owner, existing.Spec.Selector[revision.LabelRevision],
		)
	}

	if service.Spec.Type != "" {
		updated.Spec.Type = service.Spec.Type
	}

	_, err = services.Update(ctx, updated, metav1.UpdateOptions{})
	if err != nil {
		return false, fmt.Errorf("update service %s/%s: %w", service.Namespace, service.Name, err)
	}

	return false, nil
}
