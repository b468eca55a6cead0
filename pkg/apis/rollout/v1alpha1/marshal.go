package v1alpha1

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/yaml"
)

// FromUnstructured converts an unstructured object returned by a dynamic client into a Rollout.
func FromUnstructured(obj *unstructured.Unstructured) (*Rollout, error) {
	var rollout Rollout

	err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.UnstructuredContent(), &rollout)
	if err != nil {
		return nil, fmt.Errorf("convert %s/%s to rollout: %w", obj.GetNamespace(), obj.GetName(), err)
	}

	return &rollout, nil
}

// ToUnstructured converts a Rollout into an unstructured object for dynamic clients.
func ToUnstructured(rollout *Rollout) (*unstructured.Unstructured, error) {
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(rollout)
	if err != nil {
		return nil, fmt.Errorf("convert rollout %s/%s to unstructured: %w",
			rollout.Namespace, rollout.Name, err)
	}

	obj := &unstructured.Unstructured{Object: content}
	obj.SetGroupVersionKind(GroupVersionKind)

	return obj, nil
}

// UnmarshalRollout decodes a YAML or JSON document into a Rollout.
func UnmarshalRollout(data []byte) (*Rollout, error) {
	var rollout Rollout

	err := yaml.UnmarshalStrict(data, &rollout)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal rollout: %w", err)
	}

	return &rollout, nil
}

// MarshalRollout encodes a Rollout as YAML.
func MarshalRollout(rollout *Rollout) ([]byte, error) {
	data, err := yaml.Marshal(rollout)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rollout: %w", err)
	}

	return data, nil
}
