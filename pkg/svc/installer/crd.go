package installer

import (
	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

// CRDName is the name of the Rollout CustomResourceDefinition.
const CRDName = v1alpha1.Resource + "." + v1alpha1.Group

// RolloutCRD builds the Rollout CustomResourceDefinition stamped with version.
//
// The schema only pins the top-level shape. Field validation happens in the
// controller, which reports invalid specs on the rollout's status.
func RolloutCRD(version string) *apiextensionsv1.CustomResourceDefinition {
	preserve := apiextensionsv1.JSONSchemaProps{
		Type:                   "object",
		XPreserveUnknownFields: ptr.To(true),
	}

	return &apiextensionsv1.CustomResourceDefinition{
		ObjectMeta: metav1.ObjectMeta{
			Name:        CRDName,
			Labels:      managedLabels(),
			Annotations: map[string]string{AnnotationVersion: version},
		},
		Spec: apiextensionsv1.CustomResourceDefinitionSpec{
			Group: v1alpha1.Group,
			Names: apiextensionsv1.CustomResourceDefinitionNames{
				Plural:     v1alpha1.Resource,
				Singular:   "rollout",
				Kind:       v1alpha1.Kind,
				ListKind:   v1alpha1.ListKind,
				ShortNames: []string{"ro"},
			},
			Scope: apiextensionsv1.NamespaceScoped,
			Versions: []apiextensionsv1.CustomResourceDefinitionVersion{{
				Name:    v1alpha1.Version,
				Served:  true,
				Storage: true,
				Schema: &apiextensionsv1.CustomResourceValidation{
					OpenAPIV3Schema: &apiextensionsv1.JSONSchemaProps{
						Type:     "object",
						Required: []string{"spec"},
						Properties: map[string]apiextensionsv1.JSONSchemaProps{
							"apiVersion": {Type: "string"},
							"kind":       {Type: "string"},
							"metadata":   {Type: "object"},
							"spec":       preserve,
							"status":     preserve,
						},
					},
				},
				Subresources: &apiextensionsv1.CustomResourceSubresources{
					Status: &apiextensionsv1.CustomResourceSubresourceStatus{},
				},
				AdditionalPrinterColumns: []apiextensionsv1.CustomResourceColumnDefinition{
					{Name: "Strategy", Type: "string", JSONPath: ".spec.strategy.type"},
					{Name: "Phase", Type: "string", JSONPath: ".status.phase"},
					{Name: "Stable", Type: "string", JSONPath: ".status.stableRevision"},
					{Name: "Current", Type: "string", JSONPath: ".status.currentRevision"},
					{Name: "Age", Type: "date", JSONPath: ".metadata.creationTimestamp"},
				},
			}},
		},
	}
}
