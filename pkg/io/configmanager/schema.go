package configmanager

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/devantler-tech/rollctl/pkg/svc/controller"
	"github.com/devantler-tech/rollctl/pkg/utils/logging"
	"github.com/invopop/jsonschema"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// JSONSchema returns the JSON schema of rollctl.yaml for editor validation.
func JSONSchema() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Mapper:                    schemaTypeMapper,
	}

	schema := reflector.Reflect(NewConfig())
	customizeSchema(schema)

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(data, '\n'), nil
}

func customizeSchema(schema *jsonschema.Schema) {
	schema.ID = ""
	schema.Title = "rollctl Configuration"
	schema.Description = "JSON schema for rollctl configuration (rollctl.yaml)"

	// Every field is optional and falls back to a flag default.
	walkSchema(schema, func(s *jsonschema.Schema) {
		s.Required = nil
	})

	if schema.Properties == nil {
		return
	}

	if p, ok := schema.Properties.Get("kind"); ok && p != nil {
		p.Enum = []any{Kind}
	}

	if p, ok := schema.Properties.Get("apiVersion"); ok && p != nil {
		p.Enum = []any{APIVersion}
	}
}

func walkSchema(schema *jsonschema.Schema, fn func(*jsonschema.Schema)) {
	if schema == nil {
		return
	}

	fn(schema)

	if schema.Properties != nil {
		for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			walkSchema(pair.Value, fn)
		}
	}

	walkSchema(schema.Items, fn)
	walkSchema(schema.AdditionalProperties, fn)
}

func schemaTypeMapper(t reflect.Type) *jsonschema.Schema {
	switch t {
	case reflect.TypeFor[metav1.Duration]():
		return &jsonschema.Schema{
			Type:    "string",
			Pattern: "^([0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$",
		}
	case reflect.TypeFor[controller.Engine]():
		return enumSchema(controller.ValidEngines())
	case reflect.TypeFor[logging.Format]():
		return enumSchema([]logging.Format{logging.FormatText, logging.FormatJSON})
	default:
		return nil
	}
}

func enumSchema[T ~string](values []T) *jsonschema.Schema {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = string(v)
	}

	return &jsonschema.Schema{Type: "string", Enum: enum}
}
