package configmanager_test

import (
	"encoding/json"
	"testing"

	configmanager "github.com/devantler-tech/rollctl/pkg/io/configmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSchema(t *testing.T) {
	t.Parallel()

	data, err := configmanager.JSONSchema()
	require.NoError(t, err)

	var schema map[string]any

	require.NoError(t, json.Unmarshal(data, &schema))

	assert.Equal(t, "rollctl Configuration", schema["title"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Nil(t, schema["required"])

	props := mustMap(t, schema["properties"])
	assert.Equal(t, []any{configmanager.Kind}, mustMap(t, props["kind"])["enum"])
	assert.Equal(t, []any{configmanager.APIVersion}, mustMap(t, props["apiVersion"])["enum"])

	controller := mustMap(t, mustMap(t, props["controller"])["properties"])
	assert.Equal(t, []any{"manager", "poll"}, mustMap(t, controller["engine"])["enum"])
	assert.Equal(t, []any{"text", "json"}, mustMap(t, controller["logFormat"])["enum"])
	assert.Equal(t, "string", mustMap(t, controller["resync"])["type"])

	connection := mustMap(t, mustMap(t, props["connection"])["properties"])
	assert.Contains(t, connection, "kubeconfig")
	assert.Equal(t, "string", mustMap(t, connection["timeout"])["type"])
}

func mustMap(t *testing.T, v any) map[string]any {
	t.Helper()

	m, ok := v.(map[string]any)
	require.True(t, ok, "expected an object, got %T", v)

	return m
}
