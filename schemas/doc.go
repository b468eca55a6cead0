// Package schemas generates the JSON schema for rollctl.yaml.
//
// Run: go generate ./schemas/...
package schemas

//go:generate go run gen_schema.go rollctl-config.schema.json
