// Package manifest reads Rollout and Service documents from YAML or JSON
// files and applies them to a cluster.
package manifest
