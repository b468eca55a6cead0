// Package io groups rollctl's configuration input.
//
// Subpackages:
//   - configmanager: rollctl.yaml, ROLLCTL_* environment variables and flags
package io
