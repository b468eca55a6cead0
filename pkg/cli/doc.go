// Package cli provides reusable helpers for command wiring and execution.
//
// This package is organized into subpackages for different functionality:
//
//   - cli/cmd: the rollctl command tree
//   - cli/flags: Flag handling utilities including timing detection
//   - cli/helpers: Docker and Kubernetes client wiring and staged output
//   - cli/ui: Terminal helpers, confirmation prompts and error handling
//
// The utilities in this package follow dependency injection patterns and integrate
// with the rollctl runtime container for testability and flexibility.
package cli
