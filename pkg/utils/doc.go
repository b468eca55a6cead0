// Package utils provides utility packages for common operations.
//
// This package contains subpackages with utility functions used across
// the rollctl codebase:
//
//   - envvar: ${NAME} expansion in configuration values
//   - logging: logrus loggers for the controller
//   - notify: Formatted message display with symbols, colors, and timing
//   - timer: Execution time tracking for single and multi-stage operations
package utils
