// Package helpers holds command plumbing shared by the rollctl subcommands:
// Docker client lifecycle, Kubernetes client resolution from the loaded
// config, and the titled stage runner used for long-running steps.
package helpers
