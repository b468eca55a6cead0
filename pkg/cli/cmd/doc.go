// Package cmd provides the command-line interface for rollctl.
//
// This package contains the root command and delegates to subcommand packages:
//   - rollout: Apply, inspect and steer rollouts
//   - controller: Install, uninstall and run the rollout controller
//   - cluster: Local kind clusters for development
//   - image: Build, push and load container images
package cmd
