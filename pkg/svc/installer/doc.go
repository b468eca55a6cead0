// Package installer installs and uninstalls the rollctl controller.
//
// ControllerInstaller registers the Rollout CustomResourceDefinition and,
// optionally, deploys the controller itself together with its RBAC into the
// cluster.
package installer
