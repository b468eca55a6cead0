package kindprovisioner

import (
	_ "embed"

	"github.com/devantler-tech/rollctl/pkg/svc/image/parser"
)

//go:embed Dockerfile
var dockerfile string

// DefaultNodeImage returns the kind node image pinned in the embedded Dockerfile.
func DefaultNodeImage() string {
	return parser.ParseImageFromDockerfile(
		dockerfile,
		`FROM\s+(kindest/node:[^\s]+)`,
		"kind node",
	)
}
