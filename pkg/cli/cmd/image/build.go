package image

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devantler-tech/rollctl/pkg/cli/helpers"
	"github.com/devantler-tech/rollctl/pkg/di"
	imagesvc "github.com/devantler-tech/rollctl/pkg/svc/image"
	"github.com/devantler-tech/rollctl/pkg/utils/timer"
	"github.com/docker/docker/client"
	"github.com/spf13/cobra"
)

// ErrInvalidBuildArg is returned for --build-arg values without a key.
var ErrInvalidBuildArg = errors.New("build arg must be KEY=VALUE")

const buildLongDesc = `Build a container image from a directory with the local Docker daemon.

The build context honours .dockerignore. The daemon's build log is streamed
to the terminal.

Examples:
  # Build the current directory
  rollctl image build -t shop/checkout:1.1.0

  # Build with a different Dockerfile and a build argument
  rollctl image build ./app -f Dockerfile.prod -t shop/checkout:1.1.0 --build-arg VERSION=1.1.0`

type buildFlags struct {
	dockerfile string
	tags       []string
	buildArgs  []string
	noCache    bool
	pull       bool
}

// NewBuildCmd creates the image build command.
func NewBuildCmd(runtimeContainer *di.Runtime) *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:          "build [context]",
		Short:        "Build an image",
		Long:         buildLongDesc,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&flags.dockerfile, "file", "f", imagesvc.DefaultDockerfile,
		"Dockerfile path relative to the context")
	cmd.Flags().StringSliceVarP(&flags.tags, "tag", "t", nil, "Image tag (repeatable)")
	cmd.Flags().StringArrayVar(&flags.buildArgs, "build-arg", nil, "Build argument KEY=VALUE (repeatable)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "Do not use the build cache")
	cmd.Flags().BoolVar(&flags.pull, "pull", false, "Always pull newer base images")

	_ = cmd.MarkFlagRequired("tag")

	cmd.RunE = di.RunEWithArgs(runtimeContainer, func(cmd *cobra.Command, args []string, injector di.Injector) error {
		contextDir := "."
		if len(args) == 1 {
			contextDir = args[0]
		}

		tmr, err := di.ResolveTimer(injector)
		if err != nil {
			return err
		}

		return handleBuildRunE(cmd, injector, tmr, contextDir, flags)
	})

	return cmd
}

func handleBuildRunE(
	cmd *cobra.Command,
	injector di.Injector,
	tmr timer.Timer,
	contextDir string,
	flags buildFlags,
) error {
	tmr.Start()

	buildArgs, err := parseBuildArgs(flags.buildArgs)
	if err != nil {
		return err
	}

	return withDocker(cmd, injector, func(apiClient client.APIClient) error {
		return helpers.RunStage(cmd, tmr, helpers.StageInfo{
			Title:         "Build image...",
			Emoji:         "🔨",
			Activity:      fmt.Sprintf("building '%s' from %s", flags.tags[0], contextDir),
			Success:       fmt.Sprintf("image '%s' built", flags.tags[0]),
			FailurePrefix: "build image",
		}, func(ctx context.Context) error {
			return imagesvc.NewBuilder(apiClient).Build(ctx, imagesvc.BuildOptions{
				ContextDir: contextDir,
				Dockerfile: flags.dockerfile,
				Tags:       flags.tags,
				BuildArgs:  buildArgs,
				NoCache:    flags.noCache,
				Pull:       flags.pull,
				Output:     cmd.OutOrStdout(),
			})
		})
	})
}

func parseBuildArgs(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil //nolint:nilnil // no build args is not an error
	}

	args := make(map[string]string, len(values))

	for _, value := range values {
		key, val, _ := strings.Cut(value, "=")
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBuildArg, value)
		}

		args[key] = val
	}

	return args, nil
}
