package image

import (
	"context"
	"fmt"

	"github.com/devantler-tech/rollctl/pkg/cli/helpers"
	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/io/configmanager"
	imagesvc "github.com/devantler-tech/rollctl/pkg/svc/image"
	"github.com/devantler-tech/rollctl/pkg/utils/notify"
	"github.com/docker/docker/client"
	"github.com/spf13/cobra"
)

const pushLongDesc = `Push an image from the local Docker daemon to its registry.

Credentials default to the docker credential helpers. --username and
--password (or ROLLCTL_IMAGE_USERNAME / ROLLCTL_IMAGE_PASSWORD) override them.
Transient registry errors are retried with backoff.

Examples:
  # Push to a public registry using the docker login
  rollctl image push ghcr.io/shop/checkout:1.1.0

  # Push to a local plain-HTTP registry
  rollctl image push localhost:5000/checkout:1.1.0 --insecure`

// NewPushCmd creates the image push command.
func NewPushCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "push IMAGE",
		Short:        "Push an image to a registry",
		Long:         pushLongDesc,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd, configmanager.RegistryFieldSelectors())

	cmd.RunE = di.RunEWithArgs(runtimeContainer, func(cmd *cobra.Command, args []string, injector di.Injector) error {
		tmr, err := di.ResolveTimer(injector)
		if err != nil {
			return err
		}

		tmr.Start()

		cfg, err := cfgManager.LoadConfigSilent()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		reference := args[0]

		return withDocker(cmd, injector, func(apiClient client.APIClient) error {
			var digest string

			err := helpers.RunStage(cmd, tmr, helpers.StageInfo{
				Title:         "Push image...",
				Emoji:         "📦",
				Activity:      fmt.Sprintf("pushing '%s'", reference),
				Success:       fmt.Sprintf("image '%s' pushed", reference),
				FailurePrefix: "push image",
			}, func(ctx context.Context) error {
				var pushErr error

				digest, pushErr = imagesvc.NewPusher(apiClient).Push(ctx, imagesvc.PushOptions{
					Image:    reference,
					Username: cfg.Image.Username,
					Password: cfg.Image.Password,
					Insecure: cfg.Image.Insecure,
				})

				return pushErr
			})
			if err != nil {
				return err
			}

			notify.Infof(cmd.OutOrStdout(), "digest: %s", digest)

			return nil
		})
	})

	return cmd
}
