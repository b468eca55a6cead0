package image

import (
	"context"
	"fmt"
	"strings"

	"github.com/devantler-tech/rollctl/pkg/cli/helpers"
	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/io/configmanager"
	imagesvc "github.com/devantler-tech/rollctl/pkg/svc/image"
	kindprovisioner "github.com/devantler-tech/rollctl/pkg/svc/provisioner/cluster/kind"
	"github.com/docker/docker/client"
	"github.com/spf13/cobra"
)

const loadLongDesc = `Load images from the local Docker daemon onto every node of a kind cluster.

The images are saved once and imported into each node's containerd in
parallel, so rollouts can use them without a registry. Pods must use an
imagePullPolicy other than Always.

Examples:
  # Load an image into the default cluster
  rollctl image load shop/checkout:1.1.0

  # Load two images into a named cluster
  rollctl image load shop/checkout:1.1.0 shop/cart:2.0.0 --name demo`

// NewLoadCmd creates the image load command.
func NewLoadCmd(runtimeContainer *di.Runtime) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:          "load IMAGE...",
		Short:        "Load images onto kind nodes",
		Long:         loadLongDesc,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd, []configmanager.FieldSelector[configmanager.Config]{
		configmanager.ClusterNameFieldSelector(),
	})

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Maximum nodes loaded at once (0 loads all nodes at once)")

	cmd.RunE = di.RunEWithArgs(runtimeContainer, func(cmd *cobra.Command, images []string, injector di.Injector) error {
		tmr, err := di.ResolveTimer(injector)
		if err != nil {
			return err
		}

		tmr.Start()

		cfg, err := cfgManager.LoadConfigSilent()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		factory, err := di.ResolveClusterProvisionerFactory(injector)
		if err != nil {
			return err
		}

		nodes, err := factory.Create(kindprovisioner.Options{Name: cfg.Cluster.Name}, cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("create cluster provisioner: %w", err)
		}

		return withDocker(cmd, injector, func(apiClient client.APIClient) error {
			return helpers.RunStage(cmd, tmr, helpers.StageInfo{
				Title:         "Load images...",
				Emoji:         "🚚",
				Activity:      fmt.Sprintf("loading %s into '%s'", strings.Join(images, ", "), cfg.Cluster.Name),
				Success:       fmt.Sprintf("%d image(s) loaded", len(images)),
				FailurePrefix: "load images",
			}, func(ctx context.Context) error {
				return imagesvc.NewLoader(apiClient, nodes).Load(ctx, imagesvc.LoadOptions{
					Cluster:     cfg.Cluster.Name,
					Images:      images,
					Writer:      cmd.OutOrStdout(),
					Concurrency: concurrency,
				})
			})
		})
	})

	return cmd
}
