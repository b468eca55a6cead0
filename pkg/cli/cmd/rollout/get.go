package rollout

import (
	"encoding/json"
	"errors"
	"fmt"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/spf13/cobra"
)

// ErrUnknownOutputFormat is returned for unsupported --output values.
var ErrUnknownOutputFormat = errors.New("unknown output format")

// NewGetCmd creates the rollout get command.
func NewGetCmd(runtimeContainer *di.Runtime) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:          "get NAME",
		Short:        "Print a rollout",
		Long:         "Print a rollout with its status as YAML or JSON.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}

	cfgManager := newConfigManager(cmd)

	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml, json")

	cmd.RunE = di.RunEWithArgs(runtimeContainer, func(cmd *cobra.Command, args []string, injector di.Injector) error {
		sess, err := newSession(injector, cfgManager)
		if err != nil {
			return err
		}

		rollout, err := sess.rollouts.Get(cmd.Context(), sess.namespace, args[0])
		if err != nil {
			return err
		}

		data, err := encode(rollout, output)
		if err != nil {
			return err
		}

		_, err = cmd.OutOrStdout().Write(data)

		return err
	})

	return cmd
}

func encode(rollout *v1alpha1.Rollout, output string) ([]byte, error) {
	switch output {
	case "yaml", "":
		return v1alpha1.MarshalRollout(rollout)
	case "json":
		data, err := json.MarshalIndent(rollout, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal rollout: %w", err)
		}

		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOutputFormat, output)
	}
}
