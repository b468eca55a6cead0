package rollout

import (
	"fmt"
	"time"

	"github.com/devantler-tech/rollctl/pkg/di"
	"github.com/devantler-tech/rollctl/pkg/io/configmanager"
	"github.com/devantler-tech/rollctl/pkg/svc/journal"
	"github.com/devantler-tech/rollctl/pkg/svc/revision"
	"github.com/devantler-tech/rollctl/pkg/utils/notify"
	"github.com/spf13/cobra"
)

const defaultEventLimit = 20

const historyLongDesc = `List the revisions of a rollout, oldest first.

Revision numbers are what 'rollout undo --to-revision' takes. With --events
the most recent entries of the controller journal are listed as well; the
journal is only available where 'controller run --journal' writes it.

Examples:
  # List revisions
  rollctl rollout history checkout --namespace shop

  # Include the last 50 journal events
  rollctl rollout history checkout --namespace shop --events --limit 50 --journal ./rollctl.db`

// NewHistoryCmd creates the rollout history command.
func NewHistoryCmd(runtimeContainer *di.Runtime) *cobra.Command {
	var (
		events bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:          "history NAME",
		Short:        "List rollout revisions and events",
		Long:         historyLongDesc,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}

	cfgManager := newConfigManager(cmd, configmanager.FieldSelector[configmanager.Config]{
		Selector:    func(c *configmanager.Config) any { return &c.Controller.Journal },
		Description: "Controller journal to read events from",
	})

	cmd.Flags().BoolVar(&events, "events", false, "Also list journal events")
	cmd.Flags().IntVar(&limit, "limit", defaultEventLimit, "Maximum journal events to list")

	cmd.RunE = di.RunEWithArgs(runtimeContainer, func(cmd *cobra.Command, args []string, injector di.Injector) error {
		sess, err := newSession(injector, cfgManager)
		if err != nil {
			return err
		}

		name := args[0]

		rollout, err := sess.rollouts.Get(cmd.Context(), sess.namespace, name)
		if err != nil {
			return err
		}

		revisions, err := revision.List(cmd.Context(), sess.clients.Kube, sess.namespace, name)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()

		if len(revisions) == 0 {
			notify.Infof(out, "no revisions found")
		} else {
			err = writeRevisionTable(out, rollout, revisions, time.Now())
			if err != nil {
				return err
			}
		}

		if !events {
			return nil
		}

		return printEvents(cmd, sess, name, limit)
	})

	return cmd
}

func printEvents(cmd *cobra.Command, sess *session, name string, limit int) error {
	out := cmd.OutOrStdout()

	if sess.cfg.Controller.Journal == "" {
		notify.Warningf(out, "no journal configured, pass --journal to list events")

		return nil
	}

	events, err := journal.Open(cmd.Context(), sess.cfg.Controller.Journal)
	if err != nil {
		return err
	}

	defer func() { _ = events.Close() }()

	entries, err := events.Events(cmd.Context(), sess.namespace, name, limit)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out)

	for _, entry := range entries {
		line := fmt.Sprintf("%s  %-11s step %-2d %-8s %s  %s",
			entry.Time.UTC().Format(time.RFC3339), entry.Phase, entry.Step,
			valueOr(entry.Revision), entry.Reason, entry.Message)

		if entry.Warning {
			notify.Warningf(out, "%s", line)
		} else {
			notify.Infof(out, "%s", line)
		}
	}

	return nil
}
