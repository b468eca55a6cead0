package rollout

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	"github.com/devantler-tech/rollctl/pkg/svc/revision"
	"github.com/mitchellh/go-wordwrap"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/duration"
)

const (
	labelWidth = 12
	noValue    = "-"
)

// renderStatus formats the status view of a rollout for a terminal width columns wide.
func renderStatus(rollout *v1alpha1.Rollout, width int) string {
	var out strings.Builder

	status := rollout.Status

	field := func(label, value string) {
		fmt.Fprintf(&out, "%-*s%s\n", labelWidth, label+":", value)
	}

	field("Name", rollout.Name)
	field("Namespace", rollout.Namespace)
	field("Strategy", string(rollout.Spec.Strategy.Type))
	field("Phase", phaseLine(rollout))

	if status.Message != "" {
		field("Message", wrap(status.Message, width-labelWidth))
	}

	if rollout.Spec.Strategy.Type == v1alpha1.StrategyCanary && rollout.Spec.Strategy.Canary != nil {
		field("Step", fmt.Sprintf("%d/%d", status.StepIndex(), len(rollout.Spec.Strategy.Canary.Steps)))
		field("Weight", fmt.Sprintf("%d%%", status.CanaryWeight))
	}

	if rollout.Spec.Strategy.Type == v1alpha1.StrategyBlueGreen {
		field("Active", valueOr(status.ActiveRevision))
		field("Preview", valueOr(status.PreviewRevision))
	}

	field("Stable", valueOr(status.StableRevision))
	field("Current", valueOr(status.CurrentRevision))
	field("Replicas", fmt.Sprintf("desired %d | current %d | updated %d | ready %d | available %d",
		rollout.DesiredReplicas(), status.Replicas, status.UpdatedReplicas,
		status.ReadyReplicas, status.AvailableReplicas))
	field("Images", images(rollout))

	if status.Analysis != nil {
		field("Analysis", fmt.Sprintf("%s (%d successful checks)", status.Analysis.Gate, status.Analysis.Successes))
	}

	return out.String()
}

func phaseLine(rollout *v1alpha1.Rollout) string {
	phase := string(rollout.Status.Phase)
	if phase == "" {
		phase = "Pending"
	}

	if rollout.Status.PauseReason != v1alpha1.PauseReasonNone {
		phase += " (" + string(rollout.Status.PauseReason) + ")"
	}

	switch {
	case rollout.Status.Abort:
		phase += ", aborted"
	case rollout.Spec.Paused:
		phase += ", paused by user"
	}

	return phase
}

func images(rollout *v1alpha1.Rollout) string {
	containers := rollout.Spec.Template.Spec.Containers
	parts := make([]string, 0, len(containers))

	for _, container := range containers {
		parts = append(parts, container.Name+"="+container.Image)
	}

	return valueOr(strings.Join(parts, ", "))
}

func wrap(text string, width int) string {
	if width < 20 {
		return text
	}

	wrapped := wordwrap.WrapString(text, uint(width))

	return strings.ReplaceAll(wrapped, "\n", "\n"+strings.Repeat(" ", labelWidth))
}

func valueOr(value string) string {
	if value == "" {
		return noValue
	}

	return value
}

// writeRolloutTable writes one row per rollout.
func writeRolloutTable(w io.Writer, rollouts []v1alpha1.Rollout, allNamespaces bool, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)

	if allNamespaces {
		_, _ = fmt.Fprint(tw, "NAMESPACE\t")
	}

	_, _ = fmt.Fprintln(tw, "NAME\tSTRATEGY\tPHASE\tDESIRED\tAVAILABLE\tREVISION\tAGE")

	for i := range rollouts {
		rollout := &rollouts[i]

		if allNamespaces {
			_, _ = fmt.Fprintf(tw, "%s\t", rollout.Namespace)
		}

		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			rollout.Name,
			rollout.Spec.Strategy.Type,
			valueOr(string(rollout.Status.Phase)),
			rollout.DesiredReplicas(),
			rollout.Status.AvailableReplicas,
			valueOr(rollout.Status.CurrentRevision),
			age(rollout.CreationTimestamp, now),
		)
	}

	return tw.Flush()
}

// writeRevisionTable writes one row per revision, marking stable and current.
func writeRevisionTable(w io.Writer, rollout *v1alpha1.Rollout, revisions []revision.Revision, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)

	_, _ = fmt.Fprintln(tw, "REVISION\tHASH\tIMAGES\tREPLICAS\tAVAILABLE\tROLE\tAGE")

	for _, rev := range revisions {
		role := ""

		switch rev.Hash {
		case rollout.Status.StableRevision:
			role = "stable"
		case rollout.Status.CurrentRevision:
			role = "current"
		}

		containers := rev.Deployment.Spec.Template.Spec.Containers
		imageNames := make([]string, 0, len(containers))

		for _, container := range containers {
			imageNames = append(imageNames, container.Image)
		}

		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
			rev.Number,
			rev.Hash,
			strings.Join(imageNames, ","),
			rev.Replicas(),
			rev.Deployment.Status.AvailableReplicas,
			valueOr(role),
			age(rev.Deployment.CreationTimestamp, now),
		)
	}

	return tw.Flush()
}

func age(created metav1.Time, now time.Time) string {
	if created.IsZero() {
		return noValue
	}

	return duration.HumanDuration(now.Sub(created.Time))
}
