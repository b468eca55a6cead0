package strategy

import (
	"fmt"
	"time"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

const gatePrePromotion = "pre-promotion"

// blueGreen runs the current revision as a preview next to the stable one and
// switches the active Service once it is promoted and fully available.
func (p *planner) blueGreen() {
	blueGreen := p.rollout.Spec.Strategy.BlueGreen
	if blueGreen == nil {
		blueGreen = &v1alpha1.BlueGreenStrategy{}
	}

	replicas := p.desired()

	previewReplicas := replicas
	if blueGreen.PreviewReplicaCount != nil {
		previewReplicas = min(*blueGreen.PreviewReplicaCount, replicas)
	}

	p.status.ActiveRevision = p.stable.Hash
	p.status.PreviewRevision = p.cur.Hash
	p.route(p.stable.Hash, p.cur.Hash)
	p.decision.Replicas[p.stable.Hash] = replicas
	p.decision.Replicas[p.cur.Hash] = previewReplicas
	p.scaleDownOld()

	if !p.status.PromoteFull {
		if !p.previewReady(previewReplicas) {
			return
		}

		if analysis := blueGreen.PrePromotionAnalysis; analysis != nil && !p.gate(gatePrePromotion, analysis) {
			return
		}

		if !p.status.Promote && !p.autoPromote(blueGreen) {
			return
		}
	}

	p.switchActive(blueGreen, replicas)
}

func (p *planner) previewReady(previewReplicas int32) bool {
	if p.cur.Replicas >= previewReplicas && p.cur.Available >= previewReplicas {
		return true
	}

	p.progressing("waiting for preview revision %s: %d of %d replicas available",
		p.cur.Hash, p.cur.Available, previewReplicas)

	return false
}

// autoPromote reports whether the preview may be promoted without a manual promote.
func (p *planner) autoPromote(blueGreen *v1alpha1.BlueGreenStrategy) bool {
	if blueGreen.AutoPromotionEnabled != nil && !*blueGreen.AutoPromotionEnabled {
		p.pause(v1alpha1.PauseReasonBlueGreen, "waiting for promotion of preview revision "+p.cur.Hash)

		return false
	}

	if blueGreen.AutoPromotionSeconds <= 0 {
		return true
	}

	p.pause(v1alpha1.PauseReasonBlueGreen, "")

	wait := time.Duration(blueGreen.AutoPromotionSeconds) * time.Second
	remaining := wait - p.pauseElapsed()

	if remaining <= 0 {
		return true
	}

	p.status.Message = fmt.Sprintf("auto-promoting preview revision %s in %s", p.cur.Hash, remaining.Round(time.Second))
	p.requeue(remaining)

	return false
}

// switchActive scales the preview to full size and then points the active
// Service at it. The previous stable revision keeps running for the scale-down delay.
func (p *planner) switchActive(blueGreen *v1alpha1.BlueGreenStrategy, replicas int32) {
	p.status.Promote = true
	p.clearPause()
	p.decision.Replicas[p.cur.Hash] = replicas

	if p.cur.Replicas < replicas || p.cur.Available < replicas {
		p.progressing("promoting preview revision %s: %d of %d replicas available",
			p.cur.Hash, p.cur.Available, replicas)

		return
	}

	delay := time.Duration(v1alpha1.DefaultScaleDownDelaySeconds) * time.Second
	if blueGreen.ScaleDownDelaySeconds != nil {
		delay = time.Duration(*blueGreen.ScaleDownDelaySeconds) * time.Second
	}

	if delay > 0 {
		p.status.ScaleDownAt = ptr.To(metav1.NewTime(p.obs.Now.Add(delay)))
		p.requeue(delay)
	}

	p.complete()
}
