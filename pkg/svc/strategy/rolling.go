package strategy

import (
	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// rollingUpdate replaces old pods with new ones within the surge and
// unavailability bounds, the way a Deployment does across its ReplicaSets.
func (p *planner) rollingUpdate() {
	replicas := p.desired()
	maxSurge, maxUnavailable := surgeBounds(p.rollout.Spec.Strategy.RollingUpdate, replicas)

	var allPods int32
	for _, rev := range p.obs.Revisions {
		allPods += rev.Replicas
	}

	newReplicas := min(p.cur.Replicas, replicas)
	if maxTotal := replicas + maxSurge; allPods < maxTotal && newReplicas < replicas {
		scaleUp := min(maxTotal-allPods, replicas-newReplicas)
		newReplicas += scaleUp
	}

	allPods += newReplicas - p.cur.Replicas
	p.decision.Replicas[p.cur.Hash] = newReplicas

	p.scaleDownOldForRollingUpdate(allPods, newReplicas, replicas-maxUnavailable)
	p.route(p.cur.Hash, p.cur.Hash)

	oldRemaining := int32(0)
	for _, rev := range p.obs.Revisions {
		if rev.Hash != p.cur.Hash {
			oldRemaining += rev.Replicas
		}
	}

	if newReplicas >= replicas && p.cur.Available >= replicas && oldRemaining == 0 {
		p.complete()

		return
	}

	p.progressing("updated %d of %d replicas, %d available, %d old replicas remaining",
		newReplicas, replicas, p.cur.Available, oldRemaining)
}

// scaleDownOldForRollingUpdate first removes unavailable old pods and then as
// many available old pods as minAvailable allows, oldest revision first.
func (p *planner) scaleDownOldForRollingUpdate(allPods, newReplicas, minAvailable int32) {
	newUnavailable := max(newReplicas-p.cur.Available, 0)

	maxScaledDown := allPods - minAvailable - newUnavailable
	if maxScaledDown <= 0 {
		return
	}

	for _, rev := range p.obs.Revisions {
		if rev.Hash == p.cur.Hash || maxScaledDown <= 0 {
			continue
		}

		unhealthy := max(rev.Replicas-rev.Available, 0)
		cleanup := min(unhealthy, maxScaledDown)
		p.decision.Replicas[rev.Hash] = rev.Replicas - cleanup
		maxScaledDown -= cleanup
	}

	availablePods := p.cur.Available
	for _, rev := range p.obs.Revisions {
		if rev.Hash != p.cur.Hash {
			availablePods += min(rev.Available, p.decision.Replicas[rev.Hash])
		}
	}

	totalScaleDown := availablePods - minAvailable

	for _, rev := range p.obs.Revisions {
		if rev.Hash == p.cur.Hash || totalScaleDown <= 0 {
			continue
		}

		current := p.decision.Replicas[rev.Hash]
		scaleDown := min(current, totalScaleDown)
		p.decision.Replicas[rev.Hash] = current - scaleDown
		totalScaleDown -= scaleDown
	}
}

// surgeBounds resolves maxSurge (rounded up) and maxUnavailable (rounded down)
// against replicas. When both resolve to zero, one pod may be unavailable.
func surgeBounds(rolling *v1alpha1.RollingUpdateStrategy, replicas int32) (int32, int32) {
	surgeValue := intstr.FromString(v1alpha1.DefaultMaxSurge)
	unavailableValue := intstr.FromString(v1alpha1.DefaultMaxUnavailable)

	if rolling != nil {
		if rolling.MaxSurge != nil {
			surgeValue = *rolling.MaxSurge
		}

		if rolling.MaxUnavailable != nil {
			unavailableValue = *rolling.MaxUnavailable
		}
	}

	surge, err := intstr.GetScaledValueFromIntOrPercent(&surgeValue, int(replicas), true)
	if err != nil {
		surge = 0
	}

	unavailable, err := intstr.GetScaledValueFromIntOrPercent(&unavailableValue, int(replicas), false)
	if err != nil {
		unavailable = 0
	}

	if surge == 0 && unavailable == 0 {
		unavailable = 1
	}

	return int32(surge), int32(unavailable) //nolint:gosec // bounded by replicas
}
