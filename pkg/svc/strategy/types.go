package strategy

import (
	"time"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
)

// AllRevisions is the route target of a Service that selects every revision.
const AllRevisions = ""

// ProgressRequeueInterval is how often a progressing rollout is re-planned when
// nothing more specific is pending.
const ProgressRequeueInterval = 5 * time.Second

// RevisionState is the observed state of one revision.
type RevisionState struct {
	Hash   string
	Number int64
	// Replicas is the revision's current desired replica count.
	Replicas  int32
	Ready     int32
	Available int32
	Restarts  int32
	// Health is Healthy, Progressing or Degraded.
	Health  v1alpha1.Phase
	Message string
}

// Observation is everything Plan needs to know about a rollout.
type Observation struct {
	// Rollout must be defaulted.
	Rollout     *v1alpha1.Rollout
	CurrentHash string
	// Revisions are sorted by number, oldest first, and include the current one.
	Revisions []RevisionState
	Now       time.Time
}

// Decision is the outcome of one planning pass.
type Decision struct {
	// Replicas maps every observed revision hash to its desired replica count.
	Replicas map[string]int32
	// Routes maps Service names to the revision hash they select, or AllRevisions.
	Routes map[string]string
	// Prune lists revision hashes to delete.
	Prune        []string
	Status       v1alpha1.RolloutStatus
	RequeueAfter time.Duration
	Events       []Event
}

// Event is a journal-worthy transition of a rollout.
type Event struct {
	Warning  bool
	Reason   string
	Message  string
	Revision string
	Step     int32
}
