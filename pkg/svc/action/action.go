package action

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	v1alpha1 "github.com/devantler-tech/rollctl/pkg/apis/rollout/v1alpha1"
	"github.com/devantler-tech/rollctl/pkg/svc/revision"
	"github.com/devantler-tech/rollctl/pkg/svc/store"
	"k8s.io/client-go/kubernetes"
)

// AnnotationRestartedAt is stamped on the pod template by Restart.
const AnnotationRestartedAt = "rollctl.io/restartedAt"

var (
	// ErrNotInProgress is returned when an operation needs an in-flight revision.
	ErrNotInProgress = errors.New("rollout has no revision in progress")
	// ErrNotAborted is returned by Retry on a rollout that was not aborted.
	ErrNotAborted = errors.New("rollout is not aborted")
	// ErrRevisionNotFound is returned by Undo when the target revision does not exist.
	ErrRevisionNotFound = errors.New("revision not found")
	// ErrContainerNotFound is returned by SetImage for an unknown container name.
	ErrContainerNotFound = errors.New("container not found")
	// ErrInvalidImageSpec is returned for a set-image argument not of the form container=image.
	ErrInvalidImageSpec = errors.New("invalid image spec, expected container=image")
)

// Service runs operations against rollouts.
type Service struct {
	store     *store.Store
	clientset kubernetes.Interface
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for restart stamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.now = clock
	}
}

// New creates a Service.
func New(rolloutStore *store.Store, clientset kubernetes.Interface, opts ...Option) *Service {
	svc := &Service{
		store:     rolloutStore,
		clientset: clientset,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

// Promote asks the controller to move past the current pause, analysis or step.
// With full set the rollout skips every remaining step and analysis.
func (s *Service) Promote(ctx context.Context, namespace, name string, full bool) (*v1alpha1.Rollout, error) {
	rollout, err := s.store.MutateStatus(ctx, namespace, name, func(rollout *v1alpha1.Rollout) error {
		if !inProgress(rollout) {
			return fmt.Errorf("promote %s/%s: %w", namespace, name, ErrNotInProgress)
		}

		if full {
			rollout.Status.PromoteFull = true
		} else {
			rollout.Status.Promote = true
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("promote rollout: %w", err)
	}

	return rollout, nil
}

// Abort routes traffic back to the stable revision and scales the new one down.
func (s *Service) Abort(ctx context.Context, namespace, name string) (*v1alpha1.Rollout, error) {
	rollout, err := s.store.MutateStatus(ctx, namespace, name, func(rollout *v1alpha1.Rollout) error {
		if !inProgress(rollout) {
			return fmt.Errorf("abort %s/%s: %w", namespace, name, ErrNotInProgress)
		}

		rollout.Status.Abort = true
		rollout.Status.Promote = false
		rollout.Status.PromoteFull = false

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("abort rollout: %w", err)
	}

	return rollout, nil
}

// Retry clears an abort and restarts the strategy from its first step.
func (s *Service) Retry(ctx context.Context, namespace, name string) (*v1alpha1.Rollout, error) {
	rollout, err := s.store.MutateStatus(ctx, namespace, name, func(rollout *v1alpha1.Rollout) error {
		if !rollout.Status.Abort {
			return fmt.Errorf("retry %s/%s: %w", namespace, name, ErrNotAborted)
		}

		status := &rollout.Status
		status.Abort = false
		status.CurrentStepIndex = nil
		status.Analysis = nil
		status.ProgressingSince = nil
		status.ProgressMarker = ""
		status.Phase = v1alpha1.PhaseProgressing
		status.Message = "retrying revision " + status.CurrentRevision

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("retry rollout: %w", err)
	}

	return rollout, nil
}

// Pause freezes the rollout's replica counts.
func (s *Service) Pause(ctx context.Context, namespace, name string) (*v1alpha1.Rollout, error) {
	return s.setPaused(ctx, namespace, name, true)
}

// Resume clears a user pause.
func (s *Service) Resume(ctx context.Context, namespace, name string) (*v1alpha1.Rollout, error) {
	return s.setPaused(ctx, namespace, name, false)
}

// Undo rolls the pod template back to an earlier revision. A toRevision of zero
// selects the newest revision other than the current one.
func (s *Service) Undo(ctx context.Context, namespace, name string, toRevision int64) (*v1alpha1.Rollout, error) {
	revisions, err := revision.List(ctx, s.clientset, namespace, name)
	if err != nil {
		return nil, fmt.Errorf("undo rollout: %w", err)
	}

	rollout, err := s.store.Mutate(ctx, namespace, name, func(rollout *v1alpha1.Rollout) error {
		target, found := undoTarget(revisions, revision.Hash(rollout.Spec.Template), toRevision)
		if !found {
			if toRevision > 0 {
				return fmt.Errorf("%w: %d", ErrRevisionNotFound, toRevision)
			}

			return fmt.Errorf("%w: no previous revision of %s/%s", ErrRevisionNotFound, namespace, name)
		}

		template, err := target.Template()
		if err != nil {
			return err
		}

		rollout.Spec.Template = template

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("undo rollout: %w", err)
	}

	return rollout, nil
}

// SetImage updates container images from container=image pairs. A bare image
// with no container name applies to every container.
func (s *Service) SetImage(ctx context.Context, namespace, name string, specs ...string) (*v1alpha1.Rollout, error) {
	images, err := ParseImageSpecs(specs)
	if err != nil {
		return nil, err
	}

	rollout, err := s.store.Mutate(ctx, namespace, name, func(rollout *v1alpha1.Rollout) error {
		return setImages(rollout, images)
	})
	if err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	return rollout, nil
}

// Restart stamps the pod template so that the controller rolls out a fresh
// revision with the same containers.
func (s *Service) Restart(ctx context.Context, namespace, name string) (*v1alpha1.Rollout, error) {
	stamp := s.now().UTC().Format(time.RFC3339)

	rollout, err := s.store.Mutate(ctx, namespace, name, func(rollout *v1alpha1.Rollout) error {
		if rollout.Spec.Template.Annotations == nil {
			rollout.Spec.Template.Annotations = make(map[string]string, 1)
		}

		rollout.Spec.Template.Annotations[AnnotationRestartedAt] = stamp

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("restart rollout: %w", err)
	}

	return rollout, nil
}

// ParseImageSpecs parses container=image pairs. The key "*" stands for every container.
func ParseImageSpecs(specs []string) (map[string]string, error) {
	if len(specs) == 0 {
		return nil, ErrInvalidImageSpec
	}

	images := make(map[string]string, len(specs))

	for _, spec := range specs {
		container, image, found := strings.Cut(spec, "=")
		if !found {
			container, image = "*", spec
		}

		if container == "" || image == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidImageSpec, spec)
		}

		images[container] = image
	}

	return images, nil
}

// --- internals ---

func (s *Service) setPaused(ctx context.Context, namespace, name string, paused bool) (*v1alpha1.Rollout, error) {
	rollout, err := s.store.Mutate(ctx, namespace, name, func(rollout *v1alpha1.Rollout) error {
		rollout.Spec.Paused = paused

		return nil
	})
	if err != nil {
		verb := "resume"
		if paused {
			verb = "pause"
		}

		return nil, fmt.Errorf("%s rollout: %w", verb, err)
	}

	return rollout, nil
}

func inProgress(rollout *v1alpha1.Rollout) bool {
	status := rollout.Status

	return status.CurrentRevision != "" && status.CurrentRevision != status.StableRevision
}

func undoTarget(revisions []revision.Revision, currentHash string, toRevision int64) (revision.Revision, bool) {
	if toRevision > 0 {
		return revision.FindByNumber(revisions, toRevision)
	}

	for i := len(revisions) - 1; i >= 0; i-- {
		if revisions[i].Hash != currentHash {
			return revisions[i], true
		}
	}

	return revision.Revision{}, false
}

func setImages(rollout *v1alpha1.Rollout, images map[string]string) error {
	containers := rollout.Spec.Template.Spec.Containers
	matched := make(map[string]bool, len(images))

	for i := range containers {
		if image, ok := images[containers[i].Name]; ok {
			containers[i].Image = image
			matched[containers[i].Name] = true
		} else if image, ok := images["*"]; ok {
			containers[i].Image = image
			matched["*"] = true
		}
	}

	for container := range images {
		if !matched[container] {
			return fmt.Errorf("%w: %s", ErrContainerNotFound, container)
		}
	}

	return nil
}
