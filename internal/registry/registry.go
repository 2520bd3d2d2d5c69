package registry

import (
	"errors"
	"sync"

	"github.com/nbenliogludev/go-bdd-suite/internal/telemetry"
)

var ErrNotFailed = errors.New("scenario has no failed step")

// Registry is the process-wide set of features started during a run.
// The registry lock only guards the feature list; scenario appends lock
// the feature they belong to.
type Registry struct {
	mu       sync.Mutex
	features []*telemetry.FeatureNode
}

func New() *Registry {
	return &Registry{}
}

// RegisterFeatureStart creates and records the node for a feature. The
// returned node is safe to share between that feature's scenarios.
func (r *Registry) RegisterFeatureStart(title string) *telemetry.FeatureNode {
	f := telemetry.NewFeatureNode(title)
	r.mu.Lock()
	r.features = append(r.features, f)
	r.mu.Unlock()
	return f
}

// RegisterFailedScenario appends sc to its feature. Scenarios without a
// failed step are rejected.
func (r *Registry) RegisterFailedScenario(f *telemetry.FeatureNode, sc *telemetry.ScenarioNode) error {
	if !sc.Failed() {
		return ErrNotFailed
	}
	f.AppendScenario(sc)
	return nil
}

// FeaturesWithFailures returns, in start order, every feature that has at
// least one registered scenario. Call it after all scenarios finished.
func (r *Registry) FeaturesWithFailures() []*telemetry.FeatureNode {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*telemetry.FeatureNode
	for _, f := range r.features {
		if f.Len() > 0 {
			out = append(out, f)
		}
	}
	return out
}

func (r *Registry) Features() []*telemetry.FeatureNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*telemetry.FeatureNode, len(r.features))
	copy(out, r.features)
	return out
}
