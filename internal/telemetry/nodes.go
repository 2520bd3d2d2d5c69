package telemetry

import "sync"

type Status string

const (
	StatusPass Status = "Pass"
	StatusFail Status = "Fail"
)

// StepNode is the in-memory record of one executed step.
// Screenshot is a compressed base64 JPEG and is only set on failure.
type StepNode struct {
	Title            string   `json:"title"`
	Logs             []string `json:"logs"`
	Status           Status   `json:"status"`
	Screenshot       string   `json:"screenshot,omitempty"`
	ExceptionMessage string   `json:"exception_message,omitempty"`
}

func NewStepNode(title string) *StepNode {
	return &StepNode{Title: title, Logs: []string{}, Status: StatusPass}
}

// MarkFailed records the first failure of the step. Later calls are ignored.
func (s *StepNode) MarkFailed(message, screenshot string) {
	if s.Status == StatusFail {
		return
	}
	s.Status = StatusFail
	s.ExceptionMessage = message
	s.Screenshot = screenshot
}

type ScenarioNode struct {
	Title string      `json:"title"`
	Steps []*StepNode `json:"steps"`
}

func NewScenarioNode(title string) *ScenarioNode {
	return &ScenarioNode{Title: title, Steps: []*StepNode{}}
}

func (s *ScenarioNode) AddStep(step *StepNode) {
	s.Steps = append(s.Steps, step)
}

// LastStep returns the most recently started step or nil.
func (s *ScenarioNode) LastStep() *StepNode {
	if len(s.Steps) == 0 {
		return nil
	}
	return s.Steps[len(s.Steps)-1]
}

// Failed reports whether any step of the scenario has status Fail.
func (s *ScenarioNode) Failed() bool {
	return s.FirstFailedStep() != nil
}

func (s *ScenarioNode) FirstFailedStep() *StepNode {
	for _, st := range s.Steps {
		if st.Status == StatusFail {
			return st
		}
	}
	return nil
}

// FeatureNode collects the failed scenarios of one feature.
// Appends are serialized by the feature's own mutex.
type FeatureNode struct {
	Title string

	mu        sync.Mutex
	scenarios []*ScenarioNode
}

func NewFeatureNode(title string) *FeatureNode {
	return &FeatureNode{Title: title}
}

func (f *FeatureNode) AppendScenario(s *ScenarioNode) {
	f.mu.Lock()
	f.scenarios = append(f.scenarios, s)
	f.mu.Unlock()
}

// Scenarios returns a copy of the scenario list in arrival order.
func (f *FeatureNode) Scenarios() []*ScenarioNode {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*ScenarioNode, len(f.scenarios))
	copy(out, f.scenarios)
	return out
}

func (f *FeatureNode) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scenarios)
}
