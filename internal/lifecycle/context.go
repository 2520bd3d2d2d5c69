package lifecycle

import (
	"context"
	"errors"

	"github.com/phuslu/log"

	"github.com/nbenliogludev/go-bdd-suite/internal/browser"
	"github.com/nbenliogludev/go-bdd-suite/internal/config"
	"github.com/nbenliogludev/go-bdd-suite/internal/report"
	"github.com/nbenliogludev/go-bdd-suite/internal/telemetry"
)

var ErrNoScenario = errors.New("no scenario in context")

// Services is what step definitions get to work with.
type Services struct {
	Session browser.Session
	Config  *config.Config
	Logger  *log.Logger
}

// Scenario holds everything one running scenario owns: its telemetry and
// report nodes, its log buffer and, once acquired, its browser session.
// It is never shared between scenarios.
type Scenario struct {
	Title      string
	Feature    *Feature
	Node       *telemetry.ScenarioNode
	ReportNode *report.Node
	Logs       *telemetry.LogBuffer
	Logger     *log.Logger
	Services   *Services

	step       *telemetry.StepNode
	stepReport *report.Node
	sessionErr error
}

// CurrentStep returns the open step or nil between steps.
func (s *Scenario) CurrentStep() *telemetry.StepNode {
	return s.step
}

type scenarioKey struct{}

func WithScenario(ctx context.Context, sc *Scenario) context.Context {
	return context.WithValue(ctx, scenarioKey{}, sc)
}

func ScenarioFrom(ctx context.Context) (*Scenario, bool) {
	sc, ok := ctx.Value(scenarioKey{}).(*Scenario)
	return sc, ok && sc != nil
}

// ServicesFrom returns the services of the scenario running in ctx.
func ServicesFrom(ctx context.Context) (*Services, error) {
	sc, ok := ScenarioFrom(ctx)
	if !ok {
		return nil, ErrNoScenario
	}
	if sc.Services == nil || sc.Services.Session == nil {
		if sc.sessionErr != nil {
			return nil, sc.sessionErr
		}
		return nil, browser.ErrSessionClosed
	}
	return sc.Services, nil
}
