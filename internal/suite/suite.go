// Package suite binds the lifecycle orchestrator to godog.
package suite

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cucumber/godog"
	"github.com/phuslu/log"

	"github.com/nbenliogludev/go-bdd-suite/internal/config"
	"github.com/nbenliogludev/go-bdd-suite/internal/lifecycle"
)

var (
	ErrInterrupted = errors.New("run interrupted")
	errNoFeature   = errors.New("no feature in document")
)

// Options for a Suite. Features, when set, replaces reading feature files
// from cfg.Suite.Paths.
type Options struct {
	Config       *config.Config
	Orchestrator *lifecycle.Orchestrator
	Steps        func(*godog.ScenarioContext)
	Interrupt    *Interrupt
	Logger       *log.Logger
	Output       io.Writer
	Features     []godog.Feature
	NoColors     bool
}

type Suite struct {
	cfg       *config.Config
	orch      *lifecycle.Orchestrator
	steps     func(*godog.ScenarioContext)
	interrupt *Interrupt
	logger    *log.Logger
	output    io.Writer
	features  []godog.Feature
	noColors  bool
	catalog   *Catalog
}

func New(opts Options) *Suite {
	logger := opts.Logger
	if logger == nil {
		logger = &log.DefaultLogger
	}
	s := &Suite{
		cfg:       opts.Config,
		orch:      opts.Orchestrator,
		steps:     opts.Steps,
		interrupt: opts.Interrupt,
		logger:    logger,
		output:    opts.Output,
		features:  opts.Features,
		noColors:  opts.NoColors,
		catalog:   NewCatalog(),
	}
	for _, f := range opts.Features {
		s.catalog.Register(f.Name, f.Contents)
	}
	return s
}

// Run executes the features and returns godog's exit status. The report
// is flushed even when godog never reaches its after-suite hook.
func (s *Suite) Run(ctx context.Context) int {
	opts := godog.Options{
		Format:          s.cfg.Suite.Format,
		Concurrency:     s.cfg.Suite.Concurrency,
		Paths:           s.cfg.Suite.Paths,
		Tags:            s.cfg.Suite.Tags,
		Output:          s.output,
		FeatureContents: s.features,
		DefaultContext:  ctx,
		Strict:          true,
		NoColors:        s.noColors,
	}
	if len(s.features) > 0 {
		opts.Paths = nil
	}

	status := godog.TestSuite{
		Name:                 "bddsuite",
		TestSuiteInitializer: func(tsc *godog.TestSuiteContext) { s.initSuite(ctx, tsc) },
		ScenarioInitializer:  s.initScenario,
		Options:              &opts,
	}.Run()

	if err := s.orch.AfterRun(ctx); err != nil && status == 0 {
		status = 1
	}
	return status
}

func (s *Suite) initSuite(ctx context.Context, tsc *godog.TestSuiteContext) {
	tsc.BeforeSuite(s.orch.BeforeRun)
	tsc.AfterSuite(func() {
		if err := s.orch.AfterRun(ctx); err != nil {
			s.logger.Error().Err(err).Msg("After-run phase failed")
		}
	})
}

type keywordsKey struct{}

type pickleState struct {
	pickle  *godog.Scenario
	feature *FeatureInfo
}

func (s *Suite) initScenario(sc *godog.ScenarioContext) {
	sc.Before(s.beforeScenario)
	sc.After(s.afterScenario)
	sc.StepContext().Before(s.beforeStep)
	sc.StepContext().After(s.afterStep)

	if s.steps != nil {
		s.steps(sc)
	}
}

func (s *Suite) beforeScenario(ctx context.Context, p *godog.Scenario) (context.Context, error) {
	if s.interrupt.Interrupted() {
		s.logger.Warn().Str("scenario", p.Name).Msg("Skipping scenario after interrupt")
		return ctx, ErrInterrupted
	}

	info := s.catalog.Feature(p.Uri)
	feature := s.orch.BeforeFeature(info.ID, info.Title)
	scenario := s.orch.BeforeScenario(feature, p.Name)

	ctx = lifecycle.WithScenario(ctx, scenario)
	ctx = context.WithValue(ctx, keywordsKey{}, &pickleState{pickle: p, feature: info})

	if err := s.orch.AcquireSession(scenario); err != nil {
		return ctx, err
	}
	return ctx, nil
}

func (s *Suite) afterScenario(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
	scenario, ok := lifecycle.ScenarioFrom(ctx)
	if !ok {
		return ctx, nil
	}
	// a browser that would not quit is logged, not held against the scenario
	_ = s.orch.AfterScenario(scenario)
	return ctx, nil
}

func (s *Suite) beforeStep(ctx context.Context, st *godog.Step) (context.Context, error) {
	scenario, ok := lifecycle.ScenarioFrom(ctx)
	if !ok {
		return ctx, nil
	}
	s.orch.BeforeStep(scenario, keywordOf(ctx, st), st.Text)
	return ctx, nil
}

func (s *Suite) afterStep(ctx context.Context, st *godog.Step, status godog.StepResultStatus, err error) (context.Context, error) {
	scenario, ok := lifecycle.ScenarioFrom(ctx)
	if !ok {
		return ctx, nil
	}
	s.orch.AfterStep(scenario, stepError(st, status, err))
	return ctx, nil
}

func keywordOf(ctx context.Context, st *godog.Step) string {
	ps, ok := ctx.Value(keywordsKey{}).(*pickleState)
	if !ok {
		return "*"
	}
	for i, candidate := range ps.pickle.Steps {
		if candidate.Id == st.Id {
			return ps.feature.Keyword(ps.pickle, i)
		}
	}
	return "*"
}

// stepError is the error a step is recorded with: the step's own error
// when it failed, a description when godog could not run it, nil otherwise.
func stepError(st *godog.Step, status godog.StepResultStatus, err error) error {
	switch status {
	case godog.StepFailed:
		if err == nil {
			err = errors.New("step failed")
		}
		return err
	case godog.StepUndefined:
		return fmt.Errorf("undefined step: %s", st.Text)
	case godog.StepPending:
		return fmt.Errorf("pending step: %s", st.Text)
	case godog.StepAmbiguous:
		if err == nil {
			err = fmt.Errorf("ambiguous step: %s", st.Text)
		}
		return err
	default:
		return nil
	}
}
