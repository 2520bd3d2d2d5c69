package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/phuslu/log"

	"github.com/nbenliogludev/go-bdd-suite/internal/browser"
	"github.com/nbenliogludev/go-bdd-suite/internal/config"
	"github.com/nbenliogludev/go-bdd-suite/internal/registry"
	"github.com/nbenliogludev/go-bdd-suite/internal/report"
	"github.com/nbenliogludev/go-bdd-suite/internal/screenshot"
	"github.com/nbenliogludev/go-bdd-suite/internal/telemetry"
)

type SessionFactory interface {
	NewSession() (browser.Session, error)
}

// ScenarioLoggers builds a logger whose output is also recorded into buf.
type ScenarioLoggers interface {
	ForScenario(scenario string, buf *telemetry.LogBuffer) *log.Logger
}

type Summarizer interface {
	Summarize(ctx context.Context, features []*telemetry.FeatureNode) error
}

type Options struct {
	Config     *config.Config
	Sessions   SessionFactory
	Report     *report.Report
	Registry   *registry.Registry
	Index      *report.FailedIndex
	Summarizer Summarizer // optional
	Loggers    ScenarioLoggers
	Logger     *log.Logger
	Console    io.Writer // run summary table, optional
}

// Feature pairs the registry node and the report node of one feature.
type Feature struct {
	ID         string
	Title      string
	Node       *telemetry.FeatureNode
	ReportNode *report.Node
}

// Orchestrator runs the before/after hooks of a run, its features, its
// scenarios and their steps.
type Orchestrator struct {
	cfg        *config.Config
	sessions   SessionFactory
	report     *report.Report
	registry   *registry.Registry
	index      *report.FailedIndex
	summarizer Summarizer
	loggers    ScenarioLoggers
	logger     *log.Logger
	console    io.Writer

	mu       sync.Mutex
	features map[string]*Feature
	started  time.Time

	endOnce sync.Once
	endErr  error
}

func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = &log.DefaultLogger
	}
	idx := opts.Index
	if idx == nil {
		idx = report.NewFailedIndex()
	}
	reg := opts.Registry
	if reg == nil {
		reg = registry.New()
	}
	return &Orchestrator{
		cfg:        opts.Config,
		sessions:   opts.Sessions,
		report:     opts.Report,
		registry:   reg,
		index:      idx,
		summarizer: opts.Summarizer,
		loggers:    opts.Loggers,
		logger:     logger,
		console:    opts.Console,
		features:   make(map[string]*Feature),
	}
}

func (o *Orchestrator) Registry() *registry.Registry { return o.registry }

func (o *Orchestrator) BeforeRun() {
	o.started = time.Now()
	o.logger.Info().Str("report", o.report.Path()).Msg("Test run started")
}

// BeforeFeature registers the feature on first use. Later calls with the
// same id return the same Feature.
func (o *Orchestrator) BeforeFeature(id, title string) *Feature {
	o.mu.Lock()
	defer o.mu.Unlock()

	if f, ok := o.features[id]; ok {
		return f
	}
	f := &Feature{
		ID:         id,
		Title:      title,
		Node:       o.registry.RegisterFeatureStart(title),
		ReportNode: o.report.CreateFeature(title),
	}
	o.features[id] = f
	o.logger.Info().Str("feature", title).Msg("Feature started")
	return f
}

// BeforeScenario creates the scenario's report and telemetry nodes.
func (o *Orchestrator) BeforeScenario(f *Feature, title string) *Scenario {
	buf := telemetry.NewLogBuffer()
	sc := &Scenario{
		Title:      title,
		Feature:    f,
		Node:       telemetry.NewScenarioNode(title),
		ReportNode: f.ReportNode.CreateNode(report.KindScenario, title),
		Logs:       buf,
	}
	if o.loggers != nil {
		sc.Logger = o.loggers.ForScenario(title, buf)
	} else {
		sc.Logger = o.logger
	}
	return sc
}

// AcquireSession opens the scenario's browser. A failure is recorded on
// the scenario's report node and ends the scenario.
func (o *Orchestrator) AcquireSession(sc *Scenario) error {
	session, err := o.sessions.NewSession()
	if err != nil {
		sc.sessionErr = fmt.Errorf("browser session: %w", err)
		sc.ReportNode.Fail(sc.sessionErr.Error())
		o.logger.Error().Err(err).Str("scenario", sc.Title).Msg("Failed to start browser")
		return sc.sessionErr
	}
	sc.Services = &Services{Session: session, Config: o.cfg, Logger: sc.Logger}
	return nil
}

// BeforeStep opens a step. Steps after a failure, or without a session,
// are not recorded.
func (o *Orchestrator) BeforeStep(sc *Scenario, keyword, text string) {
	if sc.sessionErr != nil || sc.Node.Failed() {
		return
	}
	title := keyword + " " + text
	sc.stepReport = sc.ReportNode.CreateNode(report.StepKind(keyword), title)
	sc.step = telemetry.NewStepNode(title)
	sc.Node.AddStep(sc.step)
}

// AfterStep drains the step's logs and, when stepErr is set, records the
// failure with a screenshot.
func (o *Orchestrator) AfterStep(sc *Scenario, stepErr error) {
	step, node := sc.step, sc.stepReport
	if step == nil {
		return
	}
	sc.step, sc.stepReport = nil, nil

	sc.Logs.DrainInto(step, node.CodeBlock)

	if stepErr == nil {
		return
	}

	raw, compressed := o.captureScreenshot(sc)
	step.MarkFailed(stepErr.Error(), compressed)

	node.Fail(stepErr.Error())
	if raw != "" {
		node.Screenshot(raw)
	}
	if err := o.index.Add(node); err != nil {
		o.logger.Warn().Err(err).Msg("Failed step will not receive a summary")
	}
}

func (o *Orchestrator) captureScreenshot(sc *Scenario) (raw, compressed string) {
	if sc.Services == nil || sc.Services.Session == nil {
		return "", ""
	}
	raw, err := screenshot.Capture(sc.Services.Session)
	if err != nil {
		o.logger.Warn().Err(err).Str("scenario", sc.Title).Msg("Screenshot failed")
		return "", ""
	}

	sh := o.cfg.Screenshot
	compressed, err = screenshot.Compress(raw, sh.Quality, sh.MaxWidth, sh.MaxHeight)
	if err != nil {
		o.logger.Warn().Err(err).Str("scenario", sc.Title).Msg("Screenshot compression failed")
		return raw, ""
	}
	return raw, compressed
}

// AfterScenario registers a failed scenario and always quits the browser.
func (o *Orchestrator) AfterScenario(sc *Scenario) error {
	if sc.step != nil {
		o.AfterStep(sc, nil)
	}
	// logs emitted after the last step belong to no step
	sc.Logs.Drain(nil)

	if sc.Node.Failed() {
		if err := o.registry.RegisterFailedScenario(sc.Feature.Node, sc.Node); err != nil {
			o.logger.Error().Err(err).Str("scenario", sc.Title).Msg("Failed to register scenario")
		}
		o.logger.Warn().Str("feature", sc.Feature.Title).Str("scenario", sc.Title).Msg("Scenario failed")
	} else if sc.sessionErr == nil {
		o.logger.Info().Str("feature", sc.Feature.Title).Str("scenario", sc.Title).Msg("Scenario passed")
	}

	if sc.Services == nil || sc.Services.Session == nil {
		return nil
	}
	if err := sc.Services.Session.Quit(); err != nil {
		o.logger.Warn().Err(err).Str("scenario", sc.Title).Msg("Failed to quit browser")
		return fmt.Errorf("quit browser: %w", err)
	}
	return nil
}

// AfterRun summarizes the failures and flushes the report. Only the first
// call does anything.
func (o *Orchestrator) AfterRun(ctx context.Context) error {
	o.endOnce.Do(func() {
		o.endErr = o.afterRun(ctx)
	})
	return o.endErr
}

func (o *Orchestrator) afterRun(ctx context.Context) error {
	failed := o.registry.FeaturesWithFailures()

	if o.summarizer != nil && len(failed) > 0 {
		if err := o.summarizer.Summarize(ctx, failed); err != nil {
			o.logger.Error().Err(err).Msg("Failure summarization incomplete")
		}
	}

	if o.console != nil {
		o.report.WriteSummary(o.console)
	}

	stats := o.report.Stats()
	o.logger.Info().
		Int("features", stats.Features).
		Int("scenarios", stats.Scenarios).
		Int("failed", stats.Failed).
		Dur("elapsed", time.Since(o.started)).
		Msg("Test run finished")

	if err := o.report.Flush(); err != nil && !errors.Is(err, report.ErrAlreadyFlushed) {
		o.logger.Error().Err(err).Msg("Failed to write report")
		return err
	}
	o.logger.Info().Str("path", o.report.Path()).Msg("Report written")
	return nil
}
