package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbenliogludev/go-bdd-suite/internal/browser/browsertest"
	"github.com/nbenliogludev/go-bdd-suite/internal/config"
	"github.com/nbenliogludev/go-bdd-suite/internal/logging"
	"github.com/nbenliogludev/go-bdd-suite/internal/report"
	"github.com/nbenliogludev/go-bdd-suite/internal/telemetry"
)

type recordingSummarizer struct {
	mu       sync.Mutex
	calls    int
	features []*telemetry.FeatureNode
	err      error
}

func (r *recordingSummarizer) Summarize(_ context.Context, features []*telemetry.FeatureNode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.features = features
	return r.err
}

type fixture struct {
	orch    *Orchestrator
	factory *browsertest.Factory
	report  *report.Report
	index   *report.FailedIndex
	summ    *recordingSummarizer
	console *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	lg, err := logging.New(logging.Options{Level: "info", Console: io.Discard, NoColor: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = lg.Close() })

	rep, err := report.New(filepath.Join(t.TempDir(), "Reports", "Report.html"), "Run")
	require.NoError(t, err)

	fx := &fixture{
		factory: &browsertest.Factory{},
		report:  rep,
		index:   report.NewFailedIndex(),
		summ:    &recordingSummarizer{},
		console: &bytes.Buffer{},
	}
	fx.orch = New(Options{
		Config:     config.NewDefaultConfig(),
		Sessions:   fx.factory,
		Report:     rep,
		Index:      fx.index,
		Summarizer: fx.summ,
		Loggers:    lg,
		Logger:     lg.Run(),
		Console:    fx.console,
	})
	return fx
}

type step struct {
	keyword, text string
	err           error
}

func (fx *fixture) runScenario(t *testing.T, f *Feature, title string, steps ...step) *Scenario {
	t.Helper()
	sc := fx.orch.BeforeScenario(f, title)
	if err := fx.orch.AcquireSession(sc); err != nil {
		require.NoError(t, fx.orch.AfterScenario(sc))
		return sc
	}
	for _, s := range steps {
		fx.orch.BeforeStep(sc, s.keyword, s.text)
		if sc.CurrentStep() != nil {
			sc.Logger.Info().Str("step", s.text).Msg("Running")
		}
		fx.orch.AfterStep(sc, s.err)
	}
	require.NoError(t, fx.orch.AfterScenario(sc))
	return sc
}

func TestOnlyFailedScenariosAreRegistered(t *testing.T) {
	fx := newFixture(t)
	fx.orch.BeforeRun()

	f := fx.orch.BeforeFeature("features/checkout.feature", "Checkout")
	fx.runScenario(t, f, "Complete purchase",
		step{keyword: "Given", text: "I am logged in"},
		step{keyword: "When", text: "I finish the order"},
	)
	fx.runScenario(t, f, "Cart total",
		step{keyword: "Given", text: "I am logged in"},
		step{keyword: "Then", text: "the cart holds 3 items", err: errors.New("expected 3 items, got 2")},
		step{keyword: "And", text: "the total is shown"},
	)

	require.NoError(t, fx.orch.AfterRun(context.Background()))

	failed := fx.orch.Registry().FeaturesWithFailures()
	require.Len(t, failed, 1)
	assert.Equal(t, "Checkout", failed[0].Title)

	scenarios := failed[0].Scenarios()
	require.Len(t, scenarios, 1)
	assert.Equal(t, "Cart total", scenarios[0].Title)

	steps := scenarios[0].Steps
	require.Len(t, steps, 2)

	assert.Equal(t, telemetry.StatusPass, steps[0].Status)
	assert.Empty(t, steps[0].Screenshot)
	assert.Empty(t, steps[0].ExceptionMessage)
	assert.Equal(t, []string{"Running step=I am logged in"}, steps[0].Logs)

	assert.Equal(t, telemetry.StatusFail, steps[1].Status)
	assert.NotEmpty(t, steps[1].Screenshot)
	assert.Equal(t, "expected 3 items, got 2", steps[1].ExceptionMessage)

	for _, s := range fx.factory.All() {
		assert.Equal(t, 1, s.QuitCount())
	}
	assert.Len(t, fx.factory.All(), 2)

	node, ok := fx.index.Lookup("Checkout", "Cart total")
	require.True(t, ok)
	assert.Equal(t, report.StatusFail, node.Status())

	assert.Equal(t, 1, fx.summ.calls)
	assert.Len(t, fx.summ.features, 1)

	_, err := os.Stat(fx.report.Path())
	require.NoError(t, err)
	assert.Contains(t, fx.console.String(), "Checkout")
}

func TestAfterRunRunsOnce(t *testing.T) {
	fx := newFixture(t)
	fx.orch.BeforeRun()
	f := fx.orch.BeforeFeature("a.feature", "Login")
	fx.runScenario(t, f, "Locked out", step{keyword: "Then", text: "I see an error", err: errors.New("no error shown")})

	require.NoError(t, fx.orch.AfterRun(context.Background()))
	require.NoError(t, fx.orch.AfterRun(context.Background()))
	assert.Equal(t, 1, fx.summ.calls)

	assert.ErrorIs(t, fx.report.Flush(), report.ErrAlreadyFlushed)
}

func TestNoSummaryWithoutFailures(t *testing.T) {
	fx := newFixture(t)
	fx.orch.BeforeRun()
	f := fx.orch.BeforeFeature("a.feature", "Login")
	fx.runScenario(t, f, "Successful login", step{keyword: "Given", text: "I log in"})

	require.NoError(t, fx.orch.AfterRun(context.Background()))
	assert.Equal(t, 0, fx.summ.calls)
	assert.Empty(t, fx.orch.Registry().FeaturesWithFailures())
}

func TestSummarizerErrorDoesNotStopFlush(t *testing.T) {
	fx := newFixture(t)
	fx.summ.err = errors.New("gemini generateContent failed: 401")
	fx.orch.BeforeRun()
	f := fx.orch.BeforeFeature("a.feature", "Login")
	fx.runScenario(t, f, "Locked out", step{keyword: "Then", text: "I see an error", err: errors.New("boom")})

	require.NoError(t, fx.orch.AfterRun(context.Background()))
	_, err := os.Stat(fx.report.Path())
	assert.NoError(t, err)
}

func TestBeforeFeatureIsIdempotent(t *testing.T) {
	fx := newFixture(t)

	var wg sync.WaitGroup
	got := make([]*Feature, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = fx.orch.BeforeFeature("cart.feature", "Cart")
		}(i)
	}
	wg.Wait()

	for _, f := range got {
		assert.Same(t, got[0], f)
	}
	assert.Len(t, fx.orch.Registry().Features(), 1)
	assert.Len(t, fx.report.Features(), 1)
}

func TestSessionFailureIsNotRegistered(t *testing.T) {
	fx := newFixture(t)
	fx.factory.Err = errors.New("chrome not found")

	f := fx.orch.BeforeFeature("a.feature", "Login")
	sc := fx.runScenario(t, f, "Successful login", step{keyword: "Given", text: "I log in"})

	assert.Empty(t, sc.Node.Steps)
	assert.Equal(t, report.StatusFail, sc.ReportNode.Status())
	assert.Empty(t, fx.orch.Registry().FeaturesWithFailures())

	_, err := ServicesFrom(WithScenario(context.Background(), sc))
	assert.ErrorContains(t, err, "chrome not found")
}

func TestScreenshotFailureStillMarksStep(t *testing.T) {
	fx := newFixture(t)
	fx.factory.Setup = func(s *browsertest.Session) { s.ShotErr = errors.New("target closed") }

	f := fx.orch.BeforeFeature("a.feature", "Cart")
	sc := fx.runScenario(t, f, "Add item", step{keyword: "When", text: "I add", err: errors.New("button missing")})

	require.Len(t, sc.Node.Steps, 1)
	assert.Equal(t, telemetry.StatusFail, sc.Node.Steps[0].Status)
	assert.Equal(t, "button missing", sc.Node.Steps[0].ExceptionMessage)
	assert.Empty(t, sc.Node.Steps[0].Screenshot)
	assert.Len(t, fx.orch.Registry().FeaturesWithFailures(), 1)
}

func TestServicesFrom(t *testing.T) {
	_, err := ServicesFrom(context.Background())
	assert.ErrorIs(t, err, ErrNoScenario)

	fx := newFixture(t)
	f := fx.orch.BeforeFeature("a.feature", "Login")
	sc := fx.orch.BeforeScenario(f, "x")
	require.NoError(t, fx.orch.AcquireSession(sc))

	svc, err := ServicesFrom(WithScenario(context.Background(), sc))
	require.NoError(t, err)
	assert.NotNil(t, svc.Session)
	assert.Equal(t, "https://www.saucedemo.com/", svc.Config.BaseURL)
}
