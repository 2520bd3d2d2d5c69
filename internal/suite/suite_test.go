package suite

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbenliogludev/go-bdd-suite/internal/browser/browsertest"
	"github.com/nbenliogludev/go-bdd-suite/internal/config"
	"github.com/nbenliogludev/go-bdd-suite/internal/lifecycle"
	"github.com/nbenliogludev/go-bdd-suite/internal/logging"
	"github.com/nbenliogludev/go-bdd-suite/internal/report"
	"github.com/nbenliogludev/go-bdd-suite/internal/telemetry"
)

const checkoutFeature = `Feature: Checkout

  Background:
    Given I am on the shop

  Scenario: Complete purchase
    When I do something that works
    Then it works

  Scenario: Cart total
    When I do something that works
    Then the step fails with "expected 3 items, got 2"
    And it works
`

func testSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I am on the shop$`, func(ctx context.Context) error {
		svc, err := lifecycle.ServicesFrom(ctx)
		if err != nil {
			return err
		}
		svc.Logger.Info().Str("url", svc.Config.BaseURL).Msg("Opening shop")
		return svc.Session.Navigate(svc.Config.BaseURL)
	})
	sc.Step(`^I do something that works$`, func() error { return nil })
	sc.Step(`^it works$`, func() error { return nil })
	sc.Step(`^the step fails with "([^"]*)"$`, func(msg string) error { return errors.New(msg) })
}

type harness struct {
	suite   *Suite
	orch    *lifecycle.Orchestrator
	factory *browsertest.Factory
	index   *report.FailedIndex
	report  *report.Report
}

func newHarness(t *testing.T, interrupt *Interrupt, features ...godog.Feature) *harness {
	t.Helper()

	cfg := config.NewDefaultConfig()
	cfg.Suite.Concurrency = 1

	lg, err := logging.New(logging.Options{Level: "info", Console: io.Discard, NoColor: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = lg.Close() })

	rep, err := report.New(filepath.Join(t.TempDir(), "Report.html"), "Run")
	require.NoError(t, err)

	h := &harness{
		factory: &browsertest.Factory{},
		index:   report.NewFailedIndex(),
		report:  rep,
	}
	h.orch = lifecycle.New(lifecycle.Options{
		Config:   cfg,
		Sessions: h.factory,
		Report:   rep,
		Index:    h.index,
		Loggers:  lg,
		Logger:   lg.Run(),
	})
	h.suite = New(Options{
		Config:       cfg,
		Orchestrator: h.orch,
		Steps:        testSteps,
		Interrupt:    interrupt,
		Logger:       lg.Run(),
		Output:       io.Discard,
		Features:     features,
		NoColors:     true,
	})
	return h
}

func TestRunRecordsOnlyFailedScenarios(t *testing.T) {
	h := newHarness(t, nil, godog.Feature{Name: "features/checkout.feature", Contents: []byte(checkoutFeature)})

	status := h.suite.Run(context.Background())
	assert.Equal(t, 1, status)

	failed := h.orch.Registry().FeaturesWithFailures()
	require.Len(t, failed, 1)
	assert.Equal(t, "Checkout", failed[0].Title)

	scenarios := failed[0].Scenarios()
	require.Len(t, scenarios, 1)
	assert.Equal(t, "Cart total", scenarios[0].Title)

	steps := scenarios[0].Steps
	require.Len(t, steps, 3)
	assert.Equal(t, "Given I am on the shop", steps[0].Title)
	assert.Equal(t, []string{"Opening shop url=https://www.saucedemo.com/"}, steps[0].Logs)

	for _, st := range steps[:2] {
		assert.Equal(t, telemetry.StatusPass, st.Status)
		assert.Empty(t, st.Screenshot)
		assert.Empty(t, st.ExceptionMessage)
	}
	assert.Equal(t, telemetry.StatusFail, steps[2].Status)
	assert.Equal(t, `Then the step fails with "expected 3 items, got 2"`, steps[2].Title)
	assert.Equal(t, "expected 3 items, got 2", steps[2].ExceptionMessage)
	assert.NotEmpty(t, steps[2].Screenshot)

	node, ok := h.index.Lookup("Checkout", "Cart total")
	require.True(t, ok)
	assert.Equal(t, report.KindThen, node.Kind)

	sessions := h.factory.All()
	require.Len(t, sessions, 2)
	for _, s := range sessions {
		assert.Equal(t, 1, s.QuitCount())
		assert.Equal(t, "https://www.saucedemo.com/", s.CurrentURL)
	}

	_, err := os.Stat(h.report.Path())
	require.NoError(t, err)
	assert.ErrorIs(t, h.report.Flush(), report.ErrAlreadyFlushed)
}

func TestRunPassing(t *testing.T) {
	h := newHarness(t, nil, godog.Feature{Name: "login.feature", Contents: []byte(`Feature: Login
  Scenario: Successful login
    Given I am on the shop
    Then it works
`)})

	assert.Equal(t, 0, h.suite.Run(context.Background()))
	assert.Empty(t, h.orch.Registry().FeaturesWithFailures())
	assert.Len(t, h.orch.Registry().Features(), 1)
}

func TestInterruptSkipsScenariosButFlushes(t *testing.T) {
	in := &Interrupt{}
	in.Trigger()
	h := newHarness(t, in, godog.Feature{Name: "features/checkout.feature", Contents: []byte(checkoutFeature)})

	h.suite.Run(context.Background())

	assert.Empty(t, h.factory.All())
	assert.Empty(t, h.orch.Registry().Features())
	_, err := os.Stat(h.report.Path())
	assert.NoError(t, err)
}

func TestSessionFailureFailsScenarioOnly(t *testing.T) {
	h := newHarness(t, nil, godog.Feature{Name: "features/checkout.feature", Contents: []byte(checkoutFeature)})
	h.factory.Err = errors.New("chrome not found")

	assert.Equal(t, 1, h.suite.Run(context.Background()))
	assert.Empty(t, h.orch.Registry().FeaturesWithFailures())
	assert.Equal(t, report.Stats{Features: 1, Scenarios: 2, Failed: 2}, h.report.Stats())
}

func TestInterruptFlag(t *testing.T) {
	var nilInterrupt *Interrupt
	assert.False(t, nilInterrupt.Interrupted())

	in := NewInterrupt()
	defer in.Close()
	assert.False(t, in.Interrupted())
	in.Trigger()
	assert.True(t, in.Interrupted())
	in.Close()
}
