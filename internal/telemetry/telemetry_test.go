package telemetry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainIntoPreservesOrder(t *testing.T) {
	buf := NewLogBuffer()
	step := NewStepNode("Given I open the login page")

	buf.Record("a")
	buf.Record("b")
	buf.Record("c")

	var sunk []string
	buf.DrainInto(step, func(l string) { sunk = append(sunk, l) })

	assert.Equal(t, []string{"a", "b", "c"}, step.Logs)
	assert.Equal(t, []string{"a", "b", "c"}, sunk)
	assert.Zero(t, buf.Len())
}

func TestDrainTwiceIsNoop(t *testing.T) {
	buf := NewLogBuffer()
	step := NewStepNode("step")
	buf.Record("only")

	buf.DrainInto(step, nil)
	buf.DrainInto(step, nil)

	assert.Equal(t, []string{"only"}, step.Logs)
	assert.Nil(t, buf.Drain(nil))
}

func TestLogsDoNotLeakAcrossSteps(t *testing.T) {
	buf := NewLogBuffer()
	first := NewStepNode("first")
	second := NewStepNode("second")

	buf.Record("one")
	buf.DrainInto(first, nil)
	buf.Record("two")
	buf.DrainInto(second, nil)

	assert.Equal(t, []string{"one"}, first.Logs)
	assert.Equal(t, []string{"two"}, second.Logs)
}

func TestMarkFailedKeepsFirstFailure(t *testing.T) {
	step := NewStepNode("Then the total is shown")
	assert.Equal(t, StatusPass, step.Status)

	step.MarkFailed("expected 10 got 9", "c2NyZWVu")
	step.MarkFailed("second", "other")

	assert.Equal(t, StatusFail, step.Status)
	assert.Equal(t, "expected 10 got 9", step.ExceptionMessage)
	assert.Equal(t, "c2NyZWVu", step.Screenshot)
}

func TestScenarioFailed(t *testing.T) {
	sc := NewScenarioNode("Checkout")
	assert.False(t, sc.Failed())
	assert.Nil(t, sc.LastStep())

	sc.AddStep(NewStepNode("one"))
	bad := NewStepNode("two")
	sc.AddStep(bad)
	assert.False(t, sc.Failed())

	bad.MarkFailed("boom", "img")
	assert.True(t, sc.Failed())
	assert.Same(t, bad, sc.FirstFailedStep())
	assert.Same(t, bad, sc.LastStep())
}

func TestPassingStepOmitsFailureFields(t *testing.T) {
	data, err := json.Marshal(NewStepNode("ok"))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.NotContains(t, m, "screenshot")
	assert.NotContains(t, m, "exception_message")
	assert.Equal(t, "Pass", m["status"])
}
