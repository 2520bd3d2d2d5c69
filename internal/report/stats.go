package report

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type Stats struct {
	Features  int
	Scenarios int
	Passed    int
	Failed    int
}

type FeatureStats struct {
	Name string
	Stats
}

func (r *Report) Stats() Stats {
	var total Stats
	for _, fs := range r.FeatureStats() {
		total.Features++
		total.Scenarios += fs.Scenarios
		total.Passed += fs.Passed
		total.Failed += fs.Failed
	}
	return total
}

func (r *Report) FeatureStats() []FeatureStats {
	var out []FeatureStats
	for _, f := range r.Features() {
		fs := FeatureStats{Name: f.Name, Stats: Stats{Features: 1}}
		for _, sc := range f.Children() {
			fs.Scenarios++
			if sc.Status() == StatusFail {
				fs.Failed++
			} else {
				fs.Passed++
			}
		}
		out = append(out, fs)
	}
	return out
}

// WriteSummary prints a per-feature pass/fail table to w.
func (r *Report) WriteSummary(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Run summary")

	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("FEATURE"),
		text.FgHiCyan.Sprint("SCENARIOS"),
		text.FgHiCyan.Sprint("PASSED"),
		text.FgHiCyan.Sprint("FAILED"),
	})

	for _, fs := range r.FeatureStats() {
		failed := text.FgGreen.Sprint(fs.Failed)
		if fs.Failed > 0 {
			failed = text.FgRed.Sprint(fs.Failed)
		}
		t.AppendRow(table.Row{fs.Name, fs.Scenarios, fs.Passed, failed})
	}

	total := r.Stats()
	t.AppendFooter(table.Row{"TOTAL", total.Scenarios, total.Passed, total.Failed})
	t.Render()
}
