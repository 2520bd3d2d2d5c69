package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/phuslu/log"

	"github.com/nbenliogludev/go-bdd-suite/internal/llm"
	"github.com/nbenliogludev/go-bdd-suite/internal/report"
	"github.com/nbenliogludev/go-bdd-suite/internal/telemetry"
)

var (
	ErrUnknownScenario = errors.New("summary names an unknown scenario")
	ErrMalformed       = errors.New("malformed summary response")
)

const screenshotMIME = "image/jpeg"

// ScenarioSummary is one element of the JSON array the model answers with.
type ScenarioSummary struct {
	Scenario       string `json:"scenario"`
	Summary        string `json:"summary"`
	Reasoning      string `json:"reasoning"`
	Recommendation string `json:"recommendation"`
}

// NodeResolver finds the failed report node of a scenario.
type NodeResolver interface {
	Lookup(feature, scenario string) (*report.Node, bool)
}

type Options struct {
	Provider              llm.Provider
	Resolver              NodeResolver
	SystemInstructionPath string
	GenerationConfigPath  string
	Logger                *log.Logger
}

// Summarizer sends one request per feature with failures and attaches the
// returned diagnostics to the failed report nodes.
type Summarizer struct {
	provider llm.Provider
	resolver NodeResolver
	sysPath  string
	genPath  string
	logger   *log.Logger
}

func New(opts Options) *Summarizer {
	logger := opts.Logger
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return &Summarizer{
		provider: opts.Provider,
		resolver: opts.Resolver,
		sysPath:  opts.SystemInstructionPath,
		genPath:  opts.GenerationConfigPath,
		logger:   logger,
	}
}

// Summarize processes every feature. A failing feature is logged and
// skipped; the joined errors are returned once all features were tried.
func (s *Summarizer) Summarize(ctx context.Context, features []*telemetry.FeatureNode) error {
	var errs []error
	for _, f := range features {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("feature %q: %w", f.Title, err))
			break
		}
		records, err := s.SummarizeFeature(ctx, f)
		if err != nil {
			s.logger.Error().Err(err).Str("feature", f.Title).Msg("Failure summary skipped")
			errs = append(errs, fmt.Errorf("feature %q: %w", f.Title, err))
			continue
		}
		s.logger.Info().Str("feature", f.Title).Int("summaries", len(records)).Msg("Failure summary attached")
	}
	return errors.Join(errs...)
}

// SummarizeFeature runs the request for one feature. Either every returned
// record is attached or none is.
func (s *Summarizer) SummarizeFeature(ctx context.Context, f *telemetry.FeatureNode) ([]ScenarioSummary, error) {
	scenarios := f.Scenarios()
	if len(scenarios) == 0 {
		return nil, nil
	}

	req, err := s.BuildRequest(f.Title, scenarios)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("feature", f.Title).Int("scenarios", len(scenarios)).Msg("Requesting failure summary")
	resp, err := s.provider.GenerateContent(ctx, req)
	clearScreenshots(scenarios)
	if err != nil {
		return nil, err
	}

	text, err := resp.FirstText()
	if err != nil {
		return nil, err
	}
	records, err := ParseSummaries(text)
	if err != nil {
		return nil, err
	}

	nodes := make([]*report.Node, len(records))
	for i, rec := range records {
		n, ok := s.resolver.Lookup(f.Title, rec.Scenario)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, rec.Scenario)
		}
		nodes[i] = n
	}
	for i, rec := range records {
		nodes[i].Markdown(FormatMarkdown(rec))
	}
	return records, nil
}

// BuildRequest lays out the preamble, then for each scenario its JSON view
// followed by the screenshot of its failed step.
func (s *Summarizer) BuildRequest(feature string, scenarios []*telemetry.ScenarioNode) (*llm.Request, error) {
	system, err := llm.LoadSystemInstruction(s.sysPath)
	if err != nil {
		return nil, err
	}
	genConfig, err := llm.LoadGenerationConfig(s.genPath)
	if err != nil {
		return nil, err
	}

	req := llm.NewRequest().AddSystemText(system)
	req.GenerationConfig = genConfig
	req.AddText(llm.FailedScenariosPreamble)

	for _, sc := range scenarios {
		view, err := scenarioJSON(sc)
		if err != nil {
			return nil, fmt.Errorf("encode scenario %q: %w", sc.Title, err)
		}
		req.AddText(view)

		if st := sc.FirstFailedStep(); st != nil && st.Screenshot != "" {
			req.AddInlineData(screenshotMIME, st.Screenshot)
		} else {
			req.AddText("No screenshot is available for this scenario.")
		}
	}
	return req, nil
}

type stepView struct {
	Title            string           `json:"title"`
	Logs             []string         `json:"logs"`
	Status           telemetry.Status `json:"status"`
	ExceptionMessage string           `json:"exception_message,omitempty"`
}

type scenarioView struct {
	Title string     `json:"title"`
	Steps []stepView `json:"steps"`
}

// scenarioJSON renders the scenario without screenshots.
func scenarioJSON(sc *telemetry.ScenarioNode) (string, error) {
	v := scenarioView{Title: sc.Title, Steps: make([]stepView, 0, len(sc.Steps))}
	for _, st := range sc.Steps {
		v.Steps = append(v.Steps, stepView{
			Title:            st.Title,
			Logs:             st.Logs,
			Status:           st.Status,
			ExceptionMessage: st.ExceptionMessage,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func clearScreenshots(scenarios []*telemetry.ScenarioNode) {
	for _, sc := range scenarios {
		for _, st := range sc.Steps {
			st.Screenshot = ""
		}
	}
}

// ParseSummaries decodes the model output as a JSON array of records.
func ParseSummaries(text string) ([]ScenarioSummary, error) {
	var records []ScenarioSummary
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for i, r := range records {
		if r.Scenario == "" {
			return nil, fmt.Errorf("%w: record %d has no scenario", ErrMalformed, i)
		}
	}
	return records, nil
}

func FormatMarkdown(r ScenarioSummary) string {
	var sb strings.Builder
	sb.WriteString("**AI Summary**\n\n")
	sb.WriteString("- **Summary:** " + oneLine(r.Summary) + "\n")
	sb.WriteString("- **Reasoning:** " + oneLine(r.Reasoning) + "\n")
	sb.WriteString("- **Recommendation:** " + oneLine(r.Recommendation) + "\n")
	return sb.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
