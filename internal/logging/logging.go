package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/phuslu/log"

	"github.com/nbenliogludev/go-bdd-suite/internal/telemetry"
)

// Options configures the run logger.
type Options struct {
	Level    string
	JSONFile string    // optional JSON lines file
	Console  io.Writer // defaults to stderr
	NoColor  bool
}

// Logging owns the writers shared by the run logger and every scenario
// logger derived from it.
type Logging struct {
	level   log.Level
	console log.Writer
	file    *log.FileWriter
	run     *log.Logger
}

func New(opts Options) (*Logging, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	l := &Logging{
		level: log.ParseLevel(opts.Level),
		console: &log.ConsoleWriter{
			ColorOutput:    !opts.NoColor,
			QuoteString:    true,
			EndWithMessage: true,
			Writer:         console,
		},
	}

	if opts.JSONFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.JSONFile), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		l.file = &log.FileWriter{
			Filename:     opts.JSONFile,
			FileMode:     0o644,
			EnsureFolder: true,
		}
	}

	l.run = &log.Logger{
		Level:  l.level,
		Writer: l.writer(nil),
	}
	return l, nil
}

// Run returns the run-level logger.
func (l *Logging) Run() *log.Logger {
	return l.run
}

// ForScenario returns a logger tagged with the scenario name whose entries
// are also recorded, formatted, into buf.
func (l *Logging) ForScenario(scenario string, buf *telemetry.LogBuffer) *log.Logger {
	return &log.Logger{
		Level:   l.level,
		Context: log.NewContext(nil).Str("scenario", scenario).Value(),
		Writer:  l.writer(buf),
	}
}

func (l *Logging) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logging) writer(buf *telemetry.LogBuffer) log.Writer {
	ws := log.MultiEntryWriter{l.console}
	if l.file != nil {
		ws = append(ws, l.file)
	}
	if buf != nil {
		ws = append(ws, BufferWriter(buf))
	}
	return &ws
}

// BufferWriter formats entries as "message key=value ..." and records them
// into buf. The scenario field is dropped since the buffer is already
// scoped to one scenario.
func BufferWriter(buf *telemetry.LogBuffer) log.Writer {
	return &log.ConsoleWriter{
		Writer: io.Discard,
		Formatter: func(w io.Writer, a *log.FormatterArgs) (int, error) {
			line := FormatLine(a)
			buf.Record(line)
			return len(line), nil
		},
	}
}

func FormatLine(a *log.FormatterArgs) string {
	var sb strings.Builder
	sb.WriteString(a.Message)
	for _, kv := range a.KeyValues {
		if kv.Key == "scenario" {
			continue
		}
		sb.WriteByte(' ')
		sb.WriteString(kv.Key)
		sb.WriteByte('=')
		sb.WriteString(kv.Value)
	}
	return sb.String()
}
