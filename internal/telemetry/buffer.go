package telemetry

import "sync"

// LogBuffer is the FIFO of log lines emitted by one scenario since the
// last drain. Each scenario owns its own buffer; the mutex only guards
// against the logger writing while a step hook drains.
type LogBuffer struct {
	mu    sync.Mutex
	lines []string
}

func NewLogBuffer() *LogBuffer {
	return &LogBuffer{}
}

// Record appends a line. It never blocks on I/O.
func (b *LogBuffer) Record(line string) {
	b.mu.Lock()
	b.lines = append(b.lines, line)
	b.mu.Unlock()
}

// Drain removes every buffered line and hands them to sink in emission
// order. It returns the drained lines; an empty buffer yields nil.
func (b *LogBuffer) Drain(sink func(line string)) []string {
	b.mu.Lock()
	lines := b.lines
	b.lines = nil
	b.mu.Unlock()

	for _, l := range lines {
		if sink != nil {
			sink(l)
		}
	}
	return lines
}

// DrainInto appends the buffered lines to the step node and to sink.
func (b *LogBuffer) DrainInto(step *StepNode, sink func(line string)) {
	b.Drain(func(line string) {
		step.Logs = append(step.Logs, line)
		if sink != nil {
			sink(line)
		}
	})
}

func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}
