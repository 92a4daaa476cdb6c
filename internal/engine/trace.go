package engine

import (
	"fmt"
	"strings"
	"time"
)

// Pipeline step names, in execution order.
const (
	StepClassify  = "classify"
	StepEmbed     = "embed"
	StepFetch     = "fetch"
	StepAnalyze   = "analyze"
	StepAggregate = "aggregate"
	StepRespond   = "respond"
	StepPersist   = "persist"
)

// StepTiming records how long one pipeline step took.
type StepTiming struct {
	Step     string        `json:"step"`
	Duration time.Duration `json:"duration"`
}

// Trace accumulates per-step timings for a single pipeline run. It is not
// safe for concurrent use; each run owns its trace.
type Trace struct {
	start time.Time
	last  time.Time
	steps []StepTiming
}

// NewTrace starts a trace clock.
func NewTrace() *Trace {
	now := time.Now()
	return &Trace{start: now, last: now}
}

// Mark records the time elapsed since the previous mark under the given step.
func (t *Trace) Mark(step string) {
	now := time.Now()
	t.steps = append(t.steps, StepTiming{Step: step, Duration: now.Sub(t.last)})
	t.last = now
}

// Steps returns the recorded timings in order.
func (t *Trace) Steps() []StepTiming {
	return t.steps
}

// Total returns the wall time since the trace started.
func (t *Trace) Total() time.Duration {
	return time.Since(t.start)
}

// Summary renders the timings as "step=duration" pairs for log lines.
func (t *Trace) Summary() string {
	parts := make([]string, 0, len(t.steps))
	for _, s := range t.steps {
		parts = append(parts, fmt.Sprintf("%s=%s", s.Step, s.Duration.Round(time.Microsecond)))
	}
	return strings.Join(parts, " ")
}
