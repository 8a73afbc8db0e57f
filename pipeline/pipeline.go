package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/forgekit/forge/progress"
)

// DefaultConstructMethod is the method name tried on freshly constructed
// instances of construct-only stages, unless overridden per stage or via
// WithDefaultMethod.
const DefaultConstructMethod = "Fit"

// StageObserver receives one observation per executed stage. The metrics
// package provides a Prometheus-backed implementation.
type StageObserver interface {
	ObserveStage(label string, duration time.Duration, success bool)
}

// Pipeline owns an ordered list of stages and runs them sequentially. Stage
// N's side effects (stored attributes, registered objects) are visible to
// stage N+1's resolution and argument building.
type Pipeline struct {
	stages []*Stage

	host          Host
	registry      *Registry
	logger        *slog.Logger
	reporter      progress.Reporter
	observer      StageObserver
	defaultMethod string
	description   string

	// attributes holds stage results when no host is present (or when the
	// host has no slot for the attribute name).
	attributes map[string]any
	// objects is the run-scoped registry of produced values, used to pass
	// outputs between stages by name.
	objects map[string]any

	completed bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithHost sets the host context: the object stages resolve methods against,
// read ambient parameter values from, and store results on.
func WithHost(h Host) Option {
	return func(p *Pipeline) { p.host = h }
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger.With("component", "pipeline") }
}

// WithRegistry sets the registry of free functions and ambient values.
func WithRegistry(r *Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// WithProgress sets the progress reporter notified per stage during a run.
func WithProgress(r progress.Reporter) Option {
	return func(p *Pipeline) { p.reporter = r }
}

// WithMetrics sets the per-stage metrics observer.
func WithMetrics(o StageObserver) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithDefaultMethod overrides the method name tried on freshly constructed
// instances. An empty name disables the convention entirely.
func WithDefaultMethod(name string) Option {
	return func(p *Pipeline) { p.defaultMethod = name }
}

// WithDescription sets the run description passed to the progress reporter.
func WithDescription(d string) Option {
	return func(p *Pipeline) { p.description = d }
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger:        slog.Default().With("component", "pipeline"),
		reporter:      progress.Nop{},
		defaultMethod: DefaultConstructMethod,
		attributes:    make(map[string]any),
		objects:       make(map[string]any),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.host != nil {
		p.objects["host"] = hostObject(p.host)
	}
	p.logger.Debug("pipeline initialized", "has_host", p.host != nil)
	return p
}

// hostObject unwraps adapter hosts so "host" references resolve to the
// caller's actual object.
func hostObject(h Host) any {
	if sh, ok := h.(*StructHost); ok {
		return sh.Target()
	}
	return h
}

// FromList loads the pipeline from an ordered list of step descriptors (see
// parseStep for the accepted shapes). An empty list is an error: there is
// nothing to run.
func (p *Pipeline) FromList(steps []any) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: list of steps is empty", ErrInvalidDescriptor)
	}
	p.logger.Debug("loading pipeline from list", "steps", len(steps))
	for _, desc := range steps {
		st, err := p.parseStep(desc)
		if err != nil {
			return err
		}
		p.appendStage(st)
		p.logger.Debug("step loaded",
			"num", st.num, "stage_id", st.id,
			"attribute", st.Attribute, "method", st.Method, "class", st.Class.String())
	}
	return nil
}

// FromSteps loads the pipeline from typed step specs, bypassing descriptor
// shape inference.
func (p *Pipeline) FromSteps(specs ...StepSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("%w: list of steps is empty", ErrInvalidDescriptor)
	}
	for _, spec := range specs {
		st, err := spec.stage()
		if err != nil {
			return err
		}
		p.appendStage(st)
	}
	return nil
}

// AddStages appends pre-built stages, renumbering them to continue from the
// current pipeline length and assigning fresh ids.
func (p *Pipeline) AddStages(stages ...*Stage) {
	p.logger.Debug("adding stages", "count", len(stages))
	for _, st := range stages {
		p.appendStage(st)
	}
}

func (p *Pipeline) appendStage(st *Stage) {
	st.num = len(p.stages)
	st.id = newStageID()
	p.stages = append(p.stages, st)
}

// Run executes all stages in order. The first error aborts the run; stages
// before the failing one keep their committed side effects, stages after it
// never execute. ctx is checked between stages and passed through to
// invocables whose first parameter is a context.Context.
func (p *Pipeline) Run(ctx context.Context) error {
	if len(p.stages) == 0 {
		return ErrEmptyPipeline
	}
	total := len(p.stages)
	runStart := time.Now()

	p.reporter.RunStarted(p.description, total)
	p.logger.Info("pipeline execution started", "stages", total)

	for i, st := range p.stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run aborted before stage #%03d(%s): %w", st.num, st.id, err)
		}
		p.reporter.StageStarted(st.num, st.id, st.label())
		p.logger.Info("running step started", "num", st.num, "stage_id", st.id, "label", st.label())

		err := p.runStage(ctx, st)
		if p.observer != nil {
			p.observer.ObserveStage(st.label(), st.duration, err == nil)
		}
		if err != nil {
			p.logger.Error("running step failed", "num", st.num, "stage_id", st.id, "error", err)
			return err
		}

		p.logger.Info("running step finished", "num", st.num, "stage_id", st.id, "duration", st.duration)
		p.reporter.StageCompleted(st.num, st.id, i+1, total)
	}

	p.reporter.RunFinished(p.description)
	p.logger.Info("pipeline execution finished", "duration", time.Since(runStart))
	p.completed = true
	return nil
}

// Close releases the progress reporter when it holds resources (e.g. a
// terminal renderer) and detaches the logger.
func (p *Pipeline) Close() error {
	p.logger.Debug("pipeline closed")
	if c, ok := p.reporter.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *Pipeline) newResolver() *resolver {
	return &resolver{
		host:     p.host,
		registry: p.registry,
		objects:  p.objects,
		self:     p,
	}
}

func (p *Pipeline) binder() *binder {
	return &binder{
		host:     p.host,
		objects:  p.objects,
		registry: p.registry,
	}
}

// StageCount returns the number of loaded stages.
func (p *Pipeline) StageCount() int {
	return len(p.stages)
}

// Stages returns a copy of the ordered stage list.
func (p *Pipeline) Stages() []*Stage {
	out := make([]*Stage, len(p.stages))
	copy(out, p.stages)
	return out
}

// ContainsMethod returns how many stages reference the given method name.
// With exact false, substring matches count too.
func (p *Pipeline) ContainsMethod(name string, exact bool) int {
	found := 0
	for _, st := range p.stages {
		if st.Method == "" {
			continue
		}
		if exact && st.Method == name {
			found++
		} else if !exact && strings.Contains(st.Method, name) {
			found++
		}
	}
	return found
}

// ContainsClass reports whether any stage references a class with the given
// type name.
func (p *Pipeline) ContainsClass(name string) bool {
	for _, st := range p.stages {
		if st.Class != nil && st.Class.Name() == name {
			return true
		}
	}
	return false
}

// ContainsArgument returns how many stages carry an explicit argument with
// the given parameter name.
func (p *Pipeline) ContainsArgument(name string) int {
	found := 0
	for _, st := range p.stages {
		if st.Arguments == nil {
			continue
		}
		if _, ok := st.Arguments[name]; ok {
			found++
		}
	}
	return found
}

// ArgumentValue returns the first explicit argument value stored under the
// given parameter name, in stage order.
func (p *Pipeline) ArgumentValue(name string) (any, bool) {
	for _, st := range p.stages {
		if st.Arguments == nil {
			continue
		}
		if v, ok := st.Arguments[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// AllArgumentValues collects every explicit argument value stored under the
// given parameter name, in stage order. The result may be empty.
func (p *Pipeline) AllArgumentValues(name string) []any {
	var values []any
	for _, st := range p.stages {
		if st.Arguments == nil {
			continue
		}
		if v, ok := st.Arguments[name]; ok {
			values = append(values, v)
		}
	}
	return values
}

// GetAttribute returns a stored stage result by attribute name. It fails
// with ErrNotRun before a completed run, and with ErrUnknownAttribute when no
// stage stored a value under that name.
func (p *Pipeline) GetAttribute(name string) (any, error) {
	if !p.completed {
		return nil, ErrNotRun
	}
	if v, ok := p.attributes[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
}

// Attributes returns a copy of the attribute store.
func (p *Pipeline) Attributes() map[string]any {
	out := make(map[string]any, len(p.attributes))
	for k, v := range p.attributes {
		out[k] = v
	}
	return out
}

// Durations returns per-stage timing after a run, in stage order.
func (p *Pipeline) Durations() []StageTiming {
	timings := make([]StageTiming, 0, len(p.stages))
	for _, st := range p.stages {
		timings = append(timings, StageTiming{
			Num:      st.num,
			ID:       st.id,
			Label:    st.label(),
			Duration: st.duration,
		})
	}
	return timings
}

// TotalDuration returns the summed wall-clock duration of all stages.
func (p *Pipeline) TotalDuration() time.Duration {
	var total time.Duration
	for _, st := range p.stages {
		total += st.duration
	}
	return total
}
