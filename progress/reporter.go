// Package progress receives per-stage events from a pipeline run and renders
// or records them. The pipeline core only emits events; what happens to them
// (logging, a status collection for a UI, nothing at all) is decided here.
package progress

import "log/slog"

// Reporter is notified as a pipeline run advances.
type Reporter interface {
	// RunStarted is called once before the first stage runs.
	RunStarted(description string, total int)
	// StageStarted is called immediately before a stage executes.
	StageStarted(num int, id, label string)
	// StageCompleted is called after a stage finishes; completed counts
	// stages done so far out of total.
	StageCompleted(num int, id string, completed, total int)
	// RunFinished is called once after the last stage completes.
	RunFinished(description string)
}

// Nop is a Reporter that ignores all events.
type Nop struct{}

func (Nop) RunStarted(string, int)            {}
func (Nop) StageStarted(int, string, string)  {}
func (Nop) StageCompleted(int, string, int, int) {}
func (Nop) RunFinished(string)                {}

// LogReporter renders progress events as structured log lines and mirrors
// the latest per-stage status into a Collection when one is attached.
type LogReporter struct {
	logger     *slog.Logger
	collection *Collection
}

// NewLogReporter creates a reporter that logs progress via logger. The
// collection is optional; when nil, events are only logged.
func NewLogReporter(logger *slog.Logger, collection *Collection) *LogReporter {
	return &LogReporter{
		logger:     logger.With("component", "progress"),
		collection: collection,
	}
}

func (r *LogReporter) RunStarted(description string, total int) {
	r.logger.Info("run started", "description", description, "stages", total)
}

func (r *LogReporter) StageStarted(num int, id, label string) {
	r.logger.Info("stage running", "num", num, "stage_id", id, "label", label)
	if r.collection != nil {
		r.collection.Set(id, "running: "+label)
	}
}

func (r *LogReporter) StageCompleted(num int, id string, completed, total int) {
	r.logger.Info("stage completed", "num", num, "stage_id", id, "completed", completed, "total", total)
	if r.collection != nil {
		r.collection.Set(id, "completed")
	}
}

func (r *LogReporter) RunFinished(description string) {
	r.logger.Info("run finished", "description", description)
}
