package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder turns pipeline stage events into metrics. It implements the
// pipeline package's StageObserver interface over either registry mode.
type Recorder struct {
	stageDuration GaugeVec
	stageSeconds  Counter
	stagesTotal   CounterVec
}

// NewRecorder creates a Recorder with its instruments registered in reg.
func NewRecorder(reg Registry) (*Recorder, error) {
	stageDuration, err := reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stage_duration_seconds",
		Help: "Wall-clock duration of the most recent execution of each stage.",
	}, []string{"stage"})
	if err != nil {
		return nil, fmt.Errorf("creating stage duration gauge: %w", err)
	}

	stageSeconds, err := reg.NewCounter(prometheus.CounterOpts{
		Name: "stage_seconds_total",
		Help: "Total wall-clock seconds spent executing stages.",
	})
	if err != nil {
		return nil, fmt.Errorf("creating stage seconds counter: %w", err)
	}

	stagesTotal, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "stages_total",
		Help: "Number of executed stages by outcome.",
	}, []string{"status"})
	if err != nil {
		return nil, fmt.Errorf("creating stages counter: %w", err)
	}

	return &Recorder{
		stageDuration: stageDuration,
		stageSeconds:  stageSeconds,
		stagesTotal:   stagesTotal,
	}, nil
}

// ObserveStage records one stage execution.
func (r *Recorder) ObserveStage(label string, duration time.Duration, success bool) {
	r.stageDuration.With(prometheus.Labels{"stage": label}).Set(duration.Seconds())
	r.stageSeconds.Add(duration.Seconds())

	status := "ok"
	if !success {
		status = "error"
	}
	r.stagesTotal.With(prometheus.Labels{"status": status}).Inc()
}
