package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Composition stages.
const (
	StagePlugins    = "plugins"
	StageBlocks     = "blocks"
	StageNavigation = "navigation"
)

// Recorder defines observability hooks for composition metrics.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveComposeDuration(d time.Duration)
	IncComposeOutcome(result ResultLabel)
	SetPluginCount(n int)
	SetBlockCount(n int)
	SetNavNodes(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveComposeDuration(time.Duration)       {}
func (NoopRecorder) IncComposeOutcome(ResultLabel)              {}
func (NoopRecorder) SetPluginCount(int)                         {}
func (NoopRecorder) SetBlockCount(int)                          {}
func (NoopRecorder) SetNavNodes(int)                            {}
