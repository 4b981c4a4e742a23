package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitekit"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration   *prom.HistogramVec
	stageResults    *prom.CounterVec
	composeDuration prom.Histogram
	composeOutcome  *prom.CounterVec
	plugins         prom.Gauge
	blocks          prom.Gauge
	navNodes        prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them with reg. A nil reg
// gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual composition stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		composeDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "compose_duration_seconds",
			Help:      "Total composition duration",
			Buckets:   prom.DefBuckets,
		}),
		composeOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "compose_outcomes_total",
			Help:      "Composition outcomes by final status",
		}, []string{"result"}),
		plugins: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "plugins",
			Help:      "Plugins active in the last composition",
		}),
		blocks: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "blocks",
			Help:      "Block definitions in the last resolved registry",
		}),
		navNodes: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "nav_nodes",
			Help:      "Nodes in the last navigation tree",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.composeDuration, pr.composeOutcome, pr.plugins, pr.blocks, pr.navNodes)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveComposeDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.composeDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncComposeOutcome(result ResultLabel) {
	if p == nil {
		return
	}
	p.composeOutcome.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) SetPluginCount(n int) {
	if p == nil {
		return
	}
	p.plugins.Set(float64(n))
}

func (p *PrometheusRecorder) SetBlockCount(n int) {
	if p == nil {
		return
	}
	p.blocks.Set(float64(n))
}

func (p *PrometheusRecorder) SetNavNodes(n int) {
	if p == nil {
		return
	}
	p.navNodes.Set(float64(n))
}

// WriteTextfile writes every metric gathered from g to path in the node-exporter
// textfile format. The file is replaced atomically.
func WriteTextfile(path string, g prom.Gatherer) error {
	if err := prom.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
