// Package metrics records composition metrics.
//
// Components receive a Recorder and default to NoopRecorder, so call sites never check
// for nil:
//
//	rec := metrics.Recorder(metrics.NoopRecorder{})
//	if metricsFile != "" {
//	    reg := prom.NewRegistry()
//	    rec = metrics.NewPrometheusRecorder(reg)
//	    defer metrics.WriteTextfile(metricsFile, reg)
//	}
//
// The Prometheus recorder is meant for one-shot CLI runs; WriteTextfile emits the
// node-exporter textfile format so a cron or CI job can publish the numbers.
package metrics
