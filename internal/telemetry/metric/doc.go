// Package metric provides Prometheus metrics for httpkom.
//
//   - prometheus.go: the metrics registry, recording helpers and the
//     /metrics handler
//   - collector.go: a collector reporting live sessions per server
//
// Recording helpers are safe to call on a nil *Registry, so components can
// run without metrics.
package metric
