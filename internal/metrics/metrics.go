// Package metrics exposes the portal's Prometheus counters on a private
// registry served at /metrics.
package metrics

import (
    "fmt"
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

// Workflow names used as label values.
const (
    WorkflowIntake = "intake"
    WorkflowClose  = "close_ticket"
    WorkflowWalkin = "create_walkin"
    WorkflowStock  = "inventory_edit"
)

// Recorder holds the registered collectors.  A nil *Recorder records
// nothing.
type Recorder struct {
    reg *prometheus.Registry

    workflows     *prometheus.CounterVec // portal_workflow_total{workflow,outcome}
    duration      *prometheus.SummaryVec // portal_workflow_duration_seconds{workflow}
    partRows      *prometheus.CounterVec // portal_part_rows_total{kind}
    events        *prometheus.CounterVec // portal_events_published_total{type,result}
    partsFallback prometheus.Counter     // portal_parts_catalog_fallback_total
}

// New builds a Recorder on a fresh registry.
func New() (*Recorder, error) {
    reg := prometheus.NewRegistry()
    r := &Recorder{
        reg: reg,
        workflows: prometheus.NewCounterVec(prometheus.CounterOpts{
            Name: "portal_workflow_total",
            Help: "Workflow executions partitioned by workflow and outcome (ok, invalid, failed).",
        }, []string{"workflow", "outcome"}),
        duration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
            Name:       "portal_workflow_duration_seconds",
            Help:       "Workflow latency in seconds.",
            Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
        }, []string{"workflow"}),
        partRows: prometheus.NewCounterVec(prometheus.CounterOpts{
            Name: "portal_part_rows_total",
            Help: "Part-usage rows written, by kind (ticket, walkin).",
        }, []string{"kind"}),
        events: prometheus.NewCounterVec(prometheus.CounterOpts{
            Name: "portal_events_published_total",
            Help: "Domain events handed to the broker, by type and result.",
        }, []string{"type", "result"}),
        partsFallback: prometheus.NewCounter(prometheus.CounterOpts{
            Name: "portal_parts_catalog_fallback_total",
            Help: "Part lookups that fell back to the full catalog.",
        }),
    }
    for _, c := range []prometheus.Collector{r.workflows, r.duration, r.partRows, r.events, r.partsFallback} {
        if err := reg.Register(c); err != nil {
            return nil, fmt.Errorf("metrics: register: %w", err)
        }
    }
    if err := reg.Register(collectors.NewGoCollector()); err != nil {
        return nil, fmt.Errorf("metrics: register go collector: %w", err)
    }
    return r, nil
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
    if r == nil {
        return http.NotFoundHandler()
    }
    return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Workflow records one workflow run.
func (r *Recorder) Workflow(name, outcome string, started time.Time) {
    if r == nil {
        return
    }
    r.workflows.WithLabelValues(name, outcome).Inc()
    r.duration.WithLabelValues(name).Observe(time.Since(started).Seconds())
}

// PartRows counts part-usage rows written.
func (r *Recorder) PartRows(kind string, n int) {
    if r == nil || n <= 0 {
        return
    }
    r.partRows.WithLabelValues(kind).Add(float64(n))
}

// Event counts a publish attempt.
func (r *Recorder) Event(typ string, err error) {
    if r == nil {
        return
    }
    result := "ok"
    if err != nil {
        result = "error"
    }
    r.events.WithLabelValues(typ, result).Inc()
}

// CatalogFallback counts a fail-open parts lookup.
func (r *Recorder) CatalogFallback() {
    if r == nil {
        return
    }
    r.partsFallback.Inc()
}
