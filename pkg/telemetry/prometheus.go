// Package telemetry provides responders that export workflow transitions to
// Prometheus and OpenTelemetry. Both are safe to share across workflows.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/petrijr/waypoint/pkg/api"
)

// PrometheusResponder records transitions as Prometheus metrics.
//
// Metrics exposed (all namespaced with "waypoint_"):
//
//   - transitions_total (counter): responder notifications.
//     Labels: workflow, type.
//   - current_position (gauge): position of the current node, -1 once the
//     run has ended. Labels: workflow.
//   - active_runs (gauge): runs launched but not yet completed or abandoned.
//     Labels: workflow.
//   - step_dwell_seconds (histogram): how long a node stayed current.
//     Labels: workflow, step.
//
// Expose it via HTTP for scraping:
//
//	registry := prometheus.NewRegistry()
//	responder := telemetry.NewPrometheusResponder(registry)
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
type PrometheusResponder struct {
	transitions *prometheus.CounterVec
	position    *prometheus.GaugeVec
	active      *prometheus.GaugeVec
	dwell       *prometheus.HistogramVec

	now func() time.Time

	mu      sync.Mutex
	current map[string]visit
}

// visit is the node a run is showing and since when.
type visit struct {
	workflow string
	step     string
	since    time.Time
}

var _ api.Responder = (*PrometheusResponder)(nil)

// NewPrometheusResponder creates and registers the metrics with registry. A
// nil registry uses prometheus.DefaultRegisterer.
func NewPrometheusResponder(registry prometheus.Registerer) *PrometheusResponder {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &PrometheusResponder{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waypoint",
			Name:      "transitions_total",
			Help:      "Workflow transitions reported to responders",
		}, []string{"workflow", "type"}),
		position: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "waypoint",
			Name:      "current_position",
			Help:      "Position of the current node of the most recent run, -1 when none",
		}, []string{"workflow"}),
		active: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "waypoint",
			Name:      "active_runs",
			Help:      "Runs launched and not yet completed or abandoned",
		}, []string{"workflow"}),
		dwell: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "waypoint",
			Name:      "step_dwell_seconds",
			Help:      "Time a node stayed current before the workflow moved on",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		}, []string{"workflow", "step"}),
		now:     time.Now,
		current: make(map[string]visit),
	}
}

func (p *PrometheusResponder) Launch(to api.Node) {
	p.count(to.Workflow.Name, api.EventLaunched)
	p.active.WithLabelValues(to.Workflow.Name).Inc()
	p.enter(to)
}

func (p *PrometheusResponder) Proceed(to, from api.Node) {
	p.count(to.Workflow.Name, api.EventProceeded)
	p.enter(to)
}

func (p *PrometheusResponder) BackUp(from, to api.Node) {
	p.count(to.Workflow.Name, api.EventBackedUp)
	p.enter(to)
}

func (p *PrometheusResponder) Abandon(info api.WorkflowInfo, onFinish func()) {
	p.count(info.Name, api.EventAbandoned)
	p.end(info)
}

func (p *PrometheusResponder) Complete(info api.WorkflowInfo, display *api.Node, args api.PassedArgs) {
	p.count(info.Name, api.EventCompleted)
	p.end(info)
}

func (p *PrometheusResponder) count(workflow string, typ api.EventType) {
	p.transitions.WithLabelValues(workflow, string(typ)).Inc()
}

// enter makes to the current node of its run, closing the previous visit.
func (p *PrometheusResponder) enter(to api.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	p.leave(to.Workflow.RunID, now)
	p.current[to.Workflow.RunID] = visit{workflow: to.Workflow.Name, step: to.StepName(), since: now}
	p.position.WithLabelValues(to.Workflow.Name).Set(float64(to.Position))
}

func (p *PrometheusResponder) end(info api.WorkflowInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.current[info.RunID]; ok {
		p.active.WithLabelValues(info.Name).Dec()
	}
	p.leave(info.RunID, p.now())
	p.position.WithLabelValues(info.Name).Set(-1)
}

// leave observes the dwell time of the run's current visit. Callers hold mu.
func (p *PrometheusResponder) leave(runID string, now time.Time) {
	v, ok := p.current[runID]
	if !ok {
		return
	}
	delete(p.current, runID)
	p.dwell.WithLabelValues(v.workflow, v.step).Observe(now.Sub(v.since).Seconds())
}
