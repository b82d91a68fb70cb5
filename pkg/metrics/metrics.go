package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	reliabilityPlanner = "reliability_planner"

	jobsSubmittedTotal = "jobs_submitted_total"
	jobStatusCount     = "job_status_count"
	taskStartsTotal    = "task_starts_total"

	jobTypeLabel   = "job_type"
	jobStatusLabel = "status"
	outcomeLabel   = "outcome"
)

var jobsSubmittedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: reliabilityPlanner,
		Name:      jobsSubmittedTotal,
		Help:      "number of accepted job submissions",
	},
	[]string{jobTypeLabel},
)

var jobStatusCountMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: reliabilityPlanner,
		Name:      jobStatusCount,
		Help:      "number of jobs currently in each lifecycle status",
	},
	[]string{jobStatusLabel},
)

var taskStartsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: reliabilityPlanner,
		Name:      taskStartsTotal,
		Help:      "number of compute task launches partitioned by outcome",
	},
	[]string{outcomeLabel},
)

func IncreaseJobsSubmittedMetric(jobType string) {
	jobsSubmittedTotalMetric.With(prometheus.Labels{jobTypeLabel: jobType}).Inc()
}

func UpdateJobStatusCountMetric(status string, count int) {
	jobStatusCountMetric.With(prometheus.Labels{jobStatusLabel: status}).Set(float64(count))
}

func IncreaseTaskStartsMetric(outcome string) {
	taskStartsTotalMetric.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

type PrometheusMetricsHandler struct{}

func NewPrometheusMetricsHandler() *PrometheusMetricsHandler {
	return &PrometheusMetricsHandler{}
}

func (h *PrometheusMetricsHandler) Handler() http.Handler {
	return promhttp.Handler()
}

func init() {
	prometheus.MustRegister(jobsSubmittedTotalMetric)
	prometheus.MustRegister(jobStatusCountMetric)
	prometheus.MustRegister(taskStartsTotalMetric)
}
