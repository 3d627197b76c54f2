// Package metrics provides Prometheus observability metrics for the shift
// board: coverage and risk gauges for business visibility, edit and request
// counters for operational health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// =============================================================================
// CRITICAL METRICS - Staffing Visibility
// =============================================================================

// CoverageGapsTotal tracks the number of open coverage gaps on the
// critical queue, by severity. High critical values mean the queue is
// running below its minimum.
var CoverageGapsTotal = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "coverage",
	Name:      "gaps_total",
	Help:      "Open coverage gaps on the critical queue by severity",
}, []string{"severity"})

// CoverageShortfallMinutes tracks the summed duration of critical gaps.
var CoverageShortfallMinutes = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "coverage",
	Name:      "shortfall_minutes",
	Help:      "Total minutes per week where critical-queue coverage is below minimum",
})

// EmployeesAtRisk tracks employees per burnout risk level.
var EmployeesAtRisk = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "risk",
	Name:      "employees_total",
	Help:      "Employees per burnout risk level from the latest insights pass",
}, []string{"level"})

// =============================================================================
// IMPORTANT METRICS - Operational Health
// =============================================================================

// EditSavesTotal tracks shift edit outcomes by result.
var EditSavesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "editor",
	Name:      "saves_total",
	Help:      "Shift cell save attempts by outcome",
}, []string{"outcome"})

// EditRollbacksTotal tracks optimistic edits rolled back after a
// collaborator failure.
var EditRollbacksTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "editor",
	Name:      "rollbacks_total",
	Help:      "Optimistic edits rolled back after a persistence failure",
})

// MalformedRecordsTotal tracks stored records skipped or defaulted during a
// fetch because they could not be interpreted.
var MalformedRecordsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "store",
	Name:      "malformed_records_total",
	Help:      "Stored records skipped or defaulted by record type",
}, []string{"record"})

// RequestDurationSeconds tracks API handler latency.
var RequestDurationSeconds = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "api",
	Name:      "request_duration_seconds",
	Help:      "Time taken to serve API requests",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
}, []string{"route"})

// InsightsDurationSeconds tracks time to compute the predictive insights
// pass (risk scoring plus coverage suggestions).
var InsightsDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "insights",
	Name:      "duration_seconds",
	Help:      "Time taken to compute the predictive insights pass",
	Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
})

// =============================================================================
// Helper Functions
// =============================================================================

// ResetAnalyticsGauges resets the coverage and risk gauges before a new
// analytics pass.
func ResetAnalyticsGauges() {
	CoverageGapsTotal.Reset()
	CoverageShortfallMinutes.Set(0)
	EmployeesAtRisk.Reset()
}
