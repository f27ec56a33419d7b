package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BillingMetrics captures billing engine health signals: generation runs,
// their outcomes, bill volume, and payment decisions.
type BillingMetrics struct {
	generationRuns *prometheus.CounterVec
	billsGenerated prometheus.Counter
	payments       *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
}

var (
	billingOnce sync.Once
	billing     *BillingMetrics
)

// Billing returns the process-wide billing metrics instruments.
func Billing() *BillingMetrics {
	billingOnce.Do(func() {
		billing = &BillingMetrics{
			generationRuns: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "sppbill_generation_runs_total",
				Help: "Automatic generation attempts by outcome.",
			}, []string{"outcome"}),
			billsGenerated: promauto.NewCounter(prometheus.CounterOpts{
				Name: "sppbill_bills_generated_total",
				Help: "Bills inserted by the generator.",
			}),
			payments: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "sppbill_payments_total",
				Help: "Payment applications by result.",
			}, []string{"result"}),
			jobDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "sppbill_scheduler_job_duration_seconds",
				Help:    "Scheduler job wall time.",
				Buckets: prometheus.DefBuckets,
			}, []string{"job"}),
		}
	})
	return billing
}

func (m *BillingMetrics) IncGenerationRun(outcome string) {
	m.generationRuns.WithLabelValues(outcome).Inc()
}

func (m *BillingMetrics) AddBillsGenerated(n int) {
	if n > 0 {
		m.billsGenerated.Add(float64(n))
	}
}

func (m *BillingMetrics) IncPayment(result string) {
	m.payments.WithLabelValues(result).Inc()
}

func (m *BillingMetrics) ObserveJobDuration(job string, d time.Duration) {
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}
