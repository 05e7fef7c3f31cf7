package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	LoansCreatedTotal     prometheus.Counter
	PaymentsRecordedTotal *prometheus.CounterVec
	PaymentsApprovedTotal *prometheus.CounterVec
	OverdueSweepFlips     prometheus.Counter
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lending_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		LoansCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lending_engine_loans_created_total",
				Help: "Total number of loans originated.",
			},
		),
		PaymentsRecordedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_engine_payments_recorded_total",
				Help: "Total number of payment record attempts by outcome.",
			},
			[]string{"status"},
		),
		PaymentsApprovedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_engine_payments_approved_total",
				Help: "Total number of payment approval attempts by outcome.",
			},
			[]string{"status"},
		),
		OverdueSweepFlips: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lending_engine_overdue_sweep_status_flips_total",
				Help: "Total number of loan status flips persisted by the overdue sweep.",
			},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordLoanCreated() {
	Business.LoansCreatedTotal.Inc()
}

func RecordPayment(status string) {
	Business.PaymentsRecordedTotal.WithLabelValues(status).Inc()
}

func RecordPaymentApproval(status string) {
	Business.PaymentsApprovedTotal.WithLabelValues(status).Inc()
}

func RecordOverdueSweepFlip() {
	Business.OverdueSweepFlips.Inc()
}
