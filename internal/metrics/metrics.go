package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "licence_conditions_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	calculationsTotal   *prometheus.CounterVec
	calculationLatency  *prometheus.HistogramVec
	conditionsGenerated *prometheus.CounterVec
	storesTotal         *prometheus.CounterVec
)

// Init registers the calculation metrics with reg. Safe to call more than once.
func Init(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		calculationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "calculations_total",
				Help: "Total condition calculations by result and draft flag",
			},
			[]string{"result", "draft"},
		)
		calculationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "calculation_seconds",
				Help:    "Condition calculation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		conditionsGenerated = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "generated_total",
				Help: "Total calculated conditions by condition type",
			},
			[]string{"condition_type"},
		)
		storesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "stores_total",
				Help: "Total direct condition stores by result",
			},
			[]string{"result"},
		)

		reg.MustRegister(calculationsTotal, calculationLatency, conditionsGenerated, storesTotal)
	})
}

// ObserveCalculation records a calculation run and its duration.
func ObserveCalculation(result string, draft bool, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if calculationsTotal != nil {
		calculationsTotal.WithLabelValues(result, strconv.FormatBool(draft)).Inc()
	}
	if calculationLatency != nil {
		calculationLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

func AddConditionsGenerated(conditionType string, count int) {
	if count <= 0 || conditionType == "" {
		return
	}
	if conditionsGenerated != nil {
		conditionsGenerated.WithLabelValues(conditionType).Add(float64(count))
	}
}

func IncStore(result string) {
	if result == "" {
		result = ResultSuccess
	}
	if storesTotal != nil {
		storesTotal.WithLabelValues(result).Inc()
	}
}
