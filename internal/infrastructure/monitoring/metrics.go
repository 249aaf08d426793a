package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	ContractOperationsTotal *prometheus.CounterVec
	SummariesTotal          *prometheus.CounterVec
	EventsPublishedTotal    *prometheus.CounterVec
}

type PortfolioMetrics struct {
	Receivable  prometheus.Gauge
	Disbursed   prometheus.Gauge
	Contracts   prometheus.Gauge
	AverageRate prometheus.Gauge
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contract_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		ContractOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contract_engine_contract_operations_total",
				Help: "Total number of contract write operations by outcome.",
			},
			[]string{"operation", "status"},
		),
		SummariesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contract_engine_summaries_total",
				Help: "Total number of summaries computed, split by result shape.",
			},
			[]string{"result"},
		),
		EventsPublishedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contract_engine_events_published_total",
				Help: "Total number of domain events handed to the broker.",
			},
			[]string{"routing_key", "status"},
		),
	}

	Portfolio = PortfolioMetrics{
		Receivable: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "contract_portfolio_receivable_total",
			Help: "Sum of all installment amounts at the last snapshot.",
		}),
		Disbursed: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "contract_portfolio_disbursed_total",
			Help: "Sum of all disbursed amounts at the last snapshot.",
		}),
		Contracts: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "contract_portfolio_contracts",
			Help: "Number of contracts at the last snapshot.",
		}),
		AverageRate: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "contract_portfolio_average_rate",
			Help: "Average contract rate at the last snapshot.",
		}),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordContractOperation(operation, status string) {
	Business.ContractOperationsTotal.WithLabelValues(operation, status).Inc()
}

func RecordSummary(result string) {
	Business.SummariesTotal.WithLabelValues(result).Inc()
}

func RecordEventPublished(routingKey, status string) {
	Business.EventsPublishedTotal.WithLabelValues(routingKey, status).Inc()
}

func SetPortfolio(receivable, disbursed decimal.Decimal, contracts int64, averageRate decimal.Decimal) {
	Portfolio.Receivable.Set(receivable.InexactFloat64())
	Portfolio.Disbursed.Set(disbursed.InexactFloat64())
	Portfolio.Contracts.Set(float64(contracts))
	Portfolio.AverageRate.Set(averageRate.InexactFloat64())
}
