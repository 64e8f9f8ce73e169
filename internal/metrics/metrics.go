// Package metrics регистрирует счётчики Prometheus движка доступности.
// Сами метрики отдаются HTTP-маршрутом /metrics через promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OverlapChecks число обращений к коллаборатору за проверкой пересечения
	// с гостевыми турами.
	OverlapChecks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "availability_overlap_checks_total",
		Help: "Number of guest spot overlap checks sent to storage.",
	})

	// OverlapConflicts число дат, по которым проверка нашла пересечение.
	OverlapConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "availability_overlap_conflicts_total",
		Help: "Number of candidate dates that conflicted with a guest spot.",
	})

	// StartTimesRequests число запросов на вычисление времён начала сеанса.
	StartTimesRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "availability_start_times_requests_total",
		Help: "Number of start time resolutions, labeled by cache outcome.",
	}, []string{"cache"})
)
