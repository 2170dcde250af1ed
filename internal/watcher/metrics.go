package watcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики цикла ликвидаций
// ============================================================
//
// Использование:
// - Grafana дашборды (частота тиков, длительность, ликвидации)
// - Alertmanager: алерты на tick result=error и рост write failures

// ============ Метрики тиков ============

// TicksTotal - количество тиков по результату
var TicksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "liqwatch",
		Subsystem: "engine",
		Name:      "ticks_total",
		Help:      "Total number of liquidation ticks by result",
	},
	[]string{"result"}, // ok, empty, no_reference, no_prices, error, panic
)

// TickDuration - длительность одного тика
var TickDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "liqwatch",
		Subsystem: "engine",
		Name:      "tick_duration_seconds",
		Help:      "Duration of a single liquidation tick in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	},
)

// ============ Метрики позиций ============

// PositionsEvaluated - количество оценённых позиций
var PositionsEvaluated = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "liqwatch",
		Subsystem: "engine",
		Name:      "positions_evaluated_total",
		Help:      "Total number of positions evaluated",
	},
)

// PositionsDeferred - позиции, пропущенные до следующего тика
var PositionsDeferred = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "liqwatch",
		Subsystem: "engine",
		Name:      "positions_deferred_total",
		Help:      "Positions skipped until the next tick",
	},
	[]string{"reason"}, // no_address, no_price
)

// OpenPositions - количество активных позиций в последнем тике
var OpenPositions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "liqwatch",
		Subsystem: "engine",
		Name:      "open_positions",
		Help:      "Number of open/opening positions seen in the last tick",
	},
)

// ============ Метрики ликвидаций ============

// LiquidationsTotal - успешно записанные ликвидации
var LiquidationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "liqwatch",
		Subsystem: "engine",
		Name:      "liquidations_total",
		Help:      "Total number of positions transitioned to liquidated",
	},
)

// StoreWriteFailures - неудачные записи ликвидаций
var StoreWriteFailures = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "liqwatch",
		Subsystem: "store",
		Name:      "write_failures_total",
		Help:      "Failed liquidation writes to the position store",
	},
)

// ============ Метрики цен ============

// UnresolvedPrices - адреса, оставшиеся без цены после всех попыток
var UnresolvedPrices = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "liqwatch",
		Subsystem: "oracle",
		Name:      "unresolved_prices_total",
		Help:      "Token addresses left without a price after retries",
	},
)

// ============ Вспомогательные функции ============

// RecordTick записывает результат и длительность тика
func RecordTick(result string, durationSeconds float64) {
	TicksTotal.WithLabelValues(result).Inc()
	TickDuration.Observe(durationSeconds)
}

// RecordDeferred записывает пропуск позиции
func RecordDeferred(reason string) {
	PositionsDeferred.WithLabelValues(reason).Inc()
}

// RecordLiquidation записывает успешную ликвидацию
func RecordLiquidation() {
	LiquidationsTotal.Inc()
}

// RecordWriteFailure записывает неудачную запись в стор
func RecordWriteFailure() {
	StoreWriteFailures.Inc()
}

// UpdateOpenPositions обновляет gauge активных позиций
func UpdateOpenPositions(count int) {
	OpenPositions.Set(float64(count))
}

// RecordUnresolvedPrices записывает количество адресов без цены
func RecordUnresolvedPrices(count int) {
	if count > 0 {
		UnresolvedPrices.Add(float64(count))
	}
}
