package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 予約処理の結果ラベル
const (
	OutcomeCreated          = "created"
	OutcomeUpdated          = "updated"
	OutcomeCancelled        = "cancelled"
	OutcomeConflict         = "conflict"
	OutcomeConcurrentUpdate = "concurrent_update"
	OutcomeRejected         = "rejected"
	OutcomeError            = "error"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約操作の結果ごとの総数（outcome: created, conflict, concurrent_update など）
	BookingsTotal *prometheus.CounterVec

	// スタジアムロックの操作時間（operation: acquire/release, status: success/failed）
	StadiumLockDuration *prometheus.HistogramVec

	// 完了スイープで completed に更新された予約数
	SweptBookingsTotal prometheus.Counter
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Total number of booking operations by outcome",
			},
			[]string{"outcome"},
		),
		StadiumLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stadium_lock_duration_seconds",
				Help:    "Time spent on stadium lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
		SweptBookingsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "swept_bookings_total",
				Help: "Total number of bookings moved to completed by the sweeper",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingsTotal,
		m.StadiumLockDuration,
		m.SweptBookingsTotal,
	)

	return m
}

// RecordBooking は予約操作の結果を記録する
// nilレシーバーでも安全に呼べる（メトリクス無効時）
func (m *Metrics) RecordBooking(outcome string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(outcome).Inc()
}

// RecordSwept はスイープで完了に更新された件数を記録する
func (m *Metrics) RecordSwept(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.SweptBookingsTotal.Add(float64(count))
}
