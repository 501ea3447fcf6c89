package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 予約結果ラベルの値
const (
	ReservationOutcomeSuccess     = "success"
	ReservationOutcomeUnavailable = "unavailable"
	ReservationOutcomeConflict    = "conflict"
	ReservationOutcomeError       = "error"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約試行の総数（outcome: success, unavailable, conflict, error）
	ReservationsTotal *prometheus.CounterVec

	// 座席確保が成功するまでの試行回数
	SeatAllocationAttempts prometheus.Histogram

	// 失効スイープで解放された予約の総数
	ExpiredReservationsTotal prometheus.Counter

	// アクティブな予約数（status: reserved, confirmed）
	ActiveReservations *prometheus.GaugeVec
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
		ReservationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservations_total",
				Help: "Total number of reservation attempts",
			},
			[]string{"outcome"},
		),
		SeatAllocationAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "seat_allocation_attempts",
				Help:    "Number of optimistic allocation attempts until success",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
			},
		),
		ExpiredReservationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "expired_reservations_total",
				Help: "Total number of reservations released by the expiry sweep",
			},
		),
		ActiveReservations: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "active_reservations",
				Help: "Current number of active reservations",
			},
			[]string{"status"},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReservationsTotal,
		m.SeatAllocationAttempts,
		m.ExpiredReservationsTotal,
		m.ActiveReservations,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す（未初期化なら nil）
func Get() *Metrics {
	return defaultMetrics
}
