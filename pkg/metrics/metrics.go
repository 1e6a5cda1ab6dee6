// Package metrics はPrometheusメトリクスの収集を行う。
// 専用のレジストリを持ち、/metrics ハンドラーを提供する。
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics はアプリケーションのメトリクス一式。
type Metrics struct {
	// registry はメトリクスの登録先。
	registry *prometheus.Registry
	// httpRequests はページ・APIリクエストの件数。
	httpRequests *prometheus.CounterVec
	// httpDuration はページ・APIリクエストの処理時間。
	httpDuration *prometheus.HistogramVec
	// upstreamRequests はサロンAPIへの試行件数。
	upstreamRequests *prometheus.CounterVec
	// upstreamDuration はサロンAPIへの試行時間。
	upstreamDuration *prometheus.HistogramVec
	// notifications はTelegram通知の送信結果件数。
	notifications *prometheus.CounterVec
}

// New は名前空間を指定してメトリクスを生成し、専用レジストリに登録する。
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of salon API attempts.",
		}, []string{"method", "path", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Salon API attempt duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Telegram notifications by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.httpRequests, m.httpDuration,
		m.upstreamRequests, m.upstreamDuration,
		m.notifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry は専用レジストリを返す。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler は /metrics 用のHTTPハンドラーを返す。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP はページ・APIリクエストを記録する。routeにはルートパターンを渡す。
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveUpstream はサロンAPIへの1回の試行を記録する。httpclient.Observer として使える。
func (m *Metrics) ObserveUpstream(method, path string, status int, d time.Duration, err error) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	path = normalizePath(path)
	m.upstreamRequests.WithLabelValues(method, path, label).Inc()
	m.upstreamDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// NotificationSent は通知の送信結果を記録する。
func (m *Metrics) NotificationSent(ok bool) {
	result := "failed"
	if ok {
		result = "sent"
	}
	m.notifications.WithLabelValues(result).Inc()
}

// normalizePath はパス中の数値セグメントを ":id" に置き換え、ラベルの種類を抑える。
func normalizePath(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if s == "" {
			continue
		}
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			segs[i] = ":id"
		}
	}
	return strings.Join(segs, "/")
}
