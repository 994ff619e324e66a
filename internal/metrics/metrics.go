package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dropsync"

// 结果标签取值
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Recorder 同步引擎指标，nil 接收者上的所有方法均为空操作
type Recorder struct {
	registry *prometheus.Registry

	providerCalls    *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	placements       *prometheus.CounterVec
	trackingRefresh  *prometheus.CounterVec
	statusChanges    *prometheus.CounterVec
	emailDispatch    *prometheus.CounterVec
	reaperDeleted    prometheus.Counter
	reaperRuns       *prometheus.CounterVec
}

// NewRecorder 创建独立 registry 的指标记录器
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	r := &Recorder{
		registry: registry,
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Fulfillment provider calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		providerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "Fulfillment provider call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placements_total",
			Help:      "Order placements by outcome.",
		}, []string{"outcome"}),
		trackingRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracking_refresh_total",
			Help:      "Tracking refreshes by outcome.",
		}, []string{"outcome"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_changes_total",
			Help:      "Applied order status changes by target status.",
		}, []string{"status"}),
		emailDispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_email_dispatch_total",
			Help:      "Status email dispatch attempts by outcome.",
		}, []string{"outcome"}),
		reaperDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaper_deleted_orders_total",
			Help:      "Stale unpaid orders deleted by the reaper.",
		}),
		reaperRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaper_runs_total",
			Help:      "Reaper runs by outcome.",
		}, []string{"outcome"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.providerCalls,
		r.providerDuration,
		r.placements,
		r.trackingRefresh,
		r.statusChanges,
		r.emailDispatch,
		r.reaperDeleted,
		r.reaperRuns,
	)
	return r
}

// Registry 返回底层 registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler 返回 /metrics 处理器
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveProviderCall 记录一次供应商调用
func (r *Recorder) ObserveProviderCall(operation string, ok bool, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.providerCalls.WithLabelValues(operation, outcome(ok)).Inc()
	r.providerDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// IncPlacement 记录下单结果
func (r *Recorder) IncPlacement(result string) {
	if r == nil {
		return
	}
	r.placements.WithLabelValues(result).Inc()
}

// IncTrackingRefresh 记录物流刷新结果
func (r *Recorder) IncTrackingRefresh(result string) {
	if r == nil {
		return
	}
	r.trackingRefresh.WithLabelValues(result).Inc()
}

// IncStatusChange 记录订单状态变更
func (r *Recorder) IncStatusChange(status string) {
	if r == nil {
		return
	}
	r.statusChanges.WithLabelValues(status).Inc()
}

// IncEmailDispatch 记录状态邮件发送结果
func (r *Recorder) IncEmailDispatch(result string) {
	if r == nil {
		return
	}
	r.emailDispatch.WithLabelValues(result).Inc()
}

// ObserveReaperRun 记录一次清理任务
func (r *Recorder) ObserveReaperRun(deleted int64, err error) {
	if r == nil {
		return
	}
	if deleted > 0 {
		r.reaperDeleted.Add(float64(deleted))
	}
	r.reaperRuns.WithLabelValues(outcome(err == nil)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailed
}
