// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MarketplaceRecorder はマーケットプレイス操作のメトリクス記録インターフェース。
// サービス層から利用する。
type MarketplaceRecorder interface {
	RecordAccountCreated(accountType string)
	RecordPurchaseCreated()
	RecordPurchaseCompleted(price int64)
	RecordPurchaseCancelled(reason string)
	RecordReviewCreated(rating int)
}

// CleanupRecorder はメンテナンスワーカーのメトリクス記録インターフェース。
type CleanupRecorder interface {
	RecordSessionsExpired(count int64)
	RecordPurchasesExpired(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	accountsCreated    *prometheus.CounterVec
	purchasesCreated   prometheus.Counter
	purchasesCompleted prometheus.Counter
	salesVolume        prometheus.Counter
	purchasesCancelled *prometheus.CounterVec
	reviewsCreated     *prometheus.CounterVec
	sessionsExpired    prometheus.Counter
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		accountsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accountmart_accounts_created_total",
			Help: "SNS種別ごとの出品作成数",
		}, []string{"type"}),
		purchasesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accountmart_purchases_created_total",
			Help: "購入申込の合計数",
		}),
		purchasesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accountmart_purchases_completed_total",
			Help: "完了した取引の合計数",
		}),
		salesVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accountmart_sales_volume_total",
			Help: "完了した取引の価格合計（最小通貨単位）",
		}),
		purchasesCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accountmart_purchases_cancelled_total",
			Help: "取り消された取引の数（理由別）",
		}, []string{"reason"}),
		reviewsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accountmart_reviews_created_total",
			Help: "評価ごとのレビュー作成数",
		}, []string{"rating"}),
		sessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accountmart_sessions_expired_total",
			Help: "削除された期限切れセッションの合計数",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accountmart_http_requests_total",
			Help: "HTTPリクエスト数",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accountmart_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.accountsCreated,
		c.purchasesCreated,
		c.purchasesCompleted,
		c.salesVolume,
		c.purchasesCancelled,
		c.reviewsCreated,
		c.sessionsExpired,
		c.httpRequests,
		c.httpDuration,
	)

	return c
}

// NewRegistry はGoランタイムとプロセスのコレクターを登録済みのレジストリを返す。
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// RecordAccountCreated は出品作成を記録する。
func (c *Collector) RecordAccountCreated(accountType string) {
	c.accountsCreated.WithLabelValues(accountType).Inc()
}

// RecordPurchaseCreated は購入申込を記録する。
func (c *Collector) RecordPurchaseCreated() {
	c.purchasesCreated.Inc()
}

// RecordPurchaseCompleted は取引完了と売上額を記録する。
func (c *Collector) RecordPurchaseCompleted(price int64) {
	c.purchasesCompleted.Inc()
	c.salesVolume.Add(float64(price))
}

// RecordPurchaseCancelled は取引の取消を記録する。
func (c *Collector) RecordPurchaseCancelled(reason string) {
	c.purchasesCancelled.WithLabelValues(reason).Inc()
}

// RecordReviewCreated はレビュー作成を記録する。
func (c *Collector) RecordReviewCreated(rating int) {
	c.reviewsCreated.WithLabelValues(strconv.Itoa(rating)).Inc()
}

// RecordSessionsExpired は削除した期限切れセッション数を記録する。
func (c *Collector) RecordSessionsExpired(count int64) {
	c.sessionsExpired.Add(float64(count))
}

// RecordPurchasesExpired は期限切れで取り消した取引数を記録する。
func (c *Collector) RecordPurchasesExpired(count int64) {
	c.purchasesCancelled.WithLabelValues("expired").Add(float64(count))
}

// ObserveHTTPRequest はHTTPリクエストの処理結果を記録する。
// routeにはパスではなくルーティングパターンを渡し、ラベルの濃度を抑える。
func (c *Collector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Nop は何も記録しないレコーダー。テストやメトリクス無効時に使う。
type Nop struct{}

func (Nop) RecordAccountCreated(string)    {}
func (Nop) RecordPurchaseCreated()         {}
func (Nop) RecordPurchaseCompleted(int64)  {}
func (Nop) RecordPurchaseCancelled(string) {}
func (Nop) RecordReviewCreated(int)        {}
func (Nop) RecordSessionsExpired(int64)    {}
func (Nop) RecordPurchasesExpired(int64)   {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface checks
var (
	_ MarketplaceRecorder = (*Collector)(nil)
	_ CleanupRecorder     = (*Collector)(nil)
	_ MarketplaceRecorder = Nop{}
	_ CleanupRecorder     = Nop{}
)
