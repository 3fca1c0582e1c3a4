// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやハンドラーから利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordShoppingListExport(format string, lines int)
	RecordEmptyCartExport()
	RecordRecipeCreated()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus     *prometheus.CounterVec
	exports        *prometheus.CounterVec
	exportLines    prometheus.Histogram
	emptyCart      prometheus.Counter
	recipesCreated prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodgram_shopping_list_exports_total",
			Help: "出力形式別の買い物リスト出力数",
		}, []string{"format"}),
		exportLines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodgram_shopping_list_lines",
			Help:    "出力された買い物リストの行数",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		emptyCart: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodgram_shopping_list_empty_total",
			Help: "買い物かごが空だった出力要求の数",
		}),
		recipesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodgram_recipes_created_total",
			Help: "作成されたレシピの合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.exports,
		c.exportLines,
		c.emptyCart,
		c.recipesCreated,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordShoppingListExport は買い物リストの出力と行数を記録する。
func (c *Collector) RecordShoppingListExport(format string, lines int) {
	c.exports.WithLabelValues(format).Inc()
	c.exportLines.Observe(float64(lines))
}

// RecordEmptyCartExport は空の買い物かごに対する出力要求を記録する。
func (c *Collector) RecordEmptyCartExport() {
	c.emptyCart.Inc()
}

// RecordRecipeCreated はレシピ作成を記録する。
func (c *Collector) RecordRecipeCreated() {
	c.recipesCreated.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。テストやメトリクス無効時に使用する。
type NopCollector struct{}

func (NopCollector) RecordHTTPStatus(int)                 {}
func (NopCollector) RecordShoppingListExport(string, int) {}
func (NopCollector) RecordEmptyCartExport()               {}
func (NopCollector) RecordRecipeCreated()                 {}
