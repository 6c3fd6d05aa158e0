package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 定义 Prometheus 监控指标
var (
	// OperationsRegistered 仪表盘：每个产品当前注册的工序数量
	OperationsRegistered = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "prodsim_operations_registered",
		Help: "The number of operations currently registered per product",
	}, []string{"product"})

	// EstimatesTotal 计数器：估算次数
	// 按状态 (success/failed) 和产品分类
	EstimatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prodsim_estimates_total",
		Help: "The total number of product time estimates",
	}, []string{"status", "product"})

	// EstimatedSeconds 直方图：估算出的生产总时间分布
	// 桶从 1 分钟到约 3 周
	EstimatedSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prodsim_estimated_seconds",
		Help:    "Estimated total production time per product",
		Buckets: prometheus.ExponentialBuckets(60, 4, 8),
	}, []string{"product"})

	// SnapshotSavesTotal 计数器：快照写入次数
	SnapshotSavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prodsim_snapshot_saves_total",
		Help: "The total number of snapshot file writes",
	})
)

// WriteTextfile 将默认注册表中的全部指标写入文本文件
// 供 node_exporter 的 textfile collector 采集，不监听任何端口
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
