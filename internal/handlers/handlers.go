package handlers

import (
	"log/slog"
	"production-simulator/internal/event"
	"production-simulator/internal/metrics"
)

// RegisterEventHandlers 将所有事件处理器注册到事件总线
// 指标和审计日志通过订阅事件实现，与注册表和模拟器解耦
func RegisterEventHandlers(bus *event.Bus, logger *slog.Logger) {
	// --- 指标处理器 (Metrics Handler) ---
	bus.Subscribe(event.OperationAdded, func(e event.Event) {
		metrics.OperationsRegistered.WithLabelValues(string(e.Product)).Set(float64(e.Count))
	})
	bus.Subscribe(event.SnapshotLoaded, func(e event.Event) {
		for product, n := range e.Counts {
			metrics.OperationsRegistered.WithLabelValues(string(product)).Set(float64(n))
		}
	})
	bus.Subscribe(event.EstimateComputed, func(e event.Event) {
		metrics.EstimatesTotal.WithLabelValues("success", string(e.Product)).Inc()
		metrics.EstimatedSeconds.WithLabelValues(string(e.Product)).Observe(float64(e.Seconds))
	})
	bus.Subscribe(event.EstimateFailed, func(e event.Event) {
		metrics.EstimatesTotal.WithLabelValues("failed", string(e.Product)).Inc()
	})
	bus.Subscribe(event.SnapshotSaved, func(e event.Event) {
		metrics.SnapshotSavesTotal.Inc()
	})

	// --- 日志处理器 (Logging Handler) ---
	bus.Subscribe(event.SnapshotLoaded, func(e event.Event) {
		logger.Info("快照加载完成", "path", e.Path, "operations", e.Count)
	})
	bus.Subscribe(event.SnapshotSaved, func(e event.Event) {
		logger.Info("快照已保存", "path", e.Path, "operations", e.Count)
	})
	bus.Subscribe(event.QuantitySet, func(e event.Event) {
		logger.Debug("设置需求数量", "product", e.Product, "quantity", e.Quantity)
	})
	bus.Subscribe(event.EstimateFailed, func(e event.Event) {
		logger.Error("产品估算失败", "run_id", e.RunID, "product", e.Product, "error", e.Error)
	})
	bus.Subscribe(event.EstimateComputed, func(e event.Event) {
		logger.Info("产品估算成功", "run_id", e.RunID, "product", e.Product, "quantity", e.Quantity, "seconds", e.Seconds)
	})
}
