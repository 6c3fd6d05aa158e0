package engine

import (
	"context"
	"fmt"
	"log/slog"
	"production-simulator/internal/event"
	"production-simulator/internal/operation"
	"production-simulator/internal/registry"
	"production-simulator/internal/types"
	"production-simulator/internal/util"
	"strconv"
)

// Simulator 负责根据注册表中的工序和需求数量计算各产品的生产时间
type Simulator struct {
	registry       *registry.Registry
	snapshotPath   string
	abortOnInvalid bool // true: 任一产品数量非法时整份报表作废
	logger         *slog.Logger
	eventBus       *event.Bus
}

// NewSimulator 创建一个新的 Simulator 实例
func NewSimulator(
	reg *registry.Registry,
	snapshotPath string,
	abortOnInvalid bool,
	logger *slog.Logger,
	bus *event.Bus,
) *Simulator {
	return &Simulator{
		registry:       reg,
		snapshotPath:   snapshotPath,
		abortOnInvalid: abortOnInvalid,
		logger:         logger.With("component", "simulator"),
		eventBus:       bus,
	}
}

// Registry 返回模拟器持有的注册表
func (s *Simulator) Registry() *registry.Registry {
	return s.registry
}

// AddOperation 将工序加入注册表，saveDefault 为 true 时同时覆盖写入快照
func (s *Simulator) AddOperation(op *operation.Operation, saveDefault bool) error {
	if err := s.registry.AddOperation(op); err != nil {
		return err
	}
	s.logger.Info("新增工序", "product", op.Product, "operation", op.Name, "machine", op.Machine, "save_default", saveDefault)
	if !saveDefault {
		return nil
	}
	return s.registry.Save(s.snapshotPath)
}

// Run 使用用户输入的数量文本执行一次模拟
// 缺失或非法的数量文本按策略处理：abortOnInvalid 时不计算任何产品并返回 *QuantityError，
// 否则该产品的报表行携带错误，其余产品照常计算。
func (s *Simulator) Run(ctx context.Context, inputs map[types.Product]string, filter *Filter) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	runID, ok := util.RunIDFromContext(ctx)
	if !ok {
		runID = util.NewRunID()
	}
	logger := s.logger.With("run_id", runID)
	if filter != nil {
		logger = logger.With("filter", filter.String())
	}

	products := s.registry.Products()

	// 先解析全部数量，保证中止策略下不会对任何工序重新抽样
	quantities := make(map[types.Product]int, len(products))
	invalid := make(map[types.Product]error)
	for _, p := range products {
		text := inputs[p]
		q, err := ParseQuantity(text)
		if err != nil {
			qErr := &QuantityError{Product: p, Input: text, Err: err}
			s.eventBus.Publish(event.Event{Type: event.EstimateFailed, RunID: runID, Product: p, Error: qErr})
			if s.abortOnInvalid {
				logger.Warn("数量输入非法，报表作废", "product", p, "input", text)
				return nil, qErr
			}
			logger.Warn("数量输入非法，跳过该产品", "product", p, "input", text)
			invalid[p] = qErr
			continue
		}
		quantities[p] = q
	}

	report := &Report{RunID: runID}
	for _, p := range products {
		line := ProductEstimate{Product: p, Input: inputs[p]}
		if err, bad := invalid[p]; bad {
			line.Err = err
			report.Lines = append(report.Lines, line)
			continue
		}

		ops, err := filter.Apply(s.registry.Operations(p))
		if err != nil {
			return nil, err
		}
		seconds, err := EstimateTotalSeconds(ops, quantities[p])
		if err != nil {
			qErr := &QuantityError{Product: p, Input: line.Input, Err: err}
			s.eventBus.Publish(event.Event{Type: event.EstimateFailed, RunID: runID, Product: p, Error: qErr})
			if s.abortOnInvalid {
				return nil, qErr
			}
			line.Err = qErr
			report.Lines = append(report.Lines, line)
			continue
		}
		if err := s.registry.SetQuantity(p, quantities[p]); err != nil {
			return nil, err
		}

		line.Quantity = quantities[p]
		line.Operations = len(ops)
		line.Seconds = seconds
		report.Lines = append(report.Lines, line)

		s.eventBus.Publish(event.Event{
			Type:     event.EstimateComputed,
			RunID:    runID,
			Product:  p,
			Quantity: line.Quantity,
			Seconds:  seconds,
			Count:    line.Operations,
		})
		logger.Debug("产品估算完成", "product", p, "quantity", line.Quantity, "operations", line.Operations, "seconds", seconds)
	}

	logger.Info("模拟完成", "products", len(report.Lines), "failed", len(report.Failed()))
	return report, nil
}

// RunWithStoredQuantities 使用注册表中已保存的数量执行一次模拟
func (s *Simulator) RunWithStoredQuantities(ctx context.Context, filter *Filter) (*Report, error) {
	inputs := make(map[types.Product]string)
	for p, q := range s.registry.Quantities() {
		inputs[p] = strconv.Itoa(q)
	}
	return s.Run(ctx, inputs, filter)
}

// Table 返回按产品分列的工序描述，用于展示工序表
func (s *Simulator) Table(filter *Filter) (map[types.Product][]string, error) {
	table := make(map[types.Product][]string)
	for _, p := range s.registry.Products() {
		ops, err := filter.Apply(s.registry.Operations(p))
		if err != nil {
			return nil, fmt.Errorf("product %q: %w", p, err)
		}
		cells := make([]string, 0, len(ops))
		for _, op := range ops {
			cells = append(cells, FormatOperation(op))
		}
		table[p] = cells
	}
	return table, nil
}
