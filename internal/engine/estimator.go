package engine

import (
	"errors"
	"fmt"
	"math"
	"production-simulator/internal/operation"
	"strconv"
	"strings"
)

var (
	// ErrInvalidQuantity 表示需求数量不是合法的非负整数
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrEstimateOverflow 表示总时长超出 int 范围，不输出截断后的结果
	ErrEstimateOverflow = errors.New("estimated time overflows")
)

// EstimateTotalSeconds 计算生产 quantity 件所需的总时间 (秒)
// 每道工序先重新抽样执行时长，再乘以所需执行次数 ceil(quantity / capacity)，
// 最后一批即使不满也占用一次完整时长。求和与工序顺序无关。
func EstimateTotalSeconds(ops []*operation.Operation, quantity int) (int, error) {
	if quantity < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	// 先整体校验，避免部分工序已被重新抽样后才失败
	for _, op := range ops {
		if op.MaxBatchCapacity <= 0 {
			return 0, fmt.Errorf("operation %q: %w", op.Name, operation.ErrInvalidCapacity)
		}
	}

	// 按最长时长计算上界，上界不溢出则任意抽样结果都不溢出
	bound := 0
	for _, op := range ops {
		var ok bool
		if bound, ok = addProduct(bound, op.MaxDurationSeconds, Executions(quantity, op.MaxBatchCapacity)); !ok {
			return 0, fmt.Errorf("%w: %w for %d pieces", ErrInvalidQuantity, ErrEstimateOverflow, quantity)
		}
	}

	total := 0
	for _, op := range ops {
		total += op.SampleDuration() * Executions(quantity, op.MaxBatchCapacity)
	}
	return total, nil
}

// addProduct 返回 acc + a*b，溢出时 ok 为 false；参数均为非负数
func addProduct(acc, a, b int) (int, bool) {
	if a != 0 && b > math.MaxInt/a {
		return 0, false
	}
	p := a * b
	if acc > math.MaxInt-p {
		return 0, false
	}
	return acc + p, true
}

// Executions 返回处理 quantity 件需要的设备执行次数
func Executions(quantity, capacity int) int {
	return quantity/capacity + min(quantity%capacity, 1)
}

// ParseQuantity 解析用户输入的需求数量文本
func ParseQuantity(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, text)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidQuantity, text)
	}
	return n, nil
}

// Duration 是总秒数按 时/分/秒 截断分解后的结果
type Duration struct {
	Hours   int
	Minutes int
	Seconds int
}

// Breakdown 将总秒数分解为 时/分/秒，不做四舍五入
func Breakdown(total int) Duration {
	return Duration{
		Hours:   total / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
	}
}

func (d Duration) String() string {
	return fmt.Sprintf("%dh %dm %ds", d.Hours, d.Minutes, d.Seconds)
}
