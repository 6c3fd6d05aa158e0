package engine

import (
	"fmt"
	"production-simulator/internal/operation"
	"production-simulator/internal/types"
	"strings"
)

const (
	// ReportHeader 是报表第一行
	ReportHeader = "Tempi totali per prodotto (quantità incluse):"
	// QuantityNotice 是数量输入错误时展示给用户的提示
	QuantityNotice = "ATTENZIONE: quantità non inserite correttamente"
)

// QuantityError 表示某个产品的数量输入无法用于估算
type QuantityError struct {
	Product types.Product
	Input   string
	Err     error
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("product %q: %v", e.Product, e.Err)
}

func (e *QuantityError) Unwrap() error { return e.Err }

// ProductEstimate 是报表中单个产品的一行
type ProductEstimate struct {
	Product    types.Product `json:"product"`
	Input      string        `json:"input"`      // 用户输入的原始数量文本
	Quantity   int           `json:"quantity"`   // 解析后的数量
	Operations int           `json:"operations"` // 参与计算的工序数
	Seconds    int           `json:"seconds"`    // 估算总秒数
	Err        error         `json:"-"`          // 非空表示该产品估算失败
}

// Duration 返回总秒数的 时/分/秒 分解
func (e ProductEstimate) Duration() Duration {
	return Breakdown(e.Seconds)
}

// Report 是一次模拟运行的结果
type Report struct {
	RunID string            `json:"run_id"`
	Lines []ProductEstimate `json:"lines"`
}

// Failed 返回估算失败的产品行
func (r *Report) Failed() []ProductEstimate {
	var failed []ProductEstimate
	for _, line := range r.Lines {
		if line.Err != nil {
			failed = append(failed, line)
		}
	}
	return failed
}

// String 按 "<产品>: <h>h <m>m <s>s (<数量> pz)" 的格式渲染报表
func (r *Report) String() string {
	var b strings.Builder
	b.WriteString(ReportHeader)
	b.WriteString("\n")
	for _, line := range r.Lines {
		if line.Err != nil {
			fmt.Fprintf(&b, "%s: %s (%q)\n", line.Product, QuantityNotice, line.Input)
			continue
		}
		fmt.Fprintf(&b, "%s: %s (%d pz)\n", line.Product, line.Duration(), line.Quantity)
	}
	return b.String()
}

// FormatOperation 渲染工序表中的一格:
// 名称, 设备, 最大容量, (最短s - 最长s), 最近抽样时长s
func FormatOperation(op *operation.Operation) string {
	return fmt.Sprintf("%s, %s, %d, (%ds - %ds), %ds",
		op.Name, op.Machine, op.MaxBatchCapacity,
		op.MinDurationSeconds, op.MaxDurationSeconds, op.SampledDuration())
}
