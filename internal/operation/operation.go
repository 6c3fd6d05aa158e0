package operation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"production-simulator/internal/types"
	"strconv"
	"strings"
)

var (
	// ErrInvalidCapacity 表示批次容量不是正整数，估算时会出现除零
	ErrInvalidCapacity = errors.New("max batch capacity must be positive")
	// ErrInvalidDurationRange 表示时长区间非法 (负数或 min > max)
	ErrInvalidDurationRange = errors.New("invalid duration range")
)

// 快照记录中的持久字段名
const (
	FieldName     = "name"
	FieldMachine  = "machine"
	FieldMin      = "min_duration_seconds"
	FieldMax      = "max_duration_seconds"
	FieldCapacity = "max_batch_capacity"
	FieldProduct  = "product"
)

// durableFields 按固定顺序列出所有持久字段，用于缺失检查
var durableFields = []string{FieldName, FieldMachine, FieldMin, FieldMax, FieldCapacity, FieldProduct}

// MissingFieldError 表示快照记录缺少某个持久字段
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// FieldTypeError 表示持久字段无法转换为期望的类型
type FieldTypeError struct {
	Field string
	Err   error
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldTypeError) Unwrap() error { return e.Err }

// Operation 表示某个产品的一道加工工序
type Operation struct {
	Name               string        // 工序名称
	Machine            types.Machine // 使用的设备
	MinDurationSeconds int           // 单次执行的最短时长 (秒)
	MaxDurationSeconds int           // 单次执行的最长时长 (秒)
	MaxBatchCapacity   int           // 单次执行最多处理的件数
	Product            types.Product // 所属产品
	Materials          []string      // 消耗的物料，每个工序独立持有

	sampled int // 最近一次抽样得到的执行时长，不持久化
}

// New 创建一个新的工序并完成第一次时长抽样
func New(name string, machine types.Machine, minSeconds, maxSeconds, capacity int, product types.Product) (*Operation, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("operation %q: %w (got %d)", name, ErrInvalidCapacity, capacity)
	}
	if minSeconds < 0 || minSeconds > maxSeconds {
		return nil, fmt.Errorf("operation %q: %w [%d, %d]", name, ErrInvalidDurationRange, minSeconds, maxSeconds)
	}

	op := &Operation{
		Name:               name,
		Machine:            machine,
		MinDurationSeconds: minSeconds,
		MaxDurationSeconds: maxSeconds,
		MaxBatchCapacity:   capacity,
		Product:            product,
		Materials:          make([]string, 0),
	}
	op.SampleDuration()
	return op, nil
}

// SampleDuration 在 [min, max] 闭区间内均匀抽取一个新的执行时长并保存
func (o *Operation) SampleDuration() int {
	// 区间宽度在 uint64 中计算，max-min == MaxInt 时 +1 不会溢出
	span := uint64(o.MaxDurationSeconds-o.MinDurationSeconds) + 1
	o.sampled = o.MinDurationSeconds + int(rand.Uint64N(span))
	return o.sampled
}

// SampledDuration 返回最近一次抽样的执行时长
func (o *Operation) SampledDuration() int {
	return o.sampled
}

// ToRecord 投影出可序列化的持久字段
func (o *Operation) ToRecord() types.Record {
	return types.Record{
		Name:               o.Name,
		Machine:            o.Machine,
		MinDurationSeconds: o.MinDurationSeconds,
		MaxDurationSeconds: o.MaxDurationSeconds,
		MaxBatchCapacity:   o.MaxBatchCapacity,
		Product:            o.Product,
	}
}

// FromRecord 从快照记录重建工序
// 整数字段同时接受 JSON 数字和数字字符串
func FromRecord(raw map[string]json.RawMessage) (*Operation, error) {
	for _, field := range durableFields {
		if _, ok := raw[field]; !ok {
			return nil, &MissingFieldError{Field: field}
		}
	}

	name, err := decodeString(raw, FieldName)
	if err != nil {
		return nil, err
	}
	machine, err := decodeString(raw, FieldMachine)
	if err != nil {
		return nil, err
	}
	product, err := decodeString(raw, FieldProduct)
	if err != nil {
		return nil, err
	}
	minSeconds, err := decodeInt(raw, FieldMin)
	if err != nil {
		return nil, err
	}
	maxSeconds, err := decodeInt(raw, FieldMax)
	if err != nil {
		return nil, err
	}
	capacity, err := decodeInt(raw, FieldCapacity)
	if err != nil {
		return nil, err
	}

	return New(name, types.Machine(machine), minSeconds, maxSeconds, capacity, types.Product(product))
}

func decodeString(raw map[string]json.RawMessage, field string) (string, error) {
	var s string
	if err := json.Unmarshal(raw[field], &s); err != nil {
		return "", &FieldTypeError{Field: field, Err: err}
	}
	return s, nil
}

func decodeInt(raw map[string]json.RawMessage, field string) (int, error) {
	var n int
	if err := json.Unmarshal(raw[field], &n); err == nil {
		return n, nil
	}

	// 旧版本快照把容量按输入框原文存成了字符串
	var s string
	if err := json.Unmarshal(raw[field], &s); err != nil {
		return 0, &FieldTypeError{Field: field, Err: fmt.Errorf("expected integer, got %s", raw[field])}
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &FieldTypeError{Field: field, Err: err}
	}
	return n, nil
}
