package engine

import (
	"fmt"
	"production-simulator/internal/operation"

	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"
)

// Filter 是作用于单道工序的布尔表达式 (expr 语法)
// 例如: op.machine == "Forno" && op.max_batch_capacity > 10
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter 编译过滤表达式，空表达式返回 nil (匹配全部工序)
func CompileFilter(source string) (*Filter, error) {
	if source == "" {
		return nil, nil
	}
	program, err := expr.Compile(source, expr.Env(filterEnv(nil)), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("filter compilation failed: %w", err)
	}
	return &Filter{source: source, program: program}, nil
}

// String 返回表达式原文
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

// Match 判断工序是否满足表达式，nil 过滤器匹配全部工序
func (f *Filter) Match(op *operation.Operation) (bool, error) {
	if f == nil {
		return true, nil
	}
	result, err := expr.Run(f.program, filterEnv(op))
	if err != nil {
		return false, fmt.Errorf("filter execution failed: %w", err)
	}
	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter result is not a boolean")
	}
	return matched, nil
}

// Apply 返回满足表达式的工序，保持原有顺序
func (f *Filter) Apply(ops []*operation.Operation) ([]*operation.Operation, error) {
	if f == nil {
		return ops, nil
	}
	out := make([]*operation.Operation, 0, len(ops))
	for _, op := range ops {
		ok, err := f.Match(op)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, op)
		}
	}
	return out, nil
}

// filterEnv 构造表达式的执行环境，字段名与快照文件一致
func filterEnv(op *operation.Operation) map[string]interface{} {
	fields := map[string]interface{}{
		"name":                     "",
		"machine":                  "",
		"min_duration_seconds":     0,
		"max_duration_seconds":     0,
		"max_batch_capacity":       0,
		"product":                  "",
		"sampled_duration_seconds": 0,
	}
	if op != nil {
		fields["name"] = op.Name
		fields["machine"] = string(op.Machine)
		fields["min_duration_seconds"] = op.MinDurationSeconds
		fields["max_duration_seconds"] = op.MaxDurationSeconds
		fields["max_batch_capacity"] = op.MaxBatchCapacity
		fields["product"] = string(op.Product)
		fields["sampled_duration_seconds"] = op.SampledDuration()
	}
	return map[string]interface{}{"op": fields}
}
