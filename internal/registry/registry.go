package registry

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"production-simulator/internal/event"
	"production-simulator/internal/operation"
	"production-simulator/internal/persistence"
	"production-simulator/internal/types"
	"slices"
)

var (
	ErrUnknownProduct  = errors.New("unknown product")
	ErrUnknownMachine  = errors.New("unknown machine")
	ErrProductMismatch = errors.New("operation product does not match its key")
)

// LoadError 表示快照中某条记录无法加载
// 加载阶段的结构性错误是致命的，需要带上产品和记录序号以便定位
type LoadError struct {
	Path    string
	Product types.Product
	Index   int // 记录在该产品列表中的序号，-1 表示整个产品键非法
	Err     error
}

func (e *LoadError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("load %s: product %q: %v", e.Path, e.Product, e.Err)
	}
	return fmt.Sprintf("load %s: product %q record %d: %v", e.Path, e.Product, e.Index, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Registry 按产品保存全部工序和需求数量
// 注册表由单一调用方持有并顺序访问，不做并发保护
type Registry struct {
	products   []types.Product                          // 固定的产品列表，决定报表顺序
	machines   map[types.Machine]bool                   // 允许使用的设备
	operations map[types.Product][]*operation.Operation // 产品 -> 有序工序列表
	quantities map[types.Product]int                    // 产品 -> 需求数量
	bus        *event.Bus                               // 可选的事件总线
}

// New 创建一个空的注册表，每个产品的工序列表为空、数量为 0
func New(products []types.Product, machines []types.Machine, bus *event.Bus) *Registry {
	r := &Registry{
		products:   slices.Clone(products),
		machines:   make(map[types.Machine]bool, len(machines)),
		operations: make(map[types.Product][]*operation.Operation, len(products)),
		quantities: make(map[types.Product]int, len(products)),
		bus:        bus,
	}
	for _, m := range machines {
		r.machines[m] = true
	}
	for _, p := range products {
		r.operations[p] = []*operation.Operation{}
		r.quantities[p] = 0
	}
	return r
}

// Load 从快照文件构建注册表
// 文件不存在时返回空注册表
func Load(path string, products []types.Product, machines []types.Machine, bus *event.Bus) (*Registry, error) {
	r := New(products, machines, bus)

	raw, found, err := persistence.NewSnapshot(path).Load()
	if err != nil {
		return nil, err
	}

	// 快照里可能出现未配置的产品键，排序后逐个校验
	keys := make([]types.Product, 0, len(raw))
	for product := range raw {
		keys = append(keys, product)
	}
	slices.Sort(keys)

	for _, product := range keys {
		if !r.HasProduct(product) {
			return nil, &LoadError{Path: path, Product: product, Index: -1, Err: ErrUnknownProduct}
		}
		for i, rec := range raw[product] {
			op, err := operation.FromRecord(rec)
			if err != nil {
				return nil, &LoadError{Path: path, Product: product, Index: i, Err: err}
			}
			if op.Product != product {
				return nil, &LoadError{Path: path, Product: product, Index: i, Err: fmt.Errorf("%w: %q", ErrProductMismatch, op.Product)}
			}
			if !r.HasMachine(op.Machine) {
				return nil, &LoadError{Path: path, Product: product, Index: i, Err: fmt.Errorf("%w: %q", ErrUnknownMachine, op.Machine)}
			}
			r.operations[product] = append(r.operations[product], op)
		}
	}

	if found {
		counts := make(map[types.Product]int, len(r.products))
		for _, product := range r.products {
			counts[product] = len(r.operations[product])
		}
		r.bus.Publish(event.Event{Type: event.SnapshotLoaded, Path: path, Count: r.OperationCount(), Counts: counts})
	}
	return r, nil
}

// Save 将全部工序的持久字段写入快照文件，整体覆盖
func (r *Registry) Save(path string) error {
	records := make(map[types.Product][]types.Record, len(r.products))
	for _, product := range r.products {
		recs := make([]types.Record, 0, len(r.operations[product]))
		for _, op := range r.operations[product] {
			recs = append(recs, op.ToRecord())
		}
		records[product] = recs
	}

	if err := persistence.NewSnapshot(path).Save(records); err != nil {
		return fmt.Errorf("save snapshot %s: %w", path, err)
	}
	r.bus.Publish(event.Event{Type: event.SnapshotSaved, Path: path, Count: r.OperationCount()})
	return nil
}

// AddOperation 将工序追加到其所属产品的列表末尾
func (r *Registry) AddOperation(op *operation.Operation) error {
	if !r.HasProduct(op.Product) {
		return fmt.Errorf("%w: %q", ErrUnknownProduct, op.Product)
	}
	if !r.HasMachine(op.Machine) {
		return fmt.Errorf("%w: %q", ErrUnknownMachine, op.Machine)
	}
	r.operations[op.Product] = append(r.operations[op.Product], op)
	r.bus.Publish(event.Event{
		Type:      event.OperationAdded,
		Product:   op.Product,
		Operation: op.Name,
		Count:     len(r.operations[op.Product]),
	})
	return nil
}

// SetQuantity 设置产品的需求数量，不校验是否为负数
func (r *Registry) SetQuantity(product types.Product, quantity int) error {
	if !r.HasProduct(product) {
		return fmt.Errorf("%w: %q", ErrUnknownProduct, product)
	}
	r.quantities[product] = quantity
	r.bus.Publish(event.Event{Type: event.QuantitySet, Product: product, Quantity: quantity})
	return nil
}

// GenerateRandomQuantities 为每个产品随机生成 [lo, hi] 内的需求数量
func (r *Registry) GenerateRandomQuantities(lo, hi int) (map[types.Product]int, error) {
	if lo < 0 || lo > hi {
		return nil, fmt.Errorf("invalid random quantity range [%d, %d]", lo, hi)
	}
	for _, product := range r.products {
		if err := r.SetQuantity(product, lo+rand.IntN(hi-lo+1)); err != nil {
			return nil, err
		}
	}
	return r.Quantities(), nil
}

// HasProduct 判断产品是否属于配置的产品列表
func (r *Registry) HasProduct(product types.Product) bool {
	_, ok := r.operations[product]
	return ok
}

// HasMachine 判断设备是否属于配置的设备列表
func (r *Registry) HasMachine(machine types.Machine) bool {
	return r.machines[machine]
}

// Products 返回固定的产品列表
func (r *Registry) Products() []types.Product {
	return slices.Clone(r.products)
}

// Operations 返回产品的工序列表 (切片副本，元素共享)
func (r *Registry) Operations(product types.Product) []*operation.Operation {
	return slices.Clone(r.operations[product])
}

// Quantity 返回产品当前的需求数量
func (r *Registry) Quantity(product types.Product) int {
	return r.quantities[product]
}

// Quantities 返回全部需求数量的副本
func (r *Registry) Quantities() map[types.Product]int {
	out := make(map[types.Product]int, len(r.quantities))
	for p, q := range r.quantities {
		out[p] = q
	}
	return out
}

// OperationCount 返回所有产品的工序总数
func (r *Registry) OperationCount() int {
	total := 0
	for _, ops := range r.operations {
		total += len(ops)
	}
	return total
}
