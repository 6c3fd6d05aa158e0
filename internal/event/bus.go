package event

import (
	"production-simulator/internal/types"
	"sync"
)

// EventType 定义事件的类型
type EventType string

// 定义所有业务事件类型
const (
	OperationAdded   EventType = "OperationAdded"   // 新工序加入注册表
	QuantitySet      EventType = "QuantitySet"      // 产品需求数量被设置
	SnapshotLoaded   EventType = "SnapshotLoaded"   // 快照加载完成
	SnapshotSaved    EventType = "SnapshotSaved"    // 快照保存完成
	EstimateComputed EventType = "EstimateComputed" // 单个产品估算完成
	EstimateFailed   EventType = "EstimateFailed"   // 单个产品估算失败
)

// Event 结构体定义了事件的数据负载
type Event struct {
	Type      EventType             // 事件类型
	RunID     string                // 所属模拟运行 ID (仅估算事件)
	Product   types.Product         // 关联的产品
	Operation string                // 关联的工序名称 (仅 OperationAdded)
	Quantity  int                   // 需求数量
	Seconds   int                   // 估算总秒数 (仅 EstimateComputed)
	Count     int                   // 工序数量 (快照事件为全部工序数，OperationAdded 为该产品的工序数)
	Counts    map[types.Product]int // 各产品的工序数量 (仅 SnapshotLoaded)
	Path      string                // 快照文件路径 (仅快照事件)
	Error     error                 // 错误信息 (仅失败事件)
}

// Handler 是事件处理函数的签名
type Handler func(e Event)

// Bus 是一个简单的内存事件总线
// 处理器在发布者的 goroutine 上按订阅顺序同步执行
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler // 存储事件类型到多个处理函数的映射
}

// NewBus 创建一个新的事件总线实例
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe 订阅一个特定类型的事件
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish 发布一个事件，所有订阅了该事件类型的处理器都将被调用
// nil 总线上的发布是空操作，方便不关心事件的调用方
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := b.handlers[e.Type]
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(e)
	}
}
