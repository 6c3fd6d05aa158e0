package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Product 定义产品名称
// 使用字符串类型，方便在日志、快照文件和配置中直接使用
type Product string

const (
	// 工厂固定生产的三种产品
	ProductCodolo Product = "Codolo ORFS 12-10" // ORFS 接头尾柄
	ProductGhiera Product = "Ghiera AD1-08"     // AD1 锁紧螺母
	ProductTubo   Product = "Tubo raccordato"   // 带接头的软管总成
)

// Machine 定义设备名称
type Machine string

const (
	MachinePressa      Machine = "Pressa"                // 压力机
	MachineTaglierina  Machine = "Taglierina"            // 切割机
	MachineMultimandri Machine = "Multimandrino Schutte" // Schütte 多轴自动车床
	MachineManuale     Machine = "Manuale"               // 人工工位
	MachineLavatrice   Machine = "Lavatrice"             // 清洗机
	MachineForno       Machine = "Forno"                 // 热处理炉
	MachineNastro      Machine = "Nastro trasportatore"  // 传送带
	MachineBancoProva  Machine = "Banco prova 400ATM"    // 400ATM 耐压测试台
)

// DefaultProducts 返回默认的产品列表 (顺序即报表顺序)
func DefaultProducts() []Product {
	return []Product{ProductCodolo, ProductGhiera, ProductTubo}
}

// DefaultMachines 返回默认的设备列表
func DefaultMachines() []Machine {
	return []Machine{
		MachinePressa, MachineTaglierina, MachineMultimandri, MachineManuale,
		MachineLavatrice, MachineForno, MachineNastro, MachineBancoProva,
	}
}

// Record 是工序在快照文件中的持久化形式
// 只包含持久字段，随机抽样的执行时间不参与序列化
type Record struct {
	Name               string  `json:"name"`
	Machine            Machine `json:"machine"`
	MinDurationSeconds int     `json:"min_duration_seconds"`
	MaxDurationSeconds int     `json:"max_duration_seconds"`
	MaxBatchCapacity   int     `json:"max_batch_capacity"`
	Product            Product `json:"product"`
}

// DurationFields 是以 天/时/分/秒 四个字段录入的时长
type DurationFields struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// TotalSeconds 将四个字段换算为总秒数
func (d DurationFields) TotalSeconds() int {
	return d.Days*86400 + d.Hours*3600 + d.Minutes*60 + d.Seconds
}

// 录入界面的取值范围: gg 0-365, hh 0-23, mm/ss 0-59
var durationLimits = [4]int{365, 23, 59, 59}

// ParseDurationFields 解析 "gg:hh:mm:ss" 格式的时长
// 允许省略高位字段，例如 "1:30" 表示 1 分 30 秒；每个字段都受录入范围限制
func ParseDurationFields(s string) (DurationFields, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 0 || len(parts) > 4 || parts[0] == "" {
		return DurationFields{}, fmt.Errorf("invalid duration %q: expected gg:hh:mm:ss", s)
	}

	// 右对齐到 [gg, hh, mm, ss]
	var values [4]int
	offset := 4 - len(parts)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return DurationFields{}, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		idx := offset + i
		if v < 0 || v > durationLimits[idx] {
			return DurationFields{}, fmt.Errorf("invalid duration %q: field %d out of range 0-%d", s, idx, durationLimits[idx])
		}
		values[idx] = v
	}

	return DurationFields{Days: values[0], Hours: values[1], Minutes: values[2], Seconds: values[3]}, nil
}
