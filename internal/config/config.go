package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"production-simulator/internal/types"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config 定义应用程序的配置结构
// 使用 mapstructure 标签来映射配置文件中的字段
type Config struct {
	SnapshotPath   string          `mapstructure:"snapshot_path" yaml:"snapshot_path"`     // 工序快照文件路径
	Products       []types.Product `mapstructure:"products" yaml:"products"`               // 固定的三种产品，顺序即报表顺序
	Machines       []types.Machine `mapstructure:"machines" yaml:"machines"`               // 固定的八种设备
	RandomQuantity QuantityRange   `mapstructure:"random_quantity" yaml:"random_quantity"` // 随机需求数量的范围
	Report         ReportConfig    `mapstructure:"report" yaml:"report"`
	MetricsFile    string          `mapstructure:"metrics_file" yaml:"metrics_file"` // 指标文本文件路径，为空则不写
	LogLevel       string          `mapstructure:"log_level" yaml:"log_level"`
}

// QuantityRange 是随机需求数量的闭区间
type QuantityRange struct {
	Min int `mapstructure:"min" yaml:"min"`
	Max int `mapstructure:"max" yaml:"max"`
}

// ReportConfig 控制报表的生成策略
type ReportConfig struct {
	// AbortOnInvalidQuantity 为 true 时，任一产品数量非法则整份报表作废
	AbortOnInvalidQuantity bool `mapstructure:"abort_on_invalid_quantity" yaml:"abort_on_invalid_quantity"`
}

// Defaults 返回默认配置
func Defaults() Config {
	return Config{
		SnapshotPath:   "default_operations.json",
		Products:       types.DefaultProducts(),
		Machines:       types.DefaultMachines(),
		RandomQuantity: QuantityRange{Min: 300, Max: 500},
		Report:         ReportConfig{AbortOnInvalidQuantity: true},
		LogLevel:       "info",
	}
}

// LoadConfig 加载配置
// path 为空时在当前目录查找 config.yaml，找不到则使用默认值；
// 显式指定的 path 必须存在。环境变量 PRODSIM_* 覆盖文件中的值。
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PRODSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // 配置文件名称 (不带扩展名)
		v.SetConfigType("yaml")   // 配置文件类型
		v.AddConfigPath(".")      // 查找配置文件的路径 (当前目录)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	products := make([]string, len(d.Products))
	for i, p := range d.Products {
		products[i] = string(p)
	}
	machines := make([]string, len(d.Machines))
	for i, m := range d.Machines {
		machines[i] = string(m)
	}

	v.SetDefault("snapshot_path", d.SnapshotPath)
	v.SetDefault("products", products)
	v.SetDefault("machines", machines)
	v.SetDefault("random_quantity.min", d.RandomQuantity.Min)
	v.SetDefault("random_quantity.max", d.RandomQuantity.Max)
	v.SetDefault("report.abort_on_invalid_quantity", d.Report.AbortOnInvalidQuantity)
	v.SetDefault("metrics_file", d.MetricsFile)
	v.SetDefault("log_level", d.LogLevel)
}

// Validate 校验配置的一致性
func (c *Config) Validate() error {
	if c.SnapshotPath == "" {
		return errors.New("snapshot_path must not be empty")
	}
	if err := checkDistinct("products", c.Products, 3); err != nil {
		return err
	}
	if err := checkDistinct("machines", c.Machines, 8); err != nil {
		return err
	}
	if c.RandomQuantity.Min < 0 || c.RandomQuantity.Min > c.RandomQuantity.Max {
		return fmt.Errorf("random_quantity: invalid range [%d, %d]", c.RandomQuantity.Min, c.RandomQuantity.Max)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func checkDistinct[T ~string](key string, values []T, want int) error {
	if len(values) != want {
		return fmt.Errorf("%s: expected exactly %d entries, got %d", key, want, len(values))
	}
	seen := make(map[T]bool, len(values))
	for _, v := range values {
		if strings.TrimSpace(string(v)) == "" {
			return fmt.Errorf("%s: empty entry", key)
		}
		if seen[v] {
			return fmt.Errorf("%s: duplicate entry %q", key, v)
		}
		seen[v] = true
	}
	return nil
}

// SlogLevel 将 log_level 转换为 slog.Level
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// WriteDefault 将默认配置写成 YAML 文件，文件已存在时报错
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
