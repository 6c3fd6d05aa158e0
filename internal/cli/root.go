package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"production-simulator/internal/config"
	"production-simulator/internal/engine"
	"production-simulator/internal/event"
	"production-simulator/internal/handlers"
	"production-simulator/internal/metrics"
	"production-simulator/internal/registry"

	"github.com/spf13/cobra"
)

// ErrQuantities 表示报表因数量输入错误而未生成，提示已输出给用户
var ErrQuantities = errors.New(engine.QuantityNotice)

// skipSetupAnnotation 标记不需要加载快照的命令
const skipSetupAnnotation = "prodsim/skip-setup"

// App 持有一次命令执行所需的全部组件
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Bus       *event.Bus
	Simulator *engine.Simulator
}

type rootOptions struct {
	configPath  string
	snapshot    string
	logLevel    string
	metricsFile string
}

// NewRootCmd 构建命令树，输入输出由调用方注入
func NewRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	app := &App{}

	root := &cobra.Command{
		Use:           "prodsim",
		Short:         "Production time simulator",
		Long:          `Records manufacturing operations per product and estimates total production time from batch quantities.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipSetupAnnotation] == "true" {
				return nil
			}
			return app.setup(opts, stderr)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app.Config == nil || app.Config.MetricsFile == "" {
				return nil
			}
			if err := metrics.WriteTextfile(app.Config.MetricsFile); err != nil {
				return fmt.Errorf("write metrics file: %w", err)
			}
			return nil
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"config file (default: ./config.yaml if present)")
	root.PersistentFlags().StringVar(&opts.snapshot, "snapshot", "",
		"operations snapshot file (overrides snapshot_path)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"log level: debug, info, warn, error (overrides log_level)")
	root.PersistentFlags().StringVar(&opts.metricsFile, "metrics-file", "",
		"write Prometheus metrics to this textfile on exit (overrides metrics_file)")

	root.AddCommand(
		newOpsCmd(app),
		newSimulateCmd(app),
		newShellCmd(app),
		newConfigCmd(),
	)
	return root
}

// setup 加载配置和快照；快照的结构性错误是致命的
func (a *App) setup(opts *rootOptions, stderr io.Writer) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.snapshot != "" {
		cfg.SnapshotPath = opts.snapshot
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.metricsFile != "" {
		cfg.MetricsFile = opts.metricsFile
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	bus := event.NewBus()
	handlers.RegisterEventHandlers(bus, logger)

	reg, err := registry.Load(cfg.SnapshotPath, cfg.Products, cfg.Machines, bus)
	if err != nil {
		logger.Error("加载工序快照失败", "path", cfg.SnapshotPath, "error", err)
		return err
	}

	a.Config = cfg
	a.Logger = logger
	a.Bus = bus
	a.Simulator = engine.NewSimulator(reg, cfg.SnapshotPath, cfg.Report.AbortOnInvalidQuantity, logger, bus)
	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Manage the configuration file",
		Annotations: map[string]string{skipSetupAnnotation: "true"},
	}
	cmd.AddCommand(&cobra.Command{
		Use:         "init [path]",
		Short:       "Write the default configuration to a YAML file",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{skipSetupAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteDefault(path); err != nil {
				return fmt.Errorf("write default config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	})
	return cmd
}
