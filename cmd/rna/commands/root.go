package commands

import (
	"fmt"
	"os"

	"github.com/netxfw/rna/internal/config"
	"github.com/netxfw/rna/internal/plugins/types"
	"github.com/netxfw/rna/internal/runtime"
	"github.com/netxfw/rna/internal/utils/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// hostConfig holds the outcome of loading the host configuration in PersistentPreRun.
// hostConfig 保存在 PersistentPreRun 中加载宿主配置的结果。
type hostConfig struct {
	mgr *config.ConfigManager
	err error
}

// overrides carries command line settings that replace values from the host configuration.
// Zero fields leave the loaded value alone.
type overrides struct {
	directives string
	engine     func(*types.EngineConfig)
}

// resolve applies o to the loaded configuration through the manager, validates the
// result and returns a copy for the engine.
// resolve 通过管理器将 o 应用到已加载的配置，校验结果并返回供引擎使用的副本。
func (h *hostConfig) resolve(o overrides) (*types.GlobalConfig, error) {
	if h.err != nil {
		return nil, fmt.Errorf("load %s: %w", h.mgr.GetConfigPath(), h.err)
	}

	if o.directives != "" {
		rnaCfg := h.mgr.GetRnaConfig()
		rnaCfg.RnaConfPath = o.directives
		h.mgr.SetRnaConfig(*rnaCfg)
	}
	if o.engine != nil {
		engineCfg := h.mgr.GetEngineConfig()
		o.engine(engineCfg)
		h.mgr.SetEngineConfig(*engineCfg)
	}

	if err := h.mgr.Validate(); err != nil {
		return nil, err
	}
	return h.mgr.GetConfig(), nil
}

// NewRootCmd builds the rna command tree.
// NewRootCmd 构建 rna 命令树。
func NewRootCmd() *cobra.Command {
	host := &hostConfig{}

	root := &cobra.Command{
		Use:   "rna",
		Short: "Real-time network awareness inspector",
		// Short: 实时网络感知检查器
		Long: `rna passively builds host and service awareness from network traffic.
It reads its tuning directives from a plain text file and runs as an inspector
inside a packet processing engine.
rna 从网络流量中被动建立主机和服务感知。
它从纯文本文件读取调优指令，并作为检查器运行在数据包处理引擎中。`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load configuration to get logging settings
			// 加载配置以获取日志设置
			host.mgr = config.NewConfigManager(config.GetConfigPath())
			host.err = host.mgr.LoadConfig()

			logCfg := types.DefaultGlobalConfig().Logging
			if host.err == nil {
				logCfg = *host.mgr.GetLoggingConfig()
			}
			if runtime.Verbose {
				logCfg.Level = "debug"
			}
			logger.Init(logCfg)

			log := logger.Get(nil)
			if host.err == nil && host.mgr.UsingDefaults() {
				log.Debugf("No configuration at %s, using defaults", host.mgr.GetConfigPath())
			}

			// Inject logger into context
			// 将 Logger 注入 Context
			cmd.SetContext(logger.WithContext(cmd.Context(), log))
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&runtime.ConfigPath, "config", "c", "", fmt.Sprintf("Path to configuration file (default: %s)", config.DefaultConfigPath))
	root.PersistentFlags().BoolVarP(&runtime.Verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newCheckCmd())
	root.AddCommand(newShowCmd(host))
	root.AddCommand(newReplayCmd(host))
	root.AddCommand(newInitCmd(host))
	root.AddCommand(newVersionCmd())

	root.CompletionOptions.DisableDescriptions = true
	return root
}

// cmdLogger returns the logger injected by PersistentPreRun.
func cmdLogger(cmd *cobra.Command) *zap.SugaredLogger {
	return logger.Get(cmd.Context())
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
