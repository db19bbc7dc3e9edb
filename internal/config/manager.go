package config

import (
	"errors"
	"io/fs"
	"sync"

	"github.com/netxfw/rna/internal/plugins/types"
	"github.com/netxfw/rna/internal/utils/logger"
)

// ConfigManager owns the host configuration of one command invocation: it loads
// the file, lets the command override engine and inspector sections, and
// validates the result before the engine is built.
// ConfigManager 持有一次命令调用的宿主配置：加载文件，允许命令覆盖引擎和检查器部分，
// 并在构建引擎前校验结果。
type ConfigManager struct {
	configPath string
	mutex      sync.RWMutex
	config     *types.GlobalConfig
	defaults   bool
}

// NewConfigManager creates a new configuration manager instance
// NewConfigManager 创建新的配置管理器实例
func NewConfigManager(configPath string) *ConfigManager {
	return &ConfigManager{
		configPath: configPath,
	}
}

// LoadConfig loads the configuration from the specified path.
// A missing file is not an error: the built-in defaults are used instead.
// LoadConfig 从指定路径加载配置。文件不存在不是错误：改用内置默认值。
func (cm *ConfigManager) LoadConfig() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	config, err := types.LoadGlobalConfig(cm.configPath)
	if errors.Is(err, fs.ErrNotExist) {
		cm.config = types.DefaultGlobalConfig()
		cm.defaults = true
		return nil
	}
	if err != nil {
		return err
	}

	cm.config = config
	cm.defaults = false
	return nil
}

// WriteDefault writes the default template to the managed path and loads it.
// An existing file is kept unless force is set. It reports whether the file was written.
// WriteDefault 将默认模板写入管理的路径并加载。除非设置 force，否则保留已有文件。返回是否写入。
func (cm *ConfigManager) WriteDefault(force bool) (bool, error) {
	written, err := types.WriteDefaultConfig(cm.configPath, force)
	if err != nil || !written {
		return written, err
	}
	return true, cm.LoadConfig()
}

// UsingDefaults reports whether the last load found no file.
// UsingDefaults 报告上次加载是否未找到文件。
func (cm *ConfigManager) UsingDefaults() bool {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return cm.defaults
}

// GetConfig returns a copy of the current configuration
// GetConfig 返回当前配置的副本
func (cm *ConfigManager) GetConfig() *types.GlobalConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}

	cfgCopy := *cm.config
	return &cfgCopy
}

// GetLoggingConfig returns the logging configuration
// GetLoggingConfig 返回日志配置
func (cm *ConfigManager) GetLoggingConfig() *logger.LoggingConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}

	loggingCfg := cm.config.Logging
	return &loggingCfg
}

// GetEngineConfig returns the engine configuration
// GetEngineConfig 返回引擎配置
func (cm *ConfigManager) GetEngineConfig() *types.EngineConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}

	engineCfg := cm.config.Engine
	return &engineCfg
}

// GetRnaConfig returns the rna inspector configuration
// GetRnaConfig 返回 rna 检查器配置
func (cm *ConfigManager) GetRnaConfig() *types.RnaConfig {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}

	rnaCfg := cm.config.Rna
	return &rnaCfg
}

// SetEngineConfig updates the engine configuration
// SetEngineConfig 更新引擎配置
func (cm *ConfigManager) SetEngineConfig(engineConfig types.EngineConfig) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.config != nil {
		cm.config.Engine = engineConfig
	}
}

// SetRnaConfig updates the rna inspector configuration
// SetRnaConfig 更新 rna 检查器配置
func (cm *ConfigManager) SetRnaConfig(rnaConfig types.RnaConfig) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.config != nil {
		cm.config.Rna = rnaConfig
	}
}

// GetConfigPath returns the configuration file path
// GetConfigPath 返回配置文件路径
func (cm *ConfigManager) GetConfigPath() string {
	return cm.configPath
}

// Validate checks the configuration after overrides were applied.
// Validate 在应用覆盖后检查配置。
func (cm *ConfigManager) Validate() error {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	if cm.config == nil {
		return nil
	}

	return cm.config.Validate()
}
