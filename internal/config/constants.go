package config

import "github.com/netxfw/rna/internal/runtime"

// DefaultConfigPath is the standard location of the host configuration file.
// DefaultConfigPath 是宿主配置文件的标准位置。
const DefaultConfigPath = "/etc/netxfw/rna.yaml"

// GetConfigPath returns the configuration file path
// If runtime.ConfigPath is set (e.g., via CLI flag or test), it takes precedence.
// GetConfigPath 返回配置文件路径
// 如果 runtime.ConfigPath 已设置（例如通过 CLI 标志或测试），则优先使用它。
func GetConfigPath() string {
	if runtime.ConfigPath != "" {
		return runtime.ConfigPath
	}
	return DefaultConfigPath
}
