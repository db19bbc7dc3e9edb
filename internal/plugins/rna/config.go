package rna

import "fmt"

// Built-in defaults for the tuning parameters read from the directive file.
// 从指令文件读取的调优参数的内置默认值。
const (
	DefaultUpdateTimeout      uint32 = 3600
	DefaultMaxHostClientApps  uint32 = 16
	DefaultMaxPayloads        uint32 = 100
	DefaultMaxHostServices    uint32 = 100
	DefaultMaxHostServiceInfo uint32 = 16
)

// RnaConfig holds the tuning parameters of the inspector.
// A record is created with defaults, filled from the directive file, and never
// modified after it is published to the inspector; reloads replace it wholesale.
// RnaConfig 保存检查器的调优参数。
// 记录以默认值创建，由指令文件填充，发布给检查器后不再修改；重新加载时整体替换。
type RnaConfig struct {
	// UpdateTimeout is in seconds.
	UpdateTimeout      uint32
	MaxHostClientApps  uint32
	MaxPayloads        uint32
	MaxHostServices    uint32
	MaxHostServiceInfo uint32
	EnableBannerGrab   bool
}

// DefaultRnaConfig returns a record holding the built-in defaults.
// DefaultRnaConfig 返回保存内置默认值的记录。
func DefaultRnaConfig() *RnaConfig {
	return &RnaConfig{
		UpdateTimeout:      DefaultUpdateTimeout,
		MaxHostClientApps:  DefaultMaxHostClientApps,
		MaxPayloads:        DefaultMaxPayloads,
		MaxHostServices:    DefaultMaxHostServices,
		MaxHostServiceInfo: DefaultMaxHostServiceInfo,
		EnableBannerGrab:   false,
	}
}

func (c *RnaConfig) String() string {
	return fmt.Sprintf("update_timeout=%d max_host_client_apps=%d max_payloads=%d max_host_services=%d max_host_service_info=%d banner_grab=%t",
		c.UpdateTimeout, c.MaxHostClientApps, c.MaxPayloads, c.MaxHostServices, c.MaxHostServiceInfo, c.EnableBannerGrab)
}

// RnaModuleConfig holds the paths supplied by the host configuration.
// Empty means unset. Only RnaConfPath is consumed; the others are surfaced by Show.
// RnaModuleConfig 保存宿主配置提供的路径。空表示未设置。
// 仅使用 RnaConfPath；其余路径由 Show 展示。
type RnaModuleConfig struct {
	RnaConfPath          string
	RnaUtilLibPath       string
	FingerprintDir       string
	CustomFingerprintDir string
}
