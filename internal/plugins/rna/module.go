package rna

import (
	"sync"

	"github.com/netxfw/rna/internal/plugins/types"
	rnaerrors "github.com/netxfw/rna/pkg/errors"
	"github.com/netxfw/rna/pkg/sdk"
)

const (
	RnaName = "rna"
	RnaHelp = "Real-time network awareness and OS fingerprinting (experimental)"
)

// Module parameter names.
// 模块参数名称。
const (
	ParamRnaConfPath          = "rna_conf_path"
	ParamRnaUtilLibPath       = "rna_util_lib_path"
	ParamFingerprintDir       = "fingerprint_dir"
	ParamCustomFingerprintDir = "custom_fingerprint_dir"
)

var rnaParams = []sdk.Parameter{
	{Name: ParamRnaConfPath, Help: "path to rna configuration"},
	{Name: ParamRnaUtilLibPath, Help: "path to library for utilities such as fingerprint decoder"},
	{Name: ParamFingerprintDir, Help: "directory to fingerprint patterns"},
	{Name: ParamCustomFingerprintDir, Help: "directory to custom fingerprint patterns"},
}

var rnaPegs = []sdk.PegInfo{
	{Name: "total_packets", Help: "count of packets received"},
}

// Module is the host-side configuration object of the rna inspector.
// Module 是 rna 检查器在宿主侧的配置对象。
type Module struct {
	mu      sync.Mutex
	conf    *RnaModuleConfig
	stats   sdk.SimpleStats
	profile sdk.ProfileStats
}

// NewModule creates a module with every path unset.
// NewModule 创建所有路径均未设置的模块。
func NewModule() *Module {
	return &Module{conf: &RnaModuleConfig{}}
}

func (m *Module) Name() string { return RnaName }

func (m *Module) Help() string { return RnaHelp }

func (m *Module) Params() []sdk.Parameter { return rnaParams }

// Set applies one host setting.
// Set 应用一项宿主设置。
func (m *Module) Set(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conf == nil {
		m.conf = &RnaModuleConfig{}
	}

	switch name {
	case ParamRnaConfPath:
		m.conf.RnaConfPath = value
	case ParamRnaUtilLibPath:
		m.conf.RnaUtilLibPath = value
	case ParamFingerprintDir:
		m.conf.FingerprintDir = value
	case ParamCustomFingerprintDir:
		m.conf.CustomFingerprintDir = value
	default:
		return rnaerrors.NewParameterError(RnaName, name)
	}
	return nil
}

// SetFromConfig applies the rna section of the host YAML configuration.
// SetFromConfig 应用宿主 YAML 配置中的 rna 部分。
func (m *Module) SetFromConfig(cfg types.RnaConfig) error {
	settings := []struct{ name, value string }{
		{ParamRnaConfPath, cfg.RnaConfPath},
		{ParamRnaUtilLibPath, cfg.RnaUtilLibPath},
		{ParamFingerprintDir, cfg.FingerprintDir},
		{ParamCustomFingerprintDir, cfg.CustomFingerprintDir},
	}
	for _, s := range settings {
		if err := m.Set(s.name, s.value); err != nil {
			return err
		}
	}
	return nil
}

// GetConfig hands the module configuration over to the caller.
// The module keeps no reference; a second call returns nil.
// GetConfig 将模块配置移交给调用者。模块不再保留引用；第二次调用返回 nil。
func (m *Module) GetConfig() *RnaModuleConfig {
	m.mu.Lock()
	defer m.mu.Unlock()

	conf := m.conf
	m.conf = nil
	return conf
}

func (m *Module) Pegs() []sdk.PegInfo { return rnaPegs }

// Counts returns the totals in Pegs order.
// Counts 按 Pegs 顺序返回总计。
func (m *Module) Counts() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return []uint64{m.stats.TotalPackets}
}

// AddStats folds one detached thread's counters into the module totals.
// AddStats 将一个已分离线程的计数器合并到模块总计。
func (m *Module) AddStats(tc *sdk.ThreadContext) {
	if tc == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.TotalPackets += tc.Stats.TotalPackets
	m.profile.Add(tc.Profile)
}

// Profile returns the aggregated Eval timing.
// Profile 返回聚合后的 Eval 计时。
func (m *Module) Profile() sdk.ProfileStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile
}
