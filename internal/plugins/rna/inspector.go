package rna

import (
	"fmt"
	"io"
	"sync/atomic"

	rnaerrors "github.com/netxfw/rna/pkg/errors"
	"github.com/netxfw/rna/pkg/sdk"
	"go.uber.org/zap"
)

// Inspector accumulates passive host and service awareness from traffic.
// Construction never fails: when the directive file cannot be loaded the
// inspector runs on DefaultRnaConfig.
// Inspector 从流量中被动积累主机和服务感知。
// 构造永不失败：无法加载指令文件时，检查器使用 DefaultRnaConfig 运行。
type Inspector struct {
	modConf *RnaModuleConfig
	rnaConf atomic.Pointer[RnaConfig]
	// fromFile is false while running on defaults after a failed load.
	fromFile atomic.Bool
	lastErr  atomic.Pointer[error]
	log      sdk.Logger
}

// NewInspector takes ownership of the module configuration and loads the directive file.
// NewInspector 接管模块配置并加载指令文件。
func NewInspector(mod *Module, log sdk.Logger) *Inspector {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	ins := &Inspector{log: log}
	if mod != nil {
		ins.modConf = mod.GetConfig()
	}

	if err := ins.loadRnaConf(); err != nil {
		ins.log.Warnf("RNA: Failed to load configurations from file! Using defaults. (%v)", err)
	}
	return ins
}

// loadRnaConf publishes a default record, then replaces it with the parsed file if that succeeds.
func (i *Inspector) loadRnaConf() error {
	i.rnaConf.Store(DefaultRnaConfig())
	i.fromFile.Store(false)

	if i.modConf == nil {
		err := rnaerrors.NewConfigLoadError("", nil)
		i.lastErr.Store(&err)
		return err
	}

	res, err := LoadRnaConf(i.modConf.RnaConfPath, i.log)
	if err != nil {
		i.lastErr.Store(&err)
		return err
	}

	i.rnaConf.Store(res.Config)
	i.fromFile.Store(true)
	i.lastErr.Store(nil)
	return nil
}

// Reload re-reads the directive file and replaces the record wholesale.
// On failure the current record stays in place.
// Reload 重新读取指令文件并整体替换记录。失败时保留当前记录。
func (i *Inspector) Reload() error {
	if i.modConf == nil {
		return rnaerrors.NewConfigLoadError("", nil)
	}

	res, err := LoadRnaConf(i.modConf.RnaConfPath, i.log)
	if err != nil {
		i.log.Warnf("RNA: Failed to reload configurations, keeping current settings. (%v)", err)
		return err
	}

	i.rnaConf.Store(res.Config)
	i.fromFile.Store(true)
	i.lastErr.Store(nil)
	i.log.Infof("RNA: Reloaded %s (%d directives applied, %d warnings)",
		i.modConf.RnaConfPath, res.Applied, len(res.Warnings))
	return nil
}

// Eval counts original on-wire packets. Packets rebuilt by stream reassembly are
// skipped so reassembled data is not counted twice.
// Eval 统计原始线上数据包。跳过由流重组产生的数据包，避免重复计数。
func (i *Inspector) Eval(tc *sdk.ThreadContext, p *sdk.Packet) {
	start := tc.Profile.Start()
	defer tc.Profile.Stop(start)

	if p.IsRebuilt() {
		return
	}

	tc.Stats.TotalPackets++
}

// TInit is called when a worker thread attaches. There is no per-thread state yet.
// TInit 在工作线程附加时调用。目前没有线程级状态。
func (i *Inspector) TInit(tc *sdk.ThreadContext) {}

// TTerm is called when a worker thread detaches.
// TTerm 在工作线程分离时调用。
func (i *Inspector) TTerm(tc *sdk.ThreadContext) {}

// Show writes the current configuration, paths first, then tuning parameters.
// Unset paths are omitted; each object is printed only if present.
// Show 输出当前配置，先路径后调优参数。未设置的路径被省略；每个对象仅在存在时输出。
func (i *Inspector) Show(w io.Writer) {
	fmt.Fprintf(w, "RNA Configuration\n")

	if mc := i.modConf; mc != nil {
		if mc.RnaConfPath != "" {
			fmt.Fprintf(w, "    Config path:            %s\n", mc.RnaConfPath)
		}
		if mc.RnaUtilLibPath != "" {
			fmt.Fprintf(w, "    Library path:           %s\n", mc.RnaUtilLibPath)
		}
		if mc.FingerprintDir != "" {
			fmt.Fprintf(w, "    Fingerprint dir:        %s\n", mc.FingerprintDir)
		}
		if mc.CustomFingerprintDir != "" {
			fmt.Fprintf(w, "    Custom fingerprint dir: %s\n", mc.CustomFingerprintDir)
		}
	}

	if rc := i.rnaConf.Load(); rc != nil {
		fmt.Fprintf(w, "    Update timeout:         %d secs\n", rc.UpdateTimeout)
		fmt.Fprintf(w, "    Max host client apps:   %d\n", rc.MaxHostClientApps)
		fmt.Fprintf(w, "    Max payloads:           %d\n", rc.MaxPayloads)
		fmt.Fprintf(w, "    Max host services:      %d\n", rc.MaxHostServices)
		fmt.Fprintf(w, "    Max host service info:  %d\n", rc.MaxHostServiceInfo)
		fmt.Fprintf(w, "    Banner grab:            %d\n", boolToInt(rc.EnableBannerGrab))
	}

	fmt.Fprintf(w, "\n")
}

// Close releases the record and the module configuration.
// Close 释放记录和模块配置。
func (i *Inspector) Close() error {
	i.rnaConf.Store(nil)
	i.fromFile.Store(false)
	i.modConf = nil
	return nil
}

// Config returns the record in effect. Callers must treat it as read-only.
// Config 返回当前生效的记录。调用者必须将其视为只读。
func (i *Inspector) Config() *RnaConfig {
	return i.rnaConf.Load()
}

// ModuleConfig returns the paths the inspector was built with.
// ModuleConfig 返回构建检查器时使用的路径。
func (i *Inspector) ModuleConfig() *RnaModuleConfig {
	return i.modConf
}

func (i *Inspector) Name() string { return RnaName }

// CheckHealth reports degraded while the inspector runs on defaults after a failed load.
// CheckHealth 在加载失败、检查器以默认值运行时报告降级。
func (i *Inspector) CheckHealth() sdk.Health {
	if mc := i.modConf; mc != nil && i.fromFile.Load() {
		return sdk.Health{
			Status:  sdk.HealthStatusHealthy,
			Message: "directives loaded",
			Source:  mc.RnaConfPath,
		}
	}

	msg := "running on defaults"
	if errp := i.lastErr.Load(); errp != nil && *errp != nil {
		msg += ": " + (*errp).Error()
	}
	return sdk.Health{Status: sdk.HealthStatusDegraded, Message: msg}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
