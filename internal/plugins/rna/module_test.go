package rna

import (
	"errors"
	"testing"
	"time"

	"github.com/netxfw/rna/internal/plugins/types"
	rnaerrors "github.com/netxfw/rna/pkg/errors"
	"github.com/netxfw/rna/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestModule_Set tests that each documented parameter lands in its field
// TestModule_Set 测试每个参数写入对应字段
func TestModule_Set(t *testing.T) {
	mod := NewModule()
	require.NoError(t, mod.Set(ParamRnaConfPath, "/etc/rna.conf"))
	require.NoError(t, mod.Set(ParamRnaUtilLibPath, "/usr/lib/rna_util.so"))
	require.NoError(t, mod.Set(ParamFingerprintDir, "/fp"))
	require.NoError(t, mod.Set(ParamCustomFingerprintDir, "/fp/custom"))

	conf := mod.GetConfig()
	require.NotNil(t, conf)
	assert.Equal(t, RnaModuleConfig{
		RnaConfPath:          "/etc/rna.conf",
		RnaUtilLibPath:       "/usr/lib/rna_util.so",
		FingerprintDir:       "/fp",
		CustomFingerprintDir: "/fp/custom",
	}, *conf)
}

// TestModule_SetUnknown tests rejection of unknown parameter names
// TestModule_SetUnknown 测试拒绝未知参数名
func TestModule_SetUnknown(t *testing.T) {
	mod := NewModule()
	err := mod.Set("bogus", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, rnaerrors.ErrUnknownParameter))
	assert.Equal(t, "unknown module parameter: rna.bogus", err.Error())
}

// TestModule_GetConfigTransfersOwnership tests that a second call yields nil
// TestModule_GetConfigTransfersOwnership 测试第二次调用返回 nil
func TestModule_GetConfigTransfersOwnership(t *testing.T) {
	mod := NewModule()
	first := mod.GetConfig()
	require.NotNil(t, first)
	assert.Nil(t, mod.GetConfig())

	// Setting after transfer starts a fresh configuration
	// 移交后再设置会开始新的配置
	require.NoError(t, mod.Set(ParamFingerprintDir, "/fp"))
	second := mod.GetConfig()
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.Equal(t, "/fp", second.FingerprintDir)
	assert.Empty(t, second.RnaConfPath)
}

// TestModule_SetFromConfig tests applying the YAML rna section
// TestModule_SetFromConfig 测试应用 YAML 的 rna 部分
func TestModule_SetFromConfig(t *testing.T) {
	mod := NewModule()
	require.NoError(t, mod.SetFromConfig(types.RnaConfig{
		Enabled:        true,
		RnaConfPath:    "/etc/rna.conf",
		FingerprintDir: "/fp",
	}))

	conf := mod.GetConfig()
	assert.Equal(t, "/etc/rna.conf", conf.RnaConfPath)
	assert.Equal(t, "/fp", conf.FingerprintDir)
	assert.Empty(t, conf.RnaUtilLibPath)
	assert.Empty(t, conf.CustomFingerprintDir)
}

// TestModule_Metadata tests name, help, params and pegs
// TestModule_Metadata 测试名称、帮助、参数和计数器
func TestModule_Metadata(t *testing.T) {
	mod := NewModule()
	assert.Equal(t, "rna", mod.Name())
	assert.Equal(t, RnaHelp, mod.Help())

	var names []string
	for _, p := range mod.Params() {
		names = append(names, p.Name)
		assert.NotEmpty(t, p.Help)
	}
	assert.Equal(t, []string{"rna_conf_path", "rna_util_lib_path", "fingerprint_dir", "custom_fingerprint_dir"}, names)

	require.Len(t, mod.Pegs(), 1)
	assert.Equal(t, "total_packets", mod.Pegs()[0].Name)
	assert.Equal(t, []uint64{0}, mod.Counts())
}

// TestModule_AddStats tests folding thread counters into module totals
// TestModule_AddStats 测试将线程计数器合并到模块总计
func TestModule_AddStats(t *testing.T) {
	mod := NewModule()

	tc1 := sdk.NewThreadContext(0, nil)
	tc1.Stats.TotalPackets = 5
	tc1.Profile = sdk.ProfileStats{Checks: 6, Elapsed: 6 * time.Microsecond}

	tc2 := sdk.NewThreadContext(1, nil)
	tc2.Stats.TotalPackets = 2
	tc2.Profile = sdk.ProfileStats{Checks: 2, Elapsed: 2 * time.Microsecond}

	mod.AddStats(tc1)
	mod.AddStats(tc2)
	mod.AddStats(nil)

	assert.Equal(t, []uint64{7}, mod.Counts())
	prof := mod.Profile()
	assert.Equal(t, uint64(8), prof.Checks)
	assert.Equal(t, time.Microsecond, prof.Average())
}
