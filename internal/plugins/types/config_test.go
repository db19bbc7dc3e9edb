package types

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	rnaerrors "github.com/netxfw/rna/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestLoadGlobalConfig_NonExistent tests loading from non-existent file
// TestLoadGlobalConfig_NonExistent 测试从不存在的文件加载
func TestLoadGlobalConfig_NonExistent(t *testing.T) {
	_, err := LoadGlobalConfig("/non/existent/path/rna.yaml")
	assert.Error(t, err)
}

// TestLoadGlobalConfig_Valid tests loading a valid config file over defaults
// TestLoadGlobalConfig_Valid 测试在默认值之上加载有效配置文件
func TestLoadGlobalConfig_Valid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "rna.yaml")
	configContent := `
engine:
  workers: 2
  filter: 'proto == "tcp"'
  reassembly_timeout: 2m
rna:
  rna_conf_path: /etc/netxfw/rna.conf
  fingerprint_dir: /usr/share/rna/fingerprints
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := LoadGlobalConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, `proto == "tcp"`, cfg.Engine.Filter)
	assert.Equal(t, 2*time.Minute, cfg.Engine.ReassemblyTimeout)
	assert.Equal(t, "/etc/netxfw/rna.conf", cfg.Rna.RnaConfPath)
	assert.Equal(t, "/usr/share/rna/fingerprints", cfg.Rna.FingerprintDir)
	assert.Empty(t, cfg.Rna.CustomFingerprintDir)

	// Untouched sections keep their defaults
	// 未设置的部分保留默认值
	assert.Equal(t, 1024, cfg.Engine.QueueSize)
	assert.True(t, cfg.Rna.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Logging.MaxSize)
}

// TestLoadGlobalConfig_InvalidYAML tests that syntax errors are reported
// TestLoadGlobalConfig_InvalidYAML 测试语法错误会被报告
func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "rna.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("engine: [\n"), 0644))

	_, err := LoadGlobalConfig(configPath)
	assert.Error(t, err)
}

// TestLoadGlobalConfig_ValidationFails tests that invalid values are rejected
// TestLoadGlobalConfig_ValidationFails 测试无效值被拒绝
func TestLoadGlobalConfig_ValidationFails(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "rna.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("engine:\n  workers: 0\n"), 0644))

	_, err := LoadGlobalConfig(configPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rnaerrors.ErrConfigInvalid))
	assert.Contains(t, err.Error(), "engine.workers")
}

// TestDefaultConfigTemplate tests that the template parses to the default config
// TestDefaultConfigTemplate 测试模板解析后等于默认配置
func TestDefaultConfigTemplate(t *testing.T) {
	var fromTemplate GlobalConfig
	require.NoError(t, yaml.Unmarshal([]byte(DefaultConfigTemplate), &fromTemplate))
	assert.Equal(t, *DefaultGlobalConfig(), fromTemplate)
	assert.NoError(t, fromTemplate.Validate())
}

// TestWriteDefaultConfig tests that an existing file is only replaced when forced
// TestWriteDefaultConfig 测试仅在强制时替换已有文件
func TestWriteDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "etc", "rna.yaml")

	written, err := WriteDefaultConfig(configPath, false)
	require.NoError(t, err)
	assert.True(t, written)

	require.NoError(t, os.WriteFile(configPath, []byte("engine:\n  workers: 8\n"), 0644))
	written, err = WriteDefaultConfig(configPath, false)
	require.NoError(t, err)
	assert.False(t, written)

	cfg, err := LoadGlobalConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Engine.Workers)

	written, err = WriteDefaultConfig(configPath, true)
	require.NoError(t, err)
	assert.True(t, written)
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigTemplate, string(data))
}
