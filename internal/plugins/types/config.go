package types

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/netxfw/rna/internal/utils/fileutil"
	"github.com/netxfw/rna/internal/utils/logger"
	"gopkg.in/yaml.v3"
)

// ConfigMu protects concurrent access to the configuration file.
// ConfigMu 保护对配置文件的并发访问。
var ConfigMu sync.RWMutex

// DefaultConfigTemplate defines the default host configuration file with bilingual comments.
// It is written by `rna init`.
// DefaultConfigTemplate 定义带双语注释的默认宿主配置文件，由 `rna init` 写入。
const DefaultConfigTemplate = `# RNA Host Configuration File / RNA 宿主配置文件
#

# Logging Configuration / 日志配置
logging:
  # Write to path instead of stderr.
  # 写入 path 而不是 stderr。
  enabled: false
  level: "info"
  path: "/var/log/netxfw/rna.log"
  max_size: 10
  max_backups: 3
  max_age: 30
  compress: true

# Metrics Configuration / 监控指标配置
metrics:
  enabled: false
  # Serve /metrics on this address while the engine runs. Empty disables the server.
  # 引擎运行期间在此地址提供 /metrics。为空则禁用服务。
  listen: ""
  # Textfile export for node_exporter, written when the engine stops.
  # 供 node_exporter 使用的文本文件导出，在引擎停止时写入。
  textfile_path: ""
  # PushGateway address, pushed once when the engine stops.
  # PushGateway 地址，在引擎停止时推送一次。
  push_gateway_addr: ""

# Engine Configuration / 引擎配置
engine:
  # Number of packet worker threads.
  # 数据包工作线程数量。
  workers: 4
  # Per-worker packet queue length.
  # 每个工作线程的数据包队列长度。
  queue_size: 1024
  # Eligibility filter (expr syntax). Empty means every packet.
  # Fields: proto, src_ip, dst_ip, src_port, dst_port, length, rebuilt
  # 资格过滤器（expr 语法）。为空表示所有数据包。
  filter: ""
  # Reassemble TCP streams and deliver rebuilt-stream packets.
  # 重组 TCP 流并投递重组流数据包。
  reassemble: false
  # Deliver data held back by a gap once the stream has been idle this long (capture time).
  # 流空闲（捕获时间）达到该时长后，投递因空洞而滞留的数据。
  reassembly_timeout: 30s

# RNA Inspector Configuration / RNA 检查器配置
rna:
  enabled: true
  # Directive file (<type> <key> <value> per line).
  # 指令文件（每行 <type> <key> <value>）。
  rna_conf_path: ""
  rna_util_lib_path: ""
  fingerprint_dir: ""
  custom_fingerprint_dir: ""
  # Reload the directive file when it changes.
  # 指令文件变化时重新加载。
  watch: false
`

// GlobalConfig is the host configuration.
// GlobalConfig 是宿主配置。
type GlobalConfig struct {
	Logging logger.LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig        `yaml:"metrics"`
	Engine  EngineConfig         `yaml:"engine"`
	Rna     RnaConfig            `yaml:"rna"`
}

// MetricsConfig defines the configuration for metrics collection.
// MetricsConfig 定义指标收集配置。
type MetricsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Listen          string `yaml:"listen"`
	TextfilePath    string `yaml:"textfile_path"`
	PushGatewayAddr string `yaml:"push_gateway_addr"`
}

// EngineConfig defines how packets are dispatched to inspectors.
// EngineConfig 定义数据包如何分发给检查器。
type EngineConfig struct {
	Workers    int    `yaml:"workers"`
	QueueSize  int    `yaml:"queue_size"`
	Filter     string `yaml:"filter"`
	Reassemble bool   `yaml:"reassemble"`
	// ReassemblyTimeout is how long, in capture time, a stream may sit on a gap before
	// its buffered data is delivered anyway. Zero keeps gaps until the capture ends.
	// ReassemblyTimeout 是流在空洞上等待的最长捕获时间，超时后仍投递其缓冲数据。为零时保留空洞直到捕获结束。
	ReassemblyTimeout time.Duration `yaml:"reassembly_timeout"`
}

// RnaConfig holds the host-facing settings of the rna inspector.
// The four paths map one-to-one onto the module parameters.
// RnaConfig 保存 rna 检查器面向宿主的设置。四个路径与模块参数一一对应。
type RnaConfig struct {
	Enabled              bool   `yaml:"enabled"`
	RnaConfPath          string `yaml:"rna_conf_path"`
	RnaUtilLibPath       string `yaml:"rna_util_lib_path"`
	FingerprintDir       string `yaml:"fingerprint_dir"`
	CustomFingerprintDir string `yaml:"custom_fingerprint_dir"`
	Watch                bool   `yaml:"watch"`
}

// DefaultGlobalConfig returns the configuration used when no file is present.
// DefaultGlobalConfig 返回没有配置文件时使用的配置。
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Logging: logger.LoggingConfig{
			Enabled:    false,
			Level:      "info",
			Path:       "/var/log/netxfw/rna.log",
			MaxSize:    10, // 10MB
			MaxBackups: 3,
			MaxAge:     30, // 30 days
			Compress:   true,
		},
		Engine: EngineConfig{
			Workers:           4,
			QueueSize:         1024,
			ReassemblyTimeout: 30 * time.Second,
		},
		Rna: RnaConfig{
			Enabled: true,
		},
	}
}

// LoadGlobalConfig loads the configuration from a YAML file.
// LoadGlobalConfig 从 YAML 文件加载配置。
func LoadGlobalConfig(path string) (*GlobalConfig, error) {
	ConfigMu.RLock()
	defer ConfigMu.RUnlock()

	safePath := filepath.Clean(path) // Sanitize path to prevent directory traversal
	data, err := os.ReadFile(safePath)
	if err != nil {
		return nil, err
	}

	// Initialize with defaults / 使用默认值初始化
	cfg := DefaultGlobalConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteDefaultConfig writes DefaultConfigTemplate to path unless a file already exists there.
// It reports whether a file was written.
// WriteDefaultConfig 将 DefaultConfigTemplate 写入 path，除非该处已存在文件。返回是否写入了文件。
func WriteDefaultConfig(path string, force bool) (bool, error) {
	ConfigMu.Lock()
	defer ConfigMu.Unlock()

	if !force && fileutil.Exists(path) {
		return false, nil
	}
	if err := fileutil.AtomicWriteFile(path, []byte(DefaultConfigTemplate), 0644); err != nil {
		return false, err
	}
	return true, nil
}
