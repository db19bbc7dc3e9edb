package logger

// LoggingConfig defines the configuration for logging.
// LoggingConfig 定义日志配置。
type LoggingConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Write to Path instead of stderr / 写入 Path 而不是 stderr
	Level      string `yaml:"level"`       // debug, info, warn, error / 日志级别
	Path       string `yaml:"path"`        // Log file path / 日志文件路径
	MaxSize    int    `yaml:"max_size"`    // MB before rotation / 轮转前的最大大小（MB）
	MaxBackups int    `yaml:"max_backups"` // Rotated files kept / 保留的旧文件数量
	MaxAge     int    `yaml:"max_age"`     // Days rotated files are kept / 保留天数
	Compress   bool   `yaml:"compress"`    // Gzip rotated files / 压缩旧文件
}
