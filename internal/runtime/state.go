package runtime

// ConfigPath stores the path to the host configuration file provided via CLI flags.
// ConfigPath 存储通过 CLI 标志提供的宿主配置文件路径。
var ConfigPath string

// Verbose enables debug logging regardless of the configured level.
// Verbose 无论配置的级别如何都启用调试日志。
var Verbose bool
