package sdk

import "fmt"

// HealthStatus tells whether an inspector runs on the settings it was configured with.
// HealthStatus 表示检查器是否运行在其配置的设置上。
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health is what an inspector reports about its settings.
type Health struct {
	Status HealthStatus
	// Message explains the status, including the load error when degraded.
	Message string
	// Source is the file the settings were read from, empty on defaults.
	Source string
}

// Degraded reports whether the inspector runs on fallbacks.
func (h Health) Degraded() bool { return h.Status == HealthStatusDegraded }

func (h Health) String() string {
	if h.Message == "" {
		return string(h.Status)
	}
	return fmt.Sprintf("%s (%s)", h.Status, h.Message)
}

// HealthChecker is implemented by inspectors that can tell the host whether they
// run on their configured settings or on defaults.
// HealthChecker 由能够告知宿主其运行在配置设置还是默认值上的检查器实现。
type HealthChecker interface {
	Name() string
	CheckHealth() Health
}
