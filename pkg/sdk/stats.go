package sdk

import (
	"time"
)

// SimpleStats holds the counters an inspector pegs on one worker thread.
// SimpleStats 保存检查器在一个工作线程上累加的计数器。
type SimpleStats struct {
	TotalPackets uint64
}

// ProfileStats accumulates time spent inside Eval on one worker thread.
// ProfileStats 累计一个工作线程在 Eval 中花费的时间。
type ProfileStats struct {
	Checks  uint64
	Elapsed time.Duration
}

// Start begins a timed section.
// Start 开始一个计时区间。
func (p *ProfileStats) Start() time.Time {
	return time.Now()
}

// Stop ends the timed section begun at start.
// Stop 结束从 start 开始的计时区间。
func (p *ProfileStats) Stop(start time.Time) {
	p.Checks++
	p.Elapsed += time.Since(start)
}

// Add merges other into p.
func (p *ProfileStats) Add(other ProfileStats) {
	p.Checks += other.Checks
	p.Elapsed += other.Elapsed
}

// Average returns the mean time per check.
func (p ProfileStats) Average() time.Duration {
	if p.Checks == 0 {
		return 0
	}
	return p.Elapsed / time.Duration(p.Checks)
}

// ThreadContext is the per-worker state the host injects into every inspector call.
// One context exists per worker per inspector; it is never shared across goroutines.
// ThreadContext 是宿主注入每次检查器调用的每工作线程状态。
// 每个工作线程的每个检查器各有一个上下文；它从不在 goroutine 之间共享。
type ThreadContext struct {
	ID      int
	Stats   SimpleStats
	Profile ProfileStats
	Logger  Logger

	// Data is reserved for inspectors that keep their own per-thread state.
	// Data 保留给维护自身线程状态的检查器。
	Data interface{}
}

// NewThreadContext creates an empty context for worker id.
// NewThreadContext 为工作线程 id 创建空上下文。
func NewThreadContext(id int, log Logger) *ThreadContext {
	return &ThreadContext{ID: id, Logger: log}
}
