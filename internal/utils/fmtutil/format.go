// Package fmtutil provides formatting utilities for human-readable output.
// Package fmtutil 提供用于人类可读输出的格式化工具。
package fmtutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatCount formats a counter with thousand separators.
// FormatCount 格式化计数器，添加千位分隔符。
func FormatCount(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatLatency formats a per-call latency with two decimals in the largest fitting unit.
// FormatLatency 以最大合适单位、两位小数格式化单次调用延迟。
func FormatLatency(d time.Duration) string {
	switch {
	case d <= 0:
		return "0ns"
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.2fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// FormatPercent formats part/total as a percentage. A zero total yields "0.00%".
// FormatPercent 将 part/total 格式化为百分比。total 为零时返回 "0.00%"。
func FormatPercent(part, total uint64) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(part)*100/float64(total))
}
