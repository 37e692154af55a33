package scheduler

import (
	"time"
)

// 支持的时间格式：完整日期时间，或只有时刻（当天；已过则顺延到明天）
var (
	datetimeLayouts = []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		time.RFC3339,
	}
	timeOfDayLayouts = []string{
		"15:04:05",
		"15:04",
	}
)

// malformedFallback 时间串无法解析时的保守回退：一小时后触发
// 宁可晚提醒，也不让整批日程加载失败
const malformedFallback = time.Hour

// resolveDueTime 把原始时间串解析为实际触发时间
// 只有时刻的串按当天解析；该时刻当天已过时顺延到明天，
// 避免加载后立刻重复触发已经过去的提醒
func resolveDueTime(raw string, now time.Time) time.Time {
	for _, layout := range datetimeLayouts {
		if ts, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return ts
		}
	}

	for _, layout := range timeOfDayLayouts {
		if ts, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			due := time.Date(now.Year(), now.Month(), now.Day(),
				ts.Hour(), ts.Minute(), ts.Second(), 0, now.Location())
			if !due.After(now) {
				due = due.Add(24 * time.Hour)
			}
			return due
		}
	}

	return now.Add(malformedFallback)
}
