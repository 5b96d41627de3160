/*
 * @Description: 时区工具 - 统计口径使用固定偏移的业务时区（默认 UTC+3），生日任务使用服务器本地时区
 */
package utils

import (
	"fmt"
	"time"
)

// DayLayout 日期字符串格式，与访问事件的 visitDate 字段一致
const DayLayout = "2006-01-02"

// BusinessTimezone 默认业务时区 UTC+3
var BusinessTimezone = FixedOffsetZone(3)

// FixedOffsetZone 根据小时偏移构造固定时区
func FixedOffsetZone(hours int) *time.Location {
	name := fmt.Sprintf("UTC%+d", hours)
	if hours == 0 {
		name = "UTC"
	}
	return time.FixedZone(name, hours*60*60)
}

// StartOfDayIn 获取指定时间在 loc 时区中当天的开始时间（00:00:00）
func StartOfDayIn(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// DayBoundsIn 返回 loc 时区中 t 所在日的 [开始, 次日开始) 区间
func DayBoundsIn(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := StartOfDayIn(t, loc)
	return start, start.AddDate(0, 0, 1)
}

// CutoffDay 计算统计窗口的起始日：loc 时区当天零点再回退 days 天
func CutoffDay(now time.Time, loc *time.Location, days int) time.Time {
	return StartOfDayIn(now, loc).AddDate(0, 0, -days)
}

// FormatDay 将时间格式化为 loc 时区下的日期字符串
func FormatDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// ParseDay 解析 YYYY-MM-DD 日期字符串
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayLayout, value, loc)
}

// MonthDay 返回 MM-DD 形式的月日，忽略年份
func MonthDay(t time.Time) string {
	return t.Format("01-02")
}
