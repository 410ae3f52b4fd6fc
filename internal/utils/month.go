package utils

import (
	"fmt"
	"time"
)

// ParseMonth 解析 "YYYY-MM" 形式的月份
func ParseMonth(month string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", month, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("月份格式必须为 YYYY-MM: %q", month)
	}
	return t, nil
}

// MonthDates 返回该月的所有日期（UTC 零点）
func MonthDates(month time.Time) []time.Time {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	var dates []time.Time
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// DateKey 是 map 中日期键的统一格式
func DateKey(date time.Time) string {
	return date.Format("2006-01-02")
}
