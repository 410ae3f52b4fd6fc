// Package holiday 提供日本法定节假日表与非工作日判定。
// 节假日表覆盖 2025~2027 年，超出范围的年份只按周末判定
package holiday

import "time"

type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

func d(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

var holidaysByYear = map[int][]Holiday{
	2025: {
		{d(2025, 1, 1), "元日"},
		{d(2025, 1, 13), "成人の日"},
		{d(2025, 2, 11), "建国記念の日"},
		{d(2025, 2, 23), "天皇誕生日"},
		{d(2025, 2, 24), "振替休日"},
		{d(2025, 3, 20), "春分の日"},
		{d(2025, 4, 29), "昭和の日"},
		{d(2025, 5, 3), "憲法記念日"},
		{d(2025, 5, 4), "みどりの日"},
		{d(2025, 5, 5), "こどもの日"},
		{d(2025, 5, 6), "振替休日"},
		{d(2025, 7, 21), "海の日"},
		{d(2025, 8, 11), "山の日"},
		{d(2025, 9, 15), "敬老の日"},
		{d(2025, 9, 23), "秋分の日"},
		{d(2025, 10, 13), "スポーツの日"},
		{d(2025, 11, 3), "文化の日"},
		{d(2025, 11, 23), "勤労感謝の日"},
		{d(2025, 11, 24), "振替休日"},
	},
	2026: {
		{d(2026, 1, 1), "元日"},
		{d(2026, 1, 12), "成人の日"},
		{d(2026, 2, 11), "建国記念の日"},
		{d(2026, 2, 23), "天皇誕生日"},
		{d(2026, 3, 20), "春分の日"},
		{d(2026, 4, 29), "昭和の日"},
		{d(2026, 5, 3), "憲法記念日"},
		{d(2026, 5, 4), "みどりの日"},
		{d(2026, 5, 5), "こどもの日"},
		{d(2026, 5, 6), "振替休日"},
		{d(2026, 7, 20), "海の日"},
		{d(2026, 8, 11), "山の日"},
		{d(2026, 9, 21), "敬老の日"},
		{d(2026, 9, 22), "国民の休日"},
		{d(2026, 9, 23), "秋分の日"},
		{d(2026, 10, 12), "スポーツの日"},
		{d(2026, 11, 3), "文化の日"},
		{d(2026, 11, 23), "勤労感謝の日"},
	},
	2027: {
		{d(2027, 1, 1), "元日"},
		{d(2027, 1, 11), "成人の日"},
		{d(2027, 2, 11), "建国記念の日"},
		{d(2027, 2, 23), "天皇誕生日"},
		{d(2027, 3, 21), "春分の日"},
		{d(2027, 3, 22), "振替休日"},
		{d(2027, 4, 29), "昭和の日"},
		{d(2027, 5, 3), "憲法記念日"},
		{d(2027, 5, 4), "みどりの日"},
		{d(2027, 5, 5), "こどもの日"},
		{d(2027, 7, 19), "海の日"},
		{d(2027, 8, 11), "山の日"},
		{d(2027, 9, 20), "敬老の日"},
		{d(2027, 9, 23), "秋分の日"},
		{d(2027, 10, 11), "スポーツの日"},
		{d(2027, 11, 3), "文化の日"},
		{d(2027, 11, 23), "勤労感謝の日"},
	},
}

func ForYear(year int) []Holiday {
	return holidaysByYear[year]
}

func IsHoliday(date time.Time) bool {
	for _, h := range holidaysByYear[date.Year()] {
		if h.Date.Month() == date.Month() && h.Date.Day() == date.Day() {
			return true
		}
	}
	return false
}

// IsNonWorkingDay 判定周六、周日或节假日
func IsNonWorkingDay(date time.Time) bool {
	if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		return true
	}
	return IsHoliday(date)
}
