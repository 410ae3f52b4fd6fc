package holiday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestIsHoliday(t *testing.T) {
	assert.True(t, IsHoliday(date(2026, 1, 1)))   // 元日
	assert.True(t, IsHoliday(date(2026, 3, 20)))  // 春分の日
	assert.False(t, IsHoliday(date(2026, 3, 19)))
	// 表外年份没有节假日数据
	assert.False(t, IsHoliday(date(2030, 1, 1)))
}

func TestIsNonWorkingDay(t *testing.T) {
	assert.True(t, IsNonWorkingDay(date(2026, 3, 7)))  // 周六
	assert.True(t, IsNonWorkingDay(date(2026, 3, 8)))  // 周日
	assert.True(t, IsNonWorkingDay(date(2026, 3, 20))) // 节假日
	assert.False(t, IsNonWorkingDay(date(2026, 3, 2))) // 周一
}

func TestForYear(t *testing.T) {
	assert.NotEmpty(t, ForYear(2026))
	assert.Nil(t, ForYear(2030))
}
