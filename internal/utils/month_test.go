package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	month, err := ParseMonth("2026-03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), month)

	for _, invalid := range []string{"2026-3", "2026/03", "2026-13", "202603", ""} {
		_, err := ParseMonth(invalid)
		assert.Error(t, err, "输入 %q 应当被拒绝", invalid)
	}
}

func TestMonthDates(t *testing.T) {
	dates := MonthDates(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, dates, 28)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), dates[0])
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), dates[27])

	assert.Len(t, MonthDates(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)), 31)
}

func TestDateKey(t *testing.T) {
	assert.Equal(t, "2026-03-02", DateKey(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))
}
