package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
)

func buildTestTable(t *testing.T) *Table {
	t.Helper()

	kitchen := "厨房"
	kitchenID := int64(1)
	month := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	working := &domain.ShiftAssignment{
		EmployeeID:   1,
		EmployeeName: "张伟",
		Date:         time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		JobTypeID:    &kitchenID,
		JobTypeName:  &kitchen,
		WorkKind:     domain.WorkFull,
	}
	halfDay := &domain.ShiftAssignment{
		EmployeeID:   1,
		EmployeeName: "张伟",
		Date:         time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		JobTypeID:    &kitchenID,
		JobTypeName:  &kitchen,
		WorkKind:     domain.WorkMorningHalf,
	}
	resting := &domain.ShiftAssignment{
		EmployeeID:   2,
		EmployeeName: "李静",
		Date:         time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		WorkKind:     domain.WorkOff,
	}

	schedule := &domain.Schedule{TargetMonth: "2026-02"}
	return BuildTable(schedule, month, []*domain.ShiftAssignment{working, halfDay, resting})
}

func TestBuildTable(t *testing.T) {
	table := buildTestTable(t)

	assert.Equal(t, "2026-02", table.TargetMonth)
	require.Len(t, table.Dates, 28)
	require.Len(t, table.Rows, 2)

	// 行顺序跟随 assignments 中员工首次出现的顺序
	assert.Equal(t, "张伟", table.Rows[0].EmployeeName)
	assert.Equal(t, "李静", table.Rows[1].EmployeeName)
	require.Len(t, table.Rows[0].Cells, 28)

	assert.Equal(t, "厨房", table.Rows[0].Cells[1])
	assert.Equal(t, "厨房(上午)", table.Rows[0].Cells[2])
	// 没有记录的日期按休息渲染
	assert.Equal(t, "休息", table.Rows[0].Cells[0])
	assert.Equal(t, "休息", table.Rows[1].Cells[1])
}

func TestWriteCSV(t *testing.T) {
	table := buildTestTable(t)

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "员工,1,2,3,"))
	assert.True(t, strings.HasPrefix(lines[1], "张伟,休息,厨房,厨房(上午),"))
	assert.True(t, strings.HasPrefix(lines[2], "李静,休息,休息,"))
}
