// Package export 把一个排班版本渲染成 CSV / Excel / PDF。
// 三种格式共享同一个中间表格：行是员工（按展示顺序），列是当月日期
package export

import (
	"fmt"
	"time"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
	"github.com/atelier-ops/shift-scheduler/backend/internal/utils"
)

const offLabel = "休息"

type Table struct {
	TargetMonth string
	Dates       []time.Time
	Rows        []Row
}

type Row struct {
	EmployeeName string
	Cells        []string // 与 Dates 一一对应
}

func kindSuffix(kind domain.WorkKind) string {
	switch kind {
	case domain.WorkMorningHalf:
		return "(上午)"
	case domain.WorkAfternoonHalf:
		return "(下午)"
	default:
		return ""
	}
}

func cellLabel(a *domain.ShiftAssignment) string {
	if !a.IsWorking() {
		return offLabel
	}
	return *a.JobTypeName + kindSuffix(a.WorkKind)
}

// BuildTable 假设 assignments 覆盖整月且已按 (员工展示顺序, 日期) 排序，
// 这正是仓库层返回的顺序
func BuildTable(schedule *domain.Schedule, month time.Time, assignments []*domain.ShiftAssignment) *Table {
	t := &Table{
		TargetMonth: schedule.TargetMonth,
		Dates:       utils.MonthDates(month),
	}

	byEmployee := make(map[int64]*Row)
	order := []int64{}
	cells := make(map[int64]map[string]string)

	for _, a := range assignments {
		if _, exists := byEmployee[a.EmployeeID]; !exists {
			byEmployee[a.EmployeeID] = &Row{EmployeeName: a.EmployeeName}
			cells[a.EmployeeID] = make(map[string]string)
			order = append(order, a.EmployeeID)
		}
		cells[a.EmployeeID][utils.DateKey(a.Date)] = cellLabel(a)
	}

	for _, id := range order {
		row := byEmployee[id]
		for _, date := range t.Dates {
			label, exists := cells[id][utils.DateKey(date)]
			if !exists {
				label = offLabel
			}
			row.Cells = append(row.Cells, label)
		}
		t.Rows = append(t.Rows, *row)
	}

	return t
}

func (t *Table) header() []string {
	header := []string{"员工"}
	for _, date := range t.Dates {
		header = append(header, fmt.Sprintf("%d", date.Day()))
	}
	return header
}
