package scheduler

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
	"github.com/atelier-ops/shift-scheduler/backend/internal/holiday"
	"github.com/atelier-ops/shift-scheduler/backend/internal/utils"
)

type Scheduler struct {
	model *model
}

// Result 是一次求解的产物：整月每个 (员工, 日期) 恰好一行分配，
// 以及所有未被满足的软约束的可读描述
type Result struct {
	Assignments []*domain.ShiftAssignment
	Violations  []string
}

// New 把聚合输入翻译成约束模型。
// 硬约束无解（空员工表、没有任何可胜任关系）时返回 domain.ErrInfeasibleModel
func New(params Parameters, input *Input) (*Scheduler, error) {
	if len(input.Employees) == 0 || len(input.JobTypes) == 0 {
		return nil, domain.ErrInfeasibleModel
	}

	m := &model{params: params}

	m.employees = make([]*domain.Employee, len(input.Employees))
	copy(m.employees, input.Employees)
	sort.Slice(m.employees, func(i, j int) bool {
		if m.employees[i].SortOrder != m.employees[j].SortOrder {
			return m.employees[i].SortOrder < m.employees[j].SortOrder
		}
		return m.employees[i].ID < m.employees[j].ID
	})

	m.jobTypes = make([]*domain.JobType, len(input.JobTypes))
	copy(m.jobTypes, input.JobTypes)
	sort.Slice(m.jobTypes, func(i, j int) bool {
		return m.jobTypes[i].ID < m.jobTypes[j].ID
	})
	m.jobIndex = make(map[int64]int, len(m.jobTypes))
	for j, jt := range m.jobTypes {
		m.jobIndex[jt.ID] = j
	}

	m.allDates = utils.MonthDates(input.Month)
	for _, date := range m.allDates {
		if !holiday.IsNonWorkingDay(date) {
			m.workingDates = append(m.workingDates, date)
		}
	}
	dateIndex := make(map[string]int, len(m.workingDates))
	for d, date := range m.workingDates {
		dateIndex[utils.DateKey(date)] = d
	}

	// 可胜任关系
	anyCapability := false
	m.allowed = make([][]bool, len(m.employees))
	for e, emp := range m.employees {
		m.allowed[e] = make([]bool, len(m.jobTypes))
		for _, jtID := range emp.JobTypeIDs {
			if j, exists := m.jobIndex[jtID]; exists {
				m.allowed[e][j] = true
				anyCapability = true
			}
		}
	}
	if !anyCapability {
		return nil, domain.ErrInfeasibleModel
	}

	// 休假申请与希望出勤天数
	requestByEmp := make(map[int64]*domain.ShiftRequest, len(input.Requests))
	for _, req := range input.Requests {
		requestByEmp[req.EmployeeID] = req
	}

	m.forcedOff = make([][]bool, len(m.employees))
	m.workKind = make([][]domain.WorkKind, len(m.employees))
	m.unit = make([][]int, len(m.employees))
	m.pref = make([]domain.WorkPreference, len(m.employees))
	m.capUnits = make([]int, len(m.employees))

	for e, emp := range m.employees {
		m.forcedOff[e] = make([]bool, len(m.workingDates))
		m.workKind[e] = make([]domain.WorkKind, len(m.workingDates))
		m.unit[e] = make([]int, len(m.workingDates))
		for d := range m.workingDates {
			m.workKind[e][d] = domain.WorkFull
			m.unit[e][d] = unitsPerDay
		}

		if emp.EmploymentType == domain.EmploymentDependent {
			m.capUnits[e] = int(math.Round(params.DependentMaxDays * unitsPerDay))
		} else {
			m.capUnits[e] = math.MaxInt32
		}

		req, exists := requestByEmp[emp.ID]
		if !exists {
			continue
		}

		pref, err := domain.ParseWorkPreference(req.RequestedWorkDays)
		if err != nil {
			return nil, &domain.InvalidPreferenceError{EmployeeName: emp.Name, Err: err}
		}
		m.pref[e] = pref

		for date, periods := range req.OffPeriods() {
			d, exists := dateIndex[utils.DateKey(date)]
			if !exists {
				// 休假申请落在周末或节假日，本来就不上班
				continue
			}
			switch {
			case periods[domain.PeriodAM] && periods[domain.PeriodPM]:
				m.forcedOff[e][d] = true
			case periods[domain.PeriodAM]:
				// 上午休 -> 只能下午出勤
				m.workKind[e][d] = domain.WorkAfternoonHalf
				m.unit[e][d] = 1
			case periods[domain.PeriodPM]:
				m.workKind[e][d] = domain.WorkMorningHalf
				m.unit[e][d] = 1
			}
		}
	}

	// 需求表（只保留工作日，需求落在非工作日的不参与覆盖）
	m.required = make([][]int, len(m.workingDates))
	for d := range m.workingDates {
		m.required[d] = make([]int, len(m.jobTypes))
	}
	for _, r := range input.Requirements {
		d, exists := dateIndex[utils.DateKey(r.Date)]
		if !exists {
			continue
		}
		j, exists := m.jobIndex[r.JobTypeID]
		if !exists {
			continue
		}
		m.required[d][j] = int(math.Round(r.RequiredCount * unitsPerDay))
	}

	return &Scheduler{model: m}, nil
}

// Solve 在墙钟预算内搜索分配。超出预算时返回当前最优解而不是失败。
// 输入相同则结果一定相同：所有候选排序都有固定的决胜顺序
func (s *Scheduler) Solve(ctx context.Context) *Result {
	m := s.model

	deadline := time.Now().Add(m.params.TimeBudget)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	sol := m.construct()
	m.improve(ctx, sol, deadline)

	return &Result{
		Assignments: m.assemble(sol),
		Violations:  m.violations(sol),
	}
}

// assemble 展开成整月的分配行：非工作日与未被选中的工作日都落为 off
func (m *model) assemble(sol *solution) []*domain.ShiftAssignment {
	dateIndex := make(map[string]int, len(m.workingDates))
	for d, date := range m.workingDates {
		dateIndex[utils.DateKey(date)] = d
	}

	var assignments []*domain.ShiftAssignment
	for e, emp := range m.employees {
		for _, date := range m.allDates {
			a := &domain.ShiftAssignment{
				EmployeeID:   emp.ID,
				EmployeeName: emp.Name,
				Date:         date,
			}
			a.SetOff()

			if d, working := dateIndex[utils.DateKey(date)]; working {
				if j := sol.assign[e][d]; j >= 0 {
					a.SetWork(m.jobTypes[j].ID, m.workKind[e][d])
				}
			}
			assignments = append(assignments, a)
		}
	}
	return assignments
}

// violations 按日期、工种、员工的固定顺序汇报未满足的软约束
func (m *model) violations(sol *solution) []string {
	violations := []string{}

	for d, date := range m.workingDates {
		for j, jt := range m.jobTypes {
			need := m.required[d][j]
			got := sol.supply[d][j]
			switch {
			case got < need:
				violations = append(violations, fmt.Sprintf("%s %s: 需要 %s 人，实际 %s 人",
					utils.DateKey(date), jt.Name, formatUnits(need), formatUnits(got)))
			case got > need && need > 0:
				violations = append(violations, fmt.Sprintf("%s %s: 需要 %s 人，超出 %s 人",
					utils.DateKey(date), jt.Name, formatUnits(need), formatUnits(got-need)))
			}
		}
	}

	for e, emp := range m.employees {
		if m.pref[e].Kind != domain.PreferenceExact {
			continue
		}
		target := int(m.pref[e].Days) * unitsPerDay
		if sol.totals[e] != target {
			violations = append(violations, fmt.Sprintf("%s: 希望出勤 %d 天，实际 %s 天",
				emp.Name, m.pref[e].Days, formatUnits(sol.totals[e])))
		}
	}

	return violations
}

func formatUnits(units int) string {
	return strconv.FormatFloat(float64(units)/unitsPerDay, 'f', -1, 64)
}
