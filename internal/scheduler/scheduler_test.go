package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
	"github.com/atelier-ops/shift-scheduler/backend/internal/holiday"
	"github.com/atelier-ops/shift-scheduler/backend/internal/utils"
)

// 2026 年 3 月：周末加上 3 月 20 日（春分の日）都是非工作日
var testMonth = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

const (
	kitchenID = int64(1)
	hallID    = int64(2)
)

func testParams() Parameters {
	return Parameters{
		TimeBudget:       5 * time.Second,
		DependentMaxDays: 10,
		CoverageWeight:   100,
		RequestWeight:    10,
		FairnessWeight:   5,
		BalanceWeight:    1,
		PriorityWeight:   2,
	}
}

func testJobTypes() []*domain.JobType {
	return []*domain.JobType{
		{ID: kitchenID, Name: "厨房", Color: "#e74c3c"},
		{ID: hallID, Name: "大厅", Color: "#3498db"},
	}
}

func testEmployee(id int64, name string, jobTypeIDs ...int64) *domain.Employee {
	return &domain.Employee{
		ID:             id,
		Name:           name,
		EmploymentType: domain.EmploymentFullTime,
		SortOrder:      int32(id),
		JobTypeIDs:     jobTypeIDs,
	}
}

// flatRequirements 给每个工作日的每个工种生成同样的需求
func flatRequirements(counts map[int64]float64) []*domain.DailyRequirement {
	var items []*domain.DailyRequirement
	for _, date := range utils.MonthDates(testMonth) {
		if holiday.IsNonWorkingDay(date) {
			continue
		}
		for jtID, count := range counts {
			items = append(items, &domain.DailyRequirement{
				Date:          date,
				JobTypeID:     jtID,
				RequiredCount: count,
			})
		}
	}
	return items
}

func solve(t *testing.T, input *Input) *Result {
	t.Helper()
	s, err := New(testParams(), input)
	require.NoError(t, err)
	return s.Solve(context.Background())
}

// fingerprint 把结果压成可比较的字符串
func fingerprint(result *Result) string {
	out := ""
	for _, a := range result.Assignments {
		job := "-"
		if a.JobTypeID != nil {
			job = fmt.Sprintf("%d", *a.JobTypeID)
		}
		out += fmt.Sprintf("%d|%s|%s|%s;", a.EmployeeID, utils.DateKey(a.Date), job, a.WorkKind)
	}
	for _, v := range result.Violations {
		out += v + ";"
	}
	return out
}

func TestNewInfeasibleModel(t *testing.T) {
	// 空员工表
	_, err := New(testParams(), &Input{
		Month:    testMonth,
		JobTypes: testJobTypes(),
	})
	assert.ErrorIs(t, err, domain.ErrInfeasibleModel)

	// 有员工但没有任何可胜任关系
	_, err = New(testParams(), &Input{
		Month:     testMonth,
		Employees: []*domain.Employee{testEmployee(1, "张伟")},
		JobTypes:  testJobTypes(),
	})
	assert.ErrorIs(t, err, domain.ErrInfeasibleModel)
}

func TestSolveDeterministic(t *testing.T) {
	input := func() *Input {
		return &Input{
			Month: testMonth,
			Employees: []*domain.Employee{
				testEmployee(1, "张伟", kitchenID, hallID),
				testEmployee(2, "李静", kitchenID, hallID),
				testEmployee(3, "王芳", hallID),
			},
			JobTypes:     testJobTypes(),
			Requirements: flatRequirements(map[int64]float64{kitchenID: 1, hallID: 1}),
		}
	}

	first := solve(t, input())
	for i := 0; i < 3; i++ {
		assert.Equal(t, fingerprint(first), fingerprint(solve(t, input())))
	}
}

func TestSolveCoversRequirements(t *testing.T) {
	result := solve(t, &Input{
		Month: testMonth,
		Employees: []*domain.Employee{
			testEmployee(1, "张伟", kitchenID, hallID),
			testEmployee(2, "李静", kitchenID, hallID),
			testEmployee(3, "王芳", hallID),
		},
		JobTypes:     testJobTypes(),
		Requirements: flatRequirements(map[int64]float64{kitchenID: 1, hallID: 1}),
	})

	// 三个人排两个岗位，人手充足，不应有任何未满足的约束
	assert.Empty(t, result.Violations)

	// 每个工作日每个工种恰好一人
	supply := make(map[string]float64)
	for _, a := range result.Assignments {
		if a.JobTypeID != nil {
			supply[fmt.Sprintf("%s|%d", utils.DateKey(a.Date), *a.JobTypeID)] += a.HeadcountValue
		}
	}
	for _, date := range utils.MonthDates(testMonth) {
		if holiday.IsNonWorkingDay(date) {
			continue
		}
		assert.Equal(t, 1.0, supply[fmt.Sprintf("%s|%d", utils.DateKey(date), kitchenID)], utils.DateKey(date))
		assert.Equal(t, 1.0, supply[fmt.Sprintf("%s|%d", utils.DateKey(date), hallID)], utils.DateKey(date))
	}
}

func TestSolveFullMonthRows(t *testing.T) {
	result := solve(t, &Input{
		Month: testMonth,
		Employees: []*domain.Employee{
			testEmployee(1, "张伟", kitchenID),
		},
		JobTypes:     testJobTypes(),
		Requirements: flatRequirements(map[int64]float64{kitchenID: 1}),
	})

	// 整月每天一行，非工作日一律休息
	assert.Len(t, result.Assignments, len(utils.MonthDates(testMonth)))
	for _, a := range result.Assignments {
		if holiday.IsNonWorkingDay(a.Date) {
			assert.Equal(t, domain.WorkOff, a.WorkKind, utils.DateKey(a.Date))
			assert.Nil(t, a.JobTypeID)
		}
	}
}

func TestSolveReportsShortfall(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	result := solve(t, &Input{
		Month: testMonth,
		Employees: []*domain.Employee{
			testEmployee(1, "张伟", kitchenID),
		},
		JobTypes: testJobTypes(),
		Requirements: []*domain.DailyRequirement{
			{Date: date, JobTypeID: kitchenID, RequiredCount: 3},
		},
	})

	require.Len(t, result.Violations, 1)
	assert.Equal(t, "2026-03-02 厨房: 需要 3 人，实际 1 人", result.Violations[0])
}

func TestSolveRespectsCapability(t *testing.T) {
	result := solve(t, &Input{
		Month: testMonth,
		Employees: []*domain.Employee{
			testEmployee(1, "张伟", kitchenID),
			testEmployee(2, "李静", hallID),
		},
		JobTypes:     testJobTypes(),
		Requirements: flatRequirements(map[int64]float64{kitchenID: 1, hallID: 1}),
	})

	for _, a := range result.Assignments {
		if a.JobTypeID == nil {
			continue
		}
		switch a.EmployeeID {
		case 1:
			assert.Equal(t, kitchenID, *a.JobTypeID)
		case 2:
			assert.Equal(t, hallID, *a.JobTypeID)
		}
	}
}

func TestSolveRespectsDependentCap(t *testing.T) {
	dependent := testEmployee(1, "张伟", kitchenID)
	dependent.EmploymentType = domain.EmploymentDependent

	params := testParams()
	params.DependentMaxDays = 3

	s, err := New(params, &Input{
		Month:        testMonth,
		Employees:    []*domain.Employee{dependent},
		JobTypes:     testJobTypes(),
		Requirements: flatRequirements(map[int64]float64{kitchenID: 1}),
	})
	require.NoError(t, err)
	result := s.Solve(context.Background())

	total := 0.0
	for _, a := range result.Assignments {
		total += a.HeadcountValue
	}
	assert.LessOrEqual(t, total, 3.0)
}

func TestSolveRespectsDaysOff(t *testing.T) {
	fullOff := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	amOff := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	pmOff := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	result := solve(t, &Input{
		Month: testMonth,
		Employees: []*domain.Employee{
			testEmployee(1, "张伟", kitchenID),
		},
		JobTypes:     testJobTypes(),
		Requirements: flatRequirements(map[int64]float64{kitchenID: 1}),
		Requests: []*domain.ShiftRequest{
			{
				EmployeeID:  1,
				TargetMonth: "2026-03",
				DaysOff: []domain.DayOff{
					{Date: fullOff, Period: domain.PeriodAllDay},
					{Date: amOff, Period: domain.PeriodAM},
					{Date: pmOff, Period: domain.PeriodPM},
				},
			},
		},
	})

	byDate := make(map[string]*domain.ShiftAssignment)
	for _, a := range result.Assignments {
		byDate[utils.DateKey(a.Date)] = a
	}

	assert.Equal(t, domain.WorkOff, byDate["2026-03-02"].WorkKind)
	if byDate["2026-03-03"].IsWorking() {
		assert.Equal(t, domain.WorkAfternoonHalf, byDate["2026-03-03"].WorkKind)
		assert.Equal(t, 0.5, byDate["2026-03-03"].HeadcountValue)
	}
	if byDate["2026-03-04"].IsWorking() {
		assert.Equal(t, domain.WorkMorningHalf, byDate["2026-03-04"].WorkKind)
	}
}

func TestSolveExactPreference(t *testing.T) {
	requested := "3"
	result := solve(t, &Input{
		Month: testMonth,
		Employees: []*domain.Employee{
			testEmployee(1, "张伟", kitchenID),
			testEmployee(2, "李静", kitchenID),
		},
		JobTypes:     testJobTypes(),
		Requirements: flatRequirements(map[int64]float64{kitchenID: 1}),
		Requests: []*domain.ShiftRequest{
			{EmployeeID: 1, TargetMonth: "2026-03", RequestedWorkDays: &requested},
		},
	})

	total := 0.0
	for _, a := range result.Assignments {
		if a.EmployeeID == 1 {
			total += a.HeadcountValue
		}
	}
	assert.Equal(t, 3.0, total)

	for _, v := range result.Violations {
		assert.NotContains(t, v, "张伟")
	}
}

func TestSolveMaxOutworksExact(t *testing.T) {
	exact := "2"
	max := domain.RequestedWorkDaysMax
	result := solve(t, &Input{
		Month: testMonth,
		Employees: []*domain.Employee{
			testEmployee(1, "张伟", kitchenID),
			testEmployee(2, "李静", kitchenID),
		},
		JobTypes:     testJobTypes(),
		Requirements: flatRequirements(map[int64]float64{kitchenID: 1}),
		Requests: []*domain.ShiftRequest{
			{EmployeeID: 1, TargetMonth: "2026-03", RequestedWorkDays: &exact},
			{EmployeeID: 2, TargetMonth: "2026-03", RequestedWorkDays: &max},
		},
	})

	totals := make(map[int64]float64)
	for _, a := range result.Assignments {
		totals[a.EmployeeID] += a.HeadcountValue
	}
	assert.Equal(t, 2.0, totals[1])
	assert.Greater(t, totals[2], totals[1])
}

func TestSolveInvalidPreference(t *testing.T) {
	requested := "42"
	_, err := New(testParams(), &Input{
		Month: testMonth,
		Employees: []*domain.Employee{
			testEmployee(1, "张伟", kitchenID),
		},
		JobTypes: testJobTypes(),
		Requests: []*domain.ShiftRequest{
			{EmployeeID: 1, TargetMonth: "2026-03", RequestedWorkDays: &requested},
		},
	})

	// 报错指明员工，属于可修正的数据问题而不是服务端故障
	var invalidPref *domain.InvalidPreferenceError
	require.ErrorAs(t, err, &invalidPref)
	assert.Equal(t, "张伟", invalidPref.EmployeeName)
}

func TestSolveHalfHeadcountRequirement(t *testing.T) {
	// 需求 0.5 人，只有上午休的员工能提供半天勤务
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	result := solve(t, &Input{
		Month: testMonth,
		Employees: []*domain.Employee{
			testEmployee(1, "张伟", kitchenID),
			testEmployee(2, "李静", kitchenID),
		},
		JobTypes: testJobTypes(),
		Requirements: []*domain.DailyRequirement{
			{Date: date, JobTypeID: kitchenID, RequiredCount: 0.5},
		},
		Requests: []*domain.ShiftRequest{
			{
				EmployeeID:  2,
				TargetMonth: "2026-03",
				DaysOff:     []domain.DayOff{{Date: date, Period: domain.PeriodAM}},
			},
		},
	})

	assert.Empty(t, result.Violations)
	for _, a := range result.Assignments {
		if utils.DateKey(a.Date) != "2026-03-02" || !a.IsWorking() {
			continue
		}
		// 全天出勤会超员，只能由半天勤务者顶上
		assert.Equal(t, int64(2), a.EmployeeID)
		assert.Equal(t, domain.WorkAfternoonHalf, a.WorkKind)
	}
}
