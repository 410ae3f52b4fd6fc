package modification

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
	"github.com/atelier-ops/shift-scheduler/backend/internal/utils"
)

const (
	kitchenID = int64(1)
	hallID    = int64(2)
)

// 2026-03-02 ~ 2026-03-06 是连续的五个工作日
func workday(day int) time.Time {
	return time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC)
}

func testEmployees() []*domain.Employee {
	return []*domain.Employee{
		{ID: 1, Name: "张伟", EmploymentType: domain.EmploymentFullTime, JobTypeIDs: []int64{kitchenID, hallID}},
		{ID: 2, Name: "李静", EmploymentType: domain.EmploymentFullTime, JobTypeIDs: []int64{kitchenID, hallID}},
	}
}

func testJobTypes() []*domain.JobType {
	return []*domain.JobType{
		{ID: kitchenID, Name: "厨房"},
		{ID: hallID, Name: "大厅"},
	}
}

func assignment(employeeID int64, name string, date time.Time, jobTypeID *int64) *domain.ShiftAssignment {
	a := &domain.ShiftAssignment{EmployeeID: employeeID, EmployeeName: name, Date: date}
	if jobTypeID == nil {
		a.SetOff()
	} else {
		a.SetWork(*jobTypeID, domain.WorkFull)
	}
	return a
}

func ptr[T any](v T) *T { return &v }

// baseRequest 张伟 3/2~3/4 厨房、3/5~3/6 休息；李静整周大厅。
// 需求：每天厨房 1 人、大厅 1 人
func baseRequest() *Request {
	var assignments []*domain.ShiftAssignment
	var requirements []*domain.DailyRequirement
	for day := 2; day <= 6; day++ {
		date := workday(day)
		if day <= 4 {
			assignments = append(assignments, assignment(1, "张伟", date, ptr(kitchenID)))
		} else {
			assignments = append(assignments, assignment(1, "张伟", date, nil))
		}
		assignments = append(assignments, assignment(2, "李静", date, ptr(hallID)))
		requirements = append(requirements,
			&domain.DailyRequirement{Date: date, JobTypeID: kitchenID, RequiredCount: 1},
			&domain.DailyRequirement{Date: date, JobTypeID: hallID, RequiredCount: 1},
		)
	}
	return &Request{
		Employees:    testEmployees(),
		JobTypes:     testJobTypes(),
		Requirements: requirements,
		Assignments:  assignments,
	}
}

func findCell(t *testing.T, proposal *Proposal, employeeID int64, date time.Time) *domain.ShiftAssignment {
	t.Helper()
	for _, a := range proposal.Assignments {
		if a.EmployeeID == employeeID && a.Date.Equal(date) {
			return a
		}
	}
	t.Fatalf("没有找到 %d 在 %s 的分配", employeeID, utils.DateKey(date))
	return nil
}

func TestIncreaseFillsRestDays(t *testing.T) {
	en := NewEngine(2, 10)
	req := baseRequest()
	req.Intents = []domain.EditIntent{
		{EmployeeRef: "张伟", Direction: domain.DirectionIncrease, JobTypeRef: "厨房", Amount: ptr(2)},
	}

	proposal, err := en.Apply(req)
	require.NoError(t, err)

	// 3/5 与 3/6 本来休息且厨房缺人，应按日期升序被补上
	for _, day := range []int{5, 6} {
		cell := findCell(t, proposal, 1, workday(day))
		require.NotNil(t, cell.JobTypeID)
		assert.Equal(t, kitchenID, *cell.JobTypeID)
	}
	assert.Len(t, proposal.Changes, 2)
}

func TestDecreasePrefersMonthEnd(t *testing.T) {
	en := NewEngine(2, 10)
	req := baseRequest()
	req.Intents = []domain.EditIntent{
		{EmployeeRef: "张伟", Direction: domain.DirectionDecrease, JobTypeRef: "厨房", Amount: ptr(1)},
	}

	proposal, err := en.Apply(req)
	require.NoError(t, err)

	// 没有超员的日子，从月末往前释放：3/4 改为休息
	cell := findCell(t, proposal, 1, workday(4))
	assert.Equal(t, domain.WorkOff, cell.WorkKind)
	require.Len(t, proposal.Changes, 1)
	assert.Equal(t, "2026-03-04", proposal.Changes[0].Date)
	assert.Equal(t, "厨房", proposal.Changes[0].OldJobType)
	assert.Equal(t, "休息", proposal.Changes[0].NewJobType)
}

func TestDecreaseThenIncreaseRoundTrips(t *testing.T) {
	en := NewEngine(2, 10)
	req := baseRequest()
	req.Intents = []domain.EditIntent{
		{EmployeeRef: "张伟", Direction: domain.DirectionDecrease, JobTypeRef: "厨房", Amount: ptr(2)},
		{EmployeeRef: "张伟", Direction: domain.DirectionIncrease, JobTypeRef: "厨房", Amount: ptr(2)},
	}

	proposal, err := en.Apply(req)
	require.NoError(t, err)

	// 释放的日子产生缺口，再增加时优先补回，等于没有变化
	assert.Empty(t, proposal.Changes)
}

func TestRoundTripRestoresFreedDayOverEarlierRestDay(t *testing.T) {
	en := NewEngine(2, 10)

	// 张伟 3/2 休息、3/3 与 3/4 厨房；3/4 没有需求，属于超员日。
	// 减一天会释放 3/4，随后的增加必须补回 3/4 而不是改动月初的 3/2
	var assignments []*domain.ShiftAssignment
	var requirements []*domain.DailyRequirement
	for day := 2; day <= 4; day++ {
		date := workday(day)
		if day == 2 {
			assignments = append(assignments, assignment(1, "张伟", date, nil))
		} else {
			assignments = append(assignments, assignment(1, "张伟", date, ptr(kitchenID)))
		}
		assignments = append(assignments, assignment(2, "李静", date, ptr(hallID)))
		requirements = append(requirements,
			&domain.DailyRequirement{Date: date, JobTypeID: hallID, RequiredCount: 1})
		if day != 4 {
			requirements = append(requirements,
				&domain.DailyRequirement{Date: date, JobTypeID: kitchenID, RequiredCount: 1})
		}
	}
	req := &Request{
		Employees:    testEmployees(),
		JobTypes:     testJobTypes(),
		Requirements: requirements,
		Assignments:  assignments,
		Intents: []domain.EditIntent{
			{EmployeeRef: "张伟", Direction: domain.DirectionDecrease, JobTypeRef: "厨房", Amount: ptr(1)},
			{EmployeeRef: "张伟", Direction: domain.DirectionIncrease, JobTypeRef: "厨房", Amount: ptr(1)},
		},
	}

	proposal, err := en.Apply(req)
	require.NoError(t, err)

	assert.Empty(t, proposal.Changes)
}

func TestSetDirection(t *testing.T) {
	en := NewEngine(2, 10)
	req := baseRequest()
	req.Intents = []domain.EditIntent{
		{EmployeeRef: "张伟", Direction: domain.DirectionSet, JobTypeRef: "厨房", Amount: ptr(5)},
	}

	proposal, err := en.Apply(req)
	require.NoError(t, err)

	count := 0
	for _, a := range proposal.Assignments {
		if a.EmployeeID == 1 && a.JobTypeID != nil && *a.JobTypeID == kitchenID {
			count++
		}
	}
	assert.Equal(t, 5, count)
}

func TestAmbiguousEmployeeReference(t *testing.T) {
	en := NewEngine(2, 10)
	req := baseRequest()
	req.Employees = append(req.Employees, &domain.Employee{
		ID: 3, Name: "张静", EmploymentType: domain.EmploymentFullTime, JobTypeIDs: []int64{kitchenID},
	})
	req.Intents = []domain.EditIntent{
		{EmployeeRef: "张", Direction: domain.DirectionIncrease, JobTypeRef: "厨房"},
	}

	_, err := en.Apply(req)
	var ambiguous *domain.AmbiguousReferenceError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, "张", ambiguous.Ref)
	assert.Equal(t, 2, ambiguous.Matches)
}

func TestUnknownReference(t *testing.T) {
	en := NewEngine(2, 10)
	req := baseRequest()
	req.Intents = []domain.EditIntent{
		{EmployeeRef: "不存在", Direction: domain.DirectionIncrease, JobTypeRef: "厨房"},
	}

	_, err := en.Apply(req)
	var ambiguous *domain.AmbiguousReferenceError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, 0, ambiguous.Matches)
}

func TestIncreaseConvertsOtherJobDays(t *testing.T) {
	en := NewEngine(2, 10)
	req := baseRequest()
	// 李静整周都在大厅且没有休息日。覆盖是软约束，增加厨房应当换掉
	// 一个大厅日（升序取 3/2），留下的大厅缺口体现在差异里而不是报错
	req.Intents = []domain.EditIntent{
		{EmployeeRef: "李静", Direction: domain.DirectionIncrease, JobTypeRef: "厨房", Amount: ptr(1)},
	}

	proposal, err := en.Apply(req)
	require.NoError(t, err)

	cell := findCell(t, proposal, 2, workday(2))
	require.NotNil(t, cell.JobTypeID)
	assert.Equal(t, kitchenID, *cell.JobTypeID)

	require.Len(t, proposal.Changes, 1)
	assert.Equal(t, "大厅", proposal.Changes[0].OldJobType)
	assert.Equal(t, "厨房", proposal.Changes[0].NewJobType)
}

func TestIncreaseInfeasibleWhenAllDaysAlreadyTarget(t *testing.T) {
	en := NewEngine(2, 10)
	req := baseRequest()
	// 李静整周已经在大厅，既没有休息日也没有其他工种日可换
	req.Intents = []domain.EditIntent{
		{EmployeeRef: "李静", Direction: domain.DirectionIncrease, JobTypeRef: "大厅", Amount: ptr(1)},
	}

	_, err := en.Apply(req)
	var infeasible *domain.InfeasibleEditError
	require.ErrorAs(t, err, &infeasible)
}

func TestIncreaseRespectsCapability(t *testing.T) {
	en := NewEngine(2, 10)
	req := baseRequest()
	req.Employees[0].JobTypeIDs = []int64{kitchenID} // 张伟不会大厅
	req.Intents = []domain.EditIntent{
		{EmployeeRef: "张伟", Direction: domain.DirectionIncrease, JobTypeRef: "大厅"},
	}

	_, err := en.Apply(req)
	var infeasible *domain.InfeasibleEditError
	require.ErrorAs(t, err, &infeasible)
}

func TestIncreaseRespectsDependentCap(t *testing.T) {
	en := NewEngine(2, 3) // 受限雇佣上限 3 天
	req := baseRequest()
	req.Employees[0].EmploymentType = domain.EmploymentDependent
	// 张伟已经出勤 3 天，到达上限
	req.Intents = []domain.EditIntent{
		{EmployeeRef: "张伟", Direction: domain.DirectionIncrease, JobTypeRef: "厨房", Amount: ptr(1)},
	}

	_, err := en.Apply(req)
	var infeasible *domain.InfeasibleEditError
	require.ErrorAs(t, err, &infeasible)
}

func TestPinToJobAndRest(t *testing.T) {
	en := NewEngine(2, 10)
	req := baseRequest()
	req.Pins = []domain.PinEdit{
		{EmployeeRef: "张伟", Date: workday(5), JobTypeRef: "大厅"},
		{EmployeeRef: "李静", Date: workday(6), JobTypeRef: "休息"},
	}

	proposal, err := en.Apply(req)
	require.NoError(t, err)

	pinned := findCell(t, proposal, 1, workday(5))
	require.NotNil(t, pinned.JobTypeID)
	assert.Equal(t, hallID, *pinned.JobTypeID)
	assert.Equal(t, "大厅", *pinned.JobTypeName)

	rested := findCell(t, proposal, 2, workday(6))
	assert.Equal(t, domain.WorkOff, rested.WorkKind)
}

func TestPinRejectsNonWorkingDay(t *testing.T) {
	en := NewEngine(2, 10)
	req := baseRequest()
	req.Pins = []domain.PinEdit{
		// 2026-03-07 是周六
		{EmployeeRef: "张伟", Date: time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC), JobTypeRef: "厨房"},
	}

	_, err := en.Apply(req)
	var infeasible *domain.InfeasibleEditError
	require.ErrorAs(t, err, &infeasible)
}

func TestPinRejectsFullDayOff(t *testing.T) {
	en := NewEngine(2, 10)
	req := baseRequest()
	req.Requests = []*domain.ShiftRequest{
		{
			EmployeeID:  1,
			TargetMonth: "2026-03",
			DaysOff:     []domain.DayOff{{Date: workday(5), Period: domain.PeriodAllDay}},
		},
	}
	req.Pins = []domain.PinEdit{
		{EmployeeRef: "张伟", Date: workday(5), JobTypeRef: "厨房"},
	}

	_, err := en.Apply(req)
	var infeasible *domain.InfeasibleEditError
	require.ErrorAs(t, err, &infeasible)
}

func TestHalfDayOffKeepsHalfKind(t *testing.T) {
	en := NewEngine(2, 10)
	req := baseRequest()
	req.Requests = []*domain.ShiftRequest{
		{
			EmployeeID:  1,
			TargetMonth: "2026-03",
			DaysOff:     []domain.DayOff{{Date: workday(5), Period: domain.PeriodAM}},
		},
	}
	req.Pins = []domain.PinEdit{
		{EmployeeRef: "张伟", Date: workday(5), JobTypeRef: "厨房"},
	}

	proposal, err := en.Apply(req)
	require.NoError(t, err)

	cell := findCell(t, proposal, 1, workday(5))
	assert.Equal(t, domain.WorkAfternoonHalf, cell.WorkKind)
	assert.Equal(t, 0.5, cell.HeadcountValue)
}

func TestProposalDoesNotMutateSource(t *testing.T) {
	en := NewEngine(2, 10)
	req := baseRequest()
	req.Intents = []domain.EditIntent{
		{EmployeeRef: "张伟", Direction: domain.DirectionDecrease, JobTypeRef: "厨房", Amount: ptr(1)},
	}

	_, err := en.Apply(req)
	require.NoError(t, err)

	// 源版本的分配行不受影响
	for _, a := range req.Assignments {
		if a.EmployeeID == 1 && a.Date.Equal(workday(4)) {
			require.NotNil(t, a.JobTypeID)
			assert.Equal(t, kitchenID, *a.JobTypeID)
		}
	}
}

func TestChangesAreOrdered(t *testing.T) {
	en := NewEngine(2, 10)
	req := baseRequest()
	req.Intents = []domain.EditIntent{
		{EmployeeRef: "张伟", Direction: domain.DirectionDecrease, JobTypeRef: "厨房", Amount: ptr(2)},
	}

	proposal, err := en.Apply(req)
	require.NoError(t, err)

	require.Len(t, proposal.Changes, 2)
	for i := 1; i < len(proposal.Changes); i++ {
		prev := fmt.Sprintf("%d|%s", proposal.Changes[i-1].EmployeeID, proposal.Changes[i-1].Date)
		curr := fmt.Sprintf("%d|%s", proposal.Changes[i].EmployeeID, proposal.Changes[i].Date)
		assert.Less(t, prev, curr)
	}
}
