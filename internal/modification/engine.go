// Package modification 把结构化的调整指令应用到某个排班版本的副本上，
// 产出候选版本的分配与差异。指令无论来自表单还是自然语言解析，
// 这里都会重新校验全部硬约束
package modification

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
	"github.com/atelier-ops/shift-scheduler/backend/internal/holiday"
	"github.com/atelier-ops/shift-scheduler/backend/internal/utils"
)

const offLabel = "休息"

type Engine struct {
	defaultAmount    int     // 指令没有给出数量时的默认增减天数
	dependentMaxDays float64 // 受限雇佣形态的月上限
}

func NewEngine(defaultAmount int, dependentMaxDays float64) *Engine {
	return &Engine{
		defaultAmount:    defaultAmount,
		dependentMaxDays: dependentMaxDays,
	}
}

// Request 汇集应用指令所需的全部上下文。Assignments 是源版本的完整分配
type Request struct {
	Employees    []*domain.Employee
	JobTypes     []*domain.JobType
	Requirements []*domain.DailyRequirement
	Requests     []*domain.ShiftRequest
	Assignments  []*domain.ShiftAssignment
	Intents      []domain.EditIntent
	Pins         []domain.PinEdit
}

// Proposal 是候选版本的内容：新的分配行（未落库）加上相对源版本的差异
type Proposal struct {
	Assignments []*domain.ShiftAssignment
	Changes     []domain.AssignmentChange
}

// workspace 是一次应用过程中的可变状态
type workspace struct {
	engine *Engine
	req    *Request

	employees map[int64]*domain.Employee
	jobNames  map[int64]string

	cells    map[string]*domain.ShiftAssignment // (empID|date) -> 副本中的格子
	original map[string]*int64                  // 源版本的工种，用于 diff
	totals   map[int64]float64                  // 员工当前工作日当量
	supply   map[string]float64                 // (date|jobID) -> 当前人数
	required map[string]float64                 // (date|jobID) -> 需求人数

	offPeriods map[int64]map[string]map[domain.DayOffPeriod]bool
}

func cellKey(employeeID int64, date time.Time) string {
	return fmt.Sprintf("%d|%s", employeeID, utils.DateKey(date))
}

func coverKey(date time.Time, jobTypeID int64) string {
	return fmt.Sprintf("%s|%d", utils.DateKey(date), jobTypeID)
}

// Apply 顺序执行全部指令。任何一条失败都整体失败，不产出候选版本
func (en *Engine) Apply(req *Request) (*Proposal, error) {
	ws := en.newWorkspace(req)

	for _, intent := range req.Intents {
		if err := ws.applyIntent(intent); err != nil {
			return nil, err
		}
	}
	for _, pin := range req.Pins {
		if err := ws.applyPin(pin); err != nil {
			return nil, err
		}
	}

	return ws.proposal(), nil
}

func (en *Engine) newWorkspace(req *Request) *workspace {
	ws := &workspace{
		engine:     en,
		req:        req,
		employees:  make(map[int64]*domain.Employee),
		jobNames:   make(map[int64]string),
		cells:      make(map[string]*domain.ShiftAssignment),
		original:   make(map[string]*int64),
		totals:     make(map[int64]float64),
		supply:     make(map[string]float64),
		required:   make(map[string]float64),
		offPeriods: make(map[int64]map[string]map[domain.DayOffPeriod]bool),
	}

	for _, emp := range req.Employees {
		ws.employees[emp.ID] = emp
	}
	for _, jt := range req.JobTypes {
		ws.jobNames[jt.ID] = jt.Name
	}
	for _, r := range req.Requirements {
		ws.required[coverKey(r.Date, r.JobTypeID)] = r.RequiredCount
	}
	for _, sr := range req.Requests {
		byDate := make(map[string]map[domain.DayOffPeriod]bool)
		for date, periods := range sr.OffPeriods() {
			byDate[utils.DateKey(date)] = periods
		}
		ws.offPeriods[sr.EmployeeID] = byDate
	}

	for _, a := range req.Assignments {
		// 深拷贝：候选版本拥有自己的分配行，不与源版本共享
		cp := *a
		cp.ID = 0
		cp.ScheduleID = 0
		key := cellKey(a.EmployeeID, a.Date)
		ws.cells[key] = &cp
		ws.original[key] = a.JobTypeID

		ws.totals[a.EmployeeID] += a.HeadcountValue
		if a.JobTypeID != nil {
			ws.supply[coverKey(a.Date, *a.JobTypeID)] += a.HeadcountValue
		}
	}

	return ws
}

// resolveEmployee 先精确再模糊地匹配员工名，无法唯一定位时报错
func (ws *workspace) resolveEmployee(ref string) (*domain.Employee, error) {
	ref = strings.TrimSpace(ref)
	var matches []*domain.Employee
	for _, emp := range ws.req.Employees {
		if emp.Name == ref {
			return emp, nil
		}
		if ref != "" && strings.Contains(emp.Name, ref) {
			matches = append(matches, emp)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	return nil, &domain.AmbiguousReferenceError{Ref: ref, Matches: len(matches)}
}

func (ws *workspace) resolveJobType(ref string) (*domain.JobType, error) {
	ref = strings.TrimSpace(ref)
	var matches []*domain.JobType
	for _, jt := range ws.req.JobTypes {
		if jt.Name == ref {
			return jt, nil
		}
		if ref != "" && strings.Contains(jt.Name, ref) {
			matches = append(matches, jt)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	return nil, &domain.AmbiguousReferenceError{Ref: ref, Matches: len(matches)}
}

// editableDates 返回员工在指令日期范围内可编辑的工作日（升序）。
// 周末、节假日以及全天休假申请的日子是硬约束，永远不可编辑
func (ws *workspace) editableDates(emp *domain.Employee, intent domain.EditIntent) []time.Time {
	var dates []time.Time
	for _, a := range ws.req.Assignments {
		if a.EmployeeID != emp.ID {
			continue
		}
		if holiday.IsNonWorkingDay(a.Date) {
			continue
		}
		if intent.DateFrom != nil && a.Date.Before(*intent.DateFrom) {
			continue
		}
		if intent.DateTo != nil && a.Date.After(*intent.DateTo) {
			continue
		}
		if ws.fullDayOff(emp.ID, a.Date) {
			continue
		}
		dates = append(dates, a.Date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func (ws *workspace) fullDayOff(employeeID int64, date time.Time) bool {
	periods := ws.offPeriods[employeeID][utils.DateKey(date)]
	return periods[domain.PeriodAM] && periods[domain.PeriodPM]
}

// workKindFor 按休假申请决定出勤形态：上午休则下午出勤，反之亦然
func (ws *workspace) workKindFor(employeeID int64, date time.Time) domain.WorkKind {
	periods := ws.offPeriods[employeeID][utils.DateKey(date)]
	switch {
	case periods[domain.PeriodAM]:
		return domain.WorkAfternoonHalf
	case periods[domain.PeriodPM]:
		return domain.WorkMorningHalf
	default:
		return domain.WorkFull
	}
}

func (ws *workspace) capRemaining(emp *domain.Employee) float64 {
	if emp.EmploymentType != domain.EmploymentDependent {
		return math.MaxFloat64
	}
	return ws.engine.dependentMaxDays - ws.totals[emp.ID]
}

func (ws *workspace) applyIntent(intent domain.EditIntent) error {
	emp, err := ws.resolveEmployee(intent.EmployeeRef)
	if err != nil {
		return err
	}
	jt, err := ws.resolveJobType(intent.JobTypeRef)
	if err != nil {
		return err
	}
	if !emp.CanPerform(jt.ID) {
		return &domain.InfeasibleEditError{
			Reason: fmt.Sprintf("%s 不能胜任 %s", emp.Name, jt.Name),
		}
	}

	amount := ws.engine.defaultAmount
	if intent.Amount != nil {
		amount = *intent.Amount
	}

	current := ws.jobDayCount(emp.ID, jt.ID)

	var delta int
	switch intent.Direction {
	case domain.DirectionIncrease:
		delta = amount
	case domain.DirectionDecrease:
		delta = -amount
	case domain.DirectionSet:
		delta = amount - current
	default:
		return &domain.InfeasibleEditError{
			Reason: fmt.Sprintf("未知的调整方向 %q", intent.Direction),
		}
	}

	switch {
	case delta > 0:
		return ws.increase(emp, jt, delta, intent)
	case delta < 0:
		return ws.decrease(emp, jt, -delta, intent)
	default:
		return nil
	}
}

// jobDayCount 统计员工当前担任某工种的天数（半天按一天计，与指令口径一致）
func (ws *workspace) jobDayCount(employeeID, jobTypeID int64) int {
	count := 0
	for _, cell := range ws.cells {
		if cell.EmployeeID == employeeID && cell.JobTypeID != nil && *cell.JobTypeID == jobTypeID {
			count++
		}
	}
	return count
}

// increase 把员工的休息日或其他工种日改为目标工种。候选优先级：
// 本次应用中刚从目标工种改掉的日子最先被补回（decrease 再 increase
// 等于没有变化），其次是目标工种缺人的休息日，再次是普通休息日，
// 最后才动其他工种的日子（原工种超员者优先）。覆盖是软约束，
// 换工种留下的人数缺口会出现在差异里交给审批者裁决；
// 只有硬约束挡住全部候选时才报不可行
func (ws *workspace) increase(emp *domain.Employee, jt *domain.JobType, days int, intent domain.EditIntent) error {
	type candidate struct {
		date     time.Time
		priority int
	}

	var candidates []candidate
	for _, date := range ws.editableDates(emp, intent) {
		key := cellKey(emp.ID, date)
		cell := ws.cells[key]
		orig := ws.original[key]
		restored := orig != nil && *orig == jt.ID

		switch {
		case cell.WorkKind == domain.WorkOff:
			if ws.capRemaining(emp) < domain.HeadcountForKind(ws.workKindFor(emp.ID, date)) {
				continue
			}
			switch {
			case restored:
				candidates = append(candidates, candidate{date, 0})
			case ws.supply[coverKey(date, jt.ID)] < ws.required[coverKey(date, jt.ID)]:
				candidates = append(candidates, candidate{date, 1})
			default:
				candidates = append(candidates, candidate{date, 2})
			}
		case cell.JobTypeID != nil && *cell.JobTypeID != jt.ID:
			// 换工种不改变出勤量，不触发月上限
			switch {
			case restored:
				candidates = append(candidates, candidate{date, 0})
			case ws.supply[coverKey(date, *cell.JobTypeID)] > ws.required[coverKey(date, *cell.JobTypeID)]:
				candidates = append(candidates, candidate{date, 3})
			default:
				candidates = append(candidates, candidate{date, 4})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].priority != candidates[j].priority {
			return candidates[i].priority < candidates[j].priority
		}
		return candidates[i].date.Before(candidates[j].date)
	})

	if len(candidates) == 0 {
		return &domain.InfeasibleEditError{
			Reason: fmt.Sprintf("%s 没有可以改为 %s 的日子", emp.Name, jt.Name),
		}
	}

	placed := 0
	for _, c := range candidates {
		if placed == days {
			break
		}
		cell := ws.cells[cellKey(emp.ID, c.date)]
		// 前面的改动可能已经用尽月上限，取下一个候选
		if cell.WorkKind == domain.WorkOff &&
			ws.capRemaining(emp) < domain.HeadcountForKind(ws.workKindFor(emp.ID, c.date)) {
			continue
		}
		ws.setCell(emp.ID, c.date, &jt.ID)
		placed++
	}
	return nil
}

// decrease 把员工的目标工种日改为其他缺人的工种或休息。
// 超员的日子优先被释放，日期从月末往前选，尽量少打乱月初已敲定的安排
func (ws *workspace) decrease(emp *domain.Employee, jt *domain.JobType, days int, intent domain.EditIntent) error {
	type candidate struct {
		date   time.Time
		excess bool
	}

	var candidates []candidate
	for _, date := range ws.editableDates(emp, intent) {
		cell := ws.cells[cellKey(emp.ID, date)]
		if cell.JobTypeID == nil || *cell.JobTypeID != jt.ID {
			continue
		}
		excess := ws.supply[coverKey(date, jt.ID)] > ws.required[coverKey(date, jt.ID)]
		candidates = append(candidates, candidate{date, excess})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].excess != candidates[j].excess {
			return candidates[i].excess
		}
		return candidates[i].date.After(candidates[j].date)
	})

	if len(candidates) == 0 {
		return &domain.InfeasibleEditError{
			Reason: fmt.Sprintf("%s 当前没有担任 %s 的日子", emp.Name, jt.Name),
		}
	}

	for i := 0; i < days && i < len(candidates); i++ {
		date := candidates[i].date
		// 若当天有员工能胜任的其他工种缺人，换过去以保持出勤天数不变
		if alt := ws.shortJobFor(emp, date, jt.ID); alt != nil {
			ws.setCell(emp.ID, date, alt)
		} else {
			ws.setCell(emp.ID, date, nil)
		}
	}
	return nil
}

// shortJobFor 找出当天缺人、且员工可胜任的另一个工种（ID 小者优先）
func (ws *workspace) shortJobFor(emp *domain.Employee, date time.Time, exclude int64) *int64 {
	for _, jt := range ws.req.JobTypes {
		if jt.ID == exclude || !emp.CanPerform(jt.ID) {
			continue
		}
		if ws.supply[coverKey(date, jt.ID)] < ws.required[coverKey(date, jt.ID)] {
			id := jt.ID
			return &id
		}
	}
	return nil
}

func (ws *workspace) applyPin(pin domain.PinEdit) error {
	emp, err := ws.resolveEmployee(pin.EmployeeRef)
	if err != nil {
		return err
	}
	if holiday.IsNonWorkingDay(pin.Date) {
		return &domain.InfeasibleEditError{
			Reason: fmt.Sprintf("%s 是非营业日，不能修改", utils.DateKey(pin.Date)),
		}
	}

	if pin.JobTypeRef == "" || pin.JobTypeRef == offLabel {
		ws.setCell(emp.ID, pin.Date, nil)
		return nil
	}

	jt, err := ws.resolveJobType(pin.JobTypeRef)
	if err != nil {
		return err
	}
	if !emp.CanPerform(jt.ID) {
		return &domain.InfeasibleEditError{
			Reason: fmt.Sprintf("%s 不能胜任 %s", emp.Name, jt.Name),
		}
	}
	if ws.fullDayOff(emp.ID, pin.Date) {
		return &domain.InfeasibleEditError{
			Reason: fmt.Sprintf("%s 在 %s 有全天休假申请", emp.Name, utils.DateKey(pin.Date)),
		}
	}
	if ws.cells[cellKey(emp.ID, pin.Date)].WorkKind == domain.WorkOff &&
		ws.capRemaining(emp) < domain.HeadcountForKind(ws.workKindFor(emp.ID, pin.Date)) {
		return &domain.InfeasibleEditError{
			Reason: fmt.Sprintf("%s 的月出勤上限不允许再增加", emp.Name),
		}
	}

	ws.setCell(emp.ID, pin.Date, &jt.ID)
	return nil
}

// setCell 修改一个格子并同步 totals / supply
func (ws *workspace) setCell(employeeID int64, date time.Time, jobTypeID *int64) {
	cell := ws.cells[cellKey(employeeID, date)]
	if cell == nil {
		return
	}

	ws.totals[employeeID] -= cell.HeadcountValue
	if cell.JobTypeID != nil {
		ws.supply[coverKey(date, *cell.JobTypeID)] -= cell.HeadcountValue
	}

	if jobTypeID == nil {
		cell.SetOff()
	} else {
		cell.SetWork(*jobTypeID, ws.workKindFor(employeeID, date))
		name := ws.jobNames[*jobTypeID]
		cell.JobTypeName = &name
	}

	ws.totals[employeeID] += cell.HeadcountValue
	if cell.JobTypeID != nil {
		ws.supply[coverKey(date, *cell.JobTypeID)] += cell.HeadcountValue
	}
}

// proposal 汇总结果，diff 按员工、日期的固定顺序输出
func (ws *workspace) proposal() *Proposal {
	assignments := make([]*domain.ShiftAssignment, 0, len(ws.cells))
	for _, cell := range ws.cells {
		assignments = append(assignments, cell)
	}
	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].EmployeeID != assignments[j].EmployeeID {
			return assignments[i].EmployeeID < assignments[j].EmployeeID
		}
		return assignments[i].Date.Before(assignments[j].Date)
	})

	var changes []domain.AssignmentChange
	for _, cell := range assignments {
		oldJob := ws.original[cellKey(cell.EmployeeID, cell.Date)]
		if equalJob(oldJob, cell.JobTypeID) {
			continue
		}
		changes = append(changes, domain.AssignmentChange{
			EmployeeID:   cell.EmployeeID,
			EmployeeName: cell.EmployeeName,
			Date:         utils.DateKey(cell.Date),
			OldJobType:   ws.jobLabel(oldJob),
			NewJobType:   ws.jobLabel(cell.JobTypeID),
		})
	}

	return &Proposal{Assignments: assignments, Changes: changes}
}

func equalJob(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (ws *workspace) jobLabel(jobTypeID *int64) string {
	if jobTypeID == nil {
		return offLabel
	}
	if name, exists := ws.jobNames[*jobTypeID]; exists {
		return name
	}
	return offLabel
}
