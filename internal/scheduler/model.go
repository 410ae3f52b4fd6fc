package scheduler

import (
	"time"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
)

// 求解参数。软约束权重沿用长期使用的经验值：
// 人数缺口 >> 希望出勤天数 > 公平性 > 工种均衡 > 工种优先级
type Parameters struct {
	TimeBudget       time.Duration // 求解的墙钟预算
	DependentMaxDays float64       // 受限雇佣形态的月工作日当量上限
	CoverageWeight   float64
	RequestWeight    float64
	FairnessWeight   float64
	BalanceWeight    float64
	PriorityWeight   float64
}

// Input 是输入聚合器整理好的一个月份的全部排班输入
type Input struct {
	Month        time.Time
	Employees    []*domain.Employee
	JobTypes     []*domain.JobType
	Requirements []*domain.DailyRequirement
	Requests     []*domain.ShiftRequest
}

// 人数按 0.5 人粒度参与计算，内部统一放大两倍用整数表示，
// 全天 = 2 个单位，半天 = 1 个单位
const unitsPerDay = 2

// model 是约束模型：每个 (员工, 工作日) 在 {休息} ∪ {(可胜任工种, 勤务形态)}
// 中取值。勤务形态由休假申请预先固定，不属于决策范围
type model struct {
	params Parameters

	employees    []*domain.Employee // 按 SortOrder, ID 排序
	jobTypes     []*domain.JobType  // 按 ID 升序，ID 小者优先级高
	allDates     []time.Time        // 当月全部日期
	workingDates []time.Time        // 除去周末与节假日

	jobIndex map[int64]int // jobTypeID -> jobTypes 下标

	allowed   [][]bool            // [emp][job] 是否可胜任
	forcedOff [][]bool            // [emp][workday] 全天休假申请
	workKind  [][]domain.WorkKind // [emp][workday] 若出勤时的勤务形态
	unit      [][]int             // [emp][workday] 出勤时贡献的单位数

	required [][]int // [workday][job] 需求单位数，无需求为 0

	pref     []domain.WorkPreference // [emp]
	capUnits []int                   // [emp] 月工作单位上限（不受限者为极大值）
}

// solution 是一次完整的分配：每个 (员工, 工作日) 的工种下标，-1 表示休息
type solution struct {
	assign [][]int
	totals []int // [emp] 当前工作单位合计
	supply [][]int
}

func (m *model) newSolution() *solution {
	s := &solution{
		assign: make([][]int, len(m.employees)),
		totals: make([]int, len(m.employees)),
		supply: make([][]int, len(m.workingDates)),
	}
	for e := range m.employees {
		s.assign[e] = make([]int, len(m.workingDates))
		for d := range m.workingDates {
			s.assign[e][d] = -1
		}
	}
	for d := range m.workingDates {
		s.supply[d] = make([]int, len(m.jobTypes))
	}
	return s
}

func (s *solution) place(m *model, e, d, j int) {
	s.assign[e][d] = j
	s.totals[e] += m.unit[e][d]
	s.supply[d][j] += m.unit[e][d]
}

func (s *solution) remove(m *model, e, d int) {
	j := s.assign[e][d]
	if j < 0 {
		return
	}
	s.assign[e][d] = -1
	s.totals[e] -= m.unit[e][d]
	s.supply[d][j] -= m.unit[e][d]
}

// targetUnits 返回员工希望达到的工作单位数。
// Max 与未表态者都以整月为目标参与排序，实际上限由需求与公平性决定
func (m *model) targetUnits(e int) int {
	switch m.pref[e].Kind {
	case domain.PreferenceExact:
		return int(m.pref[e].Days) * unitsPerDay
	default:
		return len(m.workingDates) * unitsPerDay
	}
}
