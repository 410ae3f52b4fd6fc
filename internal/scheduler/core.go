package scheduler

import (
	"context"
	"time"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
)

const maxImprovePasses = 64

// construct 按日期、工种优先级逐格贪心填充需求。
// 候选排序只依赖确定性的指标，保证同样的输入得到同样的初始解
func (m *model) construct() *solution {
	sol := m.newSolution()
	for d := range m.workingDates {
		for j := range m.jobTypes {
			m.fillCell(sol, d, j)
		}
	}
	return sol
}

// fillCell 为 (工作日, 工种) 补人直到需求满足或无人可用
func (m *model) fillCell(sol *solution, d, j int) bool {
	changed := false
	for sol.supply[d][j] < m.required[d][j] {
		remaining := m.required[d][j] - sol.supply[d][j]
		e := m.bestCandidate(sol, d, j, remaining)
		if e < 0 {
			break
		}
		sol.place(m, e, d, j)
		changed = true
	}
	return changed
}

// bestCandidate 在可用员工中选出最缺工时的一个。
// 决胜顺序固定：距目标缺口大者优先，其次 SortOrder 小者，最后 ID 小者
// （员工序列本身已按后两者排序，因此用严格小于即可保持稳定）
func (m *model) bestCandidate(sol *solution, d, j, remaining int) int {
	best := -1
	bestDeficit := 0
	for e := range m.employees {
		if !m.allowed[e][j] || m.forcedOff[e][d] || sol.assign[e][d] >= 0 {
			continue
		}
		unit := m.unit[e][d]
		if sol.totals[e]+unit > m.capUnits[e] {
			continue
		}
		if unit > remaining {
			// 只差半天时整天出勤会造成同等的超员，不如留着缺口等半天勤务者
			continue
		}
		deficit := m.targetUnits(e) - sol.totals[e]
		if deficit <= 0 {
			continue
		}
		if best < 0 || deficit > bestDeficit {
			best = e
			bestDeficit = deficit
		}
	}
	if best >= 0 {
		return best
	}

	// 所有人都已到达目标时仍需有人顶上：缺口惩罚远大于超出希望天数的惩罚
	for e := range m.employees {
		if !m.allowed[e][j] || m.forcedOff[e][d] || sol.assign[e][d] >= 0 {
			continue
		}
		unit := m.unit[e][d]
		if sol.totals[e]+unit > m.capUnits[e] || unit > remaining {
			continue
		}
		overload := sol.totals[e] - m.targetUnits(e)
		if best < 0 || overload < bestDeficit {
			best = e
			bestDeficit = overload
		}
	}
	return best
}

// improve 在预算内反复执行三类确定性的局部改进，直到不再有变化
func (m *model) improve(ctx context.Context, sol *solution, deadline time.Time) {
	for pass := 0; pass < maxImprovePasses; pass++ {
		if ctx.Err() != nil || time.Now().After(deadline) {
			return
		}

		changed := m.fillShortfalls(sol)
		changed = m.trimExcess(sol) || changed
		changed = m.satisfyExact(sol) || changed
		changed = m.rebalance(sol, deadline) || changed
		if !changed {
			return
		}
	}
}

func (m *model) fillShortfalls(sol *solution) bool {
	changed := false
	for d := range m.workingDates {
		for j := range m.jobTypes {
			changed = m.fillCell(sol, d, j) || changed
		}
	}
	return changed
}

// trimExcess 给出勤超过希望天数的员工减负。
// 只有在相应格子本来就超员时才取消分配，避免以缺口换个人偏好
func (m *model) trimExcess(sol *solution) bool {
	changed := false
	for e := range m.employees {
		if m.pref[e].Kind != domain.PreferenceExact {
			continue
		}
		target := int(m.pref[e].Days) * unitsPerDay
		for d := len(m.workingDates) - 1; d >= 0 && sol.totals[e] > target; d-- {
			j := sol.assign[e][d]
			if j < 0 {
				continue
			}
			if sol.supply[d][j] > m.required[d][j] {
				sol.remove(m, e, d)
				changed = true
			}
		}
	}
	return changed
}

// satisfyExact 把出勤量不足希望天数的员工补到目标：从当天在岗、
// 没有精确偏好（或已超出自身目标）的员工手里接过一天。
// 转移不改变覆盖，只是把同一个格子换人
func (m *model) satisfyExact(sol *solution) bool {
	changed := false
	for e := range m.employees {
		if m.pref[e].Kind != domain.PreferenceExact {
			continue
		}
		target := int(m.pref[e].Days) * unitsPerDay
		for d := 0; d < len(m.workingDates) && sol.totals[e] < target; d++ {
			if sol.assign[e][d] >= 0 || m.forcedOff[e][d] {
				continue
			}
			unit := m.unit[e][d]
			if sol.totals[e]+unit > m.capUnits[e] || sol.totals[e]+unit > target {
				continue
			}
			for o := range m.employees {
				j := sol.assign[o][d]
				if o == e || j < 0 || !m.allowed[e][j] || m.unit[o][d] != unit {
					continue
				}
				if m.pref[o].Kind == domain.PreferenceExact &&
					sol.totals[o]-unit < int(m.pref[o].Days)*unitsPerDay {
					continue
				}
				sol.remove(m, o, d)
				sol.place(m, e, d, j)
				changed = true
				break
			}
		}
	}
	return changed
}

// rebalance 缩小无偏好员工之间的出勤差距：把出勤最多者的某一天
// 转给出勤最少且当天可顶替的人。转移不改变覆盖，只改变公平性
func (m *model) rebalance(sol *solution, deadline time.Time) bool {
	changed := false
	for {
		if time.Now().After(deadline) {
			return changed
		}

		maxEmp, minEmp := -1, -1
		for e := range m.employees {
			if m.pref[e].Kind != domain.PreferenceUnspecified {
				continue
			}
			if maxEmp < 0 || sol.totals[e] > sol.totals[maxEmp] {
				maxEmp = e
			}
			if minEmp < 0 || sol.totals[e] < sol.totals[minEmp] {
				minEmp = e
			}
		}
		if maxEmp < 0 || minEmp < 0 || sol.totals[maxEmp]-sol.totals[minEmp] <= unitsPerDay {
			return changed
		}

		transferred := false
		for d := range m.workingDates {
			j := sol.assign[maxEmp][d]
			if j < 0 || sol.assign[minEmp][d] >= 0 || m.forcedOff[minEmp][d] {
				continue
			}
			if !m.allowed[minEmp][j] || m.unit[minEmp][d] != m.unit[maxEmp][d] {
				continue
			}
			if sol.totals[minEmp]+m.unit[minEmp][d] > m.capUnits[minEmp] {
				continue
			}
			sol.remove(m, maxEmp, d)
			sol.place(m, minEmp, d, j)
			transferred = true
			changed = true
			break
		}
		if !transferred {
			return changed
		}
	}
}
