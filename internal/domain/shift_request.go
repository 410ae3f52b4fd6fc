package domain

import (
	"fmt"
	"strconv"
	"time"
)

type DayOffPeriod string

const (
	PeriodAM     DayOffPeriod = "am"
	PeriodPM     DayOffPeriod = "pm"
	PeriodAllDay DayOffPeriod = "all_day"
)

type DayOff struct {
	ID     int64        `json:"id"`
	Date   time.Time    `json:"date"`
	Period DayOffPeriod `json:"period"`
}

// ShiftRequest 是员工对某个月份的出勤意向
type ShiftRequest struct {
	ID                int64     `json:"id"`
	EmployeeID        int64     `json:"employeeID"`
	EmployeeName      string    `json:"employeeName"`
	TargetMonth       string    `json:"targetMonth"` // 形如 "2026-03"
	RequestedWorkDays *string   `json:"requestedWorkDays"`
	Note              string    `json:"note"`
	DaysOff           []DayOff  `json:"daysOff"`
	CreatedAt         time.Time `json:"createdAt"`
	Version           int32     `json:"-"`
}

type WorkPreferenceKind int

const (
	PreferenceUnspecified WorkPreferenceKind = iota
	PreferenceExact
	PreferenceMax
)

// WorkPreference 把 "1"~"23" / "max" / 空 的混合编码拆成明确的变体，
// 避免每个使用点都要自己解析字符串
type WorkPreference struct {
	Kind WorkPreferenceKind
	Days int32 // 仅 Kind == PreferenceExact 时有效
}

const (
	RequestedWorkDaysMax = "max"
	MinRequestedWorkDays = 1
	MaxRequestedWorkDays = 23
)

func ParseWorkPreference(requested *string) (WorkPreference, error) {
	if requested == nil || *requested == "" {
		return WorkPreference{Kind: PreferenceUnspecified}, nil
	}
	if *requested == RequestedWorkDaysMax {
		return WorkPreference{Kind: PreferenceMax}, nil
	}

	days, err := strconv.Atoi(*requested)
	if err != nil || days < MinRequestedWorkDays || days > MaxRequestedWorkDays {
		return WorkPreference{}, fmt.Errorf("希望出勤天数必须是 %d~%d 之间的整数或者 %q", MinRequestedWorkDays, MaxRequestedWorkDays, RequestedWorkDaysMax)
	}
	return WorkPreference{Kind: PreferenceExact, Days: int32(days)}, nil
}

// OffPeriods 把休假条目按日期归并，同一天的 am + pm 等价于全天休
func (sr *ShiftRequest) OffPeriods() map[time.Time]map[DayOffPeriod]bool {
	periods := make(map[time.Time]map[DayOffPeriod]bool)
	for _, d := range sr.DaysOff {
		day := d.Date
		if _, exists := periods[day]; !exists {
			periods[day] = make(map[DayOffPeriod]bool)
		}
		switch d.Period {
		case PeriodAllDay:
			periods[day][PeriodAM] = true
			periods[day][PeriodPM] = true
		default:
			periods[day][d.Period] = true
		}
	}
	return periods
}
