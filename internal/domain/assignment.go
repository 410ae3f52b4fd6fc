package domain

import "time"

type WorkKind string

const (
	WorkOff           WorkKind = "off"
	WorkFull          WorkKind = "full"
	WorkMorningHalf   WorkKind = "morning_half"
	WorkAfternoonHalf WorkKind = "afternoon_half"
)

// ShiftAssignment 是某个排班版本中 (员工, 日期) 的一个格子。
// WorkKind 为 off 时 JobTypeID 必须为 nil，其余情况必须恰好指定一个工种，
// 因此构造时只允许走 SetOff / SetWork
type ShiftAssignment struct {
	ID             int64     `json:"id"`
	ScheduleID     int64     `json:"scheduleID"`
	EmployeeID     int64     `json:"employeeID"`
	EmployeeName   string    `json:"employeeName"`
	Date           time.Time `json:"date"`
	JobTypeID      *int64    `json:"jobTypeID"`
	JobTypeName    *string   `json:"jobTypeName"`
	JobTypeColor   *string   `json:"jobTypeColor"`
	WorkKind       WorkKind  `json:"workKind"`
	HeadcountValue float64   `json:"headcountValue"`
}

func HeadcountForKind(kind WorkKind) float64 {
	switch kind {
	case WorkFull:
		return 1.0
	case WorkMorningHalf, WorkAfternoonHalf:
		return 0.5
	default:
		return 0
	}
}

func (a *ShiftAssignment) SetOff() {
	a.JobTypeID = nil
	a.JobTypeName = nil
	a.JobTypeColor = nil
	a.WorkKind = WorkOff
	a.HeadcountValue = 0
}

func (a *ShiftAssignment) SetWork(jobTypeID int64, kind WorkKind) {
	a.JobTypeID = &jobTypeID
	a.WorkKind = kind
	a.HeadcountValue = HeadcountForKind(kind)
}

func (a *ShiftAssignment) IsWorking() bool {
	return a.WorkKind != WorkOff
}

func ValidWorkKind(k WorkKind) bool {
	switch k {
	case WorkOff, WorkFull, WorkMorningHalf, WorkAfternoonHalf:
		return true
	}
	return false
}
