package domain

import "time"

type ModificationStatus string

const (
	ModificationPending  ModificationStatus = "pending"
	ModificationApproved ModificationStatus = "approved"
	ModificationRejected ModificationStatus = "rejected"
)

type EditDirection string

const (
	DirectionIncrease EditDirection = "increase"
	DirectionDecrease EditDirection = "decrease"
	DirectionSet      EditDirection = "set"
)

// EditIntent 是一条结构化的调整指令，可能来自前端表单，也可能来自
// 自然语言解析。无论来源如何，修改引擎都会重新校验所有硬约束
type EditIntent struct {
	EmployeeRef string        `json:"employeeRef"`
	Direction   EditDirection `json:"direction"`
	JobTypeRef  string        `json:"jobTypeRef"`
	Amount      *int          `json:"amount"`        // nil 表示使用默认增减量
	DateFrom    *time.Time    `json:"dateFrom"`      // 可选的日期范围提示
	DateTo      *time.Time    `json:"dateTo"`
}

// PinEdit 把某个员工某一天固定成指定工种（或休息），不触发重排
type PinEdit struct {
	EmployeeRef string    `json:"employeeRef"`
	Date        time.Time `json:"date"`
	JobTypeRef  string    `json:"jobTypeRef"` // 空字符串表示改为休息
}

// AssignmentChange 是 diff 中的一行：某员工某天的工种发生了什么变化
type AssignmentChange struct {
	EmployeeID   int64  `json:"employeeID"`
	EmployeeName string `json:"employeeName"`
	Date         string `json:"date"` // ISO 日期
	OldJobType   string `json:"oldJobType"`
	NewJobType   string `json:"newJobType"`
}

// ModificationLog 记录一次修改提案的完整轨迹：原始输入、解析结果、
// 产生的候选版本以及审批结论。进入 approved / rejected 后不可再变更
type ModificationLog struct {
	ID            int64              `json:"id"`
	ScheduleID    int64              `json:"scheduleID"`
	NewScheduleID int64              `json:"newScheduleID"`
	InputText     string             `json:"inputText"`
	Instructions  []EditIntent       `json:"instructions"`
	Pins          []PinEdit          `json:"pins"`
	Changes       []AssignmentChange `json:"changes"`
	Status        ModificationStatus `json:"status"`
	CreatedAt     time.Time          `json:"createdAt"`
}

func (s ModificationStatus) Terminal() bool {
	return s == ModificationApproved || s == ModificationRejected
}

// CanAdopt 判断提案能否被批准：记录必须仍是 pending，且源版本没有被
// 别的提案或新的确认取代。同一源版本上的多个提案只会有一个胜者
func CanAdopt(status ModificationStatus, sourceDiscarded bool) bool {
	return status == ModificationPending && !sourceDiscarded
}
