package domain

import (
	"errors"
	"fmt"
)

// 业务错误。除 ErrInfeasibleModel 外都是可恢复的用户侧错误，
// 任何一个都不会留下半截状态（版本 / 日志要么完整创建要么完全不创建）
var (
	// ErrInfeasibleModel 表示硬约束本身无解（例如没有任何员工、没有任何工种），
	// 生成中止，不创建版本，需要修正输入数据
	ErrInfeasibleModel = errors.New("排班模型无解，请检查员工与工种数据")

	// ErrGenerationInFlight 表示同一月份已有一个生成任务在运行
	ErrGenerationInFlight = errors.New("该月份的排班生成正在进行中，请稍后再试")

	// ErrInvalidTransition 表示请求的状态迁移不在 draft/preview -> confirmed -> published 链上
	ErrInvalidTransition = errors.New("不允许的排班状态变更")

	// ErrInvalidLogState 表示修改记录已经是终态，不能再审批或驳回
	ErrInvalidLogState = errors.New("修改记录已被处理，不能重复操作")
)

// InvalidPreferenceError 表示某员工存储的希望出勤天数无法解析。
// 属于输入数据问题，修正该员工的出勤意向后重新生成即可
type InvalidPreferenceError struct {
	EmployeeName string
	Err          error
}

func (e *InvalidPreferenceError) Error() string {
	return fmt.Sprintf("%s 的希望出勤天数无效：%v", e.EmployeeName, e.Err)
}

func (e *InvalidPreferenceError) Unwrap() error {
	return e.Err
}

// AmbiguousReferenceError 表示指令中的员工或工种引用无法唯一定位
type AmbiguousReferenceError struct {
	Ref     string
	Matches int
}

func (e *AmbiguousReferenceError) Error() string {
	if e.Matches == 0 {
		return fmt.Sprintf("找不到名为 %q 的对象", e.Ref)
	}
	return fmt.Sprintf("%q 匹配到 %d 个对象，无法唯一确定", e.Ref, e.Matches)
}

// InfeasibleEditError 表示在不破坏硬约束的前提下无法满足指令
type InfeasibleEditError struct {
	Reason string
}

func (e *InfeasibleEditError) Error() string {
	return "无法在不违反硬约束的情况下完成修改：" + e.Reason
}

// ConstraintViolationError 表示手工修改会破坏硬约束
type ConstraintViolationError struct {
	Reason string
}

func (e *ConstraintViolationError) Error() string {
	return "该修改违反硬约束：" + e.Reason
}

// NlpParseError 表示外部解析服务超时或者返回了无法理解的结果。
// 解析失败不会产生任何指令，也不会创建候选版本
type NlpParseError struct {
	Reason string
	Err    error
}

func (e *NlpParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("自然语言指令解析失败：%s: %v", e.Reason, e.Err)
	}
	return "自然语言指令解析失败：" + e.Reason
}

func (e *NlpParseError) Unwrap() error {
	return e.Err
}
