package domain

import "time"

type ScheduleStatus string

const (
	StatusDraft     ScheduleStatus = "draft"
	StatusPreview   ScheduleStatus = "preview"
	StatusConfirmed ScheduleStatus = "confirmed"
	StatusPublished ScheduleStatus = "published"
)

// Schedule 是一个月份排班的一个版本。版本只会被新版本取代（Discarded 置位），
// 永远不会被物理删除，以便追溯
type Schedule struct {
	ID          int64          `json:"id"`
	TargetMonth string         `json:"targetMonth"`
	Status      ScheduleStatus `json:"status"`
	Discarded   bool           `json:"discarded"`
	GeneratedAt time.Time      `json:"generatedAt"`
	ConfirmedAt *time.Time     `json:"confirmedAt"`
	Version     int32          `json:"-"`
}

// CanTransitionTo 约束状态只能沿 draft/preview -> confirmed -> published 前进
func (s ScheduleStatus) CanTransitionTo(target ScheduleStatus) bool {
	switch s {
	case StatusDraft, StatusPreview:
		return target == StatusConfirmed
	case StatusConfirmed:
		return target == StatusPublished
	default:
		return false
	}
}

// Editable 判断能否原地改写版本的分配。confirmed / published 的内容
// 已经对外敲定，调整必须走修改提案产生新版本
func (s ScheduleStatus) Editable() bool {
	return s == StatusDraft || s == StatusPreview
}

func ValidScheduleStatus(s ScheduleStatus) bool {
	switch s {
	case StatusDraft, StatusPreview, StatusConfirmed, StatusPublished:
		return true
	}
	return false
}
