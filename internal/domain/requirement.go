package domain

import "time"

// DailyRequirement 表示某天某个工种需要的人数，允许 0.5 表示半天需求
type DailyRequirement struct {
	ID            int64     `json:"id"`
	Date          time.Time `json:"date"`
	JobTypeID     int64     `json:"jobTypeID"`
	JobTypeName   string    `json:"jobTypeName"`
	RequiredCount float64   `json:"requiredCount"`
}
