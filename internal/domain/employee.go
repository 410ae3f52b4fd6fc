package domain

import "time"

type EmploymentType string

const (
	EmploymentFullTime  EmploymentType = "full_time"
	EmploymentDependent EmploymentType = "dependent" // 受月工作量上限约束的雇佣形态
)

type Employee struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	EmploymentType EmploymentType `json:"employmentType"`
	SortOrder      int32          `json:"sortOrder"`
	JobTypeIDs     []int64        `json:"jobTypeIDs"`
	CreatedAt      time.Time      `json:"createdAt"`
	Version        int32          `json:"-"`
}

func (e *Employee) CanPerform(jobTypeID int64) bool {
	for _, id := range e.JobTypeIDs {
		if id == jobTypeID {
			return true
		}
	}
	return false
}
