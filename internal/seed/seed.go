// Package seed 向数据库写入演示数据：固定的工种表，
// 以及一套可以直接生成排班的员工、需求与出勤意向
package seed

import (
	"log/slog"
	"time"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
	"github.com/atelier-ops/shift-scheduler/backend/internal/holiday"
	"github.com/atelier-ops/shift-scheduler/backend/internal/repository"
	"github.com/atelier-ops/shift-scheduler/backend/internal/utils"
)

// 工种按录入顺序获得 ID，ID 小者优先级高，因此厨房排在最前
var defaultJobTypes = []*domain.JobType{
	{Name: "厨房", Color: "#e74c3c"},
	{Name: "大厅", Color: "#3498db"},
	{Name: "收银", Color: "#2ecc71"},
}

// 每个工作日的默认需求人数
var defaultRequiredCounts = map[string]float64{
	"厨房": 2,
	"大厅": 2.5,
	"收银": 1,
}

func EnsureJobTypes(r *repository.Repository) ([]*domain.JobType, error) {
	existing, err := r.GetAllJobTypes()
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	for _, jt := range defaultJobTypes {
		if err := r.CreateJobType(jt); err != nil {
			return nil, err
		}
	}
	return defaultJobTypes, nil
}

func SeedEmployees(r *repository.Repository, n int, emailDomain string) error {
	jobTypes, err := EnsureJobTypes(r)
	if err != nil {
		return err
	}
	jobTypeIDs := make([]int64, 0, len(jobTypes))
	for _, jt := range jobTypes {
		jobTypeIDs = append(jobTypeIDs, jt.ID)
	}

	cnt := 0
	for i := 0; i < n; i++ {
		emp := utils.GenerateRandomEmployee(emailDomain, jobTypeIDs)
		if err := r.CreateEmployee(emp); err != nil {
			slog.Error("无法插入员工", "error", err)
			continue
		}
		if err := r.UpdateEmployeeJobTypes(emp.ID, emp.JobTypeIDs); err != nil {
			slog.Error("无法插入员工工种", "error", err)
			continue
		}
		cnt++
	}

	slog.Info("插入员工成功", "count", cnt)
	return nil
}

func SeedRequirements(r *repository.Repository, month time.Time) error {
	jobTypes, err := EnsureJobTypes(r)
	if err != nil {
		return err
	}

	items := []*domain.DailyRequirement{}
	for _, date := range utils.MonthDates(month) {
		if holiday.IsNonWorkingDay(date) {
			continue
		}
		for _, jt := range jobTypes {
			count, exists := defaultRequiredCounts[jt.Name]
			if !exists {
				continue
			}
			items = append(items, &domain.DailyRequirement{
				Date:          date,
				JobTypeID:     jt.ID,
				RequiredCount: count,
			})
		}
	}

	if err := r.UpsertRequirements(items); err != nil {
		return err
	}

	slog.Info("插入人数需求成功", "count", len(items))
	return nil
}

func SeedShiftRequests(r *repository.Repository, month time.Time) error {
	employees, err := r.GetAllEmployees()
	if err != nil {
		return err
	}

	cnt := 0
	for _, emp := range employees {
		sr := utils.GenerateRandomShiftRequest(emp.ID, month)
		if err := r.UpsertShiftRequest(sr); err != nil {
			slog.Error("无法插入出勤意向", "error", err)
			continue
		}
		cnt++
	}

	slog.Info("插入出勤意向成功", "count", cnt)
	return nil
}
