package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/atelier-ops/shift-scheduler/backend/internal/utils"
)

type employeeReport struct {
	EmployeeID    int64          `json:"employeeID"`
	EmployeeName  string         `json:"employeeName"`
	TotalWorkDays float64        `json:"totalWorkDays"` // 工作日当量，半天计 0.5
	JobTypeCounts map[string]int `json:"jobTypeCounts"`
	DaysOff       int            `json:"daysOff"`
}

// GetReport 汇总指定月份最新有效版本的出勤统计
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if _, err := utils.ParseMonth(month); err != nil {
		h.badRequest(w, r, err)
		return
	}

	schedule, err := h.repository.GetLatestScheduleByMonth(month)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "该月份还没有排班版本")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	assignments, err := h.repository.GetAssignmentsByScheduleID(schedule.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	reports := []*employeeReport{}
	byEmployee := make(map[int64]*employeeReport)
	for _, a := range assignments {
		rep, exists := byEmployee[a.EmployeeID]
		if !exists {
			rep = &employeeReport{
				EmployeeID:    a.EmployeeID,
				EmployeeName:  a.EmployeeName,
				JobTypeCounts: make(map[string]int),
			}
			byEmployee[a.EmployeeID] = rep
			reports = append(reports, rep)
		}

		if a.IsWorking() {
			rep.TotalWorkDays += a.HeadcountValue
			rep.JobTypeCounts[*a.JobTypeName]++
		} else {
			rep.DaysOff++
		}
	}

	// 公平性一览：工作日当量的最大最小差
	var maxDays, minDays float64
	for i, rep := range reports {
		if i == 0 || rep.TotalWorkDays > maxDays {
			maxDays = rep.TotalWorkDays
		}
		if i == 0 || rep.TotalWorkDays < minDays {
			minDays = rep.TotalWorkDays
		}
	}

	h.successResponse(w, r, "获取统计成功", map[string]any{
		"schedule":  schedule,
		"employees": reports,
		"fairness": map[string]float64{
			"maxWorkDays": maxDays,
			"minWorkDays": minDays,
			"spread":      maxDays - minDays,
		},
	})
}
