package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
	"github.com/atelier-ops/shift-scheduler/backend/internal/utils"
)

func (h *Handler) UpsertShiftRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmployeeID        int64   `json:"employeeId" validate:"required"`
		TargetMonth       string  `json:"targetMonth" validate:"required"`
		RequestedWorkDays *string `json:"requestedWorkDays"`
		Note              string  `json:"note"`
		DaysOff           []struct {
			Date   string `json:"date" validate:"required"`
			Period string `json:"period" validate:"required,oneof=am pm all_day"`
		} `json:"daysOff" validate:"dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	month, err := utils.ParseMonth(req.TargetMonth)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	if _, err := domain.ParseWorkPreference(req.RequestedWorkDays); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 休假日期必须落在目标月份内
	nextMonth := month.AddDate(0, 1, 0)
	daysOff := make([]domain.DayOff, 0, len(req.DaysOff))
	for _, d := range req.DaysOff {
		date, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			h.badRequest(w, r, errors.New("休假日期格式无效"))
			return
		}
		if date.Before(month) || !date.Before(nextMonth) {
			h.badRequest(w, r, errors.New("休假日期不在目标月份内"))
			return
		}
		daysOff = append(daysOff, domain.DayOff{Date: date, Period: domain.DayOffPeriod(d.Period)})
	}

	request := &domain.ShiftRequest{
		EmployeeID:        req.EmployeeID,
		TargetMonth:       req.TargetMonth,
		RequestedWorkDays: req.RequestedWorkDays,
		Note:              req.Note,
		DaysOff:           daysOff,
	}

	if err := h.repository.UpsertShiftRequest(request); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "shift_requests_employee_id_fkey":
			h.badRequest(w, r, errors.New("员工不存在"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "出勤意向提交成功", request)
}

func (h *Handler) GetShiftRequests(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if _, err := utils.ParseMonth(month); err != nil {
		h.badRequest(w, r, err)
		return
	}

	requests, err := h.repository.GetShiftRequestsByMonth(month)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取出勤意向列表成功", requests)
}

// GetRequestStatus 返回每位员工在指定月份是否已提交出勤意向
func (h *Handler) GetRequestStatus(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if _, err := utils.ParseMonth(month); err != nil {
		h.badRequest(w, r, err)
		return
	}

	employees, err := h.repository.GetAllEmployees()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	requests, err := h.repository.GetShiftRequestsByMonth(month)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	submitted := make(map[int64]bool, len(requests))
	for _, req := range requests {
		submitted[req.EmployeeID] = true
	}

	type status struct {
		EmployeeID   int64  `json:"employeeID"`
		EmployeeName string `json:"employeeName"`
		Submitted    bool   `json:"submitted"`
	}
	statuses := make([]status, 0, len(employees))
	for _, emp := range employees {
		statuses = append(statuses, status{
			EmployeeID:   emp.ID,
			EmployeeName: emp.Name,
			Submitted:    submitted[emp.ID],
		})
	}

	h.successResponse(w, r, "获取提交状况成功", statuses)
}
