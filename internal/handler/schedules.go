package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
	"github.com/atelier-ops/shift-scheduler/backend/internal/holiday"
	"github.com/atelier-ops/shift-scheduler/backend/internal/scheduler"
	"github.com/atelier-ops/shift-scheduler/backend/internal/utils"
)

func (h *Handler) GetSchedules(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month != "" {
		if _, err := utils.ParseMonth(month); err != nil {
			h.badRequest(w, r, err)
			return
		}
	}

	schedules, err := h.repository.GetSchedulesByMonth(month)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排班版本列表成功", schedules)
}

// loadSchedulerInput 汇集一个月份的全部排班输入
func (h *Handler) loadSchedulerInput(monthStr string, month time.Time) (*scheduler.Input, error) {
	employees, err := h.repository.GetAllEmployees()
	if err != nil {
		return nil, err
	}
	jobTypes, err := h.repository.GetAllJobTypes()
	if err != nil {
		return nil, err
	}
	requirements, err := h.repository.GetRequirementsByDateRange(month, month.AddDate(0, 1, -1))
	if err != nil {
		return nil, err
	}
	requests, err := h.repository.GetShiftRequestsByMonth(monthStr)
	if err != nil {
		return nil, err
	}

	return &scheduler.Input{
		Month:        month,
		Employees:    employees,
		JobTypes:     jobTypes,
		Requirements: requirements,
		Requests:     requests,
	}, nil
}

func (h *Handler) schedulerParameters() scheduler.Parameters {
	return scheduler.Parameters{
		TimeBudget:       time.Duration(h.config.Scheduler.TimeBudget) * time.Second,
		DependentMaxDays: h.config.Scheduler.DependentMaxDays,
		CoverageWeight:   h.config.Scheduler.CoverageWeight,
		RequestWeight:    h.config.Scheduler.RequestWeight,
		FairnessWeight:   h.config.Scheduler.FairnessWeight,
		BalanceWeight:    h.config.Scheduler.BalanceWeight,
		PriorityWeight:   h.config.Scheduler.PriorityWeight,
	}
}

func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetMonth string `json:"targetMonth" validate:"required"`
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

	// 同一月份同时只允许一个生成任务
	lockKey := fmt.Sprintf("schedule_generation:%s", req.TargetMonth)
	lockTTL := time.Duration(h.config.Scheduler.GenerationLockTTL) * time.Second
	acquired, err := h.redisClient.SetNX(r.Context(), lockKey, "1", lockTTL).Result()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !acquired {
		h.errorResponse(w, r, domain.ErrGenerationInFlight.Error())
		return
	}
	defer func() {
		if err := h.redisClient.Del(context.Background(), lockKey).Err(); err != nil {
			h.logInternalServerError(r, err)
		}
	}()

	input, err := h.loadSchedulerInput(req.TargetMonth, month)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	s, err := scheduler.New(h.schedulerParameters(), input)
	if err != nil {
		var invalidPref *domain.InvalidPreferenceError
		switch {
		case errors.Is(err, domain.ErrInfeasibleModel):
			h.errorResponse(w, r, err.Error())
		case errors.As(err, &invalidPref):
			// 存量数据问题，指明员工让使用者去修正出勤意向
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	result := s.Solve(r.Context())

	schedule := &domain.Schedule{
		TargetMonth: req.TargetMonth,
		Status:      domain.StatusPreview,
	}
	if err := h.repository.InsertSchedule(schedule, result.Assignments); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "排班生成成功", map[string]any{
		"schedule":    schedule,
		"assignments": result.Assignments,
		"violations":  result.Violations,
	})
}

func (h *Handler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	schedule := r.Context().Value(ScheduleCtx).(*domain.Schedule)

	assignments, err := h.repository.GetAssignmentsByScheduleID(schedule.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排班明细成功", assignments)
}

// ApplyManualOverrides 直接改写版本中的格子。软约束允许被人工覆盖，
// 硬约束（非工作日、可胜任工种、全天休假、受限雇佣上限）仍然强制
func (h *Handler) ApplyManualOverrides(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Edits []struct {
			EmployeeID int64  `json:"employeeId" validate:"required"`
			Date       string `json:"date" validate:"required"`
			JobTypeID  *int64 `json:"jobTypeId"`
			WorkKind   string `json:"workKind" validate:"required,oneof=off full morning_half afternoon_half"`
		} `json:"edits" validate:"required,min=1,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	schedule := r.Context().Value(ScheduleCtx).(*domain.Schedule)
	if schedule.Discarded || !schedule.Status.Editable() {
		h.errorResponse(w, r, "该版本已确认或已发布，不能直接编辑，请通过修改提案调整")
		return
	}

	assignments, err := h.repository.GetAssignmentsByScheduleID(schedule.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	employees, err := h.repository.GetAllEmployees()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	requests, err := h.repository.GetShiftRequestsByMonth(schedule.TargetMonth)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	employeeByID := make(map[int64]*domain.Employee, len(employees))
	for _, emp := range employees {
		employeeByID[emp.ID] = emp
	}
	offByEmployee := make(map[int64]map[time.Time]map[domain.DayOffPeriod]bool, len(requests))
	for _, sr := range requests {
		offByEmployee[sr.EmployeeID] = sr.OffPeriods()
	}
	cellByKey := make(map[string]*domain.ShiftAssignment, len(assignments))
	for _, a := range assignments {
		cellByKey[fmt.Sprintf("%d|%s", a.EmployeeID, utils.DateKey(a.Date))] = a
	}

	edited := []*domain.ShiftAssignment{}
	for _, edit := range req.Edits {
		date, err := time.Parse("2006-01-02", edit.Date)
		if err != nil {
			h.badRequest(w, r, errors.New("日期格式无效"))
			return
		}

		cell, exists := cellByKey[fmt.Sprintf("%d|%s", edit.EmployeeID, utils.DateKey(date))]
		if !exists {
			h.badRequest(w, r, errors.New("指定的员工或日期不在该版本中"))
			return
		}

		kind := domain.WorkKind(edit.WorkKind)
		if kind == domain.WorkOff {
			cell.SetOff()
			edited = append(edited, cell)
			continue
		}

		emp := employeeByID[edit.EmployeeID]
		if emp == nil {
			h.badRequest(w, r, errors.New("员工不存在"))
			return
		}
		if edit.JobTypeID == nil {
			h.badRequest(w, r, errors.New("出勤时必须指定工种"))
			return
		}
		if holiday.IsNonWorkingDay(date) {
			h.errorResponse(w, r, fmt.Sprintf("%s 是非工作日，不能安排出勤", utils.DateKey(date)))
			return
		}
		if !emp.CanPerform(*edit.JobTypeID) {
			h.errorResponse(w, r, fmt.Sprintf("%s 不具备该工种的资格", emp.Name))
			return
		}
		if periods := offByEmployee[edit.EmployeeID][date]; periods != nil {
			switch {
			case periods[domain.PeriodAM] && periods[domain.PeriodPM]:
				h.errorResponse(w, r, fmt.Sprintf("%s 在 %s 已申请全天休假", emp.Name, utils.DateKey(date)))
				return
			case periods[domain.PeriodAM] && kind != domain.WorkAfternoonHalf:
				h.errorResponse(w, r, fmt.Sprintf("%s 在 %s 上午休假，只能安排下午半天勤务", emp.Name, utils.DateKey(date)))
				return
			case periods[domain.PeriodPM] && kind != domain.WorkMorningHalf:
				h.errorResponse(w, r, fmt.Sprintf("%s 在 %s 下午休假，只能安排上午半天勤务", emp.Name, utils.DateKey(date)))
				return
			}
		}

		cell.SetWork(*edit.JobTypeID, kind)
		edited = append(edited, cell)
	}

	// 受限雇佣形态的月工作日当量上限
	totals := make(map[int64]float64)
	for _, a := range assignments {
		totals[a.EmployeeID] += a.HeadcountValue
	}
	for _, emp := range employees {
		if emp.EmploymentType == domain.EmploymentDependent && totals[emp.ID] > h.config.Scheduler.DependentMaxDays {
			h.errorResponse(w, r, fmt.Sprintf("%s 的月工作日当量超过上限 %.1f", emp.Name, h.config.Scheduler.DependentMaxDays))
			return
		}
	}

	if err := h.repository.UpdateAssignments(schedule.ID, edited); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "排班明细更新成功", edited)
}

func (h *Handler) TransitionScheduleStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status" validate:"required,oneof=preview confirmed published"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	schedule := r.Context().Value(ScheduleCtx).(*domain.Schedule)
	target := domain.ScheduleStatus(req.Status)

	updated, err := h.repository.TransitionScheduleStatus(schedule.ID, target)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidTransition):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 发布后给每位员工发送排班通知邮件
	if target == domain.StatusPublished {
		if err := h.notifySchedulePublished(updated); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	h.successResponse(w, r, "排班状态更新成功", updated)
}

func (h *Handler) notifySchedulePublished(schedule *domain.Schedule) error {
	assignments, err := h.repository.GetAssignmentsByScheduleID(schedule.ID)
	if err != nil {
		return err
	}
	employees, err := h.repository.GetAllEmployees()
	if err != nil {
		return err
	}

	workDays := make(map[int64][]string)
	for _, a := range assignments {
		if !a.IsWorking() {
			continue
		}
		label := fmt.Sprintf("%s %s", utils.DateKey(a.Date), *a.JobTypeName)
		workDays[a.EmployeeID] = append(workDays[a.EmployeeID], label)
	}

	for _, emp := range employees {
		mailMessage := domain.MailMessage{
			Type: "schedule_published",
			To:   emp.Email,
			Data: domain.SchedulePublishedMailData{
				EmployeeName: emp.Name,
				TargetMonth:  schedule.TargetMonth,
				WorkDays:     workDays[emp.ID],
			},
		}

		emailData, err := json.Marshal(mailMessage)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
		err = h.mailChannel.PublishWithContext(
			ctx,
			"",
			"email_queue",
			true,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        emailData,
			},
		)
		cancel()
		if err != nil {
			return err
		}
	}

	return nil
}
