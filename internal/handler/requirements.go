package handler

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
	"github.com/atelier-ops/shift-scheduler/backend/internal/holiday"
	"github.com/atelier-ops/shift-scheduler/backend/internal/utils"
)

// 人数需求允许半人粒度（0.5 人对应半天勤务）
func validHeadcount(count float64) bool {
	return count >= 0 && math.Mod(count*2, 1) == 0
}

func (h *Handler) GetRequirements(w http.ResponseWriter, r *http.Request) {
	monthParam := r.URL.Query().Get("month")
	month, err := utils.ParseMonth(monthParam)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	start := month
	end := month.AddDate(0, 1, -1)
	requirements, err := h.repository.GetRequirementsByDateRange(start, end)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取人数需求成功", requirements)
}

func (h *Handler) UpsertRequirements(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Requirements []struct {
			Date          string  `json:"date" validate:"required"`
			JobTypeID     int64   `json:"jobTypeId" validate:"required"`
			RequiredCount float64 `json:"requiredCount"`
		} `json:"requirements" validate:"required,min=1,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	items := make([]*domain.DailyRequirement, 0, len(req.Requirements))
	for _, item := range req.Requirements {
		date, err := time.Parse("2006-01-02", item.Date)
		if err != nil {
			h.badRequest(w, r, errors.New("日期格式无效"))
			return
		}
		if !validHeadcount(item.RequiredCount) {
			h.badRequest(w, r, errors.New("需求人数必须是 0.5 的整数倍"))
			return
		}
		items = append(items, &domain.DailyRequirement{
			Date:          date,
			JobTypeID:     item.JobTypeID,
			RequiredCount: item.RequiredCount,
		})
	}

	if err := h.repository.UpsertRequirements(items); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "daily_requirements_job_type_id_fkey":
			h.badRequest(w, r, errors.New("职种不存在"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "人数需求保存成功", items)
}

// ApplyRequirementsTemplate 按星期模板批量生成一个月的人数需求，
// 周末与节假日不参与排班，直接跳过
func (h *Handler) ApplyRequirementsTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetMonth string `json:"targetMonth" validate:"required"`
		Template    []struct {
			Weekday       int     `json:"weekday" validate:"min=0,max=6"` // 0 = 周日
			JobTypeID     int64   `json:"jobTypeId" validate:"required"`
			RequiredCount float64 `json:"requiredCount"`
		} `json:"template" validate:"required,min=1,dive"`
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

	byWeekday := make(map[time.Weekday][]*domain.DailyRequirement)
	for _, item := range req.Template {
		if !validHeadcount(item.RequiredCount) {
			h.badRequest(w, r, errors.New("需求人数必须是 0.5 的整数倍"))
			return
		}
		weekday := time.Weekday(item.Weekday)
		byWeekday[weekday] = append(byWeekday[weekday], &domain.DailyRequirement{
			JobTypeID:     item.JobTypeID,
			RequiredCount: item.RequiredCount,
		})
	}

	items := []*domain.DailyRequirement{}
	for _, date := range utils.MonthDates(month) {
		if holiday.IsNonWorkingDay(date) {
			continue
		}
		for _, tpl := range byWeekday[date.Weekday()] {
			items = append(items, &domain.DailyRequirement{
				Date:          date,
				JobTypeID:     tpl.JobTypeID,
				RequiredCount: tpl.RequiredCount,
			})
		}
	}

	if len(items) == 0 {
		h.errorResponse(w, r, "模板没有生成任何需求")
		return
	}

	if err := h.repository.UpsertRequirements(items); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "daily_requirements_job_type_id_fkey":
			h.badRequest(w, r, errors.New("职种不存在"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "模板应用成功", items)
}
