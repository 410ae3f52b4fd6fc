package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/atelier-ops/shift-scheduler/backend/internal/holiday"
)

func (h *Handler) GetHolidays(w http.ResponseWriter, r *http.Request) {
	yearParam := r.URL.Query().Get("year")
	year, err := strconv.Atoi(yearParam)
	if err != nil {
		h.badRequest(w, r, errors.New("年份无效"))
		return
	}

	holidays := holiday.ForYear(year)
	if holidays == nil {
		h.errorResponse(w, r, "暂无该年份的节假日数据")
		return
	}

	h.successResponse(w, r, "获取节假日列表成功", holidays)
}
