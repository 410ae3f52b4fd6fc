package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/atelier-ops/shift-scheduler/backend/internal/export"
	"github.com/atelier-ops/shift-scheduler/backend/internal/utils"
)

// exportTable 取出指定月份最新有效版本并渲染成中间表格
func (h *Handler) exportTable(w http.ResponseWriter, r *http.Request) (*export.Table, bool) {
	monthParam := r.URL.Query().Get("month")
	month, err := utils.ParseMonth(monthParam)
	if err != nil {
		h.badRequest(w, r, err)
		return nil, false
	}

	schedule, err := h.repository.GetLatestScheduleByMonth(monthParam)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "该月份还没有排班版本")
		default:
			h.internalServerError(w, r, err)
		}
		return nil, false
	}

	assignments, err := h.repository.GetAssignmentsByScheduleID(schedule.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return nil, false
	}

	return export.BuildTable(schedule, month, assignments), true
}

func exportFileName(table *export.Table, ext string) string {
	return fmt.Sprintf("schedule_%s_%s.%s", table.TargetMonth, time.Now().Format("20060102"), ext)
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	table, ok := h.exportTable(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFileName(table, "csv")))
	if err := table.WriteCSV(w); err != nil {
		h.logInternalServerError(r, err)
	}
}

func (h *Handler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	table, ok := h.exportTable(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFileName(table, "xlsx")))
	if err := table.WriteExcel(w); err != nil {
		h.logInternalServerError(r, err)
	}
}

func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	table, ok := h.exportTable(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFileName(table, "pdf")))
	if err := table.WritePDF(w, h.config.Export.PDFFontPath); err != nil {
		h.logInternalServerError(r, err)
	}
}
