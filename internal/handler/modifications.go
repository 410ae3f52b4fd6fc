package handler

import (
	"errors"
	"net/http"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
	"github.com/atelier-ops/shift-scheduler/backend/internal/modification"
	"github.com/atelier-ops/shift-scheduler/backend/internal/nlp"
	"github.com/atelier-ops/shift-scheduler/backend/internal/utils"
)

// ProposeModification 对某个版本发起一次修改提案。
// 文本指令先经解析服务转成结构化指令，再由修改引擎在副本上执行；
// 全部指令成功才会创建候选版本和待审批记录
func (h *Handler) ProposeModification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InputText    string              `json:"inputText"`
		Instructions []domain.EditIntent `json:"instructions"`
		Pins         []domain.PinEdit    `json:"pins"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.InputText == "" && len(req.Instructions) == 0 && len(req.Pins) == 0 {
		h.badRequest(w, r, errors.New("必须提供修改指令"))
		return
	}

	schedule := r.Context().Value(ScheduleCtx).(*domain.Schedule)
	if schedule.Discarded {
		h.errorResponse(w, r, "该版本已被取代，不能再修改")
		return
	}

	employees, err := h.repository.GetAllEmployees()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	jobTypes, err := h.repository.GetAllJobTypes()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	assignments, err := h.repository.GetAssignmentsByScheduleID(schedule.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	intents := req.Instructions
	pins := req.Pins

	if req.InputText != "" {
		summary, detail := nlp.BuildScheduleContext(employees, jobTypes, assignments)
		employeeNames := make([]string, 0, len(employees))
		for _, emp := range employees {
			employeeNames = append(employeeNames, emp.Name)
		}
		jobTypeNames := make([]string, 0, len(jobTypes))
		for _, jt := range jobTypes {
			jobTypeNames = append(jobTypeNames, jt.Name)
		}

		parsed, err := h.nlpClient.ParseModification(r.Context(), req.InputText, summary, detail, employeeNames, jobTypeNames)
		if err != nil {
			var parseErr *domain.NlpParseError
			switch {
			case errors.As(err, &parseErr):
				h.errorResponse(w, r, parseErr.Error())
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		intents = append(intents, parsed.Intents...)
		pins = append(pins, parsed.Pins...)
	}

	month, err := utils.ParseMonth(schedule.TargetMonth)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	requirements, err := h.repository.GetRequirementsByDateRange(month, month.AddDate(0, 1, -1))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	requests, err := h.repository.GetShiftRequestsByMonth(schedule.TargetMonth)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	proposal, err := h.modEngine.Apply(&modification.Request{
		Employees:    employees,
		JobTypes:     jobTypes,
		Requirements: requirements,
		Requests:     requests,
		Assignments:  assignments,
		Intents:      intents,
		Pins:         pins,
	})
	if err != nil {
		var ambiguousErr *domain.AmbiguousReferenceError
		var infeasibleErr *domain.InfeasibleEditError
		var violationErr *domain.ConstraintViolationError
		switch {
		case errors.As(err, &ambiguousErr), errors.As(err, &infeasibleErr), errors.As(err, &violationErr):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	candidate := &domain.Schedule{
		TargetMonth: schedule.TargetMonth,
		Status:      domain.StatusDraft,
	}
	log := &domain.ModificationLog{
		ScheduleID:   schedule.ID,
		InputText:    req.InputText,
		Instructions: intents,
		Pins:         pins,
		Changes:      proposal.Changes,
		Status:       domain.ModificationPending,
	}

	if err := h.repository.CreateModificationProposal(candidate, proposal.Assignments, log); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "修改提案创建成功", log)
}

func (h *Handler) GetModificationLogs(w http.ResponseWriter, r *http.Request) {
	schedule := r.Context().Value(ScheduleCtx).(*domain.Schedule)

	logs, err := h.repository.GetModificationLogsByScheduleID(schedule.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取修改记录成功", logs)
}

func (h *Handler) ApproveModification(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ModificationLogCtx).(*domain.ModificationLog)

	updated, err := h.repository.ApproveModificationLog(log.ID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidLogState):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "修改提案已通过", updated)
}

func (h *Handler) RejectModification(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ModificationLogCtx).(*domain.ModificationLog)

	updated, err := h.repository.RejectModificationLog(log.ID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidLogState):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "修改提案已驳回", updated)
}
