package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/atelier-ops/shift-scheduler/backend/internal/domain"
)

func (h *Handler) GetAllEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.repository.GetAllEmployees()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取员工列表成功", employees)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	employee := r.Context().Value(EmployeeCtx).(*domain.Employee)
	h.successResponse(w, r, "获取员工信息成功", employee)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string  `json:"name" validate:"required"`
		Email          string  `json:"email" validate:"required,email"`
		EmploymentType string  `json:"employmentType" validate:"required,oneof=full_time dependent"`
		JobTypeIDs     []int64 `json:"jobTypeIds" validate:"required,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	employee := &domain.Employee{
		Name:           req.Name,
		Email:          req.Email,
		EmploymentType: domain.EmploymentType(req.EmploymentType),
		JobTypeIDs:     req.JobTypeIDs,
	}

	if err := h.repository.CreateEmployee(employee); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch {
			case pgErr.ConstraintName == "employees_email_key":
				h.badRequest(w, r, errors.New("邮箱已存在"))
			case pgErr.ConstraintName == "employee_job_types_job_type_id_fkey":
				h.badRequest(w, r, errors.New("职种不存在"))
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "员工创建成功", employee)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           *string `json:"name" validate:"omitempty,min=1"`
		Email          *string `json:"email" validate:"omitempty,email"`
		EmploymentType *string `json:"employmentType" validate:"omitempty,oneof=full_time dependent"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	employee := r.Context().Value(EmployeeCtx).(*domain.Employee)
	if req.Name != nil {
		employee.Name = *req.Name
	}
	if req.Email != nil {
		employee.Email = *req.Email
	}
	if req.EmploymentType != nil {
		employee.EmploymentType = domain.EmploymentType(*req.EmploymentType)
	}

	if err := h.repository.UpdateEmployee(employee); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "员工信息已被他人修改，请刷新后重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "员工信息更新成功", employee)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	employee := r.Context().Value(EmployeeCtx).(*domain.Employee)

	if err := h.repository.DeleteEmployee(employee.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "员工删除成功", nil)
}

func (h *Handler) UpdateEmployeeJobTypes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobTypeIDs []int64 `json:"jobTypeIds" validate:"required,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	employee := r.Context().Value(EmployeeCtx).(*domain.Employee)

	if err := h.repository.UpdateEmployeeJobTypes(employee.ID, req.JobTypeIDs); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "employee_job_types_job_type_id_fkey":
			h.badRequest(w, r, errors.New("职种不存在"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	employee.JobTypeIDs = req.JobTypeIDs
	h.successResponse(w, r, "员工职种更新成功", employee)
}

func (h *Handler) ReorderEmployees(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmployeeIDs []int64 `json:"employeeIds" validate:"required,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.ReorderEmployees(req.EmployeeIDs); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "员工排序更新成功", nil)
}
