package handler

import (
	"net/http"
)

func (h *Handler) GetAllJobTypes(w http.ResponseWriter, r *http.Request) {
	jobTypes, err := h.repository.GetAllJobTypes()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取职种列表成功", jobTypes)
}
