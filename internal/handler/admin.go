package handler

import (
	"encoding/json"
	"net/http"
)

// AdminGetUsers возвращает страницу пользователей для администратора.
func (h *Handler) AdminGetUsers(w http.ResponseWriter, r *http.Request) {
	page, size := pagination(r)

	users, total, err := h.service.ListUsers(r.Context(), r.URL.Query().Get("keyword"), page, size)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]userResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}

	h.writeSuccess(w, http.StatusOK, "ok", pageResponse{Items: items, Total: total, Page: page, Size: size})
}

type userStatusRequest struct {
	Enabled bool `json:"enabled"`
}

// AdminSetUserStatus включает или отключает учётную запись пользователя.
func (h *Handler) AdminSetUserStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid user id"})
		return
	}

	var req userStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid request body"})
		return
	}

	u, err := h.service.SetUserEnabled(r.Context(), id, req.Enabled)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "user status updated", toUserResponse(u))
}

// AdminResetPassword сбрасывает пароль пользователя и возвращает новый.
func (h *Handler) AdminResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid user id"})
		return
	}

	password, err := h.service.ResetUserPassword(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "password reset", map[string]string{"password": password})
}

// AdminGetListings возвращает страницу объявлений без ограничения по статусу.
func (h *Handler) AdminGetListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, size := pagination(r)

	listings, total, err := h.service.AdminListListings(r.Context(), q.Get("keyword"), q.Get("status"), page, size)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "ok", toListingPage(listings, total, page, size))
}

// AdminRemoveListing снимает объявление с публикации и уведомляет продавца.
func (h *Handler) AdminRemoveListing(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid listing id"})
		return
	}

	if err := h.service.AdminRemoveListing(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "listing removed", nil)
}

// AdminGetStatistics возвращает сводную статистику площадки.
func (h *Handler) AdminGetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "ok", stats)
}
