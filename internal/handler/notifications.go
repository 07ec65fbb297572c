package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mmeshcher/campus-trade/internal/model"
)

type notificationResponse struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Read      bool   `json:"read"`
	ListingID *int64 `json:"listingId,omitempty"`
	OrderID   *int64 `json:"orderId,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func toNotificationResponse(n *model.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.Read,
		ListingID: n.ListingID,
		OrderID:   n.OrderID,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}

// GetNotifications возвращает страницу уведомлений текущего пользователя.
// Параметр read позволяет отфильтровать прочитанные или непрочитанные.
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var read *bool
	if v := r.URL.Query().Get("read"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid read filter"})
			return
		}
		read = &parsed
	}

	page, size := pagination(r)
	notifications, total, err := h.service.ListNotifications(r.Context(), p.StudentID, read, page, size)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]notificationResponse, 0, len(notifications))
	for i := range notifications {
		items = append(items, toNotificationResponse(&notifications[i]))
	}

	h.writeSuccess(w, http.StatusOK, "ok", pageResponse{Items: items, Total: total, Page: page, Size: size})
}

// GetNotification возвращает уведомление текущего пользователя.
func (h *Handler) GetNotification(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, err := idParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid notification id"})
		return
	}

	n, err := h.service.GetNotification(r.Context(), p.StudentID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "ok", toNotificationResponse(n))
}

// MarkNotificationRead помечает уведомление прочитанным.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, err := idParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid notification id"})
		return
	}

	n, err := h.service.MarkNotificationRead(r.Context(), p.StudentID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "notification read", toNotificationResponse(n))
}

// MarkAllNotificationsRead помечает все уведомления пользователя прочитанными.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkAllNotificationsRead(r.Context(), p.StudentID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "all notifications read", nil)
}

// GetUnreadCount возвращает число непрочитанных уведомлений пользователя.
func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	count, err := h.service.UnreadNotificationCount(r.Context(), p.StudentID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "ok", map[string]int64{"count": count})
}
