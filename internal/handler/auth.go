package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mmeshcher/campus-trade/internal/model"
	"github.com/mmeshcher/campus-trade/internal/service"
)

type userResponse struct {
	ID          int64  `json:"id"`
	StudentID   string `json:"studentId"`
	Username    string `json:"username"`
	Nickname    string `json:"nickname,omitempty"`
	ContactInfo string `json:"contactInfo,omitempty"`
	Enabled     bool   `json:"enabled"`
	Role        string `json:"role"`
	CreatedAt   string `json:"createdAt"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:          u.ID,
		StudentID:   u.StudentID,
		Username:    u.Username,
		Nickname:    u.Nickname,
		ContactInfo: u.ContactInfo,
		Enabled:     u.Enabled,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}

type registerRequest struct {
	StudentID   string `json:"studentId"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Nickname    string `json:"nickname"`
	ContactInfo string `json:"contactInfo"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid request body"})
		return
	}

	u, err := h.service.RegisterUser(r.Context(), service.RegisterInput{
		StudentID:   req.StudentID,
		Username:    req.Username,
		Password:    req.Password,
		Nickname:    req.Nickname,
		ContactInfo: req.ContactInfo,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "registered", toUserResponse(u))
}

type loginRequest struct {
	StudentID string `json:"studentId"`
	Password  string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Login выполняет аутентификацию пользователя и выдаёт bearer-токен.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "invalid request body"})
		return
	}

	u, err := h.service.AuthenticateUser(r.Context(), req.StudentID, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	token, err := h.auth.IssueToken(u)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "logged in", loginResponse{
		Token: token,
		User:  toUserResponse(u),
	})
}
