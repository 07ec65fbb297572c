// Package handler содержит HTTP-обработчики API кампусной торговой площадки.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/campus-trade/internal/metrics"
	"github.com/mmeshcher/campus-trade/internal/middleware"
	"github.com/mmeshcher/campus-trade/internal/model"
	"github.com/mmeshcher/campus-trade/internal/repository"
	"github.com/mmeshcher/campus-trade/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, in service.RegisterInput) (*model.User, error)
	AuthenticateUser(ctx context.Context, studentID, password string) (*model.User, error)
	GetProfile(ctx context.Context, studentID string) (*model.User, error)
	UpdateProfile(ctx context.Context, studentID string, nickname, contactInfo *string) (*model.User, error)
	ChangePassword(ctx context.Context, studentID, oldPassword, newPassword string) error

	CreateListing(ctx context.Context, studentID string, in service.ListingInput) (*model.Listing, error)
	GetListing(ctx context.Context, id int64) (*model.Listing, error)
	UpdateListing(ctx context.Context, studentID string, id int64, in service.ListingInput) (*model.Listing, error)
	DeleteListing(ctx context.Context, studentID string, id int64) error
	ListListings(ctx context.Context, keyword, statusFilter, sort string, page, size int) ([]model.Listing, int64, error)
	ListMyListings(ctx context.Context, studentID, statusFilter string, page, size int) ([]model.Listing, int64, error)

	MarkInterest(ctx context.Context, studentID string, listingID int64) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, studentID string, orderID int64, statusToken string) (*model.Order, error)
	GetOrder(ctx context.Context, studentID string, orderID int64) (*model.Order, error)
	ListOrders(ctx context.Context, studentID, roleFilter, statusFilter string, page, size int) ([]model.Order, int64, error)

	ListNotifications(ctx context.Context, studentID string, read *bool, page, size int) ([]model.Notification, int64, error)
	GetNotification(ctx context.Context, studentID string, id int64) (*model.Notification, error)
	MarkNotificationRead(ctx context.Context, studentID string, id int64) (*model.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, studentID string) error
	UnreadNotificationCount(ctx context.Context, studentID string) (int64, error)

	ListUsers(ctx context.Context, keyword string, page, size int) ([]model.User, int64, error)
	SetUserEnabled(ctx context.Context, userID int64, enabled bool) (*model.User, error)
	ResetUserPassword(ctx context.Context, userID int64) (string, error)
	AdminListListings(ctx context.Context, keyword, statusFilter string, page, size int) ([]model.Listing, int64, error)
	AdminRemoveListing(ctx context.Context, listingID int64) error
	Statistics(ctx context.Context) (*model.Statistics, error)
}

// Handler реализует HTTP-обработчики API площадки.
type Handler struct {
	service Service
	logger  *zap.Logger
	auth    *middleware.AuthMiddleware
	metrics *metrics.ServerMetrics
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, m *metrics.ServerMetrics) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
		auth:    auth,
		metrics: m,
	}
}

// apiResponse — конверт всех ответов API.
type apiResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

// pageResponse — страница результатов списочных запросов.
type pageResponse struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, resp apiResponse) {
	resp.Timestamp = time.Now().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

func (h *Handler) writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	h.writeJSON(w, status, apiResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// writeError переводит ошибку бизнес-логики в конверт с HTTP-статусом.
// Внутренние ошибки логируются и наружу уходят обезличенными.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if status, ok := statusForError(err); ok {
		h.writeJSON(w, status, apiResponse{Success: false, Message: err.Error()})
		return
	}

	h.logger.Error("internal error",
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("requestID", middleware.GetRequestIDFromContext(r.Context())))
	h.writeJSON(w, http.StatusInternalServerError, apiResponse{
		Success: false,
		Message: "internal server error",
	})
}

func statusForError(err error) (int, bool) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidOrderStatus),
		errors.Is(err, service.ErrWrongPassword):
		return http.StatusBadRequest, true
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAccountDisabled):
		return http.StatusUnauthorized, true
	case errors.Is(err, service.ErrOrderAccessDenied),
		errors.Is(err, service.ErrSellerMayOnlyCancel),
		errors.Is(err, service.ErrBuyerMayOnlyCancelOrComplete),
		errors.Is(err, service.ErrOwnListingInterest),
		errors.Is(err, service.ErrListingAccessDenied),
		errors.Is(err, service.ErrNotificationAccessDenied):
		return http.StatusForbidden, true
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrListingNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrNotificationNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, repository.ErrUserExists),
		errors.Is(err, repository.ErrListingStatusConflict),
		errors.Is(err, service.ErrOrderNotPending),
		errors.Is(err, service.ErrListingUnavailable),
		errors.Is(err, service.ErrAdminAccount):
		return http.StatusConflict, true
	}
	return 0, false
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (*middleware.Principal, bool) {
	p, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, apiResponse{Success: false, Message: "unauthorized"})
		return nil, false
	}
	return p, true
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func queryInt(r *http.Request, name, def string) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		v = def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func pagination(r *http.Request) (page, size int) {
	return queryInt(r, "page", "0"), queryInt(r, "size", "10")
}
