package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/campus-trade/internal/middleware"
	"github.com/mmeshcher/campus-trade/internal/model"
	"github.com/mmeshcher/campus-trade/internal/repository"
	"github.com/mmeshcher/campus-trade/internal/service"
)

type stubService struct {
	registerUser *model.User
	registerErr  error

	authUser *model.User
	authErr  error

	profileUser *model.User
	profileErr  error

	listing     *model.Listing
	listingErr  error
	listings    []model.Listing
	listingsErr error

	order     *model.Order
	orderErr  error
	orders    []model.Order
	ordersErr error

	notifications   []model.Notification
	notification    *model.Notification
	notificationErr error
	unreadCount     int64

	users        []model.User
	resetPass    string
	resetPassErr error
	statistics   *model.Statistics
}

func (s *stubService) RegisterUser(ctx context.Context, in service.RegisterInput) (*model.User, error) {
	return s.registerUser, s.registerErr
}

func (s *stubService) AuthenticateUser(ctx context.Context, studentID, password string) (*model.User, error) {
	return s.authUser, s.authErr
}

func (s *stubService) GetProfile(ctx context.Context, studentID string) (*model.User, error) {
	return s.profileUser, s.profileErr
}

func (s *stubService) UpdateProfile(ctx context.Context, studentID string, nickname, contactInfo *string) (*model.User, error) {
	return s.profileUser, s.profileErr
}

func (s *stubService) ChangePassword(ctx context.Context, studentID, oldPassword, newPassword string) error {
	return s.profileErr
}

func (s *stubService) CreateListing(ctx context.Context, studentID string, in service.ListingInput) (*model.Listing, error) {
	return s.listing, s.listingErr
}

func (s *stubService) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	return s.listing, s.listingErr
}

func (s *stubService) UpdateListing(ctx context.Context, studentID string, id int64, in service.ListingInput) (*model.Listing, error) {
	return s.listing, s.listingErr
}

func (s *stubService) DeleteListing(ctx context.Context, studentID string, id int64) error {
	return s.listingErr
}

func (s *stubService) ListListings(ctx context.Context, keyword, statusFilter, sort string, page, size int) ([]model.Listing, int64, error) {
	return s.listings, int64(len(s.listings)), s.listingsErr
}

func (s *stubService) ListMyListings(ctx context.Context, studentID, statusFilter string, page, size int) ([]model.Listing, int64, error) {
	return s.listings, int64(len(s.listings)), s.listingsErr
}

func (s *stubService) MarkInterest(ctx context.Context, studentID string, listingID int64) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubService) UpdateOrderStatus(ctx context.Context, studentID string, orderID int64, statusToken string) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubService) GetOrder(ctx context.Context, studentID string, orderID int64) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubService) ListOrders(ctx context.Context, studentID, roleFilter, statusFilter string, page, size int) ([]model.Order, int64, error) {
	return s.orders, int64(len(s.orders)), s.ordersErr
}

func (s *stubService) ListNotifications(ctx context.Context, studentID string, read *bool, page, size int) ([]model.Notification, int64, error) {
	return s.notifications, int64(len(s.notifications)), s.notificationErr
}

func (s *stubService) GetNotification(ctx context.Context, studentID string, id int64) (*model.Notification, error) {
	return s.notification, s.notificationErr
}

func (s *stubService) MarkNotificationRead(ctx context.Context, studentID string, id int64) (*model.Notification, error) {
	return s.notification, s.notificationErr
}

func (s *stubService) MarkAllNotificationsRead(ctx context.Context, studentID string) error {
	return s.notificationErr
}

func (s *stubService) UnreadNotificationCount(ctx context.Context, studentID string) (int64, error) {
	return s.unreadCount, s.notificationErr
}

func (s *stubService) ListUsers(ctx context.Context, keyword string, page, size int) ([]model.User, int64, error) {
	return s.users, int64(len(s.users)), nil
}

func (s *stubService) SetUserEnabled(ctx context.Context, userID int64, enabled bool) (*model.User, error) {
	return s.profileUser, s.profileErr
}

func (s *stubService) ResetUserPassword(ctx context.Context, userID int64) (string, error) {
	return s.resetPass, s.resetPassErr
}

func (s *stubService) AdminListListings(ctx context.Context, keyword, statusFilter string, page, size int) ([]model.Listing, int64, error) {
	return s.listings, int64(len(s.listings)), s.listingsErr
}

func (s *stubService) AdminRemoveListing(ctx context.Context, listingID int64) error {
	return s.listingErr
}

func (s *stubService) Statistics(ctx context.Context) (*model.Statistics, error) {
	return s.statistics, nil
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	auth := middleware.NewAuthMiddleware("test-secret", time.Hour)
	return NewHandler(svc, zap.NewNop(), auth, nil)
}

func bearerToken(t *testing.T, h *Handler, role model.Role) string {
	t.Helper()

	token, err := h.auth.IssueToken(&model.User{StudentID: "20000001", Role: role})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func decodeEnvelope(t *testing.T, res *http.Response) apiResponse {
	t.Helper()

	var resp apiResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if resp.Timestamp == "" {
		t.Fatalf("envelope timestamp is empty")
	}
	return resp
}

func TestRegister_Success(t *testing.T) {
	svc := &stubService{
		registerUser: &model.User{ID: 42, StudentID: "12345678", Username: "user", Role: model.RoleUser},
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(registerRequest{
		StudentID: "12345678",
		Username:  "user",
		Password:  "secret1",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	resp := decodeEnvelope(t, res)
	if !resp.Success {
		t.Fatalf("success = false, message: %s", resp.Message)
	}
}

func TestRegister_DuplicateConflict(t *testing.T) {
	svc := &stubService{registerErr: repository.ErrUserExists}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(registerRequest{StudentID: "12345678", Username: "user", Password: "secret1"})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &stubService{authErr: service.ErrInvalidCredentials}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(loginRequest{StudentID: "12345678", Password: "wrong"})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}

	resp := decodeEnvelope(t, res)
	if resp.Success {
		t.Fatalf("success = true for failed login")
	}
}

func TestLogin_IssuesToken(t *testing.T) {
	svc := &stubService{
		authUser: &model.User{ID: 2, StudentID: "20000001", Username: "user", Role: model.RoleUser},
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(loginRequest{StudentID: "20000001", Password: "secret1"})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	resp := decodeEnvelope(t, res)
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data is not an object: %T", resp.Data)
	}
	if token, _ := data["token"].(string); token == "" {
		t.Fatalf("token is empty")
	}
}

func TestGetListings_Public(t *testing.T) {
	svc := &stubService{
		listings: []model.Listing{{ID: 5, Title: "Bicycle", Price: 120, Status: model.ListingStatusAvailable}},
	}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}
}

func TestMarkInterest_RequiresAuth(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/listings/5/interest", nil)
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestMarkInterest_ListingUnavailableConflict(t *testing.T) {
	svc := &stubService{orderErr: service.ErrListingUnavailable}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/listings/5/interest", nil)
	req.Header.Set("Authorization", "Bearer "+bearerToken(t, h, model.RoleUser))
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}

	resp := decodeEnvelope(t, res)
	if resp.Message != "listing is not available" {
		t.Fatalf("message = %q", resp.Message)
	}
}

func TestUpdateOrderStatus_SellerForbidden(t *testing.T) {
	svc := &stubService{orderErr: service.ErrSellerMayOnlyCancel}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(orderStatusRequest{Status: "COMPLETED"})

	req := httptest.NewRequest(http.MethodPut, "/api/orders/100/status", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+bearerToken(t, h, model.RoleUser))
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusForbidden)
	}

	resp := decodeEnvelope(t, res)
	if resp.Message != "seller may only cancel" {
		t.Fatalf("message = %q", resp.Message)
	}
}

func TestUpdateOrderStatus_NotPendingConflict(t *testing.T) {
	svc := &stubService{orderErr: service.ErrOrderNotPending}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(orderStatusRequest{Status: "CANCELLED"})

	req := httptest.NewRequest(http.MethodPut, "/api/orders/100/status", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+bearerToken(t, h, model.RoleUser))
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}

	resp := decodeEnvelope(t, res)
	if resp.Message != "only pending orders can be updated" {
		t.Fatalf("message = %q", resp.Message)
	}
}

func TestUpdateOrderStatus_ListingConflict(t *testing.T) {
	svc := &stubService{orderErr: repository.ErrListingStatusConflict}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(orderStatusRequest{Status: "COMPLETED"})

	req := httptest.NewRequest(http.MethodPut, "/api/orders/100/status", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+bearerToken(t, h, model.RoleUser))
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}

	resp := decodeEnvelope(t, res)
	if resp.Success {
		t.Fatalf("success = true for a concurrent listing change")
	}
}

func TestInternalErrorHidesDetails(t *testing.T) {
	svc := &stubService{listingsErr: context.DeadlineExceeded}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusInternalServerError)
	}

	resp := decodeEnvelope(t, res)
	if resp.Message != "internal server error" {
		t.Fatalf("message = %q, internal details must be hidden", resp.Message)
	}
}

func TestAdminRoutes_ForbiddenForUser(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/statistics", nil)
	req.Header.Set("Authorization", "Bearer "+bearerToken(t, h, model.RoleUser))
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusForbidden)
	}
}

func TestAdminResetPassword_ReturnsPassword(t *testing.T) {
	svc := &stubService{resetPass: "Xy12Ab34"}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodPut, "/api/admin/users/2/reset-password", nil)
	req.Header.Set("Authorization", "Bearer "+bearerToken(t, h, model.RoleAdmin))
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	resp := decodeEnvelope(t, res)
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data is not an object: %T", resp.Data)
	}
	if data["password"] != "Xy12Ab34" {
		t.Fatalf("password = %v", data["password"])
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	rec := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}

	resp := decodeEnvelope(t, res)
	if resp.Success {
		t.Fatalf("success = true for not found")
	}
}
