// Package service реализует бизнес-логику кампусной торговой площадки.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/campus-trade/internal/model"
	"github.com/mmeshcher/campus-trade/internal/repository"
	"github.com/mmeshcher/campus-trade/internal/validation"
)

// Ошибки бизнес-логики. Текст ошибок показывается клиенту как есть,
// поэтому он не должен содержать внутренних деталей.
var (
	ErrInvalidCredentials           = errors.New("invalid credentials")
	ErrAccountDisabled              = errors.New("account is disabled")
	ErrWrongPassword                = errors.New("old password is incorrect")
	ErrInvalidInput                 = errors.New("invalid input")
	ErrInvalidOrderStatus           = errors.New("invalid order status")
	ErrOrderAccessDenied            = errors.New("no access to this order")
	ErrSellerMayOnlyCancel          = errors.New("seller may only cancel")
	ErrBuyerMayOnlyCancelOrComplete = errors.New("buyer may only cancel or complete")
	ErrOrderNotPending              = errors.New("only pending orders can be updated")
	ErrListingUnavailable           = errors.New("listing is not available")
	ErrOwnListingInterest           = errors.New("cannot mark interest in your own listing")
	ErrListingAccessDenied          = errors.New("no access to this listing")
	ErrNotificationAccessDenied     = errors.New("no access to this notification")
	ErrAdminAccount                 = errors.New("admin account cannot be modified")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, u *model.User) (int64, error)
	GetUserByStudentID(ctx context.Context, studentID string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateUserProfile(ctx context.Context, id int64, nickname, contactInfo *string) error
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	SetUserEnabled(ctx context.Context, id int64, enabled bool) error
	ListUsers(ctx context.Context, keyword string, limit, offset int) ([]model.User, int64, error)
	CountUsers(ctx context.Context) (int64, error)

	CreateListing(ctx context.Context, l *model.Listing) (*model.Listing, error)
	GetListing(ctx context.Context, id int64) (*model.Listing, error)
	UpdateListing(ctx context.Context, l *model.Listing) error
	MarkListingRemoved(ctx context.Context, id int64) error
	DeleteListing(ctx context.Context, id int64) (bool, error)
	ListListings(ctx context.Context, f repository.ListingFilter) ([]model.Listing, int64, error)
	CountListings(ctx context.Context) (int64, error)

	CreateOrder(ctx context.Context, listingID, buyerID, sellerID int64) (*model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, next model.OrderStatus, markListingSold bool) (time.Time, error)
	ListOrders(ctx context.Context, f repository.OrderFilter) ([]model.Order, int64, error)
	CountOrders(ctx context.Context) (int64, error)

	CreateNotification(ctx context.Context, n *model.Notification) error
	GetNotification(ctx context.Context, id int64) (*model.Notification, error)
	ListNotifications(ctx context.Context, receiverID int64, read *bool, limit, offset int) ([]model.Notification, int64, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context, receiverID int64) error
	CountUnreadNotifications(ctx context.Context, receiverID int64) (int64, error)
}

// Dispatcher описывает контракт асинхронной доставки уведомлений.
type Dispatcher interface {
	Dispatch(n model.Notification)
}

// Service содержит бизнес-логику площадки.
type Service struct {
	repo       Repository
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewService создаёт сервис с указанным репозиторием и диспетчером уведомлений.
func NewService(repo Repository, dispatcher Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

func pageBounds(page, size int) (limit, offset int) {
	if size <= 0 || size > 100 {
		size = 10
	}
	if page < 0 {
		page = 0
	}
	return size, page * size
}

// RegisterInput содержит данные регистрации нового пользователя.
type RegisterInput struct {
	StudentID   string
	Username    string
	Password    string
	Nickname    string
	ContactInfo string
}

// RegisterUser регистрирует нового пользователя с ролью USER.
func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) (*model.User, error) {
	if !validation.IsValidStudentID(in.StudentID) {
		return nil, fmt.Errorf("%w: student id must be 5-20 digits", ErrInvalidInput)
	}
	if in.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		StudentID:    in.StudentID,
		Username:     in.Username,
		PasswordHash: string(hash),
		Nickname:     in.Nickname,
		ContactInfo:  in.ContactInfo,
		Enabled:      true,
		Role:         model.RoleUser,
	}

	id, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		return nil, err
	}
	u.ID = id

	return u, nil
}

// AuthenticateUser проверяет учётные данные и возвращает пользователя.
func (s *Service) AuthenticateUser(ctx context.Context, studentID, password string) (*model.User, error) {
	u, err := s.repo.GetUserByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !u.Enabled {
		return nil, ErrAccountDisabled
	}

	return u, nil
}

// GetProfile возвращает профиль пользователя по студенческому номеру.
func (s *Service) GetProfile(ctx context.Context, studentID string) (*model.User, error) {
	return s.repo.GetUserByStudentID(ctx, studentID)
}

// UpdateProfile обновляет переданные поля профиля текущего пользователя.
func (s *Service) UpdateProfile(ctx context.Context, studentID string, nickname, contactInfo *string) (*model.User, error) {
	u, err := s.repo.GetUserByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateUserProfile(ctx, u.ID, nickname, contactInfo); err != nil {
		return nil, err
	}

	return s.repo.GetUserByID(ctx, u.ID)
}

// ChangePassword меняет пароль пользователя после проверки старого.
func (s *Service) ChangePassword(ctx context.Context, studentID, oldPassword, newPassword string) error {
	u, err := s.repo.GetUserByStudentID(ctx, studentID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}

	if !validation.IsValidPassword(newPassword) {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.repo.UpdateUserPassword(ctx, u.ID, string(hash))
}

// EnsureAdminUser создаёт административную учётную запись, если её ещё нет.
func (s *Service) EnsureAdminUser(ctx context.Context, studentID, password string) error {
	_, err := s.repo.GetUserByStudentID(ctx, studentID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.repo.CreateUser(ctx, &model.User{
		StudentID:    studentID,
		Username:     "admin",
		PasswordHash: string(hash),
		Enabled:      true,
		Role:         model.RoleAdmin,
	})
	return err
}

const passwordCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func generateRandomPassword(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	for i := range buf {
		buf[i] = passwordCharset[int(buf[i])%len(passwordCharset)]
	}
	return string(buf), nil
}
