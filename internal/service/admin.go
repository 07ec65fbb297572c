package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/campus-trade/internal/model"
	"github.com/mmeshcher/campus-trade/internal/repository"
)

// ListUsers возвращает страницу пользователей с поиском по номеру, имени и никнейму.
func (s *Service) ListUsers(ctx context.Context, keyword string, page, size int) ([]model.User, int64, error) {
	limit, offset := pageBounds(page, size)
	return s.repo.ListUsers(ctx, keyword, limit, offset)
}

// SetUserEnabled включает или отключает учётную запись.
// Отключение административной учётной записи запрещено.
func (s *Service) SetUserEnabled(ctx context.Context, userID int64, enabled bool) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Role == model.RoleAdmin && !enabled {
		return nil, ErrAdminAccount
	}

	if err := s.repo.SetUserEnabled(ctx, userID, enabled); err != nil {
		return nil, err
	}

	user.Enabled = enabled
	return user, nil
}

// ResetUserPassword сбрасывает пароль пользователя и возвращает новый.
// Пароль административной учётной записи не сбрасывается.
func (s *Service) ResetUserPassword(ctx context.Context, userID int64) (string, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if user.Role == model.RoleAdmin {
		return "", ErrAdminAccount
	}

	password, err := generateRandomPassword(8)
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdateUserPassword(ctx, userID, string(hash)); err != nil {
		return "", err
	}

	return password, nil
}

// AdminListListings возвращает страницу объявлений без ограничения по статусу.
// Нераспознанный statusFilter игнорируется.
func (s *Service) AdminListListings(ctx context.Context, keyword, statusFilter string, page, size int) ([]model.Listing, int64, error) {
	f := repository.ListingFilter{Keyword: keyword}
	if statusFilter != "" {
		if st, err := model.ParseListingStatus(statusFilter); err == nil {
			f.Status = st
		}
	}

	f.Limit, f.Offset = pageBounds(page, size)
	return s.repo.ListListings(ctx, f)
}

// AdminRemoveListing снимает объявление с публикации и уведомляет продавца.
func (s *Service) AdminRemoveListing(ctx context.Context, listingID int64) error {
	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return err
	}

	if err := s.repo.MarkListingRemoved(ctx, listingID); err != nil {
		return err
	}

	s.dispatcher.Dispatch(model.Notification{
		Type:       model.NotificationSystem,
		Title:      "Listing removed by administrator",
		Body:       fmt.Sprintf("Your listing %q was removed by an administrator for violating platform rules.", listing.Title),
		ReceiverID: listing.SellerID,
		ListingID:  &listing.ID,
	})

	return nil
}

// Statistics возвращает сводные показатели площадки.
func (s *Service) Statistics(ctx context.Context) (*model.Statistics, error) {
	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	listings, err := s.repo.CountListings(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.CountOrders(ctx)
	if err != nil {
		return nil, err
	}

	return &model.Statistics{
		Users:    users,
		Listings: listings,
		Orders:   orders,
	}, nil
}
