package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/campus-trade/internal/model"
	"github.com/mmeshcher/campus-trade/internal/repository"
)

// ListingInput содержит данные создания или обновления объявления.
type ListingInput struct {
	Title         string
	Price         float64
	Description   string
	TradeLocation string
	ImagePaths    []string
}

func validateListingInput(in ListingInput) error {
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	return nil
}

// CreateListing публикует новое объявление от имени текущего пользователя.
func (s *Service) CreateListing(ctx context.Context, studentID string, in ListingInput) (*model.Listing, error) {
	if err := validateListingInput(in); err != nil {
		return nil, err
	}

	seller, err := s.repo.GetUserByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	l := &model.Listing{
		Title:         in.Title,
		Price:         in.Price,
		Description:   in.Description,
		TradeLocation: in.TradeLocation,
		ImagePaths:    in.ImagePaths,
		Status:        model.ListingStatusAvailable,
		SellerID:      seller.ID,
		SellerName:    seller.Username,
	}

	return s.repo.CreateListing(ctx, l)
}

// GetListing возвращает объявление по идентификатору.
func (s *Service) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	return s.repo.GetListing(ctx, id)
}

// UpdateListing обновляет объявление. Менять объявление может только его продавец.
func (s *Service) UpdateListing(ctx context.Context, studentID string, id int64, in ListingInput) (*model.Listing, error) {
	if err := validateListingInput(in); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	listing, err := s.repo.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}

	if listing.SellerID != user.ID {
		return nil, ErrListingAccessDenied
	}

	listing.Title = in.Title
	listing.Price = in.Price
	listing.Description = in.Description
	listing.TradeLocation = in.TradeLocation
	listing.ImagePaths = in.ImagePaths

	if err := s.repo.UpdateListing(ctx, listing); err != nil {
		return nil, err
	}

	return listing, nil
}

// DeleteListing удаляет объявление продавца или администратора.
// Объявление с заказами не удаляется физически, а переводится в REMOVED.
func (s *Service) DeleteListing(ctx context.Context, studentID string, id int64) error {
	user, err := s.repo.GetUserByStudentID(ctx, studentID)
	if err != nil {
		return err
	}

	listing, err := s.repo.GetListing(ctx, id)
	if err != nil {
		return err
	}

	if listing.SellerID != user.ID && user.Role != model.RoleAdmin {
		return ErrListingAccessDenied
	}

	_, err = s.repo.DeleteListing(ctx, id)
	return err
}

// ListListings возвращает страницу публичного каталога объявлений.
// Пустой или нераспознанный statusFilter сводится к AVAILABLE.
func (s *Service) ListListings(ctx context.Context, keyword, statusFilter, sort string, page, size int) ([]model.Listing, int64, error) {
	status := model.ListingStatusAvailable
	if statusFilter != "" {
		if st, err := model.ParseListingStatus(statusFilter); err == nil {
			status = st
		} else {
			s.logger.Warn("unknown listing status filter", zap.String("status", statusFilter))
		}
	}

	limit, offset := pageBounds(page, size)
	return s.repo.ListListings(ctx, repository.ListingFilter{
		Keyword: keyword,
		Status:  status,
		Sort:    sort,
		Limit:   limit,
		Offset:  offset,
	})
}

// ListMyListings возвращает страницу объявлений текущего пользователя.
// Нераспознанный statusFilter игнорируется.
func (s *Service) ListMyListings(ctx context.Context, studentID, statusFilter string, page, size int) ([]model.Listing, int64, error) {
	seller, err := s.repo.GetUserByStudentID(ctx, studentID)
	if err != nil {
		return nil, 0, err
	}

	f := repository.ListingFilter{SellerID: seller.ID}
	if statusFilter != "" {
		if st, err := model.ParseListingStatus(statusFilter); err == nil {
			f.Status = st
		}
	}

	f.Limit, f.Offset = pageBounds(page, size)
	return s.repo.ListListings(ctx, f)
}
