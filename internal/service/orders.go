package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmeshcher/campus-trade/internal/model"
	"github.com/mmeshcher/campus-trade/internal/repository"
)

// MarkInterest создаёт заказ в статусе PENDING по интересу покупателя
// к объявлению. Статус объявления не меняется: объявление становится
// SOLD только при завершении заказа. Продавцу ставится в очередь
// уведомление LISTING_INTEREST после фиксации заказа.
func (s *Service) MarkInterest(ctx context.Context, studentID string, listingID int64) (*model.Order, error) {
	user, err := s.repo.GetUserByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if listing.Status != model.ListingStatusAvailable {
		return nil, ErrListingUnavailable
	}
	if listing.SellerID == user.ID {
		return nil, ErrOwnListingInterest
	}

	order, err := s.repo.CreateOrder(ctx, listing.ID, user.ID, listing.SellerID)
	if err != nil {
		return nil, err
	}

	order.ListingTitle = listing.Title
	order.BuyerName = user.Username
	order.SellerName = listing.SellerName

	s.dispatcher.Dispatch(model.Notification{
		Type:       model.NotificationListingInterest,
		Title:      "Someone is interested in your listing",
		Body:       fmt.Sprintf("User %s is interested in your listing %q, please get in touch.", user.Username, listing.Title),
		ReceiverID: listing.SellerID,
		ListingID:  &listing.ID,
		OrderID:    &order.ID,
	})

	return order, nil
}

// UpdateOrderStatus переводит заказ из PENDING в COMPLETED или CANCELLED.
//
// Разрешённые переходы: покупатель может завершить или отменить заказ,
// продавец — только отменить. Завершение заказа в той же транзакции
// переводит объявление в SOLD. Контрагенту инициатора ставится в очередь
// уведомление ORDER_STATUS_CHANGE после коммита.
func (s *Service) UpdateOrderStatus(ctx context.Context, studentID string, orderID int64, statusToken string) (*model.Order, error) {
	user, err := s.repo.GetUserByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	isBuyer := order.BuyerID == user.ID
	isSeller := order.SellerID == user.ID
	if !isBuyer && !isSeller {
		return nil, ErrOrderAccessDenied
	}

	next, err := model.ParseOrderStatus(statusToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrderStatus, statusToken)
	}

	// Вся валидация выполняется до записи: отклонённый переход
	// не оставляет частичных изменений.
	if order.Status != model.OrderStatusPending {
		return nil, ErrOrderNotPending
	}
	if isBuyer && next != model.OrderStatusCancelled && next != model.OrderStatusCompleted {
		return nil, ErrBuyerMayOnlyCancelOrComplete
	}
	if isSeller && next != model.OrderStatusCancelled {
		return nil, ErrSellerMayOnlyCancel
	}

	markListingSold := next == model.OrderStatusCompleted
	updatedAt, err := s.repo.UpdateOrderStatus(ctx, orderID, next, markListingSold)
	if err != nil {
		// Проигравший гонку видит уже не-PENDING заказ.
		if errors.Is(err, repository.ErrOrderNotPending) {
			return nil, ErrOrderNotPending
		}
		return nil, err
	}

	order.Status = next
	order.UpdatedAt = updatedAt

	statusLabel := "cancelled"
	if next == model.OrderStatusCompleted {
		statusLabel = "completed"
	}

	counterpartyID := order.SellerID
	if isSeller {
		counterpartyID = order.BuyerID
	}

	s.dispatcher.Dispatch(model.Notification{
		Type:       model.NotificationOrderStatusChange,
		Title:      "Order status changed",
		Body:       fmt.Sprintf("Your order #%d (%s) is now %s.", order.ID, order.ListingTitle, statusLabel),
		ReceiverID: counterpartyID,
		ListingID:  &order.ListingID,
		OrderID:    &order.ID,
	})

	return order, nil
}

// GetOrder возвращает заказ. Доступ имеют только его покупатель и продавец.
func (s *Service) GetOrder(ctx context.Context, studentID string, orderID int64) (*model.Order, error) {
	user, err := s.repo.GetUserByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.BuyerID != user.ID && order.SellerID != user.ID {
		return nil, ErrOrderAccessDenied
	}

	return order, nil
}

// ListOrders возвращает страницу заказов пользователя.
// roleFilter: "buy" — покупки, "sell" — продажи, иначе обе стороны.
// Нераспознанный statusFilter игнорируется и выборка идёт без фильтра.
func (s *Service) ListOrders(ctx context.Context, studentID, roleFilter, statusFilter string, page, size int) ([]model.Order, int64, error) {
	user, err := s.repo.GetUserByStudentID(ctx, studentID)
	if err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(page, size)
	f := repository.OrderFilter{
		UserID: user.ID,
		Limit:  limit,
		Offset: offset,
	}

	switch strings.ToLower(roleFilter) {
	case "buy":
		f.Role = "buy"
	case "sell":
		f.Role = "sell"
	}

	if statusFilter != "" {
		if st, err := model.ParseOrderStatus(statusFilter); err == nil {
			f.Status = st
		}
	}

	return s.repo.ListOrders(ctx, f)
}
