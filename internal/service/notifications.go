package service

import (
	"context"

	"github.com/mmeshcher/campus-trade/internal/model"
)

// ListNotifications возвращает страницу уведомлений текущего пользователя.
// read == nil означает выборку и прочитанных, и непрочитанных.
func (s *Service) ListNotifications(ctx context.Context, studentID string, read *bool, page, size int) ([]model.Notification, int64, error) {
	user, err := s.repo.GetUserByStudentID(ctx, studentID)
	if err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(page, size)
	return s.repo.ListNotifications(ctx, user.ID, read, limit, offset)
}

// GetNotification возвращает уведомление. Доступ имеет только получатель.
func (s *Service) GetNotification(ctx context.Context, studentID string, id int64) (*model.Notification, error) {
	user, err := s.repo.GetUserByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	n, err := s.repo.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}

	if n.ReceiverID != user.ID {
		return nil, ErrNotificationAccessDenied
	}

	return n, nil
}

// MarkNotificationRead помечает уведомление прочитанным.
func (s *Service) MarkNotificationRead(ctx context.Context, studentID string, id int64) (*model.Notification, error) {
	n, err := s.GetNotification(ctx, studentID, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkNotificationRead(ctx, n.ID); err != nil {
		return nil, err
	}

	n.Read = true
	return n, nil
}

// MarkAllNotificationsRead помечает прочитанными все уведомления пользователя.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, studentID string) error {
	user, err := s.repo.GetUserByStudentID(ctx, studentID)
	if err != nil {
		return err
	}

	return s.repo.MarkAllNotificationsRead(ctx, user.ID)
}

// UnreadNotificationCount возвращает число непрочитанных уведомлений пользователя.
func (s *Service) UnreadNotificationCount(ctx context.Context, studentID string) (int64, error) {
	user, err := s.repo.GetUserByStudentID(ctx, studentID)
	if err != nil {
		return 0, err
	}

	return s.repo.CountUnreadNotifications(ctx, user.ID)
}
