package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mmeshcher/campus-trade/internal/model"
)

// CreateNotification сохраняет новое уведомление.
func (r *PostgresRepository) CreateNotification(ctx context.Context, n *model.Notification) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO notifications (type, title, body, is_read, receiver_id, listing_id, order_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		string(n.Type), n.Title, n.Body, n.Read, n.ReceiverID, n.ListingID, n.OrderID,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

const notificationColumns = `id, type, title, body, is_read, receiver_id, listing_id, order_id, created_at`

func scanNotification(row pgx.Row) (*model.Notification, error) {
	var n model.Notification
	var typ string
	err := row.Scan(&n.ID, &typ, &n.Title, &n.Body, &n.Read,
		&n.ReceiverID, &n.ListingID, &n.OrderID, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.Type = model.NotificationType(typ)
	return &n, nil
}

// GetNotification возвращает уведомление по идентификатору.
func (r *PostgresRepository) GetNotification(ctx context.Context, id int64) (*model.Notification, error) {
	n, err := scanNotification(r.pool.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// ListNotifications возвращает страницу уведомлений получателя, новые первыми.
// read == nil означает выборку без фильтра по прочитанности.
func (r *PostgresRepository) ListNotifications(ctx context.Context, receiverID int64, read *bool, limit, offset int) ([]model.Notification, int64, error) {
	where := `WHERE receiver_id = $1`
	args := []any{receiverID}
	if read != nil {
		args = append(args, *read)
		where += fmt.Sprintf(" AND is_read = $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM notifications `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM notifications %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		notificationColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	var res []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		res = append(res, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return res, total, nil
}

// MarkNotificationRead помечает уведомление прочитанным.
func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllNotificationsRead помечает прочитанными все уведомления получателя.
func (r *PostgresRepository) MarkAllNotificationsRead(ctx context.Context, receiverID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE receiver_id = $1 AND is_read = FALSE`, receiverID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// CountUnreadNotifications возвращает число непрочитанных уведомлений получателя.
func (r *PostgresRepository) CountUnreadNotifications(ctx context.Context, receiverID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE receiver_id = $1 AND is_read = FALSE`, receiverID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}
