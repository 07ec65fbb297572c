package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mmeshcher/campus-trade/internal/model"
)

// OrderFilter описывает параметры выборки заказов пользователя.
type OrderFilter struct {
	UserID int64
	// Role принимает значения "buy", "sell" или пустую строку (обе стороны).
	Role   string
	Status model.OrderStatus
	Limit  int
	Offset int
}

const orderColumns = `o.id, o.listing_id, l.title, o.buyer_id, b.username,
	o.seller_id, s.username, o.status, o.created_at, o.updated_at`

const orderJoins = `FROM orders o
	JOIN listings l ON l.id = o.listing_id
	JOIN users b ON b.id = o.buyer_id
	JOIN users s ON s.id = o.seller_id`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	var status string
	err := row.Scan(&o.ID, &o.ListingID, &o.ListingTitle, &o.BuyerID, &o.BuyerName,
		&o.SellerID, &o.SellerName, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	return &o, nil
}

// CreateOrder создаёт заказ в статусе PENDING. Продавец денормализуется
// из объявления в момент создания.
func (r *PostgresRepository) CreateOrder(ctx context.Context, listingID, buyerID, sellerID int64) (*model.Order, error) {
	o := &model.Order{
		ListingID: listingID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Status:    model.OrderStatusPending,
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO orders (listing_id, buyer_id, seller_id, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		listingID, buyerID, sellerID, string(o.Status),
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

// GetOrder возвращает заказ с заголовком объявления и именами сторон.
func (r *PostgresRepository) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` `+orderJoins+` WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// UpdateOrderStatus переводит заказ из PENDING в next и возвращает время
// изменения, записанное в строку. При markListingSold в той же транзакции
// объявление переводится из AVAILABLE в SOLD; неудавшийся compare-and-set
// откатывает обе записи.
// Параллельный вызов по тому же заказу наблюдает уже не-PENDING строку
// и получает ErrOrderNotPending.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, orderID int64, next model.OrderStatus, markListingSold bool) (time.Time, error) {
	var updatedAt time.Time
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE orders SET status = $2, updated_at = now()
			 WHERE id = $1 AND status = $3
			 RETURNING updated_at`,
			orderID, string(next), string(model.OrderStatusPending),
		).Scan(&updatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotPending
			}
			return fmt.Errorf("update order status: %w", err)
		}

		if !markListingSold {
			return nil
		}

		tag, err := tx.Exec(ctx,
			`UPDATE listings SET status = $2, updated_at = now()
			 WHERE id = (SELECT listing_id FROM orders WHERE id = $1) AND status = $3`,
			orderID, string(model.ListingStatusSold), string(model.ListingStatusAvailable),
		)
		if err != nil {
			return fmt.Errorf("mark listing sold: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrListingStatusConflict
		}
		return nil
	})
	return updatedAt, err
}

// ListOrders возвращает страницу заказов пользователя и общее число подходящих строк.
// Сортировка — по времени создания, новые первыми.
func (r *PostgresRepository) ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, int64, error) {
	args := []any{f.UserID}

	var where string
	switch f.Role {
	case "buy":
		where = `WHERE o.buyer_id = $1`
	case "sell":
		where = `WHERE o.seller_id = $1`
	default:
		where = `WHERE (o.buyer_id = $1 OR o.seller_id = $1)`
	}

	if f.Status != "" {
		args = append(args, string(f.Status))
		where += fmt.Sprintf(" AND o.status = $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) `+orderJoins+` `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s %s %s ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, orderJoins, where, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return orders, total, nil
}

// CountOrders возвращает общее число заказов.
func (r *PostgresRepository) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}
