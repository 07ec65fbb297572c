package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/mmeshcher/campus-trade/internal/model"
)

// ListingFilter описывает параметры выборки объявлений.
// Нулевые значения полей означают отсутствие соответствующего фильтра.
type ListingFilter struct {
	Keyword  string
	Status   model.ListingStatus
	SellerID int64
	Sort     string
	Limit    int
	Offset   int
}

func priceToCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateListing сохраняет объявление вместе со списком изображений.
func (r *PostgresRepository) CreateListing(ctx context.Context, l *model.Listing) (*model.Listing, error) {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO listings (title, price_cents, description, trade_location, status, seller_id)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, created_at, updated_at`,
			l.Title, priceToCents(l.Price), l.Description, l.TradeLocation, string(l.Status), l.SellerID,
		).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert listing: %w", err)
		}
		return insertListingImages(ctx, tx, l.ID, l.ImagePaths)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

func insertListingImages(ctx context.Context, tx pgx.Tx, listingID int64, paths []string) error {
	for i, p := range paths {
		_, err := tx.Exec(ctx,
			`INSERT INTO listing_images (listing_id, position, image_path) VALUES ($1, $2, $3)`,
			listingID, i, p,
		)
		if err != nil {
			return fmt.Errorf("insert listing image: %w", err)
		}
	}
	return nil
}

const listingColumns = `l.id, l.title, l.price_cents, l.description, l.trade_location, l.status,
	l.seller_id, u.username, l.created_at, l.updated_at`

func scanListing(row pgx.Row) (*model.Listing, error) {
	var l model.Listing
	var cents int64
	var status string
	err := row.Scan(&l.ID, &l.Title, &cents, &l.Description, &l.TradeLocation, &status,
		&l.SellerID, &l.SellerName, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Price = float64(cents) / 100
	l.Status = model.ListingStatus(status)
	return &l, nil
}

// GetListing возвращает объявление с изображениями и именем продавца.
func (r *PostgresRepository) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	l, err := scanListing(r.pool.QueryRow(ctx,
		`SELECT `+listingColumns+`
		 FROM listings l
		 JOIN users u ON u.id = l.seller_id
		 WHERE l.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}

	images, err := r.listingImages(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	l.ImagePaths = images[id]

	return l, nil
}

func (r *PostgresRepository) listingImages(ctx context.Context, ids []int64) (map[int64][]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT listing_id, image_path
		 FROM listing_images
		 WHERE listing_id = ANY($1)
		 ORDER BY listing_id, position`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("select listing images: %w", err)
	}
	defer rows.Close()

	res := make(map[int64][]string)
	for rows.Next() {
		var id int64
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, fmt.Errorf("scan listing image: %w", err)
		}
		res[id] = append(res[id], path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpdateListing обновляет содержимое объявления и заменяет список изображений.
func (r *PostgresRepository) UpdateListing(ctx context.Context, l *model.Listing) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE listings
			 SET title = $2, price_cents = $3, description = $4, trade_location = $5, updated_at = now()
			 WHERE id = $1`,
			l.ID, l.Title, priceToCents(l.Price), l.Description, l.TradeLocation,
		)
		if err != nil {
			return fmt.Errorf("update listing: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrListingNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM listing_images WHERE listing_id = $1`, l.ID); err != nil {
			return fmt.Errorf("delete listing images: %w", err)
		}
		return insertListingImages(ctx, tx, l.ID, l.ImagePaths)
	})
}

// SetListingStatus переводит объявление из expected в next (compare-and-set).
// Возвращает ErrListingStatusConflict, если текущий статус уже не expected.
func (r *PostgresRepository) SetListingStatus(ctx context.Context, id int64, expected, next model.ListingStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE listings SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, string(expected), string(next),
	)
	if err != nil {
		return fmt.Errorf("set listing status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM listings WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check listing exists: %w", err)
		}
		if !exists {
			return ErrListingNotFound
		}
		return ErrListingStatusConflict
	}
	return nil
}

// MarkListingRemoved снимает объявление с публикации независимо от текущего статуса.
func (r *PostgresRepository) MarkListingRemoved(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE listings SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(model.ListingStatusRemoved),
	)
	if err != nil {
		return fmt.Errorf("mark listing removed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrListingNotFound
	}
	return nil
}

// DeleteListing удаляет объявление. Объявление, на которое ссылаются заказы,
// не удаляется физически, а переводится в статус REMOVED.
// Возвращает признак мягкого удаления.
func (r *PostgresRepository) DeleteListing(ctx context.Context, id int64) (bool, error) {
	var soft bool
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var orderCount int64
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM orders WHERE listing_id = $1`, id).Scan(&orderCount); err != nil {
			return fmt.Errorf("count listing orders: %w", err)
		}

		if orderCount > 0 {
			soft = true
			tag, err := tx.Exec(ctx,
				`UPDATE listings SET status = $2, updated_at = now() WHERE id = $1`,
				id, string(model.ListingStatusRemoved),
			)
			if err != nil {
				return fmt.Errorf("soft delete listing: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return ErrListingNotFound
			}
			return nil
		}

		if _, err := tx.Exec(ctx, `DELETE FROM listing_images WHERE listing_id = $1`, id); err != nil {
			return fmt.Errorf("delete listing images: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete listing: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrListingNotFound
		}
		return nil
	})
	return soft, err
}

// ListListings возвращает страницу объявлений по фильтру и общее число подходящих строк.
func (r *PostgresRepository) ListListings(ctx context.Context, f ListingFilter) ([]model.Listing, int64, error) {
	var conds []string
	var args []any

	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("l.status = $%d", len(args)))
	}
	if f.Keyword != "" {
		args = append(args, "%"+f.Keyword+"%")
		conds = append(conds, fmt.Sprintf("l.title ILIKE $%d", len(args)))
	}
	if f.SellerID != 0 {
		args = append(args, f.SellerID)
		conds = append(conds, fmt.Sprintf("l.seller_id = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM listings l `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	orderBy := "l.created_at DESC"
	switch f.Sort {
	case "price_asc":
		orderBy = "l.price_cents ASC"
	case "price_desc":
		orderBy = "l.price_cents DESC"
	}

	query := fmt.Sprintf(`SELECT %s
		 FROM listings l
		 JOIN users u ON u.id = l.seller_id
		 %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		listingColumns, where, orderBy, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select listings: %w", err)
	}
	defer rows.Close()

	var listings []model.Listing
	var ids []int64
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, *l)
		ids = append(ids, l.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	if len(ids) > 0 {
		images, err := r.listingImages(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range listings {
			listings[i].ImagePaths = images[listings[i].ID]
		}
	}

	return listings, total, nil
}

// CountListings возвращает общее число объявлений.
func (r *PostgresRepository) CountListings(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM listings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return n, nil
}
