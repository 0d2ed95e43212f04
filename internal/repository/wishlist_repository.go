package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// WishlistItem links a user to a product they saved. The (user_id,
// product_id) pair is unique at the store level. Product carries the current
// snapshot of the referenced product; it is nil when the product has since
// been deleted.
type WishlistItem struct {
	ID        uint64    `json:"id"`
	ProductID uint64    `json:"product_id"`
	Product   *Product  `json:"product"`
	AddedAt   time.Time `json:"added_at"`
}

type WishlistRepo struct {
	DB       *sql.DB
	Products *ProductRepo
}

func NewWishlistRepo(db *sql.DB, products *ProductRepo) *WishlistRepo {
	return &WishlistRepo{DB: db, Products: products}
}

// ListByUser returns the caller's wishlist, newest first, with each item
// enriched by the referenced product's current snapshot or nil for a product
// that no longer exists.
func (r *WishlistRepo) ListByUser(ctx context.Context, userID uint64) ([]WishlistItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, product_id, added_at FROM wishlist_items
		 WHERE user_id = ? ORDER BY added_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []WishlistItem{}
	for rows.Next() {
		var it WishlistItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		p, err := r.Products.GetByID(ctx, out[i].ProductID, true)
		switch {
		case errors.Is(err, ErrNotFound):
			// product vanished since it was saved; keep the item with a nil product
		case err != nil:
			return nil, err
		default:
			out[i].Product = &p
		}
	}
	return out, nil
}

// Add saves a product to the user's wishlist. A duplicate pair yields
// ErrConflict; a product id that does not resolve yields ErrNotFound.
func (r *WishlistRepo) Add(ctx context.Context, userID, productID uint64) (WishlistItem, error) {
	if _, err := r.Products.GetByID(ctx, productID, true); err != nil {
		return WishlistItem{}, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO wishlist_items (user_id, product_id) VALUES (?,?)", userID, productID)
	if err != nil {
		if isDuplicateKey(err) {
			return WishlistItem{}, ErrConflict
		}
		return WishlistItem{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return WishlistItem{}, err
	}

	var it WishlistItem
	if err := r.DB.QueryRowContext(ctx,
		"SELECT id, product_id, added_at FROM wishlist_items WHERE id = ?", id).
		Scan(&it.ID, &it.ProductID, &it.AddedAt); err != nil {
		return WishlistItem{}, err
	}
	return it, nil
}

// Remove deletes the (user, product) pair. Returns ErrNotFound when the pair
// was not present, so a second identical call reports not found.
func (r *WishlistRepo) Remove(ctx context.Context, userID, productID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM wishlist_items WHERE user_id = ? AND product_id = ?", userID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
