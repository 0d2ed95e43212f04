package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Product represents a row in the 'products' table. Read endpoints return it
// enriched with its ordered image list and a denormalized snapshot of its
// category.
type Product struct {
	ID               uint64         `json:"id"`
	Name             string         `json:"name"`
	Slug             string         `json:"slug"`
	Description      string         `json:"description"`
	ShortDescription *string        `json:"short_description"`
	Price            float64        `json:"price"`
	CompareAtPrice   *float64       `json:"compare_at_price"`
	StockQuantity    int            `json:"stock_quantity"`
	CategoryID       *uint64        `json:"category_id"`
	IsFeatured       bool           `json:"is_featured"`
	IsActive         bool           `json:"is_active"`
	CreatedBy        *uint64        `json:"created_by"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Images           []ProductImage `json:"images"`
	Category         *CategoryRef   `json:"category"`
}

// ProductImage represents a row in the 'product_images' table. The image set
// of a product is always replaced wholesale on update.
type ProductImage struct {
	ID           uint64  `json:"id"`
	ProductID    uint64  `json:"product_id"`
	ImageURL     string  `json:"image_url"`
	AltText      *string `json:"alt_text"`
	IsPrimary    bool    `json:"is_primary"`
	DisplayOrder int     `json:"display_order"`
}

// CategoryRef is the denormalized category snapshot embedded in product
// responses.
type CategoryRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// NewImage is the caller-supplied shape of a product image. Position in the
// slice becomes display_order; the first image is primary unless another one
// is flagged.
type NewImage struct {
	URL       string `json:"url"`
	Alt       string `json:"alt"`
	IsPrimary bool   `json:"is_primary"`
}

// ProductFilter defines filters, sorting and pagination for product listings.
type ProductFilter struct {
	CategoryID      *uint64
	FeaturedOnly    bool
	Search          string
	MinPrice        *float64
	MaxPrice        *float64
	IncludeInactive bool
	Sort            string // newest | price_asc | price_desc | name_asc | name_desc
	Limit           int
	Offset          int
}

// ProductUpdate carries the editable fields of a product. Nil pointers mean
// "leave unchanged". A non-nil Images slice replaces the existing image set
// wholesale; nil leaves it alone.
type ProductUpdate struct {
	Name             *string
	Slug             *string
	Description      *string
	ShortDescription *string
	Price            *float64
	CompareAtPrice   *float64
	StockQuantity    *int
	CategoryID       **uint64
	IsFeatured       *bool
	IsActive         *bool
	Images           []NewImage
}

type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

const productCols = `id, name, slug, description, short_description, price, compare_at_price,
	stock_quantity, category_id, is_featured, is_active, created_by, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.ShortDescription,
		&p.Price, &p.CompareAtPrice, &p.StockQuantity, &p.CategoryID,
		&p.IsFeatured, &p.IsActive, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List returns a filtered, sorted, paginated page of products plus the total
// match count. Each product is enriched with images and category snapshot.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]Product, int64, error) {
	where := []string{}
	args := []any{}

	if !f.IncludeInactive {
		where = append(where, "is_active = 1")
	}
	if f.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.FeaturedOnly {
		where = append(where, "is_featured = 1")
	}
	if f.Search != "" {
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)")
		needle := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, needle, needle)
	}
	if f.MinPrice != nil {
		where = append(where, "price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where = append(where, "price <= ?")
		args = append(args, *f.MaxPrice)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM products WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "created_at DESC, id DESC"
	switch f.Sort {
	case "price_asc":
		order = "price ASC, id DESC"
	case "price_desc":
		order = "price DESC, id DESC"
	case "name_asc":
		order = "name ASC, id DESC"
	case "name_desc":
		order = "name DESC, id DESC"
	}

	q := "SELECT " + productCols + " FROM products WHERE " + cond +
		" ORDER BY " + order + " LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), f.Limit, f.Offset)

	rows, err := r.DB.QueryContext(ctx, q, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Product, 0, f.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range out {
		if err := r.enrich(ctx, &out[i]); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

// GetByID fetches a single enriched product. When includeInactive is false an
// inactive product is reported as not found, exactly as if it did not exist.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64, includeInactive bool) (Product, error) {
	return r.getOne(ctx, "id = ?", id, includeInactive)
}

// GetBySlug fetches a single enriched product by its slug.
func (r *ProductRepo) GetBySlug(ctx context.Context, slug string, includeInactive bool) (Product, error) {
	return r.getOne(ctx, "slug = ?", slug, includeInactive)
}

func (r *ProductRepo) getOne(ctx context.Context, cond string, arg any, includeInactive bool) (Product, error) {
	q := "SELECT " + productCols + " FROM products WHERE " + cond
	if !includeInactive {
		q += " AND is_active = 1"
	}
	q += " LIMIT 1"
	p, err := scanProduct(r.DB.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	if err := r.enrich(ctx, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// enrich loads the ordered image list and the category snapshot for p.
func (r *ProductRepo) enrich(ctx context.Context, p *Product) error {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, product_id, image_url, alt_text, is_primary, display_order
		 FROM product_images WHERE product_id = ? ORDER BY display_order, id`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	p.Images = []ProductImage{}
	for rows.Next() {
		var img ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.ImageURL,
			&img.AltText, &img.IsPrimary, &img.DisplayOrder); err != nil {
			return err
		}
		p.Images = append(p.Images, img)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if p.CategoryID != nil {
		var ref CategoryRef
		err := r.DB.QueryRowContext(ctx,
			"SELECT id, name, slug FROM categories WHERE id = ?", *p.CategoryID).
			Scan(&ref.ID, &ref.Name, &ref.Slug)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// category row vanished; leave the snapshot empty
		case err != nil:
			return err
		default:
			p.Category = &ref
		}
	}
	return nil
}

// Create inserts a product and its images in one transaction and returns the
// enriched row. Duplicate slugs yield ErrConflict; a category_id that does
// not resolve yields ErrNotFound.
func (r *ProductRepo) Create(ctx context.Context, p Product, images []NewImage) (Product, error) {
	if p.CategoryID != nil {
		if err := r.categoryExists(ctx, *p.CategoryID); err != nil {
			return Product{}, err
		}
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Product{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`INSERT INTO products (name, slug, description, short_description, price,
			compare_at_price, stock_quantity, category_id, is_featured, is_active, created_by)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.Name, p.Slug, p.Description, p.ShortDescription, p.Price,
		p.CompareAtPrice, p.StockQuantity, p.CategoryID, p.IsFeatured, p.IsActive, p.CreatedBy)
	if err != nil {
		if isDuplicateKey(err) {
			err = ErrConflict
		}
		return Product{}, err
	}
	var id int64
	if id, err = res.LastInsertId(); err != nil {
		return Product{}, err
	}
	if err = insertImages(ctx, tx, uint64(id), images); err != nil {
		return Product{}, err
	}
	if err = tx.Commit(); err != nil {
		return Product{}, err
	}
	return r.GetByID(ctx, uint64(id), true)
}

// Update applies a partial merge and, when an image set is supplied, replaces
// the existing images in the same transaction so readers never observe a
// half-replaced set. Returns the updated enriched row.
func (r *ProductRepo) Update(ctx context.Context, id uint64, upd ProductUpdate) (Product, error) {
	if _, err := scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productCols+" FROM products WHERE id = ? LIMIT 1", id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}

	set := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []any{}
	if upd.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Slug != nil {
		set = append(set, "slug = ?")
		args = append(args, *upd.Slug)
	}
	if upd.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.ShortDescription != nil {
		set = append(set, "short_description = ?")
		args = append(args, *upd.ShortDescription)
	}
	if upd.Price != nil {
		set = append(set, "price = ?")
		args = append(args, *upd.Price)
	}
	if upd.CompareAtPrice != nil {
		set = append(set, "compare_at_price = ?")
		args = append(args, *upd.CompareAtPrice)
	}
	if upd.StockQuantity != nil {
		set = append(set, "stock_quantity = ?")
		args = append(args, *upd.StockQuantity)
	}
	if upd.CategoryID != nil {
		if *upd.CategoryID == nil {
			set = append(set, "category_id = NULL")
		} else {
			if err := r.categoryExists(ctx, **upd.CategoryID); err != nil {
				return Product{}, err
			}
			set = append(set, "category_id = ?")
			args = append(args, **upd.CategoryID)
		}
	}
	if upd.IsFeatured != nil {
		set = append(set, "is_featured = ?")
		args = append(args, *upd.IsFeatured)
	}
	if upd.IsActive != nil {
		set = append(set, "is_active = ?")
		args = append(args, *upd.IsActive)
	}
	args = append(args, id)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Product{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		"UPDATE products SET "+strings.Join(set, ", ")+" WHERE id = ?", args...); err != nil {
		if isDuplicateKey(err) {
			err = ErrConflict
		}
		return Product{}, err
	}
	if upd.Images != nil {
		if _, err = tx.ExecContext(ctx,
			"DELETE FROM product_images WHERE product_id = ?", id); err != nil {
			return Product{}, err
		}
		if err = insertImages(ctx, tx, id, upd.Images); err != nil {
			return Product{}, err
		}
	}
	if err = tx.Commit(); err != nil {
		return Product{}, err
	}
	return r.GetByID(ctx, id, true)
}

// Delete removes a product and its images in one transaction.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM product_images WHERE product_id = ?", id); err != nil {
		return err
	}
	var res sql.Result
	if res, err = tx.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id); err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

func (r *ProductRepo) categoryExists(ctx context.Context, id uint64) error {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM categories WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// insertImages writes the supplied image set for a product. Position becomes
// display_order; when no image is flagged primary the first one is.
func insertImages(ctx context.Context, tx *sql.Tx, productID uint64, images []NewImage) error {
	hasPrimary := false
	for _, img := range images {
		if img.IsPrimary {
			hasPrimary = true
			break
		}
	}
	for i, img := range images {
		primary := img.IsPrimary
		if !hasPrimary && i == 0 {
			primary = true
		}
		alt := img.Alt
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_images (product_id, image_url, alt_text, is_primary, display_order)
			 VALUES (?,?,?,?,?)`,
			productID, img.URL, alt, primary, i); err != nil {
			return err
		}
	}
	return nil
}
