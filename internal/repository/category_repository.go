package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Category represents a row in the 'categories' table. Categories form an
// optional tree via ParentID and are referenced by products. Inactive
// categories are hidden from non-staff listings.
type Category struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  *string   `json:"description"`
	ParentID     *uint64   `json:"parent_id"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CategoryUpdate carries the editable fields of a category. A nil outer
// pointer means "leave unchanged"; for ParentID the inner pointer
// distinguishes clearing the parent (set, nil value) from assigning one.
type CategoryUpdate struct {
	Name         *string
	Slug         *string
	Description  *string
	ParentID     **uint64
	DisplayOrder *int
	IsActive     *bool
}

type CategoryRepo struct{ DB *sql.DB }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{DB: db} }

const categoryCols = "id, name, slug, description, parent_id, display_order, is_active, created_at, updated_at"

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ParentID,
		&c.DisplayOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// List returns categories ordered by display_order then name. When
// includeInactive is false (non-staff callers) rows with is_active = 0 are
// filtered out.
func (r *CategoryRepo) List(ctx context.Context, includeInactive bool) ([]Category, error) {
	q := "SELECT " + categoryCols + " FROM categories"
	if !includeInactive {
		q += " WHERE is_active = 1"
	}
	q += " ORDER BY display_order, name"

	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID fetches a category by id regardless of its active flag.
func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (Category, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+categoryCols+" FROM categories WHERE id=? LIMIT 1", id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	return c, err
}

// Create inserts a category. A duplicate slug yields ErrConflict; a parent_id
// that does not resolve yields ErrNotFound.
func (r *CategoryRepo) Create(ctx context.Context, c Category) (Category, error) {
	if c.ParentID != nil {
		if _, err := r.GetByID(ctx, *c.ParentID); err != nil {
			return Category{}, err
		}
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO categories (name, slug, description, parent_id, display_order, is_active)
		 VALUES (?,?,?,?,?,?)`,
		c.Name, c.Slug, c.Description, c.ParentID, c.DisplayOrder, c.IsActive)
	if err != nil {
		if isDuplicateKey(err) {
			return Category{}, ErrConflict
		}
		return Category{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Category{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// Update applies a partial merge and refreshes updated_at, returning the
// updated row.
func (r *CategoryRepo) Update(ctx context.Context, id uint64, upd CategoryUpdate) (Category, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return Category{}, err
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
	if upd.ParentID != nil {
		if *upd.ParentID == nil {
			set = append(set, "parent_id = NULL")
		} else {
			if _, err := r.GetByID(ctx, **upd.ParentID); err != nil {
				return Category{}, err
			}
			set = append(set, "parent_id = ?")
			args = append(args, **upd.ParentID)
		}
	}
	if upd.DisplayOrder != nil {
		set = append(set, "display_order = ?")
		args = append(args, *upd.DisplayOrder)
	}
	if upd.IsActive != nil {
		set = append(set, "is_active = ?")
		args = append(args, *upd.IsActive)
	}
	args = append(args, id)

	if _, err := r.DB.ExecContext(ctx,
		"UPDATE categories SET "+strings.Join(set, ", ")+" WHERE id = ?", args...); err != nil {
		if isDuplicateKey(err) {
			return Category{}, ErrConflict
		}
		return Category{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a category. Products referencing it fall back to a NULL
// category via the schema's ON DELETE SET NULL.
func (r *CategoryRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
