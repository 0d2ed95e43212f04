package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/velstore/storefront-api/internal/auth"
	"github.com/velstore/storefront-api/internal/middleware"
	"github.com/velstore/storefront-api/internal/queue"
	"github.com/velstore/storefront-api/internal/repository"
)

// newTestCtx builds an Echo context for a handler invocation. body may be nil
// or any JSON-marshalable value.
func newTestCtx(t *testing.T, method, target string, body any) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(bs)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	return c, rec
}

// asCaller injects an authenticated identity the way the auth middleware does.
func asCaller(c echo.Context, id uint64, role auth.Role) {
	c.Set(middleware.CtxUserID, id)
	c.Set(middleware.CtxEmail, "caller@example.com")
	c.Set(middleware.CtxRole, role)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func u64Ptr(v uint64) *uint64 { return &v }

// ----- fakes -----

// fakeEvents records published catalog events.
type fakeEvents struct {
	published []queue.CatalogEvent
}

func (f *fakeEvents) Publish(_ context.Context, ev queue.CatalogEvent) error {
	f.published = append(f.published, ev)
	return nil
}

// fakeUsers is an in-memory UserStore and AdminUserStore.
type fakeUsers struct {
	nextID uint64
	byID   map[uint64]repository.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uint64]repository.User{}}
}

func (f *fakeUsers) Create(_ context.Context, email, passwordHash string, fullName, phone *string) (repository.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return repository.User{}, repository.ErrConflict
		}
	}
	f.nextID++
	u := repository.User{
		ID:           f.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Phone:        phone,
		Role:         auth.RoleCustomer,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (repository.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (repository.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) TouchLastSignIn(_ context.Context, id uint64) error {
	if u, ok := f.byID[id]; ok {
		now := time.Now().UTC()
		u.LastSignInAt = &now
		f.byID[id] = u
	}
	return nil
}

func (f *fakeUsers) List(_ context.Context) ([]repository.User, error) {
	out := make([]repository.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID }) // newest first
	return out, nil
}

func (f *fakeUsers) Update(_ context.Context, id uint64, upd repository.UserUpdate) (repository.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	if upd.FullName != nil {
		u.FullName = upd.FullName
	}
	if upd.Phone != nil {
		u.Phone = upd.Phone
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	f.byID[id] = u
	return u, nil
}

func (f *fakeUsers) Delete(_ context.Context, id uint64) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeProducts is an in-memory ProductStore.
type fakeProducts struct {
	nextID uint64
	byID   map[uint64]repository.Product
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{byID: map[uint64]repository.Product{}}
}

func (f *fakeProducts) slugTaken(slug string, except uint64) bool {
	for _, p := range f.byID {
		if p.Slug == slug && p.ID != except {
			return true
		}
	}
	return false
}

func (f *fakeProducts) List(_ context.Context, flt repository.ProductFilter) ([]repository.Product, int64, error) {
	var all []repository.Product
	for _, p := range f.byID {
		if !flt.IncludeInactive && !p.IsActive {
			continue
		}
		if flt.FeaturedOnly && !p.IsFeatured {
			continue
		}
		if flt.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *flt.CategoryID) {
			continue
		}
		if flt.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(flt.Search)) {
			continue
		}
		if flt.MinPrice != nil && p.Price < *flt.MinPrice {
			continue
		}
		if flt.MaxPrice != nil && p.Price > *flt.MaxPrice {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if flt.Offset >= len(all) {
		return []repository.Product{}, total, nil
	}
	all = all[flt.Offset:]
	if flt.Limit > 0 && len(all) > flt.Limit {
		all = all[:flt.Limit]
	}
	return all, total, nil
}

func (f *fakeProducts) GetByID(_ context.Context, id uint64, includeInactive bool) (repository.Product, error) {
	p, ok := f.byID[id]
	if !ok || (!includeInactive && !p.IsActive) {
		return repository.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) GetBySlug(_ context.Context, slug string, includeInactive bool) (repository.Product, error) {
	for _, p := range f.byID {
		if p.Slug == slug {
			if !includeInactive && !p.IsActive {
				return repository.Product{}, repository.ErrNotFound
			}
			return p, nil
		}
	}
	return repository.Product{}, repository.ErrNotFound
}

// materialize mirrors how the store assigns display order and the primary
// flag: slice position becomes display_order, first image is primary unless
// another one is flagged.
func materialize(productID uint64, images []repository.NewImage) []repository.ProductImage {
	out := []repository.ProductImage{}
	anyPrimary := false
	for _, img := range images {
		if img.IsPrimary {
			anyPrimary = true
		}
	}
	for i, img := range images {
		pi := repository.ProductImage{
			ID:           uint64(i + 1),
			ProductID:    productID,
			ImageURL:     img.URL,
			IsPrimary:    img.IsPrimary || (!anyPrimary && i == 0),
			DisplayOrder: i,
		}
		if img.Alt != "" {
			alt := img.Alt
			pi.AltText = &alt
		}
		out = append(out, pi)
	}
	return out
}

func (f *fakeProducts) Create(_ context.Context, p repository.Product, images []repository.NewImage) (repository.Product, error) {
	if f.slugTaken(p.Slug, 0) {
		return repository.Product{}, repository.ErrConflict
	}
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	p.Images = materialize(p.ID, images)
	f.byID[p.ID] = p
	return p, nil
}

func (f *fakeProducts) Update(_ context.Context, id uint64, upd repository.ProductUpdate) (repository.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return repository.Product{}, repository.ErrNotFound
	}
	if upd.Slug != nil && f.slugTaken(*upd.Slug, id) {
		return repository.Product{}, repository.ErrConflict
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Slug != nil {
		p.Slug = *upd.Slug
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.ShortDescription != nil {
		p.ShortDescription = upd.ShortDescription
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.CompareAtPrice != nil {
		p.CompareAtPrice = upd.CompareAtPrice
	}
	if upd.StockQuantity != nil {
		p.StockQuantity = *upd.StockQuantity
	}
	if upd.CategoryID != nil {
		p.CategoryID = *upd.CategoryID
	}
	if upd.IsFeatured != nil {
		p.IsFeatured = *upd.IsFeatured
	}
	if upd.IsActive != nil {
		p.IsActive = *upd.IsActive
	}
	if upd.Images != nil {
		p.Images = materialize(id, upd.Images)
	}
	f.byID[id] = p
	return p, nil
}

func (f *fakeProducts) Delete(_ context.Context, id uint64) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeCategories is an in-memory CategoryStore.
type fakeCategories struct {
	nextID uint64
	byID   map[uint64]repository.Category
}

func newFakeCategories() *fakeCategories {
	return &fakeCategories{byID: map[uint64]repository.Category{}}
}

func (f *fakeCategories) slugTaken(slug string, except uint64) bool {
	for _, cat := range f.byID {
		if cat.Slug == slug && cat.ID != except {
			return true
		}
	}
	return false
}

func (f *fakeCategories) List(_ context.Context, includeInactive bool) ([]repository.Category, error) {
	var out []repository.Category
	for _, cat := range f.byID {
		if !includeInactive && !cat.IsActive {
			continue
		}
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (f *fakeCategories) GetByID(_ context.Context, id uint64) (repository.Category, error) {
	cat, ok := f.byID[id]
	if !ok {
		return repository.Category{}, repository.ErrNotFound
	}
	return cat, nil
}

func (f *fakeCategories) Create(_ context.Context, cat repository.Category) (repository.Category, error) {
	if f.slugTaken(cat.Slug, 0) {
		return repository.Category{}, repository.ErrConflict
	}
	if cat.ParentID != nil {
		if _, ok := f.byID[*cat.ParentID]; !ok {
			return repository.Category{}, repository.ErrNotFound
		}
	}
	f.nextID++
	cat.ID = f.nextID
	cat.CreatedAt = time.Now().UTC()
	cat.UpdatedAt = cat.CreatedAt
	f.byID[cat.ID] = cat
	return cat, nil
}

func (f *fakeCategories) Update(_ context.Context, id uint64, upd repository.CategoryUpdate) (repository.Category, error) {
	cat, ok := f.byID[id]
	if !ok {
		return repository.Category{}, repository.ErrNotFound
	}
	if upd.Slug != nil && f.slugTaken(*upd.Slug, id) {
		return repository.Category{}, repository.ErrConflict
	}
	if upd.Name != nil {
		cat.Name = *upd.Name
	}
	if upd.Slug != nil {
		cat.Slug = *upd.Slug
	}
	if upd.Description != nil {
		cat.Description = upd.Description
	}
	if upd.ParentID != nil {
		cat.ParentID = *upd.ParentID
	}
	if upd.DisplayOrder != nil {
		cat.DisplayOrder = *upd.DisplayOrder
	}
	if upd.IsActive != nil {
		cat.IsActive = *upd.IsActive
	}
	f.byID[id] = cat
	return cat, nil
}

func (f *fakeCategories) Delete(_ context.Context, id uint64) error {
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeWishlists is an in-memory WishlistStore backed by a fakeProducts.
type fakeWishlists struct {
	nextID   uint64
	products *fakeProducts
	items    map[uint64][]repository.WishlistItem // keyed by user id
}

func newFakeWishlists(products *fakeProducts) *fakeWishlists {
	return &fakeWishlists{products: products, items: map[uint64][]repository.WishlistItem{}}
}

func (f *fakeWishlists) ListByUser(_ context.Context, userID uint64) ([]repository.WishlistItem, error) {
	out := []repository.WishlistItem{}
	for _, it := range f.items[userID] {
		if p, ok := f.products.byID[it.ProductID]; ok {
			it.Product = &p
		}
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeWishlists) Add(_ context.Context, userID, productID uint64) (repository.WishlistItem, error) {
	if _, ok := f.products.byID[productID]; !ok {
		return repository.WishlistItem{}, repository.ErrNotFound
	}
	for _, it := range f.items[userID] {
		if it.ProductID == productID {
			return repository.WishlistItem{}, repository.ErrConflict
		}
	}
	f.nextID++
	it := repository.WishlistItem{ID: f.nextID, ProductID: productID, AddedAt: time.Now().UTC()}
	f.items[userID] = append(f.items[userID], it)
	return it, nil
}

func (f *fakeWishlists) Remove(_ context.Context, userID, productID uint64) error {
	for i, it := range f.items[userID] {
		if it.ProductID == productID {
			f.items[userID] = append(f.items[userID][:i], f.items[userID][i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// fakeSettings is an in-memory SettingStore.
type fakeSettings struct {
	values map[string]json.RawMessage
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{values: map[string]json.RawMessage{}}
}

func (f *fakeSettings) All(_ context.Context) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSettings) Get(_ context.Context, key string) (json.RawMessage, error) {
	v, ok := f.values[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeSettings) Upsert(_ context.Context, values map[string]json.RawMessage) error {
	for k, v := range values {
		f.values[k] = v
	}
	return nil
}
