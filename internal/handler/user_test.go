package handler

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velstore/storefront-api/internal/auth"
	"github.com/velstore/storefront-api/internal/repository"
)

func seedUser(t *testing.T, users *fakeUsers, email string) repository.User {
	t.Helper()
	u, err := users.Create(context.Background(), email, "hash", nil, nil)
	require.NoError(t, err)
	return u
}

func TestUserList(t *testing.T) {
	users := newFakeUsers()
	h := NewUserHandler(users)
	seedUser(t, users, "a@example.com")
	seedUser(t, users, "b@example.com")

	c, rec := newTestCtx(t, http.MethodGet, "/v1/users", nil)
	asCaller(c, 1, auth.RoleAdmin)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Users []userPart `json:"users"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Users, 2)
	assert.Equal(t, "b@example.com", resp.Users[0].Email) // newest first
	assert.NotContains(t, rec.Body.String(), "hash")
}

func TestUserGet(t *testing.T) {
	users := newFakeUsers()
	h := NewUserHandler(users)
	u := seedUser(t, users, "a@example.com")

	c, rec := newTestCtx(t, http.MethodGet, "/v1/users/x", nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(u.ID, 10))
	asCaller(c, 99, auth.RoleAdmin)
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got userPart
	decodeBody(t, rec, &got)
	assert.Equal(t, u.ID, got.ID)
}

func TestUserUpdateRole(t *testing.T) {
	users := newFakeUsers()
	h := NewUserHandler(users)
	u := seedUser(t, users, "a@example.com")

	c, rec := newTestCtx(t, http.MethodPut, "/v1/users/x", map[string]any{"role": "admin"})
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(u.ID, 10))
	asCaller(c, 99, auth.RoleSuperadmin)
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got userPart
	decodeBody(t, rec, &got)
	assert.Equal(t, auth.RoleAdmin, got.Role)
}

func TestUserUpdateRejectsUnknownRole(t *testing.T) {
	users := newFakeUsers()
	h := NewUserHandler(users)
	u := seedUser(t, users, "a@example.com")

	c, rec := newTestCtx(t, http.MethodPut, "/v1/users/x", map[string]any{"role": "owner"})
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(u.ID, 10))
	asCaller(c, 99, auth.RoleSuperadmin)
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid role")

	// Stored role is untouched.
	assert.Equal(t, auth.RoleCustomer, users.byID[u.ID].Role)
}

func TestUserDelete(t *testing.T) {
	users := newFakeUsers()
	h := NewUserHandler(users)
	u := seedUser(t, users, "a@example.com")

	c, rec := newTestCtx(t, http.MethodDelete, "/v1/users/x", nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(u.ID, 10))
	asCaller(c, 99, auth.RoleAdmin)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, users.byID, u.ID)
}

func TestUserDeleteSelfGuard(t *testing.T) {
	users := newFakeUsers()
	h := NewUserHandler(users)
	u := seedUser(t, users, "admin@example.com")

	c, rec := newTestCtx(t, http.MethodDelete, "/v1/users/x", nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(u.ID, 10))
	asCaller(c, u.ID, auth.RoleAdmin)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot delete your own account")
	assert.Contains(t, users.byID, u.ID)
}

func TestUserGetUnknown(t *testing.T) {
	h := NewUserHandler(newFakeUsers())

	c, rec := newTestCtx(t, http.MethodGet, "/v1/users/x", nil)
	c.SetParamNames("id")
	c.SetParamValues("42")
	asCaller(c, 99, auth.RoleAdmin)
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "user not found")
}
