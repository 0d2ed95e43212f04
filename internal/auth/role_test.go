package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
	}{
		{"customer", RoleCustomer},
		{"admin", RoleAdmin},
		{"superadmin", RoleSuperadmin},
		{"", RoleCustomer},
		{"ADMIN", RoleCustomer},
		{"root", RoleCustomer},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseRole(tc.in), "in=%q", tc.in)
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("customer"))
	assert.True(t, IsValid("admin"))
	assert.True(t, IsValid("superadmin"))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("Admin"))
	assert.False(t, IsValid("owner"))
}

func TestIsStaff(t *testing.T) {
	assert.False(t, RoleCustomer.IsStaff())
	assert.True(t, RoleAdmin.IsStaff())
	assert.True(t, RoleSuperadmin.IsStaff())
	assert.False(t, Role("owner").IsStaff())
}
