package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	require.NoError(t, err)
	require.NotEqual(t, "hunter2", hash)

	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "hunter3"))
	assert.False(t, VerifyPassword("", "hunter2"))
}

func TestHashPasswordDistinctSalts(t *testing.T) {
	h1, err := HashPassword("same", 4)
	require.NoError(t, err)
	h2, err := HashPassword("same", 4)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
