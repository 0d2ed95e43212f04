package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp switches to a temp dir for the test, restoring the
// original working directory on cleanup (t.Chdir needs Go 1.24+).
func chdirTemp(t *testing.T) {
	t.Helper()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

func TestHandleMessageAppendsAuditLine(t *testing.T) {
	chdirTemp(t)

	ev := CatalogEvent{
		Entity:     "product",
		EntityID:   42,
		Slug:       "desk-lamp",
		Action:     "updated",
		ActorID:    7,
		OccurredAt: "2026-01-02T03:04:05Z",
	}
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, handleMessage(body, nil, ""))

	bs, err := os.ReadFile(filepath.Join("logs", "catalog.log"))
	require.NoError(t, err)
	line := string(bs)
	assert.Contains(t, line, "product updated")
	assert.Contains(t, line, "id=42")
	assert.Contains(t, line, `slug="desk-lamp"`)
	assert.Contains(t, line, "actor=7")
	assert.Contains(t, line, "2026-01-02T03:04:05Z")
}

func TestHandleMessageRejectsMalformedBody(t *testing.T) {
	chdirTemp(t)

	err := handleMessage([]byte("not json"), nil, "")
	assert.Error(t, err)
	_, statErr := os.Stat("logs")
	assert.True(t, os.IsNotExist(statErr))
}

func TestHandleMessageAppends(t *testing.T) {
	chdirTemp(t)

	for i := 0; i < 3; i++ {
		body, err := json.Marshal(CatalogEvent{Entity: "category", Action: "created"})
		require.NoError(t, err)
		require.NoError(t, handleMessage(body, nil, ""))
	}

	bs, err := os.ReadFile(filepath.Join("logs", "catalog.log"))
	require.NoError(t, err)
	assert.Equal(t, 3, countLines(bs))
}

func countLines(bs []byte) int {
	n := 0
	for _, b := range bs {
		if b == '\n' {
			n++
		}
	}
	return n
}
