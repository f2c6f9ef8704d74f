package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	original := OrderCursor{
		CreatedAt: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
		ID:        42,
	}

	encoded := EncodeCursor(original)
	require.NotEmpty(t, encoded)

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, original.ID, decoded.ID)
	assert.True(t, original.CreatedAt.Equal(decoded.CreatedAt))
}

func TestDecodeEmptyCursor(t *testing.T) {
	cursor, err := DecodeCursor("")
	require.NoError(t, err)

	// An empty cursor starts paging from the newest possible position.
	assert.Equal(t, int64(1<<63-1), cursor.ID)
	assert.False(t, cursor.CreatedAt.IsZero())
}

func TestDecodeGarbageCursor(t *testing.T) {
	_, err := DecodeCursor("not base64!!!")
	assert.Error(t, err)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, totalPages(0, 10))
	assert.Equal(t, 1, totalPages(10, 10))
	assert.Equal(t, 2, totalPages(11, 10))
	assert.Equal(t, 3, totalPages(25, 10))
}
