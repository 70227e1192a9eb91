package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2026-10-01T00:00:00Z"})
	require.NoError(t, err)

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", decoded.ID)
	assert.Equal(t, "2026-10-01T00:00:00Z", decoded.CreatedAt)

	_, err = DecodeCursor("%%%")
	assert.Error(t, err)
}

func TestBuildCursorPageInfo(t *testing.T) {
	items := []*int{intPtr(1), intPtr(2), intPtr(3)}
	extract := func(v *int) string { return string(rune('0' + *v)) }

	info := BuildCursorPageInfo(items, 2, extract)
	assert.True(t, info.HasMore)
	assert.Equal(t, "2", info.NextPageToken)

	info = BuildCursorPageInfo(items, 5, extract)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestNormalizePage(t *testing.T) {
	page, size, offset := NormalizePage(0, 0, 25, 100)
	assert.Equal(t, 1, page)
	assert.Equal(t, 25, size)
	assert.Equal(t, 0, offset)

	page, size, offset = NormalizePage(3, 500, 25, 100)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, size)
	assert.Equal(t, 200, offset)

	p := NewPage(2, 10, 21)
	assert.Equal(t, 3, p.TotalPages)
}

func intPtr(v int) *int { return &v }
