package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitBounds(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Limit())
	assert.Equal(t, 5, Pagination{PageSize: 5}.Limit())
}

func TestTrimAndAfterIDRoundTrip(t *testing.T) {
	items := []int64{50, 40, 30, 20}
	page, info := Trim(items, 3, func(v int64) int64 { return v })
	assert.Equal(t, []int64{50, 40, 30}, page)
	require.True(t, info.HasMore)

	after, err := Pagination{PageToken: info.NextPageToken}.AfterID()
	require.NoError(t, err)
	assert.EqualValues(t, 30, after)

	page, info = Trim(items[:2], 3, func(v int64) int64 { return v })
	assert.Len(t, page, 2)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestAfterIDRejectsGarbage(t *testing.T) {
	_, err := Pagination{PageToken: "%%%"}.AfterID()
	assert.ErrorIs(t, err, ErrInvalidPageToken)
}
