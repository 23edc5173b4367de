package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var ErrInvalidPageToken = errors.New("invalid_page_token")

// Pagination is bound from query parameters on list endpoints.
type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// Cursor points at the last row of the previous page. IDs are snowflakes,
// so ordering by id descending is newest first.
type Cursor struct {
	ID int64 `json:"id,string"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

func (p Pagination) Limit() int {
	switch {
	case p.PageSize <= 0:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.PageSize
	}
}

// AfterID decodes the page token. Zero means start from the newest row.
func (p Pagination) AfterID() (int64, error) {
	token := strings.TrimSpace(p.PageToken)
	if token == "" {
		return 0, nil
	}
	cursor, err := DecodeCursor(token)
	if err != nil || cursor.ID <= 0 {
		return 0, ErrInvalidPageToken
	}
	return cursor.ID, nil
}

func EncodeCursor(data Cursor) string {
	b, _ := json.Marshal(data)
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, err
	}
	return &cursor, nil
}

// Trim cuts a limit+1 result set down to limit and reports the next token.
func Trim[T any](items []T, limit int, idOf func(T) int64) ([]T, PageInfo) {
	if len(items) <= limit {
		return items, PageInfo{}
	}
	items = items[:limit]
	return items, PageInfo{
		HasMore:       true,
		NextPageToken: EncodeCursor(Cursor{ID: idOf(items[len(items)-1])}),
	}
}
