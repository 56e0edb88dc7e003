package service

import (
	"github.com/zlnvch/daybook/cursor"
	"github.com/zlnvch/daybook/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func clampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return defaultPageSize
	}
	if pageSize > maxPageSize {
		return maxPageSize
	}
	return pageSize
}

func decodePageToken(token string) (*store.Position, error) {
	if token == "" {
		return nil, nil
	}
	pos, err := cursor.Decode(token)
	if err != nil {
		return nil, err
	}
	return &store.Position{SortValue: pos.SortValue, DocID: pos.DocID}, nil
}

// nextPageToken is emitted iff the page came back full. When the
// collection had exactly pageSize items left this produces one extra
// empty page; that is the documented contract of the token, kept stable
// for clients.
func nextPageToken(returned, pageSize int, sortValue, docID string) string {
	if returned != pageSize {
		return ""
	}
	return cursor.Encode(sortValue, docID)
}
