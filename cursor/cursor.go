// Package cursor implements the opaque page tokens returned by list
// endpoints. A token is the URL-safe base64 encoding of a two-field JSON
// object holding the sort-key value and document id of the last item on
// the previous page. The encoding is part of the public API surface:
// tokens issued by one deployment must stay decodable by the next, so
// the shape must not change without a migration plan.
package cursor

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedCursor = errors.New("malformed cursor")

// Position identifies the last-seen row under a specific
// (sortField, direction) ordering. SortValue is carried as the exact
// string used in the store's sort key; it is never reparsed or
// reformatted, so ordering precision is preserved. DocID breaks ties
// (descending) when multiple rows share the same sort value.
type Position struct {
	SortValue string `json:"sort"`
	DocID     string `json:"docId"`
}

// Encode produces an opaque, URL-safe token for a position.
func Encode(sortValue, docID string) string {
	raw, _ := json.Marshal(Position{SortValue: sortValue, DocID: docID})
	return base64.URLEncoding.EncodeToString(raw)
}

// Decode is the strict inverse of Encode. Anything that does not decode
// to exactly the two expected fields fails with ErrMalformedCursor.
func Decode(token string) (Position, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrMalformedCursor, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var pos Position
	if err := dec.Decode(&pos); err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrMalformedCursor, err)
	}
	if dec.More() {
		return Position{}, fmt.Errorf("%w: trailing data", ErrMalformedCursor)
	}
	if pos.SortValue == "" || pos.DocID == "" {
		return Position{}, fmt.Errorf("%w: missing fields", ErrMalformedCursor)
	}
	return pos, nil
}
