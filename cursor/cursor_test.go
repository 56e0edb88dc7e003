package cursor_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zlnvch/daybook/cursor"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		sortValue string
		docID     string
	}{
		{"Date Sort", "2025-01-10", "018e38d7-0000-7000-8000-000000000000"},
		{"Timestamp Sort", "2025-06-01T09:30:00.123456789Z", "goal-1"},
		{"Sort With Separator", "GOAL#2025#x", "abc"},
		{"Unicode", "日付", "id-ü"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			token := cursor.Encode(tc.sortValue, tc.docID)

			pos, err := cursor.Decode(token)
			assert.NoError(t, err)
			assert.Equal(t, tc.sortValue, pos.SortValue)
			assert.Equal(t, tc.docID, pos.DocID)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	b64 := func(s string) string { return base64.URLEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name  string
		token string
	}{
		{"Not Base64", "%%%not-base64%%%"},
		{"Standard Base64 Padding Mismatch", "a"},
		{"Not JSON", b64("hello")},
		{"JSON Array", b64(`["2025-01-10","id"]`)},
		{"Unknown Field", b64(`{"sort":"2025-01-10","docId":"id","extra":1}`)},
		{"Trailing Data", b64(`{"sort":"2025-01-10","docId":"id"}{}`)},
		{"Missing Sort", b64(`{"docId":"id"}`)},
		{"Missing DocId", b64(`{"sort":"2025-01-10"}`)},
		{"Empty Fields", b64(`{"sort":"","docId":""}`)},
		{"Wrong Types", b64(`{"sort":1,"docId":2}`)},
		{"Empty Object", b64(`{}`)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := cursor.Decode(tc.token)
			assert.ErrorIs(t, err, cursor.ErrMalformedCursor)
		})
	}
}

func TestEncode_Opaque(t *testing.T) {
	// Tokens are URL-safe: no characters needing query escaping.
	token := cursor.Encode("2025-01-10T00:00:00.000000000Z", "doc/with+chars")
	for _, c := range token {
		assert.NotContains(t, "+/", string(c))
	}
}
