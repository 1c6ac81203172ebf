package entry_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trc-platform/trc/entry" //nolint:revive
)

func Test_Token_RoundTrip(t *testing.T) {
	id := NewID("work", "0190a2c4-7d3e-7c1a-9f2b-1c2d3e4f5a6b")

	parsed, err := ParseToken(id.Token())

	require.NoError(t, err)
	assert.Equal(t, id, parsed)
	assert.NotContains(t, id.Token(), "=")
}

func Test_ParseToken_AcceptsEncodingVariants(t *testing.T) {
	// "a?>" encodes to a '+' in the standard alphabet
	raw := []byte("a?>b::note")
	want := NewID("note", "a?>b")

	for name, token := range map[string]string{
		"raw url": base64.RawURLEncoding.EncodeToString(raw),
		"url":     base64.URLEncoding.EncodeToString(raw),
		"raw std": base64.RawStdEncoding.EncodeToString(raw),
		"std":     base64.StdEncoding.EncodeToString(raw),
	} {
		t.Run(name, func(t *testing.T) {
			parsed, err := ParseToken(token)

			assert.NoError(t, err)
			assert.Equal(t, want, parsed)
		})
	}
}

func Test_ParseToken_When_IDContainsSeparator(t *testing.T) {
	id := NewID("person", "a::b")

	parsed, err := ParseToken(id.Token())

	assert.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func Test_ParseToken_When_Malformed(t *testing.T) {
	for name, token := range map[string]string{
		"not base64":        "%%%",
		"missing separator": base64.RawURLEncoding.EncodeToString([]byte("abc")),
		"missing type":      base64.RawURLEncoding.EncodeToString([]byte("abc::")),
		"missing id":        base64.RawURLEncoding.EncodeToString([]byte("::work")),
		"empty":             "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(token)

			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func Test_Ref_PointsToEntry(t *testing.T) {
	id := NewID("work", "w1")

	ref := RefTo(id)

	assert.Equal(t, id, ref.EntryID())
	assert.Equal(t, id.Token(), ref.Token())
}
