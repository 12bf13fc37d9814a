package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifierDeterministic(t *testing.T) {
	a := Identifier("Spicy Chickpea Curry", "reddit:abc123")
	b := Identifier("Spicy Chickpea Curry", "reddit:abc123")
	assert.Equal(t, a, b)
}

func TestIdentifierNormalizesCaseAndWhitespace(t *testing.T) {
	base := Identifier("Spicy Chickpea Curry", "reddit:abc123")
	assert.Equal(t, base, Identifier("  spicy   chickpea  CURRY ", "REDDIT:ABC123"))
}

func TestIdentifierDistinguishesSources(t *testing.T) {
	a := Identifier("Spicy Chickpea Curry", "reddit:abc123")
	b := Identifier("Spicy Chickpea Curry", "reddit:xyz789")
	c := Identifier("Spicy Chickpea Curry", "")
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestIdentifierIsValidUUID(t *testing.T) {
	id := Identifier("Pancakes", "reddit:p1").String()
	require.Len(t, id, 36)
	// uuid5 (SHA-1 based) sets version 5 at the usual position.
	assert.Equal(t, byte('5'), id[14])
}

func TestSourceHintPrefersPostID(t *testing.T) {
	r := &Recipe{SourcePostID: "abc123", SourceURL: "https://example.com/post"}
	assert.Equal(t, "reddit:abc123", r.SourceHint())

	r = &Recipe{SourceURL: "https://example.com/post"}
	assert.Equal(t, "https://example.com/post", r.SourceHint())
}

func TestNormalizeComputesIdentifierOnce(t *testing.T) {
	r := &Recipe{Title: "  Beef   Stew ", SourcePostID: "p9"}
	r.Normalize()
	require.NotEmpty(t, r.Identifier)
	assert.Equal(t, "Beef Stew", r.Title)

	first := r.Identifier
	r.Normalize()
	assert.Equal(t, first, r.Identifier)
}
