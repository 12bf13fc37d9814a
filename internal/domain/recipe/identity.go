package recipe

import (
	"strings"

	"github.com/google/uuid"
)

// identityNamespace is the fixed namespace for name-based recipe identifiers.
// It must never change: the identifier is a pure function of the normalized
// title and source hint, and stays bit-stable across processes and releases.
var identityNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Identifier derives the deterministic 128-bit identity of a recipe.
// Identical titles collapse on purpose; callers that need to distinguish
// same-titled recipes supply a source hint (post ID, URL).
func Identifier(title, sourceHint string) uuid.UUID {
	name := normalizeForIdentity(title) + ":" + normalizeForIdentity(sourceHint)
	return uuid.NewSHA1(identityNamespace, []byte(name))
}

func normalizeForIdentity(s string) string {
	return strings.ToLower(CollapseWhitespace(s))
}
