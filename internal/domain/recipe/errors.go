package recipe

import "errors"

// Validation errors surfaced by the load-time gate. All of them mean
// "skip this record", never "retry".
var (
	ErrEmptyTitle        = errors.New("recipe title is empty")
	ErrNoIngredients     = errors.New("recipe has no valid ingredients")
	ErrTooFewIngredients = errors.New("too few valid ingredients")
	ErrBadEmbedding      = errors.New("embedding length is not 384")
)
