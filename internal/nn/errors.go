package nn

import "errors"

// ErrAttentionShape is returned by the attention helpers for incompatible
// query, key, value or mask shapes.
var ErrAttentionShape = errors.New("incompatible attention shapes")
