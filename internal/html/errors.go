package html

import "errors"

// ErrMalformedTemplate indicates a document that cannot be rendered:
// more than one style block, or no parsable structure at all.
var ErrMalformedTemplate = errors.New("malformed template")
