package css

import "errors"

var (
	// ErrInvalidSelector marks a selector outside the supported grammar.
	// It is never fatal: the rule is skipped and reported as a warning.
	ErrInvalidSelector = errors.New("invalid selector")

	// ErrUnsupportedAtRule marks @media, @import and other at-rules, which cannot be inlined.
	ErrUnsupportedAtRule = errors.New("unsupported at-rule")
)
