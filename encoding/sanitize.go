package encoding

import (
	"strings"
	"unicode"
)

// Scope selects which part of an encoded line passes through Sanitize.
type Scope int

const (
	// ScopeNames sanitizes only the composed metric path. Value and timestamp text are
	// emitted untouched.
	ScopeNames Scope = iota
	// ScopeLine sanitizes the whole composed line, value and timestamp included. This
	// reproduces the historical graphite client output byte for byte.
	ScopeLine
)

// Options controls how names and timestamps are encoded. Options is a value type: the
// client copies it at construction, so later changes to a caller's copy have no effect.
type Options struct {
	// ConvertToUTC converts timestamps to UTC before computing epoch seconds. When false
	// the local wall clock reading is encoded as if it were UTC.
	ConvertToUTC bool
	// Sanitize enables name sanitization. When false Sanitize is the identity.
	Sanitize bool
	// Lowercase lowercases every letter while sanitizing.
	Lowercase bool
	// Scope picks what gets sanitized. Defaults to ScopeNames.
	Scope Scope
}

// DefaultOptions returns {ConvertToUTC: true, Sanitize: true, Lowercase: true}.
func DefaultOptions() Options {
	return Options{
		ConvertToUTC: true,
		Sanitize:     true,
		Lowercase:    true,
		Scope:        ScopeNames,
	}
}

// Sanitize rewrites raw into a carbon-safe identifier, one rune at a time:
//
//	'\' and '/'  become '.'
//	' ' and '_'  become '_'
//	letters      are lowercased when opts.Lowercase is set
//
// Everything else passes through. Sanitize is not idempotent in general: feeding an
// already sanitized prefix back through it together with a new fragment rewrites the
// whole string again, which only matters if the options differ between the two passes.
func Sanitize(raw string, opts Options) string {
	if !opts.Sanitize {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch r {
		case '\\', '/':
			b.WriteByte('.')
		case ' ', '_':
			b.WriteByte('_')
		default:
			if opts.Lowercase && unicode.IsLetter(r) {
				r = unicode.ToLower(r)
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
