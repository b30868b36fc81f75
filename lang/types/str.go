package types

import "unicode/utf8"

// Str is Koto's string type: an immutable, UTF-8 byte sequence. Strings are
// documented in spec §3 as a shared-ownership container, but since Go
// strings are themselves immutable and already share their backing array on
// copy, a plain Go string gives the same sharing behavior for free.
type Str string

func (Str) Kind() Kind      { return KindStr }
func (s Str) Display() string { return string(s) }

// Len reports the string's length in bytes (Koto indexes strings by byte
// offset, spec §9 Open Question #3).
func (s Str) Len() int { return len(s) }

// Slice returns the byte range [start:end) of s. It returns an error if
// either boundary splits a UTF-8 rune, matching spec §9's decision not to
// expose a separate byte-level indexing operator.
func (s Str) Slice(start, end int) (Str, error) {
	if start < 0 || end > len(s) || start > end {
		return "", ErrIndexOutOfBounds
	}
	if start > 0 && !utf8.RuneStart(s[start]) {
		return "", ErrNonUTF8Boundary
	}
	if end < len(s) && !utf8.RuneStart(s[end]) {
		return "", ErrNonUTF8Boundary
	}
	return s[start:end], nil
}
