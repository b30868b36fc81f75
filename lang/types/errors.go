package types

import "errors"

// ErrDivideByZero is returned by Number.Div for integer division by zero
// (float division by zero instead produces Inf/NaN, per spec §7).
var ErrDivideByZero = errors.New("division by zero")

// ErrIndexOutOfBounds is returned by container indexing operations.
var ErrIndexOutOfBounds = errors.New("index out of bounds")

// ErrNonUTF8Boundary is returned when a string slice boundary falls inside
// a multi-byte UTF-8 rune.
var ErrNonUTF8Boundary = errors.New("string index does not fall on a UTF-8 boundary")

// ErrInvalidKey is returned when a value with no stable hash (a List, Map,
// or Object) is used as a map key.
var ErrInvalidKey = errors.New("invalid map key")
