// Package types defines the runtime value model executed by lang/machine:
// a small tagged union (spec §3 "Runtime value") plus the shared containers
// (List, Map, Tuple, Range, Iterator, Function) that carry reference
// semantics across the register stack.
package types

import "fmt"

// Kind distinguishes the dynamic type of a Value, mirroring spec §3's
// tagged union (Null | Bool | Number | Str | Range | List | Tuple | Map |
// Iterator | Function | CaptureFunction | NativeFunction | Object |
// TemporaryTuple).
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindStr
	KindRange
	KindList
	KindTuple
	KindMap
	KindIterator
	KindFunction
	KindCaptureFunction
	KindNativeFunction
	KindObject
	KindTemporaryTuple
)

var kindNames = [...]string{
	KindNull:            "null",
	KindBool:             "bool",
	KindNumber:           "number",
	KindStr:              "string",
	KindRange:            "range",
	KindList:             "list",
	KindTuple:            "tuple",
	KindMap:              "map",
	KindIterator:         "iterator",
	KindFunction:         "function",
	KindCaptureFunction:  "function",
	KindNativeFunction:   "native_function",
	KindObject:           "object",
	KindTemporaryTuple:   "tuple",
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return fmt.Sprintf("<invalid kind %d>", k)
	}
	return kindNames[k]
}

// Value is implemented by every runtime value. Display renders the value the
// way Koto's string conversion / `@display` fallback does; it does not
// consult a map's `@display` meta entry (the VM does that, since it may need
// to run user code).
type Value interface {
	Kind() Kind
	Display() string
}

// Null is Koto's singleton null value.
type Null struct{}

func (Null) Kind() Kind      { return KindNull }
func (Null) Display() string { return "null" }

// Bool wraps a Go bool.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (b Bool) Display() string {
	if b {
		return "true"
	}
	return "false"
}

// Truthy reports whether v is considered true in a boolean context: every
// value is truthy except Null and Bool(false) (spec §4.3 "JumpIfFalse").
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Null:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}
