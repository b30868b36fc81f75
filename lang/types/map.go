package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dolthub/swiss"
)

// mapKey is the hashable, comparable encoding of a Value used as a Map key,
// letting the key index use swiss.Map (which, like Go's builtin map,
// requires a comparable key type) even though types.Value itself is an
// interface that can hold non-comparable dynamic types (spec §3 "Map").
type mapKey string

// keyFor computes the hashable key for v, or an error if v is not a legal
// map key (containers with reference semantics have no stable identity to
// hash on besides their pointer, which Koto does not expose as a key).
func keyFor(v Value) (mapKey, error) {
	switch v := v.(type) {
	case Null:
		return "n:", nil
	case Bool:
		return mapKey(fmt.Sprintf("b:%t", bool(v))), nil
	case Number:
		if v.IsFloat() {
			return mapKey(fmt.Sprintf("f:%v", v.Float())), nil
		}
		return mapKey(fmt.Sprintf("i:%d", v.Int())), nil
	case Str:
		return mapKey("s:" + string(v)), nil
	case Tuple:
		var b strings.Builder
		b.WriteString("t:")
		for _, it := range v.Items {
			k, err := keyFor(it)
			if err != nil {
				return "", err
			}
			b.WriteString(string(k))
			b.WriteByte(0)
		}
		return mapKey(b.String()), nil
	default:
		return "", fmt.Errorf("%w: %s is not hashable", ErrInvalidKey, v.Kind())
	}
}

// entry is one (key, value) pair in a Map's insertion-ordered backing
// slice. deleted marks a tombstone left by Remove, skipped on iteration
// (spec §3 "insertion-ordered ValueKey → KValue").
type entry struct {
	key     Value
	val     Value
	deleted bool
}

// Map is Koto's insertion-ordered, shared-ownership mapping type, with an
// optional MetaMap carrying operator overrides and lifecycle hooks (spec §3
// "Map", §9 "@meta"). Two registers holding "the same map" observe each
// other's mutations since Map is always handled through a pointer.
type Map struct {
	index   *swiss.Map[mapKey, int]
	entries []entry
	live    int
	Meta    *MetaMap
}

func NewMap(sizeHint int) *Map {
	if sizeHint < 1 {
		sizeHint = 1
	}
	return &Map{index: swiss.NewMap[mapKey, int](uint32(sizeHint))}
}

func (*Map) Kind() Kind { return KindMap }

func (m *Map) Display() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	m.Each(func(k, v Value) bool {
		if !first {
			b.WriteString(", ")
		}
		first = false
		if s, ok := k.(Str); ok && isPlainIdent(string(s)) {
			b.WriteString(string(s))
		} else {
			b.WriteString(displayElem(k))
		}
		b.WriteString(": ")
		b.WriteString(displayElem(v))
		return true
	})
	b.WriteByte('}')
	return b.String()
}

func isPlainIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

// Get returns the value stored at k, if any.
func (m *Map) Get(k Value) (Value, bool) {
	kk, err := keyFor(k)
	if err != nil {
		return nil, false
	}
	ix, ok := m.index.Get(kk)
	if !ok || m.entries[ix].deleted {
		return nil, false
	}
	return m.entries[ix].val, true
}

// Insert sets k to v, appending a new entry if k is not already present
// (preserving first-insertion order) or overwriting the value in place if
// it is.
func (m *Map) Insert(k, v Value) error {
	kk, err := keyFor(k)
	if err != nil {
		return err
	}
	if ix, ok := m.index.Get(kk); ok && !m.entries[ix].deleted {
		m.entries[ix].val = v
		return nil
	}
	ix := len(m.entries)
	m.entries = append(m.entries, entry{key: k, val: v})
	m.index.Put(kk, ix)
	m.live++
	return nil
}

// Remove deletes k, if present.
func (m *Map) Remove(k Value) (Value, bool) {
	kk, err := keyFor(k)
	if err != nil {
		return nil, false
	}
	ix, ok := m.index.Get(kk)
	if !ok || m.entries[ix].deleted {
		return nil, false
	}
	m.entries[ix].deleted = true
	m.live--
	return m.entries[ix].val, true
}

// Len reports the number of live (non-removed) entries.
func (m *Map) Len() int { return m.live }

// Each visits every live entry in insertion order, stopping early if fn
// returns false. It never visits the MetaMap's @meta-named entries, which
// are not part of the data map (spec §9).
func (m *Map) Each(fn func(k, v Value) bool) {
	for _, e := range m.entries {
		if e.deleted {
			continue
		}
		if !fn(e.key, e.val) {
			return
		}
	}
}

// Keys/Values return snapshots of the map's live keys/values in order.
func (m *Map) Keys() []Value {
	out := make([]Value, 0, m.live)
	m.Each(func(k, _ Value) bool { out = append(out, k); return true })
	return out
}
func (m *Map) Values() []Value {
	out := make([]Value, 0, m.live)
	m.Each(func(_, v Value) bool { out = append(out, v); return true })
	return out
}

// MetaKey identifies one entry of a MetaMap: a binary/unary operator
// override, a lifecycle hook, or an arbitrary named meta entry (spec §3
// "Map", listing @+ .. @test <name> .. @meta <name>).
type MetaKey struct {
	Kind MetaKeyKind
	// Op is set when Kind == MetaBinOp (e.g. token.PLUS for @+).
	Op int8
	// Name is set when Kind is MetaUnOp, MetaTest or MetaNamed.
	Name string
}

// MetaKeyKind enumerates the families of MetaMap entries, matching
// ast.MetaKeyKind (duplicated here to avoid lang/types depending on
// lang/ast).
type MetaKeyKind int

const (
	MetaBinOp MetaKeyKind = iota
	MetaUnOp
	MetaBase
	MetaMain
	MetaTests
	MetaPreTest
	MetaPostTest
	MetaTest
	MetaNamed
)

func (k MetaKey) String() string {
	switch k.Kind {
	case MetaBinOp:
		return "@binop(" + strconv.Itoa(int(k.Op)) + ")"
	case MetaUnOp, MetaTest, MetaNamed:
		return "@" + k.Name
	case MetaBase:
		return "@base"
	case MetaMain:
		return "@main"
	case MetaTests:
		return "@tests"
	case MetaPreTest:
		return "@pre_test"
	case MetaPostTest:
		return "@post_test"
	default:
		return "@?"
	}
}

// Well-known unary meta names (spec §3 "Map").
const (
	MetaNegate   = "negate"
	MetaDisplay  = "display"
	MetaSize     = "size"
	MetaIterator = "iterator"
	MetaNext     = "next"
	MetaNextBack = "next_back"
	MetaIndex    = "index"
	MetaIndexMut = "index_mut"
	MetaCall     = "call"
	MetaType     = "type"
)

// MetaMap holds the operator overrides and lifecycle hooks attached to a
// Map via `.with_meta`/map-literal `@`-entries (spec §3, §9). It is stored
// separately from the data entries so that iterating a map's regular
// entries never surfaces meta keys.
type MetaMap struct {
	entries map[MetaKey]Value
	Base    *Map // @base, walked iteratively (not recursively) by the VM
}

func NewMetaMap() *MetaMap { return &MetaMap{entries: make(map[MetaKey]Value)} }

func (mm *MetaMap) Get(k MetaKey) (Value, bool) {
	v, ok := mm.entries[k]
	return v, ok
}

func (mm *MetaMap) Set(k MetaKey, v Value) { mm.entries[k] = v }

func (mm *MetaMap) Each(fn func(k MetaKey, v Value)) {
	for k, v := range mm.entries {
		fn(k, v)
	}
}
