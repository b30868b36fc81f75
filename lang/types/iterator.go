package types

// Iterator is Koto's polymorphic iterator value (spec §3 "Iterator"):
// range-stepping, list/tuple/string slicing, map-entry walking, and
// generator functions backed by a suspended child VM all implement this
// same interface so `for`/unpacking/core-library adaptors don't need to
// know which kind they're driving.
type Iterator interface {
	Value
	// Next advances the iterator, returning the next value and true, or
	// (nil, false, nil) at exhaustion. An error aborts iteration.
	Next() (Value, bool, error)
	// Clone returns an independent copy positioned at the same point.
	// A generator iterator can be cloned only before its first Next, and
	// the clone is a fresh, unstarted generator; after the first Next,
	// Clone returns an error.
	Clone() (Iterator, error)
}

// SliceIterator walks a List, Tuple, or Str by index, used for `for x in
// list` and similar (spec §3 "list/tuple/string slice" iterator variant).
type SliceIterator struct {
	Get func(i int) (Value, bool)
	pos int
}

func NewSliceIterator(get func(i int) (Value, bool)) *SliceIterator {
	return &SliceIterator{Get: get}
}

func (*SliceIterator) Kind() Kind      { return KindIterator }
func (*SliceIterator) Display() string { return "|| iterator" }
func (it *SliceIterator) Next() (Value, bool, error) {
	v, ok := it.Get(it.pos)
	if !ok {
		return nil, false, nil
	}
	it.pos++
	return v, true, nil
}
func (it *SliceIterator) Clone() (Iterator, error) {
	cp := *it
	return &cp, nil
}

// RangeIterator steps through a Range's bounds, one integer at a time.
type RangeIterator struct {
	cur, end int64
	step     int64
	done     bool
}

func NewRangeIterator(r Range) *RangeIterator {
	it := &RangeIterator{step: 1}
	start := int64(0)
	if r.HasStart {
		start = r.Start
	}
	it.cur = start
	if !r.HasEnd {
		it.end = 1<<63 - 1
		return it
	}
	end := r.End
	if r.Inclusive {
		end++
	}
	it.end = end
	if start > end {
		it.done = true
	}
	return it
}

func (*RangeIterator) Kind() Kind      { return KindIterator }
func (*RangeIterator) Display() string { return "|| iterator" }
func (it *RangeIterator) Next() (Value, bool, error) {
	if it.done || it.cur >= it.end {
		return nil, false, nil
	}
	v := Int(it.cur)
	it.cur += it.step
	return v, true, nil
}
func (it *RangeIterator) Clone() (Iterator, error) {
	cp := *it
	return &cp, nil
}

// MapIterator yields (key, value) tuples from a Map's live entries in
// insertion order (spec §3 "map-entry" iterator variant).
type MapIterator struct {
	keys, vals []Value
	pos        int
}

func NewMapIterator(m *Map) *MapIterator {
	return &MapIterator{keys: m.Keys(), vals: m.Values()}
}

func (*MapIterator) Kind() Kind      { return KindIterator }
func (*MapIterator) Display() string { return "|| iterator" }
func (it *MapIterator) Next() (Value, bool, error) {
	if it.pos >= len(it.keys) {
		return nil, false, nil
	}
	v := NewTuple(it.keys[it.pos], it.vals[it.pos])
	it.pos++
	return v, true, nil
}
func (it *MapIterator) Clone() (Iterator, error) {
	cp := *it
	return &cp, nil
}

// Generator is implemented by lang/machine's sibling-VM wrapper, kept as an
// interface here to avoid an import cycle between lang/types and
// lang/machine (spec §5 "generator functions... a sibling VM sharing
// context").
type Generator interface {
	Iterator
}
