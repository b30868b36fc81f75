package machine

import (
	"fmt"
	"unicode/utf8"

	"github.com/mna/koto/lang/token"
	"github.com/mna/koto/lang/types"
)

// access implements Access/AccessString (spec §4.3 "Index/Access dispatch
// order": map data entries, then @meta-named entries, walked iteratively
// across the @base chain, then the core-library fallback keyed on the
// value's own Kind — which also covers every non-Map value directly).
func (vm *Vm) access(obj types.Value, name string) (types.Value, error) {
	if m, ok := obj.(*types.Map); ok {
		if v, ok := accessMapChain(m, name); ok {
			return v, nil
		}
	}
	if CoreLibAccess != nil {
		if v, ok := CoreLibAccess(obj, name); ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%s value has no member '%s'", obj.Kind(), name)
}

func accessMapChain(m *types.Map, name string) (types.Value, bool) {
	visited := map[*types.Map]bool{}
	cur := m
	for cur != nil && !visited[cur] {
		visited[cur] = true
		if v, ok := cur.Get(types.Str(name)); ok {
			return v, true
		}
		if cur.Meta == nil {
			return nil, false
		}
		if v, ok := cur.Meta.Get(types.MetaKey{Kind: types.MetaNamed, Name: name}); ok {
			return v, true
		}
		cur = cur.Meta.Base
	}
	return nil, false
}

// displayValue renders v for string interpolation (StringPush), consulting
// a map's @display override first (spec §4.3 "StringPush... appending the
// @display/default display of an expression").
func (vm *Vm) displayValue(v types.Value) (string, error) {
	if m, ok := v.(*types.Map); ok {
		if fn, ok := lookupMeta(m, types.MetaKey{Kind: types.MetaUnOp, Name: types.MetaDisplay}); ok {
			res, err := vm.call(fn, nil)
			if err != nil {
				return "", err
			}
			if s, ok := res.(types.Str); ok {
				return string(s), nil
			}
			return res.Display(), nil
		}
	}
	return v.Display(), nil
}

// index implements Index (spec §4.3 "Member access / indexing"). List and
// Tuple index positionally (negative = from-end) or slice by Range; Str
// slices by UTF-8-checked byte range, single-index returning the one-rune
// substring at that position; Map without @index falls back to a strictly
// positional (key, value) tuple lookup by insertion order (a Number key is
// required — the spec's "entry by insertion order" wording is read as
// positional rather than key-based, so a non-Number key without an @index
// override is a type error); Range indexed by Number yields the
// corresponding element, by Range yields a coordinate-translated
// sub-Range. Object has no meta-map and is not indexable (an opaque host
// escape hatch, out of primary scope per the spec's host-object Non-goals).
func (vm *Vm) index(obj, key types.Value) (types.Value, error) {
	switch o := obj.(type) {
	case *types.List:
		return indexSequence(o.Items, key, func(s []types.Value) types.Value { return types.NewList(s...) })
	case types.Tuple:
		return indexSequence(o.Items, key, func(s []types.Value) types.Value { return types.NewTuple(s...) })
	case types.Str:
		return indexStr(o, key)
	case types.Range:
		return indexRange(o, key)
	case *types.Map:
		if fn, ok := lookupMeta(o, types.MetaKey{Kind: types.MetaUnOp, Name: types.MetaIndex}); ok {
			return vm.call(fn, []types.Value{key})
		}
		return indexMapPositional(o, key)
	default:
		return nil, fmt.Errorf("%s value is not indexable", obj.Kind())
	}
}

func indexSequence(items []types.Value, key types.Value, wrap func([]types.Value) types.Value) (types.Value, error) {
	switch k := key.(type) {
	case types.Number:
		i := int(k.Int())
		if i < 0 {
			i += len(items)
		}
		if i < 0 || i >= len(items) {
			return nil, types.ErrIndexOutOfBounds
		}
		return items[i], nil
	case types.Range:
		start, end, err := k.Bounds(len(items))
		if err != nil {
			return nil, err
		}
		return wrap(append([]types.Value(nil), items[start:end]...)), nil
	default:
		return nil, fmt.Errorf("cannot index a sequence with a %s value", key.Kind())
	}
}

func indexStr(s types.Str, key types.Value) (types.Value, error) {
	switch k := key.(type) {
	case types.Number:
		i := int(k.Int())
		n := s.Len()
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return nil, types.ErrIndexOutOfBounds
		}
		_, size := utf8.DecodeRuneInString(string(s[i:]))
		return s.Slice(i, i+size)
	case types.Range:
		start, end, err := k.Bounds(s.Len())
		if err != nil {
			return nil, err
		}
		return s.Slice(start, end)
	default:
		return nil, fmt.Errorf("cannot index a string with a %s value", key.Kind())
	}
}

func indexRange(r types.Range, key types.Value) (types.Value, error) {
	base := int64(0)
	if r.HasStart {
		base = r.Start
	}
	switch k := key.(type) {
	case types.Number:
		return types.Int(base + k.Int()), nil
	case types.Range:
		nr := k
		nr.HasStart = true
		if k.HasStart {
			nr.Start = base + k.Start
		} else {
			nr.Start = base
		}
		if k.HasEnd {
			nr.End = base + k.End
		}
		return nr, nil
	default:
		return nil, fmt.Errorf("cannot index a range with a %s value", key.Kind())
	}
}

func indexMapPositional(m *types.Map, key types.Value) (types.Value, error) {
	n, ok := key.(types.Number)
	if !ok {
		return nil, fmt.Errorf("map has no @index override; only numeric positional lookup is supported without one")
	}
	i := int(n.Int())
	if i < 0 {
		i += m.Len()
	}
	if i < 0 || i >= m.Len() {
		return nil, types.ErrIndexOutOfBounds
	}
	keys, vals := m.Keys(), m.Values()
	return types.NewTuple(keys[i], vals[i]), nil
}

// setIndex implements SetIndex, mirroring index's dispatch for the
// mutating side (List in place, Map via @index_mut or positional
// overwrite-by-existing-key).
func (vm *Vm) setIndex(obj, key, val types.Value) error {
	switch o := obj.(type) {
	case *types.List:
		i, err := normalizeIndex(key, len(o.Items))
		if err != nil {
			return err
		}
		o.Items[i] = val
		return nil
	case *types.Map:
		if fn, ok := lookupMeta(o, types.MetaKey{Kind: types.MetaUnOp, Name: types.MetaIndexMut}); ok {
			_, err := vm.call(fn, []types.Value{key, val})
			return err
		}
		n, ok := key.(types.Number)
		if !ok {
			return fmt.Errorf("map has no @index_mut override; only numeric positional assignment is supported without one")
		}
		i := int(n.Int())
		if i < 0 {
			i += o.Len()
		}
		if i < 0 || i >= o.Len() {
			return types.ErrIndexOutOfBounds
		}
		keys := o.Keys()
		return o.Insert(keys[i], val)
	default:
		return fmt.Errorf("%s value does not support index assignment", obj.Kind())
	}
}

func normalizeIndex(key types.Value, length int) (int, error) {
	n, ok := key.(types.Number)
	if !ok {
		return 0, fmt.Errorf("cannot index with a %s value", key.Kind())
	}
	i := int(n.Int())
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, types.ErrIndexOutOfBounds
	}
	return i, nil
}

// metaInsert handles MetaInsert (a binary operator override, keyed by
// token.Token).
func (vm *Vm) metaInsert(obj types.Value, tok token.Token, val types.Value) error {
	m, ok := obj.(*types.Map)
	if !ok {
		return fmt.Errorf("cannot attach @meta to a %s value", obj.Kind())
	}
	if m.Meta == nil {
		m.Meta = types.NewMetaMap()
	}
	m.Meta.Set(types.MetaKey{Kind: types.MetaBinOp, Op: int8(tok)}, val)
	return nil
}

// metaInsertNamed handles MetaInsertNamed: unary operator overrides,
// lifecycle hooks (@main, @tests, @pre_test, @post_test, @test <name>), and
// @base (which installs val as the map's meta base rather than a regular
// entry, since it has its own field for the iterative chain walk).
func (vm *Vm) metaInsertNamed(obj types.Value, kind types.MetaKeyKind, name string, val types.Value) error {
	m, ok := obj.(*types.Map)
	if !ok {
		return fmt.Errorf("cannot attach @meta to a %s value", obj.Kind())
	}
	if m.Meta == nil {
		m.Meta = types.NewMetaMap()
	}
	if kind == types.MetaBase {
		base, ok := val.(*types.Map)
		if !ok {
			return fmt.Errorf("@base must be a map, got a %s value", val.Kind())
		}
		m.Meta.Base = base
		return nil
	}
	m.Meta.Set(types.MetaKey{Kind: kind, Name: name}, val)
	return nil
}

// metaExport/metaExportNamed attach an operator override or lifecycle hook
// to the current module's own export table, so importing this module
// yields a Map that itself participates in operators/iteration (spec §4.3
// "export @+ = ...").
func (vm *Vm) metaExport(fr *callFrame, tok token.Token, val types.Value) error {
	return vm.metaInsert(fr.exportsMap(), tok, val)
}

func (vm *Vm) metaExportNamed(fr *callFrame, kind types.MetaKeyKind, name string, val types.Value) error {
	return vm.metaInsertNamed(fr.exportsMap(), kind, name, val)
}

func (fr *callFrame) exportsMap() *types.Map {
	if fr.exports == nil {
		fr.exports = types.NewMap(0)
	}
	return fr.exports
}
