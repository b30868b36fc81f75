package machine

import (
	"fmt"

	"github.com/mna/koto/lang/compiler"
	"github.com/mna/koto/lang/token"
	"github.com/mna/koto/lang/types"
)

// opToken maps an arithmetic/comparison Opcode to the token.Token a @meta
// entry is keyed on, matching how compileMapEntry encodes `@+`/`@==`/...
// (lang/compiler/compiler.go, MetaInsert's op byte).
func opToken(op compiler.Opcode) (token.Token, bool) {
	switch op {
	case compiler.Add:
		return token.PLUS, true
	case compiler.Sub:
		return token.MINUS, true
	case compiler.Mul:
		return token.STAR, true
	case compiler.Div:
		return token.SLASH, true
	case compiler.Rem:
		return token.PERCENT, true
	case compiler.Less:
		return token.LT, true
	case compiler.LessEq:
		return token.LE, true
	case compiler.Greater:
		return token.GT, true
	case compiler.GreaterEq:
		return token.GE, true
	case compiler.Equal:
		return token.EQL, true
	case compiler.NotEqual:
		return token.NEQ, true
	default:
		return 0, false
	}
}

// lookupMeta walks m's @base chain iteratively (cycle-guarded, spec §9
// "@base chaining is iterative, not recursive — a cycle must not hang the
// VM") looking for key.
func lookupMeta(m *types.Map, key types.MetaKey) (types.Value, bool) {
	visited := map[*types.Map]bool{}
	for cur := m; cur != nil && !visited[cur]; cur = cur.Meta.Base {
		visited[cur] = true
		if cur.Meta == nil {
			return nil, false
		}
		if v, ok := cur.Meta.Get(key); ok {
			return v, true
		}
		if cur.Meta.Base == nil {
			return nil, false
		}
	}
	return nil, false
}

// metaUnary re-enters the VM via v's @<name> override, if any.
func (vm *Vm) metaUnary(v types.Value, name string) (types.Value, bool, error) {
	m, ok := v.(*types.Map)
	if !ok {
		return nil, false, nil
	}
	fn, ok := lookupMeta(m, types.MetaKey{Kind: types.MetaUnOp, Name: name})
	if !ok {
		return nil, false, nil
	}
	result, err := vm.call(fn, nil)
	return result, true, err
}

// metaBinary re-enters the VM via recv's @op override (if recv is a Map
// with one), calling it with other as the sole positional argument (spec
// §4.3 "Overridable operators"). There is no implicit receiver/self
// parameter threaded through this call: the language has no `self` keyword
// (a known upstream gap — see DESIGN.md), so an @+ override written as
// `|other| ...` only ever sees the other operand, never its own map.
func (vm *Vm) metaBinary(recv types.Value, op compiler.Opcode, other types.Value) (types.Value, bool, error) {
	m, ok := recv.(*types.Map)
	if !ok {
		return nil, false, nil
	}
	tok, ok := opToken(op)
	if !ok {
		return nil, false, nil
	}
	fn, ok := lookupMeta(m, types.MetaKey{Kind: types.MetaBinOp, Op: int8(tok)})
	if !ok {
		return nil, false, nil
	}
	result, err := vm.call(fn, []types.Value{other})
	return result, true, err
}

func (vm *Vm) unary(op compiler.Opcode, v types.Value) (types.Value, error) {
	switch op {
	case compiler.Not:
		return types.Bool(!types.Truthy(v)), nil
	case compiler.Neg:
		if n, ok := v.(types.Number); ok {
			return n.Neg(), nil
		}
		if r, handled, err := vm.metaUnary(v, types.MetaNegate); handled {
			return r, err
		}
		return nil, fmt.Errorf("cannot negate a %s value", v.Kind())
	default:
		return nil, fmt.Errorf("internal: %s is not a unary opcode", op)
	}
}

func (vm *Vm) binary(op compiler.Opcode, lhs, rhs types.Value) (types.Value, error) {
	switch op {
	case compiler.Equal:
		eq, err := vm.equal(lhs, rhs)
		if err != nil {
			return nil, err
		}
		return types.Bool(eq), nil
	case compiler.NotEqual:
		eq, err := vm.equal(lhs, rhs)
		if err != nil {
			return nil, err
		}
		return types.Bool(!eq), nil
	}

	if ln, ok := lhs.(types.Number); ok {
		if rn, ok := rhs.(types.Number); ok {
			return vm.numberBinary(op, ln, rn)
		}
	}

	switch op {
	case compiler.Add:
		if ls, ok := lhs.(types.Str); ok {
			if rs, ok := rhs.(types.Str); ok {
				return ls + rs, nil
			}
		}
		if ll, ok := lhs.(*types.List); ok {
			if rl, ok := rhs.(*types.List); ok {
				out := append(append([]types.Value(nil), ll.Items...), rl.Items...)
				return types.NewList(out...), nil
			}
		}
	case compiler.Less, compiler.LessEq, compiler.Greater, compiler.GreaterEq:
		if ls, ok := lhs.(types.Str); ok {
			if rs, ok := rhs.(types.Str); ok {
				return types.Bool(compareStrs(op, string(ls), string(rs))), nil
			}
		}
	}

	if r, handled, err := vm.metaBinary(lhs, op, rhs); handled {
		return r, err
	}
	if r, handled, err := vm.metaBinary(rhs, op, lhs); handled {
		return r, err
	}
	return nil, fmt.Errorf("cannot apply %s to a %s and a %s value", op, lhs.Kind(), rhs.Kind())
}

func (vm *Vm) numberBinary(op compiler.Opcode, ln, rn types.Number) (types.Value, error) {
	switch op {
	case compiler.Add:
		return ln.Add(rn), nil
	case compiler.Sub:
		return ln.Sub(rn), nil
	case compiler.Mul:
		return ln.Mul(rn), nil
	case compiler.Div:
		return ln.Div(rn)
	case compiler.Rem:
		return ln.Rem(rn), nil
	case compiler.Less:
		return types.Bool(ln.Cmp(rn) < 0), nil
	case compiler.LessEq:
		return types.Bool(ln.Cmp(rn) <= 0), nil
	case compiler.Greater:
		return types.Bool(ln.Cmp(rn) > 0), nil
	case compiler.GreaterEq:
		return types.Bool(ln.Cmp(rn) >= 0), nil
	default:
		return nil, fmt.Errorf("internal: %s is not a numeric binary opcode", op)
	}
}

func compareStrs(op compiler.Opcode, a, b string) bool {
	switch op {
	case compiler.Less:
		return a < b
	case compiler.LessEq:
		return a <= b
	case compiler.Greater:
		return a > b
	case compiler.GreaterEq:
		return a >= b
	default:
		return false
	}
}

// equal implements Koto's structural, recursive equality (spec §4.3
// "Equality... is recursive, so an overridden @== on a nested value
// participates"). Function/CaptureFunction compare by identity of their
// underlying *Function plus (for captures) a shallow, recursive comparison
// of their capture lists.
func (vm *Vm) equal(lhs, rhs types.Value) (bool, error) {
	if lhs.Kind() != rhs.Kind() {
		// Allow Function vs CaptureFunction identity comparison (same Kind
		// family conceptually, different wrapper) to fall through to false
		// rather than erroring: two values of genuinely different kinds are
		// just unequal.
		if !sameFunctionFamily(lhs, rhs) {
			return false, nil
		}
	}

	switch l := lhs.(type) {
	case types.Null:
		_, ok := rhs.(types.Null)
		return ok, nil
	case types.Bool:
		r, ok := rhs.(types.Bool)
		return ok && l == r, nil
	case types.Number:
		r, ok := rhs.(types.Number)
		return ok && l.Equal(r), nil
	case types.Str:
		r, ok := rhs.(types.Str)
		return ok && l == r, nil
	case types.Range:
		r, ok := rhs.(types.Range)
		return ok && l == r, nil
	case *types.List:
		r, ok := rhs.(*types.List)
		if !ok {
			return false, nil
		}
		return vm.equalSlice(l.Items, r.Items)
	case types.Tuple:
		r, ok := rhs.(types.Tuple)
		if !ok {
			return false, nil
		}
		return vm.equalSlice(l.Items, r.Items)
	case *types.Map:
		r, ok := rhs.(*types.Map)
		if !ok {
			return false, nil
		}
		return vm.equalMap(l, r)
	case *types.Function:
		return sameFunction(l, rhs), nil
	case *types.CaptureFunction:
		r, ok := rhs.(*types.CaptureFunction)
		if !ok || l.Fn != r.Fn {
			return false, nil
		}
		return vm.equalSlice(l.Captures, r.Captures)
	default:
		return lhs == rhs, nil
	}
}

func sameFunctionFamily(a, b types.Value) bool {
	isFn := func(v types.Value) bool {
		switch v.(type) {
		case *types.Function, *types.CaptureFunction:
			return true
		default:
			return false
		}
	}
	return isFn(a) && isFn(b)
}

func underlyingFunction(v types.Value) *types.Function {
	switch v := v.(type) {
	case *types.Function:
		return v
	case *types.CaptureFunction:
		return v.Fn
	default:
		return nil
	}
}

func sameFunction(fn *types.Function, other types.Value) bool {
	return fn == underlyingFunction(other)
}

func (vm *Vm) equalSlice(a, b []types.Value) (bool, error) {
	if len(a) != len(b) {
		return false, nil
	}
	for i := range a {
		eq, err := vm.equal(a[i], b[i])
		if err != nil || !eq {
			return eq, err
		}
	}
	return true, nil
}

func (vm *Vm) equalMap(a, b *types.Map) (bool, error) {
	if a.Len() != b.Len() {
		return false, nil
	}
	eq := true
	var firstErr error
	a.Each(func(k, v types.Value) bool {
		bv, ok := b.Get(k)
		if !ok {
			eq = false
			return false
		}
		same, err := vm.equal(v, bv)
		if err != nil {
			firstErr = err
			return false
		}
		if !same {
			eq = false
			return false
		}
		return true
	})
	return eq, firstErr
}
