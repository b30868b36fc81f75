package machine

import (
	"fmt"

	"github.com/mna/koto/lang/compiler"
	"github.com/mna/koto/lang/types"
)

// call invokes callable with no implicit receiver (spec §6 "run_function",
// the Call opcode's normal path).
func (vm *Vm) call(callable types.Value, args []types.Value) (types.Value, error) {
	return vm.dispatch(callable, types.Null{}, args)
}

// callWithSelf invokes callable with instance staged into the callee's
// reserved register 0 (spec §6 "run_instance_function").
func (vm *Vm) callWithSelf(callable, instance types.Value, args []types.Value) (types.Value, error) {
	return vm.dispatch(callable, instance, args)
}

func (vm *Vm) dispatch(callable, self types.Value, args []types.Value) (types.Value, error) {
	switch c := callable.(type) {
	case *types.NativeFunction:
		return c.Fn(args)
	case *types.Function:
		return vm.callCompiled(c, nil, self, args)
	case *types.CaptureFunction:
		return vm.callCompiled(c.Fn, c.Captures, self, args)
	case *types.Map:
		fn, ok := lookupMeta(c, types.MetaKey{Kind: types.MetaUnOp, Name: types.MetaCall})
		if !ok {
			return nil, fmt.Errorf("cannot call a %s value", callable.Kind())
		}
		return vm.dispatch(fn, c, args)
	default:
		return nil, fmt.Errorf("cannot call a %s value", callable.Kind())
	}
}

// callCompiled pushes a fresh register window and call frame for fn and runs
// it to completion, honoring fn's generator flag by delegating to a sibling
// VM instead (spec §5 "generator functions").
func (vm *Vm) callCompiled(fn *types.Function, captures []types.Value, self types.Value, args []types.Value) (types.Value, error) {
	chunk, ok := fn.Chunk.(*compiler.Chunk)
	if !ok {
		return nil, fmt.Errorf("internal: function value has no compiled chunk")
	}
	if fn.Generator {
		return vm.startGenerator(fn, chunk, captures, self, args)
	}

	base := len(vm.regs)
	vm.ensureRegs(base + 1)
	vm.regs[base] = self

	fr := &callFrame{chunk: chunk, ip: fn.IP, base: base, captures: captures, fnName: fn.Name}
	vm.stageArgs(fr, fn, args)
	result, err := vm.runFrame(fr)
	vm.regs = vm.regs[:base]
	return result, err
}

// stageArgs copies args into the callee's positional registers (1..ArgCount),
// zero-filling any missing trailing argument with Null. For a variadic
// function, everything from the last fixed parameter on is packed into a
// trailing Tuple; for any other function, excess arguments are dropped
// (spec §6 "Call... argument binding").
//
// fn.ArgIsUnpackedTuple is decoded here for forward compatibility but is
// never actually set by the compiler (lang/compiler's paramShape always
// returns unpackedTuple=false — tuple-pattern parameters are destructured
// by compiled bytecode instead, see compileParamDestructures), so this path
// is presently dead.
func (vm *Vm) stageArgs(fr *callFrame, fn *types.Function, args []types.Value) {
	if fn.ArgIsUnpackedTuple && len(args) == 1 {
		if t, ok := args[0].(types.Tuple); ok {
			args = t.Items
		}
	}

	fixed := fn.ArgCount
	if fn.Variadic {
		fixed--
	}
	for i := 0; i < fixed; i++ {
		var v types.Value = types.Null{}
		if i < len(args) {
			v = args[i]
		}
		vm.setReg(fr, i+1, v)
	}
	if fn.Variadic {
		var rest []types.Value
		if len(args) > fixed {
			rest = append([]types.Value(nil), args[fixed:]...)
		}
		vm.setReg(fr, fixed+1, types.NewTuple(rest...))
	}
}

// makeIterator wraps v in an Iterator, re-entering the VM through a map's
// @iterator or @next override when present (spec §4.3 "Sequence/string
// building", §9 "for maps with iterator/next meta, fallback is the iterator
// module").
func (vm *Vm) makeIterator(v types.Value) (types.Iterator, error) {
	switch v := v.(type) {
	case *types.List:
		items := v.Items
		return types.NewSliceIterator(func(i int) (types.Value, bool) {
			if i >= len(items) {
				return nil, false
			}
			return items[i], true
		}), nil
	case types.Tuple:
		items := v.Items
		return types.NewSliceIterator(func(i int) (types.Value, bool) {
			if i >= len(items) {
				return nil, false
			}
			return items[i], true
		}), nil
	case types.Str:
		runes := []rune(string(v))
		return types.NewSliceIterator(func(i int) (types.Value, bool) {
			if i >= len(runes) {
				return nil, false
			}
			return types.Str(string(runes[i])), true
		}), nil
	case types.Range:
		return types.NewRangeIterator(v), nil
	case *types.Map:
		if fn, ok := lookupMeta(v, types.MetaKey{Kind: types.MetaUnOp, Name: types.MetaIterator}); ok {
			res, err := vm.call(fn, nil)
			if err != nil {
				return nil, err
			}
			it, ok := res.(types.Iterator)
			if !ok {
				return nil, fmt.Errorf("@iterator must return an iterator, got a %s value", res.Kind())
			}
			return it, nil
		}
		if _, ok := lookupMeta(v, types.MetaKey{Kind: types.MetaUnOp, Name: types.MetaNext}); ok {
			return &metaNextIterator{vm: vm, m: v}, nil
		}
		return types.NewMapIterator(v), nil
	case types.Iterator:
		return v, nil
	default:
		return nil, fmt.Errorf("%s value is not iterable", v.Kind())
	}
}

// metaNextIterator adapts a map's @next/@next_back overrides to the
// Iterator interface. A Null return from @next signals exhaustion, since
// the language has no separate sentinel value for "done" (a pragmatic
// reading of an otherwise-unspecified protocol).
type metaNextIterator struct {
	vm *Vm
	m  *types.Map
}

func (*metaNextIterator) Kind() types.Kind  { return types.KindIterator }
func (*metaNextIterator) Display() string { return "|| iterator" }

func (it *metaNextIterator) Next() (types.Value, bool, error) {
	fn, ok := lookupMeta(it.m, types.MetaKey{Kind: types.MetaUnOp, Name: types.MetaNext})
	if !ok {
		return nil, false, nil
	}
	v, err := it.vm.call(fn, nil)
	if err != nil {
		return nil, false, err
	}
	if _, isNull := v.(types.Null); isNull {
		return nil, false, nil
	}
	return v, true, nil
}

func (it *metaNextIterator) Clone() (types.Iterator, error) {
	return &metaNextIterator{vm: it.vm, m: it.m}, nil
}
