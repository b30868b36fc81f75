package machine

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/mna/koto/lang/compiler"
	"github.com/mna/koto/lang/token"
	"github.com/mna/koto/lang/types"
)

func joinDots(segs []string) string { return strings.Join(segs, ".") }

// runFrame is the main dispatch loop: it decodes and executes fr's bytecode
// until a Return, an uncaught error, or a Yield suspends it, mirroring the
// teacher's single big switch-over-opcodes loop (lang/machine/machine.go)
// but over named registers instead of an operand stack (spec §3, §4.3,
// §6's instruction table).
func (vm *Vm) runFrame(fr *callFrame) (types.Value, error) {
	vm.frames = append(vm.frames, fr)
	defer func() { vm.frames = vm.frames[:len(vm.frames)-1] }()

	code := fr.chunk.Bytes
	constants := fr.chunk.Constants

	readByte := func() byte { b := code[fr.ip]; fr.ip++; return b }
	readReg := func() int { return int(readByte()) }
	readU16 := func() int { v := int(binary.BigEndian.Uint16(code[fr.ip:])); fr.ip += 2; return v }
	readI16 := func() int { return int(int16(readU16())) }
	readU32 := func() int32 { v := int32(binary.BigEndian.Uint32(code[fr.ip:])); fr.ip += 4; return v }

	constStr := func(idx int) string { return constants[idx].(string) }

	// onErr centralizes the catch-or-propagate decision every fallible
	// opcode shares (spec §4.3 "Error handling": check the innermost catch
	// first, else let the Go call stack unwind to this frame's caller).
	onErr := func(err error) (resumed bool, out *KotoError) {
		out, resumed = vm.raise(fr, err)
		return resumed, out
	}

dispatch:
	for {
		if fr.ip >= len(code) {
			return types.Null{}, nil
		}
		if err := vm.checkBudget(); err != nil {
			return nil, toKotoError(err)
		}

		op := compiler.Opcode(readByte())

		switch op {
		case compiler.Copy:
			d, s := readReg(), readReg()
			vm.setReg(fr, d, vm.reg(fr, s))

		case compiler.SetNull:
			d := readReg()
			vm.setReg(fr, d, types.Null{})

		case compiler.SetBool:
			d := readReg()
			vm.setReg(fr, d, types.Bool(readByte() != 0))

		case compiler.SetNumber:
			d := readReg()
			vm.setReg(fr, d, types.Int(int64(int8(readByte()))))

		case compiler.LoadInt:
			d := readReg()
			vm.setReg(fr, d, types.Int(constants[readReg()].(int64)))
		case compiler.LoadIntLong:
			d := readReg()
			vm.setReg(fr, d, types.Int(constants[readU32()].(int64)))

		case compiler.LoadFloat:
			d := readReg()
			vm.setReg(fr, d, types.Float(constants[readReg()].(float64)))
		case compiler.LoadFloatLong:
			d := readReg()
			vm.setReg(fr, d, types.Float(constants[readU32()].(float64)))

		case compiler.LoadString:
			d := readReg()
			vm.setReg(fr, d, types.Str(constStr(readReg())))
		case compiler.LoadStringLong:
			d := readReg()
			vm.setReg(fr, d, types.Str(constStr(int(readU32()))))

		case compiler.LoadNonLocal:
			d := readReg()
			slot := readReg()
			if slot < 0 || slot >= len(fr.captures) {
				if resumed, ke := onErr(fmt.Errorf("internal: capture slot %d out of range", slot)); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, fr.captures[slot])

		case compiler.LoadGlobal:
			d := readReg()
			name := constStr(readU16())
			v, ok := lookupGlobal(vm.Ctx, name)
			if !ok {
				if resumed, ke := onErr(fmt.Errorf("undefined name %q", name)); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, v)

		case compiler.ValueExport:
			name := constStr(readU16())
			src := readReg()
			if err := fr.exportsMap().Insert(types.Str(name), vm.reg(fr, src)); err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}

		case compiler.Import:
			d := readReg()
			n := readReg()
			segs := make([]string, n)
			for i := 0; i < n; i++ {
				segs[i] = constStr(readU16())
			}
			path := joinDots(segs)
			v, err := vm.importModule(path)
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, v)

		case compiler.MakeTempTuple:
			d := readReg()
			start := readReg()
			count := readReg()
			vm.setReg(fr, d, types.TemporaryTuple{Start: fr.base + start, Count: count})

		case compiler.TempTupleToTuple:
			d, s := readReg(), readReg()
			tt, ok := vm.reg(fr, s).(types.TemporaryTuple)
			if !ok {
				if resumed, ke := onErr(fmt.Errorf("internal: expected a TemporaryTuple, got a %s value", vm.reg(fr, s).Kind())); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			items := append([]types.Value(nil), vm.regs[tt.Start:tt.Start+tt.Count]...)
			vm.setReg(fr, d, types.NewTuple(items...))

		case compiler.MakeMap:
			d := readReg()
			hint := readU16()
			vm.setReg(fr, d, types.NewMap(hint))

		case compiler.SequenceStart:
			d := readReg()
			vm.setReg(fr, d, &seqBuilder{})
		case compiler.SequencePush:
			seq, src := readReg(), readReg()
			b, err := asSeqBuilder(vm.reg(fr, seq))
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			b.items = append(b.items, vm.reg(fr, src))
		case compiler.SequencePushN:
			seq := readReg()
			start, count := readReg(), readReg()
			b, err := asSeqBuilder(vm.reg(fr, seq))
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			b.items = append(b.items, vm.regSlice(fr, start, count)...)
		case compiler.SequenceToList:
			d, seq := readReg(), readReg()
			b, err := asSeqBuilder(vm.reg(fr, seq))
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, types.NewList(append([]types.Value(nil), b.items...)...))
		case compiler.SequenceToTuple:
			d, seq := readReg(), readReg()
			b, err := asSeqBuilder(vm.reg(fr, seq))
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, types.NewTuple(append([]types.Value(nil), b.items...)...))

		case compiler.StringStart:
			d := readReg()
			vm.setReg(fr, d, &strBuilder{})
		case compiler.StringPush:
			d, src := readReg(), readReg()
			b, err := asStrBuilder(vm.reg(fr, d))
			if err == nil {
				var text string
				text, err = vm.displayValue(vm.reg(fr, src))
				if err == nil {
					b.b.WriteString(text)
				}
			}
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
		case compiler.StringPushLiteral:
			d := readReg()
			lit := constStr(readU16())
			b, err := asStrBuilder(vm.reg(fr, d))
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			b.b.WriteString(lit)
		case compiler.StringFinish:
			d, src := readReg(), readReg()
			b, err := asStrBuilder(vm.reg(fr, src))
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, types.Str(b.b.String()))

		case compiler.Range:
			d, s, e := readReg(), readReg(), readReg()
			sv, sok := vm.reg(fr, s).(types.Number)
			ev, eok := vm.reg(fr, e).(types.Number)
			if !sok || !eok {
				if resumed, ke := onErr(fmt.Errorf("range bounds must be numbers")); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, types.Range{Start: sv.Int(), End: ev.Int(), HasStart: true, HasEnd: true})
		case compiler.RangeInclusive:
			d, s, e := readReg(), readReg(), readReg()
			sv, sok := vm.reg(fr, s).(types.Number)
			ev, eok := vm.reg(fr, e).(types.Number)
			if !sok || !eok {
				if resumed, ke := onErr(fmt.Errorf("range bounds must be numbers")); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, types.Range{Start: sv.Int(), End: ev.Int(), HasStart: true, HasEnd: true, Inclusive: true})
		case compiler.RangeTo:
			d, e := readReg(), readReg()
			ev, ok := vm.reg(fr, e).(types.Number)
			if !ok {
				if resumed, ke := onErr(fmt.Errorf("range bound must be a number")); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, types.Range{End: ev.Int(), HasEnd: true})
		case compiler.RangeToInclusive:
			d, e := readReg(), readReg()
			ev, ok := vm.reg(fr, e).(types.Number)
			if !ok {
				if resumed, ke := onErr(fmt.Errorf("range bound must be a number")); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, types.Range{End: ev.Int(), HasEnd: true, Inclusive: true})
		case compiler.RangeFrom:
			d, s := readReg(), readReg()
			sv, ok := vm.reg(fr, s).(types.Number)
			if !ok {
				if resumed, ke := onErr(fmt.Errorf("range bound must be a number")); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, types.Range{Start: sv.Int(), HasStart: true})
		case compiler.RangeFull:
			d := readReg()
			vm.setReg(fr, d, types.Range{})

		case compiler.MakeIterator:
			d, s := readReg(), readReg()
			it, err := vm.makeIterator(vm.reg(fr, s))
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, it)
		case compiler.IterNext:
			d, it := readReg(), readReg()
			off := readI16()
			iter, ok := vm.reg(fr, it).(types.Iterator)
			if !ok {
				if resumed, ke := onErr(fmt.Errorf("internal: expected an iterator, got a %s value", vm.reg(fr, it).Kind())); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			v, more, err := iter.Next()
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			if !more {
				fr.ip += off
			} else {
				vm.setReg(fr, d, v)
			}

		case compiler.Function:
			d := readReg()
			argCount := int(readByte())
			captureCount := int(readByte())
			flags := readByte()
			size := readU16()
			bodyStart := fr.ip
			fn := &types.Function{
				Chunk:              fr.chunk,
				IP:                 bodyStart,
				ArgCount:           argCount,
				CaptureCount:       captureCount,
				Variadic:           flags&1 != 0,
				Generator:          flags&2 != 0,
				ArgIsUnpackedTuple: flags&4 != 0,
			}
			var val types.Value = fn
			if captureCount > 0 {
				val = &types.CaptureFunction{Fn: fn, Captures: make([]types.Value, captureCount)}
			}
			vm.setReg(fr, d, val)
			fr.ip = bodyStart + size

		case compiler.Capture:
			d := readReg()
			slot := int(readByte())
			fromCapture := readByte() != 0
			src := int(readByte())
			cf, ok := vm.reg(fr, d).(*types.CaptureFunction)
			if !ok {
				if resumed, ke := onErr(fmt.Errorf("internal: Capture target is not a capturing function")); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			if fromCapture {
				cf.Captures[slot] = fr.captures[src]
			} else {
				cf.Captures[slot] = vm.reg(fr, src)
			}

		case compiler.Call:
			d := readReg()
			fnReg := readReg()
			argsStart, argCount := readReg(), readReg()
			callee := vm.reg(fr, fnReg)
			args := vm.regSlice(fr, argsStart, argCount)
			result, err := vm.call(callee, args)
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, result)

		case compiler.Return:
			src := readReg()
			return vm.reg(fr, src), nil

		case compiler.Yield:
			src := readReg()
			if err := vm.doYield(vm.reg(fr, src)); err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}

		case compiler.Throw:
			src := readReg()
			if ke, resumed := vm.raiseValue(fr, vm.reg(fr, src)); resumed {
				continue dispatch
			} else {
				return nil, ke
			}

		case compiler.Add, compiler.Sub, compiler.Mul, compiler.Div, compiler.Rem,
			compiler.Less, compiler.LessEq, compiler.Greater, compiler.GreaterEq,
			compiler.Equal, compiler.NotEqual:
			d, l, r := readReg(), readReg(), readReg()
			result, err := vm.binary(op, vm.reg(fr, l), vm.reg(fr, r))
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, result)

		case compiler.Neg, compiler.Not:
			d, s := readReg(), readReg()
			result, err := vm.unary(op, vm.reg(fr, s))
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, result)

		case compiler.Jump:
			off := readI16()
			fr.ip += off
		case compiler.JumpBack:
			mag := readU16()
			fr.ip -= mag
		case compiler.JumpIfTrue:
			cond := readReg()
			off := readI16()
			if types.Truthy(vm.reg(fr, cond)) {
				fr.ip += off
			}
		case compiler.JumpIfFalse:
			cond := readReg()
			off := readI16()
			if !types.Truthy(vm.reg(fr, cond)) {
				fr.ip += off
			}

		case compiler.Access:
			d, obj := readReg(), readReg()
			name := constStr(readU16())
			result, err := vm.access(vm.reg(fr, obj), name)
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, result)
		case compiler.AccessString:
			d, obj, keyReg := readReg(), readReg(), readReg()
			key, ok := vm.reg(fr, keyReg).(types.Str)
			if !ok {
				if resumed, ke := onErr(fmt.Errorf("member name must be a string, got a %s value", vm.reg(fr, keyReg).Kind())); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			result, err := vm.access(vm.reg(fr, obj), string(key))
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, result)
		case compiler.Index:
			d, obj, keyReg := readReg(), readReg(), readReg()
			result, err := vm.index(vm.reg(fr, obj), vm.reg(fr, keyReg))
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			vm.setReg(fr, d, result)
		case compiler.SetIndex:
			obj, keyReg, valReg := readReg(), readReg(), readReg()
			if err := vm.setIndex(vm.reg(fr, obj), vm.reg(fr, keyReg), vm.reg(fr, valReg)); err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}

		case compiler.MapInsert:
			obj, keyReg, valReg := readReg(), readReg(), readReg()
			m, ok := vm.reg(fr, obj).(*types.Map)
			if !ok {
				if resumed, ke := onErr(fmt.Errorf("internal: MapInsert target is not a map")); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			if err := m.Insert(vm.reg(fr, keyReg), vm.reg(fr, valReg)); err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
		case compiler.MapInsertString:
			obj := readReg()
			name := constStr(readU16())
			valReg := readReg()
			m, ok := vm.reg(fr, obj).(*types.Map)
			if !ok {
				if resumed, ke := onErr(fmt.Errorf("internal: MapInsertString target is not a map")); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			if err := m.Insert(types.Str(name), vm.reg(fr, valReg)); err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}

		case compiler.MetaInsert:
			obj := readReg()
			tok := token.Token(readByte())
			valReg := readReg()
			if err := vm.metaInsert(vm.reg(fr, obj), tok, vm.reg(fr, valReg)); err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
		case compiler.MetaInsertNamed:
			obj := readReg()
			kind := types.MetaKeyKind(readByte())
			name := constStr(readU16())
			valReg := readReg()
			if err := vm.metaInsertNamed(vm.reg(fr, obj), kind, name, vm.reg(fr, valReg)); err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
		case compiler.MetaExport:
			tok := token.Token(readByte())
			valReg := readReg()
			if err := vm.metaExport(fr, tok, vm.reg(fr, valReg)); err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
		case compiler.MetaExportNamed:
			kind := types.MetaKeyKind(readByte())
			name := constStr(readU16())
			valReg := readReg()
			if err := vm.metaExportNamed(fr, kind, name, vm.reg(fr, valReg)); err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}

		case compiler.TryStart:
			catchReg := readReg()
			off := readI16()
			fr.catches = append(fr.catches, catchPoint{reg: catchReg, ip: fr.ip + off})
		case compiler.TryEnd:
			if n := len(fr.catches); n > 0 {
				fr.catches = fr.catches[:n-1]
			}

		case compiler.Debug:
			exprText := constStr(readU16())
			src := readReg()
			text, err := vm.displayValue(vm.reg(fr, src))
			if err != nil {
				if resumed, ke := onErr(err); resumed {
					continue dispatch
				} else {
					return nil, ke
				}
			}
			pos := fr.chunk.PosForIP(fr.ip)
			fmt.Fprintf(vm.Ctx.stderr, "[%s:%d] %s: %s\n", fr.chunk.SourcePath, pos.Line, exprText, text)

		case compiler.CheckSizeEqual:
			seq := readReg()
			n := int(readByte())
			off := readI16()
			ln, ok := valueLen(vm.reg(fr, seq))
			if !ok || ln != n {
				fr.ip += off
			}
		case compiler.CheckSizeMin:
			seq := readReg()
			n := int(readByte())
			off := readI16()
			ln, ok := valueLen(vm.reg(fr, seq))
			if !ok || ln < n {
				fr.ip += off
			}

		default:
			if resumed, ke := onErr(fmt.Errorf("internal: unimplemented opcode %s", op)); resumed {
				continue dispatch
			} else {
				return nil, ke
			}
		}
	}
}
