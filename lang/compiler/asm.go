package compiler

import (
	"fmt"
	"strings"
)

// Disassemble renders c's bytecode as a flat, human-readable listing, one
// instruction per line prefixed with its byte offset. It only renders: no
// parser reads the listing back into a Chunk.
func (c *Chunk) Disassemble() string {
	var b strings.Builder
	ip := 0
	for ip < len(c.Bytes) {
		start := ip
		op := Opcode(c.Bytes[ip])
		ip++
		fmt.Fprintf(&b, "%6d  %-20s", start, op)
		ip = c.writeOperands(&b, op, ip)
		b.WriteByte('\n')
	}
	return b.String()
}

func (c *Chunk) readU16(ip int) int {
	return int(c.Bytes[ip])<<8 | int(c.Bytes[ip+1])
}

func (c *Chunk) readU32(ip int) int32 {
	return int32(c.Bytes[ip])<<24 | int32(c.Bytes[ip+1])<<16 | int32(c.Bytes[ip+2])<<8 | int32(c.Bytes[ip+3])
}

func (c *Chunk) readI16(ip int) int16 { return int16(c.readU16(ip)) }

// writeOperands decodes and prints the operands of op starting at ip,
// returning the ip just past them. The shapes here mirror the inline
// operand docs on each Opcode constant (lang/compiler/opcode.go).
func (c *Chunk) writeOperands(b *strings.Builder, op Opcode, ip int) int {
	reg := func() int { r := int(c.Bytes[ip]); ip++; return r }
	u8 := func() int { v := int(c.Bytes[ip]); ip++; return v }
	u16 := func() int { v := c.readU16(ip); ip += 2; return v }
	i16 := func() int { v := int(c.readI16(ip)); ip += 2; return v }
	u32 := func() int32 { v := c.readU32(ip); ip += 4; return v }

	switch op {
	case SetNull, RangeFull:
		fmt.Fprintf(b, "r%d", reg())
	case SetBool:
		r := reg()
		fmt.Fprintf(b, "r%d, %v", r, u8() != 0)
	case SetNumber:
		r := reg()
		fmt.Fprintf(b, "r%d, %d", r, int8(u8()))
	case LoadInt, LoadFloat, LoadString:
		r := reg()
		fmt.Fprintf(b, "r%d, #%d", r, u8())
	case LoadIntLong, LoadFloatLong, LoadStringLong:
		r := reg()
		fmt.Fprintf(b, "r%d, #%d", r, u32())
	case LoadNonLocal:
		r := reg()
		fmt.Fprintf(b, "r%d, captures[%d]", r, u8())
	case LoadGlobal:
		r := reg()
		fmt.Fprintf(b, "r%d, #%d", r, u16())
	case ValueExport:
		name := u16()
		fmt.Fprintf(b, "#%d, r%d", name, reg())
	case Import:
		r := reg()
		n := u8()
		fmt.Fprintf(b, "r%d, path(", r)
		for i := 0; i < n; i++ {
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprintf(b, "#%d", u16())
		}
		b.WriteByte(')')
	case MakeTempTuple:
		r := reg()
		fmt.Fprintf(b, "r%d, r%d, n=%d", r, u8(), u8())
	case TempTupleToTuple, Copy, Neg, Not, MakeIterator:
		r := reg()
		fmt.Fprintf(b, "r%d, r%d", r, reg())
	case MakeMap:
		r := reg()
		fmt.Fprintf(b, "r%d, hint=%d", r, u16())
	case SequenceStart, StringStart:
		fmt.Fprintf(b, "r%d", reg())
	case SequencePush, StringPush:
		r := reg()
		fmt.Fprintf(b, "r%d, r%d", r, reg())
	case SequencePushN:
		r := reg()
		fmt.Fprintf(b, "r%d, r%d, n=%d", r, u8(), u8())
	case SequenceToList, SequenceToTuple, StringFinish:
		r := reg()
		fmt.Fprintf(b, "r%d, r%d", r, reg())
	case StringPushLiteral:
		r := reg()
		fmt.Fprintf(b, "r%d, #%d", r, u16())
	case Range, RangeInclusive, Add, Sub, Mul, Div, Rem, Less, LessEq, Greater, GreaterEq, NotEqual:
		r := reg()
		fmt.Fprintf(b, "r%d, r%d, r%d", r, reg(), reg())
	case RangeTo, RangeToInclusive, RangeFrom:
		r := reg()
		fmt.Fprintf(b, "r%d, r%d", r, reg())
	case IterNext:
		r := reg()
		a := reg()
		fmt.Fprintf(b, "r%d, r%d, +%d", r, a, i16())
	case Function:
		r := reg()
		argc := u8()
		capc := u8()
		flags := u8()
		size := u16()
		fmt.Fprintf(b, "r%d, args=%d, captures=%d, flags=%02b, size=%d", r, argc, capc, flags, size)
	case Capture:
		r := reg()
		slot := u8()
		isCap := u8()
		src := u8()
		fmt.Fprintf(b, "r%d, slot=%d, fromCapture=%v, src=%d", r, slot, isCap != 0, src)
	case Call:
		r := reg()
		fn := reg()
		argsStart := u8()
		argc := u8()
		fmt.Fprintf(b, "r%d, r%d, args=r%d..+%d", r, fn, argsStart, argc)
	case Return, Yield, Throw:
		fmt.Fprintf(b, "r%d", reg())
	case Equal:
		r := reg()
		fmt.Fprintf(b, "r%d, r%d, r%d", r, reg(), reg())
	case Jump:
		fmt.Fprintf(b, "%+d", i16())
	case JumpBack:
		fmt.Fprintf(b, "-%d", u16())
	case JumpIfTrue, JumpIfFalse:
		r := reg()
		fmt.Fprintf(b, "r%d, %+d", r, i16())
	case Access, AccessString, Index:
		r := reg()
		o := reg()
		if op == Access {
			fmt.Fprintf(b, "r%d, r%d, #%d", r, o, u16())
		} else {
			fmt.Fprintf(b, "r%d, r%d, r%d", r, o, reg())
		}
	case SetIndex:
		o := reg()
		fmt.Fprintf(b, "r%d, r%d, r%d", o, reg(), reg())
	case MapInsert:
		o := reg()
		fmt.Fprintf(b, "r%d, r%d, r%d", o, reg(), reg())
	case MapInsertString:
		o := reg()
		fmt.Fprintf(b, "r%d, #%d, r%d", o, u16(), reg())
	case MetaInsert:
		o := reg()
		fmt.Fprintf(b, "r%d, op=%d, r%d", o, u8(), reg())
	case MetaInsertNamed:
		o := reg()
		kind := u8()
		fmt.Fprintf(b, "r%d, kind=%d, #%d, r%d", o, kind, u16(), reg())
	case MetaExport:
		fmt.Fprintf(b, "op=%d, r%d", u8(), reg())
	case MetaExportNamed:
		kind := u8()
		fmt.Fprintf(b, "kind=%d, #%d, r%d", kind, u16(), reg())
	case TryStart:
		r := reg()
		fmt.Fprintf(b, "r%d, +%d", r, i16())
	case TryEnd:
		// no operands
	case Debug:
		idx := u16()
		fmt.Fprintf(b, "#%d, r%d", idx, reg())
	case CheckSizeEqual, CheckSizeMin:
		r := reg()
		n := u8()
		fmt.Fprintf(b, "r%d, n=%d, +%d", r, n, i16())
	default:
		// no known operand shape; emit nothing further so the offset doesn't
		// desync for opcodes added without a case here yet.
	}
	return ip
}
