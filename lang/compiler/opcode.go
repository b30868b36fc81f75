// Package compiler turns a resolved AST (lang/ast + lang/resolver) into a
// register-based bytecode Chunk (spec §3 "Bytecode chunk", §4.2, §6). Unlike
// a stack machine, every instruction names the registers it reads and
// writes explicitly; there is no implicit operand stack.
package compiler

// Opcode identifies one register-machine instruction (spec §6, "External
// interfaces"). Operand encodings are fixed per opcode and documented
// inline; register operands are always one byte, constant-pool indices are
// one byte for the common case and widen to the "Long" variant's four
// bytes when the pool exceeds 255 entries, and jump offsets are a signed
// 16-bit big-endian delta from the instruction following the jump operand.
type Opcode uint8

const (
	// Copy dst, src: dst = registers[src].
	Copy Opcode = iota
	// SetNull dst: dst = Null.
	SetNull
	// SetBool dst, val(1 byte 0/1): dst = Bool(val).
	SetBool
	// SetNumber dst, smallInt(1 byte, signed): dst = Number(int64(smallInt)),
	// the inlined-small-integer fast path (spec §3 LiteralExpr.SmallInt).
	SetNumber
	// LoadInt dst, constIdx(1 byte): dst = Number(constants[constIdx].(int64)).
	LoadInt
	// LoadIntLong dst, constIdx(4 bytes).
	LoadIntLong
	// LoadFloat dst, constIdx(1 byte).
	LoadFloat
	// LoadFloatLong dst, constIdx(4 bytes).
	LoadFloatLong
	// LoadString dst, constIdx(1 byte).
	LoadString
	// LoadStringLong dst, constIdx(4 bytes).
	LoadStringLong
	// LoadNonLocal dst, slot(1 byte): dst = current frame's captures[slot].
	LoadNonLocal
	// LoadGlobal dst, nameConstIdx(2 bytes): dst = the predeclared module
	// argument or language built-in named by the constant, looked up by name
	// since these have no register of their own (spec §3 "Predeclared" /
	// "Universal" resolver scopes).
	LoadGlobal
	// ValueExport nameConstIdx(2 bytes), src: exports[name] = registers[src].
	ValueExport
	// Import dst, pathLen(1 byte), pathConstIdx(pathLen * 2 bytes): resolves
	// and runs the dotted module path, leaving its export table's root
	// identifier accessible in dst as a Map.
	Import
	// MakeTempTuple dst, start(1 byte), count(1 byte): dst =
	// TemporaryTuple{start, count} referencing registers[start:start+count].
	MakeTempTuple
	// TempTupleToTuple dst, src: materializes a TemporaryTuple in src into a
	// real Tuple in dst (spec §9 "never escapes a frame").
	TempTupleToTuple
	// MakeMap dst, sizeHint(2 bytes).
	MakeMap
	// SequenceStart dst: begins building a list/tuple in an internal builder
	// register, kept separate from the result register until ToList/ToTuple.
	SequenceStart
	// SequencePush seq, src: appends registers[src] to the builder at seq.
	SequencePush
	// SequencePushN seq, start(1 byte), count(1 byte): appends
	// registers[start:start+count] (used for TemporaryTuple/rest spreads).
	SequencePushN
	// SequenceToList dst, seq.
	SequenceToList
	// SequenceToTuple dst, seq.
	SequenceToTuple
	// StringStart dst: begins building an interpolated string.
	StringStart
	// StringPush dst, src: appends Display(registers[src]) to the builder.
	StringPush
	// StringPushLiteral dst, constIdx(2 bytes): appends constants[constIdx]
	// verbatim (already-decoded literal chunk, no Display call needed).
	StringPushLiteral
	// StringFinish dst, builder: dst = Str(builder's accumulated text).
	StringFinish
	// Range dst, start, end.
	Range
	// RangeInclusive dst, start, end.
	RangeInclusive
	// RangeTo dst, end.
	RangeTo
	// RangeToInclusive dst, end.
	RangeToInclusive
	// RangeFrom dst, start.
	RangeFrom
	// RangeFull dst.
	RangeFull
	// MakeIterator dst, src: dst = an Iterator over registers[src] (list,
	// tuple, string, map, range, or a map's @iterator meta override).
	MakeIterator
	// IterNext dst, iter, jumpIfDone(2 bytes): advances iter; on exhaustion
	// jumps forward by jumpIfDone and leaves dst untouched, else stores the
	// next value (or a Tuple for map iteration) in dst.
	IterNext
	// Function dst, argCount(1), captureCount(1), flags(1 bitmask: 1=
	// variadic, 2=generator, 4=arg_is_unpacked_tuple), size(2 bytes): starts
	// a function literal whose body is the following size bytes; dst gets
	// the resulting Function/CaptureFunction value and execution resumes
	// size bytes later without running the body.
	Function
	// Capture functionReg, slot(1), sourceIsCapture(1 bool byte), sourceIdx(1):
	// fills captures[slot] of the Function in functionReg from either the
	// current frame's local register sourceIdx or its own captures[sourceIdx]
	// (spec §6 "Capture function,slot,source").
	Capture
	// Call dst, fn, argsStart(1), argCount(1): calls registers[fn] with
	// registers[argsStart:argsStart+argCount] as positional arguments,
	// placing the result in dst. dst may equal fn or overlap the arg window;
	// the VM stages a fresh frame before overwriting anything.
	Call
	// Return src: returns registers[src] from the current frame.
	Return
	// Yield src: suspends the current (generator) frame, handing
	// registers[src] to the caller's iterator.
	Yield
	// Throw src: raises registers[src] as a catchable error value.
	Throw

	// Add/Sub/Mul/Div/Rem dst, lhs, rhs: arithmetic, dispatching to a map's
	// @+/@-/@*/@//@% meta override when either operand is a Map with one.
	Add
	Sub
	Mul
	Div
	Rem
	// Neg dst, src: unary negation (spec §3 "@negate").
	Neg
	// Not dst, src: boolean negation.
	Not
	// Less/LessEq/Greater/GreaterEq/Equal/NotEqual dst, lhs, rhs: comparison
	// operators (spec §4.2 "chained comparisons lowered to two comparisons
	// sharing one evaluation of the middle operand").
	Less
	LessEq
	Greater
	GreaterEq
	Equal
	NotEqual

	// Jump offset(2 bytes signed): unconditional forward/backward jump.
	Jump
	// JumpBack offset(2 bytes unsigned, subtracted from ip): used for loop
	// back-edges so the common case encodes a positive magnitude.
	JumpBack
	// JumpIfTrue cond, offset(2 bytes signed).
	JumpIfTrue
	// JumpIfFalse cond, offset(2 bytes signed).
	JumpIfFalse

	// Access dst, obj, nameConstIdx(2 bytes): dst = obj.name (spec §4.3
	// "Index/Access dispatch order": map data, then @meta, then @base chain,
	// then core-lib fallback).
	Access
	// AccessString dst, obj, key: like Access but the name is the runtime
	// string value in register key (interpolated `."$x"` lookups).
	AccessString
	// Index dst, obj, key: dst = obj[key] (integer/range index or map key).
	Index
	// SetIndex obj, key, val: obj[key] = val.
	SetIndex

	// MapInsert obj, keySrc, val: obj[registers[keySrc]] = val, used for
	// map-literal entries with a non-identifier key expression.
	MapInsert
	// MapInsertString obj, nameConstIdx(2 bytes), val: obj[name] = val, used
	// for the common identifier/string-literal key case.
	MapInsertString
	// MetaInsert obj, op(1 byte token.Token), val: installs a binary/unary
	// operator override (spec §3 "@+", "@display", ...).
	MetaInsert
	// MetaInsertNamed obj, kind(1 byte MetaKeyKind), nameConstIdx(2 bytes), val.
	MetaInsertNamed
	// MetaExport op(1 byte), val: `export @+ = ...` at module scope.
	MetaExport
	// MetaExportNamed kind(1 byte), nameConstIdx(2 bytes), val.
	MetaExportNamed

	// TryStart catchReg(1), catchOffset(2 bytes): pushes a catch handler.
	TryStart
	// TryEnd: pops the innermost catch handler.
	TryEnd

	// Debug exprConstIdx(2 bytes), src: prints "[path:line] expr: value" to
	// the VM's stderr and evaluates to Null (spec §7).
	Debug

	// CheckSizeEqual seq, n(1 byte), jumpIfNot(2 bytes): jumps if
	// len(registers[seq]) != n, used for fixed-arity tuple/list patterns.
	CheckSizeEqual
	// CheckSizeMin seq, n(1 byte), jumpIfNot(2 bytes): jumps if
	// len(registers[seq]) < n, used for rest-pattern (`...`) arity checks.
	CheckSizeMin

	maxOpcode
)

var opcodeNames = [...]string{
	Copy: "copy", SetNull: "set_null", SetBool: "set_bool", SetNumber: "set_number",
	LoadInt: "load_int", LoadIntLong: "load_int_long",
	LoadFloat: "load_float", LoadFloatLong: "load_float_long",
	LoadString: "load_string", LoadStringLong: "load_string_long",
	LoadNonLocal: "load_non_local", LoadGlobal: "load_global",
	ValueExport: "value_export", Import: "import",
	MakeTempTuple: "make_temp_tuple", TempTupleToTuple: "temp_tuple_to_tuple",
	MakeMap: "make_map",
	SequenceStart: "sequence_start", SequencePush: "sequence_push",
	SequencePushN: "sequence_push_n", SequenceToList: "sequence_to_list",
	SequenceToTuple: "sequence_to_tuple",
	StringStart: "string_start", StringPush: "string_push",
	StringPushLiteral: "string_push_literal", StringFinish: "string_finish",
	Range: "range", RangeInclusive: "range_inclusive", RangeTo: "range_to",
	RangeToInclusive: "range_to_inclusive", RangeFrom: "range_from", RangeFull: "range_full",
	MakeIterator: "make_iterator", IterNext: "iter_next",
	Function: "function", Capture: "capture", Call: "call",
	Return: "return", Yield: "yield", Throw: "throw",
	Add: "add", Sub: "sub", Mul: "mul", Div: "div", Rem: "rem",
	Neg: "neg", Not: "not",
	Less: "less", LessEq: "less_eq", Greater: "greater", GreaterEq: "greater_eq",
	Equal: "equal", NotEqual: "not_equal",
	Jump: "jump", JumpBack: "jump_back", JumpIfTrue: "jump_if_true", JumpIfFalse: "jump_if_false",
	Access: "access", AccessString: "access_string", Index: "index", SetIndex: "set_index",
	MapInsert: "map_insert", MapInsertString: "map_insert_string",
	MetaInsert: "meta_insert", MetaInsertNamed: "meta_insert_named",
	MetaExport: "meta_export", MetaExportNamed: "meta_export_named",
	TryStart: "try_start", TryEnd: "try_end",
	Debug: "debug",
	CheckSizeEqual: "check_size_equal", CheckSizeMin: "check_size_min",
}

func (op Opcode) String() string {
	if op >= maxOpcode {
		return "invalid_opcode"
	}
	return opcodeNames[op]
}
