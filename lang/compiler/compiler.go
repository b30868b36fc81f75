package compiler

import (
	"encoding/binary"
	"fmt"

	"github.com/mna/koto/lang/ast"
	"github.com/mna/koto/lang/resolver"
	"github.com/mna/koto/lang/token"
)

// CompileFiles compiles each already-resolved chunk into a register-based
// Chunk (spec §3, §4.2). Chunks must already have gone through
// resolver.ResolveFiles.
func CompileFiles(fset *token.FileSet, chunks []*ast.Chunk) ([]*Chunk, error) {
	out := make([]*Chunk, 0, len(chunks))
	var errs []error
	for _, ch := range chunks {
		c := &compiler{fset: fset}
		c.file = fset.File(ch.Name)
		out = append(out, c.compileChunk(ch))
		errs = append(errs, c.errs...)
	}
	if len(errs) > 0 {
		return out, fmt.Errorf("compiler: %d error(s), first: %w", len(errs), errs[0])
	}
	return out, nil
}

// compiler is the top-level compile-time state (mirrors the teacher's
// pcomp/fcomp split: this struct plays pcomp's role, frame plays fcomp's).
type compiler struct {
	fset *token.FileSet
	file *token.File

	chunk *Chunk
	fr    *frame

	errs []error
}

func (c *compiler) errorf(pos token.Pos, format string, args ...interface{}) {
	p := token.Position{Line: 1}
	if c.file != nil {
		p = c.file.Position(pos)
	}
	c.errs = append(c.errs, fmt.Errorf("%s: %s", p, fmt.Sprintf(format, args...)))
}

func (c *compiler) compileChunk(ch *ast.Chunk) *Chunk {
	c.chunk = &Chunk{SourcePath: ch.Name}
	if ch.Constants != nil {
		// copy rather than alias: internConstant may grow this slice while
		// compiling meta-key names, and must never clobber the AST's own pool.
		c.chunk.Constants = append([]interface{}(nil), ch.Constants.Values...)
	}
	c.fr = newFrame(nil)
	c.prepassLocals(c.fr, nil, ch.Block)
	last := c.compileBlockResult(ch.Block)
	if !endsInTerminalJump(ch.Block) {
		c.emit(Return)
		c.emitReg(last)
	}
	return c.chunk
}

// endsInTerminalJump reports whether b's last node already transfers
// control unconditionally (return/throw), making a trailing Return
// redundant.
func endsInTerminalJump(b *ast.Block) bool {
	if len(b.Nodes) == 0 {
		return false
	}
	switch b.Nodes[len(b.Nodes)-1].(type) {
	case *ast.ReturnExpr, *ast.ThrowExpr:
		return true
	default:
		return false
	}
}

// --- byte-level emission helpers ---

func (c *compiler) emit(op Opcode) { c.chunk.Bytes = append(c.chunk.Bytes, byte(op)) }
func (c *compiler) emitReg(r int) { c.chunk.Bytes = append(c.chunk.Bytes, byte(r)) }
func (c *compiler) emitByte(b byte) { c.chunk.Bytes = append(c.chunk.Bytes, b) }
func (c *compiler) emitU16(v int) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(v))
	c.chunk.Bytes = append(c.chunk.Bytes, buf[:]...)
}
func (c *compiler) emitU32(v int32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	c.chunk.Bytes = append(c.chunk.Bytes, buf[:]...)
}

func (c *compiler) ip() int { return len(c.chunk.Bytes) }

// emitJumpPlaceholder emits op followed by a 2-byte placeholder, returning
// the byte offset of the placeholder for patchJumpHere/patchJumpTo.
func (c *compiler) emitJumpPlaceholder(op Opcode) int {
	c.emit(op)
	pos := c.ip()
	c.emitU16(0)
	return pos
}

func (c *compiler) emitCondJumpPlaceholder(op Opcode, cond int) int {
	c.emit(op)
	c.emitReg(cond)
	pos := c.ip()
	c.emitU16(0)
	return pos
}

// patchJumpHere patches the 2-byte operand at pos to jump to the current ip.
func (c *compiler) patchJumpHere(pos int) { c.patchJumpTo(pos, c.ip()) }

func (c *compiler) patchJumpTo(pos, target int) {
	offset := target - (pos + 2)
	binary.BigEndian.PutUint16(c.chunk.Bytes[pos:pos+2], uint16(int16(offset)))
}

// emitJumpBack emits a backward jump to target (used for loop re-checks).
func (c *compiler) emitJumpBack(target int) {
	c.emit(JumpBack)
	magnitude := c.ip() + 2 - target
	c.emitU16(magnitude)
}

func (c *compiler) emitCopy(dst, src int) {
	if dst == src {
		return
	}
	c.emit(Copy)
	c.emitReg(dst)
	c.emitReg(src)
}

// emitConstRef emits the Load opcode pair (short/long) appropriate for
// constIdx, writing into dst.
func (c *compiler) emitConstRef(short, long Opcode, dst int, constIdx int32) {
	if constIdx >= 0 && constIdx < 256 {
		c.emit(short)
		c.emitReg(dst)
		c.emitByte(byte(constIdx))
		return
	}
	c.emit(long)
	c.emitReg(dst)
	c.emitU32(constIdx)
}

const maxRegister = 255

// pushTemp reserves a fresh temporary register, raising a compile error
// (spec §7 "register exhaustion") instead of silently wrapping past the
// 1-byte register operand's range.
func (c *compiler) pushTemp(pos token.Pos) int {
	r := c.fr.pushTemp()
	if r > maxRegister {
		c.errorf(pos, "function uses too many registers (limit %d)", maxRegister)
	}
	return r
}

// intoNewTemp compiles n into a freshly reserved temporary register,
// copying if compileExpr happened to return an existing (non-temporary)
// register, and discards any sub-expression temporaries n allocated.
func (c *compiler) intoNewTemp(n ast.Node) int {
	_, pos := n.Span()
	dst := c.pushTemp(pos)
	mark := c.fr.mark()
	r := c.compileExpr(n)
	c.emitCopy(dst, r)
	c.fr.popTemps(mark)
	return dst
}

// intoReg compiles n, copying into an already-reserved dst register.
func (c *compiler) intoReg(n ast.Node, dst int) {
	mark := c.fr.mark()
	r := c.compileExpr(n)
	c.emitCopy(dst, r)
	c.fr.popTemps(mark)
}

// compileBlockResult compiles every node of b in order, discarding the
// value of all but the last, and returns the register holding the block's
// value (Null if b is empty). Temporaries used by each statement are
// released before the next one is compiled (spec §4.2's per-sub-expression
// reserve/commit discipline is simplified here to per-statement release).
func (c *compiler) compileBlockResult(b *ast.Block) int {
	if len(b.Nodes) == 0 {
		dst := c.pushTemp(b.Start)
		c.emit(SetNull)
		c.emitReg(dst)
		return dst
	}
	for i, n := range b.Nodes {
		if i == len(b.Nodes)-1 {
			return c.intoNewTemp(n)
		}
		mark := c.fr.mark()
		c.compileExpr(n)
		c.fr.popTemps(mark)
	}
	panic("unreachable")
}

func (c *compiler) pos(n ast.Node) token.Pos {
	p, _ := n.Span()
	return p
}

var arithOps = map[token.Token]Opcode{
	token.PLUS: Add, token.MINUS: Sub, token.STAR: Mul, token.SLASH: Div, token.PERCENT: Rem,
}

var compareOps = map[token.Token]Opcode{
	token.LT: Less, token.LE: LessEq, token.GT: Greater, token.GE: GreaterEq,
	token.EQL: Equal, token.NEQ: NotEqual,
}

var compoundToPlain = map[token.Token]token.Token{
	token.PLUS_EQ: token.PLUS, token.MINUS_EQ: token.MINUS,
	token.STAR_EQ: token.STAR, token.SLASH_EQ: token.SLASH, token.PERCENT_EQ: token.PERCENT,
}

// compileExpr compiles n, returning the register holding its value. For a
// bare reference to a local/cell variable this is the variable's own
// permanent register (no copy); everything else materializes into a fresh
// temporary. Callers that need the result to survive further sibling
// compilation should use intoNewTemp instead.
func (c *compiler) compileExpr(n ast.Node) int {
	// record the instructions emitted for n against n's source position;
	// inner nodes finish first, so PosForIP finds the innermost entry.
	start := c.ip()
	defer func() {
		if c.file != nil && n != nil && c.ip() > start {
			c.chunk.Debug = append(c.chunk.Debug, DebugEntry{StartIP: start, EndIP: c.ip(), Pos: c.file.Position(c.pos(n))})
		}
	}()
	switch n := n.(type) {
	case *ast.LiteralExpr:
		return c.compileLiteral(n)
	case *ast.IdentExpr:
		return c.compileIdent(n)
	case *ast.WildcardExpr:
		dst := c.pushTemp(n.Start)
		c.emit(SetNull)
		c.emitReg(dst)
		return dst
	case *ast.ArrayLikeExpr:
		return c.compileArrayLike(n)
	case *ast.MapExpr:
		return c.compileMapExpr(n)
	case *ast.RangeExpr:
		return c.compileRange(n)
	case *ast.BinOpExpr:
		return c.compileBinOp(n)
	case *ast.UnaryOpExpr:
		return c.compileUnaryOp(n)
	case *ast.LookupExpr:
		return c.compileLookup(n)
	case *ast.IfExpr:
		return c.compileIf(n)
	case *ast.MatchExpr:
		return c.compileMatch(n)
	case *ast.SwitchExpr:
		return c.compileSwitch(n)
	case *ast.ForExpr:
		return c.compileFor(n)
	case *ast.WhileExpr:
		return c.compileWhile(n)
	case *ast.UntilExpr:
		return c.compileUntil(n)
	case *ast.LoopExpr:
		return c.compileLoop(n)
	case *ast.BreakExpr:
		return c.compileBreak(n)
	case *ast.ContinueExpr:
		return c.compileContinue(n)
	case *ast.ReturnExpr:
		return c.compileReturn(n)
	case *ast.YieldExpr:
		return c.compileYield(n)
	case *ast.ThrowExpr:
		return c.compileThrow(n)
	case *ast.TryExpr:
		return c.compileTry(n)
	case *ast.AssignExpr:
		return c.compileAssign(n)
	case *ast.FuncExpr:
		return c.compileFuncLiteral(n)
	case *ast.ImportExpr:
		return c.compileImport(n)
	case *ast.FromImportExpr:
		return c.compileFromImport(n)
	case *ast.ExportExpr:
		return c.compileExport(n)
	case *ast.InterpStringExpr:
		return c.compileInterpString(n)
	case *ast.DebugExpr:
		return c.compileDebug(n)
	case *ast.Block:
		return c.compileBlockResult(n)
	case *ast.BadExpr:
		dst := c.pushTemp(n.Start)
		c.emit(SetNull)
		c.emitReg(dst)
		return dst
	default:
		panic(fmt.Sprintf("compiler: unhandled node %T", n))
	}
}

func (c *compiler) compileLiteral(n *ast.LiteralExpr) int {
	dst := c.pushTemp(n.Start)
	switch n.Kind {
	case ast.LitNull:
		c.emit(SetNull)
		c.emitReg(dst)
	case ast.LitBool:
		c.emit(SetBool)
		c.emitReg(dst)
		if n.Int != 0 {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
	case ast.LitInt:
		if n.SmallInt {
			c.emit(SetNumber)
			c.emitReg(dst)
			c.emitByte(byte(int8(n.Int)))
		} else {
			c.emitConstRef(LoadInt, LoadIntLong, dst, n.ConstIndex)
		}
	case ast.LitFloat:
		c.emitConstRef(LoadFloat, LoadFloatLong, dst, n.ConstIndex)
	case ast.LitString:
		c.emitConstRef(LoadString, LoadStringLong, dst, n.ConstIndex)
	}
	return dst
}

func (c *compiler) compileIdent(n *ast.IdentExpr) int {
	b, ok := n.Binding.(*resolver.Binding)
	if !ok {
		dst := c.pushTemp(n.Start)
		c.emit(SetNull)
		c.emitReg(dst)
		return dst
	}
	switch b.Scope {
	case resolver.Local, resolver.Cell:
		if r, ok := c.fr.locals[b]; ok {
			return r
		}
		c.errorf(n.Start, "internal: no register assigned for %s", n.Name)
		return c.pushTemp(n.Start)
	case resolver.Free:
		dst := c.pushTemp(n.Start)
		c.emit(LoadNonLocal)
		c.emitReg(dst)
		c.emitByte(byte(b.Index))
		return dst
	case resolver.Predeclared, resolver.Universal:
		dst := c.pushTemp(n.Start)
		c.emit(LoadGlobal)
		c.emitReg(dst)
		c.emitU16(int(n.ConstIndex))
		return dst
	default:
		c.errorf(n.Start, "undefined: %s", n.Name)
		dst := c.pushTemp(n.Start)
		c.emit(SetNull)
		c.emitReg(dst)
		return dst
	}
}

func (c *compiler) compileArrayLike(n *ast.ArrayLikeExpr) int {
	seq := c.pushTemp(n.Left)
	c.emit(SequenceStart)
	c.emitReg(seq)
	for _, it := range n.Items {
		if el, ok := it.(*ast.EllipsisExpr); ok {
			_ = el
			// spread of a preceding iterable value is not reachable here: list
			// literals don't accept a bare Ellipsis item in this grammar.
			continue
		}
		mark := c.fr.mark()
		v := c.compileExpr(it)
		c.emit(SequencePush)
		c.emitReg(seq)
		c.emitReg(v)
		c.fr.popTemps(mark)
	}
	dst := c.pushTemp(n.Left)
	if n.Type == token.LPAREN {
		c.emit(SequenceToTuple)
	} else {
		c.emit(SequenceToList)
	}
	c.emitReg(dst)
	c.emitReg(seq)
	return dst
}

func (c *compiler) compileMapExpr(n *ast.MapExpr) int {
	dst := c.pushTemp(n.Start)
	c.emit(MakeMap)
	c.emitReg(dst)
	c.emitU16(len(n.Items))
	for _, it := range n.Items {
		c.compileMapEntry(dst, it)
	}
	return dst
}

func (c *compiler) compileMapEntry(obj int, it *ast.MapEntry) {
	mark := c.fr.mark()
	defer c.fr.popTemps(mark)

	switch key := it.Key.Kind.(type) {
	case *ast.MetaExpr:
		val := c.compileExpr(it.Value)
		switch key.Kind {
		case ast.MetaBinOp:
			c.emit(MetaInsert)
			c.emitReg(obj)
			c.emitByte(byte(key.Op))
			c.emitReg(val)
		default:
			c.emit(MetaInsertNamed)
			c.emitReg(obj)
			c.emitByte(byte(key.Kind))
			nameIdx := c.internConstant(key.Name)
			c.emitU16(nameIdx)
			c.emitReg(val)
		}
	case *ast.IdentExpr:
		val := c.compileExpr(it.Value)
		c.emit(MapInsertString)
		c.emitReg(obj)
		c.emitU16(int(key.ConstIndex))
		c.emitReg(val)
	case *ast.LiteralExpr:
		if key.Kind == ast.LitString {
			val := c.compileExpr(it.Value)
			c.emit(MapInsertString)
			c.emitReg(obj)
			c.emitU16(int(key.ConstIndex))
			c.emitReg(val)
			return
		}
		keyReg := c.compileExpr(key)
		val := c.compileExpr(it.Value)
		c.emit(MapInsert)
		c.emitReg(obj)
		c.emitReg(keyReg)
		c.emitReg(val)
	default:
		keyReg := c.compileExpr(it.Key.Kind)
		val := c.compileExpr(it.Value)
		c.emit(MapInsert)
		c.emitReg(obj)
		c.emitReg(keyReg)
		c.emitReg(val)
	}
}

// internConstant appends a string to the chunk's constant pool. Used for
// meta-key names, which the parser does not already intern (MetaExpr.Name
// is a plain string, not a ConstIndex).
func (c *compiler) internConstant(s string) int {
	for i, v := range c.chunk.Constants {
		if sv, ok := v.(string); ok && sv == s {
			return i
		}
	}
	c.chunk.Constants = append(c.chunk.Constants, s)
	return len(c.chunk.Constants) - 1
}

func (c *compiler) compileRange(n *ast.RangeExpr) int {
	var startReg, endReg int
	if n.Start != nil {
		startReg = c.compileExpr(n.Start)
	}
	if n.End != nil {
		endReg = c.compileExpr(n.End)
	}
	dst := c.pushTemp(n.Op)
	switch {
	case n.Start != nil && n.End != nil:
		if n.Inclusive {
			c.emit(RangeInclusive)
		} else {
			c.emit(Range)
		}
		c.emitReg(dst)
		c.emitReg(startReg)
		c.emitReg(endReg)
	case n.Start != nil:
		c.emit(RangeFrom)
		c.emitReg(dst)
		c.emitReg(startReg)
	case n.End != nil:
		if n.Inclusive {
			c.emit(RangeToInclusive)
		} else {
			c.emit(RangeTo)
		}
		c.emitReg(dst)
		c.emitReg(endReg)
	default:
		c.emit(RangeFull)
		c.emitReg(dst)
	}
	return dst
}

func (c *compiler) compileBinOp(n *ast.BinOpExpr) int {
	switch n.Op {
	case token.AND, token.OR:
		return c.compileShortCircuit(n)
	case token.PIPEOP:
		return c.compilePipe(n)
	}
	l := c.compileExpr(n.Left)
	r := c.compileExpr(n.Right)
	dst := c.pushTemp(n.OpPos)
	if op, ok := arithOps[n.Op]; ok {
		c.emit(op)
	} else if op, ok := compareOps[n.Op]; ok {
		c.emit(op)
	} else {
		c.errorf(n.OpPos, "unsupported binary operator %s", n.Op.GoString())
		c.emit(Add)
	}
	c.emitReg(dst)
	c.emitReg(l)
	c.emitReg(r)
	return dst
}

func (c *compiler) compileShortCircuit(n *ast.BinOpExpr) int {
	dst := c.pushTemp(n.OpPos)
	c.intoReg(n.Left, dst)
	var jmp int
	if n.Op == token.AND {
		jmp = c.emitCondJumpPlaceholder(JumpIfFalse, dst)
	} else {
		jmp = c.emitCondJumpPlaceholder(JumpIfTrue, dst)
	}
	c.intoReg(n.Right, dst)
	c.patchJumpHere(jmp)
	return dst
}

func (c *compiler) compilePipe(n *ast.BinOpExpr) int {
	arg := c.compileExpr(n.Left)
	fn := c.compileExpr(n.Right)
	argsStart := c.pushTemp(n.OpPos)
	c.emitCopy(argsStart, arg)
	dst := c.pushTemp(n.OpPos)
	c.emit(Call)
	c.emitReg(dst)
	c.emitReg(fn)
	c.emitReg(argsStart)
	c.emitByte(1)
	return dst
}

func (c *compiler) compileUnaryOp(n *ast.UnaryOpExpr) int {
	src := c.compileExpr(n.Right)
	dst := c.pushTemp(n.OpPos)
	if n.Op == token.NOT {
		c.emit(Not)
	} else {
		c.emit(Neg)
	}
	c.emitReg(dst)
	c.emitReg(src)
	return dst
}

// compileLookup compiles a chain of .id / ["key"] / [idx] / (args) steps
// folded left to right over Root, each step consuming the previous step's
// result register (spec §4.3 "lookup chain").
func (c *compiler) compileLookup(n *ast.LookupExpr) int {
	cur := c.compileExpr(n.Root)
	for _, step := range n.Chain {
		cur = c.compileLookupStep(cur, step)
	}
	return cur
}

func (c *compiler) compileLookupStep(obj int, step *ast.LookupStep) int {
	switch {
	case step.Id != nil:
		dst := c.pushTemp(step.Pos)
		c.emit(Access)
		c.emitReg(dst)
		c.emitReg(obj)
		c.emitU16(int(step.Id.ConstIndex))
		return dst
	case step.Str != nil:
		key := c.compileExpr(step.Str)
		dst := c.pushTemp(step.Pos)
		c.emit(AccessString)
		c.emitReg(dst)
		c.emitReg(obj)
		c.emitReg(key)
		return dst
	case step.Index != nil:
		key := c.compileExpr(step.Index)
		dst := c.pushTemp(step.Pos)
		c.emit(Index)
		c.emitReg(dst)
		c.emitReg(obj)
		c.emitReg(key)
		return dst
	case step.Call != nil:
		return c.compileCallStep(obj, step)
	default:
		panic("compiler: empty lookup step")
	}
}

func (c *compiler) compileCallStep(fn int, step *ast.LookupStep) int {
	args := step.Call.Args
	if len(args) == 0 {
		dst := c.pushTemp(step.Pos)
		c.emit(Call)
		c.emitReg(dst)
		c.emitReg(fn)
		c.emitReg(0)
		c.emitByte(0)
		return dst
	}
	var argsStart int
	for i, a := range args {
		r := c.intoNewTemp(a)
		if i == 0 {
			argsStart = r
		}
	}
	dst := c.pushTemp(step.Pos)
	c.emit(Call)
	c.emitReg(dst)
	c.emitReg(fn)
	c.emitReg(argsStart)
	c.emitByte(byte(len(args)))
	return dst
}

// compileIf compiles `if cond then A [else if ... ] [else B]`, leaving the
// taken branch's value in a single shared result register (every branch,
// even an absent else, evaluates to Null per spec §4.1 "if is an
// expression").
func (c *compiler) compileIf(n *ast.IfExpr) int {
	dst := c.pushTemp(n.Start)
	mark := c.fr.mark()
	cond := c.compileExpr(n.Cond)
	jmpFalse := c.emitCondJumpPlaceholder(JumpIfFalse, cond)
	c.fr.popTemps(mark)
	c.intoReg(n.Then, dst)
	jmpEnd := c.emitJumpPlaceholder(Jump)
	c.patchJumpHere(jmpFalse)
	switch {
	case n.ElseIf != nil:
		c.intoReg(n.ElseIf, dst)
	case n.Else != nil:
		c.intoReg(n.Else, dst)
	default:
		c.emit(SetNull)
		c.emitReg(dst)
	}
	c.patchJumpHere(jmpEnd)
	return dst
}

func (c *compiler) compileMatch(n *ast.MatchExpr) int {
	dst := c.pushTemp(n.Start)
	subject := c.compileExpr(n.Value)
	c.fr.popTemps(subject + 1)

	var endJumps []int
	for _, arm := range n.Arms {
		var armFail, armOK []int
		for i, pat := range arm.Patterns {
			failJumps := c.compilePattern(pat, subject)
			if i < len(arm.Patterns)-1 {
				// an `or` alternative: on full match of this alt, skip straight to
				// the guard/body; otherwise fall through to try the next alt.
				okJump := c.emitJumpPlaceholder(Jump)
				for _, fj := range failJumps {
					c.patchJumpHere(fj)
				}
				armOK = append(armOK, okJump)
				continue
			}
			armFail = append(armFail, failJumps...)
		}
		// the `or`-alternative success jumps land here, on the guard/body;
		// armFail holds only the final alternative's failure jumps, which skip
		// the body.
		for _, oj := range armOK {
			c.patchJumpHere(oj)
		}
		bodyFail := armFail
		if arm.Guard != nil {
			gmark := c.fr.mark()
			g := c.compileExpr(arm.Guard)
			guardFail := c.emitCondJumpPlaceholder(JumpIfFalse, g)
			c.fr.popTemps(gmark)
			bodyFail = append(bodyFail, guardFail)
		}
		c.intoReg(arm.Body, dst)
		endJumps = append(endJumps, c.emitJumpPlaceholder(Jump))
		for _, fj := range bodyFail {
			c.patchJumpHere(fj)
		}
	}
	c.emit(SetNull)
	c.emitReg(dst)
	for _, ej := range endJumps {
		c.patchJumpHere(ej)
	}
	return dst
}

// compilePattern compiles one match-arm pattern tested against the value in
// subject, returning the list of not-yet-patched jump locations to take on
// mismatch. It binds any identifiers in the pattern directly into their
// prepass-assigned registers.
func (c *compiler) compilePattern(pat ast.Node, subject int) []int {
	switch pat := pat.(type) {
	case *ast.WildcardExpr:
		return nil
	case *ast.IdentExpr:
		if b, ok := pat.Binding.(*resolver.Binding); ok && (b.Scope == resolver.Local || b.Scope == resolver.Cell) {
			if r, ok := c.fr.locals[b]; ok {
				c.emitCopy(r, subject)
				return nil
			}
		}
		mark := c.fr.mark()
		val := c.compileExpr(pat)
		dst := c.pushTemp(pat.Start)
		c.emit(Equal)
		c.emitReg(dst)
		c.emitReg(subject)
		c.emitReg(val)
		fail := c.emitCondJumpPlaceholder(JumpIfFalse, dst)
		c.fr.popTemps(mark)
		return []int{fail}
	case *ast.LiteralExpr:
		mark := c.fr.mark()
		val := c.compileExpr(pat)
		dst := c.pushTemp(pat.Start)
		c.emit(Equal)
		c.emitReg(dst)
		c.emitReg(subject)
		c.emitReg(val)
		fail := c.emitCondJumpPlaceholder(JumpIfFalse, dst)
		c.fr.popTemps(mark)
		return []int{fail}
	case *ast.RangeExpr:
		mark := c.fr.mark()
		lo, hi := int(-1), int(-1)
		if pat.Start != nil {
			lo = c.compileExpr(pat.Start)
		}
		if pat.End != nil {
			hi = c.compileExpr(pat.End)
		}
		var fails []int
		if lo >= 0 {
			dst := c.pushTemp(pat.Op)
			c.emit(GreaterEq)
			c.emitReg(dst)
			c.emitReg(subject)
			c.emitReg(lo)
			fails = append(fails, c.emitCondJumpPlaceholder(JumpIfFalse, dst))
		}
		if hi >= 0 {
			dst := c.pushTemp(pat.Op)
			op := Less
			if pat.Inclusive {
				op = LessEq
			}
			c.emit(op)
			c.emitReg(dst)
			c.emitReg(subject)
			c.emitReg(hi)
			fails = append(fails, c.emitCondJumpPlaceholder(JumpIfFalse, dst))
		}
		c.fr.popTemps(mark)
		return fails
	case *ast.ArrayLikeExpr:
		return c.compileTuplePattern(pat, subject)
	default:
		return nil
	}
}

func (c *compiler) compileTuplePattern(pat *ast.ArrayLikeExpr, subject int) []int {
	var fails []int
	hasRest := false
	for _, it := range pat.Items {
		if _, ok := it.(*ast.EllipsisExpr); ok {
			hasRest = true
		}
	}
	if hasRest {
		c.emit(CheckSizeMin)
	} else {
		c.emit(CheckSizeEqual)
	}
	c.emitReg(subject)
	c.emitByte(byte(len(pat.Items) - boolToInt(hasRest)))
	szPos := c.ip()
	c.emitU16(0)
	fails = append(fails, szPos)

	for i, it := range pat.Items {
		if el, ok := it.(*ast.EllipsisExpr); ok {
			if el.Name != "" {
				if b, ok := binding(el); ok {
					if r, ok := c.fr.locals[b]; ok {
						mark := c.fr.mark()
						startReg := c.pushTemp(el.Start)
						c.emit(SetNumber)
						c.emitReg(startReg)
						c.emitByte(byte(int8(i)))
						rangeReg := c.pushTemp(el.Start)
						c.emit(RangeFrom)
						c.emitReg(rangeReg)
						c.emitReg(startReg)
						c.emit(Index)
						c.emitReg(r)
						c.emitReg(subject)
						c.emitReg(rangeReg)
						c.fr.popTemps(mark)
					}
				}
			}
			continue
		}
		mark := c.fr.mark()
		idxReg := c.pushTemp(c.pos(it))
		c.emit(SetNumber)
		c.emitReg(idxReg)
		c.emitByte(byte(int8(i)))
		elemIdx := c.pushTemp(c.pos(it))
		c.emit(Index)
		c.emitReg(elemIdx)
		c.emitReg(subject)
		c.emitReg(idxReg)
		fails = append(fails, c.compilePattern(it, elemIdx)...)
		c.fr.popTemps(mark)
	}
	return fails
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- loops ---

func (c *compiler) pushLoop() *loopCtx {
	lc := &loopCtx{}
	c.fr.loops = append(c.fr.loops, lc)
	return lc
}

func (c *compiler) popLoop() *loopCtx {
	lc := c.fr.loops[len(c.fr.loops)-1]
	c.fr.loops = c.fr.loops[:len(c.fr.loops)-1]
	return lc
}

func (c *compiler) compileWhile(n *ast.WhileExpr) int {
	dst := c.pushTemp(n.Start)
	c.emit(SetNull)
	c.emitReg(dst)
	lc := c.pushLoop()
	lc.resultReg = dst
	lc.continueIP = c.ip()
	mark := c.fr.mark()
	cond := c.compileExpr(n.Cond)
	exitJump := c.emitCondJumpPlaceholder(JumpIfFalse, cond)
	c.fr.popTemps(mark)
	c.intoReg(n.Body, dst)
	c.emitJumpBack(lc.continueIP)
	c.patchJumpHere(exitJump)
	for _, b := range lc.breaks {
		c.patchJumpHere(b)
	}
	c.popLoop()
	return dst
}

func (c *compiler) compileUntil(n *ast.UntilExpr) int {
	dst := c.pushTemp(n.Start)
	c.emit(SetNull)
	c.emitReg(dst)
	lc := c.pushLoop()
	lc.resultReg = dst
	lc.continueIP = c.ip()
	mark := c.fr.mark()
	cond := c.compileExpr(n.Cond)
	exitJump := c.emitCondJumpPlaceholder(JumpIfTrue, cond)
	c.fr.popTemps(mark)
	c.intoReg(n.Body, dst)
	c.emitJumpBack(lc.continueIP)
	c.patchJumpHere(exitJump)
	for _, b := range lc.breaks {
		c.patchJumpHere(b)
	}
	c.popLoop()
	return dst
}

func (c *compiler) compileLoop(n *ast.LoopExpr) int {
	dst := c.pushTemp(n.Start)
	c.emit(SetNull)
	c.emitReg(dst)
	lc := c.pushLoop()
	lc.resultReg = dst
	lc.continueIP = c.ip()
	mark := c.fr.mark()
	c.intoReg(n.Body, dst)
	c.fr.popTemps(mark)
	c.emitJumpBack(lc.continueIP)
	for _, b := range lc.breaks {
		c.patchJumpHere(b)
	}
	c.popLoop()
	return dst
}

// compileFor compiles `for vars in iterable body` by driving an Iterator
// built from iterable with MakeIterator/IterNext (spec §4.1 "for"), binding
// each loop variable's prepass-assigned register every iteration.
func (c *compiler) compileFor(n *ast.ForExpr) int {
	dst := c.pushTemp(n.Start)
	c.emit(SetNull)
	c.emitReg(dst)

	src := c.compileExpr(n.Iterable)
	iter := c.pushTemp(n.Start)
	c.emit(MakeIterator)
	c.emitReg(iter)
	c.emitReg(src)
	c.fr.popTemps(iter + 1)

	lc := c.pushLoop()
	lc.resultReg = dst
	lc.continueIP = c.ip()
	itemMark := c.fr.mark()
	item := c.pushTemp(n.Start)
	c.emit(IterNext)
	c.emitReg(item)
	c.emitReg(iter)
	donePos := c.ip()
	c.emitU16(0)

	c.bindForVars(n.Vars, item)
	c.fr.popTemps(itemMark)

	c.intoReg(n.Body, dst)
	c.emitJumpBack(lc.continueIP)
	c.patchJumpHere(donePos)
	for _, b := range lc.breaks {
		c.patchJumpHere(b)
	}
	c.popLoop()
	return dst
}

// bindForVars copies the per-iteration value in item into each loop
// variable's register, destructuring a multi-variable `for a, b in ...`
// from the Tuple IterNext produced for map/tuple iteration.
func (c *compiler) bindForVars(vars []ast.Node, item int) {
	if len(vars) == 1 {
		c.bindForVar(vars[0], item)
		return
	}
	for i, v := range vars {
		mark := c.fr.mark()
		idxReg := c.pushTemp(c.pos(v))
		c.emit(SetNumber)
		c.emitReg(idxReg)
		c.emitByte(byte(int8(i)))
		elem := c.pushTemp(c.pos(v))
		c.emit(Index)
		c.emitReg(elem)
		c.emitReg(item)
		c.emitReg(idxReg)
		c.bindForVar(v, elem)
		c.fr.popTemps(mark)
	}
}

func (c *compiler) bindForVar(v ast.Node, src int) {
	switch v := v.(type) {
	case *ast.WildcardExpr:
		return
	case *ast.IdentExpr:
		if b, ok := v.Binding.(*resolver.Binding); ok {
			if r, ok := c.fr.locals[b]; ok {
				c.emitCopy(r, src)
			}
		}
	}
}

func (c *compiler) compileBreak(n *ast.BreakExpr) int {
	if len(c.fr.loops) == 0 {
		c.errorf(n.Start, "break outside of a loop")
		dst := c.pushTemp(n.Start)
		c.emit(SetNull)
		c.emitReg(dst)
		return dst
	}
	lc := c.fr.loops[len(c.fr.loops)-1]
	if n.Value != nil {
		c.intoReg(n.Value, lc.resultReg)
	}
	jmp := c.emitJumpPlaceholder(Jump)
	lc.breaks = append(lc.breaks, jmp)
	dst := c.pushTemp(n.Start)
	c.emit(SetNull)
	c.emitReg(dst)
	return dst
}

func (c *compiler) compileContinue(n *ast.ContinueExpr) int {
	dst := c.pushTemp(n.Start)
	c.emit(SetNull)
	c.emitReg(dst)
	if len(c.fr.loops) == 0 {
		c.errorf(n.Start, "continue outside of a loop")
		return dst
	}
	lc := c.fr.loops[len(c.fr.loops)-1]
	c.emitJumpBack(lc.continueIP)
	return dst
}

func (c *compiler) compileReturn(n *ast.ReturnExpr) int {
	var src int
	if n.Value != nil {
		src = c.intoNewTemp(n.Value)
	} else {
		src = c.pushTemp(n.Start)
		c.emit(SetNull)
		c.emitReg(src)
	}
	c.emit(Return)
	c.emitReg(src)
	return src
}

func (c *compiler) compileYield(n *ast.YieldExpr) int {
	src := c.intoNewTemp(n.Value)
	c.emit(Yield)
	c.emitReg(src)
	return src
}

func (c *compiler) compileThrow(n *ast.ThrowExpr) int {
	src := c.intoNewTemp(n.Value)
	c.emit(Throw)
	c.emitReg(src)
	return src
}

func (c *compiler) compileTry(n *ast.TryExpr) int {
	dst := c.pushTemp(n.Start)
	catchReg := 0
	if n.CatchVar != nil {
		if b, ok := n.CatchVar.Binding.(*resolver.Binding); ok {
			if r, ok := c.fr.locals[b]; ok {
				catchReg = r
			}
		}
	}
	c.emit(TryStart)
	c.emitReg(catchReg)
	catchOffsetPos := c.ip()
	c.emitU16(0)

	c.intoReg(n.Body, dst)
	c.emit(TryEnd)
	endJump := c.emitJumpPlaceholder(Jump)

	c.patchJumpHere(catchOffsetPos)
	if n.CatchBody != nil {
		c.intoReg(n.CatchBody, dst)
	} else {
		c.emit(SetNull)
		c.emitReg(dst)
	}
	c.patchJumpHere(endJump)

	if n.Finally != nil {
		mark := c.fr.mark()
		c.compileExpr(n.Finally)
		c.fr.popTemps(mark)
	}
	return dst
}

// --- assignment ---

// compileAssign compiles `let`/plain/compound, possibly multi-target,
// possibly multi-value assignment (spec §4.1 "Assignments"). Multi-value
// right-hand sides are staged into consecutive temporary registers so e.g.
// `a, b = b, a` reads all values before writing any target.
func (c *compiler) compileAssign(n *ast.AssignExpr) int {
	if len(n.Targets) == 1 && len(n.Values) == 1 && n.Op == token.EQ {
		return c.compileSingleAssign(n.Targets[0], n.Values[0])
	}
	if len(n.Targets) == 1 && n.Op != token.EQ {
		return c.compileCompoundAssign(n.Targets[0], n.Op, n.OpPos, n.Values[0])
	}

	mark := c.fr.mark()
	valsStart := -1
	for i, v := range n.Values {
		r := c.intoNewTemp(v)
		if i == 0 {
			valsStart = r
		}
	}
	if len(n.Values) == 1 && len(n.Targets) > 1 {
		// a single iterable value unpacked across multiple targets: materialize
		// it once, then index it positionally for each target.
		src := valsStart
		for i, t := range n.Targets {
			mark2 := c.fr.mark()
			idxReg := c.pushTemp(c.pos(t))
			c.emit(SetNumber)
			c.emitReg(idxReg)
			c.emitByte(byte(int8(i)))
			elem := c.pushTemp(c.pos(t))
			c.emit(Index)
			c.emitReg(elem)
			c.emitReg(src)
			c.emitReg(idxReg)
			c.assignTo(t, elem)
			c.fr.popTemps(mark2)
		}
	} else {
		for i, t := range n.Targets {
			c.assignTo(t, valsStart+i)
		}
	}
	c.fr.popTemps(mark)
	last := c.pushTemp(n.OpPos)
	c.emitCopy(last, valsStart+len(n.Values)-1)
	return last
}

func (c *compiler) compileSingleAssign(target, value ast.Node) int {
	src := c.compileExpr(value)
	c.assignTo(target, src)
	dst := c.pushTemp(c.pos(target))
	c.emitCopy(dst, src)
	return dst
}

func (c *compiler) compileCompoundAssign(target ast.Node, op token.Token, opPos token.Pos, value ast.Node) int {
	mark := c.fr.mark()
	cur := c.compileExpr(target)
	rhs := c.compileExpr(value)
	dst := c.pushTemp(opPos)
	plain, ok := compoundToPlain[op]
	if !ok {
		c.errorf(opPos, "unsupported compound assignment operator %s", op.GoString())
		plain = token.PLUS
	}
	c.emit(arithOps[plain])
	c.emitReg(dst)
	c.emitReg(cur)
	c.emitReg(rhs)
	c.assignTo(target, dst)
	c.fr.popTemps(mark)
	return c.intoNewTemp(target)
}

// assignTo stores src into target, which must satisfy ast.IsAssignable.
func (c *compiler) assignTo(target ast.Node, src int) {
	switch t := target.(type) {
	case *ast.WildcardExpr:
		return
	case *ast.IdentExpr:
		b, ok := t.Binding.(*resolver.Binding)
		if !ok {
			return
		}
		switch b.Scope {
		case resolver.Local, resolver.Cell:
			if r, ok := c.fr.locals[b]; ok {
				c.emitCopy(r, src)
			}
		case resolver.Free:
			c.errorf(t.Start, "cannot assign to captured variable %s from an inner scope", t.Name)
		default:
			c.errorf(t.Start, "cannot assign to %s", t.Name)
		}
	case *ast.LookupExpr:
		c.assignToLookup(t, src)
	default:
		c.errorf(c.pos(target), "invalid assignment target")
	}
}

// assignToLookup compiles every step of a lookup chain except the last,
// then emits a single SetIndex or MapInsertString write for the final step.
func (c *compiler) assignToLookup(n *ast.LookupExpr, src int) {
	obj := c.compileExpr(n.Root)
	for i, step := range n.Chain {
		last := i == len(n.Chain)-1
		if !last {
			obj = c.compileLookupStep(obj, step)
			continue
		}
		switch {
		case step.Id != nil:
			c.emitMapInsertOrSetIndexByName(obj, step.Id.ConstIndex, src)
		case step.Str != nil:
			keyReg := c.compileExpr(step.Str)
			c.emit(SetIndex)
			c.emitReg(obj)
			c.emitReg(keyReg)
			c.emitReg(src)
		case step.Index != nil:
			keyReg := c.compileExpr(step.Index)
			c.emit(SetIndex)
			c.emitReg(obj)
			c.emitReg(keyReg)
			c.emitReg(src)
		default:
			c.errorf(step.Pos, "invalid assignment lookup step")
		}
	}
}

func (c *compiler) emitMapInsertOrSetIndexByName(obj int, nameConstIdx int32, src int) {
	c.emit(MapInsertString)
	c.emitReg(obj)
	c.emitU16(int(nameConstIdx))
	c.emitReg(src)
}

// --- function literals ---

// compileFuncLiteral emits a Function header, the body inline (compiled in
// a fresh child frame), and a trailing Capture instruction per name in
// fn.AccessedNonLocals, in the order the resolver recorded them (spec §3
// "Frame.free_vars", §6 "Capture").
func (c *compiler) compileFuncLiteral(fn *ast.FuncExpr) int {
	dst := c.pushTemp(fn.Start)

	argCount, variadic, unpackedTuple := c.paramShape(fn.Params)
	captureCount := len(fn.AccessedNonLocals)

	c.emit(Function)
	c.emitReg(dst)
	c.emitByte(byte(argCount))
	c.emitByte(byte(captureCount))
	var flags byte
	if variadic {
		flags |= 1
	}
	if fn.IsGenerator {
		flags |= 2
	}
	if unpackedTuple {
		flags |= 4
	}
	c.emitByte(flags)
	sizePos := c.ip()
	c.emitU16(0)

	parent := c.fr
	child := newFrame(parent)
	c.fr = child
	c.prepassLocals(child, fn.Params, fn.Body)
	c.compileParamDestructures(fn.Params)
	c.compileFuncBody(fn)
	c.fr = parent

	c.patchJumpHere(sizePos)

	freeDecls := collectFreeDecls(fn.Body)
	for i, name := range fn.AccessedNonLocals {
		declIdent, ok := freeDecls[name]
		if !ok {
			c.errorf(fn.Start, "internal: no declaration found for captured name %s", name)
			continue
		}
		parentBinding, ok := declIdent.Binding.(*resolver.Binding)
		if !ok {
			c.errorf(fn.Start, "internal: unresolved capture source for %s", name)
			continue
		}
		var sourceIsCapture byte
		var sourceIdx int
		switch parentBinding.Scope {
		case resolver.Local, resolver.Cell:
			sourceIdx = parent.locals[parentBinding]
		case resolver.Free:
			sourceIsCapture = 1
			sourceIdx = parentBinding.Index
		default:
			c.errorf(fn.Start, "internal: capture source %s has unexpected scope", name)
			continue
		}
		c.emit(Capture)
		c.emitReg(dst)
		c.emitByte(byte(i))
		c.emitByte(sourceIsCapture)
		c.emitByte(byte(sourceIdx))
	}

	return dst
}

// compileFuncBody compiles fn's body in the already-installed child frame,
// appending a trailing Return of the body's value unless the body's last
// node already transfers control unconditionally.
func (c *compiler) compileFuncBody(fn *ast.FuncExpr) {
	last := c.compileBlockResult(fn.Body)
	if !endsInTerminalJump(fn.Body) {
		c.emit(Return)
		c.emitReg(last)
	}
}

// paramShape reports the function's positional argument count and whether
// it is variadic (last param is a rest param). unpackedTuple is always
// false: tuple-pattern parameters receive the raw argument and are
// destructured by the function body (see compileParamDestructures).
func (c *compiler) paramShape(params []*ast.FuncParam) (argCount int, variadic, unpackedTuple bool) {
	argCount = len(params)
	if n := len(params); n > 0 && params[n-1].Rest {
		variadic = true
	}
	return argCount, variadic, unpackedTuple
}

// compileParamDestructures emits the positional-unpack code for every
// `|(a, b)|`-style tuple parameter, reading the raw tuple already staged by
// the Call convention into that parameter's reserved register (1-based,
// one slot per parameter in declaration order, matching prepassLocals).
// A size mismatch throws rather than silently matching, since there is no
// sibling match arm to fall through to.
func (c *compiler) compileParamDestructures(params []*ast.FuncParam) {
	for i, p := range params {
		if p.Tuple == nil {
			continue
		}
		reg := i + 1
		fails := c.compileTuplePattern(p.Tuple, reg)
		if len(fails) == 0 {
			continue
		}
		ok := c.emitJumpPlaceholder(Jump)
		for _, f := range fails {
			c.patchJumpHere(f)
		}
		mark := c.fr.mark()
		msg := c.pushTemp(p.Tuple.Left)
		idx := int32(c.internConstant("argument tuple has the wrong number of elements"))
		c.emitConstRef(LoadString, LoadStringLong, msg, idx)
		c.emit(Throw)
		c.emitReg(msg)
		c.fr.popTemps(mark)
		c.patchJumpHere(ok)
	}
}

// collectFreeDecls walks body looking for the first Free-scope *ast.IdentExpr
// reference to each distinct name, then follows it back to the original
// declaring identifier via Binding.Decl (spec §3 "Binding.decl shared across
// Local/Cell/Free copies of the same declaration"). The result maps a
// captured name to the *ast.IdentExpr whose own (possibly Cell-promoted)
// Binding, read in the enclosing frame, is the Capture instruction's source.
func collectFreeDecls(body *ast.Block) map[string]*ast.IdentExpr {
	found := make(map[string]*ast.IdentExpr)
	var visit func(n ast.Node)
	visit = func(n ast.Node) {
		if n == nil {
			return
		}
		if id, ok := n.(*ast.IdentExpr); ok {
			if b, ok := id.Binding.(*resolver.Binding); ok && b.Scope == resolver.Free {
				if _, already := found[id.Name]; !already && b.Decl != nil {
					found[id.Name] = b.Decl
				}
			}
		}
		// n.Walk invokes the visitor once per direct child without recursing
		// itself, so calling visit on each child here is what drives the
		// descent (including into nested function literals, whose own free
		// references resolve against this same enclosing frame).
		n.Walk(func(child ast.Node) bool {
			visit(child)
			return false
		})
	}
	for _, n := range body.Nodes {
		visit(n)
	}
	return found
}

// --- switch ---

func (c *compiler) compileSwitch(n *ast.SwitchExpr) int {
	dst := c.pushTemp(n.Start)
	var endJumps []int
	var prevFail int = -1
	for _, arm := range n.Arms {
		if prevFail >= 0 {
			c.patchJumpHere(prevFail)
			prevFail = -1
		}
		if arm.Cond != nil {
			mark := c.fr.mark()
			cond := c.compileExpr(arm.Cond)
			prevFail = c.emitCondJumpPlaceholder(JumpIfFalse, cond)
			c.fr.popTemps(mark)
		}
		c.intoReg(arm.Body, dst)
		endJumps = append(endJumps, c.emitJumpPlaceholder(Jump))
	}
	if prevFail >= 0 {
		c.patchJumpHere(prevFail)
	}
	c.emit(SetNull)
	c.emitReg(dst)
	for _, ej := range endJumps {
		c.patchJumpHere(ej)
	}
	return dst
}

// --- import / export ---

func (c *compiler) compileImport(n *ast.ImportExpr) int {
	dst := c.pushTemp(n.Start)
	c.emit(Import)
	c.emitReg(dst)
	c.emitByte(byte(len(n.Path)))
	for _, seg := range n.Path {
		c.emitU16(int(seg.ConstIndex))
	}
	if b, ok := n.Binding.(*resolver.Binding); ok {
		if r, ok := c.fr.locals[b]; ok {
			c.emitCopy(r, dst)
		}
	}
	return dst
}

func (c *compiler) compileFromImport(n *ast.FromImportExpr) int {
	mod := c.pushTemp(n.Start)
	c.emit(Import)
	c.emitReg(mod)
	c.emitByte(byte(len(n.Module)))
	for _, seg := range n.Module {
		c.emitU16(int(seg.ConstIndex))
	}
	var last int
	for _, it := range n.Items {
		mark := c.fr.mark()
		val := c.pushTemp(n.Start)
		c.emit(Access)
		c.emitReg(val)
		c.emitReg(mod)
		c.emitU16(int(it.Name.ConstIndex))
		if b, ok := it.Binding.(*resolver.Binding); ok {
			if r, ok := c.fr.locals[b]; ok {
				c.emitCopy(r, val)
			}
		}
		last = val
		c.fr.popTemps(mark)
	}
	return last
}

func (c *compiler) compileExport(n *ast.ExportExpr) int {
	switch t := n.Target.(type) {
	case *ast.MetaExpr:
		val := c.intoNewTemp(n.Value)
		if t.Kind == ast.MetaBinOp {
			c.emit(MetaExport)
			c.emitByte(byte(t.Op))
			c.emitReg(val)
		} else {
			c.emit(MetaExportNamed)
			c.emitByte(byte(t.Kind))
			nameIdx := c.internConstant(t.Name)
			c.emitU16(nameIdx)
			c.emitReg(val)
		}
		return val
	case *ast.IdentExpr:
		val := c.intoNewTemp(n.Value)
		c.emit(ValueExport)
		c.emitU16(int(t.ConstIndex))
		c.emitReg(val)
		return val
	default:
		c.errorf(n.Start, "invalid export target")
		return c.intoNewTemp(n.Value)
	}
}

// --- string interpolation ---

func (c *compiler) compileInterpString(n *ast.InterpStringExpr) int {
	dst := c.pushTemp(n.Start)
	c.emit(StringStart)
	c.emitReg(dst)
	for i, lit := range n.Strings {
		if lit != "" {
			idx := c.internConstant(lit)
			c.emit(StringPushLiteral)
			c.emitReg(dst)
			c.emitU16(idx)
		}
		if i < len(n.Exprs) {
			mark := c.fr.mark()
			v := c.compileExpr(n.Exprs[i])
			c.emit(StringPush)
			c.emitReg(dst)
			c.emitReg(v)
			c.fr.popTemps(mark)
		}
	}
	c.emit(StringFinish)
	c.emitReg(dst)
	c.emitReg(dst)
	return dst
}

// --- debug ---

func (c *compiler) compileDebug(n *ast.DebugExpr) int {
	mark := c.fr.mark()
	v := c.compileExpr(n.Expr)
	textIdx := c.internConstant(n.ExprText)
	c.emit(Debug)
	c.emitU16(textIdx)
	c.emitReg(v)
	c.fr.popTemps(mark)
	dst := c.pushTemp(n.Start)
	c.emit(SetNull)
	c.emitReg(dst)
	return dst
}
