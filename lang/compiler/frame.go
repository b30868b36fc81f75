package compiler

import (
	"github.com/mna/koto/lang/ast"
	"github.com/mna/koto/lang/resolver"
)

// frame holds the compile-time state for one function body (or the
// top-level chunk, treated as a parameterless function) — spec §3 "Frame
// (compile-time)": the register assigned to each local/cell binding, the
// capture-slot index for each free variable, the in-flight temporary
// register stack, and the loop stack used to patch break jumps.
type frame struct {
	parent *frame

	// locals maps every Local/Cell binding belonging to this frame to its
	// permanent register, assigned once by prepassLocals before any
	// instruction is emitted (spec §3 "temporary base": registers below are
	// locals, above are temporaries).
	locals map[*resolver.Binding]int

	// tempBase is the first register available for temporaries: one past the
	// highest permanent local register.
	tempBase int
	// regTop is the next free temporary register; temporaries are pushed and
	// popped in LIFO order as sub-expressions are compiled.
	regTop int
	// localCount is the total number of permanent registers (self + args +
	// locals), i.e. tempBase itself.
	localCount int

	loops []*loopCtx
}

// loopCtx tracks a single for/while/until/loop nesting level so break
// produces a forward jump past the loop and continue a backward jump to the
// loop's condition re-check (spec §4.2 "loop break-list patching").
type loopCtx struct {
	continueIP int   // ip to jump back to for `continue`
	breaks     []int // patch locations (operand offset) needing the loop-exit ip
	resultReg  int   // register holding the loop expression's value, for `break value`
}

func newFrame(parent *frame) *frame {
	return &frame{
		parent: parent,
		locals: make(map[*resolver.Binding]int),
	}
}

// pushTemp reserves and returns the next free temporary register.
func (f *frame) pushTemp() int {
	r := f.regTop
	f.regTop++
	return r
}

// popTemps releases registers back down to mark, discarding any temporaries
// above it (spec §4.2 "push_register/pop_register/truncate_register_stack").
func (f *frame) popTemps(mark int) { f.regTop = mark }

// mark returns the current temporary-stack height, to be restored later via
// popTemps.
func (f *frame) mark() int { return f.regTop }

func binding(n ast.Node) (*resolver.Binding, bool) {
	switch n := n.(type) {
	case *ast.IdentExpr:
		if n.Binding == nil {
			return nil, false
		}
		b, ok := n.Binding.(*resolver.Binding)
		return b, ok
	case *ast.EllipsisExpr:
		if n.Binding == nil {
			return nil, false
		}
		b, ok := n.Binding.(*resolver.Binding)
		return b, ok
	default:
		return nil, false
	}
}

// prepassLocals walks body (and, for a function, its parameter list) and
// assigns a permanent register to every Local/Cell binding introduced
// within this frame, so that every reference compiled afterwards — no
// matter how early or late it appears lexically — resolves to the same
// register (spec §3 Frame "constant-index→local-register mapping").
//
// Register 0 is always reserved for self/instance (spec §3 "register 0 =
// instance/self"). Positional parameters occupy registers 1..argCount in
// declaration order, including wildcard and tuple-pattern parameters (which
// still consume a positional slot even though they bind no name directly,
// or bind names to later, non-positional registers for their destructured
// elements).
func (c *compiler) prepassLocals(fn *frame, params []*ast.FuncParam, body *ast.Block) {
	next := 1
	assign := func(b *resolver.Binding) int {
		if b == nil {
			return -1
		}
		if r, ok := fn.locals[b]; ok {
			return r
		}
		r := next
		fn.locals[b] = r
		next++
		return r
	}

	for _, p := range params {
		switch {
		case p.Ident != nil:
			assign(bindingOrPanic(p.Ident))
		case p.Wildcard != nil:
			next++ // reserve the positional slot, bind no name
		case p.Tuple != nil:
			next++ // reserve the positional slot for the raw tuple argument
		}
	}
	for _, p := range params {
		if p.Tuple == nil {
			continue
		}
		c.prepassPattern(fn, p.Tuple, &next, assign)
	}

	c.prepassBlock(fn, body, &next, assign)
	fn.localCount = next
	fn.tempBase = next
	fn.regTop = next
}

func bindingOrPanic(id *ast.IdentExpr) *resolver.Binding {
	b, ok := id.Binding.(*resolver.Binding)
	if !ok {
		panic("compiler: unresolved identifier " + id.Name)
	}
	return b
}

type assignFn func(*resolver.Binding) int

func (c *compiler) prepassPattern(fn *frame, n ast.Node, next *int, assign assignFn) {
	switch n := n.(type) {
	case *ast.IdentExpr:
		assign(bindingOrPanic(n))
	case *ast.WildcardExpr:
		// no binding
	case *ast.EllipsisExpr:
		if n.Name != "" {
			if b, ok := binding(n); ok {
				assign(b)
			}
		}
	case *ast.ArrayLikeExpr:
		for _, it := range n.Items {
			c.prepassPattern(fn, it, next, assign)
		}
	}
}

func (c *compiler) prepassBlock(fn *frame, b *ast.Block, next *int, assign assignFn) {
	for _, n := range b.Nodes {
		c.prepassNode(fn, n, next, assign)
	}
}

// prepassNode mirrors resolver.node's traversal shape closely enough to
// find every assignment target, pattern, and catch variable introduced in
// this frame, without descending into nested FuncExprs (those get their
// own frame and their own prepassLocals call).
func (c *compiler) prepassNode(fn *frame, n ast.Node, next *int, assign assignFn) {
	switch n := n.(type) {
	case *ast.ArrayLikeExpr:
		for _, it := range n.Items {
			c.prepassNode(fn, it, next, assign)
		}
	case *ast.MapExpr:
		for _, it := range n.Items {
			c.prepassNode(fn, it.Value, next, assign)
		}
	case *ast.RangeExpr:
		if n.Start != nil {
			c.prepassNode(fn, n.Start, next, assign)
		}
		if n.End != nil {
			c.prepassNode(fn, n.End, next, assign)
		}
	case *ast.BinOpExpr:
		c.prepassNode(fn, n.Left, next, assign)
		c.prepassNode(fn, n.Right, next, assign)
	case *ast.UnaryOpExpr:
		c.prepassNode(fn, n.Right, next, assign)
	case *ast.LookupExpr:
		c.prepassNode(fn, n.Root, next, assign)
		for _, step := range n.Chain {
			switch {
			case step.Str != nil:
				c.prepassNode(fn, step.Str, next, assign)
			case step.Index != nil:
				c.prepassNode(fn, step.Index, next, assign)
			case step.Call != nil:
				for _, a := range step.Call.Args {
					c.prepassNode(fn, a, next, assign)
				}
			}
		}
	case *ast.IfExpr:
		c.prepassNode(fn, n.Cond, next, assign)
		if n.Then != nil {
			c.prepassBlock(fn, n.Then, next, assign)
		}
		if n.ElseIf != nil {
			c.prepassNode(fn, n.ElseIf, next, assign)
		}
		if n.Else != nil {
			c.prepassBlock(fn, n.Else, next, assign)
		}
	case *ast.MatchExpr:
		c.prepassNode(fn, n.Value, next, assign)
		for _, arm := range n.Arms {
			for _, p := range arm.Patterns {
				c.prepassPattern(fn, p, next, assign)
			}
			if arm.Guard != nil {
				c.prepassNode(fn, arm.Guard, next, assign)
			}
			c.prepassBlock(fn, arm.Body, next, assign)
		}
	case *ast.SwitchExpr:
		for _, arm := range n.Arms {
			if arm.Cond != nil {
				c.prepassNode(fn, arm.Cond, next, assign)
			}
			c.prepassBlock(fn, arm.Body, next, assign)
		}
	case *ast.ForExpr:
		c.prepassNode(fn, n.Iterable, next, assign)
		for _, v := range n.Vars {
			c.prepassPattern(fn, v, next, assign)
		}
		c.prepassBlock(fn, n.Body, next, assign)
	case *ast.WhileExpr:
		c.prepassNode(fn, n.Cond, next, assign)
		c.prepassBlock(fn, n.Body, next, assign)
	case *ast.UntilExpr:
		c.prepassNode(fn, n.Cond, next, assign)
		c.prepassBlock(fn, n.Body, next, assign)
	case *ast.LoopExpr:
		c.prepassBlock(fn, n.Body, next, assign)
	case *ast.BreakExpr:
		if n.Value != nil {
			c.prepassNode(fn, n.Value, next, assign)
		}
	case *ast.ReturnExpr:
		if n.Value != nil {
			c.prepassNode(fn, n.Value, next, assign)
		}
	case *ast.YieldExpr:
		c.prepassNode(fn, n.Value, next, assign)
	case *ast.ThrowExpr:
		c.prepassNode(fn, n.Value, next, assign)
	case *ast.TryExpr:
		c.prepassBlock(fn, n.Body, next, assign)
		if n.CatchVar != nil {
			assign(bindingOrPanic(n.CatchVar))
			c.prepassBlock(fn, n.CatchBody, next, assign)
		}
		if n.Finally != nil {
			c.prepassBlock(fn, n.Finally, next, assign)
		}
	case *ast.AssignExpr:
		for _, v := range n.Values {
			c.prepassNode(fn, v, next, assign)
		}
		for _, t := range n.Targets {
			switch t := t.(type) {
			case *ast.IdentExpr:
				assign(bindingOrPanic(t))
			case *ast.LookupExpr:
				c.prepassNode(fn, t, next, assign)
			}
		}
	case *ast.FuncExpr:
		// nested function: own frame, compiled separately.
	case *ast.ImportExpr:
		if b, ok := n.Binding.(*resolver.Binding); ok {
			assign(b)
		}
	case *ast.FromImportExpr:
		for _, it := range n.Items {
			if b, ok := it.Binding.(*resolver.Binding); ok {
				assign(b)
			}
		}
	case *ast.ExportExpr:
		c.prepassNode(fn, n.Value, next, assign)
	case *ast.DebugExpr:
		c.prepassNode(fn, n.Expr, next, assign)
	case *ast.Block:
		c.prepassBlock(fn, n, next, assign)
	case *ast.InterpStringExpr:
		for _, e := range n.Exprs {
			c.prepassNode(fn, e, next, assign)
		}
	}
}
