package ast

import (
	"fmt"

	"github.com/mna/koto/lang/token"
)

// IsAssignable reports whether n is a legal assignment target: an
// identifier, a meta-key, a lookup chain, or a wildcard (spec §4.1
// "Assignments": "only Id, Meta, Lookup, and Wildcard nodes are legal
// targets").
func IsAssignable(n Node) bool {
	switch n.(type) {
	case *IdentExpr, *MetaExpr, *LookupExpr, *WildcardExpr:
		return true
	default:
		return false
	}
}

type (
	// BadExpr is a placeholder for a node that failed to parse, allowing the
	// parser to keep going and report multiple errors in one pass.
	BadExpr struct {
		Start, End token.Pos
	}

	// LiteralKind distinguishes the literal's runtime type.
	LiteralKind int

	// LiteralExpr is null, true, false, an integer, a float or a plain
	// (non-interpolated) string (spec §3 "literal (null, bool, integer ≤ u8
	// inlined, int, float, string)"). SmallInt records whether Value fits the
	// inlined-small-integer fast path the compiler can use instead of a
	// constant-pool load.
	LiteralExpr struct {
		Kind        LiteralKind
		Start, End_ token.Pos
		ConstIndex  int32 // index into the enclosing Chunk's ConstantPool, -1 for null/bool/small-int
		Int         int64
		Float       float64
		Str         string
		SmallInt    bool
	}

	// IdentExpr is an identifier reference or assignment target. Binding is
	// filled in by the resolver.
	IdentExpr struct {
		Start      token.Pos
		Name       string
		ConstIndex int32
		Binding    interface{} // *resolver.Binding, indirect to avoid an import cycle
	}

	// WildcardExpr is `_` or `_name`, used to ignore a value (e.g. a for-loop
	// variable or function parameter) while still giving it a debug name.
	WildcardExpr struct {
		Start   token.Pos
		Name    string      // without the leading underscore; may be empty
		Binding interface{} // *resolver.Binding, only set if Name != ""
	}

	// EllipsisExpr represents `...` or `name...` inside a tuple/list pattern,
	// capturing the remaining elements (spec §3 "nested Tuple nodes with
	// Ellipsis(Option<ConstantIndex>) elements for rest-capture").
	EllipsisExpr struct {
		Start   token.Pos
		Name    string      // empty if unnamed
		Binding interface{} // *resolver.Binding, only set if Name != ""
	}

	// MetaKeyKind enumerates the families of meta keys (spec §3 "Map").
	MetaKeyKind int

	// MetaExpr denotes a meta key, either in a map-block entry position
	// (`@+: ...`) or as an export target (`export @meta name = ...`).
	MetaExpr struct {
		Start token.Pos
		Kind  MetaKeyKind
		Op    token.Token // the operator token for BinOp/UnOp meta keys, else ILLEGAL
		Name  string      // for Named/Test meta keys
	}

	// ArrayLikeExpr is a list or tuple literal.
	ArrayLikeExpr struct {
		Type       token.Token // LBRACK (list) or LPAREN (tuple)
		Left, Right token.Pos
		Items      []Node
	}

	// MapKey is the key half of a map literal entry: an identifier, a string,
	// or a meta key (spec §4.1 "Map keys").
	MapKey struct {
		Kind Node // *IdentExpr | *LiteralExpr (string) | *MetaExpr
	}

	// MapEntry is one `key: value` pair in a map literal or map block.
	MapEntry struct {
		Key   *MapKey
		Value Node
	}

	// MapExpr is a map literal, parsed either as a brace map `{a: 1, b: 2}` or
	// an indented map block.
	MapExpr struct {
		Start, End token.Pos
		Block      bool // true if parsed as an indented map block rather than {}
		Items      []*MapEntry
	}

	// RangeExpr covers all four range shapes (spec §3 "range (with four
	// shapes: bounded/inclusive, from, to, full)"): Start/End nil selects
	// "from"/"to"/"full" as appropriate.
	RangeExpr struct {
		Op         token.Pos
		Start, End Node
		Inclusive  bool
	}

	// BinOpExpr is an arithmetic, comparison, logical or pipe binary
	// expression.
	BinOpExpr struct {
		Left  Node
		Op    token.Token
		OpPos token.Pos
		Right Node
	}

	// UnaryOpExpr is `-x` or `not x`.
	UnaryOpExpr struct {
		Op    token.Token
		OpPos token.Pos
		Right Node
	}

	// LookupStep is one segment of a lookup chain (spec §3 "A lookup chain is
	// represented as a linked list of LookupNode").
	LookupStep struct {
		// exactly one of the following is set, selecting the step's kind.
		Id         *IdentExpr // .foo
		Str        Node       // ."foo" (string key, possibly interpolated)
		Index      Node       // [expr]
		Call       *CallArgs  // (args)
		Optional   bool       // true if preceded by '?' (optional chaining)
		Pos        token.Pos
	}

	// CallArgs is the argument list of a call lookup step.
	CallArgs struct {
		Args       []Node
		WithParens bool
	}

	// LookupExpr is a chain of `.id`, `[index]` and `(args)` operations
	// folded over a root expression (spec §3 "lookup chain").
	LookupExpr struct {
		Root  Node
		Chain []*LookupStep
		End   token.Pos
	}

	// IfExpr is `if cond then .. else ..`; ElseIf chains additional
	// `else if` branches without nesting a new Block.
	IfExpr struct {
		Start      token.Pos
		Cond       Node
		Then       *Block
		ElseIf     *IfExpr // non-nil if the else branch is itself an "else if"
		Else       *Block  // non-nil only for a plain (non-elseif) else
		ElseStart  token.Pos
		End        token.Pos
	}

	// MatchArm is one arm of a match expression: one or more alt patterns
	// (`p1 or p2`), an optional guard, and a body.
	MatchArm struct {
		Patterns []Node // Node may be a pattern (Ident/Literal/ArrayLike w/ Ellipsis/Wildcard/Range)
		Guard    Node   // nil if none
		Body     *Block
	}

	// MatchExpr matches Value against each arm's patterns in order.
	MatchExpr struct {
		Start token.Pos
		Value Node
		Arms  []*MatchArm
		End   token.Pos
	}

	// SwitchArm is one arm of a switch expression: a boolean condition (nil
	// for the final "else" arm) and a body.
	SwitchArm struct {
		Cond Node
		Body *Block
	}

	// SwitchExpr evaluates each arm's condition in order and runs the first
	// truthy arm's body.
	SwitchExpr struct {
		Start token.Pos
		Arms  []*SwitchArm
		End   token.Pos
	}

	// ForExpr is `for vars in iterable ..`.
	ForExpr struct {
		Start    token.Pos
		Vars     []Node // *IdentExpr or *WildcardExpr
		Iterable Node
		Body     *Block
		End      token.Pos
	}

	// WhileExpr/UntilExpr loop while/until Cond is true.
	WhileExpr struct {
		Start token.Pos
		Cond  Node
		Body  *Block
		End   token.Pos
	}
	UntilExpr struct {
		Start token.Pos
		Cond  Node
		Body  *Block
		End   token.Pos
	}

	// LoopExpr is an unconditional loop, exited only via break/return/throw.
	LoopExpr struct {
		Start token.Pos
		Body  *Block
		End   token.Pos
	}

	// BreakExpr, ContinueExpr, ReturnExpr, YieldExpr and ThrowExpr are the
	// jump-producing expressions (spec §3).
	BreakExpr struct {
		Start token.Pos
		Value Node // nil if no value
	}
	ContinueExpr struct {
		Start token.Pos
	}
	ReturnExpr struct {
		Start token.Pos
		Value Node
	}
	YieldExpr struct {
		Start token.Pos
		Value Node
	}
	ThrowExpr struct {
		Start token.Pos
		Value Node
	}

	// TryExpr is `try .. catch e then .. finally ..`.
	TryExpr struct {
		Start     token.Pos
		Body      *Block
		CatchVar  *IdentExpr // nil if no catch clause
		CatchBody *Block
		Finally   *Block // nil if no finally clause
		End       token.Pos
	}

	// AssignExpr is a (possibly multiple, possibly compound) assignment.
	// DeclType records `let`/`const` style declarations (ILLEGAL if this is a
	// plain assignment to an existing binding).
	AssignExpr struct {
		DeclType token.Token
		Targets  []Node
		Op       token.Token // EQ or a *_EQ compound operator
		OpPos    token.Pos
		Values   []Node
	}

	// FuncParam is one parameter of a function literal: a plain identifier, a
	// wildcard, or a nested tuple pattern with optional ellipsis rest-capture
	// (spec §3 "Nested containers in function parameter patterns are
	// represented as nested Tuple nodes").
	FuncParam struct {
		Ident    *IdentExpr
		Wildcard *WildcardExpr
		Tuple    *ArrayLikeExpr // nested destructuring pattern
		Rest     bool           // true for `name...`, collects remaining args
	}

	// InterpStringExpr is a string literal containing `$ident` or `${expr}`
	// interpolations (spec §7 debug formatting shares the same splicing
	// idea). Strings holds len(Exprs)+1 literal chunks, with Exprs[i] sitting
	// between Strings[i] and Strings[i+1].
	InterpStringExpr struct {
		Start, End token.Pos
		Strings    []string
		Exprs      []Node
	}

	// FuncExpr is a function literal `|a, b| body`.
	FuncExpr struct {
		Start             token.Pos
		Params            []*FuncParam
		IsVariadic        bool
		IsGenerator       bool
		Body              *Block
		End               token.Pos
		LocalCount        int      // filled by the resolver
		AccessedNonLocals []string // filled by the resolver (spec §3 Frame)
	}

	// ImportExpr is `import a.b.c` (optionally with `as` aliasing the final
	// segment).
	ImportExpr struct {
		Start   token.Pos
		Path    []*IdentExpr
		Alias   *IdentExpr  // nil if none
		Binding interface{} // *resolver.Binding for the bound name (Alias, or Path[0] if no alias)
	}

	// FromImportItem is one `name` or `name as alias` in a from-import list.
	FromImportItem struct {
		Name    *IdentExpr
		Alias   *IdentExpr  // nil if none
		Binding interface{} // *resolver.Binding for the bound name (Alias, or Name if no alias)
	}

	// FromImportExpr is `from x.y import a, b as c`.
	FromImportExpr struct {
		Start  token.Pos
		Module []*IdentExpr
		Items  []*FromImportItem
	}

	// ExportExpr is `export name = value` or `export @meta name = value`.
	ExportExpr struct {
		Start  token.Pos
		Target Node // *IdentExpr or *MetaExpr
		Value  Node
	}

	// DebugExpr is `debug expr`; ExprText is the verbatim source text of expr,
	// used to build the `[path: line] expr: value` message (spec §7).
	DebugExpr struct {
		Start    token.Pos
		Expr     Node
		ExprText string
	}
)

const (
	LitNull LiteralKind = iota
	LitBool
	LitInt
	LitFloat
	LitString
)

const (
	MetaBinOp MetaKeyKind = iota // @+, @==, etc (Op set)
	MetaUnOp                     // @negate, @display, @size, @iterator, @next, @next_back, @index, @index_mut, @call, @type (Name set)
	MetaBase                     // @base
	MetaMain                     // @main
	MetaTests                    // @tests
	MetaPreTest                  // @pre_test
	MetaPostTest                 // @post_test
	MetaTest                     // @test <name> (Name set)
	MetaNamed                    // @meta <name> (Name set)
)

func (n *BadExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *BadExpr) Walk(Visitor)                 {}
func (n *BadExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "!bad!", nil) }

func (n *LiteralExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End_ }
func (n *LiteralExpr) Walk(Visitor)                 {}
func (n *LiteralExpr) Format(f fmt.State, verb rune) {
	lbl := [...]string{"null", "bool", "int", "float", "string"}[n.Kind]
	format(f, verb, n, lbl, nil)
}

func (n *IdentExpr) Span() (token.Pos, token.Pos) {
	return n.Start, n.Start + token.Pos(len(n.Name))
}
func (n *IdentExpr) Walk(Visitor) {}
func (n *IdentExpr) Format(f fmt.State, verb rune) { format(f, verb, n, n.Name, nil) }

func (n *WildcardExpr) Span() (token.Pos, token.Pos) {
	return n.Start, n.Start + token.Pos(1+len(n.Name))
}
func (n *WildcardExpr) Walk(Visitor) {}
func (n *WildcardExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "_"+n.Name, nil) }

func (n *EllipsisExpr) Span() (token.Pos, token.Pos) {
	return n.Start, n.Start + token.Pos(3+len(n.Name))
}
func (n *EllipsisExpr) Walk(Visitor) {}
func (n *EllipsisExpr) Format(f fmt.State, verb rune) { format(f, verb, n, n.Name+"...", nil) }

func (n *MetaExpr) Span() (token.Pos, token.Pos) { return n.Start, n.Start }
func (n *MetaExpr) Walk(Visitor)                {}
func (n *MetaExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "@"+n.Name, nil) }

func (n *ArrayLikeExpr) Span() (token.Pos, token.Pos) { return n.Left, n.Right + 1 }
func (n *ArrayLikeExpr) Walk(v Visitor) {
	for _, it := range n.Items {
		Walk(v, it)
	}
}
func (n *ArrayLikeExpr) Format(f fmt.State, verb rune) {
	lbl := "list"
	if n.Type == token.LPAREN {
		lbl = "tuple"
	}
	format(f, verb, n, lbl, map[string]int{"items": len(n.Items)})
}

func (n *MapExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *MapExpr) Walk(v Visitor) {
	for _, it := range n.Items {
		Walk(v, it.Key.Kind)
		Walk(v, it.Value)
	}
}
func (n *MapExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "map", map[string]int{"entries": len(n.Items)})
}

func (n *RangeExpr) Span() (token.Pos, token.Pos) {
	start, end := n.Op, n.Op
	if n.Start != nil {
		start, _ = n.Start.Span()
	}
	if n.End != nil {
		_, end = n.End.Span()
	}
	return start, end
}
func (n *RangeExpr) Walk(v Visitor) {
	if n.Start != nil {
		Walk(v, n.Start)
	}
	if n.End != nil {
		Walk(v, n.End)
	}
}
func (n *RangeExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "range", nil) }

func (n *BinOpExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Left.Span()
	_, end := n.Right.Span()
	return start, end
}
func (n *BinOpExpr) Walk(v Visitor) { Walk(v, n.Left); Walk(v, n.Right) }
func (n *BinOpExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "binary "+n.Op.GoString(), nil)
}

func (n *UnaryOpExpr) Span() (token.Pos, token.Pos) {
	_, end := n.Right.Span()
	return n.OpPos, end
}
func (n *UnaryOpExpr) Walk(v Visitor) { Walk(v, n.Right) }
func (n *UnaryOpExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "unary "+n.Op.GoString(), nil)
}

func (n *LookupExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Root.Span()
	return start, n.End
}
func (n *LookupExpr) Walk(v Visitor) {
	Walk(v, n.Root)
	for _, step := range n.Chain {
		switch {
		case step.Id != nil:
			Walk(v, step.Id)
		case step.Str != nil:
			Walk(v, step.Str)
		case step.Index != nil:
			Walk(v, step.Index)
		case step.Call != nil:
			for _, a := range step.Call.Args {
				Walk(v, a)
			}
		}
	}
}
func (n *LookupExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "lookup", map[string]int{"steps": len(n.Chain)})
}

func (n *IfExpr) Span() (token.Pos, token.Pos) {
	end := n.End
	if n.Else != nil {
		_, end = n.Else.Span()
	} else if n.ElseIf != nil {
		_, end = n.ElseIf.Span()
	} else if n.Then != nil {
		_, end = n.Then.Span()
	}
	return n.Start, end
}
func (n *IfExpr) Walk(v Visitor) {
	Walk(v, n.Cond)
	if n.Then != nil {
		Walk(v, n.Then)
	}
	if n.ElseIf != nil {
		Walk(v, n.ElseIf)
	}
	if n.Else != nil {
		Walk(v, n.Else)
	}
}
func (n *IfExpr) Format(f fmt.State, verb rune) {
	lbl := "if"
	if n.ElseIf != nil {
		lbl = "if/elseif"
	} else if n.Else != nil {
		lbl = "if/else"
	}
	format(f, verb, n, lbl, nil)
}

func (n *MatchExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *MatchExpr) Walk(v Visitor) {
	Walk(v, n.Value)
	for _, arm := range n.Arms {
		for _, p := range arm.Patterns {
			Walk(v, p)
		}
		if arm.Guard != nil {
			Walk(v, arm.Guard)
		}
		Walk(v, arm.Body)
	}
}
func (n *MatchExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "match", map[string]int{"arms": len(n.Arms)})
}

func (n *SwitchExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *SwitchExpr) Walk(v Visitor) {
	for _, arm := range n.Arms {
		if arm.Cond != nil {
			Walk(v, arm.Cond)
		}
		Walk(v, arm.Body)
	}
}
func (n *SwitchExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "switch", map[string]int{"arms": len(n.Arms)})
}

func (n *ForExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *ForExpr) Walk(v Visitor) {
	for _, id := range n.Vars {
		Walk(v, id)
	}
	Walk(v, n.Iterable)
	Walk(v, n.Body)
}
func (n *ForExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "for", nil) }

func (n *WhileExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *WhileExpr) Walk(v Visitor)               { Walk(v, n.Cond); Walk(v, n.Body) }
func (n *WhileExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "while", nil) }

func (n *UntilExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *UntilExpr) Walk(v Visitor)               { Walk(v, n.Cond); Walk(v, n.Body) }
func (n *UntilExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "until", nil) }

func (n *LoopExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *LoopExpr) Walk(v Visitor)               { Walk(v, n.Body) }
func (n *LoopExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "loop", nil) }

func (n *BreakExpr) Span() (token.Pos, token.Pos) {
	end := n.Start + token.Pos(len("break"))
	if n.Value != nil {
		_, end = n.Value.Span()
	}
	return n.Start, end
}
func (n *BreakExpr) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}
func (n *BreakExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "break", nil) }

func (n *ContinueExpr) Span() (token.Pos, token.Pos) {
	return n.Start, n.Start + token.Pos(len("continue"))
}
func (n *ContinueExpr) Walk(Visitor)                {}
func (n *ContinueExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "continue", nil) }

func (n *ReturnExpr) Span() (token.Pos, token.Pos) {
	end := n.Start + token.Pos(len("return"))
	if n.Value != nil {
		_, end = n.Value.Span()
	}
	return n.Start, end
}
func (n *ReturnExpr) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}
func (n *ReturnExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "return", nil) }

func (n *YieldExpr) Span() (token.Pos, token.Pos) {
	_, end := n.Value.Span()
	return n.Start, end
}
func (n *YieldExpr) Walk(v Visitor)                { Walk(v, n.Value) }
func (n *YieldExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "yield", nil) }

func (n *ThrowExpr) Span() (token.Pos, token.Pos) {
	_, end := n.Value.Span()
	return n.Start, end
}
func (n *ThrowExpr) Walk(v Visitor)                { Walk(v, n.Value) }
func (n *ThrowExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "throw", nil) }

func (n *TryExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *TryExpr) Walk(v Visitor) {
	Walk(v, n.Body)
	if n.CatchVar != nil {
		Walk(v, n.CatchVar)
		Walk(v, n.CatchBody)
	}
	if n.Finally != nil {
		Walk(v, n.Finally)
	}
}
func (n *TryExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "try", nil) }

func (n *AssignExpr) Span() (token.Pos, token.Pos) {
	start, _ := n.Targets[0].Span()
	_, end := n.Values[len(n.Values)-1].Span()
	return start, end
}
func (n *AssignExpr) Walk(v Visitor) {
	for _, t := range n.Targets {
		Walk(v, t)
	}
	for _, val := range n.Values {
		Walk(v, val)
	}
}
func (n *AssignExpr) Format(f fmt.State, verb rune) {
	lbl := "assign"
	if n.Op != token.EQ {
		lbl = "assign " + n.Op.GoString()
	}
	format(f, verb, n, lbl, map[string]int{"targets": len(n.Targets)})
}

func (n *FuncExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *FuncExpr) Walk(v Visitor) {
	for _, p := range n.Params {
		switch {
		case p.Ident != nil:
			Walk(v, p.Ident)
		case p.Wildcard != nil:
			Walk(v, p.Wildcard)
		case p.Tuple != nil:
			Walk(v, p.Tuple)
		}
	}
	Walk(v, n.Body)
}
func (n *FuncExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "fn", map[string]int{"params": len(n.Params)})
}

func (n *ImportExpr) Span() (token.Pos, token.Pos) {
	_, end := n.Path[len(n.Path)-1].Span()
	return n.Start, end
}
func (n *ImportExpr) Walk(v Visitor) {
	for _, id := range n.Path {
		Walk(v, id)
	}
}
func (n *ImportExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "import", nil) }

func (n *FromImportExpr) Span() (token.Pos, token.Pos) {
	end := n.Start
	if len(n.Items) > 0 {
		if n.Items[len(n.Items)-1].Alias != nil {
			_, end = n.Items[len(n.Items)-1].Alias.Span()
		} else {
			_, end = n.Items[len(n.Items)-1].Name.Span()
		}
	}
	return n.Start, end
}
func (n *FromImportExpr) Walk(v Visitor) {
	for _, id := range n.Module {
		Walk(v, id)
	}
	for _, it := range n.Items {
		Walk(v, it.Name)
		if it.Alias != nil {
			Walk(v, it.Alias)
		}
	}
}
func (n *FromImportExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "from-import", nil) }

func (n *ExportExpr) Span() (token.Pos, token.Pos) {
	_, end := n.Value.Span()
	return n.Start, end
}
func (n *ExportExpr) Walk(v Visitor) { Walk(v, n.Target); Walk(v, n.Value) }
func (n *ExportExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "export", nil) }

func (n *InterpStringExpr) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *InterpStringExpr) Walk(v Visitor) {
	for _, e := range n.Exprs {
		Walk(v, e)
	}
}
func (n *InterpStringExpr) Format(f fmt.State, verb rune) {
	format(f, verb, n, "interp-string", map[string]int{"exprs": len(n.Exprs)})
}

func (n *DebugExpr) Span() (token.Pos, token.Pos) {
	_, end := n.Expr.Span()
	return n.Start, end
}
func (n *DebugExpr) Walk(v Visitor)                { Walk(v, n.Expr) }
func (n *DebugExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "debug", nil) }
