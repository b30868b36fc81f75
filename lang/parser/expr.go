package parser

import (
	"strings"

	"github.com/mna/koto/lang/ast"
	"github.com/mna/koto/lang/token"
)

// parseExpr is the entry point of the precedence-climbing expression parser.
// Precedence, loosest to tightest (spec §4.1 "Grammar shape"): pipe (|>),
// or, and, chained comparisons (== != < <= > >=), + -, * /  %, unary, lookup
// chains, primary.
func (p *parser) parseExpr() ast.Node {
	return p.parsePipe()
}

func (p *parser) parsePipe() ast.Node {
	left := p.parseOr()
	for p.tok == token.PIPEOP {
		opPos := p.pos
		p.advance()
		right := p.parseOr()
		left = &ast.BinOpExpr{Left: left, Op: token.PIPEOP, OpPos: opPos, Right: right}
	}
	return left
}

func (p *parser) parseOr() ast.Node {
	left := p.parseAnd()
	for p.tok == token.OR {
		opPos := p.pos
		p.advance()
		right := p.parseAnd()
		left = &ast.BinOpExpr{Left: left, Op: token.OR, OpPos: opPos, Right: right}
	}
	return left
}

func (p *parser) parseAnd() ast.Node {
	left := p.parseComparison()
	for p.tok == token.AND {
		opPos := p.pos
		p.advance()
		right := p.parseComparison()
		left = &ast.BinOpExpr{Left: left, Op: token.AND, OpPos: opPos, Right: right}
	}
	return left
}

// parseComparison folds a chain of comparisons (`a < b <= c`) into nested
// `and` expressions rather than introducing a dedicated chain node: the
// compiler would otherwise perform exactly this rewrite (spec §4.2
// "Chained comparisons... rewritten into a conjunction"), so doing it here
// keeps the AST small for the common single-comparison case.
func (p *parser) parseComparison() ast.Node {
	left := p.parseRange()
	if !p.tok.IsComparison() {
		return left
	}

	type pair struct {
		op    token.Token
		opPos token.Pos
		right ast.Node
	}
	var pairs []pair
	for p.tok.IsComparison() {
		op := p.tok
		opPos := p.pos
		p.advance()
		pairs = append(pairs, pair{op: op, opPos: opPos, right: p.parseRange()})
	}

	operand := left
	var result ast.Node
	for _, pr := range pairs {
		cmp := &ast.BinOpExpr{Left: operand, Op: pr.op, OpPos: pr.opPos, Right: pr.right}
		if result == nil {
			result = cmp
		} else {
			result = &ast.BinOpExpr{Left: result, Op: token.AND, OpPos: pr.opPos, Right: cmp}
		}
		operand = pr.right
	}
	return result
}

func (p *parser) parseRange() ast.Node {
	if p.tok == token.DOTDOT || p.tok == token.DOTDOTEQ {
		opPos := p.pos
		incl := p.tok == token.DOTDOTEQ
		p.advance()
		if p.canStartExpr() {
			end := p.parseAddSub()
			return &ast.RangeExpr{Op: opPos, End: end, Inclusive: incl}
		}
		return &ast.RangeExpr{Op: opPos, Inclusive: incl}
	}

	left := p.parseAddSub()
	if p.tok == token.DOTDOT || p.tok == token.DOTDOTEQ {
		opPos := p.pos
		incl := p.tok == token.DOTDOTEQ
		p.advance()
		if p.canStartExpr() {
			end := p.parseAddSub()
			return &ast.RangeExpr{Op: opPos, Start: left, End: end, Inclusive: incl}
		}
		return &ast.RangeExpr{Op: opPos, Start: left, Inclusive: incl}
	}
	return left
}

func (p *parser) parseAddSub() ast.Node {
	left := p.parseMulDiv()
	for p.tok == token.PLUS || p.tok == token.MINUS {
		op := p.tok
		opPos := p.pos
		p.advance()
		right := p.parseMulDiv()
		left = &ast.BinOpExpr{Left: left, Op: op, OpPos: opPos, Right: right}
	}
	return left
}

func (p *parser) parseMulDiv() ast.Node {
	left := p.parseUnary()
	for p.tok == token.STAR || p.tok == token.SLASH || p.tok == token.PERCENT {
		op := p.tok
		opPos := p.pos
		p.advance()
		right := p.parseUnary()
		left = &ast.BinOpExpr{Left: left, Op: op, OpPos: opPos, Right: right}
	}
	return left
}

func (p *parser) parseUnary() ast.Node {
	if p.tok == token.NOT || p.tok == token.MINUS {
		op := p.tok
		opPos := p.pos
		p.advance()
		right := p.parseUnary()
		return &ast.UnaryOpExpr{Op: op, OpPos: opPos, Right: right}
	}
	return p.parseLookup()
}

// canStartExpr reports whether the current token can begin a new
// expression, used to detect the absence of a value in optional positions
// (range bounds, break/return/throw values) without committing to a parse.
func (p *parser) canStartExpr() bool {
	switch p.tok {
	case token.IDENT, token.INT, token.FLOAT, token.STRING, token.STRING_START,
		token.TRUE, token.FALSE, token.NULL, token.NOT, token.MINUS,
		token.LPAREN, token.LBRACK, token.LBRACE, token.UNDERSCORE, token.PIPE,
		token.AT, token.IF, token.MATCH, token.SWITCH, token.FOR, token.WHILE,
		token.UNTIL, token.LOOP, token.TRY, token.DOTDOT, token.DOTDOTEQ:
		return true
	default:
		return false
	}
}

// canStartSpaceCallArg is the conservative subset of canStartExpr that is
// unambiguous as the first token of a space-separated call argument (spec
// §4.1 "allow_space_separated_call"): tokens that also double as binary
// operators (MINUS, NOT, PIPE) are excluded because the scanner does not
// track whitespace adjacency, so `f -1` can't be told apart from `f - 1`.
func (p *parser) canStartSpaceCallArg() bool {
	switch p.tok {
	case token.IDENT, token.INT, token.FLOAT, token.STRING, token.STRING_START,
		token.TRUE, token.FALSE, token.NULL, token.LPAREN, token.LBRACK,
		token.UNDERSCORE, token.AT:
		return true
	default:
		return false
	}
}

// parseLookup parses a primary expression followed by a chain of `.id`,
// `[index]`, `(args)` and optional (`?`) steps (spec §3 "lookup chain"),
// then, for a bare identifier or lookup chain not already ending in a
// parenthesized call, a trailing space-separated call.
func (p *parser) parseLookup() ast.Node {
	left := p.parsePrimary()

	var optional bool
loop:
	for {
		switch p.tok {
		case token.QUESTION:
			p.advance()
			optional = true
		case token.DOT:
			dotPos := p.pos
			p.advance()
			step := &ast.LookupStep{Pos: dotPos, Optional: optional}
			optional = false
			if p.tok == token.STRING || p.tok == token.STRING_START {
				step.Str = p.parsePrimary()
			} else {
				step.Id = p.parseIdent()
			}
			left = p.appendLookup(left, step)
		case token.LBRACK:
			lbPos := p.pos
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBRACK)
			left = p.appendLookup(left, &ast.LookupStep{Index: idx, Pos: lbPos, Optional: optional})
			optional = false
		case token.LPAREN:
			callPos := p.pos
			args := p.parseCallArgsParen()
			left = p.appendLookup(left, &ast.LookupStep{Call: args, Pos: callPos, Optional: optional})
			optional = false
		default:
			break loop
		}
	}

	if p.canStartSpaceCallArg() {
		switch root := left.(type) {
		case *ast.IdentExpr:
			callPos := p.pos
			args := p.parseSpaceCallArgs()
			left = &ast.LookupExpr{Root: root, Chain: []*ast.LookupStep{{Call: &ast.CallArgs{Args: args}, Pos: callPos}}, End: p.pos}
		case *ast.LookupExpr:
			if last := root.Chain[len(root.Chain)-1]; last.Call == nil {
				callPos := p.pos
				args := p.parseSpaceCallArgs()
				root.Chain = append(root.Chain, &ast.LookupStep{Call: &ast.CallArgs{Args: args}, Pos: callPos})
				root.End = p.pos
			}
		}
	}

	return left
}

func (p *parser) appendLookup(left ast.Node, step *ast.LookupStep) ast.Node {
	if lk, ok := left.(*ast.LookupExpr); ok {
		lk.Chain = append(lk.Chain, step)
		lk.End = p.pos
		return lk
	}
	return &ast.LookupExpr{Root: left, Chain: []*ast.LookupStep{step}, End: p.pos}
}

func (p *parser) parseCallArgsParen() *ast.CallArgs {
	p.advance() // consume '('
	var args []ast.Node
	for p.tok != token.RPAREN {
		args = append(args, p.parseExpr())
		if p.tok == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	return &ast.CallArgs{Args: args, WithParens: true}
}

func (p *parser) parseSpaceCallArgs() []ast.Node {
	args := []ast.Node{p.parseExpr()}
	for p.tok == token.COMMA {
		p.advance()
		args = append(args, p.parseExpr())
	}
	return args
}

func (p *parser) parsePrimary() ast.Node {
	switch p.tok {
	case token.NULL:
		start := p.pos
		p.advance()
		return &ast.LiteralExpr{Kind: ast.LitNull, Start: start, End_: p.pos, ConstIndex: -1}
	case token.TRUE:
		start := p.pos
		p.advance()
		return &ast.LiteralExpr{Kind: ast.LitBool, Start: start, End_: p.pos, ConstIndex: -1, Int: 1}
	case token.FALSE:
		start := p.pos
		p.advance()
		return &ast.LiteralExpr{Kind: ast.LitBool, Start: start, End_: p.pos, ConstIndex: -1, Int: 0}
	case token.INT:
		start, val := p.pos, p.val
		p.advance()
		small := val.Int >= 0 && val.Int <= 255
		idx := int32(-1)
		if !small {
			idx = p.constants.Int(val.Int)
		}
		return &ast.LiteralExpr{Kind: ast.LitInt, Start: start, End_: p.pos, ConstIndex: idx, Int: val.Int, SmallInt: small}
	case token.FLOAT:
		start, val := p.pos, p.val
		p.advance()
		idx := p.constants.Float(val.Float)
		return &ast.LiteralExpr{Kind: ast.LitFloat, Start: start, End_: p.pos, ConstIndex: idx, Float: val.Float}
	case token.STRING:
		start, val := p.pos, p.val
		p.advance()
		idx := p.constants.String(val.String)
		return &ast.LiteralExpr{Kind: ast.LitString, Start: start, End_: p.pos, ConstIndex: idx, Str: val.String}
	case token.STRING_START:
		return p.parseInterpString()
	case token.IDENT:
		lit, start := p.val.String, p.pos
		p.advance()
		if strings.HasPrefix(lit, "_") {
			return &ast.WildcardExpr{Start: start, Name: lit[1:]}
		}
		return &ast.IdentExpr{Start: start, Name: lit}
	case token.UNDERSCORE:
		start := p.pos
		p.advance()
		return &ast.WildcardExpr{Start: start}
	case token.AT:
		return p.parseMetaKey()
	case token.LPAREN:
		return p.parseParenOrTuple()
	case token.LBRACK:
		return p.parseListLiteral()
	case token.LBRACE:
		return p.parseBraceMap()
	case token.PIPE:
		return p.parseFuncLiteral()
	case token.IF:
		return p.parseIfExpr()
	case token.MATCH:
		return p.parseMatchExpr()
	case token.SWITCH:
		return p.parseSwitchExpr()
	case token.FOR:
		return p.parseForExpr()
	case token.WHILE:
		return p.parseWhileExpr()
	case token.UNTIL:
		return p.parseUntilExpr()
	case token.LOOP:
		return p.parseLoopExpr()
	case token.BREAK:
		return p.parseBreakExpr()
	case token.CONTINUE:
		start := p.pos
		p.advance()
		return &ast.ContinueExpr{Start: start}
	case token.RETURN:
		return p.parseReturnExpr()
	case token.YIELD:
		return p.parseYieldExpr()
	case token.THROW:
		return p.parseThrowExpr()
	case token.TRY:
		return p.parseTryExpr()
	default:
		p.errorExpected(p.pos, "expression")
		panic(errPanicMode)
	}
}

func (p *parser) parseInterpString() ast.Node {
	start := p.pos
	strs := []string{p.val.String}
	p.advance()
	var exprs []ast.Node
	for {
		exprs = append(exprs, p.parseExpr())
		switch p.tok {
		case token.STRING_PART:
			strs = append(strs, p.val.String)
			p.advance()
		case token.STRING_END:
			strs = append(strs, p.val.String)
			end := p.pos
			p.advance()
			return &ast.InterpStringExpr{Start: start, End: end, Strings: strs, Exprs: exprs}
		default:
			p.errorExpected(p.pos, "string continuation")
			panic(errPanicMode)
		}
	}
}

func (p *parser) parseParenOrTuple() ast.Node {
	start := p.pos
	p.advance()
	if p.tok == token.RPAREN {
		end := p.pos
		p.advance()
		return &ast.ArrayLikeExpr{Type: token.LPAREN, Left: start, Right: end}
	}
	first := p.parseExpr()
	if p.tok != token.COMMA {
		p.expect(token.RPAREN)
		return first
	}
	items := []ast.Node{first}
	for p.tok == token.COMMA {
		p.advance()
		if p.tok == token.RPAREN {
			break
		}
		items = append(items, p.parseExpr())
	}
	end := p.expect(token.RPAREN)
	return &ast.ArrayLikeExpr{Type: token.LPAREN, Left: start, Right: end, Items: items}
}

func (p *parser) parseListLiteral() ast.Node {
	start := p.pos
	p.advance()
	var items []ast.Node
	for p.tok != token.RBRACK {
		items = append(items, p.parseExpr())
		if p.tok == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	end := p.expect(token.RBRACK)
	return &ast.ArrayLikeExpr{Type: token.LBRACK, Left: start, Right: end, Items: items}
}

func (p *parser) parseBraceMap() ast.Node {
	start := p.pos
	p.advance()
	var items []*ast.MapEntry
	for p.tok != token.RBRACE {
		items = append(items, p.parseMapEntry())
		if p.tok == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	end := p.expect(token.RBRACE)
	return &ast.MapExpr{Start: start, End: end, Items: items}
}

func (p *parser) parseMapEntry() *ast.MapEntry {
	key := p.parseMapKey()
	p.expect(token.COLON)
	val := p.parseExpr()
	return &ast.MapEntry{Key: key, Value: val}
}

func (p *parser) parseMapKey() *ast.MapKey {
	switch p.tok {
	case token.IDENT:
		return &ast.MapKey{Kind: p.parseIdent()}
	case token.STRING:
		return &ast.MapKey{Kind: p.parsePrimary()}
	case token.AT:
		return &ast.MapKey{Kind: p.parseMetaKey()}
	default:
		p.errorExpected(p.pos, "map key")
		panic(errPanicMode)
	}
}

var metaUnOpNames = map[string]bool{
	"negate": true, "display": true, "size": true, "iterator": true,
	"next": true, "next_back": true, "index": true, "index_mut": true,
	"call": true, "type": true,
}

func isMetaBinOpToken(tok token.Token) bool {
	switch tok {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQL, token.NEQ, token.LT, token.LE, token.GT, token.GE, token.PIPEOP:
		return true
	default:
		return false
	}
}

func (p *parser) parseMetaKey() *ast.MetaExpr {
	start := p.pos
	p.advance() // consume '@'

	if isMetaBinOpToken(p.tok) {
		op := p.tok
		p.advance()
		return &ast.MetaExpr{Start: start, Kind: ast.MetaBinOp, Op: op}
	}

	if p.tok != token.IDENT {
		p.errorExpected(p.pos, "meta key")
		panic(errPanicMode)
	}
	name := p.val.String
	switch name {
	case "base":
		p.advance()
		return &ast.MetaExpr{Start: start, Kind: ast.MetaBase}
	case "main":
		p.advance()
		return &ast.MetaExpr{Start: start, Kind: ast.MetaMain}
	case "tests":
		p.advance()
		return &ast.MetaExpr{Start: start, Kind: ast.MetaTests}
	case "pre_test":
		p.advance()
		return &ast.MetaExpr{Start: start, Kind: ast.MetaPreTest}
	case "post_test":
		p.advance()
		return &ast.MetaExpr{Start: start, Kind: ast.MetaPostTest}
	case "test":
		p.advance()
		tn := p.parseIdent()
		return &ast.MetaExpr{Start: start, Kind: ast.MetaTest, Name: tn.Name}
	case "meta":
		p.advance()
		tn := p.parseIdent()
		return &ast.MetaExpr{Start: start, Kind: ast.MetaNamed, Name: tn.Name}
	default:
		if metaUnOpNames[name] {
			p.advance()
			return &ast.MetaExpr{Start: start, Kind: ast.MetaUnOp, Name: name}
		}
		p.advance()
		return &ast.MetaExpr{Start: start, Kind: ast.MetaNamed, Name: name}
	}
}

// parsePatternLiteral parses a primary that may be the start of a range
// pattern in a match arm (spec §3 "pattern... Range").
func (p *parser) parsePatternLiteral() ast.Node {
	lit := p.parsePrimary()
	if p.tok == token.DOTDOT || p.tok == token.DOTDOTEQ {
		opPos := p.pos
		incl := p.tok == token.DOTDOTEQ
		p.advance()
		end := p.parsePrimary()
		return &ast.RangeExpr{Op: opPos, Start: lit, End: end, Inclusive: incl}
	}
	return lit
}

func (p *parser) parsePattern() ast.Node {
	switch p.tok {
	case token.IDENT:
		lit, start := p.val.String, p.pos
		p.advance()
		if p.tok == token.ELLIPSIS {
			p.advance()
			return &ast.EllipsisExpr{Start: start, Name: lit}
		}
		if strings.HasPrefix(lit, "_") {
			return &ast.WildcardExpr{Start: start, Name: lit[1:]}
		}
		return &ast.IdentExpr{Start: start, Name: lit}
	case token.UNDERSCORE:
		start := p.pos
		p.advance()
		return &ast.WildcardExpr{Start: start}
	case token.ELLIPSIS:
		start := p.pos
		p.advance()
		return &ast.EllipsisExpr{Start: start}
	case token.NULL, token.TRUE, token.FALSE, token.INT, token.FLOAT, token.STRING, token.MINUS:
		return p.parsePatternLiteral()
	case token.LPAREN:
		start := p.pos
		p.advance()
		var items []ast.Node
		for p.tok != token.RPAREN {
			items = append(items, p.parsePattern())
			if p.tok == token.COMMA {
				p.advance()
				continue
			}
			break
		}
		end := p.expect(token.RPAREN)
		return &ast.ArrayLikeExpr{Type: token.LPAREN, Left: start, Right: end, Items: items}
	case token.LBRACK:
		start := p.pos
		p.advance()
		var items []ast.Node
		for p.tok != token.RBRACK {
			items = append(items, p.parsePattern())
			if p.tok == token.COMMA {
				p.advance()
				continue
			}
			break
		}
		end := p.expect(token.RBRACK)
		return &ast.ArrayLikeExpr{Type: token.LBRACK, Left: start, Right: end, Items: items}
	default:
		p.errorExpected(p.pos, "pattern")
		panic(errPanicMode)
	}
}

func (p *parser) parseIfExpr() ast.Node {
	start := p.pos
	p.advance()
	cond := p.parseExpr()
	then := p.parseBody()
	n := &ast.IfExpr{Start: start, Cond: cond, Then: then, End: p.pos}
	if p.tok == token.ELSE {
		n.ElseStart = p.pos
		p.advance()
		if p.tok == token.IF {
			n.ElseIf = p.parseIfExpr().(*ast.IfExpr)
		} else {
			n.Else = p.parseBody()
		}
	}
	return n
}

func (p *parser) parseMatchExpr() ast.Node {
	start := p.pos
	p.advance()
	val := p.parseExpr()
	p.expect(token.NEWLINE)
	p.expect(token.INDENT)
	var arms []*ast.MatchArm
	for p.tok != token.DEDENT && p.tok != token.EOF {
		if p.tok == token.NEWLINE {
			p.advance()
			continue
		}
		arms = append(arms, p.parseMatchArm())
	}
	end := p.pos
	p.expect(token.DEDENT)
	return &ast.MatchExpr{Start: start, Value: val, Arms: arms, End: end}
}

func (p *parser) parseMatchArm() *ast.MatchArm {
	patterns := []ast.Node{p.parsePattern()}
	for p.tok == token.OR {
		p.advance()
		patterns = append(patterns, p.parsePattern())
	}
	var guard ast.Node
	if p.tok == token.IF {
		p.advance()
		guard = p.parseExpr()
	}
	body := p.parseBody()
	return &ast.MatchArm{Patterns: patterns, Guard: guard, Body: body}
}

func (p *parser) parseSwitchExpr() ast.Node {
	start := p.pos
	p.advance()
	p.expect(token.NEWLINE)
	p.expect(token.INDENT)
	var arms []*ast.SwitchArm
	for p.tok != token.DEDENT && p.tok != token.EOF {
		if p.tok == token.NEWLINE {
			p.advance()
			continue
		}
		arms = append(arms, p.parseSwitchArm())
	}
	end := p.pos
	p.expect(token.DEDENT)
	return &ast.SwitchExpr{Start: start, Arms: arms, End: end}
}

func (p *parser) parseSwitchArm() *ast.SwitchArm {
	var cond ast.Node
	if p.tok == token.ELSE {
		p.advance()
	} else {
		cond = p.parseExpr()
	}
	return &ast.SwitchArm{Cond: cond, Body: p.parseBody()}
}

func (p *parser) parseForVar() ast.Node {
	switch p.tok {
	case token.IDENT:
		lit, start := p.val.String, p.pos
		p.advance()
		if strings.HasPrefix(lit, "_") {
			return &ast.WildcardExpr{Start: start, Name: lit[1:]}
		}
		return &ast.IdentExpr{Start: start, Name: lit}
	case token.UNDERSCORE:
		start := p.pos
		p.advance()
		return &ast.WildcardExpr{Start: start}
	default:
		p.errorExpected(p.pos, "identifier")
		panic(errPanicMode)
	}
}

func (p *parser) parseForExpr() ast.Node {
	start := p.pos
	p.advance()
	vars := []ast.Node{p.parseForVar()}
	for p.tok == token.COMMA {
		p.advance()
		vars = append(vars, p.parseForVar())
	}
	p.expect(token.IN)
	iterable := p.parseExpr()
	body := p.parseBody()
	return &ast.ForExpr{Start: start, Vars: vars, Iterable: iterable, Body: body, End: p.pos}
}

func (p *parser) parseWhileExpr() ast.Node {
	start := p.pos
	p.advance()
	cond := p.parseExpr()
	body := p.parseBody()
	return &ast.WhileExpr{Start: start, Cond: cond, Body: body, End: p.pos}
}

func (p *parser) parseUntilExpr() ast.Node {
	start := p.pos
	p.advance()
	cond := p.parseExpr()
	body := p.parseBody()
	return &ast.UntilExpr{Start: start, Cond: cond, Body: body, End: p.pos}
}

func (p *parser) parseLoopExpr() ast.Node {
	start := p.pos
	p.advance()
	body := p.parseBody()
	return &ast.LoopExpr{Start: start, Body: body, End: p.pos}
}

func (p *parser) parseBreakExpr() ast.Node {
	start := p.pos
	p.advance()
	var val ast.Node
	if p.canStartExpr() {
		val = p.parseExpr()
	}
	return &ast.BreakExpr{Start: start, Value: val}
}

func (p *parser) parseReturnExpr() ast.Node {
	start := p.pos
	p.advance()
	var val ast.Node
	if p.canStartExpr() {
		val = p.parseExpr()
	}
	return &ast.ReturnExpr{Start: start, Value: val}
}

func (p *parser) parseYieldExpr() ast.Node {
	start := p.pos
	p.advance()
	var val ast.Node
	if p.canStartExpr() {
		val = p.parseExpr()
	} else {
		val = &ast.LiteralExpr{Kind: ast.LitNull, Start: p.pos, End_: p.pos, ConstIndex: -1}
	}
	return &ast.YieldExpr{Start: start, Value: val}
}

func (p *parser) parseThrowExpr() ast.Node {
	start := p.pos
	p.advance()
	var val ast.Node
	if p.canStartExpr() {
		val = p.parseExpr()
	} else {
		val = &ast.LiteralExpr{Kind: ast.LitNull, Start: p.pos, End_: p.pos, ConstIndex: -1}
	}
	return &ast.ThrowExpr{Start: start, Value: val}
}

func (p *parser) parseTryExpr() ast.Node {
	start := p.pos
	p.advance()
	n := &ast.TryExpr{Start: start, Body: p.parseBody()}
	if p.tok == token.CATCH {
		p.advance()
		n.CatchVar = p.parseIdent()
		n.CatchBody = p.parseBody()
	}
	if p.tok == token.FINALLY {
		p.advance()
		n.Finally = p.parseBody()
	}
	n.End = p.pos
	return n
}

func (p *parser) parseFuncParam() *ast.FuncParam {
	switch p.tok {
	case token.IDENT:
		lit, start := p.val.String, p.pos
		p.advance()
		rest := false
		if p.tok == token.ELLIPSIS {
			p.advance()
			rest = true
		}
		if strings.HasPrefix(lit, "_") {
			return &ast.FuncParam{Wildcard: &ast.WildcardExpr{Start: start, Name: lit[1:]}, Rest: rest}
		}
		return &ast.FuncParam{Ident: &ast.IdentExpr{Start: start, Name: lit}, Rest: rest}
	case token.UNDERSCORE:
		start := p.pos
		p.advance()
		return &ast.FuncParam{Wildcard: &ast.WildcardExpr{Start: start}}
	case token.LPAREN:
		start := p.pos
		p.advance()
		var items []ast.Node
		for p.tok != token.RPAREN {
			items = append(items, p.parsePattern())
			if p.tok == token.COMMA {
				p.advance()
				continue
			}
			break
		}
		end := p.expect(token.RPAREN)
		return &ast.FuncParam{Tuple: &ast.ArrayLikeExpr{Type: token.LPAREN, Left: start, Right: end, Items: items}}
	default:
		p.errorExpected(p.pos, "parameter")
		panic(errPanicMode)
	}
}

// containsYield reports whether body directly contains a yield expression,
// stopping its walk at a nested function literal (whose own yields belong
// to that closure, not body's), to determine IsGenerator.
func containsYield(body *ast.Block) bool {
	found := false
	ast.Walk(func(n ast.Node) bool {
		if found {
			return false
		}
		switch n.(type) {
		case *ast.YieldExpr:
			found = true
			return false
		case *ast.FuncExpr:
			return false
		}
		return true
	}, body)
	return found
}

func (p *parser) parseFuncLiteral() ast.Node {
	start := p.pos
	p.advance() // consume '|'
	var params []*ast.FuncParam
	if p.tok != token.PIPE {
		params = append(params, p.parseFuncParam())
		for p.tok == token.COMMA {
			p.advance()
			params = append(params, p.parseFuncParam())
		}
	}
	p.expect(token.PIPE)
	body := p.parseBody()
	variadic := len(params) > 0 && params[len(params)-1].Rest
	return &ast.FuncExpr{
		Start:       start,
		Params:      params,
		IsVariadic:  variadic,
		IsGenerator: containsYield(body),
		Body:        body,
		End:         p.pos,
	}
}
