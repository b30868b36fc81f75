// Package parser implements the single-pass parser that turns Koto source
// into an AST (lang/ast).
package parser

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/mna/koto/lang/ast"
	"github.com/mna/koto/lang/scanner"
	"github.com/mna/koto/lang/token"
)

// ParseFiles parses the given source files and returns the fileset along
// with the ASTs and any error encountered. The error, if non-nil, is a
// scanner.ErrorList, except when ctx is done before all files are parsed,
// in which case it is ctx.Err().
func ParseFiles(ctx context.Context, files ...string) (*token.FileSet, []*ast.Chunk, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}

	fs := token.NewFileSet()
	chunks := make([]*ast.Chunk, 0, len(files))
	var errs scanner.ErrorList

	for _, file := range files {
		select {
		case <-ctx.Done():
			return fs, chunks, ctx.Err()
		default:
		}

		b, err := os.ReadFile(file)
		if err != nil {
			errs.Add(token.Position{Filename: file}, err.Error())
			continue
		}
		ch, err := ParseChunk(fs, file, b)
		chunks = append(chunks, ch)
		if err != nil {
			var el scanner.ErrorList
			if errors.As(err, &el) {
				errs = append(errs, el...)
			}
		}
	}
	errs.Sort()
	return fs, chunks, errs.Err()
}

// ParseChunk parses a single chunk from src, registering it in fset under
// filename, and returns the AST and any error encountered. The error, if
// non-nil, is guaranteed to be a scanner.ErrorList.
func ParseChunk(fset *token.FileSet, filename string, src []byte) (*ast.Chunk, error) {
	var p parser
	p.init(fset, filename, src)
	ch := p.parseChunk()
	ch.Name = filename
	p.errors.Sort()
	return ch, p.errors.Err()
}

// ParseSource is a convenience wrapper around ParseChunk for callers (tests,
// the REPL) that don't need ParseFiles' multi-file batching.
func ParseSource(fset *token.FileSet, filename string, src []byte) (*ast.Chunk, error) {
	return ParseChunk(fset, filename, src)
}

// parser holds the mutable state of one parse.
type parser struct {
	scanner   scanner.Scanner
	errors    scanner.ErrorList
	file      *token.File
	src       []byte
	constants *ast.ConstantPool

	tok token.Token
	val token.Value
	pos token.Pos
}

func (p *parser) init(fset *token.FileSet, filename string, src []byte) {
	p.file = fset.AddFile(filename, -1, len(src))
	p.src = src
	p.constants = ast.NewConstantPool()
	p.scanner.Init(p.file, src, p.errors.Add)
	p.advance()
}

func (p *parser) advance() {
	p.tok = p.scanner.Scan(&p.val)
	p.pos = p.scanner.Pos()
}

var errPanicMode = errors.New("panic")

// expect consumes the current token if it matches tok, returning its
// position. Otherwise it reports an error and panics with errPanicMode,
// recovered at the statement level to produce a BadExpr.
func (p *parser) expect(tok token.Token) token.Pos {
	pos := p.pos
	if p.tok != tok {
		p.errorExpected(pos, tok.GoString())
		panic(errPanicMode)
	}
	p.advance()
	return pos
}

func (p *parser) error(pos token.Pos, msg string) {
	p.errors.Add(p.file.Position(pos), msg)
}

func (p *parser) errorExpected(pos token.Pos, msg string) {
	msg = "expected " + msg
	if pos == p.pos {
		msg += ", found " + p.tok.GoString()
	}
	p.error(pos, msg)
}

// parseIdent consumes an IDENT token and wraps it in an IdentExpr. It does
// not strip a leading underscore: callers parsing a position where a
// wildcard is legal should dispatch on the token/literal themselves (see
// parsePattern, parseFuncParam, parseForVar).
func (p *parser) parseIdent() *ast.IdentExpr {
	if p.tok != token.IDENT {
		p.errorExpected(p.pos, "identifier")
		panic(errPanicMode)
	}
	name := p.val.String
	pos := p.pos
	p.advance()
	return &ast.IdentExpr{Start: pos, Name: name}
}

// parseChunk parses an entire file: a sequence of top-level statements with
// no enclosing indentation.
func (p *parser) parseChunk() *ast.Chunk {
	start := p.pos
	nodes := p.parseStatements()
	end := p.pos
	return &ast.Chunk{
		Block:     &ast.Block{Start: start, End: end, Nodes: nodes},
		Constants: p.constants,
		EOF:       p.pos,
	}
}

// parseStatements parses nodes until it sees a DEDENT or EOF, skipping blank
// (NEWLINE-only) lines in between.
func (p *parser) parseStatements() []ast.Node {
	var nodes []ast.Node
	for p.tok != token.DEDENT && p.tok != token.EOF {
		if p.tok == token.NEWLINE {
			p.advance()
			continue
		}
		nodes = append(nodes, p.parseStmt())
	}
	return nodes
}

// parseBody parses the body of a construct that introduces a block: either
// an expression on the same line, optionally introduced by `then` (as in
// `if x then 1 else 2` or `|a, b| a + b`), or a NEWLINE followed by an
// indented block.
func (p *parser) parseBody() *ast.Block {
	if p.tok != token.NEWLINE {
		if p.tok == token.THEN {
			p.advance()
		}
		start := p.pos
		e := p.parseExpr()
		_, end := e.Span()
		return &ast.Block{Start: start, End: end, Nodes: []ast.Node{e}}
	}
	p.expect(token.NEWLINE)
	start := p.pos
	p.expect(token.INDENT)
	nodes := p.parseStatements()
	end := p.pos
	p.expect(token.DEDENT)
	return &ast.Block{Start: start, End: end, Nodes: nodes}
}

// parseMapBlock parses the indented `key: value` form of a map literal, used
// as the right-hand side of an assignment with no inline value (spec §4.1
// "Map" / map-block form).
func (p *parser) parseMapBlock() *ast.MapExpr {
	p.expect(token.NEWLINE)
	start := p.pos
	p.expect(token.INDENT)
	var items []*ast.MapEntry
	for p.tok != token.DEDENT && p.tok != token.EOF {
		if p.tok == token.NEWLINE {
			p.advance()
			continue
		}
		items = append(items, p.parseMapEntry())
	}
	end := p.pos
	p.expect(token.DEDENT)
	return &ast.MapExpr{Start: start, End: end, Block: true, Items: items}
}

// parseStmt parses one top-level-or-block-level statement, recovering from
// panic-mode errors into a BadExpr so the rest of the block can still be
// parsed.
func (p *parser) parseStmt() (node ast.Node) {
	start := p.pos
	defer func() {
		if r := recover(); r != nil {
			if r != errPanicMode {
				panic(r)
			}
			node = &ast.BadExpr{Start: start, End: p.pos}
			p.syncStmt()
		}
	}()
	return p.parseStmtExpr()
}

// syncStmt advances past tokens until the next statement boundary, so a
// single malformed statement doesn't cascade into spurious errors for the
// rest of the block.
func (p *parser) syncStmt() {
	for p.tok != token.NEWLINE && p.tok != token.DEDENT && p.tok != token.EOF {
		p.advance()
	}
}

func (p *parser) parseStmtExpr() ast.Node {
	switch p.tok {
	case token.IMPORT:
		return p.parseImport()
	case token.FROM:
		return p.parseFromImport()
	case token.EXPORT:
		return p.parseExport()
	case token.DEBUG:
		return p.parseDebugStmt()
	}
	return p.parseAssignOrExpr()
}

func isCompoundAssign(tok token.Token) bool {
	switch tok {
	case token.PLUS_EQ, token.MINUS_EQ, token.STAR_EQ, token.SLASH_EQ, token.PERCENT_EQ:
		return true
	default:
		return false
	}
}

// parseAssignOrExpr parses a general expression and, if it is followed by
// `,` (more targets) or an assignment operator, folds it into an AssignExpr
// (spec §4.1 "Assignments": implicit declaration, single or multiple
// targets, compound operators).
func (p *parser) parseAssignOrExpr() ast.Node {
	first := p.parseExpr()
	if p.tok != token.COMMA && p.tok != token.EQ && !isCompoundAssign(p.tok) {
		return first
	}

	targets := []ast.Node{first}
	for p.tok == token.COMMA {
		p.advance()
		targets = append(targets, p.parseExpr())
	}

	if p.tok != token.EQ && !isCompoundAssign(p.tok) {
		p.errorExpected(p.pos, "'='")
		panic(errPanicMode)
	}
	op := p.tok
	opPos := p.pos
	p.advance()

	for _, t := range targets {
		if !ast.IsAssignable(t) {
			start, _ := t.Span()
			p.error(start, "invalid assignment target")
		}
	}

	var values []ast.Node
	if op == token.EQ && p.tok == token.NEWLINE {
		values = []ast.Node{p.parseMapBlock()}
	} else {
		values = append(values, p.parseExpr())
		for p.tok == token.COMMA {
			p.advance()
			values = append(values, p.parseExpr())
		}
	}

	return &ast.AssignExpr{Targets: targets, Op: op, OpPos: opPos, Values: values}
}

func (p *parser) parseImport() *ast.ImportExpr {
	start := p.pos
	p.advance()
	path := []*ast.IdentExpr{p.parseIdent()}
	for p.tok == token.DOT {
		p.advance()
		path = append(path, p.parseIdent())
	}
	var alias *ast.IdentExpr
	if p.tok == token.IDENT && p.val.String == "as" {
		p.advance()
		alias = p.parseIdent()
	}
	return &ast.ImportExpr{Start: start, Path: path, Alias: alias}
}

func (p *parser) parseFromImport() *ast.FromImportExpr {
	start := p.pos
	p.advance()
	module := []*ast.IdentExpr{p.parseIdent()}
	for p.tok == token.DOT {
		p.advance()
		module = append(module, p.parseIdent())
	}
	p.expect(token.IMPORT)
	items := []*ast.FromImportItem{p.parseFromImportItem()}
	for p.tok == token.COMMA {
		p.advance()
		items = append(items, p.parseFromImportItem())
	}
	return &ast.FromImportExpr{Start: start, Module: module, Items: items}
}

func (p *parser) parseFromImportItem() *ast.FromImportItem {
	name := p.parseIdent()
	var alias *ast.IdentExpr
	if p.tok == token.IDENT && p.val.String == "as" {
		p.advance()
		alias = p.parseIdent()
	}
	return &ast.FromImportItem{Name: name, Alias: alias}
}

func (p *parser) parseExport() *ast.ExportExpr {
	start := p.pos
	p.advance()
	var target ast.Node
	if p.tok == token.AT {
		target = p.parseMetaKey()
	} else {
		target = p.parseIdent()
	}
	p.expect(token.EQ)
	val := p.parseExpr()
	return &ast.ExportExpr{Start: start, Target: target, Value: val}
}

// parseDebugStmt parses `debug expr`, capturing the verbatim source text of
// expr for the `[path:line] expr: value` runtime message (spec §7).
func (p *parser) parseDebugStmt() *ast.DebugExpr {
	start := p.pos
	p.advance()
	startOff := p.scanner.Offset()
	expr := p.parseExpr()
	endOff := p.scanner.Offset()
	text := strings.TrimSpace(string(p.src[startOff:endOff]))
	return &ast.DebugExpr{Start: start, Expr: expr, ExprText: text}
}
