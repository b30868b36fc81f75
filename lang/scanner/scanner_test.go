package scanner_test

import (
	"testing"

	"github.com/mna/koto/lang/scanner"
	"github.com/mna/koto/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) ([]token.Token, []token.Value) {
	t.Helper()
	fs := token.NewFileSet()
	f := fs.AddFile("test.koto", -1, len(src))

	var s scanner.Scanner
	var errs []string
	s.Init(f, []byte(src), func(pos token.Position, msg string) {
		errs = append(errs, msg)
	})

	var toks []token.Token
	var vals []token.Value
	for {
		var v token.Value
		tok := s.Scan(&v)
		toks = append(toks, tok)
		vals = append(vals, v)
		if tok == token.EOF {
			break
		}
	}
	require.Empty(t, errs)
	return toks, vals
}

func TestScanIdentsAndKeywords(t *testing.T) {
	toks, _ := scanAll(t, "foo if else\n")
	require.Equal(t, []token.Token{token.IDENT, token.IF, token.ELSE, token.NEWLINE, token.EOF}, toks)
}

func TestScanNumbers(t *testing.T) {
	toks, vals := scanAll(t, "1 2.5 0x1F 0b101\n")
	require.Equal(t, []token.Token{token.INT, token.FLOAT, token.INT, token.INT, token.NEWLINE, token.EOF}, toks)
	require.Equal(t, int64(1), vals[0].Int)
	require.Equal(t, 2.5, vals[1].Float)
	require.Equal(t, int64(31), vals[2].Int)
	require.Equal(t, int64(5), vals[3].Int)
}

func TestScanPunctuation(t *testing.T) {
	toks, _ := scanAll(t, "+ - += <= == != |> ...\n")
	require.Equal(t, []token.Token{
		token.PLUS, token.MINUS, token.PLUS_EQ, token.LE, token.EQL, token.NEQ,
		token.PIPEOP, token.ELLIPSIS, token.NEWLINE, token.EOF,
	}, toks)
}

func TestScanSimpleString(t *testing.T) {
	toks, vals := scanAll(t, `'hello world'`+"\n")
	require.Equal(t, []token.Token{token.STRING, token.NEWLINE, token.EOF}, toks)
	require.Equal(t, "hello world", vals[0].String)
}

func TestScanStringEscapes(t *testing.T) {
	toks, vals := scanAll(t, `"a\nb\tc"`+"\n")
	require.Equal(t, []token.Token{token.STRING, token.NEWLINE, token.EOF}, toks)
	require.Equal(t, "a\nb\tc", vals[0].String)
}

func TestScanBareInterpolation(t *testing.T) {
	toks, vals := scanAll(t, `"x = $x!"`+"\n")
	require.Equal(t, []token.Token{
		token.STRING_START, token.IDENT, token.STRING_END, token.NEWLINE, token.EOF,
	}, toks)
	require.Equal(t, "x = ", vals[0].String)
	require.Equal(t, "x", vals[1].String)
	require.Equal(t, "!", vals[2].String)
}

func TestScanBracedInterpolation(t *testing.T) {
	toks, _ := scanAll(t, `"total: ${1 + 2}"` + "\n")
	require.Equal(t, []token.Token{
		token.STRING_START, token.INT, token.PLUS, token.INT, token.STRING_END,
		token.NEWLINE, token.EOF,
	}, toks)
}

func TestScanIndentation(t *testing.T) {
	src := "if true\n  1\n  2\n0\n"
	toks, _ := scanAll(t, src)
	require.Equal(t, []token.Token{
		token.IF, token.TRUE, token.NEWLINE,
		token.INDENT, token.INT, token.NEWLINE, token.INT, token.NEWLINE,
		token.DEDENT, token.INT, token.NEWLINE, token.EOF,
	}, toks)
}

func TestScanComment(t *testing.T) {
	toks, _ := scanAll(t, "1 # a comment\n2\n")
	require.Equal(t, []token.Token{token.INT, token.NEWLINE, token.INT, token.NEWLINE, token.EOF}, toks)
}

func TestScanParenSuppressesNewline(t *testing.T) {
	toks, _ := scanAll(t, "(1,\n2)\n")
	require.Equal(t, []token.Token{
		token.LPAREN, token.INT, token.COMMA, token.INT, token.RPAREN, token.NEWLINE, token.EOF,
	}, toks)
}
