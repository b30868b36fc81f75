package ast_test

import (
	"fmt"
	"testing"

	"github.com/mna/koto/lang/ast"
	"github.com/mna/koto/lang/token"
	"github.com/stretchr/testify/require"
)

func TestConstantPoolDedup(t *testing.T) {
	p := ast.NewConstantPool()
	a := p.String("hello")
	b := p.String("world")
	c := p.String("hello")
	require.Equal(t, a, c)
	require.NotEqual(t, a, b)
	require.Len(t, p.Values, 2)
}

func TestConstantPoolNumbers(t *testing.T) {
	p := ast.NewConstantPool()
	i1 := p.Int(42)
	i2 := p.Int(42)
	require.NotEqual(t, i1, i2)
	f := p.Float(1.5)
	require.Equal(t, 1.5, p.Values[f])
}

func TestWalk(t *testing.T) {
	id := &ast.IdentExpr{Name: "x"}
	lit := &ast.LiteralExpr{Kind: ast.LitInt, Int: 1}
	bin := &ast.BinOpExpr{Left: id, Op: token.PLUS, Right: lit}
	block := &ast.Block{Nodes: []ast.Node{bin}}

	var visited []ast.Node
	ast.Walk(func(n ast.Node) bool {
		visited = append(visited, n)
		return true
	}, block)
	require.Len(t, visited, 4)
}

func TestWalkShortCircuit(t *testing.T) {
	id := &ast.IdentExpr{Name: "x"}
	bin := &ast.BinOpExpr{Left: id, Op: token.PLUS, Right: id}

	var visited int
	ast.Walk(func(n ast.Node) bool {
		visited++
		return false
	}, bin)
	require.Equal(t, 1, visited)
}

func TestIsAssignable(t *testing.T) {
	require.True(t, ast.IsAssignable(&ast.IdentExpr{Name: "x"}))
	require.True(t, ast.IsAssignable(&ast.WildcardExpr{}))
	require.True(t, ast.IsAssignable(&ast.MetaExpr{}))
	require.True(t, ast.IsAssignable(&ast.LookupExpr{}))
	require.False(t, ast.IsAssignable(&ast.LiteralExpr{Kind: ast.LitInt}))
}

func TestFormat(t *testing.T) {
	b := &ast.Block{Nodes: []ast.Node{&ast.IdentExpr{Name: "x"}}}
	require.Equal(t, "block", fmt.Sprintf("%v", b))
	require.Equal(t, "block {nodes=1}", fmt.Sprintf("%#v", b))
}

func TestBlockSpan(t *testing.T) {
	b := &ast.Block{Start: token.MakePos(1, 1), End: token.MakePos(1, 10)}
	start, end := b.Span()
	require.Equal(t, token.MakePos(1, 1), start)
	require.Equal(t, token.MakePos(1, 10), end)
}
