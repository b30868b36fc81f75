package resolver_test

import (
	"context"
	"testing"

	"github.com/mna/koto/lang/ast"
	"github.com/mna/koto/lang/parser"
	"github.com/mna/koto/lang/resolver"
	"github.com/mna/koto/lang/token"
	"github.com/stretchr/testify/require"
)

func parseSrc(t *testing.T, src string) (*token.FileSet, *ast.Chunk) {
	t.Helper()
	fs := token.NewFileSet()
	ch, err := parser.ParseSource(fs, "test.koto", []byte(src))
	require.NoError(t, err)
	return fs, ch
}

func TestResolveSimpleLocal(t *testing.T) {
	fs, ch := parseSrc(t, "x = 1\ny = x + 1\n")
	err := resolver.ResolveFiles(context.Background(), fs, []*ast.Chunk{ch}, nil, nil)
	require.NoError(t, err)
}

func TestResolveUndefined(t *testing.T) {
	fs, ch := parseSrc(t, "y = x + 1\n")
	err := resolver.ResolveFiles(context.Background(), fs, []*ast.Chunk{ch}, nil, nil)
	require.Error(t, err)
}

func TestResolvePredeclared(t *testing.T) {
	fs, ch := parseSrc(t, "y = args\n")
	err := resolver.ResolveFiles(context.Background(), fs, []*ast.Chunk{ch},
		func(name string) bool { return name == "args" }, nil)
	require.NoError(t, err)
}

func TestResolveCapture(t *testing.T) {
	fs, ch := parseSrc(t, "x = 1\nf = || x + 1\n")
	err := resolver.ResolveFiles(context.Background(), fs, []*ast.Chunk{ch}, nil, nil)
	require.NoError(t, err)

	var fn *ast.FuncExpr
	ast.Walk(func(n ast.Node) bool {
		if f, ok := n.(*ast.FuncExpr); ok {
			fn = f
		}
		return true
	}, ch)
	require.NotNil(t, fn)
	require.Equal(t, []string{"x"}, fn.AccessedNonLocals)
}

func TestResolveBreakOutsideLoop(t *testing.T) {
	fs, ch := parseSrc(t, "break\n")
	err := resolver.ResolveFiles(context.Background(), fs, []*ast.Chunk{ch}, nil, nil)
	require.Error(t, err)
}

func TestResolveForLoopVar(t *testing.T) {
	fs, ch := parseSrc(t, "for x in [1, 2, 3]\n  y = x\n")
	err := resolver.ResolveFiles(context.Background(), fs, []*ast.Chunk{ch}, nil, nil)
	require.NoError(t, err)
}
