package parser_test

import (
	"testing"

	"github.com/mna/koto/lang/ast"
	"github.com/mna/koto/lang/parser"
	"github.com/mna/koto/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *ast.Chunk {
	t.Helper()
	fs := token.NewFileSet()
	ch, err := parser.ParseSource(fs, "test.koto", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, ch)
	return ch
}

func firstNode(t *testing.T, ch *ast.Chunk) ast.Node {
	t.Helper()
	require.NotEmpty(t, ch.Block.Nodes)
	return ch.Block.Nodes[0]
}

func TestParseLiterals(t *testing.T) {
	ch := parse(t, "1\n1.5\n'hi'\ntrue\nfalse\nnull\n")
	require.Len(t, ch.Block.Nodes, 6)
	lit, ok := ch.Block.Nodes[0].(*ast.LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, ast.LitInt, lit.Kind)
	assert.True(t, lit.SmallInt)
}

func TestParseIdentAndWildcard(t *testing.T) {
	ch := parse(t, "x\n_\n_foo\n")
	_, ok := ch.Block.Nodes[0].(*ast.IdentExpr)
	require.True(t, ok)
	w, ok := ch.Block.Nodes[1].(*ast.WildcardExpr)
	require.True(t, ok)
	assert.Empty(t, w.Name)
	w2, ok := ch.Block.Nodes[2].(*ast.WildcardExpr)
	require.True(t, ok)
	assert.Equal(t, "foo", w2.Name)
}

func TestParseAssignSimple(t *testing.T) {
	ch := parse(t, "x = 1\n")
	as, ok := firstNode(t, ch).(*ast.AssignExpr)
	require.True(t, ok)
	assert.Equal(t, token.EQ, as.Op)
	require.Len(t, as.Targets, 1)
	require.Len(t, as.Values, 1)
}

func TestParseAssignMultiTarget(t *testing.T) {
	ch := parse(t, "x, y = 1, 2\n")
	as, ok := firstNode(t, ch).(*ast.AssignExpr)
	require.True(t, ok)
	assert.Len(t, as.Targets, 2)
	assert.Len(t, as.Values, 2)
}

func TestParseCompoundAssign(t *testing.T) {
	ch := parse(t, "x += 1\n")
	as, ok := firstNode(t, ch).(*ast.AssignExpr)
	require.True(t, ok)
	assert.Equal(t, token.PLUS_EQ, as.Op)
}

func TestParseMapBlock(t *testing.T) {
	ch := parse(t, "m =\n  a: 1\n  b: 2\n")
	as, ok := firstNode(t, ch).(*ast.AssignExpr)
	require.True(t, ok)
	m, ok := as.Values[0].(*ast.MapExpr)
	require.True(t, ok)
	assert.True(t, m.Block)
	assert.Len(t, m.Items, 2)
}

func TestParseBraceMap(t *testing.T) {
	ch := parse(t, "m = {a: 1, b: 2}\n")
	as := firstNode(t, ch).(*ast.AssignExpr)
	m, ok := as.Values[0].(*ast.MapExpr)
	require.True(t, ok)
	assert.False(t, m.Block)
	assert.Len(t, m.Items, 2)
}

func TestParseChainedComparisonFoldsToAnd(t *testing.T) {
	ch := parse(t, "1 < 2 <= 3\n")
	bin, ok := firstNode(t, ch).(*ast.BinOpExpr)
	require.True(t, ok)
	assert.Equal(t, token.AND, bin.Op)
	_, ok = bin.Left.(*ast.BinOpExpr)
	assert.True(t, ok)
	_, ok = bin.Right.(*ast.BinOpExpr)
	assert.True(t, ok)
}

func TestParseRangeShapes(t *testing.T) {
	cases := map[string]struct{ hasStart, hasEnd, incl bool }{
		"1..10\n":  {true, true, false},
		"1..=10\n": {true, true, true},
		"..10\n":   {false, true, false},
		"1..\n":    {true, false, false},
		"..\n":     {false, false, false},
	}
	for src, want := range cases {
		ch := parse(t, src)
		r, ok := firstNode(t, ch).(*ast.RangeExpr)
		require.True(t, ok, src)
		assert.Equal(t, want.hasStart, r.Start != nil, src)
		assert.Equal(t, want.hasEnd, r.End != nil, src)
		assert.Equal(t, want.incl, r.Inclusive, src)
	}
}

func TestParseLookupChain(t *testing.T) {
	ch := parse(t, "a.b[0](1, 2)\n")
	lk, ok := firstNode(t, ch).(*ast.LookupExpr)
	require.True(t, ok)
	require.Len(t, lk.Chain, 3)
	assert.NotNil(t, lk.Chain[0].Id)
	assert.NotNil(t, lk.Chain[1].Index)
	require.NotNil(t, lk.Chain[2].Call)
	assert.Len(t, lk.Chain[2].Call.Args, 2)
}

func TestParseOptionalLookup(t *testing.T) {
	ch := parse(t, "a?.b\n")
	lk, ok := firstNode(t, ch).(*ast.LookupExpr)
	require.True(t, ok)
	require.Len(t, lk.Chain, 1)
	assert.True(t, lk.Chain[0].Optional)
}

func TestParseSpaceSeparatedCall(t *testing.T) {
	ch := parse(t, "print 1, 2\n")
	lk, ok := firstNode(t, ch).(*ast.LookupExpr)
	require.True(t, ok)
	require.Len(t, lk.Chain, 1)
	require.NotNil(t, lk.Chain[0].Call)
	assert.Len(t, lk.Chain[0].Call.Args, 2)
	assert.False(t, lk.Chain[0].Call.WithParens)
}

func TestParseIfElse(t *testing.T) {
	ch := parse(t, "if x then 1 else 2\n")
	ifx, ok := firstNode(t, ch).(*ast.IfExpr)
	require.True(t, ok)
	require.NotNil(t, ifx.Else)
	require.Nil(t, ifx.ElseIf)
}

func TestParseIfElseIf(t *testing.T) {
	ch := parse(t, "if x\n  1\nelse if y\n  2\nelse\n  3\n")
	ifx, ok := firstNode(t, ch).(*ast.IfExpr)
	require.True(t, ok)
	require.NotNil(t, ifx.ElseIf)
	require.NotNil(t, ifx.ElseIf.Else)
}

func TestParseMatch(t *testing.T) {
	ch := parse(t, "match x\n  1 then 'one'\n  2 or 3 if y then 'two-or-three'\n  _ then 'other'\n")
	m, ok := firstNode(t, ch).(*ast.MatchExpr)
	require.True(t, ok)
	require.Len(t, m.Arms, 3)
	assert.Len(t, m.Arms[1].Patterns, 2)
	assert.NotNil(t, m.Arms[1].Guard)
}

func TestParseSwitch(t *testing.T) {
	ch := parse(t, "switch\n  x == 1 then 'a'\n  else 'b'\n")
	sw, ok := firstNode(t, ch).(*ast.SwitchExpr)
	require.True(t, ok)
	require.Len(t, sw.Arms, 2)
	assert.Nil(t, sw.Arms[1].Cond)
}

func TestParseForLoop(t *testing.T) {
	ch := parse(t, "for x, y in items\n  x\n")
	f, ok := firstNode(t, ch).(*ast.ForExpr)
	require.True(t, ok)
	assert.Len(t, f.Vars, 2)
}

func TestParseWhileUntilLoop(t *testing.T) {
	ch := parse(t, "while x\n  1\nuntil y\n  2\nloop\n  3\n")
	require.Len(t, ch.Block.Nodes, 3)
	_, ok := ch.Block.Nodes[0].(*ast.WhileExpr)
	assert.True(t, ok)
	_, ok = ch.Block.Nodes[1].(*ast.UntilExpr)
	assert.True(t, ok)
	_, ok = ch.Block.Nodes[2].(*ast.LoopExpr)
	assert.True(t, ok)
}

func TestParseTryCatchFinally(t *testing.T) {
	ch := parse(t, "try\n  1\ncatch e\n  2\nfinally\n  3\n")
	tr, ok := firstNode(t, ch).(*ast.TryExpr)
	require.True(t, ok)
	require.NotNil(t, tr.CatchVar)
	require.NotNil(t, tr.CatchBody)
	require.NotNil(t, tr.Finally)
}

func TestParseFuncLiteral(t *testing.T) {
	ch := parse(t, "f = |a, b| a + b\n")
	as := firstNode(t, ch).(*ast.AssignExpr)
	fn, ok := as.Values[0].(*ast.FuncExpr)
	require.True(t, ok)
	assert.Len(t, fn.Params, 2)
	assert.False(t, fn.IsVariadic)
	assert.False(t, fn.IsGenerator)
}

func TestParseFuncLiteralVariadic(t *testing.T) {
	ch := parse(t, "f = |a, rest...|\n  rest\n")
	as := firstNode(t, ch).(*ast.AssignExpr)
	fn, ok := as.Values[0].(*ast.FuncExpr)
	require.True(t, ok)
	require.True(t, fn.IsVariadic)
	assert.True(t, fn.Params[1].Rest)
}

func TestParseFuncLiteralGenerator(t *testing.T) {
	ch := parse(t, "f = ||\n  yield 1\n")
	as := firstNode(t, ch).(*ast.AssignExpr)
	fn, ok := as.Values[0].(*ast.FuncExpr)
	require.True(t, ok)
	assert.True(t, fn.IsGenerator)
}

func TestParseFuncLiteralNestedNotGenerator(t *testing.T) {
	ch := parse(t, "f = ||\n  g = ||\n    yield 1\n  1\n")
	as := firstNode(t, ch).(*ast.AssignExpr)
	fn, ok := as.Values[0].(*ast.FuncExpr)
	require.True(t, ok)
	assert.False(t, fn.IsGenerator)
}

func TestParseImportAlias(t *testing.T) {
	ch := parse(t, "import foo.bar as baz\n")
	im, ok := firstNode(t, ch).(*ast.ImportExpr)
	require.True(t, ok)
	require.Len(t, im.Path, 2)
	require.NotNil(t, im.Alias)
	assert.Equal(t, "baz", im.Alias.Name)
}

func TestParseFromImport(t *testing.T) {
	ch := parse(t, "from foo import a, b as c\n")
	fi, ok := firstNode(t, ch).(*ast.FromImportExpr)
	require.True(t, ok)
	require.Len(t, fi.Items, 2)
	assert.Nil(t, fi.Items[0].Alias)
	require.NotNil(t, fi.Items[1].Alias)
	assert.Equal(t, "c", fi.Items[1].Alias.Name)
}

func TestParseExport(t *testing.T) {
	ch := parse(t, "export x = 1\n")
	ex, ok := firstNode(t, ch).(*ast.ExportExpr)
	require.True(t, ok)
	_, ok = ex.Target.(*ast.IdentExpr)
	assert.True(t, ok)
}

func TestParseDebug(t *testing.T) {
	ch := parse(t, "debug 1 + 2\n")
	d, ok := firstNode(t, ch).(*ast.DebugExpr)
	require.True(t, ok)
	assert.Equal(t, "1 + 2", d.ExprText)
}

func TestParseInterpString(t *testing.T) {
	ch := parse(t, "'hello $name!'\n")
	is, ok := firstNode(t, ch).(*ast.InterpStringExpr)
	require.True(t, ok)
	require.Len(t, is.Exprs, 1)
	_, ok = is.Exprs[0].(*ast.IdentExpr)
	assert.True(t, ok)
}

func TestParseErrorRecovery(t *testing.T) {
	fs := token.NewFileSet()
	_, err := parser.ParseSource(fs, "test.koto", []byte("x = )\ny = 1\n"))
	require.Error(t, err)
}
