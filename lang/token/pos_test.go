package token_test

import (
	"testing"

	"github.com/mna/koto/lang/token"
	"github.com/stretchr/testify/require"
)

func TestPosLineCol(t *testing.T) {
	p := token.MakePos(12, 34)
	line, col := p.LineCol()
	require.Equal(t, 12, line)
	require.Equal(t, 34, col)
	require.True(t, p.IsValid())
	require.False(t, p.Unknown())
}

func TestPosUnknown(t *testing.T) {
	var p token.Pos
	require.True(t, p.Unknown())
	require.False(t, p.IsValid())
}

func TestFileSet(t *testing.T) {
	fs := token.NewFileSet()
	f := fs.AddFile("a.koto", -1, 100)
	require.Equal(t, "a.koto", f.Name())
	require.Equal(t, 100, f.Size())

	pos := f.Position(token.MakePos(3, 5))
	require.Equal(t, token.Position{Filename: "a.koto", Line: 3, Column: 5}, pos)
	require.Same(t, f, fs.File("a.koto"))
}

func TestSortPositions(t *testing.T) {
	ps := []token.Position{
		{Filename: "b.koto", Line: 1, Column: 1},
		{Filename: "a.koto", Line: 5, Column: 1},
		{Filename: "a.koto", Line: 2, Column: 9},
	}
	token.SortPositions(ps)
	require.Equal(t, "a.koto", ps[0].Filename)
	require.Equal(t, 2, ps[0].Line)
	require.Equal(t, 5, ps[1].Line)
	require.Equal(t, "b.koto", ps[2].Filename)
}
