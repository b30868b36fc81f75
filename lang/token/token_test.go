package token_test

import (
	"testing"

	"github.com/mna/koto/lang/token"
	"github.com/stretchr/testify/require"
)

func TestTokenStrings(t *testing.T) {
	cases := []struct {
		tok  token.Token
		want string
	}{
		{token.PLUS, "+"},
		{token.DOTDOTEQ, "..="},
		{token.IF, "if"},
		{token.EOF, "end of file"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.tok.String())
	}
}

func TestGoString(t *testing.T) {
	require.Equal(t, "'+'", token.PLUS.GoString())
	require.Equal(t, "if", token.IF.GoString())
}

func TestIsComparison(t *testing.T) {
	require.True(t, token.LT.IsComparison())
	require.True(t, token.EQL.IsComparison())
	require.False(t, token.PLUS.IsComparison())
}

func TestKeywords(t *testing.T) {
	tok, ok := token.Keywords["match"]
	require.True(t, ok)
	require.Equal(t, token.MATCH, tok)
	require.True(t, tok.IsKeyword())
}
