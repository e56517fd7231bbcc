package lexsxs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sxslang/sxs/internal/token"
)

func tokenKinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	lx := NewFromString(src)
	var kinds []token.Kind
	for {
		tok, err := lx.Next()
		require.NoError(t, err)
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EOF {
			return kinds
		}
	}
}

func TestLexerDelimiters(t *testing.T) {
	kinds := tokenKinds(t, "([{}])")
	assert.Equal(t, []token.Kind{
		token.LPAREN, token.LBRACKET, token.LBRACE,
		token.RBRACE, token.RBRACKET, token.RPAREN, token.EOF,
	}, kinds)
}

func TestLexerIntAndReal(t *testing.T) {
	lx := NewFromString("42 -7 3.5 -0.25")

	tok, err := lx.Next()
	require.NoError(t, err)
	assert.Equal(t, token.INT, tok.Kind)
	assert.Equal(t, "42", tok.Text)

	tok, err = lx.Next()
	require.NoError(t, err)
	assert.Equal(t, token.INT, tok.Kind)
	assert.Equal(t, "-7", tok.Text)

	tok, err = lx.Next()
	require.NoError(t, err)
	assert.Equal(t, token.REAL, tok.Kind)
	assert.Equal(t, "3.5", tok.Text)

	tok, err = lx.Next()
	require.NoError(t, err)
	assert.Equal(t, token.REAL, tok.Kind)
	assert.Equal(t, "-0.25", tok.Text)
}

func TestLexerSignIsSymbolWithoutDigit(t *testing.T) {
	lx := NewFromString("-foo +bar")

	tok, err := lx.Next()
	require.NoError(t, err)
	assert.Equal(t, token.SYMBOL, tok.Kind)
	assert.Equal(t, "-foo", tok.Text)

	tok, err = lx.Next()
	require.NoError(t, err)
	assert.Equal(t, token.SYMBOL, tok.Kind)
	assert.Equal(t, "+bar", tok.Text)
}

func TestLexerString(t *testing.T) {
	lx := NewFromString(`"hello \"world\""`)
	tok, err := lx.Next()
	require.NoError(t, err)
	assert.Equal(t, token.DQSTRING, tok.Kind)
	assert.Equal(t, `hello "world"`, tok.Text)
}

func TestLexerTypeSymbol(t *testing.T) {
	lx := NewFromString(":int :list-p..")
	tok, err := lx.Next()
	require.NoError(t, err)
	assert.Equal(t, token.TYPESYMBOL, tok.Kind)
	assert.Equal(t, "int", tok.Text)

	tok, err = lx.Next()
	require.NoError(t, err)
	assert.Equal(t, token.TYPESYMBOL, tok.Kind)
	assert.Equal(t, "list-p..", tok.Text)
}

func TestLexerQuoteDatumError(t *testing.T) {
	kinds := tokenKinds(t, "'x #(1) @(err)")
	assert.Equal(t, token.QUOTE, kinds[0])
	assert.Equal(t, token.SYMBOL, kinds[1])
	assert.Equal(t, token.DATUM, kinds[2])
	assert.Equal(t, token.LPAREN, kinds[3])
	assert.Equal(t, token.INT, kinds[4])
	assert.Equal(t, token.RPAREN, kinds[5])
	assert.Equal(t, token.ERRORMARK, kinds[6])
	assert.Equal(t, token.LPAREN, kinds[7])
	assert.Equal(t, token.SYMBOL, kinds[8])
	assert.Equal(t, token.RPAREN, kinds[9])
	assert.Equal(t, token.EOF, kinds[10])
}

func TestLexerPeekDoesNotConsume(t *testing.T) {
	lx := NewFromString("(a)")
	p1, err := lx.Peek()
	require.NoError(t, err)
	p2, err := lx.Peek()
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
	n, err := lx.Next()
	require.NoError(t, err)
	assert.Equal(t, p1, n)
}

func TestLexerTrailingDotIsNotDropped(t *testing.T) {
	lx := NewFromString("123. rest")

	tok, err := lx.Next()
	require.NoError(t, err)
	assert.Equal(t, token.INT, tok.Kind)
	assert.Equal(t, "123", tok.Text)

	tok, err = lx.Next()
	require.NoError(t, err)
	assert.Equal(t, token.SYMBOL, tok.Kind)
	assert.Equal(t, ".", tok.Text)

	tok, err = lx.Next()
	require.NoError(t, err)
	assert.Equal(t, token.SYMBOL, tok.Kind)
	assert.Equal(t, "rest", tok.Text)
}

func TestLexerLineTracking(t *testing.T) {
	lx := NewFromString("(a\n b)")
	_, _ = lx.Next() // (
	_, _ = lx.Next() // a
	tok, err := lx.Next()
	require.NoError(t, err)
	assert.Equal(t, token.SYMBOL, tok.Kind)
	assert.Equal(t, 2, tok.Line)
}
