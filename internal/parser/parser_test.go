package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sxslang/sxs/internal/value"
)

func TestParseIntegerList(t *testing.T) {
	p := NewFromString("(add 1 2 3)")
	v, ok, err := p.ParseOne()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value.TagParenList, v.Type())
	items, ok := v.AsList()
	require.True(t, ok)
	require.Len(t, items, 4)
	sym, ok := items[0].AsSymbol()
	require.True(t, ok)
	assert.Equal(t, "add", sym)
}

func TestParseRoundTripsToSameText(t *testing.T) {
	p := NewFromString("(add 1 2)")
	v, _, err := p.ParseOne()
	require.NoError(t, err)
	assert.Equal(t, "(add 1 2)", v.String())
}

func TestParseNestedBrackets(t *testing.T) {
	p := NewFromString("(fn (x :int) :int [x])")
	v, _, err := p.ParseOne()
	require.NoError(t, err)
	items, _ := v.AsList()
	require.Len(t, items, 4)
	assert.Equal(t, value.TagParenList, items[1].Type())
	assert.Equal(t, value.TagBracketList, items[3].Type())
}

func TestParseQuote(t *testing.T) {
	p := NewFromString("'(1 2)")
	v, _, err := p.ParseOne()
	require.NoError(t, err)
	assert.Equal(t, value.TagSome, v.Type())
	inner, ok := v.Inner()
	require.True(t, ok)
	assert.Equal(t, value.TagParenList, inner.Type())
}

func TestParseDatum(t *testing.T) {
	p := NewFromString("#(1 2 3)")
	v, _, err := p.ParseOne()
	require.NoError(t, err)
	assert.Equal(t, value.TagDatum, v.Type())
	inner, ok := v.Inner()
	require.True(t, ok)
	items, ok := inner.AsList()
	require.True(t, ok)
	assert.Len(t, items, 3)
}

func TestParseErrorForm(t *testing.T) {
	p := NewFromString(`@("boom")`)
	v, _, err := p.ParseOne()
	require.NoError(t, err)
	assert.Equal(t, value.TagError, v.Type())
	inner, ok := v.Inner()
	require.True(t, ok)
	s, ok := inner.AsString()
	require.True(t, ok)
	assert.Equal(t, "boom", s)
}

func TestParseMultipleTopLevelForms(t *testing.T) {
	p := NewFromString("(def x 1) (def y 2) (eq x y)")
	forms, err := p.ParseAll()
	require.NoError(t, err)
	require.Len(t, forms, 3)
}

func TestParseUnterminatedListReportsPosition(t *testing.T) {
	p := NewFromString("(add 1 2")
	_, _, err := p.ParseOne()
	require.Error(t, err)
	perr, ok := err.(*ParseError)
	require.True(t, ok)
	assert.Equal(t, 1, perr.Line)
}

func TestParseMismatchedBracketIsRejected(t *testing.T) {
	p := NewFromString("(add 1 2]")
	_, _, err := p.ParseOne()
	require.Error(t, err)
}

func TestParseTypeSymbol(t *testing.T) {
	p := NewFromString(":int")
	v, _, err := p.ParseOne()
	require.NoError(t, err)
	sym, ok := v.AsSymbol()
	require.True(t, ok)
	assert.Equal(t, ":int", sym)
}

func TestParseEmptyInputYieldsNoForm(t *testing.T) {
	p := NewFromString("   ")
	_, ok, err := p.ParseOne()
	require.NoError(t, err)
	assert.False(t, ok)
}
