package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderScalars(t *testing.T) {
	b := NewBuilder()

	i := b.Int(42)
	assert.Equal(t, TagInteger, i.Type())
	iv, ok := i.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(42), iv)

	r := b.Real(3.5)
	rv, ok := r.AsReal()
	require.True(t, ok)
	assert.InDelta(t, 3.5, rv, 1e-9)

	s := b.Symbol("foo")
	sv, ok := s.AsSymbol()
	require.True(t, ok)
	assert.Equal(t, "foo", sv)
}

func TestBuilderString(t *testing.T) {
	b := NewBuilder()
	s := b.String("hello")
	got, ok := s.AsString()
	require.True(t, ok)
	assert.Equal(t, "hello", got)
}

func TestBuilderLists(t *testing.T) {
	b := NewBuilder()
	list := b.ParenList(b.Int(1), b.Int(2), b.Int(3))
	assert.Equal(t, TagParenList, list.Type())
	items, ok := list.AsList()
	require.True(t, ok)
	require.Len(t, items, 3)
	v, _ := items[1].AsInt()
	assert.Equal(t, int64(2), v)
}

func TestEqualShapeMatters(t *testing.T) {
	b := NewBuilder()
	p := b.ParenList(b.Int(1), b.Int(2), b.Int(3))
	br := b.BracketList(b.Int(1), b.Int(2), b.Int(3))
	assert.False(t, Equal(p, br), "paren and bracket lists must not be equal even with identical elements")
}

func TestEqualCrossTypeNumeric(t *testing.T) {
	b := NewBuilder()
	assert.False(t, Equal(b.Int(1), b.Real(1.0)), "int and real must never compare equal")
}

func TestEqualReflexive(t *testing.T) {
	b := NewBuilder()
	v := b.ParenList(b.Symbol("x"), b.Int(7))
	assert.True(t, Equal(v, v))
}

func TestAberrantIdentity(t *testing.T) {
	b := NewBuilder()
	f := b.Aberrant(0, 1)
	g := b.Aberrant(0, 2)
	assert.True(t, Equal(f, f))
	assert.False(t, Equal(f, g))
}

func TestSerializeRoundTrip(t *testing.T) {
	b := NewBuilder()
	v := b.ParenList(b.Symbol("add"), b.Int(1), b.Int(2))
	assert.Equal(t, "(add 1 2)", v.String())
}

func TestDatumOneLevelUnwrapEquality(t *testing.T) {
	b := NewBuilder()
	inner := b.Int(5)
	d := b.Datum(inner)
	assert.True(t, Equal(d, b.Int(5)), "datum compares equal to its unwrapped inner value")
}

func TestAdoptNestedListAcrossStoresPreservesChildren(t *testing.T) {
	src := NewBuilder()
	inner := src.ParenList(src.Int(1), src.Int(2))
	outer := src.ParenList(src.Int(99), inner, src.Int(100))

	dst := NewBuilder()
	copied := dst.ParenList(outer)

	items, ok := copied.AsList()
	require.True(t, ok)
	require.Len(t, items, 1)

	outerItems, ok := items[0].AsList()
	require.True(t, ok)
	require.Len(t, outerItems, 3)

	first, _ := outerItems[0].AsInt()
	assert.Equal(t, int64(99), first)

	nested, ok := outerItems[1].AsList()
	require.True(t, ok)
	require.Len(t, nested, 2)
	n0, _ := nested[0].AsInt()
	n1, _ := nested[1].AsInt()
	assert.Equal(t, int64(1), n0)
	assert.Equal(t, int64(2), n1)

	last, _ := outerItems[2].AsInt()
	assert.Equal(t, int64(100), last)
}
