package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sxslang/sxs/internal/parser"
	"github.com/sxslang/sxs/internal/value"
)

func checkSrc(t *testing.T, ctx *Context, scope *Scope, src string) (TypeInfo, error) {
	t.Helper()
	p := parser.NewFromString(src)
	v, ok, err := p.ParseOne()
	require.NoError(t, err)
	require.True(t, ok)
	c := NewChecker(ctx)
	return c.Check(scope, v)
}

func TestCheckLiterals(t *testing.T) {
	ctx := NewContext()
	scope := NewScope()

	ti, err := checkSrc(t, ctx, scope, "42")
	require.NoError(t, err)
	assert.Equal(t, value.TagInteger, ti.Base)

	ti, err = checkSrc(t, ctx, scope, `"hi"`)
	require.NoError(t, err)
	assert.Equal(t, value.TagDQList, ti.Base)
}

func TestCheckDefAndLookup(t *testing.T) {
	ctx := NewContext()
	scope := NewScope()
	_, err := checkSrc(t, ctx, scope, "(def x 10)")
	require.NoError(t, err)
	ti, ok := scope.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, value.TagInteger, ti.Base)
}

func TestCheckRedefinitionFails(t *testing.T) {
	ctx := NewContext()
	scope := NewScope()
	_, err := checkSrc(t, ctx, scope, "(def x 10)")
	require.NoError(t, err)
	_, err = checkSrc(t, ctx, scope, "(def x 20)")
	assert.Error(t, err)
}

func TestCheckFnRegistersSignature(t *testing.T) {
	ctx := NewContext()
	scope := NewScope()
	ti, err := checkSrc(t, ctx, scope, "(fn (a :int b :int) :int [a])")
	require.NoError(t, err)
	assert.Equal(t, value.TagAberrant, ti.Base)

	sig, ok := ctx.LookupSignature(ti.LambdaID)
	require.True(t, ok)
	assert.Len(t, sig.Parameters, 2)
	assert.Equal(t, value.TagInteger, sig.ReturnType.Base)
}

func TestCheckFnReturnTypeMismatch(t *testing.T) {
	ctx := NewContext()
	scope := NewScope()
	_, err := checkSrc(t, ctx, scope, `(fn () :int ["nope"])`)
	assert.Error(t, err)
}

func TestCheckIfRequiresIntegerCondition(t *testing.T) {
	ctx := NewContext()
	scope := NewScope()
	_, err := checkSrc(t, ctx, scope, `(if "x" 1 2)`)
	assert.Error(t, err)

	ti, err := checkSrc(t, ctx, scope, `(if 1 2 3)`)
	require.NoError(t, err)
	assert.Equal(t, value.TagInteger, ti.Base)
}

func TestCheckUnknownCallableIsFatal(t *testing.T) {
	ctx := NewContext()
	scope := NewScope()
	_, err := checkSrc(t, ctx, scope, "(frobnicate 1 2)")
	assert.Error(t, err)
}

func TestCheckEmptyListIsNone(t *testing.T) {
	ctx := NewContext()
	scope := NewScope()
	ti, err := checkSrc(t, ctx, scope, "()")
	require.NoError(t, err)
	assert.Equal(t, value.TagNone, ti.Base)
}

func TestCheckEqReturnsInteger(t *testing.T) {
	ctx := NewContext()
	scope := NewScope()
	ti, err := checkSrc(t, ctx, scope, "(eq 1 2)")
	require.NoError(t, err)
	assert.Equal(t, value.TagInteger, ti.Base)
}

func TestCheckTryRequiresMatchingHandlerType(t *testing.T) {
	ctx := NewContext()
	scope := NewScope()
	_, err := checkSrc(t, ctx, scope, `(try 1 "x")`)
	assert.Error(t, err)

	ti, err := checkSrc(t, ctx, scope, `(try 1 2)`)
	require.NoError(t, err)
	assert.Equal(t, value.TagInteger, ti.Base)
}

func TestCheckUnknownTypeSymbolIsFatal(t *testing.T) {
	ctx := NewContext()
	scope := NewScope()
	_, err := checkSrc(t, ctx, scope, ":bogus")
	assert.Error(t, err)
}

func TestCheckFormType(t *testing.T) {
	ctx := NewContext()
	ctx.RegisterForm(&FormDef{Name: "point", Elements: []TypeInfo{IntType(), IntType()}})
	scope := NewScope()
	ti, err := checkSrc(t, ctx, scope, ":point")
	require.NoError(t, err)
	assert.Equal(t, value.TagBraceList, ti.Base)
	assert.Equal(t, "point", ti.FormName)
}

func TestCompatibleParenListIgnoresContent(t *testing.T) {
	a := ParenListType()
	b := ParenListType()
	assert.True(t, Compatible(a, b))
}

func TestCompatibleAnyMatchesEverything(t *testing.T) {
	assert.True(t, Compatible(AnyType(), IntType()))
	assert.True(t, Compatible(NoneType(), StringType()))
}

func TestCompatibleCrossTagFails(t *testing.T) {
	assert.False(t, Compatible(IntType(), RealType()))
}
