package check

import (
	"fmt"
	"strings"
)

// ResolveTypeSymbol resolves a `:name` or `:name..` type symbol (sym
// includes the leading colon, as produced by the parser) to the base
// tag or registered form it names (spec §3.5, §4.C). Unknown type
// symbols are fatal.
func ResolveTypeSymbol(ctx *Context, sym string) (TypeInfo, error) {
	if !strings.HasPrefix(sym, ":") {
		return TypeInfo{}, fmt.Errorf("checker: %q is not a type symbol", sym)
	}
	name := sym[1:]
	variadic := false
	if strings.HasSuffix(name, "..") {
		variadic = true
		name = name[:len(name)-2]
	}

	t, ok := builtinTypeSymbol(name)
	if !ok {
		form, found := ctx.LookupForm(name)
		if !found {
			return TypeInfo{}, fmt.Errorf("checker: unknown type symbol %q", sym)
		}
		t = FormType(form.Name, form.Elements)
	}
	t.Variadic = variadic
	return t, nil
}

func builtinTypeSymbol(name string) (TypeInfo, bool) {
	switch name {
	case "int":
		return IntType(), true
	case "real":
		return RealType(), true
	case "rune":
		return RuneType(), true
	case "str", "string", "list-q":
		return StringType(), true
	case "symbol":
		return SymbolType(), true
	case "list-p":
		return ParenListType(), true
	case "list-b":
		return BracketListType(), true
	case "list-c":
		return BraceListType(), true
	case "list":
		return ListType(), true
	case "some":
		return SomeType(), true
	case "datum":
		return DatumType(), true
	case "error":
		return ErrorType(), true
	case "fn", "callable":
		return CallableType(), true
	case "none":
		return NoneType(), true
	case "any":
		return AnyType(), true
	case "numeric":
		return NumericType(), true
	case "okay":
		return OkayType(), true
	}
	return TypeInfo{}, false
}
