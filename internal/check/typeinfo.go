// Package check implements the static type-and-form checker described
// in spec §4.C: a recursive walk over value.Value trees that computes a
// TypeInfo per node while registering forms and lambda signatures into
// a shared Context.
package check

import "github.com/sxslang/sxs/internal/value"

// TypeInfo mirrors the record in spec §3.3: a base tag, an optional
// lambda id (for ABERRANT values), an optional form name plus its
// ordered element types, a variadic flag, and a Pseudo marker for the
// handful of type symbols (:any, :numeric, :callable, :okay, :list)
// that don't correspond to exactly one value.Tag.
type TypeInfo struct {
	Base         value.Tag
	LambdaID     uint64
	FormName     string
	FormElements []TypeInfo
	Variadic     bool
	Pseudo       string
}

func AnyType() TypeInfo      { return TypeInfo{Base: value.TagNone, Pseudo: "any"} }
func NoneType() TypeInfo     { return TypeInfo{Base: value.TagNone} }
func IntType() TypeInfo      { return TypeInfo{Base: value.TagInteger} }
func RealType() TypeInfo     { return TypeInfo{Base: value.TagReal} }
func RuneType() TypeInfo     { return TypeInfo{Base: value.TagRune} }
func StringType() TypeInfo   { return TypeInfo{Base: value.TagDQList} }
func SymbolType() TypeInfo   { return TypeInfo{Base: value.TagSymbol} }
func ParenListType() TypeInfo   { return TypeInfo{Base: value.TagParenList} }
func BracketListType() TypeInfo { return TypeInfo{Base: value.TagBracketList} }
func BraceListType() TypeInfo   { return TypeInfo{Base: value.TagBraceList} }
func SomeType() TypeInfo     { return TypeInfo{Base: value.TagSome} }
func DatumType() TypeInfo    { return TypeInfo{Base: value.TagDatum} }
func ErrorType() TypeInfo    { return TypeInfo{Base: value.TagError} }
func NumericType() TypeInfo  { return TypeInfo{Pseudo: "numeric"} }
func CallableType() TypeInfo { return TypeInfo{Pseudo: "callable"} }
func ListType() TypeInfo     { return TypeInfo{Pseudo: "list"} }
func OkayType() TypeInfo     { return TypeInfo{Pseudo: "okay"} }

// AberrantType is the type of a lambda value carrying id: ABERRANT with
// a non-zero lambda id resolves to its signature via the Context.
func AberrantType(id uint64) TypeInfo {
	return TypeInfo{Base: value.TagAberrant, LambdaID: id}
}

// FormType is the type of a brace list tagged with a user-declared form.
func FormType(name string, elements []TypeInfo) TypeInfo {
	return TypeInfo{Base: value.TagBraceList, FormName: name, FormElements: elements}
}

// FromTag builds the TypeInfo for a bare value tag, used when a node's
// static type is simply "whatever tag this runtime value carries" (e.g.
// an ABERRANT literal with no registered signature).
func FromTag(t value.Tag) TypeInfo { return TypeInfo{Base: t} }

// Compatible implements the checker's type-compatibility rule (spec
// §4.C): NONE (any) matches everything; two PAREN_LIST types match
// regardless of content; otherwise tags must be equal; form-tagged
// brace lists additionally require element-wise compatibility when
// both sides carry form_elements.
func Compatible(want, got TypeInfo) bool {
	switch want.Pseudo {
	case "any":
		return true
	case "numeric":
		return got.Base == value.TagInteger || got.Base == value.TagReal
	case "callable":
		return got.Base == value.TagAberrant
	case "okay":
		return got.Base != value.TagError
	case "list":
		return got.Base == value.TagParenList || got.Base == value.TagBracketList || got.Base == value.TagBraceList
	}
	if want.Base == value.TagNone {
		return true
	}
	if want.Base == value.TagParenList && got.Base == value.TagParenList {
		return true
	}
	if want.Base != got.Base {
		return false
	}
	if want.FormName != "" && got.FormName != "" {
		if len(want.FormElements) != len(got.FormElements) {
			return false
		}
		for i := range want.FormElements {
			if !Compatible(want.FormElements[i], got.FormElements[i]) {
				return false
			}
		}
	}
	return true
}
