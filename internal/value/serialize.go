package value

import (
	"strconv"
	"strings"
)

// String renders a Value back to sxs source text. It is the inverse of
// the parser for every construct the grammar accepts, which is what
// spec §8's parse/serialize invariant relies on: evaluating `(eval X)`
// must behave like parsing X once.
func (v Value) String() string {
	var sb strings.Builder
	v.write(&sb)
	return sb.String()
}

func (v Value) write(sb *strings.Builder) {
	u := v.unit()
	switch u.tag {
	case TagNone:
		sb.WriteString("()")
	case TagInteger:
		i, _ := v.AsInt()
		writeInt(sb, i)
	case TagReal:
		f, _ := v.AsReal()
		writeReal(sb, f)
	case TagRune:
		r, _ := v.AsRune()
		sb.WriteRune(r)
	case TagSymbol:
		s, _ := v.AsSymbol()
		sb.WriteString(s)
	case TagDQList:
		s, _ := v.AsString()
		sb.WriteByte('"')
		for _, r := range s {
			if r == '"' || r == '\\' {
				sb.WriteByte('\\')
			}
			sb.WriteRune(r)
		}
		sb.WriteByte('"')
	case TagParenList:
		writeList(sb, v, '(', ')')
	case TagBracketList:
		writeList(sb, v, '[', ']')
	case TagBraceList:
		writeList(sb, v, '{', '}')
	case TagSome:
		sb.WriteByte('\'')
		inner, _ := v.Inner()
		inner.write(sb)
	case TagDatum:
		sb.WriteString("#(")
		inner, _ := v.Inner()
		if lst, ok := inner.AsList(); ok {
			writeItems(sb, lst)
		} else {
			inner.write(sb)
		}
		sb.WriteByte(')')
	case TagError:
		sb.WriteString("@(")
		inner, _ := v.Inner()
		if lst, ok := inner.AsList(); ok {
			writeItems(sb, lst)
		} else {
			inner.write(sb)
		}
		sb.WriteByte(')')
	case TagAberrant:
		sb.WriteString("<fn>")
	}
}

func writeList(sb *strings.Builder, v Value, open, close byte) {
	sb.WriteByte(open)
	items, _ := v.AsList()
	writeItems(sb, items)
	sb.WriteByte(close)
}

func writeItems(sb *strings.Builder, items []Value) {
	for i, it := range items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		it.write(sb)
	}
}

func writeInt(sb *strings.Builder, i int64) {
	sb.WriteString(strconv.FormatInt(i, 10))
}

// writeReal mirrors the parser's strconv.ParseFloat on the way out:
// shortest round-tripping decimal, with a trailing ".0" forced on so a
// whole-valued real still reads back as REAL rather than INTEGER
// (spec's "integer dot integer" real literal shape).
func writeReal(sb *strings.Builder, f float64) {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	sb.WriteString(s)
}
