package value

// Equal implements the `eq` builtin's structural equality contract
// (spec §4.E, §8): cross-type (including int vs real) is never equal;
// list shape (paren/bracket/brace) is part of identity; lambdas compare
// by identity (their lambda id). DATUM cross-type equality follows the
// reference behavior from spec §9: compare by the inner wrapped value
// after one level of unwrap.
func Equal(a, b Value) bool {
	at, bt := a.Type(), b.Type()
	if at == TagDatum {
		if inner, ok := a.Inner(); ok {
			a = inner
			at = a.Type()
		}
	}
	if bt == TagDatum {
		if inner, ok := b.Inner(); ok {
			b = inner
			bt = b.Type()
		}
	}
	if at != bt {
		return false
	}
	switch at {
	case TagNone:
		return true
	case TagInteger:
		ai, _ := a.AsInt()
		bi, _ := b.AsInt()
		return ai == bi
	case TagReal:
		af, _ := a.AsReal()
		bf, _ := b.AsReal()
		return af == bf
	case TagRune:
		ar, _ := a.AsRune()
		br, _ := b.AsRune()
		return ar == br
	case TagSymbol:
		as, _ := a.AsSymbol()
		bs, _ := b.AsSymbol()
		return as == bs
	case TagDQList:
		as, _ := a.AsString()
		bs, _ := b.AsString()
		return as == bs
	case TagParenList, TagBracketList, TagBraceList:
		al, _ := a.AsList()
		bl, _ := b.AsList()
		if len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !Equal(al[i], bl[i]) {
				return false
			}
		}
		return true
	case TagSome, TagError:
		ai, _ := a.Inner()
		bi, _ := b.Inner()
		return Equal(ai, bi)
	case TagAberrant:
		aid, _ := a.AberrantID()
		bid, _ := b.AberrantID()
		return aid == bid
	default:
		return false
	}
}
