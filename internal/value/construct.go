package value

// Builder accumulates units against one Store. All construction
// primitives in this file are Builder methods so that a caller
// composing a tree of values shares a single store without having to
// thread one through manually — mirroring how the parser and the
// evaluator's `create_*` primitives in spec §4.L are meant to be used.
type Builder struct {
	s *Store
}

// NewBuilder creates a Builder backed by a fresh store.
func NewBuilder() *Builder { return &Builder{s: NewStore()} }

// NewBuilderOn creates a Builder that appends to an existing store,
// used when a kernel or checker needs to construct sibling values that
// share a buffer with a value it already holds.
func NewBuilderOn(s *Store) *Builder { return &Builder{s: s} }

// Store exposes the backing store, e.g. to hand to FromData.
func (b *Builder) Store() *Store { return b.s }

func (b *Builder) push(u unit) Value {
	off := offset(len(b.s.units))
	b.s.units = append(b.s.units, u)
	return Value{store: b.s, root: off}
}

// None constructs the unit-type value.
func (b *Builder) None() Value { return b.push(unit{tag: TagNone}) }

// Int constructs an integer value.
func (b *Builder) Int(i int64) Value { return b.push(unit{tag: TagInteger, i64: i}) }

// Real constructs a floating-point value.
func (b *Builder) Real(f float64) Value { return b.push(unit{tag: TagReal, f64: f}) }

// Rune constructs a single code-point value.
func (b *Builder) Rune(r rune) Value { return b.push(unit{tag: TagRune, i64: int64(r)}) }

// Symbol constructs an unbound-name value, interning name if needed.
func (b *Builder) Symbol(name string) Value {
	id := b.s.symbols.Intern(name)
	return b.push(unit{tag: TagSymbol, sym: id})
}

// String constructs a DQ_LIST (string) value from rune content.
func (b *Builder) String(s string) Value {
	runes := []rune(s)
	start := uint32(len(b.s.offsets))
	for _, r := range runes {
		ru := b.push(unit{tag: TagRune, i64: int64(r)})
		b.s.offsets = append(b.s.offsets, ru.root)
	}
	return b.push(unit{tag: TagDQList, a: start, n: uint32(len(runes))})
}

func (b *Builder) list(tag Tag, items []Value) Value {
	// Adopt every item before fixing start: adopting a foreign list
	// appends its own children to b.s.offsets (see copyFrom).
	children := make([]offset, len(items))
	for i, it := range items {
		children[i] = b.adopt(it)
	}
	start := uint32(len(b.s.offsets))
	b.s.offsets = append(b.s.offsets, children...)
	return b.push(unit{tag: tag, a: start, n: uint32(len(items))})
}

// adopt copies a unit tree from a foreign store into b's store if
// necessary, returning the (possibly new) offset within b's store.
// Values built by the same Builder are returned unchanged.
func (b *Builder) adopt(v Value) offset {
	if v.store == b.s || v.IsEmpty() && v.store == nil {
		return v.root
	}
	if v.store == nil {
		return b.None().root
	}
	return b.copyFrom(v.store, v.root)
}

func (b *Builder) copyFrom(src *Store, root offset) offset {
	u := src.units[root]
	switch {
	case u.tag.IsList() || u.tag == TagDQList:
		// Recurse first: nested copyFrom calls append their own entries to
		// b.s.offsets, so the slice's start index can only be fixed once
		// recursion is done, not before it.
		children := make([]offset, u.n)
		for i := uint32(0); i < u.n; i++ {
			children[i] = b.copyFrom(src, src.offsets[u.a+i])
		}
		start := uint32(len(b.s.offsets))
		b.s.offsets = append(b.s.offsets, children...)
		return b.push(unit{tag: u.tag, a: start, n: u.n}).root
	case u.tag == TagSome || u.tag == TagDatum || u.tag == TagError:
		inner := b.copyFrom(src, offset(u.a))
		return b.push(unit{tag: u.tag, a: uint32(inner)}).root
	case u.tag == TagSymbol:
		name := src.symbols.Name(u.sym)
		return b.Symbol(name).root
	default:
		return b.push(u).root
	}
}

// ParenList constructs a PAREN_LIST ("instruction") value.
func (b *Builder) ParenList(items ...Value) Value { return b.list(TagParenList, items) }

// BracketList constructs a BRACKET_LIST ("block") value.
func (b *Builder) BracketList(items ...Value) Value { return b.list(TagBracketList, items) }

// BraceList constructs a BRACE_LIST ("passthrough") value.
func (b *Builder) BraceList(items ...Value) Value { return b.list(TagBraceList, items) }

// Some wraps inner in a SOME (optional) value.
func (b *Builder) Some(inner Value) Value {
	off := b.adopt(inner)
	return b.push(unit{tag: TagSome, a: uint32(off)})
}

// Datum wraps inner in a DATUM value, suppressing parse-time evaluation.
func (b *Builder) Datum(inner Value) Value {
	off := b.adopt(inner)
	return b.push(unit{tag: TagDatum, a: uint32(off)})
}

// Error wraps inner (the carried payload) in an ERROR value.
func (b *Builder) Error(inner Value) Value {
	off := b.adopt(inner)
	return b.push(unit{tag: TagError, a: uint32(off)})
}

// Aberrant constructs an opaque handle carrying a lambda id. tagBits
// lets the evaluator distinguish lambda handles from other future
// ABERRANT uses without adding a new Tag.
func (b *Builder) Aberrant(tagBits int64, lambdaID uint64) Value {
	return b.push(unit{tag: TagAberrant, i64: tagBits, id64: lambdaID})
}
