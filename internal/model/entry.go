package model

// Entry is one element of a schedule rotation. The concrete types are
// Literal, Cycle, Variants and Every; nothing else implements it.
type Entry interface {
	isEntry()
}

// Literal always resolves to a single screen.
type Literal struct {
	Screen string
}

// Cycle resolves to one of its children, advancing to the next child each
// time it is reached, wrapping at the end.
type Cycle struct {
	Children []Entry
}

// Variants resolves to the first of its options that is available at the
// moment of resolution.
type Variants struct {
	Options []string
}

// Every shows its wrapped item on one out of Frequency eligible passes of
// the rotation cursor.
type Every struct {
	Frequency int
	Item      Entry
}

func (Literal) isEntry()  {}
func (Cycle) isEntry()    {}
func (Variants) isEntry() {}
func (Every) isEntry()    {}

// Sequence is an ordered rotation of entries. A valid sequence is never empty.
type Sequence []Entry

// DefaultSequence is the rotation a panel falls back to when no stored
// schedule can be read: bare date and time screens.
func DefaultSequence() Sequence {
	return Sequence{Literal{Screen: "date"}, Literal{Screen: "time"}}
}

// CanonicalEntry renders an entry as its canonical JSON value: literals as
// bare strings, containers as single-key objects, and every-annotations in
// the "screen" short form when they wrap a literal.
func CanonicalEntry(e Entry) any {
	switch v := e.(type) {
	case Literal:
		return v.Screen
	case Cycle:
		children := make([]any, 0, len(v.Children))
		for _, c := range v.Children {
			children = append(children, CanonicalEntry(c))
		}
		return map[string]any{"cycle": children}
	case Variants:
		options := make([]any, 0, len(v.Options))
		for _, o := range v.Options {
			options = append(options, o)
		}
		return map[string]any{"variants": options}
	case Every:
		if lit, ok := v.Item.(Literal); ok {
			return map[string]any{"every": v.Frequency, "screen": lit.Screen}
		}
		return map[string]any{"every": v.Frequency, "item": CanonicalEntry(v.Item)}
	}
	return nil
}

// CanonicalSequence renders a sequence as the canonical JSON array.
func CanonicalSequence(seq Sequence) []any {
	out := make([]any, 0, len(seq))
	for _, e := range seq {
		out = append(out, CanonicalEntry(e))
	}
	return out
}

// CanonicalDocument assembles the stored document for a sequence: the active
// rotation plus a single "default" playlist carrying the same steps.
func CanonicalDocument(seq Sequence) map[string]any {
	return map[string]any{
		"playlists": []any{
			map[string]any{"name": "default", "steps": CanonicalSequence(seq)},
		},
		"sequence": CanonicalSequence(seq),
		"version":  2,
	}
}
