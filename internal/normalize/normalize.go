// Package normalize lowers loosely typed, user-edited schedule documents into
// the canonical rotation model, validating every screen reference against the
// panel's catalog. It fails loudly: bad input is reported with the offending
// fragment, never silently dropped.
package normalize

import (
	"fmt"
	"sort"

	"github.com/lumapanel/rotor/internal/catalog"
	"github.com/lumapanel/rotor/internal/model"
	"github.com/lumapanel/rotor/internal/scheduler"
)

// Entry lowers one raw schedule entry. Accepted shapes: a bare screen id,
// {"screen": entry}, {"cycle": [entries]}, {"variants": [ids]} and
// {"every": n, "screen"|"item": entry} with integer n > 0.
func Entry(cat catalog.Catalog, raw any) (model.Entry, error) {
	return entry(cat, raw, "entry")
}

// Sequence lowers a raw rotation list. An empty list is invalid: the panel
// must always have something to show.
func Sequence(cat catalog.Catalog, list []any) (model.Sequence, error) {
	return sequence(cat, list)
}

// Config lowers a whole schedule document. Canonical documents carry a
// "sequence" list; legacy documents carry a flat {"screens": {id: frequency}}
// map, lowered per id (non-positive frequencies drop the screen, frequency 1
// is a plain rotation slot, higher frequencies become every-annotations);
// documents with neither fall back to the built-in default rotation. The bool
// result reports whether the document needed migration. The result is run
// through scheduler construction so a document this function accepts is one
// the rotation engine accepts too.
func Config(cat catalog.Catalog, doc map[string]any) (model.Sequence, bool, error) {
	seq, migrated, err := configSequence(cat, doc)
	if err != nil {
		return nil, false, err
	}
	if _, err := scheduler.Build(cat, seq); err != nil {
		return nil, false, err
	}
	return seq, migrated, nil
}

func configSequence(cat catalog.Catalog, doc map[string]any) (model.Sequence, bool, error) {
	if raw, ok := doc["sequence"]; ok {
		list, ok := raw.([]any)
		if !ok {
			return nil, false, model.Invalid("sequence", raw, "sequence must be a list")
		}
		seq, err := sequence(cat, list)
		if err != nil {
			return nil, false, err
		}
		return seq, false, nil
	}
	if raw, ok := doc["screens"]; ok {
		screens, ok := raw.(map[string]any)
		if !ok {
			return nil, false, model.Invalid("screens", raw, "screens must map ids to frequencies")
		}
		seq, err := lowerScreens(cat, screens)
		if err != nil {
			return nil, false, err
		}
		if len(seq) == 0 {
			return model.DefaultSequence(), true, nil
		}
		return seq, true, nil
	}
	return model.DefaultSequence(), true, nil
}

func sequence(cat catalog.Catalog, list []any) (model.Sequence, error) {
	if len(list) == 0 {
		return nil, model.Invalid("sequence", list, "sequence must not be empty")
	}
	seq := make(model.Sequence, 0, len(list))
	for i, raw := range list {
		e, err := entry(cat, raw, fmt.Sprintf("sequence[%d]", i))
		if err != nil {
			return nil, err
		}
		seq = append(seq, e)
	}
	return seq, nil
}

func entry(cat catalog.Catalog, raw any, path string) (model.Entry, error) {
	switch v := raw.(type) {
	case string:
		if !cat.IsKnown(v) {
			return nil, model.Invalid(path, v, "unknown screen id")
		}
		return model.Literal{Screen: v}, nil
	case map[string]any:
		return object(cat, v, path)
	}
	return nil, model.Invalid(path, raw, "expected a screen id or schedule object")
}

func object(cat catalog.Catalog, m map[string]any, path string) (model.Entry, error) {
	switch {
	case exactKeys(m, "screen"):
		return entry(cat, m["screen"], path+".screen")

	case exactKeys(m, "cycle"):
		children, ok := m["cycle"].([]any)
		if !ok || len(children) == 0 {
			return nil, model.Invalid(path, m, "cycle requires a non-empty list")
		}
		out := make([]model.Entry, 0, len(children))
		for i, c := range children {
			child, err := entry(cat, c, fmt.Sprintf("%s.cycle[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out = append(out, child)
		}
		return model.Cycle{Children: out}, nil

	case exactKeys(m, "variants"):
		options, ok := m["variants"].([]any)
		if !ok || len(options) == 0 {
			return nil, model.Invalid(path, m, "variants requires a non-empty list of screen ids")
		}
		out := make([]string, 0, len(options))
		for i, o := range options {
			opt := fmt.Sprintf("%s.variants[%d]", path, i)
			id, ok := o.(string)
			if !ok {
				return nil, model.Invalid(opt, o, "variant options must be screen ids")
			}
			if !cat.IsKnown(id) {
				return nil, model.Invalid(opt, id, "unknown screen id")
			}
			out = append(out, id)
		}
		return model.Variants{Options: out}, nil

	case exactKeys(m, "every", "screen"), exactKeys(m, "every", "item"):
		n, err := frequency(m["every"], path)
		if err != nil {
			return nil, err
		}
		childRaw, key := m["screen"], "screen"
		if _, ok := m["item"]; ok {
			childRaw, key = m["item"], "item"
		}
		child, err := entry(cat, childRaw, path+"."+key)
		if err != nil {
			return nil, err
		}
		return model.Every{Frequency: n, Item: child}, nil
	}
	return nil, model.Invalid(path, m, "unrecognized schedule entry shape")
}

func lowerScreens(cat catalog.Catalog, screens map[string]any) (model.Sequence, error) {
	ids := make([]string, 0, len(screens))
	for id := range screens {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	seq := make(model.Sequence, 0, len(ids))
	for _, id := range ids {
		if !cat.IsKnown(id) {
			return nil, model.Invalid("screens."+id, id, "unknown screen id")
		}
		freq, ok := integral(screens[id])
		if !ok {
			return nil, model.Invalid("screens."+id, screens[id], "frequency must be an integer")
		}
		switch {
		case freq <= 0:
			// disabled, dropped from the rotation
		case freq == 1:
			seq = append(seq, model.Literal{Screen: id})
		default:
			seq = append(seq, model.Every{Frequency: freq, Item: model.Literal{Screen: id}})
		}
	}
	return seq, nil
}

func frequency(raw any, path string) (int, error) {
	n, ok := integral(raw)
	if !ok {
		return 0, model.Invalid(path+".every", raw, "frequency must be an integer")
	}
	if n <= 0 {
		return 0, model.Invalid(path+".every", raw, "frequency must be positive")
	}
	return n, nil
}

// integral accepts the number representations the JSON and YAML decoders
// produce, rejecting fractional values.
func integral(raw any) (int, bool) {
	switch n := raw.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		i := int(n)
		if float64(i) != n {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func exactKeys(m map[string]any, keys ...string) bool {
	if len(m) != len(keys) {
		return false
	}
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}
