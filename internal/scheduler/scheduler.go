// Package scheduler implements the rotation engine: a cooldown walk over the
// schedule's top-level entries that decides, once per tick, which screen the
// panel shows next.
package scheduler

import (
	"fmt"

	"github.com/lumapanel/rotor/internal/catalog"
	"github.com/lumapanel/rotor/internal/model"
)

// step is a compiled schedule entry. Resolving a step may mutate its internal
// state (cycle pointers), which is why a Scheduler is rebuilt per model.
type step interface {
	// resolve returns the candidate screen for this visit, or ok=false when
	// the step has no candidate under the given availability.
	resolve(avail func(string) bool) (string, bool)
}

type literalStep struct {
	screen string
}

func (s *literalStep) resolve(func(string) bool) (string, bool) {
	return s.screen, true
}

type cycleStep struct {
	children []step
	pos      int
}

// The pointer advances as a side effect of resolution, whether or not the
// resolved child turns out to be available.
func (s *cycleStep) resolve(avail func(string) bool) (string, bool) {
	child := s.children[s.pos]
	s.pos = (s.pos + 1) % len(s.children)
	return child.resolve(avail)
}

type variantsStep struct {
	options []string
}

func (s *variantsStep) resolve(avail func(string) bool) (string, bool) {
	for _, id := range s.options {
		if avail(id) {
			return id, true
		}
	}
	return "", false
}

// node is one top-level rotation slot: its compiled step, the display
// frequency from an every-annotation (0 means every lap), and the running
// cooldown counter.
type node struct {
	step      step
	frequency int
	cooldown  int
}

// Scheduler walks the rotation and picks the next available screen. It
// mutates its cursor, cooldowns and cycle pointers in place and is not safe
// for concurrent use; the render loop is its single caller.
type Scheduler struct {
	nodes  []node
	cursor int
}

// Build compiles a rotation model into a scheduler. It enforces the same
// rules as the normalizer — unknown screen ids, empty containers,
// non-positive frequencies — so the two stay in lock-step and the normalizer
// can lean on it as a second validator.
func Build(cat catalog.Catalog, seq model.Sequence) (*Scheduler, error) {
	if len(seq) == 0 {
		return nil, model.Invalid("sequence", model.CanonicalSequence(seq), "sequence must not be empty")
	}
	s := &Scheduler{nodes: make([]node, 0, len(seq))}
	for i, e := range seq {
		path := fmt.Sprintf("sequence[%d]", i)
		freq := 0
		item := e
		if every, ok := e.(model.Every); ok {
			if every.Frequency <= 0 {
				return nil, model.Invalid(path, model.CanonicalEntry(e), "frequency must be positive")
			}
			freq = every.Frequency
			item = every.Item
		}
		st, err := compile(cat, item, path)
		if err != nil {
			return nil, err
		}
		s.nodes = append(s.nodes, node{step: st, frequency: freq})
	}
	return s, nil
}

func compile(cat catalog.Catalog, e model.Entry, path string) (step, error) {
	switch v := e.(type) {
	case model.Literal:
		if !cat.IsKnown(v.Screen) {
			return nil, model.Invalid(path, v.Screen, "unknown screen id")
		}
		return &literalStep{screen: v.Screen}, nil

	case model.Cycle:
		if len(v.Children) == 0 {
			return nil, model.Invalid(path, model.CanonicalEntry(e), "cycle requires a non-empty list")
		}
		children := make([]step, 0, len(v.Children))
		for i, c := range v.Children {
			st, err := compile(cat, c, fmt.Sprintf("%s.cycle[%d]", path, i))
			if err != nil {
				return nil, err
			}
			children = append(children, st)
		}
		return &cycleStep{children: children}, nil

	case model.Variants:
		if len(v.Options) == 0 {
			return nil, model.Invalid(path, model.CanonicalEntry(e), "variants requires a non-empty list of screen ids")
		}
		for i, id := range v.Options {
			if !cat.IsKnown(id) {
				return nil, model.Invalid(fmt.Sprintf("%s.variants[%d]", path, i), id, "unknown screen id")
			}
		}
		return &variantsStep{options: v.Options}, nil

	case model.Every:
		// nested annotations carry no display frequency of their own; only
		// the top-level one is honored
		if v.Frequency <= 0 {
			return nil, model.Invalid(path, model.CanonicalEntry(e), "frequency must be positive")
		}
		return compile(cat, v.Item, path+".item")
	}
	return nil, model.Invalid(path, e, "unrecognized schedule entry")
}

// NextAvailable walks at most one full lap of the rotation and returns the
// next screen to show, or ok=false when no node can produce an available
// screen this tick. A nil availability callback treats every screen as
// available.
//
// Each visited node with a running cooldown pays one count down and, if still
// cooling, is skipped without ending the lap. An eligible node spends its
// frequency window unconditionally, even when its resolution then fails or
// is unavailable, so frequencies meter visits rather than successes.
func (s *Scheduler) NextAvailable(avail func(string) bool) (string, bool) {
	if avail == nil {
		avail = func(string) bool { return true }
	}
	for attempt := 0; attempt < len(s.nodes); attempt++ {
		n := &s.nodes[s.cursor]
		s.cursor = (s.cursor + 1) % len(s.nodes)

		if n.cooldown > 0 {
			n.cooldown--
			if n.cooldown > 0 {
				continue
			}
		}

		n.cooldown = n.frequency
		if candidate, ok := n.step.resolve(avail); ok && avail(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// Len reports the number of top-level rotation nodes.
func (s *Scheduler) Len() int {
	return len(s.nodes)
}
