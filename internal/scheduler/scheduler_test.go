package scheduler

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/lumapanel/rotor/internal/catalog"
	"github.com/lumapanel/rotor/internal/model"
)

func drain(s *Scheduler, n int, avail func(string) bool) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, ok := s.NextAvailable(avail)
		if !ok {
			id = "none"
		}
		out = append(out, id)
	}
	return out
}

func TestFrequencyZeroLiteralsAlternate(t *testing.T) {
	s, err := Build(catalog.Default(), model.Sequence{
		model.Literal{Screen: "date"},
		model.Literal{Screen: "time"},
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"date", "time", "date", "time", "date", "time"}, drain(s, 6, nil))
}

func TestEveryFrequencyPattern(t *testing.T) {
	s, err := Build(catalog.Default(), model.Sequence{
		model.Every{Frequency: 2, Item: model.Literal{Screen: "weather1"}},
		model.Literal{Screen: "date"},
	})
	assert.NoError(t, err)
	want := []string{"weather1", "date", "date", "weather1", "date", "date", "weather1"}
	assert.Equal(t, want, drain(s, 7, nil))
}

func TestCycleAdvancesPerVisit(t *testing.T) {
	s, err := Build(catalog.Default(), model.Sequence{
		model.Literal{Screen: "date"},
		model.Cycle{Children: []model.Entry{
			model.Literal{Screen: "time"},
			model.Literal{Screen: "inside"},
		}},
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"date", "time", "date", "inside"}, drain(s, 4, nil))
}

func TestVariantsPickFirstAvailable(t *testing.T) {
	s, err := Build(catalog.Default(), model.Sequence{
		model.Variants{Options: []string{"weather1", "weather2"}},
	})
	assert.NoError(t, err)

	got, ok := s.NextAvailable(func(id string) bool { return id != "weather1" })
	assert.True(t, ok)
	assert.Equal(t, "weather2", got)
}

func TestVariantsWithNothingAvailableContinueLap(t *testing.T) {
	avail := func(id string) bool { return id == "date" }
	s, err := Build(catalog.Default(), model.Sequence{
		model.Variants{Options: []string{"weather1", "weather2"}},
		model.Literal{Screen: "date"},
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"date", "date"}, drain(s, 2, avail))
}

func TestNoAvailableScreenYieldsNone(t *testing.T) {
	s, err := Build(catalog.Default(), model.Sequence{
		model.Literal{Screen: "date"},
		model.Literal{Screen: "time"},
	})
	assert.NoError(t, err)

	off := func(string) bool { return false }
	_, ok := s.NextAvailable(off)
	assert.False(t, ok)
	_, ok = s.NextAvailable(off)
	assert.False(t, ok)

	// recovery is immediate once content comes back
	got, ok := s.NextAvailable(nil)
	assert.True(t, ok)
	assert.Equal(t, "date", got)
}

func TestEligibleNodeSpendsWindowWhenUnavailable(t *testing.T) {
	s, err := Build(catalog.Default(), model.Sequence{
		model.Every{Frequency: 2, Item: model.Literal{Screen: "weather1"}},
		model.Literal{Screen: "date"},
	})
	assert.NoError(t, err)

	// weather1 has no content on the first tick; the annotated node still
	// spends its window when visited, so it cools down before reappearing
	tick := 0
	avail := func(id string) bool { return id != "weather1" || tick > 1 }

	got := make([]string, 0, 3)
	for tick = 1; tick <= 3; tick++ {
		id, ok := s.NextAvailable(avail)
		assert.True(t, ok)
		got = append(got, id)
	}
	assert.Equal(t, []string{"date", "date", "weather1"}, got)
}

func TestBuildValidation(t *testing.T) {
	cases := []struct {
		name string
		seq  model.Sequence
	}{
		{"unknown screen id", model.Sequence{model.Literal{Screen: "tides"}}},
		{"empty sequence", model.Sequence{}},
		{"empty cycle", model.Sequence{model.Cycle{}}},
		{"empty variants", model.Sequence{model.Variants{}}},
		{"zero frequency", model.Sequence{model.Every{Frequency: 0, Item: model.Literal{Screen: "date"}}}},
		{"nested unknown id", model.Sequence{model.Cycle{Children: []model.Entry{model.Literal{Screen: "nope"}}}}},
		{"nested zero frequency", model.Sequence{model.Cycle{Children: []model.Entry{
			model.Every{Frequency: -1, Item: model.Literal{Screen: "date"}},
		}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(catalog.Default(), tc.seq)
			assert.Error(t, err)
			var verr *model.ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestRotationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	cat := catalog.Default()
	ids := cat.IDs()

	properties.Property("frequency-zero literals rotate in order", prop.ForAll(
		func(k int) bool {
			seq := make(model.Sequence, 0, k)
			for _, id := range ids[:k] {
				seq = append(seq, model.Literal{Screen: id})
			}
			s, err := Build(cat, seq)
			if err != nil {
				return false
			}
			for i := 0; i < 3*k; i++ {
				got, ok := s.NextAvailable(nil)
				if !ok || got != ids[i%k] {
					return false
				}
			}
			return true
		},
		gen.IntRange(2, 8),
	))

	properties.Property("an annotated node returns once per frequency+1 selections", prop.ForAll(
		func(f int) bool {
			s, err := Build(cat, model.Sequence{
				model.Every{Frequency: f, Item: model.Literal{Screen: "weather1"}},
				model.Literal{Screen: "date"},
			})
			if err != nil {
				return false
			}
			for i := 0; i < 3*(f+1); i++ {
				got, ok := s.NextAvailable(nil)
				if !ok {
					return false
				}
				if (i%(f+1) == 0) != (got == "weather1") {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 6),
	))

	properties.Property("identical models under identical availability stay in lockstep", prop.ForAll(
		func(freqs []int) bool {
			seq := make(model.Sequence, 0, len(freqs))
			for i, f := range freqs {
				lit := model.Literal{Screen: ids[i%len(ids)]}
				if f > 0 {
					seq = append(seq, model.Every{Frequency: f, Item: lit})
				} else {
					seq = append(seq, lit)
				}
			}
			a, err := Build(cat, seq)
			if err != nil {
				return false
			}
			b, err := Build(cat, seq)
			if err != nil {
				return false
			}
			for i := 0; i < 40; i++ {
				ga, oka := a.NextAvailable(nil)
				gb, okb := b.NextAvailable(nil)
				if ga != gb || oka != okb {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(4, gen.IntRange(0, 3)),
	))

	properties.TestingRun(t)
}
