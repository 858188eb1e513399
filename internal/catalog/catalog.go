package catalog

import "strings"

// Catalog enumerates the screens a panel can render. Schedule validation
// rejects any screen id the catalog does not know.
type Catalog interface {
	IsKnown(id string) bool
	IDs() []string
}

// Static is a fixed catalog backed by an in-memory id set.
type Static struct {
	ids   []string
	known map[string]struct{}
}

// NewStatic builds a catalog from the given ids, keeping their order and
// dropping blanks and duplicates.
func NewStatic(ids []string) *Static {
	s := &Static{known: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := s.known[id]; dup {
			continue
		}
		s.known[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	return s
}

func (s *Static) IsKnown(id string) bool {
	_, ok := s.known[id]
	return ok
}

func (s *Static) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Default returns the stock LumaPanel screen set.
func Default() *Static {
	return NewStatic([]string{
		"date", "time", "inside", "outside",
		"weather1", "weather2", "scores", "stocks",
	})
}

// FromCSV parses a comma-separated id list, as supplied by ROTOR_SCREENS.
// An empty value falls back to the default catalog.
func FromCSV(csv string) *Static {
	if strings.TrimSpace(csv) == "" {
		return Default()
	}
	return NewStatic(strings.Split(csv, ","))
}
