package normalize

import (
	"fmt"

	"github.com/lumapanel/rotor/internal/catalog"
	"github.com/lumapanel/rotor/internal/model"
)

// Migrate upgrades a schedule document to the current stored format. Already
// current documents pass through unchanged; documents carrying both playlists
// and a sequence get only their version tag corrected; everything else is
// treated as legacy content, lowered through the normal entry rules and
// rebuilt around a single "default" playlist. Validation failures abort the
// migration — a document Migrate returns is always one the rotation engine
// accepts. The source name is for error context only.
func Migrate(cat catalog.Catalog, doc map[string]any, source string) (map[string]any, bool, error) {
	if doc == nil {
		doc = map[string]any{}
	}

	_, hasPlaylists := doc["playlists"]
	_, hasSequence := doc["sequence"]
	if hasPlaylists && hasSequence {
		if v, ok := integral(doc["version"]); ok && v == 2 {
			return doc, false, nil
		}
		out := make(map[string]any, len(doc))
		for k, v := range doc {
			out[k] = v
		}
		out["version"] = 2
		return out, true, nil
	}

	seq, _, err := Config(cat, doc)
	if err != nil {
		if source != "" {
			return nil, false, fmt.Errorf("migrate %s: %w", source, err)
		}
		return nil, false, err
	}
	return model.CanonicalDocument(seq), true, nil
}
