// Package rotation owns the link between the schedule file on disk and the
// live rotation engine: it notices modifications, rebuilds the scheduler,
// and always has something to show, falling back to the built-in default
// rotation when the file is missing or damaged.
package rotation

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lumapanel/rotor/internal/catalog"
	"github.com/lumapanel/rotor/internal/model"
	"github.com/lumapanel/rotor/internal/normalize"
	"github.com/lumapanel/rotor/internal/scheduler"
)

// Rotation tracks the canonical schedule file by modification time and keeps
// the scheduler built from its last good content. The render loop owns one
// instance; it is not safe for concurrent use.
type Rotation struct {
	path     string
	cat      catalog.Catalog
	lastMod  time.Time
	loaded   bool
	haveFile bool
	current  *scheduler.Scheduler
}

func New(path string, cat catalog.Catalog) *Rotation {
	return &Rotation{path: path, cat: cat}
}

// Current returns the scheduler from the last successful load, building the
// default rotation on first use.
func (r *Rotation) Current() *scheduler.Scheduler {
	if r.current == nil {
		r.current = r.fallback()
		r.loaded = true
	}
	return r.current
}

// ReloadIfChanged rebuilds the scheduler when the schedule file's
// modification time has moved since the last look. A document that fails
// validation keeps the previous rotation running and is reported once; a
// missing or unparsable file loads the built-in default instead, because the
// panel must always boot. The returned scheduler is never nil.
func (r *Rotation) ReloadIfChanged() (*scheduler.Scheduler, bool, error) {
	info, statErr := os.Stat(r.path)
	if statErr != nil {
		if r.haveFile {
			log.Warn().Str("path", r.path).Msg("[rotation] schedule file disappeared, using default rotation")
			r.current = r.fallback()
			r.haveFile = false
			return r.current, true, nil
		}
		if !r.loaded {
			r.current = r.fallback()
			r.loaded = true
			return r.current, true, nil
		}
		return r.Current(), false, nil
	}

	if r.loaded && r.haveFile && info.ModTime().Equal(r.lastMod) {
		return r.Current(), false, nil
	}

	// Remember the mtime before parsing: a bad document should not be
	// re-parsed every tick, only when it changes again.
	r.loaded = true
	r.haveFile = true
	r.lastMod = info.ModTime()

	doc := readLenient(r.path)
	seq, migrated, err := normalize.Config(r.cat, doc)
	if err != nil {
		log.Error().Err(err).Str("path", r.path).Msg("[rotation] invalid schedule, keeping previous rotation")
		return r.Current(), false, err
	}
	s, err := scheduler.Build(r.cat, seq)
	if err != nil {
		log.Error().Err(err).Str("path", r.path).Msg("[rotation] schedule rejected, keeping previous rotation")
		return r.Current(), false, err
	}
	if migrated {
		log.Info().Str("path", r.path).Msg("[rotation] non-canonical schedule loaded")
	}

	r.current = s
	return r.current, true, nil
}

// fallback builds the default date/time rotation, degrading to a flat
// rotation of whatever the catalog offers when a custom catalog omits the
// default screens.
func (r *Rotation) fallback() *scheduler.Scheduler {
	if s, err := scheduler.Build(r.cat, model.DefaultSequence()); err == nil {
		return s
	}
	ids := r.cat.IDs()
	seq := make(model.Sequence, 0, len(ids))
	for _, id := range ids {
		seq = append(seq, model.Literal{Screen: id})
	}
	if s, err := scheduler.Build(r.cat, seq); err == nil {
		return s
	}
	// nothing to rotate; an empty scheduler just yields none
	return &scheduler.Scheduler{}
}

// readLenient mirrors the store's boot guarantee: any read or parse failure
// is an empty document, which normalizes to the default rotation.
func readLenient(path string) map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Error().Err(err).Str("path", path).Msg("[rotation] unreadable schedule")
		}
		return map[string]any{}
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Error().Err(err).Str("path", path).Msg("[rotation] corrupt schedule")
		return map[string]any{}
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc
}
