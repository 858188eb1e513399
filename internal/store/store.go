// Package store persists the active schedule document and its full version
// history. The canonical file on disk is what the render loop watches; every
// successful save also lands one history row and one flat-file archive copy,
// pruned to a retention window.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/lumapanel/rotor/internal/model"
)

// DefaultRetention is how many historical versions are kept when the
// deployment does not say otherwise.
const DefaultRetention = 25

// Options configures a Store. Driver selects the history backend: "sqlite"
// (embedded, the default) or "postgres" for deployments that keep panel
// state in a central database.
type Options struct {
	SchedulePath string
	ArchiveDir   string
	Retention    int
	Driver       string
	DSN          string
}

// Store owns the canonical schedule file, the version rows and the archive
// directory. It is meant for a single administrative caller; concurrent
// saves from separate processes need an external mutex.
type Store struct {
	schedulePath string
	archiveDir   string
	retention    int
	db           *sqlx.DB
}

// Open prepares the schedule and archive directories, connects the history
// backend and creates its schema.
func Open(opts Options) (*Store, error) {
	if opts.SchedulePath == "" {
		return nil, errors.New("store: schedule path required")
	}
	if opts.ArchiveDir == "" {
		opts.ArchiveDir = filepath.Join(filepath.Dir(opts.SchedulePath), "versions")
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}

	driver := strings.ToLower(strings.TrimSpace(opts.Driver))
	if driver == "" {
		driver = "sqlite"
	}
	dsn := opts.DSN
	switch driver {
	case "sqlite":
		if dsn == "" {
			dsn = filepath.Join(filepath.Dir(opts.SchedulePath), "history.db")
		}
	case "postgres":
		if dsn == "" {
			return nil, errors.New("store: dsn required for the postgres driver")
		}
	default:
		return nil, fmt.Errorf("store: unknown history driver %q", driver)
	}

	if err := os.MkdirAll(filepath.Dir(opts.SchedulePath), 0o755); err != nil {
		return nil, fmt.Errorf("store: schedule dir: %w", err)
	}
	if err := os.MkdirAll(opts.ArchiveDir, 0o755); err != nil {
		return nil, fmt.Errorf("store: archive dir: %w", err)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect %s history: %w", driver, err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &Store{
		schedulePath: opts.SchedulePath,
		archiveDir:   opts.ArchiveDir,
		retention:    opts.Retention,
		db:           db,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SchedulePath is where the canonical file lives; the render loop watches it.
func (s *Store) SchedulePath() string {
	return s.schedulePath
}

// Load returns the active schedule document. Any read or parse failure
// yields an empty document instead of an error: a panel with a damaged
// config must still boot, on its built-in default rotation.
func (s *Store) Load() map[string]any {
	data, err := os.ReadFile(s.schedulePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Error().Err(err).Str("path", s.schedulePath).Msg("[store] Load: unreadable schedule, using empty document")
		}
		return map[string]any{}
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Error().Err(err).Str("path", s.schedulePath).Msg("[store] Load: corrupt schedule, using empty document")
		return map[string]any{}
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc
}

// Save atomically replaces the canonical file, appends a history row under
// the next version id, writes the archive copy and prunes old versions.
// When summary is empty a screen-level diff against the previously active
// document is recorded instead.
func (s *Store) Save(doc map[string]any, actor, summary string, metadata map[string]any) (int64, error) {
	if doc == nil {
		doc = map[string]any{}
	}
	if summary == "" {
		summary = Summary(s.Load(), doc)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	configJSON, err := encodeCanonical(doc)
	if err != nil {
		return 0, fmt.Errorf("store: encode schedule: %w", err)
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return 0, fmt.Errorf("store: encode metadata: %w", err)
	}

	if err := writeAtomic(s.schedulePath, configJSON); err != nil {
		return 0, err
	}

	id, err := s.nextVersionID()
	if err != nil {
		return 0, err
	}
	v := model.ScheduleVersion{
		ID:        id,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Actor:     actor,
		Summary:   summary,
		Config:    string(configJSON),
		Metadata:  string(metaJSON),
	}
	if err := s.insertVersion(v); err != nil {
		return 0, err
	}
	if err := os.WriteFile(s.archivePath(id), configJSON, 0o644); err != nil {
		return 0, fmt.Errorf("store: archive version %d: %w", id, err)
	}
	if err := s.prune(); err != nil {
		return 0, err
	}

	log.Info().Int64("version", id).Str("actor", actor).Str("summary", summary).Msg("[store] schedule saved")
	return id, nil
}

// Rollback re-saves the document recorded under id as a brand-new version,
// tagged with the id it was restored from. History is never rewritten in
// place.
func (s *Store) Rollback(id int64, actor string) (map[string]any, int64, error) {
	doc, err := s.LoadVersion(id)
	if err != nil {
		return nil, 0, err
	}
	newID, err := s.Save(doc, actor, fmt.Sprintf("rollback to version %d", id), map[string]any{"rollback_from": id})
	if err != nil {
		return nil, 0, err
	}
	return doc, newID, nil
}

func (s *Store) archivePath(id int64) string {
	return filepath.Join(s.archiveDir, fmt.Sprintf("%06d.json", id))
}

// encodeCanonical renders a document the way it lives on disk: two-space
// indent, sorted keys, trailing newline.
func encodeCanonical(doc map[string]any) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// writeAtomic stages the payload in the target directory and renames it over
// the destination, so the render loop never observes a half-written file.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".schedule-*.tmp")
	if err != nil {
		return fmt.Errorf("store: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("store: replace %s: %w", path, err)
	}
	return nil
}
