package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/lumapanel/rotor/internal/model"
)

// One row per saved schedule version. Timestamps are ISO-8601 text and the
// id is assigned by the store, so the schema works unchanged on sqlite and
// postgres.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS schedule_versions (
	id         BIGINT PRIMARY KEY,
	created_at TEXT NOT NULL,
	actor      TEXT NOT NULL,
	summary    TEXT NOT NULL,
	config     TEXT NOT NULL,
	metadata   TEXT NOT NULL
);`

// nextVersionID hands out strictly increasing ids. The newest version is
// never pruned, so MAX(id)+1 can never reuse one.
func (s *Store) nextVersionID() (int64, error) {
	var max int64
	const q = `SELECT COALESCE(MAX(id), 0) FROM schedule_versions;`
	if err := s.db.Get(&max, q); err != nil {
		log.Error().Err(err).Msg("[store] nextVersionID: failed to read history")
		return 0, err
	}
	return max + 1, nil
}

func (s *Store) insertVersion(v model.ScheduleVersion) error {
	const q = `
	INSERT INTO schedule_versions (id, created_at, actor, summary, config, metadata)
	VALUES (?, ?, ?, ?, ?, ?);`
	if _, err := s.db.Exec(s.db.Rebind(q), v.ID, v.CreatedAt, v.Actor, v.Summary, v.Config, v.Metadata); err != nil {
		log.Error().Err(err).Int64("version", v.ID).Msg("[store] insertVersion: failed to insert history row")
		return err
	}
	return nil
}

// ListVersions returns history rows newest first. A non-positive limit means
// one retention window's worth.
func (s *Store) ListVersions(limit int) ([]model.ScheduleVersion, error) {
	if limit <= 0 {
		limit = s.retention
	}
	var out []model.ScheduleVersion
	const q = `
	SELECT id, created_at, actor, summary, config, metadata
	FROM schedule_versions
	ORDER BY id DESC
	LIMIT ?;`
	if err := s.db.Select(&out, s.db.Rebind(q), limit); err != nil {
		log.Error().Err(err).Msg("[store] ListVersions: query failed")
		return nil, err
	}
	return out, nil
}

// LatestVersionID returns the newest version id, or 0 when history is empty.
func (s *Store) LatestVersionID() (int64, error) {
	var max int64
	const q = `SELECT COALESCE(MAX(id), 0) FROM schedule_versions;`
	if err := s.db.Get(&max, q); err != nil {
		log.Error().Err(err).Msg("[store] LatestVersionID: query failed")
		return 0, err
	}
	return max, nil
}

// LoadVersion returns the document recorded under id, or ErrVersionNotFound
// when that version never existed or has been pruned.
func (s *Store) LoadVersion(id int64) (map[string]any, error) {
	var v model.ScheduleVersion
	const q = `
	SELECT id, created_at, actor, summary, config, metadata
	FROM schedule_versions
	WHERE id = ?;`
	if err := s.db.Get(&v, s.db.Rebind(q), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrVersionNotFound
		}
		log.Error().Err(err).Int64("version", id).Msg("[store] LoadVersion: query failed")
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(v.Config), &doc); err != nil {
		return nil, fmt.Errorf("store: version %d corrupt: %w", id, err)
	}
	return doc, nil
}

// prune drops rows and archive copies beyond the retention window, oldest
// first. The newest version always survives.
func (s *Store) prune() error {
	var ids []int64
	const q = `SELECT id FROM schedule_versions ORDER BY id ASC;`
	if err := s.db.Select(&ids, q); err != nil {
		log.Error().Err(err).Msg("[store] prune: failed to list versions")
		return err
	}

	keep := s.retention
	if keep < 1 {
		keep = 1
	}
	if len(ids) <= keep {
		return nil
	}

	const del = `DELETE FROM schedule_versions WHERE id = ?;`
	for _, id := range ids[:len(ids)-keep] {
		if _, err := s.db.Exec(s.db.Rebind(del), id); err != nil {
			log.Error().Err(err).Int64("version", id).Msg("[store] prune: failed to delete history row")
			return err
		}
		if err := os.Remove(s.archivePath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Error().Err(err).Int64("version", id).Msg("[store] prune: failed to delete archive copy")
		}
	}
	return nil
}
