package normalize

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumapanel/rotor/internal/catalog"
	"github.com/lumapanel/rotor/internal/model"
)

func migrateDoc(t *testing.T, raw string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestMigratePassthrough(t *testing.T) {
	doc := migrateDoc(t, `{"playlists": [{"name": "default", "steps": ["date"]}], "sequence": ["date"], "version": 2}`)

	out, changed, err := Migrate(catalog.Default(), doc, "schedule.json")
	assert.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, doc, out)
}

func TestMigrateCorrectsVersionTagOnly(t *testing.T) {
	doc := migrateDoc(t, `{"playlists": [{"name": "evening", "steps": ["scores"]}], "sequence": [{"screen": "date"}], "version": 1}`)

	out, changed, err := Migrate(catalog.Default(), doc, "schedule.json")
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, out["version"])
	// content other than the tag is left alone, and the input is not mutated
	assert.Equal(t, doc["playlists"], out["playlists"])
	assert.Equal(t, []any{map[string]any{"screen": "date"}}, out["sequence"])
	assert.Equal(t, float64(1), doc["version"])
}

func TestMigrateLowersLegacyScreens(t *testing.T) {
	doc := migrateDoc(t, `{"screens": {"date": 1, "weather1": 3}}`)

	out, changed, err := Migrate(catalog.Default(), doc, "schedule.json")
	assert.NoError(t, err)
	assert.True(t, changed)

	wantSteps := []any{"date", map[string]any{"every": 3, "screen": "weather1"}}
	assert.Equal(t, wantSteps, out["sequence"])
	assert.Equal(t, 2, out["version"])
	assert.Equal(t, []any{map[string]any{"name": "default", "steps": wantSteps}}, out["playlists"])
}

func TestMigrateCanonicalizesBareSequences(t *testing.T) {
	doc := migrateDoc(t, `{"sequence": [{"screen": "date"}, {"every": 2, "item": "time"}]}`)

	out, changed, err := Migrate(catalog.Default(), doc, "")
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []any{"date", map[string]any{"every": 2, "screen": "time"}}, out["sequence"])
}

func TestMigrateEmptyDocumentYieldsDefault(t *testing.T) {
	out, changed, err := Migrate(catalog.Default(), map[string]any{}, "")
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.CanonicalDocument(model.DefaultSequence()), out)
}

func TestMigrateFailsClosed(t *testing.T) {
	doc := migrateDoc(t, `{"sequence": ["not-a-real-screen"]}`)

	_, _, err := Migrate(catalog.Default(), doc, "panel.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "panel.yaml")
	var verr *model.ValidationError
	assert.True(t, errors.As(err, &verr))
}
