package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatic(t *testing.T) {
	c := NewStatic([]string{"date", " time ", "", "date", "scores"})

	assert.Equal(t, []string{"date", "time", "scores"}, c.IDs())
	assert.True(t, c.IsKnown("time"))
	assert.False(t, c.IsKnown("weather1"))
	assert.False(t, c.IsKnown(""))
}

func TestDefaultCoversFallbackScreens(t *testing.T) {
	c := Default()
	assert.True(t, c.IsKnown("date"))
	assert.True(t, c.IsKnown("time"))
	assert.Len(t, c.IDs(), 8)
}

func TestFromCSV(t *testing.T) {
	t.Run("explicit list", func(t *testing.T) {
		c := FromCSV("date,time, lobby")
		assert.Equal(t, []string{"date", "time", "lobby"}, c.IDs())
	})

	t.Run("empty falls back to default", func(t *testing.T) {
		assert.Equal(t, Default().IDs(), FromCSV(" ").IDs())
	})
}
