package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diffDoc(t *testing.T, raw string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestSummary(t *testing.T) {
	cases := []struct {
		name string
		old  string
		new  string
		want string
	}{
		{
			name: "identical rotations",
			old:  `{"sequence": ["date", "time"]}`,
			new:  `{"sequence": ["date", "time"]}`,
			want: "no screen changes",
		},
		{
			name: "first save adds everything",
			old:  `{}`,
			new:  `{"sequence": ["date", "time"]}`,
			want: "added date, time",
		},
		{
			name: "reshaped entry counts as changed",
			old:  `{"sequence": ["date"]}`,
			new:  `{"sequence": [{"every": 2, "screen": "date"}]}`,
			want: "changed date",
		},
		{
			name: "screens inside containers are seen",
			old:  `{"sequence": [{"cycle": ["time", "inside"]}]}`,
			new:  `{"sequence": [{"cycle": ["time", "outside"]}]}`,
			want: "added outside; changed time; removed inside",
		},
		{
			name: "reordering identical entries is no change",
			old:  `{"sequence": ["date", "time"]}`,
			new:  `{"sequence": ["time", "date"]}`,
			want: "no screen changes",
		},
		{
			name: "document without a sequence reads as empty",
			old:  `{"screens": {"date": 1}}`,
			new:  `{"sequence": ["date"]}`,
			want: "added date",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Summary(diffDoc(t, tc.old), diffDoc(t, tc.new)))
		})
	}
}
