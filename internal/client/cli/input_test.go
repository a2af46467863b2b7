package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFields(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{
			name:  "typed values",
			pairs: []string{"name=Ann", "age=30", "active=true", "tags=[\"a\"]", "note=", "eq=a=b"},
			want: map[string]any{
				"name":   "Ann",
				"age":    float64(30),
				"active": true,
				"tags":   []any{"a"},
				"note":   "",
				"eq":     "a=b",
			},
		},
		{name: "empty", pairs: nil, want: map[string]any{}},
		{name: "missing separator", pairs: []string{"name"}, wantErr: true},
		{name: "missing name", pairs: []string{"=x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFields(tt.pairs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadFields(t *testing.T) {
	var w bytes.Buffer
	sc := bufio.NewScanner(strings.NewReader("a=1\r\nb=2\n\nignored=3\n"))

	lines := readFields(sc, &w)

	assert.Equal(t, []string{"a=1", "b=2"}, lines)
	assert.Contains(t, w.String(), "name=value")
}
