package llmjson

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Score int    `json:"score"`
	Label string `json:"label"`
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    payload
		wantErr bool
	}{
		{
			name: "plain object",
			raw:  `{"score": 10, "label": "LOW"}`,
			want: payload{Score: 10, Label: "LOW"},
		},
		{
			name: "surrounding whitespace",
			raw:  "\n\t {\"score\": 3}  \n",
			want: payload{Score: 3},
		},
		{
			name: "prose around object",
			raw:  `Sure, here you go: {"score": 80, "label": "HIGH"} hope this helps`,
			want: payload{Score: 80, Label: "HIGH"},
		},
		{
			name: "markdown fence",
			raw:  "```json\n{\"score\": 42, \"label\": \"MEDIUM\"}\n```",
			want: payload{Score: 42, Label: "MEDIUM"},
		},
		{
			name: "nested braces inside object",
			raw:  `note {"score": 1, "label": "LOW", "extra": {"a": 1}} end`,
			want: payload{Score: 1, Label: "LOW"},
		},
		{
			name:    "empty",
			raw:     "   ",
			wantErr: true,
		},
		{
			name:    "no braces",
			raw:     "I cannot help with that.",
			wantErr: true,
		},
		{
			name:    "closing before opening",
			raw:     "} nothing {",
			wantErr: true,
		},
		{
			name:    "broken json between braces",
			raw:     `prefix {"score": } suffix`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got payload
			err := Decode(tt.raw, &got)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClampInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want int
	}{
		{in: 50, want: 50},
		{in: 150, want: 100},
		{in: -20, want: 0},
		{in: 72.4, want: 72},
		{in: 72.5, want: 73},
		{in: 99.9, want: 100},
		{in: math.Inf(1), want: 100},
		{in: math.Inf(-1), want: 0},
		{in: math.NaN(), want: 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampInt(tt.in, 0, 100), "ClampInt(%v)", tt.in)
	}
}

func TestRequire(t *testing.T) {
	t.Parallel()

	err := Require(map[string]bool{"a": true, "b": false, "c": false}, "a", "b", "c")
	require.ErrorIs(t, err, ErrMalformedResponse)
	assert.Contains(t, err.Error(), `"b"`)

	assert.NoError(t, Require(map[string]bool{"a": true}, "a"))
}
