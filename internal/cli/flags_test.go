package cli

import (
	"testing"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MandiZhao/lowvr/internal/errors"
	"github.com/MandiZhao/lowvr/internal/runs"
)

func TestDedupe(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, nil},
		{"keeps order", []string{"b", "a"}, []string{"b", "a"}},
		{"drops repeats", []string{"a", "b", "a"}, []string{"a", "b"}},
		{"trims and drops empty", []string{" a ", "", "  ", "a"}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dedupe(tt.in))
		})
	}
}

func sampleRuns() []runs.Run {
	return []runs.Run{
		{ID: "c3", DisplayName: "lr-sweep"},
		{ID: "b2", DisplayName: "baseline"},
		{ID: "a1", DisplayName: "lr-sweep"},
		{ID: "z0"},
	}
}

func TestResolveRuns(t *testing.T) {
	tests := []struct {
		name      string
		requested []string
		limit     int
		want      []string
		wantErr   string
	}{
		{name: "newest first with limit", limit: 2, want: []string{"c3", "b2"}},
		{name: "limit 0 means all", want: []string{"c3", "b2", "a1", "z0"}},
		{name: "limit above count", limit: 10, want: []string{"c3", "b2", "a1", "z0"}},
		{name: "by id", requested: []string{"a1", "z0"}, limit: 1, want: []string{"a1", "z0"}},
		{name: "by unique name", requested: []string{"baseline"}, want: []string{"b2"}},
		{name: "id and name collapse", requested: []string{"b2", "baseline"}, want: []string{"b2"}},
		{name: "ambiguous name", requested: []string{"lr-sweep"}, wantErr: `"lr-sweep" names 2 runs`},
		{name: "missing run", requested: []string{"nope"}, wantErr: "Run nope not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveRuns(sampleRuns(), tt.requested, tt.limit)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.True(t, errors.IsCode(err, errors.ErrInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunLabels(t *testing.T) {
	labels := runLabels(sampleRuns())
	assert.Equal(t, map[string]string{"c3": "lr-sweep", "b2": "baseline", "a1": "lr-sweep"}, labels)
}

func TestQuoteGlob(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "train/loss", "train/loss"},
		{"star", "loss*", `loss\*`},
		{"brackets", "acc[top1]", `acc\[top1\]`},
		{"braces and question", "a{b}?", `a\{b\}\?`},
		{"backslash", `a\b`, `a\\b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := quoteGlob(tt.in)
			assert.Equal(t, tt.want, got)

			ok, err := doublestar.Match(got, tt.in)
			require.NoError(t, err)
			assert.True(t, ok, "quoted pattern should match the literal name")
		})
	}
}

func TestValidateColumns(t *testing.T) {
	for _, n := range []int{0, 1, 6} {
		assert.NoError(t, validateColumns(n), "columns %d", n)
	}
	for _, n := range []int{-1, 7} {
		err := validateColumns(n)
		require.Error(t, err, "columns %d", n)
		assert.True(t, errors.IsCode(err, errors.ErrInput))
	}
}

func TestValidateRefresh(t *testing.T) {
	tests := []struct {
		name    string
		d       time.Duration
		wantErr bool
	}{
		{"zero keeps config", 0, false},
		{"minimum", 500 * time.Millisecond, false},
		{"slow", time.Minute, false},
		{"too fast", 100 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRefresh(tt.d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
