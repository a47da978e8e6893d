package runs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessPatterns(t *testing.T) {
	meta := func(program string, args ...interface{}) map[string]interface{} {
		return map[string]interface{}{"program": program, "args": args, "state": StateRunning}
	}

	tests := []struct {
		name string
		run  Run
		want []string
		ok   bool
	}{
		{
			name: "display name, flags then script fallback",
			run: Run{
				ID:          "abc123",
				DisplayName: "humanoid_walk_v2",
				Metadata:    meta("/home/me/rl/train.py", "-exp", "walk", "--clip", "clip_07", "lr=0.1"),
			},
			want: []string{"humanoid_walk_v2", "walk", "clip_07", "train.py.*abc123"},
			ok:   true,
		},
		{
			name: "display name equal to id is skipped",
			run:  Run{ID: "abc123", DisplayName: "abc123", Metadata: meta("train.py")},
			want: []string{"train.py.*abc123"},
			ok:   true,
		},
		{
			name: "short display name is skipped",
			run:  Run{ID: "abc123", DisplayName: "walk", Metadata: meta("train.py")},
			want: []string{"train.py.*abc123"},
			ok:   true,
		},
		{
			name: "every naming flag spelling",
			run: Run{ID: "r1", Metadata: meta("main.py",
				"--experiment", "e1", "-experiment", "e2", "--name", "n1", "-name", "n2", "--exp", "e3", "-clip", "c1")},
			want: []string{"e1", "e2", "n1", "n2", "e3", "c1", "main.py.*r1"},
			ok:   true,
		},
		{
			name: "trailing flag without value",
			run:  Run{ID: "r1", Metadata: meta("main.py", "--seed", "3", "-exp")},
			want: []string{"main.py.*r1"},
			ok:   true,
		},
		{
			name: "no program",
			run:  Run{ID: "r1", DisplayName: "long_name", Metadata: map[string]interface{}{"state": StateRunning}},
			ok:   false,
		},
		{
			name: "no metadata",
			run:  Run{ID: "r1"},
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ProcessPatterns(tt.run)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
