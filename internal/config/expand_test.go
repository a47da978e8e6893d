package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandTilde(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"~", "/home/tester"},
		{"~/wandb", filepath.Join("/home/tester", "wandb")},
		{"~other/wandb", "~other/wandb"},
		{"/abs/~/path", "/abs/~/path"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandTilde(tt.input))
		})
	}
}

func TestExpand(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("USER", "tester")

	assert.Equal(t, "/home/tester/wandb", Expand("${HOME}/wandb"))
	assert.Equal(t, "/scratch/tester/runs", Expand("/scratch/${USER}/runs"))
	assert.Equal(t, "./wandb", Expand("./wandb"))
	assert.Equal(t, "${PROJECT}", Expand("${PROJECT}"), "unknown variables are left alone")
}
