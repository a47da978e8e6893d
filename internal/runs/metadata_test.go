package runs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigYAML(t *testing.T) {
	data := []byte(`
wandb_version: 1
lr:
  desc: null
  value: 0.0003
env:
  value:
    name: walker
    steps: 1000
seed: 7
`)
	got, err := parseConfigYAML(data)
	require.NoError(t, err)

	assert.Equal(t, 0.0003, got["lr"])
	assert.Equal(t, map[string]interface{}{"name": "walker", "steps": 1000}, got["env"])
	assert.Equal(t, 7, got["seed"])
	assert.Equal(t, 1, got["wandb_version"])

	_, err = parseConfigYAML([]byte("key: [unterminated"))
	assert.Error(t, err)
}

func TestConfigFromArgs(t *testing.T) {
	got := configFromArgs([]string{
		"task.reward.weight=0.5",
		"task.reward.enabled=True",
		"task.name=reach",
		"seed=42",
		"--headless",
		"tag=v1.x",
		"seed.offset=3",
	})

	assert.Equal(t, map[string]interface{}{
		"task": map[string]interface{}{
			"reward": map[string]interface{}{
				"weight":  0.5,
				"enabled": true,
			},
			"name": "reach",
		},
		"seed":        42,
		"tag":         "v1.x",
		"seed.offset": 3,
	}, got)
}

func TestDisplayName(t *testing.T) {
	config := map[string]interface{}{
		"params":     map[string]interface{}{"config": map[string]interface{}{"full_experiment_name": "ppo-walker"}},
		"env_kwargs": map[string]interface{}{"retarget_info": map[string]interface{}{"clip": "dance_01"}},
	}

	tests := []struct {
		name   string
		config map[string]interface{}
		info   RunInfo
		want   string
	}{
		{"binary display name wins", config, RunInfo{DisplayName: "swift-river-7"}, "swift-river-7"},
		{"display name equal to id is ignored", config, RunInfo{DisplayName: "abc"}, "ppo-walker"},
		{"experiment name", config, RunInfo{}, "ppo-walker"},
		{"clip", map[string]interface{}{"env_kwargs": config["env_kwargs"]}, RunInfo{}, "dance_01"},
		{"falls back to id", map[string]interface{}{"params": "flat"}, RunInfo{}, "abc"},
		{"nil config", nil, RunInfo{}, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, displayName("abc", tt.config, tt.info))
		})
	}
}

func TestLookupConfig(t *testing.T) {
	config := map[string]interface{}{
		"a": map[string]interface{}{"b": map[string]interface{}{"c": 3}},
		"x": 1,
	}
	assert.Equal(t, 3, LookupConfig(config, "a.b.c"))
	assert.Equal(t, 1, LookupConfig(config, "x"))
	assert.Nil(t, LookupConfig(config, "x.y"))
	assert.Nil(t, LookupConfig(config, "a.missing"))
}

func TestConfigKeys(t *testing.T) {
	a := map[string]interface{}{
		"lr":            0.1,
		"_wandb":        map[string]interface{}{"cli_version": "0.16"},
		"wandb_version": 1,
		"env":           map[string]interface{}{"name": "walker", "sim": map[string]interface{}{"dt": 0.01}},
	}
	b := map[string]interface{}{"lr": 0.2, "seed": 1}

	assert.Equal(t, []string{"env.name", "env.sim.dt", "lr", "seed"}, ConfigKeys(a, b, nil))
}
