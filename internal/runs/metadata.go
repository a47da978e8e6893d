package runs

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// parseConfigYAML reads a run's config.yaml. wandb wraps every entry as
// {value: x, desc: ...}; the wrapper is removed.
func parseConfigYAML(data []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if m, ok := v.(map[string]interface{}); ok {
			if inner, ok := m["value"]; ok {
				out[k] = inner
				continue
			}
		}
		out[k] = v
	}
	return out, nil
}

func parseJSONObject(data []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// configFromArgs builds a nested config from command line arguments of the
// form a.b.c=value. A path that runs into an existing scalar is stored
// under its flat dotted key instead.
func configFromArgs(args []string) map[string]interface{} {
	config := map[string]interface{}{}
	for _, arg := range args {
		path, raw, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		value := coerceArg(raw)

		parts := strings.Split(path, ".")
		current := config
		nested := true
		for _, part := range parts[:len(parts)-1] {
			next, exists := current[part]
			if !exists {
				m := map[string]interface{}{}
				current[part] = m
				current = m
				continue
			}
			m, isMap := next.(map[string]interface{})
			if !isMap {
				config[path] = value
				nested = false
				break
			}
			current = m
		}
		if nested {
			current[parts[len(parts)-1]] = value
		}
	}
	return config
}

func coerceArg(s string) interface{} {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return s
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return s
}

// displayName picks the label shown for a run.
func displayName(id string, config map[string]interface{}, info RunInfo) string {
	if info.DisplayName != "" && info.DisplayName != id {
		return info.DisplayName
	}
	if name, ok := lookupString(config, "params", "config", "full_experiment_name"); ok {
		return name
	}
	if clip, ok := lookupString(config, "env_kwargs", "retarget_info", "clip"); ok {
		return clip
	}
	return id
}

func lookupString(m map[string]interface{}, path ...string) (string, bool) {
	v := LookupConfig(m, strings.Join(path, "."))
	s, ok := v.(string)
	return s, ok && s != ""
}

// LookupConfig returns the value at a dot separated path, or nil.
func LookupConfig(config map[string]interface{}, path string) interface{} {
	var current interface{} = config
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

// flattenKeys adds the dot path of every leaf value in obj to keys.
func flattenKeys(obj map[string]interface{}, prefix string, keys map[string]bool) {
	for k, v := range obj {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		if m, ok := v.(map[string]interface{}); ok {
			flattenKeys(m, full, keys)
			continue
		}
		keys[full] = true
	}
}

// ConfigKeys returns the sorted leaf paths of the given configs, skipping
// wandb bookkeeping entries.
func ConfigKeys(configs ...map[string]interface{}) []string {
	keys := map[string]bool{}
	for _, c := range configs {
		flattenKeys(c, "", keys)
	}
	out := make([]string, 0, len(keys))
	for k := range keys {
		if strings.HasPrefix(k, "_wandb") || strings.HasPrefix(k, "wandb_version") {
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
