package config

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Set assigns a value addressed by its JSON key, with "." separating
// nested keys ("enhancement.model"). The value is parsed as JSON when
// possible and taken as a string otherwise. The result is validated but
// not saved.
func (c *Config) Set(key, value string) error {
	fields, err := c.fields()
	if err != nil {
		return err
	}

	path := strings.Split(key, ".")
	m := fields
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			return fmt.Errorf("unknown config key: %s", key)
		}
		m = next
	}
	last := path[len(path)-1]
	current, present := m[last]
	optionalString, optional := optionalKeys[key]
	if !present && !optional {
		return fmt.Errorf("unknown config key: %s", key)
	}

	var v any
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		v = value
	}
	if _, isString := current.(string); isString || optionalString {
		v = value
	}
	m[last] = v

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	next := Config{path: c.path}
	if err := json.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("config key %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Keys lists every settable key in sorted order.
func (c *Config) Keys() []string {
	fields, err := c.fields()
	if err != nil {
		return nil
	}
	var keys []string
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			if sub, ok := v.(map[string]any); ok {
				walk(prefix+k+".", sub)
				continue
			}
			keys = append(keys, prefix+k)
		}
	}
	walk("", fields)
	for k := range optionalKeys {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// optionalKeys are omitted from JSON while empty. The value reports
// whether the key holds a string.
var optionalKeys = map[string]bool{
	"stt_model":                 true,
	"stt_base_url":              true,
	"output_dir":                true,
	"enhancement.custom_prompt": true,
	"enhancement.endpoint":      true,
	"enhancement.temperature":   false,
	"enhancement.max_tokens":    false,
	"local_model.id":            true,
	"local_model.dir":           true,
}

func (c *Config) fields() (map[string]any, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return m, nil
}
