package config

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// GetValue retrieves a value from a Config by dot-notation key path.
// It returns scalar values as-is, and maps/slices for intermediate nodes.
func GetValue(cfg *Config, keyPath string) (any, error) {
	m, err := configToMap(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return navigateMap(m, keyPath)
}

// SetValue sets a value in a raw YAML map by dot-notation key path,
// creating intermediate maps as needed.
func SetValue(data map[string]any, keyPath string, rawValue string) error {
	parts := strings.Split(keyPath, ".")
	if len(parts) == 0 {
		return fmt.Errorf("empty key path")
	}

	// Navigate to the parent, creating intermediate maps.
	current := data
	for _, part := range parts[:len(parts)-1] {
		child, ok := current[part]
		if !ok {
			next := make(map[string]any)
			current[part] = next
			current = next
			continue
		}
		next, ok := child.(map[string]any)
		if !ok {
			return fmt.Errorf("key %q is not a map", part)
		}
		current = next
	}

	last := parts[len(parts)-1]
	if len(parts) == 1 && isListKey(last) {
		var items []any
		for _, item := range strings.Split(rawValue, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		current[last] = items
		return nil
	}
	current[last] = coerceValue(rawValue)
	return nil
}

// isListKey reports whether the top-level Config field tagged key is a
// slice. Values for list keys are given comma-separated.
func isListKey(key string) bool {
	t := reflect.TypeOf(Config{})
	for i := range t.NumField() {
		f := t.Field(i)
		if strings.Split(f.Tag.Get("yaml"), ",")[0] == key {
			return f.Type.Kind() == reflect.Slice
		}
	}
	return false
}

// ValidateKeyPath checks that a dot-notation key path corresponds to a
// settable Config field. It uses yaml struct tags to build the valid key set.
func ValidateKeyPath(keyPath string) error {
	parts := strings.Split(keyPath, ".")
	if keyPath == "" || len(parts) == 0 {
		return fmt.Errorf("empty key path")
	}

	topKeys := yamlKeys(reflect.TypeOf(Config{}))
	first := parts[0]

	if first == "custom_categories" {
		return fmt.Errorf("custom_categories cannot be set via config set; edit the config file directly")
	}

	if _, ok := topKeys[first]; !ok {
		return fmt.Errorf("unknown key %q; valid keys: %s", first, sortedKeys(topKeys))
	}

	if len(parts) > 1 {
		return fmt.Errorf("key %q is a scalar; cannot use sub-keys", first)
	}
	return nil
}

// configToMap marshals a Config to a map via YAML round-trip.
func configToMap(cfg *Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

// navigateMap traverses a nested map using a dot-notation key path.
func navigateMap(m map[string]any, keyPath string) (any, error) {
	parts := strings.Split(keyPath, ".")
	var current any = m
	for _, part := range parts {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("key %q: parent is not a map", part)
		}
		val, exists := cm[part]
		if !exists {
			return nil, fmt.Errorf("key %q not found", keyPath)
		}
		current = val
	}
	return current, nil
}

// coerceValue parses a string into bool, int, float64, or keeps it as string.
func coerceValue(s string) any {
	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		// Only use float if it has a decimal point (avoid converting "3" to 3.0).
		if strings.Contains(s, ".") {
			return f
		}
	}
	return s
}

// yamlKeys extracts yaml tag names from a struct type.
func yamlKeys(t reflect.Type) map[string]bool {
	keys := make(map[string]bool)
	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name != "" {
			keys[name] = true
		}
	}
	return keys
}

// sortedKeys returns a comma-separated sorted list of map keys.
func sortedKeys(m map[string]bool) string {
	keys := slices.Sorted(maps.Keys(m))
	return strings.Join(keys, ", ")
}
