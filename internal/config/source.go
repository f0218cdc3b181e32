package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// source resolves a key across flag, environment, YAML file and default.
type source struct {
	file map[string]string // keyed by environment variable name
}

// lookup finds key in the environment, then the YAML file. An explicitly
// empty environment value counts as set.
func (s source) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	v, ok := s.file[key]
	return v, ok
}

// get returns the first non-empty value from flag, env, file, or default.
func (s source) get(flagValue, key, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := s.file[key]; v != "" {
		return v
	}
	return defaultValue
}

// getBool accepts "true", "1" and "yes" (case-insensitive) as true.
func (s source) getBool(flagValue, key string, defaultValue bool) bool {
	v := s.get(flagValue, key, "")
	if v == "" {
		return defaultValue
	}
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes"
}

func (s source) getInt(flagValue, key string, defaultValue int) int {
	n, err := strconv.Atoi(s.get(flagValue, key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func (s source) getFloat(flagValue, key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(s.get(flagValue, key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// loadYAMLFile reads a YAML config file into a map keyed like the
// environment: top-level and nested keys are upper-cased and joined with "_",
// so
//
//	server:
//	  port: 9000
//
// sets SERVER_PORT. Lists are joined with commas. An empty path yields nil.
func loadYAMLFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path) //#nosec G304 -- user-supplied config path is expected
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	out := make(map[string]string)
	flatten("", doc, out)
	return out, nil
}

func flatten(prefix string, v any, out map[string]string) {
	switch t := v.(type) {
	case map[any]any:
		for k, child := range t {
			flatten(joinKey(prefix, fmt.Sprint(k)), child, out)
		}
	case map[string]any:
		for k, child := range t {
			flatten(joinKey(prefix, k), child, out)
		}
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, fmt.Sprint(item))
		}
		out[prefix] = strings.Join(parts, ",")
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprint(t)
	}
}

func joinKey(prefix, key string) string {
	key = strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
	if prefix == "" {
		return key
	}
	return prefix + "_" + key
}
