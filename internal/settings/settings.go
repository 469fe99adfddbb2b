// Package settings serves the web client's settings from the appSettings section of a
// YAML file, flattened into colon-joined keys.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// Section is the top-level YAML key holding the client settings.
const Section = "appSettings"

// VersionKey is added to every settings document.
const VersionKey = "AppVersion"

// Settings is a flat key/value view of the section.
type Settings map[string]interface{}

// Load reads path and flattens its appSettings section. A missing file yields only the
// app version.
func Load(path, version string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Settings{VersionKey: version}, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(data, version)
}

// Parse flattens the appSettings section of a YAML document.
func Parse(data []byte, version string) (Settings, error) {
	var doc map[interface{}]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse app settings: %w", err)
	}
	out := Settings{}
	if section, ok := doc[Section]; ok && section != nil {
		flatten("", section, out)
	}
	out[VersionKey] = version
	return out, nil
}

func flatten(prefix string, v interface{}, out Settings) {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		for k, child := range t {
			flatten(join(prefix, fmt.Sprint(k)), child, out)
		}
	case []interface{}:
		for i, child := range t {
			flatten(join(prefix, strconv.Itoa(i)), child, out)
		}
	case string:
		out[prefix] = coerce(t)
	case nil:
		out[prefix] = nil
	case float64:
		if finite(t) {
			out[prefix] = t
		} else {
			out[prefix] = strconv.FormatFloat(t, 'g', -1, 64)
		}
	default:
		out[prefix] = t
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}

// finite reports whether f can be written as a JSON number.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// coerce turns quoted booleans and numbers into their typed values. NaN and infinities
// stay strings since JSON has no encoding for them.
func coerce(s string) interface{} {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && finite(f) {
		return f
	}
	return s
}
