package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Content is the loosely typed content map of a feed entry.
type Content map[string]any

// TextKey holds the value of entries whose content is a bare scalar, as the
// properties endpoints return for a single key.
const TextKey = "$text"

// UnmarshalJSON accepts an object or a bare scalar.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		*c = m
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*c = Content{}
		return nil
	}
	*c = Content{TextKey: v}
	return nil
}

// Text returns the scalar content of a properties key entry.
func (c Content) Text() string {
	s, _ := c.Str(TextKey)
	return s
}

// Has reports whether key is present, even with a null value.
func (c Content) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// IsNull reports whether key is present with a JSON null value.
func (c Content) IsNull(key string) bool {
	v, ok := c[key]
	return ok && v == nil
}

// Str returns key as a string. Numbers and bools are formatted.
func (c Content) Str(key string) (string, bool) {
	switch v := c[key].(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// Float returns key as a float64, parsing numeric strings.
func (c Content) Float(key string) (float64, bool) {
	switch v := c[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Int returns key as an int, truncating fractional values.
func (c Content) Int(key string) (int, bool) {
	f, ok := c.Float(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Bool returns key as a bool. splunkd uses "1"/"0", "true"/"false" and
// native booleans interchangeably.
func (c Content) Bool(key string) (bool, bool) {
	switch v := c[key].(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			return true, true
		case "0", "false", "f", "no", "n", "off", "":
			return false, true
		}
	}
	return false, false
}

// Strings returns key as a string slice. A scalar string becomes a
// one-element slice.
func (c Content) Strings(key string) ([]string, bool) {
	switch v := c[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	case string:
		return []string{v}, true
	default:
		return nil, false
	}
}

// Map returns key as a nested Content.
func (c Content) Map(key string) (Content, bool) {
	m, ok := c[key].(map[string]any)
	if !ok {
		return nil, false
	}
	return Content(m), true
}
