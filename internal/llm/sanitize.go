package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Canonicalizer maps a loose string onto the enum value the schema expects.
// ok is false when the input is not recognised.
type Canonicalizer func(s string) (canonical string, ok bool)

var (
	thousandsNumber    = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)
	decimalCommaNumber = regexp.MustCompile(`^-?\d+,\d{1,2}$`)
)

// SanitizeAgainstSchema applies lenient fixes to model output before strict validation:
//   - drops keys the schema does not declare
//   - drops null or empty optionals
//   - trims strings and lower-cases values of string enums
//   - coerces numeric strings into numbers and numbers into strings where the schema asks
//
// It returns the cleaned document and a list of what changed.
func SanitizeAgainstSchema(schema map[string]any, raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	return sanitize(schema, nil, raw, logger)
}

// sanitize also rewrites the string fields named in canon (keyed by dotted path).
func sanitize(schema map[string]any, canon map[string]Canonicalizer, raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	sz := &sanitizer{canon: canon}
	doc = sz.value(schema, doc, "")
	changes := sz.changes

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, changes, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changes) > 0 {
		logger.Warn("llm.sanitize.applied", "changes", changes)
	}
	return out, changes, nil
}

type sanitizer struct {
	canon   map[string]Canonicalizer
	changes []string
}

func (z *sanitizer) note(path, what string) {
	z.changes = append(z.changes, path+"("+what+")")
}

func (z *sanitizer) value(schema map[string]any, v any, path string) any {
	switch t := v.(type) {
	case map[string]any:
		return z.object(schema, t, path)
	case []any:
		items, _ := schema["items"].(map[string]any)
		for i := range t {
			t[i] = z.value(items, t[i], fmt.Sprintf("%s[%d]", path, i))
		}
		return t
	case string:
		s := strings.TrimSpace(t)
		if _, isEnum := schema["enum"]; isEnum {
			s = strings.ToLower(s)
		}
		if c, ok := z.canon[path]; ok {
			if canonical, ok := c(s); ok && canonical != s {
				z.note(path, "canonical")
				return canonical
			}
		}
		if allowsType(schema, "number") && !allowsType(schema, "string") {
			if f, ok := parseLooseNumber(s); ok {
				z.note(path, "number")
				return f
			}
		}
		if s != t {
			z.note(path, "normalized")
		}
		return s
	case float64:
		if allowsType(schema, "string") && !allowsType(schema, "number") {
			z.note(path, "string")
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
		return t
	default:
		return v
	}
}

// parseLooseNumber accepts plain numbers, thousands separators ("1,250.50") and a
// decimal comma with one or two digits ("12,50"). Anything else is left for validation to reject.
func parseLooseNumber(s string) (float64, bool) {
	switch {
	case thousandsNumber.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case decimalCommaNumber.MatchString(s):
		s = strings.Replace(s, ",", ".", 1)
	case strings.Contains(s, ","):
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func (z *sanitizer) object(schema map[string]any, m map[string]any, path string) map[string]any {
	props, _ := schema["properties"].(map[string]any)
	if props == nil {
		return m
	}
	required := map[string]bool{}
	if req, ok := schema["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}
	strict := schema["additionalProperties"] == false

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		sub := join(path, k)
		propSchema, known := props[k].(map[string]any)
		if !known {
			if strict {
				delete(m, k)
				z.note(sub, "unknown")
			}
			continue
		}
		val := m[k]
		if val == nil {
			if !required[k] && !allowsType(propSchema, "null") {
				delete(m, k)
				z.note(sub, "null")
			}
			continue
		}
		val = z.value(propSchema, val, sub)
		if s, ok := val.(string); ok && s == "" && !required[k] {
			delete(m, k)
			z.note(sub, "empty")
			continue
		}
		m[k] = val
	}
	return m
}

func allowsType(schema map[string]any, name string) bool {
	switch t := schema["type"].(type) {
	case string:
		return t == name
	case []any:
		for _, v := range t {
			if v == name {
				return true
			}
		}
	}
	return false
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
