package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Resource is one discovered AWS resource. Attribute values are limited to
// string, bool, int64, float64, []string and map[string]any; use NormalizeValue
// when filling them from decoded documents.
type Resource struct {
	ID         string
	Kind       Kind
	Name       string
	Region     string
	Attributes map[string]any
}

func (r Resource) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

func (r Resource) Attr(key string) (any, bool) {
	v, ok := r.Attributes[key]
	return v, ok
}

// Str returns the attribute as a string; non-string values yield "".
func (r Resource) Str(key string) string {
	switch v := r.Attributes[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

// Strings returns a list attribute. A single string is treated as a one-element list.
func (r Resource) Strings(key string) []string {
	switch v := r.Attributes[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

func (r Resource) Bool(key string) bool {
	switch v := r.Attributes[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

func (r Resource) Int(key string) int64 {
	switch v := r.Attributes[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// Clone returns a copy whose attribute map can be modified independently.
func (r Resource) Clone() Resource {
	out := r
	if r.Attributes != nil {
		out.Attributes = make(map[string]any, len(r.Attributes))
		for k, v := range r.Attributes {
			out.Attributes[k] = cloneValue(v)
		}
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[k] = cloneValue(item)
		}
		return m
	default:
		return v
	}
}

// NormalizeValue coerces decoded YAML/JSON values into the attribute value set.
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case uint64:
		if t > math.MaxInt64 {
			return float64(t)
		}
		return int64(t)
	case float32:
		return float64(t)
	case []string:
		return t
	case []any:
		strs := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				out := make([]any, len(t))
				for i := range t {
					out[i] = NormalizeValue(t[i])
				}
				return out
			}
			strs = append(strs, s)
		}
		return strs
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = NormalizeValue(item)
		}
		return out
	default:
		return v
	}
}

func NormalizeAttributes(attrs map[string]any) map[string]any {
	if attrs == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = NormalizeValue(v)
	}
	return out
}

// SortedAttributeKeys returns attribute keys in lexical order.
func (r Resource) SortedAttributeKeys() []string {
	keys := make([]string, 0, len(r.Attributes))
	for k := range r.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r Resource) String() string {
	return fmt.Sprintf("%s(%s)", r.Kind, r.ID)
}

// ShortName trims a display name to max runes, appending an ellipsis when cut.
func ShortName(name string, max int) string {
	runes := []rune(name)
	if max <= 0 || len(runes) <= max {
		return name
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}
