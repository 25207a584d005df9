package services

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is one decoded object from a dataset file.
type Record map[string]any

// KeywordFields lists the category fields folded into keywords, in merge order.
var KeywordFields = []string{
	"categories",
	"top_level_categories",
	"mid_level_categories",
	"low_level_categories",
}

// Single-digit month and day layouts also accept zero-padded values.
var flexibleDateLayouts = []string{"2006-1-2", "2006-1", "2006"}

// ParseFlexibleDate accepts full dates, year-month and bare years. Anything else yields nil.
func ParseFlexibleDate(value any) *time.Time {
	s := strings.TrimSpace(scalarString(value))
	if s == "" {
		return nil
	}
	for _, layout := range flexibleDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}

// AsList wraps scalars in a one-element list; nil becomes an empty list.
func AsList(value any) []any {
	switch v := value.(type) {
	case nil:
		return []any{}
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}

// StringList keeps the trimmed, non-empty string elements of AsList(value).
func StringList(value any) []string {
	out := []string{}
	for _, item := range AsList(value) {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// MergeKeywords concatenates the KeywordFields of rec and dedupes them
// case-insensitively, keeping the first spelling seen.
func MergeKeywords(rec Record) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, field := range KeywordFields {
		for _, kw := range StringList(rec[field]) {
			key := strings.ToLower(kw)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}

// String returns the value at key as a string; nil and missing keys give "".
func (r Record) String(key string) string {
	return scalarString(r[key])
}

// Int returns the numeric value at key truncated to an int, or 0.
// Numeric strings are parsed.
func (r Record) Int(key string) int {
	switch v := r[key].(type) {
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return int(i)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f)
		}
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		if f, err := v.Float64(); err == nil {
			return int(f)
		}
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// Float returns the numeric value at key, or 0. Numeric strings are parsed.
func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
